package cpu

import (
	"errors"
	"fmt"

	"github.com/ezrec/synacor/translate"
)

var f = translate.From

var (
	// Termination. Not faults.
	ErrHalt       = errors.New(f("halt"))
	ErrHaltReturn = fmt.Errorf("%w: %v", ErrHalt, f("return with empty stack"))

	// Cpu faults
	ErrIpInvalid       = errors.New(f("ip out of range"))
	ErrValueInvalid    = errors.New(f("value invalid"))
	ErrRegisterInvalid = errors.New(f("expected register operand"))
	ErrAddressInvalid  = errors.New(f("address out of range"))
	ErrStackEmpty      = errors.New(f("stack empty"))
	ErrInputEmpty      = errors.New(f("input empty"))
	ErrDivideByZero    = errors.New(f("divide by zero"))
	ErrChannelInvalid  = errors.New(f("channel invalid"))
	ErrImageTooLarge   = errors.New(f("image too large"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrStringSyntax       = errors.New(f(".string syntax"))
	ErrOperandExtra       = errors.New(f("excessive operands"))
	ErrOperandMissing     = errors.New(f("operand missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrMacroDepth         = errors.New(f(".macro expansion too deep"))
)

// ErrOpcode is an opcode word outside of the instruction set.
type ErrOpcode uint16

func (eo ErrOpcode) Error() string {
	return f("bad opcode %d", uint16(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrOperand is the raw operand that caused a fault.
type ErrOperand uint16

func (eo ErrOperand) Error() string {
	return f("operand %d", uint16(eo))
}

// ErrAddress is the memory address that caused a fault.
type ErrAddress uint32

func (ea ErrAddress) Error() string {
	return f("address %d", uint32(ea))
}

// ErrImageSize is the word count of an image that does not fit in memory.
type ErrImageSize int

func (es ErrImageSize) Error() string {
	return f("image of %d words", int(es))
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrMacro locates an error within a macro body.
type ErrMacro struct {
	Macro  string
	LineNo int
	Err    error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %d %v", err.Macro, err.LineNo, err.Err)
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseValue string

func (err ErrParseValue) Error() string {
	return f("'%v' is not a value or register", string(err))
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
