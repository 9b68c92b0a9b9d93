package cpu

import (
	"fmt"
	"strings"
)

// Opcode is the selector word of an instruction.
type Opcode uint16

const (
	OP_HALT = Opcode(0)  // halt
	OP_SET  = Opcode(1)  // set
	OP_PUSH = Opcode(2)  // push
	OP_POP  = Opcode(3)  // pop
	OP_EQ   = Opcode(4)  // eq
	OP_GT   = Opcode(5)  // gt
	OP_JMP  = Opcode(6)  // jmp
	OP_JT   = Opcode(7)  // jt
	OP_JF   = Opcode(8)  // jf
	OP_ADD  = Opcode(9)  // add
	OP_MULT = Opcode(10) // mult
	OP_MOD  = Opcode(11) // mod
	OP_AND  = Opcode(12) // and
	OP_OR   = Opcode(13) // or
	OP_NOT  = Opcode(14) // not
	OP_RMEM = Opcode(15) // rmem
	OP_WMEM = Opcode(16) // wmem
	OP_CALL = Opcode(17) // call
	OP_RET  = Opcode(18) // ret
	OP_OUT  = Opcode(19) // out
	OP_IN   = Opcode(20) // in
	OP_NOOP = Opcode(21) // noop

	OPCODE_COUNT = 22 // Number of defined opcodes.
	ARGS_MAX     = 3  // Largest operand count of any opcode.
)

// opcodeTable holds the mnemonic and operand count of every opcode.
var opcodeTable = [OPCODE_COUNT]struct {
	name  string
	arity int
}{
	OP_HALT: {"halt", 0},
	OP_SET:  {"set", 2},
	OP_PUSH: {"push", 1},
	OP_POP:  {"pop", 1},
	OP_EQ:   {"eq", 3},
	OP_GT:   {"gt", 3},
	OP_JMP:  {"jmp", 1},
	OP_JT:   {"jt", 2},
	OP_JF:   {"jf", 2},
	OP_ADD:  {"add", 3},
	OP_MULT: {"mult", 3},
	OP_MOD:  {"mod", 3},
	OP_AND:  {"and", 3},
	OP_OR:   {"or", 3},
	OP_NOT:  {"not", 2},
	OP_RMEM: {"rmem", 2},
	OP_WMEM: {"wmem", 2},
	OP_CALL: {"call", 1},
	OP_RET:  {"ret", 0},
	OP_OUT:  {"out", 1},
	OP_IN:   {"in", 1},
	OP_NOOP: {"noop", 0},
}

// opcodeMap maps mnemonics to opcodes.
var opcodeMap = func() map[string]Opcode {
	m := make(map[string]Opcode, OPCODE_COUNT)
	for n, entry := range opcodeTable {
		m[entry.name] = Opcode(n)
	}
	return m
}()

// LookupOpcode returns the opcode for a mnemonic.
func LookupOpcode(name string) (op Opcode, ok bool) {
	op, ok = opcodeMap[name]
	return
}

// Valid returns true if the opcode is defined by the architecture.
func (op Opcode) Valid() bool {
	return op < OPCODE_COUNT
}

// Arity returns the number of operand words following the opcode.
func (op Opcode) Arity() int {
	if !op.Valid() {
		return 0
	}
	return opcodeTable[op].arity
}

func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Opcode(%d)", uint16(op))
	}
	return opcodeTable[op].name
}

// Instruction is a decoded opcode and its raw operand words.
// Operands are kept verbatim; they are resolved when executed.
type Instruction struct {
	Opcode Opcode
	Args   [ARGS_MAX]uint16
}

// MakeInstruction creates an instruction from an opcode and its operands.
// Operands beyond the opcode's arity are ignored.
func MakeInstruction(op Opcode, args ...uint16) (ins Instruction) {
	ins.Opcode = op
	copy(ins.Args[:op.Arity()], args)
	return
}

// Operands returns the raw operand words used by the instruction.
func (ins Instruction) Operands() []uint16 {
	return ins.Args[:ins.Opcode.Arity()]
}

// Words returns the memory image of the instruction.
func (ins Instruction) Words() []uint16 {
	return append([]uint16{uint16(ins.Opcode)}, ins.Operands()...)
}

// Size returns the number of words occupied by the instruction.
func (ins Instruction) Size() int {
	return 1 + ins.Opcode.Arity()
}

// String returns the assembly language representation of this instruction.
func (ins Instruction) String() string {
	words := []string{ins.Opcode.String()}
	for _, raw := range ins.Operands() {
		words = append(words, OperandString(raw))
	}
	return strings.Join(words, " ")
}

// OperandString formats a raw operand as a register name or a number.
func OperandString(raw uint16) string {
	if IsRegister(raw) {
		return fmt.Sprintf("r%d", raw-REGISTER_BASE)
	}
	return fmt.Sprintf("%d", raw)
}
