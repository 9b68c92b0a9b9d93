// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// MACRO_DEPTH_MAX limits nested macro expansion.
const MACRO_DEPTH_MAX = 16

// Macro is a macro definition.
type Macro struct {
	LineNo int      // Line number of the first line of the body.
	Args   []string // Argument names, bound as equates during expansion.
	Lines  []string // Body text.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":        "0",
	"MEMORY_SIZE":   fmt.Sprintf("%d", MEMORY_SIZE),
	"REGISTER_BASE": fmt.Sprintf("%d", REGISTER_BASE),
	"WORD_MASK":     fmt.Sprintf("%#x", WORD_MASK),
}

// Assembler is a single pass assembler for the processor.
type Assembler struct {
	Logger    logrus.FieldLogger // If set, logs the assembler actions.
	Statement []Statement        // List of generated statements.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
	Macro     map[string]*Macro // Map of macros.

	expansions int // Expansion counter, used to make '@' labels unique.
	depth      int // Current macro nesting.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap is a map of register names to raw operand values.
var regMap = func() map[string]uint16 {
	m := make(map[string]uint16, REGISTER_COUNT)
	for n := range REGISTER_COUNT {
		m[fmt.Sprintf("r%d", n)] = Register(n)
	}
	return m
}()

// destinationOps take a register as their first operand.
var destinationOps = map[Opcode]bool{
	OP_SET:  true,
	OP_POP:  true,
	OP_EQ:   true,
	OP_GT:   true,
	OP_ADD:  true,
	OP_MULT: true,
	OP_MOD:  true,
	OP_AND:  true,
	OP_OR:   true,
	OP_NOT:  true,
	OP_RMEM: true,
	OP_IN:   true,
}

var (
	reLabel = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*):`)
	reName  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	reChar  = regexp.MustCompile(`'\\?[^']'`)
	reParen = regexp.MustCompile(`\$\([^\$]*\)`)
)

// valueOf returns the value of a numeric word. Negative numbers are
// taken modulo 32768.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	switch {
	case v64 < 0 && v64 >= -WORD_MODULO:
		value = uint16(WORD_MODULO + v64)
	case v64 >= 0 && v64 <= 0xffff:
		value = uint16(v64)
	default:
		err = ErrParseNumber(word)
	}

	return
}

// operand determines the raw value of an operand word. Names that are
// not registers are returned as labels to be linked later.
func (asm *Assembler) operand(word string) (raw uint16, label string, err error) {
	raw, ok := regMap[word]
	if ok {
		return
	}

	if reName.MatchString(word) {
		label = word
		return
	}

	raw, err = asm.valueOf(word)
	if err != nil {
		err = ErrParseValue(word)
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value16 uint16
		value16, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	for key, ip := range asm.Label {
		pred[key] = starlark.MakeInt(ip)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// stripComment removes a ';' comment that is not within quotes.
func stripComment(text string) string {
	var quote byte
	for n := 0; n < len(text); n++ {
		ch := text[n]
		switch {
		case quote != 0 && ch == '\\':
			n++
		case quote != 0 && ch == quote:
			quote = 0
		case quote != 0:
			// quoted
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == ';':
			return text[:n]
		}
	}

	return text
}

// splitLabels removes the leading 'label:' definitions from a line.
func splitLabels(line string) (labels []string, rest string) {
	rest = strings.TrimSpace(line)
	for {
		match := reLabel.FindStringSubmatch(rest)
		if match == nil {
			return
		}
		labels = append(labels, match[1])
		rest = strings.TrimSpace(rest[len(match[0]):])
	}
}

// expand evaluates character literals and $(...) expressions, and splits
// the line into words.
func (asm *Assembler) expand(line string) (words []string, err error) {
	// Do 'x' evaluations
	line = reChar.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	return
}

// parseLine parses a single line of source.
func (asm *Assembler) parseLine(line string, lineno int) (err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	labels, rest := splitLabels(line)
	for _, label := range labels {
		if _, ok := regMap[label]; ok {
			err = ErrLabelInvalid
			return
		}
		if _, ok := asm.Label[label]; ok {
			err = ErrLabelDuplicate
			return
		}
		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentIp()
	}

	if len(rest) == 0 {
		return
	}

	// .string "TEXT"
	directive, arg, _ := strings.Cut(rest, " ")
	if directive == ".string" {
		err = asm.parseString(strings.TrimSpace(arg), lineno)
		return
	}

	words, err := asm.expand(rest)
	if err != nil || len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	macro, ok := asm.Macro[words[0]]
	if ok {
		err = asm.expandMacro(words[0], macro, words[1:])
		return
	}

	err = asm.parseWords(words, lineno)

	return
}

// expandMacro assembles the body of a macro with its arguments bound as
// equates. '@' in the body is replaced by a prefix unique to this
// expansion.
func (asm *Assembler) expandMacro(name string, macro *Macro, args []string) (err error) {
	if len(args) != len(macro.Args) {
		err = ErrMacroSyntax
		return
	}

	if asm.depth >= MACRO_DEPTH_MAX {
		err = ErrMacroDepth
		return
	}

	old_equate := maps.Clone(asm.Equate)
	for n, arg := range macro.Args {
		asm.Equate[arg] = args[n]
	}

	asm.depth++
	asm.expansions++
	prefix := fmt.Sprintf("%v_%d_", name, asm.expansions)

	defer func() {
		asm.depth--
		asm.Equate = old_equate
	}()

	for n, line := range macro.Lines {
		lineno := macro.LineNo + n

		line = strings.ReplaceAll(line, "@", prefix)
		err = asm.parseLine(line, lineno)
		if err != nil {
			err = &ErrMacro{Macro: name, LineNo: lineno, Err: err}
			return
		}
	}

	return
}

// parseString emits one word per byte of a quoted string.
func (asm *Assembler) parseString(arg string, lineno int) (err error) {
	text, err := strconv.Unquote(arg)
	if err != nil {
		err = ErrStringSyntax
		return
	}

	data := make([]uint16, len(text))
	for n := range len(text) {
		data[n] = uint16(text[n])
	}

	asm.emit(Statement{LineNo: lineno, Words: []string{".string", arg}, Data: data})

	return
}

// currentIp gets the current Ip
func (asm *Assembler) currentIp() int {
	if len(asm.Statement) == 0 {
		return 0
	}

	last := asm.Statement[len(asm.Statement)-1]

	return last.Ip + len(last.Data)
}

// emit appends a statement at the current Ip.
func (asm *Assembler) emit(st Statement) {
	st.Ip = asm.currentIp()
	asm.Statement = append(asm.Statement, st)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Statement = asm.Statement[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string]*Macro)
	}
	clear(asm.Macro)
	asm.expansions = 0
	asm.depth = 0
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Logger != nil {
			asm.Logger.Debugf("%v: %v", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 || !reName.MatchString(words[1]) {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
				Args:   words[2:],
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Statement {
		st := &asm.Statement[n]

		for _, link := range st.Links {
			ip, ok := asm.Label[link.Label]
			if !ok {
				lineno = st.LineNo
				line = strings.Join(st.Words, " ")
				err = ErrLabelMissing(link.Label)
				return
			}
			st.Data[link.Index] = uint16(ip)
		}
	}

	prog = &Program{
		Statements: slices.Clone(asm.Statement),
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []uint16
	var links []Link

	// no-op
	if len(words) == 0 {
		return
	}

	switch words[0] {
	case ".word":
		if len(words) < 2 {
			err = ErrOperandMissing
			return
		}
		for n, word := range words[1:] {
			var raw uint16
			var label string
			raw, label, err = asm.operand(word)
			if err != nil {
				return
			}
			if len(label) != 0 {
				links = append(links, Link{Index: n, Label: label})
			}
			data = append(data, raw)
		}
	default:
		op, ok := LookupOpcode(words[0])
		if !ok {
			err = ErrInstructionInvalid
			return
		}
		args := words[1:]
		if len(args) < op.Arity() {
			err = ErrOperandMissing
			return
		}
		if len(args) > op.Arity() {
			err = ErrOperandExtra
			return
		}
		ins := Instruction{Opcode: op}
		for n, word := range args {
			var raw uint16
			var label string
			raw, label, err = asm.operand(word)
			if err != nil {
				return
			}
			if n == 0 && destinationOps[op] && (len(label) != 0 || !IsRegister(raw)) {
				err = ErrParseRegister(word)
				return
			}
			if len(label) != 0 {
				links = append(links, Link{Index: 1 + n, Label: label})
			}
			ins.Args[n] = raw
		}
		data = ins.Words()
	}

	asm.emit(Statement{LineNo: lineno, Words: words, Data: data, Links: links})

	return
}

// Assemble parses assembly text into a memory image.
func Assemble(input io.Reader) (image []uint16, err error) {
	asm := &Assembler{}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	image = prog.Binary()

	return
}
