// Package cpu implements the 16-bit word-addressed processor and its
// assembler.
//
// The processor has 32768 words of memory, eight registers, an unbounded
// stack and an instruction pointer (IP). Each instruction is an opcode word
// followed by zero to three raw operand words. A raw operand below 32768 is
// a literal; 32768 through 32775 name registers r0 through r7.
//
// Console input and output are performed through a Channel, and execution
// may be observed with a Tracer.
//
// The assembler provides a small assembly language for the instruction set,
// supporting labels, equates, data directives and compile-time expression
// evaluation.
package cpu
