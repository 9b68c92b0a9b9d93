package cpu

import (
	"errors"
)

// ResolveValue returns the value denoted by a raw operand: the operand
// itself for a literal, or the content of the referenced register.
// Operands above the register range are rejected.
func (cpu *Cpu) ResolveValue(raw uint16) (value uint16, err error) {
	switch {
	case IsLiteral(raw):
		value = raw
	case IsRegister(raw):
		value = cpu.Register[raw-REGISTER_BASE]
	default:
		err = errors.Join(ErrValueInvalid, ErrOperand(raw))
	}

	return
}

// ResolveRegister returns the register index referenced by a raw operand.
func (cpu *Cpu) ResolveRegister(raw uint16) (index int, err error) {
	if !IsRegister(raw) {
		err = errors.Join(ErrRegisterInvalid, ErrOperand(raw))
		return
	}

	index = int(raw - REGISTER_BASE)
	return
}

// resolveAddress returns a memory address from a raw operand.
func (cpu *Cpu) resolveAddress(raw uint16) (addr uint16, err error) {
	addr, err = cpu.ResolveValue(raw)
	if err != nil {
		return
	}

	if addr >= MEMORY_SIZE {
		err = errors.Join(ErrAddressInvalid, ErrAddress(addr))
	}
	return
}
