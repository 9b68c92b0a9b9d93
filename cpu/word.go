package cpu

// Architecture constants.
const (
	MEMORY_SIZE    = 32768 // Words of addressable memory.
	REGISTER_COUNT = 8     // Number of general purpose registers.
	REGISTER_BASE  = 32768 // Raw value of register r0.
	REGISTER_LAST  = REGISTER_BASE + REGISTER_COUNT - 1
	WORD_MODULO    = 32768 // Arithmetic is performed modulo this value.
	WORD_MASK      = 0x7fff
)

// IsLiteral returns true if the raw value is used as-is.
func IsLiteral(raw uint16) bool {
	return raw < REGISTER_BASE
}

// IsRegister returns true if the raw value references a register.
func IsRegister(raw uint16) bool {
	return raw >= REGISTER_BASE && raw <= REGISTER_LAST
}

// Register returns the raw operand value that references register n.
func Register(n int) uint16 {
	return uint16(REGISTER_BASE + n)
}
