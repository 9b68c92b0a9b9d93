package cpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ezrec/synacor/io"
)

// Channel is the console channel interface.
type Channel io.Channel

// Tracer observes every instruction before it is executed.
type Tracer interface {
	Trace(ip uint16, ins Instruction)
}

// Cpu is the simulation context for the processor.
type Cpu struct {
	Tracer Tracer // If set, called for each executed instruction.

	Memory   [MEMORY_SIZE]uint16    // Main memory.
	Register [REGISTER_COUNT]uint16 // Register bank.
	Stack    Stack                  // Stack simulation.
	Ip       uint16                 // Current instruction pointer.

	Ticks int // Executed instruction counter.

	console Channel
}

// NewCpu creates a new CPU with zeroed memory and registers.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%5s: %05d\n", "ip", cpu.Ip)
	for n, val := range cpu.Register {
		fmt.Fprintf(&sb, "%5s: %05d\n", fmt.Sprintf("r%d", n), val)
	}

	val, ok := cpu.Stack.Peek()
	if ok {
		fmt.Fprintf(&sb, "%5s: %05d (%d deep)\n", "stack", val, cpu.Stack.Len())
	} else {
		fmt.Fprintf(&sb, "%5s: -----\n", "stack")
	}
	fmt.Fprintf(&sb, "%5s: %d\n", "ticks", cpu.Ticks)

	return sb.String()
}

// Reset the CPU state.
// - Clears the registers and stack.
// - Sets the IP to 0.
// - Zeros the tick counter.
// - Rewinds the console channel.
//
// Memory is left untouched.
func (cpu *Cpu) Reset() {
	clear(cpu.Register[:])
	cpu.Stack.Reset()
	cpu.Ip = 0
	cpu.Ticks = 0

	if cpu.console != nil {
		cpu.console.Rewind()
	}
}

// Load replaces the memory content with a program image starting at
// address 0. Memory past the image is zeroed.
func (cpu *Cpu) Load(image []uint16) (err error) {
	if len(image) > MEMORY_SIZE {
		err = errors.Join(ErrImageTooLarge, ErrImageSize(len(image)))
		return
	}

	clear(cpu.Memory[:])
	copy(cpu.Memory[:], image)

	return
}

// SetChannel sets the console channel.
func (cpu *Cpu) SetChannel(channel Channel) {
	cpu.console = channel
}

// GetChannel gets the console channel.
func (cpu *Cpu) GetChannel() (channel Channel, err error) {
	if cpu.console == nil {
		err = ErrChannelInvalid
		return
	}

	channel = cpu.console
	return
}

// fetch reads the word at a memory address on behalf of the decoder.
func (cpu *Cpu) fetch(addr int) (word uint16, err error) {
	if addr >= MEMORY_SIZE {
		err = errors.Join(ErrIpInvalid, ErrAddress(addr))
		return
	}

	word = cpu.Memory[addr]
	return
}

// FetchInstruction decodes the instruction at the IP.
// The CPU state is not modified.
func (cpu *Cpu) FetchInstruction() (ins Instruction, err error) {
	ip := int(cpu.Ip)

	word, err := cpu.fetch(ip)
	if err != nil {
		return
	}

	op := Opcode(word)
	if !op.Valid() {
		err = ErrOpcode(word)
		return
	}

	ins.Opcode = op
	for n := range op.Arity() {
		ins.Args[n], err = cpu.fetch(ip + 1 + n)
		if err != nil {
			return
		}
	}

	return
}

// Tick executes a single CPU instruction cycle.
// Graceful termination is reported as an error matching ErrHalt.
func (cpu *Cpu) Tick() (err error) {
	ins, err := cpu.FetchInstruction()
	if err != nil {
		return
	}

	err = cpu.Execute(ins)

	return
}

// Execute executes a single decoded instruction located at the IP.
// On a fault, the CPU state is left as it was before the instruction.
func (cpu *Cpu) Execute(ins Instruction) (err error) {
	if cpu.Tracer != nil {
		cpu.Tracer.Trace(cpu.Ip, ins)
	}

	next_ip := cpu.Ip + uint16(ins.Size())

	a, b, c := ins.Args[0], ins.Args[1], ins.Args[2]

	switch ins.Opcode {
	case OP_HALT:
		err = ErrHalt
	case OP_SET:
		var dst int
		var val uint16
		dst, err = cpu.ResolveRegister(a)
		if err != nil {
			return
		}
		val, err = cpu.ResolveValue(b)
		if err != nil {
			return
		}
		cpu.Register[dst] = val
	case OP_PUSH:
		var val uint16
		val, err = cpu.ResolveValue(a)
		if err != nil {
			return
		}
		cpu.Stack.Push(val)
	case OP_POP:
		var dst int
		dst, err = cpu.ResolveRegister(a)
		if err != nil {
			return
		}
		val, ok := cpu.Stack.Pop()
		if !ok {
			err = ErrStackEmpty
			return
		}
		cpu.Register[dst] = val
	case OP_EQ, OP_GT, OP_ADD, OP_MULT, OP_MOD, OP_AND, OP_OR:
		var dst int
		var x, y uint16
		dst, err = cpu.ResolveRegister(a)
		if err != nil {
			return
		}
		x, err = cpu.ResolveValue(b)
		if err != nil {
			return
		}
		y, err = cpu.ResolveValue(c)
		if err != nil {
			return
		}
		var output uint16
		output, err = doAlu(ins.Opcode, x, y)
		if err != nil {
			return
		}
		cpu.Register[dst] = output
	case OP_NOT:
		var dst int
		var val uint16
		dst, err = cpu.ResolveRegister(a)
		if err != nil {
			return
		}
		val, err = cpu.ResolveValue(b)
		if err != nil {
			return
		}
		cpu.Register[dst] = ^val & WORD_MASK
	case OP_JMP:
		next_ip, err = cpu.ResolveValue(a)
		if err != nil {
			return
		}
	case OP_JT, OP_JF:
		var cond, target uint16
		cond, err = cpu.ResolveValue(a)
		if err != nil {
			return
		}
		target, err = cpu.ResolveValue(b)
		if err != nil {
			return
		}
		if (cond != 0) == (ins.Opcode == OP_JT) {
			next_ip = target
		}
	case OP_RMEM:
		var dst int
		var addr uint16
		dst, err = cpu.ResolveRegister(a)
		if err != nil {
			return
		}
		addr, err = cpu.resolveAddress(b)
		if err != nil {
			return
		}
		cpu.Register[dst] = cpu.Memory[addr]
	case OP_WMEM:
		var addr, val uint16
		addr, err = cpu.resolveAddress(a)
		if err != nil {
			return
		}
		val, err = cpu.ResolveValue(b)
		if err != nil {
			return
		}
		cpu.Memory[addr] = val
	case OP_CALL:
		var target uint16
		target, err = cpu.ResolveValue(a)
		if err != nil {
			return
		}
		cpu.Stack.Push(next_ip)
		next_ip = target
	case OP_RET:
		addr, ok := cpu.Stack.Pop()
		if !ok {
			err = ErrHaltReturn
		} else {
			next_ip = addr
		}
	case OP_OUT:
		var val uint16
		var console Channel
		val, err = cpu.ResolveValue(a)
		if err != nil {
			return
		}
		console, err = cpu.GetChannel()
		if err != nil {
			return
		}
		err = console.Send(byte(val))
		if err != nil {
			return
		}
	case OP_IN:
		var dst int
		var console Channel
		dst, err = cpu.ResolveRegister(a)
		if err != nil {
			return
		}
		console, err = cpu.GetChannel()
		if err != nil {
			return
		}
		var val byte
		val, err = console.Receive()
		if err != nil {
			err = errors.Join(ErrInputEmpty, err)
			return
		}
		cpu.Register[dst] = uint16(val)
	case OP_NOOP:
		// pass
	default:
		err = ErrOpcode(ins.Opcode)
		return
	}

	if err != nil && !errors.Is(err, ErrHalt) {
		return
	}

	cpu.Ip = next_ip
	cpu.Ticks += 1

	return
}

// doAlu performs the requested two-operand action, and returns the output
// value.
func doAlu(op Opcode, x, y uint16) (output uint16, err error) {
	switch op {
	case OP_EQ:
		if x == y {
			output = 1
		}
	case OP_GT:
		if x > y {
			output = 1
		}
	case OP_ADD:
		output = uint16((uint32(x) + uint32(y)) % WORD_MODULO)
	case OP_MULT:
		output = uint16((uint32(x) * uint32(y)) % WORD_MODULO)
	case OP_MOD:
		if y == 0 {
			err = ErrDivideByZero
			return
		}
		output = (x % y) % WORD_MODULO
	case OP_AND:
		output = x & y
	case OP_OR:
		output = x | y
	default:
		err = ErrOpcode(op)
	}

	return
}
