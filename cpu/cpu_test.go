package cpu

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vmio "github.com/ezrec/synacor/io"
)

const (
	r0 = REGISTER_BASE + iota
	r1
	r2
	r3
	r4
	r5
	r6
	r7
)

func newTestCpu(lines ...string) (cp *Cpu, output *bytes.Buffer) {
	cp = NewCpu()
	output = &bytes.Buffer{}
	cp.SetChannel(&vmio.Tape{Source: vmio.NewScript(lines...), Output: output})
	return
}

// runImage loads and runs an image until the first error.
func runImage(t *testing.T, cp *Cpu, image []uint16) (err error) {
	require.NoError(t, cp.Load(image))

	for range 10000 {
		err = cp.Tick()
		if err != nil {
			return
		}
	}

	t.Fatal("program did not terminate")
	return
}

type recordTracer struct {
	ips  []uint16
	inss []Instruction
}

func (rt *recordTracer) Trace(ip uint16, ins Instruction) {
	rt.ips = append(rt.ips, ip)
	rt.inss = append(rt.inss, ins)
}

func TestCpu_ResolveValue(t *testing.T) {
	assert := assert.New(t)

	cp := NewCpu()
	for n := range REGISTER_COUNT {
		cp.Register[n] = uint16(1000 + n)
	}

	for raw := range uint16(MEMORY_SIZE) {
		value, err := cp.ResolveValue(raw)
		if err != nil || value != raw {
			t.Fatalf("literal %d: got %d, %v", raw, value, err)
		}
	}

	for n := range REGISTER_COUNT {
		value, err := cp.ResolveValue(Register(n))
		assert.NoError(err)
		assert.Equal(uint16(1000+n), value)
	}

	for _, raw := range []uint16{32776, 40000, 0xffff} {
		_, err := cp.ResolveValue(raw)
		assert.ErrorIs(err, ErrValueInvalid)
		assert.ErrorIs(err, ErrOperand(raw))
	}
}

func TestCpu_ResolveRegister(t *testing.T) {
	assert := assert.New(t)

	cp := NewCpu()

	for n := range REGISTER_COUNT {
		index, err := cp.ResolveRegister(Register(n))
		assert.NoError(err)
		assert.Equal(n, index)
	}

	for _, raw := range []uint16{0, 1, 32767, 32776, 0xffff} {
		_, err := cp.ResolveRegister(raw)
		assert.ErrorIs(err, ErrRegisterInvalid)
	}
}

func TestCpu_Out(t *testing.T) {
	assert := assert.New(t)

	cp, output := newTestCpu()

	err := runImage(t, cp, []uint16{19, 65, 0})
	assert.ErrorIs(err, ErrHalt)
	assert.Equal("A", output.String())
	assert.Equal(2, cp.Ticks)
}

func TestCpu_AddWraparound(t *testing.T) {
	assert := assert.New(t)

	cp, _ := newTestCpu()

	err := runImage(t, cp, []uint16{9, r0, 32767, 2, 0})
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(uint16(1), cp.Register[0])
}

func TestCpu_Execute(t *testing.T) {
	table := []struct {
		name     string
		regs     map[int]uint16
		stack    []uint16
		ins      Instruction
		reg      int
		value    uint16
		ip       uint16
		expStack []uint16
	}{
		{"set-literal", nil, nil, MakeInstruction(OP_SET, r1, 1234), 1, 1234, 103, nil},
		{"set-register", map[int]uint16{2: 77}, nil, MakeInstruction(OP_SET, r1, r2), 1, 77, 103, nil},
		{"push", map[int]uint16{3: 5}, []uint16{1}, MakeInstruction(OP_PUSH, r3), 3, 5, 102, []uint16{1, 5}},
		{"pop", nil, []uint16{1, 9}, MakeInstruction(OP_POP, r4), 4, 9, 102, []uint16{1}},
		{"eq-true", map[int]uint16{1: 8}, nil, MakeInstruction(OP_EQ, r0, r1, 8), 0, 1, 104, nil},
		{"eq-false", map[int]uint16{0: 5, 1: 8}, nil, MakeInstruction(OP_EQ, r0, r1, 9), 0, 0, 104, nil},
		{"gt-true", nil, nil, MakeInstruction(OP_GT, r0, 9, 8), 0, 1, 104, nil},
		{"gt-equal", map[int]uint16{0: 5}, nil, MakeInstruction(OP_GT, r0, 8, 8), 0, 0, 104, nil},
		{"add", nil, nil, MakeInstruction(OP_ADD, r2, 100, 200), 2, 300, 104, nil},
		{"add-wrap", nil, nil, MakeInstruction(OP_ADD, r2, 32767, 32767), 2, 32766, 104, nil},
		{"mult", nil, nil, MakeInstruction(OP_MULT, r2, 300, 5), 2, 1500, 104, nil},
		{"mult-wide", nil, nil, MakeInstruction(OP_MULT, r2, 32767, 32767), 2, 1, 104, nil},
		{"mod", nil, nil, MakeInstruction(OP_MOD, r2, 17, 5), 2, 2, 104, nil},
		{"mod-reduced", map[int]uint16{5: 40000, 6: 50000}, nil, MakeInstruction(OP_MOD, r2, r5, r6), 2, 7232, 104, nil},
		{"and", nil, nil, MakeInstruction(OP_AND, r2, 0x0ff0, 0x3c3c), 2, 0x0c30, 104, nil},
		{"or", nil, nil, MakeInstruction(OP_OR, r2, 0x0ff0, 0x3c3c), 2, 0x3ffc, 104, nil},
		{"not", nil, nil, MakeInstruction(OP_NOT, r2, 0), 2, 0x7fff, 103, nil},
		{"not-pattern", nil, nil, MakeInstruction(OP_NOT, r2, 0x5555), 2, 0x2aaa, 103, nil},
		{"rmem", nil, nil, MakeInstruction(OP_RMEM, r6, 101), 6, r6, 103, nil},
		{"jmp", nil, nil, MakeInstruction(OP_JMP, 500), 0, 0, 500, nil},
		{"jt-taken", map[int]uint16{1: 1}, nil, MakeInstruction(OP_JT, r1, 500), 1, 1, 500, nil},
		{"jt-not-taken", nil, nil, MakeInstruction(OP_JT, r1, 500), 1, 0, 103, nil},
		{"jf-taken", nil, nil, MakeInstruction(OP_JF, r1, 500), 1, 0, 500, nil},
		{"jf-not-taken", map[int]uint16{1: 3}, nil, MakeInstruction(OP_JF, r1, 500), 1, 3, 103, nil},
		{"call", nil, []uint16{7}, MakeInstruction(OP_CALL, 600), 0, 0, 600, []uint16{7, 102}},
		{"ret", nil, []uint16{7, 321}, MakeInstruction(OP_RET), 0, 0, 321, []uint16{7}},
		{"noop", nil, nil, MakeInstruction(OP_NOOP), 0, 0, 101, nil},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			cp, _ := newTestCpu()
			image := make([]uint16, 100)
			image = append(image, entry.ins.Words()...)
			require.NoError(t, cp.Load(image))

			cp.Ip = 100
			for reg, val := range entry.regs {
				cp.Register[reg] = val
			}
			for _, val := range entry.stack {
				cp.Stack.Push(val)
			}

			err := cp.Tick()
			assert.NoError(err)
			assert.Equal(entry.value, cp.Register[entry.reg])
			assert.Equal(entry.ip, cp.Ip)
			assert.Equal(len(entry.expStack), cp.Stack.Len())
			if len(entry.expStack) > 0 {
				assert.Equal(entry.expStack, cp.Stack.Data)
			}
			assert.Equal(1, cp.Ticks)
		})
	}
}

func TestCpu_Wmem(t *testing.T) {
	assert := assert.New(t)

	cp, _ := newTestCpu()
	cp.Register[0] = 2000
	cp.Register[1] = 0xbeef

	err := runImage(t, cp, []uint16{16, r0, r1, 16, 2001, 42, 0})
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(uint16(0xbeef), cp.Memory[2000])
	assert.Equal(uint16(42), cp.Memory[2001])
}

func TestCpu_RmemRawWord(t *testing.T) {
	assert := assert.New(t)

	cp, _ := newTestCpu()

	image := make([]uint16, 202)
	copy(image, []uint16{15, r0, 201, 15, r1, 200, 0})
	image[200] = 0xffff
	image[201] = 32768

	err := runImage(t, cp, image)
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(uint16(32768), cp.Register[0])
	assert.Equal(uint16(0xffff), cp.Register[1])
}

func TestCpu_SelfModify(t *testing.T) {
	assert := assert.New(t)

	cp, output := newTestCpu()

	// Overwrite the operand of the following 'out'.
	err := runImage(t, cp, []uint16{16, 4, 'Z', 19, 'A', 0})
	assert.ErrorIs(err, ErrHalt)
	assert.Equal("Z", output.String())
}

func TestCpu_CallRet(t *testing.T) {
	assert := assert.New(t)

	cp, output := newTestCpu()

	image := []uint16{
		17, 6,   // 0: call 6
		19, 'B', // 2: out 'B'
		0,       // 4: halt
		0,       // 5: pad
		19, 'A', // 6: out 'A'
		18,      // 8: ret
	}

	require.NoError(t, cp.Load(image))

	assert.NoError(cp.Tick())
	assert.Equal(uint16(6), cp.Ip)
	top, ok := cp.Stack.Peek()
	assert.True(ok)
	assert.Equal(uint16(2), top)

	assert.NoError(cp.Tick())
	assert.NoError(cp.Tick())
	assert.Equal(uint16(2), cp.Ip)
	assert.True(cp.Stack.Empty())

	assert.NoError(cp.Tick())
	assert.ErrorIs(cp.Tick(), ErrHalt)
	assert.Equal("AB", output.String())
}

func TestCpu_RetEmpty_PopEmpty(t *testing.T) {
	assert := assert.New(t)

	cp, _ := newTestCpu()
	err := runImage(t, cp, []uint16{18})
	assert.ErrorIs(err, ErrHaltReturn)
	assert.ErrorIs(err, ErrHalt)
	assert.NotErrorIs(err, ErrStackEmpty)

	cp, _ = newTestCpu()
	cp.Register[0] = 1234
	err = runImage(t, cp, []uint16{3, r0})
	assert.ErrorIs(err, ErrStackEmpty)
	assert.NotErrorIs(err, ErrHalt)
	assert.Equal(uint16(0), cp.Ip)
	assert.Equal(uint16(1234), cp.Register[0])
	assert.Equal(0, cp.Ticks)
}

func TestCpu_In(t *testing.T) {
	assert := assert.New(t)

	cp, _ := newTestCpu("abc")

	err := runImage(t, cp, []uint16{20, r0, 20, r1, 0})
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(uint16('a'), cp.Register[0])
	assert.Equal(uint16('b'), cp.Register[1])

	console, err := cp.GetChannel()
	assert.NoError(err)
	assert.Equal(2, console.(*vmio.Tape).Pending())
}

func TestCpu_In_Terminator(t *testing.T) {
	assert := assert.New(t)

	cp, _ := newTestCpu("x", "")

	image := []uint16{20, r0, 20, r1, 20, r2, 0}
	err := runImage(t, cp, image)
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(uint16('x'), cp.Register[0])
	assert.Equal(uint16('\n'), cp.Register[1])
	assert.Equal(uint16('\n'), cp.Register[2])
}

func TestCpu_In_Exhausted(t *testing.T) {
	assert := assert.New(t)

	cp, _ := newTestCpu()
	cp.Register[3] = 99

	err := runImage(t, cp, []uint16{20, r3, 0})
	assert.ErrorIs(err, ErrInputEmpty)
	assert.ErrorIs(err, io.EOF)
	assert.Equal(uint16(99), cp.Register[3])
	assert.Equal(uint16(0), cp.Ip)
}

func TestCpu_NoChannel(t *testing.T) {
	assert := assert.New(t)

	cp := NewCpu()
	err := runImage(t, cp, []uint16{19, 'A', 0})
	assert.ErrorIs(err, ErrChannelInvalid)
}

func TestCpu_BadOpcode(t *testing.T) {
	for _, word := range []uint16{22, 23, 1000, 0xffff} {
		assert := assert.New(t)

		cp, output := newTestCpu("abc")
		require.NoError(t, cp.Load([]uint16{word, 1, 2, 3}))
		cp.Register[0] = 17
		cp.Stack.Push(4)

		err := cp.Tick()
		assert.ErrorIs(err, ErrOpcode(0))
		assert.Equal(ErrOpcode(word), err)

		assert.Equal(uint16(0), cp.Ip)
		assert.Equal(uint16(17), cp.Register[0])
		assert.Equal([]uint16{4}, cp.Stack.Data)
		assert.Equal(0, cp.Ticks)
		assert.Equal(0, output.Len())
	}
}

func TestCpu_Faults(t *testing.T) {
	table := []struct {
		name  string
		regs  map[int]uint16
		image []uint16
		err   error
	}{
		{"mod-zero", map[int]uint16{1: 5}, []uint16{11, r0, r1, 0}, ErrDivideByZero},
		{"set-literal-dst", nil, []uint16{1, 5, 6}, ErrRegisterInvalid},
		{"add-high-dst", nil, []uint16{9, 32776, 1, 1}, ErrRegisterInvalid},
		{"push-invalid-value", nil, []uint16{2, 32776}, ErrValueInvalid},
		{"rmem-range", map[int]uint16{1: 40000}, []uint16{15, r0, r1}, ErrAddressInvalid},
		{"wmem-range", map[int]uint16{1: 32768}, []uint16{16, r1, 5}, ErrAddressInvalid},
		{"in-literal-dst", nil, []uint16{20, 65}, ErrRegisterInvalid},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			cp, _ := newTestCpu("abc")
			for reg, val := range entry.regs {
				cp.Register[reg] = val
			}
			before := cp.Register

			err := runImage(t, cp, entry.image)
			assert.ErrorIs(err, entry.err)
			assert.NotErrorIs(err, ErrHalt)
			assert.Equal(before, cp.Register)
			assert.Equal(uint16(0), cp.Ip)
		})
	}
}

func TestCpu_IpRange(t *testing.T) {
	assert := assert.New(t)

	cp, _ := newTestCpu()
	cp.Register[0] = 40000
	err := runImage(t, cp, []uint16{6, r0})
	assert.ErrorIs(err, ErrIpInvalid)
	assert.Equal(uint16(40000), cp.Ip)

	// Operand past the end of memory.
	cp, _ = newTestCpu()
	image := make([]uint16, MEMORY_SIZE)
	image[0] = 6
	image[1] = MEMORY_SIZE - 1
	image[MEMORY_SIZE-1] = 19
	err = runImage(t, cp, image)
	assert.ErrorIs(err, ErrIpInvalid)
	assert.Equal(uint16(MEMORY_SIZE-1), cp.Ip)
}

func TestCpu_Load(t *testing.T) {
	assert := assert.New(t)

	cp := NewCpu()
	cp.Memory[10] = 99

	assert.NoError(cp.Load([]uint16{1, 2, 3}))
	assert.Equal(uint16(3), cp.Memory[2])
	assert.Equal(uint16(0), cp.Memory[10])

	err := cp.Load(make([]uint16, MEMORY_SIZE+1))
	assert.ErrorIs(err, ErrImageTooLarge)
	assert.ErrorIs(err, ErrImageSize(MEMORY_SIZE+1))
	assert.NotErrorIs(err, ErrAddress(MEMORY_SIZE+1))
	assert.Contains(err.Error(), "image of")
	assert.Equal(uint16(1), cp.Memory[0])
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cp, _ := newTestCpu("abc")
	err := runImage(t, cp, []uint16{1, r0, 5, 2, 9, 20, r1, 0})
	assert.ErrorIs(err, ErrHalt)
	assert.NotEqual(0, cp.Ticks)

	cp.Reset()
	assert.Equal([REGISTER_COUNT]uint16{}, cp.Register)
	assert.True(cp.Stack.Empty())
	assert.Equal(uint16(0), cp.Ip)
	assert.Equal(0, cp.Ticks)
	assert.Equal(uint16(1), cp.Memory[0])

	console, err := cp.GetChannel()
	assert.NoError(err)
	assert.Equal(0, console.(*vmio.Tape).Pending())
}

func TestCpu_Tracer(t *testing.T) {
	assert := assert.New(t)

	cp, _ := newTestCpu()
	tracer := &recordTracer{}
	cp.Tracer = tracer

	err := runImage(t, cp, []uint16{21, 19, 'A', 0})
	assert.ErrorIs(err, ErrHalt)

	assert.Equal([]uint16{0, 1, 3}, tracer.ips)
	assert.Equal([]Instruction{
		MakeInstruction(OP_NOOP),
		MakeInstruction(OP_OUT, 'A'),
		MakeInstruction(OP_HALT),
	}, tracer.inss)
}

func TestCpu_String(t *testing.T) {
	assert := assert.New(t)

	cp := NewCpu()
	cp.Register[7] = 12345
	cp.Stack.Push(42)

	text := cp.String()
	assert.Contains(text, "ip: 00000")
	assert.Contains(text, "r7: 12345")
	assert.Contains(text, "stack: 00042 (1 deep)")
	assert.True(errors.Is(ErrHaltReturn, ErrHalt))
}
