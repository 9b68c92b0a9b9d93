// Package trace logs the instructions executed by the processor.
package trace

import (
	"github.com/sirupsen/logrus"

	"github.com/ezrec/synacor/cpu"
)

// Logger is a cpu.Tracer that writes every instruction to a logrus entry.
type Logger struct {
	Entry *logrus.Entry
	Level logrus.Level
	Cpu   *cpu.Cpu // If set, register contents are logged as well.
}

var _ cpu.Tracer = (*Logger)(nil)

// New creates a tracer logging at debug level, tagged "trace".
func New(logger *logrus.Logger) *Logger {
	return &Logger{
		Entry: logger.WithField("tag", "trace"),
		Level: logrus.DebugLevel,
	}
}

// Trace logs one instruction.
func (tl *Logger) Trace(ip uint16, ins cpu.Instruction) {
	if !tl.Entry.Logger.IsLevelEnabled(tl.Level) {
		return
	}

	fields := logrus.Fields{
		"ip": ip,
		"op": ins.Opcode.String(),
	}
	if tl.Cpu != nil {
		fields["regs"] = tl.Cpu.Register
		fields["depth"] = tl.Cpu.Stack.Len()
	}

	tl.Entry.WithFields(fields).Log(tl.Level, ins.String())
}
