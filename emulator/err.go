package emulator

import (
	"github.com/ezrec/synacor/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime fault.
type ErrRuntime struct {
	Ip     uint16 // Address of the faulting instruction.
	LineNo int    // Source line, if known.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo != 0 {
		return f("ip %d line %d %v", err.Ip, err.LineNo, err.Err)
	}
	return f("ip %d %v", err.Ip, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
