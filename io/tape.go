package io

import (
	"io"
)

// LINE_TERMINATOR is appended to every line read from a LineSource.
const LINE_TERMINATOR = '\n'

// Tape is the console channel. Input bytes are queued a line at a time
// from Source; output bytes are written to Output in emission order.
type Tape struct {
	Source LineSource
	Output io.Writer

	queue []byte
}

var _ Channel = (*Tape)(nil)

// Rewind discards any queued input.
func (tc *Tape) Rewind() {
	tc.queue = tc.queue[:0]
}

// Pending returns the number of queued input bytes.
func (tc *Tape) Pending() int {
	return len(tc.queue)
}

// Enqueue appends a line and its terminator to the input queue.
func (tc *Tape) Enqueue(line string) {
	tc.queue = append(tc.queue, line...)
	tc.queue = append(tc.queue, LINE_TERMINATOR)
}

// Receive returns the next queued input byte. When the queue is empty,
// a single line is requested from the source first; a source error is
// returned as-is.
func (tc *Tape) Receive() (value byte, err error) {
	if len(tc.queue) == 0 {
		if tc.Source == nil {
			err = ErrSourceMissing
			return
		}

		var line string
		line, err = tc.Source.ReadLine()
		if err != nil {
			return
		}
		tc.Enqueue(line)
	}

	if len(tc.queue) == 0 {
		err = ErrQueueEmpty
		return
	}

	value = tc.queue[0]
	tc.queue = tc.queue[1:]

	return
}

// Send writes a byte to the output.
func (tc *Tape) Send(value byte) (err error) {
	if tc.Output == nil {
		err = ErrOutputMissing
		return
	}

	_, err = tc.Output.Write([]byte{value})

	return
}
