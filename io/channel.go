// Package io provides the console channel for the processor and the line
// sources that feed it.
//
// A Tape joins an input queue, a LineSource and an output writer. The input
// queue is refilled one line at a time, each line followed by a newline.
// Line sources are either scripted (Script), read from a reader
// (Interactive), or a Sequence of other sources.
package io

// Channel defines the interface for the console channel of the processor.
type Channel interface {
	// Rewind discards any buffered state.
	Rewind()
	// Receive returns the next input byte, refilling as needed.
	Receive() (value byte, err error)
	// Send writes a single byte.
	Send(value byte) error
}

// LineSource supplies one line of input text per request, without its
// line terminator. Sources return io.EOF once exhausted.
type LineSource interface {
	ReadLine() (line string, err error)
}
