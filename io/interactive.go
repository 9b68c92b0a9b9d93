package io

import (
	"bufio"
	"io"
	"strings"
)

// Interactive reads lines from a reader, typically the terminal.
// ReadLine blocks until a full line is available.
type Interactive struct {
	Input io.Reader

	reader *bufio.Reader
}

var _ LineSource = (*Interactive)(nil)

// ReadLine returns the next line without its terminator. A final line
// without a terminator is returned before io.EOF.
func (ia *Interactive) ReadLine() (line string, err error) {
	if ia.reader == nil {
		ia.reader = bufio.NewReader(ia.Input)
	}

	line, err = ia.reader.ReadString('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	if err != nil {
		return
	}

	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	return
}

// Sequence reads from each source in turn, moving to the next source when
// the current one reports io.EOF.
type Sequence []LineSource

var _ LineSource = (*Sequence)(nil)

// ReadLine returns the next line from the first source that has one.
func (seq *Sequence) ReadLine() (line string, err error) {
	for len(*seq) > 0 {
		line, err = (*seq)[0].ReadLine()
		if err != io.EOF {
			return
		}
		*seq = (*seq)[1:]
	}

	err = io.EOF
	return
}
