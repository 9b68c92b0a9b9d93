package io

import (
	"bufio"
	"io"
	"strings"
)

// SCRIPT_COMMENT starts a comment line in a script file.
const SCRIPT_COMMENT = "#"

// Script is a pre-supplied, ordered list of input lines.
type Script struct {
	Lines []string

	index int
}

var _ LineSource = (*Script)(nil)

// NewScript creates a script from a list of lines.
func NewScript(lines ...string) *Script {
	return &Script{Lines: lines}
}

// ParseScript reads a script file. Each line is one command; blank lines
// and lines starting with '#' are skipped, and trailing white space is
// removed.
func ParseScript(input io.Reader) (sc *Script, err error) {
	sc = &Script{}

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), SCRIPT_COMMENT) {
			continue
		}
		sc.Lines = append(sc.Lines, line)
	}

	err = scanner.Err()

	return
}

// ReadLine returns the next line, or io.EOF once all lines are consumed.
func (sc *Script) ReadLine() (line string, err error) {
	if sc.index >= len(sc.Lines) {
		err = io.EOF
		return
	}

	line = sc.Lines[sc.index]
	sc.index++

	return
}

// Remaining returns the number of lines not yet read.
func (sc *Script) Remaining() int {
	return len(sc.Lines) - sc.index
}

// Rewind restarts the script from its first line.
func (sc *Script) Rewind() {
	sc.index = 0
}
