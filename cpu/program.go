package cpu

import (
	"iter"
)

// Link is a reference from an assembled word to a label.
type Link struct {
	Index int    // Index of the word in Statement.Data.
	Label string // Label whose address fills the word.
}

// Statement represents a line of assembled code with its source location
// and generated words.
type Statement struct {
	LineNo int
	Ip     int
	Words  []string
	Data   []uint16
	Links  []Link
}

// Program is an assembled listing.
type Program struct {
	Statements []Statement
}

// Debug locates an address within a Program.
type Debug struct {
	*Statement
	Index int
}

// Debug finds the statement that generated the word at ip.
func (prog *Program) Debug(ip uint16) (dbg Debug) {
	for n, st := range prog.Statements {
		if int(ip) >= st.Ip && int(ip) < st.Ip+len(st.Data) {
			dbg = Debug{
				Statement: &prog.Statements[n],
				Index:     int(ip) - st.Ip,
			}
			break
		}
	}

	return
}

// Binary returns the memory image of the program.
func (prog *Program) Binary() (image []uint16) {
	for ip, word := range prog.Words() {
		for len(image) < int(ip) {
			image = append(image, 0)
		}
		image = append(image, word)
	}

	return
}

// Words iterates over the address and value of every assembled word.
func (prog *Program) Words() iter.Seq2[uint16, uint16] {
	return func(yield func(ip uint16, word uint16) bool) {
		for _, st := range prog.Statements {
			ip := uint16(st.Ip)
			for n, word := range st.Data {
				if !yield(ip+uint16(n), word) {
					return
				}
			}
		}
	}
}
