package emulator

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/ezrec/synacor/cpu"
)

// ReadImage reads a program image of little-endian words.
// A trailing odd byte is dropped.
func ReadImage(input io.Reader) (image []uint16, err error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return
	}

	count := len(data) / 2
	if count > cpu.MEMORY_SIZE {
		err = errors.Join(cpu.ErrImageTooLarge, cpu.ErrImageSize(count))
		return
	}

	image = make([]uint16, count)
	for n := range image {
		image[n] = binary.LittleEndian.Uint16(data[n*2:])
	}

	return
}

// WriteImage writes a program image as little-endian words.
func WriteImage(output io.Writer, image []uint16) (err error) {
	err = binary.Write(output, binary.LittleEndian, image)

	return
}
