package stream

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/ssbringup/bringup-go/pkg/regport"
)

// ImageFromBytes converts a firmware image to little-endian words, padding
// the last word with zeros.
func ImageFromBytes(b []byte) []uint32 {
	words := make([]uint32, (len(b)+3)/4)
	for i := range words {
		var chunk [4]byte
		copy(chunk[:], b[i*4:])
		words[i] = binary.LittleEndian.Uint32(chunk[:])
	}
	return words
}

// LoadImageFile reads a firmware image file as words.
func LoadImageFile(path string) ([]uint32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return ImageFromBytes(b), nil
}

// ReadStagedImage reads an image staged in device memory at base: a word
// count followed by that many words.
func ReadStagedImage(port regport.Port, base regport.Addr, maxWords int) ([]uint32, error) {
	n := port.ReadRegister(base)
	if int(n) > maxWords {
		return nil, fmt.Errorf("staged image of %d words exceeds limit %d", n, maxWords)
	}
	words := make([]uint32, n)
	for i := range words {
		words[i] = port.ReadRegister(base + regport.Addr(4*(i+1)))
	}
	return words, regport.Err(port)
}
