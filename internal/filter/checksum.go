package filter

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

// Checksum appends a 64-bit xxh3 digest to the data and validates it on
// decode.
type Checksum struct{}

// NewChecksum creates a new checksum filter.
func NewChecksum() *Checksum {
	return &Checksum{}
}

func (f *Checksum) ID() ID {
	return FilterChecksum
}

// Encode returns input followed by its digest (little-endian).
func (f *Checksum) Encode(input []byte) ([]byte, error) {
	output := make([]byte, len(input), len(input)+8)
	copy(output, input)
	return binary.LittleEndian.AppendUint64(output, xxh3.Hash(input)), nil
}

// Decode verifies the digest stored in the last 8 bytes and returns the data
// without it.
func (f *Checksum) Decode(input []byte) ([]byte, error) {
	if len(input) < 8 {
		return nil, fmt.Errorf("%w: input too short for checksum", ErrChecksum)
	}

	data := input[:len(input)-8]
	stored := binary.LittleEndian.Uint64(input[len(input)-8:])
	computed := xxh3.Hash(data)

	if stored != computed {
		return nil, fmt.Errorf("%w (stored=0x%016x, computed=0x%016x)", ErrChecksum, stored, computed)
	}

	return data, nil
}
