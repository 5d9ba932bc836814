package filter

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies a filter. IDs are single bits so a filter set fits in one
// integer column.
type ID uint32

// Filter identifiers. The values are persisted and must not change.
const (
	FilterShuffle ID = 1 << iota
	FilterZstd
	FilterChecksum
)

// ErrChecksum is returned when stored chunk bytes fail verification.
var ErrChecksum = errors.New("filter: checksum mismatch")

// Filter is the interface implemented by all chunk filters.
type Filter interface {
	// ID returns the filter identifier.
	ID() ID

	// Encode transforms raw data to its stored form.
	Encode(input []byte) ([]byte, error)

	// Decode transforms stored data back to raw form.
	Decode(input []byte) ([]byte, error)
}

// order is the encoding order of filters within a pipeline.
var order = []ID{FilterShuffle, FilterZstd, FilterChecksum}

var filterNames = map[ID]string{
	FilterShuffle:  "shuffle",
	FilterZstd:     "zstd",
	FilterChecksum: "xxh3",
}

// String lists the filters in a set, e.g. "shuffle|zstd".
func (id ID) String() string {
	if id == 0 {
		return "none"
	}
	var names []string
	for _, f := range order {
		if id&f != 0 {
			names = append(names, filterNames[f])
		}
	}
	if rest := id &^ known(); rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(names, "|")
}

func known() ID {
	var all ID
	for _, f := range order {
		all |= f
	}
	return all
}

// New creates the filter with the given id. elemSize is the width of one
// element and is only used by the shuffle filter.
func New(id ID, elemSize int) (Filter, error) {
	switch id {
	case FilterShuffle:
		return NewShuffle(elemSize), nil
	case FilterZstd:
		return NewZstd(), nil
	case FilterChecksum:
		return NewChecksum(), nil
	}
	return nil, fmt.Errorf("unsupported filter ID: 0x%x", uint32(id))
}
