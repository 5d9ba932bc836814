package filter

import (
	"fmt"
)

// Pipeline represents a filter pipeline that can encode and decode chunk
// data.
type Pipeline struct {
	mask    ID
	filters []Filter
}

// NewPipeline creates a filter pipeline from a set of filter IDs.
// elemSize is the width of one stored element.
func NewPipeline(mask ID, elemSize int) (*Pipeline, error) {
	if rest := mask &^ known(); rest != 0 {
		return nil, fmt.Errorf("unsupported filter ID: 0x%x", uint32(rest))
	}

	p := &Pipeline{mask: mask}
	for _, id := range order {
		if mask&id == 0 {
			continue
		}
		f, err := New(id, elemSize)
		if err != nil {
			return nil, fmt.Errorf("creating filter %s: %w", id, err)
		}
		p.filters = append(p.filters, f)
	}

	return p, nil
}

// Encode applies the filters in order.
func (p *Pipeline) Encode(input []byte) ([]byte, error) {
	data := input
	for _, f := range p.filters {
		var err error
		data, err = f.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %s encode: %w", f.ID(), err)
		}
	}
	return data, nil
}

// Decode applies the filters in reverse order (last filter first).
func (p *Pipeline) Decode(input []byte) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		var err error
		data, err = p.filters[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %s decode: %w", p.filters[i].ID(), err)
		}
	}
	return data, nil
}

// Mask returns the set of filters in the pipeline.
func (p *Pipeline) Mask() ID {
	return p.mask
}

// Empty returns true if the pipeline has no filters.
func (p *Pipeline) Empty() bool {
	return len(p.filters) == 0
}

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.filters)
}
