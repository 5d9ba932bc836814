package filter

// Shuffle implements the byte shuffle filter.
// This filter rearranges bytes to improve compression by grouping
// similar byte positions together (all byte 0s, then all byte 1s, ...).
type Shuffle struct {
	elemSize int
}

// NewShuffle creates a shuffle filter for elements of elemSize bytes.
func NewShuffle(elemSize int) *Shuffle {
	if elemSize < 1 {
		elemSize = 1
	}
	return &Shuffle{elemSize: elemSize}
}

func (f *Shuffle) ID() ID {
	return FilterShuffle
}

// Encode groups byte j of every element at offset j*numElems.
// Trailing bytes that do not form a whole element are copied unchanged.
func (f *Shuffle) Encode(input []byte) ([]byte, error) {
	numElems := len(input) / f.elemSize
	if f.elemSize <= 1 || numElems == 0 {
		return input, nil
	}

	output := make([]byte, len(input))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[j*numElems+i] = input[i*f.elemSize+j]
		}
	}
	copy(output[numElems*f.elemSize:], input[numElems*f.elemSize:])

	return output, nil
}

// Decode reverses the shuffle transformation.
func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	numElems := len(input) / f.elemSize
	if f.elemSize <= 1 || numElems == 0 {
		return input, nil
	}

	output := make([]byte, len(input))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[i*f.elemSize+j] = input[j*numElems+i]
		}
	}
	copy(output[numElems*f.elemSize:], input[numElems*f.elemSize:])

	return output, nil
}
