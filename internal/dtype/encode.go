package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeFloat64s converts values to the byte encoding of class c.
func EncodeFloat64s(c Class, values []float64) ([]byte, error) {
	size := c.Size()
	if !c.IsNumeric() || size == 0 {
		return nil, fmt.Errorf("cannot encode numbers as %s", c)
	}

	data := make([]byte, len(values)*size)
	for i, v := range values {
		offset := i * size

		switch c {
		case Float64:
			binary.LittleEndian.PutUint64(data[offset:], math.Float64bits(v))
		case Float32:
			binary.LittleEndian.PutUint32(data[offset:], math.Float32bits(float32(v)))
		case Int64:
			n, err := integral(v, math.MinInt64, math.MaxInt64)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			binary.LittleEndian.PutUint64(data[offset:], uint64(n))
		case Int32:
			n, err := integral(v, math.MinInt32, math.MaxInt32)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			binary.LittleEndian.PutUint32(data[offset:], uint32(int32(n)))
		case Uint8:
			n, err := integral(v, 0, math.MaxUint8)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			data[offset] = byte(n)
		}
	}

	return data, nil
}

// integral checks that v is a whole number inside [lo, hi].
func integral(v float64, lo, hi float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("value %v is not an integer", v)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("value %v out of range [%v, %v]", v, lo, hi)
	}
	return int64(v), nil
}

// EncodeInt64s encodes values as 8-byte little-endian integers.
func EncodeInt64s(values []int64) []byte {
	data := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(data[i*8:], uint64(v))
	}
	return data
}

// EncodeStrings encodes values as a sequence of length-prefixed strings.
func EncodeStrings(values []string) []byte {
	var data []byte
	for _, s := range values {
		data = binary.AppendUvarint(data, uint64(len(s)))
		data = append(data, s...)
	}
	return data
}

// EncodeRecords encodes records as (string, reference) pairs.
func EncodeRecords(values []RecordValue) []byte {
	var data []byte
	for _, r := range values {
		data = binary.AppendUvarint(data, uint64(len(r.Source)))
		data = append(data, r.Source...)
		data = binary.LittleEndian.AppendUint64(data, uint64(r.Ref))
	}
	return data
}
