package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeFloat64s converts the byte encoding of class c back to float64s.
func DecodeFloat64s(c Class, data []byte) ([]float64, error) {
	size := c.Size()
	if !c.IsNumeric() || size == 0 {
		return nil, fmt.Errorf("cannot decode %s as numbers", c)
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%s data length %d is not a multiple of %d", c, len(data), size)
	}

	n := len(data) / size
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		offset := i * size

		switch c {
		case Float64:
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[offset:]))
		case Float32:
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[offset:])))
		case Int64:
			values[i] = float64(int64(binary.LittleEndian.Uint64(data[offset:])))
		case Int32:
			values[i] = float64(int32(binary.LittleEndian.Uint32(data[offset:])))
		case Uint8:
			values[i] = float64(data[offset])
		}
	}

	return values, nil
}

// DecodeInt64s decodes 8-byte little-endian integers.
func DecodeInt64s(data []byte) ([]int64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("integer data length %d is not a multiple of 8", len(data))
	}
	values := make([]int64, len(data)/8)
	for i := range values {
		values[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return values, nil
}

// DecodeStrings decodes a sequence of length-prefixed strings.
func DecodeStrings(data []byte) ([]string, error) {
	var values []string
	for len(data) > 0 {
		s, rest, err := readString(data)
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", len(values), err)
		}
		values = append(values, s)
		data = rest
	}
	return values, nil
}

// DecodeRecords decodes a sequence of (string, reference) pairs.
func DecodeRecords(data []byte) ([]RecordValue, error) {
	var values []RecordValue
	for len(data) > 0 {
		s, rest, err := readString(data)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(values), err)
		}
		if len(rest) < 8 {
			return nil, fmt.Errorf("record %d: truncated reference", len(values))
		}
		values = append(values, RecordValue{
			Source: s,
			Ref:    int64(binary.LittleEndian.Uint64(rest)),
		})
		data = rest[8:]
	}
	return values, nil
}

func readString(data []byte) (string, []byte, error) {
	n, k := binary.Uvarint(data)
	if k <= 0 {
		return "", nil, fmt.Errorf("invalid length prefix")
	}
	data = data[k:]
	if uint64(len(data)) < n {
		return "", nil, fmt.Errorf("truncated: need %d bytes, have %d", n, len(data))
	}
	return string(data[:n]), data[n:], nil
}
