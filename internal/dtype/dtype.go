package dtype

import (
	"fmt"
	"strings"
)

// Class identifies the element type of a dataset or attribute.
type Class uint8

// Element classes. The numeric values are persisted and must not change.
const (
	Invalid Class = iota
	Float64
	Float32
	Int64
	Int32
	Uint8
	String
	Reference
	Record
)

var classNames = map[Class]string{
	Float64:   "float64",
	Float32:   "float32",
	Int64:     "int64",
	Int32:     "int32",
	Uint8:     "uint8",
	String:    "string",
	Reference: "reference",
	Record:    "record",
}

// String returns the lowercase name of the class.
func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// Valid reports whether c is a known class.
func (c Class) Valid() bool {
	_, ok := classNames[c]
	return ok
}

// Size returns the width of one element in bytes, or 0 for variable-width
// classes.
func (c Class) Size() int {
	switch c {
	case Float64, Int64, Reference:
		return 8
	case Float32, Int32:
		return 4
	case Uint8:
		return 1
	default:
		return 0
	}
}

// IsFloat reports whether c is a floating-point class and can hold NaN.
func (c Class) IsFloat() bool {
	return c == Float64 || c == Float32
}

// IsNumeric reports whether c can be read and written as float64.
func (c Class) IsNumeric() bool {
	switch c {
	case Float64, Float32, Int64, Int32, Uint8:
		return true
	}
	return false
}

// ParseClass returns the class named s (case-insensitive). The empty string
// maps to Float64.
func ParseClass(s string) (Class, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Float64, nil
	}
	for c, name := range classNames {
		if name == s {
			return c, nil
		}
	}
	return Invalid, fmt.Errorf("unknown element class %q", s)
}

// RecordValue is one row of a source-to-data table: a source identifier and a
// reference to the object holding that source's data (0 if unset).
type RecordValue struct {
	Source string
	Ref    int64
}
