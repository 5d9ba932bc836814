package container

import "github.com/nsdf/nsdf/internal/dtype"

// Class is the element type of a dataset or attribute.
type Class = dtype.Class

// Element classes.
const (
	Float64   = dtype.Float64
	Float32   = dtype.Float32
	Int64     = dtype.Int64
	Int32     = dtype.Int32
	Uint8     = dtype.Uint8
	String    = dtype.String
	Reference = dtype.Reference
	Record    = dtype.Record
)

// ParseClass returns the class named s, e.g. "float32". The empty string
// maps to Float64.
func ParseClass(s string) (Class, error) {
	return dtype.ParseClass(s)
}

// RecordValue is a (source, reference) pair stored in Record-class datasets.
type RecordValue = dtype.RecordValue
