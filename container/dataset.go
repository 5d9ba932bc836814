package container

import (
	"fmt"

	"github.com/nsdf/nsdf/internal/dtype"
	"github.com/nsdf/nsdf/internal/filter"
	"github.com/nsdf/nsdf/internal/schema"
)

// Dataset represents a typed one- or two-dimensional array, or a ragged
// dataset whose rows have independent lengths.
//
// A Dataset caches its shape. Resizing through another handle to the same
// dataset is not observed until the dataset is reopened.
type Dataset struct {
	node
	kind    schema.Kind
	class   dtype.Class
	rank    int
	dims    [2]uint64
	maxDims [2]uint64
	chunk   int
	pipe    *filter.Pipeline
	fill    []byte
}

// newDataset creates a Dataset from an object row.
func newDataset(f *File, row *objectRow) (*Dataset, error) {
	if row.kind != schema.KindDataset && row.kind != schema.KindRagged {
		return nil, fmt.Errorf("%w: %s", ErrNotDataset, row.path)
	}
	if !row.class.Valid() {
		return nil, fmt.Errorf("dataset %s has unknown class %d", row.path, uint8(row.class))
	}

	elemSize := row.class.Size()
	if elemSize == 0 {
		elemSize = 1
	}
	pipe, err := filter.NewPipeline(row.filters, elemSize)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", row.path, err)
	}

	return &Dataset{
		node:    node{file: f, id: row.id, path: row.path},
		kind:    row.kind,
		class:   row.class,
		rank:    row.rank,
		dims:    row.dims,
		maxDims: row.maxDims,
		chunk:   row.chunk,
		pipe:    pipe,
		fill:    row.fill,
	}, nil
}

// Shape returns the dimensions of the dataset. For ragged datasets this is
// the number of rows.
func (d *Dataset) Shape() []uint64 {
	return append([]uint64(nil), d.dims[:d.rank]...)
}

// Dims is an alias for Shape.
func (d *Dataset) Dims() []uint64 {
	return d.Shape()
}

// MaxDims returns the maximum dimensions. Unbounded axes are Unlimited.
// For ragged datasets the second value bounds the length of any row.
func (d *Dataset) MaxDims() []uint64 {
	if d.kind == schema.KindRagged {
		return []uint64{d.maxDims[0], d.maxDims[1]}
	}
	return append([]uint64(nil), d.maxDims[:d.rank]...)
}

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int {
	return d.rank
}

// Class returns the element class.
func (d *Dataset) Class() Class {
	return d.class
}

// IsRagged reports whether the dataset holds variable-length rows.
func (d *Dataset) IsRagged() bool {
	return d.kind == schema.KindRagged
}

// ChunkLen returns the number of elements per chunk along the last axis.
func (d *Dataset) ChunkLen() int {
	return d.chunk
}

// Filters returns the filters applied to stored chunks.
func (d *Dataset) Filters() filter.ID {
	return d.pipe.Mask()
}

// NumElements returns the total number of elements of a regular dataset.
func (d *Dataset) NumElements() uint64 {
	n := uint64(1)
	for _, dim := range d.dims[:d.rank] {
		n *= dim
	}
	return n
}

// FillValue returns the value read from elements never written.
func (d *Dataset) FillValue() float64 {
	if len(d.fill) == 0 || !d.class.IsNumeric() {
		return 0
	}
	vals, err := dtype.DecodeFloat64s(d.class, d.fill)
	if err != nil || len(vals) == 0 {
		return 0
	}
	return vals[0]
}

// grid returns the number of rows and the row length of a regular dataset.
// One-dimensional datasets are a single row.
func (d *Dataset) grid() (rows, cols uint64) {
	if d.rank == 1 {
		return 1, d.dims[0]
	}
	return d.dims[0], d.dims[1]
}

// checkSpan validates the selection [start, end) of one row.
func (d *Dataset) checkSpan(row, start, end int) error {
	if d.kind != schema.KindDataset {
		return fmt.Errorf("%w: %s is ragged", ErrNotDataset, d.path)
	}
	rows, cols := d.grid()
	if row < 0 || uint64(row) >= rows {
		return fmt.Errorf("%w: row %d of %d in %s", ErrOutOfRange, row, rows, d.path)
	}
	if start < 0 || end < start || uint64(end) > cols {
		return fmt.Errorf("%w: [%d, %d) of %d in %s", ErrOutOfRange, start, end, cols, d.path)
	}
	return nil
}

func (d *Dataset) checkClass(classes ...dtype.Class) error {
	for _, c := range classes {
		if d.class == c {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is %s", ErrClass, d.path, d.class)
}

// ReadFloat64 reads the elements [start, end) of one row of a numeric
// dataset. One-dimensional datasets have the single row 0.
func (d *Dataset) ReadFloat64(row, start, end int) ([]float64, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	if !d.class.IsNumeric() {
		return nil, fmt.Errorf("%w: %s is %s", ErrClass, d.path, d.class)
	}
	if err := d.checkSpan(row, start, end); err != nil {
		return nil, err
	}
	return readSpan(d, d.floatCodec(), row, start, end)
}

// ReadRowFloat64 reads a whole row of a numeric dataset.
func (d *Dataset) ReadRowFloat64(row int) ([]float64, error) {
	if d.kind == schema.KindRagged {
		return d.ReadRow(row)
	}
	_, cols := d.grid()
	return d.ReadFloat64(row, 0, int(cols))
}

// ReadAllFloat64 reads every row of a numeric dataset.
func (d *Dataset) ReadAllFloat64() ([][]float64, error) {
	rows := d.dims[0]
	if d.kind == schema.KindDataset {
		rows, _ = d.grid()
	}
	out := make([][]float64, rows)
	for r := range out {
		vals, err := d.ReadRowFloat64(r)
		if err != nil {
			return nil, err
		}
		out[r] = vals
	}
	return out, nil
}

// ReadStrings reads a one-dimensional string dataset.
func (d *Dataset) ReadStrings() ([]string, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	if err := d.checkClass(dtype.String); err != nil {
		return nil, err
	}
	_, cols := d.grid()
	return readSpan(d, stringCodec, 0, 0, int(cols))
}

// ReadRecords reads a one-dimensional record dataset.
func (d *Dataset) ReadRecords() ([]RecordValue, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	if err := d.checkClass(dtype.Record); err != nil {
		return nil, err
	}
	_, cols := d.grid()
	return readSpan(d, recordCodec, 0, 0, int(cols))
}

// ReadBytes reads a one-dimensional uint8 dataset.
func (d *Dataset) ReadBytes() ([]byte, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	if err := d.checkClass(dtype.Uint8); err != nil {
		return nil, err
	}
	_, cols := d.grid()
	return readSpan(d, byteCodec, 0, 0, int(cols))
}
