package container

import (
	"fmt"

	"github.com/nsdf/nsdf/internal/dtype"
	"github.com/nsdf/nsdf/internal/filter"
	"github.com/nsdf/nsdf/internal/schema"
)

// CreateDataset creates a new regular dataset with the given element class
// and initial dimensions (rank 1 or 2). String and Record datasets must be
// one-dimensional. Elements read as the fill value until written.
func (g *Group) CreateDataset(name string, class Class, dims []uint64, opts ...DatasetOption) (*Dataset, error) {
	if err := g.file.checkWritable(); err != nil {
		return nil, err
	}
	if err := validName(name); err != nil {
		return nil, err
	}

	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}

	// Validate shape and class
	rank := len(dims)
	if rank != 1 && rank != 2 {
		return nil, fmt.Errorf("%w: dataset %q has rank %d, want 1 or 2", ErrRank, name, rank)
	}
	if !class.Valid() {
		return nil, fmt.Errorf("%w: invalid class %s", ErrClass, class)
	}
	if (class == dtype.String || class == dtype.Record) && rank != 1 {
		return nil, fmt.Errorf("%w: %s datasets must be one-dimensional", ErrRank, class)
	}

	maxDims := options.maxDims
	if maxDims == nil {
		maxDims = dims
	}
	if len(maxDims) != rank {
		return nil, fmt.Errorf("%w: %d max dims for rank %d", ErrRank, len(maxDims), rank)
	}
	for i := range dims {
		if maxDims[i] != Unlimited && dims[i] > maxDims[i] {
			return nil, fmt.Errorf("%w: axis %d size %d > max %d", ErrMaxDims, i, dims[i], maxDims[i])
		}
	}

	row, err := g.newDatasetRow(name, class, options)
	if err != nil {
		return nil, err
	}
	row.kind = schema.KindDataset
	row.rank = rank
	copy(row.dims[:], dims)
	copy(row.maxDims[:], maxDims)

	return g.finishDataset(row, options)
}

// CreateRaggedDataset creates a dataset of rows numeric rows, each empty
// and grown with AppendRow. WithMaxDims(maxRows, maxRowLen) bounds the
// number of rows and the length of any row; by default the row count is
// fixed and row length is unlimited.
func (g *Group) CreateRaggedDataset(name string, class Class, rows uint64, opts ...DatasetOption) (*Dataset, error) {
	if err := g.file.checkWritable(); err != nil {
		return nil, err
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	if !class.IsNumeric() {
		return nil, fmt.Errorf("%w: ragged datasets hold numbers, not %s", ErrClass, class)
	}

	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}

	maxDims := [2]uint64{rows, Unlimited}
	switch len(options.maxDims) {
	case 0:
	case 1:
		maxDims[0] = options.maxDims[0]
	case 2:
		maxDims[0], maxDims[1] = options.maxDims[0], options.maxDims[1]
	default:
		return nil, fmt.Errorf("%w: ragged datasets take at most 2 max dims", ErrRank)
	}
	if maxDims[0] != Unlimited && rows > maxDims[0] {
		return nil, fmt.Errorf("%w: %d rows > max %d", ErrMaxDims, rows, maxDims[0])
	}

	row, err := g.newDatasetRow(name, class, options)
	if err != nil {
		return nil, err
	}
	row.kind = schema.KindRagged
	row.rank = 1
	row.dims = [2]uint64{rows, 0}
	row.maxDims = maxDims

	return g.finishDataset(row, options)
}

// newDatasetRow fills in the storage settings shared by all datasets.
func (g *Group) newDatasetRow(name string, class Class, options *datasetOptions) (*objectRow, error) {
	row := &objectRow{
		name:    name,
		class:   class,
		chunk:   options.chunkLen,
		filters: filter.FilterChecksum,
	}
	if row.chunk <= 0 {
		row.chunk = g.file.opts.chunkLen
	}
	if options.shuffle {
		row.filters |= filter.FilterShuffle
	}
	if options.compression {
		row.filters |= filter.FilterZstd
	}

	if options.hasFill && class.IsNumeric() {
		fill, err := dtype.EncodeFloat64s(class, []float64{options.fill})
		if err != nil {
			return nil, fmt.Errorf("fill value for %s dataset: %w", class, err)
		}
		row.fill = fill
	}

	return row, nil
}

// finishDataset inserts the dataset row and its creation attributes.
func (g *Group) finishDataset(row *objectRow, options *datasetOptions) (*Dataset, error) {
	id, err := g.insertObject(row)
	if err != nil {
		return nil, err
	}
	row.id = id
	row.path = JoinPath(g.path, row.name)

	ds, err := newDataset(g.file, row)
	if err != nil {
		return nil, err
	}

	for _, attr := range options.attributes {
		if err := ds.SetAttr(attr.name, attr.value); err != nil {
			return nil, fmt.Errorf("creating attribute %q: %w", attr.name, err)
		}
	}

	return ds, nil
}

// Resize changes the dimensions of the dataset. Datasets only grow, and
// never beyond their maximum dimensions. For ragged datasets dims is the
// number of rows.
func (d *Dataset) Resize(dims ...uint64) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	if len(dims) != d.rank {
		return fmt.Errorf("%w: %d dims for rank %d", ErrRank, len(dims), d.rank)
	}

	for i, dim := range dims {
		if dim < d.dims[i] {
			return fmt.Errorf("%w: axis %d of %s from %d to %d", ErrShrink, i, d.path, d.dims[i], dim)
		}
		if d.maxDims[i] != Unlimited && dim > d.maxDims[i] {
			return fmt.Errorf("%w: axis %d of %s to %d, max %d", ErrMaxDims, i, d.path, dim, d.maxDims[i])
		}
	}

	next := d.dims
	copy(next[:], dims)
	_, err := d.file.q().Exec(`UPDATE objects SET dim0 = ?, dim1 = ? WHERE id = ?`,
		int64(next[0]), int64(next[1]), d.id)
	if err != nil {
		return fmt.Errorf("resizing %s: %w", d.path, err)
	}
	d.dims = next

	return nil
}

// WriteFloat64 writes vals into one row of a numeric dataset starting at
// column start. One-dimensional datasets have the single row 0.
func (d *Dataset) WriteFloat64(row, start int, vals []float64) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	if !d.class.IsNumeric() {
		return fmt.Errorf("%w: %s is %s", ErrClass, d.path, d.class)
	}
	if err := d.checkSpan(row, start, start+len(vals)); err != nil {
		return err
	}
	return writeSpan(d, d.floatCodec(), row, start, vals)
}

// WriteStrings writes vals into a string dataset starting at index start.
func (d *Dataset) WriteStrings(start int, vals []string) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	if err := d.checkClass(dtype.String); err != nil {
		return err
	}
	if err := d.checkSpan(0, start, start+len(vals)); err != nil {
		return err
	}
	return writeSpan(d, stringCodec, 0, start, vals)
}

// WriteRecords writes vals into a record dataset starting at index start.
func (d *Dataset) WriteRecords(start int, vals []RecordValue) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	if err := d.checkClass(dtype.Record); err != nil {
		return err
	}
	if err := d.checkSpan(0, start, start+len(vals)); err != nil {
		return err
	}
	return writeSpan(d, recordCodec, 0, start, vals)
}

// WriteBytes writes b into a uint8 dataset starting at index start.
func (d *Dataset) WriteBytes(start int, b []byte) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	if err := d.checkClass(dtype.Uint8); err != nil {
		return err
	}
	if err := d.checkSpan(0, start, start+len(b)); err != nil {
		return err
	}
	return writeSpan(d, byteCodec, 0, start, b)
}
