package container

import "math"

// Unlimited marks an axis without an upper bound in WithMaxDims.
const Unlimited uint64 = math.MaxUint64

// DefaultChunkLen is the chunk length along the last axis used when neither
// WithChunks nor WithDefaultChunk is given.
const DefaultChunkLen = 1024

// FileOption configures file creation options.
type FileOption func(*fileOptions)

type fileOptions struct {
	chunkLen int
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		chunkLen: DefaultChunkLen,
	}
}

// WithDefaultChunk sets the chunk length used by datasets created without
// WithChunks.
func WithDefaultChunk(n int) FileOption {
	return func(o *fileOptions) {
		if n > 0 {
			o.chunkLen = n
		}
	}
}

// DatasetOption configures dataset creation options.
type DatasetOption func(*datasetOptions)

// attrDef holds an attribute definition for creation.
type attrDef struct {
	name  string
	value any
}

type datasetOptions struct {
	chunkLen    int
	maxDims     []uint64
	fill        float64
	hasFill     bool
	compression bool
	shuffle     bool
	attributes  []attrDef
}

func defaultDatasetOptions() *datasetOptions {
	return &datasetOptions{}
}

// WithChunks sets the chunk length along the last axis. Chunks always span
// a single row of two-dimensional datasets.
func WithChunks(n uint64) DatasetOption {
	return func(o *datasetOptions) {
		if n > 0 {
			o.chunkLen = int(n)
		}
	}
}

// WithMaxDims sets the maximum dimensions for a resizable dataset.
// Use Unlimited for an unbounded axis. Without this option the maximum
// dimensions equal the initial dimensions.
//
// For ragged datasets the first value bounds the number of rows and the
// second bounds the length of any row.
func WithMaxDims(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.maxDims = dims
	}
}

// WithFillValue sets the value read back from elements that were never
// written. The default is zero.
func WithFillValue(v float64) DatasetOption {
	return func(o *datasetOptions) {
		o.fill = v
		o.hasFill = true
	}
}

// WithCompression enables zstd compression of chunks.
func WithCompression() DatasetOption {
	return func(o *datasetOptions) {
		o.compression = true
	}
}

// WithShuffle enables the shuffle filter (improves compression).
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.shuffle = true
	}
}

// WithAttribute adds an attribute to the dataset.
// The value can be any type accepted by SetAttr.
// Multiple WithAttribute options can be used to add multiple attributes.
func WithAttribute(name string, value any) DatasetOption {
	return func(o *datasetOptions) {
		o.attributes = append(o.attributes, attrDef{name: name, value: value})
	}
}
