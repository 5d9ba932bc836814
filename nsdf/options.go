package nsdf

import (
	"go.uber.org/zap"

	"github.com/nsdf/nsdf/container"
	"github.com/nsdf/nsdf/internal/nanscan"
)

// Option configures a Writer or Reader.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	chunkLen    uint64
	compression bool
	scanChunk   int
}

func defaultOptions() *options {
	return &options{
		logger:    zap.NewNop(),
		scanChunk: nanscan.DefaultChunk,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger. Linking warnings are logged at Warn level,
// dataset creation and growth at Debug.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithChunkSize sets the chunk length along the sample axis of new
// datasets.
func WithChunkSize(n uint64) Option {
	return func(o *options) {
		o.chunkLen = n
	}
}

// WithCompression stores new datasets shuffled and zstd-compressed.
func WithCompression() Option {
	return func(o *options) {
		o.compression = true
	}
}

// WithScanChunk sets how many elements the NaN-padded layout reads at a
// time when locating the end of a row.
func WithScanChunk(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.scanChunk = n
		}
	}
}

// datasetOptions converts the engine options to container options, with
// extra appended.
func (o *options) datasetOptions(extra ...container.DatasetOption) []container.DatasetOption {
	var opts []container.DatasetOption
	if o.chunkLen > 0 {
		opts = append(opts, container.WithChunks(o.chunkLen))
	}
	if o.compression {
		opts = append(opts, container.WithShuffle(), container.WithCompression())
	}
	return append(opts, extra...)
}
