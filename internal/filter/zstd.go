package filter

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Encoders and decoders are safe for concurrent EncodeAll/DecodeAll and
// expensive to build, so one of each is shared by all Zstd filters.
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func zstdCodecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// Zstd implements zstandard compression.
type Zstd struct{}

// NewZstd creates a new zstd filter.
func NewZstd() *Zstd {
	return &Zstd{}
}

func (f *Zstd) ID() ID {
	return FilterZstd
}

func (f *Zstd) Encode(input []byte) ([]byte, error) {
	enc, _, err := zstdCodecs()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return enc.EncodeAll(input, nil), nil
}

func (f *Zstd) Decode(input []byte) ([]byte, error) {
	_, dec, err := zstdCodecs()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	output, err := dec.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return output, nil
}
