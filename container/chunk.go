package container

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/nsdf/nsdf/internal/dtype"
)

// codec converts between elements and the byte encoding of one chunk.
type codec[T any] struct {
	encode func([]T) ([]byte, error)
	decode func([]byte) ([]T, error)
	fill   T
}

func (d *Dataset) floatCodec() codec[float64] {
	return codec[float64]{
		encode: func(v []float64) ([]byte, error) { return dtype.EncodeFloat64s(d.class, v) },
		decode: func(b []byte) ([]float64, error) { return dtype.DecodeFloat64s(d.class, b) },
		fill:   d.FillValue(),
	}
}

var stringCodec = codec[string]{
	encode: func(v []string) ([]byte, error) { return dtype.EncodeStrings(v), nil },
	decode: dtype.DecodeStrings,
}

var recordCodec = codec[dtype.RecordValue]{
	encode: func(v []dtype.RecordValue) ([]byte, error) { return dtype.EncodeRecords(v), nil },
	decode: dtype.DecodeRecords,
}

var byteCodec = codec[byte]{
	encode: func(v []byte) ([]byte, error) { return v, nil },
	decode: func(b []byte) ([]byte, error) { return b, nil },
}

// loadChunk returns chunk idx of a row. Chunks that were never written read
// as the fill value.
func loadChunk[T any](d *Dataset, c codec[T], row, idx int) ([]T, error) {
	var raw []byte
	err := d.file.q().QueryRow(`SELECT data FROM chunks WHERE object = ? AND row = ? AND idx = ?`,
		d.id, row, idx).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		vals := make([]T, d.chunk)
		for i := range vals {
			vals[i] = c.fill
		}
		return vals, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading chunk (%d, %d) of %s: %w", row, idx, d.path, err)
	}

	data, err := d.pipe.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("chunk (%d, %d) of %s: %w", row, idx, d.path, err)
	}
	vals, err := c.decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding chunk (%d, %d) of %s: %w", row, idx, d.path, err)
	}
	if len(vals) != d.chunk {
		return nil, fmt.Errorf("chunk (%d, %d) of %s holds %d elements, want %d",
			row, idx, d.path, len(vals), d.chunk)
	}
	return vals, nil
}

// storeChunk encodes and stores a full chunk.
func storeChunk[T any](d *Dataset, c codec[T], row, idx int, vals []T) error {
	data, err := c.encode(vals)
	if err != nil {
		return fmt.Errorf("encoding chunk (%d, %d) of %s: %w", row, idx, d.path, err)
	}
	raw, err := d.pipe.Encode(data)
	if err != nil {
		return fmt.Errorf("chunk (%d, %d) of %s: %w", row, idx, d.path, err)
	}
	_, err = d.file.q().Exec(`INSERT OR REPLACE INTO chunks (object, row, idx, data) VALUES (?, ?, ?, ?)`,
		d.id, row, idx, raw)
	if err != nil {
		return fmt.Errorf("writing chunk (%d, %d) of %s: %w", row, idx, d.path, err)
	}
	return nil
}

// writeSpan writes vals into a row starting at column start. Partially
// covered chunks are read, modified and written back.
func writeSpan[T any](d *Dataset, c codec[T], row, start int, vals []T) error {
	for off := 0; off < len(vals); {
		col := start + off
		idx := col / d.chunk
		within := col % d.chunk
		n := min(d.chunk-within, len(vals)-off)

		var buf []T
		if within == 0 && n == d.chunk {
			buf = vals[off : off+n]
		} else {
			var err error
			buf, err = loadChunk(d, c, row, idx)
			if err != nil {
				return err
			}
			copy(buf[within:], vals[off:off+n])
		}

		if err := storeChunk(d, c, row, idx, buf); err != nil {
			return err
		}
		off += n
	}
	return nil
}

// readSpan reads the columns [start, end) of a row.
func readSpan[T any](d *Dataset, c codec[T], row, start, end int) ([]T, error) {
	out := make([]T, 0, end-start)
	for col := start; col < end; {
		idx := col / d.chunk
		within := col % d.chunk
		n := min(d.chunk-within, end-col)

		buf, err := loadChunk(d, c, row, idx)
		if err != nil {
			return nil, err
		}
		out = append(out, buf[within:within+n]...)
		col += n
	}
	return out, nil
}
