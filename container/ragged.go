package container

import (
	"fmt"

	"github.com/nsdf/nsdf/internal/dtype"
	"github.com/nsdf/nsdf/internal/schema"
)

// Ragged rows are stored as append-only segments. Each AppendRow call adds
// one segment; reading a row concatenates its segments in order.

func (d *Dataset) checkRaggedRow(row int) error {
	if d.kind != schema.KindRagged {
		return fmt.Errorf("%w: %s", ErrNotRagged, d.path)
	}
	if row < 0 || uint64(row) >= d.dims[0] {
		return fmt.Errorf("%w: row %d of %d in %s", ErrOutOfRange, row, d.dims[0], d.path)
	}
	return nil
}

// AppendRow appends vals to the end of one row of a ragged dataset.
func (d *Dataset) AppendRow(row int, vals []float64) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	if err := d.checkRaggedRow(row); err != nil {
		return err
	}
	if len(vals) == 0 {
		return nil
	}

	var length, seq int64
	err := d.file.q().QueryRow(
		`SELECT COALESCE(SUM(n), 0), COALESCE(MAX(seq) + 1, 0) FROM segments WHERE object = ? AND row = ?`,
		d.id, row).Scan(&length, &seq)
	if err != nil {
		return fmt.Errorf("reading row %d of %s: %w", row, d.path, err)
	}

	if limit := d.maxDims[1]; limit != Unlimited && uint64(length)+uint64(len(vals)) > limit {
		return fmt.Errorf("%w: row %d of %s to %d elements, max %d",
			ErrMaxDims, row, d.path, length+int64(len(vals)), limit)
	}

	data, err := dtype.EncodeFloat64s(d.class, vals)
	if err != nil {
		return fmt.Errorf("encoding row %d of %s: %w", row, d.path, err)
	}
	raw, err := d.pipe.Encode(data)
	if err != nil {
		return fmt.Errorf("row %d of %s: %w", row, d.path, err)
	}

	_, err = d.file.q().Exec(`INSERT INTO segments (object, row, seq, n, data) VALUES (?, ?, ?, ?, ?)`,
		d.id, row, seq, len(vals), raw)
	if err != nil {
		return fmt.Errorf("writing row %d of %s: %w", row, d.path, err)
	}
	return nil
}

// ReadRow returns the full contents of one row of a ragged dataset.
func (d *Dataset) ReadRow(row int) ([]float64, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	if err := d.checkRaggedRow(row); err != nil {
		return nil, err
	}

	rows, err := d.file.q().Query(`SELECT n, data FROM segments WHERE object = ? AND row = ? ORDER BY seq`,
		d.id, row)
	if err != nil {
		return nil, fmt.Errorf("reading row %d of %s: %w", row, d.path, err)
	}
	defer rows.Close()

	out := []float64{}
	for rows.Next() {
		var n int
		var raw []byte
		if err := rows.Scan(&n, &raw); err != nil {
			return nil, fmt.Errorf("reading row %d of %s: %w", row, d.path, err)
		}

		data, err := d.pipe.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", row, d.path, err)
		}
		vals, err := dtype.DecodeFloat64s(d.class, data)
		if err != nil {
			return nil, fmt.Errorf("decoding row %d of %s: %w", row, d.path, err)
		}
		if len(vals) != n {
			return nil, fmt.Errorf("segment of row %d of %s holds %d elements, want %d",
				row, d.path, len(vals), n)
		}
		out = append(out, vals...)
	}
	return out, rows.Err()
}

// RowLen returns the length of one row of a ragged dataset.
func (d *Dataset) RowLen(row int) (int, error) {
	if d.file.closed {
		return 0, ErrClosed
	}
	if err := d.checkRaggedRow(row); err != nil {
		return 0, err
	}

	var n int
	err := d.file.q().QueryRow(`SELECT COALESCE(SUM(n), 0) FROM segments WHERE object = ? AND row = ?`,
		d.id, row).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("reading row %d of %s: %w", row, d.path, err)
	}
	return n, nil
}

// RowLens returns the length of every row of a ragged dataset.
func (d *Dataset) RowLens() ([]int, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	if d.kind != schema.KindRagged {
		return nil, fmt.Errorf("%w: %s", ErrNotRagged, d.path)
	}

	lens := make([]int, d.dims[0])
	rows, err := d.file.q().Query(`SELECT row, SUM(n) FROM segments WHERE object = ? GROUP BY row`, d.id)
	if err != nil {
		return nil, fmt.Errorf("reading row lengths of %s: %w", d.path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var row, n int
		if err := rows.Scan(&row, &n); err != nil {
			return nil, fmt.Errorf("reading row lengths of %s: %w", d.path, err)
		}
		if row >= 0 && row < len(lens) {
			lens[row] = n
		}
	}
	return lens, rows.Err()
}
