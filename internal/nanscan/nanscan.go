// Package nanscan finds the valid run length of NaN-padded rows.
//
// A NaN-padded row holds its values in [0, len) and NaN from len onwards.
// The run length is recovered by locating the first NaN. Rows can be very
// wide, so the scan reads them in bounded chunks and stops at the first hit
// instead of materialising the whole row or a full boolean mask.
package nanscan

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultChunk is the number of elements read per step when no chunk size
// is given.
const DefaultChunk = 4096

// ReadFunc returns the elements [start, end) of one row.
type ReadFunc func(start, end int) ([]float64, error)

// FirstNaN returns the index of the first NaN in a row of n elements, reading
// at most chunk elements at a time. It returns n if the row has no NaN.
func FirstNaN(n, chunk int, read ReadFunc) (int, error) {
	if chunk <= 0 {
		chunk = DefaultChunk
	}

	inds := make([]int, 0, 1)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)

		vals, err := read(start, end)
		if err != nil {
			return 0, fmt.Errorf("reading [%d, %d): %w", start, end, err)
		}
		if len(vals) != end-start {
			return 0, fmt.Errorf("reading [%d, %d): got %d elements", start, end, len(vals))
		}

		// Find reports an error when fewer than k matches exist; only the
		// returned indices matter here.
		inds, _ = floats.Find(inds, math.IsNaN, vals, 1)
		if len(inds) > 0 {
			return start + inds[0], nil
		}
	}
	return n, nil
}

// RunLengths returns the first-NaN index of each of rows rows of width n.
func RunLengths(rows, n, chunk int, read func(row, start, end int) ([]float64, error)) ([]int, error) {
	lens := make([]int, rows)
	for r := 0; r < rows; r++ {
		l, err := FirstNaN(n, chunk, func(start, end int) ([]float64, error) {
			return read(r, start, end)
		})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		lens[r] = l
	}
	return lens, nil
}

// Trim returns the prefix of s before its first NaN.
func Trim(s []float64) []float64 {
	inds, _ := floats.Find(nil, math.IsNaN, s, 1)
	if len(inds) == 0 {
		return s
	}
	return s[:inds[0]]
}

// HasNaN reports whether s contains a NaN.
func HasNaN(s []float64) bool {
	return floats.HasNaN(s)
}
