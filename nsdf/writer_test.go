package nsdf

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nsdf/nsdf/container"
)

// newTestWriter creates a file in a temporary directory. The writer is
// closed at the end of the test if the test has not closed it.
func newTestWriter(t *testing.T, dialect Dialect, opts ...Option) (*Writer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.nsdf")
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	w, err := Create(path, dialect, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w, path
}

// openTestReader opens a file for reading and closes it at the end of the
// test.
func openTestReader(t *testing.T, path string) *Reader {
	t.Helper()
	r, err := Open(path, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestCreateLayout(t *testing.T) {
	w, path := newTestWriter(t, VLEN)
	require.Equal(t, VLEN, w.Dialect())
	require.Equal(t, path, w.Path())
	require.NoError(t, w.Close())

	f, err := container.Open(path)
	require.NoError(t, err)
	defer f.Close()

	for _, p := range []string{
		"/data", "/map", "/map/time", "/model", "/model/modeltree",
		"/data/uniform", "/data/nonuniform", "/data/event", "/data/static",
		"/map/uniform", "/map/nonuniform", "/map/event", "/map/static",
	} {
		_, err := f.OpenGroup(p)
		require.NoError(t, err, p)
	}

	v, err := f.ReadAttr("/@dialect")
	require.NoError(t, err)
	require.Equal(t, "VLEN", v)

	v, err = f.ReadAttr("/@nsdf_version")
	require.NoError(t, err)
	require.Equal(t, FormatVersion, v)

	v, err = f.ReadAttr("/@created")
	require.NoError(t, err)
	_, err = time.Parse(time.RFC3339, v.(string))
	require.NoError(t, err)

	v, err = f.ReadAttr("/@id")
	require.NoError(t, err)
	_, err = uuid.Parse(v.(string))
	require.NoError(t, err)

	v, err = f.ReadAttr("/model/modeltree@uid")
	require.NoError(t, err)
	require.Equal(t, "modeltree", v)
}

func TestCreateUnknownDialect(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "x.nsdf"), Dialect("HDF4"))
	require.ErrorIs(t, err, ErrDialect)

	d, err := ParseDialect("NANPADDED")
	require.NoError(t, err)
	require.Equal(t, NANPADDED, d)
	require.Equal(t, NUREGULAR, SharedTime)

	_, err = ParseDialect("nanpadded")
	require.ErrorIs(t, err, ErrDialect)
}

func TestProvenanceRoundTrip(t *testing.T) {
	w, path := newTestWriter(t, ONED)
	start := time.Date(2024, 1, 2, 3, 4, 5, 600, time.UTC)
	end := start.Add(time.Hour)

	w.SetProperties(Properties{Title: "replaced", Rights: "none"})
	w.SetTitle("Granule cell")
	w.SetCreator("Jane Doe", "John Roe")
	w.SetSoftware("moose", "nsdf")
	w.SetMethod("exp euler")
	w.SetDescription("test run")
	w.SetLicense("CC0")
	w.SetContributor("Ann")
	w.SetTStart(start)
	w.SetTEnd(end)
	require.NoError(t, w.Close())

	r := openTestReader(t, path)
	p, err := r.Properties()
	require.NoError(t, err)
	require.Equal(t, "Granule cell", p.Title)
	require.Equal(t, []string{"Jane Doe", "John Roe"}, p.Creator)
	require.Equal(t, []string{"moose", "nsdf"}, p.Software)
	require.Equal(t, []string{"exp euler"}, p.Method)
	require.Equal(t, "test run", p.Description)
	require.Equal(t, "none", p.Rights)
	require.Equal(t, "CC0", p.License)
	require.Equal(t, []string{"Ann"}, p.Contributor)
	require.True(t, start.Equal(p.TStart), "tstart = %v", p.TStart)
	require.True(t, end.Equal(p.TEnd), "tend = %v", p.TEnd)
}

func TestWriterClosed(t *testing.T) {
	w, _ := newTestWriter(t, ONED)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err := w.AddUniformMap("cells", []string{"a"})
	require.ErrorIs(t, err, ErrClosed)
	_, err = w.OpenMap(Uniform, "cells", "")
	require.ErrorIs(t, err, ErrClosed)
}

func TestAddMapValidation(t *testing.T) {
	w, _ := newTestWriter(t, VLEN)

	_, err := w.AddUniformMap("cells", nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = w.AddUniformMap("cells", []string{"a", "b", "a"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = w.AddUniformMap("bad/name", []string{"a"})
	require.ErrorIs(t, err, ErrValidation)

	m, err := w.AddUniformMap("cells", []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, "/map/uniform/cells", m.Path())
	require.Equal(t, Uniform, m.Sampling())
	require.Equal(t, "cells", m.Population())
	require.Empty(t, m.Variable())
	require.Equal(t, []string{"a", "b"}, m.Sources())
	require.Equal(t, 2, m.Len())

	_, err = w.AddUniformMap("cells", []string{"c"})
	require.ErrorIs(t, err, ErrValidation)

	// The same population name is free in another sampling regime
	_, err = w.AddStaticMap("cells", []string{"c"})
	require.NoError(t, err)
}

func TestDialectViolations(t *testing.T) {
	tests := []struct {
		dialect Dialect
		call    func(w *Writer) error
	}{
		{ONED, func(w *Writer) error {
			_, err := w.AddNonuniformMap("cells", []string{"a"})
			return err
		}},
		{ONED, func(w *Writer) error {
			_, err := w.AddEventMap("cells", []string{"a"})
			return err
		}},
		{ONED, func(w *Writer) error {
			m, err := w.AddNonuniformMap1D("cells", "Ca", []string{"a"})
			if err != nil {
				return err
			}
			d := NewNonuniformRegularData("Ca", "mM", "ms")
			d.SetTimes([]float64{0}, "")
			d.Put("a", []float64{1})
			return w.AddNonuniformRegularData(m, d, false)
		}},
		{VLEN, func(w *Writer) error {
			_, err := w.AddNonuniformMap1D("cells", "Im", []string{"a"})
			return err
		}},
		{VLEN, func(w *Writer) error {
			_, err := w.AddEventMap1D("cells", "spikes", []string{"a"})
			return err
		}},
		{NANPADDED, func(w *Writer) error {
			m, err := w.AddNonuniformMap("cells", []string{"a"})
			if err != nil {
				return err
			}
			d := NewNonuniformRegularData("Ca", "mM", "ms")
			d.SetTimes([]float64{0}, "")
			d.Put("a", []float64{1})
			return w.AddNonuniformRegularData(m, d, false)
		}},
		{NUREGULAR, func(w *Writer) error {
			_, err := w.AddEventMap("cells", []string{"a"})
			return err
		}},
		{NUREGULAR, func(w *Writer) error {
			m, err := w.AddNonuniformMap("cells", []string{"a"})
			if err != nil {
				return err
			}
			d := NewNonuniformData("Im", "nA", "ms")
			d.Put("a", []float64{1}, []float64{0})
			return w.AddNonuniformData(m, d, false)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			w, _ := newTestWriter(t, tt.dialect)
			require.ErrorIs(t, tt.call(w), ErrDialect)
		})
	}
}

func TestDataValidation(t *testing.T) {
	w, path := newTestWriter(t, NANPADDED)
	m, err := w.AddUniformMap("cells", []string{"a", "b"})
	require.NoError(t, err)

	// Source sets must match the map
	d := NewUniformData("Vm", "mV", 0.1, "ms")
	require.NoError(t, d.Put("a", []float64{1}))
	require.ErrorIs(t, w.AddUniformData(m, d, false), ErrValidation)
	require.NoError(t, d.Put("c", []float64{1}))
	require.ErrorIs(t, w.AddUniformData(m, d, false), ErrValidation)

	// Rows of equal length
	d = NewUniformData("Vm", "mV", 0.1, "ms")
	require.NoError(t, d.Put("a", []float64{1, 2}))
	require.NoError(t, d.Put("b", []float64{1}))
	require.ErrorIs(t, w.AddUniformData(m, d, false), ErrValidation)

	// Metadata on first write
	for _, bad := range []*UniformData{
		NewUniformData("Vm", "", 0.1, "ms"),
		NewUniformData("Vm", "mV", 0.1, ""),
		NewUniformData("Vm", "mV", 0, "ms"),
	} {
		require.NoError(t, bad.Put("a", []float64{1}))
		require.NoError(t, bad.Put("b", []float64{2}))
		require.ErrorIs(t, w.AddUniformData(m, bad, false), ErrValidation)
	}

	// Wrong sampling regime
	s := NewStaticData("Vm", "mV")
	require.NoError(t, s.Put("a", []float64{1}))
	require.NoError(t, s.Put("b", []float64{2}))
	require.ErrorIs(t, w.AddStaticData(m, s, true), ErrValidation)
	require.ErrorIs(t, w.AddStaticData(nil, s, true), ErrValidation)

	// NaN marks the end of a padded row
	em, err := w.AddEventMap("cells", []string{"a", "b"})
	require.NoError(t, err)
	e := NewEventData("spikes", "s")
	require.NoError(t, e.Put("a", []float64{0.1, math.NaN()}))
	require.NoError(t, e.Put("b", []float64{0.2}))
	require.ErrorIs(t, w.AddEventData(em, e, false), ErrValidation)

	e = NewEventData("spikes", "s")
	e.DType = container.Int32
	require.NoError(t, e.Put("a", []float64{1}))
	require.NoError(t, e.Put("b", []float64{2}))
	require.ErrorIs(t, w.AddEventData(em, e, false), ErrValidation)

	// Failed calls leave nothing behind
	require.NoError(t, w.Close())
	r := openTestReader(t, path)
	pops, err := r.Populations(Uniform)
	require.NoError(t, err)
	require.Empty(t, pops)
	pops, err = r.Populations(Event)
	require.NoError(t, err)
	require.Empty(t, pops)
}

func TestUniformDtMismatch(t *testing.T) {
	w, _ := newTestWriter(t, ONED)
	m, err := w.AddUniformMap("cells", []string{"a"})
	require.NoError(t, err)

	d := NewUniformData("Vm", "mV", 0.1, "ms")
	require.NoError(t, d.Put("a", []float64{1}))
	require.NoError(t, w.AddUniformData(m, d, false))

	d.SetDt(0.2, "ms")
	require.ErrorIs(t, w.AddUniformData(m, d, false), ErrValidation)
}

func TestOpenAppend(t *testing.T) {
	w, path := newTestWriter(t, ONED)
	m, err := w.AddUniformMap("cells", []string{"a", "b"})
	require.NoError(t, err)
	d := NewUniformData("Vm", "mV", 0.5, "ms")
	require.NoError(t, d.Put("a", []float64{1, 2}))
	require.NoError(t, d.Put("b", []float64{3, 4}))
	require.NoError(t, w.AddUniformData(m, d, false))
	w.SetTitle("first")
	require.NoError(t, w.Close())

	_, err = OpenAppend(path, VLEN)
	require.ErrorIs(t, err, ErrDialect)

	w, err = OpenAppend(path, ONED, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	m, err = w.OpenMap(Uniform, "cells", "")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, m.Sources())

	d = NewUniformData("Vm", "mV", 0.5, "ms")
	require.NoError(t, d.Put("b", []float64{6}))
	require.NoError(t, d.Put("a", []float64{5}))
	require.NoError(t, w.AddUniformData(m, d, false))
	require.NoError(t, w.Close())

	r := openTestReader(t, path)
	got, err := r.UniformData("cells", "Vm")
	require.NoError(t, err)
	a, err := got.Get("a")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 5}, a)
	b, err := got.Get("b")
	require.NoError(t, err)
	require.Equal(t, []float64{3, 4, 6}, b)

	p, err := r.Properties()
	require.NoError(t, err)
	require.Equal(t, "first", p.Title)
}

func TestOpenMapErrors(t *testing.T) {
	w, _ := newTestWriter(t, ONED)

	_, err := w.OpenMap(Uniform, "cells", "")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = w.OpenMap(Nonuniform, "cells", "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = w.AddNonuniformMap1D("cells", "Im", []string{"a", "b"})
	require.NoError(t, err)
	m, err := w.OpenMap(Nonuniform, "cells", "Im")
	require.NoError(t, err)
	require.Equal(t, "/map/nonuniform/cells/Im", m.Path())
	require.Equal(t, "Im", m.Variable())
	require.Equal(t, []string{"a", "b"}, m.Sources())
}
