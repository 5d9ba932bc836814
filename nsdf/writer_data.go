package nsdf

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nsdf/nsdf/container"
)

// Data dataset attribute names.
const (
	attrUnit   = "unit"
	attrField  = "field"
	attrDt     = "dt"
	attrTUnit  = "tunit"
	attrSource = "source"
)

// AddUniformData writes d against m, one row per map source. The first
// call creates /data/uniform/<population>/<name>; later calls append
// samples to every row. All sources must hold the same number of samples.
//
// With fixed set, the dataset is sized to this call's samples and later
// appends fail with ErrGrowth.
func (w *Writer) AddUniformData(m *MapDataset, d *UniformData, fixed bool) error {
	if err := w.checkMap(m, Uniform); err != nil {
		return err
	}
	rows, err := inMapOrder[[]float64](m, &d.Data)
	if err != nil {
		return err
	}
	width, err := commonWidth(rows, d.Name)
	if err != nil {
		return err
	}

	return w.atomic(func() error {
		g, ds, err := w.openData(Uniform, m.population, d.Name)
		if err != nil {
			return err
		}

		if ds == nil {
			if d.Unit == "" || d.TUnit == "" {
				return errors.Wrapf(ErrValidation, "%s needs unit and tunit", d.Name)
			}
			if d.Dt <= 0 {
				return errors.Wrapf(ErrValidation, "%s has sampling interval %v", d.Name, d.Dt)
			}
			ds, err = w.createGrid(g, d.Name, d.class(), len(rows), width, fixed,
				container.WithAttribute(attrTStart, d.TStart),
				container.WithAttribute(attrDt, d.Dt),
				container.WithAttribute(attrField, d.FieldName()),
				container.WithAttribute(attrUnit, d.Unit),
				container.WithAttribute(attrTUnit, d.TUnit))
			if err != nil {
				return err
			}
			if err := attachMap(ds, m); err != nil {
				return err
			}
			return writeRows(ds, 0, rows)
		}

		attr, err := ds.Attr(attrDt)
		if err != nil {
			return errors.Wrapf(err, "reading dt of %s", ds.Path())
		}
		dt, err := attr.ReadScalarFloat64()
		if err != nil {
			return errors.Wrapf(err, "reading dt of %s", ds.Path())
		}
		if dt != d.Dt {
			return errors.Wrapf(ErrValidation, "%s has dt %v, appending dt %v", ds.Path(), dt, d.Dt)
		}
		start, err := w.growColumns(ds, width)
		if err != nil {
			return err
		}
		return writeRows(ds, start, rows)
	})
}

// AddStaticData writes d against m as a sources by values dataset at
// /data/static/<population>/<name>. Later calls append columns.
func (w *Writer) AddStaticData(m *MapDataset, d *StaticData, fixed bool) error {
	if err := w.checkMap(m, Static); err != nil {
		return err
	}
	rows, err := inMapOrder[[]float64](m, &d.Data)
	if err != nil {
		return err
	}
	width, err := commonWidth(rows, d.Name)
	if err != nil {
		return err
	}

	return w.atomic(func() error {
		g, ds, err := w.openData(Static, m.population, d.Name)
		if err != nil {
			return err
		}
		if ds == nil {
			if d.Unit == "" {
				return errors.Wrapf(ErrValidation, "%s needs a unit", d.Name)
			}
			ds, err = w.createGrid(g, d.Name, d.class(), len(rows), width, fixed,
				container.WithAttribute(attrField, d.FieldName()),
				container.WithAttribute(attrUnit, d.Unit))
			if err != nil {
				return err
			}
			if err := attachMap(ds, m); err != nil {
				return err
			}
			return writeRows(ds, 0, rows)
		}

		start, err := w.growColumns(ds, width)
		if err != nil {
			return err
		}
		return writeRows(ds, start, rows)
	})
}

// AddNonuniformData writes values sampled at per-source times. The layout
// depends on the dialect; NUREGULAR files reject it with ErrDialect.
func (w *Writer) AddNonuniformData(m *MapDataset, d *NonuniformData, fixed bool) error {
	if err := w.checkMap(m, Nonuniform); err != nil {
		return err
	}
	return w.atomic(func() error {
		return w.layout.writeNonuniform(w, m, d, fixed)
	})
}

// AddNonuniformRegularData writes values sampled at times shared by all
// sources. Only NUREGULAR files store it.
func (w *Writer) AddNonuniformRegularData(m *MapDataset, d *NonuniformRegularData, fixed bool) error {
	if err := w.checkMap(m, Nonuniform); err != nil {
		return err
	}
	return w.atomic(func() error {
		return w.layout.writeNonuniformRegular(w, m, d, fixed)
	})
}

// AddEventData writes event times per source. The layout depends on the
// dialect.
func (w *Writer) AddEventData(m *MapDataset, d *EventData, fixed bool) error {
	if err := w.checkMap(m, Event); err != nil {
		return err
	}
	return w.atomic(func() error {
		return w.layout.writeEvent(w, m, d, fixed)
	})
}

// openData returns the population group of a sampling regime, creating it
// if needed, and the named dataset in it, or nil if it does not exist yet.
func (w *Writer) openData(s Sampling, population, name string) (*container.Group, *container.Dataset, error) {
	p := dataGroupPath(s, population)
	g, err := w.f.Root().RequireGroup(p)
	if err != nil {
		return nil, nil, containerErr(err, "creating %s", p)
	}
	if !g.Has(name) {
		return g, nil, nil
	}
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, nil, containerErr(err, "opening %s", container.JoinPath(p, name))
	}
	return g, ds, nil
}

// createGrid creates a rows by width dataset. Its columns can grow without
// bound unless fixed.
func (w *Writer) createGrid(g *container.Group, name string, class container.Class, rows, width int, fixed bool, extra ...container.DatasetOption) (*container.Dataset, error) {
	maxCols := container.Unlimited
	if fixed {
		maxCols = uint64(width)
	}
	opts := w.opts.datasetOptions(append(extra, container.WithMaxDims(uint64(rows), maxCols))...)
	ds, err := g.CreateDataset(name, class, []uint64{uint64(rows), uint64(width)}, opts...)
	if err != nil {
		return nil, containerErr(err, "creating %s", container.JoinPath(g.Path(), name))
	}
	w.logger.Debug("created dataset",
		zap.String("path", ds.Path()),
		zap.Uint64s("dims", ds.Shape()),
		zap.Bool("fixed", fixed))
	return ds, nil
}

// createSeries creates a one-dimensional dataset of n elements.
func (w *Writer) createSeries(g *container.Group, name string, class container.Class, n int, fixed bool, extra ...container.DatasetOption) (*container.Dataset, error) {
	maxLen := container.Unlimited
	if fixed {
		maxLen = uint64(n)
	}
	opts := w.opts.datasetOptions(append(extra, container.WithMaxDims(maxLen))...)
	ds, err := g.CreateDataset(name, class, []uint64{uint64(n)}, opts...)
	if err != nil {
		return nil, containerErr(err, "creating %s", container.JoinPath(g.Path(), name))
	}
	w.logger.Debug("created dataset",
		zap.String("path", ds.Path()),
		zap.Uint64s("dims", ds.Shape()),
		zap.Bool("fixed", fixed))
	return ds, nil
}

// isFixed reports whether the growth axis of ds is bounded. For ragged
// datasets that is the row length.
func isFixed(ds *container.Dataset) bool {
	maxDims := ds.MaxDims()
	return maxDims[len(maxDims)-1] != container.Unlimited
}

func checkGrowable(ds *container.Dataset) error {
	if isFixed(ds) {
		return errors.Wrapf(ErrGrowth, "%s was created fixed", ds.Path())
	}
	return nil
}

// growColumns extends the last axis of ds by n and returns the old length.
func (w *Writer) growColumns(ds *container.Dataset, n int) (int, error) {
	if err := checkGrowable(ds); err != nil {
		return 0, err
	}
	dims := ds.Shape()
	last := len(dims) - 1
	start := dims[last]
	if n == 0 {
		return int(start), nil
	}
	dims[last] += uint64(n)
	if err := ds.Resize(dims...); err != nil {
		return 0, containerErr(err, "growing %s", ds.Path())
	}
	w.logger.Debug("grew dataset", zap.String("path", ds.Path()), zap.Uint64s("dims", dims))
	return int(start), nil
}

// resizeColumns sets the last axis of ds to n if it is shorter.
func (w *Writer) resizeColumns(ds *container.Dataset, n int) error {
	dims := ds.Shape()
	last := len(dims) - 1
	if uint64(n) <= dims[last] {
		return nil
	}
	dims[last] = uint64(n)
	if err := ds.Resize(dims...); err != nil {
		return containerErr(err, "growing %s", ds.Path())
	}
	w.logger.Debug("grew dataset", zap.String("path", ds.Path()), zap.Uint64s("dims", dims))
	return nil
}

// writeRows writes rows[i] into row i of ds starting at column start.
func writeRows(ds *container.Dataset, start int, rows [][]float64) error {
	for i, row := range rows {
		if err := ds.WriteFloat64(i, start, row); err != nil {
			return containerErr(err, "writing row %d of %s", i, ds.Path())
		}
	}
	return nil
}

// commonWidth returns the shared length of rows.
func commonWidth(rows [][]float64, name string) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	width := len(rows[0])
	for i, row := range rows[1:] {
		if len(row) != width {
			return 0, errors.Wrapf(ErrValidation, "%s row %d has %d values, row 0 has %d",
				name, i+1, len(row), width)
		}
	}
	return width, nil
}

// longest returns the length of the longest row values.
func longest(rows []sample) int {
	n := 0
	for _, r := range rows {
		n = max(n, len(r.values))
	}
	return n
}
