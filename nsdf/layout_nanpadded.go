package nsdf

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nsdf/nsdf/container"
	"github.com/nsdf/nsdf/internal/nanscan"
)

// nanPaddedLayout stores nonuniform and event data as a 2-D dataset per
// variable, a row per map source. Each row holds its values from column 0
// and NaN after them. Nonuniform times go in a parallel dataset of the
// same shape in /map/time.
type nanPaddedLayout struct {
	unsupported
}

func (nanPaddedLayout) writeNonuniform(w *Writer, m *MapDataset, d *NonuniformData, fixed bool) error {
	rows, err := inMapOrder[sample](m, &d.Data)
	if err != nil {
		return err
	}
	return writePadded(w, m, &d.Data, d.TUnit, rows, true, fixed)
}

func (nanPaddedLayout) writeEvent(w *Writer, m *MapDataset, d *EventData, fixed bool) error {
	rows, err := eventRows(m, d)
	if err != nil {
		return err
	}
	return writePadded(w, m, &d.Data, "", rows, false, fixed)
}

func (nanPaddedLayout) readNonuniform(r *Reader, population, variable string) (*NonuniformData, error) {
	s, err := readPadded(r, Nonuniform, population, variable, true)
	if err != nil {
		return nil, err
	}
	return s.nonuniform()
}

func (nanPaddedLayout) readEvent(r *Reader, population, variable string) (*EventData, error) {
	s, err := readPadded(r, Event, population, variable, false)
	if err != nil {
		return nil, err
	}
	return s.event()
}

// writePadded writes each row after the current run of its map row. The
// datasets are widened to the longest run after the append.
func writePadded(w *Writer, m *MapDataset, d *Data, tunit string, rows []sample, withTimes, fixed bool) error {
	if !d.class().IsFloat() {
		return errors.Wrapf(ErrValidation, "%s is %s; NaN padding needs floats", d.Name, d.class())
	}
	for i, row := range rows {
		if nanscan.HasNaN(row.values) || nanscan.HasNaN(row.times) {
			return errors.Wrapf(ErrValidation, "%s source %q holds NaN", d.Name, m.sources[i])
		}
	}

	g, ds, err := w.openData(m.sampling, m.population, d.Name)
	if err != nil {
		return err
	}
	tname := timeName(m.population, d.Name)
	tpath := container.JoinPath(timeGroup, tname)

	var t *container.Dataset
	starts := make([]int, len(rows))
	if ds == nil {
		if d.Unit == "" || (withTimes && tunit == "") {
			return errors.Wrapf(ErrValidation, "%s needs unit and time unit", d.Name)
		}
		width := longest(rows)
		ds, err = w.createGrid(g, d.Name, d.class(), len(rows), width, fixed,
			container.WithFillValue(math.NaN()),
			container.WithAttribute(attrUnit, d.Unit),
			container.WithAttribute(attrField, d.FieldName()))
		if err != nil {
			return err
		}
		if err := attachMap(ds, m); err != nil {
			return err
		}

		if withTimes {
			tg, err := w.f.OpenGroup(timeGroup)
			if err != nil {
				return containerErr(err, "opening %s", timeGroup)
			}
			t, err = w.createGrid(tg, tname, container.Float64, len(rows), width, fixed,
				container.WithFillValue(math.NaN()),
				container.WithAttribute(attrUnit, tunit))
			if err != nil {
				return err
			}
			if err := t.MakeScale(timeScale); err != nil {
				return errors.Wrapf(err, "making %s a scale", tpath)
			}
			if err := ds.AttachScale(1, t); err != nil {
				return errors.Wrapf(err, "attaching %s", tpath)
			}
			if err := ds.SetLabel(1, timeScale); err != nil {
				return err
			}
		}
	} else {
		if err := checkGrowable(ds); err != nil {
			return err
		}
		if withTimes {
			if t, err = w.f.OpenDataset(tpath); err != nil {
				return containerErr(err, "opening %s", tpath)
			}
		}

		cols := int(ds.Shape()[1])
		starts, err = nanscan.RunLengths(len(rows), cols, w.opts.scanChunk, ds.ReadFloat64)
		if err != nil {
			return errors.Wrapf(err, "scanning %s", ds.Path())
		}
		need := 0
		for i, row := range rows {
			need = max(need, starts[i]+len(row.values))
		}
		if err := w.resizeColumns(ds, need); err != nil {
			return err
		}
		if withTimes {
			if err := w.resizeColumns(t, need); err != nil {
				return err
			}
		}
	}

	for i, row := range rows {
		if err := ds.WriteFloat64(i, starts[i], row.values); err != nil {
			return containerErr(err, "writing row %d of %s", i, ds.Path())
		}
		if withTimes {
			if err := t.WriteFloat64(i, starts[i], row.times); err != nil {
				return containerErr(err, "writing row %d of %s", i, tpath)
			}
		}
	}
	return nil
}

// readPadded reads each row up to its first NaN.
func readPadded(r *Reader, s Sampling, population, variable string, withTimes bool) (*stored, error) {
	ds, st, err := r.openStored(s, population, variable)
	if err != nil {
		return nil, err
	}
	if ds.IsRagged() || ds.Rank() != 2 {
		return nil, readErr(nil, "%s is not a 2-D dataset", ds.Path())
	}

	var t *container.Dataset
	if withTimes {
		if t, err = r.timeScale(ds, 1, timeName(population, variable)); err != nil {
			return nil, err
		}
		st.tunit, _ = optionalString(t, attrUnit)
	}

	cols := int(ds.Shape()[1])
	lens, err := nanscan.RunLengths(len(st.sources), cols, r.opts.scanChunk, ds.ReadFloat64)
	if err != nil {
		return nil, readErr(err, "scanning %s", ds.Path())
	}

	st.rows = make([]sample, len(st.sources))
	for i, n := range lens {
		if st.rows[i].values, err = ds.ReadFloat64(i, 0, n); err != nil {
			return nil, readErr(err, "reading row %d of %s", i, ds.Path())
		}
		if withTimes {
			if st.rows[i].times, err = t.ReadFloat64(i, 0, n); err != nil {
				return nil, readErr(err, "reading row %d of %s", i, t.Path())
			}
		}
	}
	return st, nil
}
