package nsdf

import (
	"github.com/pkg/errors"

	"github.com/nsdf/nsdf/container"
)

// vlenLayout stores nonuniform and event data as one ragged dataset per
// variable, a row per map source. Nonuniform times go in a parallel
// ragged dataset in /map/time.
type vlenLayout struct {
	unsupported
}

func (vlenLayout) writeNonuniform(w *Writer, m *MapDataset, d *NonuniformData, fixed bool) error {
	rows, err := inMapOrder[sample](m, &d.Data)
	if err != nil {
		return err
	}
	return writeRagged(w, m, &d.Data, d.TUnit, rows, true, fixed)
}

func (vlenLayout) writeEvent(w *Writer, m *MapDataset, d *EventData, fixed bool) error {
	rows, err := eventRows(m, d)
	if err != nil {
		return err
	}
	return writeRagged(w, m, &d.Data, "", rows, false, fixed)
}

func (vlenLayout) readNonuniform(r *Reader, population, variable string) (*NonuniformData, error) {
	s, err := readRagged(r, Nonuniform, population, variable, true)
	if err != nil {
		return nil, err
	}
	return s.nonuniform()
}

func (vlenLayout) readEvent(r *Reader, population, variable string) (*EventData, error) {
	s, err := readRagged(r, Event, population, variable, false)
	if err != nil {
		return nil, err
	}
	return s.event()
}

// writeRagged appends each row to the matching row of a ragged dataset,
// creating it on first use. A fixed dataset bounds rows to the longest
// row of this call.
func writeRagged(w *Writer, m *MapDataset, d *Data, tunit string, rows []sample, withTimes, fixed bool) error {
	g, ds, err := w.openData(m.sampling, m.population, d.Name)
	if err != nil {
		return err
	}
	tname := timeName(m.population, d.Name)
	tpath := container.JoinPath(timeGroup, tname)

	var t *container.Dataset
	if ds == nil {
		if d.Unit == "" || (withTimes && tunit == "") {
			return errors.Wrapf(ErrValidation, "%s needs unit and time unit", d.Name)
		}
		maxLen := container.Unlimited
		if fixed {
			maxLen = uint64(longest(rows))
		}
		n := uint64(len(rows))

		ds, err = g.CreateRaggedDataset(d.Name, d.class(), n, w.opts.datasetOptions(
			container.WithMaxDims(n, maxLen),
			container.WithAttribute(attrUnit, d.Unit),
			container.WithAttribute(attrField, d.FieldName()))...)
		if err != nil {
			return containerErr(err, "creating %s", d.Name)
		}
		if err := attachMap(ds, m); err != nil {
			return err
		}

		if withTimes {
			tg, err := w.f.OpenGroup(timeGroup)
			if err != nil {
				return containerErr(err, "opening %s", timeGroup)
			}
			t, err = tg.CreateRaggedDataset(tname, container.Float64, n, w.opts.datasetOptions(
				container.WithMaxDims(n, maxLen),
				container.WithAttribute(attrUnit, tunit))...)
			if err != nil {
				return containerErr(err, "creating %s", tpath)
			}
			if err := t.MakeScale(timeScale); err != nil {
				return errors.Wrapf(err, "making %s a scale", tpath)
			}
			if err := ds.AttachScale(0, t); err != nil {
				return errors.Wrapf(err, "attaching %s", tpath)
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
	}

	for i, row := range rows {
		if err := ds.AppendRow(i, row.values); err != nil {
			return containerErr(err, "appending to row %d of %s", i, ds.Path())
		}
		if withTimes {
			if err := t.AppendRow(i, row.times); err != nil {
				return containerErr(err, "appending to row %d of %s", i, tpath)
			}
		}
	}
	return nil
}

// readRagged reads a ragged variable row by row, in map order.
func readRagged(r *Reader, s Sampling, population, variable string, withTimes bool) (*stored, error) {
	ds, st, err := r.openStored(s, population, variable)
	if err != nil {
		return nil, err
	}
	if !ds.IsRagged() {
		return nil, readErr(nil, "%s is not ragged", ds.Path())
	}

	var t *container.Dataset
	if withTimes {
		if t, err = r.timeScale(ds, 0, timeName(population, variable)); err != nil {
			return nil, err
		}
		st.tunit, _ = optionalString(t, attrUnit)
	}

	st.rows = make([]sample, len(st.sources))
	for i := range st.sources {
		if st.rows[i].values, err = ds.ReadRow(i); err != nil {
			return nil, readErr(err, "reading row %d of %s", i, ds.Path())
		}
		if withTimes {
			if st.rows[i].times, err = t.ReadRow(i); err != nil {
				return nil, readErr(err, "reading row %d of %s", i, t.Path())
			}
		}
	}
	return st, nil
}
