package nsdf

import (
	"github.com/pkg/errors"

	"github.com/nsdf/nsdf/container"
)

// sharedTimeLayout stores nonuniform data sampled at shared times as a
// regular 2-D dataset, a row per map source, with one 1-D time scale in
// /map/time attached to its columns. Events use the per-source layout of
// ONED files.
type sharedTimeLayout struct {
	unsupported
}

func (sharedTimeLayout) eventMaps() mapStyle { return recordMap }

func (sharedTimeLayout) writeNonuniformRegular(w *Writer, m *MapDataset, d *NonuniformRegularData, fixed bool) error {
	rows, err := inMapOrder[[]float64](m, &d.Data)
	if err != nil {
		return err
	}
	times := d.Times()

	g, ds, err := w.openData(Nonuniform, m.population, d.Name)
	if err != nil {
		return err
	}
	tname := timeName(m.population, d.Name)
	tpath := container.JoinPath(timeGroup, tname)

	if ds == nil {
		if d.Unit == "" || d.TUnit == "" {
			return errors.Wrapf(ErrValidation, "%s needs unit and tunit", d.Name)
		}
		ds, err = w.createGrid(g, d.Name, d.class(), len(rows), len(times), fixed,
			container.WithAttribute(attrUnit, d.Unit),
			container.WithAttribute(attrField, d.FieldName()))
		if err != nil {
			return err
		}
		if err := attachMap(ds, m); err != nil {
			return err
		}
		t, err := w.createTimeSeries(tname, len(times), d.TUnit, fixed)
		if err != nil {
			return err
		}
		if err := t.WriteFloat64(0, 0, times); err != nil {
			return containerErr(err, "writing %s", tpath)
		}
		if err := ds.AttachScale(1, t); err != nil {
			return errors.Wrapf(err, "attaching %s", tpath)
		}
		if err := ds.SetLabel(1, timeScale); err != nil {
			return err
		}
		return writeRows(ds, 0, rows)
	}

	t, err := w.f.OpenDataset(tpath)
	if err != nil {
		return containerErr(err, "opening %s", tpath)
	}
	start, err := w.growColumns(ds, len(times))
	if err != nil {
		return err
	}
	if err := appendSeries(w, t, times); err != nil {
		return err
	}
	return writeRows(ds, start, rows)
}

func (sharedTimeLayout) writeEvent(w *Writer, m *MapDataset, d *EventData, fixed bool) error {
	rows, err := eventRows(m, d)
	if err != nil {
		return err
	}
	return writePerSource(w, m, &d.Data, "", rows, false, fixed)
}

func (l sharedTimeLayout) readNonuniformRegular(r *Reader, population, variable string) (*NonuniformRegularData, error) {
	ds, st, err := r.openStored(Nonuniform, population, variable)
	if err != nil {
		return nil, err
	}
	if ds.IsRagged() || ds.Rank() != 2 {
		return nil, readErr(nil, "%s is not a 2-D dataset", ds.Path())
	}

	t, err := r.timeScale(ds, 1, timeName(population, variable))
	if err != nil {
		return nil, err
	}
	times, err := t.ReadRowFloat64(0)
	if err != nil {
		return nil, readErr(err, "reading %s", t.Path())
	}
	tunit, _ := optionalString(t, attrUnit)

	rows, err := ds.ReadAllFloat64()
	if err != nil {
		return nil, readErr(err, "reading %s", ds.Path())
	}

	out := NewNonuniformRegularData(st.name, st.unit, tunit)
	out.Field = st.field
	out.DType = st.class
	if err := out.SetTimes(times, ""); err != nil {
		return nil, readErr(err, "%s", ds.Path())
	}
	for i, src := range st.sources {
		if err := out.Put(src, rows[i]); err != nil {
			return nil, readErr(err, "%s", ds.Path())
		}
	}
	return out, nil
}

// readNonuniform expands shared times into per-source times.
func (l sharedTimeLayout) readNonuniform(r *Reader, population, variable string) (*NonuniformData, error) {
	reg, err := l.readNonuniformRegular(r, population, variable)
	if err != nil {
		return nil, err
	}
	out := NewNonuniformData(reg.Name, reg.Unit, reg.TUnit)
	out.Field = reg.Field
	out.DType = reg.DType
	times := reg.Times()
	for _, src := range reg.Sources() {
		vals, _ := reg.Get(src)
		if err := out.Put(src, vals, times); err != nil {
			return nil, readErr(err, "%s", reg.Name)
		}
	}
	return out, nil
}

func (sharedTimeLayout) readEvent(r *Reader, population, variable string) (*EventData, error) {
	s, err := readPerSource(r, Event, population, variable, false)
	if err != nil {
		return nil, err
	}
	return s.event()
}
