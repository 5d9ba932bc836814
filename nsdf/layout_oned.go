package nsdf

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nsdf/nsdf/container"
)

// oneDLayout stores nonuniform and event data as one 1-D dataset per
// source under /data/<sampling>/<population>/<variable>. Each nonuniform
// dataset has its own time scale in /map/time. The per-variable record
// map points at the datasets.
type oneDLayout struct {
	unsupported
}

func (oneDLayout) nonuniformMaps() mapStyle { return recordMap }
func (oneDLayout) eventMaps() mapStyle      { return recordMap }

func (oneDLayout) writeNonuniform(w *Writer, m *MapDataset, d *NonuniformData, fixed bool) error {
	rows, err := inMapOrder[sample](m, &d.Data)
	if err != nil {
		return err
	}
	return writePerSource(w, m, &d.Data, d.TUnit, rows, true, fixed)
}

func (oneDLayout) writeEvent(w *Writer, m *MapDataset, d *EventData, fixed bool) error {
	rows, err := eventRows(m, d)
	if err != nil {
		return err
	}
	return writePerSource(w, m, &d.Data, "", rows, false, fixed)
}

func (oneDLayout) readNonuniform(r *Reader, population, variable string) (*NonuniformData, error) {
	s, err := readPerSource(r, Nonuniform, population, variable, true)
	if err != nil {
		return nil, err
	}
	return s.nonuniform()
}

func (oneDLayout) readEvent(r *Reader, population, variable string) (*EventData, error) {
	s, err := readPerSource(r, Event, population, variable, false)
	if err != nil {
		return nil, err
	}
	return s.event()
}

// perSourceNames returns the dataset name of each source: the id itself,
// or every row index when any id cannot be used as a name.
func perSourceNames(ids []string) []string {
	names := make([]string, len(ids))
	for _, id := range ids {
		if strings.ContainsAny(id, "/.") || id == "" {
			for i := range names {
				names[i] = strconv.Itoa(i)
			}
			return names
		}
	}
	copy(names, ids)
	return names
}

// writePerSource writes rows as one dataset per map source, growing
// existing datasets. With withTimes each dataset gets a time scale.
func writePerSource(w *Writer, m *MapDataset, d *Data, tunit string, rows []sample, withTimes, fixed bool) error {
	if m.style != recordMap {
		return errors.Wrapf(ErrValidation, "map %s is not per variable", m.Path())
	}
	if d.Name != m.variable {
		return errors.Wrapf(ErrValidation, "map %s is for %s, not %s", m.Path(), m.variable, d.Name)
	}

	p := container.JoinPath(dataGroupPath(m.sampling, m.population), d.Name)
	g, err := w.f.OpenGroup(p)
	switch {
	case errors.Is(err, container.ErrNotFound):
		if d.Unit == "" || (withTimes && tunit == "") {
			return errors.Wrapf(ErrValidation, "%s needs unit and time unit", d.Name)
		}
		if g, err = w.f.Root().RequireGroup(p); err != nil {
			return containerErr(err, "creating %s", p)
		}
		for name, v := range map[string]any{
			attrSource: m.ds.Ref(),
			attrUnit:   d.Unit,
			attrField:  d.FieldName(),
		} {
			if err := g.SetAttr(name, v); err != nil {
				return containerErr(err, "writing %s of %s", name, p)
			}
		}
	case err != nil:
		return containerErr(err, "opening %s", p)
	}

	names := perSourceNames(m.sources)
	for _, name := range names {
		if !g.Has(name) {
			continue
		}
		ds, err := g.OpenDataset(name)
		if err != nil {
			return containerErr(err, "opening %s", name)
		}
		if err := checkGrowable(ds); err != nil {
			return err
		}
	}

	recs, err := m.ds.ReadRecords()
	if err != nil {
		return errors.Wrapf(err, "reading map %s", m.Path())
	}
	for i, row := range rows {
		name := names[i]
		tname := timeName(m.population, d.Name, name)

		if g.Has(name) {
			ds, err := g.OpenDataset(name)
			if err != nil {
				return containerErr(err, "opening %s", name)
			}
			if err := appendSeries(w, ds, row.values); err != nil {
				return err
			}
			if withTimes {
				tpath := container.JoinPath(timeGroup, tname)
				t, err := w.f.OpenDataset(tpath)
				if err != nil {
					return containerErr(err, "opening %s", tpath)
				}
				if err := appendSeries(w, t, row.times); err != nil {
					return err
				}
			}
			continue
		}

		ds, err := w.createSeries(g, name, d.class(), len(row.values), fixed,
			container.WithAttribute(attrUnit, d.Unit),
			container.WithAttribute(attrField, d.FieldName()),
			container.WithAttribute(attrSource, m.sources[i]))
		if err != nil {
			return err
		}
		if err := ds.WriteFloat64(0, 0, row.values); err != nil {
			return containerErr(err, "writing %s", ds.Path())
		}
		if withTimes {
			t, err := w.createTimeSeries(tname, len(row.times), tunit, fixed)
			if err != nil {
				return err
			}
			if err := t.WriteFloat64(0, 0, row.times); err != nil {
				return containerErr(err, "writing %s", t.Path())
			}
			if err := ds.AttachScale(0, t); err != nil {
				return errors.Wrapf(err, "attaching %s", t.Path())
			}
			if err := ds.SetLabel(0, timeScale); err != nil {
				return err
			}
		}
		recs[i].Ref = int64(ds.Ref())
	}
	if err := m.ds.WriteRecords(0, recs); err != nil {
		return errors.Wrapf(err, "updating map %s", m.Path())
	}
	return nil
}

// createTimeSeries creates a 1-D time scale in timeGroup.
func (w *Writer) createTimeSeries(name string, n int, tunit string, fixed bool) (*container.Dataset, error) {
	tg, err := w.f.OpenGroup(timeGroup)
	if err != nil {
		return nil, containerErr(err, "opening %s", timeGroup)
	}
	t, err := w.createSeries(tg, name, container.Float64, n, fixed,
		container.WithAttribute(attrUnit, tunit))
	if err != nil {
		return nil, err
	}
	if err := t.MakeScale(timeScale); err != nil {
		return nil, errors.Wrapf(err, "making %s a scale", t.Path())
	}
	return t, nil
}

// appendSeries appends vals to a 1-D dataset.
func appendSeries(w *Writer, ds *container.Dataset, vals []float64) error {
	start, err := w.growColumns(ds, len(vals))
	if err != nil {
		return err
	}
	if err := ds.WriteFloat64(0, start, vals); err != nil {
		return containerErr(err, "writing %s", ds.Path())
	}
	return nil
}

// readPerSource reads a variable stored one dataset per source, in the
// order of the record map referenced by the variable's group.
func readPerSource(r *Reader, s Sampling, population, variable string, withTimes bool) (*stored, error) {
	p := container.JoinPath(dataGroupPath(s, population), variable)
	g, err := r.f.OpenGroup(p)
	if err != nil {
		return nil, readErr(err, "opening %s", p)
	}

	st := &stored{name: variable, class: container.Float64}
	if st.unit, err = stringAttr(g, attrUnit); err != nil {
		return nil, readErr(err, "%s", p)
	}
	st.field, _ = optionalString(g, attrField)

	recs, err := perSourceRecords(r, g, s, population, variable)
	if err != nil {
		return nil, err
	}

	for i, rec := range recs {
		if rec.Ref == 0 {
			return nil, readErr(nil, "%s: source %q has no dataset", p, rec.Source)
		}
		obj, err := r.f.Deref(container.Ref(rec.Ref))
		if err != nil {
			return nil, readErr(err, "%s: source %q", p, rec.Source)
		}
		ds, ok := obj.(*container.Dataset)
		if !ok {
			return nil, readErr(nil, "%s: source %q refers to group %s", p, rec.Source, obj.Path())
		}
		if i == 0 {
			st.class = ds.Class()
		}

		row := sample{}
		if row.values, err = ds.ReadRowFloat64(0); err != nil {
			return nil, readErr(err, "reading %s", ds.Path())
		}
		if withTimes {
			t, err := scaleNamed(ds, 0, timeScale)
			if err != nil {
				return nil, readErr(err, "time scale of %s", ds.Path())
			}
			if t == nil {
				return nil, readErr(nil, "%s has no time scale", ds.Path())
			}
			if row.times, err = t.ReadRowFloat64(0); err != nil {
				return nil, readErr(err, "reading %s", t.Path())
			}
			if st.tunit == "" {
				st.tunit, _ = optionalString(t, attrUnit)
			}
		}
		st.sources = append(st.sources, rec.Source)
		st.rows = append(st.rows, row)
	}
	return st, nil
}

// perSourceRecords returns the record map of a per-source variable. The
// group's source reference is preferred; the conventional map path is the
// fallback.
func perSourceRecords(r *Reader, g *container.Group, s Sampling, population, variable string) ([]container.RecordValue, error) {
	var mapDs *container.Dataset
	if attr, err := g.Attr(attrSource); err == nil {
		ref, err := attr.ReadScalarRef()
		if err != nil {
			return nil, readErr(err, "source of %s", g.Path())
		}
		obj, err := r.f.Deref(ref)
		if err != nil {
			return nil, readErr(err, "source of %s", g.Path())
		}
		mapDs, _ = obj.(*container.Dataset)
	}
	if mapDs == nil {
		p := container.JoinPath(container.JoinPath(mapGroupPath(s), population), variable)
		ds, err := r.f.OpenDataset(p)
		if err != nil {
			return nil, readErr(err, "map of %s", g.Path())
		}
		mapDs = ds
	}

	recs, err := mapDs.ReadRecords()
	if err != nil {
		return nil, readErr(err, "reading map %s", mapDs.Path())
	}
	return recs, nil
}
