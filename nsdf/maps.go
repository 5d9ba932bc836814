package nsdf

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nsdf/nsdf/container"
)

// Scale names and axis labels.
const (
	sourceScale = "source"
	timeScale   = "time"
)

// MapDataset is the stored list of source ids of one population, or of one
// population and variable for per-source layouts. Its order is the row
// order of every dataset written against it.
type MapDataset struct {
	ds         *container.Dataset
	sampling   Sampling
	population string
	variable   string
	sources    []string
	style      mapStyle
}

// Path returns the path of the map dataset in the file.
func (m *MapDataset) Path() string { return m.ds.Path() }

// Sampling returns the sampling regime the map belongs to.
func (m *MapDataset) Sampling() Sampling { return m.sampling }

// Population returns the population name.
func (m *MapDataset) Population() string { return m.population }

// Variable returns the variable name of a per-variable map, or "".
func (m *MapDataset) Variable() string { return m.variable }

// Sources returns the source ids in row order.
func (m *MapDataset) Sources() []string {
	return append([]string(nil), m.sources...)
}

// Len returns the number of sources.
func (m *MapDataset) Len() int { return len(m.sources) }

func mapGroupPath(s Sampling) string {
	return "/map/" + string(s)
}

func dataGroupPath(s Sampling, population string) string {
	return container.JoinPath("/data/"+string(s), population)
}

// timeGroup holds the auxiliary time datasets.
const timeGroup = "/map/time"

// timeName returns the name of a time dataset in timeGroup.
func timeName(parts ...string) string {
	return strings.Join(parts, "_")
}

// mapStyleFor returns the map shape used for a sampling regime.
func mapStyleFor(l layout, s Sampling) mapStyle {
	switch s {
	case Nonuniform:
		return l.nonuniformMaps()
	case Event:
		return l.eventMaps()
	}
	return flatMap
}

// readMap opens an existing map. variable is ignored for flat maps.
func readMap(f *container.File, l layout, s Sampling, population, variable string) (*MapDataset, error) {
	m := &MapDataset{
		sampling:   s,
		population: population,
		style:      mapStyleFor(l, s),
	}

	path := container.JoinPath(mapGroupPath(s), population)
	if m.style == recordMap {
		if variable == "" {
			return nil, errors.Wrapf(ErrValidation, "%s maps of %s files are per variable", s, l.Dialect())
		}
		m.variable = variable
		path = container.JoinPath(path, variable)
	}

	ds, err := f.OpenDataset(path)
	if err != nil {
		return nil, containerErr(err, "opening map %s", path)
	}
	m.ds = ds

	if m.style == recordMap {
		recs, err := ds.ReadRecords()
		if err != nil {
			return nil, errors.Wrapf(err, "reading map %s", path)
		}
		m.sources = make([]string, len(recs))
		for i, rec := range recs {
			m.sources[i] = rec.Source
		}
	} else {
		m.sources, err = ds.ReadStrings()
		if err != nil {
			return nil, errors.Wrapf(err, "reading map %s", path)
		}
	}
	return m, nil
}

// inMapOrder returns the payloads of d in the map's row order. The source
// sets of map and container must be equal.
func inMapOrder[T any](m *MapDataset, d *Data) ([]T, error) {
	if d.Len() != len(m.sources) {
		return nil, errors.Wrapf(ErrValidation, "%s has %d sources, map %s has %d",
			d.Name, d.Len(), m.Path(), len(m.sources))
	}
	out := make([]T, len(m.sources))
	for i, src := range m.sources {
		v, err := d.get(src)
		if err != nil {
			return nil, errors.Wrapf(ErrValidation, "map %s source %q has no data in %s",
				m.Path(), src, d.Name)
		}
		out[i] = v.(T)
	}
	return out, nil
}

// eventRows returns event times in map order, as sample values.
func eventRows(m *MapDataset, d *EventData) ([]sample, error) {
	times, err := inMapOrder[[]float64](m, &d.Data)
	if err != nil {
		return nil, err
	}
	rows := make([]sample, len(times))
	for i, t := range times {
		rows[i] = sample{values: t}
	}
	return rows, nil
}

// attachMap binds the map to axis 0 of ds, turning it into a dimension
// scale first if needed.
func attachMap(ds *container.Dataset, m *MapDataset) error {
	if !m.ds.IsScale() {
		if err := m.ds.MakeScale(sourceScale); err != nil {
			return errors.Wrapf(err, "making %s a scale", m.Path())
		}
	}
	if err := ds.AttachScale(0, m.ds); err != nil {
		return errors.Wrapf(err, "attaching %s to %s", m.Path(), ds.Path())
	}
	return ds.SetLabel(0, sourceScale)
}

// scaleNamed returns the first scale called name attached to an axis of
// ds, or nil.
func scaleNamed(ds *container.Dataset, axis int, name string) (*container.Dataset, error) {
	scales, err := ds.Scales(axis)
	if err != nil {
		return nil, err
	}
	for _, s := range scales {
		if n, err := s.ScaleName(); err == nil && n == name {
			return s, nil
		}
	}
	return nil, nil
}
