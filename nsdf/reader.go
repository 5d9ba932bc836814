package nsdf

import (
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nsdf/nsdf/container"
	"github.com/nsdf/nsdf/model"
)

// Reader reads an NSDF file. Every error it returns wraps ErrRead.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	f      *container.File
	layout layout
	opts   *options
	logger *zap.Logger
	closed bool
}

// Open opens the file at path for reading and selects the layout named by
// its dialect attribute.
func Open(path string, opts ...Option) (*Reader, error) {
	o := buildOptions(opts)

	f, err := container.Open(path)
	if err != nil {
		return nil, readErr(err, "opening %s", path)
	}
	d, err := storedDialect(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	l, err := layoutFor(d)
	if err != nil {
		f.Close()
		return nil, readErr(err, "%s", path)
	}

	o.logger.Debug("opened file", zap.String("path", path), zap.String("dialect", string(d)))
	return &Reader{f: f, layout: l, opts: o, logger: o.logger}, nil
}

// Close closes the file. Closing twice is a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.f.Close()
}

func (r *Reader) checkOpen() error {
	if r.closed {
		return readErr(ErrClosed, "reader")
	}
	return nil
}

// Dialect returns the dialect stored in the file.
func (r *Reader) Dialect() Dialect {
	return r.layout.Dialect()
}

// Populations returns the populations with data of sampling s, in name
// order.
func (r *Reader) Populations(s Sampling) ([]string, error) {
	return r.members("/data/" + string(s))
}

// Variables returns the variables stored for a population, in name order.
func (r *Reader) Variables(s Sampling, population string) ([]string, error) {
	return r.members(dataGroupPath(s, population))
}

func (r *Reader) members(p string) ([]string, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	g, err := r.f.OpenGroup(p)
	if err != nil {
		return nil, readErr(err, "opening %s", p)
	}
	names, err := g.Members()
	if err != nil {
		return nil, readErr(err, "listing %s", p)
	}
	return names, nil
}

// UniformData reads a uniformly sampled variable. The sampling interval
// comes from the dt and tstart attributes or, when they are absent, from
// the time scale on the sample axis.
func (r *Reader) UniformData(population, variable string) (*UniformData, error) {
	ds, st, err := r.openStored(Uniform, population, variable)
	if err != nil {
		return nil, err
	}
	dt, tstart, tunit, err := r.sampling(ds)
	if err != nil {
		return nil, err
	}

	rows, err := ds.ReadAllFloat64()
	if err != nil {
		return nil, readErr(err, "reading %s", ds.Path())
	}
	u := NewUniformData(st.name, st.unit, dt, tunit)
	u.Field = st.field
	u.DType = st.class
	u.TStart = tstart
	for i, src := range st.sources {
		u.Put(src, rows[i])
	}
	return u, nil
}

// UniformDt returns the sampling interval of a uniform variable and its
// unit.
func (r *Reader) UniformDt(population, variable string) (float64, string, error) {
	ds, _, err := r.openStored(Uniform, population, variable)
	if err != nil {
		return 0, "", err
	}
	dt, _, tunit, err := r.sampling(ds)
	return dt, tunit, err
}

// UniformTimes returns the sampling times of a uniform variable: the
// attached time scale if there is one, else tstart + i*dt for every
// column.
func (r *Reader) UniformTimes(population, variable string) ([]float64, error) {
	ds, _, err := r.openStored(Uniform, population, variable)
	if err != nil {
		return nil, err
	}
	t, err := scaleNamed(ds, 1, timeScale)
	if err != nil {
		return nil, readErr(err, "time scale of %s", ds.Path())
	}
	if t != nil {
		times, err := t.ReadRowFloat64(0)
		if err != nil {
			return nil, readErr(err, "reading %s", t.Path())
		}
		return times, nil
	}

	dt, tstart, _, err := r.sampling(ds)
	if err != nil {
		return nil, err
	}
	times := make([]float64, ds.Shape()[1])
	for i := range times {
		times[i] = tstart + float64(i)*dt
	}
	return times, nil
}

// sampling returns dt, tstart and the time unit of a uniform dataset.
func (r *Reader) sampling(ds *container.Dataset) (dt, tstart float64, tunit string, err error) {
	if ds.HasAttr(attrDt) {
		if dt, err = floatAttr(ds, attrDt); err != nil {
			return 0, 0, "", readErr(err, "%s", ds.Path())
		}
		if ds.HasAttr(attrTStart) {
			if tstart, err = floatAttr(ds, attrTStart); err != nil {
				return 0, 0, "", readErr(err, "%s", ds.Path())
			}
		}
		if tunit, err = stringAttr(ds, attrTUnit); err != nil {
			return 0, 0, "", readErr(err, "%s", ds.Path())
		}
		return dt, tstart, tunit, nil
	}

	t, err := scaleNamed(ds, 1, timeScale)
	if err != nil {
		return 0, 0, "", readErr(err, "time scale of %s", ds.Path())
	}
	if t == nil {
		return 0, 0, "", readErr(nil, "%s has neither dt nor a time scale", ds.Path())
	}
	times, err := t.ReadRowFloat64(0)
	if err != nil {
		return 0, 0, "", readErr(err, "reading %s", t.Path())
	}
	if len(times) > 0 {
		tstart = times[0]
	}
	if len(times) > 1 {
		dt = times[1] - times[0]
	}
	tunit, _ = optionalString(t, attrUnit)
	return dt, tstart, tunit, nil
}

// StaticData reads a static variable.
func (r *Reader) StaticData(population, variable string) (*StaticData, error) {
	ds, st, err := r.openStored(Static, population, variable)
	if err != nil {
		return nil, err
	}
	rows, err := ds.ReadAllFloat64()
	if err != nil {
		return nil, readErr(err, "reading %s", ds.Path())
	}
	out := NewStaticData(st.name, st.unit)
	out.Field = st.field
	out.DType = st.class
	for i, src := range st.sources {
		if err := out.Put(src, rows[i]); err != nil {
			return nil, readErr(err, "%s", ds.Path())
		}
	}
	return out, nil
}

// NonuniformData reads a variable sampled at per-source times. NUREGULAR
// files return their shared times for every source.
func (r *Reader) NonuniformData(population, variable string) (*NonuniformData, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.layout.readNonuniform(r, population, variable)
}

// NonuniformRegularData reads a variable sampled at shared times from a
// NUREGULAR file.
func (r *Reader) NonuniformRegularData(population, variable string) (*NonuniformRegularData, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.layout.readNonuniformRegular(r, population, variable)
}

// EventData reads event times.
func (r *Reader) EventData(population, variable string) (*EventData, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.layout.readEvent(r, population, variable)
}

// Properties reads the provenance attributes. Missing fields are zero.
func (r *Reader) Properties() (*Properties, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	root := r.f.Root()
	p := &Properties{}
	var err error

	p.Title, _ = optionalString(root, attrTitle)
	p.Description, _ = optionalString(root, attrDescription)
	p.Rights, _ = optionalString(root, attrRights)
	p.License, _ = optionalString(root, attrLicense)
	for name, dst := range map[string]*[]string{
		attrCreator:     &p.Creator,
		attrSoftware:    &p.Software,
		attrMethod:      &p.Method,
		attrContributor: &p.Contributor,
	} {
		if !root.HasAttr(name) {
			continue
		}
		attr, err := root.Attr(name)
		if err != nil {
			return nil, readErr(err, "attribute %s", name)
		}
		if *dst, err = attr.ReadString(); err != nil {
			return nil, readErr(err, "attribute %s", name)
		}
	}
	for name, dst := range map[string]*time.Time{attrTStart: &p.TStart, attrTEnd: &p.TEnd} {
		s, ok := optionalString(root, name)
		if !ok {
			continue
		}
		if *dst, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return nil, readErr(err, "attribute %s", name)
		}
	}
	return p, nil
}

// ModelTree rebuilds the stored model tree. The root is the file's
// modeltree component.
func (r *Reader) ModelTree() (*model.Component, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return loadModelTree(r.f)
}

// ModelLinks returns the paths of the model groups a map is linked to.
func (r *Reader) ModelLinks(mapPath string) ([]string, error) {
	return r.links(mapPath, linkModelAttr)
}

// LinkedMaps returns the paths of the maps linked to a model group.
func (r *Reader) LinkedMaps(modelPath string) ([]string, error) {
	return r.links(modelPath, linkMapAttr)
}

func (r *Reader) links(p, name string) ([]string, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	obj, err := r.f.OpenObject(p)
	if err != nil {
		return nil, readErr(err, "opening %s", p)
	}
	if !obj.HasAttr(name) {
		return nil, nil
	}
	attr, err := obj.Attr(name)
	if err != nil {
		return nil, readErr(err, "%s of %s", name, p)
	}
	refs, err := attr.ReadRefs()
	if err != nil {
		return nil, readErr(err, "%s of %s", name, p)
	}
	out := make([]string, len(refs))
	for i, ref := range refs {
		target, err := r.f.Deref(ref)
		if err != nil {
			return nil, readErr(err, "%s of %s", name, p)
		}
		out[i] = target.Path()
	}
	return out, nil
}

// Row is one source's samples found by UniformRow.
type Row struct {
	// Dataset is the path of the dataset holding the row.
	Dataset string
	Values  []float64
	Unit    string
	Dt      float64
	TStart  float64
	TUnit   string
}

// UniformRow finds the uniform samples of field recorded from source uid,
// searching every uniform map and the datasets attached to it.
func (r *Reader) UniformRow(uid, field string) (*Row, error) {
	pops, err := r.Populations(Uniform)
	if err != nil {
		return nil, err
	}
	for _, pop := range pops {
		mp := container.JoinPath(mapGroupPath(Uniform), pop)
		m, err := r.f.OpenDataset(mp)
		if errors.Is(err, container.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, readErr(err, "opening %s", mp)
		}
		ids, err := m.ReadStrings()
		if err != nil {
			return nil, readErr(err, "reading %s", mp)
		}
		idx := slices.Index(ids, uid)
		if idx < 0 {
			continue
		}

		attached, err := m.AttachedTo()
		if err != nil {
			return nil, readErr(err, "datasets of %s", mp)
		}
		for _, a := range attached {
			ds := a.Dataset
			if a.Axis != 0 || ds.IsRagged() || ds.Rank() != 2 {
				continue
			}
			got, ok := optionalString(ds, attrField)
			if !ok {
				got = ds.Name()
			}
			if got != field {
				continue
			}

			row := &Row{Dataset: ds.Path()}
			if row.Values, err = ds.ReadRowFloat64(idx); err != nil {
				return nil, readErr(err, "reading %s", ds.Path())
			}
			row.Unit, _ = optionalString(ds, attrUnit)
			if row.Dt, row.TStart, row.TUnit, err = r.sampling(ds); err != nil {
				return nil, err
			}
			return row, nil
		}
	}
	return nil, readErr(ErrNotFound, "no uniform %s recorded from %q", field, uid)
}

// ModelFiles returns the paths, relative to the embedded base directory,
// of the stored model files.
func (r *Reader) ModelFiles() ([]string, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	g, err := r.f.OpenGroup(fileContentsGroup)
	if errors.Is(err, container.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, readErr(err, "opening %s", fileContentsGroup)
	}

	var files []string
	err = container.Walk(g, func(p string, obj container.Object, err error) error {
		if err != nil {
			return err
		}
		if _, ok := obj.(*container.Dataset); ok {
			files = append(files, strings.TrimPrefix(p, fileContentsGroup+"/"))
		}
		return nil
	})
	if err != nil {
		return nil, readErr(err, "listing %s", fileContentsGroup)
	}
	return files, nil
}

// ModelFile returns the contents of a stored model file.
func (r *Reader) ModelFile(name string) ([]byte, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	p := container.JoinPath(fileContentsGroup, strings.TrimPrefix(name, "/"))
	ds, err := r.f.OpenDataset(p)
	if err != nil {
		return nil, readErr(err, "opening %s", p)
	}
	b, err := ds.ReadBytes()
	if err != nil {
		return nil, readErr(err, "reading %s", p)
	}
	return b, nil
}

// stored is a variable read back from disk, rows in map order.
type stored struct {
	name    string
	unit    string
	field   string
	tunit   string
	class   container.Class
	sources []string
	rows    []sample
}

// openStored opens the dataset of a variable stored one row per source and
// reads its metadata and map.
func (r *Reader) openStored(s Sampling, population, variable string) (*container.Dataset, *stored, error) {
	if err := r.checkOpen(); err != nil {
		return nil, nil, err
	}
	p := container.JoinPath(dataGroupPath(s, population), variable)
	ds, err := r.f.OpenDataset(p)
	if err != nil {
		return nil, nil, readErr(err, "opening %s", p)
	}

	st := &stored{name: variable, class: ds.Class()}
	if st.unit, err = stringAttr(ds, attrUnit); err != nil {
		return nil, nil, readErr(err, "%s", p)
	}
	st.field, _ = optionalString(ds, attrField)

	m, err := scaleNamed(ds, 0, sourceScale)
	if err != nil {
		return nil, nil, readErr(err, "map of %s", p)
	}
	if m == nil {
		mp := container.JoinPath(mapGroupPath(s), population)
		if m, err = r.f.OpenDataset(mp); err != nil {
			return nil, nil, readErr(err, "map of %s", p)
		}
	}
	if st.sources, err = m.ReadStrings(); err != nil {
		return nil, nil, readErr(err, "reading map %s", m.Path())
	}
	if rows := ds.Shape()[0]; uint64(len(st.sources)) != rows {
		return nil, nil, readErr(nil, "%s has %d rows, map %s has %d sources",
			p, rows, m.Path(), len(st.sources))
	}
	return ds, st, nil
}

// timeScale returns the time scale on one axis of ds, falling back to the
// dataset called name in the time group.
func (r *Reader) timeScale(ds *container.Dataset, axis int, name string) (*container.Dataset, error) {
	t, err := scaleNamed(ds, axis, timeScale)
	if err != nil {
		return nil, readErr(err, "time scale of %s", ds.Path())
	}
	if t != nil {
		return t, nil
	}
	p := container.JoinPath(timeGroup, name)
	if t, err = r.f.OpenDataset(p); err != nil {
		return nil, readErr(err, "time of %s", ds.Path())
	}
	return t, nil
}

func (s *stored) nonuniform() (*NonuniformData, error) {
	out := NewNonuniformData(s.name, s.unit, s.tunit)
	out.Field = s.field
	out.DType = s.class
	for i, src := range s.sources {
		if err := out.Put(src, s.rows[i].values, s.rows[i].times); err != nil {
			return nil, readErr(err, "%s", s.name)
		}
	}
	return out, nil
}

func (s *stored) event() (*EventData, error) {
	out := NewEventData(s.name, s.unit)
	out.Field = s.field
	out.DType = s.class
	for i, src := range s.sources {
		out.Put(src, s.rows[i].values)
	}
	return out, nil
}

// stringAttr reads a required scalar string attribute.
func stringAttr(obj container.Object, name string) (string, error) {
	attr, err := obj.Attr(name)
	if err != nil {
		return "", errors.Wrapf(err, "attribute %s", name)
	}
	v, err := attr.ReadScalarString()
	if err != nil {
		return "", errors.Wrapf(err, "attribute %s", name)
	}
	return v, nil
}

// optionalString reads a scalar string attribute, reporting whether it was
// present and well formed.
func optionalString(obj container.Object, name string) (string, bool) {
	v, err := stringAttr(obj, name)
	return v, err == nil
}

func floatAttr(obj container.Object, name string) (float64, error) {
	attr, err := obj.Attr(name)
	if err != nil {
		return 0, errors.Wrapf(err, "attribute %s", name)
	}
	v, err := attr.ReadScalarFloat64()
	if err != nil {
		return 0, errors.Wrapf(err, "attribute %s", name)
	}
	return v, nil
}
