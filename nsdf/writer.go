package nsdf

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nsdf/nsdf/container"
	"github.com/nsdf/nsdf/model"
)

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// modelRootName names the root component of every file's model tree.
const modelRootName = "modeltree"

// Writer writes one NSDF file. The dialect is fixed when the file is
// created.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	f        *container.File
	layout   layout
	opts     *options
	logger   *zap.Logger
	tree     *model.Tree
	props    Properties
	warnings []Warning
	closed   bool
}

// Create creates a new file at path, replacing any existing file, and
// lays out the top-level groups.
func Create(path string, dialect Dialect, opts ...Option) (*Writer, error) {
	l, err := layoutFor(dialect)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	f, err := container.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}

	w := newWriter(f, l, o, model.NewComponent(modelRootName, ""))
	if err := f.Atomic(w.init); err != nil {
		f.Close()
		return nil, err
	}
	w.logger.Debug("created file", zap.String("path", path), zap.String("dialect", string(dialect)))
	return w, nil
}

// OpenAppend opens an existing file for further writes. The file's stored
// dialect must be dialect. The model tree is loaded from the file so new
// maps link against it.
func OpenAppend(path string, dialect Dialect, opts ...Option) (*Writer, error) {
	l, err := layoutFor(dialect)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	f, err := container.OpenReadWrite(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	stored, err := storedDialect(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if stored != dialect {
		f.Close()
		return nil, errors.Wrapf(ErrDialect, "%s is %s, not %s", path, stored, dialect)
	}

	root, err := loadModelTree(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return newWriter(f, l, o, root), nil
}

func newWriter(f *container.File, l layout, o *options, root *model.Component) *Writer {
	return &Writer{
		f:      f,
		layout: l,
		opts:   o,
		logger: o.logger,
		tree:   model.NewTree(root, model.WithLogger(o.logger)),
	}
}

// init writes the file attributes and the fixed group hierarchy.
func (w *Writer) init() error {
	root := w.f.Root()
	attrs := []struct {
		name  string
		value any
	}{
		{attrDialect, string(w.layout.Dialect())},
		{attrVersion, FormatVersion},
		{attrCreated, time.Now().UTC().Format(time.RFC3339)},
		{attrID, uuid.NewString()},
	}
	for _, a := range attrs {
		if err := root.SetAttr(a.name, a.value); err != nil {
			return errors.Wrapf(err, "writing attribute %s", a.name)
		}
	}

	groups := []string{"data", "model", "map", "map/time", "model/" + modelRootName}
	for _, s := range Samplings {
		groups = append(groups, "data/"+string(s), "map/"+string(s))
	}
	for _, g := range groups {
		if _, err := root.RequireGroup(g); err != nil {
			return errors.Wrapf(err, "creating group %s", g)
		}
	}

	mt, err := w.f.OpenGroup("/model/" + modelRootName)
	if err != nil {
		return err
	}
	return mt.SetAttr("uid", w.tree.Root().UID)
}

// storedDialect reads the dialect attribute of the root group.
func storedDialect(f *container.File) (Dialect, error) {
	attr, err := f.Root().Attr(attrDialect)
	if err != nil {
		return "", readErr(err, "reading dialect")
	}
	tag, err := attr.ReadScalarString()
	if err != nil {
		return "", readErr(err, "reading dialect")
	}
	d, err := ParseDialect(tag)
	if err != nil {
		return "", readErr(err, "reading dialect")
	}
	return d, nil
}

// Dialect returns the dialect of the file.
func (w *Writer) Dialect() Dialect {
	return w.layout.Dialect()
}

// Path returns the file path.
func (w *Writer) Path() string {
	return w.f.Path()
}

// Warnings returns the warnings collected so far.
func (w *Writer) Warnings() []Warning {
	return slices.Clone(w.warnings)
}

func (w *Writer) warn(wn Warning) {
	w.logger.Warn(wn.Message, wn.fields()...)
	w.warnings = append(w.warnings, wn)
}

// Close writes the pending provenance attributes and closes the file.
// Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	attrs := w.props.attrs()
	err := w.f.Atomic(func() error {
		root := w.f.Root()
		for _, name := range sortedKeys(attrs) {
			if err := root.SetAttr(name, attrs[name]); err != nil {
				return errors.Wrapf(err, "writing attribute %s", name)
			}
		}
		return nil
	})
	if cerr := w.f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, "closing file")
	}
	return err
}

func (w *Writer) checkOpen() error {
	if w.closed {
		return ErrClosed
	}
	return nil
}

// atomic runs fn in one container transaction.
func (w *Writer) atomic(fn func() error) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	return w.f.Atomic(fn)
}

// SetTitle sets the title attribute.
func (w *Writer) SetTitle(title string) { w.props.Title = title }

// SetCreator sets the creator list.
func (w *Writer) SetCreator(names ...string) { w.props.Creator = slices.Clone(names) }

// SetSoftware sets the software list.
func (w *Writer) SetSoftware(names ...string) { w.props.Software = slices.Clone(names) }

// SetMethod sets the method list.
func (w *Writer) SetMethod(names ...string) { w.props.Method = slices.Clone(names) }

// SetDescription sets the description attribute.
func (w *Writer) SetDescription(text string) { w.props.Description = text }

// SetRights sets the rights attribute.
func (w *Writer) SetRights(text string) { w.props.Rights = text }

// SetLicense sets the license attribute.
func (w *Writer) SetLicense(text string) { w.props.License = text }

// SetTStart sets the start time of the recorded simulation or experiment.
func (w *Writer) SetTStart(t time.Time) { w.props.TStart = t }

// SetTEnd sets the end time of the recorded simulation or experiment.
func (w *Writer) SetTEnd(t time.Time) { w.props.TEnd = t }

// SetContributor sets the contributor list.
func (w *Writer) SetContributor(names ...string) { w.props.Contributor = slices.Clone(names) }

// SetProperties replaces all provenance fields at once, typically with
// the result of LoadProperties.
func (w *Writer) SetProperties(p Properties) {
	p.Creator = slices.Clone(p.Creator)
	p.Software = slices.Clone(p.Software)
	p.Method = slices.Clone(p.Method)
	p.Contributor = slices.Clone(p.Contributor)
	w.props = p
}

// AddUniformMap stores the source ids of a population of uniformly
// sampled data.
func (w *Writer) AddUniformMap(population string, ids []string) (*MapDataset, error) {
	return w.addMap(Uniform, flatMap, population, "", ids)
}

// AddStaticMap stores the source ids of a population of static data.
func (w *Writer) AddStaticMap(population string, ids []string) (*MapDataset, error) {
	return w.addMap(Static, flatMap, population, "", ids)
}

// AddNonuniformMap stores the source ids of a population of nonuniformly
// sampled data. ONED files use AddNonuniformMap1D instead.
func (w *Writer) AddNonuniformMap(population string, ids []string) (*MapDataset, error) {
	return w.addMap(Nonuniform, flatMap, population, "", ids)
}

// AddNonuniformMap1D stores the source ids of one nonuniform variable of
// a population in ONED files. The map is a table of (source, dataset)
// records filled in as data is written.
func (w *Writer) AddNonuniformMap1D(population, variable string, ids []string) (*MapDataset, error) {
	return w.addMap(Nonuniform, recordMap, population, variable, ids)
}

// AddEventMap stores the source ids of a population of event data in VLEN
// and NANPADDED files.
func (w *Writer) AddEventMap(population string, ids []string) (*MapDataset, error) {
	return w.addMap(Event, flatMap, population, "", ids)
}

// AddEventMap1D stores the source ids of one event variable of a
// population in ONED and NUREGULAR files.
func (w *Writer) AddEventMap1D(population, variable string, ids []string) (*MapDataset, error) {
	return w.addMap(Event, recordMap, population, variable, ids)
}

// OpenMap opens a map written earlier, for example to append to its data
// after OpenAppend. variable is ignored for flat maps.
func (w *Writer) OpenMap(s Sampling, population, variable string) (*MapDataset, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return readMap(w.f, w.layout, s, population, variable)
}

func (w *Writer) addMap(s Sampling, style mapStyle, population, variable string, ids []string) (*MapDataset, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	if want := mapStyleFor(w.layout, s); want != style {
		if style == recordMap {
			return nil, errors.Wrapf(ErrDialect, "%s files have no per-variable %s maps", w.Dialect(), s)
		}
		return nil, errors.Wrapf(ErrDialect, "%s files need per-variable %s maps", w.Dialect(), s)
	}
	if len(ids) == 0 {
		return nil, errors.Wrapf(ErrValidation, "map %s/%s has no sources", s, population)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, errors.Wrapf(ErrValidation, "map %s/%s lists %q twice", s, population, id)
		}
		seen[id] = struct{}{}
	}

	m := &MapDataset{
		sampling:   s,
		population: population,
		variable:   variable,
		sources:    slices.Clone(ids),
		style:      style,
	}
	err := w.atomic(func() error {
		g, err := w.f.OpenGroup(mapGroupPath(s))
		if err != nil {
			return containerErr(err, "opening %s", mapGroupPath(s))
		}
		name := population
		if style == recordMap {
			if g, err = g.RequireGroup(population); err != nil {
				return containerErr(err, "creating map group for %s", population)
			}
			name = variable
		}

		n := uint64(len(ids))
		if style == recordMap {
			m.ds, err = g.CreateDataset(name, container.Record, []uint64{n})
		} else {
			m.ds, err = g.CreateDataset(name, container.String, []uint64{n})
		}
		if err != nil {
			return containerErr(err, "creating map %s", container.JoinPath(g.Path(), name))
		}

		if style == recordMap {
			recs := make([]container.RecordValue, len(ids))
			for i, id := range ids {
				recs[i].Source = id
			}
			err = m.ds.WriteRecords(0, recs)
		} else {
			err = m.ds.WriteStrings(0, ids)
		}
		if err != nil {
			return errors.Wrapf(err, "writing map %s", m.ds.Path())
		}

		w.logger.Debug("created map", zap.String("path", m.ds.Path()), zap.Int("sources", len(ids)))
		return w.linkMap(m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// checkMap validates a map passed to a data call.
func (w *Writer) checkMap(m *MapDataset, s Sampling) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if m == nil || m.ds == nil {
		return errors.Wrap(ErrValidation, "nil map")
	}
	if m.ds.File() != w.f {
		return errors.Wrapf(ErrValidation, "map %s belongs to another file", m.Path())
	}
	if m.sampling != s {
		return errors.Wrapf(ErrValidation, "map %s is %s, not %s", m.Path(), m.sampling, s)
	}
	return nil
}
