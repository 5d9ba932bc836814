package nsdf

import (
	"slices"

	"github.com/cevaris/ordered_map"
	"github.com/pkg/errors"

	"github.com/nsdf/nsdf/container"
)

// Data holds what every data container shares: the variable's name and
// metadata and the ordered source to payload mapping.
//
// Put on an existing source replaces its payload but keeps its position:
// last write wins for the value, first write for the order. Payloads are
// copied in and out, so callers never share arrays with a container.
type Data struct {
	// Name is the variable name; it names the data dataset.
	Name string
	// Field is the recorded field of the source objects. It defaults to
	// Name.
	Field string
	Unit  string
	// DType is the stored element class. The zero value means Float64.
	DType container.Class

	entries *ordered_map.OrderedMap
}

func newData(name, unit string) Data {
	return Data{Name: name, Unit: unit, entries: ordered_map.NewOrderedMap()}
}

// FieldName returns Field, or Name if Field is empty.
func (d *Data) FieldName() string {
	if d.Field == "" {
		return d.Name
	}
	return d.Field
}

func (d *Data) class() container.Class {
	if d.DType == 0 {
		return container.Float64
	}
	return d.DType
}

// Sources returns the source ids in insertion order.
func (d *Data) Sources() []string {
	if d.entries == nil {
		return nil
	}
	out := make([]string, 0, d.entries.Len())
	iter := d.entries.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		out = append(out, kv.Key.(string))
	}
	return out
}

// Len returns the number of sources.
func (d *Data) Len() int {
	if d.entries == nil {
		return 0
	}
	return d.entries.Len()
}

// Has reports whether source has a payload.
func (d *Data) Has(source string) bool {
	_, err := d.get(source)
	return err == nil
}

func (d *Data) put(source string, payload any) {
	if d.entries == nil {
		d.entries = ordered_map.NewOrderedMap()
	}
	d.entries.Set(source, payload)
}

func (d *Data) get(source string) (any, error) {
	if d.entries != nil {
		if v, ok := d.entries.Get(source); ok {
			return v, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "source %q in %s", source, d.Name)
}

// UniformData holds series sampled at a fixed interval Dt, starting at
// TStart, for every source.
type UniformData struct {
	Data
	Dt     float64
	TUnit  string
	TStart float64
}

// NewUniformData returns an empty uniform container.
func NewUniformData(name, unit string, dt float64, tunit string) *UniformData {
	return &UniformData{Data: newData(name, unit), Dt: dt, TUnit: tunit}
}

// SetDt sets the sampling interval and its unit.
func (u *UniformData) SetDt(dt float64, tunit string) {
	u.Dt = dt
	u.TUnit = tunit
}

// Put sets the samples of source.
func (u *UniformData) Put(source string, values []float64) error {
	u.put(source, slices.Clone(values))
	return nil
}

// Get returns the samples of source.
func (u *UniformData) Get(source string) ([]float64, error) {
	v, err := u.get(source)
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]float64)), nil
}

// sample is one source's values and their sampling times.
type sample struct {
	values []float64
	times  []float64
}

// NonuniformData holds series with their own sampling times per source.
type NonuniformData struct {
	Data
	TUnit string
}

// NewNonuniformData returns an empty nonuniform container.
func NewNonuniformData(name, unit, tunit string) *NonuniformData {
	return &NonuniformData{Data: newData(name, unit), TUnit: tunit}
}

// Put sets the values of source and the times they were sampled at. Both
// must have the same length.
func (n *NonuniformData) Put(source string, values, times []float64) error {
	if len(values) != len(times) {
		return errors.Wrapf(ErrValidation, "source %q has %d values and %d times",
			source, len(values), len(times))
	}
	n.put(source, sample{values: slices.Clone(values), times: slices.Clone(times)})
	return nil
}

// Get returns the values and times of source.
func (n *NonuniformData) Get(source string) (values, times []float64, err error) {
	v, err := n.get(source)
	if err != nil {
		return nil, nil, err
	}
	s := v.(sample)
	return slices.Clone(s.values), slices.Clone(s.times), nil
}

// NonuniformRegularData holds series sampled at irregular times shared by
// all sources.
type NonuniformRegularData struct {
	Data
	TUnit string
	times []float64
	set   bool
}

// NewNonuniformRegularData returns an empty container. SetTimes must be
// called before Put.
func NewNonuniformRegularData(name, unit, tunit string) *NonuniformRegularData {
	return &NonuniformRegularData{Data: newData(name, unit), TUnit: tunit}
}

// SetTimes sets the shared sampling times. A non-empty tunit replaces the
// time unit. Sources already present must match the new length.
func (n *NonuniformRegularData) SetTimes(times []float64, tunit string) error {
	for _, src := range n.Sources() {
		v, _ := n.get(src)
		if got := len(v.([]float64)); got != len(times) {
			return errors.Wrapf(ErrValidation, "source %q has %d values, times have %d",
				src, got, len(times))
		}
	}
	n.times = slices.Clone(times)
	n.set = true
	if tunit != "" {
		n.TUnit = tunit
	}
	return nil
}

// Times returns the shared sampling times.
func (n *NonuniformRegularData) Times() []float64 {
	return slices.Clone(n.times)
}

// Put sets the values of source, one per shared time.
func (n *NonuniformRegularData) Put(source string, values []float64) error {
	if !n.set {
		return errors.Wrapf(ErrValidation, "times of %s must be set before data", n.Name)
	}
	if len(values) != len(n.times) {
		return errors.Wrapf(ErrValidation, "source %q has %d values, times have %d",
			source, len(values), len(n.times))
	}
	n.put(source, slices.Clone(values))
	return nil
}

// Get returns the values of source.
func (n *NonuniformRegularData) Get(source string) ([]float64, error) {
	v, err := n.get(source)
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]float64)), nil
}

// EventData holds event times per source.
type EventData struct {
	Data
}

// NewEventData returns an empty event container. unit is the unit of the
// event times.
func NewEventData(name, unit string) *EventData {
	return &EventData{Data: newData(name, unit)}
}

// Put sets the event times of source.
func (e *EventData) Put(source string, times []float64) error {
	e.put(source, slices.Clone(times))
	return nil
}

// Get returns the event times of source.
func (e *EventData) Get(source string) ([]float64, error) {
	v, err := e.get(source)
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]float64)), nil
}

// StaticData holds time-invariant values, the same number per source.
type StaticData struct {
	Data
}

// NewStaticData returns an empty static container.
func NewStaticData(name, unit string) *StaticData {
	return &StaticData{Data: newData(name, unit)}
}

// Put sets the values of source. Every source must have as many values as
// the first one stored.
func (s *StaticData) Put(source string, values []float64) error {
	for _, src := range s.Sources() {
		if src == source {
			continue
		}
		v, _ := s.get(src)
		if width := len(v.([]float64)); width != len(values) {
			return errors.Wrapf(ErrValidation, "source %q has %d values, %q has %d",
				source, len(values), src, width)
		}
		break
	}
	s.put(source, slices.Clone(values))
	return nil
}

// Get returns the values of source.
func (s *StaticData) Get(source string) ([]float64, error) {
	v, err := s.get(source)
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]float64)), nil
}
