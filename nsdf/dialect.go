package nsdf

import (
	"github.com/pkg/errors"
)

// Dialect selects how nonuniform and event data are laid out on disk. It is
// chosen when a file is created and stored in the file's dialect attribute.
type Dialect string

// Dialects. The values are the persisted tags.
const (
	// ONED stores one 1-D dataset per source, each with its own time scale.
	ONED Dialect = "ONED"
	// VLEN stores one ragged dataset per variable, one row per source.
	VLEN Dialect = "VLEN"
	// NANPADDED stores one 2-D dataset per variable, each row padded with NaN.
	NANPADDED Dialect = "NANPADDED"
	// NUREGULAR stores nonuniform data sampled at shared times as a regular
	// 2-D dataset; events use the ONED layout.
	NUREGULAR Dialect = "NUREGULAR"
)

// SharedTime is another name for NUREGULAR.
const SharedTime = NUREGULAR

// ParseDialect returns the dialect with the given tag.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(s); d {
	case ONED, VLEN, NANPADDED, NUREGULAR:
		return d, nil
	}
	return "", errors.Wrapf(ErrDialect, "unknown dialect %q", s)
}

// Sampling is a sampling regime. Each has its own subgroup under /data and
// /map.
type Sampling string

// Sampling regimes.
const (
	Uniform    Sampling = "uniform"
	Nonuniform Sampling = "nonuniform"
	Event      Sampling = "event"
	Static     Sampling = "static"
)

// Samplings lists every sampling regime.
var Samplings = []Sampling{Uniform, Nonuniform, Event, Static}

// mapStyle is the shape of a map dataset.
type mapStyle int

const (
	// flatMap is a 1-D string dataset of source ids per population.
	flatMap mapStyle = iota
	// recordMap is a per-variable table of (source, dataset ref) records.
	recordMap
)

// layout is the dialect-specific part of the engine. One layout is chosen
// when a file is opened and used for every nonuniform and event call.
//
// Uniform and static data have a single layout shared by all dialects and
// do not go through this interface.
type layout interface {
	Dialect() Dialect

	nonuniformMaps() mapStyle
	eventMaps() mapStyle

	writeNonuniform(w *Writer, m *MapDataset, d *NonuniformData, fixed bool) error
	writeNonuniformRegular(w *Writer, m *MapDataset, d *NonuniformRegularData, fixed bool) error
	writeEvent(w *Writer, m *MapDataset, d *EventData, fixed bool) error

	readNonuniform(r *Reader, population, variable string) (*NonuniformData, error)
	readNonuniformRegular(r *Reader, population, variable string) (*NonuniformRegularData, error)
	readEvent(r *Reader, population, variable string) (*EventData, error)
}

// unsupported implements every layout operation by rejecting it. Layouts
// embed it and override what their dialect supports.
type unsupported struct {
	dialect Dialect
}

func (u unsupported) Dialect() Dialect { return u.dialect }

func (u unsupported) nonuniformMaps() mapStyle { return flatMap }
func (u unsupported) eventMaps() mapStyle      { return flatMap }

func (u unsupported) writeNonuniform(*Writer, *MapDataset, *NonuniformData, bool) error {
	return errors.Wrapf(ErrDialect, "%s files do not store nonuniform data with per-source times", u.dialect)
}

func (u unsupported) writeNonuniformRegular(*Writer, *MapDataset, *NonuniformRegularData, bool) error {
	return errors.Wrapf(ErrDialect, "%s files do not store nonuniform data with shared times", u.dialect)
}

func (u unsupported) writeEvent(*Writer, *MapDataset, *EventData, bool) error {
	return errors.Wrapf(ErrDialect, "%s files do not store event data", u.dialect)
}

func (u unsupported) readNonuniform(*Reader, string, string) (*NonuniformData, error) {
	return nil, readErr(ErrDialect, "%s files hold no per-source nonuniform data", u.dialect)
}

func (u unsupported) readNonuniformRegular(*Reader, string, string) (*NonuniformRegularData, error) {
	return nil, readErr(ErrDialect, "%s files hold no shared-time nonuniform data", u.dialect)
}

func (u unsupported) readEvent(*Reader, string, string) (*EventData, error) {
	return nil, readErr(ErrDialect, "%s files hold no event data", u.dialect)
}

// layoutFor returns the layout of a dialect.
func layoutFor(d Dialect) (layout, error) {
	switch d {
	case ONED:
		return oneDLayout{unsupported{d}}, nil
	case VLEN:
		return vlenLayout{unsupported{d}}, nil
	case NANPADDED:
		return nanPaddedLayout{unsupported{d}}, nil
	case NUREGULAR:
		return sharedTimeLayout{unsupported{d}}, nil
	}
	return nil, errors.Wrapf(ErrDialect, "unknown dialect %q", string(d))
}
