package nsdf

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Properties is the provenance recorded in a file's root attributes.
// Zero-valued fields are not written.
type Properties struct {
	Title       string    `toml:"title" yaml:"title"`
	Creator     []string  `toml:"creator" yaml:"creator"`
	Software    []string  `toml:"software" yaml:"software"`
	Method      []string  `toml:"method" yaml:"method"`
	Description string    `toml:"description" yaml:"description"`
	Rights      string    `toml:"rights" yaml:"rights"`
	License     string    `toml:"license" yaml:"license"`
	TStart      time.Time `toml:"tstart" yaml:"tstart"`
	TEnd        time.Time `toml:"tend" yaml:"tend"`
	Contributor []string  `toml:"contributor" yaml:"contributor"`
}

// Root attribute names.
const (
	attrDialect     = "dialect"
	attrVersion     = "nsdf_version"
	attrCreated     = "created"
	attrID          = "id"
	attrTitle       = "title"
	attrCreator     = "creator"
	attrSoftware    = "software"
	attrMethod      = "method"
	attrDescription = "description"
	attrRights      = "rights"
	attrLicense     = "license"
	attrTStart      = "tstart"
	attrTEnd        = "tend"
	attrContributor = "contributor"
)

// FormatVersion is the nsdf_version written to new files.
const FormatVersion = "0.1"

// LoadProperties reads provenance from a TOML (.toml) or YAML (.yaml,
// .yml) file.
//
// Example TOML:
//
//	title = "Purkinje cell model"
//	creator = ["Jane Doe"]
//	tstart = 2024-04-09T18:56:53Z
func LoadProperties(path string) (*Properties, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading properties")
	}

	var p Properties
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(raw, &p); err != nil {
			return nil, wrapAs(ErrValidation, err, "parsing %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return nil, wrapAs(ErrValidation, err, "parsing %s", path)
		}
	default:
		return nil, errors.Wrapf(ErrValidation, "unknown properties format %q", ext)
	}
	return &p, nil
}

// attrs returns the non-zero fields as root attribute values.
func (p *Properties) attrs() map[string]any {
	out := map[string]any{}
	setString := func(name, v string) {
		if v != "" {
			out[name] = v
		}
	}
	setList := func(name string, v []string) {
		if len(v) > 0 {
			out[name] = v
		}
	}
	setTime := func(name string, v time.Time) {
		if !v.IsZero() {
			out[name] = v.Format(time.RFC3339Nano)
		}
	}

	setString(attrTitle, p.Title)
	setList(attrCreator, p.Creator)
	setList(attrSoftware, p.Software)
	setList(attrMethod, p.Method)
	setString(attrDescription, p.Description)
	setString(attrRights, p.Rights)
	setString(attrLicense, p.License)
	setTime(attrTStart, p.TStart)
	setTime(attrTEnd, p.TEnd)
	setList(attrContributor, p.Contributor)
	return out
}
