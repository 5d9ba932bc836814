package container

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/nsdf/nsdf/internal/dtype"
)

// Attribute represents a named value attached to a group or dataset.
type Attribute struct {
	name   string
	class  dtype.Class
	scalar bool
	n      int
	data   []byte
}

// Name returns the attribute name.
func (a *Attribute) Name() string {
	return a.name
}

// Class returns the element class of the value.
func (a *Attribute) Class() Class {
	return a.class
}

// Shape returns the dimensions of the attribute value (nil for scalars).
func (a *Attribute) Shape() []uint64 {
	if a.scalar {
		return nil
	}
	return []uint64{uint64(a.n)}
}

// NumElements returns the total number of elements.
func (a *Attribute) NumElements() int {
	return a.n
}

// IsScalar returns true if the attribute is a scalar value.
func (a *Attribute) IsScalar() bool {
	return a.scalar
}

// ReadFloat64 reads a numeric attribute as float64 values.
func (a *Attribute) ReadFloat64() ([]float64, error) {
	if !a.class.IsNumeric() {
		return nil, fmt.Errorf("%w: attribute %q is %s", ErrClass, a.name, a.class)
	}
	return dtype.DecodeFloat64s(a.class, a.data)
}

// ReadInt64 reads an integer attribute as int64 values.
func (a *Attribute) ReadInt64() ([]int64, error) {
	switch a.class {
	case dtype.Int64:
		return dtype.DecodeInt64s(a.data)
	case dtype.Int32, dtype.Uint8:
		vals, err := dtype.DecodeFloat64s(a.class, a.data)
		if err != nil {
			return nil, err
		}
		out := make([]int64, len(vals))
		for i, v := range vals {
			out[i] = int64(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: attribute %q is %s", ErrClass, a.name, a.class)
}

// ReadString reads a string attribute.
func (a *Attribute) ReadString() ([]string, error) {
	if a.class != dtype.String {
		return nil, fmt.Errorf("%w: attribute %q is %s", ErrClass, a.name, a.class)
	}
	return dtype.DecodeStrings(a.data)
}

// ReadRefs reads a reference attribute.
func (a *Attribute) ReadRefs() ([]Ref, error) {
	if a.class != dtype.Reference {
		return nil, fmt.Errorf("%w: attribute %q is %s", ErrClass, a.name, a.class)
	}
	ids, err := dtype.DecodeInt64s(a.data)
	if err != nil {
		return nil, err
	}
	refs := make([]Ref, len(ids))
	for i, id := range ids {
		refs[i] = Ref(id)
	}
	return refs, nil
}

// ReadBytes returns the raw bytes of a uint8 attribute.
func (a *Attribute) ReadBytes() ([]byte, error) {
	if a.class != dtype.Uint8 {
		return nil, fmt.Errorf("%w: attribute %q is %s", ErrClass, a.name, a.class)
	}
	return append([]byte(nil), a.data...), nil
}

// ReadScalarInt64 reads a scalar int64 attribute.
func (a *Attribute) ReadScalarInt64() (int64, error) {
	vals, err := a.ReadInt64()
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("no values in attribute %q", a.name)
	}
	return vals[0], nil
}

// ReadScalarFloat64 reads a scalar float64 attribute.
func (a *Attribute) ReadScalarFloat64() (float64, error) {
	vals, err := a.ReadFloat64()
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("no values in attribute %q", a.name)
	}
	return vals[0], nil
}

// ReadScalarString reads a scalar string attribute.
func (a *Attribute) ReadScalarString() (string, error) {
	vals, err := a.ReadString()
	if err != nil {
		return "", err
	}
	if len(vals) == 0 {
		return "", fmt.Errorf("no values in attribute %q", a.name)
	}
	return vals[0], nil
}

// ReadScalarRef reads a scalar reference attribute.
func (a *Attribute) ReadScalarRef() (Ref, error) {
	vals, err := a.ReadRefs()
	if err != nil {
		return NullRef, err
	}
	if len(vals) == 0 {
		return NullRef, fmt.Errorf("no values in attribute %q", a.name)
	}
	return vals[0], nil
}

// ReadBool reads a scalar boolean attribute.
func (a *Attribute) ReadBool() (bool, error) {
	if a.class != dtype.Uint8 || len(a.data) == 0 {
		return false, fmt.Errorf("%w: attribute %q is not a boolean", ErrClass, a.name)
	}
	return a.data[0] != 0, nil
}

// Value reads the attribute and returns an auto-typed Go value.
// Returns appropriate types based on the element class:
//   - Int64, Int32: int64 or []int64
//   - Float64, Float32: float64 or []float64
//   - String: string or []string
//   - Reference: Ref or []Ref
//   - Uint8: bool (scalar) or []byte
//
// For scalar attributes, returns a single value. Otherwise returns a slice.
func (a *Attribute) Value() (any, error) {
	switch a.class {
	case dtype.Int64, dtype.Int32:
		vals, err := a.ReadInt64()
		if err != nil {
			return nil, err
		}
		if a.scalar && len(vals) == 1 {
			return vals[0], nil
		}
		return vals, nil

	case dtype.Float64, dtype.Float32:
		vals, err := a.ReadFloat64()
		if err != nil {
			return nil, err
		}
		if a.scalar && len(vals) == 1 {
			return vals[0], nil
		}
		return vals, nil

	case dtype.String:
		vals, err := a.ReadString()
		if err != nil {
			return nil, err
		}
		if a.scalar && len(vals) == 1 {
			return vals[0], nil
		}
		return vals, nil

	case dtype.Reference:
		vals, err := a.ReadRefs()
		if err != nil {
			return nil, err
		}
		if a.scalar && len(vals) == 1 {
			return vals[0], nil
		}
		return vals, nil

	case dtype.Uint8:
		if a.scalar {
			return a.ReadBool()
		}
		return a.ReadBytes()
	}

	return nil, fmt.Errorf("%w: attribute %q has class %s", ErrUnsupported, a.name, a.class)
}

// encodeAttr converts a Go value into its stored form.
func encodeAttr(value any) (class dtype.Class, scalar bool, n int, data []byte, err error) {
	switch v := value.(type) {
	case string:
		return dtype.String, true, 1, dtype.EncodeStrings([]string{v}), nil
	case []string:
		return dtype.String, false, len(v), dtype.EncodeStrings(v), nil
	case float64:
		data, err = dtype.EncodeFloat64s(dtype.Float64, []float64{v})
		return dtype.Float64, true, 1, data, err
	case float32:
		data, err = dtype.EncodeFloat64s(dtype.Float64, []float64{float64(v)})
		return dtype.Float64, true, 1, data, err
	case []float64:
		data, err = dtype.EncodeFloat64s(dtype.Float64, v)
		return dtype.Float64, false, len(v), data, err
	case int:
		return dtype.Int64, true, 1, dtype.EncodeInt64s([]int64{int64(v)}), nil
	case int32:
		return dtype.Int64, true, 1, dtype.EncodeInt64s([]int64{int64(v)}), nil
	case int64:
		return dtype.Int64, true, 1, dtype.EncodeInt64s([]int64{v}), nil
	case []int:
		vals := make([]int64, len(v))
		for i, x := range v {
			vals[i] = int64(x)
		}
		return dtype.Int64, false, len(v), dtype.EncodeInt64s(vals), nil
	case []int64:
		return dtype.Int64, false, len(v), dtype.EncodeInt64s(v), nil
	case bool:
		b := byte(0)
		if v {
			b = 1
		}
		return dtype.Uint8, true, 1, []byte{b}, nil
	case []byte:
		return dtype.Uint8, false, len(v), append([]byte(nil), v...), nil
	case Ref:
		return dtype.Reference, true, 1, dtype.EncodeInt64s([]int64{int64(v)}), nil
	case []Ref:
		ids := make([]int64, len(v))
		for i, r := range v {
			ids[i] = int64(r)
		}
		return dtype.Reference, false, len(v), dtype.EncodeInt64s(ids), nil
	}
	return dtype.Invalid, false, 0, nil, fmt.Errorf("%w: %T", ErrUnsupported, value)
}

// SetAttr creates or replaces an attribute.
// The value can be a string, float64, float32, int, int32, int64, bool,
// Ref, or a slice of string, float64, int, int64, byte or Ref.
func (n *node) SetAttr(name string, value any) error {
	if err := n.file.checkWritable(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: attribute name cannot be empty", ErrInvalidPath)
	}

	class, scalar, count, data, err := encodeAttr(value)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}

	_, err = n.file.q().Exec(
		`INSERT OR REPLACE INTO attrs (object, name, class, scalar, n, data) VALUES (?, ?, ?, ?, ?, ?)`,
		n.id, name, int(class), scalar, count, data)
	if err != nil {
		return fmt.Errorf("writing attribute %q: %w", name, err)
	}
	return nil
}

// DeleteAttr removes an attribute. Removing a missing attribute is not an
// error.
func (n *node) DeleteAttr(name string) error {
	if err := n.file.checkWritable(); err != nil {
		return err
	}
	if _, err := n.file.q().Exec(`DELETE FROM attrs WHERE object = ? AND name = ?`, n.id, name); err != nil {
		return fmt.Errorf("deleting attribute %q: %w", name, err)
	}
	return nil
}

// Attr returns an attribute by name.
func (n *node) Attr(name string) (*Attribute, error) {
	if n.file.closed {
		return nil, ErrClosed
	}

	a := &Attribute{name: name}
	err := n.file.q().QueryRow(
		`SELECT class, scalar, n, data FROM attrs WHERE object = ? AND name = ?`, n.id, name).
		Scan(&a.class, &a.scalar, &a.n, &a.data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAttrNotFound, JoinAttrPath(n.path, name))
	}
	if err != nil {
		return nil, fmt.Errorf("reading attribute %q: %w", name, err)
	}
	return a, nil
}

// HasAttr returns true if the object has an attribute with the given name.
func (n *node) HasAttr(name string) bool {
	_, err := n.Attr(name)
	return err == nil
}

// Attrs returns the attribute names of this object in name order.
func (n *node) Attrs() ([]string, error) {
	if n.file.closed {
		return nil, ErrClosed
	}

	rows, err := n.file.q().Query(`SELECT name FROM attrs WHERE object = ? ORDER BY name`, n.id)
	if err != nil {
		return nil, fmt.Errorf("listing attributes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("listing attributes: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
