package container

import (
	"database/sql"
	"errors"
	"fmt"
)

// Dimension scale attributes, named as in HDF5 so files read naturally.
const (
	scaleClassAttr  = "CLASS"
	scaleClassValue = "DIMENSION_SCALE"
	scaleNameAttr   = "NAME"
)

// ScaleAttachment identifies a dataset axis a scale is attached to.
type ScaleAttachment struct {
	Dataset *Dataset
	Axis    int
}

// MakeScale turns the dataset into a dimension scale with the given name.
// Calling it again renames the scale.
func (d *Dataset) MakeScale(name string) error {
	if err := d.SetAttr(scaleClassAttr, scaleClassValue); err != nil {
		return err
	}
	return d.SetAttr(scaleNameAttr, name)
}

// IsScale reports whether the dataset is a dimension scale.
func (d *Dataset) IsScale() bool {
	attr, err := d.Attr(scaleClassAttr)
	if err != nil {
		return false
	}
	v, err := attr.ReadScalarString()
	return err == nil && v == scaleClassValue
}

// ScaleName returns the name given to MakeScale.
func (d *Dataset) ScaleName() (string, error) {
	if !d.IsScale() {
		return "", fmt.Errorf("%w: %s", ErrNotScale, d.path)
	}
	attr, err := d.Attr(scaleNameAttr)
	if err != nil {
		return "", err
	}
	return attr.ReadScalarString()
}

func (d *Dataset) checkAxis(axis int) error {
	if axis < 0 || axis >= d.rank {
		return fmt.Errorf("%w: axis %d of rank-%d dataset %s", ErrOutOfRange, axis, d.rank, d.path)
	}
	return nil
}

// AttachScale binds scale to one axis of the dataset. Attaching the same
// scale twice is a no-op.
func (d *Dataset) AttachScale(axis int, scale *Dataset) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	if err := d.checkAxis(axis); err != nil {
		return err
	}
	if scale.id == d.id {
		return fmt.Errorf("%w: %s cannot scale itself", ErrNotScale, d.path)
	}
	if !scale.IsScale() {
		return fmt.Errorf("%w: %s", ErrNotScale, scale.path)
	}

	_, err := d.file.q().Exec(`INSERT OR IGNORE INTO dimscales (object, axis, scale) VALUES (?, ?, ?)`,
		d.id, axis, scale.id)
	if err != nil {
		return fmt.Errorf("attaching %s to axis %d of %s: %w", scale.path, axis, d.path, err)
	}
	return nil
}

// DetachScale removes scale from one axis of the dataset.
func (d *Dataset) DetachScale(axis int, scale *Dataset) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	_, err := d.file.q().Exec(`DELETE FROM dimscales WHERE object = ? AND axis = ? AND scale = ?`,
		d.id, axis, scale.id)
	if err != nil {
		return fmt.Errorf("detaching %s from axis %d of %s: %w", scale.path, axis, d.path, err)
	}
	return nil
}

// Scales returns the scales attached to one axis, in attachment order.
func (d *Dataset) Scales(axis int) ([]*Dataset, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	if err := d.checkAxis(axis); err != nil {
		return nil, err
	}

	ids, err := d.queryIDs(`SELECT scale FROM dimscales WHERE object = ? AND axis = ? ORDER BY rowid`, d.id, axis)
	if err != nil {
		return nil, fmt.Errorf("listing scales of %s: %w", d.path, err)
	}

	scales := make([]*Dataset, 0, len(ids))
	for _, id := range ids {
		row, err := d.file.lookupID(id)
		if err != nil {
			return nil, err
		}
		ds, err := newDataset(d.file, row)
		if err != nil {
			return nil, err
		}
		scales = append(scales, ds)
	}
	return scales, nil
}

// AttachedTo returns every dataset axis this scale is attached to.
func (d *Dataset) AttachedTo() ([]ScaleAttachment, error) {
	if d.file.closed {
		return nil, ErrClosed
	}

	rows, err := d.file.q().Query(`SELECT object, axis FROM dimscales WHERE scale = ? ORDER BY rowid`, d.id)
	if err != nil {
		return nil, fmt.Errorf("listing attachments of %s: %w", d.path, err)
	}
	type pair struct {
		id   int64
		axis int
	}
	var pairs []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.id, &p.axis); err != nil {
			rows.Close()
			return nil, fmt.Errorf("listing attachments of %s: %w", d.path, err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]ScaleAttachment, 0, len(pairs))
	for _, p := range pairs {
		row, err := d.file.lookupID(p.id)
		if err != nil {
			return nil, err
		}
		ds, err := newDataset(d.file, row)
		if err != nil {
			return nil, err
		}
		out = append(out, ScaleAttachment{Dataset: ds, Axis: p.axis})
	}
	return out, nil
}

// SetLabel names one axis of the dataset.
func (d *Dataset) SetLabel(axis int, label string) error {
	if err := d.file.checkWritable(); err != nil {
		return err
	}
	if err := d.checkAxis(axis); err != nil {
		return err
	}
	_, err := d.file.q().Exec(`INSERT OR REPLACE INTO dimlabels (object, axis, label) VALUES (?, ?, ?)`,
		d.id, axis, label)
	if err != nil {
		return fmt.Errorf("labelling axis %d of %s: %w", axis, d.path, err)
	}
	return nil
}

// Label returns the label of one axis, or "" if it has none.
func (d *Dataset) Label(axis int) (string, error) {
	if d.file.closed {
		return "", ErrClosed
	}
	if err := d.checkAxis(axis); err != nil {
		return "", err
	}

	var label string
	err := d.file.q().QueryRow(`SELECT label FROM dimlabels WHERE object = ? AND axis = ?`, d.id, axis).Scan(&label)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading label of axis %d of %s: %w", axis, d.path, err)
	}
	return label, nil
}

// queryIDs runs a query returning one integer column and collects it.
func (d *Dataset) queryIDs(query string, args ...any) ([]int64, error) {
	rows, err := d.file.q().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
