package container

import (
	"errors"
	"fmt"

	"github.com/nsdf/nsdf/internal/schema"
)

// Group represents a group: a named container of groups and datasets.
type Group struct {
	node
}

// OpenGroup opens a subgroup by relative path.
func (g *Group) OpenGroup(relativePath string) (*Group, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}

	group, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, obj.Path())
	}
	return group, nil
}

// OpenDataset opens a dataset (regular or ragged) by relative path.
func (g *Group) OpenDataset(relativePath string) (*Dataset, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}

	dataset, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDataset, obj.Path())
	}
	return dataset, nil
}

// open opens an object by relative path.
func (g *Group) open(relativePath string) (Object, error) {
	if g.file.closed {
		return nil, ErrClosed
	}

	parts := SplitPath(relativePath)
	if len(parts) == 0 {
		return g, nil
	}

	row, err := g.file.lookupPath(CleanPath(g.path + "/" + relativePath))
	if err != nil {
		return nil, err
	}
	return g.file.object(row)
}

// Has reports whether the group has a direct member with the given name.
func (g *Group) Has(name string) bool {
	_, err := g.open(name)
	return err == nil
}

// Members returns the names of all members (groups and datasets) in this
// group, in name order.
func (g *Group) Members() ([]string, error) {
	if g.file.closed {
		return nil, ErrClosed
	}

	rows, err := g.file.q().Query(`SELECT name FROM objects WHERE parent = ? ORDER BY name`, g.id)
	if err != nil {
		return nil, fmt.Errorf("listing members of %s: %w", g.path, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("listing members of %s: %w", g.path, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// NumObjects returns the number of objects in this group.
func (g *Group) NumObjects() (int, error) {
	members, err := g.Members()
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

// Groups returns the direct subgroups of this group, in name order.
func (g *Group) Groups() ([]*Group, error) {
	children, err := g.children(schema.KindGroup)
	if err != nil {
		return nil, err
	}
	groups := make([]*Group, 0, len(children))
	for _, obj := range children {
		groups = append(groups, obj.(*Group))
	}
	return groups, nil
}

// Datasets returns the direct datasets (regular and ragged) of this group,
// in name order.
func (g *Group) Datasets() ([]*Dataset, error) {
	children, err := g.children(schema.KindDataset, schema.KindRagged)
	if err != nil {
		return nil, err
	}
	datasets := make([]*Dataset, 0, len(children))
	for _, obj := range children {
		datasets = append(datasets, obj.(*Dataset))
	}
	return datasets, nil
}

var kindsAll = []schema.Kind{schema.KindGroup, schema.KindDataset, schema.KindRagged}

func (g *Group) children(kinds ...schema.Kind) ([]Object, error) {
	if g.file.closed {
		return nil, ErrClosed
	}

	rows, err := g.file.q().Query(`SELECT `+objectColumns+` FROM objects WHERE parent = ? ORDER BY name`, g.id)
	if err != nil {
		return nil, fmt.Errorf("listing members of %s: %w", g.path, err)
	}

	// Collect the rows first: the single connection cannot serve another
	// query while this result set is open.
	var matched []*objectRow
	for rows.Next() {
		row, err := scanObject(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("listing members of %s: %w", g.path, err)
		}
		for _, k := range kinds {
			if row.kind == k {
				matched = append(matched, row)
				break
			}
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	objs := make([]Object, 0, len(matched))
	for _, row := range matched {
		obj, err := g.file.object(row)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// isNotFound reports whether err means that an object is missing.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
