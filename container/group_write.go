package container

import (
	"fmt"

	"github.com/nsdf/nsdf/internal/schema"
)

// CreateGroup creates a new subgroup with the given name.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.file.checkWritable(); err != nil {
		return nil, err
	}
	if err := validName(name); err != nil {
		return nil, err
	}

	id, err := g.insertObject(&objectRow{name: name, kind: schema.KindGroup})
	if err != nil {
		return nil, err
	}

	return &Group{node{file: g.file, id: id, path: JoinPath(g.path, name)}}, nil
}

// RequireGroup opens the group at a relative path, creating it and any
// missing intermediate groups.
func (g *Group) RequireGroup(relativePath string) (*Group, error) {
	current := g
	for _, name := range SplitPath(relativePath) {
		next, err := current.OpenGroup(name)
		if err == nil {
			current = next
			continue
		}
		if !isNotFound(err) {
			return nil, err
		}

		next, err = current.CreateGroup(name)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// insertObject adds a child object row under g and returns its id.
func (g *Group) insertObject(row *objectRow) (int64, error) {
	path := JoinPath(g.path, row.name)

	// Check for an existing member first so the error is ErrExists rather
	// than a constraint violation.
	if _, err := g.file.lookupPath(path); err == nil {
		return 0, fmt.Errorf("%w: %s", ErrExists, path)
	} else if !isNotFound(err) {
		return 0, err
	}

	res, err := g.file.q().Exec(
		`INSERT INTO objects (parent, name, path, kind, class, rank, dim0, dim1, max0, max1, chunk, filters, fill)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.id, row.name, path, int(row.kind), int(row.class), row.rank,
		int64(row.dims[0]), int64(row.dims[1]),
		toStoredMax(row.maxDims[0]), toStoredMax(row.maxDims[1]),
		row.chunk, int64(row.filters), row.fill)
	if err != nil {
		return 0, fmt.Errorf("creating %s %s: %w", row.kind, path, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("creating %s %s: %w", row.kind, path, err)
	}
	return id, nil
}
