package container

import "errors"

// WalkFunc is called for each object during traversal.
// path is the full path to the object.
// obj is either *Group or *Dataset.
// err is any error encountered listing the object's group.
// Return nil to continue walking, SkipGroup to skip a group's members,
// or any other error to stop.
type WalkFunc func(path string, obj Object, err error) error

// SkipGroup can be returned from a WalkFunc called for a group to skip its
// members.
var SkipGroup = errors.New("skip this group")

// Walk traverses all objects (groups and datasets) in the hierarchy starting
// from g, in name order. The callback is called for each group and dataset,
// including the starting group, parents before children.
//
// Example:
//
//	Walk(root, func(path string, obj Object, err error) error {
//	    if err != nil {
//	        return err
//	    }
//	    switch o := obj.(type) {
//	    case *Group:
//	        fmt.Println("Group:", path)
//	    case *Dataset:
//	        fmt.Println("Dataset:", path, "shape:", o.Shape())
//	    }
//	    return nil
//	})
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn)
	if errors.Is(err, SkipGroup) {
		return nil
	}
	return err
}

// walkGroup recursively walks a group and its children.
func walkGroup(g *Group, fn WalkFunc) error {
	// Call fn for this group first
	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}

	children, err := g.children(kindsAll...)
	if err != nil {
		return fn(g.Path(), g, err)
	}

	for _, child := range children {
		switch c := child.(type) {
		case *Group:
			if err := walkGroup(c, fn); err != nil {
				if errors.Is(err, SkipGroup) {
					continue
				}
				return err
			}
		case *Dataset:
			if err := fn(c.Path(), c, nil); err != nil {
				return err
			}
		}
	}

	return nil
}
