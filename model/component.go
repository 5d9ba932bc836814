// Package model holds the model tree: named components with unique ids,
// parent links and free-form attributes, plus the uid to path lookup used
// to cross-reference model and data.
package model

import (
	"fmt"
	"io"
	"strings"

	"github.com/cevaris/ordered_map"
	"github.com/pkg/errors"
)

var (
	// ErrNotComponent is returned when a value that is not a component is
	// added to the tree.
	ErrNotComponent = errors.New("model: not a component")

	// ErrNotFound is returned when a path names no component.
	ErrNotFound = errors.New("model: component not found")
)

// Component is one node of the model tree.
//
// A component owns its children, keyed by name in insertion order. The
// parent link is a plain back-pointer maintained by AddChild.
type Component struct {
	Name  string
	UID   string
	Attrs map[string]any

	parent   *Component
	children *ordered_map.OrderedMap
}

// NewComponent creates a component. An empty uid defaults to the name.
func NewComponent(name, uid string) *Component {
	if uid == "" {
		uid = name
	}
	return &Component{
		Name:     name,
		UID:      uid,
		Attrs:    map[string]any{},
		children: ordered_map.NewOrderedMap(),
	}
}

// Parent returns the parent component, or nil for a root.
func (c *Component) Parent() *Component {
	return c.parent
}

// AddChild attaches child under c, detaching it from any previous parent.
// A child with the same name as an existing one replaces it.
func (c *Component) AddChild(child *Component) error {
	if child == nil {
		return errors.Wrapf(ErrNotComponent, "adding child to %s", c.Name)
	}
	if child.children == nil {
		child.children = ordered_map.NewOrderedMap()
	}
	if c.children == nil {
		c.children = ordered_map.NewOrderedMap()
	}

	if old := child.parent; old != nil && old != c {
		if cur, ok := old.children.Get(child.Name); ok && cur.(*Component) == child {
			old.children.Delete(child.Name)
		}
	}
	c.children.Set(child.Name, child)
	child.parent = c
	return nil
}

// AddChildren attaches each of children under c. It stops at the first
// nil entry.
func (c *Component) AddChildren(children ...*Component) error {
	for _, child := range children {
		if err := c.AddChild(child); err != nil {
			return err
		}
	}
	return nil
}

// RemoveChild detaches the direct child with the given name and returns it.
func (c *Component) RemoveChild(name string) (*Component, bool) {
	child, ok := c.Child(name)
	if !ok {
		return nil, false
	}
	c.children.Delete(name)
	child.parent = nil
	return child, true
}

// Child returns the direct child with the given name.
func (c *Component) Child(name string) (*Component, bool) {
	if c.children == nil {
		return nil, false
	}
	v, ok := c.children.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Component), true
}

// Children returns the direct children in insertion order.
func (c *Component) Children() []*Component {
	if c.children == nil {
		return nil
	}
	out := make([]*Component, 0, c.children.Len())
	iter := c.children.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		out = append(out, kv.Value.(*Component))
	}
	return out
}

// Path returns the slash-separated names from the root down to c, with a
// leading slash.
func (c *Component) Path() string {
	var names []string
	for node := c; node != nil; node = node.parent {
		names = append(names, node.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return "/" + strings.Join(names, "/")
}

// Node returns the component at path relative to c. Empty path elements
// are ignored, so "" and "/" return c itself.
func (c *Component) Node(path string) (*Component, error) {
	node := c
	for _, name := range strings.Split(path, "/") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		next, ok := node.Child(name)
		if !ok {
			return nil, errors.Wrapf(ErrNotFound, "%q under %s", path, c.Path())
		}
		node = next
	}
	return node, nil
}

// Visit calls fn for c and every descendant, parents before children.
// A non-nil error from fn stops the traversal and is returned.
func (c *Component) Visit(fn func(*Component) error) error {
	if err := fn(c); err != nil {
		return err
	}
	for _, child := range c.Children() {
		if err := child.Visit(fn); err != nil {
			return err
		}
	}
	return nil
}

// CheckUIDs returns, for every uid shared by more than one component in the
// subtree, the components carrying it. Components without a uid are given
// one first: the parent's uid joined with their name.
func (c *Component) CheckUIDs() map[string][]*Component {
	seen := map[string][]*Component{}
	c.Visit(func(node *Component) error {
		if node.UID == "" {
			if node.parent == nil {
				node.UID = node.Name
			} else {
				node.UID = node.parent.UID + "/" + node.Name
			}
		}
		seen[node.UID] = append(seen[node.UID], node)
		return nil
	})

	clashes := map[string][]*Component{}
	for uid, nodes := range seen {
		if len(nodes) > 1 {
			clashes[uid] = nodes
		}
	}
	return clashes
}

// Print writes the subtree as indented "name(uid)" lines.
func (c *Component) Print(w io.Writer) error {
	return c.print(w, "")
}

func (c *Component) print(w io.Writer, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%s(%s)\n", indent, c.Name, c.UID); err != nil {
		return err
	}
	for _, child := range c.Children() {
		if err := child.print(w, indent+"  "); err != nil {
			return err
		}
	}
	return nil
}
