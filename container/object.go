package container

import "path"

// Object is a group or dataset.
type Object interface {
	Name() string
	Path() string
	Ref() Ref
	File() *File
	Attrs() ([]string, error)
	Attr(name string) (*Attribute, error)
	HasAttr(name string) bool
	SetAttr(name string, value any) error
	DeleteAttr(name string) error
}

// Ref is a reference to a group or dataset, valid within one file. It can
// be stored in attributes and resolved with File.Deref.
type Ref int64

// NullRef refers to nothing.
const NullRef Ref = 0

// IsNull reports whether r refers to nothing.
func (r Ref) IsNull() bool {
	return r == NullRef
}

// node holds the state shared by groups and datasets.
type node struct {
	file *File
	id   int64
	path string
}

// Name returns the last component of the path ("/" for the root group).
func (n *node) Name() string {
	if n.path == "/" {
		return "/"
	}
	return path.Base(n.path)
}

// Path returns the full path to this object.
func (n *node) Path() string {
	return n.path
}

// Ref returns a reference to this object.
func (n *node) Ref() Ref {
	return Ref(n.id)
}

// File returns the file holding this object.
func (n *node) File() *File {
	return n.file
}
