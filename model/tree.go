package model

import (
	"strings"

	"go.uber.org/zap"
)

// Tree wraps a root component with a uid to path cache.
//
// The cache is built on first lookup and is never refreshed implicitly:
// after changing the tree, call Invalidate or Rebuild.
type Tree struct {
	root   *Component
	logger *zap.Logger
	paths  map[string]string
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithLogger sets the logger used to report uid collisions.
func WithLogger(logger *zap.Logger) TreeOption {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTree returns a tree rooted at root.
func NewTree(root *Component, opts ...TreeOption) *Tree {
	t := &Tree{root: root, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the root component.
func (t *Tree) Root() *Component {
	return t.root
}

// Rebuild walks the whole tree and refills the uid to path cache. When two
// components share a uid the first one visited keeps it and a warning is
// logged.
func (t *Tree) Rebuild() {
	paths := map[string]string{}
	t.root.Visit(func(c *Component) error {
		path := c.Path()
		if prev, ok := paths[c.UID]; ok {
			t.logger.Warn("duplicate component uid",
				zap.String("uid", c.UID),
				zap.String("kept", prev),
				zap.String("ignored", path))
			return nil
		}
		paths[c.UID] = path
		return nil
	})
	t.paths = paths
}

// Invalidate drops the cache; the next lookup rebuilds it.
func (t *Tree) Invalidate() {
	t.paths = nil
}

// Path returns the path of the component with the given uid.
func (t *Tree) Path(uid string) (string, bool) {
	if t.paths == nil {
		t.Rebuild()
	}
	path, ok := t.paths[uid]
	return path, ok
}

// Len returns the number of distinct uids in the tree.
func (t *Tree) Len() int {
	if t.paths == nil {
		t.Rebuild()
	}
	return len(t.paths)
}

// CommonPrefix returns the longest shared prefix of slash-separated paths,
// compared element by element. It returns "" when paths is empty or the
// paths share no element. The result has a leading slash when the first
// path has one.
func CommonPrefix(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	prefix := splitPath(paths[0])
	for _, p := range paths[1:] {
		tokens := splitPath(p)
		n := 0
		for n < len(prefix) && n < len(tokens) && prefix[n] == tokens[n] {
			n++
		}
		prefix = prefix[:n]
	}
	if len(prefix) == 0 {
		return ""
	}

	joined := strings.Join(prefix, "/")
	if strings.HasPrefix(paths[0], "/") {
		return "/" + joined
	}
	return joined
}

func splitPath(path string) []string {
	var out []string
	for _, tok := range strings.Split(path, "/") {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
