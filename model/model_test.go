package model

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// buildTree returns root/A/B/{C1,C2} with uids equal to names.
func buildTree(t *testing.T) *Component {
	t.Helper()
	root := NewComponent("modeltree", "")
	a := NewComponent("A", "")
	b := NewComponent("B", "")
	require.NoError(t, root.AddChild(a))
	require.NoError(t, a.AddChild(b))
	require.NoError(t, b.AddChildren(NewComponent("C1", ""), NewComponent("C2", "")))
	return root
}

func TestComponentDefaults(t *testing.T) {
	c := NewComponent("soma", "")
	require.Equal(t, "soma", c.UID)
	require.Nil(t, c.Parent())
	require.Empty(t, c.Children())
	require.Equal(t, "/soma", c.Path())

	c = NewComponent("soma", "cell0/soma")
	require.Equal(t, "cell0/soma", c.UID)
}

func TestAddChild(t *testing.T) {
	root := buildTree(t)

	c1, err := root.Node("A/B/C1")
	require.NoError(t, err)
	require.Equal(t, "/modeltree/A/B/C1", c1.Path())
	require.Equal(t, "B", c1.Parent().Name)

	require.ErrorIs(t, root.AddChild(nil), ErrNotComponent)

	// Re-parenting detaches from the old parent
	a, err := root.Node("/A")
	require.NoError(t, err)
	require.NoError(t, a.AddChild(c1))
	require.Equal(t, "/modeltree/A/C1", c1.Path())
	b, err := root.Node("A/B")
	require.NoError(t, err)
	_, ok := b.Child("C1")
	require.False(t, ok)

	names := []string{}
	for _, child := range a.Children() {
		names = append(names, child.Name)
	}
	require.Equal(t, []string{"B", "C1"}, names)

	removed, ok := a.RemoveChild("C1")
	require.True(t, ok)
	require.Same(t, c1, removed)
	require.Nil(t, c1.Parent())
	_, ok = a.RemoveChild("C1")
	require.False(t, ok)
}

func TestNodeNotFound(t *testing.T) {
	root := buildTree(t)

	_, err := root.Node("A/X")
	require.ErrorIs(t, err, ErrNotFound)

	self, err := root.Node("")
	require.NoError(t, err)
	require.Same(t, root, self)
}

func TestVisitOrder(t *testing.T) {
	root := buildTree(t)

	var paths []string
	require.NoError(t, root.Visit(func(c *Component) error {
		paths = append(paths, c.Path())
		return nil
	}))
	require.Equal(t, []string{
		"/modeltree",
		"/modeltree/A",
		"/modeltree/A/B",
		"/modeltree/A/B/C1",
		"/modeltree/A/B/C2",
	}, paths)
}

func TestCheckUIDs(t *testing.T) {
	root := buildTree(t)
	require.Empty(t, root.CheckUIDs())

	dup := NewComponent("other", "C1")
	require.NoError(t, root.AddChild(dup))
	clashes := root.CheckUIDs()
	require.Len(t, clashes, 1)
	require.Len(t, clashes["C1"], 2)

	noUID := &Component{Name: "anon"}
	b, err := root.Node("A/B")
	require.NoError(t, err)
	require.NoError(t, b.AddChild(noUID))
	root.CheckUIDs()
	require.Equal(t, "B/anon", noUID.UID)
}

func TestPrint(t *testing.T) {
	root := NewComponent("root", "r")
	require.NoError(t, root.AddChild(NewComponent("leaf", "")))

	var buf bytes.Buffer
	require.NoError(t, root.Print(&buf))
	require.Equal(t, "root(r)\n  leaf(leaf)\n", buf.String())
}

func TestTreePaths(t *testing.T) {
	tree := NewTree(buildTree(t))

	path, ok := tree.Path("C2")
	require.True(t, ok)
	require.Equal(t, "/modeltree/A/B/C2", path)

	_, ok = tree.Path("missing")
	require.False(t, ok)

	// Changes are not seen until the cache is invalidated
	b, err := tree.Root().Node("A/B")
	require.NoError(t, err)
	require.NoError(t, b.AddChild(NewComponent("C3", "")))
	_, ok = tree.Path("C3")
	require.False(t, ok)

	tree.Invalidate()
	path, ok = tree.Path("C3")
	require.True(t, ok)
	require.Equal(t, "/modeltree/A/B/C3", path)
	require.Equal(t, 6, tree.Len())
}

func TestTreeCollisionWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	root := buildTree(t)
	require.NoError(t, root.AddChild(NewComponent("dup", "C1")))

	tree := NewTree(root, WithLogger(zap.New(core)))
	tree.Rebuild()

	path, ok := tree.Path("C1")
	require.True(t, ok)
	require.Equal(t, "/modeltree/A/B/C1", path)

	entries := logs.FilterMessage("duplicate component uid").All()
	require.Len(t, entries, 1)
	require.Equal(t, "C1", entries[0].ContextMap()["uid"])
}

func TestCommonPrefix(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"empty", nil, ""},
		{"single", []string{"/modeltree/A/B"}, "/modeltree/A/B"},
		{"siblings", []string{"/modeltree/A/B/C1", "/modeltree/A/B/C2"}, "/modeltree/A/B"},
		{"token boundary", []string{"/m/AB/x", "/m/AC/y"}, "/m"},
		{"relative", []string{"A/B/C1", "A/B/C2"}, "A/B"},
		{"disjoint", []string{"A/x", "B/y"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CommonPrefix(tt.paths))
		})
	}
}
