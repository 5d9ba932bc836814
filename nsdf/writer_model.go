package nsdf

import (
	"path"
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nsdf/nsdf/container"
	"github.com/nsdf/nsdf/model"
)

// Link attribute names. A model group lists the maps of its subtree under
// linkMapAttr; a map lists its model groups under linkModelAttr.
const (
	linkMapAttr   = "map"
	linkModelAttr = "model"
	uidAttr       = "uid"
)

// AddModelTree attaches root under the component at target, a path
// relative to the file's model root ("" for the root itself), and stores
// every component of root's subtree as a group under /model/modeltree.
// Component attributes are stored as group attributes.
//
// Maps created afterwards link to the closest common ancestor of their
// sources in the tree.
func (w *Writer) AddModelTree(root *model.Component, target string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if root == nil {
		return errors.Wrap(ErrValidation, "nil model component")
	}
	parent, err := w.tree.Root().Node(target)
	if err != nil {
		return wrapAs(ErrNotFound, err, "model target %q", target)
	}

	prev := root.Parent()
	if err := parent.AddChild(root); err != nil {
		return wrapAs(ErrValidation, err, "attaching %s", root.Name)
	}
	w.tree.Invalidate()

	err = w.atomic(func() error {
		return root.Visit(func(c *model.Component) error {
			return w.storeComponent(c)
		})
	})
	if err != nil {
		parent.RemoveChild(root.Name)
		if prev != nil {
			prev.AddChild(root)
		}
		w.tree.Invalidate()
		return err
	}

	for uid, clash := range w.tree.Root().CheckUIDs() {
		paths := make([]string, len(clash))
		for i, c := range clash {
			paths[i] = c.Path()
		}
		w.logger.Warn("component uid is not unique", zap.String("uid", uid), zap.Strings("paths", paths))
	}
	return nil
}

// storeComponent writes one component as a group.
func (w *Writer) storeComponent(c *model.Component) error {
	p := modelGroupPath(c.Path())
	g, err := w.f.Root().RequireGroup(p)
	if err != nil {
		return containerErr(err, "creating model group %s", p)
	}
	if err := g.SetAttr(uidAttr, c.UID); err != nil {
		return containerErr(err, "writing uid of %s", p)
	}
	for _, name := range sortedKeys(c.Attrs) {
		if name == uidAttr || name == linkMapAttr {
			return errors.Wrapf(ErrValidation, "component %s uses reserved attribute %q", c.Path(), name)
		}
		if err := g.SetAttr(name, c.Attrs[name]); err != nil {
			return containerErr(err, "writing attribute %s of %s", name, p)
		}
	}
	return nil
}

// modelGroupPath maps a component path such as /modeltree/A to its group.
func modelGroupPath(componentPath string) string {
	return path.Join("/model", componentPath)
}

// linkMap cross-references a new map and the closest common ancestor of
// its sources in the model tree. Problems are reported as warnings.
func (w *Writer) linkMap(m *MapDataset) error {
	root := w.tree.Root()
	if len(root.Children()) == 0 {
		return nil
	}

	var paths []string
	for _, uid := range m.sources {
		p, ok := w.tree.Path(uid)
		if !ok {
			w.warn(Warning{Path: m.Path(), UID: uid, Message: "source not found in model tree"})
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		w.warn(Warning{Path: m.Path(), Message: "no source found in model tree"})
		return nil
	}

	prefix := model.CommonPrefix(paths)
	if prefix == "" || prefix == root.Path() {
		w.warn(Warning{Path: m.Path(), Message: "sources have no common ancestor below the model root"})
		return nil
	}

	g, err := w.f.OpenGroup(modelGroupPath(prefix))
	if errors.Is(err, container.ErrNotFound) {
		w.warn(Warning{Path: m.Path(), Message: "common ancestor " + prefix + " is not stored"})
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "opening model group %s", prefix)
	}

	if err := appendRef(g, linkMapAttr, m.ds.Ref()); err != nil {
		return err
	}
	if err := appendRef(m.ds, linkModelAttr, g.Ref()); err != nil {
		return err
	}
	w.logger.Debug("linked map", zap.String("map", m.Path()), zap.String("model", g.Path()))
	return nil
}

// appendRef adds ref to the reference list attribute name of obj.
func appendRef(obj container.Object, name string, ref container.Ref) error {
	var refs []container.Ref
	if obj.HasAttr(name) {
		attr, err := obj.Attr(name)
		if err != nil {
			return err
		}
		if refs, err = attr.ReadRefs(); err != nil {
			return errors.Wrapf(err, "reading %s of %s", name, obj.Path())
		}
	}
	if slices.Contains(refs, ref) {
		return nil
	}
	return obj.SetAttr(name, append(refs, ref))
}

// loadModelTree rebuilds the component tree stored under
// /model/modeltree. Link attributes are not part of the components.
func loadModelTree(f *container.File) (*model.Component, error) {
	top, err := f.OpenGroup("/model/" + modelRootName)
	if err != nil {
		return nil, readErr(err, "opening model tree")
	}

	nodes := map[string]*model.Component{}
	var root *model.Component
	err = container.Walk(top, func(p string, obj container.Object, err error) error {
		if err != nil {
			return err
		}
		if _, ok := obj.(*container.Group); !ok {
			return nil
		}

		uid := ""
		if attr, err := obj.Attr(uidAttr); err == nil {
			if uid, err = attr.ReadScalarString(); err != nil {
				return errors.Wrapf(err, "uid of %s", p)
			}
		}
		c := model.NewComponent(obj.Name(), uid)
		names, err := obj.Attrs()
		if err != nil {
			return err
		}
		for _, name := range names {
			if name == uidAttr || name == linkMapAttr {
				continue
			}
			attr, err := obj.Attr(name)
			if err != nil {
				return err
			}
			if c.Attrs[name], err = attr.Value(); err != nil {
				return errors.Wrapf(err, "attribute %s of %s", name, p)
			}
		}

		nodes[p] = c
		if p == top.Path() {
			root = c
			return nil
		}
		parent, ok := nodes[path.Dir(p)]
		if !ok {
			return errors.Errorf("model group %s has no parent component", p)
		}
		return parent.AddChild(c)
	})
	if err != nil {
		return nil, readErr(err, "loading model tree")
	}
	return root, nil
}
