package container

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// newTestFile creates a writable container in a temporary directory.
func newTestFile(t *testing.T, opts ...FileOption) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.nsdf")
	f, err := Create(path, opts...)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f, path
}

func TestCreateAndOpen(t *testing.T) {
	f, path := newTestFile(t)

	if !f.IsWritable() {
		t.Error("created file should be writable")
	}
	if f.Path() != path {
		t.Errorf("Path: got %q, want %q", f.Path(), path)
	}
	if f.Root().Path() != "/" || f.Root().Name() != "/" {
		t.Errorf("root: path %q name %q", f.Root().Path(), f.Root().Name())
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Closing twice is a no-op
	if err := f.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	if f2.IsWritable() {
		t.Error("Open should return a read-only file")
	}
	if f2.Version() != 1 {
		t.Errorf("Version: got %d, want 1", f2.Version())
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.nsdf"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestOpenNotContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(path, []byte("this is not a container file, just some text padding it out"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error opening a text file")
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	f, path := newTestFile(t)
	if _, err := f.Root().CreateDataset("x", Float64, []uint64{3}); err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}
	f.Close()

	ro, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ro.Close()

	if _, err := ro.Root().CreateGroup("g"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("CreateGroup: expected ErrReadOnly, got %v", err)
	}
	if err := ro.Root().SetAttr("a", 1); !errors.Is(err, ErrReadOnly) {
		t.Errorf("SetAttr: expected ErrReadOnly, got %v", err)
	}
	ds, err := ro.OpenDataset("/x")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	if err := ds.WriteFloat64(0, 0, []float64{1}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("WriteFloat64: expected ErrReadOnly, got %v", err)
	}
}

func TestOpenReadWrite(t *testing.T) {
	f, path := newTestFile(t)
	f.Close()

	rw, err := OpenReadWrite(path)
	if err != nil {
		t.Fatalf("OpenReadWrite failed: %v", err)
	}
	if _, err := rw.Root().CreateGroup("later"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	rw.Close()

	ro, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ro.Close()
	if !ro.Root().Has("later") {
		t.Error("group created after reopening is missing")
	}
}

func TestCreateReplacesExisting(t *testing.T) {
	f, path := newTestFile(t)
	if _, err := f.Root().CreateGroup("old"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f2, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f2.Close()
	if f2.Root().Has("old") {
		t.Error("Create should start from an empty file")
	}
}

func TestClosedFile(t *testing.T) {
	f, _ := newTestFile(t)
	f.Close()

	if _, err := f.OpenGroup("/"); !errors.Is(err, ErrClosed) {
		t.Errorf("OpenGroup: expected ErrClosed, got %v", err)
	}
	if err := f.Atomic(func() error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Atomic: expected ErrClosed, got %v", err)
	}
}

func TestAtomicRollback(t *testing.T) {
	f, _ := newTestFile(t)
	boom := errors.New("boom")

	err := f.Atomic(func() error {
		g, err := f.Root().CreateGroup("partial")
		if err != nil {
			return err
		}
		if err := g.SetAttr("k", "v"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if f.Root().Has("partial") {
		t.Error("rolled back group still exists")
	}

	// The file stays usable after a rollback
	if _, err := f.Root().CreateGroup("partial"); err != nil {
		t.Fatalf("CreateGroup after rollback failed: %v", err)
	}
}

func TestAtomicCommitAndNesting(t *testing.T) {
	f, _ := newTestFile(t)

	err := f.Atomic(func() error {
		if _, err := f.Root().CreateGroup("outer"); err != nil {
			return err
		}
		return f.Atomic(func() error {
			_, err := f.Root().CreateGroup("inner")
			return err
		})
	})
	if err != nil {
		t.Fatalf("Atomic failed: %v", err)
	}
	for _, name := range []string{"outer", "inner"} {
		if !f.Root().Has(name) {
			t.Errorf("group %q missing after commit", name)
		}
	}

	// An inner failure discards the whole outer transaction
	boom := errors.New("boom")
	err = f.Atomic(func() error {
		if _, err := f.Root().CreateGroup("a"); err != nil {
			return err
		}
		return f.Atomic(func() error { return boom })
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected inner error, got %v", err)
	}
	if f.Root().Has("a") {
		t.Error("outer changes survived an inner failure")
	}
}

func TestAtomicPanic(t *testing.T) {
	f, _ := newTestFile(t)

	func() {
		defer func() { recover() }()
		f.Atomic(func() error {
			f.Root().CreateGroup("panicked")
			panic("boom")
		})
	}()

	if f.Root().Has("panicked") {
		t.Error("changes survived a panic")
	}
	if _, err := f.Root().CreateGroup("after"); err != nil {
		t.Fatalf("file unusable after panic: %v", err)
	}
}

func TestDeref(t *testing.T) {
	f, _ := newTestFile(t)
	g, err := f.Root().RequireGroup("a/b")
	if err != nil {
		t.Fatal(err)
	}
	ds, err := g.CreateDataset("d", Float64, []uint64{2})
	if err != nil {
		t.Fatal(err)
	}

	obj, err := f.Deref(ds.Ref())
	if err != nil {
		t.Fatalf("Deref failed: %v", err)
	}
	if obj.Path() != "/a/b/d" {
		t.Errorf("Deref path: got %q", obj.Path())
	}
	if _, ok := obj.(*Dataset); !ok {
		t.Errorf("Deref returned %T, want *Dataset", obj)
	}

	obj, err = f.Deref(g.Ref())
	if err != nil {
		t.Fatalf("Deref group failed: %v", err)
	}
	if _, ok := obj.(*Group); !ok {
		t.Errorf("Deref returned %T, want *Group", obj)
	}

	if _, err := f.Deref(NullRef); !errors.Is(err, ErrNotFound) {
		t.Errorf("Deref(NullRef): expected ErrNotFound, got %v", err)
	}
	if _, err := f.Deref(Ref(9999)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Deref(9999): expected ErrNotFound, got %v", err)
	}
}

func TestGetAttrByPath(t *testing.T) {
	f, _ := newTestFile(t)
	if err := f.Root().SetAttr("dialect", "ONED"); err != nil {
		t.Fatal(err)
	}
	ds, err := f.Root().CreateDataset("Vm", Float64, []uint64{1})
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.SetAttr("unit", "mV"); err != nil {
		t.Fatal(err)
	}

	v, err := f.ReadAttr("/@dialect")
	if err != nil {
		t.Fatalf("ReadAttr failed: %v", err)
	}
	if v != "ONED" {
		t.Errorf("dialect: got %v", v)
	}

	v, err = f.ReadAttr("/Vm@unit")
	if err != nil {
		t.Fatalf("ReadAttr failed: %v", err)
	}
	if v != "mV" {
		t.Errorf("unit: got %v", v)
	}

	if _, err := f.GetAttr("/Vm@missing"); !errors.Is(err, ErrAttrNotFound) {
		t.Errorf("expected ErrAttrNotFound, got %v", err)
	}
	if _, err := f.GetAttr("/nope@unit"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
