package container

import (
	"errors"
	"reflect"
	"testing"
)

func TestCreateGroup(t *testing.T) {
	f, path := newTestFile(t)

	grp, err := f.Root().CreateGroup("mygroup")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if grp.Name() != "mygroup" {
		t.Errorf("Expected group name 'mygroup', got '%s'", grp.Name())
	}
	if grp.Path() != "/mygroup" {
		t.Errorf("Expected path '/mygroup', got '%s'", grp.Path())
	}
	f.Close()

	// Reopen and verify
	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	grp2, err := f2.Root().OpenGroup("mygroup")
	if err != nil {
		t.Fatalf("OpenGroup failed: %v", err)
	}
	if grp2.Name() != "mygroup" {
		t.Errorf("Expected group name 'mygroup' after reopen, got '%s'", grp2.Name())
	}
}

func TestCreateGroupErrors(t *testing.T) {
	f, _ := newTestFile(t)

	if _, err := f.Root().CreateGroup("dup"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Root().CreateGroup("dup"); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate: expected ErrExists, got %v", err)
	}

	for _, name := range []string{"", ".", "..", "a/b"} {
		if _, err := f.Root().CreateGroup(name); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("name %q: expected ErrInvalidPath, got %v", name, err)
		}
	}

	// Source ids often carry '@'
	if _, err := f.Root().CreateGroup("cell@soma"); err != nil {
		t.Errorf("name with '@': %v", err)
	}
}

func TestRequireGroup(t *testing.T) {
	f, _ := newTestFile(t)

	g, err := f.Root().RequireGroup("/map/uniform/")
	if err != nil {
		t.Fatalf("RequireGroup failed: %v", err)
	}
	if g.Path() != "/map/uniform" {
		t.Errorf("path: got %q", g.Path())
	}

	// Existing groups are reused
	again, err := f.Root().RequireGroup("map/uniform")
	if err != nil {
		t.Fatalf("second RequireGroup failed: %v", err)
	}
	if again.Ref() != g.Ref() {
		t.Errorf("RequireGroup created a second group")
	}

	if _, err := f.Root().CreateDataset("ds", Float64, []uint64{1}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Root().RequireGroup("ds/x"); !errors.Is(err, ErrNotGroup) {
		t.Errorf("through a dataset: expected ErrNotGroup, got %v", err)
	}
}

func TestGroupMembers(t *testing.T) {
	f, _ := newTestFile(t)
	root := f.Root()

	for _, name := range []string{"zeta", "alpha"} {
		if _, err := root.CreateGroup(name); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := root.CreateDataset("mid", Float64, []uint64{1}); err != nil {
		t.Fatal(err)
	}
	if _, err := root.CreateRaggedDataset("rag", Float64, 2); err != nil {
		t.Fatal(err)
	}

	members, err := root.Members()
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if want := []string{"alpha", "mid", "rag", "zeta"}; !reflect.DeepEqual(members, want) {
		t.Errorf("Members: got %v, want %v", members, want)
	}

	n, err := root.NumObjects()
	if err != nil || n != 4 {
		t.Errorf("NumObjects: got %d, %v", n, err)
	}

	groups, err := root.Groups()
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 || groups[0].Name() != "alpha" || groups[1].Name() != "zeta" {
		t.Errorf("Groups: got %d groups", len(groups))
	}

	datasets, err := root.Datasets()
	if err != nil {
		t.Fatal(err)
	}
	if len(datasets) != 2 || datasets[0].Name() != "mid" || !datasets[1].IsRagged() {
		t.Errorf("Datasets: unexpected result")
	}
}

func TestOpenWrongKind(t *testing.T) {
	f, _ := newTestFile(t)
	if _, err := f.Root().CreateGroup("g"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Root().CreateDataset("d", Float64, []uint64{1}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.OpenDataset("/g"); !errors.Is(err, ErrNotDataset) {
		t.Errorf("expected ErrNotDataset, got %v", err)
	}
	if _, err := f.OpenGroup("/d"); !errors.Is(err, ErrNotGroup) {
		t.Errorf("expected ErrNotGroup, got %v", err)
	}
	if _, err := f.OpenGroup("/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
