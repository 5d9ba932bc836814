package container

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseAttrPath(t *testing.T) {
	tests := []struct {
		path       string
		wantObject string
		wantAttr   string
		wantErr    bool
	}{
		{"/@root_attr", "/", "root_attr", false},
		{"/data@units", "/data", "units", false},
		{"/group/dataset@attr", "/group/dataset", "attr", false},
		{"/a/b/c@d", "/a/b/c", "d", false},
		{"/map/cell@soma@unit", "/map/cell@soma", "unit", false},
		{"data@attr", "/data", "attr", false}, // relative path normalized
		{"", "", "", true},                    // empty
		{"/path/no/at", "", "", true},         // missing @
		{"/path@", "", "", true},              // empty attr name
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			obj, attr, err := ParseAttrPath(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("expected ErrInvalidPath for %q, got %v", tt.path, err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error for %q: %v", tt.path, err)
				return
			}
			if obj != tt.wantObject {
				t.Errorf("object path: got %q, want %q", obj, tt.wantObject)
			}
			if attr != tt.wantAttr {
				t.Errorf("attr name: got %q, want %q", attr, tt.wantAttr)
			}
		})
	}
}

func TestJoinAttrPath(t *testing.T) {
	tests := []struct {
		objectPath string
		attrName   string
		want       string
	}{
		{"/", "attr", "/@attr"},
		{"/data", "units", "/data@units"},
		{"/group/dataset", "calibration", "/group/dataset@calibration"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := JoinAttrPath(tt.objectPath, tt.attrName)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	tests := []struct {
		path  string
		parts []string
		clean string
	}{
		{"/", []string{}, "/"},
		{"", []string{}, "/"},
		{"/map/uniform", []string{"map", "uniform"}, "/map/uniform"},
		{"map//uniform/", []string{"map", "uniform"}, "/map/uniform"},
	}

	for _, tt := range tests {
		if got := SplitPath(tt.path); !reflect.DeepEqual(got, tt.parts) {
			t.Errorf("SplitPath(%q): got %v, want %v", tt.path, got, tt.parts)
		}
		if got := CleanPath(tt.path); got != tt.clean {
			t.Errorf("CleanPath(%q): got %q, want %q", tt.path, got, tt.clean)
		}
	}

	if got := JoinPath("/", "a"); got != "/a" {
		t.Errorf("JoinPath root: got %q", got)
	}
	if got := JoinPath("/a", "b"); got != "/a/b" {
		t.Errorf("JoinPath: got %q", got)
	}
}

func buildWalkTree(t *testing.T) *File {
	t.Helper()
	f, _ := newTestFile(t)
	root := f.Root()

	data, err := root.RequireGroup("data/uniform")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := data.CreateDataset("Vm", Float64, []uint64{1}); err != nil {
		t.Fatal(err)
	}
	if _, err := root.RequireGroup("map"); err != nil {
		t.Fatal(err)
	}
	if _, err := root.CreateDataset("top", Float64, []uint64{1}); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestWalk(t *testing.T) {
	f := buildWalkTree(t)

	var paths []string
	err := Walk(f.Root(), func(path string, obj Object, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"/", "/data", "/data/uniform", "/data/uniform/Vm", "/map", "/top"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("got %v, want %v", paths, want)
	}
}

func TestWalkSkipGroup(t *testing.T) {
	f := buildWalkTree(t)

	var paths []string
	err := Walk(f.Root(), func(path string, obj Object, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(path, "/data") {
			return SkipGroup
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"/", "/map", "/top"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("got %v, want %v", paths, want)
	}
}

func TestWalkStop(t *testing.T) {
	f := buildWalkTree(t)
	stop := errors.New("stop")

	count := 0
	err := Walk(f.Root(), func(path string, obj Object, err error) error {
		count++
		if _, ok := obj.(*Dataset); ok {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("expected stop error, got %v", err)
	}
	if count != 4 {
		t.Errorf("callback ran %d times, want 4", count)
	}
}
