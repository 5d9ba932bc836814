package container

import (
	"errors"
	"reflect"
	"testing"
)

func TestRaggedAppend(t *testing.T) {
	f, path := newTestFile(t)

	ds, err := f.Root().CreateRaggedDataset("spikes", Float64, 3, WithCompression())
	if err != nil {
		t.Fatalf("CreateRaggedDataset failed: %v", err)
	}
	if !ds.IsRagged() {
		t.Fatal("expected ragged dataset")
	}

	if err := ds.AppendRow(0, []float64{0.1, 0.2}); err != nil {
		t.Fatal(err)
	}
	if err := ds.AppendRow(2, []float64{1.5}); err != nil {
		t.Fatal(err)
	}
	if err := ds.AppendRow(0, []float64{0.3}); err != nil {
		t.Fatal(err)
	}
	if err := ds.AppendRow(1, nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()
	ds, err = f2.OpenDataset("/spikes")
	if err != nil {
		t.Fatal(err)
	}

	rows, err := ds.ReadAllFloat64()
	if err != nil {
		t.Fatalf("ReadAllFloat64 failed: %v", err)
	}
	want := [][]float64{{0.1, 0.2, 0.3}, {}, {1.5}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("got %v, want %v", rows, want)
	}

	lens, err := ds.RowLens()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lens, []int{3, 0, 1}) {
		t.Errorf("RowLens: got %v", lens)
	}
	n, err := ds.RowLen(0)
	if err != nil || n != 3 {
		t.Errorf("RowLen(0): got %d, %v", n, err)
	}
}

func TestRaggedLimits(t *testing.T) {
	f, _ := newTestFile(t)

	ds, err := f.Root().CreateRaggedDataset("r", Float64, 1, WithMaxDims(2, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ds.MaxDims(), []uint64{2, 3}) {
		t.Errorf("MaxDims: got %v", ds.MaxDims())
	}

	if err := ds.AppendRow(0, []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := ds.AppendRow(0, []float64{3, 4}); !errors.Is(err, ErrMaxDims) {
		t.Errorf("row overflow: expected ErrMaxDims, got %v", err)
	}
	if err := ds.AppendRow(1, []float64{1}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("missing row: expected ErrOutOfRange, got %v", err)
	}

	if err := ds.Resize(2); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if err := ds.AppendRow(1, []float64{1}); err != nil {
		t.Errorf("append to new row: %v", err)
	}
	if err := ds.Resize(3); !errors.Is(err, ErrMaxDims) {
		t.Errorf("too many rows: expected ErrMaxDims, got %v", err)
	}

	got, err := ds.ReadRow(0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []float64{1, 2}) {
		t.Errorf("failed append changed the row: %v", got)
	}
}

func TestRaggedOnRegular(t *testing.T) {
	f, _ := newTestFile(t)

	ds, err := f.Root().CreateDataset("x", Float64, []uint64{2})
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.AppendRow(0, []float64{1}); !errors.Is(err, ErrNotRagged) {
		t.Errorf("expected ErrNotRagged, got %v", err)
	}

	rag, err := f.Root().CreateRaggedDataset("r", Float64, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rag.ReadFloat64(0, 0, 1); !errors.Is(err, ErrNotDataset) {
		t.Errorf("expected ErrNotDataset, got %v", err)
	}
}
