package cache

import (
	"errors"
	"testing"

	"github.com/cortical-data/scalp.sim/internal/fsutil"
)

type artifact struct {
	Name  string
	Value float64
}

func TestGetOrComputeMemoizes(t *testing.T) {
	t.Parallel()
	store := NewWithFS("cache", fsutil.NewMemory())

	calls := 0
	compute := func() (artifact, error) {
		calls++
		return artifact{Name: "mixing-sub-01-geodesic", Value: 42}, nil
	}

	first, err := GetOrCompute(store, "mixing-sub-01-geodesic", compute)
	if err != nil {
		t.Fatalf("first GetOrCompute: %v", err)
	}
	second, err := GetOrCompute(store, "mixing-sub-01-geodesic", compute)
	if err != nil {
		t.Fatalf("second GetOrCompute: %v", err)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
	if first != second {
		t.Errorf("cached artifact differs: %+v vs %+v", first, second)
	}
}

func TestGetOrComputePropagatesComputeError(t *testing.T) {
	t.Parallel()
	store := NewWithFS("cache", fsutil.NewMemory())
	wantErr := errors.New("no forward solution")

	_, err := GetOrCompute(store, "forward-sub-02", func() (artifact, error) {
		return artifact{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want wrapped compute error", err)
	}
	// A failed compute must not poison the cache.
	got, err := GetOrCompute(store, "forward-sub-02", func() (artifact, error) {
		return artifact{Value: 7}, nil
	})
	if err != nil || got.Value != 7 {
		t.Fatalf("recovery compute got (%+v, %v)", got, err)
	}
}

func TestInvalidateForcesRecompute(t *testing.T) {
	t.Parallel()
	store := NewWithFS("cache", fsutil.NewMemory())

	calls := 0
	compute := func() (artifact, error) {
		calls++
		return artifact{Value: float64(calls)}, nil
	}
	if _, err := GetOrCompute(store, "model", compute); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if err := store.Invalidate("model"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	got, err := GetOrCompute(store, "model", compute)
	if err != nil {
		t.Fatalf("GetOrCompute after invalidate: %v", err)
	}
	if got.Value != 2 {
		t.Errorf("expected recompute after invalidate, got %+v", got)
	}
}

func TestRejectsUnsafeKey(t *testing.T) {
	t.Parallel()
	store := NewWithFS("cache", fsutil.NewMemory())
	if _, err := GetOrCompute(store, "../escape", func() (artifact, error) {
		return artifact{}, nil
	}); err == nil {
		t.Fatal("expected error for unsafe key")
	}
}

func TestCorruptEntryRecomputed(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemory()
	store := NewWithFS("cache", fs)
	if err := fs.WriteFile("cache/model.gob", []byte("not gob"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := GetOrCompute(store, "model", func() (artifact, error) {
		return artifact{Value: 5}, nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if got.Value != 5 {
		t.Errorf("got %+v, want recomputed artifact", got)
	}
}
