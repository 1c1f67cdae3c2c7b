package mesh

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// squareSurface returns a flat unit square split into two triangles:
//
//	2---3
//	| \ |
//	0---1
func squareSurface(t *testing.T) *Surface {
	t.Helper()
	s, err := NewSurface(
		[][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		[][3]int{{0, 1, 2}, {1, 3, 2}},
		4,
	)
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	return s
}

// splitSurface returns two triangles with no shared vertices or edges.
func splitSurface(t *testing.T) *Surface {
	t.Helper()
	s, err := NewSurface(
		[][3]float64{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{10, 0, 0}, {11, 0, 0}, {10, 1, 0},
		},
		[][3]int{{0, 1, 2}, {3, 4, 5}},
		6,
	)
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	return s
}

func TestNewSurfaceValidation(t *testing.T) {
	t.Parallel()

	t.Run("rejects out of range face index", func(t *testing.T) {
		t.Parallel()
		_, err := NewSurface([][3]float64{{0, 0, 0}, {1, 0, 0}}, [][3]int{{0, 1, 5}}, 2)
		if err == nil {
			t.Fatal("expected error for out-of-range face index")
		}
	})

	t.Run("shifts one-based faces", func(t *testing.T) {
		t.Parallel()
		s, err := NewSurface(
			[][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			[][3]int{{1, 2, 3}},
			3,
		)
		if err != nil {
			t.Fatalf("NewSurface: %v", err)
		}
		want := [][3]int{{0, 1, 2}}
		if diff := cmp.Diff(want, s.Faces); diff != "" {
			t.Errorf("faces mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestSubsample(t *testing.T) {
	t.Parallel()

	t.Run("intersect keeps only fully contained faces", func(t *testing.T) {
		t.Parallel()
		s := squareSurface(t)
		p, err := Subsample(s, []int{0, 1, 2}, FaceIntersect)
		if err != nil {
			t.Fatalf("Subsample: %v", err)
		}
		if len(p.Faces) != 1 {
			t.Fatalf("got %d faces, want 1", len(p.Faces))
		}
		if diff := cmp.Diff([]int{0, 1, 2}, p.OriginalIndex); diff != "" {
			t.Errorf("original indices mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("union pulls in one-ring neighbours", func(t *testing.T) {
		t.Parallel()
		s := squareSurface(t)
		p, err := Subsample(s, []int{3}, FaceUnion)
		if err != nil {
			t.Fatalf("Subsample: %v", err)
		}
		// Face {1,3,2} touches vertex 3, so vertices 1 and 2 come along.
		if diff := cmp.Diff([]int{1, 2, 3}, p.OriginalIndex); diff != "" {
			t.Errorf("original indices mismatch (-want +got):\n%s", diff)
		}
		// Vertices 1 and 2 are not subset members.
		if diff := cmp.Diff([]int{-1, -1, 0}, p.SubsetPosition); diff != "" {
			t.Errorf("subset positions mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("face indices valid against patch vertices", func(t *testing.T) {
		t.Parallel()
		s := squareSurface(t)
		p, err := Subsample(s, []int{1, 2, 3}, FaceIntersect)
		if err != nil {
			t.Fatalf("Subsample: %v", err)
		}
		for _, f := range p.Faces {
			for _, v := range f {
				if v < 0 || v >= len(p.Vertices) {
					t.Fatalf("face index %d out of range against %d patch vertices", v, len(p.Vertices))
				}
			}
		}
	})

	t.Run("empty result when no face qualifies", func(t *testing.T) {
		t.Parallel()
		s := squareSurface(t)
		p, err := Subsample(s, []int{0, 3}, FaceIntersect)
		if err != nil {
			t.Fatalf("Subsample: %v", err)
		}
		if !p.Empty() {
			t.Errorf("expected empty patch, got %d vertices", len(p.Vertices))
		}
	})

	t.Run("rejects unknown mode", func(t *testing.T) {
		t.Parallel()
		s := squareSurface(t)
		if _, err := Subsample(s, []int{0}, FaceMode("bogus")); err == nil {
			t.Fatal("expected error for unknown face mode")
		}
	})
}

func TestDistancesSymmetryAndDiagonal(t *testing.T) {
	t.Parallel()

	for _, dtype := range []DistanceType{DistanceEuclidean, DistanceGeodesic} {
		t.Run(string(dtype), func(t *testing.T) {
			t.Parallel()
			s := squareSurface(t)
			d, err := Distances(s, []int{0, 1, 2, 3}, dtype)
			if err != nil {
				t.Fatalf("Distances: %v", err)
			}
			n := d.SymmetricDim()
			for i := 0; i < n; i++ {
				if d.At(i, i) != 0 {
					t.Errorf("diagonal [%d][%d] = %v, want 0", i, i, d.At(i, i))
				}
				for j := 0; j < n; j++ {
					if math.Abs(d.At(i, j)-d.At(j, i)) > 1e-12 {
						t.Errorf("asymmetry at [%d][%d]: %v vs %v", i, j, d.At(i, j), d.At(j, i))
					}
				}
			}
		})
	}
}

func TestGeodesicFollowsEdges(t *testing.T) {
	t.Parallel()
	s := squareSurface(t)
	d, err := Distances(s, []int{0, 3}, DistanceGeodesic)
	if err != nil {
		t.Fatalf("Distances: %v", err)
	}
	// No direct edge 0-3: the shortest path goes through vertex 1 or 2,
	// length 2, versus sqrt(2) straight-line.
	if got := d.At(0, 1); math.Abs(got-2) > 1e-12 {
		t.Errorf("geodesic 0->3 = %v, want 2", got)
	}
}

func TestDisconnectedPairsClampedToSentinel(t *testing.T) {
	t.Parallel()
	s := splitSurface(t)
	d, err := Distances(s, []int{0, 3}, DistanceGeodesic)
	if err != nil {
		t.Fatalf("Distances: %v", err)
	}
	if got := d.At(0, 1); got != UnreachableDistance {
		t.Errorf("disconnected pair distance = %v, want sentinel %v", got, UnreachableDistance)
	}
	if got := d.At(0, 0); got != 0 {
		t.Errorf("diagonal = %v, want 0", got)
	}
}

func TestRegionDistancesRestrictedToPatch(t *testing.T) {
	t.Parallel()
	s := splitSurface(t)
	// Region spans both islands: cross-island distances must be sentinel,
	// within-island distances real.
	d, err := RegionDistances(s, []int{0, 1, 3}, DistanceGeodesic)
	if err != nil {
		t.Fatalf("RegionDistances: %v", err)
	}
	if got := d.At(0, 1); math.Abs(got-1) > 1e-12 {
		t.Errorf("within-island distance = %v, want 1", got)
	}
	if got := d.At(0, 2); got != UnreachableDistance {
		t.Errorf("cross-island distance = %v, want sentinel", got)
	}
}

func TestParseDistanceType(t *testing.T) {
	t.Parallel()
	if _, err := ParseDistanceType("euclidean"); err != nil {
		t.Errorf("euclidean: %v", err)
	}
	if _, err := ParseDistanceType("geodesic"); err != nil {
		t.Errorf("geodesic: %v", err)
	}
	if _, err := ParseDistanceType("manhattan"); err == nil {
		t.Error("expected error for unknown distance type")
	}
}
