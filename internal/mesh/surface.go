package mesh

import (
	"fmt"
	"math"
)

// Surface is a triangulated cortical surface. Faces use zero-based vertex
// indices; NewSurface tolerates one-based face lists (the convention of
// several anatomy toolchains) and shifts them down.
type Surface struct {
	// Vertices holds 3D coordinates, left-hemisphere block first.
	Vertices [][3]float64

	// Faces holds triangles as triples of indices into Vertices.
	Faces [][3]int

	// HemisphereSplit is the index of the first right-hemisphere vertex.
	// Vertices[:HemisphereSplit] belong to the left hemisphere.
	HemisphereSplit int
}

// NewSurface builds a Surface from raw vertex and face lists, normalising
// one-based face indexing and validating that every face index is in range.
func NewSurface(vertices [][3]float64, faces [][3]int, hemisphereSplit int) (*Surface, error) {
	s := &Surface{
		Vertices:        vertices,
		Faces:           faces,
		HemisphereSplit: hemisphereSplit,
	}
	if len(faces) > 0 && oneBased(faces, len(vertices)) {
		shifted := make([][3]int, len(faces))
		for i, f := range faces {
			shifted[i] = [3]int{f[0] - 1, f[1] - 1, f[2] - 1}
		}
		s.Faces = shifted
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// oneBased reports whether a face list looks one-based: no zero index
// anywhere and at least one index equal to the vertex count.
func oneBased(faces [][3]int, nVertices int) bool {
	minIdx, maxIdx := math.MaxInt, 0
	for _, f := range faces {
		for _, v := range f {
			if v < minIdx {
				minIdx = v
			}
			if v > maxIdx {
				maxIdx = v
			}
		}
	}
	return minIdx >= 1 && maxIdx == nVertices
}

// Validate checks structural invariants: face indices in range and a
// hemisphere split within the vertex count.
func (s *Surface) Validate() error {
	n := len(s.Vertices)
	for i, f := range s.Faces {
		for _, v := range f {
			if v < 0 || v >= n {
				return fmt.Errorf("face %d references vertex %d, out of range [0,%d)", i, v, n)
			}
		}
	}
	if s.HemisphereSplit < 0 || s.HemisphereSplit > n {
		return fmt.Errorf("hemisphere split %d out of range [0,%d]", s.HemisphereSplit, n)
	}
	return nil
}

// NumVertices returns the vertex count.
func (s *Surface) NumVertices() int { return len(s.Vertices) }

// euclidean returns the straight-line distance between two vertices.
func euclidean(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
