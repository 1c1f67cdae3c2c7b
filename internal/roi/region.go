package roi

import (
	"fmt"

	"github.com/cortical-data/scalp.sim/internal/mesh"
)

// Hemisphere tags which side of the cortex a region belongs to.
type Hemisphere string

const (
	HemiLeft  Hemisphere = "L"
	HemiRight Hemisphere = "R"
	HemiBoth  Hemisphere = "B"
)

// Region is a named subset of mesh vertices belonging to an atlas and a
// subject. Regions are values: resizing produces a new Region, never a
// mutation.
type Region struct {
	Name     string
	Atlas    string
	Subject  string
	Hemi     Hemisphere
	Vertices []int
}

// Size returns the vertex count.
func (r Region) Size() int { return len(r.Vertices) }

// Validate checks that vertex indices are unique and valid for the surface.
func (r Region) Validate(s *mesh.Surface) error {
	seen := make(map[int]bool, len(r.Vertices))
	for _, v := range r.Vertices {
		if v < 0 || v >= s.NumVertices() {
			return fmt.Errorf("region %s: vertex %d out of range [0,%d)", r.Name, v, s.NumVertices())
		}
		if seen[v] {
			return fmt.Errorf("region %s: duplicate vertex %d", r.Name, v)
		}
		seen[v] = true
	}
	return nil
}
