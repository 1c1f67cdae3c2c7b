package roi

import (
	"log"
	"sort"

	"github.com/cortical-data/scalp.sim/internal/mesh"
)

// AutoCenter asks Resize to pick the central vertex itself.
const AutoCenter = -1

// ResizeResult holds a region shrunk to a radius around its center.
type ResizeResult struct {
	// Region is the resized region (full-surface vertex indices).
	Region Region

	// Patch is the resized region's geometry (intersect-mode faces); may be
	// empty when the selected vertices share no face.
	Patch mesh.Patch

	// Center is the full-surface index of the central vertex.
	Center int

	// Distances holds, per selected vertex, its distance from the center,
	// aligned with Region.Vertices.
	Distances []float64

	// Radius is the selection radius: the center distance of the farthest
	// selected vertex.
	Radius float64
}

// Empty reports whether the resize produced no vertices.
func (r ResizeResult) Empty() bool { return len(r.Region.Vertices) == 0 }

// Resize shrinks (or keeps) a region to targetSize vertices around a central
// vertex. When center is AutoCenter, the vertex minimising the summed
// distance to all other region vertices is chosen. The radius is the inverse
// empirical CDF of center distance at the target count; ties are broken by
// vertex order so exactly min(targetSize, |region|) vertices are returned
// for a connected region.
//
// An empty region or a target larger than the region are degenerate, not
// errors: they produce an empty result or the full region, each with a
// warning.
func Resize(s *mesh.Surface, region Region, targetSize int, dtype mesh.DistanceType, center int) (ResizeResult, error) {
	n := region.Size()
	if n == 0 {
		log.Printf("roi: region %s (%s) is empty; returning empty resize result", region.Name, region.Subject)
		return ResizeResult{Region: derived(region, nil), Center: -1}, nil
	}
	if targetSize > n {
		log.Printf("roi: region %s has %d vertices, requested %d; clamping to full region", region.Name, n, targetSize)
		targetSize = n
	}
	if targetSize < 1 {
		targetSize = 1
	}

	d, err := mesh.RegionDistances(s, region.Vertices, dtype)
	if err != nil {
		return ResizeResult{}, err
	}

	// Locate the center within the region.
	centerPos := -1
	if center == AutoCenter {
		best := 0.0
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				sum += d.At(i, j)
			}
			if centerPos < 0 || sum < best {
				centerPos, best = i, sum
			}
		}
	} else {
		for i, v := range region.Vertices {
			if v == center {
				centerPos = i
				break
			}
		}
		if centerPos < 0 {
			log.Printf("roi: center vertex %d not in region %s; falling back to automatic center", center, region.Name)
			return Resize(s, region, targetSize, dtype, AutoCenter)
		}
	}

	// Order vertices by (distance from center, position) and take the first
	// targetSize. Stable tie-breaking keeps the selected count exact.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return d.At(centerPos, order[a]) < d.At(centerPos, order[b])
	})

	selected := make([]int, 0, targetSize)
	distances := make([]float64, 0, targetSize)
	radius := 0.0
	for _, pos := range order[:targetSize] {
		selected = append(selected, region.Vertices[pos])
		dist := d.At(centerPos, pos)
		distances = append(distances, dist)
		if dist > radius {
			radius = dist
		}
	}

	patch, err := mesh.Subsample(s, selected, mesh.FaceIntersect)
	if err != nil {
		return ResizeResult{}, err
	}
	return ResizeResult{
		Region:    derived(region, selected),
		Patch:     patch,
		Center:    region.Vertices[centerPos],
		Distances: distances,
		Radius:    radius,
	}, nil
}

// derived returns a new Region value with the same identity and a new
// vertex set.
func derived(r Region, vertices []int) Region {
	r.Vertices = vertices
	return r
}
