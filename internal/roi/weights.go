package roi

import (
	"fmt"
	"log"
	"math"

	"github.com/cortical-data/scalp.sim/internal/mesh"
)

// SpatialProfile names the per-vertex weighting function used to spread a
// seed signal over a resized region.
type SpatialProfile string

const (
	// ProfileUniform puts weight 1.0 on every selected vertex.
	ProfileUniform SpatialProfile = "uniform"

	// ProfileGaussian weights vertices by exp(-d²/(2·(r/2)²)) where d is the
	// distance from the region center and r the resize radius.
	ProfileGaussian SpatialProfile = "gaussian"
)

// ParseSpatialProfile validates a profile name. Unknown names are a
// configuration error.
func ParseSpatialProfile(name string) (SpatialProfile, error) {
	switch SpatialProfile(name) {
	case ProfileUniform, ProfileGaussian:
		return SpatialProfile(name), nil
	}
	return "", fmt.Errorf("unsupported spatial profile %q (want %q or %q)", name, ProfileUniform, ProfileGaussian)
}

// WeightColumn maps mesh vertices to injection weights for one seed region.
// A degenerate region yields an empty column (contributes no signal); that
// is a valid state, not an error.
type WeightColumn struct {
	// Vertices are full-surface vertex indices, aligned with Weights.
	Vertices []int

	// Weights are the per-vertex injection weights.
	Weights []float64

	// Resize is the resize result the weights were derived from.
	Resize ResizeResult
}

// Empty reports whether the column carries no weight.
func (w WeightColumn) Empty() bool { return len(w.Vertices) == 0 }

// Weights resizes a region to targetSize vertices and assigns per-vertex
// weights according to the profile. A region with zero resolvable vertices
// yields an empty (all-zero) column with a warning.
func Weights(s *mesh.Surface, region Region, targetSize int, dtype mesh.DistanceType, profile SpatialProfile) (WeightColumn, error) {
	if _, err := ParseSpatialProfile(string(profile)); err != nil {
		return WeightColumn{}, err
	}

	res, err := Resize(s, region, targetSize, dtype, AutoCenter)
	if err != nil {
		return WeightColumn{}, err
	}
	if res.Empty() {
		log.Printf("roi: region %s resolved to zero vertices; weight column is empty", region.Name)
		return WeightColumn{Resize: res}, nil
	}

	weights := make([]float64, len(res.Region.Vertices))
	switch profile {
	case ProfileUniform:
		for i := range weights {
			weights[i] = 1.0
		}
	case ProfileGaussian:
		sigma := res.Radius / 2
		for i, d := range res.Distances {
			if sigma == 0 {
				// Single-vertex or zero-radius region: all mass at center.
				weights[i] = 1.0
				continue
			}
			weights[i] = math.Exp(-d * d / (2 * sigma * sigma))
		}
	}
	return WeightColumn{
		Vertices: res.Region.Vertices,
		Weights:  weights,
		Resize:   res,
	}, nil
}
