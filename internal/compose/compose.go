// Package compose places seed time-series signals into the cortical source
// space, blends them with synthesized noise at a configured SNR, and
// projects the result through a subject's forward matrix to sensor space.
//
// The blend is renormalized by its Frobenius norm after both components
// were already normalized individually. Signal and noise are uncorrelated
// only in expectation, not per draw, so this second stage is an
// approximation; it is preserved deliberately for compatibility with the
// reference pipeline.
package compose

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"

	"github.com/cortical-data/scalp.sim/internal/mesh"
	"github.com/cortical-data/scalp.sim/internal/noise"
	"github.com/cortical-data/scalp.sim/internal/roi"
)

// Inputs bundles everything needed to compose one subject's simulated EEG.
type Inputs struct {
	// Regions holds one seed region per signal column.
	Regions []roi.Region

	// Forward is the subject's forward matrix (sensors × sources).
	Forward *mat.Dense

	// Surface is the subject's cortical surface.
	Surface *mesh.Surface

	// Signal holds the seed time series (samples × seeds).
	Signal *mat.Dense

	// Noise holds one synthesized noise matrix (samples × sources) per
	// trial, already normalized with the same policy as Normalization.
	Noise []*mat.Dense

	// Lambda is the SNR parameter: source = (λ/(λ+1))·signal +
	// (1/(λ+1))·noise.
	Lambda float64

	// ROISize is the target vertex count each seed region is resized to.
	ROISize int

	// Profile is the spatial weighting profile.
	Profile roi.SpatialProfile

	// DistanceType is the metric used for region resizing.
	DistanceType mesh.DistanceType

	// Normalization is applied to the source-space signal before blending.
	Normalization noise.Policy
}

// Result is the composed output for one subject.
type Result struct {
	// Sensor holds per-trial sensor time series (samples × sensors).
	Sensor []*mat.Dense

	// Source holds per-trial source time series (samples × sources).
	Source []*mat.Dense

	// UsedRegions holds, per seed, the resized vertex set actually used.
	UsedRegions [][]int

	// Skipped is set when a data-availability problem (for example a
	// region/signal count mismatch) produced empty results.
	Skipped bool
}

// Compose builds the source-space signal from the seed regions, blends it
// with each trial's noise and projects to sensor space. A region/signal
// count mismatch is a data-availability condition: it yields an empty,
// Skipped result with a warning rather than an error, so multi-subject
// batches survive partial failures. Configuration mistakes (unknown
// profile, policy or distance type) are errors.
func Compose(in Inputs) (Result, error) {
	if in.Signal == nil || in.Forward == nil || in.Surface == nil {
		return Result{}, fmt.Errorf("compose: signal, forward matrix and surface are required")
	}
	samples, seeds := in.Signal.Dims()
	sensors, sources := in.Forward.Dims()
	if sources != in.Surface.NumVertices() {
		return Result{}, fmt.Errorf("compose: forward matrix has %d sources, surface has %d vertices", sources, in.Surface.NumVertices())
	}
	if len(in.Regions) != seeds {
		log.Printf("compose: %d regions for %d signal columns; skipping this unit", len(in.Regions), seeds)
		return Result{Skipped: true}, nil
	}

	// Spread each seed column over its weighted vertices and accumulate
	// into the source-space signal matrix.
	signal := mat.NewDense(samples, sources, nil)
	used := make([][]int, seeds)
	for s := 0; s < seeds; s++ {
		col, err := roi.Weights(in.Surface, in.Regions[s], in.ROISize, in.DistanceType, in.Profile)
		if err != nil {
			return Result{}, err
		}
		used[s] = col.Vertices
		if col.Empty() {
			log.Printf("compose: region %s contributes no signal", in.Regions[s].Name)
			continue
		}
		for t := 0; t < samples; t++ {
			v := in.Signal.At(t, s)
			for k, vertex := range col.Vertices {
				signal.Set(t, vertex, signal.At(t, vertex)+v*col.Weights[k])
			}
		}
	}
	if err := noise.Normalize(signal, in.Normalization); err != nil {
		return Result{}, err
	}

	signalWeight := in.Lambda / (in.Lambda + 1)
	noiseWeight := 1 / (in.Lambda + 1)

	out := Result{UsedRegions: used}
	for trial, n := range in.Noise {
		if n != nil {
			nr, nc := n.Dims()
			if nr != samples || nc != sources {
				return Result{}, fmt.Errorf("compose: noise trial %d is %dx%d, want %dx%d", trial, nr, nc, samples, sources)
			}
		}

		source := mat.NewDense(samples, sources, nil)
		source.Scale(signalWeight, signal)
		if n != nil {
			var scaled mat.Dense
			scaled.Scale(noiseWeight, n)
			source.Add(source, &scaled)
		}
		// Second-stage renormalization; see the package comment for why
		// this is an approximation that must stay.
		if frob := mat.Norm(source, 2); frob > 0 {
			source.Scale(1/frob, source)
		}

		sensor := mat.NewDense(samples, sensors, nil)
		sensor.Mul(source, in.Forward.T())

		out.Source = append(out.Source, source)
		out.Sensor = append(out.Sensor, sensor)
	}
	return out, nil
}
