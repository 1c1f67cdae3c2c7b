package noise

import (
	"fmt"
	"math"
)

// Band is one frequency band of a spatial-decay-of-coherence model. Params
// holds fitted parameters of the decay family a·exp(−b·d) + c; they are an
// opaque payload from the decay-model provider.
type Band struct {
	CenterHz float64
	Params   [3]float64
}

// Coherence evaluates the fitted decay function at distance d, clamped to
// [0, 1].
func (b Band) Coherence(d float64) float64 {
	v := b.Params[0]*math.Exp(-b.Params[1]*d) + b.Params[2]
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DecayModel is a per-band coherence-vs-distance model, loaded once and
// shared across subjects.
type DecayModel struct {
	Bands []Band
}

// NearestBand returns the index of the band whose center frequency is
// closest to hz.
func (m DecayModel) NearestBand(hz float64) (int, error) {
	if len(m.Bands) == 0 {
		return 0, fmt.Errorf("decay model has no frequency bands")
	}
	best, bestDiff := 0, math.Inf(1)
	for i, b := range m.Bands {
		if diff := math.Abs(b.CenterHz - hz); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best, nil
}
