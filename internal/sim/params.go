package sim

import (
	"github.com/cortical-data/scalp.sim/internal/config"
	"github.com/cortical-data/scalp.sim/internal/mesh"
	"github.com/cortical-data/scalp.sim/internal/noise"
	"github.com/cortical-data/scalp.sim/internal/roi"
)

// Params is the fully-resolved, validated simulation configuration. All
// option names have been parsed into their typed forms; constructing a
// Params via FromConfig is the single place configuration errors surface.
type Params struct {
	// Lambda is the SNR weight of the signal/noise blend.
	Lambda float64

	// Mu weights alpha-band noise against the pink background.
	Mu float64

	// ROISize is the target vertex count for seed regions.
	ROISize int

	// Profile is the spatial weighting profile.
	Profile roi.SpatialProfile

	// DistanceType is the inter-source distance metric.
	DistanceType mesh.DistanceType

	// SamplingRate is the sample rate in Hz.
	SamplingRate float64

	// Samples is the per-trial sample count.
	Samples int

	// Trials is the number of independent noise draws per condition.
	Trials int

	// Normalization is the shared signal/noise normalization policy.
	Normalization noise.Policy

	// MixingMethod is the coherence-matrix decomposition method.
	MixingMethod noise.Method

	// SeedRegionCount is the size of the random seed-region draw used when
	// no explicit region list is given.
	SeedRegionCount int

	// AlphaAtlas names the reference atlas whose regions carry alpha noise.
	AlphaAtlas string

	// RandomSeed seeds all random draws for the run.
	RandomSeed uint64
}

// FromConfig resolves a loaded configuration into typed parameters. Unknown
// option names (spatial profile, distance type, normalization policy,
// mixing method) are configuration errors and fail here, before any subject
// is processed.
func FromConfig(c *config.SimulationConfig) (Params, error) {
	profile, err := roi.ParseSpatialProfile(c.GetSpatialProfile())
	if err != nil {
		return Params{}, err
	}
	dtype, err := mesh.ParseDistanceType(c.GetDistanceType())
	if err != nil {
		return Params{}, err
	}
	policy, err := noise.ParsePolicy(c.GetNormalization())
	if err != nil {
		return Params{}, err
	}
	method, err := noise.ParseMethod(c.GetMixingMethod())
	if err != nil {
		return Params{}, err
	}
	return Params{
		Lambda:          c.GetLambda(),
		Mu:              c.GetMu(),
		ROISize:         c.GetROISize(),
		Profile:         profile,
		DistanceType:    dtype,
		SamplingRate:    c.GetSamplingRateHz(),
		Samples:         c.GetSamples(),
		Trials:          c.GetTrials(),
		Normalization:   policy,
		MixingMethod:    method,
		SeedRegionCount: c.GetSeedRegionCount(),
		AlphaAtlas:      c.GetAlphaAtlas(),
		RandomSeed:      c.GetRandomSeed(),
	}, nil
}
