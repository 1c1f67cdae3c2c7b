// Package config loads simulation parameters from JSON. Every recognized
// option has a typed field with a default; fields omitted from the file
// keep their defaults, so partial configs are safe. Validation happens once
// at load: bad option names or values are configuration errors and abort
// the run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SimulationConfig is the root configuration for a simulation run. Pointer
// fields distinguish "omitted" from zero values; use the Get* accessors for
// resolved values.
type SimulationConfig struct {
	// Signal/noise blend params
	Lambda *float64 `json:"lambda,omitempty"` // SNR weight
	Mu     *float64 `json:"mu,omitempty"`     // alpha vs pink noise weight

	// Region params
	ROISize        *int    `json:"roi_size,omitempty"`
	SpatialProfile *string `json:"spatial_profile,omitempty"` // "uniform" or "gaussian"
	DistanceType   *string `json:"distance_type,omitempty"`   // "euclidean" or "geodesic"

	// Synthesis params
	SamplingRateHz *float64 `json:"sampling_rate_hz,omitempty"`
	Samples        *int     `json:"samples,omitempty"`
	Trials         *int     `json:"trials,omitempty"`
	Normalization  *string  `json:"normalization,omitempty"` // "active_nodes" or "all_nodes"
	MixingMethod   *string  `json:"mixing_method,omitempty"` // "cholesky" or "eigen"

	// Orchestration params
	SeedRegionCount *int    `json:"seed_region_count,omitempty"` // random draw size when no regions named
	AlphaAtlas      *string `json:"alpha_atlas,omitempty"`
	RandomSeed      *uint64 `json:"random_seed,omitempty"`
}

// EmptySimulationConfig returns a config with every field unset.
func EmptySimulationConfig() *SimulationConfig {
	return &SimulationConfig{}
}

// LoadSimulationConfig loads a SimulationConfig from a JSON file and
// validates it.
func LoadSimulationConfig(path string) (*SimulationConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := EmptySimulationConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges. Option-name validity (profile, policy,
// method, distance type) is checked by the packages that own the options,
// once, when the orchestrator resolves the config.
func (c *SimulationConfig) Validate() error {
	if c.Lambda != nil && *c.Lambda < 0 {
		return fmt.Errorf("lambda must be non-negative, got %f", *c.Lambda)
	}
	if c.Mu != nil && *c.Mu < 0 {
		return fmt.Errorf("mu must be non-negative, got %f", *c.Mu)
	}
	if c.ROISize != nil && *c.ROISize < 1 {
		return fmt.Errorf("roi_size must be positive, got %d", *c.ROISize)
	}
	if c.SamplingRateHz != nil && *c.SamplingRateHz <= 0 {
		return fmt.Errorf("sampling_rate_hz must be positive, got %f", *c.SamplingRateHz)
	}
	if c.Samples != nil && *c.Samples < 1 {
		return fmt.Errorf("samples must be positive, got %d", *c.Samples)
	}
	if c.Trials != nil && *c.Trials < 1 {
		return fmt.Errorf("trials must be positive, got %d", *c.Trials)
	}
	if c.SeedRegionCount != nil && *c.SeedRegionCount < 1 {
		return fmt.Errorf("seed_region_count must be positive, got %d", *c.SeedRegionCount)
	}
	return nil
}

// GetLambda returns the SNR weight or the default.
func (c *SimulationConfig) GetLambda() float64 {
	if c.Lambda == nil {
		return 1.0
	}
	return *c.Lambda
}

// GetMu returns the alpha/pink weight or the default.
func (c *SimulationConfig) GetMu() float64 {
	if c.Mu == nil {
		return 1.0
	}
	return *c.Mu
}

// GetROISize returns the target region size or the default.
func (c *SimulationConfig) GetROISize() int {
	if c.ROISize == nil {
		return 200
	}
	return *c.ROISize
}

// GetSpatialProfile returns the spatial profile name or the default.
func (c *SimulationConfig) GetSpatialProfile() string {
	if c.SpatialProfile == nil {
		return "uniform"
	}
	return *c.SpatialProfile
}

// GetDistanceType returns the distance metric name or the default.
func (c *SimulationConfig) GetDistanceType() string {
	if c.DistanceType == nil {
		return "euclidean"
	}
	return *c.DistanceType
}

// GetSamplingRateHz returns the sampling rate or the default.
func (c *SimulationConfig) GetSamplingRateHz() float64 {
	if c.SamplingRateHz == nil {
		return 500
	}
	return *c.SamplingRateHz
}

// GetSamples returns the per-trial sample count or the default.
func (c *SimulationConfig) GetSamples() int {
	if c.Samples == nil {
		return 1000
	}
	return *c.Samples
}

// GetTrials returns the trial count or the default.
func (c *SimulationConfig) GetTrials() int {
	if c.Trials == nil {
		return 10
	}
	return *c.Trials
}

// GetNormalization returns the normalization policy name or the default.
func (c *SimulationConfig) GetNormalization() string {
	if c.Normalization == nil {
		return "all_nodes"
	}
	return *c.Normalization
}

// GetMixingMethod returns the decomposition method name or the default.
func (c *SimulationConfig) GetMixingMethod() string {
	if c.MixingMethod == nil {
		return "cholesky"
	}
	return *c.MixingMethod
}

// GetSeedRegionCount returns the random seed-region draw size or the
// default.
func (c *SimulationConfig) GetSeedRegionCount() int {
	if c.SeedRegionCount == nil {
		return 2
	}
	return *c.SeedRegionCount
}

// GetAlphaAtlas returns the reference atlas name used for alpha source
// selection, or the default.
func (c *SimulationConfig) GetAlphaAtlas() string {
	if c.AlphaAtlas == nil {
		return "shm"
	}
	return *c.AlphaAtlas
}

// GetRandomSeed returns the RNG seed or the default.
func (c *SimulationConfig) GetRandomSeed() uint64 {
	if c.RandomSeed == nil {
		return 1
	}
	return *c.RandomSeed
}
