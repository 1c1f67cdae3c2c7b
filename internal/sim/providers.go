package sim

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cortical-data/scalp.sim/internal/mesh"
	"github.com/cortical-data/scalp.sim/internal/noise"
	"github.com/cortical-data/scalp.sim/internal/roi"
)

// SurfaceProvider loads a subject's cortical surface.
type SurfaceProvider interface {
	Surface(subject string) (*mesh.Surface, error)
}

// ForwardProvider loads a subject's forward matrix (sensors × sources).
// The orchestrator caches results, so providers may recompute freely.
type ForwardProvider interface {
	Forward(subject string) (*mat.Dense, error)
}

// RegionProvider loads named regions per subject and atlas.
type RegionProvider interface {
	// Regions returns all regions of an atlas for a subject.
	Regions(subject, atlas string) ([]roi.Region, error)

	// RegionCount returns the number of valid regions an atlas has for a
	// subject; zero means the subject is unusable for that atlas.
	RegionCount(subject, atlas string) (int, error)
}

// DecayProvider supplies the global coherence-vs-distance model, loaded
// once and shared across subjects.
type DecayProvider interface {
	DecayModel() (noise.DecayModel, error)
}

// SeriesRecord is one simulated time series handed to the persistence sink.
type SeriesRecord struct {
	Subject   string
	Condition string

	// Kind is "sensor" or "source".
	Kind string

	Trial int

	// Data is samples × channels.
	Data *mat.Dense
}

// Series kinds.
const (
	SeriesSensor = "sensor"
	SeriesSource = "source"
)

// Sink persists simulation outputs. Format and location are the sink's
// concern, not the core's.
type Sink interface {
	SaveSeries(rec SeriesRecord) error
	SaveSubject(subject string, skipped bool, reason string) error
}
