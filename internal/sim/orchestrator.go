package sim

import (
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/cortical-data/scalp.sim/internal/cache"
	"github.com/cortical-data/scalp.sim/internal/compose"
	"github.com/cortical-data/scalp.sim/internal/mesh"
	"github.com/cortical-data/scalp.sim/internal/noise"
	"github.com/cortical-data/scalp.sim/internal/roi"
)

// Condition pairs a condition name with its seed signal matrix
// (samples × seeds). One column per seed region.
type Condition struct {
	Name   string
	Signal *mat.Dense
}

// Options selects what a run processes.
type Options struct {
	// RunID identifies the run; when empty a fresh UUID is generated.
	RunID string

	// Subjects lists subject identifiers, processed in order.
	Subjects []string

	// Atlas names the atlas seed regions are drawn from.
	Atlas string

	// RegionNames optionally fixes the seed regions. When empty, the
	// orchestrator draws SeedRegionCount regions at random from the first
	// usable subject's atlas and reuses that draw for every subsequent
	// subject.
	RegionNames []string

	// Conditions holds the per-condition seed signals.
	Conditions []Condition
}

// Deps bundles the external collaborators of a run.
type Deps struct {
	Surfaces SurfaceProvider
	Forwards ForwardProvider
	Regions  RegionProvider
	Decay    DecayProvider

	// Sink receives outputs; nil disables persistence.
	Sink Sink

	// Cache memoizes forward matrices and mixing models; nil disables
	// caching.
	Cache *cache.Store
}

// SubjectResult holds everything derived for one subject, keyed by
// condition. Keeping all artifacts in one record per subject avoids the
// index-alignment hazards of parallel per-subject containers.
type SubjectResult struct {
	Subject    string
	Skipped    bool
	Reason     string
	Conditions map[string]*compose.Result
}

// RunResult is the outcome of a batch run.
type RunResult struct {
	RunID string

	// RegionNames is the seed-region set used for every subject (explicit
	// or the authoritative first random draw).
	RegionNames []string

	// Subjects holds per-subject results in processing order.
	Subjects []*SubjectResult
}

// Orchestrator drives multi-subject simulation batches. It is not safe for
// concurrent use; the pipeline is deliberately single-threaded and
// batch-oriented.
type Orchestrator struct {
	params Params
	deps   Deps

	rng *rand.Rand
	src rand.Source

	// chosen is the authoritative seed-region draw, fixed by the first
	// subject when no explicit list is given.
	chosen []string
}

// New builds an Orchestrator. Configuration is explicit: there is no
// ambient global state.
func New(params Params, deps Deps) *Orchestrator {
	src := rand.NewPCG(params.RandomSeed, params.RandomSeed^0x9e3779b97f4a7c15)
	return &Orchestrator{
		params: params,
		deps:   deps,
		rng:    rand.New(src),
		src:    src,
	}
}

// Run processes every subject in order. Per-subject failures skip that
// subject and continue; only structural misuse of Run itself returns an
// error.
func (o *Orchestrator) Run(opts Options) (*RunResult, error) {
	if len(opts.Subjects) == 0 {
		return nil, fmt.Errorf("sim: no subjects given")
	}
	if len(opts.Conditions) == 0 {
		return nil, fmt.Errorf("sim: no conditions given")
	}
	if opts.Atlas == "" {
		return nil, fmt.Errorf("sim: no atlas given")
	}
	for _, c := range opts.Conditions {
		if c.Signal == nil {
			return nil, fmt.Errorf("sim: condition %s has no signal", c.Name)
		}
		rows, _ := c.Signal.Dims()
		if rows != o.params.Samples {
			return nil, fmt.Errorf("sim: condition %s has %d samples, params want %d", c.Name, rows, o.params.Samples)
		}
	}

	decay, err := o.deps.Decay.DecayModel()
	if err != nil {
		return nil, fmt.Errorf("sim: load decay model: %w", err)
	}

	o.chosen = append([]string(nil), opts.RegionNames...)

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	result := &RunResult{RunID: runID}
	for _, subject := range opts.Subjects {
		sub := o.processSubject(subject, opts, decay)
		result.Subjects = append(result.Subjects, sub)
		if o.deps.Sink != nil {
			if err := o.deps.Sink.SaveSubject(subject, sub.Skipped, sub.Reason); err != nil {
				return nil, fmt.Errorf("sim: persist subject %s: %w", subject, err)
			}
		}
	}
	result.RegionNames = o.chosen
	return result, nil
}

// skip records a per-subject failure without aborting the batch.
func skip(subject, reason string) *SubjectResult {
	log.Printf("sim: skipping subject %s: %s", subject, reason)
	return &SubjectResult{Subject: subject, Skipped: true, Reason: reason}
}

func (o *Orchestrator) processSubject(subject string, opts Options, decay noise.DecayModel) *SubjectResult {
	// A subject with no regions in the reference alpha atlas is unusable.
	alphaCount, err := o.deps.Regions.RegionCount(subject, o.params.AlphaAtlas)
	if err != nil {
		return skip(subject, fmt.Sprintf("alpha atlas lookup failed: %v", err))
	}
	if alphaCount == 0 {
		return skip(subject, fmt.Sprintf("no regions in reference atlas %q", o.params.AlphaAtlas))
	}

	surface, err := o.deps.Surfaces.Surface(subject)
	if err != nil {
		return skip(subject, fmt.Sprintf("surface load failed: %v", err))
	}

	forward, err := o.loadForward(subject)
	if err != nil {
		return skip(subject, fmt.Sprintf("forward matrix load failed: %v", err))
	}
	if _, cols := forward.Dims(); cols != surface.NumVertices() {
		return skip(subject, fmt.Sprintf("forward matrix has %d sources, surface has %d vertices", cols, surface.NumVertices()))
	}

	seeds, err := o.seedRegions(subject, opts.Atlas)
	if err != nil {
		return skip(subject, err.Error())
	}

	alphaSources, err := o.alphaSources(subject)
	if err != nil {
		return skip(subject, err.Error())
	}

	mixing, err := o.loadMixingModel(subject, surface, decay)
	if err != nil {
		return skip(subject, fmt.Sprintf("mixing model build failed: %v", err))
	}

	sub := &SubjectResult{Subject: subject, Conditions: map[string]*compose.Result{}}
	allSkipped := true
	for _, cond := range opts.Conditions {
		noiseTrials, err := noise.Synthesize(noise.SynthParams{
			SamplingRate: o.params.SamplingRate,
			Samples:      o.params.Samples,
			Sources:      surface.NumVertices(),
			Trials:       o.params.Trials,
			Mu:           o.params.Mu,
			AlphaSources: alphaSources,
			Policy:       o.params.Normalization,
		}, mixing, o.src)
		if err != nil {
			return skip(subject, fmt.Sprintf("noise synthesis failed: %v", err))
		}

		res, err := compose.Compose(compose.Inputs{
			Regions:       seeds,
			Forward:       forward,
			Surface:       surface,
			Signal:        cond.Signal,
			Noise:         noiseTrials,
			Lambda:        o.params.Lambda,
			ROISize:       o.params.ROISize,
			Profile:       o.params.Profile,
			DistanceType:  o.params.DistanceType,
			Normalization: o.params.Normalization,
		})
		if err != nil {
			return skip(subject, fmt.Sprintf("condition %s: %v", cond.Name, err))
		}
		sub.Conditions[cond.Name] = &res
		if res.Skipped {
			continue
		}
		allSkipped = false

		if o.deps.Sink != nil {
			if err := o.saveCondition(subject, cond.Name, &res); err != nil {
				return skip(subject, fmt.Sprintf("persist condition %s: %v", cond.Name, err))
			}
		}
	}
	if allSkipped {
		sub.Skipped = true
		sub.Reason = "all conditions skipped"
	}
	return sub
}

// loadForward fetches the forward matrix through the artifact cache.
func (o *Orchestrator) loadForward(subject string) (*mat.Dense, error) {
	if o.deps.Cache == nil {
		return o.deps.Forwards.Forward(subject)
	}
	return cache.GetOrCompute(o.deps.Cache, "forward-"+subject, func() (*mat.Dense, error) {
		return o.deps.Forwards.Forward(subject)
	})
}

// loadMixingModel builds (or loads) the cached per-subject mixing model.
// The distance matrix over all source points is computed once here and
// reused through the cache across runs and conditions.
func (o *Orchestrator) loadMixingModel(subject string, surface *mesh.Surface, decay noise.DecayModel) (*noise.MixingModel, error) {
	build := func() (*noise.MixingModel, error) {
		all := make([]int, surface.NumVertices())
		for i := range all {
			all[i] = i
		}
		dist, err := mesh.Distances(surface, all, o.params.DistanceType)
		if err != nil {
			return nil, err
		}
		return noise.BuildMixingModel(dist, decay, o.params.MixingMethod)
	}
	if o.deps.Cache == nil {
		return build()
	}
	key := fmt.Sprintf("mixing-%s-%s", subject, o.params.DistanceType)
	return cache.GetOrCompute(o.deps.Cache, key, build)
}

// seedRegions resolves the seed-region set for a subject. The first random
// draw is authoritative: later subjects reuse the same region names.
func (o *Orchestrator) seedRegions(subject, atlas string) ([]roi.Region, error) {
	regions, err := o.deps.Regions.Regions(subject, atlas)
	if err != nil {
		return nil, fmt.Errorf("atlas %q load failed: %v", atlas, err)
	}
	byName := make(map[string]roi.Region, len(regions))
	for _, r := range regions {
		byName[r.Name] = r
	}

	if len(o.chosen) == 0 {
		if o.params.SeedRegionCount > len(regions) {
			return nil, fmt.Errorf("atlas %q has %d regions, need %d seeds", atlas, len(regions), o.params.SeedRegionCount)
		}
		perm := o.rng.Perm(len(regions))
		for _, idx := range perm[:o.params.SeedRegionCount] {
			o.chosen = append(o.chosen, regions[idx].Name)
		}
		log.Printf("sim: subject %s fixed the seed-region draw: %v", subject, o.chosen)
	}

	seeds := make([]roi.Region, 0, len(o.chosen))
	for _, name := range o.chosen {
		r, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("atlas %q has no region %q for this subject", atlas, name)
		}
		seeds = append(seeds, r)
	}
	return seeds, nil
}

// alphaSources returns the union of all alpha-atlas region vertices.
func (o *Orchestrator) alphaSources(subject string) ([]int, error) {
	regions, err := o.deps.Regions.Regions(subject, o.params.AlphaAtlas)
	if err != nil {
		return nil, fmt.Errorf("alpha atlas %q load failed: %v", o.params.AlphaAtlas, err)
	}
	seen := map[int]bool{}
	var out []int
	for _, r := range regions {
		for _, v := range r.Vertices {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func (o *Orchestrator) saveCondition(subject, condition string, res *compose.Result) error {
	for trial := range res.Sensor {
		if err := o.deps.Sink.SaveSeries(SeriesRecord{
			Subject: subject, Condition: condition, Kind: SeriesSensor,
			Trial: trial, Data: res.Sensor[trial],
		}); err != nil {
			return err
		}
		if err := o.deps.Sink.SaveSeries(SeriesRecord{
			Subject: subject, Condition: condition, Kind: SeriesSource,
			Trial: trial, Data: res.Source[trial],
		}); err != nil {
			return err
		}
	}
	return nil
}
