// Command simulate runs a multi-subject scalp EEG simulation batch against
// an anatomy directory and writes results to a sqlite database.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/cortical-data/scalp.sim/internal/anatomy"
	"github.com/cortical-data/scalp.sim/internal/cache"
	"github.com/cortical-data/scalp.sim/internal/config"
	"github.com/cortical-data/scalp.sim/internal/sim"
	"github.com/cortical-data/scalp.sim/internal/simdb"
)

var (
	anatomyDir = flag.String("anatomy", "", "Anatomy root directory (required)")
	configPath = flag.String("config", "", "Simulation config JSON (optional)")
	dbPath     = flag.String("db", "simulation.db", "Results database path")
	cacheDir   = flag.String("cache", "", "Artifact cache directory (default <anatomy>/.cache)")
	subjects   = flag.String("subjects", "", "Comma-separated subject IDs (required)")
	atlas      = flag.String("atlas", "wang", "Atlas to draw seed regions from")
	regions    = flag.String("regions", "", "Comma-separated seed region names (random draw when empty)")
	conditions = flag.String("conditions", "rest:10", "Comma-separated name:frequencyHz condition list")
)

func main() {
	flag.Parse()
	if *anatomyDir == "" || *subjects == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.EmptySimulationConfig()
	if *configPath != "" {
		loaded, err := config.LoadSimulationConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	params, err := sim.FromConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	subjectList := splitList(*subjects)
	regionList := splitList(*regions)
	condList, err := parseConditions(*conditions, params, len(regionList))
	if err != nil {
		log.Fatalf("Invalid conditions: %v", err)
	}

	store := anatomy.NewStore(*anatomyDir)

	db, err := simdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open results database: %v", err)
	}
	defer db.Close()

	runID := uuid.NewString()
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		log.Fatalf("Failed to encode params: %v", err)
	}
	runStore, err := db.CreateRun(runID, string(paramsJSON))
	if err != nil {
		log.Fatalf("Failed to create run: %v", err)
	}

	dir := *cacheDir
	if dir == "" {
		dir = filepath.Join(*anatomyDir, ".cache")
	}

	orch := sim.New(params, sim.Deps{
		Surfaces: store,
		Forwards: store,
		Regions:  store,
		Decay:    store,
		Sink:     runStore,
		Cache:    cache.New(dir),
	})

	result, err := orch.Run(sim.Options{
		RunID:       runID,
		Subjects:    subjectList,
		Atlas:       *atlas,
		RegionNames: regionList,
		Conditions:  condList,
	})
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	processed, skipped := 0, 0
	for _, sub := range result.Subjects {
		if sub.Skipped {
			skipped++
		} else {
			processed++
		}
	}
	log.Printf("Run %s complete: %d subjects processed, %d skipped, seed regions %v",
		result.RunID, processed, skipped, result.RegionNames)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseConditions builds per-condition seed signals: one sinusoid per seed
// column at the condition's frequency, with a per-seed phase offset.
func parseConditions(spec string, params sim.Params, explicitSeeds int) ([]sim.Condition, error) {
	seeds := explicitSeeds
	if seeds == 0 {
		seeds = params.SeedRegionCount
	}

	var out []sim.Condition
	for _, part := range splitList(spec) {
		name, freqStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("condition %q is not name:frequencyHz", part)
		}
		freq, err := strconv.ParseFloat(freqStr, 64)
		if err != nil || freq <= 0 {
			return nil, fmt.Errorf("condition %q has bad frequency %q", name, freqStr)
		}
		signal := mat.NewDense(params.Samples, seeds, nil)
		for t := 0; t < params.Samples; t++ {
			for s := 0; s < seeds; s++ {
				phase := float64(s) * math.Pi / 4
				signal.Set(t, s, math.Sin(2*math.Pi*freq*float64(t)/params.SamplingRate+phase))
			}
		}
		out = append(out, sim.Condition{Name: name, Signal: signal})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no conditions given")
	}
	return out, nil
}
