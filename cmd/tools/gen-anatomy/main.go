// Command gen-anatomy generates a synthetic anatomy directory for testing
// the simulation pipeline without real head-model data.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cortical-data/scalp.sim/internal/anatomy"
	"github.com/cortical-data/scalp.sim/internal/mesh"
	"github.com/cortical-data/scalp.sim/internal/noise"
	"github.com/cortical-data/scalp.sim/internal/roi"
)

func main() {
	output := flag.String("o", "anatomy", "output directory")
	subjects := flag.Int("n", 3, "number of subjects")
	side := flag.Int("side", 10, "vertices per grid side, per hemisphere")
	sensors := flag.Int("sensors", 32, "sensor count for the forward matrix")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewPCG(*seed, *seed+1))

	if err := anatomy.WriteDecayModel(*output, noise.DecayModel{Bands: []noise.Band{
		{CenterHz: 2, Params: [3]float64{0.95, 0.12, 0.02}},
		{CenterHz: 6, Params: [3]float64{0.90, 0.10, 0.03}},
		{CenterHz: 10, Params: [3]float64{0.85, 0.08, 0.05}},
		{CenterHz: 20, Params: [3]float64{0.80, 0.15, 0.02}},
		{CenterHz: 40, Params: [3]float64{0.75, 0.20, 0.01}},
	}}); err != nil {
		log.Fatalf("decay model: %v", err)
	}

	for i := 0; i < *subjects; i++ {
		subject := fmt.Sprintf("sub-%02d", i+1)
		if err := writeSubject(*output, subject, *side, *sensors, rng); err != nil {
			log.Fatalf("%s: %v", subject, err)
		}
		log.Printf("%d/%d subjects", i+1, *subjects)
	}
	log.Printf("✓ Created: %s", *output)
}

// writeSubject builds a two-hemisphere grid surface with slight random
// vertex jitter, a random forward matrix, and simple atlas regions.
func writeSubject(root, subject string, side, sensors int, rng *rand.Rand) error {
	perHemi := side * side
	vertices := make([][3]float64, 0, 2*perHemi)
	var faces [][3]int
	for hemi := 0; hemi < 2; hemi++ {
		base := hemi * perHemi
		xOff := float64(hemi) * (float64(side) + 5) // gap between hemispheres
		for r := 0; r < side; r++ {
			for c := 0; c < side; c++ {
				vertices = append(vertices, [3]float64{
					xOff + float64(c) + 0.05*rng.NormFloat64(),
					float64(r) + 0.05*rng.NormFloat64(),
					0.1 * rng.NormFloat64(),
				})
			}
		}
		for r := 0; r < side-1; r++ {
			for c := 0; c < side-1; c++ {
				v := base + r*side + c
				faces = append(faces, [3]int{v, v + 1, v + side})
				faces = append(faces, [3]int{v + 1, v + side + 1, v + side})
			}
		}
	}
	surface, err := mesh.NewSurface(vertices, faces, perHemi)
	if err != nil {
		return err
	}
	if err := anatomy.WriteSurface(root, subject, surface); err != nil {
		return err
	}

	forward := mat.NewDense(sensors, len(vertices), nil)
	for s := 0; s < sensors; s++ {
		for v := 0; v < len(vertices); v++ {
			// Distance-like falloff from a fake sensor position plus noise.
			d := math.Abs(float64(v%len(vertices))/float64(len(vertices)) - float64(s)/float64(sensors))
			forward.Set(s, v, math.Exp(-4*d)+0.01*rng.NormFloat64())
		}
	}
	if err := anatomy.WriteForward(root, subject, forward); err != nil {
		return err
	}

	// Seed atlas: four quadrant patches per hemisphere. Alpha atlas: the
	// posterior half of each hemisphere.
	wang := map[string][]int{}
	var alpha []int
	for hemi := 0; hemi < 2; hemi++ {
		base := hemi * perHemi
		hemiName := "lh"
		if hemi == 1 {
			hemiName = "rh"
		}
		for r := 0; r < side; r++ {
			for c := 0; c < side; c++ {
				v := base + r*side + c
				name := fmt.Sprintf("%s-Q%d%d", hemiName, 2*r/side, 2*c/side)
				wang[name] = append(wang[name], v)
				if r >= side/2 {
					alpha = append(alpha, v)
				}
			}
		}
	}
	names := make([]string, 0, len(wang))
	for name := range wang {
		names = append(names, name)
	}
	sort.Strings(names)

	atlases := map[string][]roi.Region{}
	for _, name := range names {
		hemi := roi.HemiLeft
		if name[:2] == "rh" {
			hemi = roi.HemiRight
		}
		atlases["wang"] = append(atlases["wang"], roi.Region{Name: name, Hemi: hemi, Vertices: wang[name]})
	}
	atlases["shm"] = []roi.Region{{Name: "occipital", Hemi: roi.HemiBoth, Vertices: alpha}}
	return anatomy.WriteRegions(root, subject, atlases)
}
