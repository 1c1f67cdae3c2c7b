package noise

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// testDistances returns a small symmetric zero-diagonal distance matrix.
func testDistances() *mat.SymDense {
	d := mat.NewSymDense(4, nil)
	coords := []float64{0, 1, 2.5, 4}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			d.SetSym(i, j, math.Abs(coords[i]-coords[j]))
		}
	}
	return d
}

// testDecay returns a single-band exponential decay model. The exponential
// kernel is positive definite over Euclidean distances, so Cholesky
// succeeds.
func testDecay() DecayModel {
	return DecayModel{Bands: []Band{{CenterHz: 10, Params: [3]float64{1, 0.5, 0}}}}
}

func TestMixingFactorReproducesCoherence(t *testing.T) {
	t.Parallel()

	dist := testDistances()
	decay := testDecay()
	want := coherenceMatrix(dist, decay.Bands[0])

	for _, method := range []Method{MethodCholesky, MethodEigen} {
		t.Run(string(method), func(t *testing.T) {
			t.Parallel()
			model, err := BuildMixingModel(dist, decay, method)
			if err != nil {
				t.Fatalf("BuildMixingModel(%s): %v", method, err)
			}
			m := model.Factors[0]
			var got mat.Dense
			got.Mul(m.T(), m)
			n := want.SymmetricDim()
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if diff := math.Abs(got.At(i, j) - want.At(i, j)); diff > 1e-6 {
						t.Errorf("MᵗM[%d][%d] off by %g", i, j, diff)
					}
				}
			}
		})
	}
}

func TestBuildMixingModelUnknownMethod(t *testing.T) {
	t.Parallel()
	_, err := BuildMixingModel(testDistances(), testDecay(), Method("svd"))
	if err == nil {
		t.Fatal("expected not-implemented error for unknown method")
	}
}

func TestCoherenceClamping(t *testing.T) {
	t.Parallel()
	// Params that overshoot 1 at zero distance and undershoot 0 far away.
	b := Band{CenterHz: 10, Params: [3]float64{1.5, 1, -0.2}}
	if got := b.Coherence(0); got != 1 {
		t.Errorf("Coherence(0) = %v, want clamped 1", got)
	}
	if got := b.Coherence(100); got != 0 {
		t.Errorf("Coherence(100) = %v, want clamped 0", got)
	}
}

func TestNearestBand(t *testing.T) {
	t.Parallel()
	m := DecayModel{Bands: []Band{{CenterHz: 4}, {CenterHz: 11}, {CenterHz: 20}}}
	idx, err := m.NearestBand(AlphaCenterHz)
	if err != nil {
		t.Fatalf("NearestBand: %v", err)
	}
	if idx != 1 {
		t.Errorf("NearestBand(10) = %d, want 1", idx)
	}
	if _, err := (DecayModel{}).NearestBand(10); err == nil {
		t.Error("expected error for empty decay model")
	}
}

func TestNormalizeAllNodesUnitFrobenius(t *testing.T) {
	t.Parallel()
	for _, scale := range []float64{1e-6, 1, 1e6} {
		m := mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
		m.Scale(scale, m)
		if err := Normalize(m, PolicyAllNodes); err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if frob := mat.Norm(m, 2); math.Abs(frob-1) > 1e-9 {
			t.Errorf("scale %g: Frobenius norm after normalize = %v, want 1", scale, frob)
		}
	}
}

func TestNormalizeActiveNodesCountsNonzeroColumns(t *testing.T) {
	t.Parallel()
	// Two active columns, one silent.
	m := mat.NewDense(2, 3, []float64{3, 0, 0, 4, 0, 1})
	frob := mat.Norm(m, 2)
	if err := Normalize(m, PolicyActiveNodes); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	// Expected scale: 2 active columns / original norm.
	if got, want := m.At(0, 0), 3*2/frob; math.Abs(got-want) > 1e-12 {
		t.Errorf("entry = %v, want %v", got, want)
	}
}

func TestNormalizeZeroMatrixUntouched(t *testing.T) {
	t.Parallel()
	m := mat.NewDense(2, 2, nil)
	if err := Normalize(m, PolicyAllNodes); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if mat.Norm(m, 2) != 0 {
		t.Error("zero matrix was scaled")
	}
}

func TestNormalizeUnknownPolicy(t *testing.T) {
	t.Parallel()
	if err := Normalize(mat.NewDense(1, 1, []float64{1}), Policy("rms")); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func synthModel(sources int) *MixingModel {
	factor := mat.NewDense(sources, sources, nil)
	for i := 0; i < sources; i++ {
		factor.Set(i, i, 1)
	}
	return &MixingModel{CenterHz: []float64{10}, Factors: []*mat.Dense{factor}}
}

func TestSynthesizeShapesAndTrials(t *testing.T) {
	t.Parallel()
	p := SynthParams{
		SamplingRate: 100,
		Samples:      128,
		Sources:      4,
		Trials:       3,
		Mu:           1,
		AlphaSources: []int{0, 1},
		Policy:       PolicyAllNodes,
	}
	trials, err := Synthesize(p, synthModel(4), rand.NewPCG(1, 2))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(trials) != 3 {
		t.Fatalf("got %d trials, want 3", len(trials))
	}
	for i, trial := range trials {
		r, c := trial.Dims()
		if r != 128 || c != 4 {
			t.Errorf("trial %d dims %dx%d, want 128x4", i, r, c)
		}
		if frob := mat.Norm(trial, 2); math.Abs(frob-1) > 1e-9 {
			t.Errorf("trial %d Frobenius norm = %v, want 1", i, frob)
		}
	}
	// Independent draws: consecutive trials must differ.
	if mat.Equal(trials[0], trials[1]) {
		t.Error("trials 0 and 1 are identical; expected independent draws")
	}
}

func TestAlphaComponentConfinedToAlphaSources(t *testing.T) {
	t.Parallel()
	p := SynthParams{
		SamplingRate: 100,
		Samples:      256,
		Sources:      5,
		Trials:       1,
		Mu:           1,
		AlphaSources: []int{1, 3},
		Policy:       PolicyAllNodes,
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(3, 4)}
	fft := fourier.NewFFT(p.Samples)
	alpha, err := alphaComponent(p, synthModel(5), fft, normal)
	if err != nil {
		t.Fatalf("alphaComponent: %v", err)
	}
	for j := 0; j < p.Sources; j++ {
		power := 0.0
		for i := 0; i < p.Samples; i++ {
			v := alpha.At(i, j)
			power += v * v
		}
		inSet := j == 1 || j == 3
		if inSet && power == 0 {
			t.Errorf("alpha source %d has zero power", j)
		}
		if !inSet && power != 0 {
			t.Errorf("non-alpha source %d has alpha power %g, want exactly 0", j, power)
		}
	}
}

func TestSynthesizeValidation(t *testing.T) {
	t.Parallel()

	base := SynthParams{
		SamplingRate: 100,
		Samples:      64,
		Sources:      3,
		Trials:       1,
		Policy:       PolicyAllNodes,
	}

	t.Run("bad policy", func(t *testing.T) {
		t.Parallel()
		p := base
		p.Policy = "median"
		if _, err := Synthesize(p, nil, rand.NewPCG(1, 1)); err == nil {
			t.Fatal("expected policy error")
		}
	})

	t.Run("alpha index out of range", func(t *testing.T) {
		t.Parallel()
		p := base
		p.AlphaSources = []int{7}
		if _, err := Synthesize(p, synthModel(3), rand.NewPCG(1, 1)); err == nil {
			t.Fatal("expected range error")
		}
	})

	t.Run("model source mismatch", func(t *testing.T) {
		t.Parallel()
		p := base
		p.AlphaSources = []int{0}
		if _, err := Synthesize(p, synthModel(8), rand.NewPCG(1, 1)); err == nil {
			t.Fatal("expected source-count mismatch error")
		}
	})

	t.Run("no alpha sources skips mixing model", func(t *testing.T) {
		t.Parallel()
		trials, err := Synthesize(base, nil, rand.NewPCG(1, 1))
		if err != nil {
			t.Fatalf("Synthesize without alpha: %v", err)
		}
		if len(trials) != 1 {
			t.Fatalf("got %d trials, want 1", len(trials))
		}
	})
}

func TestMixingModelGobRoundTrip(t *testing.T) {
	t.Parallel()
	model, err := BuildMixingModel(testDistances(), testDecay(), MethodEigen)
	if err != nil {
		t.Fatalf("BuildMixingModel: %v", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(model); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded MixingModel
	if err := gob.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Factors) != len(model.Factors) {
		t.Fatalf("factor count %d, want %d", len(decoded.Factors), len(model.Factors))
	}
	if !mat.EqualApprox(decoded.Factors[0], model.Factors[0], 1e-15) {
		t.Error("decoded factor differs from original")
	}
	if decoded.CenterHz[0] != model.CenterHz[0] {
		t.Error("decoded center frequency differs")
	}
}
