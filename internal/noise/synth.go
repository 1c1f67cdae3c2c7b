package noise

import (
	"fmt"
	"log"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// AlphaHalfWidthHz is the half-width of the alpha band mask applied in the
// frequency domain.
const AlphaHalfWidthHz = 2.0

// SynthParams configures one noise synthesis run.
type SynthParams struct {
	// SamplingRate is the sample rate in Hz.
	SamplingRate float64

	// Samples is the number of time samples per trial.
	Samples int

	// Sources is the number of source points.
	Sources int

	// Trials is the number of independent draws; every trial redraws all
	// noise.
	Trials int

	// Mu weights alpha-band noise against the pink background. Large mu
	// gives an alpha-dominated field; zero gives pure pink noise.
	Mu float64

	// AlphaSources lists the source indices that carry alpha-band noise.
	// Sources outside this set receive only the pink baseline.
	AlphaSources []int

	// Policy is the normalization applied to each trial's combined matrix.
	// It must match the signal-side policy.
	Policy Policy
}

// validate checks structural parameters; violations are configuration
// errors.
func (p SynthParams) validate(model *MixingModel) error {
	if p.Samples <= 0 || p.Sources <= 0 || p.Trials <= 0 {
		return fmt.Errorf("samples, sources and trials must be positive (got %d, %d, %d)", p.Samples, p.Sources, p.Trials)
	}
	if p.SamplingRate <= 0 {
		return fmt.Errorf("sampling rate must be positive, got %g", p.SamplingRate)
	}
	if _, err := ParsePolicy(string(p.Policy)); err != nil {
		return err
	}
	for _, idx := range p.AlphaSources {
		if idx < 0 || idx >= p.Sources {
			return fmt.Errorf("alpha source index %d out of range [0,%d)", idx, p.Sources)
		}
	}
	if len(p.AlphaSources) > 0 {
		if model == nil {
			return fmt.Errorf("alpha sources requested but no mixing model supplied")
		}
		if got := model.Sources(); got != p.Sources {
			return fmt.Errorf("mixing model built for %d sources, synthesis wants %d", got, p.Sources)
		}
	}
	return nil
}

// Synthesize draws p.Trials independent noise matrices (samples × sources):
// per-source pink noise plus spatially-mixed alpha-band noise confined to
// p.AlphaSources, blended by mu and normalized per the policy.
func Synthesize(p SynthParams, model *MixingModel, src rand.Source) ([]*mat.Dense, error) {
	if err := p.validate(model); err != nil {
		return nil, err
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	fft := fourier.NewFFT(p.Samples)

	trials := make([]*mat.Dense, p.Trials)
	for t := 0; t < p.Trials; t++ {
		pink := pinkMatrix(p, fft, normal)

		combined := pink
		if len(p.AlphaSources) > 0 {
			alpha, err := alphaComponent(p, model, fft, normal)
			if err != nil {
				return nil, err
			}
			combined = mat.NewDense(p.Samples, p.Sources, nil)
			combined.Scale(1/(1+p.Mu), pink)
			alpha.Scale(p.Mu/(1+p.Mu), alpha)
			combined.Add(combined, alpha)
		}
		if err := Normalize(combined, p.Policy); err != nil {
			return nil, err
		}
		trials[t] = combined
	}
	return trials, nil
}

// pinkMatrix draws independent white noise per source and shapes it to a
// 1/f amplitude spectrum in the frequency domain.
func pinkMatrix(p SynthParams, fft *fourier.FFT, normal distuv.Normal) *mat.Dense {
	out := mat.NewDense(p.Samples, p.Sources, nil)
	seq := make([]float64, p.Samples)
	for j := 0; j < p.Sources; j++ {
		for i := range seq {
			seq[i] = normal.Rand()
		}
		shaped := shapeSpectrum(fft, seq, p.SamplingRate, func(hz float64) float64 {
			return 1 / math.Sqrt(hz)
		})
		for i, v := range shaped {
			out.Set(i, j, v)
		}
	}
	return out
}

// alphaComponent draws white noise per source, masks it to the alpha band in
// the frequency domain, mixes it spatially with the model's alpha-band
// factor, and zeroes every column outside p.AlphaSources so the alpha field
// stays confined to the requested subset.
func alphaComponent(p SynthParams, model *MixingModel, fft *fourier.FFT, normal distuv.Normal) (*mat.Dense, error) {
	band, err := model.AlphaBand()
	if err != nil {
		return nil, err
	}
	centerHz := model.CenterHz[band]

	seeds := mat.NewDense(p.Samples, p.Sources, nil)
	seq := make([]float64, p.Samples)
	masked := 0
	for j := 0; j < p.Sources; j++ {
		for i := range seq {
			seq[i] = normal.Rand()
		}
		shaped := shapeSpectrum(fft, seq, p.SamplingRate, func(hz float64) float64 {
			if math.Abs(hz-centerHz) <= AlphaHalfWidthHz {
				masked++
				return 1
			}
			return 0
		})
		for i, v := range shaped {
			seeds.Set(i, j, v)
		}
	}
	if masked == 0 {
		log.Printf("noise: no FFT bins fall in the alpha band around %.1f Hz; alpha component is zero", centerHz)
	}

	mixed := mat.NewDense(p.Samples, p.Sources, nil)
	mixed.Mul(seeds, model.Factors[band])

	inAlpha := make(map[int]bool, len(p.AlphaSources))
	for _, idx := range p.AlphaSources {
		inAlpha[idx] = true
	}
	for j := 0; j < p.Sources; j++ {
		if inAlpha[j] {
			continue
		}
		for i := 0; i < p.Samples; i++ {
			mixed.Set(i, j, 0)
		}
	}
	return mixed, nil
}

// shapeSpectrum transforms seq to the frequency domain, scales each
// coefficient by gain(frequency in Hz), and transforms back. The DC
// component is always dropped.
func shapeSpectrum(fft *fourier.FFT, seq []float64, samplingRate float64, gain func(hz float64) float64) []float64 {
	coeff := fft.Coefficients(nil, seq)
	coeff[0] = 0
	for k := 1; k < len(coeff); k++ {
		hz := fft.Freq(k) * samplingRate
		coeff[k] *= complex(gain(hz), 0)
	}
	out := fft.Sequence(nil, coeff)
	scale := 1 / float64(len(seq))
	for i := range out {
		out[i] *= scale
	}
	return out
}
