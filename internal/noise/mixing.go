package noise

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Method selects the matrix-square-root decomposition used to build mixing
// matrices.
type Method string

const (
	// MethodCholesky factors the coherence matrix as UᵗU. Fails when
	// clamping has made the matrix indefinite.
	MethodCholesky Method = "cholesky"

	// MethodEigen factors via eigen decomposition, mixing = sqrt(D)·Vᵗ,
	// clamping small negative eigenvalues to zero. Robust fallback.
	MethodEigen Method = "eigen"
)

// imagTol bounds the relative imaginary residue tolerated on eigenvalues
// and eigenvectors before the model is declared broken.
const imagTol = 1e-9

// ParseMethod validates a decomposition method name. Unknown names are a
// configuration error.
func ParseMethod(name string) (Method, error) {
	switch Method(name) {
	case MethodCholesky, MethodEigen:
		return Method(name), nil
	}
	return "", fmt.Errorf("mixing method %q not implemented (want %q or %q)", name, MethodCholesky, MethodEigen)
}

// AlphaCenterHz is the nominal alpha-band center used to pick the mixing
// band for alpha noise.
const AlphaCenterHz = 10.0

// MixingModel couples independent per-source noise generators into a
// spatially-correlated field. For each band, Factors[i] is a matrix M with
// Mᵗ·M ≈ C where C is the clamped coherence matrix of that band. The model
// is deterministic given (distance matrix, decay parameters) and is cached
// per (subject, distance type).
type MixingModel struct {
	// CenterHz holds per-band center frequencies, aligned with Factors.
	CenterHz []float64

	// Factors holds the per-band mixing matrices (sources × sources).
	Factors []*mat.Dense
}

// AlphaBand returns the index of the band nearest AlphaCenterHz.
func (m *MixingModel) AlphaBand() (int, error) {
	if len(m.CenterHz) == 0 {
		return 0, fmt.Errorf("mixing model has no bands")
	}
	best, bestDiff := 0, math.Inf(1)
	for i, hz := range m.CenterHz {
		if diff := math.Abs(hz - AlphaCenterHz); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best, nil
}

// Sources returns the source count the model was built for.
func (m *MixingModel) Sources() int {
	if len(m.Factors) == 0 {
		return 0
	}
	r, _ := m.Factors[0].Dims()
	return r
}

// BuildMixingModel evaluates the decay model over all pairwise distances,
// clamps the resulting coherence to [0,1], and factors each band's matrix
// by the requested method. The distance matrix diagonal must be zero so
// coherence diagonals come out as the clamped value of the decay function
// at zero distance.
func BuildMixingModel(dist mat.Symmetric, model DecayModel, method Method) (*MixingModel, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if len(model.Bands) == 0 {
		return nil, fmt.Errorf("decay model has no frequency bands")
	}

	out := &MixingModel{}
	for _, band := range model.Bands {
		c := coherenceMatrix(dist, band)
		var factor *mat.Dense
		var err error
		switch method {
		case MethodCholesky:
			factor, err = choleskyFactor(c)
		case MethodEigen:
			factor, err = eigenFactor(c)
		}
		if err != nil {
			return nil, fmt.Errorf("band %.1f Hz: %w", band.CenterHz, err)
		}
		out.CenterHz = append(out.CenterHz, band.CenterHz)
		out.Factors = append(out.Factors, factor)
	}
	return out, nil
}

// coherenceMatrix evaluates a band's decay function over a distance matrix,
// clamped entrywise to [0,1].
func coherenceMatrix(dist mat.Symmetric, band Band) *mat.SymDense {
	n := dist.SymmetricDim()
	c := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		c.SetSym(i, i, band.Coherence(0))
		for j := i + 1; j < n; j++ {
			c.SetSym(i, j, band.Coherence(dist.At(i, j)))
		}
	}
	return c
}

// choleskyFactor returns U with UᵗU = c. Indefinite matrices (a consequence
// of coherence clamping) fail here; callers should fall back to the eigen
// method.
func choleskyFactor(c *mat.SymDense) (*mat.Dense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(c); !ok {
		return nil, fmt.Errorf("coherence matrix is not positive definite; use the %q method", MethodEigen)
	}
	var u mat.TriDense
	chol.UTo(&u)
	return mat.DenseCopyOf(&u), nil
}

// eigenFactor returns sqrt(D)·Vᵗ from a general eigen decomposition.
// Negative eigenvalues within numerical noise are clamped to zero. Any
// non-negligible imaginary residue on eigenvalues or eigenvectors is an
// upstream modeling bug and fails hard rather than being discarded.
func eigenFactor(c *mat.SymDense) (*mat.Dense, error) {
	n := c.SymmetricDim()
	var eig mat.Eigen
	if ok := eig.Factorize(mat.DenseCopyOf(c), mat.EigenRight); !ok {
		return nil, fmt.Errorf("eigen decomposition failed")
	}
	values := eig.Values(nil)
	var vectors mat.CDense
	eig.VectorsTo(&vectors)

	factor := mat.NewDense(n, n, nil)
	for i, v := range values {
		if math.Abs(imag(v)) > imagTol*math.Max(1, cmplx.Abs(v)) {
			return nil, fmt.Errorf("eigenvalue %d has non-negligible imaginary part %g", i, imag(v))
		}
		lambda := real(v)
		if lambda < 0 {
			lambda = 0
		}
		scale := math.Sqrt(lambda)
		for j := 0; j < n; j++ {
			e := vectors.At(j, i)
			if math.Abs(imag(e)) > imagTol*math.Max(1, cmplx.Abs(e)) {
				return nil, fmt.Errorf("eigenvector %d has non-negligible imaginary part %g", i, imag(e))
			}
			factor.Set(i, j, scale*real(e))
		}
	}
	return factor, nil
}

// mixingModelWire is the serialized form of MixingModel.
type mixingModelWire struct {
	CenterHz []float64
	Factors  [][]byte
}

// GobEncode implements gob.GobEncoder so the model can be cached to disk.
func (m *MixingModel) GobEncode() ([]byte, error) {
	wire := mixingModelWire{CenterHz: m.CenterHz}
	for _, f := range m.Factors {
		b, err := f.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("marshal mixing factor: %w", err)
		}
		wire.Factors = append(wire.Factors, b)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (m *MixingModel) GobDecode(data []byte) error {
	var wire mixingModelWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return err
	}
	m.CenterHz = wire.CenterHz
	m.Factors = nil
	for _, b := range wire.Factors {
		f := new(mat.Dense)
		if err := f.UnmarshalBinary(b); err != nil {
			return fmt.Errorf("unmarshal mixing factor: %w", err)
		}
		m.Factors = append(m.Factors, f)
	}
	return nil
}
