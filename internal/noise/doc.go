// Package noise builds the structured background-noise model of the
// simulation: per-frequency-band spatial mixing matrices derived from a
// coherence-vs-distance decay model, and the per-trial synthesis of 1/f
// ("pink") broadband noise blended with spatially-correlated alpha-band
// noise.
//
// The mixing matrices are matrix square roots of clamped coherence
// matrices. Cholesky factorization is the default; the eigen decomposition
// path is the robust fallback for coherence matrices that clamping has
// pushed off the positive-semi-definite cone.
package noise
