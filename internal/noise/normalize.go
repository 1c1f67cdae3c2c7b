package noise

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"
)

// Policy names a matrix normalization policy. The noise and signal sides of
// the pipeline must use the same policy so the SNR parameter lambda keeps
// its meaning.
type Policy string

const (
	// PolicyActiveNodes rescales by the count of nonzero-power columns
	// divided by the Frobenius norm.
	PolicyActiveNodes Policy = "active_nodes"

	// PolicyAllNodes rescales by the Frobenius norm over all columns,
	// leaving the matrix with unit Frobenius norm.
	PolicyAllNodes Policy = "all_nodes"
)

// ParsePolicy validates a normalization policy name. Unknown names are a
// configuration error.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(name) {
	case PolicyActiveNodes, PolicyAllNodes:
		return Policy(name), nil
	}
	return "", fmt.Errorf("unknown normalization policy %q (want %q or %q)", name, PolicyActiveNodes, PolicyAllNodes)
}

// Normalize rescales m in place according to the policy. An all-zero matrix
// is left untouched with a warning; dividing by a zero norm would poison
// every downstream matrix with NaNs.
func Normalize(m *mat.Dense, policy Policy) error {
	if _, err := ParsePolicy(string(policy)); err != nil {
		return err
	}
	frob := mat.Norm(m, 2)
	if frob == 0 {
		log.Printf("noise: zero matrix passed to Normalize(%s); leaving unscaled", policy)
		return nil
	}
	switch policy {
	case PolicyAllNodes:
		m.Scale(1/frob, m)
	case PolicyActiveNodes:
		m.Scale(float64(activeColumns(m))/frob, m)
	}
	return nil
}

// activeColumns counts columns with nonzero power.
func activeColumns(m *mat.Dense) int {
	rows, cols := m.Dims()
	active := 0
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			if m.At(i, j) != 0 {
				active++
				break
			}
		}
	}
	return active
}
