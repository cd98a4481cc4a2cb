package statevec

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/oqtopus-team/qsim/core"
	"gonum.org/v1/gonum/floats"
)

// Bitstring formats a basis index as n characters, qubit 0 first.
func Bitstring(index, numQubits int) string {
	return fmt.Sprintf("%0*b", numQubits, index)
}

// Bitstrings lists every n-bit outcome in basis order.
func Bitstrings(numQubits int) []string {
	out := make([]string, 1<<numQubits)
	for i := range out {
		out[i] = Bitstring(i, numQubits)
	}
	return out
}

// ProbabilityVector returns |a_i|^2 in basis order.
func (s *Statevector) ProbabilityVector() []float64 {
	p := make([]float64, len(s.amps))
	for i, a := range s.amps {
		p[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return p
}

// Probabilities maps every bitstring, including zero-probability ones, to
// its measurement probability.
func (s *Statevector) Probabilities() map[string]float64 {
	m := make(map[string]float64, len(s.amps))
	for i, p := range s.ProbabilityVector() {
		m[Bitstring(i, s.numQubits)] = p
	}
	return m
}

// MarginalProbabilities returns P(q=0) and P(q=1).
func (s *Statevector) MarginalProbabilities(q int) ([2]float64, error) {
	var out [2]float64
	if q < 0 || q >= s.numQubits {
		return out, fmt.Errorf("%w: qubit %d is out of range [0, %d)", core.ErrIndex, q, s.numQubits)
	}
	bit := 1 << (s.numQubits - 1 - q)
	for i, p := range s.ProbabilityVector() {
		if i&bit == 0 {
			out[0] += p
		} else {
			out[1] += p
		}
	}
	return out, nil
}

// Sample draws shots independent measurements of every qubit. The counts
// sum to shots and only observed outcomes appear as keys.
func (s *Statevector) Sample(shots int, rng *rand.Rand) (core.Counts, error) {
	if shots < 0 {
		return nil, fmt.Errorf("%w: shots must not be negative, got %d", core.ErrInvalidParameter, shots)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: no random generator given", core.ErrInvalidParameter)
	}
	counts := make(core.Counts)
	if shots == 0 {
		return counts, nil
	}
	p := s.ProbabilityVector()
	cdf := floats.CumSum(make([]float64, len(p)), p)
	total := cdf[len(cdf)-1]
	hits := make([]uint32, len(p))
	for i := 0; i < shots; i++ {
		hits[pick(cdf, rng.Float64()*total)]++
	}
	for i, h := range hits {
		if h > 0 {
			counts[Bitstring(i, s.numQubits)] = h
		}
	}
	return counts, nil
}

// Choose draws one index from the categorical distribution proportional to
// weights. It returns -1 when the weights sum to zero.
func Choose(weights []float64, rng *rand.Rand) int {
	if len(weights) == 0 {
		return -1
	}
	cdf := floats.CumSum(make([]float64, len(weights)), weights)
	total := cdf[len(cdf)-1]
	if total <= 0 {
		return -1
	}
	return pick(cdf, rng.Float64()*total)
}

// pick finds the first index whose cumulative weight exceeds u.
func pick(cdf []float64, u float64) int {
	idx := sort.Search(len(cdf), func(i int) bool { return cdf[i] > u })
	if idx == len(cdf) {
		// u landed on the rounding slack at the top; take the last nonzero bucket
		idx = len(cdf) - 1
		for idx > 0 && cdf[idx] == cdf[idx-1] {
			idx--
		}
	}
	return idx
}
