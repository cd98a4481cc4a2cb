package estimation

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strconv"
	"strings"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/gate"
	"github.com/oqtopus-team/qsim/statevec"
	"go.uber.org/multierr"
)

// Operator is one weighted Pauli term as given in a job's Info, e.g.
// {"pauli": "X0 Z2", "coeff": 1.5}. An empty or "I" string is the identity.
type Operator struct {
	Pauli string  `json:"pauli"`
	CoEff float64 `json:"coeff"`
}

// term is a parsed Operator: the non-identity Pauli letter on each qubit.
type term struct {
	paulis map[int]byte
	coeff  float64
}

func (t term) qubits() []int {
	qs := make([]int, 0, len(t.paulis))
	for q := range t.paulis {
		qs = append(qs, q)
	}
	sort.Ints(qs)
	return qs
}

// ParseOperators decodes the Info of an estimation job.
func ParseOperators(info string) ([]Operator, error) {
	ops := []Operator{}
	if err := jsonIter.UnmarshalFromString(info, &ops); err != nil {
		return nil, fmt.Errorf("%w: failed to parse operators from %q: %s", core.ErrParse, info, err)
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: no operator to estimate", core.ErrInvalidParameter)
	}
	return ops, nil
}

func parseTerms(ops []Operator, numQubits int) ([]term, error) {
	var errs error
	terms := make([]term, 0, len(ops))
	for i, op := range ops {
		t, err := parseTerm(op, numQubits)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("operator %d (%q): %w", i, op.Pauli, err))
			continue
		}
		terms = append(terms, t)
	}
	if errs != nil {
		return nil, errs
	}
	return terms, nil
}

func parseTerm(op Operator, numQubits int) (term, error) {
	if math.IsNaN(op.CoEff) || math.IsInf(op.CoEff, 0) {
		return term{}, fmt.Errorf("%w: coefficient must be finite", core.ErrInvalidParameter)
	}
	t := term{paulis: map[int]byte{}, coeff: op.CoEff}
	for _, f := range strings.Fields(strings.ToUpper(op.Pauli)) {
		if f == "I" {
			continue
		}
		p := f[0]
		if p != 'X' && p != 'Y' && p != 'Z' && p != 'I' {
			return term{}, fmt.Errorf("%w: unknown Pauli %q", core.ErrParse, f)
		}
		q, err := strconv.Atoi(f[1:])
		if err != nil {
			return term{}, fmt.Errorf("%w: bad qubit in %q", core.ErrParse, f)
		}
		if q < 0 || q >= numQubits {
			return term{}, fmt.Errorf("%w: qubit %d is out of range [0, %d)", core.ErrIndex, q, numQubits)
		}
		if _, ok := t.paulis[q]; ok {
			return term{}, fmt.Errorf("%w: qubit %d appears more than once", core.ErrIndex, q)
		}
		if p != 'I' {
			t.paulis[q] = p
		}
	}
	return t, nil
}

// measurementCircuit appends to c the rotations that turn t's eigenbasis into
// the computational basis: H for X and Sdg then H for Y.
func measurementCircuit(c *circuit.Circuit, t term) (*circuit.Circuit, error) {
	m, err := circuit.New(c.NumQubits())
	if err != nil {
		return nil, err
	}
	for _, in := range c.Instructions() {
		if err := m.Append(in.Gate(), in.Qubits()...); err != nil {
			return nil, err
		}
	}
	for _, q := range t.qubits() {
		switch t.paulis[q] {
		case 'X':
			m.H(q)
		case 'Y':
			m.Sdg(q).H(q)
		}
	}
	return m, m.Err()
}

// fromCounts estimates <t> as the mean parity of the measured qubits. It
// also returns the variance of a single shot.
func fromCounts(counts core.Counts, t term) (mean, variance float64, err error) {
	total := counts.Total()
	if total == 0 {
		return 0, 0, fmt.Errorf("%w: no counts to estimate from", core.ErrInvalidParameter)
	}
	qs := t.qubits()
	var sum float64
	for bits, n := range counts {
		sign := 1.0
		for _, q := range qs {
			if q >= len(bits) {
				return 0, 0, fmt.Errorf("%w: outcome %q has no qubit %d", core.ErrIndex, bits, q)
			}
			if bits[q] == '1' {
				sign = -sign
			}
		}
		sum += sign * float64(n)
	}
	mean = sum / float64(total)
	return mean, 1 - mean*mean, nil
}

// exact returns <psi|P|psi> for the Pauli string of t.
func exact(s *statevec.Statevector, t term) (float64, error) {
	applied := s
	var err error
	for _, q := range t.qubits() {
		g := gate.Z
		switch t.paulis[q] {
		case 'X':
			g = gate.X
		case 'Y':
			g = gate.Y
		}
		applied, err = applied.ApplyGate(g, q)
		if err != nil {
			return 0, err
		}
	}
	var inner complex128
	a, b := s.Amplitudes(), applied.Amplitudes()
	for i := range a {
		inner += cmplx.Conj(a[i]) * b[i]
	}
	return real(inner), nil
}
