package statevec

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/gate"
	"gonum.org/v1/gonum/mat"
)

// Epsilon is the tolerance used for every norm check.
const Epsilon = 1e-9

// Statevector holds the 2^n amplitudes of an n-qubit pure state. Basis
// index i encodes qubit q in bit n-1-q, so qubit 0 is the most significant
// bit and the leftmost character of a bitstring.
//
// A Statevector is never modified after construction; every operation
// returns a new value.
type Statevector struct {
	numQubits int
	amps      []complex128
}

// Initial returns |0...0> over numQubits qubits.
func Initial(numQubits int) (*Statevector, error) {
	if numQubits < 1 || numQubits > circuit.MaxQubits {
		return nil, fmt.Errorf("%w: number of qubits must be in [1, %d], got %d",
			core.ErrConfiguration, circuit.MaxQubits, numQubits)
	}
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	return &Statevector{numQubits: numQubits, amps: amps}, nil
}

// New copies amps into a state. The length must be a power of two of at
// least 2 and the vector must have unit norm within Epsilon.
func New(amps []complex128) (*Statevector, error) {
	n, err := qubitsFor(len(amps))
	if err != nil {
		return nil, err
	}
	if norm := math.Sqrt(SquaredNorm(amps)); math.Abs(norm-1) > Epsilon {
		return nil, fmt.Errorf("%w: state norm is %v", core.ErrNormalization, norm)
	}
	c := make([]complex128, len(amps))
	copy(c, amps)
	return &Statevector{numQubits: n, amps: c}, nil
}

// Normalize scales amps to unit norm. A vector whose squared norm is below
// Epsilon cannot be normalized.
func Normalize(amps []complex128) (*Statevector, error) {
	n, err := qubitsFor(len(amps))
	if err != nil {
		return nil, err
	}
	sq := SquaredNorm(amps)
	if sq < Epsilon {
		return nil, fmt.Errorf("%w: squared norm %v is below %v", core.ErrNormalization, sq, Epsilon)
	}
	scale := complex(1/math.Sqrt(sq), 0)
	c := make([]complex128, len(amps))
	for i, a := range amps {
		c[i] = a * scale
	}
	return &Statevector{numQubits: n, amps: c}, nil
}

func qubitsFor(length int) (int, error) {
	if length < 2 || length&(length-1) != 0 {
		return 0, fmt.Errorf("%w: amplitude count %d is not a power of two", core.ErrConfiguration, length)
	}
	n := 0
	for 1<<n < length {
		n++
	}
	if n > circuit.MaxQubits {
		return 0, fmt.Errorf("%w: %d qubits exceeds the limit of %d", core.ErrConfiguration, n, circuit.MaxQubits)
	}
	return n, nil
}

// SquaredNorm returns the sum of |a|^2 over amps.
func SquaredNorm(amps []complex128) float64 {
	var sum float64
	for _, a := range amps {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return sum
}

func (s *Statevector) NumQubits() int {
	return s.numQubits
}

// Dim is the number of amplitudes, 2^NumQubits().
func (s *Statevector) Dim() int {
	return len(s.amps)
}

// Amplitudes returns a copy of the amplitude vector.
func (s *Statevector) Amplitudes() []complex128 {
	c := make([]complex128, len(s.amps))
	copy(c, s.amps)
	return c
}

func (s *Statevector) Amplitude(index int) complex128 {
	return s.amps[index]
}

func (s *Statevector) Norm() float64 {
	return math.Sqrt(SquaredNorm(s.amps))
}

// Apply applies one circuit instruction.
func (s *Statevector) Apply(in circuit.Instruction) (*Statevector, error) {
	return s.ApplyGate(in.Gate(), in.Qubits()...)
}

// ApplyGate embeds g on the given targets. The first target is the most
// significant bit of the gate's sub-index. The result is not renormalized.
func (s *Statevector) ApplyGate(g gate.Gate, targets ...int) (*Statevector, error) {
	if len(targets) != g.Arity() {
		return nil, fmt.Errorf("%w: %s acts on %d qubits, got %d targets",
			core.ErrInvalidGate, g.Name(), g.Arity(), len(targets))
	}
	out, err := s.embed(g.Data(), targets)
	if err != nil {
		return nil, err
	}
	return &Statevector{numQubits: s.numQubits, amps: out}, nil
}

// Transform applies an arbitrary 2^k x 2^k operator on k targets and
// returns the raw, possibly unnormalized, amplitudes.
func (s *Statevector) Transform(m mat.CMatrix, targets ...int) ([]complex128, error) {
	r, c := m.Dims()
	if r != c || r != 1<<len(targets) {
		return nil, fmt.Errorf("%w: %dx%d operator does not act on %d qubits",
			core.ErrInvalidGate, r, c, len(targets))
	}
	data := make([]complex128, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return s.embed(data, targets)
}

func (s *Statevector) checkTargets(targets []int) error {
	if len(targets) < 1 || len(targets) > gate.MaxArity {
		return fmt.Errorf("%w: %d targets, supported arity is 1..%d",
			core.ErrInvalidGate, len(targets), gate.MaxArity)
	}
	for i, t := range targets {
		if t < 0 || t >= s.numQubits {
			return fmt.Errorf("%w: target %d is out of range [0, %d)", core.ErrIndex, t, s.numQubits)
		}
		for _, u := range targets[:i] {
			if u == t {
				return fmt.Errorf("%w: target %d is given more than once", core.ErrIndex, t)
			}
		}
	}
	return nil
}

// embed computes (I ⊗ ... ⊗ M ⊗ ... ⊗ I)|ψ> without building the full
// operator. For every basis index with all target bits cleared, the 2^k
// amplitudes reached by setting target bits form one block that M mixes.
func (s *Statevector) embed(m []complex128, targets []int) ([]complex128, error) {
	if err := s.checkTargets(targets); err != nil {
		return nil, err
	}
	k := len(targets)
	sub := 1 << k
	offsets := make([]int, sub)
	mask := 0
	for j, t := range targets {
		bit := 1 << (s.numQubits - 1 - t)
		mask |= bit
		for idx := range offsets {
			if idx&(1<<(k-1-j)) != 0 {
				offsets[idx] |= bit
			}
		}
	}

	out := make([]complex128, len(s.amps))
	block := make([]complex128, sub)
	for base := range s.amps {
		if base&mask != 0 {
			continue
		}
		for c, off := range offsets {
			block[c] = s.amps[base+off]
		}
		for r, off := range offsets {
			var sum complex128
			row := m[r*sub : (r+1)*sub]
			for c, a := range block {
				sum += row[c] * a
			}
			out[base+off] = sum
		}
	}
	return out, nil
}

// Fidelity returns |<a|b>|^2.
func Fidelity(a, b *Statevector) (float64, error) {
	if a.numQubits != b.numQubits {
		return 0, fmt.Errorf("%w: states over %d and %d qubits", core.ErrConfiguration, a.numQubits, b.numQubits)
	}
	var inner complex128
	for i := range a.amps {
		inner += cmplx.Conj(a.amps[i]) * b.amps[i]
	}
	f := cmplx.Abs(inner)
	return f * f, nil
}

func (s *Statevector) String() string {
	var sb strings.Builder
	for i, a := range s.amps {
		if cmplx.Abs(a) < Epsilon {
			continue
		}
		fmt.Fprintf(&sb, "|%s>: %.6f%+.6fi\n", Bitstring(i, s.numQubits), real(a), imag(a))
	}
	return sb.String()
}
