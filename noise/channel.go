package noise

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"strings"

	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/statevec"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

type Kind string

const (
	BitFlipKind          Kind = "bit_flip"
	PhaseFlipKind        Kind = "phase_flip"
	DepolarizingKind     Kind = "depolarizing"
	AmplitudeDampingKind Kind = "amplitude_damping"
	PhaseDampingKind     Kind = "phase_damping"
)

// Kinds lists every supported channel kind.
func Kinds() []Kind {
	return []Kind{BitFlipKind, PhaseFlipKind, DepolarizingKind, AmplitudeDampingKind, PhaseDampingKind}
}

// Channel is a single-qubit noise process given by a fixed set of 2x2
// Kraus operators with sum K†K = I.
type Channel struct {
	kind  Kind
	param float64
	kraus []*mat.CDense
}

func checkParameter(kind Kind, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %s parameter must be in [0, 1], got %v", core.ErrInvalidParameter, kind, p)
	}
	return nil
}

func newChannel(kind Kind, p float64, kraus ...[]complex128) (*Channel, error) {
	if err := checkParameter(kind, p); err != nil {
		return nil, err
	}
	ops := make([]*mat.CDense, len(kraus))
	for i, k := range kraus {
		ops[i] = mat.NewCDense(2, 2, k)
	}
	return &Channel{kind: kind, param: p, kraus: ops}, nil
}

func sqrt(x float64) complex128 {
	return complex(math.Sqrt(math.Max(x, 0)), 0)
}

// BitFlip applies X with probability p.
func BitFlip(p float64) (*Channel, error) {
	a, b := sqrt(1-p), sqrt(p)
	return newChannel(BitFlipKind, p,
		[]complex128{a, 0, 0, a},
		[]complex128{0, b, b, 0})
}

// PhaseFlip applies Z with probability p.
func PhaseFlip(p float64) (*Channel, error) {
	a, b := sqrt(1-p), sqrt(p)
	return newChannel(PhaseFlipKind, p,
		[]complex128{a, 0, 0, a},
		[]complex128{b, 0, 0, -b})
}

// Depolarizing applies one of X, Y, Z, each with probability p/3.
func Depolarizing(p float64) (*Channel, error) {
	a, b := sqrt(1-p), sqrt(p/3)
	return newChannel(DepolarizingKind, p,
		[]complex128{a, 0, 0, a},
		[]complex128{0, b, b, 0},
		[]complex128{0, -1i * b, 1i * b, 0},
		[]complex128{b, 0, 0, -b})
}

// AmplitudeDamping models energy loss |1> -> |0> with rate gamma.
func AmplitudeDamping(gamma float64) (*Channel, error) {
	return newChannel(AmplitudeDampingKind, gamma,
		[]complex128{1, 0, 0, sqrt(1 - gamma)},
		[]complex128{0, sqrt(gamma), 0, 0})
}

// PhaseDamping models loss of phase coherence with rate lambda.
func PhaseDamping(lambda float64) (*Channel, error) {
	return newChannel(PhaseDampingKind, lambda,
		[]complex128{1, 0, 0, sqrt(1 - lambda)},
		[]complex128{0, 0, 0, sqrt(lambda)})
}

// NewChannel builds a channel by kind name, e.g. "depolarizing".
func NewChannel(kind string, param float64) (*Channel, error) {
	switch Kind(strings.ToLower(strings.ReplaceAll(kind, "-", "_"))) {
	case BitFlipKind:
		return BitFlip(param)
	case PhaseFlipKind:
		return PhaseFlip(param)
	case DepolarizingKind:
		return Depolarizing(param)
	case AmplitudeDampingKind:
		return AmplitudeDamping(param)
	case PhaseDampingKind:
		return PhaseDamping(param)
	default:
		return nil, fmt.Errorf("%w: unknown noise channel %q", core.ErrInvalidParameter, kind)
	}
}

func (c *Channel) Name() string {
	return string(c.kind)
}

func (c *Channel) Kind() Kind {
	return c.kind
}

func (c *Channel) Parameter() float64 {
	return c.param
}

// Kraus returns copies of the Kraus operators.
func (c *Channel) Kraus() []*mat.CDense {
	out := make([]*mat.CDense, len(c.kraus))
	for i, k := range c.kraus {
		out[i] = mat.NewCDense(2, 2, []complex128{k.At(0, 0), k.At(0, 1), k.At(1, 0), k.At(1, 1)})
	}
	return out
}

// Completeness returns sum_i K_i† K_i, which is the identity for every
// valid parameter.
func (c *Channel) Completeness() *mat.CDense {
	sum := mat.NewCDense(2, 2, nil)
	for _, k := range c.kraus {
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				var v complex128
				for r := 0; r < 2; r++ {
					v += cmplx.Conj(k.At(r, i)) * k.At(r, j)
				}
				sum.Set(i, j, sum.At(i, j)+v)
			}
		}
	}
	return sum
}

// ApplyStochastic samples one quantum trajectory: it draws branch i with
// probability ||K_i psi||^2, applies K_i to qubit and renormalizes.
func (c *Channel) ApplyStochastic(s *statevec.Statevector, qubit int, rng *rand.Rand) (*statevec.Statevector, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: no random generator given", core.ErrInvalidParameter)
	}
	branches := make([][]complex128, len(c.kraus))
	weights := make([]float64, len(c.kraus))
	for i, k := range c.kraus {
		raw, err := s.Transform(k, qubit)
		if err != nil {
			return nil, err
		}
		branches[i] = raw
		weights[i] = statevec.SquaredNorm(raw)
	}
	idx := statevec.Choose(weights, rng)
	if idx < 0 || weights[idx] < statevec.Epsilon {
		return nil, fmt.Errorf("%w: %s branch weights %v leave no state to renormalize",
			core.ErrNormalization, c.kind, weights)
	}
	zap.L().Debug(fmt.Sprintf("[Noise] %s(%v) on qubit %d took branch %d/weight:%v",
		c.kind, c.param, qubit, idx, weights[idx]))
	return statevec.Normalize(branches[idx])
}
