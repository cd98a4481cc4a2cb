package gate

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/oqtopus-team/qsim/core"
)

var invSqrt2 = complex(1/math.Sqrt2, 0)

var (
	I   = mustNew("i", 1, 1, 0, 0, 1)
	X   = mustNew("x", 1, 0, 1, 1, 0)
	Y   = mustNew("y", 1, 0, -1i, 1i, 0)
	Z   = mustNew("z", 1, 1, 0, 0, -1)
	H   = mustNew("h", 1, invSqrt2, invSqrt2, invSqrt2, -invSqrt2)
	S   = mustNew("s", 1, 1, 0, 0, 1i)
	Sdg = mustNew("sdg", 1, 1, 0, 0, -1i)
	T   = mustNew("t", 1, 1, 0, 0, cmplx.Exp(complex(0, math.Pi/4)))
	Tdg = mustNew("tdg", 1, 1, 0, 0, cmplx.Exp(complex(0, -math.Pi/4)))
	SX  = mustNew("sx", 1, 0.5+0.5i, 0.5-0.5i, 0.5-0.5i, 0.5+0.5i)

	CX = mustNew("cx", 2,
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
		0, 0, 1, 0)
	CY = mustNew("cy", 2,
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0, -1i,
		0, 0, 1i, 0)
	CZ = mustNew("cz", 2,
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, -1)
	Swap = mustNew("swap", 2,
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 0,
		0, 0, 0, 1)
)

// Parametric is a gate family indexed by a rotation angle in radians.
// Resolve turns it into a concrete Gate.
type Parametric struct {
	name   string
	arity  int
	matrix func(theta float64) []complex128
}

var (
	RX = Parametric{name: "rx", arity: 1, matrix: func(theta float64) []complex128 {
		c, s := math.Cos(theta/2), math.Sin(theta/2)
		return []complex128{
			complex(c, 0), complex(0, -s),
			complex(0, -s), complex(c, 0),
		}
	}}
	RY = Parametric{name: "ry", arity: 1, matrix: func(theta float64) []complex128 {
		c, s := math.Cos(theta/2), math.Sin(theta/2)
		return []complex128{
			complex(c, 0), complex(-s, 0),
			complex(s, 0), complex(c, 0),
		}
	}}
	RZ = Parametric{name: "rz", arity: 1, matrix: func(theta float64) []complex128 {
		return []complex128{
			cmplx.Exp(complex(0, -theta/2)), 0,
			0, cmplx.Exp(complex(0, theta/2)),
		}
	}}
	Phase = Parametric{name: "p", arity: 1, matrix: func(theta float64) []complex128 {
		return []complex128{
			1, 0,
			0, cmplx.Exp(complex(0, theta)),
		}
	}}
	CPhase = Parametric{name: "cp", arity: 2, matrix: func(theta float64) []complex128 {
		return []complex128{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, cmplx.Exp(complex(0, theta)),
		}
	}}
)

func (p Parametric) Name() string {
	return p.name
}

func (p Parametric) Arity() int {
	return p.arity
}

// Resolve computes the gate for theta. Non-finite angles are rejected.
func (p Parametric) Resolve(theta float64) (Gate, error) {
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return Gate{}, fmt.Errorf("%w: %s angle %v is not a finite number",
			core.ErrInvalidParameter, p.name, theta)
	}
	return New(p.name, p.arity, p.matrix(theta))
}

var fixed = map[string]Gate{}
var parametric = map[string]Parametric{}

func init() {
	for _, g := range []Gate{I, X, Y, Z, H, S, Sdg, T, Tdg, SX, CX, CY, CZ, Swap} {
		fixed[g.Name()] = g
	}
	for _, p := range []Parametric{RX, RY, RZ, Phase, CPhase} {
		parametric[p.Name()] = p
	}
	// aliases used by OpenQASM front ends
	fixed["id"] = I
	fixed["cnot"] = CX
	parametric["phase"] = Phase
	parametric["u1"] = Phase
	parametric["cphase"] = CPhase
}

// Lookup finds a fixed library gate by its case-insensitive name.
func Lookup(name string) (Gate, bool) {
	g, ok := fixed[strings.ToLower(name)]
	return g, ok
}

// LookupParametric finds a parametric gate family by its case-insensitive name.
func LookupParametric(name string) (Parametric, bool) {
	p, ok := parametric[strings.ToLower(name)]
	return p, ok
}

// Names lists the canonical names of every library gate.
func Names() []string {
	return []string{
		I.Name(), X.Name(), Y.Name(), Z.Name(), H.Name(), S.Name(), Sdg.Name(),
		T.Name(), Tdg.Name(), SX.Name(), CX.Name(), CY.Name(), CZ.Name(), Swap.Name(),
		RX.Name(), RY.Name(), RZ.Name(), Phase.Name(), CPhase.Name(),
	}
}
