package circuit

import (
	"fmt"
	"strings"

	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/gate"
	"go.uber.org/multierr"
)

// MaxQubits bounds the register size. A state vector over MaxQubits qubits
// needs 2^MaxQubits complex amplitudes.
const MaxQubits = 24

// Instruction is a resolved gate applied to ordered target qubits.
// Control qubits precede targets.
type Instruction struct {
	gate   gate.Gate
	qubits []int
}

func (in Instruction) Gate() gate.Gate {
	return in.gate
}

func (in Instruction) Name() string {
	return in.gate.Name()
}

func (in Instruction) Qubits() []int {
	q := make([]int, len(in.qubits))
	copy(q, in.qubits)
	return q
}

func (in Instruction) String() string {
	targets := make([]string, len(in.qubits))
	for i, q := range in.qubits {
		targets[i] = fmt.Sprintf("q[%d]", q)
	}
	return fmt.Sprintf("%s %s", in.gate.Name(), strings.Join(targets, ", "))
}

// Circuit is an append-only list of instructions over a fixed number of
// qubits.
//
// The fluent gate methods return the receiver so calls can be chained. The
// first failing call is recorded, every later fluent call becomes a no-op
// and Err reports the recorded error. Append reports errors directly.
type Circuit struct {
	numQubits    int
	instructions []Instruction
	err          error
}

func New(numQubits int) (*Circuit, error) {
	if numQubits < 1 || numQubits > MaxQubits {
		return nil, fmt.Errorf("%w: number of qubits must be in [1, %d], got %d",
			core.ErrConfiguration, MaxQubits, numQubits)
	}
	return &Circuit{numQubits: numQubits}, nil
}

func (c *Circuit) NumQubits() int {
	return c.numQubits
}

func (c *Circuit) Len() int {
	return len(c.instructions)
}

// Instructions returns a copy of the instruction list in application order.
func (c *Circuit) Instructions() []Instruction {
	out := make([]Instruction, len(c.instructions))
	copy(out, c.instructions)
	return out
}

// Err returns the first error recorded by a fluent gate method.
func (c *Circuit) Err() error {
	return c.err
}

// Append validates the target qubits and appends g.
func (c *Circuit) Append(g gate.Gate, qubits ...int) error {
	if g.Arity() < 1 {
		return fmt.Errorf("%w: gate %q has no matrix", core.ErrInvalidGate, g.Name())
	}
	if len(qubits) != g.Arity() {
		return fmt.Errorf("%w: %s acts on %d qubits, got %d targets",
			core.ErrInvalidGate, g.Name(), g.Arity(), len(qubits))
	}
	if err := c.validate(g.Name(), qubits); err != nil {
		return err
	}
	q := make([]int, len(qubits))
	copy(q, qubits)
	c.instructions = append(c.instructions, Instruction{gate: g, qubits: q})
	return nil
}

// AppendParametric resolves p at theta and appends the result.
func (c *Circuit) AppendParametric(p gate.Parametric, theta float64, qubits ...int) error {
	// index errors take precedence over angle errors
	if err := c.validate(p.Name(), qubits); err != nil {
		return err
	}
	g, err := p.Resolve(theta)
	if err != nil {
		return err
	}
	return c.Append(g, qubits...)
}

func (c *Circuit) validate(name string, qubits []int) error {
	var err error
	seen := make(map[int]struct{}, len(qubits))
	for _, q := range qubits {
		if q < 0 || q >= c.numQubits {
			err = multierr.Append(err, fmt.Errorf("%w: %s target %d is out of range [0, %d)",
				core.ErrIndex, name, q, c.numQubits))
			continue
		}
		if _, ok := seen[q]; ok {
			err = multierr.Append(err, fmt.Errorf("%w: %s target %d is given more than once",
				core.ErrIndex, name, q))
		}
		seen[q] = struct{}{}
	}
	return err
}

func (c *Circuit) fixed(g gate.Gate, qubits ...int) *Circuit {
	if c.err != nil {
		return c
	}
	c.err = c.Append(g, qubits...)
	return c
}

func (c *Circuit) rotation(p gate.Parametric, theta float64, qubits ...int) *Circuit {
	if c.err != nil {
		return c
	}
	c.err = c.AppendParametric(p, theta, qubits...)
	return c
}

func (c *Circuit) I(q int) *Circuit   { return c.fixed(gate.I, q) }
func (c *Circuit) X(q int) *Circuit   { return c.fixed(gate.X, q) }
func (c *Circuit) Y(q int) *Circuit   { return c.fixed(gate.Y, q) }
func (c *Circuit) Z(q int) *Circuit   { return c.fixed(gate.Z, q) }
func (c *Circuit) H(q int) *Circuit   { return c.fixed(gate.H, q) }
func (c *Circuit) S(q int) *Circuit   { return c.fixed(gate.S, q) }
func (c *Circuit) Sdg(q int) *Circuit { return c.fixed(gate.Sdg, q) }
func (c *Circuit) T(q int) *Circuit   { return c.fixed(gate.T, q) }
func (c *Circuit) Tdg(q int) *Circuit { return c.fixed(gate.Tdg, q) }
func (c *Circuit) SX(q int) *Circuit  { return c.fixed(gate.SX, q) }

func (c *Circuit) CX(control, target int) *Circuit { return c.fixed(gate.CX, control, target) }
func (c *Circuit) CY(control, target int) *Circuit { return c.fixed(gate.CY, control, target) }
func (c *Circuit) CZ(control, target int) *Circuit { return c.fixed(gate.CZ, control, target) }
func (c *Circuit) Swap(a, b int) *Circuit          { return c.fixed(gate.Swap, a, b) }

func (c *Circuit) RX(q int, theta float64) *Circuit    { return c.rotation(gate.RX, theta, q) }
func (c *Circuit) RY(q int, theta float64) *Circuit    { return c.rotation(gate.RY, theta, q) }
func (c *Circuit) RZ(q int, theta float64) *Circuit    { return c.rotation(gate.RZ, theta, q) }
func (c *Circuit) Phase(q int, theta float64) *Circuit { return c.rotation(gate.Phase, theta, q) }

func (c *Circuit) CPhase(control, target int, theta float64) *Circuit {
	return c.rotation(gate.CPhase, theta, control, target)
}
