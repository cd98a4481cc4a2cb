package program

import (
	"fmt"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/gate"
)

// FromCircuit is the inverse of Program.Circuit. Library gates are written
// by name; everything else, resolved rotations included, carries its matrix.
func FromCircuit(c *circuit.Circuit) *Program {
	p := &Program{
		Qubits:       c.NumQubits(),
		Instructions: make([]Operation, 0, c.Len()),
	}
	for _, in := range c.Instructions() {
		op := Operation{Gate: in.Name(), Qubits: in.Qubits()}
		g := in.Gate()
		if lib, ok := gate.Lookup(g.Name()); !ok || !sameData(lib.Data(), g.Data()) {
			for _, v := range g.Data() {
				op.Matrix = append(op.Matrix, [2]float64{real(v), imag(v)})
			}
		}
		p.Instructions = append(p.Instructions, op)
	}
	return p
}

// MarshalJSON encodes c as a JSON program accepted by ParseJSON.
func MarshalJSON(c *circuit.Circuit) (string, error) {
	if err := c.Err(); err != nil {
		return "", fmt.Errorf("circuit was built with an error: %w", err)
	}
	s, err := jsonIter.MarshalToString(FromCircuit(c))
	if err != nil {
		return "", fmt.Errorf("%w: %s", core.ErrParse, err)
	}
	return s, nil
}

func sameData(a, b []complex128) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
