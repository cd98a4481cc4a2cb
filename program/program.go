package program

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/gate"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// unitaryTolerance bounds the per-entry error accepted for user matrices.
const unitaryTolerance = 1e-9

// Program is the JSON form of a circuit.
//
//	{"qubits": 2, "instructions": [{"gate": "h", "qubits": [0]}, {"gate": "cx", "qubits": [0, 1]}]}
type Program struct {
	Qubits       int         `json:"qubits"`
	Instructions []Operation `json:"instructions"`
}

// Operation is one gate call. Angle is required for parametric gates.
// Matrix defines a custom gate as row-major [re, im] pairs.
type Operation struct {
	Gate   string       `json:"gate"`
	Qubits []int        `json:"qubits"`
	Angle  *float64     `json:"angle,omitempty"`
	Matrix [][2]float64 `json:"matrix,omitempty"`
}

// ParseJSON decodes a JSON program and builds its circuit.
func ParseJSON(data []byte) (*circuit.Circuit, error) {
	p := &Program{}
	if err := jsonIter.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrParse, err)
	}
	return p.Circuit()
}

// Circuit builds the circuit. Every failing operation is reported.
func (p *Program) Circuit() (*circuit.Circuit, error) {
	c, err := circuit.New(p.Qubits)
	if err != nil {
		return nil, err
	}
	var errs error
	for i, op := range p.Instructions {
		if err := op.appendTo(c); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("instruction %d (%s): %w", i, op.Gate, err))
		}
	}
	if errs != nil {
		zap.L().Debug(fmt.Sprintf("[Program] rejected program with %d errors", len(multierr.Errors(errs))))
		return nil, errs
	}
	return c, nil
}

func (op Operation) appendTo(c *circuit.Circuit) error {
	if len(op.Matrix) > 0 {
		g, err := customGate(op.Gate, len(op.Qubits), op.Matrix)
		if err != nil {
			return err
		}
		return c.Append(g, op.Qubits...)
	}
	if g, ok := gate.Lookup(op.Gate); ok {
		if op.Angle != nil {
			return fmt.Errorf("%w: %s takes no angle", core.ErrInvalidParameter, op.Gate)
		}
		return c.Append(g, op.Qubits...)
	}
	if pg, ok := gate.LookupParametric(op.Gate); ok {
		if op.Angle == nil {
			return fmt.Errorf("%w: %s needs an angle", core.ErrInvalidParameter, op.Gate)
		}
		if len(op.Qubits) != pg.Arity() {
			return fmt.Errorf("%w: %s acts on %d qubits, got %d targets",
				core.ErrInvalidGate, pg.Name(), pg.Arity(), len(op.Qubits))
		}
		return c.AppendParametric(pg, *op.Angle, op.Qubits...)
	}
	return fmt.Errorf("%w: unknown gate %q", core.ErrInvalidGate, op.Gate)
}

func customGate(name string, arity int, entries [][2]float64) (gate.Gate, error) {
	data := make([]complex128, len(entries))
	for i, e := range entries {
		data[i] = complex(e[0], e[1])
	}
	if name == "" {
		name = "u"
	}
	g, err := gate.New(name, arity, data)
	if err != nil {
		return gate.Gate{}, err
	}
	if !g.IsUnitary(unitaryTolerance) {
		return gate.Gate{}, fmt.Errorf("%w: %s matrix is not unitary", core.ErrInvalidGate, name)
	}
	return g, nil
}

// Format tells how a source text is encoded.
type Format string

const (
	JSONFormat Format = "json"
	QASMFormat Format = "qasm"
)

// DetectFormat guesses the format from a file name, falling back to the
// first non-space character of the content.
func DetectFormat(name, src string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return JSONFormat
	case strings.HasSuffix(lower, ".qasm"):
		return QASMFormat
	}
	if strings.HasPrefix(strings.TrimSpace(src), "{") {
		return JSONFormat
	}
	return QASMFormat
}

// Parse builds a circuit from src in the given format.
func Parse(format Format, src string) (*circuit.Circuit, error) {
	switch format {
	case JSONFormat:
		return ParseJSON([]byte(src))
	case QASMFormat:
		return ParseQASM(src)
	default:
		return nil, fmt.Errorf("%w: unknown program format %q", core.ErrParse, format)
	}
}
