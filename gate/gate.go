package gate

import (
	"fmt"
	"math/cmplx"
	"strings"

	"github.com/oqtopus-team/qsim/core"
	"gonum.org/v1/gonum/mat"
)

// MaxArity is the largest number of qubits a single gate may act on.
const MaxArity = 2

// Gate is an immutable unitary acting on Arity() qubits. For multi-qubit
// gates the first target qubit is the most significant bit of the row and
// column index.
type Gate struct {
	name   string
	arity  int
	matrix *mat.CDense
}

// New builds a custom gate from a row-major matrix of 4^arity entries.
func New(name string, arity int, data []complex128) (Gate, error) {
	if arity < 1 || arity > MaxArity {
		return Gate{}, fmt.Errorf("%w: %s acts on %d qubits, supported arity is 1..%d",
			core.ErrInvalidGate, name, arity, MaxArity)
	}
	dim := 1 << arity
	if len(data) != dim*dim {
		return Gate{}, fmt.Errorf("%w: %s needs %d matrix entries, got %d",
			core.ErrInvalidGate, name, dim*dim, len(data))
	}
	d := make([]complex128, len(data))
	copy(d, data)
	return Gate{
		name:   strings.ToLower(name),
		arity:  arity,
		matrix: mat.NewCDense(dim, dim, d),
	}, nil
}

func mustNew(name string, arity int, data ...complex128) Gate {
	g, err := New(name, arity, data)
	if err != nil {
		panic(err)
	}
	return g
}

func (g Gate) Name() string {
	return g.name
}

func (g Gate) Arity() int {
	return g.arity
}

// Dim is the side length of the gate matrix, 2^Arity().
func (g Gate) Dim() int {
	return 1 << g.arity
}

func (g Gate) At(row, col int) complex128 {
	return g.matrix.At(row, col)
}

// Data returns a row-major copy of the matrix.
func (g Gate) Data() []complex128 {
	dim := g.Dim()
	d := make([]complex128, 0, dim*dim)
	for r := 0; r < dim; r++ {
		for c := 0; c < dim; c++ {
			d = append(d, g.matrix.At(r, c))
		}
	}
	return d
}

// Matrix returns a copy of the gate matrix.
func (g Gate) Matrix() *mat.CDense {
	dim := g.Dim()
	return mat.NewCDense(dim, dim, g.Data())
}

// IsUnitary reports whether U†U equals the identity within tol per entry.
func (g Gate) IsUnitary(tol float64) bool {
	if g.matrix == nil {
		return false
	}
	dim := g.Dim()
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			var sum complex128
			for k := 0; k < dim; k++ {
				sum += cmplx.Conj(g.matrix.At(k, i)) * g.matrix.At(k, j)
			}
			want := complex(0, 0)
			if i == j {
				want = 1
			}
			if cmplx.Abs(sum-want) > tol {
				return false
			}
		}
	}
	return true
}

func (g Gate) String() string {
	return g.name
}
