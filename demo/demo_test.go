//go:build unit
// +build unit

package demo

import (
	"bytes"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/executor"
	"github.com/oqtopus-team/qsim/statevec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"bell", "bv", "ghz", "grover", "noise", "teleport"}, Names())
	for _, n := range Names() {
		ex, err := Get(n)
		require.Nil(t, err, n)
		assert.Equal(t, n, ex.Name)
	}
	_, err := Get("shor")
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestBell(t *testing.T) {
	ex, err := Bell()
	require.Nil(t, err)
	s, err := executor.Run(ex.Circuit)
	require.Nil(t, err)
	p := s.Probabilities()
	assert.InDelta(t, 0.5, p["00"], tol)
	assert.InDelta(t, 0.5, p["11"], tol)
	assert.InDelta(t, 0, p["01"]+p["10"], tol)
}

func TestGHZ(t *testing.T) {
	ex, err := GHZ(4)
	require.Nil(t, err)
	assert.Equal(t, 4, ex.Circuit.NumQubits())
	s, err := executor.Run(ex.Circuit)
	require.Nil(t, err)
	p := s.Probabilities()
	assert.InDelta(t, 0.5, p["0000"], tol)
	assert.InDelta(t, 0.5, p["1111"], tol)

	_, err = GHZ(0)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestGrover(t *testing.T) {
	for marked := 0; marked < 4; marked++ {
		ex, err := Grover(marked)
		require.Nil(t, err)
		s, err := executor.Run(ex.Circuit)
		require.Nil(t, err)
		assert.InDelta(t, 1, s.Probabilities()[statevec.Bitstring(marked, 2)], tol, "marked %d", marked)
	}
	_, err := Grover(4)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestBernsteinVazirani(t *testing.T) {
	for _, secret := range []string{"0", "1", "000", "101", "110", "1011"} {
		t.Run(secret, func(t *testing.T) {
			ex, err := BernsteinVazirani(secret)
			require.Nil(t, err)
			assert.Equal(t, len(secret)+1, ex.Circuit.NumQubits())
			s, err := executor.Run(ex.Circuit)
			require.Nil(t, err)
			assert.InDelta(t, 1, s.Probabilities()[secret+"1"], tol)
		})
	}

	tests := []struct {
		name   string
		secret string
	}{
		{name: "empty", secret: ""},
		{name: "not binary", secret: "10a"},
		{name: "too long", secret: strings.Repeat("1", circuit.MaxQubits)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BernsteinVazirani(tt.secret)
			assert.ErrorIs(t, err, core.ErrInvalidParameter)
		})
	}
}

func TestTeleport(t *testing.T) {
	ex, err := Teleport()
	require.Nil(t, err)
	s, err := executor.Run(ex.Circuit)
	require.Nil(t, err)
	for k, v := range s.Probabilities() {
		assert.InDelta(t, 0.125, v, tol, k)
	}
	half := 1 / (2 * math.Sqrt2)
	tests := []struct {
		index int
		want  complex128
	}{
		{0b000, complex(half, 0)},
		{0b001, complex(0, half)},
		{0b010, complex(0, half)},
		{0b011, complex(half, 0)},
		{0b100, complex(half, 0)},
		{0b101, complex(0, -half)},
		{0b110, complex(0, -half)},
		{0b111, complex(half, 0)},
	}
	for _, tt := range tests {
		got := s.Amplitude(tt.index)
		assert.InDelta(t, real(tt.want), real(got), tol, statevec.Bitstring(tt.index, 3))
		assert.InDelta(t, imag(tt.want), imag(got), tol, statevec.Bitstring(tt.index, 3))
	}
}

func TestNoise(t *testing.T) {
	ex, err := Noise()
	require.Nil(t, err)
	require.Len(t, ex.Models, 2)
	rng := rand.New(rand.NewPCG(1, 2))
	counts, err := executor.Sample(ex.Circuit, 4000, ex.Models[1], rng)
	require.Nil(t, err)
	assert.Equal(t, uint32(4000), counts.Total())
	// damping biases |+> toward |0>
	assert.Greater(t, counts["0"], counts["1"])
}

func TestReport(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{
			name: "bell",
			want: []string{
				"=== bell ===",
				"q0: -H--*-",
				"|00>: 0.707107+0.000000i",
				"|11>: 0.707107+0.000000i",
				"ideal counts (100 shots):",
			},
		},
		{
			name: "noise",
			want: []string{
				"=== noise ===",
				"depolarizing(0.1) counts (100 shots):",
				"amplitude_damping(0.2) counts (100 shots):",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := Get(tt.name)
			require.Nil(t, err)
			var buf bytes.Buffer
			require.Nil(t, Report(&buf, ex, 100, rand.New(rand.NewPCG(7, 7))))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
