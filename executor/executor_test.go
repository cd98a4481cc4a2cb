//go:build unit
// +build unit

package executor

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func newCircuit(t *testing.T, n int) *circuit.Circuit {
	t.Helper()
	c, err := circuit.New(n)
	require.Nil(t, err)
	return c
}

func TestRun(t *testing.T) {
	tests := []struct {
		name string
		c    *circuit.Circuit
		want map[string]float64
	}{
		{
			name: "empty circuit stays in zero state",
			c:    newCircuit(t, 2),
			want: map[string]float64{"00": 1, "01": 0, "10": 0, "11": 0},
		},
		{
			name: "bell",
			c:    newCircuit(t, 2).H(0).CX(0, 1),
			want: map[string]float64{"00": 0.5, "01": 0, "10": 0, "11": 0.5},
		},
		{
			name: "ghz",
			c:    newCircuit(t, 3).H(0).CX(0, 1).CX(1, 2),
			want: map[string]float64{
				"000": 0.5, "001": 0, "010": 0, "011": 0,
				"100": 0, "101": 0, "110": 0, "111": 0.5,
			},
		},
		{
			name: "grover finds the marked state",
			c: newCircuit(t, 2).H(0).H(1).CZ(0, 1).
				H(0).H(1).X(0).X(1).CZ(0, 1).X(0).X(1).H(0).H(1),
			want: map[string]float64{"00": 0, "01": 0, "10": 0, "11": 1},
		},
		{
			name: "rx pi flips",
			c:    newCircuit(t, 1).RX(0, math.Pi),
			want: map[string]float64{"0": 0, "1": 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Run(tt.c)
			require.Nil(t, err)
			got := s.Probabilities()
			assert.Equal(t, len(tt.want), len(got))
			for k, v := range tt.want {
				assert.InDelta(t, v, got[k], tol, "outcome %s", k)
			}
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	c := newCircuit(t, 3).H(0).RY(1, 0.4).CX(0, 2).T(2).CZ(1, 0)
	a, err := Run(c)
	require.Nil(t, err)
	b, err := Run(c)
	require.Nil(t, err)
	assert.Equal(t, a.Amplitudes(), b.Amplitudes())
	assert.Equal(t, 5, c.Len())
}

func TestRunRejectsBrokenCircuit(t *testing.T) {
	c := newCircuit(t, 2).H(0).CX(0, 5)
	_, err := Run(c)
	assert.ErrorIs(t, err, core.ErrIndex)
}

func TestRunNoisy(t *testing.T) {
	c := newCircuit(t, 1).X(0)
	damping, err := noise.AmplitudeDamping(1)
	require.Nil(t, err)

	s, err := RunNoisy(c, noise.NewModel(damping), rand.New(rand.NewPCG(1, 1)))
	assert.Nil(t, err)
	assert.InDelta(t, 1.0, s.Probabilities()["0"], tol)

	s, err = RunNoisy(c, nil, nil)
	assert.Nil(t, err)
	assert.InDelta(t, 1.0, s.Probabilities()["1"], tol)

	_, err = RunNoisy(c, noise.NewModel(damping), nil)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestSample(t *testing.T) {
	bell := newCircuit(t, 2).H(0).CX(0, 1)
	flip, err := noise.BitFlip(0.2)
	require.Nil(t, err)

	tests := []struct {
		name      string
		shots     int
		model     *noise.Model
		wantError error
	}{
		{name: "ideal", shots: 2000},
		{name: "noisy", shots: 2000, model: noise.NewModel(flip)},
		{name: "zero shots", shots: 0},
		{name: "negative shots", shots: -5, wantError: core.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts, err := Sample(bell, tt.shots, tt.model, rand.New(rand.NewPCG(3, 4)))
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.Nil(t, err)
			var total uint32
			for _, v := range counts {
				total += v
			}
			assert.Equal(t, uint32(tt.shots), total)
			if tt.model == nil && tt.shots > 0 {
				assert.Equal(t, uint32(0), counts["01"]+counts["10"])
			}
			if tt.model != nil {
				// a flip on either qubit breaks the correlation
				assert.Greater(t, counts["01"]+counts["10"], uint32(0))
			}
		})
	}
}
