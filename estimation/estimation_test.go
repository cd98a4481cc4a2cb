//go:build unit
// +build unit

package estimation

import (
	"testing"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/executor"
	"github.com/oqtopus-team/qsim/qpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

const bellQASM = "OPENQASM 3; qubit[2] q; h q[0]; cx q[0], q[1];"

func TestParseOperators(t *testing.T) {
	ops, err := ParseOperators(`[{"pauli":"X0 X1","coeff":1.5},{"pauli":"Y0 Z1","coeff":1.2}]`)
	require.Nil(t, err)
	assert.Equal(t, []Operator{{Pauli: "X0 X1", CoEff: 1.5}, {Pauli: "Y0 Z1", CoEff: 1.2}}, ops)

	_, err = ParseOperators(`[]`)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	_, err = ParseOperators(`{"pauli":"X0"}`)
	assert.ErrorIs(t, err, core.ErrParse)
}

func TestParseTerm(t *testing.T) {
	tests := []struct {
		name      string
		op        Operator
		want      map[int]byte
		wantError error
	}{
		{name: "two qubits", op: Operator{Pauli: "X0 Z1"}, want: map[int]byte{0: 'X', 1: 'Z'}},
		{name: "lower case", op: Operator{Pauli: "y1"}, want: map[int]byte{1: 'Y'}},
		{name: "identity", op: Operator{Pauli: "I"}, want: map[int]byte{}},
		{name: "empty", op: Operator{Pauli: ""}, want: map[int]byte{}},
		{name: "explicit identity on a qubit", op: Operator{Pauli: "I0 Z1"}, want: map[int]byte{1: 'Z'}},
		{name: "unknown letter", op: Operator{Pauli: "W0"}, wantError: core.ErrParse},
		{name: "no qubit", op: Operator{Pauli: "X"}, wantError: core.ErrParse},
		{name: "out of range", op: Operator{Pauli: "Z2"}, wantError: core.ErrIndex},
		{name: "repeated qubit", op: Operator{Pauli: "Z0 X0"}, wantError: core.ErrIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTerm(tt.op, 2)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tt.want, got.paulis)
		})
	}
}

func bellState(t *testing.T) *circuit.Circuit {
	c, err := circuit.New(2)
	require.Nil(t, err)
	return c.H(0).CX(0, 1)
}

func TestExact(t *testing.T) {
	s, err := executor.Run(bellState(t))
	require.Nil(t, err)
	tests := []struct {
		pauli string
		want  float64
	}{
		{"Z0 Z1", 1},
		{"X0 X1", 1},
		{"Y0 Y1", -1},
		{"Z0", 0},
		{"X1", 0},
		{"I", 1},
	}
	for _, tt := range tests {
		t.Run(tt.pauli, func(t *testing.T) {
			term, err := parseTerm(Operator{Pauli: tt.pauli, CoEff: 1}, 2)
			require.Nil(t, err)
			got, err := exact(s, term)
			require.Nil(t, err)
			assert.InDelta(t, tt.want, got, tol)
		})
	}
}

func TestMeasurementCircuitMatchesExact(t *testing.T) {
	c := bellState(t).RY(0, 0.7).RX(1, -0.4)
	s, err := executor.Run(c)
	require.Nil(t, err)
	for _, pauli := range []string{"X0 Y1", "Y0 Z1", "Z0 X1", "Y0"} {
		term, err := parseTerm(Operator{Pauli: pauli, CoEff: 1}, 2)
		require.Nil(t, err)
		m, err := measurementCircuit(c, term)
		require.Nil(t, err)
		rotated, err := executor.Run(m)
		require.Nil(t, err)

		// parity expectation over the rotated distribution
		var fromRotation float64
		for bits, p := range rotated.Probabilities() {
			sign := 1.0
			for _, q := range term.qubits() {
				if bits[q] == '1' {
					sign = -sign
				}
			}
			fromRotation += sign * p
		}
		want, err := exact(s, term)
		require.Nil(t, err)
		assert.InDelta(t, want, fromRotation, tol, pauli)
	}
}

func TestFromCounts(t *testing.T) {
	zz, _ := parseTerm(Operator{Pauli: "Z0 Z1", CoEff: 1}, 2)
	z0, _ := parseTerm(Operator{Pauli: "Z0", CoEff: 1}, 2)

	mean, variance, err := fromCounts(core.Counts{"00": 50, "11": 50}, zz)
	require.Nil(t, err)
	assert.InDelta(t, 1, mean, tol)
	assert.InDelta(t, 0, variance, tol)

	mean, variance, err = fromCounts(core.Counts{"00": 50, "11": 50}, z0)
	require.Nil(t, err)
	assert.InDelta(t, 0, mean, tol)
	assert.InDelta(t, 1, variance, tol)

	mean, _, err = fromCounts(core.Counts{"10": 3, "00": 1}, z0)
	require.Nil(t, err)
	assert.InDelta(t, -0.5, mean, tol)

	_, _, err = fromCounts(core.Counts{}, z0)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func newEstimationJob(t *testing.T, program, info string, showState bool) core.Job {
	jm, err := core.NewJobManager(&EstimationJob{})
	require.Nil(t, err)
	jc, err := core.NewJobContext()
	require.Nil(t, err)
	seed := uint64(3)
	jd := core.NewJobData()
	jd.ID = "estimation_job"
	jd.Program = program
	jd.Shots = 500
	jd.Seed = &seed
	jd.Status = core.READY
	jd.JobType = ESTIMATION_JOB
	jd.Info = info
	jd.ShowState = showState
	job, err := jm.NewJobFromJobData(jd, jc)
	require.Nil(t, err)
	return job
}

func TestEstimationJobLifecycle(t *testing.T) {
	core.ResetSetting()
	s := core.SCWithQPU(qpu.NewSimulatorQPU(nil, nil))
	defer s.TearDown()

	job := newEstimationJob(t, bellQASM,
		`[{"pauli":"Z0 Z1","coeff":1.5},{"pauli":"X0 X1","coeff":0.5},{"pauli":"Y0 Y1","coeff":1}]`, true)

	job.PreProcess()
	require.False(t, job.IsFinished(), job.JobData().Result.Message)
	job.Process()
	assert.False(t, job.IsFinished())
	assert.Equal(t, bellQASM, job.JobData().Program, "program is restored after measuring")
	job.PostProcess()
	assert.True(t, job.IsFinished())
	assert.True(t, job.Clone().IsFinished())

	jd := job.JobData()
	assert.Equal(t, core.SUCCEEDED, jd.Status)
	require.NotNil(t, jd.Result.Estimation)
	assert.InDelta(t, 1.0, jd.Result.Estimation.ExpValue, tol)
	assert.InDelta(t, 0.0, jd.Result.Estimation.Stds, tol)
	require.NotNil(t, jd.Result.Estimation.Exact)
	assert.InDelta(t, 1.0, *jd.Result.Estimation.Exact, tol)
	assert.Empty(t, jd.Result.Counts)
}

func TestEstimationJobSeedsEachTerm(t *testing.T) {
	core.ResetSetting()
	q := qpu.NewSimulatorQPU(nil, nil)
	s := core.SCWithQPU(q)
	defer s.TearDown()

	const plus = "OPENQASM 3; qubit q; h q;"
	job := newEstimationJob(t, plus, `[{"pauli":"Z0","coeff":1},{"pauli":"Z0","coeff":1}]`, false)
	job.PreProcess()
	require.False(t, job.IsFinished(), job.JobData().Result.Message)
	job.Process()

	jd := job.JobData()
	require.NotNil(t, jd.Seed)
	assert.Equal(t, uint64(3), *jd.Seed, "seed is restored after measuring")

	ej := job.(*EstimationJob)
	require.Equal(t, 2, len(ej.countsList))
	base := qpu.JobSeed(jd)
	assert.NotEqual(t, termSeed(base, 0), termSeed(base, 1))
	assert.NotEqual(t, base, termSeed(base, 0))
	for i, p := range ej.measurementPrograms {
		seed := termSeed(base, i)
		want := &core.JobData{ID: jd.ID, Program: p, Format: "json", Shots: jd.Shots, Seed: &seed, Result: core.NewResult()}
		require.Nil(t, q.Execute(want))
		assert.Equal(t, want.Result.Counts, ej.countsList[i], "term %d", i)
	}
}

func TestEstimationJobPreProcessErrors(t *testing.T) {
	core.ResetSetting()
	s := core.SCWithQPU(qpu.NewSimulatorQPU(nil, nil))
	defer s.TearDown()

	tests := []struct {
		name    string
		program string
		info    string
		wantMsg string
	}{
		{
			name:    "invalid program",
			program: "OPENQASM 3; qubit[2] q; cx q[0], q[2];",
			info:    `[{"pauli":"Z0","coeff":1}]`,
			wantMsg: "index error",
		},
		{
			name:    "no operators",
			program: bellQASM,
			info:    ``,
			wantMsg: "parse error",
		},
		{
			name:    "operator outside the circuit",
			program: bellQASM,
			info:    `[{"pauli":"Z5","coeff":1}]`,
			wantMsg: "qubit 5 is out of range",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newEstimationJob(t, tt.program, tt.info, false)
			job.PreProcess()
			assert.True(t, job.IsFinished())
			assert.Equal(t, core.FAILED, job.JobData().Status)
			assert.Contains(t, job.JobData().Result.Message, tt.wantMsg)
		})
	}
}
