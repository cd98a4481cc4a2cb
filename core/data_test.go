//go:build unit
// +build unit

package core

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
)

func TestResultToString(t *testing.T) {
	tests := []struct {
		name       string
		result     *Result
		wantString string
	}{
		{
			name:   "empty result",
			result: NewResult(),
			wantString: heredoc.Doc(`
			  {
			    "counts": {},
			    "noise": "",
			    "message": "",
			    "execution_time": 0
			  }
			`),
		},
		{
			name:   "message in result",
			result: messageInResult(),
			wantString: heredoc.Doc(`
			  {
			    "counts": {},
			    "noise": "",
			    "message": "dummy message",
			    "execution_time": 0
			  }
			`),
		},
		{
			name:   "all in result",
			result: allInResult(),
			wantString: heredoc.Doc(`
			  {
			    "counts": {
			      "00": 10,
			      "11": 20
			    },
			    "probabilities": {
			      "00": 0.5,
			      "11": 0.5
			    },
			    "noise": "bit_flip(0.1)",
			    "message": "dummy message",
			    "execution_time": 0
			  }
			`),
		},
		{
			name:   "estimation in result",
			result: estimationInResult(),
			wantString: heredoc.Doc(`
			  {
			    "counts": {},
			    "estimation": {
			      "exp_value": 0.5,
			      "stds": 0.25
			    },
			    "noise": "none",
			    "message": "",
			    "execution_time": 0
			  }
			`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := tt.result.ToString()
			assert.Equal(t, tt.wantString, act)
		})
	}
}

func estimationInResult() *Result {
	r := NewResult()
	r.Estimation = &Estimation{ExpValue: 0.5, Stds: 0.25}
	r.Noise = "none"
	return r
}

func messageInResult() *Result {
	r := NewResult()
	r.Message = "dummy message"
	return r
}

func allInResult() *Result {
	r := NewResult()
	r.Message = "dummy message"
	r.Noise = "bit_flip(0.1)"
	r.Counts = Counts{"00": 10, "11": 20}
	r.Probabilities = map[string]float64{"00": 0.5, "11": 0.5}
	return r
}

func TestCounts(t *testing.T) {
	c := Counts{"10": 3, "00": 5, "11": 2}
	assert.Equal(t, uint32(10), c.Total())
	assert.Equal(t, []string{"00", "10", "11"}, c.Keys())
	assert.Equal(t, "00: 5\n10: 3\n11: 2\n", c.Histogram())
	assert.Equal(t, `{"00":5,"10":3,"11":2}`, c.String())

	empty := Counts{}
	assert.Equal(t, uint32(0), empty.Total())
	assert.Equal(t, "", empty.Histogram())
}

func TestToStatus(t *testing.T) {
	for _, st := range []Status{SUBMITTED, READY, RUNNING, SUCCEEDED, FAILED, CANCELLED} {
		got, err := ToStatus(st.String())
		assert.Nil(t, err)
		assert.Equal(t, st, got)
	}
	_, err := ToStatus("paused")
	assert.EqualError(t, err, "unknown status: paused")
	assert.Equal(t, "unknown", Status(42).String())
}

func TestCloneJobData(t *testing.T) {
	seed := uint64(7)
	tests := []struct {
		name    string
		jobData *JobData
	}{
		{
			name: "no properties",
			jobData: &JobData{
				ID:      "dummy_id",
				Program: "dummy_program",
				Shots:   1000,
				Result:  NewResult(),
				Created: strfmt.NewDateTime(),
				Ended:   strfmt.NewDateTime(),
			},
		},
		{
			name: "with properties",
			jobData: &JobData{
				ID:      "dummy_id",
				Program: "dummy_program",
				Format:  "qasm",
				Seed:    &seed,
				Shots:   1000,
				Result:  allInResult(),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cloned := tt.jobData.Clone()

			assert.False(t, tt.jobData == cloned)
			assert.Equal(t, tt.jobData.ID, cloned.ID)
			assert.Equal(t, tt.jobData.Program, cloned.Program)
			assert.Equal(t, tt.jobData.Shots, cloned.Shots)
			assert.Equal(t, tt.jobData.Seed, cloned.Seed)
			assert.Equal(t, tt.jobData.Created, cloned.Created)
			assert.Equal(t, tt.jobData.Ended, cloned.Ended)
			assert.False(t, tt.jobData.Result == cloned.Result)
			assert.Equal(t, tt.jobData.Result.Counts, cloned.Result.Counts)

			cloned.Result.Counts["01"] = 99
			_, leaked := tt.jobData.Result.Counts["01"]
			assert.False(t, leaked)
		})
	}
}
