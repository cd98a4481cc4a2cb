package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	jsoniter "github.com/json-iterator/go"
	"github.com/mohae/deepcopy"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

type Status int // Status of a simulation job.

// Counts maps a measured bitstring (qubit 0 leftmost) to its number of
// occurrences.
type Counts map[string]uint32

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

func (c Counts) String() string {
	st, err := jsonIter.Marshal(c)
	if err != nil {
		zap.L().Error("Failed to marshal core.Counts")
		return ""
	}
	return string(st)
}

// Total is the number of shots recorded in c.
func (c Counts) Total() uint32 {
	var total uint32
	for _, v := range c {
		total += v
	}
	return total
}

// Keys returns the observed bitstrings in lexical order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Histogram renders c as one "bits: count" line per observed outcome.
func (c Counts) Histogram() string {
	var sb strings.Builder
	for _, k := range c.Keys() {
		sb.WriteString(fmt.Sprintf("%s: %d\n", k, c[k]))
	}
	return sb.String()
}

func ToStatus(s string) (Status, error) {
	switch s {
	case "submitted":
		return SUBMITTED, nil
	case "ready":
		return READY, nil
	case "running":
		return RUNNING, nil
	case "succeeded":
		return SUCCEEDED, nil
	case "failed":
		return FAILED, nil
	case "cancelled":
		return CANCELLED, nil
	default:
		return 0, fmt.Errorf("unknown status: %s", s)
	}
}

const (
	SUBMITTED Status = iota // Accepted by the batch runner.
	READY                   // Validated and waiting in the scheduler queue.
	RUNNING                 // Being simulated.
	SUCCEEDED               // Finished successfully.
	FAILED                  // Finished with failure.
	CANCELLED               // Finished with cancellation.
)

func (s Status) String() string {
	switch s {
	case SUBMITTED:
		return "submitted"
	case READY:
		return "ready"
	case RUNNING:
		return "running"
	case SUCCEEDED:
		return "succeeded"
	case FAILED:
		return "failed"
	case CANCELLED:
		return "cancelled"
	default:
		return "unknown"
	}
}

type Result struct {
	Counts        Counts             `json:"counts"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Estimation    *Estimation        `json:"estimation,omitempty"`
	Noise         string             `json:"noise"`
	Message       string             `json:"message"`
	ExecutionTime time.Duration      `json:"execution_time"`
}

// Estimation is the expectation value of an observable estimated from
// sampled counts. Exact is the noiseless value computed from the state.
type Estimation struct {
	ExpValue float64  `json:"exp_value"`
	Stds     float64  `json:"stds"`
	Exact    *float64 `json:"exact,omitempty"`
}

type JobData struct {
	ID      string
	Status  Status
	Shots   int
	Seed    *uint64 // nil derives the seed from ID
	Format  string  // "json" or "qasm"
	Program string
	Result  *Result
	JobType string
	Created strfmt.DateTime
	Ended   strfmt.DateTime
	Info    string // job type specific input or output, JSON

	// ShowState asks the simulator to keep the ideal probabilities.
	ShowState bool
}

func (jd *JobData) Clone() *JobData {
	c := deepcopy.Copy(jd).(*JobData)
	c.Created = *jd.Created.DeepCopy()
	c.Ended = *jd.Ended.DeepCopy()
	return c
}

func NewResult() *Result {
	return &Result{
		Counts: make(Counts),
	}
}

func NewJobData() *JobData {
	return &JobData{
		Result:  NewResult(),
		Created: strfmt.DateTime(time.Now()),
	}
}

func (r *Result) ToString() string {
	st, err := jsonIter.Marshal(r)
	if err != nil {
		zap.L().Error("Failed to marshal core.Result")
		return ""
	}
	st = pretty.Pretty(st)
	return string(st)
}
