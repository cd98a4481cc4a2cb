package estimation

import (
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/executor"
	"github.com/oqtopus-team/qsim/program"
	"github.com/oqtopus-team/qsim/qpu"
	"go.uber.org/zap"
)

const ESTIMATION_JOB = "estimation"

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// EstimationJob estimates the expectation value of a weighted sum of Pauli
// strings, given as []Operator in JobData.Info. Every term is sampled on the
// QPU with its own measurement program.
type EstimationJob struct {
	jobData    *core.JobData
	jobContext *core.JobContext

	origProgram         string
	origFormat          string
	terms               []term
	measurementPrograms []string
	countsList          []core.Counts
	exact               *float64
	finished            bool
}

func (j *EstimationJob) New(jd *core.JobData, jc *core.JobContext) core.Job {
	return &EstimationJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *EstimationJob) PreProcess() {
	if err := j.preProcessImpl(); err != nil {
		zap.L().Error(fmt.Sprintf("failed to pre-process a job(%s). Reason:%s",
			j.JobData().ID, err.Error()))
		core.SetFailureWithError(j, err)
		j.finished = true
		return
	}
}

func (j *EstimationJob) preProcessImpl() error {
	jd := j.JobData()
	if err := core.ValidateProgram(j); err != nil {
		return err
	}
	format := program.Format(jd.Format)
	if format == "" {
		format = program.DetectFormat("", jd.Program)
	}
	c, err := program.Parse(format, jd.Program)
	if err != nil {
		return err
	}
	ops, err := ParseOperators(jd.Info)
	if err != nil {
		return err
	}
	terms, err := parseTerms(ops, c.NumQubits())
	if err != nil {
		return err
	}
	j.origProgram = jd.Program
	j.origFormat = jd.Format
	j.terms = terms
	j.measurementPrograms = make([]string, 0, len(terms))
	j.countsList = make([]core.Counts, 0, len(terms))
	for _, t := range terms {
		m, err := measurementCircuit(c, t)
		if err != nil {
			return err
		}
		p, err := program.MarshalJSON(m)
		if err != nil {
			return err
		}
		j.measurementPrograms = append(j.measurementPrograms, p)
	}
	if jd.ShowState {
		s, err := executor.Run(c)
		if err != nil {
			return err
		}
		var v float64
		for _, t := range terms {
			e, err := exact(s, t)
			if err != nil {
				return err
			}
			v += t.coeff * e
		}
		j.exact = &v
	}
	zap.L().Debug(fmt.Sprintf("job(%s) needs %d measurement programs", jd.ID, len(j.measurementPrograms)))
	return nil
}

func (j *EstimationJob) Process() {
	jd := j.JobData()
	origSeed := jd.Seed
	base := qpu.JobSeed(jd)
	defer func() {
		jd.Program = j.origProgram
		jd.Format = j.origFormat
		jd.Seed = origSeed
	}()
	for i, p := range j.measurementPrograms {
		seed := termSeed(base, i)
		jd.Program = p
		jd.Format = string(program.JSONFormat)
		jd.Seed = &seed
		core.ProcessOnQPU(j)
		if jd.Status == core.FAILED {
			zap.L().Error(fmt.Sprintf("failed to run measurement program %d of job(%s)", i, jd.ID))
			j.finished = true
			return
		}
		j.countsList = append(j.countsList, jd.Result.Counts)
	}
}

func (j *EstimationJob) PostProcess() {
	jd := j.JobData()
	j.finished = true
	est, err := j.estimate()
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to post-process a job(%s). Reason:%s", jd.ID, err.Error()))
		core.SetFailureWithError(j, err)
		return
	}
	est.Exact = j.exact
	jd.Result.Estimation = est
	jd.Result.Counts = core.Counts{}
	jd.Result.Probabilities = nil
	jd.Status = core.SUCCEEDED
	zap.L().Debug(fmt.Sprintf("job(%s) exp_value:%f, stds:%f", jd.ID, est.ExpValue, est.Stds))
}

// termSeed gives every measurement program of a job its own random stream
// so that the per-term means are independent.
func termSeed(base uint64, i int) uint64 {
	z := base + uint64(i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// estimate combines the terms. The spread is the standard error of the
// weighted sum of independent per-term means.
func (j *EstimationJob) estimate() (*core.Estimation, error) {
	if len(j.countsList) != len(j.terms) {
		return nil, fmt.Errorf("%w: %d counts for %d terms", core.ErrInvalidParameter, len(j.countsList), len(j.terms))
	}
	est := &core.Estimation{}
	var variance float64
	for i, t := range j.terms {
		mean, v, err := fromCounts(j.countsList[i], t)
		if err != nil {
			return nil, err
		}
		est.ExpValue += t.coeff * mean
		variance += t.coeff * t.coeff * v / float64(j.countsList[i].Total())
	}
	est.Stds = math.Sqrt(variance)
	return est, nil
}

func (j *EstimationJob) IsFinished() bool {
	return j.finished
}

func (j *EstimationJob) JobData() *core.JobData {
	return j.jobData
}

func (j *EstimationJob) JobType() string {
	return ESTIMATION_JOB
}

func (j *EstimationJob) JobContext() *core.JobContext {
	return j.jobContext
}

func (j *EstimationJob) UpdateJobData(jd *core.JobData) {
	j.jobData = jd
}

func (j *EstimationJob) Clone() core.Job {
	cloned := &EstimationJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
		finished:   j.finished,
	}
	return cloned
}
