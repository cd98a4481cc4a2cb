package sampling

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/oqtopus-team/qsim/core"
	"go.uber.org/zap"
)

const SAMPLING_JOB = "sampling"

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// SamplingJob runs a program for its shots and, once the counts are in,
// attaches a Summary of them to JobData.Info.
type SamplingJob struct {
	jobData    *core.JobData
	jobContext *core.JobContext
	summarized bool
}

func (j *SamplingJob) New(jd *core.JobData, jc *core.JobContext) core.Job {
	return &SamplingJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *SamplingJob) PreProcess() {
	if err := core.ValidateProgram(j); err != nil {
		zap.L().Error(fmt.Sprintf("failed to pre-process a job(%s). Reason:%s",
			j.JobData().ID, err.Error()))
		core.SetFailureWithError(j, err)
		return
	}
	j.summarized = false
}

func (j *SamplingJob) Process() {
	core.ProcessOnQPU(j)
}

func (j *SamplingJob) PostProcess() {
	jd := j.JobData()
	s, err := Summarize(jd.Result.Counts)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to summarize a job(%s). Reason:%s", jd.ID, err.Error()))
		core.SetFailureWithError(j, err)
		return
	}
	info, err := jsonIter.MarshalToString(s)
	if err != nil {
		core.SetFailureWithError(j, err)
		return
	}
	jd.Info = info
	j.summarized = true
	zap.L().Debug(fmt.Sprintf("summarized job(%s): %s", jd.ID, info))
}

func (j *SamplingJob) IsFinished() bool {
	switch j.JobData().Status {
	case core.FAILED:
		return true
	case core.SUCCEEDED:
		return j.summarized
	default:
		return false
	}
}

func (j *SamplingJob) JobData() *core.JobData {
	return j.jobData
}

func (j *SamplingJob) JobType() string {
	return SAMPLING_JOB
}

func (j *SamplingJob) JobContext() *core.JobContext {
	return j.jobContext
}

func (j *SamplingJob) UpdateJobData(jd *core.JobData) {
	j.jobData = jd
}

func (j *SamplingJob) Clone() core.Job {
	cloned := &SamplingJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
		summarized: j.summarized,
	}
	return cloned
}
