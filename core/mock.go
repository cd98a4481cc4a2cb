package core

import (
	"fmt"

	"go.uber.org/dig"
)

const MockMaxQubits int = 10
const MockMaxShots int = 10000
const validateErrorMessage string = "line 2: unsupported gate"

type UnimplementedJob struct {
	jobData    *JobData
	jobContext *JobContext
}

func (j *UnimplementedJob) New(jd *JobData, jc *JobContext) Job {
	return &UnimplementedJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *UnimplementedJob) PreProcess() {}

func (j *UnimplementedJob) Process() {}

func (j *UnimplementedJob) PostProcess() {}

func (j *UnimplementedJob) IsFinished() bool {
	return j.JobData().Status == SUCCEEDED || j.JobData().Status == FAILED
}

func (j *UnimplementedJob) JobData() *JobData {
	return j.jobData
}

func (j *UnimplementedJob) JobType() string {
	return j.jobData.JobType
}

func (j *UnimplementedJob) JobContext() *JobContext {
	return j.jobContext
}

func (j *UnimplementedJob) Clone() Job {
	cloned := &UnimplementedJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
	}
	return cloned
}

type UnimplementedQPU struct{}

func (u *UnimplementedQPU) Setup(*Conf) error {
	return nil
}

func (u *UnimplementedQPU) Send(Job) error {
	return nil
}

func (u *UnimplementedQPU) Validate(string, string) error {
	return nil
}

func (u *UnimplementedQPU) GetDeviceInfo() *DeviceInfo {
	return &DeviceInfo{
		MaxQubits:  MockMaxQubits,
		MaxShots:   MockMaxShots,
		DeviceName: "unimplementedQPU",
		Gates:      []string{"h", "cx"},
	}
}

type validateErrorQPUForTest struct {
	UnimplementedQPU
}

func (validateErrorQPUForTest) Validate(string, string) error {
	return fmt.Errorf("%w: %s", ErrInvalidGate, validateErrorMessage)
}

type successQPUForTest struct {
	UnimplementedQPU
}

func (successQPUForTest) Send(j Job) error {
	j.JobData().Status = SUCCEEDED
	j.JobData().Result.Counts = Counts{"00": uint32(j.JobData().Shots)}
	return nil
}

type failureQPUForTest struct {
	UnimplementedQPU
}

func (failureQPUForTest) Send(j Job) error {
	return fmt.Errorf("%w: simulation diverged", ErrNormalization)
}

type unimplementedDB struct {
	innerJobIDSet map[string]struct{}
}

func (u *unimplementedDB) Setup(DBChan, *Conf) error {
	u.innerJobIDSet = make(map[string]struct{})
	return nil
}
func (u *unimplementedDB) Insert(Job) error { return nil }
func (u *unimplementedDB) Get(JobID string) (Job, error) {
	return &NormalJob{}, nil
}
func (u *unimplementedDB) Update(Job) error    { return nil }
func (u *unimplementedDB) Delete(string) error { return nil }
func (u *unimplementedDB) List() []Job         { return nil }
func (u *unimplementedDB) AddToInnerJobIDSet(jobID string) {
	u.innerJobIDSet[jobID] = struct{}{}
}
func (u *unimplementedDB) RemoveFromInnerJobIDSet(jobID string) {
	delete(u.innerJobIDSet, jobID)
}
func (u *unimplementedDB) ExistInInnerJobIDSet(jobID string) bool {
	_, ok := u.innerJobIDSet[jobID]
	return ok
}

type successDBForTest struct {
	unimplementedDB
}

func (successDBForTest) Get(jobID string) (Job, error) {
	return &NormalJob{
		jobData: &JobData{
			ID:     jobID,
			Status: RUNNING,
		},
	}, nil
}

type unimplementedScheduler struct{}

func (u *unimplementedScheduler) Setup(*Conf) error           { return nil }
func (u *unimplementedScheduler) Start() error                { return nil }
func (u *unimplementedScheduler) HandleJob(_ Job)             {}
func (u *unimplementedScheduler) GetCurrentQueueSize() int    { return 0 }
func (u *unimplementedScheduler) IsOverRefillThreshold() bool { return false }

func scWithQPU(q QPUManager, db DBManager, sc Scheduler, conf *Conf) *SystemComponents {
	c := dig.New()
	c.Provide(func() QPUManager { return q })
	c.Provide(func() DBManager { return db })
	c.Provide(func() Scheduler { return sc })
	s := NewSystemComponents(c)
	s.Setup(conf)
	return s
}

func SCWithUnimplementedContainer() *SystemComponents {
	return scWithQPU(&successQPUForTest{}, &successDBForTest{}, &unimplementedScheduler{}, &Conf{})
}

func SCWithValidateErrorContainer() *SystemComponents {
	return scWithQPU(&validateErrorQPUForTest{}, &successDBForTest{}, &unimplementedScheduler{}, &Conf{})
}

func SCWithFailureQPUContainer() *SystemComponents {
	return scWithQPU(&failureQPUForTest{}, &MemoryDB{}, &unimplementedScheduler{}, &Conf{})
}

func SCWithDBContainer() *SystemComponents {
	return scWithQPU(&successQPUForTest{}, &MemoryDB{}, &unimplementedScheduler{}, &Conf{})
}

func SCWithScheduler(sc Scheduler) *SystemComponents {
	return scWithQPU(&successQPUForTest{}, &MemoryDB{}, sc, &Conf{QueueMaxSize: 1000, QueueRefillThreshold: 10})
}

// SCWithQPU wires a real QPU with an in-memory DB.
func SCWithQPU(q QPUManager) *SystemComponents {
	return scWithQPU(q, &MemoryDB{}, &unimplementedScheduler{}, &Conf{})
}

// SCWithQPUAndScheduler wires a real QPU and scheduler with an in-memory DB.
func SCWithQPUAndScheduler(q QPUManager, sc Scheduler) *SystemComponents {
	return scWithQPU(q, &MemoryDB{}, sc, &Conf{QueueMaxSize: 1000, QueueRefillThreshold: 10})
}
