package scheduler

import (
	"fmt"
	"sync"

	"github.com/oqtopus-team/qsim/core"
	"go.uber.org/zap"
)

type statusManager interface {
	Update(job core.Job)
	Delete(jobID string)
	Get(jobID string) []core.Status
}

// statusHistory records every status a job has been seen in.
type statusHistory struct {
	history map[string][]core.Status
	mu      sync.RWMutex
}

func newStatusHistory() *statusHistory {
	return &statusHistory{
		history: make(map[string][]core.Status),
	}
}

func (s *statusHistory) Update(job core.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jid := job.JobData().ID
	s.history[jid] = append(s.history[jid], job.JobData().Status)
}

func (s *statusHistory) Delete(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, jobID)
}

func (s *statusHistory) Get(jobID string) []core.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Status(nil), s.history[jobID]...)
}

type NormalScheduler struct {
	queue         *NormalQueue
	statusManager statusManager
}

type jobInScheduler struct {
	job      core.Job
	finished *sync.WaitGroup
}

func (n *NormalScheduler) Setup(conf *core.Conf) error {
	n.queue = &NormalQueue{}
	if err := n.queue.Setup(conf); err != nil {
		return err
	}
	n.statusManager = newStatusHistory()
	return nil
}

func (n *NormalScheduler) Start() error {
	go func() {
		for {
			jis, err := n.queue.Dequeue(true)
			if err != nil {
				zap.L().Error(fmt.Sprintf("failed to get a job from queue. Reason:%s", err))
				continue
			}
			n.process(jis)
		}
	}()
	return nil
}

func (n *NormalScheduler) process(jis *jobInScheduler) {
	defer jis.done()
	j := jis.job
	jid := j.JobData().ID
	zap.L().Debug(fmt.Sprintf("processing job:%s", jid))
	j.JobData().Status = core.RUNNING
	n.statusManager.Update(j)
	j.JobContext().DBChan <- j.Clone()
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error(fmt.Sprintf("recovered from panic in job(%s): %v", jid, r))
			core.SetFailureWithError(j, fmt.Errorf("panic while processing: %v", r))
		}
	}()
	j.Process()
	zap.L().Debug(fmt.Sprintf("finished to process job(%s), status:%s", jid, j.JobData().Status))
}

func (n *NormalScheduler) HandleJob(j core.Job) {
	zap.L().Debug(fmt.Sprintf("starting to handle job(%s) in %s", j.JobData().ID, j.JobData().Status))
	go func() {
		defer func() {
			zap.L().Debug(fmt.Sprintf("status history job(%s): %v", j.JobData().ID, n.statusManager.Get(j.JobData().ID)))
			n.statusManager.Delete(j.JobData().ID)
		}()
		n.handleImpl(j)
	}()
}

func (n *NormalScheduler) HandleJobForTest(j core.Job, wg *sync.WaitGroup) {
	go func() {
		defer wg.Done()
		n.handleImpl(j)
	}()
}

func (n *NormalScheduler) finish(j core.Job, stage string) {
	zap.L().Debug(fmt.Sprintf("finished to handle job(%s) after %s with status:%s",
		j.JobData().ID, stage, j.JobData().Status))
	n.statusManager.Update(j)
	j.JobContext().DBChan <- j.Clone()
}

func (n *NormalScheduler) handleImpl(j core.Job) {
	for {
		jid := j.JobData().ID
		n.statusManager.Update(j)
		if j.JobData().Status != core.READY {
			zap.L().Error(
				fmt.Sprintf("finished to handle job(%s) with unexpected status:%s", jid, j.JobData().Status))
			// not write to DB
			return
		}
		zap.L().Debug(fmt.Sprintf("handling job(%s). start pre-processing", jid))
		j.PreProcess()
		if j.IsFinished() {
			n.finish(j, "pre-processing")
			return
		}
		var wg sync.WaitGroup
		wg.Add(1)
		n.queue.queueChan <- &jobInScheduler{
			job:      j,
			finished: &wg,
		}
		wg.Wait() // wait for processing
		if j.IsFinished() {
			n.finish(j, "processing")
			return
		}
		zap.L().Debug(fmt.Sprintf("handling job(%s). start post-processing", jid))
		j.PostProcess()
		if j.IsFinished() {
			n.finish(j, "post-processing")
			return
		}
		zap.L().Debug(fmt.Sprintf("one more loop for job(%s)", jid))
	}
}

func (n *NormalScheduler) GetCurrentQueueSize() int {
	return n.queue.GetCurrentSize()
}

func (n *NormalScheduler) IsOverRefillThreshold() bool {
	return n.queue.IsOverRefillThreshold()
}
