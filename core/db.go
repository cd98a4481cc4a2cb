package core

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type MemoryDB struct {
	dbMap         map[string]Job
	innerJobIDSet map[string]struct{}
	dbChan        <-chan Job
	mu            sync.RWMutex
}

func (d *MemoryDB) Setup(dbc DBChan, c *Conf) error {
	d.dbMap = make(map[string]Job)
	d.innerJobIDSet = make(map[string]struct{})
	d.dbChan = dbc
	if dbc == nil {
		return nil
	}
	go func() {
		for job := range d.dbChan {
			zap.L().Debug(fmt.Sprintf("[MemoryDB] Received %s in %s", job.JobData().ID, job.JobData().Status))
			if err := d.Update(job); err != nil {
				zap.L().Error(fmt.Sprintf("failed to update a job(%s). Reason:%s",
					job.JobData().ID, err.Error()))
			}
		}
	}()
	return nil
}

func (d *MemoryDB) Insert(j Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.dbMap[j.JobData().ID]; ok {
		return fmt.Errorf("%w: %s", ErrorJobIDConflict, j.JobData().ID)
	}
	d.dbMap[j.JobData().ID] = j
	return nil
}

func (d *MemoryDB) Get(jobID string) (Job, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if val, ok := d.dbMap[jobID]; ok {
		return val, nil
	}
	err := fmt.Errorf("not found %s", jobID)
	zap.L().Info("[MemoryDB]", zap.Error(err))
	return &NormalJob{}, err
}

func (d *MemoryDB) Update(j Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dbMap[j.JobData().ID] = j
	return nil
}

func (d *MemoryDB) Delete(jobID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.dbMap[jobID]; ok {
		delete(d.dbMap, jobID)
		zap.L().Info(fmt.Sprintf("[MemoryDB] deleted %s from DB", jobID))
		return nil
	}
	err := fmt.Errorf("failed to find %s", jobID)
	zap.L().Info("[MemoryDB]", zap.Error(err))
	return err
}

// List returns the stored jobs ordered by creation time.
func (d *MemoryDB) List() []Job {
	d.mu.RLock()
	defer d.mu.RUnlock()
	jobs := make([]Job, 0, len(d.dbMap))
	for _, j := range d.dbMap {
		jobs = append(jobs, j)
	}
	sort.SliceStable(jobs, func(a, b int) bool {
		ca, cb := time.Time(jobs[a].JobData().Created), time.Time(jobs[b].JobData().Created)
		if ca.Equal(cb) {
			return jobs[a].JobData().ID < jobs[b].JobData().ID
		}
		return ca.Before(cb)
	})
	return jobs
}

func (d *MemoryDB) AddToInnerJobIDSet(jobID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.innerJobIDSet[jobID] = struct{}{}
}

func (d *MemoryDB) RemoveFromInnerJobIDSet(jobID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.innerJobIDSet, jobID)
}

func (d *MemoryDB) ExistInInnerJobIDSet(jobID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.innerJobIDSet[jobID]
	return ok
}
