//go:build unit
// +build unit

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScheduler struct {
	unimplementedScheduler
	handled []string
}

func (r *recordingScheduler) HandleJob(j Job) {
	r.handled = append(r.handled, j.JobData().ID)
}

func TestSystemComponentsSetup(t *testing.T) {
	s := SCWithUnimplementedContainer()
	defer s.TearDown()
	assert.Equal(t, s, GetSystemComponents())
	assert.Nil(t, s.Channels.Check())

	di := s.GetDeviceInfo()
	assert.Equal(t, MockMaxShots, di.MaxShots)
	assert.Equal(t, MockMaxQubits, di.MaxQubits)
	assert.Equal(t, 0, s.GetCurrentQueueSize())
	assert.False(t, s.IsQueueOverRefillThreshold())
	assert.Nil(t, s.StartContainer())
}

func TestSubmit(t *testing.T) {
	rs := &recordingScheduler{}
	s := SCWithScheduler(rs)
	defer s.TearDown()
	jm, err := NewJobManager(&NormalJob{})
	require.Nil(t, err)
	jc, err := NewJobContext()
	require.Nil(t, err)

	job, err := jm.NewJob(&JobParam{JobID: "a", Program: "p", Shots: 1}, jc)
	require.Nil(t, err)
	assert.Nil(t, s.Submit(job))
	assert.ErrorIs(t, s.Submit(job), ErrorJobIDConflict)
	assert.Equal(t, []string{"a"}, rs.handled)

	stored := GetJob("a")
	require.NotNil(t, stored)
	assert.False(t, stored == job, "the DB keeps its own copy")
	assert.Equal(t, READY, stored.JobData().Status)

	assert.True(t, DeleteJob("a"))
	assert.False(t, DeleteJob("a"))
	assert.Nil(t, GetJob("a"))
}

func TestDeviceStatusString(t *testing.T) {
	assert.Equal(t, "Available", Available.String())
	assert.Equal(t, "Unavailable", Unavailable.String())
	assert.Equal(t, "QueuePaused", QueuePaused.String())
	assert.Equal(t, "Unknown", DeviceStatus(9).String())
}
