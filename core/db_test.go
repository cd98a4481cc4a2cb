//go:build unit
// +build unit

package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryJob(id string, created time.Time) Job {
	return &NormalJob{jobData: &JobData{ID: id, Result: NewResult(), Created: strfmt.DateTime(created)}}
}

func TestMemoryDB(t *testing.T) {
	d := &MemoryDB{}
	require.Nil(t, d.Setup(nil, &Conf{}))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, d.Insert(memoryJob("b", base)))
	assert.Nil(t, d.Insert(memoryJob("a", base)))
	assert.Nil(t, d.Insert(memoryJob("c", base.Add(-time.Second))))
	assert.ErrorIs(t, d.Insert(memoryJob("a", base)), ErrorJobIDConflict)

	var ids []string
	for _, j := range d.List() {
		ids = append(ids, j.JobData().ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	updated := memoryJob("a", base)
	updated.JobData().Status = SUCCEEDED
	assert.Nil(t, d.Update(updated))
	got, err := d.Get("a")
	assert.Nil(t, err)
	assert.Equal(t, SUCCEEDED, got.JobData().Status)

	assert.Nil(t, d.Delete("a"))
	_, err = d.Get("a")
	assert.EqualError(t, err, "not found a")
	assert.EqualError(t, d.Delete("a"), "failed to find a")
}

func TestMemoryDBInnerJobIDSet(t *testing.T) {
	d := &MemoryDB{}
	require.Nil(t, d.Setup(nil, &Conf{}))
	assert.False(t, d.ExistInInnerJobIDSet("x"))
	d.AddToInnerJobIDSet("x")
	assert.True(t, d.ExistInInnerJobIDSet("x"))
	d.RemoveFromInnerJobIDSet("x")
	assert.False(t, d.ExistInInnerJobIDSet("x"))
}

func TestMemoryDBReceivesFromChannel(t *testing.T) {
	ch := make(DBChan)
	d := &MemoryDB{}
	require.Nil(t, d.Setup(ch, &Conf{}))
	defer close(ch)

	for i := 0; i < 3; i++ {
		ch <- memoryJob(fmt.Sprintf("job-%d", i), time.Now())
	}
	assert.Eventually(t, func() bool {
		return len(d.List()) == 3
	}, time.Second, 10*time.Millisecond)
}
