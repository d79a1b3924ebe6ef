package jobmanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/software-center/catalog/internal/job"
)

func TestRegisterIndexesUnderEveryAppID(t *testing.T) {
	m := New()
	j := job.New(context.Background(), job.KindInstall, nil, false)
	m.Register(j, []string{"a", "b"})

	assert.True(t, m.HasPendingJob("a"))
	assert.True(t, m.HasPendingJob("b"))
	assert.False(t, m.HasPendingJob("c"))
	assert.Equal(t, 1, m.Len())
}

func TestRegisterSkipsEmptyUniqueID(t *testing.T) {
	m := New()
	j := job.New(context.Background(), job.KindInstall, nil, false)
	m.Register(j, []string{"", "a"})

	assert.False(t, m.HasPendingJob(""))
	assert.True(t, m.HasPendingJob("a"))
}

func TestJobsForReturnsAllRegisteredJobs(t *testing.T) {
	m := New()
	j1 := job.New(context.Background(), job.KindInstall, nil, false)
	j2 := job.New(context.Background(), job.KindRemove, nil, false)
	m.Register(j1, []string{"a"})
	m.Register(j2, []string{"a"})

	jobs := m.JobsFor("a")
	require.Len(t, jobs, 2)
}

func TestDeregisterClearsIndex(t *testing.T) {
	m := New()
	j := job.New(context.Background(), job.KindInstall, nil, false)
	m.Register(j, []string{"a", "b"})
	m.Deregister(j)

	assert.False(t, m.HasPendingJob("a"))
	assert.False(t, m.HasPendingJob("b"))
	assert.Equal(t, 0, m.Len())
}

func TestDeregisterLeavesOtherJobsIntact(t *testing.T) {
	m := New()
	j1 := job.New(context.Background(), job.KindInstall, nil, false)
	j2 := job.New(context.Background(), job.KindRemove, nil, false)
	m.Register(j1, []string{"a"})
	m.Register(j2, []string{"a"})

	m.Deregister(j1)
	assert.True(t, m.HasPendingJob("a"))
	assert.Equal(t, 1, m.Len())
}
