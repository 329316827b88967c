package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadsyncpro/billing/internal/shared/logger"
)

type countingJob struct {
	calls int
	count int
	err   error
}

func (j *countingJob) Execute(ctx context.Context) (int, error) {
	j.calls++
	return j.count, j.err
}

func newTestManager(t *testing.T) *SchedulerManager {
	t.Helper()
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Stop() })
	return m
}

func TestSchedulerManager_RegisterDunningJob(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.RegisterDunningJob("0 3 * * *", time.Minute, &countingJob{}))
	jobs := m.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "billing-dunning", jobs[0].Name())
	assert.ElementsMatch(t, []string{"billing", "dunning"}, jobs[0].Tags())

	err := m.RegisterDunningJob("not a cron", time.Minute, &countingJob{})
	assert.Error(t, err)
}

func TestSchedulerManager_Lifecycle(t *testing.T) {
	m := newTestManager(t)
	assert.False(t, m.IsStarted())

	m.Start()
	m.Start()
	assert.True(t, m.IsStarted())

	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
	require.NoError(t, m.Stop())
}

func TestSchedulerManager_RunBatch(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ok := &countingJob{count: 3}
	m.runBatch(ctx, "dunning", ok)
	assert.Equal(t, 1, ok.calls)

	failing := &countingJob{err: errors.New("boom")}
	m.runBatch(ctx, "dunning", failing)
	assert.Equal(t, 1, failing.calls)
}
