package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJob_RejectsBadCron(t *testing.T) {
	s := NewScheduler(nil)
	_, err := s.AddJob("bad", "not a cron", func(ctx context.Context) error { return nil })
	require.Error(t, err)
}

func TestAddJob_ComputesNextRun(t *testing.T) {
	s := NewScheduler(nil)
	id, err := s.AddJob("hourly", "0 * * * *", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.NotEmpty(t, id)

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].NextRunAt.After(time.Now().UTC().Add(-time.Minute)))
}

func TestTick_RunsDueJobsAndReschedules(t *testing.T) {
	s := NewScheduler(nil)
	var runs atomic.Int64
	_, err := s.AddJob("every-minute", "* * * * *", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	due := s.Jobs()[0].NextRunAt
	s.tick(context.Background(), due)
	assert.Equal(t, int64(1), runs.Load())

	job := s.Jobs()[0]
	assert.Equal(t, due, job.LastRunAt)
	assert.True(t, job.NextRunAt.After(due))
	assert.Empty(t, job.LastError)

	// Same instant again: the job is no longer due.
	s.tick(context.Background(), due)
	assert.Equal(t, int64(1), runs.Load())
}

func TestTick_SkipsJobsNotYetDue(t *testing.T) {
	s := NewScheduler(nil)
	var runs atomic.Int64
	_, err := s.AddJob("hourly", "0 * * * *", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	s.tick(context.Background(), s.Jobs()[0].NextRunAt.Add(-time.Second))
	assert.Equal(t, int64(0), runs.Load())
}

func TestRunJob_RecordsError(t *testing.T) {
	s := NewScheduler(nil)
	var fail atomic.Bool
	fail.Store(true)
	_, err := s.AddJob("flaky", "* * * * *", func(ctx context.Context) error {
		if fail.Load() {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)

	s.tick(context.Background(), s.Jobs()[0].NextRunAt)
	assert.Equal(t, "boom", s.Jobs()[0].LastError)

	// A later success clears the recorded error.
	fail.Store(false)
	s.tick(context.Background(), s.Jobs()[0].NextRunAt)
	assert.Empty(t, s.Jobs()[0].LastError)
}

func TestRunNow(t *testing.T) {
	s := NewScheduler(nil)
	var runs atomic.Int64
	id, err := s.AddJob("on-demand", "0 0 1 1 *", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.RunNow(context.Background(), id))
	assert.Equal(t, int64(1), runs.Load())

	require.Error(t, s.RunNow(context.Background(), "nope"))
}

func TestRunNow_SurfacesJobError(t *testing.T) {
	s := NewScheduler(nil)
	id, err := s.AddJob("failing", "* * * * *", func(ctx context.Context) error {
		return errors.New("boom")
	})
	require.NoError(t, err)

	err = s.RunNow(context.Background(), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRemoveJob(t *testing.T) {
	s := NewScheduler(nil)
	id, err := s.AddJob("gone", "* * * * *", func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	s.RemoveJob(id)
	assert.Empty(t, s.Jobs())
	s.RemoveJob("unknown") // no-op
}

func TestJobs_SortedByName(t *testing.T) {
	s := NewScheduler(nil)
	noop := func(ctx context.Context) error { return nil }
	_, err := s.AddJob("zeta", "* * * * *", noop)
	require.NoError(t, err)
	_, err = s.AddJob("alpha", "* * * * *", noop)
	require.NoError(t, err)

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "alpha", jobs[0].Name)
	assert.Equal(t, "zeta", jobs[1].Name)
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, s.Start(context.Background()))
	require.Error(t, s.Start(context.Background()))

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop()) // idempotent
}

func TestCalculateNextRun(t *testing.T) {
	s := NewScheduler(nil)
	from := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	next, err := s.CalculateNextRun("0 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), next)

	_, err = s.CalculateNextRun("garbage", from)
	require.Error(t, err)
}

type fakeCache struct{ invalidations atomic.Int64 }

func (f *fakeCache) InvalidateAll() { f.invalidations.Add(1) }

type fakeMaintStore struct {
	purged  atomic.Int64
	vacuums atomic.Int64
}

func (f *fakeMaintStore) PurgeSchemaDocs(ctx context.Context, olderThan time.Time) (int64, error) {
	f.purged.Add(1)
	return 3, nil
}

func (f *fakeMaintStore) Vacuum(ctx context.Context) error {
	f.vacuums.Add(1)
	return nil
}

func TestRegisterMaintenance(t *testing.T) {
	s := NewScheduler(nil)
	cache := &fakeCache{}
	st := &fakeMaintStore{}

	require.NoError(t, RegisterMaintenance(s, cache, st, DefaultMaintenanceConfig(), nil))
	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "schema-cache-refresh", jobs[0].Name)
	assert.Equal(t, "store-purge", jobs[1].Name)

	for _, job := range jobs {
		require.NoError(t, s.RunNow(context.Background(), job.ID))
	}
	assert.Equal(t, int64(1), cache.invalidations.Load())
	assert.Equal(t, int64(1), st.purged.Load())
	assert.Equal(t, int64(1), st.vacuums.Load())
}

func TestRegisterMaintenance_NilCollaboratorsSkip(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, RegisterMaintenance(s, nil, nil, DefaultMaintenanceConfig(), nil))
	assert.Empty(t, s.Jobs())
}
