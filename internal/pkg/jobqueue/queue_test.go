package jobqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnqueueDequeueRoundtrip exercises the Redis-backed enqueue/dequeue path
func TestEnqueueDequeueRoundtrip(t *testing.T) {
	host, port, password := resolveTestRedis(t)
	configureTestCache(host, port, password)
	resetJobQueueRedis(t)
	t.Cleanup(func() { resetJobQueueRedis(t) })

	q := NewQueue(1)
	ctx := context.Background()

	payload := AnalyticsEventJobPayload{
		UserID: 9,
		Event:  "Changed plan",
	}
	job, err := q.EnqueueJob(JobTypeAnalyticsEvent, payload.ToMap())
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, JobStatusPending, job.Status)

	size, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	dequeued, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, dequeued)
	assert.Equal(t, job.ID, dequeued.ID)
	assert.Equal(t, JobTypeAnalyticsEvent, dequeued.Type)

	processing, err := q.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), processing)

	got, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}

// TestQueueSinksEnqueueJobs verifies the billing sinks push the expected job types
func TestQueueSinksEnqueueJobs(t *testing.T) {
	host, port, password := resolveTestRedis(t)
	configureTestCache(host, port, password)
	resetJobQueueRedis(t)
	t.Cleanup(func() { resetJobQueueRedis(t) })

	q := NewQueue(1)
	ctx := context.Background()

	analyticsSink := NewQueueAnalyticsSink(q)
	require.NoError(t, analyticsSink.Record(3, "Cancelled Subscription", nil))

	notifySink := NewQueueNotificationSink(q)
	require.NoError(t, notifySink.NotifyExpired(3))

	size, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	first, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	second, err := q.dequeueJob(ctx)
	require.NoError(t, err)

	types := map[JobType]bool{first.Type: true, second.Type: true}
	assert.True(t, types[JobTypeAnalyticsEvent])
	assert.True(t, types[JobTypeExpiredNotice])
}

// TestSweepJobRequiresExpirer verifies sweep jobs fail cleanly without a registered expirer
func TestSweepJobRequiresExpirer(t *testing.T) {
	SetSubscriptionExpirer(nil)

	q := &Queue{}
	err := q.processSubscriptionSweepJob(context.Background(), &Job{Type: JobTypeSubscriptionSweep})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no subscription expirer registered")
}

type countingExpirer struct {
	calls   int
	expired int
}

func (c *countingExpirer) ExpireOverdue(ctx context.Context) (int, error) {
	c.calls++
	return c.expired, nil
}

// TestSweepJobRunsExpirer verifies sweep jobs delegate to the registered expirer
func TestSweepJobRunsExpirer(t *testing.T) {
	exp := &countingExpirer{expired: 2}
	SetSubscriptionExpirer(exp)
	t.Cleanup(func() { SetSubscriptionExpirer(nil) })

	q := &Queue{}
	err := q.processSubscriptionSweepJob(context.Background(), &Job{Type: JobTypeSubscriptionSweep})
	require.NoError(t, err)
	assert.Equal(t, 1, exp.calls)
}
