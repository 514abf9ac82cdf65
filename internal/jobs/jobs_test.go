package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunOncePromiseBeforeGeneric(t *testing.T) {
	q := NewQueue()
	var order []string
	q.EnqueueJob(func() { order = append(order, "generic") })
	q.EnqueuePromiseJob(func() { order = append(order, "promise") })

	ran := q.RunOnce()
	require.True(t, ran)
	require.Equal(t, []string{"promise", "generic"}, order)
}

func TestRunOnceFIFOOrderWithinQueue(t *testing.T) {
	q := NewQueue()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		q.EnqueuePromiseJob(func() { order = append(order, i) })
	}
	q.RunOnce()
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestRunOnceReportsFalseWhenEmpty(t *testing.T) {
	q := NewQueue()
	require.False(t, q.RunOnce())
}

func TestTimeoutRunsOnlyAfterDue(t *testing.T) {
	q := NewQueue()
	ran := false
	q.EnqueueTimeout(0, func() { ran = true })

	// due time is time.Now() at enqueue, so by the time RunOnce checks
	// it should already be due.
	time.Sleep(time.Millisecond)
	q.RunOnce()
	require.True(t, ran)
}

func TestTimeoutNotYetDueDoesNotRun(t *testing.T) {
	q := NewQueue()
	ran := false
	q.EnqueueTimeout(time.Hour, func() { ran = true })
	q.RunOnce()
	require.False(t, ran)
	require.True(t, q.Pending())
}

func TestTimeoutOrderingByDueTime(t *testing.T) {
	q := NewQueue()
	var order []string
	q.EnqueueTimeout(20*time.Millisecond, func() { order = append(order, "late") })
	q.EnqueueTimeout(0, func() { order = append(order, "early") })

	time.Sleep(30 * time.Millisecond)
	q.RunOnce()
	require.Equal(t, []string{"early", "late"}, order)
}

func TestTimeoutTieBreakByScheduleOrder(t *testing.T) {
	q := NewQueue()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		q.EnqueueTimeout(0, func() { order = append(order, i) })
	}
	time.Sleep(time.Millisecond)
	q.RunOnce()
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestTimeoutCancelPreventsRun(t *testing.T) {
	q := NewQueue()
	ran := false
	to := q.EnqueueTimeout(0, func() { ran = true })
	to.Cancel()

	time.Sleep(time.Millisecond)
	q.RunOnce()
	require.False(t, ran)
	require.False(t, q.Pending())
}

func TestTimeoutCancelIdempotent(t *testing.T) {
	q := NewQueue()
	to := q.EnqueueTimeout(0, func() {})
	require.NotPanics(t, func() {
		to.Cancel()
		to.Cancel()
	})
}

func TestPendingReflectsAllThreeQueues(t *testing.T) {
	q := NewQueue()
	require.False(t, q.Pending())

	q.EnqueuePromiseJob(func() {})
	require.True(t, q.Pending())
	q.RunOnce()
	require.False(t, q.Pending())

	q.EnqueueJob(func() {})
	require.True(t, q.Pending())
	q.RunOnce()
	require.False(t, q.Pending())

	q.EnqueueTimeout(time.Hour, func() {})
	require.True(t, q.Pending())
}

func TestDrainRunsJobsEnqueuedByOtherJobs(t *testing.T) {
	q := NewQueue()
	count := 0
	var chain func()
	chain = func() {
		count++
		if count < 5 {
			q.EnqueuePromiseJob(chain)
		}
	}
	q.EnqueuePromiseJob(chain)
	q.Drain()
	require.Equal(t, 5, count)
}

func TestNextDeadlineSkipsCancelled(t *testing.T) {
	q := NewQueue()
	to := q.EnqueueTimeout(time.Millisecond, func() {})
	q.EnqueueTimeout(time.Hour, func() {})
	to.Cancel()

	due, ok := q.NextDeadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(time.Hour), due, 5*time.Second)
}

func TestNextDeadlineFalseWhenNoTimeouts(t *testing.T) {
	q := NewQueue()
	_, ok := q.NextDeadline()
	require.False(t, ok)
}
