// Package jobs implements the engine's job queue (spec.md §5, §4.9): a
// host-drivable queue of deferred work a running script schedules but
// does not run synchronously — resolved-Promise reactions, any other
// microtask-style callback, and timer callbacks due at a future time.
// Nothing here runs a goroutine of its own; Context.RunJobs/RunJobsAsync
// (package engine) is what actually calls Queue.RunOnce/Drain, keeping
// with this engine's single-active-thread-per-realm model (see
// internal/vm's WalkRoots doc comment).
package jobs

import (
	"container/heap"
	"sync"
	"time"

	"github.com/gammazero/deque"
)

// Job is a single unit of deferred work. It takes no arguments and
// returns no value; a Promise reaction job closes over whatever
// resolved/rejected value it needs to pass to its handler, matching
// how ECMA-262's own "PromiseReactionJob" abstract closures work.
type Job func()

// Queue holds three deques/a heap, matching spec.md §4.9's design:
// promise jobs and ordinary (non-promise) jobs are each drained FIFO,
// and timeout jobs are ordered by due time via container/heap.
// gammazero/deque backs both FIFO queues — the ring-buffer double-ended
// queue the teacher's own transaction-pool and downloader queues use
// for the same O(1)-push/pop, no-GC-churn reason.
type Queue struct {
	mu          sync.Mutex
	promiseJobs deque.Deque[Job]
	genericJobs deque.Deque[Job]
	timeouts    timeoutHeap
	nextID      int64
}

// NewQueue constructs an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// EnqueuePromiseJob schedules j to run the next time the promise-job
// FIFO is drained (a .then/.catch/.finally reaction, or a native
// Promise's resolve/reject settling its dependents).
func (q *Queue) EnqueuePromiseJob(j Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.promiseJobs.PushBack(j)
}

// EnqueueJob schedules j onto the generic (non-promise) FIFO —
// queueMicrotask-style host callbacks that are not themselves Promise
// reactions but still run before any due timeout, per spec.md §5's
// ordering rule.
func (q *Queue) EnqueueJob(j Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.genericJobs.PushBack(j)
}

// Timeout is a handle to a scheduled, cancellable timeout job —
// setTimeout's return value.
type Timeout struct {
	q    *Queue
	id   int64
	ent  *timeoutEntry
	once sync.Once
}

// Cancel prevents the timeout's job from running if it has not already
// fired; per spec.md §4.9, cancellation is a flag checked immediately
// before invocation, not a removal from the heap (removing an
// arbitrary heap element by identity would need an index map this
// queue does not otherwise need).
func (t *Timeout) Cancel() {
	t.once.Do(func() {
		t.q.mu.Lock()
		defer t.q.mu.Unlock()
		t.ent.cancelled = true
	})
}

type timeoutEntry struct {
	due       time.Time
	job       Job
	cancelled bool
	seq       int64 // tie-breaker so same-deadline timeouts run in scheduling order
}

// EnqueueTimeout schedules j to run no earlier than d from now,
// returning a handle that can cancel it before it fires.
func (q *Queue) EnqueueTimeout(d time.Duration, j Job) *Timeout {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	ent := &timeoutEntry{due: time.Now().Add(d), job: j, seq: q.nextID}
	heap.Push(&q.timeouts, ent)
	return &Timeout{q: q, id: q.nextID, ent: ent}
}

// Pending reports whether any job or non-cancelled timeout remains.
func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.promiseJobs.Len() > 0 || q.genericJobs.Len() > 0 {
		return true
	}
	for _, e := range q.timeouts {
		if !e.cancelled {
			return true
		}
	}
	return false
}

// RunOnce drains the promise-job FIFO, then the generic-job FIFO, then
// runs every timeout whose due time has passed, in that order —
// spec.md §5's "promise jobs and generic jobs before any due timeout"
// rule. It reports whether any job actually ran.
func (q *Queue) RunOnce() bool {
	ran := false
	for {
		j, ok := q.popPromiseJob()
		if !ok {
			break
		}
		j()
		ran = true
	}
	for {
		j, ok := q.popGenericJob()
		if !ok {
			break
		}
		j()
		ran = true
	}
	for {
		j, ok := q.popDueTimeout()
		if !ok {
			break
		}
		j()
		ran = true
	}
	return ran
}

// Drain calls RunOnce until a pass runs no job, draining the queue
// synchronously (spec.md §6); a timeout that is not yet due stays
// queued. It does not block
// waiting for a future timeout to become due; RunJobsAsync (package
// engine) is responsible for that.
func (q *Queue) Drain() {
	for q.RunOnce() {
	}
}

func (q *Queue) popPromiseJob() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.promiseJobs.Len() == 0 {
		return nil, false
	}
	return q.promiseJobs.PopFront(), true
}

func (q *Queue) popGenericJob() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.genericJobs.Len() == 0 {
		return nil, false
	}
	return q.genericJobs.PopFront(), true
}

func (q *Queue) popDueTimeout() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.timeouts) > 0 && q.timeouts[0].cancelled {
		heap.Pop(&q.timeouts)
	}
	if len(q.timeouts) == 0 || q.timeouts[0].due.After(time.Now()) {
		return nil, false
	}
	e := heap.Pop(&q.timeouts).(*timeoutEntry)
	return e.job, true
}

// NextDeadline reports the due time of the soonest non-cancelled
// timeout, used by RunJobsAsync to know how long it may sleep before
// polling again.
func (q *Queue) NextDeadline() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.timeouts) > 0 && q.timeouts[0].cancelled {
		heap.Pop(&q.timeouts)
	}
	if len(q.timeouts) == 0 {
		return time.Time{}, false
	}
	return q.timeouts[0].due, true
}

// timeoutHeap implements container/heap.Interface ordered by due time,
// breaking ties by scheduling order (seq).
type timeoutHeap []*timeoutEntry

func (h timeoutHeap) Len() int { return len(h) }
func (h timeoutHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}
func (h timeoutHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timeoutHeap) Push(x any) {
	*h = append(*h, x.(*timeoutEntry))
}

func (h *timeoutHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
