package todoist

import (
	"context"
	"sync"
	"time"
)

type callFunc func(ctx context.Context) ([]byte, error)

type callResult struct {
	data       []byte
	err        error
	dispatched bool
}

type queuedCall struct {
	ctx  context.Context
	run  callFunc
	done chan callResult
}

// requestQueue runs calls one at a time in arrival order, spacing dispatches
// at least minInterval apart.
type requestQueue struct {
	calls       chan *queuedCall
	minInterval time.Duration
	metrics     *Metrics

	lastDispatch time.Time

	stopOnce sync.Once
	stop     chan struct{}
	exited   chan struct{}
}

func newRequestQueue(minInterval time.Duration, buffer int, metrics *Metrics) *requestQueue {
	if buffer <= 0 {
		buffer = 64
	}
	q := &requestQueue{
		calls:       make(chan *queuedCall, buffer),
		minInterval: minInterval,
		metrics:     metrics,
		stop:        make(chan struct{}),
		exited:      make(chan struct{}),
	}
	go q.worker()
	return q
}

// do enqueues run and waits for its result. A call whose context ends while
// it waits in the queue is skipped; a dispatched call runs to completion.
func (q *requestQueue) do(ctx context.Context, run callFunc) callResult {
	c := &queuedCall{ctx: ctx, run: run, done: make(chan callResult, 1)}

	select {
	case <-q.stop:
		return callResult{err: ErrClientClosed}
	default:
	}

	// Count the call before the worker can see it so the gauge never dips below zero.
	q.metrics.QueueDepth.Inc()
	select {
	case q.calls <- c:
	case <-ctx.Done():
		q.metrics.QueueDepth.Dec()
		return callResult{err: ctx.Err()}
	case <-q.stop:
		q.metrics.QueueDepth.Dec()
		return callResult{err: ErrClientClosed}
	}

	select {
	case r := <-c.done:
		return r
	case <-q.exited:
		select {
		case r := <-c.done:
			return r
		default:
			return callResult{err: ErrClientClosed}
		}
	}
}

func (q *requestQueue) worker() {
	defer close(q.exited)
	for {
		select {
		case <-q.stop:
			q.drain()
			return
		case c := <-q.calls:
			q.metrics.QueueDepth.Dec()
			if !q.dispatch(c) {
				q.drain()
				return
			}
		}
	}
}

// dispatch waits out the interval and runs c. It returns false when the queue was stopped while waiting.
func (q *requestQueue) dispatch(c *queuedCall) bool {
	if err := c.ctx.Err(); err != nil {
		c.done <- callResult{err: err}
		return true
	}

	if !q.lastDispatch.IsZero() {
		if wait := q.minInterval - time.Since(q.lastDispatch); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-c.ctx.Done():
				timer.Stop()
				c.done <- callResult{err: c.ctx.Err()}
				return true
			case <-q.stop:
				timer.Stop()
				c.done <- callResult{err: ErrClientClosed}
				return false
			}
		}
	}

	q.lastDispatch = time.Now()
	data, err := c.run(context.WithoutCancel(c.ctx))
	c.done <- callResult{data: data, err: err, dispatched: true}
	return true
}

func (q *requestQueue) drain() {
	for {
		select {
		case c := <-q.calls:
			q.metrics.QueueDepth.Dec()
			c.done <- callResult{err: ErrClientClosed}
		default:
			return
		}
	}
}

func (q *requestQueue) close() {
	q.stopOnce.Do(func() { close(q.stop) })
	<-q.exited
}
