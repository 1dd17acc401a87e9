package autotimer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EffectRunner executes best-effort side effects. Failures are logged by the
// runner and never reach the engine.
type EffectRunner interface {
	Submit(name string, fn func(ctx context.Context) error)
}

// InlineEffects runs each effect immediately on the submitting goroutine.
type InlineEffects struct {
	Log *logrus.Entry
}

func (r InlineEffects) Submit(name string, fn func(ctx context.Context) error) {
	if err := fn(context.Background()); err != nil && r.Log != nil {
		r.Log.WithError(err).WithField("effect", name).Warn("side effect failed")
	}
}

type effect struct {
	name string
	fn   func(ctx context.Context) error
}

// QueueEffects runs effects in submission order on one worker goroutine.
// When the queue is full new effects are dropped.
type QueueEffects struct {
	ch      chan effect
	timeout time.Duration
	log     *logrus.Entry
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// NewQueueEffects starts the worker. Each effect gets timeout to finish.
func NewQueueEffects(size int, timeout time.Duration, log *logrus.Entry) *QueueEffects {
	if size <= 0 {
		size = 64
	}
	q := &QueueEffects{ch: make(chan effect, size), timeout: timeout, log: log}
	q.wg.Add(1)
	go q.loop()
	return q
}

func (q *QueueEffects) Submit(name string, fn func(ctx context.Context) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	select {
	case q.ch <- effect{name: name, fn: fn}:
	default:
		q.log.WithField("effect", name).Warn("effect queue full, dropping")
	}
}

// Close stops accepting effects and waits for queued ones to finish.
func (q *QueueEffects) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *QueueEffects) loop() {
	defer q.wg.Done()
	for e := range q.ch {
		q.run(e)
	}
}

func (q *QueueEffects) run(e effect) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			q.log.WithField("effect", e.name).WithField("panic", p).Error("side effect panicked")
		}
	}()
	if err := e.fn(ctx); err != nil {
		q.log.WithError(err).WithField("effect", e.name).Warn("side effect failed")
	}
}
