package autotimer

import (
	"context"
	"sync"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/sirupsen/logrus"
)

// Listener observes every status the engine publishes. It runs while the
// engine holds its emit lock, so it must not call Engine methods such as
// Status or HandleSample; a concurrent command would deadlock against it.
// Use the status argument, Registry.Current or Engine.LastStatus instead,
// and hand commands off to another goroutine.
type Listener func(domain.AutoTimerStatus)

// Subscription is the handle returned by Add; pass it to Remove.
type Subscription struct {
	id uint64
}

// Registry fans engine status out to listeners synchronously, in the
// order they were added. A panicking listener is logged and skipped.
type Registry struct {
	mu        sync.Mutex
	nextID    uint64
	order     []uint64
	listeners map[uint64]Listener
	current   domain.AutoTimerStatus
	log       *logrus.Entry
}

func NewRegistry(log *logrus.Entry) *Registry {
	return &Registry{
		listeners: make(map[uint64]Listener),
		current:   domain.AutoTimerStatus{State: domain.StateInactive, Message: "AutoTimer inactive"},
		log:       log,
	}
}

func (r *Registry) Add(l Listener) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.listeners[r.nextID] = l
	r.order = append(r.order, r.nextID)
	return Subscription{id: r.nextID}
}

// Remove drops the listener. It reports false if it was already removed.
func (r *Registry) Remove(s Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listeners[s.id]; !ok {
		return false
	}
	delete(r.listeners, s.id)
	for i, id := range r.order {
		if id == s.id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Current returns the last broadcast status.
func (r *Registry) Current() domain.AutoTimerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Broadcast records st as current and calls every listener with it.
// Listeners run on the caller's goroutine without the registry lock held,
// so they may add or remove subscriptions.
func (r *Registry) Broadcast(st domain.AutoTimerStatus) {
	r.mu.Lock()
	r.current = st
	ls := make([]Listener, 0, len(r.order))
	for _, id := range r.order {
		ls = append(ls, r.listeners[id])
	}
	r.mu.Unlock()

	for _, l := range ls {
		r.call(l, st)
	}
}

func (r *Registry) call(l Listener, st domain.AutoTimerStatus) {
	defer func() {
		if p := recover(); p != nil && r.log != nil {
			r.log.WithField("panic", p).Error("status listener panicked")
		}
	}()
	l(st)
}

// Watch delivers statuses on a channel until ctx is done, then closes it.
// A slow reader loses intermediate statuses, never the latest one.
func (r *Registry) Watch(ctx context.Context) <-chan domain.AutoTimerStatus {
	ch := make(chan domain.AutoTimerStatus, 1)
	var mu sync.Mutex
	closed := false

	sub := r.Add(func(st domain.AutoTimerStatus) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- st:
		default:
			// Replace the stale value.
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	})

	go func() {
		<-ctx.Done()
		r.Remove(sub)
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}
