package monitor

import (
	"context"
	"sync"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/ports"
)

// Subject manages observers and notifies them of engine updates.
type Subject struct {
	observers []*delivery
	mu        sync.RWMutex
}

// NewSubject creates a new subject.
func NewSubject() *Subject {
	return &Subject{
		observers: make([]*delivery, 0),
	}
}

// AddObserver registers a new observer and starts its delivery goroutine.
func (s *Subject) AddObserver(observer ports.MonitorObserver) {
	d := newDelivery(observer)
	go d.run()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, d)
}

// NotifySnapshot hands the results of one snapshot to every observer.
// Each observer receives notifications in the order they were made, on its
// own goroutine, so a slow consumer never stalls ingestion.
func (s *Subject) NotifySnapshot(ctx context.Context, stats []domain.ChannelStats, events []domain.AttackEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.observers {
		obs := d.observer
		d.queue.push(func() { obs.OnSnapshot(ctx, stats, events) })
	}
}

// NotifyCleared tells every observer that all state was discarded.
func (s *Subject) NotifyCleared(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.observers {
		obs := d.observer
		d.queue.push(func() { obs.OnCleared(ctx) })
	}
}

// delivery is the FIFO of pending notifications of one observer.
type delivery struct {
	observer ports.MonitorObserver
	queue    *notifyQueue
}

func newDelivery(observer ports.MonitorObserver) *delivery {
	return &delivery{
		observer: observer,
		queue:    &notifyQueue{wake: make(chan struct{}, 1)},
	}
}

func (d *delivery) run() {
	for {
		<-d.queue.wake
		for _, fn := range d.queue.drain() {
			fn()
		}
	}
}

// notifyQueue is an unbounded queue; push never blocks.
type notifyQueue struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

func (q *notifyQueue) push(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *notifyQueue) drain() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}
