package analysis

import (
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
)

// MaxEvents is the number of most recent events retained.
const MaxEvents = 100

type dedupKey struct {
	channel  int
	category domain.AttackCategory
}

// EventLog is the bounded, append-only list of attack events.
// When dedupWindow is positive, an event repeating the (channel, category) of
// an event accepted less than dedupWindow earlier is dropped.
type EventLog struct {
	events      []domain.AttackEvent
	capacity    int
	dedupWindow time.Duration
	lastSeen    map[dedupKey]time.Time
}

// NewEventLog creates an empty log.
func NewEventLog(capacity int, dedupWindow time.Duration) *EventLog {
	if capacity <= 0 {
		capacity = MaxEvents
	}
	return &EventLog{
		events:      make([]domain.AttackEvent, 0, capacity),
		capacity:    capacity,
		dedupWindow: dedupWindow,
		lastSeen:    make(map[dedupKey]time.Time),
	}
}

// Append adds events in order, evicting the oldest beyond capacity, and
// returns the events that were accepted.
func (l *EventLog) Append(events ...domain.AttackEvent) []domain.AttackEvent {
	accepted := make([]domain.AttackEvent, 0, len(events))
	for _, e := range events {
		if l.suppressed(e) {
			continue
		}
		accepted = append(accepted, e)
	}

	l.events = append(l.events, accepted...)
	if over := len(l.events) - l.capacity; over > 0 {
		n := copy(l.events, l.events[over:])
		clear(l.events[n:])
		l.events = l.events[:n]
	}
	return accepted
}

func (l *EventLog) suppressed(e domain.AttackEvent) bool {
	if l.dedupWindow <= 0 {
		return false
	}
	key := dedupKey{channel: e.Channel, category: e.Category}
	if last, ok := l.lastSeen[key]; ok && e.Timestamp.Sub(last) < l.dedupWindow {
		return true
	}
	l.lastSeen[key] = e.Timestamp
	return false
}

// Events returns a copy of the retained events, oldest first.
func (l *EventLog) Events() []domain.AttackEvent {
	out := make([]domain.AttackEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of retained events.
func (l *EventLog) Len() int {
	return len(l.events)
}

// Reset drops every event and dedup marker.
func (l *EventLog) Reset() {
	l.events = l.events[:0]
	clear(l.lastSeen)
}
