package analysis

import (
	"testing"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLog_EvictsOldestFirst(t *testing.T) {
	l := NewEventLog(MaxEvents, 0)

	var ids []string
	for i := 0; i < 130; i++ {
		e := domain.NewAttackEvent(domain.AttackUnknown, 6, 70, at(i))
		ids = append(ids, e.ID)
		l.Append(e)
		assert.LessOrEqual(t, l.Len(), MaxEvents)
	}

	events := l.Events()
	require.Len(t, events, MaxEvents)
	assert.Equal(t, ids[30], events[0].ID)
	assert.Equal(t, ids[129], events[len(events)-1].ID)
}

func TestEventLog_BatchLargerThanCapacity(t *testing.T) {
	l := NewEventLog(3, 0)
	batch := make([]domain.AttackEvent, 5)
	for i := range batch {
		batch[i] = domain.NewAttackEvent(domain.AttackUnknown, i, 70, t0)
	}

	accepted := l.Append(batch...)
	assert.Len(t, accepted, 5)

	events := l.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []int{2, 3, 4}, []int{events[0].Channel, events[1].Channel, events[2].Channel})
}

func TestEventLog_NoDedupByDefault(t *testing.T) {
	l := NewEventLog(MaxEvents, 0)
	for i := 0; i < 4; i++ {
		l.Append(domain.NewAttackEvent(domain.AttackEvilTwin, 6, 60, at(i)))
	}
	assert.Equal(t, 4, l.Len())
}

func TestEventLog_DedupWindow(t *testing.T) {
	l := NewEventLog(MaxEvents, 12*time.Second)

	for i := 0; i < 6; i++ {
		l.Append(domain.NewAttackEvent(domain.AttackEvilTwin, 6, 60, at(i)))
	}
	// Accepted at 0s, 15s; suppressed at 5s, 10s, 20s, 25s.
	assert.Equal(t, 2, l.Len())

	accepted := l.Append(
		domain.NewAttackEvent(domain.AttackDeauth, 6, 90, at(6)),
		domain.NewAttackEvent(domain.AttackEvilTwin, 11, 60, at(6)),
	)
	assert.Len(t, accepted, 2, "different category or channel is never suppressed")
}

func TestEventLog_Reset(t *testing.T) {
	l := NewEventLog(MaxEvents, time.Minute)
	l.Append(domain.NewAttackEvent(domain.AttackEvilTwin, 6, 60, t0))
	l.Reset()
	assert.Equal(t, 0, l.Len())

	accepted := l.Append(domain.NewAttackEvent(domain.AttackEvilTwin, 6, 60, t0.Add(time.Second)))
	assert.Len(t, accepted, 1)
}
