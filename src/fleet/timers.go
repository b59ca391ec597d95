package fleet

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// timerSet holds the deferred transition timer per unit. A unit has at
// most one pending transition; emergency stop and shutdown cancel it so
// a stale transition cannot fire against a stopped unit.
type timerSet struct {
	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

func newTimerSet() *timerSet {
	return &timerSet{timers: make(map[uuid.UUID]*time.Timer)}
}

// schedule arms the unit's transition timer, replacing any previous one.
func (t *timerSet) schedule(unitID uuid.UUID, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.timers[unitID]; ok {
		prev.Stop()
	}
	t.timers[unitID] = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, unitID)
		t.mu.Unlock()
		fn()
	})
}

// cancel stops and forgets the unit's pending transition, if any.
func (t *timerSet) cancel(unitID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[unitID]; ok {
		timer.Stop()
		delete(t.timers, unitID)
	}
}

func (t *timerSet) cancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}
