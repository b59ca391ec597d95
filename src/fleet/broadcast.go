package fleet

import (
	"sync/atomic"
	"time"

	"github.com/its-coded-coder/Elevator-API/src/types"
	"github.com/its-coded-coder/Elevator-API/src/unit"
)

// broadcaster fans unit events out to the telemetry consumer. Delivery
// is best-effort: a saturated channel drops the event and counts it,
// never blocking a transition.
type broadcaster struct {
	events  chan types.Event
	dropped atomic.Uint64
}

func newBroadcaster(buffer int) *broadcaster {
	return &broadcaster{events: make(chan types.Event, buffer)}
}

func (b *broadcaster) publish(ev types.Event) {
	ev.Timestamp = time.Now()
	select {
	case b.events <- ev:
	default:
		b.dropped.Add(1)
	}
}

func (f *Fleet) publishStatus(u *unit.Unit) {
	st := u.Status()
	f.broadcast.publish(types.Event{
		Type:   types.EventStatus,
		UnitID: st.ID,
		Status: st,
		Floor:  st.CurrentFloor,
	})
}

func (f *Fleet) publishUnitEvent(u *unit.Unit, kind types.EventType, floor int, d time.Duration) {
	st := u.Status()
	f.broadcast.publish(types.Event{
		Type:     kind,
		UnitID:   st.ID,
		Status:   st,
		Floor:    floor,
		Duration: d,
	})
}
