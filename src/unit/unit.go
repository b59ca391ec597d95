// Package unit implements the per-elevator state machine: idle, timed
// movement, the door cycle, and the priority-ordered stop queue.
package unit

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/its-coded-coder/Elevator-API/src/config"
	"github.com/its-coded-coder/Elevator-API/src/types"
)

// QueueEntry is one queued stop, referencing its ledger request.
type QueueEntry struct {
	RequestID uuid.UUID
	Floor     int
	Direction types.Direction
	Priority  int
}

// TripPlan describes the movement the coordinator must schedule after
// BeginTrip. Immediate trips skip the travel phase entirely.
type TripPlan struct {
	RequestID uuid.UUID
	Target    int
	Travel    time.Duration
	Immediate bool
}

// Unit is one elevator. All mutation happens under its mutex, taken by
// the coordinator's tick task for this unit or by direct operator calls.
type Unit struct {
	mu sync.Mutex

	ID     uuid.UUID
	Number int

	currentFloor int
	targetFloor  int
	state        types.UnitState
	direction    types.Direction
	door         types.DoorState
	isActive     bool
	queue        []QueueEntry

	tripCount      int
	floorsTraveled int
	lastUpdate     time.Time

	moveStartedAt time.Time
	moveDuration  time.Duration
	doorStartedAt time.Time

	travelPerFloor time.Duration
	doorOp         time.Duration
}

// New returns an idle unit parked at the given floor.
func New(number, floor int, travelPerFloor, doorOp time.Duration) *Unit {
	return &Unit{
		ID:             uuid.New(),
		Number:         number,
		currentFloor:   floor,
		state:          types.Idle,
		direction:      types.DirNone,
		door:           types.DoorClosed,
		isActive:       true,
		travelPerFloor: travelPerFloor,
		doorOp:         doorOp,
		lastUpdate:     time.Now(),
	}
}

// Restore rebuilds a unit from a persisted snapshot. Movement is not
// resumed; a restored unit starts its next trip from the tick loop.
func Restore(id uuid.UUID, number, floor int, state types.UnitState, active bool, trips, floors int, travelPerFloor, doorOp time.Duration) *Unit {
	u := New(number, floor, travelPerFloor, doorOp)
	u.ID = id
	u.isActive = active
	u.tripCount = trips
	u.floorsTraveled = floors
	if state == types.Maintenance || state == types.OutOfService {
		u.state = state
	}
	return u
}

// Enqueue inserts a stop and re-sorts the queue by priority descending,
// ties broken by floor optimality relative to the current position.
func (u *Unit) Enqueue(e QueueEntry) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.queue = append(u.queue, e)
	u.sortQueue()
	u.lastUpdate = time.Now()
}

// sortQueue re-evaluates the ordering on every insertion. Floor
// optimality is the distance from the current floor, multiplied by a
// large penalty when the stop lies opposite the direction of travel.
// The head stays pinned while it is being served, otherwise a late
// insertion could complete the wrong request at door close.
func (u *Unit) sortQueue() {
	pending := u.queue
	if u.state != types.Idle && len(pending) > 0 {
		pending = pending[1:]
	}
	score := func(e QueueEntry) int {
		distance := abs(e.Floor - u.currentFloor)
		if u.direction == types.DirUp && e.Floor < u.currentFloor {
			distance *= config.DirChangePenaltyFactor
		}
		if u.direction == types.DirDown && e.Floor > u.currentFloor {
			distance *= config.DirChangePenaltyFactor
		}
		return distance
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		return score(pending[i]) < score(pending[j])
	})
}

// BeginTrip starts serving the queue head if the unit is idle. The
// returned plan tells the coordinator which timer to schedule: travel
// for a normal trip, or the door cycle directly when the head stop is
// the current floor.
func (u *Unit) BeginTrip() (TripPlan, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != types.Idle || !u.isActive || len(u.queue) == 0 {
		return TripPlan{}, false
	}

	head := u.queue[0]
	now := time.Now()
	u.lastUpdate = now

	if head.Floor == u.currentFloor {
		// Already here: open the doors instead of starting a move.
		u.state = types.DoorOpening
		u.door = types.DoorIsOpening
		u.doorStartedAt = now
		return TripPlan{RequestID: head.RequestID, Target: head.Floor, Immediate: true}, true
	}

	u.targetFloor = head.Floor
	u.direction = types.DirectionBetween(u.currentFloor, head.Floor)
	if u.direction == types.DirUp {
		u.state = types.MovingUp
	} else {
		u.state = types.MovingDown
	}
	u.moveStartedAt = now
	u.moveDuration = time.Duration(abs(head.Floor-u.currentFloor)) * u.travelPerFloor
	return TripPlan{RequestID: head.RequestID, Target: head.Floor, Travel: u.moveDuration}, true
}

// Arrive completes an in-flight movement: the unit lands on its target
// floor, updates counters and starts opening the doors. Returns the
// door operation duration to schedule, and false if no movement was in
// flight (a stale timer).
func (u *Unit) Arrive() (time.Duration, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.state.Moving() {
		return 0, false
	}
	u.floorsTraveled += abs(u.targetFloor - u.currentFloor)
	u.tripCount++
	u.currentFloor = u.targetFloor
	u.targetFloor = 0
	u.state = types.DoorOpening
	u.door = types.DoorIsOpening
	now := time.Now()
	u.doorStartedAt = now
	u.lastUpdate = now
	return u.doorOp, true
}

// DoorOpened moves DOOR_OPENING to DOOR_OPEN and reports how long the
// opening took, for the door event stream.
func (u *Unit) DoorOpened() (time.Duration, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != types.DoorOpening {
		return 0, false
	}
	u.state = types.DoorOpen
	u.door = types.DoorIsOpen
	now := time.Now()
	opened := now.Sub(u.doorStartedAt)
	u.lastUpdate = now
	return opened, true
}

// StartClosing begins the closing phase after the dwell elapses. The
// state guard protects against a door already closed concurrently.
func (u *Unit) StartClosing() (time.Duration, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != types.DoorOpen {
		return 0, false
	}
	u.state = types.DoorClosing
	u.door = types.DoorIsClosing
	u.lastUpdate = time.Now()
	return u.doorOp, true
}

// DoorClosed finishes the door cycle: the head stop is popped and the
// unit returns to idle with no direction. The popped entry is handed
// back so the coordinator can complete it in the ledger.
func (u *Unit) DoorClosed() (QueueEntry, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != types.DoorClosing {
		return QueueEntry{}, false
	}
	u.state = types.Idle
	u.door = types.DoorClosed
	u.direction = types.DirNone
	u.lastUpdate = time.Now()
	if len(u.queue) == 0 {
		return QueueEntry{}, false
	}
	head := u.queue[0]
	u.queue = u.queue[1:]
	return head, true
}

// EmergencyStop takes the unit out of service from any state. The queue
// is retained for external auditing or reassignment; the coordinator
// cancels any pending movement timer.
func (u *Unit) EmergencyStop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state = types.OutOfService
	u.direction = types.DirNone
	u.targetFloor = 0
	u.isActive = false
	u.lastUpdate = time.Now()
}

// SetMaintenance parks the unit for maintenance and clears its queue.
// The cleared entries are returned for the coordinator to cancel in the
// ledger.
func (u *Unit) SetMaintenance() []QueueEntry {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state = types.Maintenance
	u.direction = types.DirNone
	u.targetFloor = 0
	u.isActive = false
	u.lastUpdate = time.Now()
	cleared := u.queue
	u.queue = nil
	return cleared
}

// Reactivate returns a maintenance or out-of-service unit to idle. It
// is an explicit operator call, never automatic.
func (u *Unit) Reactivate() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != types.Maintenance && u.state != types.OutOfService {
		return false
	}
	u.state = types.Idle
	u.direction = types.DirNone
	u.door = types.DoorClosed
	u.isActive = true
	u.lastUpdate = time.Now()
	return true
}

// Reorder replaces the queue ordering with the given request sequence.
// Requests missing from the sequence keep their relative order at the
// tail. Used when a route optimization is applied.
func (u *Unit) Reorder(ids []uuid.UUID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	index := make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	sort.SliceStable(u.queue, func(i, j int) bool {
		pi, iOK := index[u.queue[i].RequestID]
		pj, jOK := index[u.queue[j].RequestID]
		if iOK && jOK {
			return pi < pj
		}
		return iOK
	})
	u.lastUpdate = time.Now()
}

// EstimateArrival returns the point in time the unit is expected to
// reach the floor: remaining in-flight travel, then each earlier queued
// stop (travel plus two door operations), then the final leg.
func (u *Unit) EstimateArrival(floor int, now time.Time) time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()

	var total time.Duration
	position := u.currentFloor

	if u.state.Moving() {
		remaining := u.moveDuration - now.Sub(u.moveStartedAt)
		if remaining > 0 {
			total += remaining
		}
		position = u.targetFloor
	}

	for _, stop := range u.queue {
		if stop.Floor == floor {
			break
		}
		total += time.Duration(abs(stop.Floor-position)) * u.travelPerFloor
		total += 2 * u.doorOp
		position = stop.Floor
	}
	total += time.Duration(abs(floor-position)) * u.travelPerFloor

	return now.Add(total)
}

// Status returns a point-in-time snapshot.
func (u *Unit) Status() types.UnitStatus {
	u.mu.Lock()
	defer u.mu.Unlock()
	floors := make([]int, len(u.queue))
	for i, e := range u.queue {
		floors[i] = e.Floor
	}
	return types.UnitStatus{
		ID:             u.ID,
		Number:         u.Number,
		CurrentFloor:   u.currentFloor,
		TargetFloor:    u.targetFloor,
		State:          u.state,
		Direction:      u.direction,
		Door:           u.door,
		IsActive:       u.isActive,
		QueueFloors:    floors,
		QueueLength:    len(u.queue),
		TripCount:      u.tripCount,
		FloorsTraveled: u.floorsTraveled,
		LastUpdate:     u.lastUpdate,
	}
}

// Queue returns a copy of the queued stops in order.
func (u *Unit) Queue() []QueueEntry {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]QueueEntry, len(u.queue))
	copy(out, u.queue)
	return out
}

// Available reports whether the unit can take new assignments.
func (u *Unit) Available() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.isActive && u.state != types.Maintenance && u.state != types.OutOfService
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
