package unit

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/its-coded-coder/Elevator-API/src/types"
)

const (
	testTravel = 2 * time.Second
	testDoorOp = time.Second
)

func entry(floor, priority int, dir types.Direction) QueueEntry {
	return QueueEntry{RequestID: uuid.New(), Floor: floor, Direction: dir, Priority: priority}
}

func queueFloors(u *Unit) []int {
	var out []int
	for _, e := range u.Queue() {
		out = append(out, e.Floor)
	}
	return out
}

func TestQueueOrdersByPriorityThenDistance(t *testing.T) {
	u := New(1, 5, testTravel, testDoorOp)
	u.Enqueue(entry(9, 0, types.DirUp))
	u.Enqueue(entry(6, 0, types.DirUp))
	u.Enqueue(entry(2, 7, types.DirDown))

	got := queueFloors(u)
	want := []int{2, 6, 9} // priority 7 first, then nearest
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue order = %v, want %v", got, want)
		}
	}

	// Higher priority never trails lower priority.
	queue := u.Queue()
	for i := 1; i < len(queue); i++ {
		if queue[i].Priority > queue[i-1].Priority {
			t.Errorf("priority %d at %d ahead of %d", queue[i-1].Priority, i-1, queue[i].Priority)
		}
	}
}

func TestQueuePenalizesOppositeDirection(t *testing.T) {
	u := New(1, 5, testTravel, testDoorOp)
	if _, ok := u.BeginTrip(); ok {
		t.Fatal("empty queue should not start a trip")
	}
	u.Enqueue(entry(8, 0, types.DirUp))
	if _, ok := u.BeginTrip(); !ok {
		t.Fatal("trip should start")
	}
	// Moving up from 5: floor 4 is opposite, floor 7 is along the way.
	u.Enqueue(entry(4, 0, types.DirDown))
	u.Enqueue(entry(7, 0, types.DirUp))

	got := queueFloors(u)
	if got[len(got)-1] != 4 {
		t.Errorf("opposite-direction stop should sort last, got %v", got)
	}
}

func TestBeginTripSetsDirectionAndTravelTime(t *testing.T) {
	u := New(1, 2, testTravel, testDoorOp)
	u.Enqueue(entry(6, 0, types.DirUp))

	plan, ok := u.BeginTrip()
	if !ok {
		t.Fatal("trip should start")
	}
	if plan.Travel != 4*testTravel {
		t.Errorf("travel = %v, want %v", plan.Travel, 4*testTravel)
	}
	st := u.Status()
	if st.State != types.MovingUp || st.Direction != types.DirUp || st.TargetFloor != 6 {
		t.Errorf("state=%s dir=%s target=%d after BeginTrip", st.State, st.Direction, st.TargetFloor)
	}
}

func TestBeginTripAtCurrentFloorSkipsMovement(t *testing.T) {
	u := New(1, 3, testTravel, testDoorOp)
	u.Enqueue(entry(3, 0, types.DirUp))

	plan, ok := u.BeginTrip()
	if !ok || !plan.Immediate {
		t.Fatalf("expected immediate plan, got %+v ok=%v", plan, ok)
	}
	if st := u.Status(); st.State != types.DoorOpening {
		t.Errorf("state = %s, want DOOR_OPENING", st.State)
	}
}

func TestFullCycleReturnsToIdle(t *testing.T) {
	u := New(1, 1, testTravel, testDoorOp)
	e := entry(3, 0, types.DirUp)
	u.Enqueue(e)

	if _, ok := u.BeginTrip(); !ok {
		t.Fatal("trip should start")
	}
	if _, ok := u.Arrive(); !ok {
		t.Fatal("arrive failed")
	}
	if _, ok := u.DoorOpened(); !ok {
		t.Fatal("door open failed")
	}
	if _, ok := u.StartClosing(); !ok {
		t.Fatal("closing failed")
	}
	popped, ok := u.DoorClosed()
	if !ok {
		t.Fatal("door close failed")
	}
	if popped.RequestID != e.RequestID {
		t.Error("wrong queue head popped")
	}

	st := u.Status()
	if st.State != types.Idle || st.Direction != types.DirNone || st.Door != types.DoorClosed {
		t.Errorf("post-cycle state=%s dir=%s door=%s", st.State, st.Direction, st.Door)
	}
	if st.CurrentFloor != 3 || st.TargetFloor != 0 {
		t.Errorf("floor=%d target=%d, want 3 and 0", st.CurrentFloor, st.TargetFloor)
	}
	if st.TripCount != 1 || st.FloorsTraveled != 2 {
		t.Errorf("trips=%d floors=%d, want 1 and 2", st.TripCount, st.FloorsTraveled)
	}
	if st.QueueLength != 0 {
		t.Errorf("queue length = %d, want 0", st.QueueLength)
	}
}

func TestDwellGuardAgainstConcurrentClose(t *testing.T) {
	u := New(1, 1, testTravel, testDoorOp)
	u.Enqueue(entry(2, 0, types.DirUp))
	_, _ = u.BeginTrip()
	_, _ = u.Arrive()
	_, _ = u.DoorOpened()
	_, _ = u.StartClosing()

	// Second close attempt must be refused.
	if _, ok := u.StartClosing(); ok {
		t.Error("StartClosing should fail when doors are already closing")
	}
}

func TestEmergencyStopRetainsQueue(t *testing.T) {
	u := New(1, 1, testTravel, testDoorOp)
	u.Enqueue(entry(4, 0, types.DirUp))
	_, _ = u.BeginTrip()

	u.EmergencyStop()

	st := u.Status()
	if st.State != types.OutOfService || st.IsActive || st.Direction != types.DirNone {
		t.Errorf("state=%s active=%v dir=%s after emergency stop", st.State, st.IsActive, st.Direction)
	}
	if st.QueueLength != 1 {
		t.Errorf("queue length = %d, want 1 (retained for audit)", st.QueueLength)
	}
	// A stale arrival timer firing now must be ignored.
	if _, ok := u.Arrive(); ok {
		t.Error("Arrive should fail on an out-of-service unit")
	}
}

func TestMaintenanceClearsQueue(t *testing.T) {
	u := New(1, 1, testTravel, testDoorOp)
	u.Enqueue(entry(2, 0, types.DirUp))
	u.Enqueue(entry(5, 0, types.DirUp))

	cleared := u.SetMaintenance()
	if len(cleared) != 2 {
		t.Fatalf("cleared %d entries, want 2", len(cleared))
	}
	st := u.Status()
	if st.QueueLength != 0 || st.State != types.Maintenance || st.IsActive {
		t.Errorf("queue=%d state=%s active=%v after maintenance", st.QueueLength, st.State, st.IsActive)
	}
	if u.Available() {
		t.Error("maintenance unit must not be available")
	}
}

func TestReactivateIsExplicit(t *testing.T) {
	u := New(1, 1, testTravel, testDoorOp)
	u.EmergencyStop()

	if !u.Reactivate() {
		t.Fatal("reactivate from OUT_OF_SERVICE failed")
	}
	st := u.Status()
	if st.State != types.Idle || !st.IsActive {
		t.Errorf("state=%s active=%v after reactivation", st.State, st.IsActive)
	}
	// Reactivating an idle unit is a no-op failure.
	if u.Reactivate() {
		t.Error("reactivate should fail for an idle unit")
	}
}

func TestEstimateArrivalSumsLegsAndDoorCycles(t *testing.T) {
	u := New(1, 1, testTravel, testDoorOp)
	u.Enqueue(entry(3, 0, types.DirUp))
	u.Enqueue(entry(5, 0, types.DirUp))

	now := time.Now()
	eta := u.EstimateArrival(5, now)

	// Leg to 3 (2 floors), door cycle there, leg to 5 (2 floors).
	want := 2*testTravel + 2*testDoorOp + 2*testTravel
	if got := eta.Sub(now); got != want {
		t.Errorf("estimate = %v, want %v", got, want)
	}
}

func TestEstimateArrivalIncludesInFlightRemainder(t *testing.T) {
	u := New(1, 1, testTravel, testDoorOp)
	u.Enqueue(entry(4, 0, types.DirUp))
	_, _ = u.BeginTrip()

	now := time.Now()
	eta := u.EstimateArrival(4, now)
	total := eta.Sub(now)

	// Remaining travel only, bounded by the full trip duration.
	if total <= 0 || total > 3*testTravel {
		t.Errorf("in-flight estimate = %v, want within (0, %v]", total, 3*testTravel)
	}
}
