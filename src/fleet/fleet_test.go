package fleet

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/its-coded-coder/Elevator-API/src/config"
	"github.com/its-coded-coder/Elevator-API/src/logger"
	"github.com/its-coded-coder/Elevator-API/src/store"
	"github.com/its-coded-coder/Elevator-API/src/types"
)

func testConfig() config.Config {
	return config.Config{
		ElevatorCount:  2,
		TotalFloors:    10,
		TravelDuration: 20 * time.Millisecond,
		DoorOpDuration: 10 * time.Millisecond,
		DoorDwell:      10 * time.Millisecond,
		TickInterval:   10 * time.Millisecond,
		Algorithm:      types.Nearest,
	}
}

func testFleet(t *testing.T, cfg config.Config) *Fleet {
	t.Helper()
	log := logger.GetConfigured(zerolog.Disabled)
	mem := store.NewMemStore()
	f, err := New(cfg, mem, mem, *log)
	if err != nil {
		t.Fatalf("fleet setup failed: %v", err)
	}
	return f
}

func TestCallElevatorValidatesFloors(t *testing.T) {
	f := testFleet(t, testConfig())

	cases := []struct{ from, to int }{
		{0, 3}, {3, 0}, {11, 3}, {3, 11}, {5, 5},
	}
	for _, c := range cases {
		if _, err := f.CallElevator(c.from, c.to, "alice", 0); !errors.Is(err, types.ErrInvalidFloor) {
			t.Errorf("call(%d,%d): expected ErrInvalidFloor, got %v", c.from, c.to, err)
		}
	}
}

func TestCallElevatorDeduplicates(t *testing.T) {
	f := testFleet(t, testConfig())

	if _, err := f.CallElevator(1, 5, "alice", 0); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	// Same pickup floor, same direction, before the first resolves.
	if _, err := f.CallElevator(1, 6, "bob", 0); !errors.Is(err, types.ErrDuplicateRequest) {
		t.Errorf("expected ErrDuplicateRequest, got %v", err)
	}
	// Different direction is a distinct pair.
	if _, err := f.CallElevator(5, 2, "carol", 0); err != nil {
		t.Errorf("downward call should not collide: %v", err)
	}
}

func TestCallElevatorAssignsAndEstimates(t *testing.T) {
	f := testFleet(t, testConfig())

	before := time.Now()
	result, err := f.CallElevator(4, 8, "alice", 0)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if result.Status != types.Assigned {
		t.Errorf("status = %s, want ASSIGNED", result.Status)
	}
	if result.UnitNumber < 1 || result.UnitNumber > 2 {
		t.Errorf("unit number %d outside fleet", result.UnitNumber)
	}
	if !result.EstimatedArrival.After(before) {
		t.Errorf("estimated arrival %v not in the future", result.EstimatedArrival)
	}

	st, err := f.GetUnitStatus(result.UnitID)
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if st.QueueLength != 1 {
		t.Errorf("assigned unit queue length = %d, want 1", st.QueueLength)
	}
}

func TestRequestCompletesThroughFullCycle(t *testing.T) {
	f := testFleet(t, testConfig())

	result, err := f.CallElevator(3, 6, "alice", 0)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}

	// One tick starts the trip; the timer chain does the rest:
	// travel (2 floors * 20ms) + open 10ms + dwell 10ms + close 10ms.
	if err := f.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		req, ok := f.GetRequest(result.RequestID)
		if !ok {
			t.Fatal("request vanished")
		}
		if req.Status == types.Completed {
			if req.WaitTime() < 0 {
				t.Errorf("wait time %v negative", req.WaitTime())
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("request stuck in %s", req.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	st, _ := f.GetUnitStatus(result.UnitID)
	if st.State != types.Idle || st.Direction != types.DirNone || st.Door != types.DoorClosed {
		t.Errorf("post-cycle unit state=%s dir=%s door=%s", st.State, st.Direction, st.Door)
	}
	if st.CurrentFloor != 3 {
		t.Errorf("unit parked at %d, want pickup floor 3", st.CurrentFloor)
	}
	if st.TripCount != 1 {
		t.Errorf("trip count = %d, want 1", st.TripCount)
	}
}

func TestQueuedStopsChainWithoutWaitingForTicks(t *testing.T) {
	cfg := testConfig()
	cfg.ElevatorCount = 1
	f := testFleet(t, cfg)

	first, err := f.CallElevator(3, 6, "alice", 0)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := f.CallElevator(5, 9, "bob", 0)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if first.UnitID != second.UnitID {
		t.Fatalf("single-unit fleet split the calls")
	}

	// One tick starts the first trip; door close chains straight into
	// the second stop with no further ticks.
	if err := f.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		a, _ := f.GetRequest(first.RequestID)
		b, _ := f.GetRequest(second.RequestID)
		if a.Status == types.Completed && b.Status == types.Completed {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("requests stuck in %s and %s", a.Status, b.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	st, _ := f.GetUnitStatus(first.UnitID)
	if st.CurrentFloor != 5 || st.TripCount != 2 {
		t.Errorf("post-chain floor=%d trips=%d, want 5 and 2", st.CurrentFloor, st.TripCount)
	}
}

func TestEmergencyStopCancelsPendingMovement(t *testing.T) {
	cfg := testConfig()
	cfg.TravelDuration = 100 * time.Millisecond
	f := testFleet(t, cfg)

	result, err := f.CallElevator(8, 2, "alice", 0)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if err := f.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	st, _ := f.GetUnitStatus(result.UnitID)
	if !st.State.Moving() {
		t.Fatalf("unit should be moving, state = %s", st.State)
	}

	if err := f.EmergencyStop(result.UnitID, "test"); err != nil {
		t.Fatalf("emergency stop failed: %v", err)
	}

	st, _ = f.GetUnitStatus(result.UnitID)
	if st.State != types.OutOfService || st.IsActive || st.Direction != types.DirNone {
		t.Errorf("state=%s active=%v dir=%s after stop", st.State, st.IsActive, st.Direction)
	}
	floorBefore := st.CurrentFloor

	// The scheduled arrival (7 floors of travel) must not fire after
	// the stop.
	time.Sleep(8 * cfg.TravelDuration)
	st, _ = f.GetUnitStatus(result.UnitID)
	if st.State != types.OutOfService || st.CurrentFloor != floorBefore {
		t.Errorf("stale arrival fired: state=%s floor=%d", st.State, st.CurrentFloor)
	}
	// Queue retained for auditing.
	if st.QueueLength != 1 {
		t.Errorf("queue length = %d, want 1", st.QueueLength)
	}
}

func TestMaintenanceClearsQueueAndCancelsRequests(t *testing.T) {
	f := testFleet(t, testConfig())

	result, err := f.CallElevator(5, 9, "alice", 0)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if err := f.SetMaintenance(result.UnitID, "test"); err != nil {
		t.Fatalf("maintenance failed: %v", err)
	}

	st, _ := f.GetUnitStatus(result.UnitID)
	if st.QueueLength != 0 || st.State != types.Maintenance {
		t.Errorf("queue=%d state=%s after maintenance", st.QueueLength, st.State)
	}
	req, _ := f.GetRequest(result.RequestID)
	if req.Status != types.Cancelled {
		t.Errorf("request status = %s, want CANCELLED", req.Status)
	}
	// The pair's slot is free again.
	if _, err := f.CallElevator(5, 9, "bob", 0); err != nil {
		t.Errorf("slot should be free after cancellation: %v", err)
	}
}

func TestOperatorCallsOnUnknownUnit(t *testing.T) {
	f := testFleet(t, testConfig())

	missing := uuid.New()
	if err := f.EmergencyStop(missing, "test"); !errors.Is(err, types.ErrUnitNotFound) {
		t.Errorf("expected ErrUnitNotFound, got %v", err)
	}
	if err := f.SetMaintenance(missing, "test"); !errors.Is(err, types.ErrUnitNotFound) {
		t.Errorf("expected ErrUnitNotFound, got %v", err)
	}
	if _, err := f.GetUnitStatus(missing); !errors.Is(err, types.ErrUnitNotFound) {
		t.Errorf("expected ErrUnitNotFound, got %v", err)
	}
}

func TestStatusesIdempotentWithoutMutation(t *testing.T) {
	f := testFleet(t, testConfig())

	first := f.GetAllUnitStatuses()
	second := f.GetAllUnitStatuses()
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("fleet size %d/%d, want 2", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		a.LastUpdate, b.LastUpdate = time.Time{}, time.Time{}
		a.QueueFloors, b.QueueFloors = nil, nil
		if !reflect.DeepEqual(a, b) {
			t.Errorf("snapshot %d changed without mutation:\n%+v\n%+v", i, a, b)
		}
	}
}

func TestReactivateResumesRetainedQueue(t *testing.T) {
	cfg := testConfig()
	cfg.TravelDuration = 30 * time.Millisecond
	f := testFleet(t, cfg)

	result, err := f.CallElevator(8, 2, "alice", 0)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if err := f.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	st, _ := f.GetUnitStatus(result.UnitID)
	if !st.State.Moving() {
		t.Fatalf("unit should be moving, state = %s", st.State)
	}

	if err := f.EmergencyStop(result.UnitID, "test"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := f.Reactivate(result.UnitID); err != nil {
		t.Fatalf("reactivate failed: %v", err)
	}

	// The retained request restarts on the next tick and must run to
	// completion, not wedge the unit mid-state.
	if err := f.Tick(); err != nil {
		t.Fatalf("restart tick failed: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for {
		req, ok := f.GetRequest(result.RequestID)
		if !ok {
			t.Fatal("request vanished")
		}
		if req.Status == types.Completed {
			break
		}
		select {
		case <-deadline:
			st, _ := f.GetUnitStatus(result.UnitID)
			t.Fatalf("request stuck in %s, unit state=%s floor=%d", req.Status, st.State, st.CurrentFloor)
		case <-time.After(10 * time.Millisecond):
		}
	}

	st, _ = f.GetUnitStatus(result.UnitID)
	if st.CurrentFloor != 8 || st.QueueLength != 0 {
		t.Errorf("post-resume floor=%d queue=%d, want 8 and 0", st.CurrentFloor, st.QueueLength)
	}
}

func TestReactivateReturnsUnitToService(t *testing.T) {
	f := testFleet(t, testConfig())
	id := f.GetAllUnitStatuses()[0].ID

	if err := f.EmergencyStop(id, "test"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := f.Reactivate(id); err != nil {
		t.Fatalf("reactivate failed: %v", err)
	}
	st, _ := f.GetUnitStatus(id)
	if st.State != types.Idle || !st.IsActive {
		t.Errorf("state=%s active=%v after reactivation", st.State, st.IsActive)
	}
}

func TestSwitchAlgorithmAndStats(t *testing.T) {
	f := testFleet(t, testConfig())

	if err := f.SwitchAlgorithm("SCAN"); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if f.Algorithm() != types.Scan {
		t.Errorf("algorithm = %s, want SCAN", f.Algorithm())
	}
	if err := f.SwitchAlgorithm("BOGUS"); !errors.Is(err, types.ErrInvalidAlgorithm) {
		t.Errorf("expected ErrInvalidAlgorithm, got %v", err)
	}

	stats := f.AlgorithmStats(time.Hour)
	if stats.Completed != 0 || stats.Algorithm != types.Scan {
		t.Errorf("stats = %+v, want empty SCAN window", stats)
	}
}

func TestStartupRehydratesAssignedRequests(t *testing.T) {
	cfg := testConfig()
	mem := store.NewMemStore()
	unitID := uuid.New()

	_ = mem.SaveUnit(types.UnitStatus{
		ID:           unitID,
		Number:       1,
		CurrentFloor: 4,
		State:        types.Idle,
		Direction:    types.DirUp,
		Door:         types.DoorIsOpen,
		IsActive:     true,
		TripCount:    7,
	})
	_ = mem.SaveRequest(types.FloorRequest{
		ID:         uuid.New(),
		Floor:      6,
		Direction:  types.DirUp,
		AssignedTo: unitID,
		Status:     types.Assigned,
	})

	log := logger.GetConfigured(zerolog.Disabled)
	f, err := New(cfg, mem, mem, *log)
	if err != nil {
		t.Fatalf("fleet setup failed: %v", err)
	}

	st, err := f.GetUnitStatus(unitID)
	if err != nil {
		t.Fatalf("restored unit missing: %v", err)
	}
	if st.CurrentFloor != 4 || st.TripCount != 7 {
		t.Errorf("restored floor=%d trips=%d, want 4 and 7", st.CurrentFloor, st.TripCount)
	}
	// Persisted direction and door state are recorded but a restored
	// unit always restarts closed and directionless.
	if st.Direction != types.DirNone || st.Door != types.DoorClosed {
		t.Errorf("restored dir=%s door=%s, want NONE and CLOSED", st.Direction, st.Door)
	}
	if st.QueueLength != 1 {
		t.Errorf("rehydrated queue length = %d, want 1", st.QueueLength)
	}
	// The restored pair still blocks duplicates.
	if _, err := f.CallElevator(6, 9, "alice", 0); !errors.Is(err, types.ErrDuplicateRequest) {
		t.Errorf("expected ErrDuplicateRequest after rehydration, got %v", err)
	}
}

func TestEventsAreBestEffort(t *testing.T) {
	f := testFleet(t, testConfig())

	// Nobody drains the stream; flooding it must not block the call.
	for i := 0; i < 200; i++ {
		floor := 2 + i%8
		_, _ = f.CallElevator(floor, 1, "alice", 0)
		if i%8 == 7 {
			// Free the pairs again so the loop keeps generating events.
			for _, st := range f.GetAllUnitStatuses() {
				_ = f.SetMaintenance(st.ID, "flush")
				_ = f.Reactivate(st.ID)
			}
		}
	}
	if f.DroppedEvents() == 0 {
		t.Error("expected dropped events on a saturated stream")
	}
}
