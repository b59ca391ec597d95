// Package dispatch selects which elevator unit serves a new floor
// request. Strategies mirror disk-arm scheduling: NEAREST picks the
// closest unit, SCAN sweeps to the building extremes, LOOK bounds the
// sweep by the actually queued stops.
package dispatch

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/its-coded-coder/Elevator-API/src/types"
	"github.com/its-coded-coder/Elevator-API/src/unit"
)

// Engine holds the active strategy. Switching is an O(1) configuration
// change under the engine lock.
type Engine struct {
	mu          sync.RWMutex
	algorithm   types.Algorithm
	totalFloors int

	travelPerFloor time.Duration
	doorOp         time.Duration
}

func NewEngine(algorithm types.Algorithm, totalFloors int, travelPerFloor, doorOp time.Duration) *Engine {
	return &Engine{
		algorithm:      algorithm,
		totalFloors:    totalFloors,
		travelPerFloor: travelPerFloor,
		doorOp:         doorOp,
	}
}

// Algorithm returns the currently configured strategy.
func (e *Engine) Algorithm() types.Algorithm {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.algorithm
}

// SwitchAlgorithm changes the strategy at runtime.
func (e *Engine) SwitchAlgorithm(name string) error {
	algo, ok := types.ParseAlgorithm(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, types.ErrInvalidAlgorithm)
	}
	e.mu.Lock()
	e.algorithm = algo
	e.mu.Unlock()
	return nil
}

// AssignElevator picks the unit to serve the request. The engine only
// reads unit state; enqueueing is the coordinator's job.
func (e *Engine) AssignElevator(req types.FloorRequest, units []*unit.Unit) (uuid.UUID, error) {
	if len(units) == 0 {
		return uuid.Nil, fmt.Errorf("floor %d: %w", req.Floor, types.ErrNoAvailableUnit)
	}

	var chosen *unit.Unit
	switch e.Algorithm() {
	case types.Scan:
		chosen = e.scan(req, units)
	case types.Look:
		chosen = e.look(req, units)
	default:
		chosen = e.nearest(req, units)
	}
	if chosen == nil {
		return uuid.Nil, fmt.Errorf("floor %d: %w", req.Floor, types.ErrNoSuitableUnit)
	}
	return chosen.ID, nil
}

// nearest picks the unit minimizing direct distance, ties broken by the
// lowest unit number.
func (e *Engine) nearest(req types.FloorRequest, units []*unit.Unit) *unit.Unit {
	var best *unit.Unit
	bestDistance := math.MaxInt
	bestNumber := math.MaxInt
	for _, u := range units {
		st := u.Status()
		distance := abs(st.CurrentFloor - req.Floor)
		if distance < bestDistance || (distance == bestDistance && st.Number < bestNumber) {
			best, bestDistance, bestNumber = u, distance, st.Number
		}
	}
	return best
}

// scan prefers units already sweeping toward the request; the rest are
// scored by a simulated full sweep to the building extreme and back.
func (e *Engine) scan(req types.FloorRequest, units []*unit.Unit) *unit.Unit {
	var best *unit.Unit
	bestDistance := math.MaxInt
	bestNumber := math.MaxInt
	for _, u := range units {
		st := u.Status()
		if !canServeWithoutReversing(st, req) {
			continue
		}
		distance := abs(st.CurrentFloor - req.Floor)
		if distance < bestDistance || (distance == bestDistance && st.Number < bestNumber) {
			best, bestDistance, bestNumber = u, distance, st.Number
		}
	}
	if best != nil {
		return best
	}

	// No unit can take the floor on its current sweep: score everyone
	// by full-sweep travel. Idle units degrade to direct distance.
	bestSweep := math.MaxInt
	bestNumber = math.MaxInt
	for _, u := range units {
		st := u.Status()
		sweep := fullSweepDistance(st, req.Floor, e.totalFloors)
		if sweep < bestSweep || (sweep == bestSweep && st.Number < bestNumber) {
			best, bestSweep, bestNumber = u, sweep, st.Number
		}
	}
	return best
}

// canServeWithoutReversing reports whether a unit moving in the request
// direction still has the request floor ahead of it.
func canServeWithoutReversing(st types.UnitStatus, req types.FloorRequest) bool {
	if st.Direction != req.Direction {
		return false
	}
	switch st.Direction {
	case types.DirUp:
		return st.CurrentFloor <= req.Floor
	case types.DirDown:
		return st.CurrentFloor >= req.Floor
	default:
		return false
	}
}

// fullSweepDistance is the floors traveled to the extreme in the
// current direction and back to the request floor.
func fullSweepDistance(st types.UnitStatus, floor, totalFloors int) int {
	switch st.Direction {
	case types.DirUp:
		return (totalFloors - st.CurrentFloor) + (totalFloors - floor)
	case types.DirDown:
		return (st.CurrentFloor - 1) + (floor - 1)
	default:
		return abs(st.CurrentFloor - floor)
	}
}

// look scores each unit by an efficiency metric bounded by its actual
// queued extents, with discounts for directional alignment and for
// stops servable strictly en route. Ties fall back to estimated time.
func (e *Engine) look(req types.FloorRequest, units []*unit.Unit) *unit.Unit {
	now := time.Now()
	var best *unit.Unit
	bestEfficiency := math.MaxFloat64
	var bestETA time.Time
	for _, u := range units {
		st := u.Status()
		cost, enRoute := lookDistance(st, req.Floor)
		aligned := st.Direction == req.Direction && st.Direction != types.DirNone

		efficiency := float64(cost) * (1 + 0.1*float64(st.QueueLength))
		if aligned {
			efficiency *= 0.8
		}
		if enRoute {
			efficiency *= 0.7
		}

		eta := u.EstimateArrival(req.Floor, now)
		if efficiency < bestEfficiency ||
			(efficiency == bestEfficiency && eta.Before(bestETA)) {
			best, bestEfficiency, bestETA = u, efficiency, eta
		}
	}
	return best
}

// lookDistance is the floors traveled to reach the request under LOOK:
// direct when the stop fits the current directional leg, otherwise out
// to the farthest queued stop and back.
func lookDistance(st types.UnitStatus, floor int) (int, bool) {
	direct := abs(st.CurrentFloor - floor)
	if st.Direction == types.DirNone {
		return direct, false
	}

	farthest := farthestQueuedStop(st)
	switch st.Direction {
	case types.DirUp:
		if floor >= st.CurrentFloor && floor <= farthest {
			return direct, true
		}
		return (farthest - st.CurrentFloor) + abs(farthest-floor), false
	default:
		if floor <= st.CurrentFloor && floor >= farthest {
			return direct, true
		}
		return (st.CurrentFloor - farthest) + abs(floor-farthest), false
	}
}

// farthestQueuedStop is the queued floor farthest along the current
// direction, or the current floor when nothing is queued that way.
func farthestQueuedStop(st types.UnitStatus) int {
	farthest := st.CurrentFloor
	for _, f := range st.QueueFloors {
		if st.Direction == types.DirUp && f > farthest {
			farthest = f
		}
		if st.Direction == types.DirDown && f < farthest {
			farthest = f
		}
	}
	if st.TargetFloor != 0 {
		if st.Direction == types.DirUp && st.TargetFloor > farthest {
			farthest = st.TargetFloor
		}
		if st.Direction == types.DirDown && st.TargetFloor < farthest {
			farthest = st.TargetFloor
		}
	}
	return farthest
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
