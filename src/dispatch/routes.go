package dispatch

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"

	"github.com/its-coded-coder/Elevator-API/src/types"
	"github.com/its-coded-coder/Elevator-API/src/unit"
)

// RouteReport describes one unit's proposed same-direction-first
// reordering and the estimated time it would save.
type RouteReport struct {
	UnitID        uuid.UUID
	UnitNumber    int
	CurrentOrder  []int
	ProposedOrder []int
	TimeSaved     time.Duration
}

// OptimizeRoutes evaluates every unit with more than one queued stop
// and reports the same-direction-first ordering. The queues are only
// mutated when apply is set; otherwise this is advisory telemetry.
func (e *Engine) OptimizeRoutes(units []*unit.Unit, apply bool) []RouteReport {
	var reports []RouteReport
	for _, u := range units {
		queue := u.Queue()
		if len(queue) < 2 {
			continue
		}
		st := u.Status()

		// The reordering sorts its input in place; simulate on a deep
		// copy so the current order survives for the report.
		var sim []unit.QueueEntry
		if err := deepcopy.Copy(&sim, &queue); err != nil {
			continue
		}

		dir := st.Direction
		if dir == types.DirNone {
			dir = types.DirectionBetween(st.CurrentFloor, sim[0].Floor)
		}
		proposed := sameDirectionFirst(sim, st.CurrentFloor, dir)

		current := e.routeDuration(st.CurrentFloor, floors(queue))
		optimized := e.routeDuration(st.CurrentFloor, floors(proposed))
		saved := current - optimized
		if saved < 0 {
			saved = 0
		}

		reports = append(reports, RouteReport{
			UnitID:        u.ID,
			UnitNumber:    st.Number,
			CurrentOrder:  floors(queue),
			ProposedOrder: floors(proposed),
			TimeSaved:     saved,
		})

		if apply && saved > 0 {
			ids := make([]uuid.UUID, len(proposed))
			for i, entry := range proposed {
				ids[i] = entry.RequestID
			}
			u.Reorder(ids)
		}
	}
	return reports
}

// sameDirectionFirst reorders the stops in place: every stop in the
// travel direction before reversing, each leg ordered along its
// direction of travel.
func sameDirectionFirst(queue []unit.QueueEntry, from int, dir types.Direction) []unit.QueueEntry {
	ahead := func(e unit.QueueEntry) bool {
		return dir == types.DirUp && e.Floor >= from ||
			dir == types.DirDown && e.Floor <= from
	}
	ascending := dir == types.DirUp
	sort.SliceStable(queue, func(i, j int) bool {
		ai, aj := ahead(queue[i]), ahead(queue[j])
		if ai != aj {
			return ai
		}
		if ai == ascending {
			return queue[i].Floor < queue[j].Floor
		}
		return queue[i].Floor > queue[j].Floor
	})
	return queue
}

// routeDuration is the simulated time to serve the stops in order:
// travel per leg plus a full door cycle at each stop.
func (e *Engine) routeDuration(from int, stops []int) time.Duration {
	var total time.Duration
	position := from
	for _, floor := range stops {
		total += time.Duration(abs(floor-position)) * e.travelPerFloor
		total += 2 * e.doorOp
		position = floor
	}
	return total
}

func floors(entries []unit.QueueEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Floor
	}
	return out
}
