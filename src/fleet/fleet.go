// Package fleet owns the collection of elevator units, the periodic
// simulation tick, and every fleet-wide query and operator call. All
// unit mutation flows through here.
package fleet

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/its-coded-coder/Elevator-API/src/config"
	"github.com/its-coded-coder/Elevator-API/src/dispatch"
	"github.com/its-coded-coder/Elevator-API/src/ledger"
	"github.com/its-coded-coder/Elevator-API/src/store"
	"github.com/its-coded-coder/Elevator-API/src/types"
	"github.com/its-coded-coder/Elevator-API/src/unit"
)

// Fleet is the coordinator. Units are owned exclusively by it; the
// dispatch engine only ever reads them.
type Fleet struct {
	cfg    config.Config
	log    zerolog.Logger
	ledger *ledger.Ledger
	engine *dispatch.Engine

	units map[uuid.UUID]*unit.Unit
	order []uuid.UUID // unit ids sorted by number, for stable listings

	unitStore    store.UnitStore
	requestStore store.RequestStore

	timers    *timerSet
	broadcast *broadcaster
}

// New builds the fleet from persisted units, provisioning a fresh set
// at floor 1 when the store is empty. Assigned requests are rehydrated
// onto their units so a restart does not drop queued work.
func New(cfg config.Config, units store.UnitStore, requests store.RequestStore, log zerolog.Logger) (*Fleet, error) {
	f := &Fleet{
		cfg:          cfg,
		log:          log,
		ledger:       ledger.New(),
		engine:       dispatch.NewEngine(cfg.Algorithm, cfg.TotalFloors, cfg.TravelDuration, cfg.DoorOpDuration),
		units:        make(map[uuid.UUID]*unit.Unit),
		unitStore:    units,
		requestStore: requests,
		timers:       newTimerSet(),
		broadcast:    newBroadcaster(64),
	}

	records, err := units.LoadActiveUnits()
	if err != nil {
		return nil, fmt.Errorf("loading units: %w", err)
	}
	if len(records) == 0 {
		for n := 1; n <= cfg.ElevatorCount; n++ {
			f.addUnit(unit.New(n, 1, cfg.TravelDuration, cfg.DoorOpDuration))
		}
		log.Info().Int("count", cfg.ElevatorCount).Msg("provisioned fresh elevator units")
	} else {
		for _, r := range records {
			f.addUnit(unit.Restore(r.ID, r.Number, r.Floor, r.State, r.IsActive,
				r.TripCount, r.FloorsTraveled, cfg.TravelDuration, cfg.DoorOpDuration))
		}
		log.Info().Int("count", len(records)).Msg("restored elevator units")
	}

	if err := f.rehydrateRequests(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Fleet) addUnit(u *unit.Unit) {
	f.units[u.ID] = u
	f.order = append(f.order, u.ID)
	sort.Slice(f.order, func(i, j int) bool {
		return f.units[f.order[i]].Number < f.units[f.order[j]].Number
	})
}

// rehydrateRequests restores active requests into the ledger and
// re-enqueues the already-assigned ones on their units.
func (f *Fleet) rehydrateRequests() error {
	active, err := f.requestStore.LoadActiveRequests()
	if err != nil {
		return fmt.Errorf("loading active requests: %w", err)
	}
	for _, req := range active {
		// In-progress trips are not resumed mid-flight; re-queue them
		// as assigned stops and let the tick start the trip over.
		if req.Status == types.InProgress {
			req.Status = types.Assigned
		}
		f.ledger.Restore(req)
		if req.Status != types.Assigned {
			continue
		}
		u, ok := f.units[req.AssignedTo]
		if !ok {
			f.log.Warn().Str("request", req.ID.String()).Msg("assigned unit missing, request left pending")
			continue
		}
		u.Enqueue(unit.QueueEntry{
			RequestID: req.ID,
			Floor:     req.Floor,
			Direction: req.Direction,
			Priority:  req.Priority,
		})
	}
	return nil
}

// CallElevator validates the call, creates the ledger entry, dispatches
// a unit and enqueues the pickup stop. Validation happens before any
// state mutation; a dispatch failure leaves the request pending so a
// later call or reassignment sweep can pick it up.
func (f *Fleet) CallElevator(fromFloor, toFloor int, requesterID string, priority int) (types.CallResult, error) {
	if fromFloor < 1 || fromFloor > f.cfg.TotalFloors ||
		toFloor < 1 || toFloor > f.cfg.TotalFloors {
		return types.CallResult{}, fmt.Errorf("floors %d -> %d outside [1,%d]: %w",
			fromFloor, toFloor, f.cfg.TotalFloors, types.ErrInvalidFloor)
	}
	if fromFloor == toFloor {
		return types.CallResult{}, fmt.Errorf("floors %d -> %d: %w", fromFloor, toFloor, types.ErrInvalidFloor)
	}

	direction := types.DirectionBetween(fromFloor, toFloor)
	req, err := f.ledger.Create(fromFloor, direction, requesterID, priority)
	if err != nil {
		return types.CallResult{}, err
	}

	unitID, err := f.engine.AssignElevator(req, f.availableUnits())
	if err != nil {
		f.persistRequest(req.ID)
		f.log.Warn().Int("floor", fromFloor).Str("direction", direction.String()).
			Err(err).Msg("dispatch failed, request left pending")
		return types.CallResult{}, err
	}

	if err := f.ledger.Assign(req.ID, unitID); err != nil {
		return types.CallResult{}, err
	}
	u := f.units[unitID]
	u.Enqueue(unit.QueueEntry{
		RequestID: req.ID,
		Floor:     req.Floor,
		Direction: req.Direction,
		Priority:  req.Priority,
	})
	f.persistRequest(req.ID)
	f.persistUnit(u)
	f.publishStatus(u)

	eta := u.EstimateArrival(fromFloor, time.Now())
	f.log.Info().
		Int("floor", fromFloor).
		Str("direction", direction.String()).
		Int("unit", u.Number).
		Time("eta", eta).
		Msg("elevator dispatched")

	return types.CallResult{
		RequestID:        req.ID,
		UnitID:           unitID,
		UnitNumber:       u.Number,
		EstimatedArrival: eta,
		Status:           types.Assigned,
	}, nil
}

// availableUnits returns the units eligible for new assignments.
func (f *Fleet) availableUnits() []*unit.Unit {
	var out []*unit.Unit
	for _, id := range f.order {
		if u := f.units[id]; u.Available() {
			out = append(out, u)
		}
	}
	return out
}

// GetAllUnitStatuses returns snapshots of every unit in unit-number
// order. Status already detaches from live state, queue floors included.
func (f *Fleet) GetAllUnitStatuses() []types.UnitStatus {
	statuses := make([]types.UnitStatus, 0, len(f.order))
	for _, id := range f.order {
		statuses = append(statuses, f.units[id].Status())
	}
	return statuses
}

// GetUnitStatus returns one unit's snapshot.
func (f *Fleet) GetUnitStatus(id uuid.UUID) (types.UnitStatus, error) {
	u, ok := f.units[id]
	if !ok {
		return types.UnitStatus{}, fmt.Errorf("unit %s: %w", id, types.ErrUnitNotFound)
	}
	return u.Status(), nil
}

// GetRequest returns the ledger record for a request id.
func (f *Fleet) GetRequest(id uuid.UUID) (types.FloorRequest, bool) {
	return f.ledger.Get(id)
}

// EmergencyStop takes a unit out of service and cancels any pending
// movement timer so a stale transition cannot fire afterwards. The
// queue is retained for auditing.
func (f *Fleet) EmergencyStop(id uuid.UUID, reason string) error {
	u, ok := f.units[id]
	if !ok {
		return fmt.Errorf("unit %s: %w", id, types.ErrUnitNotFound)
	}
	f.timers.cancel(id)
	u.EmergencyStop()
	f.log.Warn().Int("unit", u.Number).Str("reason", reason).Msg("emergency stop")
	f.persistUnit(u)
	f.publishStatus(u)
	return nil
}

// SetMaintenance parks a unit for maintenance, clears its queue and
// cancels the cleared requests in the ledger.
func (f *Fleet) SetMaintenance(id uuid.UUID, reason string) error {
	u, ok := f.units[id]
	if !ok {
		return fmt.Errorf("unit %s: %w", id, types.ErrUnitNotFound)
	}
	f.timers.cancel(id)
	u.SetMaintenance()
	cancelled := f.ledger.CancelAllFor(id)
	for _, reqID := range cancelled {
		f.persistRequest(reqID)
	}
	f.log.Warn().Int("unit", u.Number).Str("reason", reason).
		Int("cancelled", len(cancelled)).Msg("unit placed in maintenance")
	f.persistUnit(u)
	f.publishStatus(u)
	return nil
}

// Reactivate returns a maintenance or out-of-service unit to idle.
func (f *Fleet) Reactivate(id uuid.UUID) error {
	u, ok := f.units[id]
	if !ok {
		return fmt.Errorf("unit %s: %w", id, types.ErrUnitNotFound)
	}
	if !u.Reactivate() {
		return fmt.Errorf("unit %d not in maintenance or out of service", u.Number)
	}
	f.log.Info().Int("unit", u.Number).Msg("unit reactivated")
	f.persistUnit(u)
	f.publishStatus(u)
	return nil
}

// SwitchAlgorithm changes the dispatch strategy at runtime.
func (f *Fleet) SwitchAlgorithm(name string) error {
	if err := f.engine.SwitchAlgorithm(name); err != nil {
		return err
	}
	f.log.Info().Str("algorithm", name).Msg("scheduling algorithm switched")
	return nil
}

// Algorithm returns the active dispatch strategy.
func (f *Fleet) Algorithm() types.Algorithm {
	return f.engine.Algorithm()
}

// AlgorithmStats aggregates completions over the trailing window.
func (f *Fleet) AlgorithmStats(window time.Duration) dispatch.Stats {
	return f.engine.ComputeStats(f.ledger.CompletedWithin(window), window)
}

// OptimizeRoutes reports the same-direction-first reordering for every
// busy unit, applying it only when requested.
func (f *Fleet) OptimizeRoutes(apply bool) []dispatch.RouteReport {
	return f.engine.OptimizeRoutes(f.availableUnits(), apply)
}

// Events exposes the best-effort telemetry stream.
func (f *Fleet) Events() <-chan types.Event {
	return f.broadcast.events
}

// DroppedEvents reports how many events were discarded because the
// stream was saturated.
func (f *Fleet) DroppedEvents() uint64 {
	return f.broadcast.dropped.Load()
}

// persistUnit snapshots a unit to the store without blocking the
// caller. Failures are logged; the in-memory state stays authoritative.
func (f *Fleet) persistUnit(u *unit.Unit) {
	status := u.Status()
	go func() {
		if err := f.unitStore.SaveUnit(status); err != nil {
			f.log.Error().Err(err).Int("unit", status.Number).Msg("unit snapshot persist failed")
		}
	}()
}

func (f *Fleet) persistRequest(id uuid.UUID) {
	req, ok := f.ledger.Get(id)
	if !ok {
		return
	}
	go func() {
		if err := f.requestStore.SaveRequest(req); err != nil {
			f.log.Error().Err(err).Str("request", id.String()).Msg("request persist failed")
		}
	}()
}
