// Package ledger holds floor-service requests and their lifecycle
// status. It owns the deduplication invariant: at most one active
// request per (floor, direction) pair.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/its-coded-coder/Elevator-API/src/types"
)

type pairKey struct {
	floor int
	dir   types.Direction
}

// Ledger is the in-memory request store. All transitions run under one
// lock, which also serializes duplicate-check-then-create per pair.
type Ledger struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*types.FloorRequest
	active   map[pairKey]uuid.UUID
}

func New() *Ledger {
	return &Ledger{
		requests: make(map[uuid.UUID]*types.FloorRequest),
		active:   make(map[pairKey]uuid.UUID),
	}
}

// Create registers a PENDING request, enforcing the one-active-request
// invariant for the (floor, direction) pair.
func (l *Ledger) Create(floor int, dir types.Direction, requesterID string, priority int) (types.FloorRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := pairKey{floor: floor, dir: dir}
	if _, exists := l.active[key]; exists {
		return types.FloorRequest{}, fmt.Errorf("floor %d %s: %w", floor, dir, types.ErrDuplicateRequest)
	}

	req := &types.FloorRequest{
		ID:          uuid.New(),
		Floor:       floor,
		Direction:   dir,
		RequesterID: requesterID,
		Priority:    priority,
		Status:      types.Pending,
		RequestedAt: time.Now(),
	}
	l.requests[req.ID] = req
	l.active[key] = req.ID
	return *req, nil
}

// Restore inserts an already-persisted request, rebuilding the active
// index. Used for queue rehydration at startup.
func (l *Ledger) Restore(req types.FloorRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stored := req
	l.requests[req.ID] = &stored
	if req.Status.Active() {
		l.active[pairKey{floor: req.Floor, dir: req.Direction}] = req.ID
	}
}

// Assign moves a PENDING request to ASSIGNED and records the unit.
func (l *Ledger) Assign(id, unitID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	req, ok := l.requests[id]
	if !ok {
		return fmt.Errorf("request %s: not found", id)
	}
	if req.Status != types.Pending {
		return fmt.Errorf("request %s: cannot assign from %s", id, req.Status)
	}
	req.Status = types.Assigned
	req.AssignedTo = unitID
	req.AssignedAt = time.Now()
	return nil
}

// Begin moves an ASSIGNED request to IN_PROGRESS when its unit starts
// actively traveling to serve it. An already in-progress request is a
// no-op: a unit stopped mid-trip and later reactivated restarts the
// same trip.
func (l *Ledger) Begin(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	req, ok := l.requests[id]
	if !ok {
		return fmt.Errorf("request %s: not found", id)
	}
	if req.Status == types.InProgress {
		return nil
	}
	if req.Status != types.Assigned {
		return fmt.Errorf("request %s: cannot begin from %s", id, req.Status)
	}
	req.Status = types.InProgress
	return nil
}

// Complete finishes a request after the serving door cycle closes,
// releasing its deduplication slot. Returns the resulting wait time.
func (l *Ledger) Complete(id uuid.UUID) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	req, ok := l.requests[id]
	if !ok {
		return 0, fmt.Errorf("request %s: not found", id)
	}
	if req.Status != types.InProgress && req.Status != types.Assigned {
		return 0, fmt.Errorf("request %s: cannot complete from %s", id, req.Status)
	}
	req.Status = types.Completed
	req.CompletedAt = time.Now()
	delete(l.active, pairKey{floor: req.Floor, dir: req.Direction})
	return req.WaitTime(), nil
}

// Cancel aborts any still-active request, releasing its slot.
func (l *Ledger) Cancel(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	req, ok := l.requests[id]
	if !ok {
		return fmt.Errorf("request %s: not found", id)
	}
	if !req.Status.Active() {
		return fmt.Errorf("request %s: cannot cancel from %s", id, req.Status)
	}
	req.Status = types.Cancelled
	req.CancelledAt = time.Now()
	delete(l.active, pairKey{floor: req.Floor, dir: req.Direction})
	return nil
}

// CancelAllFor cancels every active request assigned to the unit and
// returns the cancelled ids. Used when a unit enters maintenance.
func (l *Ledger) CancelAllFor(unitID uuid.UUID) []uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	var cancelled []uuid.UUID
	now := time.Now()
	for id, req := range l.requests {
		if req.AssignedTo == unitID && req.Status.Active() {
			req.Status = types.Cancelled
			req.CancelledAt = now
			delete(l.active, pairKey{floor: req.Floor, dir: req.Direction})
			cancelled = append(cancelled, id)
		}
	}
	return cancelled
}

// Get returns a copy of the request.
func (l *Ledger) Get(id uuid.UUID) (types.FloorRequest, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	req, ok := l.requests[id]
	if !ok {
		return types.FloorRequest{}, false
	}
	return *req, true
}

// CompletedWithin returns copies of requests completed inside the
// trailing window, newest first not guaranteed.
func (l *Ledger) CompletedWithin(window time.Duration) []types.FloorRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-window)
	var out []types.FloorRequest
	for _, req := range l.requests {
		if req.Status == types.Completed && req.CompletedAt.After(cutoff) {
			out = append(out, *req)
		}
	}
	return out
}
