// Package store defines the persistence collaborator consumed by the
// fleet coordinator. Durable backends live outside this module; the
// in-memory implementation backs tests and single-process runs.
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/its-coded-coder/Elevator-API/src/types"
)

// UnitRecord is the persisted shape of one unit, loaded at startup.
// Direction and door state are recorded for inspection; a restored unit
// always restarts with closed doors and no travel direction.
type UnitRecord struct {
	ID             uuid.UUID
	Number         int
	Floor          int
	State          types.UnitState
	Direction      types.Direction
	Door           types.DoorState
	IsActive       bool
	TripCount      int
	FloorsTraveled int
}

// UnitStore persists unit snapshots. Save failures are logged by the
// caller, never propagated into the simulation.
type UnitStore interface {
	LoadActiveUnits() ([]UnitRecord, error)
	SaveUnit(status types.UnitStatus) error
}

// RequestStore persists request lifecycle rows and serves queue
// rehydration at startup.
type RequestStore interface {
	SaveRequest(req types.FloorRequest) error
	LoadActiveRequests() ([]types.FloorRequest, error)
}

// MemStore keeps everything in process memory.
type MemStore struct {
	mu       sync.Mutex
	units    map[uuid.UUID]types.UnitStatus
	requests map[uuid.UUID]types.FloorRequest
}

func NewMemStore() *MemStore {
	return &MemStore{
		units:    make(map[uuid.UUID]types.UnitStatus),
		requests: make(map[uuid.UUID]types.FloorRequest),
	}
}

func (s *MemStore) LoadActiveUnits() ([]UnitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []UnitRecord
	for _, st := range s.units {
		out = append(out, UnitRecord{
			ID:             st.ID,
			Number:         st.Number,
			Floor:          st.CurrentFloor,
			State:          st.State,
			Direction:      st.Direction,
			Door:           st.Door,
			IsActive:       st.IsActive,
			TripCount:      st.TripCount,
			FloorsTraveled: st.FloorsTraveled,
		})
	}
	return out, nil
}

func (s *MemStore) SaveUnit(status types.UnitStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[status.ID] = status
	return nil
}

func (s *MemStore) SaveRequest(req types.FloorRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
	return nil
}

func (s *MemStore) LoadActiveRequests() ([]types.FloorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.FloorRequest
	for _, req := range s.requests {
		if req.Status.Active() {
			out = append(out, req)
		}
	}
	return out, nil
}
