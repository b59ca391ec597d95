// Shared types for the elevator fleet: enums, request records and
// status snapshots exchanged between the ledger, units, dispatcher
// and coordinator.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Direction of travel, of a unit or of a floor request.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "UP"
	case DirDown:
		return "DOWN"
	default:
		return "NONE"
	}
}

// DirectionBetween returns the travel direction from one floor to another.
// Equal floors yield DirNone; callers must not start a trip on it.
func DirectionBetween(from, to int) Direction {
	if from < to {
		return DirUp
	}
	if from > to {
		return DirDown
	}
	return DirNone
}

// UnitState is the lifecycle state of one elevator unit.
type UnitState int

const (
	Idle UnitState = iota
	MovingUp
	MovingDown
	DoorOpening
	DoorOpen
	DoorClosing
	Maintenance
	OutOfService
)

func (s UnitState) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case MovingUp:
		return "MOVING_UP"
	case MovingDown:
		return "MOVING_DOWN"
	case DoorOpening:
		return "DOOR_OPENING"
	case DoorOpen:
		return "DOOR_OPEN"
	case DoorClosing:
		return "DOOR_CLOSING"
	case Maintenance:
		return "MAINTENANCE"
	case OutOfService:
		return "OUT_OF_SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Moving reports whether the state is one of the travel states.
func (s UnitState) Moving() bool {
	return s == MovingUp || s == MovingDown
}

// DoorState tracks the door independently of the unit state.
type DoorState int

const (
	DoorClosed DoorState = iota
	DoorIsOpening
	DoorIsOpen
	DoorIsClosing
)

func (d DoorState) String() string {
	switch d {
	case DoorIsOpening:
		return "OPENING"
	case DoorIsOpen:
		return "OPEN"
	case DoorIsClosing:
		return "CLOSING"
	default:
		return "CLOSED"
	}
}

// RequestStatus is the lifecycle status of a floor request.
type RequestStatus int

const (
	Pending RequestStatus = iota
	Assigned
	InProgress
	Completed
	Cancelled
)

func (s RequestStatus) String() string {
	switch s {
	case Assigned:
		return "ASSIGNED"
	case InProgress:
		return "IN_PROGRESS"
	case Completed:
		return "COMPLETED"
	case Cancelled:
		return "CANCELLED"
	default:
		return "PENDING"
	}
}

// Active reports whether the status still holds the (floor, direction)
// deduplication slot.
func (s RequestStatus) Active() bool {
	return s == Pending || s == Assigned || s == InProgress
}

// Algorithm selects the dispatch strategy.
type Algorithm int

const (
	Nearest Algorithm = iota
	Scan
	Look
)

func (a Algorithm) String() string {
	switch a {
	case Scan:
		return "SCAN"
	case Look:
		return "LOOK"
	default:
		return "NEAREST"
	}
}

// ParseAlgorithm maps a name to an Algorithm, reporting ok=false for
// unrecognized names.
func ParseAlgorithm(name string) (Algorithm, bool) {
	switch name {
	case "NEAREST", "nearest":
		return Nearest, true
	case "SCAN", "scan":
		return Scan, true
	case "LOOK", "look":
		return Look, true
	default:
		return Nearest, false
	}
}

// FloorRequest is one floor-service request and its lifecycle record.
type FloorRequest struct {
	ID          uuid.UUID
	Floor       int
	Direction   Direction
	AssignedTo  uuid.UUID // zero until dispatched
	RequesterID string
	Priority    int
	Status      RequestStatus
	RequestedAt time.Time
	AssignedAt  time.Time
	CompletedAt time.Time
	CancelledAt time.Time
}

// WaitTime is the completed-minus-requested duration, zero until completion.
func (r *FloorRequest) WaitTime() time.Duration {
	if r.Status != Completed {
		return 0
	}
	return r.CompletedAt.Sub(r.RequestedAt)
}

// UnitStatus is a point-in-time snapshot of one unit, safe to hand out.
type UnitStatus struct {
	ID             uuid.UUID
	Number         int
	CurrentFloor   int
	TargetFloor    int // 0 when no trip is in flight
	State          UnitState
	Direction      Direction
	Door           DoorState
	IsActive       bool
	QueueFloors    []int
	QueueLength    int
	TripCount      int
	FloorsTraveled int
	LastUpdate     time.Time
}

// CallResult is returned to the caller of CallElevator.
type CallResult struct {
	RequestID        uuid.UUID
	UnitID           uuid.UUID
	UnitNumber       int
	EstimatedArrival time.Time
	Status           RequestStatus
}
