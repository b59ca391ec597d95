package types

import (
	"time"

	"github.com/google/uuid"
)

// EventType categorizes broadcast events.
type EventType string

const (
	EventStatus    EventType = "StatusUpdate"
	EventArrival   EventType = "Arrival"
	EventDeparture EventType = "Departure"
	EventDoor      EventType = "Door"
)

// Event is one entry on the telemetry stream. Delivery is best-effort;
// producers never block on it.
type Event struct {
	Type      EventType
	UnitID    uuid.UUID
	Status    UnitStatus
	Floor     int
	Duration  time.Duration // door cycle or travel duration, when relevant
	Timestamp time.Time
}
