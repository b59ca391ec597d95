package fleet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/its-coded-coder/Elevator-API/src/types"
	"github.com/its-coded-coder/Elevator-API/src/unit"
)

// Run drives the periodic simulation tick until the context is
// cancelled. All pending transition timers are cancelled on shutdown.
func (f *Fleet) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.cfg.TickInterval)
	defer ticker.Stop()
	defer f.timers.cancelAll()

	f.log.Info().Dur("interval", f.cfg.TickInterval).Msg("fleet tick loop started")
	for {
		select {
		case <-ctx.Done():
			f.log.Info().Msg("fleet tick loop stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := f.Tick(); err != nil {
				f.log.Error().Err(err).Msg("tick completed with unit errors")
			}
		}
	}
}

// Tick advances every active unit's state machine concurrently. Each
// unit is an independent task; failures are collected and joined, never
// allowed to abort the other units.
func (f *Fleet) Tick() error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, id := range f.order {
		u := f.units[id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("unit %d: panic: %v", u.Number, r))
					mu.Unlock()
				}
			}()
			if err := f.stepUnit(u); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("unit %d: %w", u.Number, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// stepUnit starts the next trip for an idle unit with queued stops. The
// door cycle and arrivals run on deferred timers, not on the tick.
func (f *Fleet) stepUnit(u *unit.Unit) error {
	plan, ok := u.BeginTrip()
	if !ok {
		return nil
	}

	if err := f.ledger.Begin(plan.RequestID); err != nil {
		return fmt.Errorf("beginning request: %w", err)
	}
	f.persistRequest(plan.RequestID)
	f.persistUnit(u)

	if plan.Immediate {
		// Head stop is the current floor: straight into the door cycle.
		f.log.Debug().Int("unit", u.Number).Int("floor", plan.Target).Msg("serving current floor")
		f.publishUnitEvent(u, types.EventArrival, plan.Target, 0)
		f.timers.schedule(u.ID, f.cfg.DoorOpDuration, func() { f.onDoorOpened(u) })
		return nil
	}

	f.log.Debug().Int("unit", u.Number).Int("target", plan.Target).
		Dur("travel", plan.Travel).Msg("trip started")
	f.publishUnitEvent(u, types.EventDeparture, plan.Target, plan.Travel)
	f.timers.schedule(u.ID, plan.Travel, func() { f.onArrival(u) })
	return nil
}

// onArrival fires when the movement timer elapses.
func (f *Fleet) onArrival(u *unit.Unit) {
	doorOp, ok := u.Arrive()
	if !ok {
		return // stale timer, unit was stopped meanwhile
	}
	st := u.Status()
	f.log.Debug().Int("unit", u.Number).Int("floor", st.CurrentFloor).Msg("arrived")
	f.publishUnitEvent(u, types.EventArrival, st.CurrentFloor, 0)
	f.persistUnit(u)
	f.timers.schedule(u.ID, doorOp, func() { f.onDoorOpened(u) })
}

// onDoorOpened moves the doors to fully open and arms the dwell.
func (f *Fleet) onDoorOpened(u *unit.Unit) {
	opened, ok := u.DoorOpened()
	if !ok {
		return
	}
	f.publishUnitEvent(u, types.EventDoor, u.Status().CurrentFloor, opened)
	f.persistUnit(u)
	f.timers.schedule(u.ID, f.cfg.DoorDwell, func() { f.onDwellElapsed(u) })
}

// onDwellElapsed starts closing unless the doors were already closed
// concurrently.
func (f *Fleet) onDwellElapsed(u *unit.Unit) {
	doorOp, ok := u.StartClosing()
	if !ok {
		return
	}
	f.persistUnit(u)
	f.timers.schedule(u.ID, doorOp, func() { f.onDoorClosed(u) })
}

// onDoorClosed finishes the stop: the head request completes in the
// ledger and the unit idles until the next tick picks up its queue.
func (f *Fleet) onDoorClosed(u *unit.Unit) {
	entry, ok := u.DoorClosed()
	if !ok {
		f.publishStatus(u)
		return
	}
	wait, err := f.ledger.Complete(entry.RequestID)
	if err != nil {
		f.log.Error().Err(err).Str("request", entry.RequestID.String()).Msg("completing request failed")
	} else {
		f.log.Info().Int("unit", u.Number).Int("floor", entry.Floor).
			Dur("wait", wait).Msg("request completed")
	}
	f.persistRequest(entry.RequestID)
	f.persistUnit(u)
	f.publishUnitEvent(u, types.EventDoor, entry.Floor, 0)
	f.publishStatus(u)

	// Remaining stops start immediately, not on the next tick.
	if u.Status().QueueLength > 0 {
		if err := f.stepUnit(u); err != nil {
			f.log.Error().Err(err).Int("unit", u.Number).Msg("starting next trip failed")
		}
	}
}
