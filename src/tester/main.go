// Manual test client: drives an in-process fleet from the keyboard.
// Digits call the elevator from that floor toward the lobby (or upward
// from floor 1), letters trigger operator actions.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/its-coded-coder/Elevator-API/src/config"
	"github.com/its-coded-coder/Elevator-API/src/fleet"
	"github.com/its-coded-coder/Elevator-API/src/logger"
	"github.com/its-coded-coder/Elevator-API/src/store"
)

func main() {
	log := logger.GetConfigured(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	mem := store.NewMemStore()
	coordinator, err := fleet.New(cfg, mem, mem, *log)
	if err != nil {
		log.Fatal().Err(err).Msg("fleet startup failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := coordinator.Run(ctx); err != nil {
			log.Debug().Err(err).Msg("run loop exited")
		}
	}()
	go func() {
		for ev := range coordinator.Events() {
			log.Info().Str("event", string(ev.Type)).Int("unit", ev.Status.Number).
				Int("floor", ev.Floor).Str("state", ev.Status.State.String()).Msg("event")
		}
	}()

	if err := keyboard.Open(); err != nil {
		log.Fatal().Err(err).Msg("keyboard unavailable")
	}
	defer keyboard.Close()

	fmt.Println("2..9: call from that floor to floor 1")
	fmt.Println("u: call from floor 1 upward   s: statuses")
	fmt.Println("e: emergency stop unit 1      m: maintenance unit 1")
	fmt.Println("r: reactivate unit 1          o: optimize routes")
	fmt.Println("a: cycle algorithm            q: quit")

	for {
		ch, key, err := keyboard.GetKey()
		if err != nil || key == keyboard.KeyEsc || ch == 'q' {
			return
		}
		switch {
		case ch >= '2' && ch <= '9':
			floor := int(ch - '0')
			if floor > cfg.TotalFloors {
				fmt.Printf("building only has %d floors\n", cfg.TotalFloors)
				continue
			}
			result, err := coordinator.CallElevator(floor, 1, "tester", 0)
			report(result.UnitNumber, err)
		case ch == 'u':
			result, err := coordinator.CallElevator(1, cfg.TotalFloors, "tester", 0)
			report(result.UnitNumber, err)
		case ch == 's':
			for _, st := range coordinator.GetAllUnitStatuses() {
				fmt.Printf("unit %d: floor=%d state=%s dir=%s door=%s queue=%v\n",
					st.Number, st.CurrentFloor, st.State, st.Direction, st.Door, st.QueueFloors)
			}
		case ch == 'e':
			firstUnit(coordinator, func(id uuid.UUID) error {
				return coordinator.EmergencyStop(id, "tester")
			})
		case ch == 'm':
			firstUnit(coordinator, func(id uuid.UUID) error {
				return coordinator.SetMaintenance(id, "tester")
			})
		case ch == 'r':
			firstUnit(coordinator, coordinator.Reactivate)
		case ch == 'o':
			for _, r := range coordinator.OptimizeRoutes(false) {
				fmt.Printf("unit %d: %v -> %v (saves %v)\n",
					r.UnitNumber, r.CurrentOrder, r.ProposedOrder, r.TimeSaved)
			}
		case ch == 'a':
			next := nextAlgorithm(coordinator.Algorithm().String())
			if err := coordinator.SwitchAlgorithm(next); err == nil {
				fmt.Println("algorithm:", next)
			}
		}
		stats := coordinator.AlgorithmStats(time.Hour)
		fmt.Printf("[%s] completed=%d avg=%v efficiency=%.0f\n",
			stats.Algorithm, stats.Completed, stats.AverageWait, stats.Efficiency)
	}
}

func firstUnit(f *fleet.Fleet, op func(uuid.UUID) error) {
	statuses := f.GetAllUnitStatuses()
	if len(statuses) == 0 {
		return
	}
	if err := op(statuses[0].ID); err != nil {
		fmt.Println("error:", err)
	}
}

func report(unitNumber int, err error) {
	if err != nil {
		fmt.Println("call failed:", err)
		return
	}
	fmt.Printf("assigned unit %d\n", unitNumber)
}

func nextAlgorithm(current string) string {
	switch current {
	case "NEAREST":
		return "SCAN"
	case "SCAN":
		return "LOOK"
	default:
		return "NEAREST"
	}
}
