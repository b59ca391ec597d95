package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/its-coded-coder/Elevator-API/src/types"
)

const (
	DefaultElevatorCount   = 3
	DefaultTotalFloors     = 10
	DefaultTravelDuration  = 2 * time.Second
	DefaultDoorOpDuration  = 1 * time.Second
	DefaultDoorDwell       = 5 * time.Second
	DefaultTickInterval    = 1 * time.Second
	DefaultStatsWindow     = 1 * time.Hour
	DirChangePenaltyFactor = 1000
)

// Config is the runtime configuration of the fleet. Validated once at
// startup; not mutated afterwards (the scheduling algorithm is switched
// on the coordinator, not here).
type Config struct {
	ElevatorCount  int
	TotalFloors    int
	TravelDuration time.Duration // per floor
	DoorOpDuration time.Duration // opening or closing
	DoorDwell      time.Duration // held open between opening and closing
	TickInterval   time.Duration
	Algorithm      types.Algorithm
	LogLevel       string
}

// Load reads the configuration from the environment, with an optional
// .env file. Missing keys fall back to defaults; malformed values are
// errors.
func Load() (Config, error) {
	// A missing .env file is fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg := Config{
		ElevatorCount:  DefaultElevatorCount,
		TotalFloors:    DefaultTotalFloors,
		TravelDuration: DefaultTravelDuration,
		DoorOpDuration: DefaultDoorOpDuration,
		DoorDwell:      DefaultDoorDwell,
		TickInterval:   DefaultTickInterval,
		Algorithm:      types.Nearest,
		LogLevel:       "info",
	}

	var err error
	if cfg.ElevatorCount, err = intEnv("ELEVATOR_COUNT", cfg.ElevatorCount); err != nil {
		return cfg, err
	}
	if cfg.TotalFloors, err = intEnv("TOTAL_FLOORS", cfg.TotalFloors); err != nil {
		return cfg, err
	}
	if cfg.TravelDuration, err = durationEnv("FLOOR_TRAVEL_TIME", cfg.TravelDuration); err != nil {
		return cfg, err
	}
	if cfg.DoorOpDuration, err = durationEnv("DOOR_OPERATION_TIME", cfg.DoorOpDuration); err != nil {
		return cfg, err
	}
	if cfg.DoorDwell, err = durationEnv("DOOR_DWELL_TIME", cfg.DoorDwell); err != nil {
		return cfg, err
	}
	if cfg.TickInterval, err = durationEnv("TICK_INTERVAL", cfg.TickInterval); err != nil {
		return cfg, err
	}
	if name := os.Getenv("SCHEDULING_ALGORITHM"); name != "" {
		algo, ok := types.ParseAlgorithm(name)
		if !ok {
			return cfg, fmt.Errorf("SCHEDULING_ALGORITHM=%q: %w", name, types.ErrInvalidAlgorithm)
		}
		cfg.Algorithm = algo
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.ElevatorCount < 1 {
		return fmt.Errorf("elevator count %d: must be at least 1", c.ElevatorCount)
	}
	if c.TotalFloors < 2 {
		return fmt.Errorf("total floors %d: must be at least 2", c.TotalFloors)
	}
	if c.TravelDuration <= 0 || c.DoorOpDuration <= 0 || c.DoorDwell <= 0 {
		return fmt.Errorf("travel, door operation and dwell durations must be positive")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval %v: must be positive", c.TickInterval)
	}
	return nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s=%q: %w", key, raw, err)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s=%q: %w", key, raw, err)
	}
	return v, nil
}
