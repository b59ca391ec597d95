package dispatch

import (
	"time"

	"github.com/its-coded-coder/Elevator-API/src/types"
)

// Stats aggregates completed requests over a trailing window.
type Stats struct {
	Algorithm   types.Algorithm
	Window      time.Duration
	Completed   int
	AverageWait time.Duration
	MinWait     time.Duration
	MaxWait     time.Duration
	Efficiency  float64 // 100 - average wait in minutes, floored at 0
}

// ComputeStats summarizes the given completed requests. The caller
// supplies the window's completions; the engine only labels them with
// the active algorithm.
func (e *Engine) ComputeStats(completed []types.FloorRequest, window time.Duration) Stats {
	stats := Stats{
		Algorithm:  e.Algorithm(),
		Window:     window,
		Completed:  len(completed),
		Efficiency: 100,
	}
	if len(completed) == 0 {
		return stats
	}

	var total time.Duration
	stats.MinWait = completed[0].WaitTime()
	for _, req := range completed {
		wait := req.WaitTime()
		total += wait
		if wait < stats.MinWait {
			stats.MinWait = wait
		}
		if wait > stats.MaxWait {
			stats.MaxWait = wait
		}
	}
	stats.AverageWait = total / time.Duration(len(completed))

	stats.Efficiency = 100 - stats.AverageWait.Minutes()
	if stats.Efficiency < 0 {
		stats.Efficiency = 0
	}
	return stats
}
