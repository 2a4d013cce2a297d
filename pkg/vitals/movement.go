// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package vitals

import "time"

// SweepStep is one timed pose transition of the attention sweep. YawDelta is
// relative to the body yaw at queue time, in radians.
type SweepStep struct {
	Name     string
	YawDelta float64
	Duration time.Duration
}

// MovementQueue is the optional robot movement collaborator. The session
// uses it only as a pre-scan attention cue; protocol correctness never
// depends on it.
type MovementQueue interface {
	// Enqueue replaces the pending move queue with the given steps and
	// returns the total queued duration.
	Enqueue(steps []SweepStep) time.Duration

	// Clear drops all pending moves.
	Clear()
}

// Sweep choreography
const (
	sweepMaxYaw   = 0.8 // radians
	sweepMoveTime = 1200 * time.Millisecond
	sweepHoldTime = 800 * time.Millisecond
)

// ShortSweep returns the pre-scan attention cue: turn left, hold, return to
// center, turn right, hold, return to center.
func ShortSweep() []SweepStep {
	return []SweepStep{
		{Name: "move_to_left", YawDelta: sweepMaxYaw, Duration: sweepMoveTime},
		{Name: "hold_left", YawDelta: sweepMaxYaw, Duration: sweepHoldTime},
		{Name: "center_from_left", YawDelta: 0, Duration: sweepMoveTime},
		{Name: "move_to_right", YawDelta: -sweepMaxYaw, Duration: sweepMoveTime},
		{Name: "hold_right", YawDelta: -sweepMaxYaw, Duration: sweepHoldTime},
		{Name: "return_center", YawDelta: 0, Duration: sweepMoveTime},
	}
}

// NoopMovement satisfies MovementQueue for hosts without a robot body.
type NoopMovement struct{}

// Enqueue reports the duration the steps would have taken.
func (NoopMovement) Enqueue(steps []SweepStep) time.Duration {
	var total time.Duration
	for _, step := range steps {
		total += step.Duration
	}
	return total
}

// Clear does nothing.
func (NoopMovement) Clear() {}
