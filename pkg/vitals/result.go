// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package vitals

import (
	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/mmwave"
)

// Session modes.
const (
	ModeScan             = "scan"
	ModeMeasure          = "measure"
	ModeLocateAndMeasure = "locate_and_measure"
)

// Result statuses.
const (
	StatusScanDone            = "scan_done"
	StatusOK                  = "ok"
	StatusMeasureInconclusive = "measure_inconclusive"
)

// Result is the caller-facing outcome of one session. It carries the full
// scan and measure sub-records for introspection, not just the verdict.
type Result struct {
	Mode    string         `json:"mode"`
	Status  string         `json:"status,omitempty"`
	Scan    *ScanReport    `json:"scan,omitempty"`
	Measure *MeasureReport `json:"measure,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// ScanReport accumulates everything the scan phase observed.
type ScanReport struct {
	TargetsSeen   int              `json:"targets_seen"`
	LatestTarget  *mmwave.Target   `json:"latest_target,omitempty"`
	RecentTargets []mmwave.Target  `json:"recent_targets,omitempty"`
	State         string           `json:"state,omitempty"`
	Telemetry     []mmwave.Targets `json:"telemetry"`
}

// MeasureReport accumulates everything the measure phase observed.
type MeasureReport struct {
	Attempts    int           `json:"attempts"`
	LatestBio   *mmwave.Bio   `json:"latest_bio,omitempty"`
	BioMessages []mmwave.Bio  `json:"bio_messages"`
	State       *mmwave.State `json:"state,omitempty"`
	ValidBio    *Reading      `json:"valid_bio,omitempty"`
	Success     bool          `json:"success"`
}

// Reading is the first qualifying bio reading of a successful measurement.
type Reading struct {
	HeartRateBPM  float64 `json:"heart_rate_bpm"`
	BreathRateBPM float64 `json:"breath_rate_bpm"`
	HRNew         uint8   `json:"hr_new"`
	BRNew         uint8   `json:"br_new"`
}

// SelectTarget picks the measurement candidate from a targets event: the
// entry with the smallest radius. Returns nil when the event carries no
// usable entries.
func SelectTarget(evt mmwave.Targets) *mmwave.Target {
	if evt.N <= 0 || len(evt.List) == 0 {
		return nil
	}

	best := evt.List[0]
	for _, candidate := range evt.List[1:] {
		if candidate.R < best.R {
			best = candidate
		}
	}
	return &best
}
