// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package vitals

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/tools"
)

// ToolName is the registered name of the vitals acquisition tool.
const ToolName = "mmwave_vitals"

// ToolParams is the JSON parameter shape of the vitals tool.
type ToolParams struct {
	Mode             string  `json:"mode"`
	DurationS        float64 `json:"duration_s"`
	MeasureDurationS float64 `json:"measure_duration_s"`
	FocusCluster     *int16  `json:"focus_cluster"`
	SweepIfUnseen    *bool   `json:"sweep_if_unseen"`
	TargetsMs        uint16  `json:"targets_ms"`
	BioMs            uint16  `json:"bio_ms"`
}

var toolSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "mode": {
      "type": "string",
      "enum": ["scan", "measure", "locate_and_measure"],
      "description": "scan for people, measure heart/breath now, or do both"
    },
    "duration_s": {
      "type": "number",
      "minimum": 1,
      "description": "How long to collect telemetry in scan/measurement mode"
    },
    "measure_duration_s": {
      "type": "number",
      "minimum": 1,
      "description": "Measure phase budget when locating first"
    },
    "focus_cluster": {
      "type": "integer",
      "minimum": -1,
      "description": "Use a specific target cluster for measurement. -1 for auto"
    },
    "sweep_if_unseen": {
      "type": "boolean",
      "description": "Run a short scan sweep if no target is found"
    },
    "targets_ms": {"type": "integer", "minimum": 50},
    "bio_ms": {"type": "integer", "minimum": 50}
  },
  "required": []
}`)

// NewTool wraps a session factory as an agent-callable tool. openTransport
// runs per call, so the port is held only for the session's duration.
// Callers that omit a mode get the full locate_and_measure pipeline.
func NewTool(openTransport func() (Transport, error), sessionOpts ...SessionOption) tools.Tool {
	return tools.Tool{
		Name: ToolName,
		Description: "Locate people with mmWave targets telemetry and measure " +
			"heart/breath rates when a single, stationary person is in range.",
		Schema: toolSchema,
		Call: func(params json.RawMessage) (any, error) {
			var p ToolParams
			if len(params) > 0 {
				if err := json.Unmarshal(params, &p); err != nil {
					return nil, fmt.Errorf("invalid tool params: %w", err)
				}
			}
			if p.Mode == "" {
				p.Mode = ModeLocateAndMeasure
			}

			opts := DefaultOptions()
			if p.DurationS > 0 {
				d := time.Duration(p.DurationS * float64(time.Second))
				opts.ScanDuration = d
				if p.Mode == ModeMeasure {
					opts.MeasureDuration = d
				}
			}
			if p.MeasureDurationS > 0 {
				opts.MeasureDuration = time.Duration(p.MeasureDurationS * float64(time.Second))
			}
			if p.FocusCluster != nil {
				opts.FocusCluster = *p.FocusCluster
			}
			if p.SweepIfUnseen != nil {
				opts.SweepIfUnseen = *p.SweepIfUnseen
			}
			if p.TargetsMs > 0 {
				opts.TargetsMs = p.TargetsMs
			}
			if p.BioMs > 0 {
				opts.BioMs = p.BioMs
			}

			transport, err := openTransport()
			if err != nil {
				return nil, &TransportError{Op: "open", Err: err}
			}
			defer transport.Close()

			session := NewSession(transport, sessionOpts...)
			return session.Run(p.Mode, opts)
		},
	}
}
