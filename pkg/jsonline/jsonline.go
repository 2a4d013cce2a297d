// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

// Package jsonline adapts the legacy JSON-line telemetry format to the
// binary protocol's event model.
//
// Early firmware builds emitted one JSON object per line instead of binary
// frames. Lines captured through a serial monitor arrive with extra noise:
// timestamp prefixes ("20:09:52.663 -> {...}"), trailing junk after the
// object, and one known copy/paste corruption where the state key gets glued
// onto the t_ms value. The parser tolerates all of these; anything else is
// silently skipped.
package jsonline

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/mmwave"
)

// gluedStateRe repairs monitor lines like
// {"type":"state","t_ms":34792PRESENT_FAR","pose":...} where the state key
// was lost between the t_ms value and its own value.
var gluedStateRe = regexp.MustCompile(`"t_ms":(\d+)([A-Z_]+)",`)

// ParseLine parses one legacy telemetry line into an event. The second
// return value is false for blank lines, non-JSON noise, and objects with an
// unrecognized type tag.
func ParseLine(line string) (mmwave.Event, bool) {
	text := strings.TrimSpace(line)
	if text == "" {
		return nil, false
	}

	// Serial monitor timestamp prefix.
	if idx := strings.Index(text, "->"); idx >= 0 {
		if suffix := strings.TrimSpace(text[idx+2:]); suffix != "" {
			text = suffix
		}
	}

	// Keep the first JSON object on the line if extra text is present.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, false
	}
	text = text[start : end+1]

	// Repair at most one glued state key per line, as the corruption only
	// ever hits the first key pair.
	if loc := gluedStateRe.FindStringSubmatchIndex(text); loc != nil {
		var repaired []byte
		repaired = append(repaired, text[:loc[0]]...)
		repaired = gluedStateRe.ExpandString(repaired, `"t_ms":$1,"state":"$2",`, text, loc)
		repaired = append(repaired, text[loc[1]:]...)
		text = string(repaired)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}

	switch obj["type"] {
	case "state":
		return stateFromObject(obj), true
	case "bio":
		return bioFromObject(obj), true
	case "light":
		return lightFromObject(obj), true
	case "targets":
		return targetsFromObject(obj), true
	default:
		return nil, false
	}
}

func stateFromObject(obj map[string]interface{}) mmwave.State {
	return mmwave.State{
		TMs:        asUint32(obj["t_ms"]),
		State:      asString(obj["state"]),
		Pose:       asString(obj["pose"]),
		HeadMoving: asUint8(obj["head_moving"]),
		Human:      asUint8(obj["human"]),
		NTargets:   asUint8(obj["n_targets"]),
		DistNew:    asUint8(obj["dist_new"]),
		DistCM:     asOptFloat(obj["dist_cm"]),
	}
}

func bioFromObject(obj map[string]interface{}) mmwave.Bio {
	return mmwave.Bio{
		TMs:     asUint32(obj["t_ms"]),
		Allowed: asUint8(obj["allowed"]),
		Valid:   asUint8(obj["valid"]),
		BRNew:   asUint8(obj["br_new"]),
		HRNew:   asUint8(obj["hr_new"]),
		BR:      asOptFloat(obj["br"]),
		HR:      asOptFloat(obj["hr"]),
	}
}

func lightFromObject(obj map[string]interface{}) mmwave.Light {
	return mmwave.Light{
		TMs:   asUint32(obj["t_ms"]),
		Valid: asUint8(obj["valid"]),
		Lux:   asOptFloat(obj["lux"]),
	}
}

func targetsFromObject(obj map[string]interface{}) mmwave.Targets {
	evt := mmwave.Targets{
		TMs:         asUint32(obj["t_ms"]),
		ForcedFocus: asInt(obj["forced_focus"], -1),
		Truncated:   asBool(obj["targets_truncated"]),
	}

	if focus, ok := obj["focus"].(map[string]interface{}); ok {
		t := targetFromObject(focus)
		evt.Focus = &t
	}

	// Entries with a missing or non-numeric cluster/x/y/r are dropped, so a
	// half-parsed line cannot win target selection with a phantom radius.
	if list, ok := obj["targets"].([]interface{}); ok {
		for _, item := range list {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if !hasNumbers(entry, "cluster", "x", "y", "r") {
				continue
			}
			evt.List = append(evt.List, targetFromObject(entry))
		}
	}

	if n, ok := obj["n"]; ok {
		evt.N = asInt(n, len(evt.List))
	} else {
		evt.N = len(evt.List)
	}
	return evt
}

func targetFromObject(obj map[string]interface{}) mmwave.Target {
	return mmwave.Target{
		Cluster: asInt(obj["cluster"], 0),
		X:       asFloat(obj["x"]),
		Y:       asFloat(obj["y"]),
		R:       asFloat(obj["r"]),
		Bearing: asFloat(obj["bearing"]),
		V:       asFloat(obj["v"]),
	}
}

func hasNumbers(obj map[string]interface{}, keys ...string) bool {
	for _, key := range keys {
		if _, ok := obj[key].(float64); !ok {
			return false
		}
	}
	return true
}

func asFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func asOptFloat(v interface{}) *float64 {
	if f, ok := v.(float64); ok {
		return &f
	}
	return nil
}

func asInt(v interface{}, fallback int) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return fallback
}

func asUint32(v interface{}) uint32 {
	if f, ok := v.(float64); ok && f >= 0 {
		return uint32(f)
	}
	return 0
}

// asUint8 accepts both the numeric flags of late JSON builds and the boolean
// flags of the earliest ones.
func asUint8(v interface{}) uint8 {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			return uint8(t)
		}
	case bool:
		if t {
			return 1
		}
	}
	return 0
}

func asBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	}
	return false
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
