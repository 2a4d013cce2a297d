// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package mmwave

// Event is one decoded telemetry record. The set of implementations is
// closed: Ack, Err, Pong, Hello, State, Bio, Light, Targets and Unknown.
// Fields carrying a sentinel "no reading" value on the wire decode to nil
// pointers rather than numbers.
type Event interface {
	// Kind returns the event's type tag ("ack", "bio", "targets", ...).
	Kind() string
}

// Ack acknowledges a host command.
type Ack struct {
	CmdID      uint8 `json:"cmd_id"`
	StatusCode uint8 `json:"status_code"`
	Value      int32 `json:"value"`
}

func (Ack) Kind() string { return "ack" }

// Err reports a command the device rejected.
type Err struct {
	CmdID   uint8 `json:"cmd_id"`
	ErrCode uint8 `json:"err_code"`
}

func (Err) Kind() string { return "err" }

// Pong answers a ping with the device uptime.
type Pong struct {
	TMs uint32 `json:"t_ms"`
}

func (Pong) Kind() string { return "pong" }

// Hello announces the firmware's protocol version and feature bits.
type Hello struct {
	ProtoVersion uint8  `json:"proto_version"`
	FeatureBits  uint16 `json:"feature_bits"`
}

func (Hello) Kind() string { return "hello" }

// State is the periodic presence state summary.
type State struct {
	TMs        uint32   `json:"t_ms"`
	State      string   `json:"state"`
	Pose       string   `json:"pose"`
	HeadMoving uint8    `json:"head_moving"`
	Human      uint8    `json:"human"`
	NTargets   uint8    `json:"n_targets"`
	DistCM     *float64 `json:"dist_cm"`
	DistNew    uint8    `json:"dist_new"`
}

func (State) Kind() string { return "state" }

// Bio carries a heart/breath rate reading. BR and HR are nil when the
// device reported the sentinel, independently per field.
type Bio struct {
	TMs     uint32   `json:"t_ms"`
	Allowed uint8    `json:"allowed"`
	Valid   uint8    `json:"valid"`
	BR      *float64 `json:"br"`
	BRNew   uint8    `json:"br_new"`
	HR      *float64 `json:"hr"`
	HRNew   uint8    `json:"hr_new"`
}

func (Bio) Kind() string { return "bio" }

// Light carries an ambient light reading. Lux is nil when the validity flag
// is unset or the float is not finite.
type Light struct {
	TMs   uint32   `json:"t_ms"`
	Valid uint8    `json:"valid"`
	Lux   *float64 `json:"lux"`
}

func (Light) Kind() string { return "light" }

// Target is one tracked body cluster in engineering units: x/y/r in meters,
// bearing in degrees, v in m/s. Cluster ids are stable for the same person
// within a session but not globally unique over time.
type Target struct {
	Cluster int     `json:"cluster"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	R       float64 `json:"r"`
	Bearing float64 `json:"bearing"`
	V       float64 `json:"v"`
}

// Targets is the periodic target cluster list. Focus is non-nil only when
// the header's focus-valid flag is set; Truncated reports the device-side
// list cap, not an error.
type Targets struct {
	TMs         uint32   `json:"t_ms"`
	N           int      `json:"n"`
	ForcedFocus int      `json:"forced_focus"`
	Focus       *Target  `json:"focus"`
	List        []Target `json:"targets"`
	Truncated   bool     `json:"targets_truncated"`
}

func (Targets) Kind() string { return "targets" }

// Unknown carries an unrecognized message type with its raw payload for
// diagnostics. Decoding one is not an error path.
type Unknown struct {
	MsgType byte   `json:"msg_type"`
	Payload []byte `json:"payload"`
}

func (Unknown) Kind() string { return "unknown" }
