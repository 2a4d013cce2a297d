// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

// Package mmwave provides a reference Go implementation of the Reachy mmWave
// serial protocol.
//
// The protocol is a binary framing scheme for communication between a host
// and the mmWave presence/vitals sensing firmware. This package provides
// frame encoding/decoding, COBS byte stuffing, CRC validation, event
// decoding and command payload building.
package mmwave

// ProtoVersion is the supported protocol version. Frames declaring any other
// version are dropped before event decoding.
const ProtoVersion = 1

// Delimiter terminates every encoded frame on the wire. COBS stuffing
// guarantees it never occurs inside one.
const Delimiter = 0x00

// Frame geometry
const (
	HeaderSize     = 6 // version + msg type + seq + payload length
	CRCSize        = 2
	MinFrameSize   = HeaderSize + CRCSize
	MaxPayloadSize = 65535 // bounded by the 16-bit length field
)

// Message types - Host → device commands
const (
	CmdSetRangingMode    = 0x01
	CmdSetFocus          = 0x02
	CmdSetBioInterval    = 0x03
	CmdSetTargetInterval = 0x04
	CmdPing              = 0x05
)

// Message types - Device → host events
const (
	EvtAck     = 0x81
	EvtErr     = 0x82
	EvtPong    = 0x83
	EvtHello   = 0x90
	EvtState   = 0x91
	EvtTargets = 0x92
	EvtBio     = 0x93
	EvtLight   = 0x94
)

// ACK status codes
const (
	AckOK      = 0
	AckClamped = 1
	AckIgnored = 2
)

// ERR codes
const (
	ErrUnknownCmd         = 1
	ErrBadLen             = 2
	ErrBadValue           = 3
	ErrCRCFail            = 4
	ErrUnsupportedVersion = 5
)

// Targets event flag bits
const (
	FlagFocusValid       = 1 << 0
	FlagTargetsTruncated = 1 << 1
)

// Fixed payload sizes per event type
const (
	ackPayloadSize   = 6
	errPayloadSize   = 2
	pongPayloadSize  = 4
	helloPayloadSize = 3
	statePayloadSize = 12
	bioPayloadSize   = 12
	lightPayloadSize = 9

	targetsHeaderSize = 20
	targetEntrySize   = 12
)

// sentinelU16 encodes "no reading" in uint16 telemetry fields.
const sentinelU16 = 0xFFFF

// CRC-16-CCITT configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// presenceStateNames maps the state event's state enum to its label.
var presenceStateNames = map[uint8]string{
	0: "NO_TARGET",
	1: "MULTI_TARGET",
	2: "PRESENT_FAR",
	3: "MOVING",
	4: "STILL_NEAR",
	5: "RESTING_VITALS",
}

// poseNames maps the state event's pose enum to its label.
var poseNames = map[uint8]string{
	0: "UNKNOWN",
	1: "SITTING",
	2: "STANDING",
}
