// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package mmwave

import "encoding/binary"

// Command payload builders produce the payload bytes for each host command.
// The NewXxxCommand wrappers build complete wire-ready frames around them.

// PackSetRangingMode builds the SET_RANGING_MODE payload (0x01).
// humanMode true selects human presence tracking; false selects raw ranging.
func PackSetRangingMode(humanMode bool) []byte {
	if humanMode {
		return []byte{1}
	}
	return []byte{0}
}

// PackSetFocus builds the SET_FOCUS payload (0x02).
// Pass a cluster id to pin bio sensing to that target, or -1 for automatic
// focus selection.
func PackSetFocus(cluster int16) []byte {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, uint16(cluster))
	return payload
}

// PackSetBioInterval builds the SET_BIO_INTERVAL payload (0x03).
// The device clamps out-of-range intervals and reports the applied value in
// its ACK.
func PackSetBioInterval(intervalMs uint16) []byte {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, intervalMs)
	return payload
}

// PackSetTargetInterval builds the SET_TARGET_INTERVAL payload (0x04).
func PackSetTargetInterval(intervalMs uint16) []byte {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, intervalMs)
	return payload
}

// NewSetRangingModeCommand creates a wire-ready SET_RANGING_MODE frame.
func NewSetRangingModeCommand(humanMode bool, seq uint16) []byte {
	return BuildFrame(CmdSetRangingMode, PackSetRangingMode(humanMode), seq)
}

// NewSetFocusCommand creates a wire-ready SET_FOCUS frame.
func NewSetFocusCommand(cluster int16, seq uint16) []byte {
	return BuildFrame(CmdSetFocus, PackSetFocus(cluster), seq)
}

// NewSetBioIntervalCommand creates a wire-ready SET_BIO_INTERVAL frame.
func NewSetBioIntervalCommand(intervalMs uint16, seq uint16) []byte {
	return BuildFrame(CmdSetBioInterval, PackSetBioInterval(intervalMs), seq)
}

// NewSetTargetIntervalCommand creates a wire-ready SET_TARGET_INTERVAL frame.
func NewSetTargetIntervalCommand(intervalMs uint16, seq uint16) []byte {
	return BuildFrame(CmdSetTargetInterval, PackSetTargetInterval(intervalMs), seq)
}

// NewPingCommand creates a wire-ready PING frame. The device answers with a
// PONG carrying its uptime.
func NewPingCommand(seq uint16) []byte {
	return BuildFrame(CmdPing, nil, seq)
}
