// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package mmwave

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeEvent interprets a validated frame's payload according to its message
// type. Unrecognized message types decode to an Unknown event, not an error;
// a recognized type with a wrong-sized payload is a ProtocolError.
func DecodeEvent(msgType byte, payload []byte) (Event, error) {
	switch msgType {
	case EvtAck:
		return decodeAck(payload)
	case EvtErr:
		return decodeErr(payload)
	case EvtPong:
		return decodePong(payload)
	case EvtHello:
		return decodeHello(payload)
	case EvtState:
		return decodeState(payload)
	case EvtTargets:
		return decodeTargets(payload)
	case EvtBio:
		return decodeBio(payload)
	case EvtLight:
		return decodeLight(payload)
	default:
		raw := make([]byte, len(payload))
		copy(raw, payload)
		return Unknown{MsgType: msgType, Payload: raw}, nil
	}
}

func badLength(name string, want, got int) error {
	return protocolErrorf(ReasonBadEventLength, "%s payload: expected %d bytes, got %d", name, want, got)
}

func decodeAck(payload []byte) (Event, error) {
	if len(payload) != ackPayloadSize {
		return nil, badLength("ack", ackPayloadSize, len(payload))
	}
	return Ack{
		CmdID:      payload[0],
		StatusCode: payload[1],
		Value:      int32(binary.LittleEndian.Uint32(payload[2:6])),
	}, nil
}

func decodeErr(payload []byte) (Event, error) {
	if len(payload) != errPayloadSize {
		return nil, badLength("err", errPayloadSize, len(payload))
	}
	return Err{CmdID: payload[0], ErrCode: payload[1]}, nil
}

func decodePong(payload []byte) (Event, error) {
	if len(payload) != pongPayloadSize {
		return nil, badLength("pong", pongPayloadSize, len(payload))
	}
	return Pong{TMs: binary.LittleEndian.Uint32(payload)}, nil
}

func decodeHello(payload []byte) (Event, error) {
	if len(payload) != helloPayloadSize {
		return nil, badLength("hello", helloPayloadSize, len(payload))
	}
	return Hello{
		ProtoVersion: payload[0],
		FeatureBits:  binary.LittleEndian.Uint16(payload[1:3]),
	}, nil
}

func decodeState(payload []byte) (Event, error) {
	if len(payload) != statePayloadSize {
		return nil, badLength("state", statePayloadSize, len(payload))
	}

	evt := State{
		TMs:        binary.LittleEndian.Uint32(payload[0:4]),
		State:      stateName(payload[4]),
		Pose:       poseName(payload[5]),
		HeadMoving: payload[6],
		Human:      payload[7],
		NTargets:   payload[8],
		DistNew:    payload[9],
	}

	distMM := binary.LittleEndian.Uint16(payload[10:12])
	if distMM != sentinelU16 {
		cm := float64(distMM) / 10.0
		evt.DistCM = &cm
	}
	return evt, nil
}

func decodeBio(payload []byte) (Event, error) {
	if len(payload) != bioPayloadSize {
		return nil, badLength("bio", bioPayloadSize, len(payload))
	}

	evt := Bio{
		TMs:     binary.LittleEndian.Uint32(payload[0:4]),
		Allowed: payload[4],
		Valid:   payload[5],
		BRNew:   payload[6],
		HRNew:   payload[7],
	}

	// Sentinel handling is per field: a valid heart rate can arrive while
	// the breath rate is still settling, and vice versa.
	if br := binary.LittleEndian.Uint16(payload[8:10]); br != sentinelU16 {
		v := float64(br) / 100.0
		evt.BR = &v
	}
	if hr := binary.LittleEndian.Uint16(payload[10:12]); hr != sentinelU16 {
		v := float64(hr) / 100.0
		evt.HR = &v
	}
	return evt, nil
}

func decodeLight(payload []byte) (Event, error) {
	if len(payload) != lightPayloadSize {
		return nil, badLength("light", lightPayloadSize, len(payload))
	}

	evt := Light{
		TMs:   binary.LittleEndian.Uint32(payload[0:4]),
		Valid: payload[4],
	}

	lux := float64(math.Float32frombits(binary.LittleEndian.Uint32(payload[5:9])))
	if evt.Valid != 0 && !math.IsNaN(lux) && !math.IsInf(lux, 0) {
		evt.Lux = &lux
	}
	return evt, nil
}

func decodeTargets(payload []byte) (Event, error) {
	if len(payload) < targetsHeaderSize {
		return nil, badLength("targets", targetsHeaderSize, len(payload))
	}

	flags := payload[18]
	n := int(payload[19])

	want := targetsHeaderSize + n*targetEntrySize
	if len(payload) != want {
		return nil, protocolErrorf(ReasonBadEventLength,
			"targets payload: %d entries need %d bytes, got %d", n, want, len(payload))
	}

	evt := Targets{
		TMs:         binary.LittleEndian.Uint32(payload[0:4]),
		N:           n,
		ForcedFocus: int(int16(binary.LittleEndian.Uint16(payload[4:6]))),
		Truncated:   flags&FlagTargetsTruncated != 0,
	}

	// The focus block in the header uses the same layout as a list entry.
	if flags&FlagFocusValid != 0 {
		focus := decodeTargetEntry(payload[6:18])
		evt.Focus = &focus
	}

	if n > 0 {
		evt.List = make([]Target, 0, n)
		for i := 0; i < n; i++ {
			off := targetsHeaderSize + i*targetEntrySize
			evt.List = append(evt.List, decodeTargetEntry(payload[off:off+targetEntrySize]))
		}
	}
	return evt, nil
}

// decodeTargetEntry unpacks one 12-byte target block: millimeter positions
// and radius, centidegree bearing, deci-m/s velocity.
func decodeTargetEntry(b []byte) Target {
	return Target{
		Cluster: int(int16(binary.LittleEndian.Uint16(b[0:2]))),
		X:       float64(int16(binary.LittleEndian.Uint16(b[2:4]))) / 1000.0,
		Y:       float64(int16(binary.LittleEndian.Uint16(b[4:6]))) / 1000.0,
		R:       float64(binary.LittleEndian.Uint16(b[6:8])) / 1000.0,
		Bearing: float64(int16(binary.LittleEndian.Uint16(b[8:10]))) / 100.0,
		V:       float64(int16(binary.LittleEndian.Uint16(b[10:12]))) / 10.0,
	}
}

func stateName(v uint8) string {
	if name, ok := presenceStateNames[v]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_%d", v)
}

func poseName(v uint8) string {
	if name, ok := poseNames[v]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_%d", v)
}
