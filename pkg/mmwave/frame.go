// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package mmwave

import "encoding/binary"

// Frame is one decoded protocol packet: header fields plus payload, prior
// to wire stuffing.
type Frame struct {
	Version byte
	MsgType byte
	Seq     uint16
	Payload []byte
}

// BuildFrame serializes a complete wire-formatted frame: little-endian
// header, payload, CRC-16 over everything before the CRC field, COBS
// stuffing, and one literal delimiter byte. This is the only place the
// trailing delimiter is appended.
func BuildFrame(msgType byte, payload []byte, seq uint16) []byte {
	packet := make([]byte, HeaderSize+len(payload)+CRCSize)
	packet[0] = ProtoVersion
	packet[1] = msgType
	binary.LittleEndian.PutUint16(packet[2:4], seq)
	binary.LittleEndian.PutUint16(packet[4:6], uint16(len(payload)))
	copy(packet[HeaderSize:], payload)

	crc := CalculateCRC(packet[:HeaderSize+len(payload)])
	binary.LittleEndian.PutUint16(packet[HeaderSize+len(payload):], crc)

	stuffed := StuffBytes(packet)
	return append(stuffed, Delimiter)
}

// ParseFrame decodes one encoded frame (without its trailing delimiter).
// Failures carry distinct reasons: framing (unstuffing failed), truncated
// (under the fixed header+CRC minimum), length mismatch (declared payload
// length disagrees with the decoded remainder) and CRC mismatch.
func ParseFrame(encoded []byte) (*Frame, error) {
	raw, err := UnstuffBytes(encoded)
	if err != nil {
		return nil, protocolErrorf(ReasonFraming, "unstuff frame: %v", err)
	}

	if len(raw) < MinFrameSize {
		return nil, protocolErrorf(ReasonTruncated, "packet too short: %d bytes", len(raw))
	}

	payloadLen := int(binary.LittleEndian.Uint16(raw[4:6]))
	if len(raw) != HeaderSize+payloadLen+CRCSize {
		return nil, protocolErrorf(ReasonLengthMismatch,
			"payload length mismatch: declared %d, have %d", payloadLen, len(raw)-MinFrameSize)
	}

	crcExpected := binary.LittleEndian.Uint16(raw[HeaderSize+payloadLen:])
	crcActual := CalculateCRC(raw[:HeaderSize+payloadLen])
	if crcExpected != crcActual {
		return nil, protocolErrorf(ReasonCRCMismatch,
			"crc mismatch: expected 0x%04X, got 0x%04X", crcActual, crcExpected)
	}

	return &Frame{
		Version: raw[0],
		MsgType: raw[1],
		Seq:     binary.LittleEndian.Uint16(raw[2:4]),
		Payload: raw[HeaderSize : HeaderSize+payloadLen],
	}, nil
}
