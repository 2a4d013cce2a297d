// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package mmwave

import "fmt"

// FramingError reports malformed COBS byte stuffing. It is a local decode
// failure: callers drop the offending frame and keep reading.
type FramingError struct {
	msg string
}

func (e *FramingError) Error() string {
	return e.msg
}

func framingErrorf(format string, args ...interface{}) *FramingError {
	return &FramingError{msg: fmt.Sprintf(format, args...)}
}

// FailureReason identifies why a frame or event was rejected.
type FailureReason int

const (
	ReasonFraming FailureReason = iota
	ReasonTruncated
	ReasonLengthMismatch
	ReasonCRCMismatch
	ReasonBadEventLength
)

// String returns the reason's short name.
func (r FailureReason) String() string {
	switch r {
	case ReasonFraming:
		return "framing"
	case ReasonTruncated:
		return "truncated"
	case ReasonLengthMismatch:
		return "length-mismatch"
	case ReasonCRCMismatch:
		return "crc-mismatch"
	case ReasonBadEventLength:
		return "bad-event-length"
	default:
		return fmt.Sprintf("reason-%d", int(r))
	}
}

// ProtocolError reports a structurally invalid frame or event payload:
// header too short, declared length disagreeing with the decoded remainder,
// CRC mismatch, or a fixed-size event payload of the wrong length. CRC and
// length mismatches carry distinct reasons so diagnostics can tell them
// apart; callers treat all of them as "drop this frame".
type ProtocolError struct {
	Reason FailureReason
	msg    string
}

func (e *ProtocolError) Error() string {
	return e.msg
}

func protocolErrorf(reason FailureReason, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Reason: reason, msg: fmt.Sprintf(format, args...)}
}
