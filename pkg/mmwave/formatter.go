// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package mmwave

import "fmt"

// FormatMessageType returns the human-readable name for a message type
func FormatMessageType(msgType byte) string {
	switch msgType {
	// Host → device commands (0x01-0x0F)
	case CmdSetRangingMode:
		return "SET_RANGING_MODE"
	case CmdSetFocus:
		return "SET_FOCUS"
	case CmdSetBioInterval:
		return "SET_BIO_INTERVAL"
	case CmdSetTargetInterval:
		return "SET_TARGET_INTERVAL"
	case CmdPing:
		return "PING"

	// Device → host events (0x81-0x9F)
	case EvtAck:
		return "ACK"
	case EvtErr:
		return "ERR"
	case EvtPong:
		return "PONG"
	case EvtHello:
		return "HELLO"
	case EvtState:
		return "STATE"
	case EvtTargets:
		return "TARGETS"
	case EvtBio:
		return "BIO"
	case EvtLight:
		return "LIGHT"

	default:
		return "UNKNOWN"
	}
}

// FormatEvent renders an event as a single human-readable line. Absent
// readings render as "--" rather than zero so a missing heart rate is never
// mistaken for a measured one.
func FormatEvent(seq uint16, evt Event) string {
	switch e := evt.(type) {
	case Ack:
		return fmt.Sprintf("seq=%d type=ack cmd=%s (0x%02X) status=%s value=%d",
			seq, FormatMessageType(e.CmdID), e.CmdID, formatAckStatus(e.StatusCode), e.Value)
	case Err:
		return fmt.Sprintf("seq=%d type=err cmd=%s (0x%02X) err=%s (%d)",
			seq, FormatMessageType(e.CmdID), e.CmdID, formatErrCode(e.ErrCode), e.ErrCode)
	case Pong:
		return fmt.Sprintf("seq=%d type=pong uptime=%d ms", seq, e.TMs)
	case Hello:
		return fmt.Sprintf("seq=%d type=hello proto=%d features=0x%04X",
			seq, e.ProtoVersion, e.FeatureBits)
	case State:
		return fmt.Sprintf("seq=%d type=state state=%s pose=%s human=%d n_targets=%d dist_cm=%s",
			seq, e.State, e.Pose, e.Human, e.NTargets, formatOptFloat(e.DistCM, 1))
	case Bio:
		return fmt.Sprintf("seq=%d type=bio allowed=%d valid=%d br=%s hr=%s",
			seq, e.Allowed, e.Valid, formatOptFloat(e.BR, 2), formatOptFloat(e.HR, 2))
	case Light:
		return fmt.Sprintf("seq=%d type=light lux=%s", seq, formatOptFloat(e.Lux, 1))
	case Targets:
		return fmt.Sprintf("seq=%d type=targets n=%d focus=%s truncated=%t",
			seq, e.N, formatFocus(e.Focus), e.Truncated)
	case Unknown:
		return fmt.Sprintf("seq=%d msg_type=0x%02X payload=% X", seq, e.MsgType, e.Payload)
	default:
		return fmt.Sprintf("seq=%d type=%s", seq, evt.Kind())
	}
}

func formatOptFloat(v *float64, precision int) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%.*f", precision, *v)
}

func formatFocus(t *Target) string {
	if t == nil {
		return "none"
	}
	return fmt.Sprintf("{cluster=%d x=%.3f y=%.3f r=%.3f bearing=%.2f v=%.1f}",
		t.Cluster, t.X, t.Y, t.R, t.Bearing, t.V)
}

func formatAckStatus(status uint8) string {
	switch status {
	case AckOK:
		return "OK"
	case AckClamped:
		return "CLAMPED"
	case AckIgnored:
		return "IGNORED"
	default:
		return fmt.Sprintf("STATUS_%d", status)
	}
}

func formatErrCode(code uint8) string {
	switch code {
	case ErrUnknownCmd:
		return "UNKNOWN_CMD"
	case ErrBadLen:
		return "BAD_LEN"
	case ErrBadValue:
		return "BAD_VALUE"
	case ErrCRCFail:
		return "CRC_FAIL"
	case ErrUnsupportedVersion:
		return "UNSUPPORTED_VERSION"
	default:
		return "UNKNOWN"
	}
}
