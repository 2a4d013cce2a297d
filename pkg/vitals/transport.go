// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package vitals

// Transport is a byte-oriented link to the sensor. The session owns it
// exclusively for its whole duration; sharing one transport across
// concurrent sessions corrupts framing.
//
// Read must block for at most a short timeout (200ms is the convention for
// serial ports) and return n == 0 with a nil error when nothing arrived, so
// phase deadlines stay responsive. io.EOF marks an exhausted replay source
// and ends the phase with whatever was accumulated.
type Transport interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
}
