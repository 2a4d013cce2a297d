// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package vitals

import "fmt"

// InvalidModeError reports a session mode outside the accepted set. It is
// returned before any transport interaction occurs.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid mode %q, use scan, measure, or locate_and_measure", e.Mode)
}

// TransportError reports a failure of the underlying link. Unlike frame and
// event decode failures, which are dropped and read past, a transport error
// ends the session.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
