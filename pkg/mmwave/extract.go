// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package mmwave

import "bytes"

// ExtractFrames scans the receive buffer for delimiter-terminated encoded
// frames, removes everything it consumed (delimiters included) and returns
// the encoded frames found. Consecutive delimiters yield nothing. The
// buffer persists across calls, so a frame split over any number of partial
// reads is reassembled once its delimiter arrives.
func ExtractFrames(buffer *[]byte) [][]byte {
	var frames [][]byte
	for {
		idx := bytes.IndexByte(*buffer, Delimiter)
		if idx < 0 {
			return frames
		}
		if idx > 0 {
			frame := make([]byte, idx)
			copy(frame, (*buffer)[:idx])
			frames = append(frames, frame)
		}
		*buffer = (*buffer)[idx+1:]
	}
}
