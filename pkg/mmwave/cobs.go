// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package mmwave

// StuffBytes applies COBS byte stuffing so the delimiter value never occurs
// in the output. Empty input encodes to a single code byte of 1. The
// trailing delimiter is not appended here; BuildFrame owns it.
func StuffBytes(data []byte) []byte {
	if len(data) == 0 {
		return []byte{0x01}
	}

	out := make([]byte, 0, len(data)+1+len(data)/254)
	codeIndex := 0
	out = append(out, 0)
	code := byte(1)

	for _, b := range data {
		if b == Delimiter {
			out[codeIndex] = code
			codeIndex = len(out)
			out = append(out, 0)
			code = 1
			continue
		}

		out = append(out, b)
		code++
		if code == 0xFF {
			out[codeIndex] = code
			codeIndex = len(out)
			out = append(out, 0)
			code = 1
		}
	}

	out[codeIndex] = code
	return out
}

// UnstuffBytes removes COBS byte stuffing from encoded data (without the
// trailing delimiter). This is the inverse of StuffBytes.
func UnstuffBytes(encoded []byte) ([]byte, error) {
	if len(encoded) == 0 {
		return nil, framingErrorf("empty cobs frame")
	}

	out := make([]byte, 0, len(encoded))
	index := 0
	length := len(encoded)

	for index < length {
		code := int(encoded[index])
		if code == 0 {
			return nil, framingErrorf("invalid cobs code 0 at offset %d", index)
		}
		index++

		end := index + code - 1
		if end > length {
			return nil, framingErrorf("cobs code %d exceeds frame length", code)
		}

		out = append(out, encoded[index:end]...)
		index = end
		if code < 0xFF && index < length {
			out = append(out, 0)
		}
	}

	return out, nil
}
