// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package mmwave

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// ============================================================
// COBS Fuzz Tests
// ============================================================

// TestFuzzCOBS_RoundTrip stuffs and unstuffs random payloads, including ones
// full of delimiter bytes, and verifies byte-exact recovery.
func TestFuzzCOBS_RoundTrip(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		length := rng.Intn(600)
		data := make([]byte, length)
		rng.Read(data)

		// Bias toward delimiter-heavy payloads every few rounds.
		if i%4 == 0 {
			for j := range data {
				if rng.Intn(3) == 0 {
					data[j] = Delimiter
				}
			}
		}

		stuffed := StuffBytes(data)
		if bytes.IndexByte(stuffed, Delimiter) >= 0 {
			t.Fatalf("round %d: stuffed output contains delimiter", i)
		}

		decoded, err := UnstuffBytes(stuffed)
		if err != nil {
			t.Fatalf("round %d: unstuff error: %v", i, err)
		}
		if !bytes.Equal(decoded, data) {
			t.Fatalf("round %d: round trip mismatch for %d bytes", i, length)
		}
	}
}

// TestFuzzUnstuff_RandomBytes feeds random garbage to the unstuffer and
// verifies it either decodes or errors, never panics.
func TestFuzzUnstuff_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)

	for i := 0; i < rounds; i++ {
		length := rng.Intn(256) + 1
		data := make([]byte, length)
		rng.Read(data)
		_, _ = UnstuffBytes(data)
	}
}

// ============================================================
// Frame Fuzz Tests
// ============================================================

// TestFuzzFrame_RoundTrip builds frames with random types, seqs and payloads
// and verifies parsing recovers every field.
func TestFuzzFrame_RoundTrip(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		msgType := byte(rng.Intn(256))
		seq := uint16(rng.Intn(65536))
		payload := make([]byte, rng.Intn(300))
		rng.Read(payload)

		encoded := BuildFrame(msgType, payload, seq)
		frame, err := ParseFrame(encoded[:len(encoded)-1])
		if err != nil {
			t.Fatalf("round %d: parse error: %v", i, err)
		}
		if frame.MsgType != msgType || frame.Seq != seq {
			t.Fatalf("round %d: header mismatch", i)
		}
		if !bytes.Equal(frame.Payload, payload) {
			t.Fatalf("round %d: payload mismatch", i)
		}
	}
}

// TestFuzzFrame_BitFlipRejected flips one random bit in an encoded frame and
// verifies the parser rejects the frame or, when the flip lands in a COBS
// code byte in a survivable spot, at minimum never panics.
func TestFuzzFrame_BitFlipRejected(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)

	for i := 0; i < rounds; i++ {
		payload := make([]byte, rng.Intn(64)+1)
		rng.Read(payload)
		encoded := BuildFrame(byte(rng.Intn(256)), payload, uint16(rng.Intn(65536)))
		encoded = encoded[:len(encoded)-1]

		flipped := make([]byte, len(encoded))
		copy(flipped, encoded)
		pos := rng.Intn(len(flipped))
		bit := byte(1) << uint(rng.Intn(8))
		flipped[pos] ^= bit

		frame, err := ParseFrame(flipped)
		if err != nil {
			continue
		}
		// The CRC covers every decoded byte, so a flip can never yield a
		// clean parse of the original content.
		original, perr := ParseFrame(encoded)
		if perr != nil {
			t.Fatalf("round %d: original frame failed to parse: %v", i, perr)
		}
		if frame.MsgType == original.MsgType && frame.Seq == original.Seq &&
			bytes.Equal(frame.Payload, original.Payload) {
			t.Fatalf("round %d: bit flip at %d/%02X went undetected", i, pos, bit)
		}
	}
}

// ============================================================
// Extraction Fuzz Tests
// ============================================================

// TestFuzzExtract_FragmentationInvariance streams a batch of frames through
// the extractor in random chunk sizes and verifies the same frames come out
// regardless of how the reads were split.
func TestFuzzExtract_FragmentationInvariance(t *testing.T) {
	rounds := getFuzzRounds() / 10
	if rounds == 0 {
		rounds = 1
	}
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		frameCount := rng.Intn(8) + 1
		var stream []byte
		var expected [][]byte
		for f := 0; f < frameCount; f++ {
			payload := make([]byte, rng.Intn(40))
			rng.Read(payload)
			encoded := BuildFrame(byte(rng.Intn(256)), payload, uint16(f))
			expected = append(expected, encoded[:len(encoded)-1])
			stream = append(stream, encoded...)
		}

		var buffer []byte
		var got [][]byte
		for off := 0; off < len(stream); {
			chunk := rng.Intn(7) + 1
			if off+chunk > len(stream) {
				chunk = len(stream) - off
			}
			buffer = append(buffer, stream[off:off+chunk]...)
			got = append(got, ExtractFrames(&buffer)...)
			off += chunk
		}

		if len(got) != len(expected) {
			t.Fatalf("round %d: expected %d frames, got %d", i, len(expected), len(got))
		}
		for f := range expected {
			if !bytes.Equal(got[f], expected[f]) {
				t.Fatalf("round %d: frame %d mismatch", i, f)
			}
		}
		if len(buffer) != 0 {
			t.Fatalf("round %d: %d bytes left in buffer", i, len(buffer))
		}
	}
}

// TestFuzzDecodeEvent_RandomPayloads feeds random payloads to every known
// message type and verifies the decoder errors cleanly instead of panicking.
func TestFuzzDecodeEvent_RandomPayloads(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)

	msgTypes := []byte{EvtAck, EvtErr, EvtPong, EvtHello, EvtState, EvtTargets, EvtBio, EvtLight, 0x42}
	for i := 0; i < rounds; i++ {
		payload := make([]byte, rng.Intn(96))
		rng.Read(payload)
		_, _ = DecodeEvent(msgTypes[rng.Intn(len(msgTypes))], payload)
	}
}
