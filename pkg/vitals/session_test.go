// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package vitals

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/internal/timeutil"
	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/mmwave"
)

// fakeTransport replays scripted chunks, then returns endErr (io.EOF by
// default). When a mock clock is attached, empty reads advance it so
// deadline loops make progress without wall time.
type fakeTransport struct {
	reads      [][]byte
	idx        int
	chunkLimit int
	writes     [][]byte
	writeErr   error
	endErr     error
	clock      *timeutil.MockClock
	advance    time.Duration
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	if f.idx >= len(f.reads) {
		if f.endErr != nil {
			return 0, f.endErr
		}
		if f.clock != nil {
			f.clock.Advance(f.advance)
		}
		return 0, nil
	}

	chunk := f.reads[f.idx]
	limit := len(chunk)
	if f.chunkLimit > 0 && limit > f.chunkLimit {
		limit = f.chunkLimit
	}
	if limit > len(p) {
		limit = len(p)
	}
	n := copy(p, chunk[:limit])
	if n == len(chunk) {
		f.idx++
	} else {
		f.reads[f.idx] = chunk[n:]
	}
	return n, nil
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	frame := make([]byte, len(p))
	copy(frame, p)
	f.writes = append(f.writes, frame)
	return len(p), nil
}

func (f *fakeTransport) Close() error { return nil }

func newFakeTransport(frames ...[]byte) *fakeTransport {
	return &fakeTransport{reads: frames, endErr: io.EOF}
}

// recordingMovement records sweep activity.
type recordingMovement struct {
	enqueued [][]SweepStep
	cleared  int
}

func (m *recordingMovement) Enqueue(steps []SweepStep) time.Duration {
	m.enqueued = append(m.enqueued, steps)
	var total time.Duration
	for _, step := range steps {
		total += step.Duration
	}
	return total
}

func (m *recordingMovement) Clear() { m.cleared++ }

func bioFrame(seq uint16, allowed, valid uint8, brCenti, hrCenti uint16) []byte {
	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:4], 9000)
	payload[4] = allowed
	payload[5] = valid
	payload[6] = 1
	payload[7] = 1
	binary.LittleEndian.PutUint16(payload[8:10], brCenti)
	binary.LittleEndian.PutUint16(payload[10:12], hrCenti)
	return mmwave.BuildFrame(mmwave.EvtBio, payload, seq)
}

func targetsFrame(seq uint16, entries ...[4]int) []byte {
	payload := make([]byte, 20+12*len(entries))
	binary.LittleEndian.PutUint32(payload[0:4], 7000)
	binary.LittleEndian.PutUint16(payload[4:6], ^uint16(0))
	payload[19] = byte(len(entries))
	for i, e := range entries {
		off := 20 + 12*i
		binary.LittleEndian.PutUint16(payload[off:off+2], uint16(int16(e[0])))   // cluster
		binary.LittleEndian.PutUint16(payload[off+2:off+4], uint16(int16(e[1]))) // x mm
		binary.LittleEndian.PutUint16(payload[off+4:off+6], uint16(int16(e[2]))) // y mm
		binary.LittleEndian.PutUint16(payload[off+6:off+8], uint16(e[3]))        // r mm
	}
	return mmwave.BuildFrame(mmwave.EvtTargets, payload, seq)
}

func stateFrame(seq uint16, state uint8) []byte {
	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:4], 5000)
	payload[4] = state
	binary.LittleEndian.PutUint16(payload[10:12], 0xFFFF)
	return mmwave.BuildFrame(mmwave.EvtState, payload, seq)
}

// corruptFrame flips a payload bit without fixing the CRC.
func corruptFrame(t *testing.T, encoded []byte) []byte {
	t.Helper()
	raw, err := mmwave.UnstuffBytes(encoded[:len(encoded)-1])
	require.NoError(t, err)
	raw[mmwave.HeaderSize] ^= 0x01
	return append(mmwave.StuffBytes(raw), mmwave.Delimiter)
}

// reversionFrame rewrites the frame's version byte and repairs the CRC, so
// only the version gate can reject it.
func reversionFrame(t *testing.T, encoded []byte, version byte) []byte {
	t.Helper()
	raw, err := mmwave.UnstuffBytes(encoded[:len(encoded)-1])
	require.NoError(t, err)
	raw[0] = version
	crc := mmwave.CalculateCRC(raw[:len(raw)-mmwave.CRCSize])
	binary.LittleEndian.PutUint16(raw[len(raw)-mmwave.CRCSize:], crc)
	return append(mmwave.StuffBytes(raw), mmwave.Delimiter)
}

func decodeWrites(t *testing.T, writes [][]byte) []*mmwave.Frame {
	t.Helper()
	var frames []*mmwave.Frame
	for _, w := range writes {
		require.Equal(t, byte(mmwave.Delimiter), w[len(w)-1])
		frame, err := mmwave.ParseFrame(w[:len(w)-1])
		require.NoError(t, err)
		frames = append(frames, frame)
	}
	return frames
}

func TestRun_InvalidMode(t *testing.T) {
	transport := newFakeTransport()
	session := NewSession(transport)

	result, err := session.Run("sleep", DefaultOptions())
	require.Error(t, err)

	var modeErr *InvalidModeError
	require.ErrorAs(t, err, &modeErr)
	assert.Equal(t, "sleep", modeErr.Mode)
	assert.Contains(t, err.Error(), "scan, measure, or locate_and_measure")
	assert.Empty(t, transport.writes, "invalid mode must not touch the transport")
	assert.Equal(t, "sleep", result.Mode)
}

func TestRun_MeasureSuccess(t *testing.T) {
	transport := newFakeTransport(bioFrame(0, 1, 1, 1240, 6900))
	session := NewSession(transport)

	opts := DefaultOptions()
	result, err := session.Run(ModeMeasure, opts)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.Status)
	require.NotNil(t, result.Measure)
	assert.True(t, result.Measure.Success)
	assert.Equal(t, 1, result.Measure.Attempts)
	require.NotNil(t, result.Measure.ValidBio)
	assert.Equal(t, 69.0, result.Measure.ValidBio.HeartRateBPM)
	assert.Equal(t, 12.4, result.Measure.ValidBio.BreathRateBPM)

	// Measure configures: ranging off, bio cadence. Automatic focus (-1)
	// sends no focus command.
	frames := decodeWrites(t, transport.writes)
	require.Len(t, frames, 2)
	assert.Equal(t, byte(mmwave.CmdSetRangingMode), frames[0].MsgType)
	assert.Equal(t, []byte{0}, frames[0].Payload)
	assert.Equal(t, byte(mmwave.CmdSetBioInterval), frames[1].MsgType)
	assert.Equal(t, uint16(0), frames[0].Seq)
	assert.Equal(t, uint16(1), frames[1].Seq)
}

func TestRun_MeasureStopsOnFirstQualifyingReading(t *testing.T) {
	// A non-qualifying reading first, then a qualifying one, then one that
	// must never be consumed.
	transport := newFakeTransport(
		bioFrame(0, 1, 1, 0xFFFF, 0xFFFF),
		bioFrame(1, 1, 1, 1180, 6500),
		bioFrame(2, 1, 1, 9999, 9999),
	)
	session := NewSession(transport)

	result, err := session.Run(ModeMeasure, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 2, result.Measure.Attempts)
	assert.Equal(t, 65.0, result.Measure.ValidBio.HeartRateBPM)
	assert.Equal(t, 11.8, result.Measure.ValidBio.BreathRateBPM)
	require.NotNil(t, result.Measure.LatestBio)
	assert.Len(t, result.Measure.BioMessages, 2)
}

func TestRun_ResyncAfterCorruptedFrame(t *testing.T) {
	good := bioFrame(1, 1, 1, 1240, 6900)
	transport := newFakeTransport(append(corruptFrame(t, bioFrame(0, 1, 1, 9900, 9900)), good...))
	session := NewSession(transport)

	result, err := session.Run(ModeMeasure, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 1, result.Measure.Attempts, "corrupted frame must be dropped, not counted")
	assert.Equal(t, 69.0, result.Measure.ValidBio.HeartRateBPM)
}

func TestRun_VersionGating(t *testing.T) {
	wrongVersion := reversionFrame(t, bioFrame(0, 1, 1, 9900, 9900), 2)
	good := bioFrame(1, 1, 1, 1240, 6900)
	transport := newFakeTransport(append(wrongVersion, good...))
	session := NewSession(transport)

	result, err := session.Run(ModeMeasure, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 1, result.Measure.Attempts, "unsupported version must not decode to an event")
	assert.Equal(t, 69.0, result.Measure.ValidBio.HeartRateBPM)
}

func TestRun_MeasureIgnoresUnrelatedEvents(t *testing.T) {
	lightPayload := make([]byte, 9)
	binary.LittleEndian.PutUint32(lightPayload[0:4], 100)
	lightPayload[4] = 1

	var stream []byte
	stream = append(stream, mmwave.BuildFrame(mmwave.EvtLight, lightPayload, 0)...)
	stream = append(stream, mmwave.BuildFrame(0x55, []byte{0xAA}, 1)...)
	stream = append(stream, stateFrame(2, 4)...)
	stream = append(stream, bioFrame(3, 1, 1, 1240, 6900)...)

	transport := newFakeTransport(stream)
	session := NewSession(transport)

	result, err := session.Run(ModeMeasure, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.Status)
	require.NotNil(t, result.Measure.State)
	assert.Equal(t, "STILL_NEAR", result.Measure.State.State)
	assert.Equal(t, 1, result.Measure.Attempts)
}

func TestRun_ScanFindsNearestTarget(t *testing.T) {
	// Radii 2.02 m (cluster 3) and 0.51 m (cluster 5): the nearer one wins.
	frame := targetsFrame(0, [4]int{3, 500, 1900, 2020}, [4]int{5, 100, 500, 510})
	transport := newFakeTransport(frame)
	movement := &recordingMovement{}
	session := NewSession(transport, WithMovement(movement))

	result, err := session.Run(ModeScan, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, StatusScanDone, result.Status)
	require.NotNil(t, result.Scan)
	assert.Equal(t, 1, result.Scan.TargetsSeen)
	require.NotNil(t, result.Scan.LatestTarget)
	assert.Equal(t, 5, result.Scan.LatestTarget.Cluster)
	assert.InDelta(t, 0.51, result.Scan.LatestTarget.R, 1e-9)
	assert.Len(t, result.Scan.Telemetry, 1)
	assert.Nil(t, result.Measure)

	// Sweep queued at scan start, cleared once a target was seen.
	assert.Len(t, movement.enqueued, 1)
	assert.Equal(t, 1, movement.cleared)

	frames := decodeWrites(t, transport.writes)
	require.Len(t, frames, 2)
	assert.Equal(t, byte(mmwave.CmdSetRangingMode), frames[0].MsgType)
	assert.Equal(t, []byte{1}, frames[0].Payload)
	assert.Equal(t, byte(mmwave.CmdSetTargetInterval), frames[1].MsgType)
	assert.Equal(t, uint16(DefaultTargetsMs), binary.LittleEndian.Uint16(frames[1].Payload))
}

func TestRun_LocateAndMeasureLocksFocus(t *testing.T) {
	var stream []byte
	stream = append(stream, targetsFrame(0, [4]int{7, 100, 500, 510})...)
	stream = append(stream, bioFrame(1, 1, 1, 1240, 6900)...)

	transport := &fakeTransport{reads: [][]byte{stream}, chunkLimit: 3, endErr: io.EOF}
	session := NewSession(transport)

	opts := DefaultOptions()
	result, err := session.Run(ModeLocateAndMeasure, opts)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.Status)
	require.NotNil(t, result.Scan)
	require.NotNil(t, result.Scan.LatestTarget)
	assert.Equal(t, 7, result.Scan.LatestTarget.Cluster)
	require.NotNil(t, result.Measure)
	assert.True(t, result.Measure.Success)

	// Scan: ranging on, targets cadence. Measure: focus locked to the
	// scanned cluster, ranging off, bio cadence.
	frames := decodeWrites(t, transport.writes)
	require.Len(t, frames, 5)
	assert.Equal(t, byte(mmwave.CmdSetRangingMode), frames[0].MsgType)
	assert.Equal(t, byte(mmwave.CmdSetTargetInterval), frames[1].MsgType)
	assert.Equal(t, byte(mmwave.CmdSetFocus), frames[2].MsgType)
	assert.Equal(t, int16(7), int16(binary.LittleEndian.Uint16(frames[2].Payload)))
	assert.Equal(t, byte(mmwave.CmdSetRangingMode), frames[3].MsgType)
	assert.Equal(t, []byte{0}, frames[3].Payload)
	assert.Equal(t, byte(mmwave.CmdSetBioInterval), frames[4].MsgType)

	for i, frame := range frames {
		assert.Equal(t, uint16(i), frame.Seq, "sequence numbers must increment per command")
	}
}

func TestRun_ScanRecordsSingleTargetSightings(t *testing.T) {
	var stream []byte
	stream = append(stream, targetsFrame(0, [4]int{2, 100, 850, 856})...)
	stream = append(stream, targetsFrame(1, [4]int{2, 100, 850, 856})...)
	stream = append(stream, stateFrame(2, 5)...)

	transport := newFakeTransport(stream)
	session := NewSession(transport)

	opts := DefaultOptions()
	opts.SweepIfUnseen = false
	result, err := session.Run(ModeScan, opts)
	require.NoError(t, err)

	require.NotNil(t, result.Scan)
	assert.Equal(t, 2, result.Scan.TargetsSeen)
	assert.Len(t, result.Scan.RecentTargets, 1, "identical sightings deduplicate")
	assert.Equal(t, "RESTING_VITALS", result.Scan.State)
}

func TestRun_SilentTransportInconclusive(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	transport := &fakeTransport{clock: clock, advance: 200 * time.Millisecond}
	session := NewSession(transport, WithClock(clock))

	result, err := session.Run(ModeMeasure, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, StatusMeasureInconclusive, result.Status)
	require.NotNil(t, result.Measure)
	assert.False(t, result.Measure.Success)
	assert.Equal(t, 0, result.Measure.Attempts)
}

func TestRun_ReadFailureIsTransportError(t *testing.T) {
	transport := &fakeTransport{endErr: errors.New("device unplugged")}
	session := NewSession(transport)

	result, err := session.Run(ModeMeasure, DefaultOptions())
	require.Error(t, err)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "read", terr.Op)
	assert.Contains(t, result.Error, "device unplugged")
	assert.NotNil(t, result.Measure, "partial report is returned alongside the error")
}

func TestRun_WriteFailureIsTransportError(t *testing.T) {
	transport := &fakeTransport{writeErr: errors.New("broken pipe")}
	session := NewSession(transport)

	result, err := session.Run(ModeScan, DefaultOptions())
	require.Error(t, err)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "write", terr.Op)
	assert.Equal(t, "", result.Status)
}

func TestSelectTarget(t *testing.T) {
	evt := mmwave.Targets{
		N: 2,
		List: []mmwave.Target{
			{Cluster: 3, R: 2.02},
			{Cluster: 5, R: 0.51},
		},
	}
	best := SelectTarget(evt)
	require.NotNil(t, best)
	assert.Equal(t, 5, best.Cluster)

	assert.Nil(t, SelectTarget(mmwave.Targets{N: 0}))
	assert.Nil(t, SelectTarget(mmwave.Targets{N: 3}))
}

func TestShortSweep_Choreography(t *testing.T) {
	steps := ShortSweep()
	require.Len(t, steps, 6)

	var total time.Duration
	for _, step := range steps {
		total += step.Duration
	}
	assert.Equal(t, 4*sweepMoveTime+2*sweepHoldTime, total)

	movement := NoopMovement{}
	assert.Equal(t, total, movement.Enqueue(steps))
}
