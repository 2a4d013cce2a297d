// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

// Package vitals orchestrates heart/breath rate acquisition sessions against
// the mmWave sensor: configure the device, scan for a person, optionally
// lock measurement onto the nearest target, and collect bio readings until
// one qualifies or the time budget runs out.
package vitals

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/internal/timeutil"
	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/mmwave"
)

// Session defaults
const (
	DefaultScanDuration    = 8 * time.Second
	DefaultMeasureDuration = 15 * time.Second
	DefaultTargetsMs       = 250
	DefaultBioMs           = 1000

	// minPhaseDuration floors requested budgets so a zero or absurdly small
	// duration still gives the device a chance to answer.
	minPhaseDuration = 500 * time.Millisecond

	readChunkSize = 256
)

// errStreamEnded marks an exhausted replay transport. The current phase ends
// with whatever was accumulated; it is not a transport failure.
var errStreamEnded = errors.New("stream ended")

// Options tunes one session. Zero durations and intervals fall back to the
// defaults; FocusCluster must be -1 for automatic focus, since 0 is a real
// cluster id.
type Options struct {
	// ScanDuration bounds the scan phase (scan, locate_and_measure).
	ScanDuration time.Duration

	// MeasureDuration bounds the measure phase (measure, locate_and_measure).
	MeasureDuration time.Duration

	// FocusCluster pins measurement to a cluster id, or -1 for automatic.
	FocusCluster int16

	// SweepIfUnseen queues the attention sweep at scan start.
	SweepIfUnseen bool

	// TargetsMs is the target list telemetry period in milliseconds.
	TargetsMs uint16

	// BioMs is the bio telemetry period in milliseconds.
	BioMs uint16
}

// DefaultOptions returns the options used when the caller has no opinion:
// automatic focus, sweep enabled, default budgets and cadences.
func DefaultOptions() Options {
	return Options{
		ScanDuration:    DefaultScanDuration,
		MeasureDuration: DefaultMeasureDuration,
		FocusCluster:    -1,
		SweepIfUnseen:   true,
		TargetsMs:       DefaultTargetsMs,
		BioMs:           DefaultBioMs,
	}
}

func (o Options) withDefaults() Options {
	if o.ScanDuration <= 0 {
		o.ScanDuration = DefaultScanDuration
	}
	if o.MeasureDuration <= 0 {
		o.MeasureDuration = DefaultMeasureDuration
	}
	if o.TargetsMs == 0 {
		o.TargetsMs = DefaultTargetsMs
	}
	if o.BioMs == 0 {
		o.BioMs = DefaultBioMs
	}
	return o
}

// Session runs acquisition against one exclusively-owned transport. A
// Session is single-use per invocation of Run and not safe for concurrent
// use.
type Session struct {
	transport Transport
	movement  MovementQueue
	clock     timeutil.Clock
	log       zerolog.Logger

	seq   uint16
	rxBuf []byte
	eof   bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithMovement sets the movement collaborator used for the attention sweep.
func WithMovement(m MovementQueue) SessionOption {
	return func(s *Session) { s.movement = m }
}

// WithClock sets the clock used for deadlines.
func WithClock(c timeutil.Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithLogger sets the session logger.
func WithLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// NewSession creates a session over the given transport. Without options it
// uses the real clock, no movement, and no logging.
func NewSession(transport Transport, opts ...SessionOption) *Session {
	s := &Session{
		transport: transport,
		movement:  NoopMovement{},
		clock:     timeutil.RealClock{},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one acquisition session. The returned Result always carries
// whatever was accumulated, including when the error is non-nil; errors are
// *InvalidModeError or *TransportError.
func (s *Session) Run(mode string, opts Options) (Result, error) {
	switch mode {
	case ModeScan, ModeMeasure, ModeLocateAndMeasure:
	default:
		err := &InvalidModeError{Mode: mode}
		return Result{Mode: mode, Error: err.Error()}, err
	}

	opts = opts.withDefaults()
	result := Result{Mode: mode}
	focus := opts.FocusCluster

	s.log.Info().
		Str("mode", mode).
		Int("focus_cluster", int(focus)).
		Dur("scan_duration", opts.ScanDuration).
		Dur("measure_duration", opts.MeasureDuration).
		Msg("session started")

	if mode == ModeScan || mode == ModeLocateAndMeasure {
		scan, err := s.scan(scanParams{
			duration:      opts.ScanDuration,
			sweep:         opts.SweepIfUnseen,
			focus:         focus,
			targetsMs:     opts.TargetsMs,
			stopWhenFound: mode == ModeLocateAndMeasure,
		})
		result.Scan = scan
		if err != nil {
			result.Error = err.Error()
			return result, err
		}
	}

	if mode == ModeScan {
		result.Status = StatusScanDone
		return result, nil
	}

	// Lock measurement onto the scanned target when one was found.
	if mode == ModeLocateAndMeasure && result.Scan != nil && result.Scan.LatestTarget != nil {
		focus = int16(result.Scan.LatestTarget.Cluster)
		s.log.Debug().Int("cluster", int(focus)).Msg("focus locked from scan")
	}

	measure, err := s.measure(focus, opts.MeasureDuration, opts.BioMs)
	result.Measure = measure
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	if measure.Success {
		result.Status = StatusOK
	} else {
		result.Status = StatusMeasureInconclusive
	}
	return result, nil
}

type scanParams struct {
	duration      time.Duration
	sweep         bool
	focus         int16
	targetsMs     uint16
	stopWhenFound bool
}

func (s *Session) scan(p scanParams) (*ScanReport, error) {
	report := &ScanReport{}
	deadline := s.clock.Now().Add(maxDuration(minPhaseDuration, p.duration))

	if p.sweep {
		total := s.movement.Enqueue(ShortSweep())
		s.log.Debug().Dur("duration", total).Msg("attention sweep queued")
	}

	if err := s.send(mmwave.NewSetRangingModeCommand(true, s.nextSeq())); err != nil {
		return report, err
	}
	if err := s.send(mmwave.NewSetTargetIntervalCommand(p.targetsMs, s.nextSeq())); err != nil {
		return report, err
	}
	if p.focus >= 0 {
		if err := s.send(mmwave.NewSetFocusCommand(p.focus, s.nextSeq())); err != nil {
			return report, err
		}
	}

	for s.clock.Now().Before(deadline) {
		events, err := s.poll()
		if err == errStreamEnded {
			break
		}
		if err != nil {
			return report, err
		}

		for _, evt := range events {
			switch e := evt.(type) {
			case mmwave.Targets:
				report.Telemetry = append(report.Telemetry, e)
				report.TargetsSeen++

				best := SelectTarget(e)
				if best == nil {
					continue
				}
				report.LatestTarget = best
				if p.sweep {
					// A found target ends the attention sweep.
					s.movement.Clear()
				}
				if e.N == 1 {
					// A lone target is a high-confidence sighting.
					report.RecentTargets = appendUniqueTarget(report.RecentTargets, *best)
				}
				if p.stopWhenFound {
					s.log.Info().Int("cluster", best.Cluster).Msg("target found, ending scan early")
					return report, nil
				}
			case mmwave.State:
				report.State = e.State
			}
		}
	}
	return report, nil
}

func (s *Session) measure(focus int16, duration time.Duration, bioMs uint16) (*MeasureReport, error) {
	report := &MeasureReport{}

	if focus >= 0 {
		if err := s.send(mmwave.NewSetFocusCommand(focus, s.nextSeq())); err != nil {
			return report, err
		}
	}
	if err := s.send(mmwave.NewSetRangingModeCommand(false, s.nextSeq())); err != nil {
		return report, err
	}
	if err := s.send(mmwave.NewSetBioIntervalCommand(bioMs, s.nextSeq())); err != nil {
		return report, err
	}

	deadline := s.clock.Now().Add(maxDuration(minPhaseDuration, duration))
	for s.clock.Now().Before(deadline) {
		events, err := s.poll()
		if err == errStreamEnded {
			break
		}
		if err != nil {
			return report, err
		}

		for _, evt := range events {
			switch e := evt.(type) {
			case mmwave.State:
				state := e
				report.State = &state
			case mmwave.Bio:
				bio := e
				report.Attempts++
				report.LatestBio = &bio
				report.BioMessages = append(report.BioMessages, bio)

				if bio.Allowed != 0 && bio.Valid != 0 && bio.BR != nil && bio.HR != nil {
					report.Success = true
					report.ValidBio = &Reading{
						HeartRateBPM:  *bio.HR,
						BreathRateBPM: *bio.BR,
						HRNew:         bio.HRNew,
						BRNew:         bio.BRNew,
					}
					s.log.Info().
						Float64("hr", *bio.HR).
						Float64("br", *bio.BR).
						Msg("qualifying bio reading")
					return report, nil
				}
			}
		}
	}
	return report, nil
}

// poll reads one chunk from the transport and decodes every completed frame
// in the receive buffer. Frames that fail parsing, carry an unsupported
// version, or decode to a malformed event are dropped and logged; reading
// continues on the bytes after their delimiter.
func (s *Session) poll() ([]mmwave.Event, error) {
	if s.eof {
		return nil, errStreamEnded
	}

	chunk := make([]byte, readChunkSize)
	n, err := s.transport.Read(chunk)
	if err == io.EOF {
		s.eof = true
		if n == 0 {
			return nil, errStreamEnded
		}
	} else if err != nil {
		return nil, &TransportError{Op: "read", Err: err}
	}
	if n == 0 {
		return nil, nil
	}

	s.rxBuf = append(s.rxBuf, chunk[:n]...)

	var events []mmwave.Event
	for _, encoded := range mmwave.ExtractFrames(&s.rxBuf) {
		frame, err := mmwave.ParseFrame(encoded)
		if err != nil {
			s.log.Debug().Err(err).Msg("dropping bad frame")
			continue
		}
		if frame.Version != mmwave.ProtoVersion {
			s.log.Debug().Uint8("version", frame.Version).Msg("dropping unsupported version")
			continue
		}
		evt, err := mmwave.DecodeEvent(frame.MsgType, frame.Payload)
		if err != nil {
			s.log.Debug().Err(err).Msg("dropping bad event")
			continue
		}
		events = append(events, evt)
	}
	return events, nil
}

func (s *Session) send(frame []byte) error {
	if _, err := s.transport.Write(frame); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// nextSeq returns the current sequence number and advances it, wrapping at
// the 16-bit boundary.
func (s *Session) nextSeq() uint16 {
	v := s.seq
	s.seq++
	return v
}

func appendUniqueTarget(list []mmwave.Target, target mmwave.Target) []mmwave.Target {
	for _, existing := range list {
		if existing == target {
			return list
		}
	}
	return append(list, target)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
