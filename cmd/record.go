// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Algoryn

package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/capture"
	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/mmwave"
)

var (
	recordOutput string
	replayPaced  bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record validated frames to a capture file",
	Long: `Read live telemetry and append every validated frame to a CBOR capture
file.

Frames failing CRC or length checks are dropped, matching what a live
decoder would accept. Stop with Ctrl+C; the file is valid at any cut
point since records are self-delimiting.`,
	RunE: runRecord,
}

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Replay a capture file through the event decoder",
	Long: `Decode a CBOR capture file and print its events like the decode command.

By default records replay as fast as they decode; --paced restores the
original inter-record timing.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(replayCmd)
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "mmwave.capture", "Capture file path")
	replayCmd.Flags().BoolVar(&replayPaced, "paced", false, "Replay with original inter-record timing")
	replayCmd.Flags().StringVar(&decodeFormat, "format", "pretty", "Output format: pretty or json")
}

func runRecord(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := openResolvedConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	out, err := os.Create(recordOutput)
	if err != nil {
		return err
	}
	defer out.Close()

	logger.Info().Str("connection", connInfo).Str("output", recordOutput).Msg("recording")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	writer := capture.NewWriter(out)
	var buffer []byte
	chunk := make([]byte, 256)
	recorded := 0

	for {
		select {
		case <-stop:
			logger.Info().Int("frames", recorded).Msg("recording stopped")
			return nil
		default:
		}

		n, err := conn.Read(chunk)
		if err != nil {
			return fmt.Errorf("serial read: %v", err)
		}
		if n == 0 {
			continue
		}

		buffer = append(buffer, chunk[:n]...)
		for _, encoded := range mmwave.ExtractFrames(&buffer) {
			frame, err := mmwave.ParseFrame(encoded)
			if err != nil {
				logger.Debug().Err(err).Msg("dropping bad frame")
				continue
			}
			rec := capture.Record{
				T:       time.Now(),
				MsgType: frame.MsgType,
				Seq:     frame.Seq,
				Payload: frame.Payload,
			}
			if err := writer.Write(rec); err != nil {
				return err
			}
			recorded++
		}
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	if decodeFormat != "pretty" && decodeFormat != "json" {
		return fmt.Errorf("invalid format %q, use pretty or json", decodeFormat)
	}

	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	reader := capture.NewReader(in)
	var lastT time.Time

	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if replayPaced && !lastT.IsZero() {
			if gap := rec.T.Sub(lastT); gap > 0 {
				time.Sleep(gap)
			}
		}
		lastT = rec.T

		evt, err := mmwave.DecodeEvent(rec.MsgType, rec.Payload)
		if err != nil {
			logger.Debug().Err(err).Msg("dropping bad event")
			continue
		}
		emitEvent(os.Stdout, &mmwave.Frame{
			Version: mmwave.ProtoVersion,
			MsgType: rec.MsgType,
			Seq:     rec.Seq,
			Payload: rec.Payload,
		}, evt)
	}
}
