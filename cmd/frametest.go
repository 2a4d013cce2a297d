// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Algoryn

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/mmwave"
)

var frameTestTimeout int

var frameTestCmd = &cobra.Command{
	Use:   "frametest",
	Short: "Test connection by waiting for a valid frame",
	Long: `Wait for one valid frame on the serial port until timeout.

Bytes that fail framing or CRC checks are skipped and counted; the first
frame that parses cleanly ends the wait.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for checking that the sensor is attached and talking.`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := openResolvedConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("mmWave - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for a valid frame...\n\n")

	frameChan := make(chan *mmwave.Frame, 1)
	errChan := make(chan error, 1)

	go func() {
		var buffer []byte
		chunk := make([]byte, 256)
		skipped := 0
		for {
			n, err := conn.Read(chunk)
			if err != nil {
				errChan <- err
				return
			}

			buffer = append(buffer, chunk[:n]...)
			for _, encoded := range mmwave.ExtractFrames(&buffer) {
				frame, err := mmwave.ParseFrame(encoded)
				if err != nil {
					skipped += len(encoded)
					continue
				}
				if skipped > 0 {
					fmt.Printf("(skipped %d invalid bytes before sync)\n", skipped)
				}
				frameChan <- frame
				return
			}
		}
	}()

	select {
	case frame := <-frameChan:
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Type: %s (0x%02X)\n", mmwave.FormatMessageType(frame.MsgType), frame.MsgType)
		fmt.Printf("  Version: %d\n", frame.Version)
		fmt.Printf("  Seq: %d\n", frame.Seq)
		fmt.Printf("  Payload: %d bytes\n", len(frame.Payload))
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(frameTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", frameTestTimeout)
		os.Exit(1)
	}

	return nil
}
