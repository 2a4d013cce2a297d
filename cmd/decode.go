// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Algoryn

package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/jsonline"
	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/mmwave"
)

var (
	decodeInputFile    string
	decodeFormat       string
	decodeShowBadFrame bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode mmWave protocol frames from serial or a capture file",
	Long: `Continuously decode mmWave protocol frames and print one event per line.

Reads from the serial port by default, or from a capture file with
--input-file. Capture files may contain raw bytes, hex dump text, or
JSON-line monitor logs; the format is sniffed automatically.

Bad frames (framing, CRC, length) are dropped silently unless
--show-bad-frames is set, in which case the reason is printed to stderr.`,
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVar(&decodeInputFile, "input-file", "", "Capture file (raw bytes, hex dump, or JSON-line log)")
	decodeCmd.Flags().StringVar(&decodeFormat, "format", "pretty", "Output format: pretty or json")
	decodeCmd.Flags().BoolVar(&decodeShowBadFrame, "show-bad-frames", false, "Print decode errors to stderr")
}

func runDecode(cmd *cobra.Command, args []string) error {
	if decodeFormat != "pretty" && decodeFormat != "json" {
		return fmt.Errorf("invalid format %q, use pretty or json", decodeFormat)
	}

	if decodeInputFile != "" {
		return decodeFile(decodeInputFile)
	}

	conn, connInfo, err := openResolvedConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info().Str("connection", connInfo).Msg("decoding live telemetry")

	var buffer []byte
	chunk := make([]byte, 256)
	for {
		n, err := conn.Read(chunk)
		if err != nil {
			return fmt.Errorf("serial read: %v", err)
		}
		if n == 0 {
			continue
		}
		consumeDecodeBytes(&buffer, chunk[:n])
	}
}

func decodeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if looksLikeJSONLines(raw) {
		return decodeJSONLines(raw)
	}
	if looksLikeHexDump(raw) {
		raw = parseHexDump(raw)
	}

	var buffer []byte
	consumeDecodeBytes(&buffer, raw)
	return nil
}

// decodeJSONLines handles serial-monitor logs of the textual telemetry
// format, one JSON object per line with optional monitor prefixes.
func decodeJSONLines(raw []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		evt, ok := jsonline.ParseLine(scanner.Text())
		if !ok {
			if decodeShowBadFrame {
				fmt.Fprintf(os.Stderr, "[bad-line] %s\n", scanner.Text())
			}
			continue
		}
		emitEvent(os.Stdout, &mmwave.Frame{Version: mmwave.ProtoVersion}, evt)
	}
	return scanner.Err()
}

// consumeDecodeBytes feeds bytes through extraction and prints every event
// that survives parsing, version gating, and decoding.
func consumeDecodeBytes(buffer *[]byte, data []byte) {
	*buffer = append(*buffer, data...)
	for _, encoded := range mmwave.ExtractFrames(buffer) {
		frame, err := mmwave.ParseFrame(encoded)
		if err != nil {
			if decodeShowBadFrame {
				fmt.Fprintf(os.Stderr, "[bad-frame] %v\n", err)
			}
			continue
		}
		if frame.Version != mmwave.ProtoVersion {
			if decodeShowBadFrame {
				fmt.Fprintf(os.Stderr, "[bad-frame] unsupported version %d\n", frame.Version)
			}
			continue
		}
		evt, err := mmwave.DecodeEvent(frame.MsgType, frame.Payload)
		if err != nil {
			if decodeShowBadFrame {
				fmt.Fprintf(os.Stderr, "[bad-frame] %v\n", err)
			}
			continue
		}
		emitEvent(os.Stdout, frame, evt)
	}
}

func emitEvent(w io.Writer, frame *mmwave.Frame, evt mmwave.Event) {
	if decodeFormat == "json" {
		record := struct {
			Seq     uint16       `json:"seq"`
			MsgType byte         `json:"msg_type"`
			Type    string       `json:"type"`
			Event   mmwave.Event `json:"event"`
		}{frame.Seq, frame.MsgType, evt.Kind(), evt}
		line, err := json.Marshal(record)
		if err != nil {
			return
		}
		fmt.Fprintln(w, string(line))
		return
	}
	fmt.Fprintln(w, mmwave.FormatEvent(frame.Seq, evt))
}

var hexTokenRe = regexp.MustCompile(`[0-9A-Fa-f]{2}`)

// looksLikeJSONLines sniffs for textual telemetry: the first non-blank line
// either starts with a JSON object or carries a monitor "-> {" prefix.
func looksLikeJSONLines(raw []byte) bool {
	for _, line := range bytes.Split(raw, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		return trimmed[0] == '{' || bytes.Contains(trimmed, []byte("-> {"))
	}
	return false
}

// looksLikeHexDump sniffs whether a capture file is hex dump text rather
// than raw frame bytes. Raw captures always contain delimiter zero bytes;
// hex text never does.
func looksLikeHexDump(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	for _, b := range raw {
		if b == 0x00 {
			return false
		}
	}
	tokens := hexTokenRe.FindAll(raw, -1)
	fields := len(strings.Fields(string(raw)))
	threshold := 8
	if fields/2 > threshold {
		threshold = fields / 2
	}
	return len(tokens) >= threshold
}

func parseHexDump(raw []byte) []byte {
	tokens := hexTokenRe.FindAll(raw, -1)
	out := make([]byte, 0, len(tokens))
	for _, token := range tokens {
		v, _ := strconv.ParseUint(string(token), 16, 8)
		out = append(out, byte(v))
	}
	return out
}
