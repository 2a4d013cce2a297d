// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

// Package capture reads and writes sensor traffic capture files.
//
// A capture file is a stream of CBOR records, one per validated frame, in
// arrival order. Records store the raw envelope rather than decoded events,
// so captures survive decoder changes and can replay unknown message types.
package capture

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Record is one captured frame.
type Record struct {
	T       time.Time `cbor:"t"`
	MsgType byte      `cbor:"msg_type"`
	Seq     uint16    `cbor:"seq"`
	Payload []byte    `cbor:"payload"`
}

// Writer appends records to a capture stream.
type Writer struct {
	enc *cbor.Encoder
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w)}
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode capture record: %w", err)
	}
	return nil
}

// Reader iterates records from a capture stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("decode capture record: %w", err)
	}
	return rec, nil
}
