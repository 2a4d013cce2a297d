// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Algoryn

package cmd

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/vitals"
)

// readTimeout bounds every serial read so session deadlines stay
// responsive.
const readTimeout = 200 * time.Millisecond

// SerialConnection wraps a serial port as a session transport.
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// OpenSerialConnection opens the sensor's serial port with the short read
// timeout the acquisition loops depend on.
func OpenSerialConnection(portName string, baudRate int) (vitals.Transport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %v", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// openResolvedConnection resolves the port from flags/env/config/autodetect
// and opens it.
func openResolvedConnection() (vitals.Transport, string, error) {
	cfg, err := loadFileConfig()
	if err != nil {
		return nil, "", err
	}
	port, err := resolveSerialPort(cfg)
	if err != nil {
		return nil, "", err
	}
	baud := resolveBaudRate(cfg)

	conn, err := OpenSerialConnection(port, baud)
	if err != nil {
		return nil, "", err
	}
	return conn, fmt.Sprintf("%s @ %d baud", port, baud), nil
}
