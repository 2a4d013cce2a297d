// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Algoryn
//
// mmwavectl - Reachy mmWave sensor host tool
//
// A CLI tool for decoding mmWave presence/vitals telemetry and running
// heart/breath rate acquisition sessions.

package main

import (
	"os"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
