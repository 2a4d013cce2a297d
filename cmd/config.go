// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Algoryn

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// fileConfig maps config.toml keys to runtime settings.
type fileConfig struct {
	Port      string `toml:"port"`
	Baud      int    `toml:"baud"`
	TargetsMs int    `toml:"targets_ms"`
	BioMs     int    `toml:"bio_ms"`
}

// loadFileConfig reads the --config file when one was given. A missing flag
// is not an error; a named file that fails to parse is.
func loadFileConfig() (fileConfig, error) {
	var cfg fileConfig
	if configPath == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(configPath, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", configPath, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys: %s", configPath, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// serialPortGlobs are the autodetection patterns, in preference order
// matching the platforms the sensor ships on.
var serialPortGlobs = []string{
	"/dev/cu.usbmodem*",
	"/dev/tty.usbmodem*",
	"/dev/ttyUSB*",
	"/dev/ttyACM*",
}

// resolveSerialPort picks the serial device: --port flag, then the
// MMWAVE_SERIAL_PORT environment variable, then the config file, then the
// first autodetected USB serial device.
func resolveSerialPort(cfg fileConfig) (string, error) {
	if portName != "" {
		return portName, nil
	}
	if envPort := os.Getenv("MMWAVE_SERIAL_PORT"); envPort != "" {
		return envPort, nil
	}
	if cfg.Port != "" {
		return cfg.Port, nil
	}

	var candidates []string
	for _, pattern := range serialPortGlobs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		candidates = append(candidates, matches...)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no mmWave serial port found, set --port or MMWAVE_SERIAL_PORT")
	}
	sort.Strings(candidates)
	return candidates[0], nil
}

func resolveBaudRate(cfg fileConfig) int {
	if baudRate != 115200 {
		return baudRate
	}
	if cfg.Baud > 0 {
		return cfg.Baud
	}
	return baudRate
}
