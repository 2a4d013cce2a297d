// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Algoryn

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/vitals"
)

var (
	sessionDuration        float64
	sessionMeasureDuration float64
	sessionFocusCluster    int
	sessionNoSweep         bool
	sessionTargetsMs       int
	sessionBioMs           int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for people with targets telemetry",
	Long: `Enable ranging mode and collect target telemetry for the scan duration.

Reports every target sighting plus the nearest target seen, without
starting a measurement.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(vitals.ModeScan)
	},
}

var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Measure heart/breath rates now",
	Long: `Collect bio telemetry until a qualifying reading arrives or the time
budget runs out.

A reading qualifies when the firmware reports it allowed and valid with
both rates present. Use --focus-cluster to pin measurement to a known
target.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(vitals.ModeMeasure)
	},
}

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Locate the nearest person, then measure heart/breath rates",
	Long: `Scan until a target is found, lock measurement onto its cluster, then
collect bio telemetry until a qualifying reading arrives.

This is the full acquisition pipeline: scan ends early on the first
sighting, and measurement ends early on the first qualifying reading.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(vitals.ModeLocateAndMeasure)
	},
}

func init() {
	for _, c := range []*cobra.Command{scanCmd, measureCmd, locateCmd} {
		c.Flags().Float64Var(&sessionDuration, "duration", 0, "Phase duration in seconds (0 for default)")
		c.Flags().IntVar(&sessionFocusCluster, "focus-cluster", -1, "Measure a specific target cluster, -1 for auto")
		c.Flags().IntVar(&sessionTargetsMs, "targets-ms", vitals.DefaultTargetsMs, "Target telemetry period (ms)")
		c.Flags().IntVar(&sessionBioMs, "bio-ms", vitals.DefaultBioMs, "Bio telemetry period (ms)")
	}
	for _, c := range []*cobra.Command{scanCmd, locateCmd} {
		c.Flags().BoolVar(&sessionNoSweep, "no-sweep", false, "Skip the attention sweep cue")
	}
	locateCmd.Flags().Float64Var(&sessionMeasureDuration, "measure-duration", 0, "Measure phase duration in seconds (0 for default)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(measureCmd)
	rootCmd.AddCommand(locateCmd)
}

func sessionOptions(mode string) vitals.Options {
	opts := vitals.DefaultOptions()
	opts.SweepIfUnseen = !sessionNoSweep
	opts.FocusCluster = int16(sessionFocusCluster)
	opts.TargetsMs = uint16(sessionTargetsMs)
	opts.BioMs = uint16(sessionBioMs)

	duration := time.Duration(sessionDuration * float64(time.Second))
	switch mode {
	case vitals.ModeScan:
		if duration > 0 {
			opts.ScanDuration = duration
		}
	case vitals.ModeMeasure:
		// In pure measure mode --duration budgets the measurement itself.
		if duration > 0 {
			opts.MeasureDuration = duration
		}
	case vitals.ModeLocateAndMeasure:
		if duration > 0 {
			opts.ScanDuration = duration
		}
		if md := time.Duration(sessionMeasureDuration * float64(time.Second)); md > 0 {
			opts.MeasureDuration = md
		}
	}
	return opts
}

func runSession(mode string) error {
	conn, connInfo, err := openResolvedConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info().Str("connection", connInfo).Str("mode", mode).Msg("starting session")

	session := vitals.NewSession(conn, vitals.WithLogger(logger))
	result, err := session.Run(mode, sessionOptions(mode))

	// The result carries partial telemetry even on transport failure, so it
	// is printed before deciding the exit status.
	line, jsonErr := json.MarshalIndent(result, "", "  ")
	if jsonErr != nil {
		return jsonErr
	}
	fmt.Println(string(line))

	var terr *vitals.TransportError
	if errors.As(err, &terr) {
		fmt.Fprintf(os.Stderr, "transport failure: %v\n", terr)
		os.Exit(2)
	}
	return err
}
