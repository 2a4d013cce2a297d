// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

package vitals

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/mmwave"
	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/tools"
)

func TestTool_MeasureThroughRegistry(t *testing.T) {
	transport := newFakeTransport(bioFrame(1, 1, 1, 1240, 6900))
	tool := NewTool(func() (Transport, error) { return transport, nil })

	reg, err := tools.NewRegistry([]tools.Tool{tool})
	require.NoError(t, err)

	registered, ok := reg.Lookup(ToolName)
	require.True(t, ok)

	out, err := registered.Call(json.RawMessage(`{"mode": "measure"}`))
	require.NoError(t, err)

	result, ok := out.(Result)
	require.True(t, ok)
	assert.Equal(t, StatusOK, result.Status)
	require.NotNil(t, result.Measure.LatestBio)
	assert.InDelta(t, 69.0, *result.Measure.LatestBio.HR, 1e-9)
	assert.InDelta(t, 12.4, *result.Measure.LatestBio.BR, 1e-9)
}

func TestTool_DefaultsToLocateAndMeasure(t *testing.T) {
	transport := newFakeTransport(bioFrame(1, 1, 1, 1240, 6900))
	tool := NewTool(func() (Transport, error) { return transport, nil })

	out, err := tool.Call(nil)
	require.NoError(t, err)

	result := out.(Result)
	assert.Equal(t, ModeLocateAndMeasure, result.Mode)
}

func TestTool_ParamOverrides(t *testing.T) {
	transport := newFakeTransport()
	tool := NewTool(func() (Transport, error) { return transport, nil })

	out, err := tool.Call(json.RawMessage(
		`{"mode": "scan", "duration_s": 2, "focus_cluster": 7, "sweep_if_unseen": false}`))
	require.NoError(t, err)

	result := out.(Result)
	assert.Equal(t, StatusScanDone, result.Status)

	// focus_cluster propagates as a configure command before scanning.
	var sawFocus bool
	for _, frame := range decodeWrites(t, transport.writes) {
		if frame.MsgType == mmwave.CmdSetFocus {
			sawFocus = true
		}
	}
	assert.True(t, sawFocus)
}

func TestTool_InvalidParamsAndMode(t *testing.T) {
	tool := NewTool(func() (Transport, error) { return newFakeTransport(), nil })

	_, err := tool.Call(json.RawMessage(`{"mode": 42}`))
	assert.Error(t, err)

	_, err = tool.Call(json.RawMessage(`{"mode": "hover"}`))
	var modeErr *InvalidModeError
	assert.ErrorAs(t, err, &modeErr)
}

func TestTool_OpenFailure(t *testing.T) {
	tool := NewTool(func() (Transport, error) { return nil, errors.New("no such port") })

	_, err := tool.Call(nil)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "open", terr.Op)
}
