// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Algoryn

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/tools"
	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/vitals"
)

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Inspect and invoke agent tools",
	Long: `Work with the agent tool registry.

Tools are the function-calling surface an agent layer sees. The registry is
a fixed table built at startup; 'tool list' prints the function specs and
'tool call' invokes one with JSON parameters.`,
}

var toolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tools with their function specs",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := buildToolRegistry()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(reg.Specs(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var toolCallCmd = &cobra.Command{
	Use:   "call <name> [params-json]",
	Short: "Invoke a registered tool",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := buildToolRegistry()
		if err != nil {
			return err
		}
		tool, ok := reg.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown tool %q, available: %v", args[0], reg.Names())
		}

		var params json.RawMessage
		if len(args) == 2 {
			params = json.RawMessage(args[1])
		}

		result, err := tool.Call(params)
		if result != nil {
			out, marshalErr := json.MarshalIndent(result, "", "  ")
			if marshalErr != nil {
				return marshalErr
			}
			fmt.Println(string(out))
		}
		return err
	},
}

func init() {
	toolCmd.AddCommand(toolListCmd)
	toolCmd.AddCommand(toolCallCmd)
	rootCmd.AddCommand(toolCmd)
}

// buildToolRegistry assembles the process's tool table. New tools are added
// here and nowhere else.
func buildToolRegistry() (*tools.Registry, error) {
	return tools.NewRegistry([]tools.Tool{
		vitals.NewTool(func() (vitals.Transport, error) {
			conn, _, err := openResolvedConnection()
			return conn, err
		}, vitals.WithLogger(logger)),
	})
}
