// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Algoryn

// Package tools holds the static registry of agent-callable tools. The
// registry is built exactly once from an explicit list at process startup
// and is immutable afterwards; there is no global table and no runtime
// discovery of implementations.
package tools

import (
	"encoding/json"
	"fmt"
)

// Tool is one callable capability exposed to a function-calling agent
// layer. Schema is a JSON Schema document describing the Call parameters.
type Tool struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Call        func(params json.RawMessage) (any, error)
}

// Spec returns the function-calling spec consumed by an LLM agent layer.
func (t Tool) Spec() map[string]any {
	return map[string]any{
		"type":        "function",
		"name":        t.Name,
		"description": t.Description,
		"parameters":  t.Schema,
	}
}

// Registry maps tool names to implementations. Lookups preserve nothing
// mutable; Names returns registration order.
type Registry struct {
	order  []string
	byName map[string]Tool
}

// NewRegistry builds a registry from an explicit tool list. Every tool
// needs a name and a Call function, and names must be unique.
func NewRegistry(list []Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(list))}
	for _, t := range list {
		if t.Name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if t.Call == nil {
			return nil, fmt.Errorf("tool %q has no call function", t.Name)
		}
		if _, dup := r.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name)
		}
		r.byName[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Specs returns every tool's function-calling spec in registration order.
func (r *Registry) Specs() []map[string]any {
	specs := make([]map[string]any, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.byName[name].Spec())
	}
	return specs
}
