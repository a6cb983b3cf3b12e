// Package stage implements the tournament pipeline stages driven by the
// function invoker: validator, matchmaker, scheduler, statistics, historian,
// announcer, and notifier.
//
// The pure stages (validator, matchmaker, scheduler, statistics) transform a
// payload and return a new one. The side-effecting stages (historian,
// announcer, notifier) write to the file substrate or an outbound channel and
// return a status tag. Every stage implements invoker.Function, so the
// invoker stays agnostic to which stage it drives.
package stage

import (
	"encoding/json"
	"fmt"
	"sort"

	"tatami-backend/internal/substrate/invoker"
)

// Registry holds the known stages by name.
type Registry struct {
	stages map[string]invoker.Function
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]invoker.Function)}
}

// Register adds a stage. Registering the same name twice is a programming
// error and panics.
func (r *Registry) Register(fn invoker.Function) {
	if _, exists := r.stages[fn.Name()]; exists {
		panic(fmt.Sprintf("stage %q registered twice", fn.Name()))
	}
	r.stages[fn.Name()] = fn
}

// Get returns the stage with the given name.
func (r *Registry) Get(name string) (invoker.Function, bool) {
	fn, ok := r.stages[name]
	return fn, ok
}

// Names returns the registered stage names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stages))
	for name := range r.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decodePayload converts a payload into a typed value via JSON round-trip.
// Payloads originate from JSON request bodies and queue files, so the
// round-trip is lossless for the shapes the stages exchange.
func decodePayload(payload invoker.Payload, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// encodePayload converts a typed value into a payload via JSON round-trip.
func encodePayload(v any) (invoker.Payload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var payload invoker.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode into payload: %w", err)
	}
	return payload, nil
}
