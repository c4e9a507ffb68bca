// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import (
	"context"
	"sync/atomic"
)

// Body is the behavior a Handler runs once its Pattern matches and its
// captures are bound into the run's Context. A Body returning
// ErrHaltSequence stops the enclosing WorkSequence without failing it; any
// other non-nil error fails the dispatch and is reported to the failure
// pipeline as an ExceptionEvent.
type Body interface {
	Run(rc *RunContext) error
}

// BodyFunc adapts a plain function to Body.
type BodyFunc func(rc *RunContext) error

// Run implements Body.
func (f BodyFunc) Run(rc *RunContext) error { return f(rc) }

// handlerIDCounter assigns the id shown in "list on" output and used for
// Registry.UnregisterByID / "del on ID".
var handlerIDCounter uint64

// Handler binds a Pattern to a Body plus the metadata the statement runtime
// and the Worker Registry need: dispatch priority, optional display name,
// optional documentation string, and whether it consumes failure-pipeline
// events (spec.md §4.C, §4.E).
type Handler struct {
	ID   uint64
	Name string
	Doc  string
	Prio int

	Pattern Pattern
	Body    Body

	// ErrorConsumer marks a handler registered to receive ExceptionEvents
	// from the failure pipeline (its pattern is expected to start with the
	// literal "error").
	ErrorConsumer bool

	sequence uint64
}

// NewHandler allocates a Handler with a fresh id and Prio defaulted to the
// midpoint of the ordinary range, matching the original's unset-priority
// default.
func NewHandler(pattern Pattern, body Body) *Handler {
	return &Handler{
		ID:      atomic.AddUint64(&handlerIDCounter, 1),
		Prio:    (MinPrio + MaxPrio) / 2,
		Pattern: pattern,
		Body:    body,
	}
}

// Matches reports whether tokens satisfy h's pattern.
func (h *Handler) Matches(tokens []string) bool {
	return h.Pattern.Matches(tokens)
}
