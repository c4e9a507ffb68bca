// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import "context"

// RunContext is threaded into every Handler.Body invocation. It carries the
// cancellation signal for the enclosing WorkSequence, the variable bindings
// captured by pattern matching (and anything a Block/Try/On statement adds
// as it runs), and a reference to the Runtime so a Body can register new
// handlers, schedule timers, or look up collections (spec.md §5, §4.E).
type RunContext struct {
	Ctx   context.Context
	Vars  *Context
	RT    *Runtime
	Event *Event
}

// Child returns a RunContext for a nested scope (e.g. one handler
// invocation, a Try's body, or a catch body), sharing Ctx/RT/Event but with
// a child variable scope so assignments inside do not leak outward.
func (rc *RunContext) Child() *RunContext {
	return &RunContext{Ctx: rc.Ctx, Vars: rc.Vars.Child(), RT: rc.RT, Event: rc.Event}
}

// WorkSequence is an ordered, pre-snapshotted list of handlers to run for a
// single dispatched event. Handlers run strictly one at a time; the
// sequence checks for cancellation between each, and a handler blocked in
// a Wait statement also observes cancellation there (spec.md §5).
type WorkSequence struct {
	handlers []*Handler
}

// NewWorkSequence snapshots handlers into a WorkSequence. The snapshot is
// taken by the caller (normally Dispatcher.Dispatch via Registry.Snapshot)
// so that concurrent Register/Unregister calls never affect a sequence
// already in flight.
func NewWorkSequence(handlers []*Handler) *WorkSequence {
	return &WorkSequence{handlers: handlers}
}

// Len reports how many handlers remain to run.
func (ws *WorkSequence) Len() int { return len(ws.handlers) }

// Run executes every handler in order against a fresh per-handler child
// RunContext (so one handler's captures cannot leak into the next). It
// stops at the first error: ErrHaltSequence is reported back as
// (haltedEarly=true, err=nil); any other error is reported as
// (haltedEarly=true, err=err). A full run with no error reports
// (false, nil). Cancellation observed between handlers is delivered as
// ErrHaltSequence too, the same sentinel SkipNext raises (spec.md §5, §9),
// so a cancelled dispatch is reported as a clean stop, not a failure.
func (ws *WorkSequence) Run(parent *RunContext) (haltedEarly bool, err error) {
	for _, h := range ws.handlers {
		select {
		case <-parent.Ctx.Done():
			return true, nil
		default:
		}

		hrc := parent.Child()
		if bindErr := h.Pattern.Bind(parent.Event.Tokens(), hrc.Vars); bindErr != nil {
			return true, bindErr
		}

		runErr := h.Body.Run(hrc)
		if runErr == nil {
			continue
		}
		if runErr == ErrHaltSequence {
			return true, nil
		}
		return true, runErr
	}
	return false, nil
}
