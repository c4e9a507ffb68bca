// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import (
	"fmt"
	"strconv"
	std_time "time"

	"go.uber.org/zap"

	cage_zap "github.com/codeactual/homevent/internal/cage/log/zap"
)

// Block runs a fixed list of statements in order, stopping at the first
// error (including ErrHaltSequence, which it propagates rather than
// swallows — only the enclosing WorkSequence treats Halt specially). All
// statements share rc's variable scope, so a binding one statement makes
// (e.g. "on_id", or a "var wait" variable) is visible to the next.
type Block struct {
	Statements []Body
}

// Run implements Body.
func (b Block) Run(rc *RunContext) error {
	for _, s := range b.Statements {
		if err := s.Run(rc); err != nil {
			return err
		}
	}
	return nil
}

// CatchClause is one "catch" arm of a Try statement: it runs Body when the
// raised error's class name equals ClassName (if non-empty) and its
// positional params, if any, bind successfully against Params.
type CatchClause struct {
	ClassName string
	Params    Pattern
	Body      Body
}

// doesMatch reports whether err is handled by this clause, per
// original_source/modules/errors.py:CatchStatement.does_error. A bare
// clause with no ClassName filter matches anything except ErrHaltSequence:
// cancellation/skip-next only get caught by a catch that names
// HaltSequenceClassName explicitly (spec.md §5).
func (c CatchClause) doesMatch(err error) bool {
	if err == ErrHaltSequence {
		return c.ClassName == HaltSequenceClassName
	}
	if c.ClassName != "" && ClassName(err) != c.ClassName {
		return false
	}
	if c.Params.Len() == 0 {
		return true
	}
	if rerr, ok := err.(RaisedError); ok {
		return c.Params.Matches(rerr.Params)
	}
	return false
}

// Try runs Body; if it raises an error, the first CatchClause whose
// doesMatch(err) succeeds runs instead, with its Params captures (if any)
// bound into the catch body's context. An unmatched error propagates
// unchanged, including ErrHaltSequence when no catch names
// HaltSequenceClassName explicitly (spec.md §4.E, §5).
type Try struct {
	Body    Body
	Catches []CatchClause
}

// Run implements Body.
func (t Try) Run(rc *RunContext) error {
	err := t.Body.Run(rc.Child())
	if err == nil {
		return nil
	}

	for _, c := range t.Catches {
		if !c.doesMatch(err) {
			continue
		}
		crc := rc.Child()
		crc.Vars.Set(CtxError, err)
		if rerr, ok := err.(RaisedError); ok && c.Params.Len() > 0 {
			if bindErr := c.Params.Bind(rerr.Params, crc.Vars); bindErr != nil {
				return bindErr
			}
		}
		return c.Body.Run(crc)
	}
	return err
}

// TriggerError raises a RaisedError carrying Params, implementing
// "trigger error TOKENS..." (original_source/modules/errors.py:TriggerStatement).
type TriggerError struct {
	Params []string
}

// Run implements Body.
func (t TriggerError) Run(rc *RunContext) error {
	return RaisedError{Params: t.Params}
}

// LogError logs the current error (CtxError in scope, set by an enclosing
// Try's catch) at the given level and does not propagate it, implementing
// "log error" (original_source/modules/errors.py:ReportStatement).
type LogError struct {
	Level Level
}

// Run implements Body.
func (l LogError) Run(rc *RunContext) error {
	v, _ := rc.Vars.Get(CtxError)
	err, _ := v.(error)
	logAt(rc.RT.Log, l.Level, "logged error", zap.Error(err), cage_zap.Tag("statement", "log-error"))
	return nil
}

// SkipNext raises ErrHaltSequence, implementing "skip next": it stops the
// enclosing WorkSequence without failing it (spec.md §4.E).
type SkipNext struct{}

// Run implements Body.
func (SkipNext) Run(rc *RunContext) error {
	return ErrHaltSequence
}

// On registers a new Handler in the runtime's registry when run, and
// unregisters it when the optional Undo hook is invoked (supporting nested
// "on"s inside a Block that should not outlive it, mirroring the original's
// handler-per-module lifecycle). Prio/Name/Doc default per Handler zero
// values when unset, applied as immediate modifiers at registration time
// the way "on TOKENS prio N name NAME doc TEXT:" parses in the original
// (original_source/modules/on_event.py:OnEventHandler).
type On struct {
	Pattern       Pattern
	Name          string
	Doc           string
	Prio          int
	ErrorConsumer bool
	Body          Body
}

// Run implements Body: it registers the handler and binds its assigned id
// into rc.Vars under "on_id" so a subsequent "del on $on_id" can target it.
func (o On) Run(rc *RunContext) error {
	h := NewHandler(o.Pattern, bodyBoundToRuntime{rt: rc.RT, body: o.Body})
	if o.Prio != 0 {
		h.Prio = o.Prio
	}
	h.Name = o.Name
	h.Doc = o.Doc
	h.ErrorConsumer = o.ErrorConsumer

	if err := rc.RT.Registry.Register(h); err != nil {
		return err
	}
	rc.Vars.Set("on_id", strconv.FormatUint(h.ID, 10))
	return nil
}

// bodyBoundToRuntime wraps a statement Body registered via "on" so that,
// when the Dispatcher later runs it from a fresh RunContext built around
// only the matched Event, it still has access to the Runtime (and the
// pattern match's own wildcard captures, already bound by WorkSequence.Run
// into that RunContext's Vars).
type bodyBoundToRuntime struct {
	rt   *Runtime
	body Body
}

// Run implements Body.
func (b bodyBoundToRuntime) Run(rc *RunContext) error {
	return b.body.Run(rc)
}

// DelOn unregisters a handler previously registered by "on", identified
// either by numeric id or by display name, implementing "del on ID|NAME"
// (original_source/modules/on_event.py:OffEventHandler).
type DelOn struct {
	ID   uint64
	Name string
}

// Run implements Body.
func (d DelOn) Run(rc *RunContext) error {
	if d.Name != "" {
		if rc.RT.Registry.UnregisterByName(d.Name) {
			return nil
		}
		return NotFoundError{Name: []string{d.Name}}
	}
	if rc.RT.Registry.UnregisterByID(d.ID) {
		return nil
	}
	return NotFoundError{Name: []string{strconv.FormatUint(d.ID, 10)}}
}

// ListOn enumerates registered handlers (all, or one by id/name), supplying
// the rows to Sink for rendering; implementing "list on [handler]"
// (original_source/modules/on_event.py:OnListHandler).
type ListOn struct {
	ID   uint64
	Name string
	Sink func(h *Handler)
}

// Run implements Body.
func (l ListOn) Run(rc *RunContext) error {
	if l.Name != "" {
		h, ok := rc.RT.Registry.ByName(l.Name)
		if !ok {
			return NotFoundError{Name: []string{l.Name}}
		}
		l.Sink(h)
		return nil
	}
	if l.ID != 0 {
		h, ok := rc.RT.Registry.ByID(l.ID)
		if !ok {
			return NotFoundError{Name: []string{strconv.FormatUint(l.ID, 10)}}
		}
		l.Sink(h)
		return nil
	}
	for _, h := range rc.RT.Registry.List() {
		l.Sink(h)
	}
	return nil
}

// ListWait enumerates pending timers (all, or one by name), implementing
// "list wait [name]" (original_source/modules/wait.py:WaitList).
type ListWait struct {
	Name []string
	Sink func(rec *TimerRecord)
}

// Run implements Body.
func (l ListWait) Run(rc *RunContext) error {
	if len(l.Name) > 0 {
		rec, ok := rc.RT.Timers.Get(l.Name)
		if !ok {
			return KeyNotFoundError{Name: l.Name}
		}
		l.Sink(rec)
		return nil
	}
	for _, rec := range rc.RT.Timers.List() {
		l.Sink(rec)
	}
	return nil
}

// VarWait binds Var in the enclosing context to the live TimerRecord named
// Name, implementing "var wait NAME tokens..."
// (original_source/modules/wait.py:VarWaitHandler).
type VarWait struct {
	Var  string
	Name []string
}

// Run implements Body.
func (v VarWait) Run(rc *RunContext) error {
	rec, ok := rc.RT.Timers.Get(v.Name)
	if !ok {
		return KeyNotFoundError{Name: v.Name}
	}
	rc.Vars.Set(v.Var, rec)
	return nil
}

// ExistsWait is the "exists wait NAME" predicate
// (original_source/modules/wait.py:ExistsWaiterCheck). It is exposed as a
// plain query, not a Body, since the conditional-guard surface it serves is
// part of the out-of-scope DSL.
func ExistsWait(rt *Runtime, name []string) bool {
	return rt.Timers.Exists(name)
}

// Wait blocks the enclosing WorkSequence until the named timer fires or is
// cancelled, implementing the scheduling half of "wait NAME for DURATION"
// (original_source/modules/wait.py:WaitHandler). Scheduling itself (and the
// DupWaiter/zero-or-negative-duration rules) lives in TimerService.Schedule;
// Wait only blocks for the result, translating a cancellation reason of
// ErrHaltSequence back into an unadorned Halt for the sequence machinery.
type Wait struct {
	Name     []string
	Duration std_time.Duration
}

// Run implements Body.
func (w Wait) Run(rc *RunContext) error {
	resultCh, err := rc.RT.Timers.Schedule(w.Name, w.Duration)
	if err != nil {
		return err
	}
	select {
	case err := <-resultCh:
		return err
	case <-rc.Ctx.Done():
		// Cancellation is modeled as the same sentinel class SkipNext
		// raises, not as the raw context error (spec.md §5, §9).
		return ErrHaltSequence
	}
}

// DelWait cancels the named pending timer with ErrHaltSequence as its
// reason, implementing "del wait NAME" (original_source/modules/wait.py:
// WaitCancel, which the original special-cases to look like a clean stop
// rather than a failure to whatever is blocked on it).
type DelWait struct {
	Name []string
}

// Run implements Body.
func (d DelWait) Run(rc *RunContext) error {
	return rc.RT.Timers.Cancel(d.Name, ErrHaltSequence)
}

// fmtTokens is a small display helper for handler/timer listings.
func fmtTokens(tokens []string) string {
	return fmt.Sprint(tokens)
}
