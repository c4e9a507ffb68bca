// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package homevent implements the event dispatcher, handler matching and
// statement runtime that form the core of the daemon.
package homevent

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEventNoName is returned by NewEvent when given zero tokens.
var ErrEventNoName = errors.New("event requires at least one token")

// ErrHaltSequence is raised by "skip next" and delivered on dispatch
// cancellation: both are modeled as the same sentinel class (spec.md §9
// design note), not distinct control-flow signals. It terminates a
// WorkSequence without failing the dispatch. A "catch" clause only
// intercepts it if it names HaltSequenceClassName explicitly; a bare,
// filterless catch lets it propagate (spec.md §5).
var ErrHaltSequence = errors.New("halt sequence")

// HaltSequenceClassName is the ClassName a CatchClause must name to match
// ErrHaltSequence.
const HaltSequenceClassName = "HaltSequence"

// ErrWaitCancelled is the default reason a pending wait's future fails with
// when Cancel is called without an explicit reason.
var ErrWaitCancelled = errors.New("wait cancelled")

// ErrReservedPrioTaken is returned by Registry.Register when a reserved
// priority slot (outside [MinPrio, MaxPrio]) already holds a handler.
var ErrReservedPrioTaken = errors.New("reserved priority slot already taken")

// ErrDisconnected marks a send/read attempted against a down connection.
var ErrDisconnected = errors.New("disconnected")

// ErrTimeout marks an externally observed timeout (e.g. an adapter wedge).
var ErrTimeout = errors.New("timeout")

// DupWaiterError is returned by TimerService.Schedule when the timer name
// is already pending.
type DupWaiterError struct {
	Name []string
}

func (e DupWaiterError) Error() string {
	return fmt.Sprintf("waiter %q already exists", strings.Join(e.Name, " "))
}

// RaisedError is the user-visible error raised by "trigger error TOKENS...".
// Its Params are positionally capturable by a "catch" clause, mirroring
// $1..$n binding in the statement runtime.
type RaisedError struct {
	Params []string
}

func (e RaisedError) Error() string {
	return "RaisedError: " + strings.Join(e.Params, " ")
}

// UnknownWordError marks a leading token the parser collaborator could not
// resolve at the current scope (spec.md §6).
type UnknownWordError struct {
	Word string
}

func (e UnknownWordError) Error() string {
	return fmt.Sprintf("unknown word %q", e.Word)
}

// SyntaxErrorKind marks a malformed statement, e.g. a "prio" value out of
// range or a top-level "catch" with no enclosing "try".
type SyntaxErrorKind struct {
	Msg string
}

func (e SyntaxErrorKind) Error() string {
	return "syntax error: " + e.Msg
}

// BadArgsError marks a literal-token mismatch found while binding a match.
type BadArgsError struct {
	Expected, Got string
}

func (e BadArgsError) Error() string {
	return fmt.Sprintf("mismatch: expected %q, got %q", e.Expected, e.Got)
}

// BadArgCountError marks a pattern/event token-count mismatch found at bind
// time (the match itself already checks this, so this only surfaces if a
// caller binds against tokens that were never matched).
type BadArgCountError struct{}

func (e BadArgCountError) Error() string {
	return "the number of event arguments does not match"
}

// NetError wraps a transport-level failure with its originating code, e.g.
// an errno-derived string from the connection supervisor.
type NetError struct {
	Code string
}

func (e NetError) Error() string {
	return "net error: " + e.Code
}

// NotFoundError marks a failed Collection/CollectionRegistry lookup.
type NotFoundError struct {
	Name []string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("could not find an entry for %q", strings.Join(e.Name, " "))
}

// KeyNotFoundError marks a TimerService.Update/Cancel against a name that
// isn't pending.
type KeyNotFoundError struct {
	Name []string
}

func (e KeyNotFoundError) Error() string {
	return fmt.Sprintf("no such key %q", strings.Join(e.Name, " "))
}

// ClassName returns the error-kind name of err (e.g. "RaisedError",
// "SyntaxError", "BadArgs", "KeyError", "HaltSequence"; "Error" for any
// other error), mirroring Python's err.__class__.__name__ which "catch
// NAME" and ExceptionEvent construction rely on
// (original_source/homevent/event.py, modules/errors.py).
func ClassName(err error) string {
	if err == nil {
		return ""
	}
	switch err.(type) {
	case RaisedError:
		return "RaisedError"
	case DupWaiterError:
		return "DupWaiterError"
	case UnknownWordError:
		return "UnknownWordError"
	case SyntaxErrorKind:
		return "SyntaxError"
	case BadArgsError:
		return "BadArgs"
	case BadArgCountError:
		return "BadArgCount"
	case NetError:
		return "NetError"
	case NotFoundError:
		return "NotFound"
	case KeyNotFoundError:
		return "KeyError"
	}
	switch {
	case errors.Is(err, ErrHaltSequence):
		return HaltSequenceClassName
	case errors.Is(err, ErrEventNoName):
		return "EventNoName"
	case errors.Is(err, ErrWaitCancelled):
		return "WaitCancelled"
	case errors.Is(err, ErrReservedPrioTaken):
		return "ReservedPrioTaken"
	case errors.Is(err, ErrDisconnected):
		return "Disconnected"
	case errors.Is(err, ErrTimeout):
		return "Timeout"
	}
	return "Error"
}
