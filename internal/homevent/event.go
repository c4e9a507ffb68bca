// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import (
	"strings"
	"sync/atomic"
)

// Name is an ordered tuple of string tokens used as a key into the Worker
// Registry's handler-name index and the Named Collections (component G).
// Equality is element-wise.
type Name []string

// Equal reports whether n and o hold the same tokens in the same order.
func (n Name) Equal(o Name) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if n[i] != o[i] {
			return false
		}
	}
	return true
}

// Key returns a string suitable for use as a map key, joining tokens with a
// separator that cannot appear in a token (tokens are whitespace-delimited
// by the parser collaborator, so a NUL byte is a safe join character).
func (n Name) Key() string {
	return strings.Join(n, "\x00")
}

// eventCounter backs Event id assignment. A single process-wide monotonic
// counter, per spec.md §4.A; wrap-around is not expected within a process
// lifetime.
var eventCounter uint64

// Event is an immutable, ordered, non-empty sequence of string tokens plus
// a monotonically increasing id assigned at creation.
type Event struct {
	tokens []string
	id     uint64
}

// NewEvent creates an Event from the given tokens. It fails with
// ErrEventNoName if tokens is empty.
func NewEvent(tokens ...string) (*Event, error) {
	if len(tokens) == 0 {
		return nil, ErrEventNoName
	}
	cp := append([]string{}, tokens...)
	return &Event{
		tokens: cp,
		id:     atomic.AddUint64(&eventCounter, 1),
	}, nil
}

// mustEvent is the internal constructor used where the token list is known
// to be non-empty (e.g. system-emitted events); it panics on violation since
// that would be a programming error, not a user-facing one.
func mustEvent(tokens ...string) *Event {
	e, err := NewEvent(tokens...)
	if err != nil {
		panic(err)
	}
	return e
}

// Tokens returns a defensive copy of the event's token sequence.
func (e *Event) Tokens() []string {
	return append([]string{}, e.tokens...)
}

// ID returns the event's assigned id.
func (e *Event) ID() uint64 {
	return e.id
}

// String renders the event the way the original logger did ("↯.a.b").
func (e *Event) String() string {
	return "↯." + strings.Join(e.tokens, ".")
}

// ExceptionEvent reports that a handler's body raised an error that was not
// ErrHaltSequence. It carries the captured error and, when available, a
// reference to the event that was in flight when the error occurred; per
// spec.md §3 it inherits that event's id for correlation.
type ExceptionEvent struct {
	*Event

	// Err is the error that triggered this ExceptionEvent.
	Err error

	// Within is the event that was being dispatched when Err occurred, if any.
	Within *Event
}

// NewExceptionEvent builds the ("error", <class name>) event the failure
// pipeline dispatches, per original_source/homevent/event.py:ExceptionEvent.
func NewExceptionEvent(err error, within *Event) *ExceptionEvent {
	ev := mustEvent("error", ClassName(err))
	if within != nil {
		ev.id = within.id
	}
	return &ExceptionEvent{Event: ev, Err: err, Within: within}
}

// Context is a mapping from identifier to value, with an optional parent
// context. Lookup walks parents; assignment is local. A Context owns no
// resources; its lifetime equals the invocation scope that created it.
type Context struct {
	parent *Context
	vars   map[string]interface{}
}

// NewContext returns a fresh root context with no parent.
func NewContext() *Context {
	return &Context{vars: make(map[string]interface{})}
}

// Child returns a fresh child context pointing at c as its parent.
func (c *Context) Child() *Context {
	return &Context{parent: c, vars: make(map[string]interface{})}
}

// Get walks the parent chain and returns the first binding found for name.
func (c *Context) Get(name string) (interface{}, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// GetString is a convenience wrapper around Get for the common case of
// string-valued captures.
func (c *Context) GetString(name string) (string, bool) {
	v, ok := c.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set assigns name to value in c's own scope (never a parent's).
func (c *Context) Set(name string, value interface{}) {
	c.vars[name] = value
}

// well-known context keys.
const (
	// CtxError holds the current error value inside a "catch" body.
	CtxError = "error_"
)
