// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import (
	"go.uber.org/zap"

	cage_time "github.com/codeactual/homevent/internal/cage/time"
)

// Runtime bundles every shared collaborator a running statement or handler
// body needs: the Worker Registry, the Timer Service, the Named Collections
// registry, the Dispatcher itself, and a logger. One Runtime exists per
// daemon process.
type Runtime struct {
	Registry    *Registry
	Timers      *TimerService
	Collections *CollectionRegistry
	Dispatcher  *Dispatcher
	Log         *zap.Logger
	Clock       cage_time.Clock

	// EventObserver, when set, is called with every event as it is
	// dispatched (before handler matching). It exists for the optional
	// interactive dashboard (internal/console) to mirror the live event
	// stream without coupling the Dispatcher to any rendering concern.
	EventObserver func(*Event)
}

// NewRuntime wires a fresh Runtime. clock is injected so tests can use a
// mock cage_time.Clock; production wiring passes cage_time.RealClock{}.
func NewRuntime(log *zap.Logger, clock cage_time.Clock) *Runtime {
	rt := &Runtime{
		Registry:    NewRegistry(),
		Collections: NewCollectionRegistry(),
		Log:         log,
		Clock:       clock,
	}
	rt.Timers = NewTimerService(clock)
	rt.Dispatcher = NewDispatcher(rt)

	rt.Collections.Declare("net")
	rt.Collections.Declare("adapter")
	rt.Collections.Declare("wait")

	return rt
}
