// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	cage_testkit "github.com/codeactual/homevent/internal/cage/testkit"
	cage_time "github.com/codeactual/homevent/internal/cage/time"
	"github.com/codeactual/homevent/internal/homevent"
)

func TestWorkSequenceCancellationReportsCleanHalt(t *testing.T) {
	ev, err := homevent.NewEvent("x")
	require.NoError(t, err)

	ran := false
	h := homevent.NewHandler(homevent.CompilePattern("x"), homevent.BodyFunc(func(rc *homevent.RunContext) error {
		ran = true
		return nil
	}))

	ws := homevent.NewWorkSequence([]*homevent.Handler{h})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rt := homevent.NewRuntime(cage_testkit.NewZapLogger(), cage_time.RealClock{})
	rc := &homevent.RunContext{Ctx: ctx, Vars: homevent.NewContext(), RT: rt, Event: ev}

	haltedEarly, runErr := ws.Run(rc)
	require.True(t, haltedEarly)
	require.NoError(t, runErr, "a cancelled dispatch must report as a clean stop, not a failure")
	require.False(t, ran, "a handler must not run once the sequence observes cancellation")
}

func TestDispatchUnderCancelledContextReturnsNoError(t *testing.T) {
	rt := homevent.NewRuntime(cage_testkit.NewZapLogger(), cage_time.RealClock{})

	h := homevent.NewHandler(homevent.CompilePattern("net", "*"), homevent.BodyFunc(func(rc *homevent.RunContext) error {
		return nil
	}))
	require.NoError(t, rt.Registry.Register(h))

	ev, err := homevent.NewEvent("net", "x")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, rt.Dispatcher.Dispatch(ctx, ev))
}
