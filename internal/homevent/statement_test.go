// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent_test

import (
	"context"
	"testing"
	std_time "time"

	"github.com/stretchr/testify/require"

	cage_testkit "github.com/codeactual/homevent/internal/cage/testkit"
	cage_time "github.com/codeactual/homevent/internal/cage/time"
	"github.com/codeactual/homevent/internal/homevent"
)

func newTestRunContext(rt *homevent.Runtime, ev *homevent.Event) *homevent.RunContext {
	return &homevent.RunContext{
		Ctx:   context.Background(),
		Vars:  homevent.NewContext(),
		RT:    rt,
		Event: ev,
	}
}

func TestBlockStopsAtFirstError(t *testing.T) {
	rt := homevent.NewRuntime(cage_testkit.NewZapLogger(), cage_time.RealClock{})
	ev, err := homevent.NewEvent("x")
	require.NoError(t, err)

	ran := 0
	track := homevent.BodyFunc(func(rc *homevent.RunContext) error {
		ran++
		return nil
	})

	blk := homevent.Block{Statements: []homevent.Body{
		track,
		homevent.TriggerError{Params: []string{"boom"}},
		track,
	}}

	runErr := blk.Run(newTestRunContext(rt, ev))
	require.Equal(t, homevent.RaisedError{Params: []string{"boom"}}, runErr)
	require.Equal(t, 1, ran)
}

func TestTryCatchesMatchingClassAndBindsParams(t *testing.T) {
	rt := homevent.NewRuntime(cage_testkit.NewZapLogger(), cage_time.RealClock{})
	ev, err := homevent.NewEvent("x")
	require.NoError(t, err)

	var caughtParam string
	try := homevent.Try{
		Body: homevent.TriggerError{Params: []string{"front-door"}},
		Catches: []homevent.CatchClause{
			{
				ClassName: "RaisedError",
				Params:    homevent.CompilePattern("*"),
				Body: homevent.BodyFunc(func(rc *homevent.RunContext) error {
					v, _ := rc.Vars.GetString("1")
					caughtParam = v
					return nil
				}),
			},
		},
	}

	require.NoError(t, try.Run(newTestRunContext(rt, ev)))
	require.Equal(t, "front-door", caughtParam)
}

func TestTryPropagatesUnmatchedError(t *testing.T) {
	rt := homevent.NewRuntime(cage_testkit.NewZapLogger(), cage_time.RealClock{})
	ev, err := homevent.NewEvent("x")
	require.NoError(t, err)

	try := homevent.Try{
		Body: homevent.TriggerError{Params: []string{"oops"}},
		Catches: []homevent.CatchClause{
			{ClassName: "DupWaiterError", Body: homevent.BodyFunc(func(rc *homevent.RunContext) error { return nil })},
		},
	}

	runErr := try.Run(newTestRunContext(rt, ev))
	require.Equal(t, homevent.RaisedError{Params: []string{"oops"}}, runErr)
}

func TestTryPropagatesHaltWithoutCatching(t *testing.T) {
	rt := homevent.NewRuntime(cage_testkit.NewZapLogger(), cage_time.RealClock{})
	ev, err := homevent.NewEvent("x")
	require.NoError(t, err)

	caught := false
	try := homevent.Try{
		Body: homevent.SkipNext{},
		Catches: []homevent.CatchClause{
			{Body: homevent.BodyFunc(func(rc *homevent.RunContext) error { caught = true; return nil })},
		},
	}

	require.Equal(t, homevent.ErrHaltSequence, try.Run(newTestRunContext(rt, ev)))
	require.False(t, caught, "Halt must pass through Try uncaught")
}

func TestTryCatchesHaltOnlyWhenClassNamedExplicitly(t *testing.T) {
	rt := homevent.NewRuntime(cage_testkit.NewZapLogger(), cage_time.RealClock{})
	ev, err := homevent.NewEvent("x")
	require.NoError(t, err)

	caught := false
	try := homevent.Try{
		Body: homevent.SkipNext{},
		Catches: []homevent.CatchClause{
			{ClassName: homevent.HaltSequenceClassName, Body: homevent.BodyFunc(func(rc *homevent.RunContext) error { caught = true; return nil })},
		},
	}

	require.NoError(t, try.Run(newTestRunContext(rt, ev)))
	require.True(t, caught, "a catch naming HaltSequenceClassName must intercept it")
}

func TestOnRegistersHandlerAndBindsID(t *testing.T) {
	rt := homevent.NewRuntime(cage_testkit.NewZapLogger(), cage_time.RealClock{})
	ev, err := homevent.NewEvent("x")
	require.NoError(t, err)

	ran := false
	on := homevent.On{
		Pattern: homevent.CompilePattern("net", "open", "*"),
		Name:    "front-door-open",
		Body: homevent.BodyFunc(func(rc *homevent.RunContext) error {
			ran = true
			return nil
		}),
	}

	rc := newTestRunContext(rt, ev)
	require.NoError(t, on.Run(rc))

	onID, ok := rc.Vars.GetString("on_id")
	require.True(t, ok)
	require.NotEmpty(t, onID)

	h, ok := rt.Registry.ByName("front-door-open")
	require.True(t, ok)

	triggerEv, err := homevent.NewEvent("net", "open", "front-door")
	require.NoError(t, err)
	require.NoError(t, rt.Dispatcher.Dispatch(context.Background(), triggerEv))
	require.True(t, ran)

	del := homevent.DelOn{ID: h.ID}
	require.NoError(t, del.Run(rc))
	_, ok = rt.Registry.ByID(h.ID)
	require.False(t, ok)
}

func TestDelOnUnknownNameFails(t *testing.T) {
	rt := homevent.NewRuntime(cage_testkit.NewZapLogger(), cage_time.RealClock{})
	ev, err := homevent.NewEvent("x")
	require.NoError(t, err)

	del := homevent.DelOn{Name: "nope"}
	runErr := del.Run(newTestRunContext(rt, ev))
	require.Equal(t, homevent.NotFoundError{Name: []string{"nope"}}, runErr)
}

func TestWaitAndDelWaitRoundTrip(t *testing.T) {
	rt := homevent.NewRuntime(cage_testkit.NewZapLogger(), cage_time.RealClock{})
	ev, err := homevent.NewEvent("x")
	require.NoError(t, err)

	waitDone := make(chan error, 1)
	go func() {
		wait := homevent.Wait{Name: []string{"kettle"}, Duration: std_time.Hour}
		waitDone <- wait.Run(newTestRunContext(rt, ev))
	}()

	require.Eventually(t, func() bool {
		return rt.Timers.Exists([]string{"kettle"})
	}, std_time.Second, 10*std_time.Millisecond)

	del := homevent.DelWait{Name: []string{"kettle"}}
	require.NoError(t, del.Run(newTestRunContext(rt, ev)))

	select {
	case err := <-waitDone:
		require.Equal(t, homevent.ErrHaltSequence, err, "del wait cancels as a clean stop, not a failure")
	case <-std_time.After(std_time.Second):
		t.Fatal("timed out waiting for Wait to return")
	}
}

func TestExistsWaitReflectsPendingState(t *testing.T) {
	rt := homevent.NewRuntime(cage_testkit.NewZapLogger(), cage_time.RealClock{})

	require.False(t, homevent.ExistsWait(rt, []string{"oven"}))

	_, err := rt.Timers.Schedule([]string{"oven"}, std_time.Hour)
	require.NoError(t, err)

	require.True(t, homevent.ExistsWait(rt, []string{"oven"}))
}
