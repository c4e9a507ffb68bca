// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeactual/homevent/internal/homevent"
)

func newNoopHandler(prio int) *homevent.Handler {
	pat := homevent.CompilePattern("noop")
	h := homevent.NewHandler(pat, homevent.BodyFunc(func(rc *homevent.RunContext) error { return nil }))
	h.Prio = prio
	return h
}

func TestRegistrySnapshotOrdersByPrioThenSequence(t *testing.T) {
	r := homevent.NewRegistry()

	low := newNoopHandler(10)
	highA := newNoopHandler(50)
	highB := newNoopHandler(50)

	require.NoError(t, r.Register(highA))
	require.NoError(t, r.Register(low))
	require.NoError(t, r.Register(highB))

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	require.Equal(t, low.ID, snap[0].ID, "lower priority dispatches first")
	require.Equal(t, highA.ID, snap[1].ID, "same priority: earlier registration first")
	require.Equal(t, highB.ID, snap[2].ID)
}

func TestRegistryReservedSlotAllowsOnlyOneHandler(t *testing.T) {
	r := homevent.NewRegistry()

	first := newNoopHandler(homevent.SysPrioLogger)
	second := newNoopHandler(homevent.SysPrioLogger)

	require.NoError(t, r.Register(first))
	err := r.Register(second)
	require.Equal(t, homevent.ErrReservedPrioTaken, err)
	require.Equal(t, 1, r.Len())
}

func TestRegistryReservedSlotFreedAfterUnregister(t *testing.T) {
	r := homevent.NewRegistry()

	first := newNoopHandler(homevent.SysPrioShutdown)
	require.NoError(t, r.Register(first))
	r.Unregister(first)

	second := newNoopHandler(homevent.SysPrioShutdown)
	require.NoError(t, r.Register(second))
}

func TestRegistryByNameAndByID(t *testing.T) {
	r := homevent.NewRegistry()
	h := newNoopHandler(homevent.MinPrio)
	h.Name = "front-door-open"
	require.NoError(t, r.Register(h))

	got, ok := r.ByName("front-door-open")
	require.True(t, ok)
	require.Equal(t, h.ID, got.ID)

	got, ok = r.ByID(h.ID)
	require.True(t, ok)
	require.Equal(t, h.Name, got.Name)

	require.True(t, r.UnregisterByName("front-door-open"))
	_, ok = r.ByID(h.ID)
	require.False(t, ok)
}

func TestRegistrySnapshotIsStableAgainstConcurrentMutation(t *testing.T) {
	r := homevent.NewRegistry()
	a := newNoopHandler(homevent.MinPrio)
	require.NoError(t, r.Register(a))

	snap := r.Snapshot()

	b := newNoopHandler(homevent.MinPrio)
	require.NoError(t, r.Register(b))
	r.Unregister(a)

	require.Len(t, snap, 1, "an already-taken snapshot must not see later registry mutations")
	require.Equal(t, a.ID, snap[0].ID)
}
