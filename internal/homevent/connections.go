// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import (
	"context"
	"os"
	std_time "time"

	"go.uber.org/zap"

	cage_zap "github.com/codeactual/homevent/internal/cage/log/zap"
	cage_time "github.com/codeactual/homevent/internal/cage/time"
	"github.com/codeactual/homevent/internal/supervisor"
)

// endpointEntry is the Collected value registered into the "net"/"adapter"
// Collection for each configured EndpointConfig, giving "list net"/"list
// adapter" style lookups access to the live Supervisor's state.
type endpointEntry struct {
	name []string
	sup  *supervisor.Supervisor
}

// CollectedName implements Collected.
func (e *endpointEntry) CollectedName() []string { return e.name }

// State returns the endpoint's current Connection Supervisor state.
func (e *endpointEntry) State() supervisor.State { return e.sup.State() }

// runtimeSubscriber adapts a Runtime into a supervisor.Subscriber, logging
// lifecycle errors through the same sink every other component uses.
type runtimeSubscriber struct {
	rt *Runtime
}

// Notify implements supervisor.Subscriber.
func (s runtimeSubscriber) Notify(ev supervisor.Event) {
	s.rt.Log.Info("connection state changed",
		zap.Strings("endpoint", ev.Endpoint), zap.Stringer("state", ev.State),
		cage_zap.Tag("supervisor"))
}

// Error implements supervisor.Subscriber.
func (s runtimeSubscriber) Error(err error) {
	s.rt.Log.Warn("connection error", zap.Error(err), cage_zap.Tag("supervisor"))
}

// StartEndpoints builds one Supervisor per configured EndpointConfig,
// registers a Collected entry for it into the appropriate Collection ("net"
// for tcp-client/tcp-server, "adapter" for adapter), and runs every
// Supervisor in its own goroutine until ctx is cancelled.
func StartEndpoints(ctx context.Context, rt *Runtime, endpoints []EndpointConfig) error {
	for i := range endpoints {
		ec := endpoints[i]

		var dialer supervisor.Dialer
		var kind supervisor.Kind
		var collectionName string
		var wedge std_time.Duration

		switch ec.Kind {
		case "tcp-client":
			dialer = supervisor.TCPClientDialer{Addr: ec.Addr}
			kind = supervisor.KindTCP
			collectionName = "net"
		case "tcp-server":
			dialer = &supervisor.TCPServerDialer{Addr: ec.Addr}
			kind = supervisor.KindTCP
			collectionName = "net"
		case "adapter":
			dialer = supervisor.AdapterDialer{Command: ec.Command, Env: envSlice(ec.Env)}
			kind = supervisor.KindAdapter
			collectionName = "adapter"
			wedge = 60 * std_time.Second
		default:
			return UnknownWordError{Word: ec.Kind}
		}

		sup := &supervisor.Supervisor{
			Name:             ec.Name,
			Kind:             kind,
			Dialer:           dialer,
			Backoff:          ec.GetReconnectBackoff(),
			WedgeTimeout:     wedge,
			Sub:              runtimeSubscriber{rt: rt},
			Clock:            rt.Clock,
			Log:              rt.Log,
			Component:        collectionName,
			DatagramPrefixes: ec.DatagramPrefixes,
		}
		sup.Emit = func(tokens ...string) {
			ev, err := NewEvent(tokens...)
			if err != nil {
				return
			}
			_ = rt.Dispatcher.Dispatch(ctx, ev)
		}

		entry := &endpointEntry{name: ec.Name, sup: sup}
		rt.Collections.Declare(collectionName).Add(entry)

		rt.Log.Info("starting endpoint",
			zap.Strings("endpoint", ec.Name), zap.String("kind", ec.Kind),
			zap.String("reconnect_backoff", cage_time.DurationShort(ec.GetReconnectBackoff())),
			cage_zap.Tag("supervisor"))

		go sup.Run(ctx)
	}
	return nil
}

// envSlice flattens a config Env map into "KEY=VALUE" strings for
// os/exec.Cmd.Env, which AdapterDialer appends after os.Environ(). A key
// already present in the daemon's own environment is left out, so a
// configured value only adds variables and never overrides an inherited
// one (the precedence cage_structs.MergeModeCombine describes).
func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		if _, inherited := os.LookupEnv(k); inherited {
			continue
		}
		out = append(out, k+"="+v)
	}
	return out
}
