// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package supervisor

import (
	"context"
	"strings"
	std_time "time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	cage_zap "github.com/codeactual/homevent/internal/cage/log/zap"
	cage_time "github.com/codeactual/homevent/internal/cage/time"
)

// EmitFunc dispatches one token sequence into the runtime's event stream.
type EmitFunc func(tokens ...string)

// Kind selects how Supervisor.serve interprets a Conn's lines.
type Kind int

// Endpoint kinds.
const (
	KindTCP Kind = iota
	KindAdapter
)

// Supervisor drives one endpoint's DISCONNECTED -> CONNECTING -> UP state
// machine: dial, serve lines until the connection fails, back off, repeat
// (spec.md §4.H). Lines received while UP are decoded per Kind and handed
// to Emit as homevent token sequences; pty.Start merges an adapter child's
// stdout and stderr onto one stream, so unlike the original's separate
// "stderr -> error event" path, this implementation treats every adapter
// line uniformly through ParseAdapterLine.
type Supervisor struct {
	Name         []string
	Kind         Kind
	Dialer       Dialer
	Backoff      std_time.Duration
	WedgeTimeout std_time.Duration // 0 disables wedge detection (TCP endpoints)
	Emit         EmitFunc
	Sub          Subscriber // optional; nil is fine
	Clock        cage_time.Clock
	Log          *zap.Logger

	// Component is the leading token of every connect/disconnect/wedged
	// lifecycle event this Supervisor emits ("net" for TCP endpoints, the
	// adapter collection's name for adapter endpoints), per spec.md §4.H
	// and original_source/modules/net.py's
	// simple_event(Context(),"net","connect",*self.name).
	Component string

	// DatagramPrefixes is the set of single-character datagram markers
	// ParseAdapterLine recognizes for this endpoint's adapter lines
	// (KindAdapter only), threaded from EndpointConfig.DatagramPrefixes.
	DatagramPrefixes string

	state State
}

// State returns the supervisor's current lifecycle stage.
func (s *Supervisor) State() State {
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.state = st
	if s.Sub != nil {
		s.Sub.Notify(Event{Endpoint: s.Name, Op: StateChange, State: st})
	}
}

// emitLifecycle dispatches a connect/disconnect/wedged lifecycle event as
// (Component, op, name...), matching the original's
// simple_event(Context(),"net","connect",*self.name) /
// simple_event(Context(),"fs20","wedged",*self.name) token order: the
// component literal first, the event-type literal second, the endpoint's
// name tokens last. This differs from handleTCPLine's ordinary line events,
// which put the name tokens before the line's own tokens.
func (s *Supervisor) emitLifecycle(op string, name ...string) {
	tokens := append([]string{s.Component, op}, name...)
	s.Emit(tokens...)
}

func (s *Supervisor) logError(err error) {
	if s.Sub != nil {
		s.Sub.Error(err)
	}
	if s.Log != nil {
		s.Log.Warn("supervisor error", zap.Error(err), cage_zap.Tag("supervisor", strings.Join(s.Name, ".")))
	}
}

// Run dials, serves, and reconnects until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		attemptID := ksuid.New().String()

		s.setState(Connecting)
		conn, err := s.Dialer.Dial()
		if err != nil {
			s.logError(err)
			if s.Log != nil {
				s.Log.Debug("dial attempt failed", zap.String("attempt_id", attemptID), cage_zap.Tag("supervisor"))
			}
			s.setState(Disconnected)
			if !s.sleep(ctx, s.Backoff) {
				return
			}
			continue
		}

		if s.Log != nil {
			s.Log.Debug("dial attempt succeeded", zap.String("attempt_id", attemptID), cage_zap.Tag("supervisor"))
		}

		s.setState(Up)
		s.emitLifecycle("connect", s.Name...)

		s.serve(ctx, conn)

		s.emitLifecycle("disconnect", s.Name...)
		s.setState(Disconnected)

		if !s.sleep(ctx, s.Backoff) {
			return
		}
	}
}

// sleep waits for d (via s.Clock so tests can fast-forward) or ctx
// cancellation, reporting false in the latter case.
func (s *Supervisor) sleep(ctx context.Context, d std_time.Duration) bool {
	t := s.Clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C():
		return true
	case <-ctx.Done():
		return false
	}
}

// lineResult carries one Conn.ReadLine outcome across the goroutine
// boundary serve uses to implement the wedge timeout.
type lineResult struct {
	line string
	err  error
}

// serve reads lines from conn until it errors or ctx is cancelled,
// dispatching each as an event. If WedgeTimeout is non-zero and no line
// arrives within it, conn is killed (if it supports Killer) and serve
// returns, emitting a "wedged" event first (spec.md §4.H).
func (s *Supervisor) serve(ctx context.Context, conn Conn) {
	defer func() { _ = conn.Close() }()

	lines := make(chan lineResult, 1)
	go func() {
		for {
			line, err := conn.ReadLine()
			lines <- lineResult{line: line, err: err}
			if err != nil {
				return
			}
		}
	}()

	for {
		var timeoutCh <-chan std_time.Time
		var timer cage_time.Timer
		if s.WedgeTimeout > 0 {
			timer = s.Clock.NewTimer(s.WedgeTimeout)
			timeoutCh = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-timeoutCh:
			s.emitLifecycle("wedged", s.Name...)
			if k, ok := conn.(Killer); ok {
				_ = k.Kill()
			}
			return
		case res := <-lines:
			if timer != nil {
				timer.Stop()
			}
			if res.err != nil {
				s.logError(res.err)
				return
			}
			s.handleLine(res.line)
		}
	}
}

func (s *Supervisor) handleLine(line string) {
	switch s.Kind {
	case KindTCP:
		s.handleTCPLine(line)
	case KindAdapter:
		s.handleAdapterLine(line)
	}
}

func (s *Supervisor) handleTCPLine(line string) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return
	}
	s.Emit(append(append([]string{"net"}, s.Name...), tokens...)...)
}

func (s *Supervisor) handleAdapterLine(line string) {
	al, err := ParseAdapterLine(line, s.DatagramPrefixes)
	if err != nil {
		s.Emit(append(append([]string{}, s.Name...), "error", err.Error())...)
		return
	}

	switch {
	case al.IsTimestamp, al.IsDelay:
		// No event. The parsed timestamp is not kept or attached to the
		// next datagram, and a "+<seconds>" delay line is dropped without
		// any delay being applied.
		return
	case al.IsDatagram:
		s.Emit(append(append([]string{}, s.Name...), "data", al.Prefix, string(al.Data))...)
	case al.IsUnknown:
		s.Emit(append(append([]string{}, s.Name...), "unknown", al.UnknownText)...)
	}
}
