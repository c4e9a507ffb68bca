// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package supervisor_test

import (
	"context"
	"io"
	"sync"
	"testing"
	std_time "time"

	"github.com/stretchr/testify/require"

	cage_testkit "github.com/codeactual/homevent/internal/cage/testkit"
	cage_time "github.com/codeactual/homevent/internal/cage/time"
	"github.com/codeactual/homevent/internal/supervisor"
)

// fakeConn feeds a fixed line, then reports io.EOF on every subsequent read.
type fakeConn struct {
	mu      sync.Mutex
	lines   []string
	pos     int
	closed  bool
	written []string
}

func (c *fakeConn) ReadLine() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pos >= len(c.lines) {
		return "", io.EOF
	}
	line := c.lines[c.pos]
	c.pos++
	return line, nil
}

func (c *fakeConn) Write(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, line)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// fakeDialer returns conns in sequence, or an error once exhausted.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	pos   int
}

func (d *fakeDialer) Dial() (supervisor.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pos >= len(d.conns) {
		return nil, io.ErrClosedPipe
	}
	c := d.conns[d.pos]
	d.pos++
	return c, nil
}

func TestSupervisorEmitsTCPLineAsNetEvent(t *testing.T) {
	conn := &fakeConn{lines: []string{"open front-door"}}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	var mu sync.Mutex
	var emitted [][]string
	emit := func(tokens ...string) {
		mu.Lock()
		defer mu.Unlock()
		emitted = append(emitted, tokens)
	}

	sup := &supervisor.Supervisor{
		Name:    []string{"front-door"},
		Kind:    supervisor.KindTCP,
		Dialer:  dialer,
		Backoff: 10 * std_time.Millisecond,
		Emit:    emit,
		Clock:   cage_time.RealClock{},
		Log:     cage_testkit.NewZapLogger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*std_time.Millisecond)
	defer cancel()
	sup.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, emitted, []string{"net", "front-door", "open", "front-door"})
}

func TestSupervisorEmitsConnectAndDisconnectWithComponentFirst(t *testing.T) {
	conn := &fakeConn{lines: []string{}}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	var mu sync.Mutex
	var emitted [][]string
	emit := func(tokens ...string) {
		mu.Lock()
		defer mu.Unlock()
		emitted = append(emitted, tokens)
	}

	sup := &supervisor.Supervisor{
		Name:      []string{"front-door"},
		Kind:      supervisor.KindTCP,
		Component: "net",
		Dialer:    dialer,
		Backoff:   10 * std_time.Millisecond,
		Emit:      emit,
		Clock:     cage_time.RealClock{},
		Log:       cage_testkit.NewZapLogger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*std_time.Millisecond)
	defer cancel()
	sup.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, emitted, []string{"net", "connect", "front-door"})
	require.Contains(t, emitted, []string{"net", "disconnect", "front-door"})
}

func TestSupervisorBacksOffAndReconnectsAfterDisconnect(t *testing.T) {
	first := &fakeConn{lines: []string{"ping"}}
	second := &fakeConn{lines: []string{"ping"}}
	dialer := &fakeDialer{conns: []*fakeConn{first, second}}

	emit := func(tokens ...string) {}

	sup := &supervisor.Supervisor{
		Name:    []string{"thermostat"},
		Kind:    supervisor.KindTCP,
		Dialer:  dialer,
		Backoff: 10 * std_time.Millisecond,
		Emit:    emit,
		Clock:   cage_time.RealClock{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		dialer.mu.Lock()
		defer dialer.mu.Unlock()
		return dialer.pos >= 2
	}, std_time.Second, 5*std_time.Millisecond)

	cancel()
	<-done
}

func TestSupervisorDialFailureBacksOffWithoutPanic(t *testing.T) {
	dialer := &fakeDialer{} // every Dial() fails

	sup := &supervisor.Supervisor{
		Name:    []string{"broken"},
		Kind:    supervisor.KindTCP,
		Dialer:  dialer,
		Backoff: 5 * std_time.Millisecond,
		Emit:    func(tokens ...string) {},
		Clock:   cage_time.RealClock{},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*std_time.Millisecond)
	defer cancel()
	sup.Run(ctx)

	require.Equal(t, supervisor.Disconnected, sup.State())
}
