// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package supervisor

import (
	"bufio"
	std_net "net"

	"github.com/pkg/errors"
)

// tcpConn adapts a net.Conn to the line-oriented Conn contract: the TCP
// client/server line protocol is newline-delimited tokens, whitespace
// separated, per spec.md §4.H ("tokens dispatched as (net, *name, *tokens)").
type tcpConn struct {
	conn std_net.Conn
	r    *bufio.Scanner
}

func newTCPConn(c std_net.Conn) *tcpConn {
	return &tcpConn{conn: c, r: bufio.NewScanner(c)}
}

// ReadLine implements Conn.
func (t *tcpConn) ReadLine() (string, error) {
	if !t.r.Scan() {
		if err := t.r.Err(); err != nil {
			return "", errors.WithStack(err)
		}
		return "", errors.Wrap(errNetClosed, "connection closed")
	}
	return t.r.Text(), nil
}

// Write implements Conn.
func (t *tcpConn) Write(line string) error {
	_, err := t.conn.Write([]byte(line + "\n"))
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Close implements Conn.
func (t *tcpConn) Close() error {
	return t.conn.Close()
}

var errNetClosed = errors.New("net: read on closed connection")

// TCPClientDialer connects out to Addr on every Dial call.
type TCPClientDialer struct {
	Addr string
}

// Dial implements Dialer.
func (d TCPClientDialer) Dial() (Conn, error) {
	c, err := std_net.Dial("tcp", d.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", d.Addr)
	}
	return newTCPConn(c), nil
}

// TCPServerDialer listens once on Addr and hands out one Conn per accepted
// client. A Dial call blocks until a client connects.
type TCPServerDialer struct {
	Addr     string
	listener std_net.Listener
}

// Listen opens the listening socket. It must be called once before the
// first Dial.
func (d *TCPServerDialer) Listen() error {
	l, err := std_net.Listen("tcp", d.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", d.Addr)
	}
	d.listener = l
	return nil
}

// Dial implements Dialer: it accepts the next client connection.
func (d *TCPServerDialer) Dial() (Conn, error) {
	if d.listener == nil {
		if err := d.Listen(); err != nil {
			return nil, err
		}
	}
	c, err := d.listener.Accept()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to accept connection on %s", d.Addr)
	}
	return newTCPConn(c), nil
}

// Close stops listening for new clients.
func (d *TCPServerDialer) Close() error {
	if d.listener == nil {
		return nil
	}
	return d.listener.Close()
}
