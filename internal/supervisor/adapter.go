// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package supervisor

import (
	"bufio"
	"os"
	"os/exec"
	"syscall"

	"github.com/kr/pty"
	"github.com/pkg/errors"

	cage_shell "github.com/codeactual/homevent/internal/cage/shell"
)

// AdapterDialer spawns Command as a child process on every Dial call,
// connected through a pseudo-terminal rather than plain pipes: a real
// terminal defeats the child's libc line-buffering, which otherwise would
// make the "no output for N seconds" wedge detector in Supervisor.serve fire
// on perfectly healthy adapters that just haven't flushed yet (spec.md
// §4.H).
type AdapterDialer struct {
	Command string
	Env     []string
	Dir     string
}

// Dial implements Dialer.
func (d AdapterDialer) Dial() (Conn, error) {
	stages, err := cage_shell.Parse(d.Command)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse adapter command [%s]", d.Command)
	}
	if len(stages) != 1 {
		return nil, errors.Errorf("adapter command [%s] must not contain a pipeline", d.Command)
	}
	argv := stages[0]
	if len(argv) == 0 {
		return nil, errors.Errorf("adapter command [%s] is empty", d.Command)
	}

	cmd := exec.Command(argv[0], argv[1:]...) // #nosec G204
	cmd.Dir = d.Dir
	cmd.Env = append(append([]string{}, os.Environ()...), d.Env...)

	f, err := pty.Start(cmd)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start adapter process [%s]", d.Command)
	}

	return &adapterConn{cmd: cmd, f: f, r: bufio.NewScanner(f)}, nil
}

// adapterConn wraps an external adapter process's pty master fd as a Conn,
// plus the Killer extension used for wedge recovery.
type adapterConn struct {
	cmd *exec.Cmd
	f   *os.File
	r   *bufio.Scanner
}

// ReadLine implements Conn.
func (a *adapterConn) ReadLine() (string, error) {
	if !a.r.Scan() {
		if err := a.r.Err(); err != nil {
			return "", errors.WithStack(err)
		}
		return "", errors.Wrap(errNetClosed, "adapter process closed its output")
	}
	return a.r.Text(), nil
}

// Write implements Conn.
func (a *adapterConn) Write(line string) error {
	_, err := a.f.WriteString(line + "\n")
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Close implements Conn.
func (a *adapterConn) Close() error {
	_ = a.f.Close()
	if a.cmd.Process == nil {
		return nil
	}
	return a.cmd.Process.Signal(syscall.SIGTERM)
}

// Kill implements Killer, used when the process has stopped producing
// output within the configured timeout ("wedged" per spec.md §4.H).
func (a *adapterConn) Kill() error {
	_ = a.f.Close()
	if a.cmd.Process == nil {
		return nil
	}
	return a.cmd.Process.Signal(syscall.SIGKILL)
}
