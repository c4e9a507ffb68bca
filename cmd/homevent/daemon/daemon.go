// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package daemon implements the root command: read the given config files,
// start the Connection Supervisor for every configured endpoint, and block
// until a signal requests shutdown (spec.md §6).
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/codeactual/homevent/internal/console"
	"github.com/codeactual/homevent/internal/homevent"

	tp_time "github.com/codeactual/homevent/internal/third_party/blog.sgmansfield.com/time"

	cage_time "github.com/codeactual/homevent/internal/cage/time"
)

// Flags holds the root command's bound flag/arg values.
type Flags struct {
	TraceLevel string
	Stack      bool
	Console    bool
}

// NewCommand returns the root cobra.Command.
//
// It implements the exact CLI contract of original_source/scripts/
// daemon.py: "-t"/"--trace" names a level (or NONE to disable tracing),
// "-s"/"--stack" adds stack traces to logged errors, and one or more
// positional config file paths are required.
func NewCommand() *cobra.Command {
	f := &Flags{}

	cmd := &cobra.Command{
		Use:   "homevent CONFIG [CONFIG ...]",
		Short: "Run the home automation event daemon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args)
		},
	}

	cmd.Flags().StringVarP(&f.TraceLevel, "trace", "t", "INFO", "minimum level to log (TRACE, DEBUG, INFO, WARN, ERROR, PANIC, NONE)")
	cmd.Flags().BoolVarP(&f.Stack, "stack", "s", false, "attach a stack trace to every logged error")
	cmd.Flags().BoolVar(&f.Console, "console", false, "show the interactive dashboard instead of logging to stdout")

	return cmd
}

func buildLogger(f *Flags) (*zap.Logger, homevent.Level, error) {
	level, none, err := homevent.ParseLevel(f.TraceLevel)
	if err != nil {
		return nil, 0, err
	}

	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = !f.Stack
	switch {
	case none:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InvalidLevel)
	case level <= homevent.LevelDebug:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case level == homevent.LevelInfo:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case level == homevent.LevelWarn:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	default:
		// PANIC entries are written at zap's Error level (see logAt).
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to build logger")
	}
	return log, level, nil
}

func run(ctx context.Context, f *Flags, configPaths []string) error {
	log, _, err := buildLogger(f)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := homevent.ReadConfigFiles(configPaths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read config: %s\n", err)
		os.Exit(1)
	}

	rt := homevent.NewRuntime(log, cage_time.RealClock{})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := homevent.StartEndpoints(runCtx, rt, cfg.Endpoint); err != nil {
		return errors.Wrap(err, "failed to start configured endpoints")
	}

	var dash *console.Dashboard
	if f.Console {
		dash = console.NewDashboard(log)
		dash.Init()
		rt.EventObserver = func(ev *homevent.Event) {
			tokens := ev.Tokens()
			isErr := len(tokens) > 0 && tokens[0] == "error"
			dash.PushEvent(console.EventRow{At: rt.Clock.Now(), Tokens: tokens, IsError: isErr})
		}
		go func() {
			<-dash.ExitCh()
			cancel()
			os.Exit(0)
		}()
		go func() {
			if runErr := dash.Start(); runErr != nil {
				log.Error("dashboard exited with an error", zap.Error(runErr))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP)

	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGINT:
				log.Info("received SIGINT, stopping")
				cancel()
				os.Exit(0)
			case syscall.SIGQUIT:
				log.Info("received SIGQUIT, shutting down immediately")
				os.Exit(0)
			case syscall.SIGHUP:
				log.Info("received SIGHUP, re-reading config")
				newCfg, err := homevent.ReadConfigFiles(configPaths)
				if err != nil {
					log.Error("failed to re-read config", zap.Error(err))
					continue
				}
				cfg = newCfg
				log.Info("config re-read successfully; endpoint changes require a restart to take effect")
			}
		}
	}()

	tp_time.SleepForever()
	return nil
}
