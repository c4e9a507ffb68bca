// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import (
	"github.com/go-stack/stack"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Level is one of the six logging levels named throughout spec.md §6. It
// has no zap equivalent for TRACE, so mapping to zap happens explicitly in
// logAt rather than via zapcore.Level conversion.
type Level int

// Logging levels, ordered least to most severe.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelPanic
)

// String renders the level the way the CLI's "-t LEVEL" flag and config
// files spell it.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelPanic:
		return "PANIC"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses the CLI/config spelling of a level, plus "NONE" which
// the CLI's "-t" flag accepts to mean "never trace"
// (original_source/scripts/daemon.py).
func ParseLevel(s string) (level Level, none bool, err error) {
	switch s {
	case "TRACE":
		return LevelTrace, false, nil
	case "DEBUG":
		return LevelDebug, false, nil
	case "INFO":
		return LevelInfo, false, nil
	case "WARN":
		return LevelWarn, false, nil
	case "ERROR":
		return LevelError, false, nil
	case "PANIC":
		return LevelPanic, false, nil
	case "NONE":
		return LevelPanic, true, nil
	default:
		return 0, false, errors.Errorf("unrecognized trace level %q", s)
	}
}

// logAt writes msg at l's mapped zap level, carrying fields through. TRACE
// has no zap equivalent, so it is emitted at zap's Debug level with an
// explicit "level":"TRACE" field so log processors can still distinguish
// it from an ordinary DEBUG line.
func logAt(log *zap.Logger, l Level, msg string, fields ...zap.Field) {
	switch l {
	case LevelTrace:
		log.Debug(msg, append(fields, zap.String("level", "TRACE"))...)
	case LevelDebug:
		log.Debug(msg, fields...)
	case LevelInfo:
		log.Info(msg, fields...)
	case LevelWarn:
		log.Warn(msg, fields...)
	case LevelError:
		log.Error(msg, fields...)
	case LevelPanic:
		log.Error(msg, append(fields, zap.String("level", "PANIC"))...)
	}
}

// stackField captures the caller's stack, trimmed of runtime frames, for
// use when the "-s" flag is enabled; callers attach it alongside zap.Error.
func stackField() zap.Field {
	return zap.Stringer("stack", stack.Trace().TrimRuntime())
}
