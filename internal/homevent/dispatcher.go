// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	cage_zap "github.com/codeactual/homevent/internal/cage/log/zap"
)

// DispatchOption configures a single Dispatch call.
type DispatchOption func(*dispatchOpts)

type dispatchOpts struct {
	swallowErrors bool
}

// SwallowErrors makes Dispatch report success even when a handler raises a
// non-Halt error, after the failure pipeline has run. It mirrors the
// "swallow-errors" modifier named in spec.md §5.
func SwallowErrors() DispatchOption {
	return func(o *dispatchOpts) { o.swallowErrors = true }
}

// Dispatcher matches an Event against the Worker Registry's current
// snapshot and runs the resulting WorkSequence. A second, reserved path
// (submitFailure) runs only error-consumer handlers and always swallows its
// own errors, so a broken error handler cannot recurse into itself forever
// (spec.md §5).
type Dispatcher struct {
	rt *Runtime
}

// NewDispatcher returns a Dispatcher bound to rt's Registry.
func NewDispatcher(rt *Runtime) *Dispatcher {
	return &Dispatcher{rt: rt}
}

// Dispatch snapshots the registry, matches ev against every handler's
// pattern, and runs the matches as a WorkSequence under ctx. A HaltSequence
// raised by any handler stops the sequence and counts as success. Any
// other error raised by a handler stops the sequence, is reported to the
// failure pipeline as an ExceptionEvent, and is returned to the caller
// unless SwallowErrors was given.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event, opts ...DispatchOption) error {
	o := &dispatchOpts{}
	for _, fn := range opts {
		fn(o)
	}

	if d.rt.EventObserver != nil {
		d.rt.EventObserver(ev)
	}

	matched := d.match(ev)
	ws := NewWorkSequence(matched)

	rc := &RunContext{
		Ctx:   ctx,
		Vars:  NewContext(),
		RT:    d.rt,
		Event: ev,
	}

	_, err := ws.Run(rc)
	if err == nil {
		return nil
	}

	d.rt.Log.Debug("work sequence raised an error", zap.Error(err), cage_zap.Tag("dispatch"))
	d.submitFailure(ctx, err, ev)

	if o.swallowErrors {
		return nil
	}
	return errors.Wrapf(err, "dispatch of %s failed", ev.String())
}

// match returns every currently registered handler whose pattern matches
// ev's tokens, in dispatch order.
func (d *Dispatcher) match(ev *Event) []*Handler {
	snapshot := d.rt.Registry.Snapshot()
	tokens := ev.Tokens()
	out := make([]*Handler, 0, len(snapshot))
	for _, h := range snapshot {
		if h.ErrorConsumer {
			continue
		}
		if h.Matches(tokens) {
			out = append(out, h)
		}
	}
	return out
}

// submitFailure builds an ExceptionEvent from err (and the event being
// processed when it occurred) and runs it through only the error-consumer
// handlers. Unlike an ordinary WorkSequence, every matching error-consumer
// is an independent observer of the same failure rather than a pipeline
// stage, so they run concurrently via errgroup instead of one at a time;
// this lets the failure pipeline run alongside whatever else the runtime is
// doing without one slow/broken consumer delaying the others (spec.md §5).
// It always swallows any error a failure handler itself raises: a broken
// error handler must not be able to cascade.
func (d *Dispatcher) submitFailure(ctx context.Context, err error, within *Event) {
	exc := NewExceptionEvent(err, within)

	snapshot := d.rt.Registry.Snapshot()
	tokens := exc.Tokens()
	var consumers []*Handler
	for _, h := range snapshot {
		if h.ErrorConsumer && h.Matches(tokens) {
			consumers = append(consumers, h)
		}
	}
	if len(consumers) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range consumers {
		h := h
		g.Go(func() error {
			rc := &RunContext{
				Ctx:   gctx,
				Vars:  NewContext(),
				RT:    d.rt,
				Event: exc.Event,
			}
			rc.Vars.Set(CtxError, exc.Err)

			if bindErr := h.Pattern.Bind(tokens, rc.Vars); bindErr != nil {
				return bindErr
			}
			return h.Body.Run(rc)
		})
	}

	if runErr := g.Wait(); runErr != nil && runErr != ErrHaltSequence {
		d.rt.Log.Error("failure pipeline handler raised an error; swallowing",
			zap.Error(runErr), cage_zap.Tag("dispatch", "failure-pipeline"))
	}
}
