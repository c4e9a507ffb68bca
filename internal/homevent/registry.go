// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import (
	"sort"
	"sync"
)

// Priority bounds and reserved slots, per spec.md §4.B.
const (
	// MinPrio and MaxPrio bound the ordinary, unlimited-occupancy priority
	// range. Handlers register ascending: lower runs first.
	MinPrio = 1
	MaxPrio = 100

	// SysPrioLogger is a reserved slot below MinPrio for the system logger
	// handler; it may hold exactly one handler.
	SysPrioLogger = 0

	// SysPrioShutdown is a reserved slot above MaxPrio for the shutdown
	// handler; it may hold exactly one handler.
	SysPrioShutdown = 101
)

// reserved reports whether prio falls outside the ordinary range and so is
// subject to the one-handler-per-slot rule.
func reserved(prio int) bool {
	return prio < MinPrio || prio > MaxPrio
}

// Registry tracks the handlers registered against every priority. Ascending
// priority order is the dispatch order; within a priority, handlers run in
// registration order.
type Registry struct {
	mu       sync.Mutex
	byPrio   map[int][]*Handler
	byID     map[uint64]*Handler
	byName   map[string]*Handler
	sequence uint64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byPrio: make(map[int][]*Handler),
		byID:   make(map[uint64]*Handler),
		byName: make(map[string]*Handler),
	}
}

// Register adds h to the registry. It fails with ErrReservedPrioTaken if
// h.Prio is a reserved slot that already holds a handler, regardless of
// insertion order (spec.md §9, resolved in SPEC_FULL.md).
func (r *Registry) Register(h *Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reserved(h.Prio) && len(r.byPrio[h.Prio]) > 0 {
		return ErrReservedPrioTaken
	}

	r.sequence++
	h.sequence = r.sequence
	r.byPrio[h.Prio] = append(r.byPrio[h.Prio], h)
	r.byID[h.ID] = h
	if h.Name != "" {
		r.byName[h.Name] = h
	}
	return nil
}

// Unregister removes h. It is a no-op if h was never registered.
func (r *Registry) Unregister(h *Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked(h)
}

func (r *Registry) unregisterLocked(h *Handler) {
	bucket := r.byPrio[h.Prio]
	for i, cand := range bucket {
		if cand == h {
			r.byPrio[h.Prio] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(r.byPrio[h.Prio]) == 0 {
		delete(r.byPrio, h.Prio)
	}
	delete(r.byID, h.ID)
	if h.Name != "" {
		delete(r.byName, h.Name)
	}
}

// UnregisterByID removes the handler with the given id, if any. It reports
// whether a handler was found and removed.
func (r *Registry) UnregisterByID(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[id]
	if !ok {
		return false
	}
	r.unregisterLocked(h)
	return true
}

// UnregisterByName removes the handler with the given display name, if any.
func (r *Registry) UnregisterByName(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byName[name]
	if !ok {
		return false
	}
	r.unregisterLocked(h)
	return true
}

// ByID returns the handler registered under id, if any.
func (r *Registry) ByID(id uint64) (*Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[id]
	return h, ok
}

// ByName returns the handler registered under the given display name.
func (r *Registry) ByName(name string) (*Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byName[name]
	return h, ok
}

// Snapshot returns every registered handler in dispatch order: ascending
// priority, then ascending registration sequence within a priority. The
// slice is a stable copy; later registrations/unregistrations do not affect
// a sequence already captured (spec.md §5, "snapshot-then-run").
func (r *Registry) Snapshot() []*Handler {
	r.mu.Lock()
	defer r.mu.Unlock()

	prios := make([]int, 0, len(r.byPrio))
	for p := range r.byPrio {
		prios = append(prios, p)
	}
	sort.Ints(prios)

	out := make([]*Handler, 0, len(r.byID))
	for _, p := range prios {
		bucket := r.byPrio[p]
		cp := make([]*Handler, len(bucket))
		copy(cp, bucket)
		sort.SliceStable(cp, func(i, j int) bool { return cp[i].sequence < cp[j].sequence })
		out = append(out, cp...)
	}
	return out
}

// List returns every registered handler in the same order as Snapshot; it
// is Snapshot under another name, so the result is likewise a fresh copy.
func (r *Registry) List() []*Handler {
	return r.Snapshot()
}

// Len reports the number of currently registered handlers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
