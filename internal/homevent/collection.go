// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import "sync"

// Collected is anything a Collection can hold: a live TCP connection, an
// adapter process, a pending timer-as-variable binding, etc. (spec.md
// §4.G). Implementations carry whatever state their owner needs; this
// interface exists only so the registry can enumerate and remove entries
// uniformly.
type Collected interface {
	// CollectedName returns the token suffix this entry is registered
	// under within its Collection (the part of the lookup key after the
	// Collection's own name).
	CollectedName() []string
}

// Collection is a flat, named group of Collected entries, keyed by their
// CollectedName(). The original implementation (original_source/homevent/
// collect.py) allows a Collection to itself be Collected and nest inside
// another Collection to arbitrary depth; in this codebase every declared
// Collection is flat ("net", "adapter", "wait") so that generality is not
// reproduced. See DESIGN.md for the two-level simplification this type and
// CollectionRegistry implement together.
type Collection struct {
	mu      sync.Mutex
	name    string
	entries map[string]Collected
}

func newCollection(name string) *Collection {
	return &Collection{name: name, entries: make(map[string]Collected)}
}

// Name returns the collection's own name token.
func (c *Collection) Name() string { return c.name }

// Add registers entry under its CollectedName.
func (c *Collection) Add(entry Collected) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Name(entry.CollectedName()).Key()] = entry
}

// Remove unregisters the entry previously added under name, if any.
func (c *Collection) Remove(name []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, Name(name).Key())
}

// Get looks up the entry registered under name.
func (c *Collection) Get(name []string) (Collected, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[Name(name).Key()]
	return e, ok
}

// List returns every entry currently in the collection, in no particular
// order.
func (c *Collection) List() []Collected {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Collected, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// CollectionRegistry is the registry-of-registries of spec.md §4.G: a
// top-level lookup by Collection name, found by longest matching token
// prefix of the tokens being resolved, followed by a single lookup of the
// remaining tokens inside that Collection. This collapses the original's
// fully recursive Collection-of-Collections model (collect.py's
// get_collect walks an arbitrary-depth chain) to two levels, since the
// domains this runtime declares ("net", "adapter", "wait") are never
// nested. See DESIGN.md for why that simplification is safe here.
type CollectionRegistry struct {
	mu   sync.Mutex
	subs map[string]*Collection
}

// NewCollectionRegistry returns an empty CollectionRegistry.
func NewCollectionRegistry() *CollectionRegistry {
	return &CollectionRegistry{subs: make(map[string]*Collection)}
}

// Declare creates (or returns the existing) Collection named name.
func (r *CollectionRegistry) Declare(name string) *Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.subs[name]; ok {
		return c
	}
	c := newCollection(name)
	r.subs[name] = c
	return c
}

// Undeclare removes the named Collection entirely.
func (r *CollectionRegistry) Undeclare(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, name)
}

// Resolve finds the Collection whose name is the longest prefix of tokens
// and returns it along with the remaining tokens to look up inside it. It
// fails with NotFoundError if no declared Collection name prefixes tokens.
func (r *CollectionRegistry) Resolve(tokens []string) (*Collection, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *Collection
	bestLen := -1
	for name, c := range r.subs {
		if len(tokens) < 1 || tokens[0] != name {
			continue
		}
		if len(name) > bestLen {
			best = c
			bestLen = len(name)
		}
	}
	if best == nil {
		return nil, nil, NotFoundError{Name: tokens}
	}
	return best, tokens[1:], nil
}

// Collection returns the Collection declared under name, if any, without
// doing a token-prefix resolve.
func (r *CollectionRegistry) Collection(name string) (*Collection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.subs[name]
	return c, ok
}
