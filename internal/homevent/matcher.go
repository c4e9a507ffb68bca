// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import "strconv"

// patternToken is one position in a compiled Pattern: either a literal to
// match verbatim, or a wildcard to capture (positional or named).
type patternToken struct {
	literal  string
	wildcard bool
	name     string // non-empty for "*NAME"; empty for a bare "*"
}

// Pattern is a compiled match template: an exact-length, lockstep sequence
// of literal tokens and wildcards, per spec.md §4.D.
type Pattern struct {
	tokens []patternToken
	raw    []string
}

// CompilePattern builds a Pattern from raw tokens. A token equal to "*" is a
// positional wildcard; a token of the form "*NAME" is a named wildcard;
// anything else is matched literally.
func CompilePattern(tokens ...string) Pattern {
	p := Pattern{raw: append([]string{}, tokens...)}
	pos := 0
	for _, t := range tokens {
		if len(t) >= 1 && t[0] == '*' {
			pos++
			name := t[1:]
			if name == "" {
				name = strconv.Itoa(pos)
			}
			p.tokens = append(p.tokens, patternToken{wildcard: true, name: name})
			continue
		}
		p.tokens = append(p.tokens, patternToken{literal: t})
	}
	return p
}

// Len returns the number of positions in the pattern.
func (p Pattern) Len() int {
	return len(p.tokens)
}

// Raw returns the original token list the pattern was compiled from.
func (p Pattern) Raw() []string {
	return append([]string{}, p.raw...)
}

// Matches reports whether tokens satisfies the pattern: same length, and
// every non-wildcard position matches its literal exactly.
func (p Pattern) Matches(tokens []string) bool {
	if len(tokens) != len(p.tokens) {
		return false
	}
	for i, pt := range p.tokens {
		if !pt.wildcard && pt.literal != tokens[i] {
			return false
		}
	}
	return true
}

// Bind matches tokens against the pattern and, on success, assigns every
// wildcard capture into ctx: a bare "*" that is the n-th wildcard of the
// pattern (1-based, counting named wildcards too) is bound under the
// stringified n, "*NAME" under NAME. Bind fails with
// BadArgCountError on a length mismatch and BadArgsError on the first
// literal mismatch found.
func (p Pattern) Bind(tokens []string, ctx *Context) error {
	if len(tokens) != len(p.tokens) {
		return BadArgCountError{}
	}
	for i, pt := range p.tokens {
		if pt.wildcard {
			ctx.Set(pt.name, tokens[i])
			continue
		}
		if pt.literal != tokens[i] {
			return BadArgsError{Expected: pt.literal, Got: tokens[i]}
		}
	}
	return nil
}
