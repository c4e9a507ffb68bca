// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeactual/homevent/internal/homevent"
)

func TestPatternMatchesRequiresExactLength(t *testing.T) {
	p := homevent.CompilePattern("net", "recv", "*")
	require.False(t, p.Matches([]string{"net", "recv"}))
	require.False(t, p.Matches([]string{"net", "recv", "a", "b"}))
	require.True(t, p.Matches([]string{"net", "recv", "a"}))
}

func TestPatternBindPositionalWildcard(t *testing.T) {
	p := homevent.CompilePattern("net", "recv", "*")
	ctx := homevent.NewContext()
	require.NoError(t, p.Bind([]string{"net", "recv", "deadbeef"}, ctx))

	v, ok := ctx.GetString("1")
	require.True(t, ok)
	require.Equal(t, "deadbeef", v)
}

func TestPatternBindNamedWildcard(t *testing.T) {
	p := homevent.CompilePattern("net", "recv", "*payload")
	ctx := homevent.NewContext()
	require.NoError(t, p.Bind([]string{"net", "recv", "deadbeef"}, ctx))

	v, ok := ctx.GetString("payload")
	require.True(t, ok)
	require.Equal(t, "deadbeef", v)
}

func TestPatternBindFailsOnLengthMismatch(t *testing.T) {
	p := homevent.CompilePattern("net", "recv", "*")
	ctx := homevent.NewContext()
	err := p.Bind([]string{"net", "recv"}, ctx)
	require.Equal(t, homevent.BadArgCountError{}, err)
}

func TestPatternBindFailsOnLiteralMismatch(t *testing.T) {
	p := homevent.CompilePattern("net", "recv", "*")
	ctx := homevent.NewContext()
	err := p.Bind([]string{"net", "send", "x"}, ctx)
	require.Equal(t, homevent.BadArgsError{Expected: "recv", Got: "send"}, err)
}

func TestPatternMixedWildcardPositions(t *testing.T) {
	p := homevent.CompilePattern("*", "open", "*door")
	ctx := homevent.NewContext()
	require.NoError(t, p.Bind([]string{"net", "open", "front"}, ctx))

	v, ok := ctx.GetString("1")
	require.True(t, ok)
	require.Equal(t, "net", v)

	v, ok = ctx.GetString("door")
	require.True(t, ok)
	require.Equal(t, "front", v)
}
