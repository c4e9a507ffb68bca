// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package structs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	cage_structs "github.com/codeactual/homevent/internal/cage/structs"
)

type envStruct struct {
	Host string
	Port int
}

func TestMergeCombineKeepsExisting(t *testing.T) {
	dst := map[string]string{"host": "original"}
	out := cage_structs.Merge(cage_structs.MergeModeCombine, dst, map[string]string{"host": "overwritten", "port": "1234"})

	require.Equal(t, "original", out["host"])
	require.Equal(t, "1234", out["port"])
}

func TestMergeOverwriteReplacesExisting(t *testing.T) {
	dst := map[string]string{"host": "original"}
	out := cage_structs.Merge(cage_structs.MergeModeOverwrite, dst, map[string]string{"host": "overwritten"})

	require.Equal(t, "overwritten", out["host"])
}

func TestMergeFlattensStructWithLowercasedKeys(t *testing.T) {
	out := cage_structs.Merge(cage_structs.MergeModeCombine, nil, envStruct{Host: "localhost", Port: 8080})

	require.Equal(t, "localhost", out["host"])
	require.Equal(t, "8080", out["port"])
}

func TestMergeNilDstAllocatesMap(t *testing.T) {
	out := cage_structs.Merge(cage_structs.MergeModeCombine, nil, map[string]string{"a": "1"})
	require.NotNil(t, out)
	require.Equal(t, "1", out["a"])
}
