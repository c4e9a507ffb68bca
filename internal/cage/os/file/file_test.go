// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package file_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	cage_file "github.com/codeactual/homevent/internal/cage/os/file"
)

func TestExistsTrueAndFalse(t *testing.T) {
	dir, err := ioutil.TempDir("", "cage-file-test")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	present := filepath.Join(dir, "present.txt")
	require.NoError(t, ioutil.WriteFile(present, []byte("x"), 0600))

	ok, fi, err := cage_file.Exists(present)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, fi)

	ok, fi, err = cage_file.Exists(filepath.Join(dir, "absent.txt"))
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, fi)
}

func TestAppendStringCreatesThenAppends(t *testing.T) {
	dir, err := ioutil.TempDir("", "cage-file-test")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "log.txt")
	require.NoError(t, cage_file.AppendString(path, "first\n"))
	require.NoError(t, cage_file.AppendString(path, "second\n"))

	content, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first\nsecond\n", string(content))
}

func TestCreateFileAllMakesIntermediateDirs(t *testing.T) {
	dir, err := ioutil.TempDir("", "cage-file-test")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "a", "b", "c.txt")
	f, err := cage_file.CreateFileAll(path, os.O_WRONLY, 0600, 0755)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ok, _, err := cage_file.Exists(path)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReaddirListsEntries(t *testing.T) {
	dir, err := ioutil.TempDir("", "cage-file-test")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "one.txt"), []byte("x"), 0600))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "two.txt"), []byte("x"), 0600))

	files, err := cage_file.Readdir(dir, -1)
	require.NoError(t, err)
	require.Len(t, files, 2)
}
