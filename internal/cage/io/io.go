// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package io holds small io.Closer helpers shared by callers that open a
// file/connection in one function and must close it in a deferred call
// where a returned error has nowhere useful to go.
package io

import (
	"fmt"
	"io"
	"os"
)

// CloseOrStderr closes c and, on failure, writes a message to stderr naming
// label (typically the path or connection the closer belongs to) instead of
// returning the error, since callers invoke this from a defer where an
// error return would be discarded anyway.
func CloseOrStderr(c io.Closer, label string) {
	if err := c.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close [%s]: %s\n", label, err)
	}
}
