// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package strings collects small string/slice helpers shared by tests and
// callers across the module.
package strings

// SliceOfSlice returns its arguments collected into a [][]string literal.
// It exists so table-driven tests can build expected [][]string values
// inline without repeating the literal syntax at every case.
func SliceOfSlice(slices ...[]string) [][]string {
	return slices
}
