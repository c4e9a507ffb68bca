// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package structs adds small struct-to-map conveniences on top of
// github.com/fatih/structs, used to flatten configuration structs into
// plain string maps for merging (e.g. into a child process environment).
package structs

import (
	"fmt"
	"strings"

	"github.com/fatih/structs"
)

// MergeMode selects how Merge treats a key already present in dst.
type MergeMode int

const (
	// MergeModeCombine keeps dst's existing value for any key already
	// present, adding only keys dst does not yet have.
	MergeModeCombine MergeMode = iota

	// MergeModeOverwrite replaces dst's existing value for any key also
	// present in a later source.
	MergeModeOverwrite
)

// Merge flattens each of srcs (a map[string]string or any struct value
// accepted by structs.Map) into dst, applying mode to decide precedence
// between dst and each source in order. Struct field names are lower-cased
// to match the lowercase convention config files use (mapstructure/viper
// limitation: https://github.com/spf13/viper/issues/411).
func Merge(mode MergeMode, dst map[string]string, srcs ...interface{}) map[string]string {
	if dst == nil {
		dst = make(map[string]string)
	}

	for _, src := range srcs {
		var flat map[string]interface{}

		switch v := src.(type) {
		case map[string]string:
			flat = make(map[string]interface{}, len(v))
			for k, val := range v {
				flat[k] = val
			}
		default:
			flat = structs.Map(src)
		}

		for k, v := range flat {
			key := strings.ToLower(k)
			if mode == MergeModeCombine {
				if _, exists := dst[key]; exists {
					continue
				}
			}
			dst[key] = fmt.Sprint(v)
		}
	}

	return dst
}
