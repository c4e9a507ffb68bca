// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package viper adds small conveniences on top of spf13/viper's own API:
// reading one named config file into a viper instance, and merging a
// further file on top of it, each with a clear wrapped error.
package viper

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	std_viper "github.com/spf13/viper"
)

// ReadInConfig points file at name and reads it, inferring the config type
// from the file extension (viper requires SetConfigType when the name has
// no recognized extension).
func ReadInConfig(file *std_viper.Viper, name string) error {
	file.SetConfigFile(name)

	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext != "" {
		file.SetConfigType(ext)
	}

	if err := file.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file [%s]", name)
	}
	return nil
}

// MergeInConfig layers an additional file's keys on top of what file
// already holds, supporting the CLI's "positional config file args" list
// (spec.md §6) where later files extend/override earlier ones.
func MergeInConfig(file *std_viper.Viper, name string) error {
	file.SetConfigFile(name)

	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext != "" {
		file.SetConfigType(ext)
	}

	if err := file.MergeInConfig(); err != nil {
		return errors.Wrapf(err, "failed to merge config file [%s]", name)
	}
	return nil
}
