// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command homevent runs the event-driven home automation daemon.
//
// Usage:
//
//	homevent [-t LEVEL] [-s] config.yaml [config2.yaml ...]
//	homevent check config.yaml [config2.yaml ...]
package main

import (
	"github.com/pkg/errors"

	"github.com/codeactual/homevent/cmd/homevent/check"
	"github.com/codeactual/homevent/cmd/homevent/daemon"
)

func main() {
	rootCmd := daemon.NewCommand()
	rootCmd.AddCommand(check.NewCommand())
	if err := rootCmd.Execute(); err != nil {
		panic(errors.Wrap(err, "failed to execute command"))
	}
}
