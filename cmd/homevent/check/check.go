// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Sub-command check validates one or more config files without starting the
// daemon: it reads, merges, and finalizes them exactly as the root command
// would, reporting any validation error.
//
// Usage:
//
//	homevent check config.yaml [config2.yaml ...]
package check

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeactual/homevent/internal/homevent"
)

// NewCommand returns the "check" sub-command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check CONFIG [CONFIG ...]",
		Short: "Validate config files without starting the daemon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := homevent.ReadConfigFiles(args)
			if err != nil {
				return err
			}
			fmt.Printf("config OK: %d endpoint(s) declared\n", len(cfg.Endpoint))
			return nil
		},
	}
}
