// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package homevent contains the cmd/homevent CLI, the internal/homevent
// event dispatcher and statement runtime, the internal/supervisor
// connection manager, the internal/console dashboard, and the internal
// "standard library" (internal/cage/*, internal/third_party/*) shared
// across them.
package homevent

// expand godoc content for the base import path
import (
	_ "github.com/codeactual/homevent/cmd/homevent/check"
	_ "github.com/codeactual/homevent/cmd/homevent/daemon"
	_ "github.com/codeactual/homevent/internal/console"
	_ "github.com/codeactual/homevent/internal/homevent"
	_ "github.com/codeactual/homevent/internal/supervisor"
)
