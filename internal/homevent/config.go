// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent

import (
	std_time "time"

	"github.com/pkg/errors"
	std_viper "github.com/spf13/viper"

	cage_viper "github.com/codeactual/homevent/internal/cage/config/viper"
)

// DefaultReconnectBackoff is used when an EndpointConfig does not set its
// own ReconnectBackoff, mirroring the 5s literal in spec.md §4.H.
const DefaultReconnectBackoff = "5s"

// DefaultDatagramPrefixes is used when an "adapter" EndpointConfig does not
// set its own DatagramPrefixes: "R" (receive) is a single, arbitrary
// default. A real deployment should configure the prefix character(s) its
// adapter protocol actually uses; see DESIGN.md.
const DefaultDatagramPrefixes = "R"

// EndpointConfig declares one Connection Supervisor endpoint: a TCP client,
// a TCP listener, or an external adapter process (spec.md §4.H, expanded in
// SPEC_FULL.md's "4.H Connection Supervisor").
type EndpointConfig struct {
	// Name is the token sequence identifying this endpoint, e.g.
	// ["kitchen"] or ["fs20"]. TCP line events are dispatched as
	// ("net", Name..., tokens...); adapter line events start with Name.
	Name []string

	// Kind is one of "tcp-client", "tcp-server", "adapter".
	Kind string

	// Addr is "host:port", required for tcp-client/tcp-server.
	Addr string

	// Command is the adapter's shell command line, required for "adapter".
	Command string

	// DatagramPrefixes is the set of single-character datagram markers
	// this adapter's wire format uses ("adapter" kind only), threaded into
	// supervisor.Supervisor.DatagramPrefixes and from there into
	// supervisor.ParseAdapterLine; defaults to DefaultDatagramPrefixes.
	DatagramPrefixes string

	// Env holds additional environment variables merged into the adapter
	// process's environment (combined with the process's own environment
	// via MergeModeCombine, so Env never silently overrides an inherited
	// variable of the same name).
	Env map[string]string

	// ReconnectBackoff is a time.Duration string; defaults to
	// DefaultReconnectBackoff.
	ReconnectBackoff string

	reconnectBackoff std_time.Duration
}

// GetReconnectBackoff returns the parsed ReconnectBackoff.
func (e EndpointConfig) GetReconnectBackoff() std_time.Duration {
	return e.reconnectBackoff
}

// GlobalConfig carries process-wide defaults and bounds.
type GlobalConfig struct {
	// TraceLevel is a logging level name, validated by FinalizeConfig and
	// defaulted to "INFO". The daemon's logger does not read it; its level
	// comes from the CLI's "-t" flag only.
	TraceLevel string

	// StackTrace is read from the config file but not consulted by the
	// daemon; stack capture for logged errors follows the CLI's "-s" flag
	// only.
	StackTrace bool

	// ReservedPrioMin/Max are defaulted to MinPrio/MaxPrio when zero and
	// checked for min <= max. The Registry does not read them; it uses the
	// MinPrio/MaxPrio constants.
	ReservedPrioMin int
	ReservedPrioMax int
}

// Config is the root of the process configuration file(s) given as
// positional CLI arguments (spec.md §6). Unlike the script configuration
// language the core statement runtime interprets, this is plain YAML/JSON/
// TOML/etc. read via viper.
type Config struct {
	Global   GlobalConfig
	Endpoint []EndpointConfig
}

// ReadConfigFiles reads and merges every named file in order (later files
// override earlier ones, per spec.md §6's re-read-on-SIGHUP contract) and
// finalizes the result.
func ReadConfigFiles(names []string) (Config, error) {
	if len(names) == 0 {
		return Config{}, errors.New("at least one config file is required")
	}

	file := std_viper.New()
	if err := cage_viper.ReadInConfig(file, names[0]); err != nil {
		return Config{}, err
	}
	for _, name := range names[1:] {
		if err := cage_viper.MergeInConfig(file, name); err != nil {
			return Config{}, err
		}
	}

	var c Config
	if err := file.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrapf(err, "failed to unmarshal config from %v", names)
	}

	if err := FinalizeConfig(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// FinalizeConfig validates and defaults a Config's fields.
func FinalizeConfig(c *Config) error {
	if c.Global.ReservedPrioMin == 0 {
		c.Global.ReservedPrioMin = MinPrio
	}
	if c.Global.ReservedPrioMax == 0 {
		c.Global.ReservedPrioMax = MaxPrio
	}
	if c.Global.ReservedPrioMin > c.Global.ReservedPrioMax {
		return errors.Errorf("global reserved priority min [%d] exceeds max [%d]", c.Global.ReservedPrioMin, c.Global.ReservedPrioMax)
	}
	if c.Global.TraceLevel == "" {
		c.Global.TraceLevel = "INFO"
	}
	if _, _, err := ParseLevel(c.Global.TraceLevel); err != nil {
		return errors.Wrapf(err, "invalid global trace level")
	}

	seen := map[string]bool{}
	for i := range c.Endpoint {
		e := &c.Endpoint[i]

		if len(e.Name) == 0 {
			return errors.New("endpoint is missing a [Name] field")
		}
		key := Name(e.Name).Key()
		if seen[key] {
			return errors.Errorf("endpoint name %v declared more than once", e.Name)
		}
		seen[key] = true

		switch e.Kind {
		case "tcp-client", "tcp-server":
			if e.Addr == "" {
				return errors.Errorf("endpoint %v (%s) is missing an [Addr] field", e.Name, e.Kind)
			}
		case "adapter":
			if e.Command == "" {
				return errors.Errorf("endpoint %v (adapter) is missing a [Command] field", e.Name)
			}
			if e.DatagramPrefixes == "" {
				e.DatagramPrefixes = DefaultDatagramPrefixes
			}
		default:
			return errors.Errorf("endpoint %v has an unrecognized [Kind] %q", e.Name, e.Kind)
		}

		if e.ReconnectBackoff == "" {
			e.ReconnectBackoff = DefaultReconnectBackoff
		}
		d, err := std_time.ParseDuration(e.ReconnectBackoff)
		if err != nil {
			return errors.Wrapf(err, "endpoint %v has an invalid ReconnectBackoff %q", e.Name, e.ReconnectBackoff)
		}
		e.reconnectBackoff = d
	}

	return nil
}
