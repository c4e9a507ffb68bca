// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package homevent_test

import (
	std_time "time"

	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeactual/homevent/internal/homevent"
)

func TestFinalizeConfigDefaultsGlobals(t *testing.T) {
	c := homevent.Config{}
	require.NoError(t, homevent.FinalizeConfig(&c))
	require.Equal(t, homevent.MinPrio, c.Global.ReservedPrioMin)
	require.Equal(t, homevent.MaxPrio, c.Global.ReservedPrioMax)
	require.Equal(t, "INFO", c.Global.TraceLevel)
}

func TestFinalizeConfigRejectsInvertedPrioRange(t *testing.T) {
	c := homevent.Config{Global: homevent.GlobalConfig{ReservedPrioMin: 90, ReservedPrioMax: 10}}
	require.Error(t, homevent.FinalizeConfig(&c))
}

func TestFinalizeConfigRejectsInvalidTraceLevel(t *testing.T) {
	c := homevent.Config{Global: homevent.GlobalConfig{TraceLevel: "LOUD"}}
	require.Error(t, homevent.FinalizeConfig(&c))
}

func TestFinalizeConfigRejectsDuplicateEndpointNames(t *testing.T) {
	c := homevent.Config{Endpoint: []homevent.EndpointConfig{
		{Name: []string{"kitchen"}, Kind: "tcp-client", Addr: "localhost:1234"},
		{Name: []string{"kitchen"}, Kind: "tcp-client", Addr: "localhost:5678"},
	}}
	err := homevent.FinalizeConfig(&c)
	require.Error(t, err)
}

func TestFinalizeConfigRequiresAddrForTCP(t *testing.T) {
	c := homevent.Config{Endpoint: []homevent.EndpointConfig{
		{Name: []string{"kitchen"}, Kind: "tcp-client"},
	}}
	require.Error(t, homevent.FinalizeConfig(&c))
}

func TestFinalizeConfigRequiresCommandForAdapter(t *testing.T) {
	c := homevent.Config{Endpoint: []homevent.EndpointConfig{
		{Name: []string{"fs20"}, Kind: "adapter"},
	}}
	require.Error(t, homevent.FinalizeConfig(&c))
}

func TestFinalizeConfigRejectsUnknownKind(t *testing.T) {
	c := homevent.Config{Endpoint: []homevent.EndpointConfig{
		{Name: []string{"x"}, Kind: "serial"},
	}}
	require.Error(t, homevent.FinalizeConfig(&c))
}

func TestFinalizeConfigDefaultsReconnectBackoff(t *testing.T) {
	c := homevent.Config{Endpoint: []homevent.EndpointConfig{
		{Name: []string{"kitchen"}, Kind: "tcp-client", Addr: "localhost:1234"},
	}}
	require.NoError(t, homevent.FinalizeConfig(&c))
	require.Equal(t, 5*std_time.Second, c.Endpoint[0].GetReconnectBackoff())
}

func TestFinalizeConfigParsesCustomReconnectBackoff(t *testing.T) {
	c := homevent.Config{Endpoint: []homevent.EndpointConfig{
		{Name: []string{"kitchen"}, Kind: "tcp-client", Addr: "localhost:1234", ReconnectBackoff: "10s"},
	}}
	require.NoError(t, homevent.FinalizeConfig(&c))
	require.Equal(t, 10*std_time.Second, c.Endpoint[0].GetReconnectBackoff())
}

func TestReadConfigFilesRequiresAtLeastOneFile(t *testing.T) {
	_, err := homevent.ReadConfigFiles(nil)
	require.Error(t, err)
}
