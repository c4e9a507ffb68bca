// Copyright (C) 2020 The boone Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package supervisor

import (
	"encoding/hex"
	std_strconv "strconv"
	"strings"
	std_time "time"

	"github.com/pkg/errors"
)

// AdapterLine is the decoded meaning of one line of external-adapter
// process output, per spec.md §4.H's wire format and
// original_source/modules/fs20tr.py's dataReceived (checked in this same
// order: datagram prefix, then timestamp, then test-mode delay, then
// unknown):
//
//	<prefix><hexpairs> - a datagram: prefix is exactly one character drawn
//	                     from the endpoint's configured prefix set
//	                     (EndpointConfig.DatagramPrefixes), the rest must
//	                     be an even number of hex digits
//	T<float>           - timestamp for the next datagram line (no event)
//	+<seconds> [text]  - a test-mode synthetic delay (no event)
//	anything else      - unrecognized; reported as an "unknown" event
type AdapterLine struct {
	// Timestamp is set (IsTimestamp true) for a "T<float>" line.
	IsTimestamp bool
	Timestamp   float64

	// Delay is set (IsDelay true) for a "+<seconds> [text]" line.
	IsDelay bool
	Delay   std_time.Duration
	Comment string

	// Prefix/Data are set for a successfully decoded datagram line.
	IsDatagram bool
	Prefix     string
	Data       []byte

	// Unknown is set when the line matched none of the above.
	IsUnknown   bool
	UnknownText string
}

// ParseAdapterLine classifies one line of adapter stdout. prefixes is the
// endpoint's configured set of single-character datagram markers
// (EndpointConfig.DatagramPrefixes); an empty set means no line can ever
// classify as a datagram, matching "data[0] in PREFIX" in
// original_source/modules/fs20tr.py when PREFIX is empty.
func ParseAdapterLine(line string, prefixes string) (AdapterLine, error) {
	if line == "" {
		return AdapterLine{}, nil
	}

	if strings.IndexByte(prefixes, line[0]) >= 0 {
		hexPart := line[1:]
		if hexPart == "" {
			return AdapterLine{}, errors.Errorf("empty datagram line %q", line)
		}
		if len(hexPart)%2 != 0 {
			return AdapterLine{}, errors.Errorf("odd hex digit count in datagram line %q", line)
		}
		data, err := hex.DecodeString(hexPart)
		if err != nil {
			return AdapterLine{}, errors.Wrapf(err, "failed to decode datagram line %q", line)
		}
		return AdapterLine{IsDatagram: true, Prefix: line[:1], Data: data}, nil
	}

	if line[0] == 'T' {
		ts, err := std_strconv.ParseFloat(line[1:], 64)
		if err != nil {
			return AdapterLine{}, errors.Wrapf(err, "bad timestamp line %q", line)
		}
		return AdapterLine{IsTimestamp: true, Timestamp: ts}, nil
	}

	if line[0] == '+' {
		rest := line[1:]
		fields := strings.SplitN(rest, " ", 2)
		secs, err := std_strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return AdapterLine{}, errors.Wrapf(err, "bad delay line %q", line)
		}
		al := AdapterLine{IsDelay: true, Delay: std_time.Duration(secs * float64(std_time.Second))}
		if len(fields) > 1 {
			al.Comment = fields[1]
		}
		return al, nil
	}

	return AdapterLine{IsUnknown: true, UnknownText: line}, nil
}
