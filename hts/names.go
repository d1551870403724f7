// htstools: streaming statistics, filtering and interval comparison
// for high-throughput sequencing files.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/htstools/blob/master/LICENSE.txt>.

package hts

import "strings"

// ReadName holds the sequencer metadata encoded in an Illumina read
// name.
type ReadName struct {
	Instrument string
	// FlowCell is only present in Casava 1.8 and later names.
	FlowCell string
}

// ParseReadName extracts sequencer metadata from a read identifier.
//
// Only the part before the first whitespace is considered. It must
// consist of at least 5 colon-separated fields with a non-empty first
// field, the instrument name. Names with exactly 7 fields follow the
// Casava 1.8 layout instrument:run:flowcell:lane:tile:x:y, where the
// third field is the flow cell. Read Archive style names such as
// SRR001666.1 do not match.
func ParseReadName(id string) (rn ReadName, ok bool) {
	if i := strings.IndexAny(id, " \t"); i >= 0 {
		id = id[:i]
	}
	id = strings.TrimPrefix(id, "@")
	fields := strings.Split(id, ":")
	if len(fields) < 5 || fields[0] == "" {
		return ReadName{}, false
	}
	rn.Instrument = fields[0]
	if len(fields) == 7 {
		rn.FlowCell = fields[2]
	}
	return rn, true
}
