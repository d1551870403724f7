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

// Package hts defines the record model shared by all readers and
// consumers: the closed set of record kinds, the streaming interface
// that produces them, the detected file type, and the error kinds
// reported by every operation.
//
// Consumers are expected to type-switch over *SequenceRecord and
// *AlignmentRecord. Records are immutable once returned by a stream
// and must not be retained beyond the processing step that receives
// them, except for their Raw bytes, which are owned by the record.
package hts
