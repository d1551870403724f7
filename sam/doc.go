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

// Package sam reads and writes SAM and BAM files for record-level
// streaming. See http://samtools.github.io/hts-specs/SAMv1.pdf for the
// format.
//
// Records keep their stored representation, so that a file can be
// filtered without re-encoding the alignments it keeps. BGZF
// decompression of BAM input runs in a pargo pipeline, see
// https://godoc.org/github.com/ExaScience/pargo/pipeline.
package sam
