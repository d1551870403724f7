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

// Format is a container format for HTS records.
type Format int

// Supported formats.
const (
	UnknownFormat Format = iota
	FASTA
	FASTQ
	SAM
	BAM
)

func (f Format) String() string {
	switch f {
	case FASTA:
		return "FASTA"
	case FASTQ:
		return "FASTQ"
	case SAM:
		return "SAM"
	case BAM:
		return "BAM"
	default:
		return "unknown"
	}
}

// IsAlignment reports whether the format carries alignment records.
func (f Format) IsAlignment() bool { return f == SAM || f == BAM }

// Compression is the outer compression layer of a file.
type Compression int

// Detected compression layers.
const (
	Uncompressed Compression = iota
	Gzip
	BGZF
	Bzip2
	XZ
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case BGZF:
		return "bgzf"
	case Bzip2:
		return "bzip2"
	case XZ:
		return "xz"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

// FileType is the result of format detection.
type FileType struct {
	Format      Format
	Compression Compression
}

// String describes the file type, for example "Compressed FASTQ".
// BAM is always BGZF-compressed and is reported as just "BAM".
func (t FileType) String() string {
	if t.Compression == Uncompressed || t.Format == BAM {
		return t.Format.String()
	}
	return "Compressed " + t.Format.String()
}
