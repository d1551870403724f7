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

// Package ingest determines the type of HTS files and opens them as
// record streams.
package ingest

import (
	"io"

	"github.com/exascience/htstools/fastx"
	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/sam"
)

// Open detects the type of a file and returns a record stream for it.
// The stream implements hts.AlignmentSource for SAM and BAM files.
func Open(path string) (hts.RecordStream, error) {
	fileType, empty, err := detect(path)
	if err != nil {
		return nil, err
	}
	if empty {
		return &emptyStream{fileType: fileType}, nil
	}
	switch fileType.Format {
	case hts.FASTA, hts.FASTQ:
		return fastx.Open(path, fileType)
	default:
		return sam.Open(path, fileType)
	}
}

// emptyStream is the stream of a file without payload.
type emptyStream struct {
	fileType hts.FileType
}

func (*emptyStream) Next() (hts.Record, error) { return nil, io.EOF }

func (s *emptyStream) FileType() hts.FileType { return s.fileType }

func (*emptyStream) RawHeader() []byte { return nil }

func (*emptyStream) Close() error { return nil }
