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

// Package fastx streams FASTA and FASTQ files, plain or compressed, as
// hts.SequenceRecord values.
package fastx

import (
	"errors"
	"io"

	"github.com/shenwei356/bio/seq"
	bfastx "github.com/shenwei356/bio/seqio/fastx"

	"github.com/exascience/htstools/hts"
)

var errEmptyID = errors.New("empty identifier")

// Reader is an hts.RecordStream over a FASTA or FASTQ file.
type Reader struct {
	path     string
	fileType hts.FileType
	reader   *bfastx.Reader
	records  int64
	err      error
}

// Open a FASTA or FASTQ file. Decompression is handled transparently.
func Open(path string, fileType hts.FileType) (*Reader, error) {
	if fileType.Format != hts.FASTA && fileType.Format != hts.FASTQ {
		return nil, &hts.UnsupportedFormatError{Path: path, Reason: fileType.String() + " is not a sequence format"}
	}
	reader, err := bfastx.NewReader(seq.Unlimit, path, bfastx.DefaultIDRegexp)
	if err != nil {
		return nil, &hts.IOError{Op: "open", Path: path, Err: err}
	}
	return &Reader{path: path, fileType: fileType, reader: reader}, nil
}

// Next implements hts.RecordStream. The identifier of a record is the
// first whitespace-delimited token of its header line.
func (r *Reader) Next() (hts.Record, error) {
	if r.err != nil {
		return nil, r.err
	}
	record, err := r.reader.Read()
	if err != nil {
		if err == io.EOF {
			r.err = io.EOF
		} else {
			r.err = &hts.DecodeError{Path: r.path, Record: r.records, Offset: -1, Err: err}
		}
		return nil, r.err
	}
	if len(record.ID) == 0 {
		r.err = &hts.DecodeError{Path: r.path, Record: r.records, Offset: -1, Err: errEmptyID}
		return nil, r.err
	}
	r.records++
	return hts.NewSequenceRecord(string(record.ID), len(record.Seq.Seq), r.fileType.Format == hts.FASTQ), nil
}

// FileType implements hts.RecordStream.
func (r *Reader) FileType() hts.FileType {
	return r.fileType
}

// Close implements hts.RecordStream.
func (r *Reader) Close() error {
	r.reader.Close()
	return nil
}
