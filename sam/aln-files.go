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

package sam

import (
	"fmt"
	"io"

	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/internal"
)

// Open a SAM or BAM file for input. The file type is normally
// determined by the ingest package.
func Open(path string, fileType hts.FileType) (hts.AlignmentSource, error) {
	switch fileType.Format {
	case hts.BAM:
		if fileType.Compression != hts.BGZF {
			return nil, &hts.UnsupportedFormatError{Path: path, Reason: "BAM data must be BGZF-compressed"}
		}
		return openBam(path)
	case hts.SAM:
		return openSam(path, fileType)
	default:
		return nil, &hts.UnsupportedFormatError{Path: path, Reason: fmt.Sprintf("%v is not an alignment format", fileType)}
	}
}

type (
	// recordWriter is a common interface for writing both SAM and BAM
	// records in their stored representation.
	recordWriter interface {
		WriteRecord(raw []byte) error
		io.Closer
	}

	// OutputFile represents a SAM or BAM file for output. Nothing is
	// visible under the final name before Commit succeeds.
	OutputFile struct {
		path   string
		file   *internal.AtomicFile
		writer recordWriter
		closed bool
	}
)

// Create a SAM or BAM file for output in the same representation as the
// given input file type. The header is written verbatim.
//
// Compressed SAM output is not supported.
func Create(path string, fileType hts.FileType, header []byte) (*OutputFile, error) {
	switch {
	case fileType.Format == hts.BAM:
	case fileType.Format == hts.SAM && fileType.Compression == hts.Uncompressed:
	default:
		return nil, &hts.UnsupportedFormatError{Path: path, Reason: fmt.Sprintf("cannot write %v", fileType)}
	}
	file, err := internal.CreateAtomic(path)
	if err != nil {
		return nil, &hts.IOError{Op: "create", Path: path, Err: err}
	}
	var writer recordWriter
	if fileType.Format == hts.BAM {
		writer, err = newBamWriter(file, header)
	} else {
		writer, err = newSamWriter(file, header)
	}
	if err != nil {
		file.Abort()
		return nil, &hts.IOError{Op: "write", Path: path, Err: err}
	}
	return &OutputFile{path: path, file: file, writer: writer}, nil
}

// Write a record. The record must come from an input of the same
// format as the output.
func (f *OutputFile) Write(rec *hts.AlignmentRecord) error {
	if err := f.writer.WriteRecord(rec.Raw); err != nil {
		return &hts.IOError{Op: "write", Path: f.path, Err: err}
	}
	return nil
}

// Commit flushes all pending output and moves the file to its final
// name.
func (f *OutputFile) Commit() error {
	f.closed = true
	if err := f.writer.Close(); err != nil {
		f.file.Abort()
		return &hts.IOError{Op: "write", Path: f.path, Err: err}
	}
	if err := f.file.Commit(); err != nil {
		return &hts.IOError{Op: "commit", Path: f.path, Err: err}
	}
	return nil
}

// Abort discards the output. It is a no-op after a successful Commit.
func (f *OutputFile) Abort() {
	if f.closed {
		return
	}
	f.closed = true
	_ = f.writer.Close()
	f.file.Abort()
}
