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
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	hsam "github.com/biogo/hts/sam"
	"github.com/shenwei356/xopen"

	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/utils"
)

// mandatoryFields is the number of tab-separated fields every SAM
// alignment line must have.
const mandatoryFields = 11

// fieldScanner splits a SAM line into tab-separated fields without
// copying.
type fieldScanner struct {
	data  []byte
	index int
}

func (sc *fieldScanner) reset(line []byte) {
	sc.data = line
	sc.index = 0
}

func (sc *fieldScanner) len() int {
	return len(sc.data) - sc.index
}

func (sc *fieldScanner) next() []byte {
	start := sc.index
	if end := bytes.IndexByte(sc.data[start:], '\t'); end >= 0 {
		sc.index = start + end + 1
		return sc.data[start : start+end]
	}
	sc.index = len(sc.data)
	return sc.data[start:]
}

// parseSamAlignment decodes QNAME, FLAG, RNAME and POS from a SAM line.
// The remaining mandatory fields are only counted. See
// http://samtools.github.io/hts-specs/SAMv1.pdf - Section 1.4.
func parseSamAlignment(line, raw []byte) (*hts.AlignmentRecord, error) {
	var sc fieldScanner
	sc.reset(line)
	qname := sc.next()
	flagField := sc.next()
	rname := sc.next()
	posField := sc.next()
	fields := 4
	for sc.len() > 0 && fields < mandatoryFields {
		sc.next()
		fields++
	}
	if fields < mandatoryFields {
		return nil, fmt.Errorf("%v fields, expected at least %v", fields, mandatoryFields)
	}
	if len(qname) == 0 {
		return nil, errors.New("empty QNAME")
	}
	flag, err := strconv.ParseUint(string(flagField), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid FLAG %q: %w", flagField, err)
	}
	pos, err := strconv.ParseInt(string(posField), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid POS %q: %w", posField, err)
	}
	var contig string
	if r := string(rname); r != "*" {
		contig = *utils.Intern(r)
	}
	// SAM positions are 1-based; 0 means no position.
	return hts.NewAlignmentRecord(string(qname), hsam.Flags(flag), contig, int32(pos-1), raw), nil
}

// samReader is an hts.AlignmentSource for a SAM file, optionally
// compressed with any codec xopen understands.
type samReader struct {
	path     string
	fileType hts.FileType
	file     *xopen.Reader
	header   []byte
	line     int64
	records  int64
	err      error
}

func openSam(path string, fileType hts.FileType) (*samReader, error) {
	file, err := xopen.Ropen(path)
	if err != nil {
		return nil, &hts.IOError{Op: "open", Path: path, Err: err}
	}
	reader := &samReader{path: path, fileType: fileType, file: file}
	if err = reader.readHeader(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return reader, nil
}

// readHeader keeps every leading line that starts with '@', including
// line terminators.
func (reader *samReader) readHeader() error {
	var header bytes.Buffer
	for {
		switch data, err := reader.file.Peek(1); {
		case err == io.EOF:
			reader.header = header.Bytes()
			return nil
		case err != nil:
			return &hts.IOError{Op: "read", Path: reader.path, Err: err}
		case data[0] != '@':
			reader.header = header.Bytes()
			return nil
		}
		line, err := reader.file.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return &hts.IOError{Op: "read", Path: reader.path, Err: err}
		}
		reader.line++
		header.Write(line)
		if err == io.EOF {
			reader.header = header.Bytes()
			return nil
		}
	}
}

// Next implements hts.RecordStream. Blank lines are skipped.
func (reader *samReader) Next() (hts.Record, error) {
	if reader.err != nil {
		return nil, reader.err
	}
	for {
		line, err := reader.file.ReadBytes('\n')
		if err != nil && err != io.EOF {
			reader.err = &hts.IOError{Op: "read", Path: reader.path, Err: err}
			return nil, reader.err
		}
		if len(line) == 0 && err == io.EOF {
			reader.err = io.EOF
			return nil, reader.err
		}
		reader.line++
		raw := bytes.TrimSuffix(line, []byte{'\n'})
		fields := bytes.TrimSuffix(raw, []byte{'\r'})
		if len(fields) == 0 {
			if err == io.EOF {
				reader.err = io.EOF
				return nil, reader.err
			}
			continue
		}
		rec, perr := parseSamAlignment(fields, raw)
		if perr != nil {
			reader.err = &hts.DecodeError{Path: reader.path, Record: reader.records, Offset: reader.line, Err: perr}
			return nil, reader.err
		}
		reader.records++
		return rec, nil
	}
}

// FileType implements hts.RecordStream.
func (reader *samReader) FileType() hts.FileType {
	return reader.fileType
}

// RawHeader implements hts.AlignmentSource.
func (reader *samReader) RawHeader() []byte {
	return reader.header
}

// Close the SAM input file.
func (reader *samReader) Close() error {
	if err := reader.file.Close(); err != nil {
		return &hts.IOError{Op: "close", Path: reader.path, Err: err}
	}
	return nil
}

// samWriter writes SAM header and record lines as text.
type samWriter struct {
	out *bufio.Writer
	err error
}

func newSamWriter(w io.Writer, header []byte) (*samWriter, error) {
	writer := &samWriter{out: bufio.NewWriter(w)}
	if _, err := writer.out.Write(header); err != nil {
		return nil, err
	}
	return writer, nil
}

// WriteRecord writes the raw line followed by a line terminator.
func (writer *samWriter) WriteRecord(raw []byte) error {
	if writer.err != nil {
		return writer.err
	}
	if _, err := writer.out.Write(raw); err != nil {
		writer.err = err
		return err
	}
	writer.err = writer.out.WriteByte('\n')
	return writer.err
}

func (writer *samWriter) Close() error {
	if writer.err != nil {
		return writer.err
	}
	return writer.out.Flush()
}
