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

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is matched by every *UnsupportedFormatError
// when using errors.Is.
var ErrUnsupportedFormat = errors.New("unsupported file format")

type (
	// IOError reports that a path could not be opened, read, written,
	// or decompressed.
	IOError struct {
		Op   string
		Path string
		Err  error
	}

	// UnsupportedFormatError reports that the content of a file matches
	// none of the known containers, or that an operation is not defined
	// for the detected container.
	UnsupportedFormatError struct {
		Path   string
		Reason string
	}

	// DecodeError reports a malformed entry inside a recognized
	// container. Record is the 0-based index of the offending entry,
	// or -1 for the container header.
	// Offset is an uncompressed byte offset for BAM, a 1-based line
	// number for SAM, and -1 when unknown.
	DecodeError struct {
		Path   string
		Record int64
		Offset int64
		Err    error
	}

	// ParseError reports a malformed line in a coordinate or
	// identifier file. Line is 1-based.
	ParseError struct {
		Path string
		Line int
		Text string
		Err  error
	}
)

func (e *IOError) Error() string {
	return fmt.Sprintf("%v %v: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *UnsupportedFormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %v", e.Path, ErrUnsupportedFormat)
	}
	return fmt.Sprintf("%v: %v (%v)", e.Path, ErrUnsupportedFormat, e.Reason)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

func (e *DecodeError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("%v: malformed header: %v", e.Path, e.Err)
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("%v: malformed record %v at offset %v: %v", e.Path, e.Record, e.Offset, e.Err)
	}
	return fmt.Sprintf("%v: malformed record %v: %v", e.Path, e.Record, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v:%v: %v in line %q", e.Path, e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }
