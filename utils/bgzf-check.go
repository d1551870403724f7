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

package utils

import (
	"bufio"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/exascience/htstools/utils/bgzf"
)

// HandleGzip checks whether the given reader produces gzip data by
// looking at its initial bytes. BGZF data is decompressed by a parallel
// bgzf.Reader, other gzip data by a sequential gzip.Reader, and any
// other input is returned unchanged. Closing the result does not close
// the underlying reader.
func HandleGzip(buf *bufio.Reader) (io.ReadCloser, error) {
	ok, err := bgzf.IsGzip(buf)
	if err == io.EOF {
		return io.NopCloser(buf), nil
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return io.NopCloser(buf), nil
	}
	// Peek reports an error for short inputs, but still returns what is
	// available, and IsBGZF checks the length itself.
	prefix, _ := buf.Peek(18)
	if bgzf.IsBGZF(prefix) {
		r, err := bgzf.NewReader(buf)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	r, err := gzip.NewReader(buf)
	if err != nil {
		return nil, err
	}
	return r, nil
}
