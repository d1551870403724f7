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

package ingest

import (
	"context"
	"io"

	"github.com/exascience/htstools/hts"
)

// Batch sizes for record sources. Larger batches are only used when
// the pipeline asks for them.
const (
	minBatchSize = 4096
	maxBatchSize = 262144
)

// RecordSource adapts a RecordStream to a pargo pipeline.Source. Each
// batch is a []hts.Record in file order.
type RecordSource struct {
	stream hts.RecordStream
	data   []hts.Record
	err    error
}

// NewRecordSource returns a pipeline source that drains the given
// stream. The stream is not closed.
func NewRecordSource(stream hts.RecordStream) *RecordSource {
	return &RecordSource{stream: stream}
}

// Err implements the method of the pipeline.Source interface.
func (src *RecordSource) Err() error {
	return src.err
}

// Prepare implements the method of the pipeline.Source interface.
func (src *RecordSource) Prepare(_ context.Context) int {
	return -1
}

// Fetch implements the method of the pipeline.Source interface.
func (src *RecordSource) Fetch(size int) (fetched int) {
	if src.err != nil {
		src.data = nil
		return 0
	}
	switch {
	case size < minBatchSize:
		size = minBatchSize
	case size > maxBatchSize:
		size = maxBatchSize
	}
	src.data = make([]hts.Record, 0, size)
	for len(src.data) < size {
		rec, err := src.stream.Next()
		if err != nil {
			if err != io.EOF {
				src.err = err
			}
			break
		}
		src.data = append(src.data, rec)
	}
	return len(src.data)
}

// Data implements the method of the pipeline.Source interface.
func (src *RecordSource) Data() interface{} {
	return src.data
}
