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

// Package stats summarizes HTS files in a single pass.
package stats

import (
	"fmt"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/ingest"
)

// Options selects the optional parts of a summary.
type Options struct {
	// Lengths enables the read length histogram.
	Lengths bool
	// FlowCells enables per flow cell tallies.
	FlowCells bool
}

// Aggregate accumulates the statistics of one record stream.
//
// Sequence streams contribute base totals; alignment streams contribute
// mapping tallies instead. Instruments holds one entry per distinct
// instrument name seen, and grows without bound with the number of
// instruments in the input.
type Aggregate struct {
	FileType hts.FileType
	Records  int64

	Bases     int64
	MinLength int
	MaxLength int
	// WithQuality counts sequence records that carry quality scores.
	WithQuality int64

	Mapped        int64
	Unmapped      int64
	Secondary     int64
	Supplementary int64

	Instruments map[string]int64
	FlowCells   map[string]int64
	Lengths     map[int]int64

	options Options
}

// NewAggregate returns an empty aggregate.
func NewAggregate(fileType hts.FileType, options Options) *Aggregate {
	agg := &Aggregate{
		FileType:    fileType,
		MinLength:   -1,
		Instruments: make(map[string]int64),
		options:     options,
	}
	if options.FlowCells {
		agg.FlowCells = make(map[string]int64)
	}
	if options.Lengths {
		agg.Lengths = make(map[int]int64)
	}
	return agg
}

func (agg *Aggregate) addReadName(instrument, flowCell string) {
	if instrument == "" {
		return
	}
	agg.Instruments[instrument]++
	if agg.FlowCells != nil && flowCell != "" {
		agg.FlowCells[flowCell]++
	}
}

// Add folds one record into the aggregate.
func (agg *Aggregate) Add(record hts.Record) {
	agg.Records++
	switch rec := record.(type) {
	case *hts.SequenceRecord:
		agg.Bases += int64(rec.Length)
		if agg.MinLength < 0 || rec.Length < agg.MinLength {
			agg.MinLength = rec.Length
		}
		if rec.Length > agg.MaxLength {
			agg.MaxLength = rec.Length
		}
		if rec.HasQuality {
			agg.WithQuality++
		}
		if agg.Lengths != nil {
			agg.Lengths[rec.Length]++
		}
		agg.addReadName(rec.Instrument, rec.FlowCell)
	case *hts.AlignmentRecord:
		if rec.Mapped() {
			agg.Mapped++
		} else {
			agg.Unmapped++
		}
		if rec.IsSecondary() {
			agg.Secondary++
		}
		if rec.IsSupplementary() {
			agg.Supplementary++
		}
		if rn, ok := hts.ParseReadName(rec.QName); ok {
			agg.addReadName(rn.Instrument, rn.FlowCell)
		}
	default:
		panic(fmt.Sprintf("unknown record type %T", record))
	}
}

// Merge adds the counts of another aggregate for the same file.
func (agg *Aggregate) Merge(other *Aggregate) {
	agg.Records += other.Records
	agg.Bases += other.Bases
	if other.MinLength >= 0 && (agg.MinLength < 0 || other.MinLength < agg.MinLength) {
		agg.MinLength = other.MinLength
	}
	if other.MaxLength > agg.MaxLength {
		agg.MaxLength = other.MaxLength
	}
	agg.WithQuality += other.WithQuality
	agg.Mapped += other.Mapped
	agg.Unmapped += other.Unmapped
	agg.Secondary += other.Secondary
	agg.Supplementary += other.Supplementary
	for key, n := range other.Instruments {
		agg.Instruments[key] += n
	}
	if agg.FlowCells != nil {
		for key, n := range other.FlowCells {
			agg.FlowCells[key] += n
		}
	}
	if agg.Lengths != nil {
		for key, n := range other.Lengths {
			agg.Lengths[key] += n
		}
	}
}

// IsAlignment reports whether the aggregate describes an alignment
// file.
func (agg *Aggregate) IsAlignment() bool {
	return agg.FileType.Format.IsAlignment()
}

// MeanLength returns the average sequence length, or 0 for an empty
// sequence file.
func (agg *Aggregate) MeanLength() float64 {
	if agg.Records == 0 {
		return 0
	}
	return float64(agg.Bases) / float64(agg.Records)
}

// Summarize consumes a record stream once and returns its statistics.
// Records are decoded in file order by the caller's goroutine, and
// batches of records are folded into partial aggregates in parallel.
// The first decoding error stops the summary.
func Summarize(stream hts.RecordStream, options Options) (*Aggregate, error) {
	fileType := stream.FileType()
	total := NewAggregate(fileType, options)
	var p pipeline.Pipeline
	p.Source(ingest.NewRecordSource(stream))
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			partial := NewAggregate(fileType, options)
			for _, record := range data.([]hts.Record) {
				partial.Add(record)
			}
			return partial
		})),
		pipeline.Seq(pipeline.Receive(func(_ int, data interface{}) interface{} {
			total.Merge(data.(*Aggregate))
			return nil
		})),
	)
	p.Run()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return total, nil
}

// SummarizeFile opens a file and summarizes it.
func SummarizeFile(path string, options Options) (agg *Aggregate, err error) {
	stream, err := ingest.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := stream.Close(); err == nil && nerr != nil {
			agg, err = nil, nerr
		}
	}()
	return Summarize(stream, options)
}
