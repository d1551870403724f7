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

package filters

import (
	"errors"
	"fmt"
	"log"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/ingest"
	"github.com/exascience/htstools/internal"
	"github.com/exascience/htstools/sam"
)

// Options configures FilterIDs.
type Options struct {
	// Keep selects the records whose identifier is in the set. When
	// false, those records are removed instead.
	Keep bool
	// Input is the path of the input stream, used to refuse writing
	// the output over the input.
	Input string
	// Output is the path of the filtered file.
	Output string
}

// Summary describes a completed filter run.
type Summary struct {
	RecordsRead    int64
	RecordsWritten int64
	// MatchedIDs is the number of target identifiers that occurred in
	// the input at least once.
	MatchedIDs   int
	UnmatchedIDs []string
}

// filteredBatch is a batch of records after selection, together with
// the ordinals of the target identifiers it contains.
type filteredBatch struct {
	read     int
	kept     []*hts.AlignmentRecord
	ordinals []uint
}

// FilterIDs writes the records of an alignment stream whose identifier
// membership in ids equals options.Keep to options.Output, in input
// order and in the container format of the input. The header and every
// written record are copied byte for byte.
//
// The output is written to a temporary file that replaces
// options.Output only after the complete input has been read and
// written successfully. Sequence streams fail with an
// *hts.UnsupportedFormatError.
func FilterIDs(stream hts.RecordStream, ids *IDSet, options Options) (*Summary, error) {
	source, ok := stream.(hts.AlignmentSource)
	if !ok || !stream.FileType().Format.IsAlignment() {
		return nil, &hts.UnsupportedFormatError{
			Path:   options.Input,
			Reason: fmt.Sprintf("filtering is only defined for SAM and BAM files, not %v", stream.FileType()),
		}
	}
	if options.Output == "" {
		return nil, errors.New("no output file given")
	}
	if options.Input != "" && internal.SameFile(options.Input, options.Output) {
		return nil, fmt.Errorf("output file %v is the same as the input file", options.Output)
	}
	output, err := sam.Create(options.Output, source.FileType(), source.RawHeader())
	if err != nil {
		return nil, err
	}
	defer output.Abort()

	tracker := newMatchTracker(ids)
	summary := &Summary{}
	keep := options.Keep

	var p pipeline.Pipeline
	p.Source(ingest.NewRecordSource(source))
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			records := data.([]hts.Record)
			batch := &filteredBatch{read: len(records), kept: make([]*hts.AlignmentRecord, 0, len(records))}
			for _, record := range records {
				aln := record.(*hts.AlignmentRecord)
				ordinal, found := ids.Lookup(aln.QName)
				if found {
					batch.ordinals = append(batch.ordinals, ordinal)
				}
				if found == keep {
					batch.kept = append(batch.kept, aln)
				}
			}
			return batch
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			batch := data.(*filteredBatch)
			summary.RecordsRead += int64(batch.read)
			for _, ordinal := range batch.ordinals {
				tracker.mark(ordinal)
			}
			for _, aln := range batch.kept {
				if err := output.Write(aln); err != nil {
					p.SetErr(err)
					return nil
				}
				summary.RecordsWritten++
			}
			return nil
		})),
	)
	p.Run()
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := output.Commit(); err != nil {
		return nil, err
	}
	summary.MatchedIDs = tracker.matched()
	summary.UnmatchedIDs = tracker.unmatched()
	return summary, nil
}

// FilterFile filters an alignment file by the identifiers listed in an
// identifier file.
func FilterFile(input, idFile string, options Options) (summary *Summary, err error) {
	ids, err := ReadIDs(idFile)
	if err != nil {
		return nil, err
	}
	if ids.Len() == 0 {
		log.Printf("Identifier file %v is empty.\n", idFile)
	}
	stream, err := ingest.Open(input)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := stream.Close(); err == nil && nerr != nil {
			summary, err = nil, nerr
		}
	}()
	options.Input = input
	return FilterIDs(stream, ids, options)
}
