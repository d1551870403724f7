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
	"io"

	"github.com/biogo/hts/sam"
)

type (
	// Record is one entry decoded from an HTS file. The only
	// implementations are *SequenceRecord and *AlignmentRecord.
	Record interface {
		Name() string
		record()
	}

	// SequenceRecord is an entry from a FASTQ or FASTA file.
	SequenceRecord struct {
		ID         string
		Length     int
		HasQuality bool
		// Instrument and FlowCell are empty when the identifier does
		// not follow the Illumina read-name convention.
		Instrument string
		FlowCell   string
	}

	// AlignmentRecord is an entry from a SAM or BAM file.
	AlignmentRecord struct {
		QName string
		Flags sam.Flags
		// Contig is empty and Pos is -1 for unmapped reads.
		Contig string
		Pos    int32
		// Raw holds the entry as stored in the container: the BAM
		// record without its block_size prefix, or the SAM line
		// without its line terminator.
		Raw []byte
	}
)

// NewSequenceRecord returns a SequenceRecord for the given identifier,
// deriving the instrument and flow cell from it.
func NewSequenceRecord(id string, length int, hasQuality bool) *SequenceRecord {
	rec := &SequenceRecord{ID: id, Length: length, HasQuality: hasQuality}
	if rn, ok := ParseReadName(id); ok {
		rec.Instrument = rn.Instrument
		rec.FlowCell = rn.FlowCell
	}
	return rec
}

// NewAlignmentRecord returns an AlignmentRecord, clearing the
// reference fields when the flags or the reference say the read is
// unmapped.
func NewAlignmentRecord(qname string, flags sam.Flags, contig string, pos int32, raw []byte) *AlignmentRecord {
	if flags&sam.Unmapped != 0 || contig == "" {
		flags |= sam.Unmapped
		contig = ""
		pos = -1
	}
	return &AlignmentRecord{QName: qname, Flags: flags, Contig: contig, Pos: pos, Raw: raw}
}

// Name implements Record.
func (rec *SequenceRecord) Name() string { return rec.ID }

// Name implements Record.
func (rec *AlignmentRecord) Name() string { return rec.QName }

func (*SequenceRecord) record()  {}
func (*AlignmentRecord) record() {}

// Mapped reports whether the read has a reference placement.
func (rec *AlignmentRecord) Mapped() bool { return rec.Flags&sam.Unmapped == 0 }

// IsSecondary reports whether this is a secondary alignment.
func (rec *AlignmentRecord) IsSecondary() bool { return rec.Flags&sam.Secondary != 0 }

// IsSupplementary reports whether this is a supplementary alignment.
func (rec *AlignmentRecord) IsSupplementary() bool { return rec.Flags&sam.Supplementary != 0 }

type (
	// RecordStream is a finite, single-pass sequence of records in
	// file order. Next returns io.EOF after the last record. Any other
	// error is terminal.
	RecordStream interface {
		Next() (Record, error)
		FileType() FileType
		io.Closer
	}

	// AlignmentSource is a RecordStream over a SAM or BAM file that
	// also exposes the header exactly as stored in the container.
	AlignmentSource interface {
		RecordStream
		RawHeader() []byte
	}
)
