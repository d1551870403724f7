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

package fastx

import (
	"errors"
	"io"
	"testing"

	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/internal/htstest"
)

func TestReader(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		format  hts.Format
		ids     []string
		lengths []int
		quality bool
	}{
		{"reads.fq", "@HWI-ST1:8:FC1:1:1:100:200 1:N:0\nACGTAC\n+\nIIIIII\n@r2\nAC\n+\nII\n", hts.FASTQ, []string{"HWI-ST1:8:FC1:1:1:100:200", "r2"}, []int{6, 2}, true},
		{"genome.fa", ">chr1 first\nACGT\nACGT\n>chr2\nA\n", hts.FASTA, []string{"chr1", "chr2"}, []int{8, 1}, false},
	}
	dir := t.TempDir()
	for _, test := range tests {
		path := htstest.WriteFile(t, dir, test.name, []byte(test.data))
		reader, err := Open(path, hts.FileType{Format: test.format})
		if err != nil {
			t.Fatal(err)
		}
		for i := range test.ids {
			rec, err := reader.Next()
			if err != nil {
				t.Fatalf("%v: record %v: %v", test.name, i, err)
			}
			seq := rec.(*hts.SequenceRecord)
			if seq.ID != test.ids[i] || seq.Length != test.lengths[i] || seq.HasQuality != test.quality {
				t.Errorf("%v: unexpected record %+v", test.name, seq)
			}
		}
		if _, err := reader.Next(); err != io.EOF {
			t.Errorf("%v: expected io.EOF, got %v", test.name, err)
		}
		_ = reader.Close()
	}
}

func TestEmptyIdentifier(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format hts.Format
	}{
		{"empty-id.fq", "@r1\nAC\n+\nII\n@\nACGT\n+\nIIII\n", hts.FASTQ},
		{"empty-id.fa", ">r1\nAC\n>\nACGT\n", hts.FASTA},
	}
	dir := t.TempDir()
	for _, test := range tests {
		path := htstest.WriteFile(t, dir, test.name, []byte(test.data))
		reader, err := Open(path, hts.FileType{Format: test.format})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := reader.Next(); err != nil {
			t.Fatalf("%v: first record: %v", test.name, err)
		}
		_, err = reader.Next()
		var decodeErr *hts.DecodeError
		if !errors.As(err, &decodeErr) || decodeErr.Record != 1 {
			t.Errorf("%v: expected a DecodeError at record 1, got %v", test.name, err)
		}
		if _, nerr := reader.Next(); nerr != err {
			t.Errorf("%v: error is not terminal", test.name)
		}
		_ = reader.Close()
	}
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("aln.bam", hts.FileType{Format: hts.BAM, Compression: hts.BGZF})
	if !errors.Is(err, hts.ErrUnsupportedFormat) {
		t.Errorf("expected an unsupported format error, got %v", err)
	}
}
