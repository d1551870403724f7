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
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/internal/htstest"
)

const testHeaderText = "@HD\tVN:1.6\tSO:unsorted\n@SQ\tSN:chr1\tLN:1000\n@SQ\tSN:chr2\tLN:500\n"

var (
	testReferences = []htstest.Reference{{Name: "chr1", Length: 1000}, {Name: "chr2", Length: 500}}

	testAlignments = []htstest.Alignment{
		{QName: "HWI-ST1:8:FC1:1:1:100:200", Flag: 0, RefID: 0, Pos: 99, Seq: "ACGTACGT"},
		{QName: "HWI-ST1:8:FC1:1:1:100:201", Flag: 4, RefID: -1, Pos: -1, Seq: "ACG"},
		{QName: "read3", Flag: 256, RefID: 1, Pos: 9, Seq: "TTTT"},
	}
)

var bamType = hts.FileType{Format: hts.BAM, Compression: hts.BGZF}

func readAll(t *testing.T, stream hts.RecordStream) (records []*hts.AlignmentRecord, err error) {
	t.Helper()
	for {
		rec, err := stream.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec.(*hts.AlignmentRecord))
	}
}

func TestReadBam(t *testing.T) {
	path := htstest.WriteBAM(t, t.TempDir(), "test.bam", testHeaderText, testReferences, testAlignments)
	input, err := Open(path, bamType)
	if err != nil {
		t.Fatal(err)
	}
	defer input.Close()
	if !bytes.Equal(input.RawHeader(), htstest.EncodeHeader(testHeaderText, testReferences)) {
		t.Error("raw header differs from the stored header")
	}
	records, err := readAll(t, input)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != len(testAlignments) {
		t.Fatalf("read %v records, expected %v", len(records), len(testAlignments))
	}
	expected := []struct {
		qname  string
		mapped bool
		contig string
		pos    int32
	}{
		{"HWI-ST1:8:FC1:1:1:100:200", true, "chr1", 99},
		{"HWI-ST1:8:FC1:1:1:100:201", false, "", -1},
		{"read3", true, "chr2", 9},
	}
	for i, rec := range records {
		e := expected[i]
		if rec.QName != e.qname || rec.Mapped() != e.mapped || rec.Contig != e.contig || rec.Pos != e.pos {
			t.Errorf("record %v is %+v, expected %+v", i, rec, e)
		}
		if !bytes.Equal(rec.Raw, htstest.EncodeAlignment(testAlignments[i])) {
			t.Errorf("raw bytes of record %v differ", i)
		}
	}
	if !records[2].IsSecondary() {
		t.Error("secondary flag lost")
	}
}

func TestBamRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := htstest.WriteBAM(t, dir, "in.bam", testHeaderText, testReferences, testAlignments)
	input, err := Open(path, bamType)
	if err != nil {
		t.Fatal(err)
	}
	defer input.Close()
	outPath := filepath.Join(dir, "out.bam")
	output, err := Create(outPath, bamType, input.RawHeader())
	if err != nil {
		t.Fatal(err)
	}
	defer output.Abort()
	records, err := readAll(t, input)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range records {
		if err := output.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Error("output visible before Commit")
	}
	if err := output.Commit(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(htstest.Decompress(t, outPath), htstest.EncodeBAM(testHeaderText, testReferences, testAlignments)) {
		t.Error("round trip changed the BAM payload")
	}
}

func TestTruncatedBam(t *testing.T) {
	dir := t.TempDir()
	payload := htstest.EncodeBAM(testHeaderText, testReferences, testAlignments)
	path := htstest.WriteFile(t, dir, "truncated.bam", htstest.BGZF(t, payload[:len(payload)-5]))
	input, err := Open(path, bamType)
	if err != nil {
		t.Fatal(err)
	}
	defer input.Close()
	records, err := readAll(t, input)
	var decodeErr *hts.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected a DecodeError, got %v", err)
	}
	if decodeErr.Record != 2 || len(records) != 2 {
		t.Errorf("error at record %v after %v records, expected 2 and 2", decodeErr.Record, len(records))
	}
	if _, err := input.Next(); err != decodeErr {
		t.Error("error is not terminal")
	}
}

func TestMalformedBam(t *testing.T) {
	tests := []struct {
		name string
		aln  htstest.Alignment
	}{
		{"reference out of range", htstest.Alignment{QName: "r1", RefID: 7, Pos: 1, Seq: "A"}},
		{"empty read name", htstest.Alignment{QName: "", RefID: 0, Pos: 1, Seq: "A"}},
	}
	for _, test := range tests {
		path := htstest.WriteBAM(t, t.TempDir(), "bad.bam", testHeaderText, testReferences, []htstest.Alignment{test.aln})
		input, err := Open(path, bamType)
		if err != nil {
			t.Fatal(err)
		}
		_, err = input.Next()
		var decodeErr *hts.DecodeError
		if !errors.As(err, &decodeErr) || decodeErr.Record != 0 {
			t.Errorf("%v: expected a DecodeError for record 0, got %v", test.name, err)
		}
		_ = input.Close()
	}
}

func TestBadBamHeader(t *testing.T) {
	path := htstest.WriteFile(t, t.TempDir(), "bad.bam", htstest.BGZF(t, []byte("BAM\x01\xff\xff")))
	_, err := Open(path, bamType)
	var decodeErr *hts.DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Record != -1 {
		t.Errorf("expected a header DecodeError, got %v", err)
	}
}

var samType = hts.FileType{Format: hts.SAM, Compression: hts.Uncompressed}

const testSam = testHeaderText +
	"r1\t0\tchr1\t100\t60\t4M\t*\t0\t0\tACGT\tIIII\n" +
	"\n" +
	"r2\t4\t*\t0\t0\t*\t*\t0\t0\tACG\tIII\tRG:Z:x\n" +
	"r3\t2048\tchr2\t5\t60\t2M\t*\t0\t0\tAC\tII\n"

func TestSamRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := htstest.WriteFile(t, dir, "in.sam", []byte(testSam))
	input, err := Open(path, samType)
	if err != nil {
		t.Fatal(err)
	}
	defer input.Close()
	if string(input.RawHeader()) != testHeaderText {
		t.Errorf("unexpected header %q", input.RawHeader())
	}
	records, err := readAll(t, input)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("read %v records, expected 3", len(records))
	}
	if records[0].Contig != "chr1" || records[0].Pos != 99 || !records[0].Mapped() {
		t.Errorf("unexpected first record %+v", records[0])
	}
	if records[1].Mapped() || records[1].Pos != -1 {
		t.Errorf("unexpected second record %+v", records[1])
	}
	if !records[2].IsSupplementary() {
		t.Error("supplementary flag lost")
	}
	outPath := filepath.Join(dir, "out.sam")
	output, err := Create(outPath, samType, input.RawHeader())
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range records {
		if err := output.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := output.Commit(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	expected := testHeaderText +
		"r1\t0\tchr1\t100\t60\t4M\t*\t0\t0\tACGT\tIIII\n" +
		"r2\t4\t*\t0\t0\t*\t*\t0\t0\tACG\tIII\tRG:Z:x\n" +
		"r3\t2048\tchr2\t5\t60\t2M\t*\t0\t0\tAC\tII\n"
	if string(data) != expected {
		t.Errorf("unexpected output %q", data)
	}
}

func TestMalformedSam(t *testing.T) {
	tests := []struct {
		line string
	}{
		{"r1\t0\tchr1\t100\n"},
		{"r1\tx\tchr1\t100\t60\t4M\t*\t0\t0\tACGT\tIIII\n"},
		{"r1\t0\tchr1\tpos\t60\t4M\t*\t0\t0\tACGT\tIIII\n"},
	}
	for _, test := range tests {
		path := htstest.WriteFile(t, t.TempDir(), "bad.sam", []byte(testHeaderText+"ok\t0\tchr1\t1\t60\t1M\t*\t0\t0\tA\tI\n"+test.line))
		input, err := Open(path, samType)
		if err != nil {
			t.Fatal(err)
		}
		records, err := readAll(t, input)
		var decodeErr *hts.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("%q: expected a DecodeError, got %v", test.line, err)
		} else if decodeErr.Record != 1 || decodeErr.Offset != 5 || len(records) != 1 {
			t.Errorf("%q: error at record %v line %v, expected record 1 line 5", test.line, decodeErr.Record, decodeErr.Offset)
		}
		_ = input.Close()
	}
}

func TestCreateUnsupported(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "out.sam.gz"), hts.FileType{Format: hts.SAM, Compression: hts.Gzip}, nil)
	if !errors.Is(err, hts.ErrUnsupportedFormat) {
		t.Errorf("expected an unsupported format error, got %v", err)
	}
	_, err = Open("in.fq", hts.FileType{Format: hts.FASTQ})
	if !errors.Is(err, hts.ErrUnsupportedFormat) {
		t.Errorf("expected an unsupported format error, got %v", err)
	}
}
