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

package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	hsam "github.com/biogo/hts/sam"

	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/internal/htstest"
)

// makeFastq returns a FASTQ file with n records from two instruments
// and one record with a name that does not follow the Illumina
// convention, together with the expected total of bases.
func makeFastq(n int) (string, int64) {
	var buf strings.Builder
	var bases int64
	for i := 0; i < n; i++ {
		length := 50 + i%7
		bases += int64(length)
		instrument := "HWI-ST1"
		if i%3 == 0 {
			instrument = "HWI-ST2"
		}
		fmt.Fprintf(&buf, "@%v:8:FC%v:1:1101:%v:1000 1:N:0:ACGT\n%v\n+\n%v\n",
			instrument, i%2, i, strings.Repeat("A", length), strings.Repeat("I", length))
	}
	buf.WriteString("@SRR001666.1\nACGT\n+\nIIII\n")
	return buf.String(), bases + 4
}

func TestSummarizeFastq(t *testing.T) {
	fastq, bases := makeFastq(10000)
	path := htstest.WriteFile(t, t.TempDir(), "reads.fq", []byte(fastq))
	agg, err := SummarizeFile(path, Options{FlowCells: true, Lengths: true})
	if err != nil {
		t.Fatal(err)
	}
	if agg.Records != 10001 {
		t.Errorf("counted %v records, expected 10001", agg.Records)
	}
	if agg.Bases != bases {
		t.Errorf("counted %v bases, expected %v", agg.Bases, bases)
	}
	if agg.MinLength != 4 || agg.MaxLength != 56 {
		t.Errorf("lengths range from %v to %v, expected 4 to 56", agg.MinLength, agg.MaxLength)
	}
	if agg.WithQuality != 10001 {
		t.Errorf("%v records with quality, expected 10001", agg.WithQuality)
	}
	if len(agg.Instruments) != 2 || agg.Instruments["HWI-ST1"]+agg.Instruments["HWI-ST2"] != 10000 {
		t.Errorf("unexpected instruments %v", agg.Instruments)
	}
	if _, ok := agg.Instruments["unknown"]; ok {
		t.Error("unknown instrument bucket created")
	}
	if len(agg.FlowCells) != 2 || agg.FlowCells["FC0"] != 5000 || agg.FlowCells["FC1"] != 5000 {
		t.Errorf("unexpected flow cells %v", agg.FlowCells)
	}
	var histogram int64
	for _, n := range agg.Lengths {
		histogram += n
	}
	if histogram != 10001 || agg.Lengths[4] != 1 {
		t.Errorf("unexpected length histogram %v", agg.Lengths)
	}
	if agg.Mapped != 0 || agg.Unmapped != 0 {
		t.Error("sequence records counted as alignments")
	}
}

func TestSummarizeCompressed(t *testing.T) {
	fastq, _ := makeFastq(2000)
	dir := t.TempDir()
	plain, err := SummarizeFile(htstest.WriteFile(t, dir, "reads.fq", []byte(fastq)), Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, compressed := range []struct {
		name string
		data []byte
	}{
		{"reads.fq.gz", htstest.Gzip(t, []byte(fastq))},
		{"reads.fq.bgz", htstest.BGZF(t, []byte(fastq))},
	} {
		agg, err := SummarizeFile(htstest.WriteFile(t, dir, compressed.name, compressed.data), Options{})
		if err != nil {
			t.Fatal(err)
		}
		if agg.Records != plain.Records || agg.Bases != plain.Bases ||
			agg.MinLength != plain.MinLength || agg.MaxLength != plain.MaxLength ||
			fmt.Sprint(agg.Instruments) != fmt.Sprint(plain.Instruments) {
			t.Errorf("%v: summary %+v differs from uncompressed summary %+v", compressed.name, agg, plain)
		}
		if agg.FileType.Compression == hts.Uncompressed {
			t.Errorf("%v: compression not detected", compressed.name)
		}
	}
}

func TestSummarizeBam(t *testing.T) {
	refs := []htstest.Reference{{Name: "chr1", Length: 1000}}
	alns := []htstest.Alignment{
		{QName: "HWI-ST1:8:FC1:1:1:100:200", Flag: uint16(hsam.Paired), RefID: 0, Pos: 10, Seq: "ACGT"},
		{QName: "HWI-ST1:8:FC1:1:1:100:201", Flag: uint16(hsam.Unmapped), RefID: -1, Pos: -1, Seq: "ACGT"},
		{QName: "read3", Flag: uint16(hsam.Secondary), RefID: 0, Pos: 20, Seq: "ACGT"},
		{QName: "read4", Flag: uint16(hsam.Supplementary), RefID: 0, Pos: 30, Seq: "ACGT"},
		{QName: "read5", Flag: 0, RefID: -1, Pos: -1, Seq: "ACGT"},
	}
	path := htstest.WriteBAM(t, t.TempDir(), "aln.bam", "@HD\tVN:1.6\n", refs, alns)
	agg, err := SummarizeFile(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if agg.Records != 5 || agg.Mapped != 3 || agg.Unmapped != 2 || agg.Secondary != 1 || agg.Supplementary != 1 {
		t.Errorf("unexpected alignment counts %+v", agg)
	}
	if agg.Bases != 0 {
		t.Error("alignment records counted as bases")
	}
	if agg.Instruments["HWI-ST1"] != 2 || len(agg.Instruments) != 1 {
		t.Errorf("unexpected instruments %v", agg.Instruments)
	}
}

func TestSummarizeDecodeError(t *testing.T) {
	path := htstest.WriteFile(t, t.TempDir(), "bad.sam", []byte("@HD\tVN:1.6\nr1\t0\tchr1\t1\t60\t1M\t*\t0\t0\tA\tI\nr2\tbad\n"))
	if _, err := SummarizeFile(path, Options{}); err == nil {
		t.Error("malformed record did not stop the summary")
	}
}

func TestAggregateMerge(t *testing.T) {
	fileType := hts.FileType{Format: hts.FASTQ}
	records := []hts.Record{
		hts.NewSequenceRecord("A1:1:F1:1:1:1:1", 10, true),
		hts.NewSequenceRecord("A2:1:F1:1:1:1:2", 20, true),
		hts.NewSequenceRecord("x", 5, true),
	}
	whole := NewAggregate(fileType, Options{FlowCells: true})
	for _, rec := range records {
		whole.Add(rec)
	}
	merged := NewAggregate(fileType, Options{FlowCells: true})
	for _, rec := range records {
		part := NewAggregate(fileType, Options{FlowCells: true})
		part.Add(rec)
		merged.Merge(part)
	}
	merged.Merge(NewAggregate(fileType, Options{FlowCells: true}))
	if fmt.Sprintf("%+v", whole) != fmt.Sprintf("%+v", merged) {
		t.Errorf("merged aggregate %+v differs from %+v", merged, whole)
	}
}

func TestReport(t *testing.T) {
	agg := NewAggregate(hts.FileType{Format: hts.FASTQ, Compression: hts.Gzip}, Options{})
	for _, id := range []string{"M10:1:F:1:1:1:1", "M2:1:F:1:1:1:1", "M2:1:F:1:1:1:2", "M1:1:F:1:1:1:1"} {
		agg.Add(hts.NewSequenceRecord(id, 100, true))
	}
	report := NewReport("reads.fq.gz", agg)
	var names []string
	for _, tally := range report.Instruments {
		names = append(names, tally.Name)
	}
	if strings.Join(names, ",") != "M1,M2,M10" {
		t.Errorf("instruments not in natural order: %v", names)
	}

	var tsv bytes.Buffer
	if err := report.Write(&tsv, FormatTSV); err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"type\tCompressed FASTQ\n", "records\t4\n", "bases\t400\n", "instrument:M2\t2\n"} {
		if !strings.Contains(tsv.String(), line) {
			t.Errorf("TSV report lacks %q:\n%v", line, tsv.String())
		}
	}
	if strings.Contains(tsv.String(), "mapped") {
		t.Error("sequence report contains alignment counts")
	}

	var js bytes.Buffer
	if err := report.Write(&js, FormatJSON); err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Records != 4 || decoded.Bases == nil || *decoded.Bases != 400 || len(decoded.Instruments) != 3 {
		t.Errorf("unexpected JSON report %+v", decoded)
	}

	var human bytes.Buffer
	if err := report.Write(&human, FormatHuman); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(human.String(), "records:") {
		t.Errorf("unexpected human report:\n%v", human.String())
	}
	if err := report.Write(&human, "xml"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"empty.fq", "empty.fq.gz"} {
		data := []byte(nil)
		if strings.HasSuffix(name, ".gz") {
			data = htstest.Gzip(t, nil)
		}
		agg, err := SummarizeFile(htstest.WriteFile(t, dir, name, data), Options{})
		if err != nil {
			t.Errorf("%v: %v", name, err)
			continue
		}
		if agg.Records != 0 || agg.Bases != 0 {
			t.Errorf("%v: unexpected aggregate %+v", name, agg)
		}
	}
}

func TestSummarizeEmptyIdentifier(t *testing.T) {
	dir := t.TempDir()
	for name, data := range map[string]string{
		"noid.fq": "@\nACGT\n+\nIIII\n",
		"noid.fa": ">\nACGT\n",
	} {
		_, err := SummarizeFile(htstest.WriteFile(t, dir, name, []byte(data)), Options{})
		var decodeErr *hts.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("%v: expected a DecodeError, got %v", name, err)
		}
	}
}
