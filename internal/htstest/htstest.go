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

// Package htstest writes small HTS fixtures for tests.
package htstest

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/exascience/htstools/utils/bgzf"
)

// Reference is an entry of a BAM sequence dictionary.
type Reference struct {
	Name   string
	Length int32
}

// Alignment describes a BAM record to encode.
type Alignment struct {
	QName string
	Flag  uint16
	RefID int32
	// Pos is 0-based, -1 when absent.
	Pos int32
	Seq string
}

var nibbles = map[byte]byte{'=': 0, 'A': 1, 'C': 2, 'G': 4, 'T': 8, 'N': 15}

// EncodeAlignment returns the BAM encoding of an alignment without
// its block_size prefix. There are no CIGAR operations and no
// optional fields, and all qualities are 30.
func EncodeAlignment(aln Alignment) []byte {
	var buf bytes.Buffer
	put := func(v interface{}) {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	put(aln.RefID)
	put(aln.Pos)
	put(uint8(len(aln.QName) + 1))
	put(uint8(60))    // mapq
	put(uint16(4680)) // bin
	put(uint16(0))    // n_cigar_op
	put(aln.Flag)
	put(int32(len(aln.Seq)))
	put(int32(-1)) // next_refID
	put(int32(-1)) // next_pos
	put(int32(0))  // tlen
	buf.WriteString(aln.QName)
	buf.WriteByte(0)
	packed := make([]byte, (len(aln.Seq)+1)/2)
	for i := 0; i < len(aln.Seq); i++ {
		nibble := nibbles[aln.Seq[i]]
		if i%2 == 0 {
			packed[i/2] |= nibble << 4
		} else {
			packed[i/2] |= nibble
		}
	}
	buf.Write(packed)
	buf.Write(bytes.Repeat([]byte{30}, len(aln.Seq)))
	return buf.Bytes()
}

// EncodeHeader returns the BAM header for the given SAM header text and
// references.
func EncodeHeader(text string, refs []Reference) []byte {
	var buf bytes.Buffer
	put := func(v interface{}) {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.WriteString("BAM\x01")
	put(int32(len(text)))
	buf.WriteString(text)
	put(int32(len(refs)))
	for _, ref := range refs {
		put(int32(len(ref.Name) + 1))
		buf.WriteString(ref.Name)
		buf.WriteByte(0)
		put(ref.Length)
	}
	return buf.Bytes()
}

// EncodeBAM returns the uncompressed BAM payload of a file.
func EncodeBAM(text string, refs []Reference, alns []Alignment) []byte {
	payload := EncodeHeader(text, refs)
	for _, aln := range alns {
		record := EncodeAlignment(aln)
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(record)))
		payload = append(payload, record...)
	}
	return payload
}

// BGZF compresses data into BGZF blocks, with an end-of-file marker.
func BGZF(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bgzf.NewWriter(&buf, -1)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// Gzip compresses data as a single plain gzip member.
func Gzip(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// WriteFile writes data to a file in dir and returns its path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0666); err != nil {
		t.Fatal(err)
	}
	return path
}

// WriteBAM writes a BGZF-compressed BAM file in dir and returns its
// path.
func WriteBAM(t testing.TB, dir, name, text string, refs []Reference, alns []Alignment) string {
	t.Helper()
	return WriteFile(t, dir, name, BGZF(t, EncodeBAM(text, refs, alns)))
}

// Decompress returns the payload of a BGZF file.
func Decompress(t testing.TB, path string) []byte {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	r, err := bgzf.NewReader(bufio.NewReader(file))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
