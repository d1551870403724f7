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
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	hsam "github.com/biogo/hts/sam"

	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/internal"
	"github.com/exascience/htstools/utils"
	"github.com/exascience/htstools/utils/bgzf"
)

// BAMReference is a an entry in a slice of BAM-encoded sequence dictionary entries.
// See http://samtools.github.io/hts-specs/SAMv1.pdf - Section 4.2.
type BAMReference struct {
	Name   string
	Length int32
}

// bamMagic is the magic string for the BAM format. See
// http://samtools.github.io/hts-specs/SAMv1.pdf - Section 4.2.
const bamMagic = "BAM\x01"

// Sanity limits for length fields, so that corrupt input fails with a
// DecodeError instead of an excessive allocation.
const (
	maxHeaderText  = 1 << 30
	maxReferences  = 1 << 24
	maxRecordBytes = 1 << 28
)

// headerReader accumulates every byte it reads, so that the BAM header
// can be re-emitted verbatim.
type headerReader struct {
	r   io.Reader
	raw []byte
}

func (h *headerReader) read(n int) ([]byte, error) {
	index := len(h.raw)
	for cap(h.raw) < index+n {
		h.raw = append(h.raw[:cap(h.raw)], 0)
	}
	h.raw = h.raw[:index+n]
	if _, err := io.ReadFull(h.r, h.raw[index:]); err != nil {
		return nil, err
	}
	return h.raw[index:], nil
}

func (h *headerReader) int32() (int32, error) {
	b, err := h.read(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// parseBamHeader reads the complete header of a BAM file. See
// http://samtools.github.io/hts-specs/SAMv1.pdf - Section 4.2.
//
// Returns the header bytes exactly as read, and the BAM-encoded
// sequence dictionary.
func parseBamHeader(reader io.Reader) (raw []byte, references []BAMReference, err error) {
	h := &headerReader{r: reader}
	magic, err := h.read(4)
	if err != nil {
		return nil, nil, err
	}
	if string(magic) != bamMagic {
		return nil, nil, errors.New("invalid BAM magic")
	}
	lText, err := h.int32()
	if err != nil {
		return nil, nil, err
	}
	if lText < 0 || lText > maxHeaderText {
		return nil, nil, fmt.Errorf("invalid header text length %v", lText)
	}
	if _, err = h.read(int(lText)); err != nil {
		return nil, nil, err
	}
	nRef, err := h.int32()
	if err != nil {
		return nil, nil, err
	}
	if nRef < 0 || nRef > maxReferences {
		return nil, nil, fmt.Errorf("invalid number of references %v", nRef)
	}
	references = make([]BAMReference, 0, nRef)
	for i := int32(0); i < nRef; i++ {
		lName, err := h.int32()
		if err != nil {
			return nil, nil, err
		}
		if lName < 1 || lName > maxHeaderText {
			return nil, nil, fmt.Errorf("invalid reference name length %v", lName)
		}
		name, err := h.read(int(lName))
		if err != nil {
			return nil, nil, err
		}
		if name[lName-1] != 0 {
			return nil, nil, errors.New("reference name not NUL-terminated")
		}
		lRef, err := h.int32()
		if err != nil {
			return nil, nil, err
		}
		references = append(references, BAMReference{
			Name:   *utils.Intern(string(name[:lName-1])),
			Length: lRef,
		})
	}
	return h.raw, references, nil
}

const (
	refIDIndex     = 0
	posIndex       = 4
	lReadNameIndex = posIndex + 4
	mapqIndex      = lReadNameIndex + 1
	binIndex       = mapqIndex + 1
	nCigarOpIndex  = binIndex + 2
	flagIndex      = nCigarOpIndex + 2
	lSeqIndex      = flagIndex + 2
	nextRefIDIndex = lSeqIndex + 4
	nextPosIndex   = nextRefIDIndex + 4
	tlenIndex      = nextPosIndex + 4
	readNameIndex  = tlenIndex + 4
)

// parseBamAlignment decodes the fields of a BAM alignment record that
// the record model exposes, after checking that the variable-length
// sections fit into the record. See
// http://samtools.github.io/hts-specs/SAMv1.pdf - Section 4.2.
func parseBamAlignment(record []byte, references []BAMReference) (*hts.AlignmentRecord, error) {
	if len(record) < readNameIndex {
		return nil, fmt.Errorf("record of %v bytes is shorter than the fixed fields", len(record))
	}
	refID := int32(binary.LittleEndian.Uint32(record[refIDIndex : refIDIndex+4]))
	if refID < -1 || int(refID) >= len(references) {
		return nil, fmt.Errorf("reference id %v out of range", refID)
	}
	pos := int32(binary.LittleEndian.Uint32(record[posIndex : posIndex+4]))
	lReadName := int(record[lReadNameIndex])
	nCigarOp := int(binary.LittleEndian.Uint16(record[nCigarOpIndex : nCigarOpIndex+2]))
	flag := binary.LittleEndian.Uint16(record[flagIndex : flagIndex+2])
	lSeq := int(int32(binary.LittleEndian.Uint32(record[lSeqIndex : lSeqIndex+4])))
	if lSeq < 0 {
		return nil, fmt.Errorf("negative sequence length %v", lSeq)
	}
	if lReadName < 2 {
		return nil, errors.New("empty read name")
	}
	if need := readNameIndex + lReadName + 4*nCigarOp + (lSeq+1)>>1 + lSeq; need > len(record) {
		return nil, fmt.Errorf("record of %v bytes too short for its %v bytes of variable-length data", len(record), need-readNameIndex)
	}
	if record[readNameIndex+lReadName-1] != 0 {
		return nil, errors.New("read name not NUL-terminated")
	}
	qname := string(record[readNameIndex : readNameIndex+lReadName-1])
	var contig string
	if refID >= 0 {
		contig = references[refID].Name
	}
	return hts.NewAlignmentRecord(qname, hsam.Flags(flag), contig, pos, record), nil
}

// bamReader is an hts.AlignmentSource for a BAM file.
type bamReader struct {
	path       string
	file       *os.File
	bgzf       *bgzf.Reader
	header     []byte
	references []BAMReference
	records    int64
	offset     int64
	err        error
}

func openBam(path string) (*bamReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &hts.IOError{Op: "open", Path: path, Err: err}
	}
	internal.AdviseSequential(file)
	bgzfReader, err := bgzf.NewReader(bufio.NewReader(file))
	if err != nil {
		_ = file.Close()
		return nil, &hts.IOError{Op: "decompress", Path: path, Err: err}
	}
	reader := &bamReader{path: path, file: file, bgzf: bgzfReader}
	reader.header, reader.references, err = parseBamHeader(bgzfReader)
	if err != nil {
		_ = reader.Close()
		return nil, reader.wrap(-1, err)
	}
	reader.offset = int64(len(reader.header))
	return reader, nil
}

// wrap classifies an error raised while reading record number index.
// Truncation and inconsistent fields are decode errors; anything else
// reported by the BGZF layer is an I/O or decompression failure.
func (reader *bamReader) wrap(index int64, err error) error {
	var ioErr *hts.IOError
	if errors.As(err, &ioErr) {
		return err
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, errMalformed) {
		return &hts.DecodeError{Path: reader.path, Record: index, Offset: reader.offset, Err: err}
	}
	return &hts.IOError{Op: "decompress", Path: reader.path, Err: err}
}

var errMalformed = errors.New("malformed BAM data")

// Next implements hts.RecordStream.
func (reader *bamReader) Next() (hts.Record, error) {
	if reader.err != nil {
		return nil, reader.err
	}
	var size [4]byte
	if n, err := io.ReadFull(reader.bgzf, size[:]); err != nil {
		if err == io.EOF && n == 0 {
			reader.err = io.EOF
		} else {
			reader.err = reader.wrap(reader.records, err)
		}
		return nil, reader.err
	}
	blockSize := int(int32(binary.LittleEndian.Uint32(size[:])))
	if blockSize < readNameIndex || blockSize > maxRecordBytes {
		reader.err = reader.wrap(reader.records, fmt.Errorf("%w: invalid block size %v", errMalformed, blockSize))
		return nil, reader.err
	}
	raw := make([]byte, blockSize)
	if _, err := io.ReadFull(reader.bgzf, raw); err != nil {
		reader.err = reader.wrap(reader.records, noEOF(err))
		return nil, reader.err
	}
	rec, err := parseBamAlignment(raw, reader.references)
	if err != nil {
		reader.err = reader.wrap(reader.records, fmt.Errorf("%w: %v", errMalformed, err))
		return nil, reader.err
	}
	reader.records++
	reader.offset += int64(4 + blockSize)
	return rec, nil
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// FileType implements hts.RecordStream.
func (reader *bamReader) FileType() hts.FileType {
	return hts.FileType{Format: hts.BAM, Compression: hts.BGZF}
}

// RawHeader implements hts.AlignmentSource. The result includes the
// magic string, the header text and the binary sequence dictionary.
func (reader *bamReader) RawHeader() []byte {
	return reader.header
}

// Close the BAM input file.
func (reader *bamReader) Close() error {
	err := reader.bgzf.Close()
	if nerr := reader.file.Close(); err == nil {
		err = nerr
	}
	if err != nil {
		return &hts.IOError{Op: "close", Path: reader.path, Err: err}
	}
	return nil
}

// bamWriter writes BAM header and record bytes through a BGZF
// compressor.
type bamWriter struct {
	bgzf *bgzf.Writer
	err  error
}

func newBamWriter(w io.Writer, header []byte) (*bamWriter, error) {
	if len(header) < 4 || string(header[:4]) != bamMagic {
		return nil, errors.New("BAM output requires a BAM header")
	}
	writer := &bamWriter{bgzf: bgzf.NewWriter(w, -1)}
	if _, err := writer.bgzf.Write(header); err != nil {
		_ = writer.bgzf.Close()
		return nil, err
	}
	return writer, nil
}

// WriteRecord prefixes the raw record with its block_size.
func (writer *bamWriter) WriteRecord(raw []byte) error {
	if writer.err != nil {
		return writer.err
	}
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(raw)))
	if _, err := writer.bgzf.Write(size[:]); err != nil {
		writer.err = err
		return err
	}
	if _, err := writer.bgzf.Write(raw); err != nil {
		writer.err = err
	}
	return writer.err
}

func (writer *bamWriter) Close() error {
	return writer.bgzf.Close()
}
