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
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shenwei356/xopen"

	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/utils/bgzf"
)

// sniffSize is the number of bytes inspected to determine a file type,
// both before and after decompression.
const sniffSize = 4096

var (
	bzip2Magic = []byte("BZh")
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	bamMagic   = []byte("BAM\x01")
	cramMagic  = []byte("CRAM")
)

// samHeaderCodes are the record type codes that identify a SAM header
// line.
var samHeaderCodes = []string{"@HD\t", "@SQ\t", "@RG\t", "@PG\t", "@CO\t"}

// Detect determines the format and compression of a file from its
// content. Empty files are classified by their extension.
func Detect(path string) (hts.FileType, error) {
	fileType, _, err := detect(path)
	return fileType, err
}

func readPrefix(r io.Reader) ([]byte, error) {
	prefix := make([]byte, sniffSize)
	n, err := io.ReadFull(r, prefix)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return prefix[:n], err
}

func detectCompression(prefix []byte) hts.Compression {
	switch {
	case len(prefix) >= 2 && prefix[0] == 0x1f && prefix[1] == 0x8b:
		if bgzf.IsBGZF(prefix) {
			return hts.BGZF
		}
		return hts.Gzip
	case bytes.HasPrefix(prefix, bzip2Magic):
		return hts.Bzip2
	case bytes.HasPrefix(prefix, xzMagic):
		return hts.XZ
	case bytes.HasPrefix(prefix, zstdMagic):
		return hts.Zstd
	default:
		return hts.Uncompressed
	}
}

// decompressedPrefix returns the first bytes of the decompressed
// payload of a file. An empty payload yields an empty prefix.
func decompressedPrefix(path string) ([]byte, error) {
	reader, err := xopen.Ropen(path)
	if errors.Is(err, xopen.ErrNoContent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()
	return readPrefix(reader)
}

func detect(path string) (fileType hts.FileType, empty bool, err error) {
	file, err := os.Open(path)
	if err != nil {
		return fileType, false, &hts.IOError{Op: "open", Path: path, Err: err}
	}
	prefix, err := readPrefix(file)
	_ = file.Close()
	if err != nil {
		return fileType, false, &hts.IOError{Op: "read", Path: path, Err: err}
	}
	fileType.Compression = detectCompression(prefix)
	if fileType.Compression != hts.Uncompressed && len(prefix) > 0 {
		if prefix, err = decompressedPrefix(path); err != nil {
			return fileType, false, &hts.IOError{Op: "decompress", Path: path, Err: err}
		}
	}
	if len(prefix) == 0 {
		fileType.Format = formatFromExtension(path)
		if fileType.Format == hts.UnknownFormat {
			return fileType, true, &hts.UnsupportedFormatError{Path: path, Reason: "empty file without a recognized extension"}
		}
		return fileType, true, nil
	}
	fileType.Format, err = formatFromContent(path, prefix)
	if err != nil {
		return fileType, false, err
	}
	if fileType.Format == hts.BAM && fileType.Compression != hts.BGZF {
		return fileType, false, &hts.UnsupportedFormatError{Path: path, Reason: "BAM data must be BGZF-compressed"}
	}
	return fileType, false, nil
}

func formatFromContent(path string, prefix []byte) (hts.Format, error) {
	switch {
	case bytes.HasPrefix(prefix, bamMagic):
		return hts.BAM, nil
	case bytes.HasPrefix(prefix, cramMagic):
		return hts.UnknownFormat, &hts.UnsupportedFormatError{Path: path, Reason: "CRAM is not supported"}
	case prefix[0] == '>':
		return hts.FASTA, nil
	case prefix[0] == '@':
		for _, code := range samHeaderCodes {
			if bytes.HasPrefix(prefix, []byte(code)) {
				return hts.SAM, nil
			}
		}
		return hts.FASTQ, nil
	}
	line := prefix
	if end := bytes.IndexByte(line, '\n'); end >= 0 {
		line = line[:end]
	}
	if bytes.Count(line, []byte{'\t'})+1 >= 11 {
		return hts.SAM, nil
	}
	return hts.UnknownFormat, &hts.UnsupportedFormatError{Path: path, Reason: "unrecognized content"}
}

var compressionExtensions = []string{".gz", ".bgz", ".bz2", ".xz", ".zst"}

func formatFromExtension(path string) hts.Format {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range compressionExtensions {
		if strings.HasSuffix(name, ext) {
			name = strings.TrimSuffix(name, ext)
			break
		}
	}
	switch filepath.Ext(name) {
	case ".fastq", ".fq":
		return hts.FASTQ
	case ".fasta", ".fa", ".fna":
		return hts.FASTA
	case ".sam":
		return hts.SAM
	default:
		return hts.UnknownFormat
	}
}

// IsUnsupported reports whether err says that a file cannot be handled
// because of its format.
func IsUnsupported(err error) bool {
	return errors.Is(err, hts.ErrUnsupportedFormat)
}
