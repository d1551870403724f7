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

// Package bed reads interval collections from BED files. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
package bed

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/utils"
)

// maxLineLength bounds the length of a single BED line.
const maxLineLength = 1 << 24

// isMetaLine reports whether a line carries no region.
func isMetaLine(line string) bool {
	return line == "" ||
		strings.HasPrefix(line, "#") ||
		isKeywordLine(line, "track") ||
		isKeywordLine(line, "browser")
}

// isKeywordLine reports whether the first word of a line is keyword.
func isKeywordLine(line, keyword string) bool {
	if !strings.HasPrefix(line, keyword) {
		return false
	}
	rest := line[len(keyword):]
	return rest == "" || rest[0] == ' ' || rest[0] == '	'
}

// ParseRegion parses one BED data line.
func ParseRegion(line string) (*Region, error) {
	data := strings.Split(line, "\t")
	if len(data) < 3 {
		return nil, fmt.Errorf("%v fields, expected at least 3", len(data))
	}
	if data[0] == "" {
		return nil, errors.New("empty contig name")
	}
	start, err := strconv.ParseInt(data[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	end, err := strconv.ParseInt(data[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid end: %w", err)
	}
	if start < 0 {
		return nil, fmt.Errorf("negative start %v", start)
	}
	if start > end {
		return nil, fmt.Errorf("start %v greater than end %v", start, end)
	}
	return NewRegion(data[0], int32(start), int32(end), data[3:]), nil
}

// Scan streams the regions of a BED file, plain or gzip-compressed, to
// the given function in file order. Comment, track, browser and blank
// lines are skipped. A malformed data line stops the scan with an
// *hts.ParseError. An error returned by fn stops the scan and is
// returned unchanged.
func Scan(filename string, fn func(*Region) error) (err error) {
	file, err := os.Open(filename)
	if err != nil {
		return &hts.IOError{Op: "open", Path: filename, Err: err}
	}
	defer func() {
		if nerr := file.Close(); err == nil && nerr != nil {
			err = &hts.IOError{Op: "close", Path: filename, Err: nerr}
		}
	}()

	input, err := utils.HandleGzip(bufio.NewReader(file))
	if err != nil {
		return &hts.IOError{Op: "decompress", Path: filename, Err: err}
	}
	defer func() {
		if nerr := input.Close(); err == nil && nerr != nil {
			err = &hts.IOError{Op: "decompress", Path: filename, Err: nerr}
		}
	}()

	scanner := bufio.NewScanner(input)
	scanner.Buffer(nil, maxLineLength)
	var lineNumber int
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if isMetaLine(line) {
			continue
		}
		region, err := ParseRegion(line)
		if err != nil {
			return &hts.ParseError{Path: filename, Line: lineNumber, Text: line, Err: err}
		}
		if err := fn(region); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return &hts.IOError{Op: "read", Path: filename, Err: err}
	}
	return nil
}

// ParseBed parses a complete BED file into memory.
func ParseBed(filename string) (*Bed, error) {
	bed := NewBed()
	if err := Scan(filename, func(region *Region) error {
		bed.AddRegion(region)
		return nil
	}); err != nil {
		return nil, err
	}
	return bed, nil
}
