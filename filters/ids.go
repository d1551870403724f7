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

// Package filters selects alignment records by read identifier.
package filters

import (
	"bufio"
	"os"
	"strings"

	"github.com/willf/bitset"

	"github.com/exascience/htstools/hts"
)

// maxIDLineLength bounds the length of a line in an identifier file.
const maxIDLineLength = 1 << 20

// An IDSet is a set of read identifiers. Each distinct identifier has
// an ordinal in order of first appearance.
type IDSet struct {
	ordinals map[string]uint
	ids      []string
}

// NewIDSet returns a set containing the given identifiers.
func NewIDSet(ids ...string) *IDSet {
	set := &IDSet{ordinals: make(map[string]uint, len(ids))}
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

// Add an identifier to the set. Duplicates are ignored.
func (set *IDSet) Add(id string) {
	if _, ok := set.ordinals[id]; ok {
		return
	}
	set.ordinals[id] = uint(len(set.ids))
	set.ids = append(set.ids, id)
}

// Len returns the number of distinct identifiers.
func (set *IDSet) Len() int {
	return len(set.ids)
}

// Lookup returns the ordinal of an identifier. Matching is exact and
// case-sensitive.
func (set *IDSet) Lookup(id string) (ordinal uint, ok bool) {
	ordinal, ok = set.ordinals[id]
	return
}

// ID returns the identifier with the given ordinal.
func (set *IDSet) ID(ordinal uint) string {
	return set.ids[ordinal]
}

// ReadIDs reads an identifier file: one identifier per line, where only
// the first whitespace-separated token counts, a leading '@' is removed
// so that FASTQ header lines can be used directly, and blank lines are
// skipped.
func ReadIDs(path string) (set *IDSet, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &hts.IOError{Op: "open", Path: path, Err: err}
	}
	defer func() {
		if nerr := file.Close(); err == nil && nerr != nil {
			set, err = nil, &hts.IOError{Op: "close", Path: path, Err: nerr}
		}
	}()
	set = NewIDSet()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(nil, maxIDLineLength)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if id := strings.TrimPrefix(fields[0], "@"); id != "" {
			set.Add(id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &hts.IOError{Op: "read", Path: path, Err: err}
	}
	return set, nil
}

// matchTracker records which identifiers of a set were seen.
type matchTracker struct {
	ids  *IDSet
	seen *bitset.BitSet
}

func newMatchTracker(ids *IDSet) *matchTracker {
	return &matchTracker{ids: ids, seen: bitset.New(uint(ids.Len()))}
}

func (m *matchTracker) mark(ordinal uint) {
	m.seen.Set(ordinal)
}

func (m *matchTracker) matched() int {
	return int(m.seen.Count())
}

// unmatched returns the identifiers never seen, in set order.
func (m *matchTracker) unmatched() (ids []string) {
	for i := uint(0); i < uint(m.ids.Len()); i++ {
		if !m.seen.Test(i) {
			ids = append(ids, m.ids.ID(i))
		}
	}
	return ids
}
