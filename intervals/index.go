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

package intervals

import (
	"github.com/exascience/pargo/parallel"
)

// contigIndex is an augmented interval tree stored implicitly in a
// slice sorted by Start: the node for the range [low, high) is at
// (low+high)/2, and maxEnd holds the largest End of each node's
// subtree.
type contigIndex struct {
	sorted    []Interval
	maxEnd    []int32
	flattened []Interval
}

func newContigIndex(ivals []Interval) *contigIndex {
	sorted := append([]Interval(nil), ivals...)
	ParallelSortByStart(sorted)
	index := &contigIndex{
		sorted:    sorted,
		maxEnd:    make([]int32, len(sorted)),
		flattened: ParallelFlatten(append([]Interval(nil), sorted...)),
	}
	index.build(0, len(sorted))
	return index
}

func (index *contigIndex) build(low, high int) int32 {
	if low >= high {
		return -1
	}
	mid := int(uint(low+high) >> 1)
	maxEnd := index.sorted[mid].End
	if end := index.build(low, mid); end > maxEnd {
		maxEnd = end
	}
	if end := index.build(mid+1, high); end > maxEnd {
		maxEnd = end
	}
	index.maxEnd[mid] = maxEnd
	return maxEnd
}

func (index *contigIndex) query(low, high int, start, end int32, result []Interval) []Interval {
	for low < high {
		mid := int(uint(low+high) >> 1)
		if index.maxEnd[mid] <= start {
			return result
		}
		result = index.query(low, mid, start, end, result)
		interval := index.sorted[mid]
		if interval.Start >= end {
			return result
		}
		if interval.Overlaps(start, end) {
			result = append(result, interval)
		}
		low = mid + 1
	}
	return result
}

// An Index is a searchable form of a Collection. Indexes are read-only
// and can be shared between goroutines.
type Index struct {
	Name    string
	contigs map[string]*contigIndex
	order   []string
}

// NewIndex builds the index of a collection, processing contigs in
// parallel.
func NewIndex(c *Collection) *Index {
	indexes := make([]*contigIndex, len(c.Contigs))
	parallel.Range(0, len(c.Contigs), 0, func(low, high int) {
		for i := low; i < high; i++ {
			indexes[i] = newContigIndex(c.Intervals[c.Contigs[i]])
		}
	})
	index := &Index{
		Name:    c.Name,
		contigs: make(map[string]*contigIndex, len(c.Contigs)),
		order:   append([]string(nil), c.Contigs...),
	}
	for i, contig := range c.Contigs {
		index.contigs[contig] = indexes[i]
	}
	return index
}

// NewIndexes builds the indexes of several collections in parallel.
func NewIndexes(collections []*Collection) []*Index {
	indexes := make([]*Index, len(collections))
	parallel.Range(0, len(collections), 0, func(low, high int) {
		for i := low; i < high; i++ {
			indexes[i] = NewIndex(collections[i])
		}
	})
	return indexes
}

// Contigs returns the contigs of the index in order of first
// appearance.
func (index *Index) Contigs() []string {
	return index.order
}

// Query returns all intervals on the contig that overlap the half-open
// range [start, end), sorted by Start. Empty intervals overlap
// nothing.
func (index *Index) Query(contig string, start, end int32) []Interval {
	ci := index.contigs[contig]
	if ci == nil || start >= end {
		return nil
	}
	return ci.query(0, len(ci.sorted), start, end, nil)
}

// Flattened returns the merged intervals of a contig, sorted by Start.
// The result must not be modified.
func (index *Index) Flattened(contig string) []Interval {
	if ci := index.contigs[contig]; ci != nil {
		return ci.flattened
	}
	return nil
}

// Coverage returns the number of positions covered by the index.
func (index *Index) Coverage() (length int64) {
	for _, ci := range index.contigs {
		length += TotalLength(ci.flattened)
	}
	return length
}
