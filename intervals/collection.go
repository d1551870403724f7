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
	"path/filepath"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/htstools/bed"
)

// A Collection is a set of intervals loaded from one file, grouped by
// contig.
type Collection struct {
	Name    string
	Path    string
	Contigs []string
	// Intervals per contig, in file order.
	Intervals map[string][]Interval
}

// Add an interval to the collection.
func (c *Collection) Add(contig string, interval Interval) {
	ivals, ok := c.Intervals[contig]
	if !ok {
		c.Contigs = append(c.Contigs, contig)
	}
	c.Intervals[contig] = append(ivals, interval)
}

// Len returns the number of intervals in the collection.
func (c *Collection) Len() (n int) {
	for _, ivals := range c.Intervals {
		n += len(ivals)
	}
	return n
}

// Load reads a collection from a BED file. The name of the collection
// is the base name of the file. Fails with an *hts.ParseError on the
// first malformed line.
func Load(path string) (*Collection, error) {
	b, err := bed.ParseBed(path)
	if err != nil {
		return nil, err
	}
	c := FromBed(filepath.Base(path), b)
	c.Path = path
	return c, nil
}

// FromBed returns a collection with the regions of a parsed BED file.
func FromBed(name string, b *bed.Bed) *Collection {
	c := &Collection{Name: name, Intervals: make(map[string][]Interval)}
	for _, contig := range b.Contigs {
		for _, region := range b.RegionMap[contig] {
			c.Add(contig, Interval{Start: region.Start, End: region.End})
		}
	}
	return c
}

// LoadAll loads several collections in parallel. The result is in the
// order of the paths. The first error in path order is returned.
func LoadAll(paths []string) ([]*Collection, error) {
	collections := make([]*Collection, len(paths))
	errs := make([]error, len(paths))
	parallel.Range(0, len(paths), 0, func(low, high int) {
		for i := low; i < high; i++ {
			collections[i], errs[i] = Load(paths[i])
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return collections, nil
}
