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

package bed

import (
	"github.com/exascience/htstools/utils"
)

// A Bed is a collection of regions grouped by contig. Regions of a
// contig are kept in file order.
type Bed struct {
	// Contigs in order of first appearance.
	Contigs   []string
	RegionMap map[string][]*Region
}

// A Region is a struct for representing intervals as defined in a BED
// file. See https://genome.ucsc.edu/FAQ/FAQformat.html#format1
//
// Start and End are 0-based and half-open.
type Region struct {
	Chrom string
	Start int32
	End   int32
	// Name is the optional fourth column.
	Name string
	// Strand is '+' or '-' when the sixth column says so, and '.'
	// otherwise.
	Strand byte
	// OptionalFields holds all columns after the third, unparsed.
	OptionalFields []string
}

// Indices into OptionalFields. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
const (
	brName = iota
	brScore
	brStrand
)

// NewRegion allocates and initializes a new Region. The contig name is
// interned, so that large files with few contigs share their names.
func NewRegion(chrom string, start, end int32, fields []string) *Region {
	region := &Region{
		Chrom:          *utils.Intern(chrom),
		Start:          start,
		End:            end,
		Strand:         '.',
		OptionalFields: fields,
	}
	if len(fields) > brName {
		region.Name = fields[brName]
	}
	if len(fields) > brStrand {
		switch s := fields[brStrand]; s {
		case "+", "-":
			region.Strand = s[0]
		}
	}
	return region
}

// Len returns the number of bases the region covers.
func (region *Region) Len() int32 {
	return region.End - region.Start
}

// NewBed allocates and initializes an empty bed.
func NewBed() *Bed {
	return &Bed{
		RegionMap: make(map[string][]*Region),
	}
}

// AddRegion adds a region to the bed region map.
func (bed *Bed) AddRegion(region *Region) {
	regions, ok := bed.RegionMap[region.Chrom]
	if !ok {
		bed.Contigs = append(bed.Contigs, region.Chrom)
	}
	bed.RegionMap[region.Chrom] = append(regions, region)
}
