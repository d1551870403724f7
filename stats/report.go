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
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/shenwei356/natsort"
)

// Report formats.
const (
	FormatHuman = "human"
	FormatTSV   = "tsv"
	FormatJSON  = "json"
)

// Tally is one named count of a report.
type Tally struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Report is the rendered form of an aggregate.
type Report struct {
	File          string  `json:"file"`
	FileType      string  `json:"type"`
	Records       int64   `json:"records"`
	Bases         *int64  `json:"bases,omitempty"`
	MinLength     *int    `json:"min_length,omitempty"`
	MaxLength     *int    `json:"max_length,omitempty"`
	MeanLength    *string `json:"mean_length,omitempty"`
	WithQuality   *int64  `json:"with_quality,omitempty"`
	Mapped        *int64  `json:"mapped,omitempty"`
	Unmapped      *int64  `json:"unmapped,omitempty"`
	Secondary     *int64  `json:"secondary,omitempty"`
	Supplementary *int64  `json:"supplementary,omitempty"`
	Instruments   []Tally `json:"instruments"`
	FlowCells     []Tally `json:"flow_cells,omitempty"`
	Lengths       []Tally `json:"lengths,omitempty"`
}

// sortedTallies orders map entries naturally by name, so that lane 2
// comes before lane 10.
func sortedTallies(m map[string]int64) []Tally {
	tallies := make([]Tally, 0, len(m))
	for name, count := range m {
		tallies = append(tallies, Tally{Name: name, Count: count})
	}
	sort.Slice(tallies, func(i, j int) bool {
		return natsort.Compare(tallies[i].Name, tallies[j].Name, false)
	})
	return tallies
}

// NewReport prepares an aggregate for rendering.
func NewReport(file string, agg *Aggregate) *Report {
	r := &Report{
		File:        file,
		FileType:    agg.FileType.String(),
		Records:     agg.Records,
		Instruments: sortedTallies(agg.Instruments),
	}
	if agg.IsAlignment() {
		r.Mapped, r.Unmapped = &agg.Mapped, &agg.Unmapped
		r.Secondary, r.Supplementary = &agg.Secondary, &agg.Supplementary
	} else {
		r.Bases = &agg.Bases
		minLength := agg.MinLength
		if minLength < 0 {
			minLength = 0
		}
		r.MinLength, r.MaxLength = &minLength, &agg.MaxLength
		mean := strconv.FormatFloat(agg.MeanLength(), 'f', 2, 64)
		r.MeanLength = &mean
		r.WithQuality = &agg.WithQuality
	}
	if agg.FlowCells != nil {
		r.FlowCells = sortedTallies(agg.FlowCells)
	}
	if agg.Lengths != nil {
		r.Lengths = make([]Tally, 0, len(agg.Lengths))
		for length, count := range agg.Lengths {
			r.Lengths = append(r.Lengths, Tally{Name: strconv.Itoa(length), Count: count})
		}
		sort.Slice(r.Lengths, func(i, j int) bool {
			return natsort.Compare(r.Lengths[i].Name, r.Lengths[j].Name, false)
		})
	}
	return r
}

type field struct {
	key, value string
}

func (r *Report) fields() []field {
	fields := []field{
		{"file", r.File},
		{"type", r.FileType},
		{"records", strconv.FormatInt(r.Records, 10)},
	}
	add := func(key string, value *int64) {
		if value != nil {
			fields = append(fields, field{key, strconv.FormatInt(*value, 10)})
		}
	}
	add("bases", r.Bases)
	if r.MinLength != nil {
		fields = append(fields,
			field{"min_length", strconv.Itoa(*r.MinLength)},
			field{"max_length", strconv.Itoa(*r.MaxLength)},
			field{"mean_length", *r.MeanLength})
	}
	add("with_quality", r.WithQuality)
	add("mapped", r.Mapped)
	add("unmapped", r.Unmapped)
	add("secondary", r.Secondary)
	add("supplementary", r.Supplementary)
	fields = append(fields, field{"instruments", strconv.Itoa(len(r.Instruments))})
	for _, t := range r.Instruments {
		fields = append(fields, field{"instrument:" + t.Name, strconv.FormatInt(t.Count, 10)})
	}
	for _, t := range r.FlowCells {
		fields = append(fields, field{"flow_cell:" + t.Name, strconv.FormatInt(t.Count, 10)})
	}
	for _, t := range r.Lengths {
		fields = append(fields, field{"length:" + t.Name, strconv.FormatInt(t.Count, 10)})
	}
	return fields
}

// Write renders the report in the given format.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case FormatHuman, "":
		tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
		for _, f := range r.fields() {
			if _, err := fmt.Fprintf(tw, "%v:\t%v\n", f.key, f.value); err != nil {
				return err
			}
		}
		return tw.Flush()
	case FormatTSV:
		for _, f := range r.fields() {
			if _, err := fmt.Fprintf(w, "%v\t%v\n", f.key, f.value); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		return fmt.Errorf("unknown report format %v", format)
	}
}
