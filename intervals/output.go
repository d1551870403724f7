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
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/exascience/htstools/hts"
	"github.com/exascience/htstools/internal"
)

// Columns of Jaccard tables.
var columns = []string{"collectionA", "collectionB", "intersection", "union", "ratio"}

func formatRatio(ratio float64) string {
	return strconv.FormatFloat(ratio, 'f', 6, 64)
}

// TableWriter renders Jaccard results as an aligned table.
type TableWriter struct {
	tw *tabwriter.Writer
}

// NewTableWriter writes a table header to w and returns a TableWriter
// for the rows. The table is only complete after Flush.
func NewTableWriter(w io.Writer) (*TableWriter, error) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tw, strings.Join(columns, "\t")+"\t"); err != nil {
		return nil, err
	}
	return &TableWriter{tw: tw}, nil
}

// Write implements ResultWriter.
func (t *TableWriter) Write(result JaccardResult) error {
	_, err := fmt.Fprintf(t.tw, "%v\t%v\t%v\t%v\t%v\t\n",
		result.A, result.B, result.Intersection, result.Union, formatRatio(result.Ratio))
	return err
}

// Flush writes the buffered table.
func (t *TableWriter) Flush() error {
	return t.tw.Flush()
}

// DelimitedFile writes Jaccard results to a CSV file if the file name
// ends in .csv, and to a tab-separated file otherwise. Rows are written
// as they arrive. The file only appears under its name after Commit.
type DelimitedFile struct {
	file *internal.AtomicFile
	w    *csv.Writer
}

// CreateDelimited creates a delimited output file and writes its
// header row.
func CreateDelimited(path string) (*DelimitedFile, error) {
	file, err := internal.CreateAtomic(path)
	if err != nil {
		return nil, &hts.IOError{Op: "create", Path: path, Err: err}
	}
	w := csv.NewWriter(file)
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		w.Comma = '\t'
	}
	d := &DelimitedFile{file: file, w: w}
	if err := d.w.Write(columns); err != nil {
		file.Abort()
		return nil, &hts.IOError{Op: "write", Path: path, Err: err}
	}
	return d, nil
}

// Write implements ResultWriter.
func (d *DelimitedFile) Write(result JaccardResult) error {
	if err := d.w.Write([]string{
		result.A,
		result.B,
		strconv.FormatInt(result.Intersection, 10),
		strconv.FormatInt(result.Union, 10),
		formatRatio(result.Ratio),
	}); err != nil {
		return &hts.IOError{Op: "write", Path: d.file.Path(), Err: err}
	}
	d.w.Flush()
	if err := d.w.Error(); err != nil {
		return &hts.IOError{Op: "write", Path: d.file.Path(), Err: err}
	}
	return nil
}

// Commit moves the complete file to its final name.
func (d *DelimitedFile) Commit() error {
	d.w.Flush()
	if err := d.w.Error(); err != nil {
		d.file.Abort()
		return &hts.IOError{Op: "write", Path: d.file.Path(), Err: err}
	}
	if err := d.file.Commit(); err != nil {
		return &hts.IOError{Op: "commit", Path: d.file.Path(), Err: err}
	}
	return nil
}

// Abort removes the incomplete file.
func (d *DelimitedFile) Abort() {
	d.file.Abort()
}

// Options configures Compare.
type Options struct {
	// Names label the collections in the output, in the order of the
	// paths. When empty, the base names of the paths are used.
	Names []string
	// Output is the path of a delimited output file. When empty, a
	// table is written to the standard output writer instead.
	Output string
}

// Compare loads and indexes the given BED files and computes the
// Jaccard coefficient of every pair of them.
func Compare(paths []string, options Options, stdout io.Writer) error {
	if len(options.Names) > 0 && len(options.Names) != len(paths) {
		return fmt.Errorf("%v names given for %v interval files", len(options.Names), len(paths))
	}
	collections, err := LoadAll(paths)
	if err != nil {
		return err
	}
	for i, name := range options.Names {
		collections[i].Name = name
	}
	if len(collections) == 1 {
		log.Printf("Only one interval collection given, %v is trivially self-similar.\n", collections[0].Name)
	}
	indexes := NewIndexes(collections)

	if options.Output == "" {
		table, err := NewTableWriter(stdout)
		if err != nil {
			return err
		}
		if err := AllPairs(indexes, table); err != nil {
			return err
		}
		return table.Flush()
	}

	output, err := CreateDelimited(options.Output)
	if err != nil {
		return err
	}
	if err := AllPairs(indexes, output); err != nil {
		output.Abort()
		return err
	}
	return output.Commit()
}
