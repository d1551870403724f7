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

// htstools computes statistics of sequencing read files, filters
// alignment files by read identifier, and compares genomic interval
// files.
//
// Please see https://github.com/exascience/htstools for a
// documentation of the tool.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/exascience/htstools/cmd"
	"github.com/exascience/htstools/utils"
)

var red = color.New(color.FgRed).SprintFunc()

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
		fmt.Fprintln(os.Stderr, red("Try '"+utils.ProgramName+" --help' for more information"))
		os.Exit(1)
	}
}
