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

package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/exascience/htstools/intervals"
)

func jaccardCommand(global *globalOptions) *cobra.Command {
	var options intervals.Options
	cmd := &cobra.Command{
		Use:   "jaccard <bed-file>...",
		Short: "Compare BED files pairwise by Jaccard coefficient",
		Long: `Compare every pair of BED files by the Jaccard coefficient of the
genomic positions they cover: the number of bases covered by both
files divided by the number of bases covered by either.

Results are printed as a table, or written to a delimited file with
--output: comma-separated if the file name ends in .csv, and
tab-separated otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if !checkExist("", path) {
					return errInvalidParameters
				}
			}
			if len(options.Names) > 0 && len(options.Names) != len(args) {
				log.Printf("Error: %v names given for %v BED files.\n", len(options.Names), len(args))
				return errInvalidParameters
			}
			var extra string
			if len(options.Names) > 0 {
				extra += fmt.Sprint(" --names ", strings.Join(options.Names, ","))
			}
			if options.Output != "" {
				if !checkCreate("--output", options.Output) {
					return errInvalidParameters
				}
				extra += fmt.Sprint(" --output ", options.Output)
			}
			log.Println("Executing command:\n", global.commandString("jaccard", args, extra))

			return timedRun(global.timed, "Comparing interval files.", func() error {
				return intervals.Compare(args, options, cmd.OutOrStdout())
			})
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVar(&options.Names, "names", nil, "comma-separated labels for the BED files (default: file base names)")
	flags.StringVar(&options.Output, "output", "", "write results to a delimited file instead of the standard output")
	return cmd
}
