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
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/exascience/htstools/filters"
)

func filterCommand(global *globalOptions) *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "filter <hts-file> <ids-file> <output-file>",
		Short: "Select SAM or BAM records by read identifier",
		Long: `Select the records of a SAM or BAM file by read identifier.
The identifier file lists one read name per line. By default, the listed
reads are removed; with --keep, only the listed reads are kept.

The output has the format of the input, and contains the input header
and the selected records unchanged. It only replaces an existing file
after the whole input has been processed successfully.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, idFile, output := args[0], args[1], args[2]
			if !checkExist("", input) || !checkExist("", idFile) || !checkCreate("", output) {
				return errInvalidParameters
			}
			var extra string
			if keep {
				extra = " --keep"
			}
			log.Println("Executing command:\n", global.commandString("filter", args, extra))

			var summary *filters.Summary
			if err := timedRun(global.timed, "Filtering "+input+".", func() (err error) {
				summary, err = filters.FilterFile(input, idFile, filters.Options{Keep: keep, Output: output})
				return err
			}); err != nil {
				return err
			}
			log.Printf("Read %v records, wrote %v records to %v.\n", summary.RecordsRead, summary.RecordsWritten, output)
			log.Printf("%v identifiers matched, %v not found.\n", summary.MatchedIDs, len(summary.UnmatchedIDs))
			if n := len(summary.UnmatchedIDs); n > 0 {
				sample := summary.UnmatchedIDs
				if n > 10 {
					sample = sample[:10]
				}
				log.Printf("Identifiers not found include: %v\n", strings.Join(sample, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the listed reads instead of removing them")
	return cmd
}
