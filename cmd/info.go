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

	"github.com/spf13/cobra"

	"github.com/exascience/htstools/stats"
)

func infoCommand(global *globalOptions) *cobra.Command {
	var (
		options stats.Options
		format  string
	)
	cmd := &cobra.Command{
		Use:   "info <hts-file>",
		Short: "Summarize a FASTQ, FASTA, SAM or BAM file",
		Long: `Summarize a FASTQ, FASTA, SAM or BAM file in a single pass.
The file type and compression are determined from the file content.

Sequence files report record and base counts, read lengths, and the
instruments named in Illumina read identifiers. Alignment files report
mapped, unmapped, secondary and supplementary record counts instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if !checkExist("", input) || !checkFormat(format, stats.FormatHuman, stats.FormatTSV, stats.FormatJSON) {
				return errInvalidParameters
			}
			var extra string
			if options.Lengths {
				extra += " --lengths"
			}
			if options.FlowCells {
				extra += " --flowcells"
			}
			extra += fmt.Sprint(" --format ", format)
			log.Println("Executing command:\n", global.commandString("info", args, extra))

			var agg *stats.Aggregate
			if err := timedRun(global.timed, "Summarizing "+input+".", func() (err error) {
				agg, err = stats.SummarizeFile(input, options)
				return err
			}); err != nil {
				return err
			}
			return stats.NewReport(input, agg).Write(cmd.OutOrStdout(), format)
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&options.Lengths, "lengths", false, "report the read length distribution")
	flags.BoolVar(&options.FlowCells, "flowcells", false, "report read counts per flow cell")
	flags.StringVar(&format, "format", stats.FormatHuman, "report format (human, tsv, json)")
	return cmd
}
