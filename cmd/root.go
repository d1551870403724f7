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

// Package cmd implements the htstools command line.
package cmd

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/exascience/htstools/utils"
)

// errInvalidParameters is returned after the offending parameters have
// been logged.
var errInvalidParameters = errors.New("invalid command line parameters")

// globalOptions are shared by all commands.
type globalOptions struct {
	nrOfThreads int
	timed       bool
}

// commandString echoes a command with its effective parameters for the
// log.
func (global *globalOptions) commandString(name string, args []string, extra string) string {
	var command strings.Builder
	fmt.Fprint(&command, utils.ProgramName, " ", name)
	for _, arg := range args {
		fmt.Fprint(&command, " ", arg)
	}
	fmt.Fprint(&command, extra)
	if global.nrOfThreads > 0 {
		fmt.Fprint(&command, " --nr-of-threads ", global.nrOfThreads)
	}
	if global.timed {
		fmt.Fprint(&command, " --timed")
	}
	return command.String()
}

// NewRootCommand returns the htstools command with all subcommands.
func NewRootCommand() *cobra.Command {
	var global globalOptions
	root := &cobra.Command{
		Use:           utils.ProgramName,
		Short:         "Statistics, filtering and interval comparison for HTS files",
		Version:       utils.ProgramVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if global.nrOfThreads < 0 {
				return fmt.Errorf("invalid nr-of-threads %v", global.nrOfThreads)
			}
			if global.nrOfThreads > 0 {
				runtime.GOMAXPROCS(global.nrOfThreads)
			}
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.IntVar(&global.nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&global.timed, "timed", false, "log the elapsed time of each phase")

	root.AddCommand(
		infoCommand(&global),
		filterCommand(&global),
		jaccardCommand(&global),
	)
	return root
}
