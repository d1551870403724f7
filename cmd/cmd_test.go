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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exascience/htstools/internal/htstest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInfoCommand(t *testing.T) {
	dir := t.TempDir()
	input := htstest.WriteFile(t, dir, "reads.fq", []byte("@M1:1:FC:1:1:1:1\nACGT\n+\nIIII\n@M1:1:FC:1:1:1:2\nAC\n+\nII\n"))
	out, err := execute(t, "info", input, "--format", "tsv", "--flowcells")
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"records\t2\n", "bases\t6\n", "instrument:M1\t2\n", "flow_cell:FC\t2\n"} {
		if !strings.Contains(out, line) {
			t.Errorf("info output lacks %q:\n%v", line, out)
		}
	}
	if _, err := execute(t, "info", input, "--format", "xml"); err != errInvalidParameters {
		t.Errorf("invalid format accepted: %v", err)
	}
	if _, err := execute(t, "info", filepath.Join(dir, "missing.fq")); err != errInvalidParameters {
		t.Errorf("missing input accepted: %v", err)
	}
}

func TestFilterCommand(t *testing.T) {
	dir := t.TempDir()
	input := htstest.WriteFile(t, dir, "in.sam", []byte("@HD\tVN:1.6\nr1\t4\t*\t0\t0\t*\t*\t0\t0\tA\tI\nr2\t4\t*\t0\t0\t*\t*\t0\t0\tC\tI\n"))
	ids := htstest.WriteFile(t, dir, "ids.txt", []byte("r1\n"))
	output := filepath.Join(dir, "out", "out.sam")
	if _, err := execute(t, "filter", input, ids, output); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "@HD\tVN:1.6\nr2\t4\t*\t0\t0\t*\t*\t0\t0\tC\tI\n" {
		t.Errorf("unexpected output:\n%v", string(data))
	}
	if _, err := execute(t, "filter", input, ids); err == nil {
		t.Error("missing argument accepted")
	}
}

func TestJaccardCommand(t *testing.T) {
	dir := t.TempDir()
	a := htstest.WriteFile(t, dir, "a.bed", []byte("chr1\t0\t100\nchr1\t200\t300\n"))
	b := htstest.WriteFile(t, dir, "b.bed", []byte("chr1\t50\t150\n"))
	out, err := execute(t, "jaccard", a, b, "--names", "first,second")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") || !strings.Contains(out, "0.200000") {
		t.Errorf("unexpected table:\n%v", out)
	}
	if _, err := execute(t, "jaccard", a, b, "--names", "first"); err != errInvalidParameters {
		t.Errorf("mismatched names accepted: %v", err)
	}
}
