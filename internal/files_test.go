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

package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(path, []byte("old"), 0666); err != nil {
		t.Fatal(err)
	}

	aborted, err := CreateAtomic(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := aborted.WriteString("discarded"); err != nil {
		t.Fatal(err)
	}
	aborted.Abort()
	aborted.Abort()
	if data, _ := os.ReadFile(path); string(data) != "old" {
		t.Errorf("aborted write replaced the file: %q", data)
	}

	committed, err := CreateAtomic(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := committed.WriteString("new"); err != nil {
		t.Fatal(err)
	}
	if err := committed.Commit(); err != nil {
		t.Fatal(err)
	}
	committed.Abort()
	if data, _ := os.ReadFile(path); string(data) != "new" {
		t.Errorf("committed write not visible: %q", data)
	}
	if err := committed.Commit(); err == nil {
		t.Error("second commit succeeded")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestSameFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a")
	if err := os.WriteFile(path, nil, 0666); err != nil {
		t.Fatal(err)
	}
	if !SameFile(path, filepath.Join(dir, ".", "a")) {
		t.Error("same file not recognized")
	}
	if SameFile(path, filepath.Join(dir, "b")) {
		t.Error("missing file reported as the same")
	}
}
