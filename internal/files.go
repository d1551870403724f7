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
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// SameFile reports whether both paths name the same existing file.
func SameFile(path1, path2 string) bool {
	info1, err := os.Stat(path1)
	if err != nil {
		return false
	}
	info2, err := os.Stat(path2)
	if err != nil {
		return false
	}
	return os.SameFile(info1, info2)
}

// AtomicFile is an output file that only appears under its final name
// once Commit succeeds. Until then, data goes to a uniquely named
// temporary file in the same directory, so an existing file with the
// final name stays intact when the producer fails.
type AtomicFile struct {
	*os.File
	path string
	done bool
}

// CreateAtomic creates the temporary file for the given final path.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir, base := filepath.Split(path)
	tmp := filepath.Join(dir, "."+base+"."+uuid.New().String()+".tmp")
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return nil, err
	}
	return &AtomicFile{File: f, path: path}, nil
}

// Path returns the final path of the file.
func (f *AtomicFile) Path() string {
	return f.path
}

// Commit closes the temporary file and renames it to the final path,
// replacing any existing file there.
func (f *AtomicFile) Commit() error {
	if f.done {
		return errors.New("atomic file " + f.path + " already closed")
	}
	f.done = true
	tmp := f.Name()
	if err := f.File.Sync(); err != nil {
		_ = f.File.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.File.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Abort closes and removes the temporary file. It is a no-op after
// Commit, so it can be deferred unconditionally.
func (f *AtomicFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	_ = f.File.Close()
	_ = os.Remove(f.Name())
}
