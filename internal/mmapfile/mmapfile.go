// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmapfile maps whole files read-only.
package mmapfile

import (
	"fmt"
	"os"
	"syscall"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"
)

// Open maps the file at path read-only in its entirety and advises the
// kernel that access will be random. The file descriptor is closed before
// returning; the mapping stays valid until it is unmapped, even if the
// file is removed in the meantime.
func Open(path string, minLen int64) (mmap.MMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	stats, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	if !stats.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	if stats.Size() < minLen {
		return nil, fmt.Errorf("file too short: %d < %d", stats.Size(), minLen)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap.Map(%s): %w", path, err)
	}

	if err := unix.Madvise(m, syscall.MADV_RANDOM); err != nil {
		_ = m.Unmap()
		return nil, fmt.Errorf("madvise: %w", err)
	}

	return m, nil
}
