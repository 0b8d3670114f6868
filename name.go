// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package seg

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
)

// FileExt is the extension of published segment files.
const FileExt = ".seg"

// ErrBadSegmentName is returned when a segment's file name isn't a
// non-negative integer followed by an extension.
var ErrBadSegmentName = errors.New("seg: file name must be <integer id>" + FileExt)

// FileName returns the base name of the segment file with the given id.
func FileName(id uint64) string {
	return strconv.FormatUint(id, 10) + FileExt
}

// ParseID extracts the segment id from the stem of path's base name.
// The extension itself isn't interpreted.
func ParseID(path string) (uint64, error) {
	base := filepath.Base(path)
	stem := base[:len(base)-len(filepath.Ext(base))]
	id, err := strconv.ParseUint(stem, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", base, ErrBadSegmentName)
	}
	return id, nil
}
