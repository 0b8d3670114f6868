// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bytesutil holds the byte-slice helpers shared by the segment
// reader, writer and store.
package bytesutil

import (
	"bytes"
)

// Compare orders keys lexicographically by unsigned byte value; a key
// sorts before every longer key it is a prefix of. The result is 0 if
// a == b, -1 if a < b, and +1 if a > b. nil and empty slices are equal.
//
// Every sorted structure in this module (segments, the memtable and
// merged scans) must use this ordering.
func Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}

// Less reports whether a sorts before b.
func Less(a, b []byte) bool {
	return Compare(a, b) < 0
}

// Clone returns a copy of b that doesn't alias it, preserving the
// distinction between nil and empty.
func Clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}
