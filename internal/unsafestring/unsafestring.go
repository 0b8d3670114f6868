// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package unsafestring converts strings to byte slices without copying,
// for keys that are only read: compared, hashed or copied.
package unsafestring

import (
	"unsafe"
)

// ToBytes returns a byte slice referring to the contents of the input string.
// SAFETY: the returned byte slice must never be written to, only read.
func ToBytes(s string) []byte {
	if len(s) == 0 {
		// non-nil, so "" stays distinct from an absent key
		return []byte{}
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
