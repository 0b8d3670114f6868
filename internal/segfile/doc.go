// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package segfile contains the on-disk layout of an immutable, sorted
// segment and the code to write and read it.
//
// A segment generally looks like:
//
//	┌───────────────────┐
//	│ entry count N     │ 8 bytes
//	├───────────────────┤
//	│ link table        │ N * 8 bytes, data-region offsets in key order
//	├───────────────────┤
//	│ hash length H     │ 8 bytes
//	├───────────────────┤
//	│ hash              │ H bytes, SHA-256 of every record
//	├───────────────────┤
//	│ data region       │
//	│ repeated records  │
//	│                   │
//	└───────────────────┘
//
// Individual records start with a fixed 16-byte header and are variable length:
//
//	 0    1    2    3    4    5    6    7
//	+----+----+----+----+----+----+----+----+
//	| key length                            |
//	+----+----+----+----+----+----+----+----+
//	| value length, or -1 for a tombstone   |
//	+----+----+----+----+----+----+----+----+
//	| key...            | value...          |
//	+----+----+----+----+----+----+----+----+
//
// Tombstones carry no value bytes at all. Integers use the host byte order.
// The link table is the sort index: entry i is the i-th smallest key.
package segfile
