// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package seg reads and writes immutable, sorted segment files: the
// on-disk building block of an embedded key-value store.
//
// A segment is produced once by a Builder from keys appended in strictly
// ascending order, and then opened read-only any number of times with
// Open. Open memory-maps the file; lookups binary search the segment's
// link table and hand back slices of the mapping without copying.
//
// Deleted keys are stored as tombstones. Get distinguishes a key that
// was never written (ok == false) from one that was deleted (an Entry
// for which IsTombstone reports true).
package seg
