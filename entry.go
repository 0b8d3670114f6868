// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package seg

// Entry is a key with either a value or a tombstone. Entries are plain
// values; two entries with equal keys and values are interchangeable.
//
// The zero Entry is a tombstone for the zero key.
type Entry[K, V any] struct {
	key   K
	value V
	live  bool
}

// NewEntry returns a live entry mapping key to value.
func NewEntry[K, V any](key K, value V) Entry[K, V] {
	return Entry[K, V]{key: key, value: value, live: true}
}

// NewTombstone returns an entry recording that key was deleted.
func NewTombstone[K, V any](key K) Entry[K, V] {
	return Entry[K, V]{key: key}
}

// Key returns the entry's key.
func (e Entry[K, V]) Key() K {
	return e.key
}

// Value returns the entry's value, and false for tombstones.
func (e Entry[K, V]) Value() (V, bool) {
	return e.value, e.live
}

// IsTombstone reports whether the entry marks a deletion.
func (e Entry[K, V]) IsTombstone() bool {
	return !e.live
}
