// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package store

import (
	"github.com/google/btree"

	"github.com/bpowers/seg"
	"github.com/bpowers/seg/internal/bytesutil"
)

const (
	btreeDegree = 16
	// per-entry bookkeeping, matching a segment record header
	entryOverhead = 16
)

type rawEntry = seg.Entry[[]byte, []byte]

// memtable holds upserts that haven't been written to a segment yet,
// ordered by key. Tombstones are kept so they shadow older segments.
type memtable struct {
	records *btree.BTreeG[rawEntry]
	size    int64
}

func newMemtable() *memtable {
	return &memtable{
		records: btree.NewG[rawEntry](btreeDegree, func(a, b rawEntry) bool {
			return bytesutil.Less(a.Key(), b.Key())
		}),
	}
}

func entrySize(e rawEntry) int64 {
	v, _ := e.Value()
	return int64(len(e.Key())+len(v)) + entryOverhead
}

// put stores e, replacing any entry with the same key.
func (m *memtable) put(e rawEntry) {
	if old, ok := m.records.ReplaceOrInsert(e); ok {
		m.size -= entrySize(old)
	}
	m.size += entrySize(e)
}

func (m *memtable) get(key []byte) (rawEntry, bool) {
	return m.records.Get(seg.NewTombstone[[]byte, []byte](key))
}

func (m *memtable) len() int {
	return m.records.Len()
}

// entries returns the entries with keys in [from, to); nil bounds are
// unbounded.
func (m *memtable) entries(from, to []byte) []rawEntry {
	var out []rawEntry
	collect := func(e rawEntry) bool {
		out = append(out, e)
		return true
	}
	lo := seg.NewTombstone[[]byte, []byte](from)
	hi := seg.NewTombstone[[]byte, []byte](to)
	switch {
	case from == nil && to == nil:
		m.records.Ascend(collect)
	case to == nil:
		m.records.AscendGreaterOrEqual(lo, collect)
	case from == nil:
		m.records.AscendLessThan(hi, collect)
	default:
		m.records.AscendRange(lo, hi, collect)
	}
	return out
}

// ascend calls fn for every entry in key order until fn returns false.
func (m *memtable) ascend(fn func(rawEntry) bool) {
	m.records.Ascend(fn)
}
