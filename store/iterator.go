// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package store

import (
	"bytes"
	"fmt"

	"github.com/bpowers/seg"
	"github.com/bpowers/seg/internal/bytesutil"
	"github.com/bpowers/seg/internal/loser"
)

// sourced is an entry tagged with the index of the source it came from;
// lower indexes are newer.
type sourced struct {
	e   rawEntry
	src int
}

func sourcedLess(a, b sourced) bool {
	if c := bytesutil.Compare(a.e.Key(), b.e.Key()); c != 0 {
		return c < 0
	}
	return a.src < b.src
}

func fromSlice(entries []rawEntry) func() (sourced, bool) {
	return func() (sourced, bool) {
		if len(entries) == 0 {
			return sourced{}, false
		}
		e := entries[0]
		entries = entries[1:]
		return sourced{e: e}, true
	}
}

// Iterator merges the memtable and every segment, yielding the newest
// live entry for each key.
type Iterator struct {
	tree    *loser.Tree[sourced]
	lastKey []byte
	started bool
	err     error
}

var _ seg.EntryIterator = (*Iterator)(nil)

func (it *Iterator) init(sources []func() (sourced, bool)) {
	it.tree = loser.New(sources, sourcedLess)
}

func (it *Iterator) fromSegment(segIt *seg.Iterator, src int) func() (sourced, bool) {
	return func() (sourced, bool) {
		e, ok := segIt.Next()
		if !ok {
			if err := segIt.Err(); err != nil && it.err == nil {
				it.err = fmt.Errorf("segment %d: %w", segIt.SegmentID(), err)
			}
			return sourced{}, false
		}
		return sourced{e: e, src: src}, true
	}
}

// Next returns the next live entry in key order.
func (it *Iterator) Next() (seg.Entry[[]byte, []byte], bool) {
	for it.err == nil {
		v, ok := it.tree.Next()
		if !ok || it.err != nil {
			break
		}
		// older entries for a key we've already seen are shadowed
		if it.started && bytes.Equal(v.e.Key(), it.lastKey) {
			continue
		}
		it.started = true
		it.lastKey = v.e.Key()
		if v.e.IsTombstone() {
			continue
		}
		return v.e, true
	}
	return rawEntry{}, false
}

// Err returns the error that stopped iteration early, if any.
func (it *Iterator) Err() error {
	return it.err
}
