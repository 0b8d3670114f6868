// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package typed exposes a byte-level store through a Converter, so
// applications can work with their own key and value types.
package typed

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/bpowers/seg"
	"github.com/bpowers/seg/convert"
)

// ErrStopped is returned by operations on a stopped DB.
var ErrStopped = errors.New("typed: stopped")

// Store is the byte-level engine a DB delegates to. Get reports deleted
// keys as tombstones with ok == true; Range yields entries with keys in
// [from, to), where a nil bound is unbounded.
type Store interface {
	Get(key []byte) (seg.Entry[[]byte, []byte], bool, error)
	Range(from, to []byte) (seg.EntryIterator, error)
	Upsert(e seg.Entry[[]byte, []byte]) error
	Close() error
}

// DB converts typed entries to bytes and back on their way to and from
// a Store. It does no buffering or merging of its own, and is as safe
// for concurrent use as its Store.
type DB[K, V any] struct {
	store   Store
	conv    convert.Converter[K, V]
	stopped atomic.Bool
}

// New returns a DB over store. The DB owns store from now on: Stop
// closes it.
func New[K, V any](store Store, conv convert.Converter[K, V]) *DB[K, V] {
	return &DB[K, V]{
		store: store,
		conv:  conv,
	}
}

// Get looks up k. ok is false if no entry exists; a deleted key is
// returned as a tombstone.
func (db *DB[K, V]) Get(k K) (e seg.Entry[K, V], ok bool, err error) {
	if db.stopped.Load() {
		return seg.Entry[K, V]{}, false, ErrStopped
	}
	raw, ok, err := db.store.Get(db.conv.KeyToBytes(k))
	return convert.DecodeLookup(db.conv, raw, ok, err)
}

// Range iterates over the entries with keys in [from, to), or from from
// to the end if to is nil.
func (db *DB[K, V]) Range(from K, to *K) (*Iterator[K, V], error) {
	if db.stopped.Load() {
		return nil, ErrStopped
	}
	var end []byte
	if to != nil {
		end = db.conv.KeyToBytes(*to)
		if end == nil {
			end = []byte{}
		}
	}
	start := db.conv.KeyToBytes(from)
	if start == nil {
		start = []byte{}
	}
	it, err := db.store.Range(start, end)
	if err != nil {
		return nil, err
	}
	return &Iterator[K, V]{it: it, conv: db.conv}, nil
}

// Upsert writes e, replacing any earlier entry for its key.
func (db *DB[K, V]) Upsert(e seg.Entry[K, V]) error {
	if db.stopped.Load() {
		return ErrStopped
	}
	return db.store.Upsert(convert.EncodeEntry(db.conv, e))
}

// Put stores v under k.
func (db *DB[K, V]) Put(k K, v V) error {
	return db.Upsert(seg.NewEntry(k, v))
}

// Delete writes a tombstone for k.
func (db *DB[K, V]) Delete(k K) error {
	return db.Upsert(seg.NewTombstone[K, V](k))
}

// Stop closes the underlying store. Later calls do nothing.
func (db *DB[K, V]) Stop() error {
	if db.stopped.Swap(true) {
		return nil
	}
	if err := db.store.Close(); err != nil {
		return fmt.Errorf("store.Close: %w", err)
	}
	return nil
}

// Iterator decodes the entries of a store range.
type Iterator[K, V any] struct {
	it   seg.EntryIterator
	conv convert.Converter[K, V]
	err  error
}

// Next returns the next entry, or false at the end of the range or on
// a decoding error (see Err).
func (i *Iterator[K, V]) Next() (seg.Entry[K, V], bool) {
	if i.err != nil {
		return seg.Entry[K, V]{}, false
	}
	raw, ok := i.it.Next()
	if !ok {
		return seg.Entry[K, V]{}, false
	}
	e, err := convert.DecodeEntry(i.conv, raw)
	if err != nil {
		i.err = err
		return seg.Entry[K, V]{}, false
	}
	return e, true
}

// Err returns the error that stopped iteration early, if any.
func (i *Iterator[K, V]) Err() error {
	if i.err != nil {
		return i.err
	}
	return i.it.Err()
}
