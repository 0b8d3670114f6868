// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package store is a small key/value engine over a directory of
// segments: upserts collect in an in-memory table that is periodically
// written out as a new segment, and reads consult the memtable and then
// segments from newest to oldest.
//
// There is no compaction and no write-ahead log; unflushed upserts are
// lost if the process exits without calling Close.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bpowers/seg"
	"github.com/bpowers/seg/internal/bloom"
	"github.com/bpowers/seg/internal/bytesutil"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("store: closed")

type segment struct {
	*seg.Segment
	filter *bloom.Filter
}

// Store is safe for concurrent use.
type Store struct {
	dir    string
	opts   options
	logger *slog.Logger

	mu       sync.RWMutex
	mem      *memtable
	segments []*segment // newest first
	nextID   uint64
	closed   bool
}

// Open opens the store in dir, which must exist, mapping every segment
// file in it. Temporary files left behind by interrupted flushes are
// ignored.
func Open(dir string, opts ...Option) (*Store, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	s := &Store{
		dir:    dir,
		opts:   options,
		logger: options.logger,
		mem:    newMemtable(),
		nextID: 1,
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("os.ReadDir: %w", err)
	}
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || filepath.Ext(name) != seg.FileExt {
			continue
		}
		if temp, _ := filepath.Match(seg.TempPattern, name); temp {
			s.logger.Debug("skipping temporary file", "name", name)
			continue
		}
		sg, err := s.openSegment(filepath.Join(dir, name))
		if err != nil {
			_ = s.releaseAll()
			return nil, err
		}
		s.segments = append(s.segments, sg)
		if sg.ID() >= s.nextID {
			s.nextID = sg.ID() + 1
		}
	}
	slices.SortFunc(s.segments, func(a, b *segment) int {
		switch {
		case a.ID() > b.ID():
			return -1
		case a.ID() < b.ID():
			return 1
		}
		return 0
	})

	s.logger.Info("opened store", "dir", dir, "segments", len(s.segments))

	return s, nil
}

func (s *Store) openSegment(path string) (*segment, error) {
	sg, err := seg.Open(path, seg.WithLogger(s.logger), seg.WithVerifyOnOpen(s.opts.verifyOnOpen))
	if err != nil {
		return nil, fmt.Errorf("seg.Open: %w", err)
	}

	filter := bloom.New(int(sg.Len()), s.opts.bloomBitsPerKey)
	it, err := sg.Range(nil, nil)
	if err != nil {
		_ = sg.Release()
		return nil, fmt.Errorf("sg.Range: %w", err)
	}
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		filter.Add(e.Key())
	}
	if err := it.Err(); err != nil {
		_ = sg.Release()
		return nil, fmt.Errorf("building bloom filter for %s: %w", path, err)
	}

	s.logger.Debug("built bloom filter", "segment", sg.ID(), "keys", sg.Len(),
		"fpr", filter.FalsePositiveRate(int(sg.Len())))

	return &segment{Segment: sg, filter: filter}, nil
}

// Get returns the newest entry for key. ok is false if no source has an
// entry for key; a deleted key is returned as a tombstone.
func (s *Store) Get(key []byte) (e seg.Entry[[]byte, []byte], ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return rawEntry{}, false, ErrClosed
	}

	if e, ok := s.mem.get(key); ok {
		return e, true, nil
	}
	for _, sg := range s.segments {
		if !sg.filter.MayContain(key) {
			continue
		}
		e, ok, err := sg.Get(key)
		if err != nil {
			return rawEntry{}, false, fmt.Errorf("segment %d: %w", sg.ID(), err)
		}
		if ok {
			return e, true, nil
		}
	}
	return rawEntry{}, false, nil
}

// Range returns the live entries with keys in [from, to) in ascending
// order, taking each key's newest entry and skipping deleted keys. A
// nil bound is unbounded.
//
// The iterator reads the memtable as it was when Range was called. It
// must not be used after Close.
func (s *Store) Range(from, to []byte) (seg.EntryIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	it := &Iterator{}
	sources := []func() (sourced, bool){fromSlice(s.mem.entries(from, to))}
	for i, sg := range s.segments {
		segIt, err := sg.Range(from, to)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", sg.ID(), err)
		}
		sources = append(sources, it.fromSegment(segIt, i+1))
	}
	it.init(sources)
	return it, nil
}

// Upsert stores e, replacing any earlier entry for its key. Key and
// value are copied.
func (s *Store) Upsert(e seg.Entry[[]byte, []byte]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	key := bytesutil.Clone(e.Key())
	if key == nil {
		key = []byte{}
	}
	if v, ok := e.Value(); ok {
		s.mem.put(seg.NewEntry(key, bytesutil.Clone(v)))
	} else {
		s.mem.put(seg.NewTombstone[[]byte, []byte](key))
	}

	if s.opts.flushThreshold > 0 && s.mem.size >= s.opts.flushThreshold {
		return s.flushLocked()
	}
	return nil
}

// Put stores value under key.
func (s *Store) Put(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return s.Upsert(seg.NewEntry(key, value))
}

// Delete records a tombstone for key.
func (s *Store) Delete(key []byte) error {
	return s.Upsert(seg.NewTombstone[[]byte, []byte](key))
}

// Flush writes the memtable out as a new segment. It does nothing if
// the memtable is empty.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if s.mem.len() == 0 {
		return nil
	}

	path := filepath.Join(s.dir, seg.FileName(s.nextID))
	b, err := seg.NewBuilder(path, seg.WithBuilderLogger(s.logger))
	if err != nil {
		return fmt.Errorf("seg.NewBuilder: %w", err)
	}
	var addErr error
	s.mem.ascend(func(e rawEntry) bool {
		addErr = b.Add(e)
		return addErr == nil
	})
	if addErr != nil {
		_ = b.Abort()
		return fmt.Errorf("b.Add: %w", addErr)
	}
	if err := b.Finalize(); err != nil {
		return fmt.Errorf("b.Finalize: %w", err)
	}
	s.nextID++

	sg, err := s.openSegment(path)
	if err != nil {
		return err
	}
	s.segments = slices.Insert(s.segments, 0, sg)

	s.logger.Info("flushed memtable", "segment", sg.ID(), "entries", s.mem.len(), "bytes", s.mem.size)
	s.mem = newMemtable()

	return nil
}

// Segments returns the ids of the store's segments, newest first.
func (s *Store) Segments() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, 0, len(s.segments))
	for _, sg := range s.segments {
		ids = append(ids, sg.ID())
	}
	return ids
}

// Close flushes the memtable and unmaps every segment. Iterators and
// entries obtained from the store must not be used afterwards. Closing
// a closed store does nothing.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.flushLocked()
	releaseErr := s.releaseAll()
	if flushErr != nil {
		return flushErr
	}
	return releaseErr
}

func (s *Store) releaseAll() error {
	var errs []error
	for _, sg := range s.segments {
		if err := sg.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	s.segments = nil
	return errors.Join(errs...)
}
