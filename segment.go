// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package seg

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"

	"github.com/bpowers/seg/internal/mmapfile"
	"github.com/bpowers/seg/internal/segfile"
)

// minFileLen is the size of a segment with no entries and an empty hash.
const minFileLen = 16

var (
	// ErrCorrupt is returned when a segment's bytes don't describe a valid segment.
	ErrCorrupt = segfile.ErrCorrupt
	// ErrIntegrity is returned by Open with WithVerifyOnOpen when the
	// stored hash doesn't match the segment's contents.
	ErrIntegrity = errors.New("seg: integrity check failed")
)

// Segment is a read-only view of one segment file, backed by a shared
// read-only memory mapping. Keys and values returned from a Segment point
// into the mapping: they must not be modified, and are valid until
// Release is called.
//
// A Segment is safe for concurrent use.
type Segment struct {
	r        *segfile.Reader
	m        mmap.MMap
	path     string
	id       uint64
	logger   *slog.Logger
	released atomic.Bool
}

// Open maps the segment file at path. The file name must be the
// segment's integer id followed by an extension, like "42.seg".
func Open(path string, opts ...Option) (*Segment, error) {
	var options openOptions
	options.logger = discardLogger()
	for _, opt := range opts {
		opt(&options)
	}

	id, err := ParseID(path)
	if err != nil {
		return nil, err
	}

	m, err := mmapfile.Open(path, minFileLen)
	if err != nil {
		return nil, err
	}

	integrity := options.integrityCheck || options.verifyOnOpen
	r, err := segfile.NewReader(m, segfile.WithIntegrityCheck(integrity))
	if err != nil {
		_ = m.Unmap()
		return nil, fmt.Errorf("segfile.NewReader(%s): %w", path, err)
	}

	s := &Segment{
		r:      r,
		m:      m,
		path:   path,
		id:     id,
		logger: options.logger.With("segment", id),
	}

	if options.verifyOnOpen && !s.CheckIntegrity() {
		_ = m.Unmap()
		return nil, fmt.Errorf("%s: %w", path, ErrIntegrity)
	}

	s.logger.Debug("opened segment", "path", path, "entries", r.Len())

	return s, nil
}

// ID returns the id encoded in the segment's file name.
func (s *Segment) ID() uint64 {
	return s.id
}

// Path returns the path the segment was opened from.
func (s *Segment) Path() string {
	return s.path
}

// Len returns the number of entries, tombstones included.
func (s *Segment) Len() int64 {
	return s.r.Len()
}

// Hash returns the digest stored in the segment.
func (s *Segment) Hash() []byte {
	return s.r.Hash()
}

func toEntry(rec segfile.Record) Entry[[]byte, []byte] {
	if rec.Tombstone {
		return NewTombstone[[]byte, []byte](rec.Key)
	}
	return NewEntry(rec.Key, rec.Value)
}

// EntryAt returns the entry at position pos in key order. ok is false
// for positions outside [0, Len()).
func (s *Segment) EntryAt(pos int64) (e Entry[[]byte, []byte], ok bool, err error) {
	rec, ok, err := s.r.EntryAt(pos)
	if !ok || err != nil {
		return Entry[[]byte, []byte]{}, false, err
	}
	return toEntry(rec), true, nil
}

// KeyAt returns the key at position pos in key order. ok is false for
// positions outside [0, Len()).
func (s *Segment) KeyAt(pos int64) (key []byte, ok bool, err error) {
	return s.r.KeyAt(pos)
}

// Search returns the position of key, or of the first key greater than
// it if key is absent (Len() when every key is smaller).
func (s *Segment) Search(key []byte) (int64, error) {
	return s.r.Search(key)
}

// Get looks up key. ok is false if the segment has no entry for key; a
// deleted key is returned as a tombstone with ok == true.
func (s *Segment) Get(key []byte) (e Entry[[]byte, []byte], ok bool, err error) {
	rec, ok, err := s.r.Get(key)
	if !ok || err != nil {
		return Entry[[]byte, []byte]{}, false, err
	}
	return toEntry(rec), true, nil
}

// Range returns an iterator over the entries with keys in [from, to), in
// ascending order and including tombstones. A nil bound is unbounded.
func (s *Segment) Range(from, to []byte) (*Iterator, error) {
	it, err := s.r.Range(from, to)
	if err != nil {
		return nil, err
	}
	return &Iterator{it: it, id: s.id}, nil
}

// CheckIntegrity reports whether the segment's contents still match the
// hash written with it. Without WithIntegrityCheck or WithVerifyOnOpen it
// always reports true. The check reads the whole segment.
func (s *Segment) CheckIntegrity() bool {
	intact := s.r.CheckIntegrity()
	if !intact {
		s.logger.Warn("segment failed integrity check", "path", s.path)
	}
	return intact
}

// Close is a no-op kept for io.Closer: the mapping outlives Close so that
// iterators and slices obtained earlier keep working. Use Release to
// unmap.
func (s *Segment) Close() error {
	return nil
}

// Delete removes the segment file. The mapping, and every iterator and
// slice obtained from it, remains valid until Release.
func (s *Segment) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("os.Remove(%s): %w", s.path, err)
	}
	s.logger.Debug("deleted segment", "path", s.path)
	return nil
}

// Release unmaps the segment. Callers must guarantee that nothing still
// uses an iterator, key or value obtained from s.
func (s *Segment) Release() error {
	if s.released.Swap(true) {
		return nil
	}
	if err := s.m.Unmap(); err != nil {
		return fmt.Errorf("unmap %s: %w", s.path, err)
	}
	return nil
}

// EntryIterator is a forward-only cursor over raw entries.
type EntryIterator interface {
	Next() (Entry[[]byte, []byte], bool)
	Err() error
}

var _ EntryIterator = (*Iterator)(nil)

// Iterator is a single-pass, forward-only cursor over a segment range.
// Entries are produced lazily, one per Next call. It is not safe for
// concurrent use.
type Iterator struct {
	it *segfile.Iterator
	id uint64
}

// Next returns the next entry, or false once the range is exhausted or
// a record couldn't be read (see Err).
func (i *Iterator) Next() (Entry[[]byte, []byte], bool) {
	rec, ok := i.it.Next()
	if !ok {
		return Entry[[]byte, []byte]{}, false
	}
	return toEntry(rec), true
}

// Err returns the error that stopped iteration early, if any.
func (i *Iterator) Err() error {
	return i.it.Err()
}

// SegmentID returns the id of the segment being iterated.
func (i *Iterator) SegmentID() uint64 {
	return i.id
}
