// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package segfile

import (
	"crypto/subtle"
	"fmt"

	"github.com/bpowers/seg/internal/bytesutil"
)

// ReaderOption configures a Reader.
type ReaderOption func(*readerOptions)

type readerOptions struct {
	integrityCheck bool
}

// WithIntegrityCheck enables CheckIntegrity. It is off by default
// because the check is a full scan of the segment.
func WithIntegrityCheck(enabled bool) ReaderOption {
	return func(opts *readerOptions) {
		opts.integrityCheck = enabled
	}
}

// Reader provides sorted, random access to a segment held in a byte
// view, usually a read-only memory mapping. Everything it returns is a
// sub-slice of that view. A Reader has no mutable state and is safe for
// concurrent use.
type Reader struct {
	size           int64
	links          []byte
	hash           []byte
	data           []byte
	integrityCheck bool
}

// NewReader parses the segment prefix in data, checking that the link
// table and hash fit in the buffer.
func NewReader(data []byte, opts ...ReaderOption) (*Reader, error) {
	var options readerOptions
	for _, opt := range opts {
		opt(&options)
	}

	if len(data) < 2*wordSize {
		return nil, fmt.Errorf("segment too short: %d < %d: %w", len(data), 2*wordSize, ErrCorrupt)
	}
	avail := int64(len(data))

	size := int64(byteOrder.Uint64(data[:wordSize]))
	if size < 0 || size > (avail-2*wordSize)/wordSize {
		return nil, fmt.Errorf("entry count %d doesn't fit in %d bytes: %w", size, avail, ErrCorrupt)
	}
	linksEnd := wordSize + size*wordSize

	hashLen := int64(byteOrder.Uint64(data[linksEnd : linksEnd+wordSize]))
	hashStart := linksEnd + wordSize
	if hashLen < 0 || hashLen > avail-hashStart {
		return nil, fmt.Errorf("hash length %d doesn't fit in %d bytes: %w", hashLen, avail, ErrCorrupt)
	}

	return &Reader{
		size:           size,
		links:          data[wordSize:linksEnd],
		hash:           data[hashStart : hashStart+hashLen],
		data:           data[hashStart+hashLen:],
		integrityCheck: options.integrityCheck,
	}, nil
}

// Len returns the number of entries in the segment.
func (r *Reader) Len() int64 {
	return r.size
}

// Hash returns the stored digest of the data region.
func (r *Reader) Hash() []byte {
	return r.hash
}

func (r *Reader) link(pos int64) int64 {
	return int64(byteOrder.Uint64(r.links[pos*wordSize : pos*wordSize+wordSize]))
}

func (r *Reader) inBounds(pos int64) bool {
	return pos >= 0 && pos < r.size
}

func (r *Reader) readHeaderAt(off int64) (keyLen, valueLen int64, err error) {
	mLen := int64(len(r.data))
	if off < 0 || off > mLen-recordHeaderSize {
		return 0, 0, fmt.Errorf("off %d beyond bounds (%d): %w", off, mLen, ErrCorrupt)
	}
	keyLen, valueLen = readRecordHeader(r.data[off : off+recordHeaderSize])
	if keyLen < 0 || keyLen > mLen-off-recordHeaderSize {
		return 0, 0, fmt.Errorf("off %d keyLen %d beyond bounds (%d): %w", off, keyLen, mLen, ErrCorrupt)
	}
	return keyLen, valueLen, nil
}

func (r *Reader) keyAtOffset(off int64) ([]byte, error) {
	keyLen, _, err := r.readHeaderAt(off)
	if err != nil {
		return nil, err
	}
	start := off + recordHeaderSize
	return r.data[start : start+keyLen : start+keyLen], nil
}

func (r *Reader) recordAtOffset(off int64) (Record, error) {
	keyLen, valueLen, err := r.readHeaderAt(off)
	if err != nil {
		return Record{}, err
	}

	start := off + recordHeaderSize
	key := r.data[start : start+keyLen : start+keyLen]
	if valueLen == TombstoneLen {
		return Record{Key: key, Tombstone: true}, nil
	}

	valueStart := start + keyLen
	if valueLen < 0 || valueLen > int64(len(r.data))-valueStart {
		return Record{}, fmt.Errorf("off %d valueLen %d beyond bounds (%d): %w", off, valueLen, len(r.data), ErrCorrupt)
	}
	value := r.data[valueStart : valueStart+valueLen : valueStart+valueLen]

	return Record{Key: key, Value: value}, nil
}

// EntryAt returns the entry at position pos in key order. ok is false
// if pos is outside [0, Len()).
func (r *Reader) EntryAt(pos int64) (rec Record, ok bool, err error) {
	if !r.inBounds(pos) {
		return Record{}, false, nil
	}
	rec, err = r.recordAtOffset(r.link(pos))
	if err != nil {
		return Record{}, false, fmt.Errorf("entry %d: %w", pos, err)
	}
	return rec, true, nil
}

// KeyAt returns only the key at position pos, without looking at the
// value. ok is false if pos is outside [0, Len()).
func (r *Reader) KeyAt(pos int64) (key []byte, ok bool, err error) {
	if !r.inBounds(pos) {
		return nil, false, nil
	}
	key, err = r.keyAtOffset(r.link(pos))
	if err != nil {
		return nil, false, fmt.Errorf("key %d: %w", pos, err)
	}
	return key, true, nil
}

// Search returns the position of key if present, otherwise the position
// of the smallest key greater than it (Len() if there is none).
func (r *Reader) Search(key []byte) (int64, error) {
	low, high := int64(0), r.size-1
	for low <= high {
		mid := low + (high-low)/2
		midKey, _, err := r.KeyAt(mid)
		if err != nil {
			return 0, err
		}
		if cmp := bytesutil.Compare(midKey, key); cmp < 0 {
			low = mid + 1
		} else if cmp > 0 {
			high = mid - 1
		} else {
			return mid, nil
		}
	}
	return low, nil
}

// Get returns the entry for key. A tombstone is returned as a Record with
// Tombstone set and ok == true; ok is false only when key isn't in the
// segment at all.
func (r *Reader) Get(key []byte) (rec Record, ok bool, err error) {
	pos, err := r.Search(key)
	if err != nil {
		return Record{}, false, err
	}
	rec, ok, err = r.EntryAt(pos)
	if err != nil || !ok {
		return Record{}, false, err
	}
	if bytesutil.Compare(rec.Key, key) != 0 {
		return Record{}, false, nil
	}
	return rec, true, nil
}

// Range returns an iterator over entries with keys in [from, to). A nil
// from starts at the first entry and a nil to runs to the last one.
func (r *Reader) Range(from, to []byte) (*Iterator, error) {
	start, end := int64(0), r.size
	var err error
	if from != nil {
		if start, err = r.Search(from); err != nil {
			return nil, err
		}
	}
	if to != nil {
		if end, err = r.Search(to); err != nil {
			return nil, err
		}
	}
	if end < start {
		end = start
	}
	return &Iterator{r: r, pos: start, end: end}, nil
}

// CheckIntegrity recomputes the digest of every record in position order
// and compares it to the stored hash. It reports true without scanning
// when the reader was created without WithIntegrityCheck(true).
func (r *Reader) CheckIntegrity() bool {
	if !r.integrityCheck {
		return true
	}
	return r.digestMatches()
}

func (r *Reader) digestMatches() bool {
	digest := newDigest()
	for pos := int64(0); pos < r.size; pos++ {
		off := r.link(pos)
		rec, err := r.recordAtOffset(off)
		if err != nil {
			return false
		}
		_, _ = digest.Write(r.data[off : off+rec.encodedLen()])
	}
	return subtle.ConstantTimeCompare(r.hash, digest.Sum(nil)) == 1
}

// Iterator walks a contiguous run of positions once, front to back. It is
// not safe for concurrent use.
type Iterator struct {
	r   *Reader
	pos int64
	end int64
	err error
}

// Next returns the next entry, or false when the range is exhausted or a
// record couldn't be decoded (see Err).
func (it *Iterator) Next() (Record, bool) {
	if it.err != nil || it.pos >= it.end {
		return Record{}, false
	}
	rec, ok, err := it.r.EntryAt(it.pos)
	if err != nil {
		it.err = err
		return Record{}, false
	}
	it.pos++
	return rec, ok
}

// Err returns the first decoding error hit by Next, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Remaining returns how many entries Next has yet to return.
func (it *Iterator) Remaining() int64 {
	if it.err != nil {
		return 0
	}
	return it.end - it.pos
}
