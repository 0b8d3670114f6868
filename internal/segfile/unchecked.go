// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package segfile

// NewUncheckedReader opens whatever segment prefix is present in data.
// It exists for recovery tooling looking at files that may have been only
// partially written, and never fails:
//
//   - a link table cut short by the end of the buffer is clamped to the
//     links that are present;
//   - a missing or truncated hash is treated as empty, so CheckIntegrity
//     reports a mismatch when enabled;
//   - records that point past the end of the buffer surface as ErrCorrupt
//     from EntryAt, KeyAt and iterators, one record at a time.
//
// Searching a segment with a clamped link table may return positions
// that don't correspond to the writer's sort order. Callers accept the
// risk of reading garbage.
func NewUncheckedReader(data []byte, opts ...ReaderOption) *Reader {
	var options readerOptions
	for _, opt := range opts {
		opt(&options)
	}

	r := &Reader{integrityCheck: options.integrityCheck}
	if len(data) < wordSize {
		return r
	}
	avail := int64(len(data))

	size := int64(byteOrder.Uint64(data[:wordSize]))
	present := (avail - wordSize) / wordSize
	if size < 0 || size > present {
		r.size = present
		r.links = data[wordSize : wordSize+present*wordSize]
		return r
	}
	r.size = size
	linksEnd := wordSize + size*wordSize
	r.links = data[wordSize:linksEnd]

	if avail-linksEnd < wordSize {
		return r
	}
	hashLen := int64(byteOrder.Uint64(data[linksEnd : linksEnd+wordSize]))
	hashStart := linksEnd + wordSize
	if hashLen < 0 || hashLen > avail-hashStart {
		r.data = data[hashStart:]
		return r
	}
	r.hash = data[hashStart : hashStart+hashLen]
	r.data = data[hashStart+hashLen:]

	return r
}
