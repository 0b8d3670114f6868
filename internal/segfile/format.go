// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package segfile

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"hash"
)

const (
	wordSize         = 8
	recordHeaderSize = 2 * wordSize

	// TombstoneLen is stored in place of the value length for deleted keys.
	TombstoneLen = -1
)

var (
	// ErrCorrupt is returned when a segment's bytes don't describe a valid segment.
	ErrCorrupt = errors.New("segfile: corrupted segment")
	// ErrOutOfOrder is returned by the writer when keys aren't strictly ascending.
	ErrOutOfOrder = errors.New("segfile: keys must be appended in strictly ascending order")
)

var byteOrder = binary.NativeEndian

// newDigest returns the digest used both when writing and when checking integrity.
func newDigest() hash.Hash {
	return sha256.New()
}

// Record is a raw key/value pair as stored in a segment. Key and Value
// alias the segment's mapped memory and must not be written to.
type Record struct {
	Key       []byte
	Value     []byte
	Tombstone bool
}

func (r Record) encodedLen() int64 {
	n := int64(recordHeaderSize + len(r.Key))
	if !r.Tombstone {
		n += int64(len(r.Value))
	}
	return n
}

func putRecordHeader(header []byte, keyLen int, valueLen int64) {
	_ = header[recordHeaderSize-1]
	byteOrder.PutUint64(header[:wordSize], uint64(keyLen))
	byteOrder.PutUint64(header[wordSize:recordHeaderSize], uint64(valueLen))
}

func readRecordHeader(header []byte) (keyLen, valueLen int64) {
	// bounds check elimination
	_ = header[recordHeaderSize-1]
	keyLen = int64(byteOrder.Uint64(header[:wordSize]))
	valueLen = int64(byteOrder.Uint64(header[wordSize:recordHeaderSize]))
	return
}
