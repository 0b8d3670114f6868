// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package segfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"hash"
	"io"
	"sync/atomic"

	"github.com/bpowers/seg/internal/bytesutil"
)

const (
	defaultBufferSize = 4 * 1024 * 1024
)

type nopWriter struct{}

func (nopWriter) Write([]byte) (int, error) {
	return 0, io.EOF
}

// Writer produces a segment from records appended in ascending key order.
//
// The data region is streamed to a spill writer as records arrive, because
// the link table that precedes it on disk isn't known until the last
// record. Finish writes the segment prefix and copies the spilled data
// region after it.
type Writer struct {
	w        *bufio.Writer
	digest   hash.Hash
	links    []uint64
	off      uint64
	lastKey  []byte
	finished atomic.Bool
}

// NewWriter returns a Writer spilling the data region to spill.
func NewWriter(spill io.Writer) *Writer {
	return &Writer{
		w:      bufio.NewWriterSize(spill, defaultBufferSize),
		digest: newDigest(),
	}
}

// Len returns the number of records appended so far.
func (w *Writer) Len() int {
	return len(w.links)
}

// Append adds a live key/value pair. An empty (or nil) value is a live
// value of length 0, not a tombstone.
func (w *Writer) Append(key, value []byte) error {
	return w.append(key, value, int64(len(value)))
}

// AppendTombstone adds a deletion marker for key.
func (w *Writer) AppendTombstone(key []byte) error {
	return w.append(key, nil, TombstoneLen)
}

func (w *Writer) append(key, value []byte, valueLen int64) error {
	if w.finished.Load() {
		return errors.New("append after Finish")
	}
	if len(w.links) > 0 && bytesutil.Compare(w.lastKey, key) >= 0 {
		return fmt.Errorf("key %q after %q: %w", key, w.lastKey, ErrOutOfOrder)
	}

	var header [recordHeaderSize]byte
	putRecordHeader(header[:], len(key), valueLen)

	// the digest sees exactly the bytes of the data region
	for _, chunk := range [][]byte{header[:], key, value} {
		if _, err := w.w.Write(chunk); err != nil {
			return fmt.Errorf("bufio.Write: %w", err)
		}
		_, _ = w.digest.Write(chunk)
	}

	w.links = append(w.links, w.off)
	w.off += uint64(recordHeaderSize + len(key) + len(value))
	w.lastKey = append(w.lastKey[:0], key...)

	return nil
}

// Flush writes any buffered records through to the spill writer. A
// file-backed spill must be flushed before it is rewound for Finish.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("bufio.Flush: %w", err)
	}
	return nil
}

// Finish flushes the spill writer, then writes the complete segment to
// out: header, link table, hash, and the data region read back from
// spill. spill must yield exactly the bytes previously written to the
// spill writer, from the start: callers that rewind a file must call
// Flush first.
func (w *Writer) Finish(out io.Writer, spill io.Reader) error {
	if alreadyFinished := w.finished.Swap(true); alreadyFinished {
		// nothing to do - already written
		return nil
	}

	defer func() {
		w.w.Reset(nopWriter{})
	}()

	if err := w.Flush(); err != nil {
		return err
	}

	bw := bufio.NewWriterSize(out, defaultBufferSize)
	if err := w.writePrefix(bw); err != nil {
		return err
	}

	n, err := io.Copy(bw, spill)
	if err != nil {
		return fmt.Errorf("io.Copy(data region): %w", err)
	} else if uint64(n) != w.off {
		return fmt.Errorf("short data region copy of %d bytes (wanted %d)", n, w.off)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("bufio.Flush: %w", err)
	}

	return nil
}

func (w *Writer) writePrefix(bw *bufio.Writer) error {
	var word [wordSize]byte

	byteOrder.PutUint64(word[:], uint64(len(w.links)))
	if _, err := bw.Write(word[:]); err != nil {
		return fmt.Errorf("write count: %w", err)
	}

	for _, link := range w.links {
		byteOrder.PutUint64(word[:], link)
		if _, err := bw.Write(word[:]); err != nil {
			return fmt.Errorf("write link table: %w", err)
		}
	}

	sum := w.digest.Sum(nil)
	byteOrder.PutUint64(word[:], uint64(len(sum)))
	if _, err := bw.Write(word[:]); err != nil {
		return fmt.Errorf("write hash length: %w", err)
	}
	if _, err := bw.Write(sum); err != nil {
		return fmt.Errorf("write hash: %w", err)
	}

	return nil
}

// Encode is a convenience wrapper that builds an in-memory segment from
// records, which must already be sorted by key.
func Encode(records []Record) ([]byte, error) {
	var spill, out bytes.Buffer
	w := NewWriter(&spill)
	for _, r := range records {
		var err error
		if r.Tombstone {
			err = w.AppendTombstone(r.Key)
		} else {
			err = w.Append(r.Key, r.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := w.Finish(&out, &spill); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
