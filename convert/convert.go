// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package convert maps typed entries to and from the raw bytes stored in
// segments.
package convert

import (
	"fmt"

	"github.com/bpowers/seg"
)

// Converter maps keys and values of type K and V to bytes and back. The
// byte form of keys must sort the way the keys should: segments order
// keys by comparing their bytes.
type Converter[K, V any] interface {
	KeyToBytes(k K) []byte
	KeyFromBytes(b []byte) (K, error)
	ValueToBytes(v V) []byte
	ValueFromBytes(b []byte) (V, error)
}

// EncodeEntry converts a typed entry to its byte form. Tombstones stay
// tombstones.
func EncodeEntry[K, V any](c Converter[K, V], e seg.Entry[K, V]) seg.Entry[[]byte, []byte] {
	k := c.KeyToBytes(e.Key())
	v, ok := e.Value()
	if !ok {
		return seg.NewTombstone[[]byte, []byte](k)
	}
	return seg.NewEntry(k, c.ValueToBytes(v))
}

// DecodeEntry converts an entry read from a segment back to its typed
// form. Tombstones stay tombstones.
func DecodeEntry[K, V any](c Converter[K, V], e seg.Entry[[]byte, []byte]) (seg.Entry[K, V], error) {
	k, err := c.KeyFromBytes(e.Key())
	if err != nil {
		return seg.Entry[K, V]{}, fmt.Errorf("KeyFromBytes: %w", err)
	}
	raw, ok := e.Value()
	if !ok {
		return seg.NewTombstone[K, V](k), nil
	}
	v, err := c.ValueFromBytes(raw)
	if err != nil {
		return seg.Entry[K, V]{}, fmt.Errorf("ValueFromBytes(%q): %w", e.Key(), err)
	}
	return seg.NewEntry(k, v), nil
}

// DecodeLookup decodes the result of a point lookup: an absent entry
// stays absent, and an error is passed through untouched.
func DecodeLookup[K, V any](c Converter[K, V], e seg.Entry[[]byte, []byte], ok bool, err error) (seg.Entry[K, V], bool, error) {
	if err != nil || !ok {
		return seg.Entry[K, V]{}, false, err
	}
	typed, err := DecodeEntry(c, e)
	if err != nil {
		return seg.Entry[K, V]{}, false, err
	}
	return typed, true, nil
}
