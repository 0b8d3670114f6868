// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bloom implements an in-memory bloom filter over byte keys.
package bloom

import (
	"math"

	"github.com/dgryski/go-farm"
)

const (
	minBits   = 64
	maxHashes = 30
)

// Filter answers "definitely absent" or "maybe present" for keys. It has
// no false negatives. A Filter is not safe for concurrent Add calls;
// concurrent MayContain calls are fine once building is done.
type Filter struct {
	bits   []uint64
	length uint64
	hashes uint32
}

// New returns a filter sized for n keys with bitsPerKey bits each.
func New(n int, bitsPerKey int) *Filter {
	if bitsPerKey < 1 {
		bitsPerKey = 1
	}
	length := uint64(n) * uint64(bitsPerKey)
	if length < minBits {
		length = minBits
	}
	// k = ln(2) * m/n minimizes the false positive rate
	hashes := uint32(math.Round(float64(bitsPerKey) * math.Ln2))
	if hashes < 1 {
		hashes = 1
	} else if hashes > maxHashes {
		hashes = maxHashes
	}
	return &Filter{
		bits:   make([]uint64, (length+63)/64),
		length: length,
		hashes: hashes,
	}
}

func getOffsets(off uint64) (sliceOff uint64, bitOff uint64) {
	sliceOff = off / 64
	bitOff = off % 64
	return
}

func (f *Filter) set(off uint64) {
	sliceOff, bitOff := getOffsets(off)
	f.bits[sliceOff] |= 1 << bitOff
}

func (f *Filter) isSet(off uint64) bool {
	sliceOff, bitOff := getOffsets(off)
	return f.bits[sliceOff]&(1<<bitOff) != 0
}

// probes derives the filter's bit positions from two independent hashes
// (Kirsch & Mitzenmacher double hashing).
func (f *Filter) probes(key []byte, fn func(off uint64) bool) {
	h1 := farm.Hash64WithSeed(key, 0)
	h2 := farm.Hash64WithSeed(key, 1) | 1
	for i := uint32(0); i < f.hashes; i++ {
		if !fn((h1 + uint64(i)*h2) % f.length) {
			return
		}
	}
}

// Add records key in the filter.
func (f *Filter) Add(key []byte) {
	f.probes(key, func(off uint64) bool {
		f.set(off)
		return true
	})
}

// MayContain reports whether key may have been added. False means the
// key was definitely never added.
func (f *Filter) MayContain(key []byte) bool {
	found := true
	f.probes(key, func(off uint64) bool {
		found = f.isSet(off)
		return found
	})
	return found
}

// FalsePositiveRate estimates the filter's false positive rate after n
// distinct keys have been added.
func (f *Filter) FalsePositiveRate(n int) float64 {
	k := float64(f.hashes)
	return math.Pow(1-math.Exp(-k*float64(n)/float64(f.length)), k)
}
