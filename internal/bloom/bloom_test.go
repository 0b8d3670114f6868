// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bloom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_NoFalseNegatives(t *testing.T) {
	const n = 10000
	f := New(n, 10)
	for i := 0; i < n; i++ {
		f.Add([]byte(fmt.Sprintf("key-%d", i)))
	}
	for i := 0; i < n; i++ {
		require.True(t, f.MayContain([]byte(fmt.Sprintf("key-%d", i))), "key-%d", i)
	}

	falsePositives := 0
	for i := n; i < 2*n; i++ {
		if f.MayContain([]byte(fmt.Sprintf("key-%d", i))) {
			falsePositives++
		}
	}
	// ~1% expected at 10 bits per key
	assert.Less(t, falsePositives, n/20)
	assert.InDelta(t, 0.01, f.FalsePositiveRate(n), 0.01)
}

func TestFilter_Small(t *testing.T) {
	f := New(0, 0)
	assert.False(t, f.MayContain([]byte("a")))
	assert.False(t, f.MayContain(nil))

	f.Add(nil)
	assert.True(t, f.MayContain(nil))
	assert.True(t, f.MayContain([]byte{}))
}

func TestBitOffsets(t *testing.T) {
	f := New(1, 128)
	for _, off := range []uint64{0, 1, 63, 64, 127} {
		require.False(t, f.isSet(off))
		f.set(off)
		require.True(t, f.isSet(off))
	}
	assert.False(t, f.isSet(2))
	assert.False(t, f.isSet(65))
}
