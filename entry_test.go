// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package seg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry(t *testing.T) {
	e := NewEntry("k", 42)
	assert.Equal(t, "k", e.Key())
	v, ok := e.Value()
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.False(t, e.IsTombstone())

	d := NewTombstone[string, int]("k")
	assert.Equal(t, "k", d.Key())
	_, ok = d.Value()
	assert.False(t, ok)
	assert.True(t, d.IsTombstone())

	// equal keys and values are interchangeable
	assert.Equal(t, NewEntry("k", 42), e)
	assert.NotEqual(t, d, e)
	assert.Equal(t, NewTombstone[string, int]("k"), d)
}

func TestEntry_EmptyValueIsNotTombstone(t *testing.T) {
	e := NewEntry([]byte("k"), []byte{})
	assert.False(t, e.IsTombstone())

	e = NewEntry[[]byte, []byte]([]byte("k"), nil)
	v, ok := e.Value()
	assert.True(t, ok)
	assert.Len(t, v, 0)
}
