// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package convert

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/seg"
)

func TestStringTimestamp_RoundTrip(t *testing.T) {
	c := StringTimestamp{}

	for _, e := range []seg.Entry[string, Stamped]{
		seg.NewEntry("a", NewStamped(time.UnixMilli(1), []byte("x"))),
		seg.NewEntry("", NewStamped(time.UnixMilli(0), []byte{})),
		seg.NewEntry("b", NewStampedNoPayload(time.UnixMilli(2))),
		seg.NewEntry("negative", NewStamped(time.UnixMilli(-1234), []byte("before the epoch"))),
		seg.NewEntry("π", NewStamped(time.UnixMilli(1700000000000), make([]byte, 4096))),
		seg.NewTombstone[string, Stamped]("gone"),
	} {
		encoded := EncodeEntry[string, Stamped](c, e)
		assert.Equal(t, e.IsTombstone(), encoded.IsTombstone())

		decoded, err := DecodeEntry[string, Stamped](c, encoded)
		require.NoError(t, err)
		assert.Equal(t, e, decoded)
	}
}

func TestStringTimestamp_Layout(t *testing.T) {
	c := StringTimestamp{}

	b := c.ValueToBytes(NewStamped(time.UnixMilli(0x0102030405060708), []byte("xyz")))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 3, 'x', 'y', 'z'}, b)

	b = c.ValueToBytes(NewStampedNoPayload(time.UnixMilli(2)))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 2, 0xff, 0xff, 0xff, 0xff}, b)

	// an empty payload is not a missing one
	b = c.ValueToBytes(NewStamped(time.UnixMilli(2), nil))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0}, b)

	assert.Equal(t, []byte("key"), c.KeyToBytes("key"))
	assert.NotNil(t, c.KeyToBytes(""))
}

func TestStringTimestamp_PayloadCopied(t *testing.T) {
	c := StringTimestamp{}

	b := c.ValueToBytes(NewStamped(time.UnixMilli(9), []byte("payload")))
	v, err := c.ValueFromBytes(b)
	require.NoError(t, err)

	// stands in for the segment being unmapped under the value
	for i := range b {
		b[i] = 0
	}
	payload, ok := v.Value()
	require.True(t, ok)
	assert.Equal(t, "payload", string(payload))
	assert.Equal(t, int64(9), v.Key().UnixMilli())
}

func TestEncodePayloadLen(t *testing.T) {
	assert.Equal(t, uint32(0), encodePayloadLen(0))
	assert.Equal(t, uint32(MaxPayloadLen), encodePayloadLen(MaxPayloadLen))
	assert.Panics(t, func() {
		encodePayloadLen(MaxPayloadLen + 1)
	})
	assert.Panics(t, func() {
		encodePayloadLen(-1)
	})
}

func TestStringTimestamp_Malformed(t *testing.T) {
	c := StringTimestamp{}

	withLen := func(n int32, payload int) []byte {
		b := make([]byte, stampedHeader+payload)
		binary.BigEndian.PutUint32(b[stampSize:], uint32(n))
		return b
	}

	for name, b := range map[string][]byte{
		"empty":             nil,
		"short header":      make([]byte, stampedHeader-1),
		"short payload":     withLen(4, 3),
		"long payload":      withLen(2, 3),
		"negative length":   withLen(-2, 0),
		"trailing no-value": withLen(-1, 1),
	} {
		_, err := c.ValueFromBytes(b)
		assert.ErrorIs(t, err, ErrMalformedValue, name)
	}

	_, err := DecodeEntry[string, Stamped](c, seg.NewEntry([]byte("k"), []byte{1}))
	assert.ErrorIs(t, err, ErrMalformedValue)
}

func TestDecodeLookup(t *testing.T) {
	c := StringTimestamp{}

	// absent stays absent
	_, ok, err := DecodeLookup[string, Stamped](c, seg.Entry[[]byte, []byte]{}, false, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	// errors pass through
	boom := errors.New("boom")
	_, ok, err = DecodeLookup[string, Stamped](c, seg.Entry[[]byte, []byte]{}, false, boom)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)

	// tombstones are found, not absent
	e, ok, err := DecodeLookup[string, Stamped](c, seg.NewTombstone[[]byte, []byte]([]byte("b")), true, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, e.IsTombstone())
	assert.Equal(t, "b", e.Key())
}

// ("a",1,"x"), ("b",2,no payload), ("c",3,"y") written to a segment and
// read back through the converter.
func TestStringTimestamp_Segment(t *testing.T) {
	c := StringTimestamp{}
	path := filepath.Join(t.TempDir(), seg.FileName(1))

	b, err := seg.NewBuilder(path)
	require.NoError(t, err)
	for _, e := range []seg.Entry[string, Stamped]{
		seg.NewEntry("a", NewStamped(time.UnixMilli(1), []byte("x"))),
		seg.NewEntry("b", NewStampedNoPayload(time.UnixMilli(2))),
		seg.NewEntry("c", NewStamped(time.UnixMilli(3), []byte("y"))),
	} {
		require.NoError(t, b.Add(EncodeEntry[string, Stamped](c, e)))
	}
	require.NoError(t, b.Finalize())

	s, err := seg.Open(path, seg.WithVerifyOnOpen(true))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.Release())
	}()

	raw, ok, err := s.Get(c.KeyToBytes("b"))
	e, ok, err := DecodeLookup[string, Stamped](c, raw, ok, err)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", e.Key())
	v, ok := e.Value()
	require.True(t, ok)
	_, hasPayload := v.Value()
	assert.False(t, hasPayload)
	assert.Equal(t, int64(2), v.Key().UnixMilli())

	raw, ok, err = s.Get(c.KeyToBytes("d"))
	_, ok, err = DecodeLookup[string, Stamped](c, raw, ok, err)
	require.NoError(t, err)
	assert.False(t, ok)

	it, err := s.Range(c.KeyToBytes("a"), c.KeyToBytes("c"))
	require.NoError(t, err)
	var keys []string
	for raw, ok := it.Next(); ok; raw, ok = it.Next() {
		e, err := DecodeEntry[string, Stamped](c, raw)
		require.NoError(t, err)
		keys = append(keys, e.Key())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"a", "b"}, keys)
}
