// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/seg"
)

func get(t *testing.T, s *Store, key string) (string, bool) {
	t.Helper()
	e, ok, err := s.Get([]byte(key))
	require.NoError(t, err)
	if !ok {
		return "", false
	}
	v, live := e.Value()
	require.True(t, live, "expected %q to be live", key)
	return string(v), true
}

func requireTombstone(t *testing.T, s *Store, key string) {
	t.Helper()
	e, ok, err := s.Get([]byte(key))
	require.NoError(t, err)
	require.True(t, ok, "expected a tombstone for %q", key)
	require.True(t, e.IsTombstone())
}

func scan(t *testing.T, s *Store, from, to []byte) []string {
	t.Helper()
	it, err := s.Range(from, to)
	require.NoError(t, err)
	var out []string
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		v, _ := e.Value()
		out = append(out, string(e.Key())+"="+string(v))
	}
	require.NoError(t, it.Err())
	return out
}

func TestStore_Memtable(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.Close())
	}()

	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Put([]byte("b"), []byte("2")))
	require.NoError(t, s.Put([]byte("a"), []byte("3")))
	require.NoError(t, s.Delete([]byte("b")))
	require.NoError(t, s.Put([]byte("c"), nil))

	v, ok := get(t, s, "a")
	require.True(t, ok)
	assert.Equal(t, "3", v)
	requireTombstone(t, s, "b")
	v, ok = get(t, s, "c")
	require.True(t, ok)
	assert.Equal(t, "", v)
	_, ok = get(t, s, "d")
	assert.False(t, ok)

	assert.Equal(t, []string{"a=3", "c="}, scan(t, s, nil, nil))
	assert.Empty(t, s.Segments())
}

func TestStore_UpsertCopies(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer func() {
		_ = s.Close()
	}()

	k, v := []byte("key"), []byte("value")
	require.NoError(t, s.Put(k, v))
	k[0], v[0] = 'x', 'x'

	got, ok := get(t, s, "key")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestStore_FlushAndReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Put([]byte("b"), []byte("1")))
	require.NoError(t, s.Put([]byte("c"), []byte("1")))
	require.NoError(t, s.Flush())
	// flushing an empty memtable doesn't create a segment
	require.NoError(t, s.Flush())
	assert.Equal(t, []uint64{1}, s.Segments())

	require.NoError(t, s.Put([]byte("b"), []byte("2")))
	require.NoError(t, s.Delete([]byte("c")))
	require.NoError(t, s.Put([]byte("d"), []byte("2")))
	require.NoError(t, s.Flush())
	assert.Equal(t, []uint64{2, 1}, s.Segments())

	require.NoError(t, s.Put([]byte("a"), []byte("3")))
	// left in the memtable, written by Close
	require.NoError(t, s.Delete([]byte("d")))

	check := func(s *Store) {
		v, ok := get(t, s, "a")
		require.True(t, ok)
		assert.Equal(t, "3", v)
		v, ok = get(t, s, "b")
		require.True(t, ok)
		assert.Equal(t, "2", v)
		requireTombstone(t, s, "c")
		requireTombstone(t, s, "d")
		_, ok = get(t, s, "e")
		assert.False(t, ok)

		assert.Equal(t, []string{"a=3", "b=2"}, scan(t, s, nil, nil))
		assert.Equal(t, []string{"b=2"}, scan(t, s, []byte("b"), []byte("d")))
		assert.Empty(t, scan(t, s, []byte("c"), nil))
	}
	check(s)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	s, err = Open(dir, WithVerifyOnOpen(true))
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 2, 1}, s.Segments())
	check(s)

	// new segments continue after the highest id
	require.NoError(t, s.Put([]byte("e"), []byte("4")))
	require.NoError(t, s.Flush())
	assert.Equal(t, []uint64{4, 3, 2, 1}, s.Segments())
	require.NoError(t, s.Close())
}

func TestStore_FlushThreshold(t *testing.T) {
	s, err := Open(t.TempDir(), WithFlushThreshold(1), WithBloomBitsPerKey(4))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.Close())
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put([]byte(fmt.Sprintf("k%d", i)), []byte("v")))
	}
	assert.Len(t, s.Segments(), 5)
	assert.Len(t, scan(t, s, nil, nil), 5)
}

func TestStore_Many(t *testing.T) {
	const n = 2000
	s, err := Open(t.TempDir(), WithFlushThreshold(4096))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.Close())
	}()

	for i := 0; i < n; i++ {
		require.NoError(t, s.Put([]byte(fmt.Sprintf("key-%05d", i)), []byte(fmt.Sprintf("v%d", i))))
	}
	// overwrite every other key and delete every tenth
	for i := 0; i < n; i += 2 {
		require.NoError(t, s.Put([]byte(fmt.Sprintf("key-%05d", i)), []byte(fmt.Sprintf("w%d", i))))
	}
	for i := 0; i < n; i += 10 {
		require.NoError(t, s.Delete([]byte(fmt.Sprintf("key-%05d", i))))
	}
	require.Greater(t, len(s.Segments()), 1)

	var expected []string
	for i := 0; i < n; i++ {
		switch {
		case i%10 == 0:
			continue
		case i%2 == 0:
			expected = append(expected, fmt.Sprintf("key-%05d=w%d", i, i))
		default:
			expected = append(expected, fmt.Sprintf("key-%05d=v%d", i, i))
		}
	}
	assert.Equal(t, expected, scan(t, s, nil, nil))
}

func TestStore_IgnoresTemporaries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seg-builder.123.seg"), []byte("partial"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seg-builder.456.data"), []byte("partial"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hi"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "7.seg"), 0755))

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Empty(t, s.Segments())
	require.NoError(t, s.Close())
}

func TestStore_OpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.seg"), make([]byte, 8), 0644))
	_, err = Open(dir)
	assert.Error(t, err)

	dir = t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Close())

	path := filepath.Join(dir, seg.FileName(1))
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	contents[len(contents)-1] ^= 0xff
	require.NoError(t, os.Chmod(path, 0644))
	require.NoError(t, os.WriteFile(path, contents, 0644))

	_, err = Open(dir, WithVerifyOnOpen(true))
	assert.ErrorIs(t, err, seg.ErrIntegrity)
}

func TestStore_Closed(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = s.Get([]byte("a"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Range(nil, nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Put([]byte("a"), nil), ErrClosed)
	assert.ErrorIs(t, s.Delete([]byte("a")), ErrClosed)
	assert.ErrorIs(t, s.Flush(), ErrClosed)
}

func TestStore_Concurrent(t *testing.T) {
	s, err := Open(t.TempDir(), WithFlushThreshold(1024))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.Close())
	}()

	const writers, perWriter = 4, 200
	var wg sync.WaitGroup
	errs := make(chan error, writers*2)
	for w := 0; w < writers; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := s.Put([]byte(fmt.Sprintf("w%d-%04d", w, i)), []byte("v")); err != nil {
					errs <- err
					return
				}
			}
		}(w)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, _, err := s.Get([]byte(fmt.Sprintf("w%d-%04d", w, i))); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Len(t, scan(t, s, nil, nil), writers*perWriter)
}
