// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command gen-testdata writes a segment of random string keys with
// timestamped payloads, for benchmarks and for exercising segdump.
package main

import (
	"bufio"
	"bytes"
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bpowers/seg"
	"github.com/bpowers/seg/convert"
)

const (
	prefix    = "pref_"
	suffixLen = 16
	hmacKey   = "d259c7f656caf7f1"
)

var (
	nPairs      = flag.Int("n", 1000000, "number of entries")
	dir         = flag.String("dir", ".", "output directory")
	id          = flag.Uint64("id", 1, "segment id")
	deleteEvery = flag.Int("delete-every", 0, "write every Nth key as a tombstone (0 disables)")
	input       = flag.String("in", "", "read key:value lines from this file instead of generating them")
)

func newRand() *rand.Rand {
	var seedBytes [8]byte
	if _, err := crand.Read(seedBytes[:]); err != nil {
		panic(err)
	}
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return rand.New(rand.NewSource(seed))
}

type pair struct {
	key   string
	value string
}

func generate(n int) []pair {
	rng := newRand()
	h := hmac.New(sha256.New, []byte(hmacKey))

	pairs := make([]pair, 0, n)
	for i := 0; i < n; i++ {
		var buf [suffixLen / 2]byte
		if _, err := rng.Read(buf[:]); err != nil {
			panic(err)
		}
		value := fmt.Sprintf("%s%x", prefix, buf)
		h.Reset()
		h.Write([]byte(value))
		key := hex.EncodeToString(h.Sum(nil))

		pairs = append(pairs, pair{key: key, value: value})
	}
	return pairs
}

func readPairs(path string) ([]pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var pairs []pair
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		k, v, ok := bytes.Cut(scanner.Bytes(), []byte{':'})
		if !ok {
			return nil, fmt.Errorf("line %d: missing ':'", len(pairs)+1)
		}
		pairs = append(pairs, pair{key: string(k), value: string(v)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner.Err: %w", err)
	}
	return pairs, nil
}

func main() {
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var pairs []pair
	if *input != "" {
		var err error
		if pairs, err = readPairs(*input); err != nil {
			logger.Error("readPairs", "err", err)
			os.Exit(1)
		}
	} else {
		pairs = generate(*nPairs)
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].key < pairs[j].key
	})

	path := filepath.Join(*dir, seg.FileName(*id))
	b, err := seg.NewBuilder(path, seg.WithBuilderLogger(logger))
	if err != nil {
		logger.Error("seg.NewBuilder", "err", err)
		os.Exit(1)
	}

	c := convert.StringTimestamp{}
	now := time.Now()
	for i, p := range pairs {
		// keys must be unique
		if i > 0 && p.key == pairs[i-1].key {
			continue
		}
		e := seg.NewEntry(p.key, convert.NewStamped(now.Add(time.Duration(i)*time.Millisecond), []byte(p.value)))
		if *deleteEvery > 0 && i%*deleteEvery == 0 {
			e = seg.NewTombstone[string, convert.Stamped](p.key)
		}
		if err := b.Add(convert.EncodeEntry[string, convert.Stamped](c, e)); err != nil {
			_ = b.Abort()
			logger.Error("b.Add", "err", err)
			os.Exit(1)
		}
	}

	if err := b.Finalize(); err != nil {
		logger.Error("b.Finalize", "err", err)
		os.Exit(1)
	}
}
