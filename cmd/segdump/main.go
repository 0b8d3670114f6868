// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command segdump prints the entries of a segment file, one per line.
//
// With -raw the file is read without validating its header, for
// recovering what can be recovered from a partially written segment.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bpowers/seg"
	"github.com/bpowers/seg/convert"
	"github.com/bpowers/seg/internal/mmapfile"
	"github.com/bpowers/seg/internal/segfile"
)

var (
	raw     = flag.Bool("raw", false, "skip header validation and print every readable record")
	verify  = flag.Bool("verify", false, "check the segment's hash")
	stamped = flag.Bool("stamped", false, "decode values as timestamp + payload")
	verbose = flag.Bool("v", false, "log to stderr")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: segdump [flags] FILE\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	out := bufio.NewWriter(os.Stdout)
	var err error
	if *raw {
		err = dumpRaw(out, flag.Arg(0))
	} else {
		err = dump(out, flag.Arg(0), logger)
	}
	if flushErr := out.Flush(); err == nil {
		err = flushErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "segdump: %s\n", err)
		os.Exit(1)
	}
}

func dump(w io.Writer, path string, logger *slog.Logger) error {
	s, err := seg.Open(path, seg.WithLogger(logger), seg.WithIntegrityCheck(*verify))
	if err != nil {
		return err
	}
	defer func() {
		_ = s.Release()
	}()

	if *verify && !s.CheckIntegrity() {
		return seg.ErrIntegrity
	}

	it, err := s.Range(nil, nil)
	if err != nil {
		return err
	}
	var pos int64
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		v, live := e.Value()
		printRecord(w, pos, e.Key(), v, !live)
		pos++
	}
	return it.Err()
}

func dumpRaw(w io.Writer, path string) error {
	m, err := mmapfile.Open(path, 1)
	if err != nil {
		return err
	}
	defer func() {
		_ = m.Unmap()
	}()

	r := segfile.NewUncheckedReader(m, segfile.WithIntegrityCheck(*verify))
	fmt.Fprintf(os.Stderr, "%d links, %d byte hash, %d byte file\n", r.Len(), len(r.Hash()), len(m))

	bad := 0
	for pos := int64(0); pos < r.Len(); pos++ {
		rec, _, err := r.EntryAt(pos)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%d: %s\n", pos, err)
			bad++
			continue
		}
		printRecord(w, pos, rec.Key, rec.Value, rec.Tombstone)
	}
	if bad > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d records unreadable\n", bad, r.Len())
	}
	if *verify && !r.CheckIntegrity() {
		return seg.ErrIntegrity
	}
	return nil
}

func printRecord(w io.Writer, pos int64, key, value []byte, tombstone bool) {
	if tombstone {
		fmt.Fprintf(w, "%d\t%q\t<deleted>\n", pos, key)
		return
	}
	if *stamped {
		v, err := convert.StringTimestamp{}.ValueFromBytes(value)
		if err == nil {
			payload, ok := v.Value()
			if !ok {
				fmt.Fprintf(w, "%d\t%q\t%s\t<no payload>\n", pos, key, v.Key().UTC().Format("2006-01-02T15:04:05.000Z"))
			} else {
				fmt.Fprintf(w, "%d\t%q\t%s\t%q\n", pos, key, v.Key().UTC().Format("2006-01-02T15:04:05.000Z"), payload)
			}
			return
		}
	}
	fmt.Fprintf(w, "%d\t%q\t%q\n", pos, key, value)
}
