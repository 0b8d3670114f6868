// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package seg

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bpowers/seg/internal/segfile"
)

// ErrOutOfOrder is returned by Builder.Put when keys aren't strictly ascending.
var ErrOutOfOrder = segfile.ErrOutOfOrder

var errFinalized = errors.New("seg: builder already finalized or aborted")

// TempPattern matches the temporary files a Builder creates next to its
// destination; they are never valid segments.
const TempPattern = "seg-builder.*"

// Builder writes a new segment. Entries must be put in strictly
// ascending key order; the builder checks the order but never sorts.
//
// Nothing is visible at the destination path until Finalize: entries are
// written to temporary files in the same directory, and the finished
// segment is renamed into place. A Builder is not safe for concurrent use.
type Builder struct {
	resultPath string
	spillFile  *os.File
	w          *segfile.Writer
	logger     *slog.Logger
}

// NewBuilder creates a Builder for the segment at dataFilePath. Building
// should happen once; the resulting file is read-only.
func NewBuilder(dataFilePath string, opts ...BuilderOption) (*Builder, error) {
	var options builderOptions
	options.logger = discardLogger()
	for _, opt := range opts {
		opt(&options)
	}
	// we want to write to a new file and do an atomic rename when we're done on disk
	dataFilePath, err := filepath.Abs(dataFilePath)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(dataFilePath)
	spillFile, err := os.CreateTemp(dir, TempPattern+".data")
	if err != nil {
		return nil, fmt.Errorf("CreateTemp failed (may need permissions for dir %q containing dataFile): %w", dir, err)
	}
	return &Builder{
		resultPath: dataFilePath,
		spillFile:  spillFile,
		w:          segfile.NewWriter(spillFile),
		logger:     options.logger,
	}, nil
}

// Put appends a live key/value pair. An empty value is still a value.
func (b *Builder) Put(k, v []byte) error {
	if b.spillFile == nil {
		return errFinalized
	}
	return b.w.Append(k, v)
}

// Delete appends a tombstone for k.
func (b *Builder) Delete(k []byte) error {
	if b.spillFile == nil {
		return errFinalized
	}
	return b.w.AppendTombstone(k)
}

// Add appends e, as a tombstone if it is one.
func (b *Builder) Add(e Entry[[]byte, []byte]) error {
	if v, ok := e.Value(); ok {
		return b.Put(e.Key(), v)
	}
	return b.Delete(e.Key())
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	return b.w.Len()
}

// Finalize writes the segment's index and hash, publishes the file at
// the destination path, and removes the temporary files.
func (b *Builder) Finalize() error {
	if b.spillFile == nil {
		return errFinalized
	}
	if err := b.finalize(); err != nil {
		_ = b.Abort()
		return err
	}
	return nil
}

func (b *Builder) finalize() error {
	// everything buffered must reach the spill file before it is rewound
	if err := b.w.Flush(); err != nil {
		return fmt.Errorf("w.Flush: %w", err)
	}
	// rewind the data region so it can be copied after the link table
	if _, err := b.spillFile.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("spillFile.Seek: %w", err)
	}

	dir := filepath.Dir(b.resultPath)
	f, err := os.CreateTemp(dir, TempPattern+FileExt)
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}

	if err := b.w.Finish(f, b.spillFile); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("segfile.Finish: %w", err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("f.Sync: %w", err)
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("f.Close: %w", err)
	}

	// make the file read-only
	if err := os.Chmod(f.Name(), 0444); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("os.Chmod(0444): %w", err)
	}
	if err := os.Rename(f.Name(), b.resultPath); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("os.Rename: %w", err)
	}

	b.logger.Info("finalized segment", "path", b.resultPath, "entries", b.w.Len())

	b.closeSpill()
	return nil
}

func (b *Builder) closeSpill() {
	if b.spillFile == nil {
		return
	}
	_ = b.spillFile.Close()
	_ = os.Remove(b.spillFile.Name())
	b.spillFile = nil
}

// Abort discards everything written so far. It is safe to call after
// Finalize, in which case it does nothing.
func (b *Builder) Abort() error {
	b.closeSpill()
	return nil
}
