// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package store

import (
	"io"
	"log/slog"
)

const (
	defaultFlushThreshold  = 4 << 20
	defaultBloomBitsPerKey = 10
)

// Option configures Open.
type Option func(*options)

type options struct {
	logger          *slog.Logger
	flushThreshold  int64
	verifyOnOpen    bool
	bloomBitsPerKey int
}

func defaultOptions() options {
	return options{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		flushThreshold:  defaultFlushThreshold,
		bloomBitsPerKey: defaultBloomBitsPerKey,
	}
}

// WithLogger sets an optional logger. If not provided, no logging output
// will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithFlushThreshold sets the approximate memtable size, in bytes, at
// which Upsert writes the memtable out as a new segment. A threshold of
// zero or less disables automatic flushes.
func WithFlushThreshold(bytes int64) Option {
	return func(opts *options) {
		opts.flushThreshold = bytes
	}
}

// WithVerifyOnOpen checks every segment's hash when it is opened.
func WithVerifyOnOpen(enabled bool) Option {
	return func(opts *options) {
		opts.verifyOnOpen = enabled
	}
}

// WithBloomBitsPerKey sizes the per-segment bloom filters.
func WithBloomBitsPerKey(bits int) Option {
	return func(opts *options) {
		opts.bloomBitsPerKey = bits
	}
}
