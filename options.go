// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package seg

import (
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	logger         *slog.Logger
	integrityCheck bool
	verifyOnOpen   bool
}

// WithLogger sets an optional logger. If not provided, no logging output
// will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *openOptions) {
		opts.logger = logger
	}
}

// WithIntegrityCheck enables Segment.CheckIntegrity. When disabled (the
// default) CheckIntegrity reports true without reading the segment.
func WithIntegrityCheck(enabled bool) Option {
	return func(opts *openOptions) {
		opts.integrityCheck = enabled
	}
}

// WithVerifyOnOpen makes Open run the integrity check and fail with
// ErrIntegrity on a mismatch. It implies WithIntegrityCheck(true).
func WithVerifyOnOpen(enabled bool) Option {
	return func(opts *openOptions) {
		opts.verifyOnOpen = enabled
	}
}

// BuilderOption configures the Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	logger *slog.Logger
}

// WithBuilderLogger sets an optional logger for the builder to use for progress updates.
// If not provided, no logging output will be produced.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(opts *builderOptions) {
		opts.logger = logger
	}
}
