// Copyright 2017, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"context"
	"sync/atomic"

	"golang.org/x/exp/slog"
)

type logCtxKey struct{}

var globalLogger atomic.Pointer[slog.Logger]

// SetLogger sets the package-level logger used when no context logger is set.
// A nil logger disables logging.
func SetLogger(lgr *slog.Logger) { globalLogger.Store(lgr) }

func getLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if lgr, ok := ctx.Value(logCtxKey{}).(*slog.Logger); ok {
			return lgr
		}
	}
	return globalLogger.Load()
}

// ContextWithLogger returns a context with the given logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, logCtxKey{}, logger)
}
