// Copyright 2019, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"sync"
)

// InputTypeHandler lets callers override the default variable inference for a
// value. A (nil, nil) result selects the default inference; a non-nil
// Variable is used directly.
type InputTypeHandler func(cur *Cursor, value interface{}, numElements uint32) (*Variable, error)

// Conn wraps a native connection handle for the engine. It does not manage
// sessions or transactions; it only carries what variable marshalling needs.
type Conn struct {
	mu               sync.Mutex
	handle           ConnHandle
	params           Options
	inputTypeHandler InputTypeHandler
}

// NewConn wraps the native handle with the given options.
func NewConn(handle ConnHandle, params Options) *Conn {
	params.applyDefaults()
	return &Conn{handle: handle, params: params}
}

// Options returns the options the connection was created with.
func (c *Conn) Options() Options { return c.params }

// EncodingInfo reports the native connection's character sets.
func (c *Conn) EncodingInfo() EncodingInfo { return c.handle.EncodingInfo() }

// SetInputTypeHandler sets the connection-level inference override.
// A cursor-level handler takes precedence over it.
func (c *Conn) SetInputTypeHandler(h InputTypeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputTypeHandler = h
}

func (c *Conn) typeHandler() InputTypeHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputTypeHandler
}

// Close releases the native handle. Variables created from this connection
// must not be used afterwards. The release itself runs outside the mutex so
// a slow native teardown does not block other holders of the lock.
func (c *Conn) Close() error {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.mu.Unlock()
	if handle == nil {
		return nil
	}
	return handle.Release()
}
