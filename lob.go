// Copyright 2017, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"io"

	"github.com/pkg/errors"
)

// Lob is a host value wrapping a reference-counted large object handle.
// A Lob decoded out of a variable holds its own reference; Close releases it.
type Lob struct {
	handle LobHandle
	offset uint64
	IsClob bool
}

// NewLob wraps the given handle. The Lob takes over the caller's reference.
func NewLob(handle LobHandle, isClob bool) *Lob {
	return &Lob{handle: handle, IsClob: isClob}
}

// Handle returns the underlying native handle.
func (L *Lob) Handle() LobHandle { return L.handle }

// Size reports the LOB's length in bytes.
func (L *Lob) Size() (uint64, error) {
	if L == nil || L.handle == nil {
		return 0, errors.New("lob is nil")
	}
	return L.handle.Size()
}

var _ io.Reader = (*Lob)(nil)

func (L *Lob) Read(p []byte) (int, error) {
	if L == nil || L.handle == nil {
		return 0, errors.New("read on nil lob")
	}
	if len(p) == 0 {
		return 0, io.ErrShortBuffer
	}
	size, err := L.handle.Size()
	if err != nil {
		return 0, errors.Wrap(err, "getSize")
	}
	if L.offset >= size {
		return 0, io.EOF
	}
	if rest := size - L.offset; uint64(len(p)) > rest {
		p = p[:rest]
	}
	n, err := L.handle.ReadAt(p, L.offset)
	L.offset += uint64(n)
	if err != nil {
		return n, errors.Wrap(err, "readBytes")
	}
	return n, nil
}

// Close drops the Lob's reference on the native handle. It is idempotent.
func (L *Lob) Close() error {
	if L == nil || L.handle == nil {
		return nil
	}
	handle := L.handle
	L.handle = nil
	if err := handle.Release(); err != nil {
		return errors.Wrap(err, "lob.Release")
	}
	return nil
}
