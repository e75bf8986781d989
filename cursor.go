// Copyright 2019, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"github.com/pkg/errors"
)

// Cursor is the statement facade the engine binds variables to. It caches
// the statement metadata the engine consults (DML RETURNING, PL/SQL context)
// and carries the prefetch configuration propagated to adopted ref cursors.
type Cursor struct {
	conn             *Conn
	stmt             StmtHandle
	info             StmtInfo
	inputTypeHandler InputTypeHandler
	PrefetchRows     uint32
	// fixupRefCursor marks an adopted statement as needing column metadata
	// fix-up before first use.
	fixupRefCursor bool
}

// NewCursor returns a cursor without a prepared statement, as used for ref
// cursor out binds.
func NewCursor(conn *Conn) *Cursor {
	var prefetch uint32
	if conn != nil {
		prefetch = conn.params.PrefetchRows
	}
	return &Cursor{conn: conn, PrefetchRows: prefetch}
}

// NewCursorWithStmt returns a cursor over a prepared native statement,
// querying its metadata once.
func NewCursorWithStmt(conn *Conn, stmt StmtHandle) (*Cursor, error) {
	cur := NewCursor(conn)
	if stmt == nil {
		return nil, errors.New("statement is nil")
	}
	info, err := stmt.Info()
	if err != nil {
		return nil, errors.Wrap(err, "stmtInfo")
	}
	cur.stmt, cur.info = stmt, info
	return cur, nil
}

// Conn returns the owning connection.
func (cur *Cursor) Conn() *Conn { return cur.conn }

// Stmt returns the native statement handle, nil if none is attached.
func (cur *Cursor) Stmt() StmtHandle { return cur.stmt }

// Info returns the cached statement metadata.
func (cur *Cursor) Info() StmtInfo { return cur.info }

// NeedsRefCursorFixup reports whether an adopted ref cursor statement still
// needs its column metadata refreshed.
func (cur *Cursor) NeedsRefCursorFixup() bool { return cur.fixupRefCursor }

// FixedUpRefCursor clears the fix-up mark after the caller refreshed the
// adopted statement's metadata.
func (cur *Cursor) FixedUpRefCursor() { cur.fixupRefCursor = false }

// SetInputTypeHandler sets the cursor-level inference override, which takes
// precedence over the connection-level one.
func (cur *Cursor) SetInputTypeHandler(h InputTypeHandler) { cur.inputTypeHandler = h }

func (cur *Cursor) typeHandler() InputTypeHandler {
	if cur.inputTypeHandler != nil {
		return cur.inputTypeHandler
	}
	if cur.conn != nil {
		return cur.conn.typeHandler()
	}
	return nil
}

// Close releases the native statement handle, if any. It is idempotent.
func (cur *Cursor) Close() error {
	if cur == nil || cur.stmt == nil {
		return nil
	}
	stmt := cur.stmt
	cur.stmt = nil
	if err := stmt.Release(); err != nil {
		return errors.Wrap(err, "stmt.Release")
	}
	return nil
}
