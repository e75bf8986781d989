// Copyright 2019, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	varbind "github.com/godror/varbind"
	"github.com/godror/varbind/vartest"
)

func TestBindByNameAndPos(t *testing.T) {
	conn, tc := newTestConn(t, varbind.Options{})
	stmt := vartest.NewStmt(varbind.StmtInfo{})
	cur, err := varbind.NewCursorWithStmt(conn, stmt)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	v, err := varbind.NewVariable(conn, varbind.TransformInt, 1, 0, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()

	if err = v.Bind(cur, "id", 0); err != nil {
		t.Fatal(err)
	}
	if stmt.BoundByName("id") != tc.LastVar() {
		t.Error("bindByName did not reach the native statement")
	}
	if err = v.Bind(cur, "", 1); err != nil {
		t.Fatal(err)
	}
	if stmt.BoundByPos(1) != tc.LastVar() {
		t.Error("bindByPos did not reach the native statement")
	}
}

func TestBindClosedStmt(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	stmt := vartest.NewStmt(varbind.StmtInfo{})
	cur, err := varbind.NewCursorWithStmt(conn, stmt)
	if err != nil {
		t.Fatal(err)
	}
	v, err := varbind.NewVariable(conn, varbind.TransformInt, 1, 0, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()

	stmt.ForceClose()
	err = v.Bind(cur, "id", 0)
	var de *varbind.DriverError
	if !errors.As(err, &de) {
		t.Fatalf("got %+v, wanted a DriverError", err)
	}
	if stmt.BoundByName("id") != nil {
		t.Error("failed bind left the variable bound")
	}
}

func TestReturningData(t *testing.T) {
	enableLogging(t)
	conn, tc := newTestConn(t, varbind.Options{})
	stmt := vartest.NewStmt(varbind.StmtInfo{IsReturning: true})
	cur, err := varbind.NewCursorWithStmt(conn, stmt)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	v, err := varbind.NewVariable(conn, varbind.TransformString, 1, 32, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if err = v.Bind(cur, "out", 0); err != nil {
		t.Fatal(err)
	}

	// Simulate execution producing two rows for the bind position.
	rows := make([]varbind.Data, 2)
	for i, s := range []string{"first", "second"} {
		rows[i].NativeTypeNum = varbind.NativeTypeBytes
		rows[i].SetBytes([]byte(s))
	}
	tc.LastVar().StageReturnedRows(0, rows)

	got, err := v.GetValue(0)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(got, []interface{}{"first", "second"}); d != "" {
		t.Error(d)
	}

	// Positions beyond the allocated count are legal reads in this mode.
	got, err = v.GetValue(5)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(got, []interface{}{}); d != "" {
		t.Error(d)
	}
}

func TestReturningValues(t *testing.T) {
	conn, tc := newTestConn(t, varbind.Options{})
	stmt := vartest.NewStmt(varbind.StmtInfo{IsReturning: true})
	cur, err := varbind.NewCursorWithStmt(conn, stmt)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	v, err := varbind.NewVariable(conn, varbind.TransformString, 1, 32, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if err = v.Bind(cur, "out", 0); err != nil {
		t.Fatal(err)
	}

	rows := make([]varbind.Data, 2)
	for i, s := range []string{"first", "second"} {
		rows[i].NativeTypeNum = varbind.NativeTypeBytes
		rows[i].SetBytes([]byte(s))
	}
	tc.LastVar().StageReturnedRows(0, rows)

	// Values must resolve through the returned rows, not the static cells.
	got, err := v.Values()
	if err != nil {
		t.Fatal(err)
	}
	want := []interface{}{[]interface{}{"first", "second"}}
	if d := cmp.Diff(got, want); d != "" {
		t.Error(d)
	}
}

func TestReturningDisabledBySetValue(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	stmt := vartest.NewStmt(varbind.StmtInfo{IsReturning: true})
	cur, err := varbind.NewCursorWithStmt(conn, stmt)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	v, err := varbind.NewVariable(conn, varbind.TransformString, 1, 32, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if err = v.Bind(cur, "out", 0); err != nil {
		t.Fatal(err)
	}
	if err = v.SetValue(0, "explicit"); err != nil {
		t.Fatal(err)
	}
	got, err := v.GetValue(0)
	if err != nil {
		t.Fatal(err)
	}
	if got != "explicit" {
		t.Errorf("got %v, wanted the static buffer value", got)
	}
}

func TestReturningNotEnteredAfterSetValue(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	stmt := vartest.NewStmt(varbind.StmtInfo{IsReturning: true})
	cur, err := varbind.NewCursorWithStmt(conn, stmt)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	v, err := varbind.NewVariable(conn, varbind.TransformString, 1, 32, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if err = v.SetValue(0, "in"); err != nil {
		t.Fatal(err)
	}
	if err = v.Bind(cur, "inout", 0); err != nil {
		t.Fatal(err)
	}
	got, err := v.GetValue(0)
	if err != nil {
		t.Fatal(err)
	}
	if got != "in" {
		t.Errorf("got %v, wanted %q: a variable with a value must not switch to returned-data mode", got, "in")
	}
}

func TestCursorDirectBind(t *testing.T) {
	conn, tc := newTestConn(t, varbind.Options{})
	v, err := varbind.NewVariable(conn, varbind.TransformCursor, 1, 0, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()

	stmt := vartest.NewStmt(varbind.StmtInfo{})
	cur, err := varbind.NewCursorWithStmt(conn, stmt)
	if err != nil {
		t.Fatal(err)
	}
	cur.PrefetchRows = 100
	if err = v.SetValue(0, cur); err != nil {
		t.Fatal(err)
	}
	if got := tc.LastVar().CellStmt(0); got != stmt {
		t.Error("cursor's own statement was not bound into the cell")
	}
	if got := stmt.PrefetchRows(); got != 100 {
		t.Errorf("prefetch rows = %d, wanted 100", got)
	}
	if !cur.NeedsRefCursorFixup() {
		t.Error("bound cursor was not marked for metadata fix-up")
	}
}

func TestCursorAdoption(t *testing.T) {
	enableLogging(t)
	conn, tc := newTestConn(t, varbind.Options{})
	v, err := varbind.NewVariable(conn, varbind.TransformCursor, 1, 0, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()

	cellStmt := tc.LastVar().CellStmt(0)
	if cellStmt == nil {
		t.Fatal("no pre-allocated statement in the cursor cell")
	}
	before := cellStmt.RefCount()

	cur := varbind.NewCursor(conn)
	if err = v.SetValue(0, cur); err != nil {
		t.Fatal(err)
	}
	if cur.Stmt() != cellStmt {
		t.Error("cursor did not adopt the cell's statement")
	}
	if got := cellStmt.RefCount(); got != before+1 {
		t.Errorf("refcount = %d, wanted %d: adoption must add its own reference", got, before+1)
	}
	if got := cellStmt.PrefetchRows(); got != varbind.DefaultPrefetchRows {
		t.Errorf("prefetch rows = %d, wanted the connection default %d", got, varbind.DefaultPrefetchRows)
	}
	if !cur.NeedsRefCursorFixup() {
		t.Error("adopted cursor was not marked for metadata fix-up")
	}
	cur.FixedUpRefCursor()
	if cur.NeedsRefCursorFixup() {
		t.Error("fix-up mark was not cleared")
	}

	if err = cur.Close(); err != nil {
		t.Fatal(err)
	}
	if got := cellStmt.RefCount(); got != before {
		t.Errorf("refcount = %d after Close, wanted %d", got, before)
	}
}

func TestCursorAdoptionStaleStmt(t *testing.T) {
	conn, tc := newTestConn(t, varbind.Options{})
	v, err := varbind.NewVariable(conn, varbind.TransformCursor, 1, 0, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()

	tc.LastVar().CellStmt(0).ForceClose()
	err = v.SetValue(0, varbind.NewCursor(conn))
	var de *varbind.DriverError
	if !errors.As(err, &de) {
		t.Fatalf("got %+v, wanted a DriverError from the liveness probe", err)
	}

	// Retrying with a cursor that owns a live statement must succeed.
	fresh := vartest.NewStmt(varbind.StmtInfo{})
	cur, err := varbind.NewCursorWithStmt(conn, fresh)
	if err != nil {
		t.Fatal(err)
	}
	if err = v.SetValue(0, cur); err != nil {
		t.Fatalf("retry with fresh cursor: %+v", err)
	}
	if got := tc.LastVar().CellStmt(0); got != fresh {
		t.Error("fresh statement was not bound into the cell")
	}
}

func TestCursorGetValueAddsRef(t *testing.T) {
	conn, tc := newTestConn(t, varbind.Options{})
	v, err := varbind.NewVariable(conn, varbind.TransformCursor, 1, 0, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()

	cellStmt := tc.LastVar().CellStmt(0)
	before := cellStmt.RefCount()
	got, err := v.GetValue(0)
	if err != nil {
		t.Fatal(err)
	}
	cur, ok := got.(*varbind.Cursor)
	if !ok {
		t.Fatalf("got %T, wanted *Cursor", got)
	}
	if cellStmt.RefCount() != before+1 {
		t.Errorf("refcount = %d, wanted %d: the escaping cursor needs its own reference", cellStmt.RefCount(), before+1)
	}
	if cur.PrefetchRows != varbind.DefaultPrefetchRows {
		t.Errorf("prefetch rows = %d, wanted %d", cur.PrefetchRows, varbind.DefaultPrefetchRows)
	}
	if err = cur.Close(); err != nil {
		t.Fatal(err)
	}
	if cellStmt.RefCount() != before {
		t.Errorf("refcount = %d after Close, wanted %d", cellStmt.RefCount(), before)
	}
}

func TestCursorWrongType(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	v, err := varbind.NewVariable(conn, varbind.TransformCursor, 1, 0, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if err = v.SetValue(0, "not a cursor"); !errors.Is(err, varbind.ErrType) {
		t.Fatalf("got %+v, wanted ErrType", err)
	}
}
