// Copyright 2019, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/godror/knownpb/timestamppb"

	varbind "github.com/godror/varbind"
	"github.com/godror/varbind/vartest"
)

func newTestCursor(t *testing.T, conn *varbind.Conn, info varbind.StmtInfo) *varbind.Cursor {
	t.Helper()
	cur, err := varbind.NewCursorWithStmt(conn, vartest.NewStmt(info))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cur.Close() })
	return cur
}

func TestInferKindFromValue(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	cur := newTestCursor(t, conn, varbind.StmtInfo{})

	long := strings.Repeat("x", 4001)
	for _, tc := range []struct {
		name  string
		value interface{}
		want  varbind.TransformKind
	}{
		{"nil", nil, varbind.TransformString},
		{"string", "s", varbind.TransformString},
		{"longString", long, varbind.TransformLongString},
		{"bytes", []byte{1}, varbind.TransformBinary},
		{"longBytes", []byte(long), varbind.TransformLongBinary},
		{"bool", false, varbind.TransformBool},
		{"int", 1, varbind.TransformInt},
		{"uint64", uint64(1), varbind.TransformInt},
		{"float64", 1.0, varbind.TransformFloat},
		{"float32", float32(1), varbind.TransformNativeFloat},
		{"number", varbind.Number("1"), varbind.TransformNumber},
		{"time", time.Now(), varbind.TransformDate},
		{"knownpbTimestamp", timestamppb.New(time.Now()), varbind.TransformTimestamp},
		{"duration", time.Second, varbind.TransformIntervalDS},
		{"cursor", varbind.NewCursor(conn), varbind.TransformCursor},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			v, err := varbind.NewVariableByValue(cur, tc.value, 1)
			if err != nil {
				t.Fatal(err)
			}
			defer v.Release()
			if v.Kind() != tc.want {
				t.Errorf("got %s, wanted %s", v.Kind(), tc.want)
			}
		})
	}
}

func TestInferLongInPLSQL(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	cur := newTestCursor(t, conn, varbind.StmtInfo{IsPLSQL: true})

	// PL/SQL has no VARCHAR limit, the LONG transforms are not used there.
	v, err := varbind.NewVariableByValue(cur, strings.Repeat("x", 4001), 1)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if v.Kind() != varbind.TransformString {
		t.Errorf("got %s, wanted %s", v.Kind(), varbind.TransformString)
	}
}

func TestInferLobKind(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	cur := newTestCursor(t, conn, varbind.StmtInfo{})

	clob := varbind.NewLob(vartest.NewLob(nil, true), true)
	v, err := varbind.NewVariableByValue(cur, clob, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if v.Kind() != varbind.TransformClob {
		t.Errorf("got %s, wanted %s", v.Kind(), varbind.TransformClob)
	}

	blob := varbind.NewLob(vartest.NewLob(nil, false), false)
	if v, err = varbind.NewVariableByValue(cur, blob, 1); err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if v.Kind() != varbind.TransformBlob {
		t.Errorf("got %s, wanted %s", v.Kind(), varbind.TransformBlob)
	}
}

func TestInferUnsupportedType(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	cur := newTestCursor(t, conn, varbind.StmtInfo{})
	if _, err := varbind.NewVariableByValue(cur, struct{}{}, 1); !errors.Is(err, varbind.ErrType) {
		t.Fatalf("got %+v, wanted ErrType", err)
	}
}

func TestInferArrayFromSlice(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	cur := newTestCursor(t, conn, varbind.StmtInfo{IsPLSQL: true})

	v, err := varbind.NewVariableByValue(cur, []interface{}{nil, "ab", "wide element"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if !v.IsArray() {
		t.Error("slice value did not infer an array variable")
	}
	if v.Kind() != varbind.TransformString {
		t.Errorf("got %s, wanted %s", v.Kind(), varbind.TransformString)
	}
	if v.NumElements() != 3 {
		t.Errorf("elements = %d, wanted 3", v.NumElements())
	}
	if v.Size() != uint32(len("wide element")) {
		t.Errorf("size = %d, wanted the widest element's", v.Size())
	}

	if _, err = varbind.NewVariableByValue(cur, []interface{}{"a", 1}, 0); !errors.Is(err, varbind.ErrType) {
		t.Errorf("mixed kinds: got %+v, wanted ErrType", err)
	}
	if _, err = varbind.NewVariableByValue(cur, [][]string{{"a"}}, 0); !errors.Is(err, varbind.ErrNotSupported) {
		t.Errorf("nested: got %+v, wanted ErrNotSupported", err)
	}

	// All-nil slices fall back to strings.
	v, err = varbind.NewVariableByValue(cur, make([]interface{}, 2), 5)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if v.Kind() != varbind.TransformString || v.NumElements() != 5 {
		t.Errorf("got %s/%d, wanted VARCHAR2/5", v.Kind(), v.NumElements())
	}
}

func TestInputTypeHandlerPrecedence(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	cur := newTestCursor(t, conn, varbind.StmtInfo{})

	conn.SetInputTypeHandler(func(cur *varbind.Cursor, value interface{}, numElements uint32) (*varbind.Variable, error) {
		return varbind.NewVariable(cur.Conn(), varbind.TransformNumber, numElements, 0, false, nil)
	})
	v, err := varbind.NewVariableByValue(cur, "looks like a string", 1)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if v.Kind() != varbind.TransformNumber {
		t.Errorf("connection handler: got %s, wanted NUMBER", v.Kind())
	}

	cur.SetInputTypeHandler(func(cur *varbind.Cursor, value interface{}, numElements uint32) (*varbind.Variable, error) {
		return varbind.NewVariable(cur.Conn(), varbind.TransformFixedChar, numElements, 0, false, nil)
	})
	if v, err = varbind.NewVariableByValue(cur, "s", 1); err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if v.Kind() != varbind.TransformFixedChar {
		t.Errorf("cursor handler must win: got %s, wanted CHAR", v.Kind())
	}

	// A (nil, nil) handler result falls through to the default inference.
	cur.SetInputTypeHandler(func(cur *varbind.Cursor, value interface{}, numElements uint32) (*varbind.Variable, error) {
		return nil, nil
	})
	if v, err = varbind.NewVariableByValue(cur, 42, 1); err != nil {
		t.Fatal(err)
	}
	defer v.Release()
	if v.Kind() != varbind.TransformInt {
		t.Errorf("fallthrough: got %s, wanted NUMBER int", v.Kind())
	}
}

func TestNewVariableByType(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	cur := newTestCursor(t, conn, varbind.StmtInfo{})

	t.Run("stringLength", func(t *testing.T) {
		v, err := varbind.NewVariableByType(cur, 100, 1)
		if err != nil {
			t.Fatal(err)
		}
		defer v.Release()
		if v.Kind() != varbind.TransformString || v.Size() != 100 {
			t.Errorf("got %s/%d, wanted VARCHAR2/100", v.Kind(), v.Size())
		}
	})

	t.Run("kind", func(t *testing.T) {
		v, err := varbind.NewVariableByType(cur, varbind.TransformBlob, 1)
		if err != nil {
			t.Fatal(err)
		}
		defer v.Release()
		if v.Kind() != varbind.TransformBlob {
			t.Errorf("got %s, wanted BLOB", v.Kind())
		}
	})

	t.Run("goType", func(t *testing.T) {
		v, err := varbind.NewVariableByType(cur, reflect.TypeOf(time.Time{}), 1)
		if err != nil {
			t.Fatal(err)
		}
		defer v.Release()
		if v.Kind() != varbind.TransformDate {
			t.Errorf("got %s, wanted DATE", v.Kind())
		}
	})

	t.Run("dbType", func(t *testing.T) {
		dt := varbind.DBType{Name: "RAW", OracleType: varbind.OracleTypeRaw, NativeType: varbind.NativeTypeBytes}
		v, err := varbind.NewVariableByType(cur, dt, 1)
		if err != nil {
			t.Fatal(err)
		}
		defer v.Release()
		if v.Kind() != varbind.TransformBinary {
			t.Errorf("got %s, wanted RAW", v.Kind())
		}
	})

	t.Run("array", func(t *testing.T) {
		v, err := varbind.NewVariableByType(cur, []interface{}{varbind.TransformInt, 10}, 0)
		if err != nil {
			t.Fatal(err)
		}
		defer v.Release()
		if !v.IsArray() || v.Kind() != varbind.TransformInt || v.NumElements() != 10 {
			t.Errorf("got %s/%d/array=%t", v.Kind(), v.NumElements(), v.IsArray())
		}
	})

	t.Run("existingVariable", func(t *testing.T) {
		orig, err := varbind.NewVariable(conn, varbind.TransformBool, 1, 0, false, nil)
		if err != nil {
			t.Fatal(err)
		}
		defer orig.Release()
		v, err := varbind.NewVariableByType(cur, orig, 1)
		if err != nil {
			t.Fatal(err)
		}
		if v != orig {
			t.Error("existing variable was not passed through")
		}
	})

	t.Run("badSpecs", func(t *testing.T) {
		for _, spec := range []interface{}{
			[]interface{}{varbind.TransformInt},
			[]interface{}{varbind.TransformInt, "ten"},
			[]interface{}{varbind.TransformInt, -1},
			varbind.TransformKind(200),
			3.14,
		} {
			if _, err := varbind.NewVariableByType(cur, spec, 1); !errors.Is(err, varbind.ErrProgramming) {
				t.Errorf("%v: got %+v, wanted ErrProgramming", spec, err)
			}
		}
	})
}
