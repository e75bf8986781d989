// Copyright 2019, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"reflect"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// SetValue sets the value at pos. For array variables pos must be 0 and the
// value must be a slice: binding arrays of arrays is not supported by the
// database interface. Supplying a value switches a RETURNING-bound variable
// back to reading its static buffer.
func (v *Variable) SetValue(pos uint32, value interface{}) error {
	v.isValueSet = true
	v.getReturnedData = false
	if v.isArray {
		if pos > 0 {
			return errors.Wrap(ErrNotSupported, "arrays of arrays are not supported")
		}
		return v.setArrayValue(value)
	}
	return v.setSingleValue(pos, value)
}

// setArrayValue sets the actual element count to the slice's length, then
// sets each element in order, aborting on the first failure.
func (v *Variable) setArrayValue(value interface{}) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return errors.Wrapf(ErrType, "expecting array data, got %T", value)
	}
	n := rv.Len()
	if err := v.handle.SetNumElements(uint32(n)); err != nil {
		return errors.Wrapf(err, "setNumElementsInArray(%d)", n)
	}
	for i := 0; i < n; i++ {
		if err := v.setSingleValue(uint32(i), rv.Index(i).Interface()); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}

func (v *Variable) setSingleValue(pos uint32, value interface{}) error {
	if pos >= v.allocatedElements {
		return errors.Wrapf(ErrIndex, "position %d of %d", pos, v.allocatedElements)
	}
	if v.inConverter != nil {
		var err error
		if value, err = v.inConverter(value); err != nil {
			return err
		}
	}
	data := &v.data[pos]
	if value == nil {
		data.SetNull()
		return nil
	}
	if v.kind == TransformCursor {
		return v.setValueCursor(pos, data, value)
	}
	t := v.kind.transform()
	b, err := t.encode(v, pos, data, value)
	if err != nil {
		return err
	}
	if t.natTyp == NativeTypeBytes {
		return v.setValueBytes(pos, b)
	}
	return nil
}

// setValueBytes commits a byte payload, growing the native buffer first when
// the payload exceeds the current per-element capacity. Growth is
// all-or-nothing: on any failure the existing buffer and its data stay valid.
func (v *Variable) setValueBytes(pos uint32, b []byte) error {
	if uint32(len(b)) > v.bufferSize {
		t := v.kind.transform()
		if lgr := getLogger(nil); lgr != nil {
			lgr.Debug("growVar", "pos", pos, "bufferSize", v.bufferSize, "need", len(b))
		}
		newHandle, newData, err := v.conn.handle.NewVar(
			t.oracleTyp, t.natTyp, v.allocatedElements, uint32(len(b)), true, v.isArray, nil,
		)
		if err != nil {
			return errors.Wrapf(ErrAllocation, "grow to %d bytes: %v", len(b), err)
		}
		for i := range newData {
			newData[i].NativeTypeNum = t.natTyp
		}
		if v.isArray {
			n, err := v.handle.NumElements()
			if err != nil {
				newHandle.Release()
				return errors.Wrap(err, "numElementsInArray")
			}
			if err = newHandle.SetNumElements(n); err != nil {
				newHandle.Release()
				return errors.Wrapf(err, "setNumElementsInArray(%d)", n)
			}
		}
		// Elements are carried over by logical index; the one being written
		// is skipped, it gets the pending payload below.
		for i := uint32(0); i < v.allocatedElements; i++ {
			src := &v.data[i]
			if i == pos || src.IsNull() {
				continue
			}
			if err = newHandle.SetFromBytes(i, src.GetBytes()); err != nil {
				newHandle.Release()
				return errors.Wrapf(err, "copy element %d", i)
			}
		}
		newSize, err := newHandle.SizeInBytes()
		if err != nil {
			newHandle.Release()
			return errors.Wrap(err, "sizeInBytes")
		}
		v.handle.Release()
		v.handle, v.data = newHandle, newData
		v.bufferSize = newSize
		if v.kind == TransformBinary || v.kind == TransformLongBinary {
			v.size = uint32(len(b))
		} else {
			v.size = uint32(utf8.RuneCount(b))
		}
	}
	if err := v.handle.SetFromBytes(pos, b); err != nil {
		return errors.Wrapf(err, "setFromBytes(%d)", pos)
	}
	return nil
}

// setValueCursor binds a cursor-typed value. A cursor that already owns a
// statement handle is bound directly; otherwise the statement handle the
// native layer pre-allocated in the cell is adopted, after probing that it is
// still open. A failed probe surfaces as the driver's error: the caller may
// retry the bind with a freshly created cursor.
func (v *Variable) setValueCursor(pos uint32, data *Data, value interface{}) error {
	cur, ok := value.(*Cursor)
	if !ok {
		return errors.Wrapf(ErrType, "expecting cursor, got %T", value)
	}
	if cur.stmt != nil {
		if err := v.handle.SetFromStmt(pos, cur.stmt); err != nil {
			return errors.Wrapf(err, "setFromStmt(%d)", pos)
		}
	} else {
		stmt := data.GetStmt()
		if stmt == nil {
			return errors.New("no statement handle in cell")
		}
		if _, err := stmt.Info(); err != nil {
			return errors.Wrap(err, "stmtInfo")
		}
		if err := stmt.AddRef(); err != nil {
			return errors.Wrap(err, "stmt.AddRef")
		}
		cur.stmt = stmt
	}
	if err := cur.stmt.SetPrefetchRows(cur.PrefetchRows); err != nil {
		return errors.Wrapf(err, "setPrefetchRows(%d)", cur.PrefetchRows)
	}
	cur.fixupRefCursor = true
	return nil
}
