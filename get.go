// Copyright 2019, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"github.com/pkg/errors"
)

// GetValue returns the decoded value at pos. For array variables pos is
// ignored and the whole array (at its actual element count) is returned.
func (v *Variable) GetValue(pos uint32) (interface{}, error) {
	if v.isArray {
		n, err := v.handle.NumElements()
		if err != nil {
			return nil, errors.Wrap(err, "numElementsInArray")
		}
		return v.getArrayValue(n, v.data)
	}
	if pos >= v.allocatedElements && !v.getReturnedData {
		return nil, errors.Wrapf(ErrIndex, "position %d of %d", pos, v.allocatedElements)
	}
	return v.getSingleValue(nil, pos)
}

// getSingleValue decodes the cell at pos of data (the variable's own buffer
// when data is nil). In returned-data mode with no explicit buffer it instead
// fetches the rows execution produced for this bind position.
func (v *Variable) getSingleValue(data []Data, pos uint32) (interface{}, error) {
	if data == nil && v.getReturnedData {
		n, returned, err := v.handle.ReturnedData(pos)
		if err != nil {
			return nil, errors.Wrapf(err, "getReturnedData(%d)", pos)
		}
		return v.getArrayValue(n, returned)
	}

	if data == nil {
		data = v.data
	}
	cell := &data[pos]
	if cell.IsNull() {
		return nil, nil
	}
	t := v.kind.transform()
	value, err := t.decode(v, cell)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s[%d]", v.kind, pos)
	}
	// The cell may be overwritten or released while the decoded value is
	// still alive, so reference-counted handles get their own reference
	// before the value escapes. The matching decrement is the host value's
	// Close, not the variable's Release.
	switch {
	case v.kind.isLobKind():
		if L, ok := value.(*Lob); ok && L.handle != nil {
			if err = L.handle.AddRef(); err != nil {
				return nil, errors.Wrap(err, "lob.AddRef")
			}
		}
	case v.kind == TransformObject:
		if o, ok := value.(*Object); ok && o.handle != nil {
			if err = o.handle.AddRef(); err != nil {
				return nil, errors.Wrap(err, "object.AddRef")
			}
		}
	case v.kind == TransformCursor:
		if cur, ok := value.(*Cursor); ok && cur.stmt != nil {
			if err = cur.stmt.AddRef(); err != nil {
				return nil, errors.Wrap(err, "stmt.AddRef")
			}
		}
	}
	if v.outConverter != nil {
		return v.outConverter(value)
	}
	return value, nil
}

// getArrayValue decodes exactly n cells in order; the first failing element
// aborts the whole call.
func (v *Variable) getArrayValue(n uint32, data []Data) ([]interface{}, error) {
	values := make([]interface{}, n)
	for i := uint32(0); i < n; i++ {
		value, err := v.getSingleValue(data, i)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}
