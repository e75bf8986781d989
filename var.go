// Copyright 2019, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"fmt"

	"github.com/pkg/errors"
)

// Converter is an optional hook applied to values on their way into
// (inConverter) or out of (outConverter) a Variable.
type Converter func(value interface{}) (interface{}, error)

// Variable is one bind slot: a typed, possibly array-valued parameter or
// result holder backed by a native buffer.
//
// A Variable is driven by a single goroutine at a time and must not be used
// after its owning connection has been closed.
type Variable struct {
	conn       *Conn
	handle     VarHandle
	data       []Data
	objectType *ObjectType

	inConverter, outConverter Converter

	kind              TransformKind
	allocatedElements uint32
	size              uint32
	bufferSize        uint32
	encodingErrors    string

	isArray bool
	// isValueSet is set on the first explicit SetValue; getReturnedData is
	// set when the variable is bound to a DML RETURNING position before any
	// value was supplied, switching reads to post-execution row retrieval.
	isValueSet      bool
	getReturnedData bool
}

// NewVariable allocates a variable on conn with the given transform kind.
// A zero numElements is treated as 1, a zero size as the transform's default
// element size. objType is only used (and retained) for TransformObject.
func NewVariable(conn *Conn, kind TransformKind, numElements, size uint32, isArray bool, objType *ObjectType) (*Variable, error) {
	if conn == nil || conn.handle == nil {
		return nil, errors.New("connection is nil")
	}
	t := kind.transform()
	if t == nil {
		return nil, errors.Wrapf(ErrProgramming, "unknown transform kind %d", kind)
	}
	if numElements == 0 {
		numElements = 1
	}
	if max := conn.params.MaxArraySize; max > 0 && numElements > max {
		return nil, errors.Wrapf(ErrProgramming, "%d elements is bigger than the maximum (%d)", numElements, max)
	}
	if size == 0 {
		size = t.defaultSize
	}
	v := &Variable{
		conn:              conn,
		kind:              kind,
		allocatedElements: numElements,
		size:              size,
		isArray:           isArray,
		encodingErrors:    conn.params.EncodingErrors,
	}
	var objTypeHandle ObjectTypeHandle
	if objType != nil {
		if err := objType.handle.AddRef(); err != nil {
			return nil, errors.Wrap(err, "objectType.AddRef")
		}
		v.objectType = objType
		objTypeHandle = objType.handle
	}
	if lgr := getLogger(nil); lgr != nil {
		lgr.Debug("newVar", "typ", int(t.oracleTyp), "natTyp", int(t.natTyp),
			"numElements", numElements, "size", size, "isArray", isArray)
	}
	var err error
	if v.handle, v.data, err = conn.handle.NewVar(
		t.oracleTyp, t.natTyp, numElements, size, false, isArray, objTypeHandle,
	); err != nil {
		v.dropRefs()
		return nil, errors.Wrapf(ErrAllocation,
			"newVar(typ=%d, natTyp=%d, numElements=%d, size=%d): %v",
			t.oracleTyp, t.natTyp, numElements, size, err)
	}
	for i := range v.data {
		v.data[i].NativeTypeNum = t.natTyp
	}
	if v.bufferSize, err = v.handle.SizeInBytes(); err != nil {
		v.Release()
		return nil, errors.Wrap(err, "sizeInBytes")
	}
	return v, nil
}

// dropRefs releases the shared references without touching the buffer handle.
func (v *Variable) dropRefs() {
	if v.objectType != nil {
		v.objectType.handle.Release()
		v.objectType = nil
	}
	v.inConverter, v.outConverter = nil, nil
	v.conn = nil
	v.encodingErrors = ""
}

// Release frees the native buffer and drops all shared references.
// It is idempotent; the Variable must not be used afterwards.
func (v *Variable) Release() {
	if v == nil {
		return
	}
	h := v.handle
	v.handle, v.data = nil, nil
	if h != nil {
		h.Release()
	}
	v.dropRefs()
}

// SetInConverter configures the hook applied to values before encoding.
func (v *Variable) SetInConverter(c Converter) { v.inConverter = c }

// SetOutConverter configures the hook applied to decoded values.
func (v *Variable) SetOutConverter(c Converter) { v.outConverter = c }

// Kind returns the transform kind the variable was created with.
func (v *Variable) Kind() TransformKind { return v.kind }

// IsArray reports whether this is a PL/SQL array variable.
func (v *Variable) IsArray() bool { return v.isArray }

// NumElements returns the allocated element count.
func (v *Variable) NumElements() uint32 { return v.allocatedElements }

// Size returns the current per-element size the variable was sized for.
func (v *Variable) Size() uint32 { return v.size }

// BufferSize returns the actual per-element byte capacity of the native buffer.
func (v *Variable) BufferSize() uint32 { return v.bufferSize }

// ActualElements returns the driver-reported element count for array
// variables and the allocated count otherwise.
func (v *Variable) ActualElements() (uint32, error) {
	if !v.isArray {
		return v.allocatedElements, nil
	}
	n, err := v.handle.NumElements()
	if err != nil {
		return 0, errors.Wrap(err, "numElementsInArray")
	}
	return n, nil
}

// Values returns the decoded values at all positions. No explicit buffer is
// passed down, so a variable in returned-data mode resolves each position
// through the rows execution produced instead of the static cells.
func (v *Variable) Values() ([]interface{}, error) {
	n, err := v.ActualElements()
	if err != nil {
		return nil, err
	}
	return v.getArrayValue(n, nil)
}

// Type returns the object type for object variables, else the database type
// tag derived from the transform.
func (v *Variable) Type() interface{} {
	if v.objectType != nil {
		return v.objectType
	}
	t := v.kind.transform()
	return DBType{Name: t.dbType, OracleType: t.oracleTyp, NativeType: t.natTyp}
}

// Copy copies the cell at srcPos of src into the cell at targetPos. Source
// and target must have been created with the same transform kind.
func (v *Variable) Copy(src *Variable, srcPos, targetPos uint32) error {
	if src == nil || v.kind != src.kind {
		return errors.Wrap(ErrProgramming, "source and target variable type must match")
	}
	if err := v.handle.Copy(targetPos, src.handle, srcPos); err != nil {
		return errors.Wrap(err, "copyData")
	}
	return nil
}

func (v *Variable) String() string {
	var value interface{}
	var err error
	if v.allocatedElements == 1 && !v.isArray {
		value, err = v.getSingleValue(nil, 0)
	} else {
		value, err = v.Values()
	}
	if err != nil {
		value = fmt.Sprintf("ERROR: %+v", err)
	}
	return fmt.Sprintf("<varbind.Variable of type %s with value %v>", v.kind, value)
}
