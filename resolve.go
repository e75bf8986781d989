// Copyright 2019, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"reflect"
	"time"
	"unicode/utf8"

	"github.com/godror/knownpb/timestamppb"
	"github.com/pkg/errors"
)

// NewVariableByValue allocates a variable sized and typed for the given Go
// value. An input type handler (the cursor-level one takes precedence over
// the connection-level one) may override the inference by returning a non-nil
// Variable; (nil, nil) falls through to the default.
func NewVariableByValue(cur *Cursor, value interface{}, numElements uint32) (*Variable, error) {
	if cur == nil || cur.conn == nil {
		return nil, errors.New("cursor is nil")
	}
	if handler := cur.typeHandler(); handler != nil {
		v, err := handler(cur, value, numElements)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}

	rv := reflect.ValueOf(value)
	if _, isBytes := value.([]byte); value != nil && !isBytes && rv.Kind() == reflect.Slice {
		return newArrayVariableByValue(cur, rv, numElements)
	}
	kind, size, objType, err := scalarKind(value, cur.info.IsPLSQL)
	if err != nil {
		return nil, err
	}
	return NewVariable(cur.conn, kind, numElements, size, false, objType)
}

// newArrayVariableByValue infers a PL/SQL array variable from a slice value:
// the element transform from the first non-nil element, the element size from
// the widest one.
func newArrayVariableByValue(cur *Cursor, rv reflect.Value, numElements uint32) (*Variable, error) {
	n := rv.Len()
	if uint32(n) > numElements {
		numElements = uint32(n)
	}
	var kind TransformKind
	var size uint32
	var objType *ObjectType
	for i := 0; i < n; i++ {
		elem := rv.Index(i).Interface()
		if elem == nil {
			continue
		}
		if re := reflect.ValueOf(elem); re.Kind() == reflect.Slice {
			if _, isBytes := elem.([]byte); !isBytes {
				return nil, errors.Wrap(ErrNotSupported, "arrays of arrays are not supported")
			}
		}
		elemKind, elemSize, elemObjType, err := scalarKind(elem, cur.info.IsPLSQL)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		if kind == 0 {
			kind, objType = elemKind, elemObjType
		} else if kind != elemKind {
			return nil, errors.Wrapf(ErrType, "element %d: %s does not match %s", i, elemKind, kind)
		}
		if elemSize > size {
			size = elemSize
		}
	}
	if kind == 0 {
		kind = TransformString
	}
	return NewVariable(cur.conn, kind, numElements, size, true, objType)
}

// scalarKind maps a Go value to its transform, requested element size and,
// for objects, the object type. Character and raw payloads over the VARCHAR
// limit use the LONG transforms outside of PL/SQL, where no such limit holds.
func scalarKind(value interface{}, isPLSQL bool) (TransformKind, uint32, *ObjectType, error) {
	switch x := value.(type) {
	case nil:
		return TransformString, 1, nil, nil
	case string:
		size := uint32(utf8.RuneCountInString(x))
		if size > maxVarCharSize && !isPLSQL {
			return TransformLongString, size, nil, nil
		}
		return TransformString, size, nil, nil
	case []byte:
		size := uint32(len(x))
		if size > maxVarCharSize && !isPLSQL {
			return TransformLongBinary, size, nil, nil
		}
		return TransformBinary, size, nil, nil
	case bool:
		return TransformBool, 0, nil, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TransformInt, 0, nil, nil
	case float64:
		return TransformFloat, 0, nil, nil
	case float32:
		return TransformNativeFloat, 0, nil, nil
	case Number:
		return TransformNumber, uint32(len(x)), nil, nil
	case time.Time:
		return TransformDate, 0, nil, nil
	case *timestamppb.Timestamp:
		return TransformTimestamp, 0, nil, nil
	case time.Duration:
		return TransformIntervalDS, 0, nil, nil
	case Lob:
		return lobKind(x), 0, nil, nil
	case *Lob:
		if x == nil {
			return TransformString, 1, nil, nil
		}
		return lobKind(*x), 0, nil, nil
	case *Object:
		if x == nil {
			return TransformString, 1, nil, nil
		}
		return TransformObject, 0, x.ObjectType, nil
	case *Cursor:
		return TransformCursor, 0, nil, nil
	}
	return 0, 0, nil, errors.Wrapf(ErrType, "unsupported Go type %T", value)
}

func lobKind(L Lob) TransformKind {
	if L.IsClob {
		return TransformClob
	}
	return TransformBlob
}

// NewVariableByType allocates a variable from an explicit type specification:
//
//   - an int is a requested string length in characters;
//   - a two-element []interface{} of [type, count] declares a PL/SQL array;
//   - an existing *Variable is returned as-is;
//   - everything else goes through the type tag lookup (TransformKind,
//     DBType, *ObjectType or a reflect.Type of a supported Go type).
func NewVariableByType(cur *Cursor, typeSpec interface{}, numElements uint32) (*Variable, error) {
	if cur == nil || cur.conn == nil {
		return nil, errors.New("cursor is nil")
	}
	switch x := typeSpec.(type) {
	case int:
		return NewVariable(cur.conn, TransformString, numElements, uint32(x), false, nil)
	case []interface{}:
		return newArrayVariableByType(cur, x)
	case *Variable:
		return x, nil
	}
	kind, objType, err := kindFromType(typeSpec)
	if err != nil {
		return nil, err
	}
	return NewVariable(cur.conn, kind, numElements, 0, false, objType)
}

func newArrayVariableByType(cur *Cursor, spec []interface{}) (*Variable, error) {
	if len(spec) != 2 {
		return nil, errors.Wrap(ErrProgramming, "expecting an array of two elements [type, numelems]")
	}
	count, ok := spec[1].(int)
	if !ok || count < 0 {
		return nil, errors.Wrap(ErrProgramming, "expecting an array of two elements [type, numelems]")
	}
	kind, objType, err := kindFromType(spec[0])
	if err != nil {
		return nil, err
	}
	return NewVariable(cur.conn, kind, uint32(count), 0, true, objType)
}

// kindFromType resolves an explicit type tag to a transform.
func kindFromType(typeSpec interface{}) (TransformKind, *ObjectType, error) {
	switch x := typeSpec.(type) {
	case TransformKind:
		if x.transform() == nil {
			return 0, nil, errors.Wrapf(ErrProgramming, "unknown transform kind %d", x)
		}
		return x, nil, nil
	case DBType:
		for k := range transforms {
			t := &transforms[k]
			if t.dbType != "" && t.oracleTyp == x.OracleType && t.natTyp == x.NativeType {
				return TransformKind(k), nil, nil
			}
		}
		return 0, nil, errors.Wrapf(ErrProgramming, "no transform for database type %q", x.Name)
	case *ObjectType:
		return TransformObject, x, nil
	case reflect.Type:
		if kind := kindFromGoType(x); kind != 0 {
			return kind, nil, nil
		}
		return 0, nil, errors.Wrapf(ErrProgramming, "unsupported type %s", x)
	}
	return 0, nil, errors.Wrapf(ErrProgramming, "expecting a type specification, got %T", typeSpec)
}

func kindFromGoType(rt reflect.Type) TransformKind {
	switch rt {
	case reflect.TypeOf(""):
		return TransformString
	case reflect.TypeOf([]byte(nil)):
		return TransformBinary
	case reflect.TypeOf(Number("")):
		return TransformNumber
	case reflect.TypeOf(time.Time{}):
		return TransformDate
	case reflect.TypeOf(time.Duration(0)):
		return TransformIntervalDS
	case reflect.TypeOf(false):
		return TransformBool
	case reflect.TypeOf((*Lob)(nil)):
		return TransformBlob
	case reflect.TypeOf((*Object)(nil)):
		return TransformObject
	case reflect.TypeOf((*Cursor)(nil)):
		return TransformCursor
	}
	switch rt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TransformInt
	case reflect.Float32:
		return TransformNativeFloat
	case reflect.Float64:
		return TransformFloat
	}
	return 0
}
