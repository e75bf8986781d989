// Copyright 2019, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/godror/knownpb/timestamppb"
	"github.com/pkg/errors"
)

// TransformKind selects the semantic type of a Variable: which Oracle type it
// reports, which native representation backs its cells, and the encode/decode
// pair applied on writes and reads. The dispatch is resolved once, when the
// Variable is created.
type TransformKind uint8

const (
	TransformString = TransformKind(iota + 1)
	TransformNString
	TransformFixedChar
	TransformFixedNChar
	TransformRowid
	TransformBinary
	TransformLongString
	TransformLongBinary
	TransformInt
	TransformFloat
	TransformNativeInt
	TransformNativeFloat
	TransformNativeDouble
	TransformNumber
	TransformBool
	TransformDate
	TransformTimestamp
	TransformTimestampLTZ
	TransformIntervalDS
	TransformClob
	TransformNClob
	TransformBlob
	TransformBfile
	TransformObject
	TransformCursor
)

func (k TransformKind) String() string {
	if t := k.transform(); t != nil {
		return t.dbType
	}
	return "TransformKind(" + strconv.Itoa(int(k)) + ")"
}

// DBType is the database type tag a Variable reports for its transform.
type DBType struct {
	Name       string
	OracleType OracleTypeNum
	NativeType NativeTypeNum
}

// encodeFunc turns a Go value into the native cell representation. A non-nil
// byte slice result means the payload is byte-sized and must be committed
// through the buffer-growth protocol instead of directly.
type encodeFunc func(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error)

// decodeFunc turns a non-NULL native cell into a Go value.
type decodeFunc func(v *Variable, data *Data) (interface{}, error)

type transform struct {
	dbType      string
	oracleTyp   OracleTypeNum
	natTyp      NativeTypeNum
	defaultSize uint32
	encode      encodeFunc
	decode      decodeFunc
}

// maxVarCharSize is the limit beyond which character/raw data must use the
// LONG transforms outside of PL/SQL.
const maxVarCharSize = 4000

var transforms = [...]transform{
	TransformString:     {dbType: "VARCHAR2", oracleTyp: OracleTypeVarchar, natTyp: NativeTypeBytes, defaultSize: maxVarCharSize, encode: encodeText, decode: decodeString},
	TransformNString:    {dbType: "NVARCHAR2", oracleTyp: OracleTypeNVarchar, natTyp: NativeTypeBytes, defaultSize: maxVarCharSize, encode: encodeText, decode: decodeString},
	TransformFixedChar:  {dbType: "CHAR", oracleTyp: OracleTypeChar, natTyp: NativeTypeBytes, defaultSize: 2000, encode: encodeText, decode: decodeString},
	TransformFixedNChar: {dbType: "NCHAR", oracleTyp: OracleTypeNChar, natTyp: NativeTypeBytes, defaultSize: 2000, encode: encodeText, decode: decodeString},
	TransformRowid:      {dbType: "ROWID", oracleTyp: OracleTypeRowid, natTyp: NativeTypeBytes, defaultSize: 18, encode: encodeText, decode: decodeString},
	TransformBinary:     {dbType: "RAW", oracleTyp: OracleTypeRaw, natTyp: NativeTypeBytes, defaultSize: maxVarCharSize, encode: encodeRaw, decode: decodeBytes},
	TransformLongString: {dbType: "LONG", oracleTyp: OracleTypeLongVarchar, natTyp: NativeTypeBytes, defaultSize: 128 * 1024, encode: encodeText, decode: decodeString},
	TransformLongBinary: {dbType: "LONG RAW", oracleTyp: OracleTypeLongRaw, natTyp: NativeTypeBytes, defaultSize: 128 * 1024, encode: encodeRaw, decode: decodeBytes},

	TransformInt:          {dbType: "NUMBER", oracleTyp: OracleTypeNumber, natTyp: NativeTypeInt64, encode: encodeInt64, decode: decodeInt64},
	TransformFloat:        {dbType: "NUMBER", oracleTyp: OracleTypeNumber, natTyp: NativeTypeDouble, encode: encodeFloat64, decode: decodeFloat64},
	TransformNativeInt:    {dbType: "BINARY_INTEGER", oracleTyp: OracleTypeNativeInt, natTyp: NativeTypeInt64, encode: encodeInt64, decode: decodeInt64},
	TransformNativeFloat:  {dbType: "BINARY_FLOAT", oracleTyp: OracleTypeNativeFloat, natTyp: NativeTypeFloat, encode: encodeFloat32, decode: decodeFloat32},
	TransformNativeDouble: {dbType: "BINARY_DOUBLE", oracleTyp: OracleTypeNativeDouble, natTyp: NativeTypeDouble, encode: encodeFloat64, decode: decodeFloat64},
	TransformNumber:       {dbType: "NUMBER", oracleTyp: OracleTypeNumber, natTyp: NativeTypeBytes, defaultSize: 40, encode: encodeNumber, decode: decodeNumber},
	TransformBool:         {dbType: "BOOLEAN", oracleTyp: OracleTypeBoolean, natTyp: NativeTypeBoolean, encode: encodeBool, decode: decodeBool},

	TransformDate:         {dbType: "DATE", oracleTyp: OracleTypeDate, natTyp: NativeTypeTimestamp, encode: encodeTime, decode: decodeTime},
	TransformTimestamp:    {dbType: "TIMESTAMP", oracleTyp: OracleTypeTimestamp, natTyp: NativeTypeTimestamp, encode: encodeTime, decode: decodeTime},
	TransformTimestampLTZ: {dbType: "TIMESTAMP WITH LOCAL TIME ZONE", oracleTyp: OracleTypeTimestampLTZ, natTyp: NativeTypeTimestamp, encode: encodeTime, decode: decodeTime},
	TransformIntervalDS:   {dbType: "INTERVAL DAY TO SECOND", oracleTyp: OracleTypeIntervalDS, natTyp: NativeTypeIntervalDS, encode: encodeIntervalDS, decode: decodeIntervalDS},

	TransformClob:   {dbType: "CLOB", oracleTyp: OracleTypeClob, natTyp: NativeTypeLob, encode: encodeLob, decode: decodeLob},
	TransformNClob:  {dbType: "NCLOB", oracleTyp: OracleTypeNClob, natTyp: NativeTypeLob, encode: encodeLob, decode: decodeLob},
	TransformBlob:   {dbType: "BLOB", oracleTyp: OracleTypeBlob, natTyp: NativeTypeLob, encode: encodeLob, decode: decodeLob},
	TransformBfile:  {dbType: "BFILE", oracleTyp: OracleTypeBfile, natTyp: NativeTypeLob, encode: encodeLob, decode: decodeLob},
	TransformObject: {dbType: "OBJECT", oracleTyp: OracleTypeObject, natTyp: NativeTypeObject, encode: encodeObject, decode: decodeObject},
	TransformCursor: {dbType: "REF CURSOR", oracleTyp: OracleTypeStmt, natTyp: NativeTypeStmt, decode: decodeStmt},
}

func (k TransformKind) transform() *transform {
	if k == 0 || int(k) >= len(transforms) {
		return nil
	}
	t := &transforms[k]
	if t.dbType == "" {
		return nil
	}
	return t
}

// isLobKind reports whether decoded values of k wrap a LobHandle.
func (k TransformKind) isLobKind() bool {
	switch k {
	case TransformClob, TransformNClob, TransformBlob, TransformBfile:
		return true
	}
	return false
}

func encodeText(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error) {
	switch x := value.(type) {
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case Number:
		return []byte(x), nil
	}
	return nil, errors.Wrapf(ErrType, "expecting string, got %T", value)
}

func encodeRaw(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error) {
	switch x := value.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	}
	return nil, errors.Wrapf(ErrType, "expecting bytes, got %T", value)
}

func encodeInt64(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error) {
	switch x := value.(type) {
	case int:
		data.SetInt64(int64(x))
	case int8:
		data.SetInt64(int64(x))
	case int16:
		data.SetInt64(int64(x))
	case int32:
		data.SetInt64(int64(x))
	case int64:
		data.SetInt64(x)
	case uint:
		data.SetUint64(uint64(x))
	case uint8:
		data.SetUint64(uint64(x))
	case uint16:
		data.SetUint64(uint64(x))
	case uint32:
		data.SetUint64(uint64(x))
	case uint64:
		data.SetUint64(x)
	default:
		return nil, errors.Wrapf(ErrType, "expecting integer, got %T", value)
	}
	return nil, nil
}

func encodeFloat32(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error) {
	switch x := value.(type) {
	case float32:
		data.SetFloat32(x)
	case float64:
		data.SetFloat32(float32(x))
	default:
		return nil, errors.Wrapf(ErrType, "expecting float, got %T", value)
	}
	return nil, nil
}

func encodeFloat64(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error) {
	switch x := value.(type) {
	case float64:
		data.SetFloat64(x)
	case float32:
		data.SetFloat64(float64(x))
	case int:
		data.SetFloat64(float64(x))
	case int64:
		data.SetFloat64(float64(x))
	default:
		return nil, errors.Wrapf(ErrType, "expecting float, got %T", value)
	}
	return nil, nil
}

// encodeNumber renders the value as Oracle decimal text, which travels as a
// byte payload (so it participates in buffer growth).
func encodeNumber(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error) {
	var s string
	switch x := value.(type) {
	case Number:
		s = string(x)
	case string:
		s = x
	case int:
		s = strconv.FormatInt(int64(x), 10)
	case int32:
		s = strconv.FormatInt(int64(x), 10)
	case int64:
		s = strconv.FormatInt(x, 10)
	case uint:
		s = strconv.FormatUint(uint64(x), 10)
	case uint64:
		s = strconv.FormatUint(x, 10)
	case float32:
		s = strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return nil, errors.Wrapf(ErrType, "expecting number, got %T", value)
	}
	if err := Number(s).Validate(); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func encodeBool(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, errors.Wrapf(ErrType, "expecting bool, got %T", value)
	}
	data.SetBool(b)
	return nil, nil
}

func encodeTime(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error) {
	switch x := value.(type) {
	case time.Time:
		if x.IsZero() {
			data.SetNull()
			return nil, nil
		}
		data.SetTime(x)
	case *timestamppb.Timestamp:
		if x == nil {
			data.SetNull()
			return nil, nil
		}
		data.SetTime(x.AsTime())
	default:
		return nil, errors.Wrapf(ErrType, "expecting time.Time, got %T", value)
	}
	return nil, nil
}

func encodeIntervalDS(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error) {
	dur, ok := value.(time.Duration)
	if !ok {
		return nil, errors.Wrapf(ErrType, "expecting time.Duration, got %T", value)
	}
	data.SetIntervalDS(dur)
	return nil, nil
}

func encodeLob(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error) {
	var h LobHandle
	switch x := value.(type) {
	case *Lob:
		h = x.handle
	case Lob:
		h = x.handle
	case LobHandle:
		h = x
	default:
		return nil, errors.Wrapf(ErrType, "expecting Lob, got %T", value)
	}
	if h == nil {
		data.SetNull()
		return nil, nil
	}
	if err := v.handle.SetFromLob(pos, h); err != nil {
		return nil, errors.Wrap(err, "setFromLob")
	}
	return nil, nil
}

func encodeObject(v *Variable, pos uint32, data *Data, value interface{}) ([]byte, error) {
	o, ok := value.(*Object)
	if !ok {
		return nil, errors.Wrapf(ErrType, "expecting Object, got %T", value)
	}
	if o == nil || o.handle == nil {
		data.SetNull()
		return nil, nil
	}
	if err := v.handle.SetFromObject(pos, o.handle); err != nil {
		return nil, errors.Wrap(err, "setFromObject")
	}
	return nil, nil
}

func decodeString(v *Variable, data *Data) (interface{}, error) {
	b := data.GetBytes()
	if utf8.Valid(b) {
		return internBytes(b), nil
	}
	enc := "UTF-8"
	if v.conn != nil {
		enc = v.conn.handle.EncodingInfo().Encoding
	}
	if v.encodingErrors == "replace" {
		return strings.ToValidUTF8(string(b), "�"), nil
	}
	return nil, errors.Wrapf(ErrType, "invalid %s byte sequence", enc)
}

func decodeBytes(v *Variable, data *Data) (interface{}, error) {
	// The cell may be reused or released while the decoded value is alive.
	b := data.GetBytes()
	c := make([]byte, len(b))
	copy(c, b)
	return c, nil
}

func decodeInt64(v *Variable, data *Data) (interface{}, error)   { return data.GetInt64(), nil }
func decodeFloat32(v *Variable, data *Data) (interface{}, error) { return data.GetFloat32(), nil }
func decodeFloat64(v *Variable, data *Data) (interface{}, error) { return data.GetFloat64(), nil }
func decodeBool(v *Variable, data *Data) (interface{}, error)    { return data.GetBool(), nil }
func decodeTime(v *Variable, data *Data) (interface{}, error)    { return data.GetTime(), nil }

func decodeIntervalDS(v *Variable, data *Data) (interface{}, error) {
	return data.GetIntervalDS(), nil
}

func decodeNumber(v *Variable, data *Data) (interface{}, error) {
	return internNumberBytes(data.GetBytes()), nil
}

func decodeLob(v *Variable, data *Data) (interface{}, error) {
	h := data.GetLob()
	if h == nil {
		return nil, nil
	}
	isClob := v.kind == TransformClob || v.kind == TransformNClob
	return &Lob{handle: h, IsClob: isClob}, nil
}

func decodeObject(v *Variable, data *Data) (interface{}, error) {
	h := data.GetObject()
	if h == nil {
		return nil, nil
	}
	ot := v.objectType
	if ot == nil {
		// The synthesized descriptor owns its own reference, so its Close
		// pairs with a decrement that belongs to it.
		th := h.ObjectType()
		if err := th.AddRef(); err != nil {
			return nil, errors.Wrap(err, "objectType.AddRef")
		}
		ot = &ObjectType{handle: th}
	}
	return &Object{handle: h, ObjectType: ot}, nil
}

func decodeStmt(v *Variable, data *Data) (interface{}, error) {
	st := data.GetStmt()
	if st == nil {
		return nil, nil
	}
	cur := &Cursor{conn: v.conn, stmt: st, fixupRefCursor: true}
	if v.conn != nil {
		cur.PrefetchRows = v.conn.params.PrefetchRows
	}
	return cur, nil
}
