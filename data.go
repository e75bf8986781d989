// Copyright 2017, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"fmt"
	"time"
)

// Data is one native buffer cell. The cell array backing a variable is owned
// by the native layer and handed out by ConnHandle.NewVar; a Data value holds
// either a scalar, a byte payload or a reference-counted handle, as selected
// by NativeTypeNum.
type Data struct {
	NativeTypeNum NativeTypeNum

	isNull bool
	b      []byte
	i64    int64
	u64    uint64
	f32    float32
	f64    float64
	t      time.Time
	dur    time.Duration
	boolV  bool
	lob    LobHandle
	obj    ObjectHandle
	stmt   StmtHandle
}

// IsNull reports whether the cell holds SQL NULL.
func (d *Data) IsNull() bool { return d.isNull }

// SetNull marks the cell NULL and drops any held value.
func (d *Data) SetNull() { *d = Data{NativeTypeNum: d.NativeTypeNum, isNull: true} }

func (d *Data) GetBool() bool { return d.boolV }
func (d *Data) SetBool(b bool) {
	d.isNull, d.boolV = false, b
}

func (d *Data) GetBytes() []byte {
	if d.isNull {
		return nil
	}
	return d.b
}
func (d *Data) SetBytes(b []byte) {
	if b == nil {
		d.isNull = true
		return
	}
	d.isNull, d.b = false, b
}

func (d *Data) GetFloat32() float32     { return d.f32 }
func (d *Data) SetFloat32(f float32)    { d.isNull, d.f32 = false, f }
func (d *Data) GetFloat64() float64     { return d.f64 }
func (d *Data) SetFloat64(f float64)    { d.isNull, d.f64 = false, f }
func (d *Data) GetInt64() int64         { return d.i64 }
func (d *Data) SetInt64(i int64)        { d.isNull, d.i64 = false, i }
func (d *Data) GetUint64() uint64       { return d.u64 }
func (d *Data) SetUint64(u uint64)      { d.isNull, d.u64 = false, u }
func (d *Data) GetIntervalDS() time.Duration { return d.dur }
func (d *Data) SetIntervalDS(dur time.Duration) {
	d.isNull, d.dur = false, dur
}

func (d *Data) GetTime() time.Time { return d.t }
func (d *Data) SetTime(t time.Time) {
	d.isNull, d.t = false, t
}

func (d *Data) GetLob() LobHandle { return d.lob }
func (d *Data) SetLob(lob LobHandle) {
	d.isNull, d.lob = lob == nil, lob
}

func (d *Data) GetObject() ObjectHandle { return d.obj }
func (d *Data) SetObject(o ObjectHandle) {
	d.isNull, d.obj = o == nil, o
}

func (d *Data) GetStmt() StmtHandle { return d.stmt }
func (d *Data) SetStmt(s StmtHandle) {
	d.isNull, d.stmt = s == nil, s
}

// Get returns the held value as an interface, nil for NULL.
func (d *Data) Get() interface{} {
	if d.isNull {
		return nil
	}
	switch d.NativeTypeNum {
	case NativeTypeBoolean:
		return d.GetBool()
	case NativeTypeBytes:
		return d.GetBytes()
	case NativeTypeDouble:
		return d.GetFloat64()
	case NativeTypeFloat:
		return d.GetFloat32()
	case NativeTypeInt64:
		return d.GetInt64()
	case NativeTypeUint64:
		return d.GetUint64()
	case NativeTypeIntervalDS:
		return d.GetIntervalDS()
	case NativeTypeLob:
		return d.GetLob()
	case NativeTypeObject:
		return d.GetObject()
	case NativeTypeStmt:
		return d.GetStmt()
	case NativeTypeTimestamp:
		return d.GetTime()
	default:
		panic(fmt.Sprintf("unknown NativeTypeNum=%d", d.NativeTypeNum))
	}
}
