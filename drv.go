// Copyright 2021, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

// Package varbind implements the bind-variable marshalling engine for an
// Oracle-style database driver: a Variable represents one typed, possibly
// array-valued parameter/result slot and converts values between Go objects
// and the native buffer representation the driver expects.
//
// The low-level native layer (buffer allocation, bind calls, wire protocol)
// is not implemented here: it is consumed through the handle interfaces below,
// the same way database/sql/driver abstracts over concrete drivers. The
// vartest subpackage provides an in-memory implementation for tests.
package varbind

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Version of this package
const Version = "v0.4.1"

// Error kinds of the engine. Native-call failures are reported as
// *DriverError instead; everything else wraps one of these sentinels,
// so callers classify with errors.Is.
var (
	// ErrAllocation is returned when a native buffer or handle cannot be created.
	ErrAllocation = errors.New("allocation failed")
	// ErrType is returned when a Go value has the wrong shape for the requested operation.
	ErrType = errors.New("wrong type")
	// ErrProgramming is returned for malformed type specifications and mismatched copies.
	ErrProgramming = errors.New("programming error")
	// ErrNotSupported is returned for operations the database cannot do (nested arrays).
	ErrNotSupported = errors.New("not supported")
	// ErrIndex is returned for positions beyond the allocated or actual element count.
	ErrIndex = errors.New("array size exceeded")
)

// OracleTypeNum identifies the Oracle-visible type of a variable.
type OracleTypeNum uint32

// NativeTypeNum identifies the native (buffer cell) representation.
type NativeTypeNum uint32

// Native type numbers, mirroring the ODPI-C set.
const (
	NativeTypeInt64 = NativeTypeNum(iota + 3000)
	NativeTypeUint64
	NativeTypeFloat
	NativeTypeDouble
	NativeTypeBytes
	NativeTypeTimestamp
	NativeTypeIntervalDS
	NativeTypeLob
	NativeTypeObject
	NativeTypeStmt
	NativeTypeBoolean
)

// Oracle type numbers, mirroring the ODPI-C set.
const (
	OracleTypeVarchar = OracleTypeNum(iota + 2001)
	OracleTypeNVarchar
	OracleTypeChar
	OracleTypeNChar
	OracleTypeRowid
	OracleTypeRaw
	OracleTypeNativeFloat
	OracleTypeNativeDouble
	OracleTypeNativeInt
	OracleTypeNumber
	OracleTypeDate
	OracleTypeTimestamp
	OracleTypeTimestampTZ
	OracleTypeTimestampLTZ
	OracleTypeIntervalDS
	OracleTypeClob
	OracleTypeNClob
	OracleTypeBlob
	OracleTypeBfile
	OracleTypeStmt
	OracleTypeBoolean
	OracleTypeObject
	OracleTypeLongVarchar
	OracleTypeLongRaw
)

// EncodingInfo describes the connection's character sets.
type EncodingInfo struct {
	Encoding, NEncoding string
}

// ConnHandle is the subset of the native connection surface the engine needs.
type ConnHandle interface {
	// NewVar allocates a native buffer for numElements cells of the given
	// type, sized size per element (bytes when sizeIsBytes, else characters).
	// It returns the variable handle and the driver-owned cell array.
	NewVar(typ OracleTypeNum, natTyp NativeTypeNum, numElements, size uint32,
		sizeIsBytes, isArray bool, objType ObjectTypeHandle) (VarHandle, []Data, error)
	EncodingInfo() EncodingInfo
	Release() error
}

// VarHandle is a native variable buffer. It is exclusively owned by the
// Variable that allocated it and must be released exactly once.
type VarHandle interface {
	Release() error
	// SizeInBytes reports the actual per-element byte capacity, which may
	// exceed the requested size due to native alignment or padding.
	SizeInBytes() (uint32, error)
	// SetFromBytes copies b into the cell at pos. It fails when len(b)
	// exceeds the buffer's per-element capacity.
	SetFromBytes(pos uint32, b []byte) error
	SetFromLob(pos uint32, lob LobHandle) error
	SetFromStmt(pos uint32, stmt StmtHandle) error
	SetFromObject(pos uint32, obj ObjectHandle) error
	// NumElements reports the actual element count of an array variable.
	NumElements() (uint32, error)
	SetNumElements(n uint32) error
	// ReturnedData reports the rows produced by a DML RETURNING execution
	// for the given bind position.
	ReturnedData(pos uint32) (uint32, []Data, error)
	// Copy copies the cell at srcPos of src into the cell at targetPos.
	Copy(targetPos uint32, src VarHandle, srcPos uint32) error
}

// StmtInfo is the statement metadata the engine consults.
type StmtInfo struct {
	IsReturning bool
	IsPLSQL     bool
}

// StmtHandle is a native statement. Info doubles as the liveness probe used
// when adopting a ref cursor handle out of a buffer cell.
type StmtHandle interface {
	BindByName(name string, v VarHandle) error
	BindByPos(pos uint32, v VarHandle) error
	Info() (StmtInfo, error)
	SetPrefetchRows(n uint32) error
	AddRef() error
	Release() error
}

// LobHandle is a reference-counted large object handle.
type LobHandle interface {
	AddRef() error
	Release() error
	Size() (uint64, error)
	ReadAt(p []byte, off uint64) (int, error)
}

// ObjectTypeHandle is a reference-counted named object type handle.
type ObjectTypeHandle interface {
	AddRef() error
	Release() error
	Name() string
}

// ObjectHandle is a reference-counted object instance handle.
type ObjectHandle interface {
	AddRef() error
	Release() error
	ObjectType() ObjectTypeHandle
}

// DriverError is a native-call failure, carrying the driver's code and
// message verbatim.
type DriverError struct {
	message string
	code    int
}

// NewDriverError returns a DriverError with the given code and message.
// Native layer implementations use it to report failures.
func NewDriverError(code int, message string) *DriverError {
	return &DriverError{code: code, message: message}
}

// Code returns the driver error code.
func (de *DriverError) Code() int { return de.code }

// Message returns the driver error message.
func (de *DriverError) Message() string { return de.message }

func (de *DriverError) Error() string {
	msg := de.Message()
	if de.code == 0 && msg == "" {
		return ""
	}
	prefix := fmt.Sprintf("ORA-%05d: ", de.code)
	if strings.HasPrefix(msg, prefix) {
		return msg
	}
	return prefix + msg
}
