// Copyright 2017, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"github.com/pkg/errors"
)

// ObjectType is a shared descriptor of a named database object type. A
// Variable created with it keeps its own reference for its whole lifetime.
type ObjectType struct {
	handle ObjectTypeHandle
}

// NewObjectType wraps the given handle. The ObjectType takes over the
// caller's reference.
func NewObjectType(handle ObjectTypeHandle) *ObjectType {
	return &ObjectType{handle: handle}
}

// Name returns the database name of the object type.
func (t *ObjectType) Name() string {
	if t == nil || t.handle == nil {
		return ""
	}
	return t.handle.Name()
}

// Handle returns the underlying native handle.
func (t *ObjectType) Handle() ObjectTypeHandle { return t.handle }

// Close drops the descriptor's reference on the native handle.
func (t *ObjectType) Close() error {
	if t == nil || t.handle == nil {
		return nil
	}
	handle := t.handle
	t.handle = nil
	if err := handle.Release(); err != nil {
		return errors.Wrap(err, "objectType.Release")
	}
	return nil
}

// Object is a host value wrapping a reference-counted object instance.
// An Object decoded out of a variable holds its own reference; Close
// releases it.
type Object struct {
	handle ObjectHandle
	*ObjectType
}

// NewObject wraps the given handle. The Object takes over the caller's
// reference.
func NewObject(handle ObjectHandle, typ *ObjectType) *Object {
	return &Object{handle: handle, ObjectType: typ}
}

// Handle returns the underlying native handle.
func (O *Object) Handle() ObjectHandle { return O.handle }

// Close drops the Object's reference on the native handle. It is idempotent.
func (O *Object) Close() error {
	if O == nil || O.handle == nil {
		return nil
	}
	handle := O.handle
	O.handle = nil
	if err := handle.Release(); err != nil {
		return errors.Wrap(err, "object.Release")
	}
	return nil
}
