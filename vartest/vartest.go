// Copyright 2021, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

// Package vartest is an in-memory implementation of the varbind native layer
// interfaces, for tests: byte cells enforce their per-element capacity the
// way a real driver buffer does, statements record their binds and can be
// force-closed to exercise the liveness probe, and RETURNING rows can be
// staged per bind position.
package vartest

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/godror/varbind"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// newID returns a fresh handle id.
func newID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Error codes reported by this layer, loosely following the ODPI-C numbers.
const (
	codeBufferTooSmall = 1019
	codeStmtClosed     = 1039
	codeReleased       = 1002
	codeBadElement     = 1015
)

// Conn implements varbind.ConnHandle in memory.
type Conn struct {
	mu       sync.Mutex
	enc      varbind.EncodingInfo
	vars     []*Var
	released bool
}

// NewConn returns a connection reporting AL32UTF8 encodings.
func NewConn() *Conn {
	return &Conn{enc: varbind.EncodingInfo{Encoding: "AL32UTF8", NEncoding: "AL32UTF8"}}
}

func (c *Conn) EncodingInfo() varbind.EncodingInfo { return c.enc }

func (c *Conn) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
	return nil
}

// Vars returns every variable buffer allocated on this connection, in
// creation order, including grown replacements.
func (c *Conn) Vars() []*Var {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Var(nil), c.vars...)
}

// LastVar returns the most recently allocated variable buffer.
func (c *Conn) LastVar() *Var {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.vars) == 0 {
		return nil
	}
	return c.vars[len(c.vars)-1]
}

func (c *Conn) NewVar(typ varbind.OracleTypeNum, natTyp varbind.NativeTypeNum,
	numElements, size uint32, sizeIsBytes, isArray bool,
	objType varbind.ObjectTypeHandle,
) (varbind.VarHandle, []varbind.Data, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil, nil, varbind.NewDriverError(codeReleased, "connection was released")
	}
	if numElements < 1 {
		numElements = 1
	}
	elemSize := size
	if !sizeIsBytes && isCharType(typ) {
		// AL32UTF8: up to 4 bytes per character.
		elemSize = size * 4
	}
	v := &Var{
		id:       newID(),
		typ:      typ,
		natTyp:   natTyp,
		elemSize: elemSize,
		isArray:  isArray,
		data:     make([]varbind.Data, numElements),
		returned: make(map[uint32][]varbind.Data),
	}
	for i := range v.data {
		v.data[i].NativeTypeNum = natTyp
		v.data[i].SetNull()
		if natTyp == varbind.NativeTypeStmt {
			// Real drivers pre-allocate a statement handle per cell of a
			// ref cursor variable; adoption picks it up from there.
			v.data[i].SetStmt(NewStmt(varbind.StmtInfo{}))
		}
	}
	c.vars = append(c.vars, v)
	return v, v.data, nil
}

func isCharType(typ varbind.OracleTypeNum) bool {
	switch typ {
	case varbind.OracleTypeVarchar, varbind.OracleTypeNVarchar,
		varbind.OracleTypeChar, varbind.OracleTypeNChar,
		varbind.OracleTypeLongVarchar, varbind.OracleTypeRowid:
		return true
	}
	return false
}

// Var implements varbind.VarHandle over a Data slice.
type Var struct {
	id         string
	typ        varbind.OracleTypeNum
	natTyp     varbind.NativeTypeNum
	elemSize   uint32
	numInArray uint32
	isArray    bool
	released   bool
	data       []varbind.Data
	returned   map[uint32][]varbind.Data
}

// ID returns the buffer's unique id.
func (v *Var) ID() string { return v.id }

// Released reports whether Release has been called.
func (v *Var) Released() bool { return v.released }

// OracleType returns the Oracle type the buffer was allocated with.
func (v *Var) OracleType() varbind.OracleTypeNum { return v.typ }

func (v *Var) Release() error {
	v.released = true
	return nil
}

func (v *Var) SizeInBytes() (uint32, error) {
	if v.released {
		return 0, varbind.NewDriverError(codeReleased, "variable was released")
	}
	return v.elemSize, nil
}

func (v *Var) cell(pos uint32) (*varbind.Data, error) {
	if v.released {
		return nil, varbind.NewDriverError(codeReleased, "variable was released")
	}
	if pos >= uint32(len(v.data)) {
		return nil, varbind.NewDriverError(codeBadElement,
			fmt.Sprintf("array element %d is out of range", pos))
	}
	return &v.data[pos], nil
}

func (v *Var) SetFromBytes(pos uint32, b []byte) error {
	cell, err := v.cell(pos)
	if err != nil {
		return err
	}
	if uint32(len(b)) > v.elemSize {
		return varbind.NewDriverError(codeBufferTooSmall,
			fmt.Sprintf("buffer size of %d is too small for value of size %d", v.elemSize, len(b)))
	}
	c := make([]byte, len(b))
	copy(c, b)
	cell.SetBytes(c)
	return nil
}

func (v *Var) SetFromLob(pos uint32, lob varbind.LobHandle) error {
	cell, err := v.cell(pos)
	if err != nil {
		return err
	}
	cell.SetLob(lob)
	return nil
}

func (v *Var) SetFromStmt(pos uint32, stmt varbind.StmtHandle) error {
	cell, err := v.cell(pos)
	if err != nil {
		return err
	}
	cell.SetStmt(stmt)
	return nil
}

func (v *Var) SetFromObject(pos uint32, obj varbind.ObjectHandle) error {
	cell, err := v.cell(pos)
	if err != nil {
		return err
	}
	cell.SetObject(obj)
	return nil
}

func (v *Var) NumElements() (uint32, error) {
	if v.released {
		return 0, varbind.NewDriverError(codeReleased, "variable was released")
	}
	if v.isArray {
		return v.numInArray, nil
	}
	return uint32(len(v.data)), nil
}

func (v *Var) SetNumElements(n uint32) error {
	if v.released {
		return varbind.NewDriverError(codeReleased, "variable was released")
	}
	if n > uint32(len(v.data)) {
		return varbind.NewDriverError(codeBadElement,
			fmt.Sprintf("array element count %d exceeds capacity %d", n, len(v.data)))
	}
	v.numInArray = n
	return nil
}

// Cell returns a pointer into the buffer's cell array, nil when pos is out
// of range. Tests use it to inspect or force cell state directly.
func (v *Var) Cell(pos uint32) *varbind.Data {
	if pos >= uint32(len(v.data)) {
		return nil
	}
	return &v.data[pos]
}

// CellStmt returns the statement handle pre-allocated in the cell at pos,
// nil for non-cursor buffers.
func (v *Var) CellStmt(pos uint32) *Stmt {
	c := v.Cell(pos)
	if c == nil {
		return nil
	}
	s, _ := c.GetStmt().(*Stmt)
	return s
}

// StageReturnedRows stages the rows ReturnedData reports for a bind
// position, simulating a DML RETURNING execution.
func (v *Var) StageReturnedRows(pos uint32, rows []varbind.Data) {
	v.returned[pos] = rows
}

func (v *Var) ReturnedData(pos uint32) (uint32, []varbind.Data, error) {
	if v.released {
		return 0, nil, varbind.NewDriverError(codeReleased, "variable was released")
	}
	rows := v.returned[pos]
	return uint32(len(rows)), rows, nil
}

func (v *Var) Copy(targetPos uint32, src varbind.VarHandle, srcPos uint32) error {
	sv, ok := src.(*Var)
	if !ok {
		return varbind.NewDriverError(codeBadElement, "source variable is foreign")
	}
	target, err := v.cell(targetPos)
	if err != nil {
		return err
	}
	source, err := sv.cell(srcPos)
	if err != nil {
		return err
	}
	if source.IsNull() {
		target.SetNull()
		return nil
	}
	if v.natTyp == varbind.NativeTypeBytes {
		return v.SetFromBytes(targetPos, source.GetBytes())
	}
	*target = *source
	return nil
}

// Stmt implements varbind.StmtHandle, recording binds.
type Stmt struct {
	id          string
	info        varbind.StmtInfo
	prefetch    uint32
	refCount    int
	closed      bool
	bindsByName map[string]varbind.VarHandle
	bindsByPos  map[uint32]varbind.VarHandle
}

// NewStmt returns an open statement with a single reference.
func NewStmt(info varbind.StmtInfo) *Stmt {
	return &Stmt{
		id:          newID(),
		info:        info,
		refCount:    1,
		bindsByName: make(map[string]varbind.VarHandle),
		bindsByPos:  make(map[uint32]varbind.VarHandle),
	}
}

// ID returns the statement's unique id.
func (s *Stmt) ID() string { return s.id }

// RefCount returns the current reference count.
func (s *Stmt) RefCount() int { return s.refCount }

// PrefetchRows returns the last value set with SetPrefetchRows.
func (s *Stmt) PrefetchRows() uint32 { return s.prefetch }

// BoundByName returns the variable bound under name, nil if none.
func (s *Stmt) BoundByName(name string) varbind.VarHandle { return s.bindsByName[name] }

// BoundByPos returns the variable bound at pos, nil if none.
func (s *Stmt) BoundByPos(pos uint32) varbind.VarHandle { return s.bindsByPos[pos] }

// ForceClose closes the statement regardless of its reference count,
// simulating an external close. Subsequent calls fail like a real driver's
// would.
func (s *Stmt) ForceClose() { s.closed = true }

func (s *Stmt) checkOpen() error {
	if s.closed {
		return varbind.NewDriverError(codeStmtClosed, "statement was already closed")
	}
	return nil
}

func (s *Stmt) BindByName(name string, v varbind.VarHandle) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.bindsByName[name] = v
	return nil
}

func (s *Stmt) BindByPos(pos uint32, v varbind.VarHandle) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.bindsByPos[pos] = v
	return nil
}

func (s *Stmt) Info() (varbind.StmtInfo, error) {
	if err := s.checkOpen(); err != nil {
		return varbind.StmtInfo{}, err
	}
	return s.info, nil
}

func (s *Stmt) SetPrefetchRows(n uint32) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.prefetch = n
	return nil
}

func (s *Stmt) AddRef() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.refCount++
	return nil
}

func (s *Stmt) Release() error {
	if s.refCount > 0 {
		s.refCount--
	}
	if s.refCount == 0 {
		s.closed = true
	}
	return nil
}

// Lob implements varbind.LobHandle over a byte slice.
type Lob struct {
	id       string
	b        []byte
	refCount int
	IsClob   bool
}

// NewLob returns a LOB holding b with a single reference.
func NewLob(b []byte, isClob bool) *Lob {
	return &Lob{id: newID(), b: b, refCount: 1, IsClob: isClob}
}

// ID returns the LOB's unique id.
func (L *Lob) ID() string { return L.id }

// RefCount returns the current reference count.
func (L *Lob) RefCount() int { return L.refCount }

func (L *Lob) AddRef() error {
	if L.refCount < 1 {
		return varbind.NewDriverError(codeReleased, "LOB was released")
	}
	L.refCount++
	return nil
}

func (L *Lob) Release() error {
	if L.refCount > 0 {
		L.refCount--
	}
	return nil
}

func (L *Lob) Size() (uint64, error) {
	if L.refCount < 1 {
		return 0, varbind.NewDriverError(codeReleased, "LOB was released")
	}
	return uint64(len(L.b)), nil
}

func (L *Lob) ReadAt(p []byte, off uint64) (int, error) {
	if L.refCount < 1 {
		return 0, varbind.NewDriverError(codeReleased, "LOB was released")
	}
	if off >= uint64(len(L.b)) {
		return 0, nil
	}
	return copy(p, L.b[off:]), nil
}

// ObjectType implements varbind.ObjectTypeHandle.
type ObjectType struct {
	name     string
	refCount int
}

// NewObjectType returns a named object type with a single reference.
func NewObjectType(name string) *ObjectType {
	return &ObjectType{name: name, refCount: 1}
}

// RefCount returns the current reference count.
func (t *ObjectType) RefCount() int { return t.refCount }

func (t *ObjectType) Name() string { return t.name }

func (t *ObjectType) AddRef() error {
	if t.refCount < 1 {
		return varbind.NewDriverError(codeReleased, "object type was released")
	}
	t.refCount++
	return nil
}

func (t *ObjectType) Release() error {
	if t.refCount > 0 {
		t.refCount--
	}
	return nil
}

// Object implements varbind.ObjectHandle.
type Object struct {
	typ      *ObjectType
	refCount int
}

// NewObject returns an instance of typ with a single reference.
func NewObject(typ *ObjectType) *Object {
	return &Object{typ: typ, refCount: 1}
}

// RefCount returns the current reference count.
func (o *Object) RefCount() int { return o.refCount }

func (o *Object) ObjectType() varbind.ObjectTypeHandle { return o.typ }

func (o *Object) AddRef() error {
	if o.refCount < 1 {
		return varbind.NewDriverError(codeReleased, "object was released")
	}
	o.refCount++
	return nil
}

func (o *Object) Release() error {
	if o.refCount > 0 {
		o.refCount--
	}
	return nil
}

// Interface conformance.
var (
	_ varbind.ConnHandle       = (*Conn)(nil)
	_ varbind.VarHandle        = (*Var)(nil)
	_ varbind.StmtHandle       = (*Stmt)(nil)
	_ varbind.LobHandle        = (*Lob)(nil)
	_ varbind.ObjectTypeHandle = (*ObjectType)(nil)
	_ varbind.ObjectHandle     = (*Object)(nil)
)
