// Copyright 2019, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"github.com/pkg/errors"
)

// Bind attaches the variable to a statement parameter, by name when name is
// not empty, else by position. A failed native bind leaves nothing bound.
//
// When the statement is a DML RETURNING one and no value has been set yet,
// the variable switches to returned-data mode: reads pull the rows produced
// by execution instead of the static buffer.
func (v *Variable) Bind(cur *Cursor, name string, pos uint32) error {
	if cur == nil || cur.stmt == nil {
		return errors.New("cursor has no statement")
	}
	if lgr := getLogger(nil); lgr != nil {
		lgr.Debug("bind", "name", name, "pos", pos, "kind", v.kind.String())
	}
	if name != "" {
		if err := cur.stmt.BindByName(name, v.handle); err != nil {
			return errors.Wrapf(err, "bindByName(%q)", name)
		}
	} else {
		if err := cur.stmt.BindByPos(pos, v.handle); err != nil {
			return errors.Wrapf(err, "bindByPos(%d)", pos)
		}
	}
	if cur.info.IsReturning && !v.isValueSet {
		v.getReturnedData = true
	}
	return nil
}
