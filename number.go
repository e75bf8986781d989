// Copyright 2020, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// Number is an Oracle NUMBER as decimal text, kept lossless: the native
// layer exchanges NUMBER values as their textual representation.
type Number string

func (N Number) String() string { return string(N) }

// Validate reports whether the Number is well-formed decimal text
// (optional sign, digits, at most one decimal point, optional e/E exponent).
func (N Number) Validate() error {
	s := string(N)
	if s == "" {
		return errors.Wrap(ErrType, "empty number")
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp := s[i+1:]
		s = s[:i]
		if exp != "" && (exp[0] == '+' || exp[0] == '-') {
			exp = exp[1:]
		}
		if exp == "" {
			return errors.Wrapf(ErrType, "%q: missing exponent", N)
		}
		for _, c := range []byte(exp) {
			if c < '0' || c > '9' {
				return errors.Wrapf(ErrType, "%q: bad character %q in exponent", N, c)
			}
		}
	}
	var digits, dots int
	for _, c := range []byte(s) {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return errors.Wrapf(ErrType, "%q: bad character %q", N, c)
		}
	}
	if digits == 0 {
		return errors.Wrapf(ErrType, "%q: no digit found", N)
	}
	if dots > 1 {
		return errors.Wrapf(ErrType, "%q: too many decimal points", N)
	}
	return nil
}

// Decompose returns the decimal state of the Number in parts, per the
// database/sql decimal interop (golang.org/issue/30870).
func (N Number) Decompose(buf []byte) (form byte, negative bool, coefficient []byte, exponent int32) {
	s := string(N)
	mexp := strings.IndexByte(s, '.')
	if mexp >= 0 {
		s = s[:mexp] + s[mexp+1:]
		exponent = -int32(len(s) - mexp)
	}
	var i big.Int
	if _, ok := i.SetString(s, 10); !ok {
		return 2, false, nil, 0
	}
	switch i.Sign() {
	case 0:
		return 0, false, nil, 0
	case -1:
		negative = true
	}
	return 0, negative, i.FillBytes(buf), exponent
}

// Compose sets the Number from decimal parts.
func (N *Number) Compose(form byte, negative bool, coefficient []byte, exponent int32) error {
	if form != 0 {
		return errors.Wrapf(ErrType, "non-finite form %d is not supported", form)
	}
	var i big.Int
	i.SetBytes(coefficient)
	s := i.String()
	if exponent > 0 {
		s += strings.Repeat("0", int(exponent))
	} else if exponent < 0 {
		exp := int(-exponent)
		if exp >= len(s) {
			s = strings.Repeat("0", exp-len(s)+1) + s
		}
		s = s[:len(s)-exp] + "." + s[len(s)-exp:]
	}
	if negative && s != "0" {
		s = "-" + s
	}
	*N = Number(s)
	return nil
}
