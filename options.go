// Copyright 2019, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind

import (
	"sort"
	"strconv"
	"strings"

	"github.com/go-logfmt/logfmt"
	"github.com/pkg/errors"
)

const (
	// DefaultEncoding is used when the native layer reports no character set.
	DefaultEncoding = "AL32UTF8"
	// DefaultMaxArraySize caps the element count of a single variable.
	DefaultMaxArraySize = 32767
	// DefaultPrefetchRows is propagated to adopted ref cursors.
	DefaultPrefetchRows = 2
)

// Options tune the engine per connection. The zero value gets the defaults
// applied by NewConn.
type Options struct {
	// Encoding and NEncoding name the character sets used for CHAR and
	// NCHAR data respectively.
	Encoding, NEncoding string
	// EncodingErrors selects the string-decode error policy: "" fails on
	// invalid byte sequences, "replace" substitutes U+FFFD.
	EncodingErrors string
	MaxArraySize   uint32
	PrefetchRows   uint32
}

func (o *Options) applyDefaults() {
	if o.Encoding == "" {
		o.Encoding = DefaultEncoding
	}
	if o.NEncoding == "" {
		o.NEncoding = o.Encoding
	}
	if o.MaxArraySize == 0 {
		o.MaxArraySize = DefaultMaxArraySize
	}
	if o.PrefetchRows == 0 {
		o.PrefetchRows = DefaultPrefetchRows
	}
}

// ParseOptions parses a logfmt-encoded options record, such as
//
//	encoding=AL32UTF8 encodingErrors=replace maxArraySize=1024
func ParseOptions(s string) (Options, error) {
	var o Options
	d := logfmt.NewDecoder(strings.NewReader(s))
	for d.ScanRecord() {
		for d.ScanKeyval() {
			key, value := string(d.Key()), string(d.Value())
			switch key {
			case "encoding":
				o.Encoding = value
			case "nencoding":
				o.NEncoding = value
			case "encodingErrors":
				o.EncodingErrors = value
			case "maxArraySize", "prefetchRows":
				n, err := strconv.ParseUint(value, 10, 32)
				if err != nil {
					return o, errors.Wrapf(ErrProgramming, "%s=%q: %v", key, value, err)
				}
				if key == "maxArraySize" {
					o.MaxArraySize = uint32(n)
				} else {
					o.PrefetchRows = uint32(n)
				}
			default:
				return o, errors.Wrapf(ErrProgramming, "unknown option %q", key)
			}
		}
	}
	if err := d.Err(); err != nil {
		return o, errors.Wrapf(ErrProgramming, "parsing options %q: %v", s, err)
	}
	o.applyDefaults()
	return o, nil
}

// String returns the options as a logfmt record with sorted keys.
func (o Options) String() string {
	values := map[string]string{
		"encoding":     o.Encoding,
		"nencoding":    o.NEncoding,
		"maxArraySize": strconv.FormatUint(uint64(o.MaxArraySize), 10),
		"prefetchRows": strconv.FormatUint(uint64(o.PrefetchRows), 10),
	}
	if o.EncodingErrors != "" {
		values["encodingErrors"] = o.EncodingErrors
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	enc := logfmt.NewEncoder(&buf)
	var firstErr error
	for _, k := range keys {
		if err := enc.EncodeKeyval(k, values[k]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := enc.EndRecord(); err != nil && firstErr == nil {
		firstErr = err
	}
	s := buf.String()
	if firstErr != nil {
		return s + "\tERROR: " + firstErr.Error()
	}
	return strings.TrimSuffix(s, "\n")
}
