// Copyright 2020, 2024 The Godror Authors
//
//
// SPDX-License-Identifier: UPL-1.0 OR Apache-2.0

package varbind_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/go-logfmt/logfmt"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	varbind "github.com/godror/varbind"
	"github.com/godror/varbind/vartest"
)

var (
	tl      = &testLogger{}
	logger  *slog.Logger
	Verbose bool
)

// TestMain is called instead of the separate Test functions,
// to allow setup and teardown.
func TestMain(m *testing.M) {
	Verbose, _ = strconv.ParseBool(os.Getenv("VERBOSE"))
	if Verbose {
		tl.enc = logfmt.NewEncoder(os.Stderr)
		logger = slog.New(slog.NewTextHandler(tl, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewTextHandler(tl, nil))
	}
	varbind.SetLogger(logger)
	os.Exit(m.Run())
}

// newTestConn returns an engine connection over a fresh in-memory native
// layer, with the native side exposed for inspection.
func newTestConn(t *testing.T, params varbind.Options) (*varbind.Conn, *vartest.Conn) {
	t.Helper()
	tc := vartest.NewConn()
	conn := varbind.NewConn(tc, params)
	t.Cleanup(func() { conn.Close() })
	return conn, tc
}

func TestConcurrentNewVariable(t *testing.T) {
	conn, _ := newTestConn(t, varbind.Options{})
	grp, _ := errgroup.WithContext(context.Background())
	grp.SetLimit(8)
	for i := 0; i < 64; i++ {
		i := i
		grp.Go(func() error {
			v, err := varbind.NewVariable(conn, varbind.TransformString, 4, 32, false, nil)
			if err != nil {
				return fmt.Errorf("%d. %w", i, err)
			}
			defer v.Release()
			if err = v.SetValue(uint32(i%4), fmt.Sprintf("value-%d", i)); err != nil {
				return fmt.Errorf("%d. set: %w", i, err)
			}
			got, err := v.GetValue(uint32(i % 4))
			if err != nil {
				return fmt.Errorf("%d. get: %w", i, err)
			}
			if want := fmt.Sprintf("value-%d", i); got != want {
				return fmt.Errorf("%d. got %q, wanted %q", i, got, want)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		t.Fatal(err)
	}
}

type testLogger struct {
	enc *logfmt.Encoder
	Ts  []*testing.T
	mu  sync.RWMutex
}

func (tl *testLogger) Write(p []byte) (int, error) {
	tl.mu.RLock()
	Ts := tl.Ts
	tl.mu.RUnlock()
	if len(Ts) == 0 {
		if tl.enc != nil {
			fmt.Print(string(p))
		}
		return len(p), nil
	}
	s := string(p)
	for _, t := range Ts {
		t.Helper()
		t.Log(s)
	}
	return len(p), nil
}

func (tl *testLogger) enableLogging(t *testing.T) {
	tl.mu.Lock()
	tl.Ts = append(tl.Ts, t)
	tl.mu.Unlock()
	t.Cleanup(func() {
		tl.mu.Lock()
		defer tl.mu.Unlock()
		for i, F := range tl.Ts {
			if F == t {
				tl.Ts = append(tl.Ts[:i], tl.Ts[i+1:]...)
				break
			}
		}
	})
}
