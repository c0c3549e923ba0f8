// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSwapLogAppendAndSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swap.log")
	l := NewSwapLog(path)

	l.Append("register", "key1", "owner1")
	l.Append("unregister", "key1", "owner1")

	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("got %d entries, want 2", len(snap))
	}
	if !strings.Contains(snap[0], "register") || !strings.Contains(snap[0], "key1") {
		t.Fatalf("unexpected first entry: %q", snap[0])
	}
}

func TestLoadSwapLogRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swap.log")
	l := NewSwapLog(path)
	l.Append("register", "key1", "owner1")
	l.Append("register", "key2", "owner2")

	loaded, err := LoadSwapLog(path)
	if err != nil {
		t.Fatalf("LoadSwapLog: %v", err)
	}
	if got := loaded.Snapshot(); len(got) != 2 {
		t.Fatalf("got %d entries after reload, want 2", len(got))
	}
}

func TestLoadSwapLogToleratesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.log")
	l, err := LoadSwapLog(path)
	if err != nil {
		t.Fatalf("LoadSwapLog: %v", err)
	}
	if len(l.Snapshot()) != 0 {
		t.Fatal("expected an empty log for a missing file")
	}
}
