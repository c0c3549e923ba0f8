// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hexinfra/gorox/hemi/store"
)

func writeConfig(t *testing.T, swapDir string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "storectl.jsonc")
	body := `{
		// test config
		"disk": { "swap_dir": "` + swapDir + `", "max_open_files": 8 },
	}`
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return configPath
}

func TestRunSnapshotWritesSwapLogContents(t *testing.T) {
	swapDir := t.TempDir()
	configPath := writeConfig(t, swapDir)

	l := store.NewSwapLog(filepath.Join(swapDir, "swap.log"))
	l.Append("register", "key1", "owner1")
	l.Append("unregister", "key1", "owner1")

	outPath := filepath.Join(t.TempDir(), "out.log")
	code := runSnapshot([]string{"--config", configPath, "--out", outPath})
	if code != 0 {
		t.Fatalf("runSnapshot returned %d", code)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected the snapshot to be non-empty")
	}
}

func TestRunSnapshotRequiresOutFlag(t *testing.T) {
	configPath := writeConfig(t, t.TempDir())
	if code := runSnapshot([]string{"--config", configPath}); code != 1 {
		t.Fatalf("runSnapshot without --out = %d, want 1", code)
	}
}

func TestRunStatsPrintsWithoutError(t *testing.T) {
	configPath := writeConfig(t, t.TempDir())
	if code := runStats([]string{"--config", configPath}); code != 0 {
		t.Fatalf("runStats = %d, want 0", code)
	}
}
