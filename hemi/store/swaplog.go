// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

// SwapLog is the supplemental swap activity log (SPEC_FULL.md, "Swap
// activity log"): a flat, append-friendly record of client registration
// and teardown events, snapshotted to disk atomically so a reader never
// observes a half-written file. It has no bearing on the copy engine
// itself; Manager.Register and Manager.Unregister append one line each,
// and checkQuickAbort one line per aborted entry, when one is configured.
type SwapLog struct {
	mu      sync.Mutex
	path    string
	entries []string
}

// NewSwapLog creates a SwapLog that snapshots to path on every Append.
func NewSwapLog(path string) *SwapLog {
	return &SwapLog{path: path}
}

// Append records one event and rewrites the log file atomically. Errors
// are swallowed: a lost log line must never take down the copy engine that
// triggered it.
func (l *SwapLog) Append(event, key string, owner any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s\t%s\t%s\t%v\n", time.Now().UTC().Format(time.RFC3339Nano), event, key, owner)
	l.entries = append(l.entries, line)

	if l.path == "" {
		return
	}
	var buf bytes.Buffer
	for _, e := range l.entries {
		buf.WriteString(e)
	}
	_ = atomic.WriteFile(l.path, &buf)
}

// Snapshot returns the log's current contents, for cmd/storectl's
// "snapshot" subcommand.
func (l *SwapLog) Snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// LoadSwapLog reads back a previously written log, tolerating a missing
// file (a fresh subsystem has none yet).
func LoadSwapLog(path string) (*SwapLog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewSwapLog(path), nil
	}
	if err != nil {
		return nil, err
	}
	l := NewSwapLog(path)
	for _, line := range bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		l.entries = append(l.entries, string(line)+"\n")
	}
	return l, nil
}
