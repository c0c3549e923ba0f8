// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// swapDirLock holds an exclusive, non-blocking flock on a swap directory's
// lock file, the same guard calvinalkan-agent-task/lock.go uses against a
// single ticket file: a second PosixDiskReader pointed at the same
// directory should fail fast at startup instead of silently racing the
// first one's reads.
type swapDirLock struct {
	file *os.File
}

// lockSwapDir acquires the lock, creating dir and the lock file if needed.
func lockSwapDir(dir string) (*swapDirLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating swap dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, ".storectl.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: opening lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("store: swap dir %s is already locked: %w", dir, err)
	}
	return &swapDirLock{file: f}, nil
}

// unlock releases the flock and closes the lock file. Calls after the first
// do nothing.
func (l *swapDirLock) unlock() {
	if l == nil || l.file == nil {
		return
	}
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	l.file.Close()
	l.file = nil
}
