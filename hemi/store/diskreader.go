// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/hexinfra/gorox/hemi"
)

// DiskHandle is an opaque swap-in handle. It is never open across an
// Unregister call other than the one that closes it.
type DiskHandle interface{}

// DiskReadCompletion is the callback a Read passes its result to. len < 0
// signals an error the header/body handler will surface through Fail.
type DiskReadCompletion func(ctx any, buf []byte, n int)

// DiskReader is the disk I/O collaborator: it opens a swap-in handle for an
// entry, issues positioned reads against it, and closes it. Open may fail
// synchronously; a Read's asynchronous failure is reported to its
// completion with n < 0.
type DiskReader interface {
	Open(entry Entry) (DiskHandle, error)
	Read(handle DiskHandle, dst []byte, length int, offset int64, completion DiskReadCompletion, ctx any)
	Close(handle DiskHandle)
}

// diskFileLimiter is the process-wide "too many disk files open" predicate
// (spec.md §5, "Shared resources"): admission control consulted before
// every Open, mirroring storeTooManyDiskFilesOpen() in the original
// implementation, which the distilled spec only names as a given
// predicate.
type diskFileLimiter struct {
	max  int32
	open int32
}

func newDiskFileLimiter(max int32) *diskFileLimiter {
	return &diskFileLimiter{max: max}
}

func (l *diskFileLimiter) tooMany() bool {
	return atomic.LoadInt32(&l.open) >= l.max
}
func (l *diskFileLimiter) acquire() { atomic.AddInt32(&l.open, 1) }
func (l *diskFileLimiter) release() { atomic.AddInt32(&l.open, -1) }

// PosixDiskReader is the concrete DiskReader used outside of tests: swap
// files live under Dir, named by the entry's SwapFilen, and reads are
// issued with unix.Pread — the pack's own habit (calvinalkan-agent-task's
// slotcache) of dropping to golang.org/x/sys/unix for positioned file I/O
// rather than os.File.ReadAt — dispatched to a worker goroutine so the
// caller of Read never blocks, with the completion delivered back through
// a hemi.Scheduler so it still lands on the single dispatch goroutine the
// copy engine's non-reentrancy guard assumes.
type PosixDiskReader struct {
	Dir       string
	Limiter   *diskFileLimiter
	Scheduler hemi.Scheduler

	dirLock *swapDirLock
}

// NewPosixDiskReader builds a PosixDiskReader rooted at dir, admission
// controlled by maxOpenFiles and dispatching completions through sched. It
// takes an exclusive flock on dir for as long as it's open, so a second
// PosixDiskReader pointed at the same directory fails fast instead of
// racing this one's reads.
func NewPosixDiskReader(dir string, maxOpenFiles int32, sched hemi.Scheduler) (*PosixDiskReader, error) {
	lock, err := lockSwapDir(dir)
	if err != nil {
		return nil, err
	}
	return &PosixDiskReader{Dir: dir, Limiter: newDiskFileLimiter(maxOpenFiles), Scheduler: sched, dirLock: lock}, nil
}

// Shutdown releases the swap directory lock. Calls after the first do
// nothing.
func (r *PosixDiskReader) Shutdown() {
	r.dirLock.unlock()
}

type posixHandle struct {
	file *os.File
}

func (r *PosixDiskReader) swapPath(entry Entry) string {
	return filepath.Join(r.Dir, fmt.Sprintf("%016x.swap", entry.SwapFilen()))
}

func (r *PosixDiskReader) Open(entry Entry) (DiskHandle, error) {
	if r.Limiter.tooMany() {
		return nil, fmt.Errorf("store: too many disk files open")
	}
	f, err := os.Open(r.swapPath(entry))
	if err != nil {
		return nil, err
	}
	r.Limiter.acquire()
	return &posixHandle{file: f}, nil
}

func (r *PosixDiskReader) Read(handle DiskHandle, dst []byte, length int, offset int64, completion DiskReadCompletion, ctx any) {
	h, ok := handle.(*posixHandle)
	if !ok || h == nil {
		completion(ctx, dst, -1)
		return
	}
	fd := int(h.file.Fd())
	if length > len(dst) {
		length = len(dst)
	}
	go func() {
		n, err := unix.Pread(fd, dst[:length], offset)
		if err != nil {
			n = -1
		}
		r.Scheduler.Schedule("diskReadCompletion", func(c any) {
			completion(c, dst, n)
		}, ctx, 0)
	}()
}

func (r *PosixDiskReader) Close(handle DiskHandle) {
	h, ok := handle.(*posixHandle)
	if !ok || h == nil {
		return
	}
	h.file.Close()
	r.Limiter.release()
}
