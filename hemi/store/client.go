// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

import (
	"time"

	"github.com/hexinfra/gorox/hemi"
)

// Client is the per-reader state machine (spec.md §3, StoreClient): the
// read-side handle one concurrent HTTP transaction uses to pull bytes out
// of an Entry.
type Client struct {
	// Assocs
	manager *Manager
	entry   Entry // set at creation, never changes

	// States
	typ       ClientType // decided once by the entry at registration
	cmpOffset int64      // offset the *next* delivered chunk begins at

	hasRequest bool
	request    CopyRequest

	hasCallback bool
	handler     CopyHandler
	opaqueTok   Token

	swapIn      DiskHandle
	hasSwapIn   bool
	headerProbe []byte // scratch buffer for the header-probe disk read; nil once consumed

	objectOk         bool
	diskIoPending    bool
	storeCopying     bool // re-entrancy guard, true only on copy engine's stack
	copyEventPending bool

	owner any // caller-supplied identity, for diagnostics/dumpStats only

	stats ClientStats
}

// Manager owns the collaborators shared by every Client of every Entry it
// serves: the disk reader, the swap-header unpacker, the event scheduler,
// the opaque-callback registry, and the quick-abort configuration.
type Manager struct {
	Scheduler    hemi.Scheduler
	DiskReader   DiskReader
	MetaUnpacker MetaUnpacker
	Registry     *Registry
	QuickAbort   hemi.QuickAbortConfig
	SwapLog      *SwapLog // optional

	diskReadsCompleted int64 // "disk-reads-completed" counter, spec.md §4.5 step 3
}

// NewManager wires together one store client subsystem instance.
func NewManager(sched hemi.Scheduler, disk DiskReader, meta MetaUnpacker, quickAbort hemi.QuickAbortConfig) *Manager {
	return &Manager{
		Scheduler:    sched,
		DiskReader:   disk,
		MetaUnpacker: meta,
		Registry:     NewRegistry(),
		QuickAbort:   quickAbort,
	}
}

// Register allocates a Client for entry, links it into the entry's client
// list, and increments the entry's refcount. Preconditions: entry.Mem()
// must be non-nil; a DiskReaderClient additionally requires a valid swap
// file number or swap-out eligibility, or the contract is unsatisfiable
// and the caller is buggy.
func (m *Manager) Register(entry Entry, owner any) (*Client, error) {
	mem := entry.Mem()
	if mem == nil {
		return nil, bugf("Register: entry %q has no MemObject", entry.Key())
	}
	typ := entry.ClientType()
	if typ == DiskReaderClient {
		swapOutAble := entry.SwapStatus() == SwapWriting || entry.SwapStatus() == SwapNone
		if entry.SwapFilen() <= 0 && !swapOutAble {
			return nil, bugf("Register: entry %q wants a DiskReader client but has no swap file and is not swap-out eligible", entry.Key())
		}
	}

	c := &Client{
		manager:  m,
		entry:    entry,
		typ:      typ,
		objectOk: true,
		owner:    owner,
	}
	mem.AddClient(c)
	entry.IncRefcount()

	if m.SwapLog != nil {
		m.SwapLog.Append("register", entry.Key(), owner)
	}
	return c, nil
}

// Unregister unlinks client from entry's client list, closes any open
// swap-in handle, fails a pending callback with UnexpectedTermination, and
// runs the quick-abort policy if this was the entry's last client.
func (m *Manager) Unregister(c *Client, entry Entry, owner any) error {
	mem := entry.Mem()
	if mem == nil {
		return ErrNotFound
	}

	mem.RemoveClient(c)
	entry.DecRefcount()

	if c.hasSwapIn {
		m.DiskReader.Close(c.swapIn)
		c.swapIn = nil
		c.hasSwapIn = false
		m.diskReadsCompleted++
	}

	if c.hasCallback {
		c.Fail()
	}

	if entry.StoreStatus() == StoreOk && entry.SwapStatus() != SwapDone {
		entry.KickSwapOut()
	}

	if m.SwapLog != nil {
		m.SwapLog.Append("unregister", entry.Key(), owner)
	}

	if mem.NClients() == 0 {
		m.checkQuickAbort(entry)
	}
	return nil
}

// Copy issues a read: offset req.Offset, up to req.Length bytes into
// req.Buffer. handler(opaque, result) fires at most once, either
// synchronously (memory hit) or later via the Scheduler / a disk
// completion. Preconditions: entry must be this client's entry, no
// callback may currently be pending, and the entry must not be Aborted.
func (c *Client) Copy(entry Entry, req CopyRequest, handler CopyHandler, opaque any) error {
	if entry != c.entry {
		return bugf("Copy: entry does not match client's entry")
	}
	if handler == nil {
		return bugf("Copy: handler must not be nil")
	}
	if c.hasCallback {
		return ErrCallbackPending
	}
	if entry.Flags().Has(FlagAborted) {
		return ErrEntryAborted
	}

	c.cmpOffset = req.Offset
	c.hasRequest = true
	c.request = req
	c.hasCallback = true
	c.handler = handler
	c.opaqueTok = c.manager.Registry.Register(opaque)

	c.copy2()
	return nil
}

// Fail marks the client permanently broken and, if a callback is pending,
// delivers it with length 0 and the error flag set. After the first call
// the callback slot is empty, so later calls are no-ops.
func (c *Client) Fail() {
	c.objectOk = false
	if !c.hasCallback {
		return
	}
	c.deliver(0, true)
}

func (c *Client) callbackPending() bool { return c.hasCallback }

// Offset reports the byte offset the client's next Copy call should start
// at to continue reading where the last delivery left off.
func (c *Client) Offset() int64 { return c.cmpOffset }

// deliver constructs the CopyResult, clears the callback slot, and invokes
// the handler if its opaque data is still live. It must run at most once
// per Copy call.
func (c *Client) deliver(n int, errorFlag bool) {
	if n < 0 {
		n = 0
		errorFlag = true
	}
	result := CopyResult{
		Length: n,
		Offset: c.cmpOffset,
		Buffer: c.request.Buffer,
		Error:  errorFlag,
	}
	c.cmpOffset = c.request.Offset + int64(n)

	handler := c.handler
	tok := c.opaqueTok
	c.hasCallback = false
	c.handler = nil
	c.hasRequest = false
	c.request = CopyRequest{}

	opaque, live := c.manager.Registry.Lookup(tok)
	c.manager.Registry.Invalidate(tok)
	if live {
		handler(opaque, result)
	}
}

// scheduleZeroDelay schedules fn to run on the Manager's Scheduler with no
// delay, the copy2 reentrancy trampoline (spec.md §4.2 step 3).
func (c *Client) scheduleZeroDelay(name string, fn func()) {
	c.manager.Scheduler.Schedule(name, func(ctx any) { fn() }, nil, 0*time.Second)
}
