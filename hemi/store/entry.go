// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

import "sync"

// Entry is the StoreEntry collaborator (spec.md §6): the metadata and
// in-memory portion of one cached response, shared among all concurrent
// readers and the producer. Only the surface the copy engine and
// quick-abort policy actually consume is specified here; cache admission,
// replacement, and the write path live outside this package.
type Entry interface {
	Mem() MemObject // nil until the producer has started receiving
	StoreStatus() StoreStatus
	SetStoreStatus(StoreStatus)
	SwapStatus() SwapStatus
	SetSwapStatus(SwapStatus)
	SwapFilen() int64
	SwapFileSize() int64
	Flags() EntryFlags
	SetFlags(EntryFlags)
	ClearFlags(EntryFlags)
	Reply() *ReplyInfo
	Refcount() int32
	IncRefcount()
	DecRefcount()
	LockCount() int32
	Key() string
	ClientType() ClientType
	// KickSwapOut nudges a still-in-progress swap-out forward. Called by
	// Unregister when the producer is done (StoreOk) but SwapStatus has
	// not yet reached SwapDone: a lingering producer obligation.
	KickSwapOut()
}

// MemObject is the mutable memory-resident state attached to an active
// Entry: the byte window, the client list, swap-out state.
type MemObject interface {
	InmemLo() int64
	EndOffset() int64
	// CopyOut copies up to length bytes starting at srcOffset (relative to
	// the object, not to InmemLo) into dst, returning the count copied.
	CopyOut(srcOffset int64, dst []byte, length int) int
	Clients() []*Client
	AddClient(c *Client)
	RemoveClient(c *Client)
	NClients() int
	SwapHdrSize() int64
	SetSwapHdrSize(int64)
	ObjectSize() int64
	SetObjectSize(int64)
	Cachable() bool
	URL() string
	SwapoutOffset() int64
	// CommitToDisk is the producer hook InvokeHandlers calls (step 1)
	// before walking the client list: "ask the entry to commit what it
	// can to disk".
	CommitToDisk()
}

// MemEntry is a minimal, concrete Entry implementation. It exists so the
// package is runnable and testable end to end; a real proxy plugs in its
// own Entry backed by its cache directory manager instead.
type MemEntry struct {
	mu sync.Mutex

	mem          *memObject
	storeStatus  StoreStatus
	swapStatus   SwapStatus
	swapFilen    int64
	swapFileSize int64
	flags        EntryFlags
	reply        ReplyInfo
	refcount     int32
	lockCount    int32
	key          string
	clientType   ClientType

	swapKicks int // counts KickSwapOut calls, for tests
}

// NewMemEntry creates an Entry with a backing MemObject already attached.
func NewMemEntry(key string, url string, cachable bool, clientType ClientType) *MemEntry {
	e := &MemEntry{
		key:         key,
		storeStatus: StorePending,
		swapStatus:  SwapNone,
		clientType:  clientType,
		reply:       ReplyInfo{ContentLength: -1},
	}
	e.mem = newMemObject(url, cachable)
	return e
}

func (e *MemEntry) Mem() MemObject {
	if e.mem == nil {
		return nil
	}
	return e.mem
}
func (e *MemEntry) StoreStatus() StoreStatus     { return e.storeStatus }
func (e *MemEntry) SetStoreStatus(s StoreStatus) { e.storeStatus = s }
func (e *MemEntry) SwapStatus() SwapStatus       { return e.swapStatus }
func (e *MemEntry) SetSwapStatus(s SwapStatus)   { e.swapStatus = s }
func (e *MemEntry) SwapFilen() int64             { return e.swapFilen }
func (e *MemEntry) SwapFileSize() int64          { return e.swapFileSize }
func (e *MemEntry) Flags() EntryFlags            { return e.flags }
func (e *MemEntry) SetFlags(f EntryFlags)        { e.flags |= f }
func (e *MemEntry) ClearFlags(f EntryFlags)      { e.flags &^= f }
func (e *MemEntry) Reply() *ReplyInfo            { return &e.reply }
func (e *MemEntry) Refcount() int32              { return e.refcount }
func (e *MemEntry) IncRefcount()                 { e.refcount++ }
func (e *MemEntry) DecRefcount()                 { e.refcount-- }
func (e *MemEntry) LockCount() int32             { return e.lockCount }
func (e *MemEntry) Key() string                  { return e.key }
func (e *MemEntry) ClientType() ClientType       { return e.clientType }
func (e *MemEntry) KickSwapOut() {
	e.swapKicks++
	if e.swapStatus == SwapWriting {
		e.swapStatus = SwapDone
	}
}

// SetSwapFile records where this entry has been (or will be) spooled.
func (e *MemEntry) SetSwapFile(filen, size int64) {
	e.swapFilen = filen
	e.swapFileSize = size
}

// Append grows the in-memory window by data, as a producer would after a
// successful read from the origin.
func (e *MemEntry) Append(data []byte) {
	e.mem.append(data)
}

// TrimInmemLo advances the in-memory window's low edge, as a producer would
// when it drops bytes that have already been swapped out and are no longer
// held in memory.
func (e *MemEntry) TrimInmemLo(lo int64) {
	e.mem.trimInmemLo(lo)
}

// memObject is MemEntry's concrete MemObject.
type memObject struct {
	mu sync.Mutex

	buf         []byte // bytes from inmemLo onward are resident
	inmemLo     int64
	url         string
	cachable    bool
	clients     []*Client
	swapHdrSize int64
	objectSize  int64
	swapoutOff  int64
	commits     int // counts CommitToDisk calls, for tests
}

func newMemObject(url string, cachable bool) *memObject {
	return &memObject{url: url, cachable: cachable, objectSize: -1}
}

func (m *memObject) append(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf = append(m.buf, data...)
	m.swapoutOff += int64(len(data))
}

func (m *memObject) InmemLo() int64 { m.mu.Lock(); defer m.mu.Unlock(); return m.inmemLo }
func (m *memObject) trimInmemLo(lo int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := lo - m.inmemLo
	if drop <= 0 {
		m.inmemLo = lo
		return
	}
	if drop > int64(len(m.buf)) {
		drop = int64(len(m.buf))
	}
	m.buf = m.buf[drop:]
	m.inmemLo = lo
}
func (m *memObject) EndOffset() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inmemLo + int64(len(m.buf))
}
func (m *memObject) CopyOut(srcOffset int64, dst []byte, length int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	rel := srcOffset - m.inmemLo
	if rel < 0 || rel >= int64(len(m.buf)) {
		return 0
	}
	n := copy(dst[:length], m.buf[rel:])
	return n
}
func (m *memObject) Clients() []*Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Client, len(m.clients))
	copy(out, m.clients)
	return out
}
func (m *memObject) AddClient(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients = append(m.clients, c)
}
func (m *memObject) RemoveClient(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cl := range m.clients {
		if cl == c {
			m.clients = append(m.clients[:i], m.clients[i+1:]...)
			return
		}
	}
}
func (m *memObject) NClients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
func (m *memObject) SwapHdrSize() int64        { m.mu.Lock(); defer m.mu.Unlock(); return m.swapHdrSize }
func (m *memObject) SetSwapHdrSize(v int64)    { m.mu.Lock(); m.swapHdrSize = v; m.mu.Unlock() }
func (m *memObject) ObjectSize() int64         { m.mu.Lock(); defer m.mu.Unlock(); return m.objectSize }
func (m *memObject) SetObjectSize(v int64)     { m.mu.Lock(); m.objectSize = v; m.mu.Unlock() }
func (m *memObject) Cachable() bool            { return m.cachable }
func (m *memObject) URL() string               { return m.url }
func (m *memObject) SwapoutOffset() int64      { m.mu.Lock(); defer m.mu.Unlock(); return m.swapoutOff }
func (m *memObject) CommitToDisk()             { m.mu.Lock(); m.commits++; m.mu.Unlock() }
