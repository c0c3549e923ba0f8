// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

// StoreStatus is the producer's overall progress on a StoreEntry.
type StoreStatus int8

const (
	StorePending StoreStatus = iota // producer is still receiving/writing
	StoreOk                         // producer is done; final length may still be unknown (negative)
)

// SwapStatus is the entry's on-disk spooling progress.
type SwapStatus int8

const (
	SwapNone SwapStatus = iota
	SwapWriting
	SwapDone
)

// EntryFlags is a bit set of orthogonal StoreEntry conditions.
type EntryFlags uint32

const (
	FlagAborted EntryFlags = 1 << iota
	FlagForwardingHeadersWait
	FlagKeyPrivate
	FlagSpecial
)

// Has reports whether all bits in want are set in f.
func (f EntryFlags) Has(want EntryFlags) bool { return f&want == want }

// ClientType is decided once by the entry at registration time and never
// changes afterward.
type ClientType uint8

const (
	MemoryReader ClientType = iota
	DiskReaderClient
)

func (t ClientType) String() string {
	if t == DiskReaderClient {
		return "disk"
	}
	return "memory"
}

// ReplyInfo is the subset of the HTTP reply object the copy engine and
// quick-abort policy need to see: whether the status line has been parsed
// yet, and the two fields that make up the "declared length" of the object.
type ReplyInfo struct {
	StatusLineSet bool
	ContentLength int64 // -1 if unknown
	HeaderSize    int64
}

// CopyRequest is the input to Client.Copy: where to start reading, how much,
// and where to put it.
type CopyRequest struct {
	Offset int64
	Length int
	Buffer []byte // len(Buffer) must be >= Length
}

// CopyResult is delivered at most once to the handler passed to Client.Copy.
type CopyResult struct {
	Length int
	Offset int64 // cmpOffset as of the start of the copy that produced this result
	Buffer []byte
	Error  bool
}

// CopyHandler is invoked at most once per Client.Copy call.
type CopyHandler func(opaque any, result CopyResult)
