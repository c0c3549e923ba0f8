// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// The swap header is a small TLV-encoded prefix written ahead of every
// on-disk object, carrying just enough identity (key, URL) to let a
// disk-hit be validated against the Entry that is about to consume it
// before any body bytes are handed to a caller. Mirrors the role of
// StoreMetaUnpacker / StoreMeta in the original implementation.

package store

import (
	"encoding/binary"
	"errors"
)

var metaMagic = [4]byte{'S', 'Q', 'D', '1'}

const (
	metaTypeEnd byte = 0
	metaTypeKey byte = 1
	metaTypeURL byte = 2
)

// MetaTLV is one validated record from the swap header.
type MetaTLV interface {
	// CheckConsistency reports whether this record agrees with entry's
	// own idea of its identity.
	CheckConsistency(entry Entry) bool
}

// MetaBuilder incrementally validates and parses one swap header buffer.
type MetaBuilder interface {
	// IsBufferSane performs a cheap structural check (magic, lengths
	// in-bounds) before Build does the real parse.
	IsBufferSane() bool
	// Build parses the buffer into a TLV chain and reports the total
	// number of header bytes consumed (outSwapHdrSize). ok is false on
	// any malformed TLV.
	Build() (chain []MetaTLV, outSwapHdrSize int64, ok bool)
}

// MetaUnpacker constructs a MetaBuilder over a swap header buffer.
type MetaUnpacker interface {
	NewBuilder(buf []byte, length int) MetaBuilder
}

// TLVMetaUnpacker is the concrete MetaUnpacker used outside of tests.
type TLVMetaUnpacker struct{}

func (TLVMetaUnpacker) NewBuilder(buf []byte, length int) MetaBuilder {
	if length > len(buf) {
		length = len(buf)
	}
	return &tlvBuilder{buf: buf[:length]}
}

type tlvBuilder struct {
	buf []byte
}

func (b *tlvBuilder) IsBufferSane() bool {
	if len(b.buf) < len(metaMagic)+1 {
		return false
	}
	for i, m := range metaMagic {
		if b.buf[i] != m {
			return false
		}
	}
	// Walk the TLVs once just to check every declared length stays
	// in-bounds, without allocating the chain yet.
	pos := len(metaMagic)
	for pos < len(b.buf) {
		typ := b.buf[pos]
		pos++
		if typ == metaTypeEnd {
			return true
		}
		if pos+4 > len(b.buf) {
			return false
		}
		vlen := int(binary.BigEndian.Uint32(b.buf[pos:]))
		pos += 4
		if vlen < 0 || pos+vlen > len(b.buf) {
			return false
		}
		pos += vlen
	}
	return false // ran off the end without hitting metaTypeEnd
}

func (b *tlvBuilder) Build() (chain []MetaTLV, outSwapHdrSize int64, ok bool) {
	if !b.IsBufferSane() {
		return nil, 0, false
	}
	pos := len(metaMagic)
	for pos < len(b.buf) {
		typ := b.buf[pos]
		pos++
		if typ == metaTypeEnd {
			return chain, int64(pos), true
		}
		vlen := int(binary.BigEndian.Uint32(b.buf[pos:]))
		pos += 4
		value := b.buf[pos : pos+vlen]
		pos += vlen
		switch typ {
		case metaTypeKey:
			chain = append(chain, keyTLV(value))
		case metaTypeURL:
			chain = append(chain, urlTLV(value))
		default:
			chain = append(chain, unknownTLV{})
		}
	}
	return nil, 0, false
}

type keyTLV []byte

func (k keyTLV) CheckConsistency(entry Entry) bool {
	return string(k) == entry.Key()
}

type urlTLV []byte

func (u urlTLV) CheckConsistency(entry Entry) bool {
	mem := entry.Mem()
	return mem != nil && string(u) == mem.URL()
}

// unknownTLV records were parsed but carry nothing this package validates;
// they are consistent by definition (forward compatibility with header
// fields future writers might add, e.g. cache-control hints).
type unknownTLV struct{}

func (unknownTLV) CheckConsistency(Entry) bool { return true }

// EncodeMetaHeader builds a swap header buffer for key/url in the format
// TLVMetaUnpacker understands, for tests and for any writer that spools
// swap files PosixDiskReader and TLVMetaUnpacker then read back.
func EncodeMetaHeader(key, url string) []byte {
	buf := append([]byte{}, metaMagic[:]...)
	buf = appendTLV(buf, metaTypeKey, []byte(key))
	buf = appendTLV(buf, metaTypeURL, []byte(url))
	buf = append(buf, metaTypeEnd)
	return buf
}

func appendTLV(buf []byte, typ byte, value []byte) []byte {
	buf = append(buf, typ)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(value)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, value...)
	return buf
}

// ErrMetadataCorrupt is returned nowhere directly (Fail() is the terminal
// signal) but named here for callers that want to distinguish this failure
// kind in logs.
var ErrMetadataCorrupt = errors.New("store: swap header is corrupt")
