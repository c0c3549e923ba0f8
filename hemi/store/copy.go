// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// The copy engine: copy2 is the reentrancy trampoline, doCopy picks a
// source (memory, disk, or "wait for the producer") for the client's
// outstanding CopyRequest.

package store

// headerProbeSize bounds how much of the swap file the first, header-less
// read pulls in when the caller's own buffer might be smaller than the
// swap header itself. Reading into a scratch buffer rather than the
// caller's buffer (and copying the body segment out afterward) avoids the
// aliasing the original implementation relies on — the safer of the two
// equivalent choices spec.md's Design Notes call out.
const headerProbeSize = 4096

// copy2 is the non-reentrancy trampoline (spec.md §4.2). It never runs
// doCopy itself while another invocation is already on the stack for this
// client; instead it detours through the Scheduler.
func (c *Client) copy2() {
	if c.copyEventPending {
		return
	}
	if c.entry.Flags().Has(FlagForwardingHeadersWait) {
		return
	}
	if c.storeCopying {
		c.copyEventPending = true
		c.scheduleZeroDelay("storeClientCopyEvent", func() {
			c.copyEventPending = false
			if !c.callbackPending() {
				return
			}
			c.copy2()
		})
		return
	}
	c.doCopy()
}

// doCopy selects a source for the outstanding request and either completes
// it (synchronously for memory, asynchronously for disk) or parks the
// client to wait for producer progress. storeCopying brackets the entire
// call so a synchronous completion re-entering copy2 detours through the
// scheduler instead of recursing.
func (c *Client) doCopy() {
	c.storeCopying = true
	defer func() { c.storeCopying = false }()

	entry := c.entry
	mem := entry.Mem()

	// EOF check: only once the producer is done AND the final length is
	// known. An unknown length (still negative) means we can't tell yet
	// whether we're past the end — fall through to the disk path, which
	// discovers the real size by opening the swap file.
	if entry.StoreStatus() == StoreOk {
		if finalLen := mem.ObjectSize(); finalLen >= 0 && c.request.Offset >= finalLen {
			c.deliver(0, false)
			return
		}
	}

	// Wait for the producer: nothing more to check until InvokeHandlers
	// wakes us again.
	if entry.StoreStatus() == StorePending && c.request.Offset >= mem.EndOffset() {
		return
	}

	// A DiskReader client always opens its swap-in handle up front, even
	// if the requested chunk turns out to be servable from memory: if the
	// open fails we want to know before any bytes reach the caller, not
	// mid-stream.
	if c.typ == DiskReaderClient && !c.hasSwapIn {
		if c.diskIoPending {
			return // an open or read is already in flight; it will re-drive us
		}
		handle, err := c.manager.DiskReader.Open(entry)
		if err != nil {
			c.Fail()
			return
		}
		c.swapIn = handle
		c.hasSwapIn = true
	}

	if c.request.Offset >= mem.InmemLo() && c.request.Offset < mem.EndOffset() {
		n := mem.CopyOut(c.request.Offset, c.request.Buffer, c.request.Length)
		c.deliver(n, false)
		return
	}

	// Not in memory: only a DiskReader client can still have it. A
	// MemoryReader whose offset has fallen behind the trimmed window has
	// nowhere left to look.
	if c.typ != DiskReaderClient {
		c.Fail()
		return
	}
	c.fileRead()
}

// fileRead issues the next positioned disk read: straight at the body
// offset if swapHdrSize is already known, otherwise a header probe that
// also captures however much of the body follows it in the same read.
func (c *Client) fileRead() {
	mem := c.entry.Mem()
	c.diskIoPending = true

	if swapHdrSize := mem.SwapHdrSize(); swapHdrSize != 0 {
		offset := c.request.Offset + swapHdrSize
		c.manager.DiskReader.Read(c.swapIn, c.request.Buffer, c.request.Length, offset, c.onBodyRead, c)
		return
	}

	probeLen := c.request.Length
	if probeLen < headerProbeSize {
		probeLen = headerProbeSize
	}
	c.headerProbe = make([]byte, probeLen)
	c.manager.DiskReader.Read(c.swapIn, c.headerProbe, probeLen, 0, c.onHeaderRead, c)
}

// onBodyRead is the completion for a read whose swapHdrSize was already
// known, so buf holds body bytes directly.
func (c *Client) onBodyRead(ctx any, buf []byte, n int) {
	c.diskIoPending = false
	if n < 0 {
		c.Fail()
		return
	}
	if c.cmpOffset == 0 && !c.entry.Reply().StatusLineSet {
		maybeParseReply(c.entry, buf[:n])
	}
	c.deliver(n, false)
}

// onHeaderRead is the completion for the header-probe read: it unpacks and
// validates the swap header before anything is handed back to the caller.
func (c *Client) onHeaderRead(ctx any, buf []byte, n int) {
	c.diskIoPending = false
	c.headerProbe = nil
	if n < 0 {
		c.Fail()
		return
	}

	mem := c.entry.Mem()
	builder := c.manager.MetaUnpacker.NewBuilder(buf, n)
	if !builder.IsBufferSane() {
		c.Fail()
		return
	}
	chain, swapHdrSize, ok := builder.Build()
	if !ok {
		c.Fail()
		return
	}
	for _, tlv := range chain {
		if !tlv.CheckConsistency(c.entry) {
			c.Fail()
			return
		}
	}
	mem.SetSwapHdrSize(swapHdrSize)
	mem.SetObjectSize(c.entry.SwapFileSize() - swapHdrSize)

	bodyLen := int64(n) - swapHdrSize
	if c.request.Offset < bodyLen {
		copySz := c.request.Length
		if int64(copySz) > bodyLen {
			copySz = int(bodyLen)
		}
		got := copy(c.request.Buffer[:copySz], buf[swapHdrSize:swapHdrSize+int64(copySz)])
		if c.cmpOffset == 0 {
			maybeParseReply(c.entry, c.request.Buffer[:got])
		}
		c.deliver(got, false)
		return
	}
	// We now know swapHdrSize but the probe didn't reach the caller's
	// offset; re-issue at the real body offset.
	c.fileRead()
}
