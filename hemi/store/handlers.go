// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

// InvokeHandlers is the producer's "I made progress" signal (spec.md §4.3,
// InvokeHandlers): call it after appending to entry's MemObject or after
// StoreStatus transitions to StoreOk. It commits the new bytes to disk once,
// then re-drives every client with a pending callback that isn't already
// mid-flight on a disk read.
func (m *Manager) InvokeHandlers(entry Entry) {
	mem := entry.Mem()
	if mem == nil {
		return
	}
	mem.CommitToDisk()

	for _, c := range mem.Clients() {
		if c.callbackPending() && !c.diskIoPending {
			c.copy2()
		}
	}
}
