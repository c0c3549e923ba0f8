// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

// ClientStats is a point-in-time snapshot of one Client's state machine,
// the shape spec.md's dumpStats prints one line of per client (offset,
// pending callback, in-flight disk I/O, copy-engine re-entrancy state).
type ClientStats struct {
	Type             ClientType
	CmpOffset        int64
	CallbackPending  bool
	DiskIoPending    bool
	StoreCopying     bool
	CopyEventPending bool
	ObjectOk         bool
	Owner            any
}

// DumpStats snapshots c's current state. Safe to call from outside the
// scheduler's dispatch goroutine only for diagnostics; it takes no lock of
// its own, mirroring dumpStats's original "best effort, not authoritative"
// character.
func (c *Client) DumpStats() ClientStats {
	c.stats = ClientStats{
		Type:             c.typ,
		CmpOffset:        c.cmpOffset,
		CallbackPending:  c.hasCallback,
		DiskIoPending:    c.diskIoPending,
		StoreCopying:     c.storeCopying,
		CopyEventPending: c.copyEventPending,
		ObjectOk:         c.objectOk,
		Owner:            c.owner,
	}
	return c.stats
}

// ManagerStats aggregates counters that outlive any single Client, for the
// "store client subsystem" section of a process-wide stats dump.
type ManagerStats struct {
	DiskReadsCompleted int64
}

// DumpStats reports Manager-wide counters.
func (m *Manager) DumpStats() ManagerStats {
	return ManagerStats{DiskReadsCompleted: m.diskReadsCompleted}
}
