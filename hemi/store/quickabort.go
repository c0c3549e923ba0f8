// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

// checkQuickAbort runs after an entry's last client goes away while the
// producer is still pending (spec.md §4.6): if checkQuickAbort2 says the
// remaining fetch isn't worth finishing unattended, the entry is aborted
// and store status moves off StorePending so no future client can start
// waiting on it.
func (m *Manager) checkQuickAbort(entry Entry) {
	mem := entry.Mem()
	if mem == nil {
		return
	}
	if mem.NClients() > 0 {
		return
	}
	if entry.StoreStatus() != StorePending {
		return
	}
	if entry.Flags().Has(FlagSpecial) {
		return
	}

	if !m.checkQuickAbort2(entry) {
		return
	}

	entry.SetFlags(FlagAborted)
	entry.SetStoreStatus(StoreOk)

	if m.SwapLog != nil {
		m.SwapLog.Append("quickabort", entry.Key(), nil)
	}
}

// checkQuickAbort2 decides whether an unattended, in-progress fetch is
// worth letting run to completion; true means abort. Order matters: each
// branch is an early decision, either an abort (true) or an exemption
// ("no, let it keep going", false), before the final percent check.
func (m *Manager) checkQuickAbort2(entry Entry) bool {
	mem := entry.Mem()

	if !mem.Cachable() {
		return true // never going to be servable from cache anyway
	}
	if entry.Flags().Has(FlagKeyPrivate) {
		return true // private response, no other client can ever benefit
	}
	if m.QuickAbort.MinKb < 0 {
		return false // quick-abort disabled by configuration
	}

	curLen := mem.EndOffset()
	reply := entry.Reply()
	expectLen := reply.ContentLength + reply.HeaderSize

	if expectLen >= 0 && curLen > expectLen {
		return true // more than expected already; framing is bad, don't trust it to converge
	}

	minBytes := m.QuickAbort.MinKb << 10
	if expectLen >= 0 && (expectLen-curLen) < minBytes {
		return false // nearly done, worth finishing
	}

	maxBytes := m.QuickAbort.MaxKb << 10
	if expectLen >= 0 && (expectLen-curLen) > maxBytes {
		return true // too much left to go, not worth buffering unattended
	}

	if expectLen < 100 {
		return false // too small to make a meaningful percentage call
	}

	pctDone := curLen * 100 / expectLen
	if pctDone > m.QuickAbort.Pct {
		return false // far enough along, let it finish
	}
	return true
}
