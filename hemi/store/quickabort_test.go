// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

import (
	"testing"

	"github.com/hexinfra/gorox/hemi"
)

func TestCheckQuickAbort2Disabled(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.QuickAbort = hemi.QuickAbortConfig{MinKb: -1, MaxKb: 16384, Pct: 95}

	entry := NewMemEntry("k", "http://x/", true, MemoryReader)
	entry.Append(make([]byte, 100))
	entry.Reply().ContentLength = 1 << 20

	if mgr.checkQuickAbort2(entry) {
		t.Fatal("expected quick-abort to be disabled by MinKb < 0")
	}
}

func TestCheckQuickAbort2NotCachableAborts(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.QuickAbort = hemi.QuickAbortConfig{MinKb: 0, MaxKb: 16384, Pct: 95}

	entry := NewMemEntry("k", "http://x/", false, MemoryReader)

	if !mgr.checkQuickAbort2(entry) {
		t.Fatal("expected an uncachable response to always abort")
	}
}

func TestCheckQuickAbort2KeyPrivateAborts(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.QuickAbort = hemi.QuickAbortConfig{MinKb: 0, MaxKb: 16384, Pct: 95}

	entry := NewMemEntry("k", "http://x/", true, MemoryReader)
	entry.SetFlags(FlagKeyPrivate)

	if !mgr.checkQuickAbort2(entry) {
		t.Fatal("expected a private-keyed entry to always abort")
	}
}

func TestCheckQuickAbort2NearlyDoneIsSpared(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.QuickAbort = hemi.QuickAbortConfig{MinKb: 100, MaxKb: 16384, Pct: 95}

	entry := NewMemEntry("k", "http://x/", true, MemoryReader)
	entry.Reply().ContentLength = 1000
	entry.Append(make([]byte, 999)) // 1 byte remaining, well under MinKb<<10

	if mgr.checkQuickAbort2(entry) {
		t.Fatal("expected an entry near completion not to be aborted")
	}
}

func TestCheckQuickAbort2PastPercentThresholdIsSpared(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.QuickAbort = hemi.QuickAbortConfig{MinKb: 0, MaxKb: 16384, Pct: 50}

	entry := NewMemEntry("k", "http://x/", true, MemoryReader)
	entry.Reply().ContentLength = 1000
	entry.Append(make([]byte, 600)) // 60% done, past the 50% threshold

	if mgr.checkQuickAbort2(entry) {
		t.Fatal("expected an entry past the percent threshold not to be aborted")
	}
}

func TestCheckQuickAbort2BelowThresholdAborts(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.QuickAbort = hemi.QuickAbortConfig{MinKb: 0, MaxKb: 16384, Pct: 50}

	entry := NewMemEntry("k", "http://x/", true, MemoryReader)
	entry.Reply().ContentLength = 1000
	entry.Append(make([]byte, 100)) // only 10% done

	if !mgr.checkQuickAbort2(entry) {
		t.Fatal("expected an entry well below the percent threshold to abort")
	}
}

func TestCheckQuickAbort2BadFramingAborts(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.QuickAbort = hemi.QuickAbortConfig{MinKb: 0, MaxKb: 16384, Pct: 95}

	entry := NewMemEntry("k", "http://x/", true, MemoryReader)
	entry.Reply().ContentLength = 100
	entry.Append(make([]byte, 200)) // already past the declared length

	if !mgr.checkQuickAbort2(entry) {
		t.Fatal("expected an entry that already exceeds its declared length to abort")
	}
}

func TestCheckQuickAbort2TooMuchLeftAborts(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.QuickAbort = hemi.QuickAbortConfig{MinKb: 4, MaxKb: 256, Pct: 95}

	entry := NewMemEntry("k", "http://x/", true, MemoryReader)
	entry.Reply().ContentLength = 300 << 10
	entry.Append(make([]byte, 10<<10)) // 10KB done, 290KB remaining, remaining > MaxKb

	if !mgr.checkQuickAbort2(entry) {
		t.Fatal("expected an entry with too much remaining to abort")
	}
}

func TestCheckQuickAbort2NearlyCompleteDespiteLargeAbsoluteSizeIsSpared(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.QuickAbort = hemi.QuickAbortConfig{MinKb: 4, MaxKb: 256, Pct: 95}

	entry := NewMemEntry("k", "http://x/", true, MemoryReader)
	entry.Reply().ContentLength = 300 << 10
	entry.Append(make([]byte, 290<<10)) // 290KB done, only 10KB remaining, well within MaxKb

	if mgr.checkQuickAbort2(entry) {
		t.Fatalf("expected an entry 96.7%% done not to be aborted by the max-buffered ceiling")
	}
}

func TestCheckQuickAbortSkipsIfClientsRemain(t *testing.T) {
	mgr, _ := newTestManager()
	entry := NewMemEntry("k", "http://x/", true, MemoryReader)
	if _, err := mgr.Register(entry, "owner"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	mgr.checkQuickAbort(entry)
	if entry.Flags().Has(FlagAborted) {
		t.Fatal("expected checkQuickAbort to no-op while a client remains")
	}
}

func TestCheckQuickAbortSkipsSpecialEntries(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.QuickAbort = hemi.QuickAbortConfig{MinKb: 0, MaxKb: 0, Pct: 0}
	entry := NewMemEntry("k", "http://x/", true, MemoryReader)
	entry.SetFlags(FlagSpecial)
	entry.Append(make([]byte, 10))

	mgr.checkQuickAbort(entry)
	if entry.Flags().Has(FlagAborted) {
		t.Fatal("expected checkQuickAbort to spare special entries")
	}
}
