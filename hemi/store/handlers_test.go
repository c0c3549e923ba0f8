// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

import "testing"

// TestInvokeHandlersWakesParkedClient reproduces the worked example: a
// client parks past EndOffset, the producer appends bytes and calls
// InvokeHandlers, and the parked callback fires with exactly what became
// available.
func TestInvokeHandlersWakesParkedClient(t *testing.T) {
	mgr, _ := newTestManager()
	entry := NewMemEntry("key1", "http://example.com/a", true, MemoryReader)
	entry.Append(make([]byte, 200)) // endOffset=200

	c, err := mgr.Register(entry, "owner1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var got CopyResult
	fired := false
	buf := make([]byte, 100)
	err = c.Copy(entry, CopyRequest{Offset: 200, Length: len(buf), Buffer: buf}, func(_ any, result CopyResult) {
		fired = true
		got = result
	}, nil)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if fired {
		t.Fatal("expected the callback to park, not fire, before the producer makes progress")
	}

	entry.Append(make([]byte, 150)) // endOffset=350
	mgr.InvokeHandlers(entry)

	if !fired {
		t.Fatal("expected InvokeHandlers to wake the parked client")
	}
	if got.Length != 100 {
		t.Fatalf("got length %d, want 100", got.Length)
	}
	if got.Offset != 200 {
		t.Fatalf("got offset %d, want 200", got.Offset)
	}
}

// TestInvokeHandlersTwiceWithNoProgressIsIdempotent asserts that a second
// InvokeHandlers call with no intervening producer progress leaves
// observable state unchanged: the callback that already fired doesn't fire
// again, and a freshly parked client stays parked.
func TestInvokeHandlersTwiceWithNoProgressIsIdempotent(t *testing.T) {
	mgr, _ := newTestManager()
	entry := NewMemEntry("key1", "http://example.com/a", true, MemoryReader)
	entry.Append(make([]byte, 200))

	c, err := mgr.Register(entry, "owner1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	calls := 0
	buf := make([]byte, 100)
	err = c.Copy(entry, CopyRequest{Offset: 0, Length: len(buf), Buffer: buf}, func(any, CopyResult) {
		calls++
	}, nil)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the memory-hit delivery to fire synchronously once, got %d calls", calls)
	}

	mgr.InvokeHandlers(entry)
	mgr.InvokeHandlers(entry)

	if calls != 1 {
		t.Fatalf("expected InvokeHandlers with no pending callback to be a no-op, got %d calls", calls)
	}

	parkedCalls := 0
	err = c.Copy(entry, CopyRequest{Offset: 200, Length: len(buf), Buffer: buf}, func(any, CopyResult) {
		parkedCalls++
	}, nil)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}

	mgr.InvokeHandlers(entry)
	mgr.InvokeHandlers(entry)

	if parkedCalls != 0 {
		t.Fatalf("expected a parked client with no producer progress to stay parked across repeated InvokeHandlers calls, got %d calls", parkedCalls)
	}
}
