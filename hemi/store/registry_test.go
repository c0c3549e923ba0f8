// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

import "testing"

func TestRegistryLookupAfterInvalidate(t *testing.T) {
	r := NewRegistry()
	tok := r.Register("payload")

	if !r.IsLive(tok) {
		t.Fatal("expected freshly registered token to be live")
	}
	v, ok := r.Lookup(tok)
	if !ok || v != "payload" {
		t.Fatalf("Lookup = %v, %v; want payload, true", v, ok)
	}

	r.Invalidate(tok)
	if r.IsLive(tok) {
		t.Fatal("expected token to be dead after Invalidate")
	}
	if _, ok := r.Lookup(tok); ok {
		t.Fatal("expected Lookup to fail after Invalidate")
	}
}

func TestRegistryTokensAreDistinct(t *testing.T) {
	r := NewRegistry()
	a := r.Register("a")
	b := r.Register("b")
	if a == b {
		t.Fatal("expected distinct tokens for distinct registrations")
	}
}
