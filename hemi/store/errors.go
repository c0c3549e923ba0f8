// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

import "fmt"

// BugError marks a precondition violation by the caller: the contract was
// unsatisfiable and the caller is buggy, not the runtime. Callers that hit
// one should fix the call site, not retry or recover.
type BugError struct {
	msg string
}

func (e *BugError) Error() string { return "store: bug: " + e.msg }

func bugf(format string, v ...any) error {
	return &BugError{msg: fmt.Sprintf(format, v...)}
}

// ErrNotFound is returned by Unregister when the entry has no MemObject.
var ErrNotFound = fmt.Errorf("store: entry has no MemObject")

// ErrEntryAborted is returned by Copy when the entry is already Aborted;
// per spec.md this is a precondition violation (assertion), surfaced here
// as an error rather than a panic so a misbehaving transaction can be
// unwound without crashing the process running the event loop.
var ErrEntryAborted = fmt.Errorf("store: entry is aborted")

// ErrCallbackPending is returned by Copy when a callback is already pending
// on the client.
var ErrCallbackPending = fmt.Errorf("store: callback already pending")
