// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Package store is the store client subsystem of a forward/reverse HTTP
// caching proxy: the read-side handle through which one concurrent HTTP
// transaction consumes bytes from a cacheable response that may still be
// arriving from an origin, may be fully resident in memory, may already be
// paged out to a swap file on disk, or some combination of the three.
//
// The subsystem never originates bytes and never decides what belongs in
// cache; it only delivers bytes from whichever source currently holds them
// to a caller-supplied buffer, one outstanding read per Client, without
// blocking, and with orderly abort semantics once no readers remain.
package store
