// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"strconv"
	"strings"
)

// maybeParseReply is the opportunistic, best-effort reply reconstruction a
// disk-hit's first delivered chunk triggers (spec.md §4.4): a real HTTP
// message parser is a collaborator this package doesn't own, so this is
// deliberately minimal — just enough to repopulate ReplyInfo.StatusLineSet
// and ContentLength from whatever headers happen to be present in data. A
// short or headerless chunk is left alone; the copy engine only calls this
// for a delivery at offset 0, so later chunks are not parsed.
func maybeParseReply(entry Entry, data []byte) {
	end := bytes.Index(data, []byte("\r\n\r\n"))
	if end < 0 {
		return
	}
	reply := entry.Reply()

	lines := strings.Split(string(data[:end]), "\r\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "HTTP/") {
		return
	}
	reply.StatusLineSet = true
	reply.HeaderSize = int64(end) + 4

	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			reply.ContentLength = n
		}
	}
}
