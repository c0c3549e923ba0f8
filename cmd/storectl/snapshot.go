// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/hexinfra/gorox/hemi"
	"github.com/hexinfra/gorox/hemi/store"
)

func runSnapshot(args []string) int {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	configPath := fs.String("config", "storectl.jsonc", "path to a JSONC config file")
	outPath := fs.String("out", "", "path to write the snapshot to (required)")
	if err := fs.Parse(args); err != nil {
		return exitForFlagErr(err)
	}
	if *outPath == "" {
		fmt.Fprintln(os.Stderr, "storectl: --out is required")
		return 1
	}

	cfg, err := hemi.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}

	swapLog, err := store.LoadSwapLog(swapLogPath(cfg))
	if err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}

	entries := swapLog.Snapshot()
	var buf bytes.Buffer
	for _, line := range entries {
		buf.WriteString(line)
	}
	if err := atomic.WriteFile(*outPath, &buf); err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}

	fmt.Printf("wrote %d entries to %s\n", len(entries), *outPath)
	return 0
}
