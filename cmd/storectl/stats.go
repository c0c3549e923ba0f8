// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/hexinfra/gorox/hemi"
	"github.com/hexinfra/gorox/hemi/store"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	configPath := fs.String("config", "storectl.jsonc", "path to a JSONC config file")
	key := fs.String("key", "", "inspect a live disk-backed entry under this key (optional)")
	url := fs.String("url", "", "the entry's URL, required together with --key")
	filen := fs.Int64("filen", 1, "swap file number holding the entry")
	if err := fs.Parse(args); err != nil {
		return exitForFlagErr(err)
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

	fmt.Printf("swap dir:         %s\n", cfg.Disk.SwapDir)
	fmt.Printf("max open files:   %d\n", cfg.Disk.MaxOpenFiles)
	fmt.Printf("quick_abort min:  %d KB\n", cfg.QuickAbort.MinKb)
	fmt.Printf("quick_abort max:  %d KB\n", cfg.QuickAbort.MaxKb)
	fmt.Printf("quick_abort pct:  %d\n", cfg.QuickAbort.Pct)
	fmt.Printf("swap log entries: %d\n", len(swapLog.Snapshot()))

	if *key == "" {
		return 0
	}
	if *url == "" {
		fmt.Fprintln(os.Stderr, "storectl: --url is required together with --key")
		return 1
	}
	return dumpEntryStats(cfg, *key, *url, *filen)
}

// dumpEntryStats registers one DiskReaderClient against a swap file already
// on disk, reads it once to prove the swap header validates, and prints the
// resulting ClientStats as JSON — a small end-to-end exercise of Register,
// Copy, and the TLV metadata unpacker from the CLI rather than a test.
func dumpEntryStats(cfg hemi.Config, key, url string, filen int64) int {
	info, err := os.Stat(filepath.Join(cfg.Disk.SwapDir, fmt.Sprintf("%016x.swap", filen)))
	if err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}

	sched := hemi.NewScheduler()
	defer sched.Close()
	disk, err := store.NewPosixDiskReader(cfg.Disk.SwapDir, cfg.Disk.MaxOpenFiles, sched)
	if err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}
	defer disk.Shutdown()
	mgr := store.NewManager(sched, disk, store.TLVMetaUnpacker{}, cfg.QuickAbort)

	entry := store.NewMemEntry(key, url, true, store.DiskReaderClient)
	entry.SetSwapFile(filen, info.Size())
	entry.SetStoreStatus(store.StoreOk)

	c, err := mgr.Register(entry, "storectl-stats")
	if err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}
	defer mgr.Unregister(c, entry, "storectl-stats")

	done := make(chan struct{})
	buf := make([]byte, 4096)
	err = c.Copy(entry, store.CopyRequest{Offset: 0, Length: len(buf), Buffer: buf}, func(any, store.CopyResult) {
		close(done)
	}, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}
	<-done

	out, err := json.MarshalIndent(c.DumpStats(), "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}
