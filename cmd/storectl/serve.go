// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/hexinfra/gorox/hemi"
	"github.com/hexinfra/gorox/hemi/store"
)

// demoChunks is the toy producer's script: it appends one chunk per tick,
// marking the entry StoreOk once the last chunk lands. No fetch, no
// network I/O — just enough motion to exercise Register/Copy/InvokeHandlers
// end to end.
var demoChunks = []string{"hello ", "from ", "storectl ", "serve\n"}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "storectl.jsonc", "path to a JSONC config file")
	tick := fs.Duration("tick", 200*time.Millisecond, "toy producer interval")
	if err := fs.Parse(args); err != nil {
		return exitForFlagErr(err)
	}

	cfg, err := hemi.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}

	logger := hemi.CreateLogger(loggerSign(cfg.Log.Target), &cfg.Log)
	if logger == nil {
		logger = hemi.CreateLogger("stderr", &cfg.Log)
	}
	defer logger.Close()

	sched := hemi.NewScheduler()
	defer sched.Close()

	disk, err := store.NewPosixDiskReader(cfg.Disk.SwapDir, cfg.Disk.MaxOpenFiles, sched)
	if err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}
	defer disk.Shutdown()
	mgr := store.NewManager(sched, disk, store.TLVMetaUnpacker{}, cfg.QuickAbort)

	swapLog, err := store.LoadSwapLog(swapLogPath(cfg))
	if err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}
	mgr.SwapLog = swapLog

	entry := store.NewMemEntry("demo", "storectl://demo", true, store.MemoryReader)
	c, err := mgr.Register(entry, "storectl-serve")
	if err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		return 1
	}
	defer mgr.Unregister(c, entry, "storectl-serve")

	logger.Logf("storectl: serving swap dir %s (max %d open files)\n", cfg.Disk.SwapDir, cfg.Disk.MaxOpenFiles)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startDemoReader(logger, c, entry)
	runDemoProducer(ctx, mgr, entry, *tick)

	logger.Logf("storectl: shutting down\n")
	return 0
}

// startDemoReader issues the first Copy and keeps re-issuing one from
// inside its own completion handler, so it drains demoChunks as fast as
// InvokeHandlers wakes it, one delivery at a time, until EOF or failure.
func startDemoReader(logger hemi.Logger, c *store.Client, entry *store.MemEntry) {
	buf := make([]byte, 64)
	var readNext func(offset int64)
	readNext = func(offset int64) {
		req := store.CopyRequest{Offset: offset, Length: len(buf), Buffer: buf}
		err := c.Copy(entry, req, func(_ any, result store.CopyResult) {
			if result.Error {
				logger.Logf("storectl: read failed at offset %d\n", result.Offset)
				return
			}
			if result.Length == 0 {
				logger.Logf("storectl: EOF at offset %d\n", result.Offset)
				return
			}
			logger.Logf("storectl: delivered %d bytes at offset %d: %q\n", result.Length, result.Offset, buf[:result.Length])
			readNext(c.Offset())
		}, nil)
		if err != nil {
			logger.Logf("storectl: Copy error: %v\n", err)
		}
	}
	readNext(0)
}

// runDemoProducer appends demoChunks to entry on tick, calling
// InvokeHandlers after each so any parked reader is redriven, until the
// script finishes or ctx is cancelled.
func runDemoProducer(ctx context.Context, mgr *store.Manager, entry *store.MemEntry, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	i := 0
	total := strings.Join(demoChunks, "")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if i >= len(demoChunks) {
				return
			}
			entry.Append([]byte(demoChunks[i]))
			i++
			if i == len(demoChunks) {
				entry.SetStoreStatus(store.StoreOk)
				entry.Mem().SetObjectSize(int64(len(total)))
			}
			mgr.InvokeHandlers(entry)
		}
	}
}

// loggerSign maps a config's log target to the loggerSign a Logger was
// registered under (hemi/logger.go's init): an empty target picks the noop
// logger, a bare "stderr" the built-in stderr stream logger, and anything
// else is treated as a file path.
func loggerSign(target string) string {
	switch target {
	case "":
		return "noop"
	case "stderr":
		return "stderr"
	default:
		return "file"
	}
}

func swapLogPath(cfg hemi.Config) string {
	return cfg.Disk.SwapDir + "/swap.log"
}

func exitForFlagErr(err error) int {
	if err == flag.ErrHelp {
		return 0
	}
	fmt.Fprintln(os.Stderr, "storectl:", err)
	return 1
}
