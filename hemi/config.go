// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Configuration. Unlike the rest of hemi, which historically parses its own
// text grammar, the store-client subsystem's configuration surface is small
// enough that it is loaded from a JSONC file with hujson instead: fewer
// moving parts, and it's the format the wider retrieval pack already uses
// for the same job.

package hemi

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// QuickAbortConfig mirrors Squid's quick_abort_min/max/pct directives.
type QuickAbortConfig struct {
	MinKb int64 `json:"min_kb"` // negative disables quick-abort entirely
	MaxKb int64 `json:"max_kb"`
	Pct   int64 `json:"pct"`
}

// DiskConfig bounds the store client subsystem's disk resource usage.
type DiskConfig struct {
	MaxOpenFiles int32  `json:"max_open_files"`
	SwapDir      string `json:"swap_dir"`
}

// Config is the store client subsystem's runtime configuration.
type Config struct {
	QuickAbort QuickAbortConfig `json:"quick_abort"`
	Disk       DiskConfig       `json:"disk"`
	Log        LogConfig        `json:"log"`
}

// DefaultConfig returns Squid-compatible defaults: quick-abort disabled
// (MinKb < 0), a generous open-files ceiling.
func DefaultConfig() Config {
	return Config{
		QuickAbort: QuickAbortConfig{MinKb: -1, MaxKb: 16384, Pct: 95},
		Disk:       DiskConfig{MaxOpenFiles: 512, SwapDir: "."},
		Log:        LogConfig{Target: "stderr"},
	}
}

// LoadConfig reads a JSONC config file at path, standardizing it to plain
// JSON with hujson before unmarshalling on top of DefaultConfig. A missing
// file is not an error: DefaultConfig is returned unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}
