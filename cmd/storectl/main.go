// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// storectl is a small operator-facing wrapper around hemi/store: it wires
// up a Manager from a JSONC config file and exposes the pieces an operator
// needs to run or inspect one outside of a full proxy process.
package main

import (
	"fmt"
	"os"
)

// command is one storectl subcommand.
type command struct {
	usage string
	short string
	run   func(args []string) int
}

var commands = []command{
	{usage: "serve [flags]", short: "run the store client subsystem against a swap directory", run: runServe},
	{usage: "stats [flags]", short: "print store client subsystem counters", run: runStats},
	{usage: "snapshot [flags]", short: "write an atomic snapshot of the swap activity log", run: runSnapshot},
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printHelp()
		return 1
	}

	name, rest := args[0], args[1:]
	if name == "-h" || name == "--help" {
		printHelp()
		return 0
	}

	for _, c := range commands {
		if commandName(c.usage) == name {
			return c.run(rest)
		}
	}

	fmt.Fprintf(os.Stderr, "storectl: unknown command %q\n", name)
	printHelp()
	return 1
}

func commandName(usage string) string {
	for i, r := range usage {
		if r == ' ' {
			return usage[:i]
		}
	}
	return usage
}

func printHelp() {
	fmt.Fprintln(os.Stderr, "Usage: storectl <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-24s %s\n", c.usage, c.short)
	}
}
