// main.go: Entry point of the swb browser shell
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "swb: %v\n", err)
		os.Exit(1)
	}
}
