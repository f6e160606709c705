// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Cryolab Instruments
//
// Squidctl - SupraCon SQUID electronics control
//
// A CLI tool for locating and driving SupraCon multi-channel SQUID readout
// electronics over a serial line or a serial-over-WebSocket bridge.

package main

import (
	"os"

	"github.com/cryolab/squidctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
