// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Cryolab Instruments

package cmd

import (
	"fmt"
	"os"

	"github.com/cryolab/squidctl/pkg/supracon"
	"github.com/spf13/cobra"
)

var (
	scanVID    string
	scanPID    string
	scanAnyUSB bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Probe serial ports for a readout controller",
	Long: `Probe every candidate serial port and baud rate for a responding controller.

Each port is opened at 57600, 9600, 38400 and 19200 baud in turn and sent the
probe frame (00 40 00 F0). A controller on the line echoes the probe back
exactly; anything else (timeout, garbage, I/O error) counts as no match and
the scan moves on.

By default only FTDI bridge ports (VID 0403, PID 6001) are probed, matching
the adapter the controller ships with. Use --any to probe every port.

Examples:
  # Probe the factory FTDI adapter
  squidctl scan

  # Probe every serial port on the host
  squidctl scan --any

Exit codes:
  0 - At least one responding (port, baud) pair found
  1 - No controller responded
  2 - Port enumeration failed`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanVID, "vid", "0403", "USB vendor ID filter")
	scanCmd.Flags().StringVar(&scanPID, "pid", "6001", "USB product ID filter")
	scanCmd.Flags().BoolVar(&scanAnyUSB, "any", false, "Probe every port regardless of VID/PID")
}

func runScan(cmd *cobra.Command, args []string) error {
	opts := supracon.ScanOptions{VID: scanVID, PID: scanPID}
	if scanAnyUSB {
		opts.VID = ""
		opts.PID = ""
	}

	fmt.Printf("Squidctl - Controller Scan\n")
	if opts.VID != "" || opts.PID != "" {
		fmt.Printf("Filter: VID=%s PID=%s\n", opts.VID, opts.PID)
	}
	fmt.Printf("Baud rates: %v\n\n", supracon.DefaultBaudRates)

	candidates, err := supracon.NewScanner().Scan(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan error: %v\n", err)
		os.Exit(2)
	}

	for _, c := range candidates {
		fmt.Printf("Controller found: %s @ %d baud\n", c.Port, c.Baud)
	}

	fmt.Printf("\n--- Scan summary ---\n")
	fmt.Printf("Responding ports: %d\n", len(candidates))

	if len(candidates) == 0 {
		fmt.Printf("No controller responded. Check cabling and device power.\n")
		os.Exit(1)
	}

	return nil
}
