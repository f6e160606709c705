// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Cryolab Instruments

package cmd

import (
	"fmt"
	"os"

	"github.com/cryolab/squidctl/pkg/supracon"
	"github.com/spf13/cobra"
)

var channelsShowMetadata bool

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Discover and list the controller's channels",
	Long: `Open the controller, run the channel discovery scan and list the result.

Opening drives every global output to its minimum, probes all 32 channel
addresses and initializes each responding channel to its safe-default state.
The device is closed again afterwards, which re-applies the safe-default
sequence and parks every flux-locked loop in reset.

With --metadata, the stored firmware revision, creation date, serial number
and autotune values are read from each channel's nonvolatile memory.

Exit codes:
  0 - At least one channel discovered
  1 - No channels found
  2 - Connection or protocol error`,
	RunE: runChannels,
}

func init() {
	rootCmd.AddCommand(channelsCmd)
	channelsCmd.Flags().BoolVar(&channelsShowMetadata, "metadata", false, "Read stored metadata from each channel")
}

func runChannels(cmd *cobra.Command, args []string) error {
	device, connInfo, err := OpenDevice()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer device.Close()

	fmt.Printf("Squidctl - Channel Discovery\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	addrs := device.Channels()
	for _, addr := range addrs {
		ch, _ := device.Channel(addr)
		fmt.Printf("Channel %d: capabilities 0x%04X\n", addr, uint16(ch.Capabilities()))

		if channelsShowMetadata {
			if err := printChannelMetadata(ch); err != nil {
				fmt.Fprintf(os.Stderr, "Metadata read failed: %v\n", err)
				os.Exit(2)
			}
		}
	}

	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("Channels found: %d\n", len(addrs))

	if len(addrs) == 0 {
		fmt.Printf("No channels responded. Check that the electronics rack is powered.\n")
		os.Exit(1)
	}

	return nil
}

func printChannelMetadata(ch *supracon.Channel) error {
	firmware, err := ch.Firmware()
	if err != nil {
		return err
	}
	created, err := ch.CreationDate()
	if err != nil {
		return err
	}
	serial, err := ch.SerialNumber()
	if err != nil {
		return err
	}
	tuneStart, tuneEnd, err := ch.AutotuneRange()
	if err != nil {
		return err
	}
	tuneBias, err := ch.AutotuneBias()
	if err != nil {
		return err
	}
	tuneOffset, err := ch.AutotuneOffset()
	if err != nil {
		return err
	}
	tuneFlux, err := ch.AutotuneFlux()
	if err != nil {
		return err
	}

	fmt.Printf("  Firmware: %d\n", firmware)
	fmt.Printf("  Created: %d\n", created)
	fmt.Printf("  Serial: %d\n", serial)
	fmt.Printf("  Autotune range: %.4f V to %.4f V\n", tuneStart, tuneEnd)
	fmt.Printf("  Autotune bias/offset/flux: %.4f / %.4f / %.4f V\n", tuneBias, tuneOffset, tuneFlux)
	return nil
}
