// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Cryolab Instruments

package cmd

import (
	"fmt"
	"time"

	"github.com/cryolab/squidctl/pkg/supracon"
	"github.com/spf13/cobra"
)

var (
	autotuneStartBias float64
	autotuneEndBias   float64
)

var autotuneCmd = &cobra.Command{
	Use:   "autotune",
	Short: "Run the hardware autotune on a channel",
	Long: `Run the channel's hardware calibration routine over a bias window.

The driver zeroes offset and flux, parks the loop in reset, disables AC flux
and test input, stores the window bounds in nonvolatile memory and triggers
the tune. The routine then runs for about 6.2 seconds inside the hardware;
this command waits that out before closing the device, since the channel
must not be addressed while it tunes.

A declined step does not roll back the earlier ones: a failed autotune can
leave the channel partially reconfigured. Inspect the result with
"channels --metadata".

Exit codes:
  0 - Every step acknowledged
  1 - Channel missing or a step declined
  2 - Connection or protocol error`,
	RunE: runAutotune,
}

func init() {
	rootCmd.AddCommand(autotuneCmd)
	autotuneCmd.Flags().IntVarP(&targetChannel, "channel", "c", 0, "Channel address (1-32)")
	autotuneCmd.Flags().Float64Var(&autotuneStartBias, "start-bias", -2.5, "Tune window start (V)")
	autotuneCmd.Flags().Float64Var(&autotuneEndBias, "end-bias", 2.5, "Tune window end (V)")
	autotuneCmd.MarkFlagRequired("channel")
}

func runAutotune(cmd *cobra.Command, args []string) error {
	return withChannel(func(ch *supracon.Channel) (bool, error) {
		fmt.Printf("Tuning channel %d over %.4f V to %.4f V...\n",
			ch.Address(), autotuneStartBias, autotuneEndBias)

		ok, err := ch.Autotune(autotuneStartBias, autotuneEndBias)
		if err != nil || !ok {
			return ok, err
		}

		// The channel must stay unaddressed while the routine runs, and
		// closing the device would address it.
		fmt.Printf("Waiting %s for the tune to finish...\n", supracon.AutotuneDuration)
		time.Sleep(supracon.AutotuneDuration)
		return true, nil
	})
}
