// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Cryolab Instruments

package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cryolab/squidctl/pkg/supracon"
	"github.com/spf13/cobra"
)

var targetChannel int

var setCmd = &cobra.Command{
	Use:   "set {bias|offset|flux|dc-bias|detector-bias} <value>",
	Short: "Set a channel output",
	Long: `Set one scaled output of a channel.

bias, offset, flux and dc-bias take volts (-2.5 to 2.5); detector-bias takes
microamperes (0 to 250). A declined command means the channel hardware does
not implement the output or rejected the value; it is reported, not retried.

Examples:
  squidctl set bias 1.25 --port /dev/ttyUSB0 --channel 5
  squidctl set detector-bias 120 --port /dev/ttyUSB0 --channel 5

Exit codes:
  0 - Command acknowledged
  1 - Channel missing, unsupported or command declined
  2 - Connection or protocol error`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

var switchCmd = &cobra.Command{
	Use:   "switch {ac-flux|test-in|fll-reset|feedback} {on|off}",
	Short: "Switch a channel function on or off",
	Long: `Switch the AC flux modulation, the test input, the FLL reset state or the
feedback loop of a channel.

Exit codes are the same as for set.`,
	Args: cobra.ExactArgs(2),
	RunE: runSwitch,
}

var heatCmd = &cobra.Command{
	Use:   "heat {squid <duration-ms>|detector <current-ua>}",
	Short: "Drive a channel heater",
	Long: `Pulse the SQUID heater for a duration in milliseconds (0 to 65535), or set
the detector heater current in microamperes (0 to 1000).

Exit codes are the same as for set.`,
	Args: cobra.ExactArgs(2),
	RunE: runHeat,
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(heatCmd)
	for _, c := range []*cobra.Command{setCmd, switchCmd, heatCmd} {
		c.Flags().IntVarP(&targetChannel, "channel", "c", 0, "Channel address (1-32)")
		c.MarkFlagRequired("channel")
	}
}

// withChannel opens the device, runs fn against the selected channel and
// reports the outcome with the shared exit-code conventions.
func withChannel(fn func(ch *supracon.Channel) (bool, error)) error {
	device, connInfo, err := OpenDevice()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer device.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	ch, found := device.Channel(byte(targetChannel))
	if !found {
		fmt.Fprintf(os.Stderr, "Channel %d was not discovered (found: %v)\n", targetChannel, device.Channels())
		os.Exit(1)
	}

	ok, err := fn(ch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAILED: %v\n", err)
		os.Exit(2)
	}
	if !ok {
		fmt.Printf("DECLINED: channel %d did not acknowledge the command\n", targetChannel)
		os.Exit(1)
	}

	fmt.Printf("OK\n")
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %v", args[1], err)
	}

	return withChannel(func(ch *supracon.Channel) (bool, error) {
		switch args[0] {
		case "bias":
			return ch.SetBias(value)
		case "offset":
			return ch.SetOffset(value)
		case "flux":
			return ch.SetFlux(value)
		case "dc-bias":
			return ch.SetDCBias(value)
		case "detector-bias":
			return ch.SetDetectorBias(value)
		default:
			return false, fmt.Errorf("unknown output %q", args[0])
		}
	})
}

func runSwitch(cmd *cobra.Command, args []string) error {
	var on bool
	switch args[1] {
	case "on":
		on = true
	case "off":
		on = false
	default:
		return fmt.Errorf("state must be on or off, got %q", args[1])
	}

	return withChannel(func(ch *supracon.Channel) (bool, error) {
		switch args[0] {
		case "ac-flux":
			return ch.ACFlux(on)
		case "test-in":
			return ch.TestIn(on)
		case "fll-reset":
			return ch.ResetFLL(on)
		case "feedback":
			return ch.Feedback(on)
		default:
			return false, fmt.Errorf("unknown switch %q", args[0])
		}
	})
}

func runHeat(cmd *cobra.Command, args []string) error {
	return withChannel(func(ch *supracon.Channel) (bool, error) {
		switch args[0] {
		case "squid":
			durationMs, err := strconv.Atoi(args[1])
			if err != nil {
				return false, fmt.Errorf("invalid duration %q: %v", args[1], err)
			}
			return ch.HeatSQUID(durationMs)
		case "detector":
			current, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return false, fmt.Errorf("invalid current %q: %v", args[1], err)
			}
			return ch.HeatDetector(current)
		default:
			return false, fmt.Errorf("unknown heater %q", args[0])
		}
	})
}
