// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Cryolab Instruments

package cmd

import (
	"fmt"
	"os"

	"github.com/cryolab/squidctl/pkg/supracon"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test the connection with a single probe frame",
	Long: `Send the probe frame (00 40 00 F0) once and check the reply.

A controller on the line echoes the probe back exactly within the read
timeout. Use this to confirm port and baud rate before opening the device,
without the full discovery and safe-initialization sequence that "channels"
runs.

Supports both serial and WebSocket connections.

Exit codes:
  0 - Probe echoed back, controller present
  1 - No or unexpected reply
  2 - Connection error`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	var transport supracon.Transport
	var connInfo string
	var err error

	switch {
	case wsURL != "":
		password := ""
		if wsUsername != "" {
			if password, err = GetPassword(); err != nil {
				return err
			}
		}
		transport, err = supracon.OpenWebSocketTransport(wsURL, wsUsername, password, wsNoSSLVerify)
		connInfo = fmt.Sprintf("WebSocket: %s", wsURL)
	case portName != "":
		transport, err = supracon.OpenSerialTransport(portName, baudRate)
		connInfo = fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate)
	default:
		return fmt.Errorf("either --port or --url must be specified")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer transport.Close()

	fmt.Printf("Squidctl - Probe\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	request := supracon.Frame{Address: 0x00, Opcode: 0x40, Data0: 0x00, Data1: 0xF0}
	if err := transport.WriteFrame(request); err != nil {
		fmt.Fprintf(os.Stderr, "SEND FAILED: %v\n", err)
		os.Exit(2)
	}

	response, err := transport.ReadFrame()
	if err != nil {
		fmt.Fprintf(os.Stderr, "TIMEOUT: no reply (%v)\n", err)
		os.Exit(1)
	}

	if response != request {
		fmt.Fprintf(os.Stderr, "UNEXPECTED REPLY: % X\n", response.Bytes())
		os.Exit(1)
	}

	fmt.Printf("SUCCESS: controller echoed the probe\n")
	return nil
}
