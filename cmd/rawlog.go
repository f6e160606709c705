// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Cryolab Instruments

package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cryolab/squidctl/pkg/supracon"
	"github.com/spf13/cobra"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display frames on the line in human-readable format",
	Long: `Continuously read 4-byte frames from the line and display each one with its
decoded action, sub-parameter and data bytes.

This is a passive listener: it never transmits, so it can sit on a tap while
another program drives the controller.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
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
		return err
	}
	defer transport.Close()

	fmt.Printf("Squidctl - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	for {
		frame, err := transport.ReadFrame()
		if err != nil {
			if errors.Is(err, supracon.ErrReadTimeout) {
				// quiet line
				continue
			}
			log.Printf("Read error: %v", err)
			continue
		}
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), supracon.FormatFrame(frame))
	}
}
