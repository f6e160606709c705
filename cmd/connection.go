// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Cryolab Instruments

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/cryolab/squidctl/pkg/supracon"
	"golang.org/x/term"
)

// GetPassword retrieves the bridge password from the environment or prompts
// the user.
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("SQUIDCTL_PASSWORD"); pw != "" {
		return pw, nil
	}

	// Prompt user for password (hide input)
	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr) // newline after password
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr) // newline after password
	return string(passwordBytes), nil
}

// NewDevice builds a closed Device from the connection flags, serial or
// WebSocket, without opening it.
func NewDevice() (*supracon.Device, string, error) {
	if wsURL != "" {
		// WebSocket mode
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		device := supracon.NewWebSocketDevice(wsURL, wsUsername, password, wsNoSSLVerify)
		return device, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		// Serial mode
		device := supracon.NewSerialDevice(portName, baudRate)
		return device, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// OpenDevice builds a Device from the connection flags and runs its full
// open sequence (global outputs to minimum, channel discovery).
func OpenDevice() (*supracon.Device, string, error) {
	device, connInfo, err := NewDevice()
	if err != nil {
		return nil, "", err
	}
	if err := device.Open(); err != nil {
		return nil, "", err
	}
	return device, connInfo, nil
}
