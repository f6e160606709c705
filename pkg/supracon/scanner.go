// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

package supracon

import (
	"io"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Candidate is a (port, baud rate) pair on which a readout controller
// answered the probe frame.
type Candidate struct {
	Port string
	Baud int
}

// ScanOptions narrows the scan. Empty VID/PID match every port; an empty
// baud list falls back to DefaultBaudRates.
type ScanOptions struct {
	VID       string
	PID       string
	BaudRates []int
}

// Scanner probes serial ports for a responding readout controller. It is
// independent of any open Device: the scan opens and closes each candidate
// port itself.
//
// The list and open hooks exist for tests; zero-value defaults use the real
// port enumerator and serial library.
type Scanner struct {
	ListPorts func() ([]*enumerator.PortDetails, error)
	OpenPort  func(portName string, baudRate int) (io.ReadWriteCloser, error)
}

// NewScanner returns a scanner backed by the real serial ports of the host.
func NewScanner() *Scanner {
	return &Scanner{
		ListPorts: enumerator.GetDetailedPortsList,
		OpenPort:  openProbePort,
	}
}

func openProbePort(portName string, baudRate int) (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(ProbeTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// Scan tries the probe frame on every matching port at every candidate baud
// rate and collects the pairs that echo it back exactly. Timeouts and I/O
// errors on a candidate are non-matches, not failures: the scan moves on.
func (s *Scanner) Scan(opts ScanOptions) ([]Candidate, error) {
	ports, err := s.ListPorts()
	if err != nil {
		return nil, err
	}

	bauds := opts.BaudRates
	if len(bauds) == 0 {
		bauds = DefaultBaudRates
	}

	found := []Candidate{}
	for _, port := range ports {
		if !matchesID(port, opts) {
			continue
		}
		for _, baud := range bauds {
			if s.probe(port.Name, baud) {
				found = append(found, Candidate{Port: port.Name, Baud: baud})
			}
		}
	}
	return found, nil
}

// probe sends the probe frame and reports whether the port echoed it back.
// The port is always closed again, match or not.
func (s *Scanner) probe(portName string, baudRate int) bool {
	port, err := s.OpenPort(portName, baudRate)
	if err != nil {
		return false
	}
	defer port.Close()

	request := []byte{0x00, probeOpcode, probeData0, probeData1}
	if _, err := port.Write(request); err != nil {
		return false
	}

	var response [4]byte
	for filled := 0; filled < len(response); {
		n, err := port.Read(response[filled:])
		if err != nil || n == 0 {
			return false
		}
		filled += n
	}

	return string(response[:]) == string(request)
}

func matchesID(port *enumerator.PortDetails, opts ScanOptions) bool {
	if opts.VID != "" && !strings.EqualFold(port.VID, opts.VID) {
		return false
	}
	if opts.PID != "" && !strings.EqualFold(port.PID, opts.PID) {
		return false
	}
	return true
}
