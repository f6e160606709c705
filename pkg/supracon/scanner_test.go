// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

package supracon

import (
	"fmt"
	"io"
	"testing"

	"go.bug.st/serial/enumerator"
)

// fakeProbePort answers the scanner's probe. When echo is true it behaves
// like a listening controller; otherwise reads time out.
type fakeProbePort struct {
	echo    bool
	pending []byte
	closed  bool
}

func (p *fakeProbePort) Write(b []byte) (int, error) {
	if p.echo {
		p.pending = append(p.pending, b...)
	}
	return len(b), nil
}

func (p *fakeProbePort) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		return 0, nil // timeout, as the serial library reports it
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *fakeProbePort) Close() error {
	p.closed = true
	return nil
}

type scanFixture struct {
	scanner *Scanner
	opened  []Candidate
	ports   map[string]*fakeProbePort
}

// newScanFixture wires a Scanner to three fake ports of which only the
// second carries a controller, listening at the given baud rate.
func newScanFixture(responderBaud int) *scanFixture {
	fx := &scanFixture{ports: map[string]*fakeProbePort{}}
	details := []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyUSB2", IsUSB: true, VID: "10C4", PID: "EA60"},
	}
	fx.scanner = &Scanner{
		ListPorts: func() ([]*enumerator.PortDetails, error) {
			return details, nil
		},
		OpenPort: func(name string, baud int) (io.ReadWriteCloser, error) {
			fx.opened = append(fx.opened, Candidate{Port: name, Baud: baud})
			port := &fakeProbePort{echo: name == "/dev/ttyUSB1" && baud == responderBaud}
			fx.ports[fmt.Sprintf("%s@%d", name, baud)] = port
			return port, nil
		},
	}
	return fx
}

// ============================================================
// Scanner Tests
// ============================================================

func TestScan_FindsRespondingPortAndBaud(t *testing.T) {
	fx := newScanFixture(9600)

	found, err := fx.scanner.Scan(ScanOptions{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(found) != 1 || found[0] != (Candidate{Port: "/dev/ttyUSB1", Baud: 9600}) {
		t.Fatalf("Scan = %v, want [{/dev/ttyUSB1 9600}]", found)
	}

	// every opened port was closed again, match or not
	for key, port := range fx.ports {
		if !port.closed {
			t.Errorf("port %s left open", key)
		}
	}
}

func TestScan_ProbesBaudRatesInOrder(t *testing.T) {
	fx := newScanFixture(9600)
	if _, err := fx.scanner.Scan(ScanOptions{}); err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	wantBauds := []int{57600, 9600, 38400, 19200}
	for i, c := range fx.opened[:4] {
		if c.Port != "/dev/ttyUSB0" || c.Baud != wantBauds[i] {
			t.Errorf("probe %d = %v, want /dev/ttyUSB0 @ %d", i, c, wantBauds[i])
		}
	}
	if len(fx.opened) != 12 {
		t.Errorf("opened %d port/baud pairs, want 12", len(fx.opened))
	}
}

func TestScan_VIDPIDFilter(t *testing.T) {
	fx := newScanFixture(57600)
	if _, err := fx.scanner.Scan(ScanOptions{VID: "0403", PID: "6001"}); err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	for _, c := range fx.opened {
		if c.Port == "/dev/ttyUSB2" {
			t.Errorf("filtered-out port was probed: %v", c)
		}
	}

	// case-insensitive match
	fx = newScanFixture(57600)
	found, err := fx.scanner.Scan(ScanOptions{VID: "10c4", PID: "ea60"})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("Scan = %v, want no matches on the off-responder port", found)
	}
	if len(fx.opened) != 4 {
		t.Errorf("opened %d pairs, want 4 (one port, four bauds)", len(fx.opened))
	}
}

func TestScan_OpenFailureIsNonMatch(t *testing.T) {
	calls := 0
	s := &Scanner{
		ListPorts: func() ([]*enumerator.PortDetails, error) {
			return []*enumerator.PortDetails{{Name: "/dev/ttyS0"}, {Name: "/dev/ttyS1"}}, nil
		},
		OpenPort: func(name string, baud int) (io.ReadWriteCloser, error) {
			calls++
			return nil, fmt.Errorf("device busy")
		},
	}

	found, err := s.Scan(ScanOptions{BaudRates: []int{57600}})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("Scan = %v, want none", found)
	}
	if calls != 2 {
		t.Errorf("scan stopped early: %d opens, want 2", calls)
	}
}

func TestScan_GarbageReplyIsNonMatch(t *testing.T) {
	port := &fakeProbePort{}
	port.pending = []byte{0xDE, 0xAD, 0xBE, 0xEF}
	s := &Scanner{
		ListPorts: func() ([]*enumerator.PortDetails, error) {
			return []*enumerator.PortDetails{{Name: "/dev/ttyS0"}}, nil
		},
		OpenPort: func(name string, baud int) (io.ReadWriteCloser, error) {
			return port, nil
		},
	}

	found, err := s.Scan(ScanOptions{BaudRates: []int{57600}})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("Scan = %v, want none", found)
	}
	if !port.closed {
		t.Error("port left open after garbage reply")
	}
}
