// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

package supracon

import (
	"fmt"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Device owns one Transport and the set of channels found by the discovery
// scan. The channel map is empty whenever the device is closed and populated
// only between a successful Open and the next Close.
//
// A Device is single-writer: operations block until their round-trip
// completes and the hardware observes them in issue order. Callers driving
// one Device from multiple goroutines must serialize access themselves.
type Device struct {
	dial      func() (Transport, error)
	transport Transport
	channels  map[byte]*Channel

	// Trace, when set, observes every frame crossing the wire. Direction
	// is "tx" or "rx".
	Trace func(direction string, f Frame)
}

// NewDevice creates a closed device that will connect through dial.
func NewDevice(dial func() (Transport, error)) *Device {
	return &Device{
		dial:     dial,
		channels: make(map[byte]*Channel),
	}
}

// NewSerialDevice creates a closed device on a local serial port.
func NewSerialDevice(portName string, baudRate int) *Device {
	return NewDevice(func() (Transport, error) {
		return OpenSerialTransport(portName, baudRate)
	})
}

// NewWebSocketDevice creates a closed device behind a serial-over-WebSocket
// bridge.
func NewWebSocketDevice(wsURL, username, password string, skipSSLVerify bool) *Device {
	return NewDevice(func() (Transport, error) {
		return OpenWebSocketTransport(wsURL, username, password, skipSSLVerify)
	})
}

// IsOpen reports whether the device currently owns a live Transport.
func (d *Device) IsOpen() bool {
	return d.transport != nil
}

// Open connects the transport, drives every global output to its minimum and
// scans all 32 addresses for responding channels. Each discovered channel is
// immediately initialized to its safe-default state. Calling Open on an open
// device is a no-op.
func (d *Device) Open() error {
	if d.IsOpen() {
		return nil
	}

	t, err := d.dial()
	if err != nil {
		return err
	}
	d.transport = t

	// Before any channel is addressed, drive detector bias, bias and offset
	// to their minimum on the broadcast address. Each command is chased by
	// the all-zero frame, which carries the hardware settling delay.
	for _, op := range []byte{broadcastDetectorBiasMin, broadcastBiasMin, broadcastOffsetMin} {
		if err := d.broadcastPair(op); err != nil {
			d.abandon()
			return err
		}
	}

	maps.Clear(d.channels)
	if err := d.scanChannels(); err != nil {
		d.abandon()
		return err
	}
	return nil
}

// scanChannels probes every possible channel address with the capability
// query. A present channel answers with the ack opcode and its capability
// mask; an absent address echoes the request verbatim; anything else means
// the scan got corrupted.
func (d *Device) scanChannels() error {
	for addr := byte(ChannelAddressMin); addr <= ChannelAddressMax; addr++ {
		req := Frame{Address: addr, Opcode: probeOpcode, Data0: probeData0, Data1: probeData1}
		if err := d.writeFrame(req); err != nil {
			return err
		}
		resp, err := d.readFrame()
		if err != nil {
			return err
		}

		switch {
		case resp.Opcode == OpcodeAck:
			mask := Capability(uint16(resp.Data0)<<8 | uint16(resp.Data1))
			ch := &Channel{device: d, address: addr, capabilities: mask}
			if err := ch.safeDefaults(); err != nil {
				return err
			}
			d.channels[addr] = ch
		case resp == req:
			// address not populated
		default:
			return fmt.Errorf("%w: capability scan of channel %d answered % X", ErrProtocol, addr, resp.Bytes())
		}
	}
	return nil
}

// Close tears every channel down to its safe-default state, drives the
// global DC bias to its minimum and releases the transport. Calling Close on
// a closed device is a no-op. Teardown is never retried: a channel that
// declines part of its shutdown sequence is left as-is and Close proceeds.
func (d *Device) Close() error {
	if !d.IsOpen() {
		return nil
	}

	var firstErr error
	for _, addr := range d.Channels() {
		if _, err := d.channels[addr].Teardown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	maps.Clear(d.channels)

	if err := d.broadcastPair(broadcastDCBiasMin); err != nil && firstErr == nil {
		firstErr = err
	}

	if err := d.transport.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	d.transport = nil
	return firstErr
}

// abandon releases the transport after a failed Open, keeping the
// closed-device invariant (no transport, no channels).
func (d *Device) abandon() {
	maps.Clear(d.channels)
	d.transport.Close()
	d.transport = nil
}

// Channels returns the discovered channel addresses in ascending order.
func (d *Device) Channels() []byte {
	addrs := maps.Keys(d.channels)
	slices.Sort(addrs)
	return addrs
}

// Channel returns the channel at the given address, if discovery found one.
func (d *Device) Channel(addr byte) (*Channel, bool) {
	ch, ok := d.channels[addr]
	return ch, ok
}

// RemoveChannel tears down and forgets a single channel without closing the
// device. The teardown result is reported like any other gated operation.
func (d *Device) RemoveChannel(addr byte) (bool, error) {
	ch, ok := d.channels[addr]
	if !ok {
		return false, nil
	}
	delete(d.channels, addr)
	return ch.Teardown()
}

// broadcastPair sends one raw broadcast opcode followed by the all-zero
// frame, reading back and discarding the 4-byte response to each.
func (d *Device) broadcastPair(opcode byte) error {
	for _, f := range []Frame{{Address: AddressBroadcast, Opcode: opcode}, zeroFrame} {
		if err := d.writeFrame(f); err != nil {
			return err
		}
		if _, err := d.readFrame(); err != nil {
			return err
		}
	}
	return nil
}

// writeFrame is the single transmission chokepoint. The all-zero broadcast
// frame requires a quiescent settling period before the write returns to the
// protocol layer, regardless of transport speed.
func (d *Device) writeFrame(f Frame) error {
	if !d.IsOpen() {
		return ErrNotOpen
	}
	if f == zeroFrame {
		time.Sleep(SettleDelay)
	}
	if d.Trace != nil {
		d.Trace("tx", f)
	}
	return d.transport.WriteFrame(f)
}

func (d *Device) readFrame() (Frame, error) {
	if !d.IsOpen() {
		return Frame{}, ErrNotOpen
	}
	f, err := d.transport.ReadFrame()
	if err != nil {
		return Frame{}, err
	}
	if d.Trace != nil {
		d.Trace("rx", f)
	}
	return f, nil
}

// communicate performs one raw round-trip: write the request, read exactly
// one frame back. Content is not interpreted here.
func (d *Device) communicate(addr, opcode, data0, data1 byte) (Frame, error) {
	if err := d.writeFrame(Frame{Address: addr, Opcode: opcode, Data0: data0, Data1: data1}); err != nil {
		return Frame{}, err
	}
	return d.readFrame()
}

// issue sends a command and reports whether the device acknowledged it. The
// expected acknowledgement repeats the request's address and data bytes with
// the opcode replaced by OpcodeAck; any other response is a normal
// "rejected/unsupported" outcome, not an error.
func (d *Device) issue(addr, opcode, data0, data1 byte) (bool, error) {
	resp, err := d.communicate(addr, opcode, data0, data1)
	if err != nil {
		return false, err
	}
	expected := Frame{Address: addr, Opcode: OpcodeAck, Data0: data0, Data1: data1}
	return resp == expected, nil
}

// query sends a read request whose data bytes encode a memory address and
// returns the two payload bytes of the response. The response must carry the
// request's address and the ack opcode; a mismatch there means the wire got
// corrupted and is a hard failure, unlike the boolean outcome of issue.
func (d *Device) query(addr, opcode, data0, data1 byte) ([2]byte, error) {
	resp, err := d.communicate(addr, opcode, data0, data1)
	if err != nil {
		return [2]byte{}, err
	}
	if resp.Address != addr || !resp.IsAck() {
		return [2]byte{}, fmt.Errorf("%w: query of channel %d answered % X", ErrProtocol, addr, resp.Bytes())
	}
	return [2]byte{resp.Data0, resp.Data1}, nil
}
