// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

package supracon

import "fmt"

// Frame is the 4-byte wire unit: address, opcode, two data bytes. Requests
// and responses share the layout; a successful response repeats the
// request's address and data with the opcode replaced by OpcodeAck.
type Frame struct {
	Address byte
	Opcode  byte
	Data0   byte
	Data1   byte
}

// Bytes returns the frame in transmission order.
func (f Frame) Bytes() [4]byte {
	return [4]byte{f.Address, f.Opcode, f.Data0, f.Data1}
}

// FrameFromBytes reassembles a frame from four received bytes.
func FrameFromBytes(b [4]byte) Frame {
	return Frame{Address: b[0], Opcode: b[1], Data0: b[2], Data1: b[3]}
}

// IsAck reports whether the frame carries the acknowledgement opcode.
func (f Frame) IsAck() bool {
	return f.Opcode == OpcodeAck
}

// zeroFrame is the all-zero broadcast frame. Transmitting it triggers the
// mandatory hardware settling delay (see SettleDelay).
var zeroFrame = Frame{Address: AddressBroadcast}

// probeFrame is the capability-query payload sent during discovery and by
// the Scanner (on address 0x00). An absent address echoes it back verbatim.
const (
	probeOpcode = 0x40 // ActionReadNVM << 3
	probeData0  = 0x00
	probeData1  = 0xF0
)

// Opcode builds the opcode byte for an action: the 5-bit action code in bits
// 3-7 OR'd with a 3-bit sub-parameter. Each action constrains which
// sub-parameters are legal, and for SWITCH_AC_FLUX and SQUID_HEATER_SWITCH
// the encoded sub-parameter is hardwired by the protocol (1 and 2); callers
// pass 0 for every action that takes no sub-parameter of its own.
func Opcode(action Action, param byte) (byte, error) {
	switch action {
	case ActionDACOutput:
		if param <= byte(DACFlux) {
			return byte(action)<<3 | param, nil
		}
	case ActionSetFLLMode:
		if param <= byte(FLLModeFastReset) {
			return byte(action)<<3 | param, nil
		}
	case ActionSwitchFeedback:
		if param <= 1 {
			return byte(action)<<3 | param, nil
		}
	case ActionSwitchACFlux:
		if param == 0 {
			return byte(action)<<3 | 1, nil
		}
	case ActionSQUIDHeaterSwitch:
		if param == 0 {
			return byte(action)<<3 | 2, nil
		}
	case ActionADCInput1, ActionADCInput95, ActionStartAutotune,
		ActionReadNVM, ActionWriteNVM, ActionSwitchTestIn,
		ActionChangeACFluxAmplitude, ActionSetDetectorHeater:
		if param == 0 {
			return byte(action) << 3, nil
		}
	}
	return 0, fmt.Errorf("%w: action 0x%02X parameter %d", ErrInvalidCommand, byte(action), param)
}

// mustOpcode is for opcodes whose arguments are fixed at compile time.
func mustOpcode(action Action, param byte) byte {
	op, err := Opcode(action, param)
	if err != nil {
		panic(err)
	}
	return op
}
