// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

// Package supracon drives SupraCon multi-channel SQUID readout electronics
// over a point-to-point serial line.
//
// Every exchange on the wire is exactly four bytes in each direction: an
// address byte, an opcode byte (5-bit action, 3-bit sub-parameter) and two
// data bytes. A successful command is acknowledged by the device echoing the
// request with the opcode byte replaced by 0xFF. This package provides the
// frame codec, the engineering-unit scaling, channel discovery and the safe
// power-up/power-down sequencing.
package supracon

import "time"

// Addressing
const (
	ChannelAddressMin = 0x01
	ChannelAddressMax = 0x20
	AddressBroadcast  = 0xFF // pre-discovery global commands and the probe frame
)

// OpcodeAck is the opcode byte the device substitutes into a successful echo.
const OpcodeAck = 0xFF

// Action is the 5-bit operation code carried in bits 3-7 of the opcode byte.
type Action byte

// Action values
const (
	ActionDACOutput             Action = 0x01
	ActionADCInput1             Action = 0x02
	ActionADCInput95            Action = 0x03
	ActionSetFLLMode            Action = 0x04
	ActionSwitchACFlux          Action = 0x05
	ActionSQUIDHeaterSwitch     Action = 0x06
	ActionStartAutotune         Action = 0x07
	ActionReadNVM               Action = 0x08
	ActionWriteNVM              Action = 0x09
	ActionSwitchTestIn          Action = 0x0A
	ActionSwitchFeedback        Action = 0x0B
	ActionChangeACFluxAmplitude Action = 0x0C
	ActionSetDetectorHeater     Action = 0x0D // not in the manual
)

// DACOutput selects which DAC a DAC_OUTPUT action drives.
type DACOutput byte

// DAC output selectors
const (
	DACDCBias DACOutput = 0
	DACDCFlux DACOutput = 1
	DACBias   DACOutput = 2
	DACOffset DACOutput = 3
	DACFlux   DACOutput = 4
)

// FLLMode is the operating state of a channel's flux-locked loop.
type FLLMode byte

// FLL modes
const (
	FLLModeLocked    FLLMode = 0
	FLLModeReset     FLLMode = 1
	FLLModeFastReset FLLMode = 2 // not in the manual
)

// Nonvolatile memory addresses, passed as the second data byte of
// READ_NONVOLATILE_MEMORY / WRITE_NONVOLATILE_MEMORY exchanges.
const (
	NVMStartBias           = 0x00
	NVMEndBias             = 0x02
	NVMBias                = 0x04
	NVMOffset              = 0x06
	NVMFlux                = 0x08
	NVMModulationAmplitude = 0x0A
	NVMFirmware            = 0xF2
	NVMCreationDateHigh    = 0xF4
	NVMCreationDateLow     = 0xF6
	NVMSerialNumber        = 0xFA
)

// Capability is the per-channel bitmask reported by the discovery scan.
type Capability uint16

// Capability masks. A channel supports an operation set only when every bit
// of the corresponding mask is present.
const (
	CapStandard Capability = 0x0001 // bias/offset/flux, switches, heater, autotune
	CapExtended Capability = 0x0003 // detector bias/heater, fast FLL reset
)

// Broadcast drive-to-minimum opcode bytes, written raw to address 0xFF
// during the open/close sequences before any channel is known.
const (
	broadcastDCBiasMin       = 0x08
	broadcastDetectorBiasMin = 0x09
	broadcastBiasMin         = 0x0A
	broadcastOffsetMin       = 0x0B
)

// DefaultBaudRates is the probe order used by the Scanner. 57600 is the
// current factory setting; the slower rates are seen on legacy units.
var DefaultBaudRates = []int{57600, 9600, 38400, 19200}

// Timing. SettleDelay is a hardware settling requirement attached to the
// all-zero broadcast frame, not a transport timeout.
var (
	ReadTimeout  = 1 * time.Second
	ProbeTimeout = 500 * time.Millisecond
	SettleDelay  = 2 * time.Second
)

// AutotuneDuration is how long the hardware calibration routine runs after
// START_AUTOTUNE is acknowledged. The driver does not wait this out; callers
// must not address the channel before it elapses.
const AutotuneDuration = 6200 * time.Millisecond
