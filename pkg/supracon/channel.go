// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

package supracon

import (
	"encoding/binary"
	"fmt"
)

// Channel is one addressable electronics channel of an open Device. Channels
// are created by the discovery scan and hold no connection of their own;
// every exchange goes through the owning device, so commands on a single
// device never interleave.
//
// Gated operations return (false, nil) without any I/O when the channel's
// hardware lacks the required capability. A false result with a nil error
// otherwise means the device declined the command; errors are reserved for
// malformed input and transport or wire failures.
type Channel struct {
	device       *Device
	address      byte
	capabilities Capability
}

// Address returns the channel's wire address (1-32).
func (c *Channel) Address() byte {
	return c.address
}

// Capabilities returns the capability mask reported at discovery.
func (c *Channel) Capabilities() Capability {
	return c.capabilities
}

// supports is the one capability predicate every gated operation consults:
// all bits of the mask must be present.
func (c *Channel) supports(mask Capability) bool {
	return c.capabilities&mask == mask
}

// sendScaled encodes a physical value through the range's codec and issues
// it as the command's data bytes.
func (c *Channel) sendScaled(opcode byte, value float64, r Range) (bool, error) {
	hi, lo, err := r.Encode(value)
	if err != nil {
		return false, err
	}
	return c.device.issue(c.address, opcode, hi, lo)
}

// ---- DAC setters ----

// SetBias sets the SQUID bias voltage.
func (c *Channel) SetBias(volts float64) (bool, error) {
	if !c.supports(CapStandard) {
		return false, nil
	}
	return c.sendScaled(mustOpcode(ActionDACOutput, byte(DACBias)), volts, BiasRange)
}

// SetOffset sets the output offset voltage.
func (c *Channel) SetOffset(volts float64) (bool, error) {
	if !c.supports(CapStandard) {
		return false, nil
	}
	return c.sendScaled(mustOpcode(ActionDACOutput, byte(DACOffset)), volts, OffsetRange)
}

// SetFlux sets the DC flux bias.
func (c *Channel) SetFlux(volts float64) (bool, error) {
	if !c.supports(CapStandard) {
		return false, nil
	}
	return c.sendScaled(mustOpcode(ActionDACOutput, byte(DACFlux)), volts, FluxRange)
}

// SetDCBias sets the DC bias output.
func (c *Channel) SetDCBias(volts float64) (bool, error) {
	if !c.supports(CapStandard) {
		return false, nil
	}
	return c.sendScaled(mustOpcode(ActionDACOutput, byte(DACDCBias)), volts, DCBiasRange)
}

// SetDetectorBias sets the detector bias current in microamperes.
func (c *Channel) SetDetectorBias(microamps float64) (bool, error) {
	if !c.supports(CapExtended) {
		return false, nil
	}
	return c.sendScaled(mustOpcode(ActionDACOutput, byte(DACDCFlux)), microamps, DetectorBiasRange)
}

// ---- Switches ----

// ACFlux switches the internal AC flux modulation on or off.
func (c *Channel) ACFlux(on bool) (bool, error) {
	if !c.supports(CapStandard) {
		return false, nil
	}
	return c.device.issue(c.address, mustOpcode(ActionSwitchACFlux, 0), 0x00, boolByte(on))
}

// TestIn switches the test input on or off.
func (c *Channel) TestIn(on bool) (bool, error) {
	if !c.supports(CapStandard) {
		return false, nil
	}
	return c.device.issue(c.address, mustOpcode(ActionSwitchTestIn, 0), 0x00, boolByte(on))
}

// Feedback switches the feedback loop on or off.
func (c *Channel) Feedback(on bool) (bool, error) {
	if !c.supports(CapStandard) {
		return false, nil
	}
	return c.device.issue(c.address, mustOpcode(ActionSwitchFeedback, boolByte(on)), 0x00, 0x00)
}

// ResetFLL places the flux-locked loop into reset mode (true) or back into
// locked operation (false).
func (c *Channel) ResetFLL(on bool) (bool, error) {
	if !c.supports(CapStandard) {
		return false, nil
	}
	mode := FLLModeLocked
	if on {
		mode = FLLModeReset
	}
	return c.device.issue(c.address, mustOpcode(ActionSetFLLMode, byte(mode)), 0x00, 0x00)
}

// FastResetFLL pulses the fast reset of the flux-locked loop.
func (c *Channel) FastResetFLL() (bool, error) {
	if !c.supports(CapExtended) {
		return false, nil
	}
	return c.device.issue(c.address, mustOpcode(ActionSetFLLMode, byte(FLLModeFastReset)), 0x00, 0x00)
}

// ---- Heaters ----

// HeatSQUID pulses the SQUID heater for the given duration in milliseconds.
func (c *Channel) HeatSQUID(durationMs int) (bool, error) {
	if !c.supports(CapStandard) {
		return false, nil
	}
	if durationMs < 0 || durationMs > 0xFFFF {
		return false, fmt.Errorf("%w: heater duration %d ms not in [0, 65535]", ErrValueOutOfRange, durationMs)
	}
	return c.device.issue(c.address, mustOpcode(ActionSQUIDHeaterSwitch, 0),
		byte(durationMs>>8), byte(durationMs))
}

// HeatDetector sets the detector heater current in microamperes.
func (c *Channel) HeatDetector(microamps float64) (bool, error) {
	if !c.supports(CapExtended) {
		return false, nil
	}
	return c.sendScaled(mustOpcode(ActionSetDetectorHeater, 0), microamps, DetectorHeaterRange)
}

// ---- AC flux amplitude ----

// ChangeACFluxAmplitudeBy adjusts the internal AC flux amplitude by a signed
// number of steps. A delta of zero succeeds without touching the wire.
func (c *Channel) ChangeACFluxAmplitudeBy(delta int) (bool, error) {
	if !c.supports(CapStandard) {
		return false, nil
	}
	if delta < -0x8000 || delta >= 0x8000 {
		return false, fmt.Errorf("%w: amplitude delta %d not a signed 16-bit value", ErrValueOutOfRange, delta)
	}
	if delta == 0 {
		return true, nil
	}
	code := uint16(int16(delta))
	return c.device.issue(c.address, mustOpcode(ActionChangeACFluxAmplitude, 0),
		byte(code>>8), byte(code))
}

// ---- ADC ----

// ADCGain selects the input amplification of an ADC sample.
type ADCGain int

// ADC gain settings
const (
	ADCGain1  ADCGain = 1
	ADCGain95 ADCGain = 95
)

// ReadADC samples the channel's input at the given gain and returns the
// value decoded over the ±2.5 V range. ok is false when the channel hardware
// does not implement the sampler.
func (c *Channel) ReadADC(gain ADCGain) (value float64, ok bool, err error) {
	if !c.supports(CapStandard) {
		return 0, false, nil
	}
	action := ActionADCInput1
	if gain == ADCGain95 {
		action = ActionADCInput95
	} else if gain != ADCGain1 {
		return 0, false, fmt.Errorf("%w: ADC gain %d", ErrInvalidCommand, gain)
	}
	data, err := c.device.query(c.address, mustOpcode(action, 0), 0x00, 0x00)
	if err != nil {
		return 0, false, err
	}
	return BiasRange.Decode(data[0], data[1]), true, nil
}

// ---- Autotune ----

// Autotune runs the hardware calibration routine over the given bias window.
// The sequence zeroes offset and flux, holds the loop in reset, disables AC
// flux and test input, stores the window bounds in nonvolatile memory and
// triggers the tune. Every step runs even if an earlier one is declined; the
// result is the logical AND of all steps and nothing is rolled back, so a
// false result can leave the channel partially reconfigured.
//
// The routine takes about 6.2 s inside the hardware (AutotuneDuration). The
// driver does not wait it out; the caller must not address this channel
// before it elapses.
func (c *Channel) Autotune(startBias, endBias float64) (bool, error) {
	if !c.supports(CapStandard) {
		return false, nil
	}

	writeNVM := mustOpcode(ActionWriteNVM, 0)
	steps := []func() (bool, error){
		func() (bool, error) { return c.SetOffset(0) },
		func() (bool, error) { return c.SetFlux(0) },
		func() (bool, error) { return c.ResetFLL(true) },
		func() (bool, error) { return c.ACFlux(false) },
		func() (bool, error) { return c.TestIn(false) },
		func() (bool, error) { return c.device.issue(c.address, writeNVM, 0x00, NVMStartBias) },
		func() (bool, error) { return c.sendScaled(writeNVM, startBias, AutotuneBiasRange) },
		func() (bool, error) { return c.device.issue(c.address, writeNVM, 0x00, NVMEndBias) },
		func() (bool, error) { return c.sendScaled(writeNVM, endBias, AutotuneBiasRange) },
		func() (bool, error) { return c.device.issue(c.address, mustOpcode(ActionStartAutotune, 0), 0x00, 0x00) },
	}

	ok := true
	for _, step := range steps {
		stepOK, err := step()
		if err != nil {
			return false, err
		}
		ok = ok && stepOK
	}
	return ok, nil
}

// ---- Nonvolatile metadata ----

func (c *Channel) readNVM(nvmAddr byte) ([2]byte, error) {
	return c.device.query(c.address, mustOpcode(ActionReadNVM, 0), 0x00, nvmAddr)
}

// Firmware returns the channel's firmware revision.
func (c *Channel) Firmware() (uint16, error) {
	data, err := c.readNVM(NVMFirmware)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(data[:]), nil
}

// CreationDate returns the channel's raw creation date word.
func (c *Channel) CreationDate() (uint32, error) {
	high, err := c.readNVM(NVMCreationDateHigh)
	if err != nil {
		return 0, err
	}
	low, err := c.readNVM(NVMCreationDateLow)
	if err != nil {
		return 0, err
	}
	return uint32(binary.BigEndian.Uint16(high[:]))<<16 | uint32(binary.BigEndian.Uint16(low[:])), nil
}

// SerialNumber returns the channel's serial number.
func (c *Channel) SerialNumber() (uint16, error) {
	data, err := c.readNVM(NVMSerialNumber)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(data[:]), nil
}

// AutotuneRange returns the stored tune window bounds.
func (c *Channel) AutotuneRange() (startBias, endBias float64, err error) {
	start, err := c.readNVM(NVMStartBias)
	if err != nil {
		return 0, 0, err
	}
	end, err := c.readNVM(NVMEndBias)
	if err != nil {
		return 0, 0, err
	}
	return AutotuneBiasRange.Decode(start[0], start[1]), AutotuneBiasRange.Decode(end[0], end[1]), nil
}

// AutotuneBias returns the bias the last tune settled on.
func (c *Channel) AutotuneBias() (float64, error) {
	return c.readScaledNVM(NVMBias)
}

// AutotuneOffset returns the offset the last tune settled on.
func (c *Channel) AutotuneOffset() (float64, error) {
	return c.readScaledNVM(NVMOffset)
}

// AutotuneFlux returns the flux the last tune settled on.
func (c *Channel) AutotuneFlux() (float64, error) {
	return c.readScaledNVM(NVMFlux)
}

func (c *Channel) readScaledNVM(nvmAddr byte) (float64, error) {
	data, err := c.readNVM(nvmAddr)
	if err != nil {
		return 0, err
	}
	return AutotuneBiasRange.Decode(data[0], data[1]), nil
}

// ---- Lifecycle ----

// safeDefaults pushes the power-up state the channel must present before a
// caller touches it: all outputs zero, AC flux modulation driven down and
// off, test input off. Declined steps are skipped silently (capability
// gaps); only transport and wire failures abort.
func (c *Channel) safeDefaults() error {
	steps := []func() (bool, error){
		func() (bool, error) { return c.SetDetectorBias(0) },
		func() (bool, error) { return c.SetDCBias(0) },
		func() (bool, error) { return c.SetOffset(0) },
		func() (bool, error) { return c.SetFlux(0) },
		func() (bool, error) { return c.ChangeACFluxAmplitudeBy(-12) },
		func() (bool, error) { return c.ACFlux(false) },
		func() (bool, error) { return c.TestIn(false) },
		func() (bool, error) { return c.SetBias(0) },
	}
	for _, step := range steps {
		if _, err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Teardown re-applies the safe-default sequence and parks the flux-locked
// loop in reset. Called deterministically by Device.Close and
// Device.RemoveChannel rather than left to garbage collection. A partially
// applied teardown is reported, never retried.
func (c *Channel) Teardown() (bool, error) {
	steps := []func() (bool, error){
		func() (bool, error) { return c.SetDetectorBias(0) },
		func() (bool, error) { return c.SetDCBias(0) },
		func() (bool, error) { return c.SetBias(0) },
		func() (bool, error) { return c.SetOffset(0) },
		func() (bool, error) { return c.SetFlux(0) },
		func() (bool, error) { return c.ResetFLL(true) },
		func() (bool, error) { return c.ACFlux(false) },
		func() (bool, error) { return c.TestIn(false) },
	}
	ok := true
	for _, step := range steps {
		stepOK, err := step()
		if err != nil {
			return false, err
		}
		ok = ok && stepOK
	}
	return ok, nil
}

func boolByte(on bool) byte {
	if on {
		return 1
	}
	return 0
}
