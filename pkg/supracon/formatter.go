// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

package supracon

import "fmt"

// ActionName returns the human-readable name for an action code.
func ActionName(action Action) string {
	switch action {
	case ActionDACOutput:
		return "DAC_OUTPUT"
	case ActionADCInput1:
		return "ADC_INPUT_1"
	case ActionADCInput95:
		return "ADC_INPUT_95"
	case ActionSetFLLMode:
		return "SET_FLL_MODE"
	case ActionSwitchACFlux:
		return "SWITCH_AC_FLUX"
	case ActionSQUIDHeaterSwitch:
		return "SQUID_HEATER_SWITCH"
	case ActionStartAutotune:
		return "START_AUTOTUNE"
	case ActionReadNVM:
		return "READ_NONVOLATILE_MEMORY"
	case ActionWriteNVM:
		return "WRITE_NONVOLATILE_MEMORY"
	case ActionSwitchTestIn:
		return "SWITCH_TEST_IN"
	case ActionSwitchFeedback:
		return "SWITCH_FEEDBACK"
	case ActionChangeACFluxAmplitude:
		return "CHANGE_INTERNAL_AC_FLUX_AMPLITUDE"
	case ActionSetDetectorHeater:
		return "SET_DETECTOR_HEATER_CURRENT"
	default:
		return "UNKNOWN"
	}
}

func dacOutputName(out DACOutput) string {
	switch out {
	case DACDCBias:
		return "DC_BIAS"
	case DACDCFlux:
		return "DC_FLUX"
	case DACBias:
		return "BIAS"
	case DACOffset:
		return "OFFSET"
	case DACFlux:
		return "FLUX"
	default:
		return "UNKNOWN"
	}
}

func fllModeName(mode FLLMode) string {
	switch mode {
	case FLLModeLocked:
		return "FLL_MODE"
	case FLLModeReset:
		return "RESET_MODE"
	case FLLModeFastReset:
		return "FAST_RESET_MODE"
	default:
		return "UNKNOWN"
	}
}

func addressName(addr byte) string {
	if addr == AddressBroadcast {
		return "broadcast"
	}
	return fmt.Sprintf("ch %d", addr)
}

// FormatFrame renders a frame for the monitor and debug commands: address,
// decoded opcode and data bytes, plus the physical value for actions that
// carry a scaled quantity.
func FormatFrame(f Frame) string {
	if f.IsAck() {
		return fmt.Sprintf("[%s] ACK data=%02X %02X", addressName(f.Address), f.Data0, f.Data1)
	}

	action := Action(f.Opcode >> 3)
	param := f.Opcode & 0x07
	desc := ActionName(action)

	switch action {
	case ActionDACOutput:
		desc += "/" + dacOutputName(DACOutput(param))
	case ActionSetFLLMode:
		desc += "/" + fllModeName(FLLMode(param))
	default:
		if param != 0 {
			desc += fmt.Sprintf("/%d", param)
		}
	}

	result := fmt.Sprintf("[%s] %s data=%02X %02X", addressName(f.Address), desc, f.Data0, f.Data1)

	switch action {
	case ActionDACOutput:
		switch DACOutput(param) {
		case DACDCFlux:
			result += fmt.Sprintf(" (%.2f uA)", DetectorBiasRange.Decode(f.Data0, f.Data1))
		case DACBias, DACOffset, DACFlux, DACDCBias:
			result += fmt.Sprintf(" (%.4f V)", BiasRange.Decode(f.Data0, f.Data1))
		}
	case ActionSQUIDHeaterSwitch:
		result += fmt.Sprintf(" (%d ms)", uint16(f.Data0)<<8|uint16(f.Data1))
	case ActionSetDetectorHeater:
		result += fmt.Sprintf(" (%.2f uA)", DetectorHeaterRange.Decode(f.Data0, f.Data1))
	case ActionChangeACFluxAmplitude:
		result += fmt.Sprintf(" (delta %d)", int16(uint16(f.Data0)<<8|uint16(f.Data1)))
	}

	return result
}
