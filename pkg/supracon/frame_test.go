// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

package supracon

import (
	"errors"
	"testing"
)

// ============================================================
// Opcode Construction Tests
// ============================================================

func TestOpcode_DACOutput(t *testing.T) {
	// Exactly the five enumerated outputs are legal.
	legal := []struct {
		out  DACOutput
		want byte
	}{
		{DACDCBias, 0x08},
		{DACDCFlux, 0x09},
		{DACBias, 0x0A},
		{DACOffset, 0x0B},
		{DACFlux, 0x0C},
	}
	for _, tt := range legal {
		op, err := Opcode(ActionDACOutput, byte(tt.out))
		if err != nil {
			t.Fatalf("Opcode(DAC_OUTPUT, %d) error: %v", tt.out, err)
		}
		if op != tt.want {
			t.Errorf("Opcode(DAC_OUTPUT, %d) = 0x%02X, want 0x%02X", tt.out, op, tt.want)
		}
	}

	for _, param := range []byte{5, 6, 7} {
		if _, err := Opcode(ActionDACOutput, param); !errors.Is(err, ErrInvalidCommand) {
			t.Errorf("Opcode(DAC_OUTPUT, %d) error = %v, want ErrInvalidCommand", param, err)
		}
	}
}

func TestOpcode_SwitchFeedback(t *testing.T) {
	for param, want := range map[byte]byte{0: 0x58, 1: 0x59} {
		op, err := Opcode(ActionSwitchFeedback, param)
		if err != nil {
			t.Fatalf("Opcode(SWITCH_FEEDBACK, %d) error: %v", param, err)
		}
		if op != want {
			t.Errorf("Opcode(SWITCH_FEEDBACK, %d) = 0x%02X, want 0x%02X", param, op, want)
		}
	}
	for _, param := range []byte{2, 3, 7} {
		if _, err := Opcode(ActionSwitchFeedback, param); !errors.Is(err, ErrInvalidCommand) {
			t.Errorf("Opcode(SWITCH_FEEDBACK, %d) error = %v, want ErrInvalidCommand", param, err)
		}
	}
}

func TestOpcode_HardwiredSubParameters(t *testing.T) {
	// The encoded sub-parameters for these actions are a protocol quirk:
	// the caller passes 0 and the fixed value goes on the wire.
	op, err := Opcode(ActionSwitchACFlux, 0)
	if err != nil || op != 0x29 {
		t.Errorf("Opcode(SWITCH_AC_FLUX, 0) = 0x%02X, %v; want 0x29, nil", op, err)
	}
	op, err = Opcode(ActionSQUIDHeaterSwitch, 0)
	if err != nil || op != 0x32 {
		t.Errorf("Opcode(SQUID_HEATER_SWITCH, 0) = 0x%02X, %v; want 0x32, nil", op, err)
	}

	// Caller-supplied sub-parameters are not accepted for them.
	if _, err := Opcode(ActionSwitchACFlux, 1); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("Opcode(SWITCH_AC_FLUX, 1) error = %v, want ErrInvalidCommand", err)
	}
	if _, err := Opcode(ActionSQUIDHeaterSwitch, 2); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("Opcode(SQUID_HEATER_SWITCH, 2) error = %v, want ErrInvalidCommand", err)
	}
}

func TestOpcode_NoParameterActions(t *testing.T) {
	tests := []struct {
		action Action
		want   byte
	}{
		{ActionADCInput1, 0x10},
		{ActionADCInput95, 0x18},
		{ActionStartAutotune, 0x38},
		{ActionReadNVM, 0x40},
		{ActionWriteNVM, 0x48},
		{ActionSwitchTestIn, 0x50},
		{ActionChangeACFluxAmplitude, 0x60},
		{ActionSetDetectorHeater, 0x68},
	}
	for _, tt := range tests {
		op, err := Opcode(tt.action, 0)
		if err != nil {
			t.Fatalf("Opcode(%s, 0) error: %v", ActionName(tt.action), err)
		}
		if op != tt.want {
			t.Errorf("Opcode(%s, 0) = 0x%02X, want 0x%02X", ActionName(tt.action), op, tt.want)
		}
		if _, err := Opcode(tt.action, 1); !errors.Is(err, ErrInvalidCommand) {
			t.Errorf("Opcode(%s, 1) should reject a sub-parameter", ActionName(tt.action))
		}
	}
}

func TestOpcode_SetFLLMode(t *testing.T) {
	for mode, want := range map[FLLMode]byte{
		FLLModeLocked:    0x20,
		FLLModeReset:     0x21,
		FLLModeFastReset: 0x22,
	} {
		op, err := Opcode(ActionSetFLLMode, byte(mode))
		if err != nil || op != want {
			t.Errorf("Opcode(SET_FLL_MODE, %d) = 0x%02X, %v; want 0x%02X, nil", mode, op, err, want)
		}
	}
	if _, err := Opcode(ActionSetFLLMode, 3); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("Opcode(SET_FLL_MODE, 3) error = %v, want ErrInvalidCommand", err)
	}
}

func TestOpcode_UnknownAction(t *testing.T) {
	for _, action := range []Action{0x00, 0x0E, 0x1F} {
		if _, err := Opcode(action, 0); !errors.Is(err, ErrInvalidCommand) {
			t.Errorf("Opcode(0x%02X, 0) error = %v, want ErrInvalidCommand", byte(action), err)
		}
	}
}

// ============================================================
// Frame Tests
// ============================================================

func TestFrame_Bytes(t *testing.T) {
	f := Frame{Address: 0x05, Opcode: 0x0A, Data0: 0xBF, Data1: 0xFF}
	b := f.Bytes()
	if b != [4]byte{0x05, 0x0A, 0xBF, 0xFF} {
		t.Errorf("Bytes() = % X", b)
	}
	if FrameFromBytes(b) != f {
		t.Errorf("FrameFromBytes(Bytes()) != original")
	}
}

func TestFrame_IsAck(t *testing.T) {
	if !(Frame{Address: 1, Opcode: OpcodeAck}).IsAck() {
		t.Error("ack frame not recognized")
	}
	if (Frame{Address: 1, Opcode: 0x0A}).IsAck() {
		t.Error("command frame misread as ack")
	}
}
