// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

package supracon

import "errors"

// Sentinel errors. Capability gaps are not errors at all: a gated operation
// on a channel that lacks the required capability bits returns (false, nil)
// without touching the wire.
var (
	// ErrValueOutOfRange reports a caller-supplied value outside its
	// documented physical range. Raised before any I/O.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrInvalidCommand reports a sub-parameter that is not legal for the
	// requested action. Raised before any I/O.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrProtocol reports a response that does not match the structurally
	// expected echo pattern. Treated as wire or hardware corruption; never
	// retried internally.
	ErrProtocol = errors.New("corrupted response")

	// ErrNotOpen reports an exchange attempted while the device is closed.
	ErrNotOpen = errors.New("device not open")

	// ErrReadTimeout reports that the device produced no response within
	// the read timeout.
	ErrReadTimeout = errors.New("read timeout")
)
