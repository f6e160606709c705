// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

package supracon

import (
	"fmt"
	"math"
)

// Range is the linear mapping between a bounded physical quantity and the
// unsigned 16-bit big-endian code the electronics expect. The same mapping
// serves every scaled quantity in the protocol; each call site supplies the
// quantity's documented limits.
type Range struct {
	Min float64
	Max float64
}

// Physical range limits. Several of these are flagged uncertain in the
// hardware manual (the DC bias limits and the detector bias limits in
// particular), so they are variables rather than constants: a corrected
// manual changes one value here without touching protocol logic.
var (
	BiasRange         = Range{-2.5, 2.5} // V
	OffsetRange       = Range{-2.5, 2.5} // V
	FluxRange         = Range{-2.5, 2.5} // V
	DCBiasRange       = Range{-2.5, 2.5} // V, limits might be incorrect
	AutotuneBiasRange = Range{-2.5, 2.5} // V, also used to decode stored tune values

	DetectorBiasRange   = Range{0.0, 250.0}  // µA, might be an error in the manual
	DetectorHeaterRange = Range{0.0, 1000.0} // µA
)

// Encode maps a value inside the closed interval [Min, Max] to its 16-bit
// code, returned as two big-endian bytes. Out-of-range input is a contract
// violation, not a clamp. The check is phrased positively so NaN falls out
// of the interval with everything else.
func (r Range) Encode(v float64) (hi, lo byte, err error) {
	if !(v >= r.Min && v <= r.Max) {
		return 0, 0, fmt.Errorf("%w: %g not in [%g, %g]", ErrValueOutOfRange, v, r.Min, r.Max)
	}
	code := uint16(math.Round((v - r.Min) / (r.Max - r.Min) * 0xFFFF))
	return byte(code >> 8), byte(code), nil
}

// Decode maps a 16-bit code back to a value. Total: every code decodes to a
// value inside the range.
func (r Range) Decode(hi, lo byte) float64 {
	code := uint16(hi)<<8 | uint16(lo)
	return float64(code)/0x10000*(r.Max-r.Min) + r.Min
}

// Step is the quantization step of the encoding, the worst-case round-trip
// error bound.
func (r Range) Step() float64 {
	return (r.Max - r.Min) / 0xFFFF
}
