// Package fixedpoint implements the unsigned Q64.64 fixed-point type the
// tokenomic engine requires: 64 integer bits, 64 fractional bits,
// saturating arithmetic, truncating toward zero on division.
//
// No third-party Go module provides an unsigned Q64.64 type with these
// exact overflow and rounding semantics, so this package is built on
// math/big (see DESIGN.md for the justification).
package fixedpoint

import (
	"encoding/hex"
	"encoding/json"
	"math"
	"math/big"
)

const fracBits = 64

// FixedPoint is an unsigned 64.64 fixed-point number. The zero value is 0.
type FixedPoint struct {
	raw big.Int // raw = value * 2^64, always >= 0
}

var (
	one    = new(big.Int).Lsh(big.NewInt(1), fracBits)
	maxRaw = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 2*fracBits), big.NewInt(1))
)

// Zero is the additive identity.
func Zero() FixedPoint { return FixedPoint{} }

// FromUint64 builds a FixedPoint from an integer count (e.g. p_bench =
// from_num(init_p) in gk.rs).
func FromUint64(n uint64) FixedPoint {
	var f FixedPoint
	f.raw.Lsh(new(big.Int).SetUint64(n), fracBits)
	return f
}

// FromBits reconstructs a FixedPoint from its raw 128-bit big-endian wire
// representation.
func FromBits(bits [16]byte) FixedPoint {
	var f FixedPoint
	f.raw.SetBytes(bits[:])
	return f
}

// Bits returns the raw 128-bit big-endian wire representation.
func (f FixedPoint) Bits() [16]byte {
	var out [16]byte
	b := f.raw.Bytes()
	copy(out[16-len(b):], b)
	return out
}

// MarshalJSON renders the raw bit pattern as a hex string, so a
// FixedPoint survives a JSON-encoded transport hop (e.g. transport/kafka's
// inbound envelopes) without leaking math/big's own JSON shape.
func (f FixedPoint) MarshalJSON() ([]byte, error) {
	bits := f.Bits()
	return json.Marshal(hex.EncodeToString(bits[:]))
}

// UnmarshalJSON reverses MarshalJSON.
func (f *FixedPoint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	var bits [16]byte
	copy(bits[16-len(b):], b)
	*f = FromBits(bits)
	return nil
}

// MustParseDecimal parses a base-10 literal (e.g. "1.000000666600231")
// into the nearest representable FixedPoint, truncating toward zero. It
// panics on malformed input, intended for compile-time-constant-style
// parameter tables (tokenomic.DefaultParams), never for untrusted input.
func MustParseDecimal(s string) FixedPoint {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		panic("fixedpoint: invalid decimal literal " + s)
	}
	if r.Sign() < 0 {
		panic("fixedpoint: negative literal " + s)
	}
	num := new(big.Int).Lsh(r.Num(), fracBits)
	var f FixedPoint
	f.raw.Quo(num, r.Denom())
	return f
}

func clampRaw(v *big.Int) big.Int {
	if v.Sign() < 0 {
		return big.Int{}
	}
	if v.Cmp(maxRaw) > 0 {
		return *maxRaw
	}
	return *v
}

// Add returns a+b, saturating at the representable maximum.
func (a FixedPoint) Add(b FixedPoint) FixedPoint {
	sum := new(big.Int).Add(&a.raw, &b.raw)
	return FixedPoint{raw: clampRaw(sum)}
}

// Sub returns a-b, saturating at zero (these are unsigned quantities).
func (a FixedPoint) Sub(b FixedPoint) FixedPoint {
	diff := new(big.Int).Sub(&a.raw, &b.raw)
	return FixedPoint{raw: clampRaw(diff)}
}

// Mul returns a*b, saturating at the representable maximum.
func (a FixedPoint) Mul(b FixedPoint) FixedPoint {
	prod := new(big.Int).Mul(&a.raw, &b.raw)
	prod.Rsh(prod, fracBits)
	return FixedPoint{raw: clampRaw(prod)}
}

// Div returns a/b, truncating toward zero. Division by zero returns
// zero rather than panicking: arithmetic never panics on numeric
// bounds, and every caller in this codebase only divides after
// confirming the divisor is non-zero.
func (a FixedPoint) Div(b FixedPoint) FixedPoint {
	if b.raw.Sign() == 0 {
		return Zero()
	}
	num := new(big.Int).Lsh(&a.raw, fracBits)
	num.Quo(num, &b.raw)
	return FixedPoint{raw: clampRaw(num)}
}

// Sqrt returns floor(sqrt(a)) in Q64.64.
func (a FixedPoint) Sqrt() FixedPoint {
	scaled := new(big.Int).Lsh(&a.raw, fracBits)
	var f FixedPoint
	f.raw.Sqrt(scaled)
	return f
}

// Min and Max are the saturating-bound helpers used throughout the
// tokenomic update rules (v = min(v+delta_v, v_max), etc.)
func (a FixedPoint) Min(b FixedPoint) FixedPoint {
	if a.raw.Cmp(&b.raw) <= 0 {
		return a
	}
	return b
}

func (a FixedPoint) Max(b FixedPoint) FixedPoint {
	if a.raw.Cmp(&b.raw) >= 0 {
		return a
	}
	return b
}

func (a FixedPoint) Cmp(b FixedPoint) int { return a.raw.Cmp(&b.raw) }

func (a FixedPoint) IsZero() bool { return a.raw.Sign() == 0 }

func (a FixedPoint) GreaterThan(b FixedPoint) bool { return a.Cmp(b) > 0 }
func (a FixedPoint) LessThan(b FixedPoint) bool    { return a.Cmp(b) < 0 }

// String renders the value in base-10 with full fractional precision,
// for logging and test assertions.
func (a FixedPoint) String() string {
	r := new(big.Rat).SetFrac(&a.raw, one)
	return r.FloatString(20)
}

// RawUnits returns the raw 2^-64-scaled value as an int64, for metering
// only (rcrowley/go-metrics meters take int64), saturating at
// math.MaxInt64: any value of 0.5 or more has a raw value of at least
// 2^63 and reports math.MaxInt64. Never used for anything
// ledger-authoritative.
func (a FixedPoint) RawUnits() int64 {
	if !a.raw.IsInt64() {
		return math.MaxInt64
	}
	return a.raw.Int64()
}
