// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"math/big"
)

// A Bit is a two-state logic value. Undefined and high-impedance states are
// not representable.
type Bit = bool

// MaxWidth is the maximum bit width accepted by integer conversions.
const MaxWidth = 4096

// A BitVec is an ordered sequence of bits. Index 0 is the least significant
// bit. Slicing and concatenation use the native slice operations; Append is
// provided for symmetry with the conversion helpers.
type BitVec []Bit

// Append returns v with the bits of w appended above v's most significant
// bit.
func (v BitVec) Append(w BitVec) BitVec {
	return append(v, w...)
}

// String renders the vector most significant bit first.
func (v BitVec) String() string {
	b := make([]byte, len(v))
	for i, bit := range v {
		if bit {
			b[len(v)-1-i] = '1'
		} else {
			b[len(v)-1-i] = '0'
		}
	}
	return string(b)
}

// Uint64 interprets v as an unsigned integer. len(v) must not exceed 64.
func (v BitVec) Uint64() (uint64, error) {
	if len(v) > 64 {
		return 0, errf(KindValueOutOfRange, "", "%d bits do not fit in uint64", len(v))
	}
	var x uint64
	for i, bit := range v {
		if bit {
			x |= 1 << uint(i)
		}
	}
	return x, nil
}

// Int64 interprets v as a two's complement signed integer. len(v) must not
// exceed 64.
func (v BitVec) Int64() (int64, error) {
	x, err := v.Uint64()
	if err != nil {
		return 0, err
	}
	if n := len(v); n > 0 && n < 64 && v[n-1] {
		// sign extend
		x |= ^uint64(0) << uint(n)
	}
	return int64(x), nil
}

// Big interprets v as an integer of arbitrary width, two's complement when
// signed is true.
func (v BitVec) Big(signed bool) *big.Int {
	x := new(big.Int)
	for i, bit := range v {
		if bit {
			x.SetBit(x, i, 1)
		}
	}
	if signed && len(v) > 0 && v[len(v)-1] {
		m := new(big.Int).Lsh(big.NewInt(1), uint(len(v)))
		x.Sub(x, m)
	}
	return x
}

// UintBits returns the width-bit little-endian decomposition of x. x must
// fit in width bits.
func UintBits(x uint64, width int) (BitVec, error) {
	if width < 1 || width > MaxWidth {
		return nil, errf(KindValueOutOfRange, "", "invalid bit width %d", width)
	}
	if width < 64 && x>>uint(width) != 0 {
		return nil, errf(KindValueOutOfRange, "", "%d does not fit in %d unsigned bits", x, width)
	}
	v := make(BitVec, width)
	for i := range v {
		v[i] = i < 64 && x&(1<<uint(i)) != 0
	}
	return v, nil
}

// IntBits returns the width-bit two's complement decomposition of x. x must
// be in [-2^(width-1), 2^(width-1)-1].
func IntBits(x int64, width int) (BitVec, error) {
	if width < 1 || width > MaxWidth {
		return nil, errf(KindValueOutOfRange, "", "invalid bit width %d", width)
	}
	if width < 64 {
		lo, hi := int64(-1)<<uint(width-1), int64(1)<<uint(width-1)-1
		if x < lo || x > hi {
			return nil, errf(KindValueOutOfRange, "", "%d does not fit in %d signed bits", x, width)
		}
	}
	v := make(BitVec, width)
	for i := range v {
		if i < 64 {
			v[i] = uint64(x)&(1<<uint(i)) != 0
		} else {
			v[i] = x < 0 // sign extension
		}
	}
	return v, nil
}

// BigBits returns the width-bit decomposition of x, two's complement when
// signed is true. x must fit in width bits.
func BigBits(x *big.Int, width int, signed bool) (BitVec, error) {
	if width < 1 || width > MaxWidth {
		return nil, errf(KindValueOutOfRange, "", "invalid bit width %d", width)
	}
	var lo, hi big.Int
	one := big.NewInt(1)
	if signed {
		lo.Neg(new(big.Int).Lsh(one, uint(width-1)))
		hi.Sub(new(big.Int).Lsh(one, uint(width-1)), one)
	} else {
		hi.Sub(new(big.Int).Lsh(one, uint(width)), one)
	}
	if x.Cmp(&lo) < 0 || x.Cmp(&hi) > 0 {
		return nil, errf(KindValueOutOfRange, "", "%v does not fit in %d bits", x, width)
	}
	t := new(big.Int).Set(x)
	if x.Sign() < 0 {
		t.Add(t, new(big.Int).Lsh(one, uint(width)))
	}
	v := make(BitVec, width)
	for i := range v {
		v[i] = t.Bit(i) == 1
	}
	return v, nil
}

// appendIntBits appends the width-bit decomposition of x to dst, validating
// the range for the given signedness. This is the element encoder used by
// port writes.
func appendIntBits(dst BitVec, x int64, width int, signed bool) (BitVec, error) {
	var v BitVec
	var err error
	if signed {
		v, err = IntBits(x, width)
	} else {
		if x < 0 {
			return dst, errf(KindValueOutOfRange, "", "%d does not fit in %d unsigned bits", x, width)
		}
		v, err = UintBits(uint64(x), width)
	}
	if err != nil {
		return dst, err
	}
	return append(dst, v...), nil
}

// intFromBits decodes a width-bit chunk as int64, sign extending when signed
// is true. len(v) must not exceed 64; port configuration guarantees this.
func intFromBits(v BitVec, signed bool) int64 {
	var x uint64
	for i, bit := range v {
		if bit {
			x |= 1 << uint(i)
		}
	}
	if signed && len(v) < 64 && len(v) > 0 && v[len(v)-1] {
		x |= ^uint64(0) << uint(len(v))
	}
	return int64(x)
}
