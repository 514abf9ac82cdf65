package value

import (
	"math/big"

	"github.com/holiman/uint256"
)

// BigInt is an arbitrary-precision integer handle. Values that fit in
// 256 bits (the overwhelming majority in practice — loop counters,
// hashes, small arithmetic) are stored in a fixed-width
// github.com/holiman/uint256.Int, the same fast representation the
// teacher's EVM uses for all of its arithmetic; values that overflow
// 256 bits spill to math/big.Int. Sign is tracked separately because
// uint256.Int is unsigned.
type BigInt struct {
	small    *uint256.Int
	smallNeg bool
	big      *big.Int // non-nil only on overflow
}

// NewBigIntFromInt64 constructs a BigInt from an int64 using the
// uint256 fast path.
func NewBigIntFromInt64(n int64) *BigInt {
	neg := n < 0
	u := n
	if neg {
		u = -u
	}
	return &BigInt{small: uint256.NewInt(uint64(u)), smallNeg: neg}
}

// NewBigIntFromString parses a decimal string into a BigInt, spilling
// to math/big if it does not fit in 256 bits.
func NewBigIntFromString(s string) (*BigInt, bool) {
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false
	}
	return fromBig(bi), true
}

func fromBig(bi *big.Int) *BigInt {
	abs := new(big.Int).Abs(bi)
	if abs.BitLen() <= 256 {
		u, overflow := uint256.FromBig(abs)
		if !overflow {
			return &BigInt{small: u, smallNeg: bi.Sign() < 0}
		}
	}
	return &BigInt{big: new(big.Int).Set(bi)}
}

func (b *BigInt) toBig() *big.Int {
	if b.big != nil {
		return b.big
	}
	bi := b.small.ToBig()
	if b.smallNeg {
		bi.Neg(bi)
	}
	return bi
}

// Sign returns -1, 0, or 1.
func (b *BigInt) Sign() int {
	if b.big != nil {
		return b.big.Sign()
	}
	if b.small.IsZero() {
		return 0
	}
	if b.smallNeg {
		return -1
	}
	return 1
}

// Cmp compares two BigInts, promoting to math/big when either operand
// has overflowed its 256-bit fast path.
func (b *BigInt) Cmp(o *BigInt) int {
	if b.big == nil && o.big == nil {
		if b.smallNeg != o.smallNeg {
			if b.small.IsZero() && o.small.IsZero() {
				return 0
			}
			if b.smallNeg {
				return -1
			}
			return 1
		}
		c := b.small.Cmp(o.small)
		if b.smallNeg {
			return -c
		}
		return c
	}
	return b.toBig().Cmp(o.toBig())
}

// Add, Sub, Mul return a new BigInt holding the arithmetic result,
// always going through math/big for correctness and then
// re-attempting the 256-bit fast path on the result.
func (b *BigInt) Add(o *BigInt) *BigInt { return fromBig(new(big.Int).Add(b.toBig(), o.toBig())) }
func (b *BigInt) Sub(o *BigInt) *BigInt { return fromBig(new(big.Int).Sub(b.toBig(), o.toBig())) }
func (b *BigInt) Mul(o *BigInt) *BigInt { return fromBig(new(big.Int).Mul(b.toBig(), o.toBig())) }

// Div performs truncating division per the BigInt division semantics;
// dividing by zero is a range error at the VM level, signalled by ok=false.
func (b *BigInt) Div(o *BigInt) (*BigInt, bool) {
	if o.Sign() == 0 {
		return nil, false
	}
	return fromBig(new(big.Int).Quo(b.toBig(), o.toBig())), true
}

// String renders the BigInt in base 10.
func (b *BigInt) String() string { return b.toBig().String() }
