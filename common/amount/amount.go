// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package amount

import (
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/Cellar/cell"
	"github.com/holiman/uint256"
)

// MaxBytes is the maximum number of bytes of a stored amount.
const MaxBytes = 15

// MaxBits is the maximum bit length of a stored amount.
const MaxBits = 8 * MaxBytes

// Amount is an unsigned token value. In cells, amounts are stored as a 4-bit
// byte length followed by that many bytes holding the big-endian value.
// Amounts exceeding MaxBits can be computed with but not be stored.
type Amount struct {
	internal uint256.Int
}

// New creates a new Amount from up to 4 uint64 arguments. The
// arguments are given in the Big Endian order. No argument results in a value of zero.
// The constructor panics if more than 4 arguments are given.
func New(args ...uint64) Amount {
	if len(args) > 4 {
		panic("too many arguments")
	}
	result := Amount{}
	offset := 4 - len(args)
	for i := 0; i < len(args); i++ {
		result.internal[3-i-offset] = args[i]
	}
	return result
}

// NewFromUint256 creates a new amount from an uint256.
func NewFromUint256(value *uint256.Int) Amount {
	return Amount{internal: *value}
}

// NewFromBigInt creates a new Amount instance from a big.Int.
func NewFromBigInt(b *big.Int) (Amount, error) {
	if b == nil {
		return New(), nil
	}
	if b.Sign() < 0 {
		return Amount{}, fmt.Errorf("cannot construct Amount from negative big.Int")
	}
	result := uint256.Int{}
	if overflow := result.SetFromBig(b); overflow {
		return Amount{}, fmt.Errorf("big.Int has more than 256 bits")
	}
	return Amount{internal: result}, nil
}

// Max returns the largest amount that can be stored.
func Max() Amount {
	return New(0x00FFFFFFFFFFFFFF, 0xFFFFFFFFFFFFFFFF)
}

// Uint64 returns the amount as an uint64. The result is only valid if `IsUint64()` returns true.
func (a Amount) Uint64() uint64 {
	return a.internal.Uint64()
}

func (a Amount) IsZero() bool {
	return a.internal.IsZero()
}

func (a Amount) IsUint64() bool {
	return a.internal.IsUint64()
}

// IsValid returns true if the amount fits into MaxBits.
func (a Amount) IsValid() bool {
	return a.internal.BitLen() <= MaxBits
}

func (a Amount) ToBig() *big.Int {
	return a.internal.ToBig()
}

func (a Amount) String() string {
	return a.internal.String()
}

// Uint256 returns the amount as an uint256.
func (a Amount) Uint256() uint256.Int {
	return a.internal
}

// Add returns the sum of two amounts.
func Add(a, b Amount) Amount {
	result := Amount{}
	result.internal.Add(&a.internal, &b.internal)
	return result
}

// CheckedAdd returns the sum of two amounts or an error if the sum can not
// be stored.
func CheckedAdd(a, b Amount) (Amount, error) {
	result := Amount{}
	_, overflow := result.internal.AddOverflow(&a.internal, &b.internal)
	if overflow || !result.IsValid() {
		return Amount{}, fmt.Errorf("%w: %v + %v exceeds %d bits", cell.ErrIntOverflow, a, b, MaxBits)
	}
	return result, nil
}

// ----------------------------------------------------------------------------
//                                 Encoding
// ----------------------------------------------------------------------------

// Codec stores amounts using their variable length encoding.
var Codec cell.Codec[Amount] = codec{}

type codec struct{}

func (codec) Store(b *cell.Builder, value Amount, _ cell.Context) error {
	if !value.IsValid() {
		return fmt.Errorf("%w: amount %v exceeds %d bits", cell.ErrIntOverflow, value, MaxBits)
	}
	n := (value.internal.BitLen() + 7) / 8
	if b.SpareBits() < uint16(4+8*n) {
		return fmt.Errorf("%w: not enough space for amount", cell.ErrCellOverflow)
	}
	b.StoreSmallUint(uint8(n), 4)
	b.StoreBigUint(&value.internal, uint16(8*n))
	return nil
}

func (codec) Load(s *cell.Slice) (Amount, error) {
	n, err := s.LoadSmallUint(4)
	if err != nil {
		return Amount{}, err
	}
	value, err := s.LoadBigUint(8 * uint16(n))
	if err != nil {
		return Amount{}, err
	}
	return NewFromUint256(value), nil
}

// SumCombinator adds the amounts at the front of the left and right slices
// and stores the sum. It fails with cell.ErrIntOverflow if the sum can not
// be stored. It may be used to aggregate amounts in augmented dictionaries.
func SumCombinator(left, right *cell.Slice, b *cell.Builder, ctx cell.Context) error {
	l, err := Codec.Load(left)
	if err != nil {
		return err
	}
	r, err := Codec.Load(right)
	if err != nil {
		return err
	}
	sum, err := CheckedAdd(l, r)
	if err != nil {
		return err
	}
	return Codec.Store(b, sum, ctx)
}
