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
	"errors"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/Cellar/cell"
	"github.com/holiman/uint256"
)

func TestAmount_New(t *testing.T) {
	tests := []struct {
		name      string
		args      []uint64
		want      Amount
		wantPanic bool
	}{
		{"No arguments", []uint64{}, Amount{[4]uint64{0, 0, 0, 0}}, false},
		{"One argument", []uint64{1}, Amount{[4]uint64{1, 0, 0, 0}}, false},
		{"Two arguments", []uint64{1, 2}, Amount{[4]uint64{2, 1, 0, 0}}, false},
		{"Four arguments", []uint64{1, 2, 3, 4}, Amount{[4]uint64{4, 3, 2, 1}}, false},
		{"Too many arguments", []uint64{1, 2, 3, 4, 5}, Amount{}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					if !test.wantPanic {
						t.Errorf("New() panicked unexpectedly: %v", r)
					}
				} else if test.wantPanic {
					t.Errorf("New() did not panic")
				}
			}()
			if got, want := New(test.args...), test.want; got != want {
				t.Errorf("wrong result, got %v, want %v", got, want)
			}
		})
	}
}

func TestAmount_NewFromUint256(t *testing.T) {
	tests := []struct {
		in  *uint256.Int
		out Amount
	}{
		{uint256.NewInt(0), New()},
		{uint256.NewInt(256), New(256)},
		{new(uint256.Int).Lsh(uint256.NewInt(1), 64), New(1, 0)},
		{new(uint256.Int).Lsh(uint256.NewInt(1), 192), New(1, 0, 0, 0)},
	}

	for _, test := range tests {
		if got, want := NewFromUint256(test.in), test.out; want != got {
			t.Errorf("failed to convert %v to Amount, wanted %v, got %v", test.in, want, got)
		}
	}
}

func TestAmount_NewFromBigInt(t *testing.T) {
	amount, err := NewFromBigInt(big.NewInt(100))
	if err != nil {
		t.Errorf("failed to create amount from big.Int: %v", err)
	}
	if amount != New(100) {
		t.Errorf("amount should be 100")
	}

	if _, err := NewFromBigInt(big.NewInt(-100)); err == nil {
		t.Errorf("negative amount should not be allowed")
	}
	if _, err := NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 256)); err == nil {
		t.Errorf("amount with more than 256 bits should not be allowed")
	}
}

func TestAmount_IsValid(t *testing.T) {
	tests := []struct {
		amount Amount
		valid  bool
	}{
		{New(), true},
		{New(1), true},
		{Max(), true},
		{Add(Max(), New(1)), false},
		{New(1, 0, 0, 0), false},
	}
	for _, test := range tests {
		if got, want := test.amount.IsValid(), test.valid; got != want {
			t.Errorf("unexpected validity of %v, wanted %t, got %t", test.amount, want, got)
		}
	}
}

func TestAmount_CheckedAdd(t *testing.T) {
	sum, err := CheckedAdd(New(50), New(150))
	if err != nil {
		t.Fatalf("failed to add: %v", err)
	}
	if got, want := sum, New(200); got != want {
		t.Errorf("wrong amount: got %v, wanted: %v", got, want)
	}

	if _, err := CheckedAdd(Max(), New(1)); !errors.Is(err, cell.ErrIntOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
	if _, err := CheckedAdd(New(1<<63, 0, 0, 0), New(1<<63, 0, 0, 0)); !errors.Is(err, cell.ErrIntOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}

func TestAmount_Max(t *testing.T) {
	want := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), MaxBits), uint256.NewInt(1))
	if got := Max().Uint256(); got.Cmp(want) != 0 {
		t.Errorf("wrong amount: got %v, wanted: %v", got, want)
	}
}

func newTestFamily(t *testing.T) *cell.Family {
	t.Helper()
	family, err := cell.NewFamily(cell.ExclusiveConfig)
	if err != nil {
		t.Fatalf("failed to create family: %v", err)
	}
	return family
}

func TestCodec_Encoding(t *testing.T) {
	tests := []struct {
		amount Amount
		want   string
	}{
		{New(), "0"},
		{New(1), "101"},
		{New(0x1234), "21234"},
		{Max(), "f" + "ffffffffffffffffffffffffffffff"},
	}
	for _, test := range tests {
		b := cell.NewBuilder()
		if err := Codec.Store(b, test.amount, nil); err != nil {
			t.Fatalf("failed to store %v: %v", test.amount, err)
		}
		s := b.AsDataSlice()
		if got := s.String(); got != test.want {
			t.Errorf("invalid encoding of %v, wanted %s, got %s", test.amount, test.want, got)
		}
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	family := newTestFamily(t)
	for _, amount := range []Amount{New(), New(1), New(255), New(256), New(1, 2), Max()} {
		c, err := cell.BuildFrom(Codec, amount, family)
		if err != nil {
			t.Fatalf("failed to build cell for %v: %v", amount, err)
		}
		got, err := cell.ParseFrom(Codec, c)
		if err != nil {
			t.Fatalf("failed to parse %v: %v", amount, err)
		}
		if got != amount {
			t.Errorf("round trip failed, wanted %v, got %v", amount, got)
		}
	}
}

func TestCodec_RejectsOversizedAmounts(t *testing.T) {
	b := cell.NewBuilder()
	if err := Codec.Store(b, Add(Max(), New(1)), nil); !errors.Is(err, cell.ErrIntOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
	if b.BitLen() != 0 {
		t.Errorf("failed store modified builder")
	}
}

func TestSumCombinator(t *testing.T) {
	combine := func(a, b Amount) (Amount, error) {
		left := cell.NewBuilder()
		right := cell.NewBuilder()
		if err := Codec.Store(left, a, nil); err != nil {
			t.Fatalf("failed to store: %v", err)
		}
		if err := Codec.Store(right, b, nil); err != nil {
			t.Fatalf("failed to store: %v", err)
		}
		ls, rs := left.AsDataSlice(), right.AsDataSlice()
		out := cell.NewBuilder()
		if err := SumCombinator(&ls, &rs, out, nil); err != nil {
			return Amount{}, err
		}
		res := out.AsDataSlice()
		return Codec.Load(&res)
	}

	sum, err := combine(New(12), New(30))
	if err != nil {
		t.Fatalf("failed to combine: %v", err)
	}
	if sum != New(42) {
		t.Errorf("wrong sum, wanted 42, got %v", sum)
	}

	if _, err := combine(Max(), New(1)); !errors.Is(err, cell.ErrIntOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}
