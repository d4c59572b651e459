// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cell

import (
	"errors"
	"testing"
)

func sliceOf(bits string) Slice {
	b := NewBuilder()
	for _, c := range bits {
		b.StoreBit(c == '1')
	}
	return b.AsDataSlice()
}

func TestSlice_LoadsIntegersAtArbitraryOffsets(t *testing.T) {
	for offset := uint16(0); offset < 16; offset++ {
		b := NewBuilder()
		b.StoreZeros(offset)
		b.StoreU8(0x12)
		b.StoreU16(0x3456)
		b.StoreU32(0x789abcde)
		b.StoreU64(0xf0e1d2c3b4a59687)
		b.StoreU128(1, 2)
		b.StoreSmallUint(5, 3)

		s := b.AsDataSlice()
		if err := s.Advance(offset, 0); err != nil {
			t.Fatalf("failed to skip offset: %v", err)
		}
		if got, _ := s.LoadU8(); got != 0x12 {
			t.Errorf("offset %d: unexpected u8 %x", offset, got)
		}
		if got, _ := s.LoadU16(); got != 0x3456 {
			t.Errorf("offset %d: unexpected u16 %x", offset, got)
		}
		if got, _ := s.LoadU32(); got != 0x789abcde {
			t.Errorf("offset %d: unexpected u32 %x", offset, got)
		}
		if got, _ := s.LoadU64(); got != 0xf0e1d2c3b4a59687 {
			t.Errorf("offset %d: unexpected u64 %x", offset, got)
		}
		if hi, lo, _ := s.LoadU128(); hi != 1 || lo != 2 {
			t.Errorf("offset %d: unexpected u128 %x/%x", offset, hi, lo)
		}
		if got, _ := s.LoadSmallUint(3); got != 5 {
			t.Errorf("offset %d: unexpected small uint %d", offset, got)
		}
		if !s.IsDataEmpty() {
			t.Errorf("offset %d: slice should be exhausted", offset)
		}
	}
}

func TestSlice_GetDoesNotConsume(t *testing.T) {
	s := sliceOf("1011")
	if bit, _ := s.GetBit(2); !bit {
		t.Errorf("unexpected bit")
	}
	if value, _ := s.GetUint(1, 3); value != 0b011 {
		t.Errorf("unexpected value %b", value)
	}
	if got := s.RemainingBits(); got != 4 {
		t.Errorf("get operations consumed data")
	}
}

func TestSlice_ReadingBeyondTheEndIsAnUnderflow(t *testing.T) {
	s := sliceOf("101")
	if _, err := s.LoadUint(4); !errors.Is(err, ErrCellUnderflow) {
		t.Errorf("expected underflow, got %v", err)
	}
	if got := s.RemainingBits(); got != 3 {
		t.Errorf("failed load consumed data")
	}
	if _, err := s.GetBit(3); !errors.Is(err, ErrCellUnderflow) {
		t.Errorf("expected underflow, got %v", err)
	}
	if _, err := s.LoadReference(); !errors.Is(err, ErrCellUnderflow) {
		t.Errorf("expected underflow, got %v", err)
	}
	if err := s.Advance(4, 0); !errors.Is(err, ErrCellUnderflow) {
		t.Errorf("expected underflow, got %v", err)
	}
	if s.TryAdvance(0, 1) {
		t.Errorf("advancing beyond references should fail")
	}
	if _, err := s.GetPrefix(4, 0); !errors.Is(err, ErrCellUnderflow) {
		t.Errorf("expected underflow, got %v", err)
	}
	if _, err := s.LoadUint(65); !errors.Is(err, ErrInvalidData) {
		t.Errorf("reading more than 64 bits into an integer should fail, got %v", err)
	}
}

func TestSlice_CommonPrefixLen(t *testing.T) {
	tests := []struct {
		a, b string
		want uint16
	}{
		{"", "", 0},
		{"1011", "1001", 2},
		{"1011", "1011", 4},
		{"1011", "10", 2},
		{"0", "1", 0},
		{
			"1010101010101010101010101010101010101010101010101010101010101010101",
			"1010101010101010101010101010101010101010101010101010101010101010100",
			66,
		},
	}
	for _, test := range tests {
		a, b := sliceOf(test.a), sliceOf(test.b)
		if got := a.CommonPrefixLen(&b); got != test.want {
			t.Errorf("common prefix of %s and %s: wanted %d, got %d", test.a, test.b, test.want, got)
		}
		if got := b.CommonPrefixLen(&a); got != test.want {
			t.Errorf("common prefix should be symmetric")
		}
	}

	// Offsets of both slices are respected.
	a, b := sliceOf("0001101"), sliceOf("11100")
	a.Advance(3, 0)
	b.Advance(1, 0)
	if got := a.CommonPrefixLen(&b); got != 3 {
		t.Errorf("unexpected prefix length %d", got)
	}
}

func TestSlice_UniformityAndLeadingBits(t *testing.T) {
	tests := []struct {
		bits    string
		bit     bool
		uniform bool
		zeros   uint16
		ones    uint16
	}{
		{"", false, false, 0, 0},
		{"0000", false, true, 4, 0},
		{"111", true, true, 0, 3},
		{"1101", true, false, 0, 2},
		{"0010", false, false, 2, 0},
	}
	for _, test := range tests {
		s := sliceOf(test.bits)
		bit, uniform := s.TestUniform()
		if uniform != test.uniform || (uniform && bit != test.bit) {
			t.Errorf("unexpected uniformity of %q: %t/%t", test.bits, bit, uniform)
		}
		if got := s.CountLeading(false); got != test.zeros {
			t.Errorf("unexpected leading zeros of %q: %d", test.bits, got)
		}
		if got := s.CountLeading(true); got != test.ones {
			t.Errorf("unexpected leading ones of %q: %d", test.bits, got)
		}
	}
}

func TestSlice_PrefixAndEquality(t *testing.T) {
	s := sliceOf("110100")
	prefix, err := s.GetPrefix(3, 0)
	if err != nil {
		t.Fatalf("failed to get prefix: %v", err)
	}
	want := sliceOf("110")
	if !prefix.DataEqual(&want) {
		t.Errorf("unexpected prefix %v", prefix.String())
	}
	if prefix.DataEqual(&s) {
		t.Errorf("slices of different length should differ")
	}
	if got := s.RemainingBits(); got != 6 {
		t.Errorf("taking a prefix consumed data")
	}
}

func TestSlice_LoadRawIsLeftAligned(t *testing.T) {
	s := sliceOf("1110101")
	raw, err := s.LoadRaw(7)
	if err != nil {
		t.Fatalf("failed to load raw bits: %v", err)
	}
	if len(raw) != 1 || raw[0] != 0b11101010 {
		t.Errorf("unexpected raw data %x", raw)
	}
}

func TestSlice_String(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"1":        "c_",
		"1010":     "a",
		"101":      "b_",
		"00000001": "01",
	}
	for bits, want := range tests {
		s := sliceOf(bits)
		if got := s.String(); got != want {
			t.Errorf("unexpected rendering of %q, wanted %s, got %s", bits, want, got)
		}
	}
}

func TestSlice_ReferencesOfCells(t *testing.T) {
	family := newTestFamily(t, ExclusiveConfig)
	root := buildSampleTree(t, family)
	s, err := NewSlice(root)
	if err != nil {
		t.Fatalf("failed to create slice: %v", err)
	}
	if s.Cell() != root {
		t.Errorf("slice does not report its cell")
	}
	if got := s.RemainingRefs(); got != 2 {
		t.Errorf("unexpected number of references %d", got)
	}
	second, err := s.GetReference(1)
	if err != nil || second.ReprHash() != root.Reference(1).ReprHash() {
		t.Errorf("unexpected second reference, err %v", err)
	}
	first, err := s.LoadReference()
	if err != nil || first.ReprHash() != root.Reference(0).ReprHash() {
		t.Errorf("unexpected first reference, err %v", err)
	}
	if bits, refs := s.Offset(); bits != 0 || refs != 1 {
		t.Errorf("unexpected offset %d/%d", bits, refs)
	}
	s.LoadReference()
	s.LoadU16()
	if !s.IsEmpty() {
		t.Errorf("slice should be exhausted")
	}
}
