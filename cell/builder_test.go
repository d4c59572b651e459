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
	"bytes"
	"testing"

	"github.com/holiman/uint256"
)

// bitwise stores the given value bit by bit, serving as a reference for the
// optimized store operations.
func bitwise(b *Builder, value uint64, bits uint16) {
	for i := int(bits) - 1; i >= 0; i-- {
		if i >= 64 {
			b.StoreBit(false)
		} else {
			b.StoreBit(value&(1<<i) != 0)
		}
	}
}

func TestBuilder_StoreUintMatchesBitwiseReferenceAtAllOffsets(t *testing.T) {
	values := []uint64{0, 1, 0xa5, 0xdeadbeef, 0x0123456789abcdef, ^uint64(0)}
	for offset := uint16(0); offset < 16; offset++ {
		for bits := uint16(1); bits <= 70; bits++ {
			for _, value := range values {
				got := NewBuilder()
				want := NewBuilder()
				got.StoreOnes(offset)
				bitwise(want, ^uint64(0), offset)

				if !got.StoreUint(value, bits) {
					t.Fatalf("failed to store %d bits at offset %d", bits, offset)
				}
				bitwise(want, value, bits)

				gotSlice, wantSlice := got.AsDataSlice(), want.AsDataSlice()
				if !gotSlice.DataEqual(&wantSlice) {
					t.Errorf("storing %x in %d bits at offset %d: wanted %v, got %v", value, bits, offset, wantSlice.String(), gotSlice.String())
				}
			}
		}
	}
}

func TestBuilder_StoreSmallUintMatchesBitwiseReference(t *testing.T) {
	for offset := uint16(0); offset < 8; offset++ {
		for bits := uint16(0); bits <= 10; bits++ {
			got := NewBuilder()
			want := NewBuilder()
			got.StoreZeros(offset)
			bitwise(want, 0, offset)
			got.StoreSmallUint(0xb7, bits)
			bitwise(want, uint64(0xb7)&(1<<min(bits, 8)-1), bits)
			gotSlice, wantSlice := got.AsDataSlice(), want.AsDataSlice()
			if !gotSlice.DataEqual(&wantSlice) {
				t.Errorf("offset %d, bits %d: wanted %v, got %v", offset, bits, wantSlice.String(), gotSlice.String())
			}
		}
	}
}

func TestBuilder_UnalignedBytesAreSplitAcrossBoundary(t *testing.T) {
	b := NewBuilder()
	b.StoreBitOne()
	b.StoreU8(0xab)
	if got, want := b.BitLen(), uint16(9); got != want {
		t.Fatalf("unexpected length, wanted %d, got %d", want, got)
	}
	s := b.AsDataSlice()
	if got, want := s.String(), "d5c_"; got != want {
		t.Errorf("unexpected content, wanted %s, got %s", want, got)
	}
}

func TestBuilder_CapacityOfBits(t *testing.T) {
	b := NewBuilder()
	if !b.StoreZeros(MaxBitLen) {
		t.Fatalf("failed to fill builder")
	}
	if b.StoreBit(true) || b.StoreUint(0, 1) || b.StoreZeros(1) {
		t.Errorf("builder accepted bits beyond its capacity")
	}
	if !b.StoreUint(0, 0) {
		t.Errorf("storing no bits should always succeed")
	}

	b = NewBuilder()
	b.StoreZeros(1000)
	if b.StoreU32(1) {
		t.Errorf("builder accepted 32 bits with only 23 left")
	}
	if got, want := b.BitLen(), uint16(1000); got != want {
		t.Errorf("failed store modified builder, wanted %d bits, got %d", want, got)
	}
	if !b.StoreUint(1, 23) {
		t.Errorf("builder rejected bits within its capacity")
	}
	if got := b.SpareBits(); got != 0 {
		t.Errorf("unexpected spare bits %d", got)
	}
}

func TestBuilder_CapacityOfReferences(t *testing.T) {
	family := newTestFamily(t, ExclusiveConfig)
	empty, err := Empty(family)
	if err != nil {
		t.Fatalf("failed to build empty cell: %v", err)
	}
	b := NewBuilder()
	for i := 0; i < MaxRefCount; i++ {
		if !b.StoreReference(empty) {
			t.Fatalf("failed to store reference %d", i)
		}
	}
	if b.StoreReference(empty) {
		t.Errorf("fifth reference should be rejected")
	}
	if got := b.SpareRefs(); got != 0 {
		t.Errorf("unexpected spare references %d", got)
	}
}

func TestBuilder_RewindClearsDroppedBits(t *testing.T) {
	b := NewBuilder()
	b.StoreU8(0xff)
	b.StoreU8(0xff)
	if !b.Rewind(11) {
		t.Fatalf("failed to rewind")
	}
	b.StoreZeros(11)
	s := b.AsDataSlice()
	if got, want := s.String(), "f800"; got != want {
		t.Errorf("unexpected content after rewind, wanted %s, got %s", want, got)
	}
	if b.Rewind(17) {
		t.Errorf("rewinding beyond the start should fail")
	}
}

func TestBuilder_StoreBigUintIsZeroExtended(t *testing.T) {
	value := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	value.AddUint64(value, 5)

	for _, bits := range []uint16{201, 256, 300} {
		b := NewBuilder()
		b.StoreBitOne()
		if !b.StoreBigUint(value, bits) {
			t.Fatalf("failed to store value in %d bits", bits)
		}
		s := b.AsDataSlice()
		s.LoadBit()
		got, err := s.LoadBigUint(bits)
		if err != nil {
			t.Fatalf("failed to load value: %v", err)
		}
		if !got.Eq(value) {
			t.Errorf("unexpected value, wanted %v, got %v", value, got)
		}
	}

	if NewBuilder().StoreBigUint(value, 200) {
		t.Errorf("value should not fit into 200 bits")
	}
}

func TestBuilder_StoreRawAndU256(t *testing.T) {
	var value [32]byte
	for i := range value {
		value[i] = byte(i)
	}
	b := NewBuilder()
	b.StoreBitZero()
	if !b.StoreU256(&value) {
		t.Fatalf("failed to store 256-bit value")
	}
	if !b.StoreRaw([]byte{0xff, 0xff}, 12) {
		t.Fatalf("failed to store raw bits")
	}
	if b.StoreRaw([]byte{0xff}, 9) {
		t.Errorf("storing more bits than provided should fail")
	}
	s := b.AsDataSlice()
	s.LoadBit()
	got, err := s.LoadU256()
	if err != nil || got != value {
		t.Errorf("unexpected value %x, err %v", got, err)
	}
	if rest, _ := s.LoadUint(12); rest != 0xfff {
		t.Errorf("unexpected tail %x", rest)
	}
}

func TestBuilder_StoreBuilderAndSliceConcatenate(t *testing.T) {
	family := newTestFamily(t, ExclusiveConfig)
	empty, _ := Empty(family)

	first := NewBuilder()
	first.StoreUint(0b101, 3)
	first.StoreReference(empty)

	second := NewBuilder()
	second.StoreUint(0b11, 2)
	if !second.StoreBuilder(first) {
		t.Fatalf("failed to store builder")
	}
	if got, want := second.BitLen(), uint16(5); got != want {
		t.Errorf("unexpected length, wanted %d, got %d", want, got)
	}
	if got, want := len(second.References()), 1; got != want {
		t.Errorf("unexpected number of references, wanted %d, got %d", want, got)
	}

	cell, err := second.Build(family)
	if err != nil {
		t.Fatalf("failed to build cell: %v", err)
	}
	s, _ := NewSlice(cell)
	s.LoadBit()

	third := NewBuilder()
	if !third.StoreSlice(s) {
		t.Fatalf("failed to store slice")
	}
	if got, want := third.BitLen(), uint16(4); got != want {
		t.Errorf("unexpected length, wanted %d, got %d", want, got)
	}
	if len(third.References()) != 1 {
		t.Errorf("references of slice were not copied")
	}
	data := NewBuilder()
	data.StoreSliceData(s)
	if len(data.References()) != 0 || data.BitLen() != 4 {
		t.Errorf("only data should have been copied")
	}
	whole := NewBuilder()
	whole.StoreCellData(cell)
	if got := whole.AsDataSlice(); got.String() != "ec_" {
		t.Errorf("unexpected cell data %v", got.String())
	}
}

func TestBuilder_BuildAddsCompletionTag(t *testing.T) {
	family := newTestFamily(t, ExclusiveConfig)
	tests := []struct {
		bits  uint16
		value uint64
		want  []byte
	}{
		{0, 0, []byte{}},
		{3, 0b101, []byte{0xb0}},
		{7, 0b1111111, []byte{0xff}},
		{8, 0xab, []byte{0xab}},
		{9, 0x1ff, []byte{0xff, 0xc0}},
	}
	for _, test := range tests {
		b := NewBuilder()
		b.StoreUint(test.value, test.bits)
		cell, err := b.Build(family)
		if err != nil {
			t.Fatalf("failed to build cell: %v", err)
		}
		if got := cell.Data(); !bytes.Equal(got, test.want) {
			t.Errorf("unexpected data for %d bits, wanted %x, got %x", test.bits, test.want, got)
		}
		if got, want := cell.Descriptor().D2, ComputeD2(test.bits); got != want {
			t.Errorf("unexpected d2, wanted %d, got %d", want, got)
		}
		if got := b.BitLen(); got != test.bits {
			t.Errorf("building modified the builder")
		}
	}
}

func TestBuilder_BuildWithoutFinalizerFails(t *testing.T) {
	if _, err := NewBuilder().Build(nil); err == nil {
		t.Errorf("building without finalizer should fail")
	}
}

func TestBuilder_CloneIsIndependent(t *testing.T) {
	b := NewBuilder()
	b.StoreU8(1)
	clone := b.Clone()
	clone.StoreU8(2)
	if b.BitLen() != 8 || clone.BitLen() != 16 {
		t.Errorf("clone is not independent")
	}
}
