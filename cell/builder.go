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
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// Builder is an append-only staging area for the content of a new cell. It
// accumulates up to MaxBitLen data bits and up to MaxRefCount references.
//
// All append operations report success as a boolean. If an operation would
// exceed the capacity of the builder it returns false and leaves the builder
// unmodified. The staged content is turned into an immutable cell by Build.
//
// Bits beyond the current length are kept zero at all times.
type Builder struct {
	data         [maxDataBytes]byte
	bitLen       uint16
	levelMask    LevelMask
	hasLevelMask bool
	references   []Cell
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// BitLen returns the number of data bits staged so far.
func (b *Builder) BitLen() uint16 {
	return b.bitLen
}

// SpareBits returns the number of bits that may still be appended.
func (b *Builder) SpareBits() uint16 {
	return MaxBitLen - b.bitLen
}

// SpareRefs returns the number of references that may still be appended.
func (b *Builder) SpareRefs() uint8 {
	return uint8(MaxRefCount - len(b.references))
}

// References returns the staged references. The result must not be modified.
func (b *Builder) References() []Cell {
	return b.references
}

// SetLevelMask overrides the level mask of the resulting cell. Cells with an
// explicit level mask are exotic.
func (b *Builder) SetLevelMask(mask LevelMask) {
	b.levelMask = mask & levelMaskBits
	b.hasLevelMask = true
}

// ComputeLevelMask returns the explicit level mask if one was set, and the
// union of the masks of all references otherwise.
func (b *Builder) ComputeLevelMask() LevelMask {
	if b.hasLevelMask {
		return b.levelMask
	}
	return b.childrenMask()
}

func (b *Builder) childrenMask() LevelMask {
	mask := EmptyLevelMask
	for _, child := range b.references {
		mask = mask.Union(child.LevelMask())
	}
	return mask
}

// Clone creates an independent copy of this builder.
func (b *Builder) Clone() *Builder {
	res := *b
	res.references = append([]Cell(nil), b.references...)
	return &res
}

// Rewind drops the given number of bits from the end of the staged data.
func (b *Builder) Rewind(bits uint16) bool {
	if bits > b.bitLen {
		return false
	}
	end := b.bitLen
	b.bitLen -= bits
	q := b.bitLen / 8
	if r := b.bitLen % 8; r != 0 {
		b.data[q] &= ^byte(0xff >> r)
		q++
	}
	clear(b.data[q:(end+7)/8])
	return true
}

// AsDataSlice returns a slice over a copy of the currently staged data bits.
// References are not included.
func (b *Builder) AsDataSlice() Slice {
	data := make([]byte, (b.bitLen+7)/8)
	copy(data, b.data[:])
	return Slice{data: data, bitsEnd: b.bitLen}
}

// --- bit primitives ---

// StoreBit appends a single bit.
func (b *Builder) StoreBit(bit bool) bool {
	if b.bitLen >= MaxBitLen {
		return false
	}
	if bit {
		b.data[b.bitLen/8] |= 0x80 >> (b.bitLen % 8)
	}
	b.bitLen++
	return true
}

// StoreBitZero appends a 0 bit.
func (b *Builder) StoreBitZero() bool {
	return b.StoreBit(false)
}

// StoreBitOne appends a 1 bit.
func (b *Builder) StoreBitOne() bool {
	return b.StoreBit(true)
}

// StoreZeros appends the given number of 0 bits.
func (b *Builder) StoreZeros(bits uint16) bool {
	if uint32(b.bitLen)+uint32(bits) > MaxBitLen {
		return false
	}
	b.bitLen += bits
	return true
}

// StoreOnes appends the given number of 1 bits.
func (b *Builder) StoreOnes(bits uint16) bool {
	if uint32(b.bitLen)+uint32(bits) > MaxBitLen {
		return false
	}
	for bits > 0 {
		chunk := min(bits, 64)
		b.StoreUint(^uint64(0), chunk)
		bits -= chunk
	}
	return true
}

// StoreU8 appends an 8-bit value.
func (b *Builder) StoreU8(value uint8) bool {
	return b.StoreUint(uint64(value), 8)
}

// StoreU16 appends a 16-bit big-endian value.
func (b *Builder) StoreU16(value uint16) bool {
	return b.StoreUint(uint64(value), 16)
}

// StoreU32 appends a 32-bit big-endian value.
func (b *Builder) StoreU32(value uint32) bool {
	return b.StoreUint(uint64(value), 32)
}

// StoreU64 appends a 64-bit big-endian value.
func (b *Builder) StoreU64(value uint64) bool {
	return b.StoreUint(value, 64)
}

// StoreU128 appends a 128-bit value given by its high and low halves.
func (b *Builder) StoreU128(hi, lo uint64) bool {
	if b.SpareBits() < 128 {
		return false
	}
	return b.StoreUint(hi, 64) && b.StoreUint(lo, 64)
}

// StoreU256 appends a 256-bit big-endian value.
func (b *Builder) StoreU256(value *[32]byte) bool {
	return b.StoreRaw(value[:], 256)
}

// StoreSmallUint appends the low bits of an 8-bit value. Widths above 8 bits
// are padded with leading zeros.
func (b *Builder) StoreSmallUint(value uint8, bits uint16) bool {
	if bits == 0 {
		return true
	}
	if uint32(b.bitLen)+uint32(bits) > MaxBitLen {
		return false
	}
	if bits > 8 {
		b.bitLen += bits - 8
		bits = 8
	}
	value <<= 8 - bits
	q, r := b.bitLen/8, b.bitLen%8
	if r == 0 {
		b.data[q] = value
	} else {
		b.data[q] |= value >> r
		if bits+r > 8 {
			b.data[q+1] = value << (8 - r)
		}
	}
	b.bitLen += bits
	return true
}

// StoreUint appends the low bits of the given value. Widths above 64 bits are
// padded with leading zeros.
func (b *Builder) StoreUint(value uint64, bits uint16) bool {
	if bits == 0 {
		return true
	}
	if uint32(b.bitLen)+uint32(bits) > MaxBitLen {
		return false
	}
	if bits > 64 {
		b.bitLen += bits - 64
		bits = 64
	}

	// Move the significant bits to the top.
	value <<= 64 - bits

	var buffer [8]byte
	q, r := b.bitLen/8, b.bitLen%8
	if r == 0 {
		binary.BigEndian.PutUint64(buffer[:], value)
		copy(b.data[q:], buffer[:(bits+7)/8])
	} else {
		// High bits complete the partial byte, the rest is shifted in.
		shift := 8 - r
		b.data[q] |= byte(value >> (64 - shift))
		if bits > shift {
			binary.BigEndian.PutUint64(buffer[:], value<<shift)
			copy(b.data[q+1:], buffer[:(bits-shift+7)/8])
		}
	}
	b.bitLen += bits
	return true
}

// StoreBigUint appends the given value using the given number of bits. It
// fails if the value does not fit.
func (b *Builder) StoreBigUint(value *uint256.Int, bits uint16) bool {
	if uint32(b.bitLen)+uint32(bits) > MaxBitLen || value.BitLen() > int(bits) {
		return false
	}
	if bits > 256 {
		b.bitLen += bits - 256
		bits = 256
	}
	raw := value.Bytes32()
	b.storeBits(raw[:], 256-bits, bits)
	return true
}

// StoreRaw appends the leading bits of the given byte string.
func (b *Builder) StoreRaw(data []byte, bits uint16) bool {
	if uint32(b.bitLen)+uint32(bits) > MaxBitLen || int(bits) > len(data)*8 {
		return false
	}
	b.storeBits(data, 0, bits)
	return true
}

// storeBits copies bits from an arbitrary offset of the source. Capacity
// must have been checked by the caller.
func (b *Builder) storeBits(src []byte, offset uint16, bits uint16) {
	if bits == 0 {
		return
	}
	if b.bitLen%8 == 0 && offset%8 == 0 {
		q := b.bitLen / 8
		n := (bits + 7) / 8
		copy(b.data[q:q+n], src[offset/8:])
		if r := bits % 8; r != 0 {
			b.data[q+n-1] &= ^byte(0xff >> r)
		}
		b.bitLen += bits
		return
	}
	for bits > 0 {
		chunk := min(bits, 64)
		b.StoreUint(readUint(src, offset, chunk), chunk)
		offset += chunk
		bits -= chunk
	}
}

// --- references and composites ---

// StoreReference appends a child reference.
func (b *Builder) StoreReference(cell Cell) bool {
	if cell == nil || len(b.references) >= MaxRefCount {
		return false
	}
	b.references = append(b.references, cell)
	return true
}

// StoreSliceData appends the remaining data bits of the given slice.
func (b *Builder) StoreSliceData(s Slice) bool {
	bits := s.RemainingBits()
	if uint32(b.bitLen)+uint32(bits) > MaxBitLen {
		return false
	}
	b.storeBits(s.data, s.bitsStart, bits)
	return true
}

// StoreSlice appends the remaining data bits and references of the slice.
func (b *Builder) StoreSlice(s Slice) bool {
	if uint32(b.bitLen)+uint32(s.RemainingBits()) > MaxBitLen ||
		int(s.RemainingRefs()) > int(b.SpareRefs()) {
		return false
	}
	b.storeBits(s.data, s.bitsStart, s.RemainingBits())
	for i := s.refsStart; i < s.refsEnd; i++ {
		b.references = append(b.references, s.cell.Reference(int(i)))
	}
	return true
}

// StoreCellData appends all data bits of the given cell.
func (b *Builder) StoreCellData(cell Cell) bool {
	bits := cell.BitLen()
	if uint32(b.bitLen)+uint32(bits) > MaxBitLen {
		return false
	}
	b.storeBits(cell.Data(), 0, bits)
	return true
}

// StoreBuilder appends the data and references staged in another builder.
func (b *Builder) StoreBuilder(other *Builder) bool {
	if uint32(b.bitLen)+uint32(other.bitLen) > MaxBitLen ||
		len(b.references)+len(other.references) > MaxRefCount {
		return false
	}
	b.storeBits(other.data[:], 0, other.bitLen)
	b.references = append(b.references, other.references...)
	return true
}

// --- finalization ---

// Build turns the staged content into a cell using the given finalizer. The
// builder itself remains unchanged and may be reused.
func (b *Builder) Build(finalizer Finalizer) (Cell, error) {
	if finalizer == nil {
		return nil, fmt.Errorf("%w: no finalizer", ErrInvalidData)
	}

	stats := TreeStats{BitCount: uint64(b.bitLen), CellCount: 1}
	childrenMask := EmptyLevelMask
	for _, child := range b.references {
		childrenMask = childrenMask.Union(child.LevelMask())
		stats = stats.Add(child.Stats())
	}
	mask := childrenMask
	if b.hasLevelMask {
		mask = b.levelMask
	}

	data := make([]byte, (b.bitLen+7)/8)
	copy(data, b.data[:])
	if r := b.bitLen % 8; r != 0 {
		// Completion tag: a single 1 bit after the data, zeros after it.
		tag := byte(1) << (7 - r)
		last := &data[len(data)-1]
		*last = *last&^(tag-1) | tag
	}

	return finalizer.FinalizeCell(&PartialCell{
		Descriptor:   NewDescriptor(mask, b.hasLevelMask, uint8(len(b.references)), b.bitLen),
		BitLen:       b.bitLen,
		Data:         data,
		References:   append([]Cell(nil), b.references...),
		ChildrenMask: childrenMask,
		Stats:        stats,
	})
}
