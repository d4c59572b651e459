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
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
)

// Slice is a read cursor over a range of the data bits and references of a
// cell. Load operations consume content from the front of the range, Get
// operations read without consuming. A Slice is a value; copies are
// independent cursors over the same immutable cell.
type Slice struct {
	cell      Cell // nil for slices over detached data
	data      []byte
	bitsStart uint16
	bitsEnd   uint16
	refsStart uint8
	refsEnd   uint8
}

// NewSlice creates a slice covering all bits and references of an ordinary
// cell. Exotic cells are rejected.
func NewSlice(cell Cell) (Slice, error) {
	if cell.Descriptor().IsExotic() {
		return Slice{}, fmt.Errorf("%w: can not read %v cell as ordinary cell", ErrInvalidData, cell.CellType())
	}
	return NewSliceAllowExotic(cell), nil
}

// NewSliceAllowExotic creates a slice covering all bits and references of
// the given cell, regardless of its type.
func NewSliceAllowExotic(cell Cell) Slice {
	return Slice{
		cell:    cell,
		data:    cell.Data(),
		bitsEnd: cell.BitLen(),
		refsEnd: uint8(cell.ReferenceCount()),
	}
}

// Cell returns the cell this slice is reading from, nil for detached data.
func (s *Slice) Cell() Cell {
	return s.cell
}

// Offset returns the number of bits and references consumed so far.
func (s *Slice) Offset() (bits uint16, refs uint8) {
	return s.bitsStart, s.refsStart
}

func (s *Slice) RemainingBits() uint16 {
	return s.bitsEnd - s.bitsStart
}

func (s *Slice) RemainingRefs() uint8 {
	return s.refsEnd - s.refsStart
}

func (s *Slice) IsDataEmpty() bool {
	return s.bitsStart >= s.bitsEnd
}

func (s *Slice) IsRefsEmpty() bool {
	return s.refsStart >= s.refsEnd
}

func (s *Slice) IsEmpty() bool {
	return s.IsDataEmpty() && s.IsRefsEmpty()
}

func (s *Slice) checkBits(offset, bits uint16) error {
	if uint32(offset)+uint32(bits) > uint32(s.RemainingBits()) {
		return fmt.Errorf("%w: reading %d bits at offset %d, only %d available", ErrCellUnderflow, bits, offset, s.RemainingBits())
	}
	return nil
}

// --- data access ---

// GetBit reads the bit at the given offset relative to the current position.
func (s *Slice) GetBit(offset uint16) (bool, error) {
	if err := s.checkBits(offset, 1); err != nil {
		return false, err
	}
	return getBit(s.data, s.bitsStart+offset), nil
}

// LoadBit consumes a single bit.
func (s *Slice) LoadBit() (bool, error) {
	res, err := s.GetBit(0)
	if err == nil {
		s.bitsStart++
	}
	return res, err
}

// GetUint reads an unsigned integer of up to 64 bits at the given offset.
func (s *Slice) GetUint(offset, bits uint16) (uint64, error) {
	if bits > 64 {
		return 0, fmt.Errorf("%w: can not read %d bits into a 64-bit integer", ErrInvalidData, bits)
	}
	if err := s.checkBits(offset, bits); err != nil {
		return 0, err
	}
	return readUint(s.data, s.bitsStart+offset, bits), nil
}

// LoadUint consumes an unsigned integer of up to 64 bits.
func (s *Slice) LoadUint(bits uint16) (uint64, error) {
	res, err := s.GetUint(0, bits)
	if err == nil {
		s.bitsStart += bits
	}
	return res, err
}

// LoadSmallUint consumes an unsigned integer of up to 8 bits.
func (s *Slice) LoadSmallUint(bits uint16) (uint8, error) {
	if bits > 8 {
		return 0, fmt.Errorf("%w: can not read %d bits into an 8-bit integer", ErrInvalidData, bits)
	}
	res, err := s.LoadUint(bits)
	return uint8(res), err
}

func (s *Slice) LoadU8() (uint8, error) {
	res, err := s.LoadUint(8)
	return uint8(res), err
}

func (s *Slice) LoadU16() (uint16, error) {
	res, err := s.LoadUint(16)
	return uint16(res), err
}

func (s *Slice) LoadU32() (uint32, error) {
	res, err := s.LoadUint(32)
	return uint32(res), err
}

func (s *Slice) LoadU64() (uint64, error) {
	return s.LoadUint(64)
}

// LoadU128 consumes a 128-bit integer and returns its high and low halves.
func (s *Slice) LoadU128() (hi, lo uint64, err error) {
	if err := s.checkBits(0, 128); err != nil {
		return 0, 0, err
	}
	hi, _ = s.LoadUint(64)
	lo, _ = s.LoadUint(64)
	return hi, lo, nil
}

// LoadU256 consumes a 256-bit big-endian value.
func (s *Slice) LoadU256() ([32]byte, error) {
	var res [32]byte
	raw, err := s.LoadRaw(256)
	if err != nil {
		return res, err
	}
	copy(res[:], raw)
	return res, nil
}

// LoadBigUint consumes an unsigned integer of the given width. Widths above
// 256 bits are accepted if the excess leading bits are zero.
func (s *Slice) LoadBigUint(bits uint16) (*uint256.Int, error) {
	if err := s.checkBits(0, bits); err != nil {
		return nil, err
	}
	cursor := *s
	if bits > 256 {
		if leading := cursor.CountLeading(false); leading < bits-256 {
			return nil, fmt.Errorf("%w: value exceeds 256 bits", ErrIntOverflow)
		}
		cursor.bitsStart += bits - 256
		bits = 256
	}
	res := new(uint256.Int)
	for bits > 0 {
		chunk := min(bits, 64)
		value, _ := cursor.LoadUint(chunk)
		res.Lsh(res, uint(chunk))
		res.Or(res, uint256.NewInt(value))
		bits -= chunk
	}
	*s = cursor
	return res, nil
}

// LoadRaw consumes the given number of bits and returns them left aligned
// in a fresh byte slice.
func (s *Slice) LoadRaw(bits uint16) ([]byte, error) {
	if err := s.checkBits(0, bits); err != nil {
		return nil, err
	}
	res := make([]byte, (bits+7)/8)
	for i := range res {
		chunk := min(bits-uint16(i)*8, 8)
		res[i] = byte(readUint(s.data, s.bitsStart, chunk) << (8 - chunk))
		s.bitsStart += chunk
	}
	return res, nil
}

// --- references ---

// GetReference returns the reference at the given index relative to the
// current position.
func (s *Slice) GetReference(index uint8) (Cell, error) {
	if index >= s.RemainingRefs() {
		return nil, fmt.Errorf("%w: reference %d requested, only %d available", ErrCellUnderflow, index, s.RemainingRefs())
	}
	res := s.cell.Reference(int(s.refsStart + index))
	if res == nil {
		return nil, fmt.Errorf("%w: missing reference %d", ErrCellUnderflow, index)
	}
	return res, nil
}

// LoadReference consumes the next reference.
func (s *Slice) LoadReference() (Cell, error) {
	res, err := s.GetReference(0)
	if err == nil {
		s.refsStart++
	}
	return res, err
}

// --- cursor manipulation ---

// TryAdvance skips the given number of bits and references if available.
func (s *Slice) TryAdvance(bits uint16, refs uint8) bool {
	if bits > s.RemainingBits() || refs > s.RemainingRefs() {
		return false
	}
	s.bitsStart += bits
	s.refsStart += refs
	return true
}

// Advance skips the given number of bits and references.
func (s *Slice) Advance(bits uint16, refs uint8) error {
	if !s.TryAdvance(bits, refs) {
		return fmt.Errorf("%w: can not skip %d bits and %d references, %d and %d available", ErrCellUnderflow, bits, refs, s.RemainingBits(), s.RemainingRefs())
	}
	return nil
}

// GetPrefix returns a slice covering the leading bits and references of the
// remaining content without consuming them.
func (s *Slice) GetPrefix(bits uint16, refs uint8) (Slice, error) {
	if bits > s.RemainingBits() || refs > s.RemainingRefs() {
		return Slice{}, fmt.Errorf("%w: prefix of %d bits and %d references exceeds slice", ErrCellUnderflow, bits, refs)
	}
	res := *s
	res.bitsEnd = s.bitsStart + bits
	res.refsEnd = s.refsStart + refs
	return res, nil
}

// --- comparisons ---

// CommonPrefixLen returns the number of leading bits the remaining data of
// both slices have in common.
func (s *Slice) CommonPrefixLen(other *Slice) uint16 {
	limit := min(s.RemainingBits(), other.RemainingBits())
	return commonPrefixLen(s.data, s.bitsStart, other.data, other.bitsStart, limit)
}

// CountLeading returns the number of leading bits equal to the given bit.
func (s *Slice) CountLeading(bit bool) uint16 {
	return countLeading(s.data, s.bitsStart, s.RemainingBits(), bit)
}

// TestUniform reports whether all remaining bits are equal and if so, which
// value they have. Empty slices are not uniform.
func (s *Slice) TestUniform() (bit bool, uniform bool) {
	if s.IsDataEmpty() {
		return false, false
	}
	first := getBit(s.data, s.bitsStart)
	return first, s.CountLeading(first) == s.RemainingBits()
}

// DataEqual tests whether the remaining data bits of both slices are equal.
func (s *Slice) DataEqual(other *Slice) bool {
	return s.RemainingBits() == other.RemainingBits() && s.CommonPrefixLen(other) == s.RemainingBits()
}

// String renders the remaining bits in hex. If the length is not a multiple
// of four, a completion tag is appended and the result is suffixed by '_'.
func (s *Slice) String() string {
	return formatBits(s.data, s.bitsStart, s.RemainingBits())
}

func formatBits(data []byte, offset, bits uint16) string {
	buffer := make([]byte, bits/8+1)
	for i := uint16(0); i < bits; i++ {
		if getBit(data, offset+i) {
			buffer[i/8] |= 0x80 >> (i % 8)
		}
	}
	if bits%4 == 0 {
		return hex.EncodeToString(buffer)[:bits/4]
	}
	buffer[bits/8] |= 0x80 >> (bits % 8)
	return hex.EncodeToString(buffer)[:bits/4+1] + "_"
}
