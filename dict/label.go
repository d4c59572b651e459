// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dict

import (
	"fmt"
	"math/bits"

	"github.com/Fantom-foundation/Cellar/cell"
)

// Edge labels use one of three encodings:
//
//	short: 0 ‖ unary(n) ‖ n label bits
//	long:  10 ‖ n in lenBits ‖ n label bits
//	same:  11 ‖ v ‖ n in lenBits          (n copies of bit v)
//
// where lenBits is the number of bits needed to represent the remaining key
// length at the edge.

// labelLenBits returns the width of the length field of long and same labels.
func labelLenBits(keyBits uint16) uint16 {
	return uint16(bits.Len16(keyBits))
}

// ReadLabel consumes an edge label from the given slice and returns the key
// bits it stands for. keyBits is the number of key bits not yet covered by
// the labels and branches above this edge.
func ReadLabel(s *cell.Slice, keyBits uint16) (cell.Slice, error) {
	lenBits := labelLenBits(keyBits)
	if lenBits == 0 && s.IsDataEmpty() {
		return cell.Slice{}, nil
	}

	// 0: short, 10: long, 11: same
	longOrSame, err := s.LoadBit()
	if err != nil {
		return cell.Slice{}, err
	}
	if !longOrSame {
		n := s.CountLeading(true)
		if err := s.Advance(n+1, 0); err != nil {
			return cell.Slice{}, err
		}
		return takeLabel(s, n, keyBits)
	}

	same, err := s.LoadBit()
	if err != nil {
		return cell.Slice{}, err
	}
	if !same {
		n, err := s.LoadUint(lenBits)
		if err != nil {
			return cell.Slice{}, err
		}
		return takeLabel(s, uint16(n), keyBits)
	}

	bit, err := s.LoadBit()
	if err != nil {
		return cell.Slice{}, err
	}
	n, err := s.LoadUint(lenBits)
	if err != nil {
		return cell.Slice{}, err
	}
	if n > uint64(keyBits) {
		return cell.Slice{}, labelTooLong(uint16(n), keyBits)
	}
	return uniformBits(bit, uint16(n)), nil
}

func takeLabel(s *cell.Slice, n, keyBits uint16) (cell.Slice, error) {
	if n > keyBits {
		return cell.Slice{}, labelTooLong(n, keyBits)
	}
	label, err := s.GetPrefix(n, 0)
	if err != nil {
		return cell.Slice{}, err
	}
	return label, s.Advance(n, 0)
}

func labelTooLong(n, keyBits uint16) error {
	return fmt.Errorf("%w: label of %d bits exceeds remaining key of %d bits", cell.ErrCellUnderflow, n, keyBits)
}

func uniformBits(bit bool, n uint16) cell.Slice {
	b := cell.NewBuilder()
	if bit {
		b.StoreOnes(n)
	} else {
		b.StoreZeros(n)
	}
	return b.AsDataSlice()
}

// WriteLabel appends the shortest encoding of the given label to the
// builder. On ties, short labels are preferred over long ones and same
// labels are only used if they are strictly shorter than both.
func WriteLabel(b *cell.Builder, label cell.Slice, keyBits uint16) error {
	if keyBits == 0 || label.IsDataEmpty() {
		return checkStore(b.StoreZeros(2), "empty label")
	}

	n := label.RemainingBits()
	if n > keyBits {
		return fmt.Errorf("%w: label of %d bits exceeds key of %d bits", cell.ErrInvalidData, n, keyBits)
	}
	lenBits := labelLenBits(keyBits)
	shortLen := 2 + 2*uint32(n)
	longLen := 2 + uint32(lenBits) + uint32(n)
	sameLen := 3 + uint32(lenBits)

	if sameLen < longLen && sameLen < shortLen {
		if bit, uniform := label.TestUniform(); uniform {
			return checkStore(
				b.StoreBitOne() && b.StoreBitOne() && b.StoreBit(bit) && b.StoreUint(uint64(n), lenBits),
				"same label",
			)
		}
	}
	switch {
	case shortLen <= cell.MaxBitLen && shortLen <= longLen:
		return checkStore(
			b.StoreBitZero() && b.StoreOnes(n) && b.StoreBitZero() && b.StoreSliceData(label),
			"short label",
		)
	case longLen <= cell.MaxBitLen:
		return checkStore(
			b.StoreBitOne() && b.StoreBitZero() && b.StoreUint(uint64(n), lenBits) && b.StoreSliceData(label),
			"long label",
		)
	}
	return fmt.Errorf("%w: label of %d bits can not be encoded", cell.ErrInvalidData, n)
}

func checkStore(ok bool, what string) error {
	if !ok {
		return fmt.Errorf("%w: not enough space for %s", cell.ErrCellOverflow, what)
	}
	return nil
}
