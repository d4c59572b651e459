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

// Bit strings are stored big-endian: bit 0 is the most significant bit of the
// first byte. The helpers below do not check bounds, callers must.

func getBit(data []byte, offset uint16) bool {
	return data[offset/8]&(0x80>>(offset%8)) != 0
}

// readUint reads up to 64 bits starting at the given bit offset and returns
// them as the low bits of the result.
func readUint(data []byte, offset uint16, bits uint16) uint64 {
	var res uint64
	q := int(offset / 8)
	r := offset % 8
	for bits > 0 {
		avail := 8 - r
		take := min(avail, bits)
		chunk := uint64(data[q]>>(avail-take)) & (1<<take - 1)
		res = res<<take | chunk
		bits -= take
		q++
		r = 0
	}
	return res
}

// commonPrefixLen counts the leading bits two bit strings have in common,
// considering at most limit bits.
func commonPrefixLen(a []byte, aOffset uint16, b []byte, bOffset uint16, limit uint16) uint16 {
	var res uint16
	for res < limit {
		chunk := min(limit-res, 64)
		x := readUint(a, aOffset+res, chunk)
		y := readUint(b, bOffset+res, chunk)
		if x == y {
			res += chunk
			continue
		}
		diff := x ^ y
		// Number of equal bits before the highest differing bit.
		for i := chunk; i > 0; i-- {
			if diff&(1<<(i-1)) != 0 {
				return res + chunk - i
			}
		}
	}
	return res
}

// countLeading counts the number of leading bits equal to the given bit.
func countLeading(data []byte, offset uint16, limit uint16, bit bool) uint16 {
	var res uint16
	for res < limit {
		if getBit(data, offset+res) != bit {
			break
		}
		res++
	}
	return res
}
