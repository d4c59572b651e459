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

import "fmt"

const (
	// MaxBitLen is the maximum number of data bits of a cell.
	MaxBitLen = 1023
	// MaxRefCount is the maximum number of references of a cell.
	MaxRefCount = 4
	// MaxDepth is the maximum depth of a cell tree.
	MaxDepth = 1024
	// maxDataBytes is the size of a buffer holding MaxBitLen bits plus one
	// spare byte for unaligned writes.
	maxDataBytes = 128
)

// Descriptor is the pair of bytes prefixing a cell in hash computations and
// serialized forms. The first byte encodes the reference count, the exotic
// flag, and the level mask; the second encodes the data length.
//
//	d1 = refs | exotic << 3 | mask << 5
//	d2 = floor(bits / 8) + ceil(bits / 8)
type Descriptor struct {
	D1 byte
	D2 byte
}

// ComputeD1 computes the first descriptor byte.
func ComputeD1(mask LevelMask, exotic bool, refCount uint8) byte {
	d1 := refCount&0b111 | byte(mask&levelMaskBits)<<5
	if exotic {
		d1 |= 0b1000
	}
	return d1
}

// ComputeD2 computes the second descriptor byte.
func ComputeD2(bitLen uint16) byte {
	return byte(bitLen/8 + (bitLen+7)/8)
}

// NewDescriptor assembles the descriptor of a cell.
func NewDescriptor(mask LevelMask, exotic bool, refCount uint8, bitLen uint16) Descriptor {
	return Descriptor{
		D1: ComputeD1(mask, exotic, refCount),
		D2: ComputeD2(bitLen),
	}
}

// ReferenceCount returns the number of child references.
func (d Descriptor) ReferenceCount() uint8 {
	return d.D1 & 0b111
}

// IsExotic is true for pruned branches, library references, and Merkle cells.
func (d Descriptor) IsExotic() bool {
	return d.D1&0b1000 != 0
}

// LevelMask returns the level mask encoded in the descriptor.
func (d Descriptor) LevelMask() LevelMask {
	return LevelMask(d.D1 >> 5)
}

// ByteLen returns the number of data bytes, including a partial last byte.
func (d Descriptor) ByteLen() int {
	return (int(d.D2) + 1) / 2
}

// IsAligned is true if the data length is a multiple of 8 bits, in which case
// the data carries no completion tag.
func (d Descriptor) IsAligned() bool {
	return d.D2&1 == 0
}

// WithLevelMask returns a copy of the descriptor with the given level mask.
func (d Descriptor) WithLevelMask(mask LevelMask) Descriptor {
	return Descriptor{
		D1: d.D1&0b0001_1111 | byte(mask&levelMaskBits)<<5,
		D2: d.D2,
	}
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%02x%02x", d.D1, d.D2)
}

// ----------------------------------------------------------------------------
//                               Cell Types
// ----------------------------------------------------------------------------

// CellType distinguishes ordinary cells from the various kinds of exotic cells.
// Exotic cells store their type as the first byte of their data.
type CellType byte

const (
	Ordinary         CellType = 0
	PrunedBranch     CellType = 1
	LibraryReference CellType = 2
	MerkleProof      CellType = 3
	MerkleUpdate     CellType = 4
)

// IsMerkle is true for Merkle proofs and updates, whose hashes are derived
// from their children's hashes one level up.
func (t CellType) IsMerkle() bool {
	return t == MerkleProof || t == MerkleUpdate
}

func (t CellType) String() string {
	switch t {
	case Ordinary:
		return "Ordinary"
	case PrunedBranch:
		return "PrunedBranch"
	case LibraryReference:
		return "LibraryReference"
	case MerkleProof:
		return "MerkleProof"
	case MerkleUpdate:
		return "MerkleUpdate"
	default:
		return fmt.Sprintf("Unknown(%d)", byte(t))
	}
}

// cellTypeOf determines the type of a cell given its descriptor and data.
func cellTypeOf(d Descriptor, data []byte) CellType {
	if !d.IsExotic() || len(data) == 0 {
		return Ordinary
	}
	return CellType(data[0])
}
