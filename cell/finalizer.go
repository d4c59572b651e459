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
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/Fantom-foundation/Cellar/common"
)

// PartialCell is the content of a cell staged by a Builder and handed to a
// Finalizer. Data includes the completion tag.
type PartialCell struct {
	Descriptor   Descriptor
	BitLen       uint16
	Data         []byte
	References   []Cell
	ChildrenMask LevelMask
	Stats        TreeStats
}

// Layout of exotic cell data. Lengths are in bits, offsets in bytes.
const (
	prunedHashesOffset   = 2
	libraryBitLen        = 8 + 256
	merkleProofBitLen    = 8 + 256 + 16
	merkleUpdateBitLen   = 8 + 2*(256+16)
	prunedBranchEntryLen = 256 + 16
)

// hashTable is the result of hashing a partial cell.
type hashTable struct {
	cellType CellType
	hashes   []common.Hash
	depths   []uint16
}

// computeHashes validates the given partial cell and derives its hashes and
// depths at all significant levels. The result depends on nothing but the
// logical content of the cell and the hashing algorithm.
func computeHashes(hashing common.HashAlgorithm, cell *PartialCell) (hashTable, error) {
	res := hashTable{cellType: Ordinary}
	descriptor := cell.Descriptor
	mask := descriptor.LevelMask()

	if int(descriptor.ReferenceCount()) != len(cell.References) {
		return res, fmt.Errorf("%w: descriptor announces %d references, got %d", ErrInvalidData, descriptor.ReferenceCount(), len(cell.References))
	}
	if cell.BitLen > MaxBitLen || len(cell.References) > MaxRefCount {
		return res, fmt.Errorf("%w: %d bits, %d references", ErrCellOverflow, cell.BitLen, len(cell.References))
	}
	if descriptor.IsExotic() {
		cellType, err := validateExotic(cell)
		if err != nil {
			return res, err
		}
		res.cellType = cellType
	} else if mask != cell.ChildrenMask {
		return res, fmt.Errorf("%w: level mask %v of ordinary cell differs from children mask %v", ErrInvalidData, mask, cell.ChildrenMask)
	}

	levelOffset := uint8(0)
	if res.cellType.IsMerkle() {
		levelOffset = 1
	}

	highest := uint8(bits.Len8(uint8(mask)))
	count := mask.HashCount()
	if res.cellType == PrunedBranch {
		count = 1
	}
	res.hashes = make([]common.Hash, 0, count)
	res.depths = make([]uint16, 0, count)

	hasher := hashing.NewHasher()
	defer hashing.ReleaseHasher(hasher)

	var buffer [2]byte
	for level := uint8(0); level <= MaxLevel; level++ {
		if !mask.IsSignificant(level) {
			continue
		}
		if res.cellType == PrunedBranch && level != highest {
			continue
		}

		hasher.Reset()
		hasher.Write([]byte{descriptor.WithLevelMask(mask.Apply(level)).D1, descriptor.D2})
		if len(res.hashes) == 0 {
			hasher.Write(cell.Data)
		} else {
			hasher.Write(res.hashes[len(res.hashes)-1][:])
		}

		depth := uint16(0)
		for _, child := range cell.References {
			childDepth := child.Depth(level + levelOffset)
			binary.BigEndian.PutUint16(buffer[:], childDepth)
			hasher.Write(buffer[:])
			depth = max(depth, childDepth+1)
		}
		if depth > MaxDepth {
			return res, fmt.Errorf("%w: depth %d exceeds maximum of %d", ErrCellOverflow, depth, MaxDepth)
		}
		for _, child := range cell.References {
			hash := child.Hash(level + levelOffset)
			hasher.Write(hash[:])
		}

		var hash common.Hash
		hasher.Sum(hash[:0])
		res.hashes = append(res.hashes, hash)
		res.depths = append(res.depths, depth)
	}
	return res, nil
}

// validateExotic checks the layout of an exotic cell and returns its type.
func validateExotic(cell *PartialCell) (CellType, error) {
	if cell.BitLen < 8 {
		return Ordinary, fmt.Errorf("%w: exotic cell without type tag", ErrInvalidData)
	}
	mask := cell.Descriptor.LevelMask()
	refs := cell.References
	cellType := CellType(cell.Data[0])
	switch cellType {
	case PrunedBranch:
		if len(refs) != 0 {
			return cellType, fmt.Errorf("%w: pruned branch with references", ErrInvalidData)
		}
		if mask == EmptyLevelMask || cell.BitLen < 16 {
			return cellType, fmt.Errorf("%w: pruned branch without level", ErrInvalidData)
		}
		if LevelMask(cell.Data[1]) != mask {
			return cellType, fmt.Errorf("%w: pruned branch mask %v does not match descriptor mask %v", ErrInvalidData, LevelMask(cell.Data[1]), mask)
		}
		if want := 16 + uint16(mask.Level())*prunedBranchEntryLen; cell.BitLen != want {
			return cellType, fmt.Errorf("%w: pruned branch of %d bits, wanted %d", ErrInvalidData, cell.BitLen, want)
		}

	case LibraryReference:
		if len(refs) != 0 || cell.BitLen != libraryBitLen || mask != EmptyLevelMask {
			return cellType, fmt.Errorf("%w: invalid library reference layout", ErrInvalidData)
		}

	case MerkleProof:
		if len(refs) != 1 || cell.BitLen != merkleProofBitLen {
			return cellType, fmt.Errorf("%w: invalid Merkle proof layout", ErrInvalidData)
		}
		if want := refs[0].LevelMask().Virtualize(1); mask != want {
			return cellType, fmt.Errorf("%w: Merkle proof mask %v, wanted %v", ErrInvalidData, mask, want)
		}
		if err := checkMerkleChild(cell.Data, 1, 1+common.HashSize, refs[0]); err != nil {
			return cellType, err
		}

	case MerkleUpdate:
		if len(refs) != 2 || cell.BitLen != merkleUpdateBitLen {
			return cellType, fmt.Errorf("%w: invalid Merkle update layout", ErrInvalidData)
		}
		if want := refs[0].LevelMask().Union(refs[1].LevelMask()).Virtualize(1); mask != want {
			return cellType, fmt.Errorf("%w: Merkle update mask %v, wanted %v", ErrInvalidData, mask, want)
		}
		for i, child := range refs {
			hashOffset := 1 + i*common.HashSize
			depthOffset := 1 + 2*common.HashSize + i*2
			if err := checkMerkleChild(cell.Data, hashOffset, depthOffset, child); err != nil {
				return cellType, err
			}
		}

	default:
		return cellType, fmt.Errorf("%w: unknown exotic cell type %d", ErrInvalidTag, byte(cellType))
	}
	return cellType, nil
}

// checkMerkleChild verifies that the hash and depth recorded in a Merkle cell
// for one of its children match the child's level 0 hash and depth.
func checkMerkleChild(data []byte, hashOffset, depthOffset int, child Cell) error {
	hash := child.Hash(0)
	if !bytes.Equal(data[hashOffset:hashOffset+common.HashSize], hash[:]) {
		return fmt.Errorf("%w: Merkle cell hash mismatch", ErrInvalidData)
	}
	if depth := binary.BigEndian.Uint16(data[depthOffset:]); depth != child.Depth(0) {
		return fmt.Errorf("%w: Merkle cell depth mismatch, recorded %d, actual %d", ErrInvalidData, depth, child.Depth(0))
	}
	return nil
}
