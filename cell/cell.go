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
	"sync/atomic"

	"github.com/Fantom-foundation/Cellar/common"
)

// Cell is an immutable, content-addressed node of up to MaxBitLen data bits
// and up to MaxRefCount references to child cells. Cells are created by
// finalizing the content of a Builder and are never modified afterwards.
type Cell interface {
	// Descriptor returns the descriptor bytes of this cell.
	Descriptor() Descriptor
	// CellType returns Ordinary or the kind of exotic cell.
	CellType() CellType
	// LevelMask returns the level mask recorded in the descriptor.
	LevelMask() LevelMask
	// BitLen returns the number of data bits.
	BitLen() uint16
	// Data returns the data bytes including the completion tag. The result
	// must not be modified.
	Data() []byte
	// ReferenceCount returns the number of child references.
	ReferenceCount() int
	// Reference returns the child at the given index or nil if there is none.
	Reference(index int) Cell
	// Hash returns the hash of this cell at the given level.
	Hash(level uint8) common.Hash
	// Depth returns the depth of this cell at the given level.
	Depth(level uint8) uint16
	// ReprHash returns the representation hash, the hash at the highest level.
	ReprHash() common.Hash
	// ReprDepth returns the depth at the highest level.
	ReprDepth() uint16
	// Stats returns the aggregated size of the tree rooted by this cell.
	Stats() TreeStats
	// Family returns the family that finalized this cell.
	Family() *Family
}

// Unwrapper is implemented by cells decorating other cells.
type Unwrapper interface {
	Unwrap() Cell
}

// Unwrap strips all decorations from the given cell.
func Unwrap(c Cell) Cell {
	for {
		wrapper, ok := c.(Unwrapper)
		if !ok {
			return c
		}
		c = wrapper.Unwrap()
	}
}

// TreeStats summarizes the size of a cell tree. Shared subtrees are counted
// once per occurrence.
type TreeStats struct {
	BitCount  uint64
	CellCount uint64
}

func (s TreeStats) Add(other TreeStats) TreeStats {
	return TreeStats{
		BitCount:  s.BitCount + other.BitCount,
		CellCount: s.CellCount + other.CellCount,
	}
}

// ----------------------------------------------------------------------------
//                               Cell Header
// ----------------------------------------------------------------------------

// cellHeader holds the properties shared by all cell implementations. The
// hash and depth tables are indexed by hash index; pruned branches only keep
// their representation hash and read lower levels from their data.
type cellHeader struct {
	descriptor Descriptor
	bitLen     uint16
	cellType   CellType
	data       []byte
	hashes     []common.Hash
	depths     []uint16
	stats      TreeStats
	family     *Family
}

func (h *cellHeader) Descriptor() Descriptor {
	return h.descriptor
}

func (h *cellHeader) CellType() CellType {
	return h.cellType
}

func (h *cellHeader) LevelMask() LevelMask {
	return h.descriptor.LevelMask()
}

func (h *cellHeader) BitLen() uint16 {
	return h.bitLen
}

func (h *cellHeader) Data() []byte {
	return h.data
}

func (h *cellHeader) Stats() TreeStats {
	return h.stats
}

func (h *cellHeader) Family() *Family {
	return h.family
}

func (h *cellHeader) Hash(level uint8) common.Hash {
	mask := h.descriptor.LevelMask()
	index := mask.HashIndex(level)
	if h.cellType == PrunedBranch {
		if index < int(mask.Level()) {
			var res common.Hash
			offset := prunedHashesOffset + index*common.HashSize
			copy(res[:], h.data[offset:offset+common.HashSize])
			return res
		}
		return h.hashes[0]
	}
	return h.hashes[index]
}

func (h *cellHeader) Depth(level uint8) uint16 {
	mask := h.descriptor.LevelMask()
	index := mask.HashIndex(level)
	if h.cellType == PrunedBranch {
		if count := int(mask.Level()); index < count {
			offset := prunedHashesOffset + count*common.HashSize + index*2
			return binary.BigEndian.Uint16(h.data[offset:])
		}
		return h.depths[0]
	}
	return h.depths[index]
}

func (h *cellHeader) ReprHash() common.Hash {
	return h.hashes[len(h.hashes)-1]
}

func (h *cellHeader) ReprDepth() uint16 {
	return h.depths[len(h.depths)-1]
}

// ----------------------------------------------------------------------------
//                             Owned Cells
// ----------------------------------------------------------------------------

// exclusiveCell is a cell of an Exclusive family. Its holder count is not
// synchronized, so cells of this kind must only be used by one goroutine at
// a time.
type exclusiveCell struct {
	cellHeader
	references []Cell
	holders    int32
}

func (c *exclusiveCell) ReferenceCount() int {
	return len(c.references)
}

func (c *exclusiveCell) Reference(index int) Cell {
	if index < 0 || index >= len(c.references) {
		return nil
	}
	return c.references[index]
}

func (c *exclusiveCell) retain() {
	c.holders++
}

func (c *exclusiveCell) holderCount() int {
	return int(c.holders)
}

// sharedCell is a cell of a Shared family. It may be used by any number of
// goroutines concurrently.
type sharedCell struct {
	cellHeader
	references []Cell
	holders    atomic.Int32
}

func (c *sharedCell) ReferenceCount() int {
	return len(c.references)
}

func (c *sharedCell) Reference(index int) Cell {
	if index < 0 || index >= len(c.references) {
		return nil
	}
	return c.references[index]
}

func (c *sharedCell) retain() {
	c.holders.Add(1)
}

func (c *sharedCell) holderCount() int {
	return int(c.holders.Load())
}

// holder is implemented by cells tracking the number of parent cells
// referencing them.
type holder interface {
	retain()
	holderCount() int
}

// HolderCount returns the number of cells referencing the given cell as a
// child. The second result is false if the cell does not track holders.
func HolderCount(c Cell) (int, bool) {
	if h, ok := Unwrap(c).(holder); ok {
		return h.holderCount(), true
	}
	return 0, false
}
