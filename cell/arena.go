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
	"math"
	"sync"

	"github.com/Fantom-foundation/Cellar/common"
)

// NewArenaFamily creates a family placing all of its cells in the given
// buffer. The buffer is owned by the caller, may for instance be a memory
// mapped region, and must outlive all cells of the family. Once the buffer
// is full, finalizing fails with ErrArenaExhausted.
func NewArenaFamily(config Config, buffer []byte) (*Family, error) {
	if config.Ownership != Arena {
		return nil, fmt.Errorf("invalid configuration %q: ownership %v is not arena based", config.Name, config.Ownership)
	}
	if !config.Hashing.IsValid() {
		return nil, fmt.Errorf("invalid configuration %q: no hashing algorithm", config.Name)
	}
	if uint64(len(buffer)) > math.MaxUint32 {
		return nil, fmt.Errorf("arena buffer of %d bytes exceeds maximum size", len(buffer))
	}
	return &Family{
		config: config,
		store:  &arena{buffer: buffer},
	}, nil
}

// ArenaUsage returns the number of bytes occupied in the buffer of an arena
// family and the buffer's capacity. Other families report zero for both.
func (f *Family) ArenaUsage() (used, capacity int) {
	a, ok := f.store.(*arena)
	if !ok {
		return 0, 0
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.used, len(a.buffer)
}

// arena is a bump allocator of cell records in a caller owned buffer.
// Records are written once and never modified, so reading them does not
// require the lock.
//
// Record layout:
//
//	d1 d2 | bit length u16 | bit count u64 | cell count u64 | type u8 |
//	hash count u8 | hashes | depths u16 | child offsets u32 | data
type arena struct {
	mutex  sync.Mutex
	buffer []byte
	used   int
}

const arenaFixedHeaderSize = 2 + 2 + 8 + 8 + 1 + 1

func (a *arena) create(family *Family, cell *PartialCell, table hashTable) (Cell, error) {
	offsets := make([]uint32, len(cell.References))
	for i, child := range cell.References {
		c, ok := Unwrap(child).(*arenaCell)
		if !ok || c.arena != a {
			return nil, fmt.Errorf("%w: child %d is not located in this arena", ErrInvalidData, i)
		}
		offsets[i] = c.offset
	}

	hashCount := len(table.hashes)
	size := arenaFixedHeaderSize + hashCount*(common.HashSize+2) + len(offsets)*4 + len(cell.Data)

	a.mutex.Lock()
	if a.used+size > len(a.buffer) {
		a.mutex.Unlock()
		return nil, fmt.Errorf("%w: %d of %d bytes used, %d more needed", ErrArenaExhausted, a.used, len(a.buffer), size)
	}
	offset := a.used
	a.used += size
	a.mutex.Unlock()

	record := a.buffer[offset : offset+size]
	record[0] = cell.Descriptor.D1
	record[1] = cell.Descriptor.D2
	binary.BigEndian.PutUint16(record[2:], cell.BitLen)
	binary.BigEndian.PutUint64(record[4:], cell.Stats.BitCount)
	binary.BigEndian.PutUint64(record[12:], cell.Stats.CellCount)
	record[20] = byte(table.cellType)
	record[21] = byte(hashCount)
	pos := arenaFixedHeaderSize
	for _, hash := range table.hashes {
		pos += copy(record[pos:], hash[:])
	}
	for _, depth := range table.depths {
		binary.BigEndian.PutUint16(record[pos:], depth)
		pos += 2
	}
	for _, childOffset := range offsets {
		binary.BigEndian.PutUint32(record[pos:], childOffset)
		pos += 4
	}
	copy(record[pos:], cell.Data)

	return a.load(family, uint32(offset)), nil
}

// load decodes the record at the given offset. The data of the resulting
// cell aliases the arena buffer.
func (a *arena) load(family *Family, offset uint32) *arenaCell {
	record := a.buffer[offset:]
	descriptor := Descriptor{D1: record[0], D2: record[1]}
	hashCount := int(record[21])

	res := &arenaCell{
		cellHeader: cellHeader{
			descriptor: descriptor,
			bitLen:     binary.BigEndian.Uint16(record[2:]),
			cellType:   CellType(record[20]),
			hashes:     make([]common.Hash, hashCount),
			depths:     make([]uint16, hashCount),
			stats: TreeStats{
				BitCount:  binary.BigEndian.Uint64(record[4:]),
				CellCount: binary.BigEndian.Uint64(record[12:]),
			},
			family: family,
		},
		arena:  a,
		offset: offset,
	}
	pos := arenaFixedHeaderSize
	for i := range res.hashes {
		pos += copy(res.hashes[i][:], record[pos:])
	}
	for i := range res.depths {
		res.depths[i] = binary.BigEndian.Uint16(record[pos:])
		pos += 2
	}
	refCount := int(descriptor.ReferenceCount())
	res.children = record[pos : pos+refCount*4 : pos+refCount*4]
	pos += refCount * 4
	byteLen := descriptor.ByteLen()
	res.data = record[pos : pos+byteLen : pos+byteLen]
	return res
}

// arenaCell is a view on a cell record stored in an arena.
type arenaCell struct {
	cellHeader
	arena    *arena
	offset   uint32
	children []byte
}

func (c *arenaCell) ReferenceCount() int {
	return len(c.children) / 4
}

func (c *arenaCell) Reference(index int) Cell {
	if index < 0 || index >= c.ReferenceCount() {
		return nil
	}
	offset := binary.BigEndian.Uint32(c.children[index*4:])
	return c.arena.load(c.family, offset)
}
