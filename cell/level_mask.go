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
	"fmt"
	"math/bits"
)

// MaxLevel is the maximum level of a cell.
const MaxLevel = 3

// LevelMask selects the levels at which a cell has independent hashes and
// depths. Only the lower three bits are significant. Bit i being set means
// that level i+1 is significant; level 0 is always significant.
type LevelMask uint8

// EmptyLevelMask is the level mask of cells having a single hash.
const EmptyLevelMask = LevelMask(0)

const levelMaskBits = LevelMask(0b111)

// LevelMaskFromLevel returns the mask covering all levels up to the given one.
func LevelMaskFromLevel(level uint8) LevelMask {
	if level > MaxLevel {
		level = MaxLevel
	}
	return LevelMask((1 << level) - 1)
}

// Level returns the number of significant levels above level 0.
func (m LevelMask) Level() uint8 {
	return uint8(bits.OnesCount8(uint8(m & levelMaskBits)))
}

// HashCount is the number of hashes a cell with this mask retains.
func (m LevelMask) HashCount() int {
	return int(m.Level()) + 1
}

// HashIndex maps a level to the index of the hash representing it in the
// list of significant hashes. Levels above the highest significant level map
// to the representation hash.
func (m LevelMask) HashIndex(level uint8) int {
	return int(m.Apply(level).Level())
}

// Apply restricts the mask to the levels below the given one.
func (m LevelMask) Apply(level uint8) LevelMask {
	if level > MaxLevel {
		return m & levelMaskBits
	}
	return m & LevelMask((1<<level)-1)
}

// IsSignificant tests whether the given level has a hash of its own.
func (m LevelMask) IsSignificant(level uint8) bool {
	return level == 0 || (level <= MaxLevel && (m>>(level-1))&1 != 0)
}

// Virtualize lowers the mask by the given number of levels as done when
// looking through Merkle proofs or updates.
func (m LevelMask) Virtualize(offset uint8) LevelMask {
	return (m & levelMaskBits) >> offset
}

// Union returns the mask covering the levels of both masks.
func (m LevelMask) Union(other LevelMask) LevelMask {
	return (m | other) & levelMaskBits
}

func (m LevelMask) String() string {
	return fmt.Sprintf("%03b", uint8(m&levelMaskBits))
}
