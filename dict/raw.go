// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package dict implements dictionaries with fixed-length keys on top of cell
// trees. Dictionaries are binary tries whose edges carry compressed key
// labels. A node either is a leaf holding a value or a fork referencing two
// sub-tries, the left one for keys continuing with a 0 bit, the right one
// for keys continuing with a 1 bit.
//
// All operations are persistent: updates produce a new root and share all
// untouched sub-tries with the previous version. A nil root represents the
// empty dictionary.
package dict

import (
	"fmt"

	"github.com/Fantom-foundation/Cellar/cell"
)

// Bound selects the direction of a nearest-key search.
type Bound byte

const (
	// Min searches towards smaller keys.
	Min Bound = iota
	// Max searches towards larger keys.
	Max
)

func (b Bound) String() string {
	if b == Max {
		return "Max"
	}
	return "Min"
}

// branch returns the fork branch leading towards this bound.
func (b Bound) branch() bool {
	return b == Max
}

// SetMode controls which updates an insertion may perform.
type SetMode byte

const (
	// Set inserts new keys and overwrites existing ones.
	Set SetMode = iota
	// Replace only overwrites existing keys.
	Replace
	// Add only inserts keys not present yet.
	Add
)

func (m SetMode) String() string {
	switch m {
	case Set:
		return "Set"
	case Replace:
		return "Replace"
	case Add:
		return "Add"
	default:
		return fmt.Sprintf("SetMode(%d)", byte(m))
	}
}

func (m SetMode) canReplace() bool {
	return m != Add
}

func (m SetMode) canAdd() bool {
	return m != Replace
}

// Entry is a key/value pair located in a dictionary. The key is a detached
// bit string, the value is a slice of the leaf holding it.
type Entry struct {
	Key   cell.Slice
	Value cell.Slice
}

// Value appends the encoding of a dictionary value to a builder.
type Value func(b *cell.Builder, ctx cell.Context) error

// SliceValue returns a value copying the remaining bits and references of
// the given slice.
func SliceValue(s cell.Slice) Value {
	return func(b *cell.Builder, _ cell.Context) error {
		return checkStore(b.StoreSlice(s), "value")
	}
}

// segment is a fork passed on the way from the root to a leaf.
type segment struct {
	fork     cell.Cell
	branch   bool   // the branch followed below the fork
	edgeBits uint16 // key bits remaining at the fork's label
	keyBits  uint16 // key bits remaining below the fork
}

func branchIndex(branch bool) uint8 {
	if branch {
		return 1
	}
	return 0
}

func checkKey(key *cell.Slice, keyBits uint16) error {
	if key.RemainingBits() != keyBits {
		return fmt.Errorf("%w: key has %d bits, expected %d", cell.ErrCellUnderflow, key.RemainingBits(), keyBits)
	}
	return nil
}

// loadNode loads the given dictionary node and opens it for reading.
func loadNode(c cell.Cell, ctx cell.Context) (cell.Cell, cell.Slice, error) {
	loaded, err := ctx.LoadCell(c, cell.LoadFull)
	if err != nil {
		return nil, cell.Slice{}, err
	}
	s, err := cell.NewSlice(loaded)
	return loaded, s, err
}

// child loads the sub-trie referenced by the given branch of a fork whose
// label has already been consumed from s.
func child(s *cell.Slice, branch bool, ctx cell.Context) (cell.Cell, cell.Slice, error) {
	if s.RemainingRefs() < 2 {
		return nil, cell.Slice{}, fmt.Errorf("%w: fork with %d references", cell.ErrCellUnderflow, s.RemainingRefs())
	}
	next, err := s.GetReference(branchIndex(branch))
	if err != nil {
		return nil, cell.Slice{}, err
	}
	return loadNode(next, ctx)
}
