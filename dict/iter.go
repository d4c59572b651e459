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

	"github.com/Fantom-foundation/Cellar/cell"
)

// RawIter enumerates the entries of a dictionary in key order. By default,
// keys are visited in ascending unsigned order.
//
//	it := NewRawIter(root, 32, ctx)
//	for it.Next() {
//		entry := it.Entry()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type RawIter struct {
	ctx      cell.Context
	reversed bool
	signed   bool
	stack    []iterFrame
	entry    Entry
	err      error
}

type iterFrame struct {
	node    cell.Cell
	key     *cell.Builder // the key bits above this node
	keyBits uint16        // the key bits remaining at this node
}

// NewRawIter creates an iterator over the dictionary with the given root.
func NewRawIter(root cell.Cell, keyBits uint16, ctx cell.Context) *RawIter {
	it := &RawIter{ctx: ctx}
	if root != nil {
		it.stack = []iterFrame{{node: root, key: cell.NewBuilder(), keyBits: keyBits}}
	}
	return it
}

// Reversed makes the iterator visit keys in descending order. It must be
// called before the first call to Next.
func (it *RawIter) Reversed() *RawIter {
	it.reversed = true
	return it
}

// Signed makes the iterator order keys as two's complement integers. It
// must be called before the first call to Next.
func (it *RawIter) Signed() *RawIter {
	it.signed = true
	return it
}

// Next advances to the next entry. It returns false once all entries have
// been visited or an error occurred.
func (it *RawIter) Next() bool {
	if it.err != nil {
		return false
	}
	for len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		_, s, err := loadNode(top.node, it.ctx)
		if err != nil {
			return it.fail(err)
		}
		label, err := ReadLabel(&s, top.keyBits)
		if err != nil {
			return it.fail(err)
		}
		if !top.key.StoreSliceData(label) {
			return it.fail(fmt.Errorf("%w: key exceeds cell capacity", cell.ErrCellOverflow))
		}
		if label.RemainingBits() == top.keyBits {
			it.entry = Entry{Key: top.key.AsDataSlice(), Value: s}
			return true
		}
		if s.RemainingRefs() < 2 {
			return it.fail(fmt.Errorf("%w: fork with %d references", cell.ErrCellUnderflow, s.RemainingRefs()))
		}

		first := it.reversed
		if it.signed && top.key.BitLen() == 0 {
			first = !first
		}
		childBits := top.keyBits - label.RemainingBits() - 1
		// The branch to visit first is pushed last.
		for _, branch := range [2]bool{!first, first} {
			next, err := s.GetReference(branchIndex(branch))
			if err != nil {
				return it.fail(err)
			}
			key := top.key.Clone()
			key.StoreBit(branch)
			it.stack = append(it.stack, iterFrame{node: next, key: key, keyBits: childBits})
		}
	}
	return false
}

func (it *RawIter) fail(err error) bool {
	it.err = err
	it.stack = nil
	return false
}

// Entry returns the entry reached by the last successful call to Next.
func (it *RawIter) Entry() Entry {
	return it.entry
}

// Err returns the error that ended the iteration, if any.
func (it *RawIter) Err() error {
	return it.err
}
