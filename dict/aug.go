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

// Augmented dictionaries store an extra value in every node. Leaves hold
// label ‖ extra ‖ value, forks hold label ‖ left ‖ right ‖ extra where the
// fork's extra is the combination of the extras of its two children.

// AugFunc combines the extras at the front of the left and right slices and
// appends the result to the builder. It must be associative.
type AugFunc func(left, right *cell.Slice, b *cell.Builder, ctx cell.Context) error

// AugInsert stores the extra and value for the given key according to the
// set mode, recombining the extras of all rebuilt forks.
func AugInsert(root cell.Cell, keyBits uint16, key cell.Slice, extra, value Value, mode SetMode, combine AugFunc, ctx cell.Context) (cell.Cell, bool, error) {
	if combine == nil {
		return nil, false, fmt.Errorf("%w: no combine function", cell.ErrInvalidData)
	}
	leaf := func(b *cell.Builder, ctx cell.Context) error {
		if err := extra(b, ctx); err != nil {
			return err
		}
		return value(b, ctx)
	}
	return insert(root, keyBits, key, leaf, mode, combine, ctx)
}

// AugRemove deletes the entry with the given key. The removed slice starts
// with the entry's extra, followed by its value.
func AugRemove(root cell.Cell, keyBits uint16, key cell.Slice, combine AugFunc, ctx cell.Context) (cell.Cell, cell.Slice, bool, error) {
	if combine == nil {
		return nil, cell.Slice{}, false, fmt.Errorf("%w: no combine function", cell.ErrInvalidData)
	}
	return remove(root, keyBits, key, combine, ctx)
}

// RootExtra returns a slice starting at the extra stored in the root node.
// The result is false for empty dictionaries.
func RootExtra(root cell.Cell, keyBits uint16, ctx cell.Context) (cell.Slice, bool, error) {
	if root == nil {
		return cell.Slice{}, false, nil
	}
	res, err := edgeExtra(root, keyBits, ctx)
	return res, err == nil, err
}

// edgeExtra reads past the label and, for forks, the references of the given
// node of an augmented dictionary.
func edgeExtra(node cell.Cell, keyBits uint16, ctx cell.Context) (cell.Slice, error) {
	_, s, err := loadNode(node, ctx)
	if err != nil {
		return cell.Slice{}, err
	}
	label, err := ReadLabel(&s, keyBits)
	if err != nil {
		return cell.Slice{}, err
	}
	if label.RemainingBits() != keyBits {
		if err := s.Advance(0, 2); err != nil {
			return cell.Slice{}, err
		}
	}
	return s, nil
}
