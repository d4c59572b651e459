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

// Insert stores the value for the given key according to the set mode. The
// result is the new root and whether the dictionary was changed. If it was
// not, the original root is returned.
func Insert(root cell.Cell, keyBits uint16, key cell.Slice, value Value, mode SetMode, ctx cell.Context) (cell.Cell, bool, error) {
	return insert(root, keyBits, key, value, mode, nil, ctx)
}

// Remove deletes the entry with the given key. The result is the new root,
// which is nil if the dictionary became empty, and the removed value.
func Remove(root cell.Cell, keyBits uint16, key cell.Slice, ctx cell.Context) (cell.Cell, cell.Slice, bool, error) {
	return remove(root, keyBits, key, nil, ctx)
}

// insert implements insertions into plain and augmented dictionaries. The
// combine function is nil for plain dictionaries.
func insert(root cell.Cell, keyBits uint16, key cell.Slice, leaf Value, mode SetMode, combine AugFunc, ctx cell.Context) (cell.Cell, bool, error) {
	if err := checkKey(&key, keyBits); err != nil {
		return nil, false, err
	}
	if root == nil {
		if !mode.canAdd() {
			return nil, false, nil
		}
		res, err := makeEdge(key, keyBits, leaf, ctx)
		if err != nil {
			return nil, false, err
		}
		return res, true, nil
	}

	var stack []segment
	var node cell.Cell
	data, s, err := loadNode(root, ctx)
	if err != nil {
		return nil, false, err
	}
	for {
		edgeBits := key.RemainingBits()
		label, err := ReadLabel(&s, edgeBits)
		if err != nil {
			return nil, false, err
		}
		lcp := key.CommonPrefixLen(&label)
		if lcp == edgeBits {
			if !mode.canReplace() {
				return root, false, nil
			}
			if node, err = makeEdge(label, edgeBits, leaf, ctx); err != nil {
				return nil, false, err
			}
			break
		}
		if lcp < label.RemainingBits() {
			if !mode.canAdd() {
				return root, false, nil
			}
			if node, err = splitEdge(label, s, lcp, key, edgeBits, leaf, combine, ctx); err != nil {
				return nil, false, err
			}
			break
		}

		key.Advance(lcp, 0)
		branch, err := key.LoadBit()
		if err != nil {
			return nil, false, err
		}
		fork := data
		if data, s, err = child(&s, branch, ctx); err != nil {
			return nil, false, err
		}
		stack = append(stack, segment{
			fork:     fork,
			branch:   branch,
			edgeBits: edgeBits,
			keyBits:  key.RemainingBits(),
		})
	}

	res, err := rebuild(stack, node, combine, ctx)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

// splitEdge replaces an edge diverging from the key after lcp bits by a fork
// leading to the shortened old edge and a new leaf.
func splitEdge(label, rest cell.Slice, lcp uint16, key cell.Slice, edgeBits uint16, leaf Value, combine AugFunc, ctx cell.Context) (cell.Cell, error) {
	common, err := label.GetPrefix(lcp, 0)
	if err != nil {
		return nil, err
	}
	label.Advance(lcp, 0)
	oldBranch, err := label.LoadBit()
	if err != nil {
		return nil, err
	}
	key.Advance(lcp+1, 0)
	childBits := edgeBits - lcp - 1

	old, err := makeEdge(label, childBits, SliceValue(rest), ctx)
	if err != nil {
		return nil, err
	}
	fresh, err := makeEdge(key, childBits, leaf, ctx)
	if err != nil {
		return nil, err
	}
	left, right := old, fresh
	if oldBranch {
		left, right = fresh, old
	}
	return makeFork(common, edgeBits, left, right, combine, ctx)
}

// makeEdge creates an edge with the given label followed by the content
// written by the value function.
func makeEdge(label cell.Slice, keyBits uint16, value Value, ctx cell.Context) (cell.Cell, error) {
	b := cell.NewBuilder()
	if err := WriteLabel(b, label, keyBits); err != nil {
		return nil, err
	}
	if err := value(b, ctx); err != nil {
		return nil, err
	}
	return b.Build(ctx)
}

// makeFork creates a fork with a freshly encoded label.
func makeFork(label cell.Slice, edgeBits uint16, left, right cell.Cell, combine AugFunc, ctx cell.Context) (cell.Cell, error) {
	b := cell.NewBuilder()
	if err := WriteLabel(b, label, edgeBits); err != nil {
		return nil, err
	}
	return finishFork(b, edgeBits-label.RemainingBits()-1, left, right, combine, ctx)
}

// finishFork appends the children of a fork, and for augmented dictionaries
// the combination of their extras, to a builder holding the fork's label.
func finishFork(b *cell.Builder, childBits uint16, left, right cell.Cell, combine AugFunc, ctx cell.Context) (cell.Cell, error) {
	if !b.StoreReference(left) || !b.StoreReference(right) {
		return nil, fmt.Errorf("%w: not enough space for fork references", cell.ErrCellOverflow)
	}
	if combine != nil {
		leftExtra, err := edgeExtra(left, childBits, ctx)
		if err != nil {
			return nil, err
		}
		rightExtra, err := edgeExtra(right, childBits, ctx)
		if err != nil {
			return nil, err
		}
		if err := combine(&leftExtra, &rightExtra, b, ctx); err != nil {
			return nil, err
		}
	}
	return b.Build(ctx)
}

// rebuild recreates the forks on the path from the root to a replaced node.
// Labels are copied verbatim and siblings are shared.
func rebuild(stack []segment, node cell.Cell, combine AugFunc, ctx cell.Context) (cell.Cell, error) {
	for i := len(stack) - 1; i >= 0; i-- {
		seg := stack[i]
		s, err := cell.NewSlice(seg.fork)
		if err != nil {
			return nil, err
		}
		encoded := s
		if _, err := ReadLabel(&s, seg.edgeBits); err != nil {
			return nil, err
		}
		labelLen, _ := s.Offset()
		if encoded, err = encoded.GetPrefix(labelLen, 0); err != nil {
			return nil, err
		}
		sibling, err := s.GetReference(branchIndex(!seg.branch))
		if err != nil {
			return nil, err
		}

		left, right := node, sibling
		if seg.branch {
			left, right = sibling, node
		}
		b := cell.NewBuilder()
		b.StoreSliceData(encoded)
		if node, err = finishFork(b, seg.keyBits, left, right, combine, ctx); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func remove(root cell.Cell, keyBits uint16, key cell.Slice, combine AugFunc, ctx cell.Context) (cell.Cell, cell.Slice, bool, error) {
	if err := checkKey(&key, keyBits); err != nil {
		return nil, cell.Slice{}, false, err
	}
	if root == nil {
		return nil, cell.Slice{}, false, nil
	}

	var stack []segment
	var removed cell.Slice
	data, s, err := loadNode(root, ctx)
	if err != nil {
		return nil, cell.Slice{}, false, err
	}
	for {
		edgeBits := key.RemainingBits()
		label, err := ReadLabel(&s, edgeBits)
		if err != nil {
			return nil, cell.Slice{}, false, err
		}
		lcp := key.CommonPrefixLen(&label)
		if lcp == edgeBits {
			removed = s
			break
		}
		if lcp < label.RemainingBits() {
			return root, cell.Slice{}, false, nil
		}
		key.Advance(lcp, 0)
		branch, err := key.LoadBit()
		if err != nil {
			return nil, cell.Slice{}, false, err
		}
		fork := data
		if data, s, err = child(&s, branch, ctx); err != nil {
			return nil, cell.Slice{}, false, err
		}
		stack = append(stack, segment{
			fork:     fork,
			branch:   branch,
			edgeBits: edgeBits,
			keyBits:  key.RemainingBits(),
		})
	}

	if len(stack) == 0 {
		return nil, removed, true, nil
	}

	// The parent fork of the removed leaf is replaced by the leaf's sibling,
	// with the fork label, the sibling branch, and the sibling label merged.
	parent := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	ps, err := cell.NewSlice(parent.fork)
	if err != nil {
		return nil, cell.Slice{}, false, err
	}
	forkLabel, err := ReadLabel(&ps, parent.edgeBits)
	if err != nil {
		return nil, cell.Slice{}, false, err
	}
	_, ss, err := child(&ps, !parent.branch, ctx)
	if err != nil {
		return nil, cell.Slice{}, false, err
	}
	siblingLabel, err := ReadLabel(&ss, parent.keyBits)
	if err != nil {
		return nil, cell.Slice{}, false, err
	}

	merged := cell.NewBuilder()
	merged.StoreSliceData(forkLabel)
	merged.StoreBit(!parent.branch)
	merged.StoreSliceData(siblingLabel)
	node, err := makeEdge(merged.AsDataSlice(), parent.edgeBits, SliceValue(ss), ctx)
	if err != nil {
		return nil, cell.Slice{}, false, err
	}

	res, err := rebuild(stack, node, combine, ctx)
	if err != nil {
		return nil, cell.Slice{}, false, err
	}
	return res, removed, true, nil
}
