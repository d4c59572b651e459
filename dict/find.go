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
	"github.com/Fantom-foundation/Cellar/cell"
)

// Get looks up the value stored for the given key.
func Get(root cell.Cell, keyBits uint16, key cell.Slice, ctx cell.Context) (cell.Slice, bool, error) {
	if err := checkKey(&key, keyBits); err != nil {
		return cell.Slice{}, false, err
	}
	if root == nil {
		return cell.Slice{}, false, nil
	}
	_, s, err := loadNode(root, ctx)
	if err != nil {
		return cell.Slice{}, false, err
	}
	for {
		label, err := ReadLabel(&s, key.RemainingBits())
		if err != nil {
			return cell.Slice{}, false, err
		}
		lcp := key.CommonPrefixLen(&label)
		if lcp == key.RemainingBits() {
			return s, true, nil
		}
		if lcp < label.RemainingBits() {
			return cell.Slice{}, false, nil
		}
		key.Advance(lcp, 0)
		branch, err := key.LoadBit()
		if err != nil {
			return cell.Slice{}, false, err
		}
		if _, s, err = child(&s, branch, ctx); err != nil {
			return cell.Slice{}, false, err
		}
	}
}

// Find locates the entry with the nearest key in the direction of the given
// bound. If inclusive is set, an entry with exactly the given key is
// returned if present. In signed mode, the first key bit is interpreted as a
// sign bit and keys are ordered as two's complement integers.
func Find(root cell.Cell, keyBits uint16, key cell.Slice, towards Bound, inclusive, signed bool, ctx cell.Context) (Entry, bool, error) {
	if err := checkKey(&key, keyBits); err != nil {
		return Entry{}, false, err
	}
	if root == nil {
		return Entry{}, false, nil
	}
	original := key

	var (
		stack     []segment
		value     cell.Slice
		found     bool
		diverged  bool
		divergent bool // the key bit at the point of divergence
	)

	data, s, err := loadNode(root, ctx)
	if err != nil {
		return Entry{}, false, err
	}
	for {
		edgeBits := key.RemainingBits()
		label, err := ReadLabel(&s, edgeBits)
		if err != nil {
			return Entry{}, false, err
		}
		lcp := key.CommonPrefixLen(&label)
		if lcp == edgeBits {
			value, found = s, true
			break
		}
		if lcp < label.RemainingBits() {
			divergent, _ = key.GetBit(lcp)
			if signed && len(stack) == 0 && lcp == 0 {
				divergent = !divergent
			}
			diverged = true
			break
		}
		key.Advance(lcp, 0)
		branch, err := key.LoadBit()
		if err != nil {
			return Entry{}, false, err
		}
		fork := data
		if data, s, err = child(&s, branch, ctx); err != nil {
			return Entry{}, false, err
		}
		stack = append(stack, segment{
			fork:     fork,
			branch:   branch,
			edgeBits: edgeBits,
			keyBits:  key.RemainingBits(),
		})
	}

	if found && inclusive {
		return Entry{Key: original, Value: value}, true, nil
	}

	// The nearest entry is the extreme entry of the sub-trie following the
	// last fork at which a branch towards the bound could have been taken.
	// Below that, the walk always picks the branch pointing back.
	back := !towards.branch()
	var (
		start     cell.Cell
		startBits uint16
		remaining uint16
		prefixLen uint16
		first     *bool
	)
	if diverged && divergent == back {
		// All keys below the divergent edge lie in the direction of the bound.
		start = data
		remaining = key.RemainingBits()
		prefixLen = keyBits - remaining
		if _, err := ctx.LoadCell(data, cell.LoadUseGas); err != nil {
			return Entry{}, false, err
		}
	} else {
		for len(stack) > 0 {
			seg := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			forkPrefixLen := keyBits - seg.keyBits
			signRoot := signed && forkPrefixLen == 1

			var branch bool
			switch {
			case signRoot && seg.branch != back:
				branch = back
			case !signRoot && seg.branch == back:
				branch = !back
			default:
				continue
			}
			start = seg.fork
			startBits = seg.edgeBits
			remaining = seg.keyBits
			prefixLen = forkPrefixLen - 1
			first = &branch
			break
		}
		if start == nil {
			return Entry{}, false, nil
		}
	}

	result := cell.NewBuilder()
	prefix, err := original.GetPrefix(prefixLen, 0)
	if err != nil {
		return Entry{}, false, err
	}
	result.StoreSliceData(prefix)

	if s, err = cell.NewSlice(start); err != nil {
		return Entry{}, false, err
	}
	if first != nil {
		result.StoreBit(*first)
		if _, err := ReadLabel(&s, startBits); err != nil {
			return Entry{}, false, err
		}
		if _, s, err = child(&s, *first, ctx); err != nil {
			return Entry{}, false, err
		}
	}
	return walkBound(result, s, remaining, back, ctx)
}

// walkBound descends from the edge at s to the leaf reached by always taking
// the given branch. The labels and branches passed are appended to key.
func walkBound(key *cell.Builder, s cell.Slice, keyBits uint16, branch bool, ctx cell.Context) (Entry, bool, error) {
	for {
		label, err := ReadLabel(&s, keyBits)
		if err != nil {
			return Entry{}, false, err
		}
		key.StoreSliceData(label)
		if label.RemainingBits() == keyBits {
			return Entry{Key: key.AsDataSlice(), Value: s}, true, nil
		}
		keyBits -= label.RemainingBits() + 1
		key.StoreBit(branch)
		if _, s, err = child(&s, branch, ctx); err != nil {
			return Entry{}, false, err
		}
	}
}

// FindBound locates the entry with the smallest or largest key.
func FindBound(root cell.Cell, keyBits uint16, bound Bound, signed bool, ctx cell.Context) (Entry, bool, error) {
	if root == nil {
		return Entry{}, false, nil
	}
	_, s, err := loadNode(root, ctx)
	if err != nil {
		return Entry{}, false, err
	}

	key := cell.NewBuilder()
	direction := bound.branch()

	label, err := ReadLabel(&s, keyBits)
	if err != nil {
		return Entry{}, false, err
	}
	key.StoreSliceData(label)
	if label.RemainingBits() == keyBits {
		return Entry{Key: key.AsDataSlice(), Value: s}, true, nil
	}

	// Negative keys are in the right sub-trie of a root fork at the sign bit.
	branch := direction
	if signed && label.IsDataEmpty() {
		branch = !branch
	}
	key.StoreBit(branch)
	if _, s, err = child(&s, branch, ctx); err != nil {
		return Entry{}, false, err
	}
	return walkBound(key, s, keyBits-label.RemainingBits()-1, direction, ctx)
}
