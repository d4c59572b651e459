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
	"errors"
	"fmt"
	"io"

	"github.com/Fantom-foundation/Cellar/cell"
)

// Check verifies the structure of a dictionary. All problems found are
// reported.
func Check(root cell.Cell, keyBits uint16, ctx cell.Context) error {
	if root == nil {
		return nil
	}
	return checkNode(root, cell.NewBuilder(), keyBits, nil, ctx)
}

// CheckAug verifies the structure of an augmented dictionary. In addition to
// the checks of Check, the extra of every fork must be the combination of
// the extras of its children.
func CheckAug(root cell.Cell, keyBits uint16, combine AugFunc, ctx cell.Context) error {
	if root == nil {
		return nil
	}
	if combine == nil {
		return fmt.Errorf("%w: no combine function", cell.ErrInvalidData)
	}
	return checkNode(root, cell.NewBuilder(), keyBits, combine, ctx)
}

func checkNode(node cell.Cell, path *cell.Builder, keyBits uint16, combine AugFunc, ctx cell.Context) error {
	// Checked invariants:
	//  - nodes are ordinary cells with decodable labels
	//  - labels do not exceed the remaining key
	//  - forks have exactly two children
	//  - plain forks carry no data beyond their label
	//  - augmented forks carry the combined extra of their children
	_, s, err := loadNode(node, ctx)
	if err != nil {
		return fmt.Errorf("node at %v: %w", formatKey(path), err)
	}
	label, err := ReadLabel(&s, keyBits)
	if err != nil {
		return fmt.Errorf("node at %v: %w", formatKey(path), err)
	}
	path = path.Clone()
	path.StoreSliceData(label)
	if label.RemainingBits() == keyBits {
		return nil
	}

	var errs []error
	where := formatKey(path)
	if got := s.RemainingRefs(); got != 2 {
		return fmt.Errorf("fork at %v has %d references, expected 2", where, got)
	}
	children := [2]cell.Cell{}
	for i := range children {
		children[i], _ = s.GetReference(uint8(i))
	}
	s.Advance(0, 2)
	childBits := keyBits - label.RemainingBits() - 1

	if combine == nil {
		if !s.IsDataEmpty() {
			errs = append(errs, fmt.Errorf("fork at %v has %d unexpected data bits", where, s.RemainingBits()))
		}
	} else {
		want, err := combineExtras(children[0], children[1], childBits, combine, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("fork at %v: failed to combine extras: %w", where, err))
		} else if got := s; !want.DataEqual(&got) {
			errs = append(errs, fmt.Errorf("fork at %v has invalid extra\nwant: %v\ngot:  %v", where, want.String(), got.String()))
		}
	}

	for i, next := range children {
		branch := path.Clone()
		branch.StoreBit(i == 1)
		if err := checkNode(next, branch, childBits, combine, ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func formatKey(key *cell.Builder) string {
	s := key.AsDataSlice()
	return s.String()
}

func combineExtras(left, right cell.Cell, keyBits uint16, combine AugFunc, ctx cell.Context) (cell.Slice, error) {
	leftExtra, err := edgeExtra(left, keyBits, ctx)
	if err != nil {
		return cell.Slice{}, err
	}
	rightExtra, err := edgeExtra(right, keyBits, ctx)
	if err != nil {
		return cell.Slice{}, err
	}
	b := cell.NewBuilder()
	if err := combine(&leftExtra, &rightExtra, b, ctx); err != nil {
		return cell.Slice{}, err
	}
	return b.AsDataSlice(), nil
}

// Dump prints the trie structure of a dictionary in a human readable form.
func Dump(out io.Writer, root cell.Cell, keyBits uint16, ctx cell.Context) error {
	if root == nil {
		fmt.Fprintf(out, "Empty\n")
		return nil
	}
	return dumpNode(out, root, keyBits, "", ctx)
}

func dumpNode(out io.Writer, node cell.Cell, keyBits uint16, indent string, ctx cell.Context) error {
	_, s, err := loadNode(node, ctx)
	if err != nil {
		return err
	}
	label, err := ReadLabel(&s, keyBits)
	if err != nil {
		return err
	}
	if label.RemainingBits() == keyBits {
		fmt.Fprintf(out, "%sLeaf (label: %v, value: %v, refs: %d)\n", indent, label.String(), s.String(), s.RemainingRefs())
		return nil
	}
	if s.RemainingRefs() < 2 {
		return fmt.Errorf("%w: fork with %d references", cell.ErrCellUnderflow, s.RemainingRefs())
	}
	fmt.Fprintf(out, "%sFork (label: %v, hash: %v)\n", indent, label.String(), node.ReprHash())
	errs := []error{}
	for i := uint8(0); i < 2; i++ {
		next, _ := s.GetReference(i)
		if err := dumpNode(out, next, keyBits-label.RemainingBits()-1, fmt.Sprintf("%s  %d ", indent, i), ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
