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
	"errors"
	"testing"
)

// prune creates a pruned branch of level 1 standing in for the given cell.
func prune(t *testing.T, family *Family, cell Cell) Cell {
	t.Helper()
	hash := cell.Hash(0)
	b := NewBuilder()
	b.SetLevelMask(0b001)
	b.StoreU8(uint8(PrunedBranch))
	b.StoreU8(0b001)
	b.StoreRaw(hash[:], 256)
	b.StoreU16(cell.Depth(0))
	return mustBuild(t, b, family)
}

func TestFinalizer_PrunedBranchKeepsLowerLevelHash(t *testing.T) {
	for _, config := range allTestConfigs {
		t.Run(config.Name, func(t *testing.T) {
			family := newTestFamily(t, config)
			root := buildSampleTree(t, family)
			mid := root.Reference(0)
			pruned := prune(t, family, mid)

			if got, want := pruned.CellType(), PrunedBranch; got != want {
				t.Fatalf("unexpected cell type, wanted %v, got %v", want, got)
			}
			if got, want := pruned.Hash(0), mid.Hash(0); got != want {
				t.Errorf("pruned branch does not report hash of pruned cell")
			}
			if got, want := pruned.Depth(0), mid.Depth(0); got != want {
				t.Errorf("unexpected depth, wanted %d, got %d", want, got)
			}
			if pruned.ReprHash() == mid.Hash(0) {
				t.Errorf("representation hash of pruned branch should differ")
			}
			if pruned.Hash(1) != pruned.ReprHash() || pruned.Hash(3) != pruned.ReprHash() {
				t.Errorf("higher levels should map to representation hash")
			}

			// Replacing a subtree by its pruned branch retains the level 0 hash.
			b := NewBuilder()
			b.StoreU16(0xcafe)
			b.StoreReference(pruned)
			b.StoreReference(root.Reference(1))
			partial := mustBuild(t, b, family)
			if got, want := partial.LevelMask(), LevelMask(0b001); got != want {
				t.Errorf("unexpected level mask, wanted %v, got %v", want, got)
			}
			if got, want := partial.Hash(0), root.ReprHash(); got != want {
				t.Errorf("pruning changed level 0 hash")
			}
			if partial.ReprHash() == root.ReprHash() {
				t.Errorf("representation hash should cover pruned branch")
			}
			if got, want := partial.Depth(0), root.ReprDepth(); got != want {
				t.Errorf("unexpected level 0 depth, wanted %d, got %d", want, got)
			}
		})
	}
}

func TestFinalizer_MerkleProofIsValidated(t *testing.T) {
	family := newTestFamily(t, SharedConfig)
	root := buildSampleTree(t, family)

	proof := func(hash [32]byte, depth uint16) (Cell, error) {
		b := NewBuilder()
		b.SetLevelMask(EmptyLevelMask)
		b.StoreU8(uint8(MerkleProof))
		b.StoreU256(&hash)
		b.StoreU16(depth)
		b.StoreReference(root)
		return b.Build(family)
	}

	cell, err := proof(root.Hash(0), root.Depth(0))
	if err != nil {
		t.Fatalf("failed to build Merkle proof: %v", err)
	}
	if got, want := cell.CellType(), MerkleProof; got != want {
		t.Errorf("unexpected type, wanted %v, got %v", want, got)
	}
	if got, want := cell.ReprDepth(), root.ReprDepth()+1; got != want {
		t.Errorf("unexpected depth, wanted %d, got %d", want, got)
	}
	if _, err := NewSlice(cell); !errors.Is(err, ErrInvalidData) {
		t.Errorf("exotic cells should not be readable as ordinary cells, got %v", err)
	}
	s := NewSliceAllowExotic(cell)
	if tag, _ := s.LoadU8(); tag != uint8(MerkleProof) {
		t.Errorf("unexpected tag %d", tag)
	}

	if _, err := proof([32]byte{1}, root.Depth(0)); !errors.Is(err, ErrInvalidData) {
		t.Errorf("hash mismatch should be detected, got %v", err)
	}
	if _, err := proof(root.Hash(0), 7); !errors.Is(err, ErrInvalidData) {
		t.Errorf("depth mismatch should be detected, got %v", err)
	}
}

func TestFinalizer_MerkleUpdateOverTwoStates(t *testing.T) {
	family := newTestFamily(t, ExclusiveConfig)
	before := buildSampleTree(t, family)
	b := NewBuilder()
	b.StoreU8(1)
	after := mustBuild(t, b, family)

	b = NewBuilder()
	b.SetLevelMask(EmptyLevelMask)
	b.StoreU8(uint8(MerkleUpdate))
	oldHash, newHash := before.Hash(0), after.Hash(0)
	b.StoreU256((*[32]byte)(&oldHash))
	b.StoreU256((*[32]byte)(&newHash))
	b.StoreU16(before.Depth(0))
	b.StoreU16(after.Depth(0))
	b.StoreReference(before)
	b.StoreReference(after)
	update, err := b.Build(family)
	if err != nil {
		t.Fatalf("failed to build Merkle update: %v", err)
	}
	if got, want := update.CellType(), MerkleUpdate; got != want {
		t.Errorf("unexpected type, wanted %v, got %v", want, got)
	}
}

func TestFinalizer_InvalidExoticCellsAreRejected(t *testing.T) {
	family := newTestFamily(t, ExclusiveConfig)
	empty, _ := Empty(family)

	tests := map[string]struct {
		setup func(b *Builder)
		want  error
	}{
		"missing tag": {
			setup: func(b *Builder) { b.StoreUint(1, 4) },
			want:  ErrInvalidData,
		},
		"unknown tag": {
			setup: func(b *Builder) { b.StoreU8(42) },
			want:  ErrInvalidTag,
		},
		"library without hash": {
			setup: func(b *Builder) { b.StoreU8(uint8(LibraryReference)) },
			want:  ErrInvalidData,
		},
		"library with reference": {
			setup: func(b *Builder) {
				b.StoreU8(uint8(LibraryReference))
				b.StoreZeros(256)
				b.StoreReference(empty)
			},
			want: ErrInvalidData,
		},
		"pruned branch without level": {
			setup: func(b *Builder) {
				b.StoreU8(uint8(PrunedBranch))
				b.StoreU8(0)
			},
			want: ErrInvalidData,
		},
		"Merkle proof without child": {
			setup: func(b *Builder) {
				b.StoreU8(uint8(MerkleProof))
				b.StoreZeros(256 + 16)
			},
			want: ErrInvalidData,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			b := NewBuilder()
			b.SetLevelMask(EmptyLevelMask)
			test.setup(b)
			if _, err := b.Build(family); !errors.Is(err, test.want) {
				t.Errorf("unexpected error, wanted %v, got %v", test.want, err)
			}
		})
	}

	b := NewBuilder()
	b.SetLevelMask(EmptyLevelMask)
	b.StoreU8(uint8(LibraryReference))
	b.StoreZeros(256)
	library, err := b.Build(family)
	if err != nil {
		t.Fatalf("failed to build library reference: %v", err)
	}
	if got, want := library.CellType(), LibraryReference; got != want {
		t.Errorf("unexpected type, wanted %v, got %v", want, got)
	}
}

func TestFinalizer_OrdinaryCellMaskMustMatchChildren(t *testing.T) {
	family := newTestFamily(t, ExclusiveConfig)
	_, err := family.FinalizeCell(&PartialCell{
		Descriptor: NewDescriptor(0b001, false, 0, 0),
		Data:       []byte{},
	})
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("inconsistent level mask should be rejected, got %v", err)
	}
	_, err = family.FinalizeCell(&PartialCell{
		Descriptor: NewDescriptor(0, false, 2, 0),
		Data:       []byte{},
	})
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("inconsistent reference count should be rejected, got %v", err)
	}
}
