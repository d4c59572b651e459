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

	"github.com/Fantom-foundation/Cellar/common"
)

// Ownership selects the way cells of a family are owned and shared.
type Ownership byte

const (
	// Exclusive cells track their holders without synchronization. They are
	// the cheapest option but must not be shared between goroutines.
	Exclusive Ownership = iota
	// Shared cells track their holders atomically and may be used by any
	// number of goroutines.
	Shared
	// Arena cells are serialized into an externally owned byte buffer and
	// link their children through offsets into that buffer.
	Arena
)

func (o Ownership) String() string {
	switch o {
	case Exclusive:
		return "Exclusive"
	case Shared:
		return "Shared"
	case Arena:
		return "Arena"
	default:
		return fmt.Sprintf("Ownership(%d)", byte(o))
	}
}

// Config defines the options of a cell family. Configurations are passed
// explicitly to every family; there is no process wide default.
type Config struct {
	// A descriptive name for this configuration. It has no effect except for
	// logging and debugging purposes.
	Name string

	// The algorithm used for hashing cells.
	Hashing common.HashAlgorithm

	// The ownership strategy of cells created by the family.
	Ownership Ownership
}

var ExclusiveConfig = Config{
	Name:      "Exclusive",
	Hashing:   common.Sha256Hashing,
	Ownership: Exclusive,
}

var SharedConfig = Config{
	Name:      "Shared",
	Hashing:   common.Sha256Hashing,
	Ownership: Shared,
}

var ArenaConfig = Config{
	Name:      "Arena",
	Hashing:   common.Sha256Hashing,
	Ownership: Arena,
}

var ExclusiveKeccakConfig = Config{
	Name:      "Exclusive-Keccak",
	Hashing:   common.Keccak256Hashing,
	Ownership: Exclusive,
}

var SharedKeccakConfig = Config{
	Name:      "Shared-Keccak",
	Hashing:   common.Keccak256Hashing,
	Ownership: Shared,
}

var allConfigs = []Config{
	ExclusiveConfig, SharedConfig, ArenaConfig,
	ExclusiveKeccakConfig, SharedKeccakConfig,
}

// GetConfigByName attempts to locate a configuration with the given name.
func GetConfigByName(name string) (Config, bool) {
	for _, config := range allConfigs {
		if config.Name == name {
			return config, true
		}
	}
	return Config{}, false
}

// ----------------------------------------------------------------------------
//                                 Family
// ----------------------------------------------------------------------------

// Family is a group of cells sharing a hashing algorithm and an ownership
// strategy. A family is the Context all cell and dictionary operations are
// performed in. Cells of different families must not be mixed.
type Family struct {
	config Config
	store  cellStore
}

// cellStore is the ownership strategy of a family, creating cells from
// validated and hashed partial cells.
type cellStore interface {
	create(family *Family, cell *PartialCell, table hashTable) (Cell, error)
}

// NewFamily creates a family of exclusive or shared cells. Arena families
// need a buffer and are created using NewArenaFamily.
func NewFamily(config Config) (*Family, error) {
	if !config.Hashing.IsValid() {
		return nil, fmt.Errorf("invalid configuration %q: no hashing algorithm", config.Name)
	}
	res := &Family{config: config}
	switch config.Ownership {
	case Exclusive:
		res.store = exclusiveStore{}
	case Shared:
		res.store = sharedStore{}
	default:
		return nil, fmt.Errorf("invalid configuration %q: unsupported ownership %v", config.Name, config.Ownership)
	}
	return res, nil
}

// Config returns the configuration of this family.
func (f *Family) Config() Config {
	return f.config
}

// FinalizeCell validates and hashes the given partial cell and creates a cell
// owned according to the family's strategy.
func (f *Family) FinalizeCell(cell *PartialCell) (Cell, error) {
	for i, child := range cell.References {
		if child == nil {
			return nil, fmt.Errorf("%w: missing child %d", ErrInvalidData, i)
		}
		if child.Family() != f {
			return nil, fmt.Errorf("%w: child %d belongs to family %v, not %v", ErrInvalidData, i, child.Family(), f)
		}
	}
	table, err := computeHashes(f.config.Hashing, cell)
	if err != nil {
		return nil, err
	}
	res, err := f.store.create(f, cell, table)
	if err != nil {
		return nil, err
	}
	for _, child := range cell.References {
		if h, ok := Unwrap(child).(holder); ok {
			h.retain()
		}
	}
	return res, nil
}

// LoadCell is called by operations before following a reference. Families
// keep all cells in memory, so there is nothing to be loaded.
func (f *Family) LoadCell(cell Cell, _ LoadMode) (Cell, error) {
	if cell == nil {
		return nil, fmt.Errorf("%w: missing cell", ErrInvalidData)
	}
	return cell, nil
}

func (f *Family) String() string {
	if f == nil {
		return "<nil>"
	}
	return f.config.Name
}

func newHeader(family *Family, cell *PartialCell, table hashTable) cellHeader {
	return cellHeader{
		descriptor: cell.Descriptor,
		bitLen:     cell.BitLen,
		cellType:   table.cellType,
		data:       cell.Data,
		hashes:     table.hashes,
		depths:     table.depths,
		stats:      cell.Stats,
		family:     family,
	}
}

type exclusiveStore struct{}

func (exclusiveStore) create(family *Family, cell *PartialCell, table hashTable) (Cell, error) {
	return &exclusiveCell{
		cellHeader: newHeader(family, cell, table),
		references: cell.References,
	}, nil
}

type sharedStore struct{}

func (sharedStore) create(family *Family, cell *PartialCell, table hashTable) (Cell, error) {
	return &sharedCell{
		cellHeader: newHeader(family, cell, table),
		references: cell.References,
	}, nil
}
