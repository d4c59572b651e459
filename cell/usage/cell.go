// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package usage

import (
	"sync"
	"weak"

	"github.com/Fantom-foundation/Cellar/cell"
)

// usageCell decorates a cell to record accesses in the tree it belongs to.
// Children are wrapped lazily when first requested and cached per slot.
type usageCell struct {
	cell.Cell
	tree  weak.Pointer[treeState]
	slots childSlots
}

// wrap decorates the given cell, recording it if the tree tracks loads.
func wrap(c cell.Cell, tree weak.Pointer[treeState], state *treeState) cell.Cell {
	if c == nil {
		return nil
	}
	var slots childSlots = &plainSlots{}
	if state.concurrent {
		slots = &onceSlots{}
	}
	if state.mode == OnLoad {
		state.visited.add(c.ReprHash())
	}
	return &usageCell{Cell: c, tree: tree, slots: slots}
}

func (c *usageCell) Unwrap() cell.Cell {
	return c.Cell
}

func (c *usageCell) Data() []byte {
	if state := c.tree.Value(); state != nil && state.mode == OnDataAccess {
		state.visited.add(c.Cell.ReprHash())
	}
	return c.Cell.Data()
}

func (c *usageCell) Reference(index int) cell.Cell {
	if index < 0 || index >= cell.MaxRefCount {
		return nil
	}
	return c.slots.resolve(index, func() cell.Cell {
		child := c.Cell.Reference(index)
		if child == nil {
			return nil
		}
		state := c.tree.Value()
		if state == nil {
			// The tree is gone, nothing left to record.
			return child
		}
		return wrap(child, c.tree, state)
	})
}

// childSlots caches the wrapped children of a cell. Each slot is resolved at
// most once; afterwards it holds the wrapped child or nil.
type childSlots interface {
	resolve(index int, compute func() cell.Cell) cell.Cell
}

// plainSlots is the cache of cells used by a single goroutine.
type plainSlots struct {
	resolved [cell.MaxRefCount]bool
	children [cell.MaxRefCount]cell.Cell
}

func (s *plainSlots) resolve(index int, compute func() cell.Cell) cell.Cell {
	if !s.resolved[index] {
		s.children[index] = compute()
		s.resolved[index] = true
	}
	return s.children[index]
}

// onceSlots is the cache of cells shared between goroutines. Concurrent
// first accesses to a slot wait for a single resolution.
type onceSlots struct {
	once     [cell.MaxRefCount]sync.Once
	children [cell.MaxRefCount]cell.Cell
}

func (s *onceSlots) resolve(index int, compute func() cell.Cell) cell.Cell {
	s.once[index].Do(func() {
		s.children[index] = compute()
	})
	return s.children[index]
}
