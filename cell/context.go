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

//go:generate mockgen -source context.go -destination context_mocks.go -package cell

import (
	"fmt"
	"sync/atomic"
)

// LoadMode describes the purpose of loading a cell.
type LoadMode byte

const (
	// LoadNoop loads a cell without any accounting.
	LoadNoop LoadMode = iota
	// LoadUseGas loads a cell and accounts for the cost of doing so.
	LoadUseGas
	// LoadResolve loads a cell resolving library references.
	LoadResolve
	// LoadFull accounts for the load and resolves library references.
	LoadFull
)

func (m LoadMode) String() string {
	switch m {
	case LoadNoop:
		return "Noop"
	case LoadUseGas:
		return "UseGas"
	case LoadResolve:
		return "Resolve"
	case LoadFull:
		return "Full"
	default:
		return fmt.Sprintf("LoadMode(%d)", byte(m))
	}
}

// UsesGas is true if loads in this mode are subject to cost accounting.
func (m LoadMode) UsesGas() bool {
	return m == LoadUseGas || m == LoadFull
}

// Finalizer turns staged cell content into an immutable, hashed cell.
type Finalizer interface {
	FinalizeCell(cell *PartialCell) (Cell, error)
}

// FinalizerFunc adapts a function to the Finalizer interface.
type FinalizerFunc func(cell *PartialCell) (Cell, error)

func (f FinalizerFunc) FinalizeCell(cell *PartialCell) (Cell, error) {
	return f(cell)
}

// Context is the environment cell operations are performed in. It finalizes
// new cells and is consulted before references of existing cells are
// followed.
type Context interface {
	Finalizer
	// LoadCell is called before accessing the content of the given cell.
	// Implementations may account for the access or replace the cell.
	LoadCell(cell Cell, mode LoadMode) (Cell, error)
}

// Empty builds the canonical cell without data and references.
func Empty(finalizer Finalizer) (Cell, error) {
	return NewBuilder().Build(finalizer)
}

// ----------------------------------------------------------------------------
//                                  Meter
// ----------------------------------------------------------------------------

// Meter is a Context counting the cells loaded and finalized through it. All
// operations are forwarded to a nested context. A Meter may be used
// concurrently if the nested context can.
type Meter struct {
	nested    Context
	loaded    atomic.Uint64
	finalized atomic.Uint64
}

// NewMeter creates a meter forwarding to the given context.
func NewMeter(nested Context) *Meter {
	return &Meter{nested: nested}
}

func (m *Meter) FinalizeCell(cell *PartialCell) (Cell, error) {
	res, err := m.nested.FinalizeCell(cell)
	if err == nil {
		m.finalized.Add(1)
	}
	return res, err
}

func (m *Meter) LoadCell(cell Cell, mode LoadMode) (Cell, error) {
	if mode.UsesGas() {
		m.loaded.Add(1)
	}
	return m.nested.LoadCell(cell, mode)
}

// Loaded returns the number of loads subject to cost accounting.
func (m *Meter) Loaded() uint64 {
	return m.loaded.Load()
}

// Finalized returns the number of successfully finalized cells.
func (m *Meter) Finalized() uint64 {
	return m.finalized.Load()
}
