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

//go:generate mockgen -source visitor.go -destination visitor_mocks.go -package cell

import (
	"fmt"
	"io"
	"strings"

	"github.com/Fantom-foundation/Cellar/common"
)

// ----------------------------------------------------------------------------
//                            Visitor Interface
// ----------------------------------------------------------------------------

// CellVisitor defines an interface for any consumer interested in visiting
// the cells of a tree, for instance to serialize or to analyze it.
type CellVisitor interface {
	// Visit is called for each unique cell. Through the response the visitor
	// can control the visiting process. It may be
	//  - continued: keep processing additional cells
	//  - aborted: stop processing cells and end the iteration
	//  - pruned: skip the children of the current cell
	Visit(Cell, CellInfo) VisitResponse
}

type CellInfo struct {
	Depth int // the nesting level of the visited cell, 0 for the root
	Index int // the position of the cell among its parent's references, -1 for the root
}

type VisitResponse int

const (
	VisitResponseContinue VisitResponse = 0
	VisitResponseAbort    VisitResponse = 1
	VisitResponsePrune    VisitResponse = 2
)

// Visit traverses the tree rooted by the given cell in depth-first pre-order.
// Cells reachable through multiple paths are only visited once. The result
// is true if the visitor aborted the traversal.
func Visit(root Cell, visitor CellVisitor) bool {
	seen := map[common.Hash]struct{}{}
	return visit(root, CellInfo{Index: -1}, seen, visitor)
}

func visit(cell Cell, info CellInfo, seen map[common.Hash]struct{}, visitor CellVisitor) bool {
	hash := cell.ReprHash()
	if _, found := seen[hash]; found {
		return false
	}
	seen[hash] = struct{}{}
	switch visitor.Visit(cell, info) {
	case VisitResponseAbort:
		return true
	case VisitResponsePrune:
		return false
	case VisitResponseContinue: /* keep going */
	}
	for i := 0; i < cell.ReferenceCount(); i++ {
		child := cell.Reference(i)
		if child == nil {
			continue
		}
		if visit(child, CellInfo{Depth: info.Depth + 1, Index: i}, seen, visitor) {
			return true
		}
	}
	return false
}

// ----------------------------------------------------------------------------
//                          Lambda Visitor
// ----------------------------------------------------------------------------

// MakeVisitor wraps a function into the cell visitor interface.
func MakeVisitor(visit func(Cell, CellInfo) VisitResponse) CellVisitor {
	return &lambdaVisitor{visit}
}

type lambdaVisitor struct {
	visit func(Cell, CellInfo) VisitResponse
}

func (v *lambdaVisitor) Visit(cell Cell, info CellInfo) VisitResponse {
	return v.visit(cell, info)
}

// ----------------------------------------------------------------------------
//                                 Dump
// ----------------------------------------------------------------------------

// Dump prints the tree rooted by the given cell in a human readable format.
// Shared subtrees are printed for every occurrence.
func Dump(out io.Writer, root Cell) {
	dump(out, root, "")
}

func dump(out io.Writer, cell Cell, indent string) {
	data := formatBits(cell.Data(), 0, cell.BitLen())
	kind := ""
	if cell.Descriptor().IsExotic() {
		kind = fmt.Sprintf(" %v", cell.CellType())
	}
	fmt.Fprintf(out, "%s%s (bits: %d, refs: %d, mask: %v%s, hash: %v)\n", indent, orEmpty(data), cell.BitLen(), cell.ReferenceCount(), cell.LevelMask(), kind, cell.ReprHash())
	for i := 0; i < cell.ReferenceCount(); i++ {
		if child := cell.Reference(i); child != nil {
			dump(out, child, indent+strings.Repeat(" ", 2))
		}
	}
}

func orEmpty(data string) string {
	if data == "" {
		return "-"
	}
	return data
}
