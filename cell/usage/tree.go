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
	"bytes"
	"sort"
	"sync"
	"weak"

	"github.com/Fantom-foundation/Cellar/cell"
	"github.com/Fantom-foundation/Cellar/common"
	"golang.org/x/exp/maps"
)

// Mode defines the granularity at which cells are recorded as used.
type Mode byte

const (
	// OnLoad records cells as soon as they are reached, for instance as a
	// child of a used cell.
	OnLoad Mode = iota
	// OnDataAccess records cells only once their data is read.
	OnDataAccess
)

func (m Mode) String() string {
	if m == OnDataAccess {
		return "OnDataAccess"
	}
	return "OnLoad"
}

// Tree records the cells of a tree accessed through the cells it tracks. The
// recorded hashes describe the minimal subset of a tree needed to repeat the
// accesses, for instance for building a Merkle proof.
//
// Cells handed out by a tree only keep a weak reference to it. Once the
// tree is no longer referenced, its cells remain usable but stop recording.
type Tree struct {
	state *treeState
}

// treeState is the part of a tree shared with its cells.
type treeState struct {
	mode       Mode
	concurrent bool
	visited    hashSet
	subtrees   hashSet
}

// NewTree creates a tree for tracking cells used by a single goroutine.
func NewTree(mode Mode) *Tree {
	return &Tree{state: &treeState{
		mode:     mode,
		visited:  plainSet{},
		subtrees: plainSet{},
	}}
}

// NewConcurrentTree creates a tree whose cells may be accessed by multiple
// goroutines concurrently.
func NewConcurrentTree(mode Mode) *Tree {
	return &Tree{state: &treeState{
		mode:       mode,
		concurrent: true,
		visited:    newSyncSet(),
		subtrees:   newSyncSet(),
	}}
}

// Mode returns the recording granularity of this tree.
func (t *Tree) Mode() Mode {
	return t.state.mode
}

// Track wraps the given cell such that accesses to it and all cells reached
// through it are recorded by this tree. In OnLoad mode, the cell itself is
// recorded immediately.
func (t *Tree) Track(c cell.Cell) cell.Cell {
	return wrap(c, weak.Make(t.state), t.state)
}

// Contains tests whether a cell with the given representation hash has been
// recorded.
func (t *Tree) Contains(hash common.Hash) bool {
	return t.state.visited.contains(hash)
}

// Len returns the number of recorded cells.
func (t *Tree) Len() int {
	return t.state.visited.size()
}

// Visited returns the hashes of all recorded cells in ascending order.
func (t *Tree) Visited() []common.Hash {
	return t.state.visited.sorted()
}

// WithSubtrees extends this tree by a set of subtrees considered to be used
// entirely. Both share the same recorded cells.
func (t *Tree) WithSubtrees() *TreeWithSubtrees {
	return &TreeWithSubtrees{Tree: t}
}

// TreeWithSubtrees distinguishes cells which have been used directly from
// subtrees which are included as a whole.
type TreeWithSubtrees struct {
	*Tree
}

// ContainsDirect tests whether the cell with the given hash was used directly.
func (t *TreeWithSubtrees) ContainsDirect(hash common.Hash) bool {
	return t.Contains(hash)
}

// ContainsSubtree tests whether the cell with the given hash was added as the
// root of an entirely used subtree.
func (t *TreeWithSubtrees) ContainsSubtree(hash common.Hash) bool {
	return t.state.subtrees.contains(hash)
}

// AddSubtree marks the tree rooted by the given cell as entirely used. The
// result is true if the subtree was not yet included.
func (t *TreeWithSubtrees) AddSubtree(root cell.Cell) bool {
	return t.state.subtrees.add(root.ReprHash())
}

// Subtrees returns the hashes of all subtree roots in ascending order.
func (t *TreeWithSubtrees) Subtrees() []common.Hash {
	return t.state.subtrees.sorted()
}

// ----------------------------------------------------------------------------
//                               Hash Sets
// ----------------------------------------------------------------------------

type hashSet interface {
	add(common.Hash) bool
	contains(common.Hash) bool
	size() int
	sorted() []common.Hash
}

type plainSet map[common.Hash]struct{}

func (s plainSet) add(hash common.Hash) bool {
	if _, found := s[hash]; found {
		return false
	}
	s[hash] = struct{}{}
	return true
}

func (s plainSet) contains(hash common.Hash) bool {
	_, found := s[hash]
	return found
}

func (s plainSet) size() int {
	return len(s)
}

func (s plainSet) sorted() []common.Hash {
	res := maps.Keys(s)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i][:], res[j][:]) < 0
	})
	return res
}

type syncSet struct {
	mutex sync.RWMutex
	set   plainSet
}

func newSyncSet() *syncSet {
	return &syncSet{set: plainSet{}}
}

func (s *syncSet) add(hash common.Hash) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.set.add(hash)
}

func (s *syncSet) contains(hash common.Hash) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.set.contains(hash)
}

func (s *syncSet) size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.set.size()
}

func (s *syncSet) sorted() []common.Hash {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.set.sorted()
}
