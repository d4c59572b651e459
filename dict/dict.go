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

// Dict is a typed dictionary mapping keys of type K to values of type V.
// Updates replace the root of the dictionary; copies of a Dict value are
// independent snapshots sharing all unchanged cells.
type Dict[K, V any] struct {
	root   cell.Cell
	keys   Key[K]
	values cell.Codec[V]
	ctx    cell.Context
}

// New creates an empty dictionary. New cells are created through the given
// context, which is typically a cell family.
func New[K, V any](keys Key[K], values cell.Codec[V], ctx cell.Context) *Dict[K, V] {
	return &Dict[K, V]{keys: keys, values: values, ctx: ctx}
}

// FromRoot creates a dictionary backed by an existing trie.
func FromRoot[K, V any](root cell.Cell, keys Key[K], values cell.Codec[V], ctx cell.Context) *Dict[K, V] {
	return &Dict[K, V]{root: root, keys: keys, values: values, ctx: ctx}
}

// Root returns the root cell of the trie, nil if the dictionary is empty.
func (d *Dict[K, V]) Root() cell.Cell {
	return d.root
}

// Context returns the context used for loading and finalizing cells.
func (d *Dict[K, V]) Context() cell.Context {
	return d.ctx
}

func (d *Dict[K, V]) IsEmpty() bool {
	return d.root == nil
}

// Get returns the value stored for the given key.
func (d *Dict[K, V]) Get(key K) (V, bool, error) {
	var zero V
	k, err := encodeKey(d.keys, key)
	if err != nil {
		return zero, false, err
	}
	s, found, err := Get(d.root, d.keys.Bits(), k, d.ctx)
	if err != nil || !found {
		return zero, false, err
	}
	res, err := d.values.Load(&s)
	if err != nil {
		return zero, false, err
	}
	return res, true, nil
}

func (d *Dict[K, V]) ContainsKey(key K) (bool, error) {
	k, err := encodeKey(d.keys, key)
	if err != nil {
		return false, err
	}
	_, found, err := Get(d.root, d.keys.Bits(), k, d.ctx)
	return found, err
}

// Set stores the value for the given key, replacing any previous value.
func (d *Dict[K, V]) Set(key K, value V) (bool, error) {
	return d.insert(key, value, Set)
}

// Replace updates the value of the given key if it is present.
func (d *Dict[K, V]) Replace(key K, value V) (bool, error) {
	return d.insert(key, value, Replace)
}

// Add stores the value for the given key if it is not present yet.
func (d *Dict[K, V]) Add(key K, value V) (bool, error) {
	return d.insert(key, value, Add)
}

func (d *Dict[K, V]) insert(key K, value V, mode SetMode) (bool, error) {
	k, err := encodeKey(d.keys, key)
	if err != nil {
		return false, err
	}
	root, changed, err := Insert(d.root, d.keys.Bits(), k, codecValue(d.values, value), mode, d.ctx)
	if err != nil {
		return false, err
	}
	d.root = root
	return changed, nil
}

// Remove deletes the given key and returns the removed value.
func (d *Dict[K, V]) Remove(key K) (V, bool, error) {
	var zero V
	k, err := encodeKey(d.keys, key)
	if err != nil {
		return zero, false, err
	}
	root, removed, found, err := Remove(d.root, d.keys.Bits(), k, d.ctx)
	if err != nil || !found {
		return zero, false, err
	}
	res, err := d.values.Load(&removed)
	if err != nil {
		return zero, false, err
	}
	d.root = root
	return res, true, nil
}

// GetNext returns the entry with the smallest key larger than the given one.
func (d *Dict[K, V]) GetNext(key K) (K, V, bool, error) {
	return d.find(key, Max, false)
}

// GetPrev returns the entry with the largest key smaller than the given one.
func (d *Dict[K, V]) GetPrev(key K) (K, V, bool, error) {
	return d.find(key, Min, false)
}

// GetOrNext returns the entry with the given key or the next larger one.
func (d *Dict[K, V]) GetOrNext(key K) (K, V, bool, error) {
	return d.find(key, Max, true)
}

// GetOrPrev returns the entry with the given key or the next smaller one.
func (d *Dict[K, V]) GetOrPrev(key K) (K, V, bool, error) {
	return d.find(key, Min, true)
}

func (d *Dict[K, V]) find(key K, towards Bound, inclusive bool) (K, V, bool, error) {
	k, err := encodeKey(d.keys, key)
	if err != nil {
		return d.none(err)
	}
	entry, found, err := Find(d.root, d.keys.Bits(), k, towards, inclusive, d.keys.Signed(), d.ctx)
	if err != nil || !found {
		return d.none(err)
	}
	return d.decode(entry)
}

// Min returns the entry with the smallest key.
func (d *Dict[K, V]) Min() (K, V, bool, error) {
	return d.bound(Min)
}

// Max returns the entry with the largest key.
func (d *Dict[K, V]) Max() (K, V, bool, error) {
	return d.bound(Max)
}

func (d *Dict[K, V]) bound(bound Bound) (K, V, bool, error) {
	entry, found, err := FindBound(d.root, d.keys.Bits(), bound, d.keys.Signed(), d.ctx)
	if err != nil || !found {
		return d.none(err)
	}
	return d.decode(entry)
}

func (d *Dict[K, V]) none(err error) (K, V, bool, error) {
	var key K
	var value V
	return key, value, false, err
}

func (d *Dict[K, V]) decode(entry Entry) (K, V, bool, error) {
	key, err := decodeKey(d.keys, entry.Key)
	if err != nil {
		return d.none(err)
	}
	value, err := d.values.Load(&entry.Value)
	if err != nil {
		return d.none(err)
	}
	return key, value, true, nil
}

// Iter returns an iterator over all entries in ascending key order.
func (d *Dict[K, V]) Iter() *Iter[K, V] {
	raw := NewRawIter(d.root, d.keys.Bits(), d.ctx)
	if d.keys.Signed() {
		raw.Signed()
	}
	return &Iter[K, V]{raw: raw, keys: d.keys, values: d.values}
}

// Len counts the entries of the dictionary.
func (d *Dict[K, V]) Len() (int, error) {
	return count(NewRawIter(d.root, d.keys.Bits(), d.ctx))
}

func count(it *RawIter) (int, error) {
	res := 0
	for it.Next() {
		res++
	}
	return res, it.Err()
}

// Store writes the dictionary as a presence bit, followed by a reference to
// the root if the dictionary is not empty.
func (d *Dict[K, V]) Store(b *cell.Builder) error {
	return storeRoot(b, d.root)
}

// LoadDict reads a dictionary written by Store.
func LoadDict[K, V any](s *cell.Slice, keys Key[K], values cell.Codec[V], ctx cell.Context) (*Dict[K, V], error) {
	root, err := loadRoot(s)
	if err != nil {
		return nil, err
	}
	return FromRoot(root, keys, values, ctx), nil
}

func storeRoot(b *cell.Builder, root cell.Cell) error {
	if root == nil {
		return checkStore(b.StoreBitZero(), "dictionary")
	}
	if b.SpareBits() < 1 || b.SpareRefs() < 1 {
		return fmt.Errorf("%w: not enough space for dictionary", cell.ErrCellOverflow)
	}
	b.StoreBitOne()
	b.StoreReference(root)
	return nil
}

func loadRoot(s *cell.Slice) (cell.Cell, error) {
	present, err := s.LoadBit()
	if err != nil || !present {
		return nil, err
	}
	return s.LoadReference()
}

// codecValue adapts a codec to the value function used by raw operations.
func codecValue[V any](codec cell.Codec[V], value V) Value {
	return func(b *cell.Builder, ctx cell.Context) error {
		return codec.Store(b, value, ctx)
	}
}

// Iter enumerates the entries of a typed dictionary.
type Iter[K, V any] struct {
	raw    *RawIter
	keys   Key[K]
	values cell.Codec[V]
	key    K
	value  V
	err    error
}

// Reversed makes the iterator visit keys in descending order.
func (it *Iter[K, V]) Reversed() *Iter[K, V] {
	it.raw.Reversed()
	return it
}

// Next advances to the next entry and decodes it.
func (it *Iter[K, V]) Next() bool {
	if it.err != nil || !it.raw.Next() {
		return false
	}
	entry := it.raw.Entry()
	var err error
	if it.key, err = decodeKey(it.keys, entry.Key); err != nil {
		it.err = err
		return false
	}
	if it.value, err = it.values.Load(&entry.Value); err != nil {
		it.err = err
		return false
	}
	return true
}

func (it *Iter[K, V]) Key() K {
	return it.key
}

func (it *Iter[K, V]) Value() V {
	return it.value
}

func (it *Iter[K, V]) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.raw.Err()
}
