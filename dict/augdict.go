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

// AugDict is a typed dictionary keeping an extra value of type A per entry.
// The extras of all entries are aggregated using a combine function, with
// the aggregate of the whole dictionary available through RootExtra.
type AugDict[K, A, V any] struct {
	root    cell.Cell
	extra   A
	keys    Key[K]
	extras  cell.Codec[A]
	values  cell.Codec[V]
	combine AugFunc
	ctx     cell.Context
}

// NewAug creates an empty augmented dictionary. The extra of an empty
// dictionary is the zero value of A.
func NewAug[K, A, V any](keys Key[K], extras cell.Codec[A], values cell.Codec[V], combine AugFunc, ctx cell.Context) *AugDict[K, A, V] {
	return &AugDict[K, A, V]{
		keys:    keys,
		extras:  extras,
		values:  values,
		combine: combine,
		ctx:     ctx,
	}
}

func (d *AugDict[K, A, V]) Root() cell.Cell {
	return d.root
}

func (d *AugDict[K, A, V]) IsEmpty() bool {
	return d.root == nil
}

// RootExtra returns the combination of the extras of all entries.
func (d *AugDict[K, A, V]) RootExtra() A {
	return d.extra
}

// Get returns the extra and value stored for the given key.
func (d *AugDict[K, A, V]) Get(key K) (A, V, bool, error) {
	k, err := encodeKey(d.keys, key)
	if err != nil {
		return d.none(err)
	}
	s, found, err := Get(d.root, d.keys.Bits(), k, d.ctx)
	if err != nil || !found {
		return d.none(err)
	}
	return d.decodeLeaf(s)
}

func (d *AugDict[K, A, V]) ContainsKey(key K) (bool, error) {
	k, err := encodeKey(d.keys, key)
	if err != nil {
		return false, err
	}
	_, found, err := Get(d.root, d.keys.Bits(), k, d.ctx)
	return found, err
}

// Set stores the extra and value for the given key, replacing any previous
// entry.
func (d *AugDict[K, A, V]) Set(key K, extra A, value V) (bool, error) {
	return d.insert(key, extra, value, Set)
}

// Replace updates the entry of the given key if it is present.
func (d *AugDict[K, A, V]) Replace(key K, extra A, value V) (bool, error) {
	return d.insert(key, extra, value, Replace)
}

// Add stores the extra and value for the given key if it is not present yet.
func (d *AugDict[K, A, V]) Add(key K, extra A, value V) (bool, error) {
	return d.insert(key, extra, value, Add)
}

func (d *AugDict[K, A, V]) insert(key K, extra A, value V, mode SetMode) (bool, error) {
	k, err := encodeKey(d.keys, key)
	if err != nil {
		return false, err
	}
	root, changed, err := AugInsert(d.root, d.keys.Bits(), k, codecValue(d.extras, extra), codecValue(d.values, value), mode, d.combine, d.ctx)
	if err != nil || !changed {
		return false, err
	}
	return true, d.setRoot(root)
}

// Remove deletes the given key and returns the removed extra and value.
func (d *AugDict[K, A, V]) Remove(key K) (A, V, bool, error) {
	k, err := encodeKey(d.keys, key)
	if err != nil {
		return d.none(err)
	}
	root, removed, found, err := AugRemove(d.root, d.keys.Bits(), k, d.combine, d.ctx)
	if err != nil || !found {
		return d.none(err)
	}
	rootExtra, err := d.loadRootExtra(root)
	if err != nil {
		return d.none(err)
	}
	extra, value, _, err := d.decodeLeaf(removed)
	if err != nil {
		return d.none(err)
	}
	d.root, d.extra = root, rootExtra
	return extra, value, true, nil
}

// setRoot installs a new root and refreshes the root extra. On failure, the
// dictionary remains unchanged.
func (d *AugDict[K, A, V]) setRoot(root cell.Cell) error {
	extra, err := d.loadRootExtra(root)
	if err != nil {
		return err
	}
	d.root, d.extra = root, extra
	return nil
}

// loadRootExtra reads the combined extra stored at the given root, the zero
// value for an empty trie.
func (d *AugDict[K, A, V]) loadRootExtra(root cell.Cell) (A, error) {
	var extra A
	if root == nil {
		return extra, nil
	}
	s, _, err := RootExtra(root, d.keys.Bits(), d.ctx)
	if err != nil {
		return extra, err
	}
	return d.extras.Load(&s)
}

func (d *AugDict[K, A, V]) none(err error) (A, V, bool, error) {
	var extra A
	var value V
	return extra, value, false, err
}

func (d *AugDict[K, A, V]) decodeLeaf(s cell.Slice) (A, V, bool, error) {
	extra, err := d.extras.Load(&s)
	if err != nil {
		return d.none(err)
	}
	value, err := d.values.Load(&s)
	if err != nil {
		return d.none(err)
	}
	return extra, value, true, nil
}

// Iter returns an iterator over all entries in ascending key order.
func (d *AugDict[K, A, V]) Iter() *AugIter[K, A, V] {
	raw := NewRawIter(d.root, d.keys.Bits(), d.ctx)
	if d.keys.Signed() {
		raw.Signed()
	}
	return &AugIter[K, A, V]{raw: raw, dict: d}
}

// Len counts the entries of the dictionary.
func (d *AugDict[K, A, V]) Len() (int, error) {
	return count(NewRawIter(d.root, d.keys.Bits(), d.ctx))
}

// Check verifies the structure of the trie and the consistency of all
// aggregated extras.
func (d *AugDict[K, A, V]) Check() error {
	return CheckAug(d.root, d.keys.Bits(), d.combine, d.ctx)
}

// Store writes the dictionary as its root followed by the root extra.
func (d *AugDict[K, A, V]) Store(b *cell.Builder) error {
	if err := storeRoot(b, d.root); err != nil {
		return err
	}
	return d.extras.Store(b, d.extra, d.ctx)
}

// LoadAugDict reads an augmented dictionary written by Store.
func LoadAugDict[K, A, V any](s *cell.Slice, keys Key[K], extras cell.Codec[A], values cell.Codec[V], combine AugFunc, ctx cell.Context) (*AugDict[K, A, V], error) {
	if combine == nil {
		return nil, fmt.Errorf("%w: no combine function", cell.ErrInvalidData)
	}
	root, err := loadRoot(s)
	if err != nil {
		return nil, err
	}
	extra, err := extras.Load(s)
	if err != nil {
		return nil, err
	}
	res := NewAug(keys, extras, values, combine, ctx)
	res.root = root
	res.extra = extra
	return res, nil
}

// AugIter enumerates the entries of an augmented dictionary.
type AugIter[K, A, V any] struct {
	raw   *RawIter
	dict  *AugDict[K, A, V]
	key   K
	extra A
	value V
	err   error
}

// Reversed makes the iterator visit keys in descending order.
func (it *AugIter[K, A, V]) Reversed() *AugIter[K, A, V] {
	it.raw.Reversed()
	return it
}

func (it *AugIter[K, A, V]) Next() bool {
	if it.err != nil || !it.raw.Next() {
		return false
	}
	entry := it.raw.Entry()
	key, err := decodeKey(it.dict.keys, entry.Key)
	if err != nil {
		it.err = err
		return false
	}
	extra, value, _, err := it.dict.decodeLeaf(entry.Value)
	if err != nil {
		it.err = err
		return false
	}
	it.key, it.extra, it.value = key, extra, value
	return true
}

func (it *AugIter[K, A, V]) Key() K {
	return it.key
}

func (it *AugIter[K, A, V]) Extra() A {
	return it.extra
}

func (it *AugIter[K, A, V]) Value() V {
	return it.value
}

func (it *AugIter[K, A, V]) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.raw.Err()
}
