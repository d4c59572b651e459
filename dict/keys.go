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
	"github.com/Fantom-foundation/Cellar/common"
	"github.com/holiman/uint256"
	"golang.org/x/exp/constraints"
)

// Key maps keys of type K to bit strings of a fixed length.
type Key[K any] interface {
	cell.Codec[K]
	// Bits returns the length of all encoded keys.
	Bits() uint16
	// Signed reports whether encoded keys are ordered as two's complement
	// integers.
	Signed() bool
}

var (
	Uint8Key  Key[uint8]       = uintKey[uint8]{bits: 8}
	Uint16Key Key[uint16]      = uintKey[uint16]{bits: 16}
	Uint32Key Key[uint32]      = uintKey[uint32]{bits: 32}
	Uint64Key Key[uint64]      = uintKey[uint64]{bits: 64}
	Int32Key  Key[int32]       = intKey[int32]{bits: 32}
	Int64Key  Key[int64]       = intKey[int64]{bits: 64}
	HashKey   Key[common.Hash] = hashKey{}
)

// encodeKey converts a key into its bit string.
func encodeKey[K any](keys Key[K], key K) (cell.Slice, error) {
	b := cell.NewBuilder()
	if err := keys.Store(b, key, nil); err != nil {
		return cell.Slice{}, err
	}
	if b.BitLen() != keys.Bits() {
		return cell.Slice{}, fmt.Errorf("%w: key encoded in %d bits, expected %d", cell.ErrInvalidData, b.BitLen(), keys.Bits())
	}
	return b.AsDataSlice(), nil
}

func decodeKey[K any](keys Key[K], key cell.Slice) (K, error) {
	return keys.Load(&key)
}

type uintKey[K constraints.Unsigned] struct {
	bits uint16
}

func (k uintKey[K]) Bits() uint16 { return k.bits }
func (k uintKey[K]) Signed() bool { return false }

func (k uintKey[K]) Store(b *cell.Builder, key K, _ cell.Context) error {
	return checkStore(b.StoreUint(uint64(key), k.bits), "key")
}

func (k uintKey[K]) Load(s *cell.Slice) (K, error) {
	res, err := s.LoadUint(k.bits)
	return K(res), err
}

type intKey[K constraints.Signed] struct {
	bits uint16
}

func (k intKey[K]) Bits() uint16 { return k.bits }
func (k intKey[K]) Signed() bool { return true }

func (k intKey[K]) Store(b *cell.Builder, key K, _ cell.Context) error {
	return checkStore(b.StoreUint(uint64(key), k.bits), "key")
}

func (k intKey[K]) Load(s *cell.Slice) (K, error) {
	res, err := s.LoadUint(k.bits)
	return K(res), err
}

type hashKey struct{}

func (hashKey) Bits() uint16 { return 8 * common.HashSize }
func (hashKey) Signed() bool { return false }

func (hashKey) Store(b *cell.Builder, key common.Hash, ctx cell.Context) error {
	return cell.HashCodec.Store(b, key, ctx)
}

func (hashKey) Load(s *cell.Slice) (common.Hash, error) {
	return cell.HashCodec.Load(s)
}

// BigUintKey encodes unsigned integers of up to 256 bits using the given
// number of bits.
func BigUintKey(bits uint16) Key[*uint256.Int] {
	return bigUintKey{codec: cell.BigUintCodec(bits), bits: bits}
}

type bigUintKey struct {
	codec cell.Codec[*uint256.Int]
	bits  uint16
}

func (k bigUintKey) Bits() uint16 { return k.bits }
func (k bigUintKey) Signed() bool { return false }

func (k bigUintKey) Store(b *cell.Builder, key *uint256.Int, ctx cell.Context) error {
	return k.codec.Store(b, key, ctx)
}

func (k bigUintKey) Load(s *cell.Slice) (*uint256.Int, error) {
	return k.codec.Load(s)
}
