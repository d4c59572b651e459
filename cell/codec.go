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
	"github.com/holiman/uint256"
)

// Codec serializes values of type T into builders and reads them back from
// slices. For any value v, loading what was stored for v must produce v.
type Codec[T any] interface {
	// Store appends the encoding of the value to the builder. The context is
	// used for finalizing any cells the encoding requires.
	Store(b *Builder, value T, ctx Context) error
	// Load consumes the encoding of a value from the slice.
	Load(s *Slice) (T, error)
}

// BuildFrom creates a cell containing the encoding of the given value.
func BuildFrom[T any](codec Codec[T], value T, ctx Context) (Cell, error) {
	b := NewBuilder()
	if err := codec.Store(b, value, ctx); err != nil {
		return nil, err
	}
	return b.Build(ctx)
}

// ParseFrom reads a value from the beginning of the given cell.
func ParseFrom[T any](codec Codec[T], cell Cell) (T, error) {
	s, err := NewSlice(cell)
	if err != nil {
		var zero T
		return zero, err
	}
	return codec.Load(&s)
}

func overflow(what string) error {
	return fmt.Errorf("%w: not enough space for %s", ErrCellOverflow, what)
}

// --- primitive codecs ---

var (
	BoolCodec   Codec[bool]        = boolCodec{}
	Uint8Codec  Codec[uint8]       = uintCodec[uint8]{bits: 8}
	Uint16Codec Codec[uint16]      = uintCodec[uint16]{bits: 16}
	Uint32Codec Codec[uint32]      = uintCodec[uint32]{bits: 32}
	Uint64Codec Codec[uint64]      = uintCodec[uint64]{bits: 64}
	Int32Codec  Codec[int32]       = intCodec[int32]{bits: 32}
	Int64Codec  Codec[int64]       = intCodec[int64]{bits: 64}
	HashCodec   Codec[common.Hash] = hashCodec{}
	CellCodec   Codec[Cell]        = cellCodec{}
)

type boolCodec struct{}

func (boolCodec) Store(b *Builder, value bool, _ Context) error {
	if !b.StoreBit(value) {
		return overflow("bool")
	}
	return nil
}

func (boolCodec) Load(s *Slice) (bool, error) {
	return s.LoadBit()
}

type uintCodec[T uint8 | uint16 | uint32 | uint64] struct {
	bits uint16
}

func (c uintCodec[T]) Store(b *Builder, value T, _ Context) error {
	if !b.StoreUint(uint64(value), c.bits) {
		return overflow(fmt.Sprintf("%d-bit integer", c.bits))
	}
	return nil
}

func (c uintCodec[T]) Load(s *Slice) (T, error) {
	res, err := s.LoadUint(c.bits)
	return T(res), err
}

// intCodec stores signed integers in two's complement.
type intCodec[T int32 | int64] struct {
	bits uint16
}

func (c intCodec[T]) Store(b *Builder, value T, _ Context) error {
	if !b.StoreUint(uint64(value), c.bits) {
		return overflow(fmt.Sprintf("%d-bit integer", c.bits))
	}
	return nil
}

func (c intCodec[T]) Load(s *Slice) (T, error) {
	res, err := s.LoadUint(c.bits)
	return T(res), err
}

type hashCodec struct{}

func (hashCodec) Store(b *Builder, value common.Hash, _ Context) error {
	if !b.StoreRaw(value[:], 8*common.HashSize) {
		return overflow("hash")
	}
	return nil
}

func (hashCodec) Load(s *Slice) (common.Hash, error) {
	return s.LoadU256()
}

// BigUintCodec encodes 256-bit unsigned integers using the given number of
// bits. Values exceeding the width can not be stored.
func BigUintCodec(bits uint16) Codec[*uint256.Int] {
	return bigUintCodec{bits: bits}
}

type bigUintCodec struct {
	bits uint16
}

func (c bigUintCodec) Store(b *Builder, value *uint256.Int, _ Context) error {
	if value == nil {
		return fmt.Errorf("%w: missing integer value", ErrInvalidData)
	}
	if value.BitLen() > int(c.bits) {
		return fmt.Errorf("%w: value of %d bits does not fit into %d bits", ErrIntOverflow, value.BitLen(), c.bits)
	}
	if !b.StoreBigUint(value, c.bits) {
		return overflow(fmt.Sprintf("%d-bit integer", c.bits))
	}
	return nil
}

func (c bigUintCodec) Load(s *Slice) (*uint256.Int, error) {
	return s.LoadBigUint(c.bits)
}

// cellCodec stores cells as child references.
type cellCodec struct{}

func (cellCodec) Store(b *Builder, value Cell, _ Context) error {
	if !b.StoreReference(value) {
		return overflow("reference")
	}
	return nil
}

func (cellCodec) Load(s *Slice) (Cell, error) {
	return s.LoadReference()
}
