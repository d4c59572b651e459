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

import "github.com/Fantom-foundation/Cellar/common"

// The kinds of failures reported by cell and dictionary operations. Failures
// carrying additional details wrap one of these kinds, so callers should use
// errors.Is for testing the kind of an error.
const (
	// ErrCellOverflow is reported if a cell would exceed its bit, reference,
	// or depth capacity.
	ErrCellOverflow = common.ConstError("cell overflow")
	// ErrCellUnderflow is reported if a read exceeds the available bits or
	// references, or if a dictionary edge is shorter than required.
	ErrCellUnderflow = common.ConstError("cell underflow")
	// ErrInvalidTag is reported if a tag or discriminant does not match any
	// recognized variant.
	ErrInvalidTag = common.ConstError("invalid tag")
	// ErrInvalidData is reported for structurally impossible data.
	ErrInvalidData = common.ConstError("invalid data")
	// ErrIntOverflow is reported if aggregate arithmetic exceeds the range
	// of the involved representation.
	ErrIntOverflow = common.ConstError("integer overflow")
	// ErrArenaExhausted is reported by arena backed families if the external
	// buffer can not hold another cell.
	ErrArenaExhausted = common.ConstError("arena exhausted")
)
