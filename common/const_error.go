// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

// ConstError is an error type that can be used to define immutable error
// constants. The cell and dictionary packages use it to name the kinds of
// failures they report; details are attached by wrapping a kind using
// fmt.Errorf("%w: ...", kind) so that callers can test for the kind using
// errors.Is.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}
