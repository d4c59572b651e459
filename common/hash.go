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

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sync"

	"golang.org/x/crypto/sha3"
)

// HashSize is the number of bytes of a cell hash.
const HashSize = 32

// Hash is a 256-bit digest identifying the content of a cell at some level.
type Hash [HashSize]byte

// HashFromHex parses a hex encoded hash. An optional 0x prefix is accepted.
func HashFromHex(s string) (Hash, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	var res Hash
	data, err := hex.DecodeString(s)
	if err != nil {
		return res, err
	}
	if len(data) != HashSize {
		return res, fmt.Errorf("invalid hash length, wanted %d bytes, got %d", HashSize, len(data))
	}
	copy(res[:], data)
	return res, nil
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ----------------------------------------------------------------------------
//                             Hash Algorithms
// ----------------------------------------------------------------------------

// HashAlgorithm is a configuration token selecting the digest used for hashing
// cells. Its main application is to serve as a parameter of a cell family
// configuration. Cells hashed with different algorithms must not be mixed.
type HashAlgorithm struct {
	Name string
	pool *sync.Pool
}

// Sha256Hashing is the default cell hashing algorithm.
var Sha256Hashing = newHashAlgorithm("Sha256", sha256.New)

// Keccak256Hashing hashes cells using the legacy Keccak-256 digest as used by
// Ethereum-like systems.
var Keccak256Hashing = newHashAlgorithm("Keccak256", sha3.NewLegacyKeccak256)

var allHashAlgorithms = []HashAlgorithm{Sha256Hashing, Keccak256Hashing}

// GetHashAlgorithmByName attempts to locate a hash algorithm with the given name.
func GetHashAlgorithmByName(name string) (HashAlgorithm, bool) {
	for _, algorithm := range allHashAlgorithms {
		if algorithm.Name == name {
			return algorithm, true
		}
	}
	return HashAlgorithm{}, false
}

func newHashAlgorithm(name string, create func() hash.Hash) HashAlgorithm {
	return HashAlgorithm{
		Name: name,
		pool: &sync.Pool{New: func() any { return create() }},
	}
}

// IsValid returns true if this token refers to an actual algorithm. The zero
// value of a HashAlgorithm is invalid.
func (a HashAlgorithm) IsValid() bool {
	return a.pool != nil
}

// NewHasher obtains a reset hasher of this algorithm. Hashers should be
// returned using ReleaseHasher once no longer needed.
func (a HashAlgorithm) NewHasher() hash.Hash {
	hasher := a.pool.Get().(hash.Hash)
	hasher.Reset()
	return hasher
}

// ReleaseHasher returns a hasher obtained from NewHasher for later reuse.
func (a HashAlgorithm) ReleaseHasher(hasher hash.Hash) {
	a.pool.Put(hasher)
}

// Sum computes the digest of the concatenation of the given byte slices.
func (a HashAlgorithm) Sum(parts ...[]byte) Hash {
	hasher := a.NewHasher()
	for _, part := range parts {
		hasher.Write(part)
	}
	var res Hash
	hasher.Sum(res[:0])
	a.ReleaseHasher(hasher)
	return res
}

func (a HashAlgorithm) String() string {
	return a.Name
}
