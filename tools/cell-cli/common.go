// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/Fantom-foundation/Cellar/cell"
	"github.com/Fantom-foundation/Cellar/common"
	"github.com/pbnjay/memory"
	"github.com/urfave/cli/v2"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "the name of the cell family configuration to use",
		Value: cell.SharedConfig.Name,
	}
	hashingFlag = cli.StringFlag{
		Name:  "hashing",
		Usage: "overrides the hash algorithm of the selected configuration",
	}
	arenaSizeFlag = cli.IntFlag{
		Name:  "arena-size",
		Usage: "the size of the buffer backing arena families in bytes, 0 for a share of the main memory",
	}
	cpuProfilingFlag = cli.StringFlag{
		Name:  "cpu-profile",
		Usage: "enable the recording of a CPU profile",
	}
)

// openFamily creates the cell family selected by the command line flags.
func openFamily(ctx *cli.Context) (*cell.Family, error) {
	name := ctx.String(configFlag.Name)
	config, found := cell.GetConfigByName(name)
	if !found {
		return nil, fmt.Errorf("unknown configuration %q", name)
	}
	if name := ctx.String(hashingFlag.Name); name != "" {
		algorithm, found := common.GetHashAlgorithmByName(name)
		if !found {
			return nil, fmt.Errorf("unknown hash algorithm %q", name)
		}
		config.Hashing = algorithm
		config.Name = fmt.Sprintf("%s(%s)", config.Name, algorithm)
	}
	if config.Ownership == cell.Arena {
		size := ctx.Int(arenaSizeFlag.Name)
		if size <= 0 {
			size = getArenaSize()
		}
		log.Printf("Allocating arena of %d MiB ...", size>>20)
		return cell.NewArenaFamily(config, make([]byte, size))
	}
	return cell.NewFamily(config)
}

// getArenaSize computes a default arena size as 5% of the main memory,
// capped at 1 GiB.
func getArenaSize() int {
	return int(min(uint64(float64(memory.TotalMemory())*0.05), 1<<30))
}

// parseBits decodes a hex string into a bit string. A trailing '_' marks a
// completion tag: the last set bit and all bits after it are dropped.
func parseBits(str string) (*cell.Builder, error) {
	tagged := strings.HasSuffix(str, "_")
	str = strings.TrimSuffix(str, "_")
	if 4*len(str) > cell.MaxBitLen+3 {
		return nil, fmt.Errorf("bit string of %d hex digits exceeds cell capacity", len(str))
	}
	bits := uint16(4 * len(str))
	if len(str)%2 == 1 {
		str += "0"
	}
	data, err := hex.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("invalid bit string: %w", err)
	}
	b := cell.NewBuilder()
	if !b.StoreRaw(data, bits) {
		return nil, fmt.Errorf("bit string of %d bits exceeds cell capacity", bits)
	}
	if tagged {
		s := b.AsDataSlice()
		for bits > 0 {
			bits--
			if bit, _ := s.GetBit(bits); bit {
				break
			}
		}
		b.Rewind(b.BitLen() - bits)
	}
	return b, nil
}

func StartCPUProfile(profileName string) error {
	f, err := os.Create(profileName)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %s", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("could not start CPU profile: %s", err)
	}
	return nil
}

func StopCPUProfile() {
	pprof.StopCPUProfile()
}
