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
	"fmt"
	"log"
	"time"

	"github.com/Fantom-foundation/Cellar/cell"
	"github.com/Fantom-foundation/Cellar/cell/usage"
	"github.com/Fantom-foundation/Cellar/dict"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/rand"
)

var (
	numKeysFlag = cli.IntFlag{
		Name:  "keys",
		Usage: "the number of random keys to insert",
		Value: 1000,
	}
	seedFlag = cli.Uint64Flag{
		Name:  "seed",
		Usage: "the seed for generating keys",
		Value: 1,
	}
	removeFlag = cli.IntFlag{
		Name:  "remove",
		Usage: "the number of keys to remove again after insertion",
	}
	lookupFlag = cli.Int64Flag{
		Name:  "lookup",
		Usage: "a key to look up while recording the visited cells",
		Value: -1,
	}
)

var dictCommand = cli.Command{
	Action: buildDict,
	Name:   "dict",
	Usage:  "builds a dictionary of random 32-bit keys and prints its structure",
	Flags: []cli.Flag{
		&numKeysFlag,
		&seedFlag,
		&removeFlag,
		&lookupFlag,
		&dumpFlag,
		&configFlag,
		&hashingFlag,
		&arenaSizeFlag,
		&cpuProfilingFlag,
	},
}

func buildDict(ctx *cli.Context) error {
	profileTarget := ctx.String(cpuProfilingFlag.Name)
	if len(profileTarget) != 0 {
		if err := StartCPUProfile(profileTarget); err != nil {
			return err
		}
		defer StopCPUProfile()
	}

	family, err := openFamily(ctx)
	if err != nil {
		return err
	}
	meter := cell.NewMeter(family)
	d := dict.New(dict.Uint32Key, cell.Uint32Codec, cell.Context(meter))

	numKeys := ctx.Int(numKeysFlag.Name)
	keys := make([]uint32, 0, numKeys)
	r := rand.New(rand.NewSource(ctx.Uint64(seedFlag.Name)))
	log.Printf("Inserting %d keys into dictionary using %v ...", numKeys, family)
	start := time.Now()
	for i := 0; i < numKeys; i++ {
		key := r.Uint32()
		if _, err := d.Set(key, uint32(i)); err != nil {
			return fmt.Errorf("failed to insert key %d: %w", key, err)
		}
		keys = append(keys, key)
	}
	log.Printf("Inserted %d keys in %v, %d cells finalized", numKeys, time.Since(start), meter.Finalized())

	toRemove := min(ctx.Int(removeFlag.Name), len(keys))
	if toRemove > 0 {
		log.Printf("Removing %d keys ...", toRemove)
		start = time.Now()
		for _, key := range keys[:toRemove] {
			if _, _, err := d.Remove(key); err != nil {
				return fmt.Errorf("failed to remove key %d: %w", key, err)
			}
		}
		log.Printf("Removed %d keys in %v", toRemove, time.Since(start))
	}

	log.Printf("Checking dictionary ...")
	if err := dict.Check(d.Root(), dict.Uint32Key.Bits(), family); err != nil {
		return err
	}
	size, err := d.Len()
	if err != nil {
		return err
	}

	if ctx.Bool(dumpFlag.Name) {
		if err := dict.Dump(ctx.App.Writer, d.Root(), dict.Uint32Key.Bits(), family); err != nil {
			return err
		}
	}

	fmt.Printf("Entries:   %d\n", size)
	if d.IsEmpty() {
		fmt.Printf("Root hash: -\n")
		return nil
	}
	stats := d.Root().Stats()
	fmt.Printf("Root hash: %v\n", d.Root().ReprHash())
	fmt.Printf("Tree size: %d cells, %d bits\n", stats.CellCount, stats.BitCount)
	if used, capacity := family.ArenaUsage(); capacity > 0 {
		fmt.Printf("Arena:     %d of %d bytes used\n", used, capacity)
	}

	if key := ctx.Int64(lookupFlag.Name); key >= 0 {
		return lookup(d, uint32(key))
	}
	return nil
}

// lookup searches for a key in a tracked copy of the dictionary and reports
// the cells needed to repeat the search.
func lookup(d *dict.Dict[uint32, uint32], key uint32) error {
	tree := usage.NewTree(usage.OnDataAccess)
	tracked := dict.FromRoot(tree.Track(d.Root()), dict.Uint32Key, cell.Uint32Codec, d.Context())
	value, found, err := tracked.Get(key)
	if err != nil {
		return err
	}
	if found {
		fmt.Printf("Key %d:    %d\n", key, value)
	} else {
		fmt.Printf("Key %d:    not found\n", key)
	}
	fmt.Printf("Visited:   %d cells\n", tree.Len())
	return nil
}
