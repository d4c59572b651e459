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

	"github.com/Fantom-foundation/Cellar/cell"
	"github.com/Fantom-foundation/Cellar/common"
	"github.com/urfave/cli/v2"
)

var (
	dataFlag = cli.StringFlag{
		Name:     "data",
		Usage:    "the cell's data as hex string, a trailing '_' marks a completion tag",
		Required: true,
	}
	depthFlag = cli.IntFlag{
		Name:  "depth",
		Usage: "the number of nested copies of the cell to reference",
	}
	expectFlag = cli.StringFlag{
		Name:  "expect",
		Usage: "the expected representation hash, a mismatch is reported as an error",
	}
	dumpFlag = cli.BoolFlag{
		Name:  "dump",
		Usage: "print the resulting tree",
	}
)

var hashCommand = cli.Command{
	Action: hash,
	Name:   "hash",
	Usage:  "builds a cell from raw data and prints its hashes",
	Flags: []cli.Flag{
		&dataFlag,
		&depthFlag,
		&expectFlag,
		&dumpFlag,
		&configFlag,
		&hashingFlag,
		&arenaSizeFlag,
	},
}

func hash(ctx *cli.Context) error {
	family, err := openFamily(ctx)
	if err != nil {
		return err
	}
	log.Printf("Using cell family %v", family)

	data, err := parseBits(ctx.String(dataFlag.Name))
	if err != nil {
		return err
	}

	var root cell.Cell
	for i := 0; i <= ctx.Int(depthFlag.Name); i++ {
		b := data.Clone()
		if root != nil && !b.StoreReference(root) {
			return fmt.Errorf("failed to reference nested cell")
		}
		if root, err = b.Build(family); err != nil {
			return err
		}
	}

	if ctx.Bool(dumpFlag.Name) {
		cell.Dump(ctx.App.Writer, root)
	}
	stats := root.Stats()
	fmt.Printf("Repr hash:  %v\n", root.ReprHash())
	fmt.Printf("Repr depth: %d\n", root.ReprDepth())
	fmt.Printf("Tree size:  %d cells, %d bits\n", stats.CellCount, stats.BitCount)

	if expected := ctx.String(expectFlag.Name); expected != "" {
		want, err := common.HashFromHex(expected)
		if err != nil {
			return err
		}
		if got := root.ReprHash(); got != want {
			return fmt.Errorf("hash mismatch, expected %v, got %v", want, got)
		}
		log.Printf("Hash matches expectation")
	}
	return nil
}
