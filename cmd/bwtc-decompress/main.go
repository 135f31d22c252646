// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package main

import (
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dsnet/bwtc"
)

func main() {
	app := &cli.App{
		Name:      "bwtc-decompress",
		Usage:     "decompress a file produced by bwtc-compress",
		ArgsUsage: "inputFile outputFile",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "threads", Value: 1, Usage: "decoder parallelism; only 1 is supported"},
		},
		Action: decompress,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("bwtc-decompress: %s", err)
	}
}

func decompress(c *cli.Context) error {
	if n := c.Int("threads"); n != 1 {
		return cli.Exit(bwtc.Error("only --threads=1 is supported"), 1)
	}

	args := c.Args()
	if args.Len() < 2 {
		return cli.Exit(bwtc.Error("usage: bwtc-decompress inputFile outputFile"), 1)
	}

	in, err := os.Open(args.Get(0))
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(args.Get(1))
	if err != nil {
		return err
	}
	defer out.Close()

	zr, err := bwtc.NewReader(in)
	if err != nil {
		return err
	}
	defer zr.Close()

	_, err = io.Copy(out, zr)
	return err
}
