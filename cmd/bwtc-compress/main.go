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
		Name:      "bwtc-compress",
		Usage:     "compress a file with the BWT-based block compressor",
		ArgsUsage: "[inputFile] [outputFile]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "stdin", Usage: "read the input from standard input"},
			&cli.BoolFlag{Name: "stdout", Usage: "write the output to standard output"},
			&cli.IntFlag{Name: "block", Value: 100000, Usage: "precompressor block size, in bytes"},
			&cli.IntFlag{Name: "verb", Value: 0, Usage: "verbosity level: 1 or higher prints the number of input bytes read to standard error; levels above 1 print nothing more"},
			&cli.IntFlag{Name: "escape", Value: 1, Usage: "allow the common-pair and long-run preprocessors to free additional symbols by escaping occupied bytes (0 disables)"},
			&cli.StringFlag{Name: "prepr", Value: "cr", Usage: "preprocessor pipeline, any of 'c', 'p', 'r', 's'"},
			&cli.StringFlag{Name: "enc", Value: "B", Usage: "entropy coder: one of n, b, B, u, m, M"},
		},
		Action: compress,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("bwtc-compress: %s", err)
	}
}

func compress(c *cli.Context) error {
	in, out, err := openStreams(c)
	if err != nil {
		return err
	}
	defer in.Close()
	defer out.Close()

	verb := c.Int("verb")

	enc := c.String("enc")
	var coder byte
	if len(enc) > 0 {
		coder = enc[0]
	}
	zw, err := bwtc.NewWriterConfig(out, bwtc.WriterConfig{
		BlockSize:     c.Int("block"),
		Preprocessors: c.String("prepr"),
		EntropyCoder:  coder,
		NoEscape:      c.Int("escape") == 0,
	})
	if err != nil {
		return err
	}

	n, err := io.Copy(zw, in)
	if err != nil {
		return err
	}
	if verb >= 1 {
		log.Printf("bwtc-compress: read %d bytes", n)
	}
	return zw.Close()
}

// openStreams resolves the compressor's input and output according to
// --stdin/--stdout and the positional inputFile/outputFile arguments (spec
// section 6).
func openStreams(c *cli.Context) (io.ReadCloser, io.WriteCloser, error) {
	args := c.Args()
	var in io.ReadCloser = io.NopCloser(os.Stdin)
	var out io.WriteCloser = nopWriteCloser{os.Stdout}

	i := 0
	if !c.Bool("stdin") {
		if args.Len() <= i {
			return nil, nil, bwtc.Error("missing input file")
		}
		f, err := os.Open(args.Get(i))
		if err != nil {
			return nil, nil, err
		}
		in = f
		i++
	}
	if !c.Bool("stdout") {
		if args.Len() <= i {
			return nil, nil, bwtc.Error("missing output file")
		}
		f, err := os.Create(args.Get(i))
		if err != nil {
			in.Close()
			return nil, nil, err
		}
		out = f
	}
	return in, out, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
