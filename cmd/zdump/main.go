// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// zdump loads a zarchive buffer, prints a hex dump of it, and reads its
// root as a ZString or a ZSlice[byte], validated unless -unsafe is given.
// With -profile, it warns about each profile whose endianness or pointer
// width differs from this binary's build.
//
// It is the direct analogue of the teacher's internal/tools/hyperdump: a
// small, flag-driven CLI that turns an otherwise-opaque binary blob into
// something a developer can read.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/archivelab/zarchive"
	"github.com/archivelab/zarchive/config"
	"golang.org/x/term"
)

var (
	rootType = flag.String("type", "string", "root type to interpret the archive as: string or bytes")
	profile  = flag.String("profile", "", "path to a YAML config profile document to validate the archive's assumed configuration against (optional)")
	unsafe   = flag.Bool("unsafe", false, "skip validation and use the unchecked access path")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "zdump:", err)
		os.Exit(1)
	}
}

func run() error {
	buf, err := readInput(flag.Args())
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}

	if *profile != "" {
		if err := checkProfile(*profile); err != nil {
			return err
		}
	}

	fmt.Printf("archive: %d bytes, built as %s/%d-bit\n", len(buf), config.Current.Endianness, config.Current.PointerWidth)
	dumpHex(os.Stdout, buf)

	switch *rootType {
	case "string":
		return dumpString(buf)
	case "bytes":
		return dumpBytes(buf)
	default:
		return fmt.Errorf("unknown -type %q (want \"string\" or \"bytes\")", *rootType)
	}
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func checkProfile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening profile file: %w", err)
	}
	defer f.Close()

	profiles, err := config.LoadProfiles(f)
	if err != nil {
		return err
	}
	for _, p := range profiles {
		if p.Endianness != config.Current.Endianness || p.PointerWidth != config.Current.PointerWidth {
			fmt.Fprintf(os.Stderr, "zdump: warning: profile %q (%s/%d-bit) does not match this binary's build (%s/%d-bit)\n",
				p.Name, p.Endianness, p.PointerWidth, config.Current.Endianness, config.Current.PointerWidth)
		}
	}
	return nil
}

func dumpString(buf []byte) error {
	if *unsafe {
		z := zarchive.AccessUnchecked[zarchive.ZString](buf)
		fmt.Printf("root: ZString (unchecked), len=%d inline=%v\n  %q\n", z.Len(), z.IsInline(), z.String())
		return nil
	}
	z, err := zarchive.Access[zarchive.ZString](buf)
	if err != nil {
		return fmt.Errorf("validating root as ZString: %w", err)
	}
	fmt.Printf("root: ZString, len=%d inline=%v\n  %q\n", z.Len(), z.IsInline(), z.String())
	return nil
}

func dumpBytes(buf []byte) error {
	if *unsafe {
		z := zarchive.AccessUnchecked[zarchive.ZSlice[byte]](buf)
		fmt.Printf("root: ZSlice[byte] (unchecked), len=%d\n  %x\n", z.Len(), z.Slice())
		return nil
	}
	z, err := zarchive.Access[zarchive.ZSlice[byte]](buf)
	if err != nil {
		return fmt.Errorf("validating root as ZSlice[byte]: %w", err)
	}
	fmt.Printf("root: ZSlice[byte], len=%d\n  %x\n", z.Len(), z.Slice())
	return nil
}

// dumpHex prints buf as a hex dump, sizing its column count to the
// terminal width when stdout is a terminal (falling back to 16 bytes/row
// otherwise, e.g. when piping to a file).
func dumpHex(w io.Writer, buf []byte) {
	cols := hexColumns()
	for pos := 0; pos < len(buf); pos += cols {
		end := min(pos+cols, len(buf))
		row := buf[pos:end]

		hexCol := make([]byte, 0, cols*3)
		for _, b := range row {
			hexCol = append(hexCol, hex.EncodeToString([]byte{b})...)
			hexCol = append(hexCol, ' ')
		}
		fmt.Fprintf(w, "%08x  %-*s  %s\n", pos, cols*3, hexCol, printable(row))
	}
}

func hexColumns() int {
	const defaultCols = 16
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultCols
	}
	// Each byte needs "xx " in the hex column plus one character in the
	// ASCII gutter; leave room for the 8-hex-digit offset prefix.
	cols := (width - 10) / 4
	if cols < 1 {
		return defaultCols
	}
	return cols
}

func printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 0x20 && c < 0x7f {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
