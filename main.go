/*
 * N6502 - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/N6502/asm/assembler"
	"github.com/rcornwell/N6502/asm/listing"
	"github.com/rcornwell/N6502/asm/output"
	logger "github.com/rcornwell/N6502/util/logger"
)

var Logger *slog.Logger

// Swap the extension of a file name.
func replaceExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

func main() {
	optListing := getopt.BoolLong("listing", 'l', "Create listing file")
	optListAll := getopt.BoolLong("full-listing", 'L', "Listing with expanded macros and repeats")
	optDefines := getopt.ListLong("define", 'd', "Predefine a symbol with value 1")
	optQuiet := getopt.BoolLong("quiet", 'q', "Suppress informational output")
	optBanks := getopt.BoolLong("bankmaps", 'n', "Write per bank label maps")
	optFlat := getopt.BoolLong("symbolmap", 'f', "Write flat and Lua symbol maps")
	optMesen := getopt.BoolLong("mesen", 'm', "Write Mesen label map with comments")
	optCover := getopt.BoolLong("coverage", 'c', "Write code/data coverage file")
	optPatch := getopt.BoolLong("ips", 'i', "Write an IPS patch instead of a binary")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	optHelp2 := getopt.Bool('?', "Help")
	getopt.SetParameters("source [output [listing]]")
	getopt.Parse()
	args := getopt.Args()

	if *optHelp || *optHelp2 || len(args) < 1 {
		getopt.Usage()
		os.Exit(1)
	}

	Logger = slog.New(logger.NewHandler(nil, nil, *optQuiet))
	slog.SetDefault(Logger)

	srcName := args[0]
	defaultExt := ".bin"
	if *optPatch {
		defaultExt = ".ips"
	}
	outName := replaceExt(srcName, defaultExt)
	if len(args) > 1 {
		outName = args[1]
	}
	listName := replaceExt(outName, ".lst")
	if len(args) > 2 {
		listName = args[2]
	}

	var sink *output.Sink
	var outFile *os.File
	if *optPatch {
		sink = output.NewPatch()
	} else {
		var err error
		outFile, err = os.OpenFile(outName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
		if err != nil {
			Logger.Error("Can't create output file: " + err.Error())
			os.Exit(1)
		}
		sink = output.NewFile(outFile)
	}
	if *optCover {
		sink.EnableCoverage()
	}

	opts := assembler.Options{
		Defines:     *optDefines,
		VerboseList: *optListAll,
		Comments:    *optMesen,
	}
	asm := assembler.New(sink, opts, Logger)

	err := asm.Assemble(srcName)
	if outFile != nil {
		outFile.Close()
	}
	if err != nil || asm.ErrCount() > 0 {
		if err != nil {
			Logger.Error(err.Error())
		}
		// A failed run leaves no output behind.
		if outFile != nil {
			os.Remove(outName)
		}
		os.Exit(1)
	}

	if *optPatch {
		hunks := sink.Hunks()
		hunks.Simplify()
		f, err := os.Create(outName)
		if err != nil {
			Logger.Error("Can't create output file: " + err.Error())
			os.Exit(1)
		}
		if err = hunks.Write(f); err == nil {
			err = f.Close()
		} else {
			f.Close()
		}
		if err != nil {
			Logger.Error(err.Error())
			os.Remove(outName)
			os.Exit(1)
		}
	}

	headerSize := 0
	if asm.Header().Armed() {
		headerSize = 16
	}

	fail := func(err error) {
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}

	if *optListing || *optListAll {
		f, err := os.Create(listName)
		fail(err)
		fail(asm.Listing().WriteTo(f))
		fail(f.Close())
	}
	if *optCover {
		f, err := os.Create(replaceExt(outName, ".cdl"))
		fail(err)
		fail(listing.WriteCoverage(f, sink.Coverage(), headerSize))
		fail(f.Close())
	}
	if *optBanks {
		fail(listing.WriteBankMaps(outName, asm.Symbols(), headerSize))
	}
	if *optFlat {
		f, err := os.Create(replaceExt(outName, ".map"))
		fail(err)
		fail(listing.WriteFlat(f, asm.Symbols()))
		fail(f.Close())
		f, err = os.Create(replaceExt(outName, ".lua"))
		fail(err)
		fail(listing.WriteLua(f, asm.Symbols()))
		fail(f.Close())
	}
	if *optMesen {
		f, err := os.Create(replaceExt(outName, ".mlb"))
		fail(err)
		fail(listing.WriteMesen(f, asm.Symbols(), asm.Comments(), headerSize))
		fail(f.Close())
	}

	Logger.Info(fmt.Sprintf("%s done (%d bytes)", outName, sink.Watermark()))
}
