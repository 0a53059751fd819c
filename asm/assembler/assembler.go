/*
 * N6502 - Assembler state and pass driver.
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

package assembler

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/rcornwell/N6502/asm/expr"
	"github.com/rcornwell/N6502/asm/ines"
	"github.com/rcornwell/N6502/asm/listing"
	"github.com/rcornwell/N6502/asm/output"
	"github.com/rcornwell/N6502/asm/symbols"
)

const (
	maxPasses = 7  // Tries before giving up.
	ifNests   = 32 // Max nested IF levels.
	localChar = '@'
)

// Error messages outside the evaluator's own set.
const (
	ErrSeekOutOfRange = "Seek position out of range."
	ErrBadIncbinSize  = "INCBIN size is out of range."
	ErrIllegal        = "Illegal instruction."
	ErrLabelDefined   = "Label already defined."
	ErrBadAddr        = "Can't determine address."
	ErrNeedName       = "Need a name."
	ErrCantOpen       = "Can't open file."
	ErrCantSeekEnum   = "Can't seek in enum mode."
	ErrExtraENDM      = "ENDM without MACRO."
	ErrExtraENDR      = "ENDR without REPT."
	ErrExtraENDE      = "ENDE without ENUM."
	ErrExtraENDINL    = "ENDINL without IGNORENL."
	ErrExtraELSEIF    = "ELSEIF without IF."
	ErrExtraELSE      = "ELSE without IF."
	ErrExtraENDIF     = "ENDIF without IF."
	ErrRecurseMacro   = "Recursive MACRO not allowed."
	ErrRecurseEqu     = "Recursive EQU not allowed."
	ErrNoENDIF        = "Missing ENDIF."
	ErrNoENDM         = "Missing ENDM."
	ErrNoENDR         = "Missing ENDR."
	ErrNoENDE         = "Missing ENDE."
	ErrNoENDINL       = "Missing ENDINL."
	ErrIfNestLimit    = "Too many nested IFs."
	ErrUndefinedPC    = "PC is undefined (use ORG first)"
	ErrBranchRange    = "Branch out of range."
)

// Options for one assembly run.
type Options struct {
	Defines     []string // Symbols preset to 1 before the first pass.
	VerboseList bool     // Expand macros and repeats in the listing.
	Comments    bool     // Collect comment records for the map writers.
}

// Assembler holds the whole-run state shared by every pass.
type Assembler struct {
	syms   *symbols.Table
	out    *output.Sink
	eval   *expr.Evaluator
	header *ines.Header

	pass       int
	lastChance bool
	pc         int
	scope      int
	nextScope  int

	errCount int
	errmsg   string // Error cursor for the current line.
	fatal    string // Unrecoverable condition, aborts the run.

	insideMacro int
	makeMacro   *symbols.Symbol // Macro being captured, nil otherwise.
	skipMacro   bool            // Capturing but discarding a redefinition.
	captRept    bool
	reptBody    []string
	reptNest    int
	reptTimes   int
	reptFile    string
	reptLine    int

	ifLevel  int
	ifDone   [ifNests]bool
	skipLine [ifNests]bool

	noOutput  bool // Enum mode, labels advance PC without emitting.
	enumSaved int
	noNL      bool // Inside IGNORENL, labels drop from export files.

	labelHere   *symbols.Symbol
	labelDollar bool // Line was labelled with the bare '$'.
	lastLabel   *symbols.Symbol

	allowUnstable  bool
	allowHUnstable bool

	curFile     string
	curLine     int
	includeNest int

	opts     Options
	list     *listing.Listing
	comments *listing.Comments
	log      *slog.Logger
}

// New builds an assembler writing through the given sink.
func New(out *output.Sink, opts Options, log *slog.Logger) *Assembler {
	a := &Assembler{
		syms:     symbols.NewTable(),
		out:      out,
		header:   &ines.Header{},
		opts:     opts,
		list:     &listing.Listing{},
		comments: &listing.Comments{},
		log:      log,
	}
	a.eval = &expr.Evaluator{Syms: a}
	for _, name := range opts.Defines {
		sym := a.syms.Add(name, 0)
		sym.Kind = symbols.Value
		sym.Value = 1
		sym.Known = true
	}
	return a
}

// Symbols exposes the final symbol table for the export writers.
func (a *Assembler) Symbols() []*symbols.Symbol {
	return a.syms.All()
}

// Header exposes the collected console header.
func (a *Assembler) Header() *ines.Header {
	return a.header
}

// Listing returns the final pass listing.
func (a *Assembler) Listing() *listing.Listing {
	return a.list
}

// Comments returns the final pass comment records.
func (a *Assembler) Comments() *listing.Comments {
	return a.comments
}

// ErrCount reports how many diagnostics the run produced.
func (a *Assembler) ErrCount() int {
	return a.errCount
}

func (a *Assembler) setErr(msg string) {
	if a.errmsg == "" {
		a.errmsg = msg
	}
}

// failed reports whether the current line already carries a diagnostic.
func (a *Assembler) failed() bool {
	return a.errmsg != "" || a.eval.Err != ""
}

func (a *Assembler) lineErr() string {
	if a.errmsg != "" {
		return a.errmsg
	}
	return a.eval.Err
}

// Resolve looks a symbol up for the expression evaluator.
func (a *Assembler) Resolve(name string) expr.Resolution {
	p := a.syms.Lookup(name, a.scope, a.pass)
	if p == nil {
		return expr.Resolution{Kind: expr.RefMissing}
	}
	switch p.Kind {
	case symbols.Label, symbols.Value:
		return expr.Resolution{Value: p.Value, Known: p.Known, Kind: expr.RefValue}
	case symbols.Macro:
		return expr.Resolution{Kind: expr.RefMacro}
	default:
		return expr.Resolution{Kind: expr.RefOther}
	}
}

// PC returns the current program counter for the '$' identifier.
func (a *Assembler) PC() int {
	return a.pc
}

// Define a label at the current PC. Local labels shadow same named
// globals; every global label definition opens a fresh scope.
func (a *Assembler) addLabel(word string, local bool) {
	c := word[0]
	p := a.syms.Lookup(word, a.scope, a.pass)
	if p != nil && local && p.Scope == 0 && c != localChar {
		p = nil // Local label overrides a global of the same name.
	}
	if c != localChar && !local {
		a.scope = a.nextScope
		a.nextScope++
	}

	if p == nil {
		sc := 0
		if c == localChar || local {
			sc = a.scope
		}
		p = a.syms.Add(word, sc)
		p.Kind = symbols.Label
		p.Pass = a.pass
		p.Value = a.pc
		p.Pos = a.out.Pos()
		p.Known = a.pc >= 0
		p.IgnoreNL = a.noNL
		a.labelHere = p
		a.lastLabel = p
		return
	}

	a.labelHere = p
	if p.Pass == a.pass && c != '-' {
		// Seen before on this pass. '=' symbols may be reassigned.
		if p.Kind != symbols.Value {
			a.setErr(ErrLabelDefined)
		}
		return
	}
	// First definition this pass.
	p.Pass = a.pass
	if p.Kind == symbols.Label {
		if p.Value != a.pc && c != '-' {
			// Label is still moving between passes.
			a.eval.NeedsPass = true
			if a.lastChance {
				a.setErr(ErrBadAddr)
			}
		}
		p.Value = a.pc
		p.Pos = a.out.Pos()
		p.Known = a.pc >= 0
		if a.lastChance && a.pc < 0 {
			a.setErr(ErrBadAddr)
		}
	}
}

// Write data at the current position, advancing PC. In enum mode PC moves
// but nothing reaches the sink.
func (a *Assembler) emit(data []byte, tag output.Tag) {
	a.pc += len(data)
	if a.pc > 0x10000 {
		a.setErr(expr.ErrOutOfRange)
	}
	if a.noOutput {
		return
	}
	if msg := a.out.Write(data, tag); msg != "" {
		a.setErr(msg)
	}
	if msg := a.out.TakeCompareFailure(); msg != "" {
		a.setErr(msg)
	}
	a.list.Emit(data)
}

// Write n pad bytes.
func (a *Assembler) emitFill(n int) {
	if n <= 0 {
		return
	}
	a.pc += n
	if a.pc > 0x10000 {
		a.setErr(expr.ErrOutOfRange)
	}
	if a.noOutput {
		return
	}
	if msg := a.out.Pad(n); msg != "" {
		a.setErr(msg)
	}
	if msg := a.out.TakeCompareFailure(); msg != "" {
		a.setErr(msg)
	}
}

// Reset the per pass state. Symbol values, the header and the unstable
// gates survive between passes; everything positional starts over.
func (a *Assembler) resetPass() {
	a.pc = expr.NoOrigin
	a.scope = 1
	a.nextScope = 2
	a.ifLevel = 0
	a.ifDone[0] = false
	a.skipLine[0] = false
	a.insideMacro = 0
	a.makeMacro = nil
	a.skipMacro = false
	a.captRept = false
	a.reptBody = nil
	a.reptNest = 0
	a.noOutput = false
	a.noNL = false
	a.labelHere = nil
	a.errmsg = ""
	a.eval.Err = ""
	a.eval.Dependant = false
	a.eval.NeedsPass = false
	a.eval.LastChance = a.lastChance
	a.list.Reset()
	a.comments.Reset()
	a.out.Rewind()
	if a.header.Armed() {
		// The console header occupies the first sixteen bytes of the
		// file. PC does not see it.
		hdr := a.header.Bytes()
		if msg := a.out.Write(hdr, output.None); msg != "" {
			a.setErr(msg)
		}
	}
}

// Assemble runs passes over the root source file until label values stop
// moving, a bounded number of attempts is hit, or progress stalls. The
// final pass turns surviving unresolved references into hard errors.
func (a *Assembler) Assemble(rootFile string) error {
	var prevLast *symbols.Symbol
	for pass := 1; ; pass++ {
		a.pass = pass
		if pass == maxPasses || (pass > 1 && a.lastLabel == prevLast) {
			a.lastChance = true
			a.log.Info("last try..")
		} else {
			a.log.Info(fmt.Sprintf("pass %d..", pass))
		}
		prevLast = a.lastLabel
		a.resetPass()

		if err := a.processFile(rootFile); err != nil {
			return err
		}
		if a.fatal != "" {
			return errors.New(a.fatal)
		}
		if msg := a.out.Finish(); msg != "" {
			a.report(rootFile, 0, msg)
		}
		if a.errCount > 0 {
			return errors.Errorf("%d error(s)", a.errCount)
		}
		if a.lastChance || !a.eval.NeedsPass {
			return nil
		}
	}
}

// Read one source file line by line. Used for the root file and for every
// INCLUDE. Open for read and write so the file being written can not be
// pulled back in.
func (a *Assembler) processFile(name string) error {
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return errors.Wrapf(err, "can't open %s", name)
	}
	defer f.Close()

	a.includeNest++
	savedFile, savedLine := a.curFile, a.curLine
	a.curFile = name

	scan := newLineScanner(f)
	for n := 1; scan.Scan(); n++ {
		a.curLine = n
		a.processLine(scan.Text(), name, n)
		if a.fatal != "" {
			break
		}
	}
	a.includeNest--

	if err := scan.Err(); err != nil {
		return errors.Wrapf(err, "read error on %s", name)
	}

	if a.includeNest == 0 && a.fatal == "" {
		// End of the root file. Catch unterminated blocks.
		a.errmsg = ""
		a.eval.Err = ""
		switch {
		case a.ifLevel != 0:
			a.setErr(ErrNoENDIF)
		case a.makeMacro != nil || a.skipMacro:
			a.setErr(ErrNoENDM)
		case a.captRept:
			a.setErr(ErrNoENDR)
		case a.noOutput:
			a.setErr(ErrNoENDE)
		case a.noNL:
			a.setErr(ErrNoENDINL)
		}
		if a.errmsg != "" {
			a.report(name, a.curLine, a.errmsg)
			a.errmsg = ""
		}
	}
	a.curFile, a.curLine = savedFile, savedLine
	return nil
}

// Report a diagnostic with its source location.
func (a *Assembler) report(file string, line int, msg string) {
	a.errCount++
	a.log.Error(fmt.Sprintf("%s(%d): %s", file, line, msg))
	a.list.Error(msg)
}
