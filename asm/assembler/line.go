/*
 * N6502 - Source line processing.
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
	"bufio"
	"io"
	"strings"

	"github.com/rcornwell/N6502/asm/expr"
	"github.com/rcornwell/N6502/asm/opcodes"
	"github.com/rcornwell/N6502/asm/symbols"
)

func newLineScanner(r io.Reader) *bufio.Scanner {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 4096), 1024*1024)
	return scan
}

func isSymStart(c byte) bool {
	return c == '_' || c == '.' || c == localChar ||
		(c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isSymBody(c byte) bool {
	return isSymStart(c) || (c >= '0' && c <= '9')
}

// Characters that may continue a numeric literal: digits and the letters
// A through H in either case (hex digits plus the b/h radix suffixes).
func isNumTail(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'H') || (c >= 'a' && c <= 'h')
}

// expandLine rewrites src replacing every identifier that names an equate
// with the stored text, recursively. Identifiers inside numeric or string
// literals stay put, as does everything after IFDEF/IFNDEF so those can
// test the name itself. The ';' comment is stripped and returned.
func (a *Assembler) expandLine(src string) (string, string) {
	var dst strings.Builder
	comment := ""
	defSkip := false

	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '$' || (c >= '0' && c <= '9'):
			// Read past numbers that could pass for a symbol, $BEEF.
			dst.WriteByte(c)
			i++
			for i < len(src) && isNumTail(src[i]) {
				dst.WriteByte(src[i])
				i++
			}

		case c == '"' || c == '\'':
			// Read past quotes.
			quote := c
			dst.WriteByte(c)
			i++
			for i < len(src) {
				c2 := src[i]
				dst.WriteByte(c2)
				i++
				if c2 == '\\' && i < len(src) {
					dst.WriteByte(src[i])
					i++
					continue
				}
				if c2 == quote {
					break
				}
			}

		case isSymStart(c):
			start := i
			for i < len(src) && isSymBody(src[i]) {
				i++
			}
			word := src[start:i]

			var p *symbols.Symbol
			if !defSkip {
				upp := strings.ToUpper(strings.TrimPrefix(word, "."))
				if upp == "IFDEF" || upp == "IFNDEF" {
					defSkip = true
				} else {
					p = a.syms.Lookup(word, a.scope, a.pass)
				}
			}
			if p != nil {
				// Equates must already be defined this pass, or they
				// would expand inside their own definition line.
				if p.Kind != symbols.Equate || p.Pass != a.pass {
					p = nil
				} else if p.Used {
					p = nil
					a.setErr(ErrRecurseEqu)
				}
			}
			if p != nil {
				p.Used = true
				sub, _ := a.expandLine(p.Text)
				dst.WriteString(sub)
				p.Used = false
			} else {
				dst.WriteString(word)
			}

		case c == ';':
			comment = src[i:]
			i = len(src)

		default:
			dst.WriteByte(c)
			i++
		}
	}
	return dst.String(), comment
}

// What one line starts with after the optional label.
type reserved struct {
	name      string
	directive func(*Assembler, string)
	opcode    []opcodes.Candidate
	stability opcodes.Stability
	macro     *symbols.Symbol
}

// getReserved scans a directive, opcode or macro name. Reserved words may
// carry a leading '.' and are case insensitive; macro names match exactly
// and must already be defined this pass.
func (a *Assembler) getReserved(s string) (reserved, string, bool) {
	s = expr.SkipSpace(s)
	if len(s) > 0 && s[0] == '=' {
		return reserved{name: "=", directive: (*Assembler).doEqual}, s[1:], true
	}
	t := s
	if len(t) > 0 && t[0] == '.' {
		t = t[1:]
	}
	word, rest := expr.ScanWord(t, true)
	if word == "" {
		return reserved{}, s, false
	}
	upp := strings.ToUpper(word)
	if fn, ok := directives[upp]; ok {
		return reserved{name: upp, directive: fn}, rest, true
	}
	if cands, stab, ok := opcodes.Lookup(word); ok {
		return reserved{name: upp, opcode: cands, stability: stab}, rest, true
	}
	if p := a.syms.Lookup(word, a.scope, a.pass); p != nil &&
		p.Kind == symbols.Macro && p.Pass == a.pass {
		return reserved{name: word, macro: p}, rest, true
	}
	return reserved{}, s, false
}

// scanLabel pulls a word and decides whether it can be a label: the bare
// '$', a run of '+' or '-', or something starting like an identifier.
func (a *Assembler) scanLabel(s string) (string, string, bool) {
	word, rest := expr.ScanWord(s, true)
	if word == "$" {
		return word, rest, true
	}
	if word != "" && (word[0] == '+' || word[0] == '-') {
		run := word[0]
		i := 0
		for i < len(word) && word[i] == run {
			i++
		}
		if i == len(word) {
			// Just ++.. or --.., an anonymous label.
			return word, rest, true
		}
		if i < len(word) && isSymStart(word[i]) {
			return word, rest, true
		}
	}
	if word != "" && isSymStart(word[0]) {
		return word, rest, true
	}
	a.setErr(ErrIllegal)
	return word, rest, false
}

// One of the conditional directives, allowed even while skipping.
func isIfFamily(name string) bool {
	switch name {
	case "IF", "IFDEF", "IFNDEF", "ELSEIF", "ELSE", "ENDIF":
		return true
	}
	return false
}

// processLine runs one source line: expand equates, feed any open macro or
// repeat capture, then dispatch a directive, opcode or macro expansion.
// errFile/errLine name the place diagnostics should point at, which is the
// invocation site while a macro body runs.
func (a *Assembler) processLine(src, errFile string, errLine int) {
	a.errmsg = ""
	a.eval.Err = ""

	line, comment := a.expandLine(src)
	if a.insideMacro == 0 || a.opts.VerboseList {
		a.list.Line(a.pc, line)
	}
	if a.opts.Comments && comment != "" && a.insideMacro == 0 {
		a.comments.Add(a.out.Pos(), strings.TrimRight(comment[1:], " \t"))
	}
	if a.failed() {
		a.reportLine(errFile, errLine)
		return
	}

	switch {
	case a.makeMacro != nil || a.skipMacro:
		a.captureMacroLine(line)
	case a.captRept:
		a.captureReptLine(line)
	default:
		a.dispatchLine(line)
	}

	if a.failed() {
		a.reportLine(errFile, errLine)
	}
}

func (a *Assembler) reportLine(errFile string, errLine int) {
	msg := a.lineErr()
	a.errmsg = ""
	a.eval.Err = ""
	if msg == "" {
		return
	}
	a.report(errFile, errLine, msg)
}

// dispatchLine handles a line outside any capture: optional label, then a
// directive, opcode or macro call. While the conditional stack says skip,
// only the IF family runs and label definitions are dropped.
func (a *Assembler) dispatchLine(line string) {
	if expr.SkipSpace(line) == "" {
		return
	}
	a.labelHere = nil
	a.labelDollar = false
	res, rest, ok := a.getReserved(line)

	if a.skipLine[a.ifLevel] {
		if !ok || res.directive == nil || !isIfFamily(res.name) {
			return
		}
		res.directive(a, rest)
		return
	}

	if !ok {
		// Must start with a label then.
		word, s, okLabel := a.scanLabel(line)
		if !okLabel {
			return
		}
		if word == "$" {
			// '$' names the PC itself. Only '$ = expr' means anything.
			a.labelDollar = true
		} else {
			a.addLabel(word, a.insideMacro > 0)
			if a.failed() {
				return
			}
		}
		if expr.SkipSpace(s) == "" {
			return
		}
		res, rest, ok = a.getReserved(s)
		if !ok {
			a.setErr(ErrIllegal)
			return
		}
	}

	switch {
	case res.macro != nil:
		a.expandMacro(res.macro, rest)
	case res.opcode != nil:
		a.doOpcode(res, rest)
	default:
		res.directive(a, rest)
	}
}

// captureMacroLine stores one line of a macro body, watching only for the
// closing ENDM. A label prefix is skipped transparently.
func (a *Assembler) captureMacroLine(line string) {
	res, _, ok := a.getReserved(line)
	if !ok {
		_, rest := expr.ScanWord(line, true)
		res, _, ok = a.getReserved(rest)
	}
	if ok && res.name == "ENDM" {
		a.makeMacro = nil
		a.skipMacro = false
		return
	}
	if a.makeMacro != nil {
		a.makeMacro.Body = append(a.makeMacro.Body, line)
	}
}

// captureReptLine stores one line of a repeat body, tracking nested REPT
// blocks so only the outermost ENDR closes the capture.
func (a *Assembler) captureReptLine(line string) {
	res, _, ok := a.getReserved(line)
	if !ok {
		_, rest := expr.ScanWord(line, true)
		res, _, ok = a.getReserved(rest)
	}
	if ok {
		switch res.name {
		case "REPT":
			a.reptNest++
		case "ENDR":
			a.reptNest--
			if a.reptNest == 0 {
				a.expandRept()
				return
			}
		}
	}
	a.reptBody = append(a.reptBody, line)
}
