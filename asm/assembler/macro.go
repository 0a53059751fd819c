/*
 * N6502 - Macro and repeat expansion.
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
	"strings"

	"github.com/rcornwell/N6502/asm/expr"
	"github.com/rcornwell/N6502/asm/symbols"
)

// MACRO defines the name that follows it and starts capturing a body.
// The rest of the operand list names the parameters. On later passes the
// body is already stored and the capture just swallows lines up to ENDM.
func (a *Assembler) doMacro(s string) {
	if expr.SkipSpace(s) == "" {
		a.setErr(ErrNeedName)
		return
	}
	word, rest, ok := a.scanLabel(s)
	if !ok {
		return
	}
	s = rest
	a.addLabel(word, false)
	if a.failed() {
		return
	}
	p := a.labelHere
	if p.Kind == symbols.Macro {
		// Same macro from an earlier pass. Skip to ENDM without storing.
		a.skipMacro = true
		return
	}
	if p.Kind != symbols.Label {
		a.setErr(ErrLabelDefined)
		return
	}
	p.Kind = symbols.Macro
	p.Body = nil
	for {
		word, rest := expr.ScanWord(s, true)
		if word == "" {
			break
		}
		p.Body = append(p.Body, word)
		p.Params++
		var ok bool
		s, ok = expr.EatChar(rest, ',')
		if !ok {
			break
		}
	}
	a.makeMacro = p
}

func (a *Assembler) doEndm(string) {
	// A live capture is consumed before dispatch, so reaching the
	// handler means there was no MACRO.
	a.setErr(ErrExtraENDM)
}

func (a *Assembler) doEndr(string) {
	a.setErr(ErrExtraENDR)
}

// REPT evaluates the repeat count and starts capturing the body. The
// outermost ENDR expands it.
func (a *Assembler) doRept(s string) {
	count, _ := a.evalWhole(s)
	if a.eval.Dependant || a.failed() || count < 0 {
		count = 0
	}
	a.reptTimes = count
	a.reptBody = nil
	a.reptNest = 1
	a.captRept = true
	a.reptFile = a.curFile
	a.reptLine = a.curLine
}

// Split a macro argument list on commas, leaving quoted text intact.
func splitArgs(s string) []string {
	var args []string
	var cur strings.Builder
	quote := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				cur.WriteByte(s[i+1])
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			cur.WriteByte(c)
		case c == ',':
			args = append(args, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	args = append(args, cur.String())
	return args
}

// expandMacro binds the arguments as equates in a fresh scope and runs the
// stored body. Diagnostics from body lines point at the invocation.
func (a *Assembler) expandMacro(p *symbols.Symbol, s string) {
	if p.Used {
		a.setErr(ErrRecurseMacro)
		return
	}
	p.Used = true
	a.insideMacro++
	oldScope := a.scope
	a.scope = a.nextScope
	a.nextScope++

	args := splitArgs(s)
	for i := 0; i < p.Params; i++ {
		arg := ""
		if i < len(args) {
			arg = strings.Trim(args[i], " \t\r\n")
		}
		param := a.syms.Lookup(p.Body[i], a.scope, a.pass)
		if param == nil || param.Scope != a.scope {
			param = a.syms.Add(p.Body[i], a.scope)
		}
		param.Kind = symbols.Equate
		param.Text = arg
		param.Known = true
		param.Pass = a.pass
	}

	file, line := a.curFile, a.curLine
	for _, body := range p.Body[p.Params:] {
		a.processLine(body, file, line)
		if a.fatal != "" {
			break
		}
	}

	a.scope = oldScope
	a.insideMacro--
	p.Used = false
}

// expandRept plays the captured body N times, each iteration in its own
// scope so local labels stay private.
func (a *Assembler) expandRept() {
	a.captRept = false
	body := a.reptBody
	a.reptBody = nil
	times := a.reptTimes

	a.insideMacro++
	oldScope := a.scope
	for range times {
		a.scope = a.nextScope
		a.nextScope++
		for _, line := range body {
			a.processLine(line, a.reptFile, a.reptLine)
			if a.fatal != "" {
				break
			}
		}
		if a.fatal != "" {
			break
		}
	}
	a.scope = oldScope
	a.insideMacro--
}
