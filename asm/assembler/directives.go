/*
 * N6502 - Directive handlers.
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
	"os"
	"path/filepath"
	"strings"

	"github.com/rcornwell/N6502/asm/expr"
	"github.com/rcornwell/N6502/asm/ines"
	"github.com/rcornwell/N6502/asm/output"
	"github.com/rcornwell/N6502/asm/symbols"
)

var directives map[string]func(*Assembler, string)

func init() {
	directives = map[string]func(*Assembler, string){
		"IF":     (*Assembler).doIf,
		"ELSEIF": (*Assembler).doElseif,
		"ELSE":   (*Assembler).doElse,
		"ENDIF":  (*Assembler).doEndif,
		"IFDEF":  (*Assembler).doIfdef,
		"IFNDEF": (*Assembler).doIfndef,

		"EQU":     (*Assembler).doEqu,
		"ORG":     (*Assembler).doOrg,
		"BASE":    (*Assembler).doBase,
		"PAD":     (*Assembler).doPad,
		"ALIGN":   (*Assembler).doAlign,
		"SEEKABS": (*Assembler).doSeekAbs,
		"SEEKREL": (*Assembler).doSeekRel,
		"SKIPREL": (*Assembler).doSkipRel,

		"INCLUDE":    (*Assembler).doInclude,
		"INCSRC":     (*Assembler).doInclude,
		"INCBIN":     (*Assembler).doIncbin,
		"BIN":        (*Assembler).doIncbin,
		"INCNES":     (*Assembler).doIncnes,
		"CLEARPATCH": (*Assembler).doClearPatch,

		"HEX":  (*Assembler).doHex,
		"WORD": (*Assembler).doDW,
		"DW":   (*Assembler).doDW,
		"DCW":  (*Assembler).doDW,
		"DC.W": (*Assembler).doDW,
		"BYTE": (*Assembler).doDB,
		"DB":   (*Assembler).doDB,
		"DCB":  (*Assembler).doDB,
		"DC.B": (*Assembler).doDB,
		"DSW":  (*Assembler).doDSW,
		"DS.W": (*Assembler).doDSW,
		"DSB":  (*Assembler).doDSB,
		"DS.B": (*Assembler).doDSB,
		"DL":   (*Assembler).doDL,
		"DH":   (*Assembler).doDH,

		"MACRO": (*Assembler).doMacro,
		"REPT":  (*Assembler).doRept,
		"ENDM":  (*Assembler).doEndm,
		"ENDR":  (*Assembler).doEndr,

		"ENUM":     (*Assembler).doEnum,
		"ENDE":     (*Assembler).doEnde,
		"IGNORENL": (*Assembler).doIgnoreNL,
		"ENDINL":   (*Assembler).doEndinl,

		"FILLVALUE":  (*Assembler).doFillValue,
		"COMPARE":    (*Assembler).doCompare,
		"ENDCOMPARE": (*Assembler).doEndCompare,
		"ERROR":      (*Assembler).doError,
		"UNSTABLE":   (*Assembler).doUnstable,
		"HUNSTABLE":  (*Assembler).doHUnstable,

		"INESPRG":     (*Assembler).doInesPRG,
		"INESCHR":     (*Assembler).doInesCHR,
		"INESMIR":     (*Assembler).doInesMIR,
		"INESMAP":     (*Assembler).doInesMAP,
		"NES2CHRRAM":  (*Assembler).doNes2CHRRAM,
		"NES2PRGRAM":  (*Assembler).doNes2PRGRAM,
		"NES2SUB":     (*Assembler).doNes2SUB,
		"NES2TV":      (*Assembler).doNes2TV,
		"NES2VS":      (*Assembler).doNes2VS,
		"NES2BRAM":    (*Assembler).doNes2BRAM,
		"NES2CHRBRAM": (*Assembler).doNes2CHRBRAM,
	}
}

// Evaluate one whole expression with the dependant flag fresh.
func (a *Assembler) evalWhole(s string) (int, string) {
	a.eval.Dependant = false
	return a.eval.Eval(s, expr.WholeExp)
}

// Grab a possibly quoted filename. An unquoted name ends at whitespace or
// at a comma.
func (a *Assembler) scanFilename(s string) (string, string) {
	s = expr.SkipSpace(s)
	if strings.HasPrefix(s, "\"") {
		if end := strings.IndexByte(s[1:], '"'); end >= 0 {
			return s[1 : 1+end], s[2+end:]
		}
		return strings.TrimRight(s[1:], " \t\r\n"), ""
	}
	word, rest := expr.ScanWord(s, false)
	if i := strings.IndexByte(word, ','); i >= 0 {
		return word[:i], s[i:]
	}
	return word, rest
}

// '=' assigns a value symbol, or moves the PC when the label is '$'.
func (a *Assembler) doEqual(s string) {
	if a.labelDollar {
		val, _ := a.evalWhole(s)
		if a.eval.Dependant {
			a.pc = expr.NoOrigin
		} else {
			a.pc = val
		}
		return
	}
	if a.labelHere == nil {
		a.setErr(ErrNeedName)
		return
	}
	p := a.labelHere
	p.Kind = symbols.Value
	val, _ := a.evalWhole(s)
	p.Value = val
	p.Known = !a.eval.Dependant
}

// EQU stores the raw text for later substitution.
func (a *Assembler) doEqu(s string) {
	if a.labelHere == nil {
		a.setErr(ErrNeedName)
		return
	}
	p := a.labelHere
	switch p.Kind {
	case symbols.Label:
		p.Text = strings.Trim(s, " \t\r\n")
		p.Kind = symbols.Equate
	case symbols.Equate:
		// Same equate from an earlier pass.
	default:
		a.setErr(ErrLabelDefined)
	}
}

func (a *Assembler) doIf(s string) {
	if a.ifLevel >= ifNests-1 {
		a.setErr(ErrIfNestLimit)
		return
	}
	a.ifLevel++
	val, _ := a.evalWhole(s)
	if a.eval.Dependant {
		// Condition can't be evaluated yet. Skip the branch and mark it
		// taken so no ELSE clause runs either.
		a.skipLine[a.ifLevel] = true
		a.ifDone[a.ifLevel] = true
		return
	}
	a.skipLine[a.ifLevel] = val == 0 || a.skipLine[a.ifLevel-1]
	a.ifDone[a.ifLevel] = !a.skipLine[a.ifLevel]
}

func (a *Assembler) doIfdef(s string) {
	if a.ifLevel >= ifNests-1 {
		a.setErr(ErrIfNestLimit)
		return
	}
	a.ifLevel++
	word, _ := expr.ScanWord(s, true)
	found := a.syms.Lookup(word, a.scope, a.pass) != nil
	a.skipLine[a.ifLevel] = !found || a.skipLine[a.ifLevel-1]
	a.ifDone[a.ifLevel] = !a.skipLine[a.ifLevel]
}

func (a *Assembler) doIfndef(s string) {
	if a.ifLevel >= ifNests-1 {
		a.setErr(ErrIfNestLimit)
		return
	}
	a.ifLevel++
	word, _ := expr.ScanWord(s, true)
	found := a.syms.Lookup(word, a.scope, a.pass) != nil
	a.skipLine[a.ifLevel] = found || a.skipLine[a.ifLevel-1]
	a.ifDone[a.ifLevel] = !a.skipLine[a.ifLevel]
}

func (a *Assembler) doElseif(s string) {
	if a.ifLevel == 0 {
		a.setErr(ErrExtraELSEIF)
		return
	}
	val, _ := a.evalWhole(s)
	if a.ifDone[a.ifLevel] {
		a.skipLine[a.ifLevel] = true
		return
	}
	if a.eval.Dependant {
		a.skipLine[a.ifLevel] = true
		a.ifDone[a.ifLevel] = true
		return
	}
	a.skipLine[a.ifLevel] = val == 0 || a.skipLine[a.ifLevel-1]
	a.ifDone[a.ifLevel] = !a.skipLine[a.ifLevel]
}

func (a *Assembler) doElse(string) {
	if a.ifLevel == 0 {
		a.setErr(ErrExtraELSE)
		return
	}
	a.skipLine[a.ifLevel] = a.ifDone[a.ifLevel] || a.skipLine[a.ifLevel-1]
	a.ifDone[a.ifLevel] = true
}

func (a *Assembler) doEndif(string) {
	if a.ifLevel == 0 {
		a.setErr(ErrExtraENDIF)
		return
	}
	a.ifLevel--
}

// ORG sets the origin, or pads forward once the origin exists.
func (a *Assembler) doOrg(s string) {
	if a.pc < 0 {
		a.doBase(s)
	} else {
		a.doPad(s)
	}
}

// BASE changes the PC without touching the file.
func (a *Assembler) doBase(s string) {
	val, _ := a.evalWhole(s)
	if !a.eval.Dependant && !a.failed() {
		a.pc = val
	} else {
		a.pc = expr.NoOrigin
	}
}

// PAD emits fill bytes until the PC reaches the target.
func (a *Assembler) doPad(s string) {
	if a.pc < 0 {
		a.setErr(ErrUndefinedPC)
		return
	}
	val, _ := a.evalWhole(s)
	if !a.eval.Dependant {
		a.emitFill(val - a.pc)
	}
}

// ALIGN pads to the next multiple of the operand.
func (a *Assembler) doAlign(s string) {
	if a.pc < 0 {
		a.setErr(ErrUndefinedPC)
		return
	}
	val, _ := a.evalWhole(s)
	if a.eval.Dependant || val <= 0 {
		return
	}
	if rem := a.pc % val; rem != 0 {
		a.emitFill(val - rem)
	}
}

func (a *Assembler) doSeekAbs(s string) {
	dest, _ := a.evalWhole(s)
	if a.eval.Dependant {
		return
	}
	a.seekTo(dest, 0)
}

// SEEKREL moves file position and PC together.
func (a *Assembler) doSeekRel(s string) {
	off, _ := a.evalWhole(s)
	if a.eval.Dependant {
		return
	}
	a.seekTo(a.out.Pos()+off, off)
}

// SKIPREL moves only the file position.
func (a *Assembler) doSkipRel(s string) {
	off, _ := a.evalWhole(s)
	if a.eval.Dependant {
		return
	}
	a.seekTo(a.out.Pos()+off, 0)
}

func (a *Assembler) seekTo(dest, pcDelta int) {
	if a.noOutput {
		a.setErr(ErrCantSeekEnum)
		return
	}
	if dest < 0 {
		a.setErr(ErrSeekOutOfRange)
		return
	}
	if msg := a.out.Seek(dest); msg != "" {
		a.setErr(msg)
		return
	}
	a.pc += pcDelta
}

func (a *Assembler) doInclude(s string) {
	name, _ := a.scanFilename(s)
	if name == "" {
		a.setErr(ErrCantOpen)
		return
	}
	if err := a.processFile(name); err != nil {
		a.setErr(ErrCantOpen)
	}
}

func (a *Assembler) doIncbin(s string) {
	name, rest := a.scanFilename(s)
	data, err := os.ReadFile(name)
	if err != nil {
		a.setErr(ErrCantOpen)
		return
	}
	size := len(data)
	s = rest

	// Optional start offset and length. Unresolved values count as zero
	// until a later pass supplies them.
	seekPos := 0
	s, ok := expr.EatChar(s, ',')
	if ok {
		seekPos, s = a.evalWhole(s)
		if a.eval.Dependant {
			seekPos = 0
		} else if seekPos < 0 || seekPos > size {
			a.setErr(ErrSeekOutOfRange)
			return
		}
	}
	seekSize := size - seekPos
	s, ok = expr.EatChar(s, ',')
	if ok {
		seekSize, _ = a.evalWhole(s)
		if a.eval.Dependant {
			seekSize = 0
		} else if seekSize < 0 || seekSize > size-seekPos {
			a.setErr(ErrBadIncbinSize)
			return
		}
	}
	a.emit(data[seekPos:seekPos+seekSize], output.Data)
}

// INCNES pulls in an existing image: its header merges into ours, the
// payload lands like INCBIN. A companion coverage file, when present,
// restores the code/data tags of the payload.
func (a *Assembler) doIncnes(s string) {
	name, _ := a.scanFilename(s)
	data, err := os.ReadFile(name)
	if err != nil {
		a.setErr(ErrCantOpen)
		return
	}
	if len(data) < ines.HeaderSize {
		a.setErr(ines.ErrInvalidHeader)
		return
	}
	wasArmed := a.header.Armed()
	if msg := a.header.Merge(data[:ines.HeaderSize]); msg != "" {
		a.setErr(msg)
		return
	}
	if !wasArmed {
		a.eval.NeedsPass = true
	}
	payload := data[ines.HeaderSize:]

	tags, err := os.ReadFile(strings.TrimSuffix(name, filepath.Ext(name)) + ".cdl")
	if err != nil || len(tags) == 0 {
		a.emit(payload, output.Data)
		return
	}
	tagAt := func(i int) output.Tag {
		if i >= len(tags) || tags[i] > byte(output.Data) {
			return output.Data
		}
		return output.Tag(tags[i])
	}
	for i := 0; i < len(payload); {
		j := i
		t := tagAt(i)
		for j < len(payload) && tagAt(j) == t {
			j++
		}
		a.emit(payload[i:j], t)
		i = j
	}
}

// CLEARPATCH hides everything accumulated so far from the patch output
// while keeping it around for compare reads.
func (a *Assembler) doClearPatch(string) {
	hunks := a.out.Hunks()
	if hunks == nil {
		return
	}
	if msg := a.out.Flush(); msg != "" {
		a.setErr(msg)
		return
	}
	hunks.SuppressAll()
}

func (a *Assembler) doHex(s string) {
	word, rest := expr.ScanWord(s, false)
	if word == "" {
		a.setErr(expr.ErrMissingOperand)
		return
	}
	for word != "" && !a.failed() {
		var buf []byte
		for i := 0; i < len(word); {
			v := a.hexDigit(word[i])
			i++
			if i < len(word) {
				v = (v << 4) | a.hexDigit(word[i])
				i++
			}
			buf = append(buf, byte(v))
		}
		a.emit(buf, output.Data)
		word, rest = expr.ScanWord(rest, false)
	}
}

func (a *Assembler) hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	a.setErr(expr.ErrNotANumber)
	return 0
}

// DB emits bytes and quoted strings, strings taking an optional offset
// added to every character.
func (a *Assembler) doDB(s string) {
	for {
		s = expr.SkipSpace(s)
		if len(s) > 0 && (s[0] == '"' || s[0] == '\'') {
			quote := s[0]
			var raw []byte
			i := 1
			closed := false
			for i < len(s) {
				if s[i] == '\\' && i+1 < len(s) {
					raw = append(raw, s[i+1])
					i += 2
					continue
				}
				if s[i] == quote {
					closed = true
					i++
					break
				}
				raw = append(raw, s[i])
				i++
			}
			if !closed {
				a.setErr(expr.ErrIncompleteExp)
				return
			}
			s = s[i:]
			off := 0
			if t := expr.SkipSpace(s); len(t) > 0 && (t[0] == '+' || t[0] == '-') {
				off, s = a.evalWhole(t)
				if a.eval.Dependant {
					off = 0
				}
			}
			for k := range raw {
				raw[k] += byte(off)
			}
			a.emit(raw, output.Data)
		} else {
			var val int
			val, s = a.evalWhole(s)
			if !a.eval.Dependant && (val > 255 || val < -128) {
				a.setErr(expr.ErrOutOfRange)
			}
			a.emit([]byte{byte(val)}, output.Data)
		}
		var ok bool
		s, ok = expr.EatChar(s, ',')
		if !ok || a.failed() {
			return
		}
	}
}

func (a *Assembler) doDW(s string) {
	for {
		var val int
		val, s = a.evalWhole(s)
		if !a.eval.Dependant && (val > 65535 || val < -65536) {
			a.setErr(expr.ErrOutOfRange)
		}
		a.emit([]byte{byte(val), byte(val >> 8)}, output.Data)
		var ok bool
		s, ok = expr.EatChar(s, ',')
		if !ok || a.failed() {
			return
		}
	}
}

// DL and DH emit the low or high byte of each word operand.
func (a *Assembler) doDL(s string) {
	a.dataHalf(s, 0)
}

func (a *Assembler) doDH(s string) {
	a.dataHalf(s, 8)
}

func (a *Assembler) dataHalf(s string, shift uint) {
	for {
		var val int
		val, s = a.evalWhole(s)
		if !a.eval.Dependant && (val > 65535 || val < -65536) {
			a.setErr(expr.ErrOutOfRange)
		}
		a.emit([]byte{byte(val >> shift)}, output.Data)
		var ok bool
		s, ok = expr.EatChar(s, ',')
		if !ok || a.failed() {
			return
		}
	}
}

// DSB reserves count bytes of an optional value, default the fill byte.
func (a *Assembler) doDSB(s string) {
	count, s := a.evalWhole(s)
	if !a.eval.Dependant && count < 0 {
		a.setErr(expr.ErrOutOfRange)
		return
	}
	if a.eval.Dependant {
		count = 0
	}
	val := int(a.out.Fill)
	if t, ok := expr.EatChar(s, ','); ok {
		val, _ = a.evalWhole(t)
		if !a.eval.Dependant && (val > 255 || val < -128) {
			a.setErr(expr.ErrOutOfRange)
			return
		}
	}
	buf := make([]byte, count)
	for i := range buf {
		buf[i] = byte(val)
	}
	a.emit(buf, output.Data)
}

// DSW reserves count words.
func (a *Assembler) doDSW(s string) {
	count, s := a.evalWhole(s)
	if !a.eval.Dependant && count < 0 {
		a.setErr(expr.ErrOutOfRange)
		return
	}
	if a.eval.Dependant {
		count = 0
	}
	val := int(a.out.Fill)
	if t, ok := expr.EatChar(s, ','); ok {
		val, _ = a.evalWhole(t)
		if !a.eval.Dependant && (val > 65535 || val < -65536) {
			a.setErr(expr.ErrOutOfRange)
			return
		}
	}
	buf := make([]byte, 2*count)
	for i := 0; i < len(buf); i += 2 {
		buf[i] = byte(val)
		buf[i+1] = byte(val >> 8)
	}
	a.emit(buf, output.Data)
}

func (a *Assembler) doEnum(s string) {
	val, _ := a.evalWhole(s)
	if !a.noOutput {
		a.enumSaved = a.pc
	}
	a.pc = val
	a.noOutput = true
}

func (a *Assembler) doEnde(string) {
	if !a.noOutput {
		a.setErr(ErrExtraENDE)
		return
	}
	a.pc = a.enumSaved
	a.noOutput = false
}

func (a *Assembler) doIgnoreNL(string) {
	a.noNL = true
}

func (a *Assembler) doEndinl(string) {
	if !a.noNL {
		a.setErr(ErrExtraENDINL)
		return
	}
	a.noNL = false
}

func (a *Assembler) doFillValue(s string) {
	val, _ := a.evalWhole(s)
	if !a.eval.Dependant && (val > 255 || val < -128) {
		a.setErr(expr.ErrOutOfRange)
		return
	}
	a.out.Fill = byte(val)
}

func (a *Assembler) doCompare(string) {
	a.out.Compare = true
}

func (a *Assembler) doEndCompare(string) {
	a.out.Compare = false
}

// ERROR raises the user's own message.
func (a *Assembler) doError(s string) {
	msg, _ := a.scanFilename(s)
	a.setErr(msg)
}

func (a *Assembler) doUnstable(string) {
	a.allowUnstable = true
}

func (a *Assembler) doHUnstable(string) {
	a.allowUnstable = true
	a.allowHUnstable = true
}

// Shared path of the header directives. Arming the header for the first
// time shifts every file position by its size, so ask for another pass.
func (a *Assembler) headerSet(s string, set func(int)) {
	val, _ := a.evalWhole(s)
	if a.eval.Dependant {
		return
	}
	if val < 0 {
		a.setErr(expr.ErrOutOfRange)
		return
	}
	wasArmed := a.header.Armed()
	set(val)
	if !wasArmed {
		a.eval.NeedsPass = true
	}
}

func (a *Assembler) doInesPRG(s string) { a.headerSet(s, a.header.SetPRG) }
func (a *Assembler) doInesCHR(s string) { a.headerSet(s, a.header.SetCHR) }
func (a *Assembler) doInesMIR(s string) { a.headerSet(s, a.header.SetMirror) }
func (a *Assembler) doInesMAP(s string) { a.headerSet(s, a.header.SetMapper) }

func (a *Assembler) doNes2CHRRAM(s string)  { a.headerSet(s, a.header.SetCHRRAM) }
func (a *Assembler) doNes2PRGRAM(s string)  { a.headerSet(s, a.header.SetPRGRAM) }
func (a *Assembler) doNes2SUB(s string)     { a.headerSet(s, a.header.SetSub) }
func (a *Assembler) doNes2TV(s string)      { a.headerSet(s, a.header.SetTV) }
func (a *Assembler) doNes2VS(s string)      { a.headerSet(s, a.header.SetVS) }
func (a *Assembler) doNes2BRAM(s string)    { a.headerSet(s, a.header.SetBRAM) }
func (a *Assembler) doNes2CHRBRAM(s string) { a.headerSet(s, a.header.SetCHRBRAM) }
