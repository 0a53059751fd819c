/*
 * N6502 - Instruction encoding.
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

	"github.com/rcornwell/N6502/asm/expr"
	"github.com/rcornwell/N6502/asm/opcodes"
	"github.com/rcornwell/N6502/asm/output"
)

// Consume c case insensitively, so ",x" and ",X" both index.
func eatCharFold(s string, c byte) (string, bool) {
	s = expr.SkipSpace(s)
	if len(s) > 0 && upperByte(s[0]) == upperByte(c) {
		return s[1:], true
	}
	return s, false
}

func upperByte(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// doOpcode tries the addressing mode candidates of one mnemonic in table
// order and emits the first that fits. A candidate fits when its leading
// marker, operand and trailing marker all parse and the rest of the line
// is blank. An eight bit candidate whose operand is still unresolved is
// passed over (immediate excepted) so the instruction can not shrink on a
// later pass and shuffle every addresss behind it.
func (a *Assembler) doOpcode(res reserved, s string) {
	switch {
	case res.stability == opcodes.Unstable && !a.allowUnstable:
		a.fatal = fmt.Sprintf(
			"Unstable instruction %q used without calling UNSTABLE directive!", res.name)
		return
	case res.stability == opcodes.HighlyUnstable && !a.allowHUnstable:
		a.fatal = fmt.Sprintf(
			"Highly unstable instruction %q used without calling HUNSTABLE directive!", res.name)
		return
	}

	savedNeeds := a.eval.NeedsPass
	for _, cand := range res.opcode {
		a.eval.NeedsPass = savedNeeds
		a.eval.Dependant = false
		a.errmsg = ""
		a.eval.Err = ""

		mode := cand.Mode
		size := opcodes.Size[mode]
		t := s
		val := 0

		if h := opcodes.Head[mode]; h != 0 {
			var ok bool
			t, ok = eatCharFold(t, h)
			if !ok {
				continue
			}
		}
		if size > 0 {
			val, t = a.eval.Eval(t, expr.WholeExp)
			if a.eval.Err == expr.ErrMissingOperand {
				// No operand at all. Let a shorter form have the line.
				continue
			}
		}

		switch {
		case mode == opcodes.Rel:
			if !a.eval.Dependant {
				val -= a.pc + 2
				if val > 127 || val < -128 {
					// One more chance to resolve closer.
					a.eval.NeedsPass = true
					if a.lastChance {
						// Emit the two bytes anyway so every later
						// address stays put.
						a.setErr(ErrBranchRange)
					}
				}
			}
		case size == 1:
			if !a.eval.Dependant {
				if val > 255 || val < -128 {
					continue
				}
			} else if mode != opcodes.Imm {
				// Not resolved yet: hold out for the wide encoding.
				continue
			}
		case size == 2:
			if !a.eval.Dependant && (val > 0xffff || val < -0x10000) {
				a.setErr(expr.ErrOutOfRange)
			}
		}

		tail := opcodes.Tail[mode]
		okTail := true
		for i := 0; i < len(tail) && okTail; i++ {
			t, okTail = eatCharFold(t, tail[i])
		}
		if !okTail {
			continue
		}
		if expr.SkipSpace(t) != "" {
			continue
		}

		inst := make([]byte, 1, 3)
		inst[0] = cand.Code
		if size >= 1 {
			inst = append(inst, byte(val))
		}
		if size >= 2 {
			inst = append(inst, byte(val>>8))
		}
		a.emit(inst, output.Code)
		return
	}
	if !a.failed() {
		a.setErr(ErrIllegal)
	}
}
