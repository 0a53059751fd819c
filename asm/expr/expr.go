/*
 * N6502 - Integer expression evaluator.
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

package expr

import (
	"strconv"
	"strings"
)

// PC value before the first ORG. PAD and ALIGN report an undefined PC while
// the PC is negative.
const NoOrigin = -0x40000000

// Error messages shared with the directive handlers.
const (
	ErrOutOfRange     = "Value out of range."
	ErrNotANumber     = "Not a number."
	ErrUnknownLabel   = "Unknown label."
	ErrIncompleteExp  = "Incomplete expression."
	ErrMissingOperand = "Missing operand."
	ErrDivZero        = "Divide by zero."
	ErrMacroInExp     = "Can't use macro in expression."
)

// How a symbol reference resolved.
type RefKind int

const (
	RefMissing RefKind = iota // No such symbol.
	RefValue                  // Address label or '=' symbol.
	RefMacro
	RefOther // Equate or anything else unusable here.
)

type Resolution struct {
	Value int
	Known bool // Value valid this pass.
	Kind  RefKind
}

// Resolver supplies symbol values and the current PC.
type Resolver interface {
	Resolve(name string) Resolution
	PC() int
}

// Precedence levels, lowest binds last.
const (
	WholeExp = iota
	OrOrP
	AndAndP
	OrP
	XorP
	AndP
	EqCompare
	Compare
	Shift
	PlusMinus
	MulDiv
	Unary
)

// Binary operators.
const (
	opNone = iota
	opEqual
	opNotEqual
	opGreater
	opGreaterEq
	opLess
	opLessEq
	opPlus
	opMinus
	opMul
	opDiv
	opMod
	opAnd
	opXor
	opOr
	opAndAnd
	opOrOr
	opLeftShift
	opRightShift
)

// Precedence of each operator.
var prec = [...]int{
	opNone:       WholeExp,
	opEqual:      EqCompare,
	opNotEqual:   EqCompare,
	opGreater:    Compare,
	opGreaterEq:  Compare,
	opLess:       Compare,
	opLessEq:     Compare,
	opPlus:       PlusMinus,
	opMinus:      PlusMinus,
	opMul:        MulDiv,
	opDiv:        MulDiv,
	opMod:        MulDiv,
	opAnd:        AndP,
	opXor:        XorP,
	opOr:         OrP,
	opAndAnd:     AndAndP,
	opOrOr:       OrOrP,
	opLeftShift:  Shift,
	opRightShift: Shift,
}

// ':' counts as whitespace so trailing label colons vanish early.
const whitesp = " \t\r\n:"

// Characters that end a word when scanning expressions.
const mathy = "!^&|+-*/%()<>=,"

// Evaluator carries the out of band state of one assembly pass.
// Dependant marks the last expression as referencing a symbol that has no
// value yet; NeedsPass asks the driver for another pass. Err is the first
// diagnostic raised, empty when the expression was clean.
type Evaluator struct {
	Syms       Resolver
	LastChance bool
	Dependant  bool
	NeedsPass  bool
	Err        string
}

func (e *Evaluator) setErr(msg string) {
	if e.Err == "" {
		e.Err = msg
	}
}

// SkipSpace removes leading whitespace, ':' included.
func SkipSpace(s string) string {
	return strings.TrimLeft(s, whitesp)
}

// ScanWord copies the next word and returns it with the remainder.
// With mcheck the word is cropped at the first operator character that
// follows leading operator characters, so "+name" and "--" survive while
// "a+b" yields "a". A ':' directly after the word is swallowed.
func ScanWord(s string, mcheck bool) (string, string) {
	s = SkipSpace(s)
	i := strings.IndexAny(s, whitesp)
	if i < 0 {
		i = len(s)
	}
	word := s[:i]
	if mcheck {
		j := 0
		for j < len(word) && strings.IndexByte(mathy, word[j]) >= 0 {
			j++
		}
		for k := j; k < len(word); k++ {
			if strings.IndexByte(mathy, word[k]) >= 0 {
				word = word[:k]
				break
			}
		}
	}
	rest := s[len(word):]
	if len(rest) > 0 && rest[0] == ':' {
		rest = rest[1:]
	}
	return word, rest
}

// EatChar consumes c if it is the next nonblank character.
func EatChar(s string, c byte) (string, bool) {
	s = SkipSpace(s)
	if len(s) > 0 && s[0] == c {
		return s[1:], true
	}
	return s, false
}

func hexify(e *Evaluator, c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		e.setErr(ErrNotANumber)
		return 0
	}
}

func (e *Evaluator) hexWord(word string) int {
	ret := 0
	for i := range len(word) {
		ret = (ret << 4) | hexify(e, word[i])
	}
	if len(word) > 8 {
		e.setErr(ErrOutOfRange)
	}
	return ret
}

func (e *Evaluator) binWord(word string) int {
	ret := 0
	for i := range len(word) {
		d := int(word[i] - '0')
		if d > 1 {
			e.setErr(ErrNotANumber)
		}
		ret = (ret << 1) | d
	}
	if len(word) > 32 {
		e.setErr(ErrOutOfRange)
	}
	return ret
}

func isDigits(word string) bool {
	for i := range len(word) {
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	return true
}

// Decode one value: a literal, a character, the bare '$' PC, or a symbol
// reference. Unknown symbols yield 0 and raise the dependant flags.
func (e *Evaluator) getValue(s string) (int, string) {
	word, rest := ScanWord(s, true)
	if word == "" {
		e.setErr(ErrMissingOperand)
		return 0, rest
	}

	switch {
	case word[0] == '$':
		if len(word) == 1 {
			return e.Syms.PC(), rest
		}
		return e.hexWord(word[1:]), rest

	case word[0] == '%':
		return e.binWord(word[1:]), rest

	case word[0] == '\'' || word[0] == '"':
		quote := word[0]
		w := word[1:]
		if len(w) > 0 && w[0] == '\\' {
			w = w[1:]
		}
		if len(w) < 2 || w[1] != quote {
			e.setErr(ErrNotANumber)
		}
		if len(w) == 0 {
			return 0, rest
		}
		return int(w[0]), rest

	case word[0] >= '0' && word[0] <= '9':
		if isDigits(word) {
			v, err := strconv.Atoi(word)
			if err != nil {
				e.setErr(ErrOutOfRange)
			}
			return v, rest
		}
		switch word[len(word)-1] {
		case 'b', 'B':
			return e.binWord(word[:len(word)-1]), rest
		case 'h', 'H':
			return e.hexWord(word[:len(word)-1]), rest
		}
		e.setErr(ErrNotANumber)
		return 0, rest
	}

	res := e.Syms.Resolve(word)
	switch res.Kind {
	case RefMissing:
		// Doesn't exist, yet. Only certain failure on the last pass.
		e.Dependant = true
		e.NeedsPass = true
		if e.LastChance {
			e.setErr(ErrUnknownLabel)
		}
		return 0, rest
	case RefValue:
		if !res.Known {
			e.Dependant = true
			e.NeedsPass = true
		}
		return res.Value, rest
	case RefMacro:
		e.setErr(ErrMacroInExp)
		return 0, rest
	default:
		e.setErr(ErrUnknownLabel)
		return 0, rest
	}
}

// Scan one binary operator. Unrecognized input consumes nothing.
func getOperator(s string) (int, string) {
	s = SkipSpace(s)
	if s == "" {
		return opNone, s
	}
	c, r := s[0], s[1:]
	next := byte(0)
	if len(r) > 0 {
		next = r[0]
	}
	switch c {
	case '&':
		if next == '&' {
			return opAndAnd, r[1:]
		}
		return opAnd, r
	case '|':
		if next == '|' {
			return opOrOr, r[1:]
		}
		return opOr, r
	case '^':
		return opXor, r
	case '+':
		return opPlus, r
	case '-':
		return opMinus, r
	case '*':
		return opMul, r
	case '%':
		return opMod, r
	case '/':
		return opDiv, r
	case '=':
		if next == '=' {
			return opEqual, r[1:]
		}
		return opEqual, r
	case '>':
		switch next {
		case '=':
			return opGreaterEq, r[1:]
		case '>':
			return opRightShift, r[1:]
		}
		return opGreater, r
	case '<':
		switch next {
		case '=':
			return opLessEq, r[1:]
		case '>':
			return opNotEqual, r[1:]
		case '<':
			return opLeftShift, r[1:]
		}
		return opLess, r
	case '!':
		if next == '=' {
			return opNotEqual, r[1:]
		}
	}
	return opNone, s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Eval parses an expression at the given precedence level and returns its
// value with the unparsed remainder. Operands that reference unresolved
// symbols make the whole result 0 with Dependant set; callers defer their
// range checks until a pass where the value is real.
func (e *Evaluator) Eval(s string, precedence int) (int, string) {
	var ret int

	s = SkipSpace(s)
	unary := byte(0)
	if len(s) > 0 {
		unary = s[0]
	}
	switch unary {
	case '(':
		ret, s = e.Eval(s[1:], WholeExp)
		s = SkipSpace(s)
		if len(s) > 0 && s[0] == ')' {
			s = s[1:]
		} else {
			e.setErr(ErrIncompleteExp)
		}
	case '#':
		ret, s = e.Eval(s[1:], WholeExp)
	case '~':
		ret, s = e.Eval(s[1:], Unary)
		ret = ^ret
	case '!':
		ret, s = e.Eval(s[1:], Unary)
		ret = boolInt(ret == 0)
	case '<':
		ret, s = e.Eval(s[1:], Unary)
		ret &= 0xff
	case '>':
		ret, s = e.Eval(s[1:], Unary)
		ret = (ret >> 8) & 0xff
	case '+', '-':
		// Might be a +label or -label. Try that parse first and fall
		// back to the unary operator, keeping the pass flags clean
		// around the speculative attempt.
		savedDep := e.Dependant
		savedNeeds := e.NeedsPass
		e.Dependant = false
		val, rest := e.getValue(s)
		if e.Err == ErrUnknownLabel {
			e.Err = ""
		}
		consumed := len(SkipSpace(s)) - len(rest)
		if !e.Dependant || consumed == 1 {
			// Found a label, or a bare run of signs.
			ret = val
			s = rest
			e.Dependant = e.Dependant || savedDep
		} else {
			// Not a label after all.
			e.Dependant = savedDep
			e.NeedsPass = savedNeeds
			ret, s = e.Eval(s[1:], Unary)
			if unary == '-' {
				ret = -ret
			}
		}
	default:
		ret, s = e.getValue(s)
	}

	for {
		mark := s
		op, rest := getOperator(s)
		if precedence >= prec[op] {
			return ret, mark
		}
		var val2 int
		val2, s = e.Eval(rest, prec[op])
		if e.Dependant {
			ret = 0
		} else {
			switch op {
			case opAnd:
				ret &= val2
			case opAndAnd:
				ret = boolInt(ret != 0 && val2 != 0)
			case opOr:
				ret |= val2
			case opOrOr:
				ret = boolInt(ret != 0 || val2 != 0)
			case opXor:
				ret ^= val2
			case opPlus:
				ret += val2
			case opMinus:
				ret -= val2
			case opMul:
				ret *= val2
			case opDiv:
				if val2 == 0 {
					e.setErr(ErrDivZero)
				} else {
					ret /= val2
				}
			case opMod:
				if val2 == 0 {
					e.setErr(ErrDivZero)
				} else {
					ret %= val2
				}
			case opEqual:
				ret = boolInt(ret == val2)
			case opNotEqual:
				ret = boolInt(ret != val2)
			case opGreater:
				ret = boolInt(ret > val2)
			case opGreaterEq:
				ret = boolInt(ret >= val2)
			case opLess:
				ret = boolInt(ret < val2)
			case opLessEq:
				ret = boolInt(ret <= val2)
			case opLeftShift:
				if val2 >= 0 && val2 < 32 {
					ret <<= uint(val2)
				} else {
					ret = 0
				}
			case opRightShift:
				if val2 >= 0 {
					ret >>= uint(min(val2, 63))
				} else {
					ret = 0
				}
			}
		}
		if e.Err != "" {
			return ret, s
		}
	}
}
