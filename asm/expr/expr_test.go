/*
 * N6502 - Expression evaluator tests.
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

import "testing"

// Test resolver with a fixed symbol set.
type testSyms struct {
	vals    map[string]int
	pending map[string]bool
	pc      int
}

func (t *testSyms) Resolve(name string) Resolution {
	if t.pending[name] {
		return Resolution{Kind: RefValue, Known: false}
	}
	v, ok := t.vals[name]
	if !ok {
		return Resolution{Kind: RefMissing}
	}
	return Resolution{Value: v, Known: true, Kind: RefValue}
}

func (t *testSyms) PC() int {
	return t.pc
}

func newEval() (*Evaluator, *testSyms) {
	syms := &testSyms{
		vals:    map[string]int{"ten": 10, "big": 0x1234, "zp": 0x10},
		pending: map[string]bool{},
		pc:      0x8000,
	}
	return &Evaluator{Syms: syms}, syms
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"10", 10},
		{"$10", 16},
		{"$BEEF", 0xbeef},
		{"%1010", 10},
		{"0ah", 10},
		{"0AH", 10},
		{"101b", 5},
		{"'A'", 65},
		{"\"A\"", 65},
		{"$", 0x8000},
	}
	for _, test := range tests {
		ev, _ := newEval()
		got, _ := ev.Eval(test.in, WholeExp)
		if ev.Err != "" {
			t.Errorf("Eval(%q) error: %s", test.in, ev.Err)
		}
		if got != test.want {
			t.Errorf("Eval(%q) = %d, want %d", test.in, got, test.want)
		}
	}
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1+2*3", 7},
		{"2*3+1", 7},
		{"1<<2|1", 5},
		{"1|1<<2", 5},
		{"(1+2)*3", 9},
		{"10/2-1", 4},
		{"10%4", 2},
		{"1+2==3", 1},
		{"1+2!=3", 0},
		{"2<3", 1},
		{"3<=3", 1},
		{"4>5", 0},
		{"5>=5", 1},
		{"1&&0", 0},
		{"1||0", 1},
		{"0||0", 0},
		{"6&3", 2},
		{"6^3", 5},
		{"6|3", 7},
		{"1&&1|0", 1},
		{"~0&$ff", 0xff},
		{"!5", 0},
		{"!0", 1},
		{"-3+5", 2},
		{"+7", 7},
		{"<$1234", 0x34},
		{">$1234", 0x12},
		{"#$12", 0x12},
		{"2*ten", 20},
		{"-ten", -10},
	}
	for _, test := range tests {
		ev, _ := newEval()
		got, _ := ev.Eval(test.in, WholeExp)
		if ev.Err != "" {
			t.Errorf("Eval(%q) error: %s", test.in, ev.Err)
		}
		if got != test.want {
			t.Errorf("Eval(%q) = %d, want %d", test.in, got, test.want)
		}
	}
}

func TestDivideByZero(t *testing.T) {
	for _, in := range []string{"1/0", "1%0"} {
		ev, _ := newEval()
		ev.Eval(in, WholeExp)
		if ev.Err != ErrDivZero {
			t.Errorf("Eval(%q) error = %q, want %q", in, ev.Err, ErrDivZero)
		}
	}
}

func TestBadNumbers(t *testing.T) {
	tests := []struct {
		in  string
		err string
	}{
		{"%102", ErrNotANumber},
		{"12x", ErrNotANumber},
		{"$123456789", ErrOutOfRange},
		{"", ErrMissingOperand},
		{"(1+2", ErrIncompleteExp},
	}
	for _, test := range tests {
		ev, _ := newEval()
		ev.Eval(test.in, WholeExp)
		if ev.Err != test.err {
			t.Errorf("Eval(%q) error = %q, want %q", test.in, ev.Err, test.err)
		}
	}
}

func TestUnknownSymbol(t *testing.T) {
	ev, _ := newEval()
	got, _ := ev.Eval("nosuch+5", WholeExp)
	if got != 0 {
		t.Errorf("unresolved expression = %d, want 0", got)
	}
	if !ev.Dependant || !ev.NeedsPass {
		t.Error("unresolved reference should set dependant and needs-pass")
	}
	if ev.Err != "" {
		t.Errorf("unexpected error before the last pass: %s", ev.Err)
	}

	ev, _ = newEval()
	ev.LastChance = true
	ev.Eval("nosuch", WholeExp)
	if ev.Err != ErrUnknownLabel {
		t.Errorf("last chance error = %q, want %q", ev.Err, ErrUnknownLabel)
	}
}

func TestPendingSymbol(t *testing.T) {
	ev, syms := newEval()
	syms.pending["soon"] = true
	got, _ := ev.Eval("soon*2", WholeExp)
	if got != 0 {
		t.Errorf("pending expression = %d, want 0", got)
	}
	if !ev.Dependant || !ev.NeedsPass {
		t.Error("pending reference should set dependant and needs-pass")
	}
}

// A leading sign tries to resolve a whole +name or -name label first and
// only then falls back to the unary operator.
func TestSignedLabelFallback(t *testing.T) {
	ev, syms := newEval()
	syms.vals["+"] = 0x9000
	got, _ := ev.Eval("+", WholeExp)
	if got != 0x9000 || ev.Err != "" {
		t.Errorf("Eval(\"+\") = %d err %q, want anonymous label value", got, ev.Err)
	}

	ev, syms = newEval()
	syms.vals["-skip"] = 0x1234
	got, _ = ev.Eval("-skip", WholeExp)
	if got != 0x1234 {
		t.Errorf("Eval(\"-skip\") = %#x, want backward label value", got)
	}

	// Not a label: must restore the pass flags and negate.
	ev, _ = newEval()
	got, _ = ev.Eval("-ten*2", WholeExp)
	if got != -20 {
		t.Errorf("Eval(\"-ten*2\") = %d, want -20", got)
	}
	if ev.Dependant || ev.NeedsPass {
		t.Error("speculative parse leaked pass flags")
	}
}

func TestScanWord(t *testing.T) {
	tests := []struct {
		in     string
		mcheck bool
		word   string
		rest   string
	}{
		{"  lda #$10", true, "lda", " #$10"},
		{"label: rts", true, "label", " rts"},
		{"a+b", true, "a", "+b"},
		{"+name", true, "+name", ""},
		{"++", true, "++", ""},
		{"name.ext more", false, "name.ext", " more"},
	}
	for _, test := range tests {
		word, rest := ScanWord(test.in, test.mcheck)
		if word != test.word || rest != test.rest {
			t.Errorf("ScanWord(%q) = %q,%q want %q,%q",
				test.in, word, rest, test.word, test.rest)
		}
	}
}
