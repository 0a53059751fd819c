/*
 * N6502 - Listing and export tests.
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

package listing

import (
	"strings"
	"testing"

	"github.com/rcornwell/N6502/asm/symbols"
)

func TestListingLines(t *testing.T) {
	var l Listing
	l.Line(0x8000, "\tlda #$10")
	l.Emit([]byte{0xa9, 0x10})
	l.Line(0x8002, "\trts")
	l.Emit([]byte{0x60})
	l.Error("Something broke.")

	var buf strings.Builder
	if err := l.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "$8000 A9 10") {
		t.Errorf("first line missing address or bytes:\n%s", out)
	}
	if !strings.Contains(out, "*** Something broke.") {
		t.Errorf("diagnostic missing:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("got %d lines, want 3", len(lines))
	}
}

// Comment records at the same position join with a newline.
func TestCommentJoin(t *testing.T) {
	var c Comments
	c.Add(0x10, "first")
	c.Add(0x10, "second")
	c.Add(0x20, "third")
	if got := c.At(0x10); got != "first\nsecond" {
		t.Errorf("joined comment = %q", got)
	}
	if got := c.Positions(); len(got) != 2 || got[0] != 0x10 || got[1] != 0x20 {
		t.Errorf("positions = %v", got)
	}
}

func testSymbols() []*symbols.Symbol {
	return []*symbols.Symbol{
		{Name: "reset", Value: 0xc000, Pos: 0x4010, Kind: symbols.Label, Known: true},
		{Name: "buffer", Value: 0x0300, Kind: symbols.Label, Known: true},
		{Name: "PPUCTRL", Value: 0x2000, Kind: symbols.Label, Known: true},
		{Name: "save", Value: 0x6100, Kind: symbols.Label, Known: true},
		{Name: "SIZE", Value: 0x10, Kind: symbols.Value, Known: true},
		{Name: "@local", Value: 0x10, Kind: symbols.Label, Known: true, Scope: 3},
		{Name: "hidden", Value: 0x11, Kind: symbols.Label, Known: true, IgnoreNL: true},
		{Name: "+", Value: 0x12, Kind: symbols.Label, Known: true},
	}
}

func TestWriteFlatFilters(t *testing.T) {
	var buf strings.Builder
	if err := WriteFlat(&buf, testSymbols()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"reset = 0xc000\n", "SIZE = 0x10\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("flat map missing %q:\n%s", want, out)
		}
	}
	for _, bad := range []string{"@local", "hidden", "+"} {
		if strings.Contains(out, bad) {
			t.Errorf("flat map leaked %q:\n%s", bad, out)
		}
	}
}

func TestWriteMesenClasses(t *testing.T) {
	var c Comments
	c.Add(0x4010, "entry point")
	var buf strings.Builder
	if err := WriteMesen(&buf, testSymbols(), &c, 16); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"P:4000:reset:entry point\n",
		"W:300:buffer\n",
		"R:2000:PPUCTRL\n",
		"S:100:save\n",
		"G:10:SIZE\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("mesen map missing %q:\n%s", want, out)
		}
	}
}
