/*
 * N6502 - Symbol table tests.
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

package symbols

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddLookup(t *testing.T) {
	tab := NewTable()
	for i, name := range []string{"delta", "alpha", "echo", "bravo", "charlie"} {
		sym := tab.Add(name, 0)
		sym.Value = i
		sym.Known = true
	}
	if tab.Len() != 5 {
		t.Errorf("Len = %d, want 5", tab.Len())
	}
	for i, name := range []string{"delta", "alpha", "echo", "bravo", "charlie"} {
		sym := tab.Lookup(name, 1, 1)
		if sym == nil {
			t.Fatalf("Lookup(%q) came up empty", name)
		}
		if sym.Value != i {
			t.Errorf("Lookup(%q).Value = %d, want %d", name, sym.Value, i)
		}
	}
	if tab.Lookup("zulu", 1, 1) != nil {
		t.Error("Lookup of missing name returned a symbol")
	}
}

// Sorted order must survive a lot of inserts forcing grow and recenter.
func TestGrow(t *testing.T) {
	tab := NewTable()
	for i := range 1000 {
		tab.Add(fmt.Sprintf("sym%04d", i), 0)
	}
	if tab.Len() != 1000 {
		t.Fatalf("Len = %d, want 1000", tab.Len())
	}
	all := tab.All()
	var names []string
	for _, sym := range all {
		names = append(names, sym.Name)
	}
	var want []string
	for i := range 1000 {
		want = append(want, fmt.Sprintf("sym%04d", i))
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("All() order mismatch (-want +got):\n%s", diff)
	}
	for i := range 1000 {
		if tab.Lookup(fmt.Sprintf("sym%04d", i), 1, 1) == nil {
			t.Fatalf("lost sym%04d after grow", i)
		}
	}
}

// A local entry shadows the global of the same name in its own scope;
// other scopes still see the global.
func TestScopeShadowing(t *testing.T) {
	tab := NewTable()
	global := tab.Add("name", 0)
	global.Value = 1
	local := tab.Add("name", 5)
	local.Value = 2

	if got := tab.Lookup("name", 5, 1); got != local {
		t.Error("scope 5 should see its own entry")
	}
	if got := tab.Lookup("name", 7, 1); got != global {
		t.Error("other scopes should fall back to the global")
	}
	if got := tab.Lookup("name", 0, 1); got != global {
		t.Error("global scope should see the global")
	}
}

// Forward labels resolve to the entry not yet redefined on this pass,
// nearest first.
func TestForwardChain(t *testing.T) {
	tab := NewTable()
	// Pass 1 defined three +lp labels in source order.
	for i, val := range []int{0x8000, 0x8100, 0x8200} {
		sym := tab.Add("+lp", 0)
		sym.Kind = Label
		sym.Pass = 1
		sym.Value = val
		sym.Known = true
		_ = i
	}

	// Pass 2, before any redefinition: the nearest is the first defined.
	sym := tab.Lookup("+lp", 1, 2)
	if sym == nil || sym.Value != 0x8000 {
		t.Fatalf("first forward lookup = %v, want 0x8000", sym)
	}
	// Claim it, as a redefinition at the same spot would.
	sym.Pass = 2

	sym = tab.Lookup("+lp", 1, 2)
	if sym == nil || sym.Value != 0x8100 {
		t.Fatalf("second forward lookup = %v, want 0x8100", sym)
	}
	sym.Pass = 2

	sym = tab.Lookup("+lp", 1, 2)
	if sym == nil || sym.Value != 0x8200 {
		t.Fatalf("third forward lookup = %v, want 0x8200", sym)
	}
	sym.Pass = 2

	if tab.Lookup("+lp", 1, 2) != nil {
		t.Error("all entries claimed, lookup should come up empty")
	}
}
