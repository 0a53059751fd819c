/*
 * N6502 - Assembler symbol table.
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

import "strings"

// Symbol kinds.
type Kind int

const (
	Label  Kind = iota + 1 // Known address.
	Value                  // Defined with '='.
	Equate                 // Textual substitution made with EQU.
	Macro                  // Macro body.
)

type Symbol struct {
	Name     string
	Value    int      // Address for labels, value for '=' symbols.
	Pos      int      // Output file position at definition, for bank derivation.
	Known    bool     // Value is valid this pass. False marks an unresolved label.
	Text     string   // Equate body.
	Body     []string // Macro body. The first Params lines are parameter names.
	Params   int
	Kind     Kind
	Used     bool // Re-entry guard for equate and macro expansion.
	Pass     int  // Pass in which last defined.
	Scope    int  // 0 is global, nonzero is private to a scope block.
	IgnoreNL bool // Suppress from symbol export files.

	link *Symbol // Next symbol with the same name but different scope.
}

// Table keeps symbols in a densely packed array sorted by name. The array
// starts from the center and grows outward so inserts can shift whichever
// side is shorter. Symbols sharing a name chain off the first entry, newest
// first.
type Table struct {
	list  []*Symbol
	start int // Index of first symbol.
	end   int // Index past last symbol.

	// Search position retained by the last lookup so a following insert
	// does not have to search again.
	lastName  string
	lastIndex int
	lastFound bool
}

const initListSize = 128

func NewTable() *Table {
	t := &Table{list: make([]*Symbol, initListSize)}
	t.start = initListSize / 2
	t.end = t.start
	return t
}

func (t *Table) Len() int {
	n := 0
	for i := t.start; i < t.end; i++ {
		for p := t.list[i]; p != nil; p = p.link {
			n++
		}
	}
	return n
}

// Binary search for name. Returns the slot holding it, or the slot where
// it should be inserted and false.
func (t *Table) search(name string) (int, bool) {
	head := t.start
	tail := t.end - 1
	for head <= tail {
		mid := (head + tail) / 2
		cmp := strings.Compare(name, t.list[mid].Name)
		switch {
		case cmp == 0:
			return mid, true
		case cmp < 0:
			tail = mid - 1
		default:
			head = mid + 1
		}
	}
	return head, false
}

// Find the chain head for name, remembering the slot for a later Add.
func (t *Table) chain(name string) *Symbol {
	i, found := t.search(name)
	t.lastName = name
	t.lastIndex = i
	t.lastFound = found
	if !found {
		return nil
	}
	return t.list[i]
}

// Lookup resolves name at the given scope and pass.
//
// Names beginning with '+' resolve to the entry for the next definition
// ahead of the current point: chains are kept newest first, so that is the
// last entry not yet redefined this pass. All other names resolve to the
// first entry whose scope matches, else a global entry if one exists.
func (t *Table) Lookup(name string, scope int, pass int) *Symbol {
	p := t.chain(name)
	if p == nil {
		return nil
	}
	if name[0] == '+' {
		var ahead *Symbol
		for ; p != nil; p = p.link {
			if p.Pass != pass {
				ahead = p
			}
		}
		return ahead
	}
	var global *Symbol
	for ; p != nil; p = p.link {
		if p.Scope == scope {
			return p
		}
		if p.Scope == 0 && global == nil {
			global = p
		}
	}
	return global
}

// Add inserts a fresh symbol for name. If the name already exists the new
// entry is pushed onto the front of its chain, shadowing older scopes.
func (t *Table) Add(name string, scope int) *Symbol {
	sym := &Symbol{Name: name, Scope: scope}
	i, found := t.lastIndex, t.lastFound
	if t.lastName != name {
		i, found = t.search(name)
	}
	t.lastName = ""
	if found {
		sym.link = t.list[i]
		t.list[i] = sym
		return sym
	}
	t.insertAt(i, sym)
	return sym
}

func (t *Table) insertAt(i int, sym *Symbol) {
	if t.start == 0 || t.end == len(t.list) {
		t.grow()
		i, _ = t.search(sym.Name)
	}
	// Shift the shorter side.
	if i-t.start < t.end-i {
		copy(t.list[t.start-1:i-1], t.list[t.start:i])
		t.start--
		i--
	} else {
		copy(t.list[i+1:t.end+1], t.list[i:t.end])
		t.end++
	}
	t.list[i] = sym
}

// Double the backing array and recenter the packed region.
func (t *Table) grow() {
	size := len(t.list) * 2
	fresh := make([]*Symbol, size)
	count := t.end - t.start
	newStart := (size - count) / 2
	copy(fresh[newStart:newStart+count], t.list[t.start:t.end])
	t.list = fresh
	t.start = newStart
	t.end = newStart + count
}

// All returns every symbol, chains included, in name order. Chain entries
// come newest first the way lookups see them.
func (t *Table) All() []*Symbol {
	var out []*Symbol
	for i := t.start; i < t.end; i++ {
		for p := t.list[i]; p != nil; p = p.link {
			out = append(out, p)
		}
	}
	return out
}
