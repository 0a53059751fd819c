/*
 * N6502 - Symbol map and coverage writers.
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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/rcornwell/N6502/asm/output"
	"github.com/rcornwell/N6502/asm/symbols"
	"github.com/rcornwell/N6502/util/hex"
)

const bankSize = 16 * 1024

// A symbol is exportable when it is a plain global label or value, not an
// anonymous label, and not hidden by IGNORENL.
func exportable(sym *symbols.Symbol) bool {
	if sym.IgnoreNL || sym.Scope != 0 || !sym.Known {
		return false
	}
	if sym.Kind != symbols.Label && sym.Kind != symbols.Value {
		return false
	}
	c := sym.Name[0]
	return c != '+' && c != '-'
}

// WriteFlat emits "name = 0xvalue" lines for every exportable symbol.
func WriteFlat(w io.Writer, syms []*symbols.Symbol) error {
	for _, sym := range syms {
		if !exportable(sym) {
			continue
		}
		_, err := fmt.Fprintf(w, "%s = 0x%s\n", sym.Name, hex.FormatValue(sym.Value))
		if err != nil {
			return errors.Wrap(err, "map write failed")
		}
	}
	return nil
}

// WriteLua emits the same assignments as a Lua chunk for emulator
// scripting, value symbols included.
func WriteLua(w io.Writer, syms []*symbols.Symbol) error {
	for _, sym := range syms {
		if !exportable(sym) {
			continue
		}
		_, err := fmt.Fprintf(w, "%s = 0x%s\n", sym.Name, hex.FormatValue(sym.Value))
		if err != nil {
			return errors.Wrap(err, "lua write failed")
		}
	}
	return nil
}

// WriteBankMaps writes the per bank label files used by FCEUX: one file
// per 16 KiB PRG bank named <base>.N.nl plus <base>.ram.nl for addresses
// below $8000. headerSize shifts file positions when the image carries a
// console header.
func WriteBankMaps(base string, syms []*symbols.Symbol, headerSize int) error {
	banks := map[int][]*symbols.Symbol{}
	var ram []*symbols.Symbol
	for _, sym := range syms {
		if !exportable(sym) || sym.Kind != symbols.Label {
			continue
		}
		if sym.Value < 0x8000 {
			ram = append(ram, sym)
			continue
		}
		bank := (sym.Pos - headerSize) / bankSize
		if bank < 0 {
			bank = 0
		}
		banks[bank] = append(banks[bank], sym)
	}

	write := func(name string, list []*symbols.Symbol) error {
		if len(list) == 0 {
			return nil
		}
		f, err := os.Create(name)
		if err != nil {
			return errors.Wrapf(err, "can't create %s", name)
		}
		defer f.Close()
		var str strings.Builder
		for _, sym := range list {
			str.WriteByte('$')
			hex.FormatAddr(&str, uint16(sym.Value))
			str.WriteByte('#')
			str.WriteString(sym.Name)
			str.WriteString("#\n")
		}
		if _, err := io.WriteString(f, str.String()); err != nil {
			return errors.Wrapf(err, "can't write %s", name)
		}
		return nil
	}

	if err := write(base+".ram.nl", ram); err != nil {
		return err
	}
	for bank, list := range banks {
		if err := write(fmt.Sprintf("%s.%x.nl", base, bank), list); err != nil {
			return err
		}
	}
	return nil
}

// WriteMesen emits the combined .mlb label map. Each line carries an
// address class, the address within that class, the name, and any comment
// recorded at the label's file position.
func WriteMesen(w io.Writer, syms []*symbols.Symbol, comments *Comments, headerSize int) error {
	for _, sym := range syms {
		if !exportable(sym) {
			continue
		}
		var class byte
		addr := sym.Value
		switch {
		case sym.Kind == symbols.Value:
			class = 'G'
		case sym.Value < 0x2000:
			class = 'W'
		case sym.Value < 0x6000:
			class = 'R'
		case sym.Value < 0x8000:
			class = 'S'
			addr = sym.Value - 0x6000
		default:
			class = 'P'
			addr = sym.Pos - headerSize
		}
		line := fmt.Sprintf("%c:%x:%s", class, addr, sym.Name)
		if comments != nil {
			if text := comments.At(sym.Pos); text != "" {
				line += ":" + strings.TrimRight(text, "\n")
			}
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return errors.Wrap(err, "map write failed")
		}
	}
	return nil
}

// WriteCoverage emits the byte per byte code/data map, skipping the
// console header when one leads the file.
func WriteCoverage(w io.Writer, cov []output.Tag, headerSize int) error {
	buf := make([]byte, 0, len(cov))
	for i, tag := range cov {
		if i < headerSize {
			continue
		}
		buf = append(buf, byte(tag))
	}
	if _, err := w.Write(buf); err != nil {
		return errors.Wrap(err, "coverage write failed")
	}
	return nil
}
