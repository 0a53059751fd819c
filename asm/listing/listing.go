/*
 * N6502 - Listing file and comment records.
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
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/rcornwell/N6502/util/hex"
)

// How many emitted bytes one listing line shows before eliding.
const lineBytes = 16

type listLine struct {
	addr  int
	text  string
	bytes []byte
	errs  []string
}

// Listing collects one pass worth of annotated source. Each pass resets
// it, so after the run it holds the final pass only.
type Listing struct {
	lines []listLine
	open  bool
}

func (l *Listing) Reset() {
	l.lines = l.lines[:0]
	l.open = false
}

// Line starts a new listing line at the given PC.
func (l *Listing) Line(addr int, text string) {
	l.lines = append(l.lines, listLine{addr: addr, text: text})
	l.open = true
}

// Emit attaches output bytes to the current line.
func (l *Listing) Emit(data []byte) {
	if !l.open {
		return
	}
	cur := &l.lines[len(l.lines)-1]
	room := lineBytes - len(cur.bytes)
	if room > 0 {
		cur.bytes = append(cur.bytes, data[:min(room, len(data))]...)
	}
}

// Error attaches a diagnostic to the current line.
func (l *Listing) Error(msg string) {
	if !l.open {
		return
	}
	cur := &l.lines[len(l.lines)-1]
	cur.errs = append(cur.errs, msg)
}

// WriteTo emits the listing: address, up to sixteen output bytes, source
// text, with diagnostics under the line that raised them.
func (l *Listing) WriteTo(w io.Writer) error {
	var str strings.Builder
	for _, line := range l.lines {
		str.Reset()
		if line.addr >= 0 && line.addr <= 0xffff {
			str.WriteByte('$')
			hex.FormatAddr(&str, uint16(line.addr))
		} else {
			str.WriteString("     ")
		}
		str.WriteByte(' ')
		hex.FormatBytes(&str, true, line.bytes)
		for i := len(line.bytes); i < 8; i++ {
			str.WriteString("   ")
		}
		str.WriteByte('\t')
		str.WriteString(line.text)
		str.WriteByte('\n')
		for _, msg := range line.errs {
			str.WriteString("\t\t*** ")
			str.WriteString(msg)
			str.WriteByte('\n')
		}
		if _, err := io.WriteString(w, str.String()); err != nil {
			return errors.Wrap(err, "listing write failed")
		}
	}
	return nil
}

// Comments keyed by output position for the combined map writer. Records
// landing on the same position join with a newline.
type Comments struct {
	byPos map[int]string
}

func (c *Comments) Reset() {
	c.byPos = nil
}

func (c *Comments) Add(pos int, text string) {
	if text == "" {
		return
	}
	if c.byPos == nil {
		c.byPos = make(map[int]string)
	}
	if prev, ok := c.byPos[pos]; ok {
		c.byPos[pos] = prev + "\n" + text
		return
	}
	c.byPos[pos] = text
}

// At returns the joined comment text recorded at pos.
func (c *Comments) At(pos int) string {
	return c.byPos[pos]
}

// Positions returns every commented position in order.
func (c *Comments) Positions() []int {
	out := make([]int, 0, len(c.byPos))
	for pos := range c.byPos {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}
