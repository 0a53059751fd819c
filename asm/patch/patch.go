/*
 * N6502 - IPS patch hunk engine.
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

package patch

import (
	"io"

	"github.com/pkg/errors"
)

// Runs at least this long collapse to an RLE hunk.
const rleThreshold = 0x20

// IPS hunk payloads carry a 16 bit length.
const maxHunkLen = 0xffff

// One byte range edit. Data nil marks a run length encoded hunk repeating
// RLEByte. Suppressed hunks are hidden from emission but still answer
// read back queries for compare on write.
type Hunk struct {
	Offset   int
	Length   int
	Data     []byte
	RLEByte  byte
	Suppress bool

	next *Hunk
}

func (h *Hunk) end() int {
	return h.Offset + h.Length
}

// List of hunks in append order. Simplify rewrites it into a minimal,
// position sorted, non overlapping sequence.
type List struct {
	head *Hunk
	tail *Hunk
}

func (l *List) add(h *Hunk) {
	if l.tail == nil {
		l.head = h
	} else {
		l.tail.next = h
	}
	l.tail = h
}

// Append a buffer written at offset. Long runs of one byte become RLE
// hunks, everything around them literal hunks.
func (l *List) Append(offset int, data []byte) {
	for len(data) > 0 {
		// Find the first run long enough to bother with.
		runAt := -1
		runLen := 0
		i := 0
		for i < len(data) {
			j := i
			for j < len(data) && data[j] == data[i] {
				j++
			}
			if j-i >= rleThreshold {
				runAt = i
				runLen = min(j-i, maxHunkLen)
				break
			}
			i = j
		}
		if runAt < 0 {
			l.appendLiteral(offset, data)
			return
		}
		if runAt > 0 {
			l.appendLiteral(offset, data[:runAt])
		}
		l.add(&Hunk{Offset: offset + runAt, Length: runLen, RLEByte: data[runAt]})
		data = data[runAt+runLen:]
		offset += runAt + runLen
	}
}

func (l *List) appendLiteral(offset int, data []byte) {
	for len(data) > 0 {
		n := min(len(data), maxHunkLen)
		buf := make([]byte, n)
		copy(buf, data)
		l.add(&Hunk{Offset: offset, Length: n, Data: buf})
		data = data[n:]
		offset += n
	}
}

// SuppressAll hides every accumulated hunk from emission while keeping it
// available for read back.
func (l *List) SuppressAll() {
	for h := l.head; h != nil; h = h.next {
		h.Suppress = true
	}
}

// ByteAt reports the committed byte at offset. Later writes win.
func (l *List) ByteAt(offset int) (byte, bool) {
	var val byte
	found := false
	for h := l.head; h != nil; h = h.next {
		if offset >= h.Offset && offset < h.end() {
			if h.Data != nil {
				val = h.Data[offset-h.Offset]
			} else {
				val = h.RLEByte
			}
			found = true
		}
	}
	return val, found
}

// slice returns the part of h covering [from,to) as a fresh hunk.
func (h *Hunk) slice(from, to int) *Hunk {
	n := &Hunk{Offset: from, Length: to - from, RLEByte: h.RLEByte}
	if h.Data != nil {
		n.Data = h.Data[from-h.Offset : to-h.Offset]
	}
	return n
}

// Simplify rewrites the list so hunks are strictly ordered by offset with
// no overlaps and no empty entries. Later hunks win where ranges collide.
// Repeats full traversals until one makes no change.
func (l *List) Simplify() {
	for {
		changed := false
		var prev *Hunk
		h := l.head
		for h != nil {
			// Empty and suppressed hunks drop out.
			if h.Suppress || h.Length <= 0 {
				l.unlink(prev, h)
				changed = true
				h = l.nextOf(prev)
				continue
			}
			n := h.next
			if n == nil {
				break
			}
			switch {
			case h.Offset >= n.Offset && h.end() <= n.end():
				// Fully shadowed by the next write.
				l.unlink(prev, h)
				changed = true
				h = l.nextOf(prev)
				continue
			case h.Offset < n.Offset && h.end() > n.end():
				// Contains the next write. Split around it.
				left := h.slice(h.Offset, n.Offset)
				right := h.slice(n.end(), h.end())
				left.next = n
				right.next = n.next
				n.next = right
				if prev == nil {
					l.head = left
				} else {
					prev.next = left
				}
				if l.tail == h || l.tail == n {
					l.tail = right
				}
				changed = true
				h = left
				continue
			case h.Data != nil && n.Data != nil && h.end() == n.Offset:
				// Contiguous literals collapse into one hunk.
				joined := make([]byte, 0, h.Length+n.Length)
				joined = append(joined, h.Data...)
				joined = append(joined, n.Data...)
				h.Data = joined
				h.Length += n.Length
				h.next = n.next
				if l.tail == n {
					l.tail = h
				}
				changed = true
				continue
			case h.Offset < n.Offset && h.end() > n.Offset:
				// Overlaps the start of the next write.
				h.Length = n.Offset - h.Offset
				if h.Data != nil {
					h.Data = h.Data[:h.Length]
				}
				changed = true
				continue
			case n.Offset < h.Offset:
				// Out of order. Trim our shadowed left edge and swap.
				if n.end() > h.Offset {
					cut := min(n.end(), h.end())
					oldEnd := h.end()
					if h.Data != nil {
						h.Data = h.Data[cut-h.Offset:]
					}
					h.Offset = cut
					h.Length = oldEnd - cut
				}
				h.next = n.next
				n.next = h
				if prev == nil {
					l.head = n
				} else {
					prev.next = n
				}
				if l.tail == n {
					l.tail = h
				}
				changed = true
				h = n
				continue
			}
			prev = h
			h = h.next
		}
		if !changed {
			return
		}
	}
}

func (l *List) nextOf(prev *Hunk) *Hunk {
	if prev == nil {
		return l.head
	}
	return prev.next
}

func (l *List) unlink(prev, h *Hunk) {
	if prev == nil {
		l.head = h.next
	} else {
		prev.next = h.next
	}
	if l.tail == h {
		l.tail = prev
	}
}

// Hunks returns the current hunks in list order.
func (l *List) Hunks() []*Hunk {
	var out []*Hunk
	for h := l.head; h != nil; h = h.next {
		out = append(out, h)
	}
	return out
}

// Write emits the simplified list in IPS form: "PATCH", then for every
// hunk a 3 byte offset and 2 byte length, big endian. Zero length flags
// an RLE hunk carrying a 2 byte run length and the fill byte. "EOF"
// closes the stream.
func (l *List) Write(w io.Writer) error {
	if _, err := w.Write([]byte("PATCH")); err != nil {
		return errors.Wrap(err, "patch write failed")
	}
	for h := l.head; h != nil; h = h.next {
		hdr := []byte{
			byte(h.Offset >> 16), byte(h.Offset >> 8), byte(h.Offset),
		}
		if h.Data == nil {
			hdr = append(hdr, 0, 0,
				byte(h.Length>>8), byte(h.Length), h.RLEByte)
		} else {
			hdr = append(hdr, byte(h.Length>>8), byte(h.Length))
			hdr = append(hdr, h.Data...)
		}
		if _, err := w.Write(hdr); err != nil {
			return errors.Wrap(err, "patch write failed")
		}
	}
	if _, err := w.Write([]byte("EOF")); err != nil {
		return errors.Wrap(err, "patch write failed")
	}
	return nil
}
