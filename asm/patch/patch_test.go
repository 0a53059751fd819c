/*
 * N6502 - Patch hunk tests.
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
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type flatHunk struct {
	Offset  int
	Data    []byte
	RLELen  int
	RLEByte byte
}

func flatten(l *List) []flatHunk {
	var out []flatHunk
	for _, h := range l.Hunks() {
		f := flatHunk{Offset: h.Offset}
		if h.Data != nil {
			f.Data = append([]byte{}, h.Data[:h.Length]...)
		} else {
			f.RLELen = h.Length
			f.RLEByte = h.RLEByte
		}
		out = append(out, f)
	}
	return out
}

func diffHunks(t *testing.T, l *List, want []flatHunk) {
	t.Helper()
	opts := cmpopts.EquateEmpty()
	if diff := cmp.Diff(want, flatten(l), opts); diff != "" {
		t.Errorf("hunks mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendRLE(t *testing.T) {
	l := &List{}
	data := append([]byte{1, 2, 3}, bytes.Repeat([]byte{0xaa}, 64)...)
	data = append(data, 4, 5)
	l.Append(0x100, data)

	diffHunks(t, l, []flatHunk{
		{Offset: 0x100, Data: []byte{1, 2, 3}},
		{Offset: 0x103, RLELen: 64, RLEByte: 0xaa},
		{Offset: 0x143, Data: []byte{4, 5}},
	})
}

func TestAppendShortRunStaysLiteral(t *testing.T) {
	l := &List{}
	data := bytes.Repeat([]byte{7}, 16)
	l.Append(0, data)
	diffHunks(t, l, []flatHunk{{Offset: 0, Data: data}})
}

// The seek/overwrite example: bytes at $10, bytes at $20, then one byte
// poked into the middle of the first run.
func TestSimplifyOverwrite(t *testing.T) {
	l := &List{}
	l.Append(0x10, []byte{1, 1, 1})
	l.Append(0x20, []byte{2, 2, 2, 2})
	l.Append(0x11, []byte{9})
	l.Simplify()

	diffHunks(t, l, []flatHunk{
		{Offset: 0x10, Data: []byte{1, 9, 1}},
		{Offset: 0x20, Data: []byte{2, 2, 2, 2}},
	})
}

func TestSimplifyContained(t *testing.T) {
	l := &List{}
	l.Append(0x10, []byte{1, 2, 3, 4})
	l.Append(0x0e, []byte{9, 9, 9, 9, 9, 9, 9, 9})
	l.Simplify()

	diffHunks(t, l, []flatHunk{
		{Offset: 0x0e, Data: []byte{9, 9, 9, 9, 9, 9, 9, 9}},
	})
}

func TestSimplifyOverlapStart(t *testing.T) {
	l := &List{}
	l.Append(0x10, []byte{1, 2, 3, 4})
	l.Append(0x12, []byte{8, 8, 8, 8})
	l.Simplify()

	diffHunks(t, l, []flatHunk{
		{Offset: 0x10, Data: []byte{1, 2, 8, 8, 8, 8}},
	})
}

func TestSimplifyDropsSuppressed(t *testing.T) {
	l := &List{}
	l.Append(0x10, []byte{1, 2, 3})
	l.SuppressAll()
	l.Append(0x40, []byte{4})
	l.Simplify()

	diffHunks(t, l, []flatHunk{
		{Offset: 0x40, Data: []byte{4}},
	})
}

func TestByteAtLastWriterWins(t *testing.T) {
	l := &List{}
	l.Append(0x10, []byte{1, 2, 3})
	l.Append(0x11, []byte{9})
	if b, ok := l.ByteAt(0x11); !ok || b != 9 {
		t.Errorf("ByteAt(0x11) = %d,%v want 9,true", b, ok)
	}
	if b, ok := l.ByteAt(0x12); !ok || b != 3 {
		t.Errorf("ByteAt(0x12) = %d,%v want 3,true", b, ok)
	}
	if _, ok := l.ByteAt(0x40); ok {
		t.Error("ByteAt outside any hunk should miss")
	}
	// Suppressed hunks still answer reads.
	l.SuppressAll()
	if b, ok := l.ByteAt(0x10); !ok || b != 1 {
		t.Errorf("suppressed ByteAt(0x10) = %d,%v want 1,true", b, ok)
	}
}

func TestWriteFormat(t *testing.T) {
	l := &List{}
	l.Append(0x10, []byte{1, 2})
	l.Append(0x123456, bytes.Repeat([]byte{0xee}, 40))
	l.Simplify()

	var buf bytes.Buffer
	if err := l.Write(&buf); err != nil {
		t.Fatal(err)
	}
	want := []byte("PATCH")
	want = append(want, 0x00, 0x00, 0x10, 0x00, 0x02, 1, 2)
	want = append(want, 0x12, 0x34, 0x56, 0x00, 0x00, 0x00, 40, 0xee)
	want = append(want, []byte("EOF")...)
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Errorf("patch stream mismatch (-want +got):\n%s", diff)
	}
}
