/*
 * N6502 - Header tests.
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

package ines

import (
	"bytes"
	"testing"
)

func TestArming(t *testing.T) {
	var h Header
	if h.Armed() {
		t.Error("fresh header should be unarmed")
	}
	h.SetPRG(2)
	if !h.Armed() {
		t.Error("setting a field should arm the header")
	}
}

func TestBytes(t *testing.T) {
	var h Header
	h.SetPRG(2)
	h.SetCHR(1)
	h.SetMapper(4)
	h.SetMirror(1)
	got := h.Bytes()
	if !bytes.Equal(got[:4], []byte{'N', 'E', 'S', 0x1a}) {
		t.Errorf("bad signature % x", got[:4])
	}
	if got[4] != 2 || got[5] != 1 {
		t.Errorf("PRG/CHR = %d/%d, want 2/1", got[4], got[5])
	}
	if got[6] != 0x41 {
		t.Errorf("byte 6 = %02x, want 41", got[6])
	}
	if got[7] != 0 {
		t.Errorf("byte 7 = %02x, want 00 for plain iNES", got[7])
	}
}

func TestNES2(t *testing.T) {
	var h Header
	h.SetMapper(0x123)
	h.SetSub(2)
	got := h.Bytes()
	if got[7]&0x0c != 0x08 {
		t.Errorf("byte 7 = %02x, should flag NES 2.0", got[7])
	}
	if got[8] != 0x21 {
		t.Errorf("byte 8 = %02x, want submapper 2 and mapper high nibble 1", got[8])
	}
}

func TestMergeRoundTrip(t *testing.T) {
	var h Header
	h.SetPRG(4)
	h.SetCHR(2)
	h.SetMapper(7)
	h.SetMirror(1)
	raw := h.Bytes()

	var h2 Header
	if msg := h2.Merge(raw); msg != "" {
		t.Fatalf("merge of own header failed: %s", msg)
	}
	if !bytes.Equal(h2.Bytes(), raw) {
		t.Errorf("round trip changed header: % x vs % x", h2.Bytes(), raw)
	}
}

func TestMergeRejectsGarbage(t *testing.T) {
	var h Header
	if msg := h.Merge([]byte("not a header....")); msg != ErrInvalidHeader {
		t.Errorf("bad signature accepted: %q", msg)
	}
	if msg := h.Merge([]byte{'N', 'E', 'S'}); msg != ErrInvalidHeader {
		t.Errorf("short block accepted: %q", msg)
	}
}
