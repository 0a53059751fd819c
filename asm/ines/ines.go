/*
 * N6502 - iNES / NES 2.0 header state.
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

// Size of an iNES or NES 2.0 header.
const HeaderSize = 16

const ErrInvalidHeader = "iNES header invalid."

// Header collects the console header configured by directives or read from
// an included image. Any setter arms emission of the 16 byte block at the
// start of the output file.
type Header struct {
	armed bool
	nes2  bool

	prg    int // PRG size in 16 KiB units.
	chr    int // CHR size in 8 KiB units.
	mirror int
	mapper int

	sub     int // NES 2.0 submapper.
	tv      int
	vs      int
	prgRAM  int
	bram    int
	chrRAM  int
	chrBRAM int
}

func (h *Header) Armed() bool {
	return h.armed
}

func (h *Header) SetPRG(n int) {
	h.prg = n
	h.armed = true
}

func (h *Header) SetCHR(n int) {
	h.chr = n
	h.armed = true
}

func (h *Header) SetMirror(n int) {
	h.mirror = n
	h.armed = true
}

func (h *Header) SetMapper(n int) {
	h.mapper = n
	h.armed = true
}

func (h *Header) setNES2(field *int, n int) {
	*field = n
	h.nes2 = true
	h.armed = true
}

func (h *Header) SetSub(n int)     { h.setNES2(&h.sub, n) }
func (h *Header) SetTV(n int)      { h.setNES2(&h.tv, n) }
func (h *Header) SetVS(n int)      { h.setNES2(&h.vs, n) }
func (h *Header) SetPRGRAM(n int)  { h.setNES2(&h.prgRAM, n) }
func (h *Header) SetBRAM(n int)    { h.setNES2(&h.bram, n) }
func (h *Header) SetCHRRAM(n int)  { h.setNES2(&h.chrRAM, n) }
func (h *Header) SetCHRBRAM(n int) { h.setNES2(&h.chrBRAM, n) }

// Merge takes the header block of an existing image and adopts its fields.
// Returns an error message when the signature is wrong.
func (h *Header) Merge(raw []byte) string {
	if len(raw) < HeaderSize || raw[0] != 'N' || raw[1] != 'E' || raw[2] != 'S' || raw[3] != 0x1a {
		return ErrInvalidHeader
	}
	h.armed = true
	h.prg = int(raw[4])
	h.chr = int(raw[5])
	h.mirror = int(raw[6] & 0x0f)
	h.mapper = int(raw[6]>>4) | int(raw[7]&0xf0)
	if raw[7]&0x0c == 0x08 {
		h.nes2 = true
		h.mapper |= int(raw[8]&0x0f) << 8
		h.sub = int(raw[8] >> 4)
		h.prgRAM = int(raw[10] & 0x0f)
		h.bram = int(raw[10] >> 4)
		h.chrRAM = int(raw[11] & 0x0f)
		h.chrBRAM = int(raw[11] >> 4)
		h.tv = int(raw[12] & 0x03)
		h.vs = int(raw[13] & 0x0f)
	}
	return ""
}

// Bytes builds the 16 byte header block.
func (h *Header) Bytes() []byte {
	out := make([]byte, HeaderSize)
	out[0], out[1], out[2], out[3] = 'N', 'E', 'S', 0x1a
	out[4] = byte(h.prg)
	out[5] = byte(h.chr)
	out[6] = byte(h.mapper<<4) | byte(h.mirror&0x0f)
	out[7] = byte(h.mapper & 0xf0)
	if h.nes2 {
		out[7] |= 0x08
		out[8] = byte(h.sub<<4) | byte((h.mapper>>8)&0x0f)
		out[10] = byte(h.prgRAM&0x0f) | byte(h.bram<<4)
		out[11] = byte(h.chrRAM&0x0f) | byte(h.chrBRAM<<4)
		out[12] = byte(h.tv & 0x03)
		out[13] = byte(h.vs & 0x0f)
	}
	return out
}
