/*
 * N6502 - Convert Hex to strings.
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

package hex

import "strings"

var hexMap = "0123456789ABCDEF"
var hexMapLow = "0123456789abcdef"

// Append one byte as two hex digits.
func FormatByte(str *strings.Builder, by uint8) {
	str.WriteByte(hexMap[(by>>4)&0xf])
	str.WriteByte(hexMap[by&0xf])
}

// Append a 16 bit address as four hex digits.
func FormatAddr(str *strings.Builder, addr uint16) {
	shift := 12
	for range 4 {
		str.WriteByte(hexMap[(addr>>shift)&0xf])
		shift -= 4
	}
}

// Append a run of bytes as two digit groups.
func FormatBytes(str *strings.Builder, space bool, data []uint8) {
	for _, by := range data {
		FormatByte(str, by)
		if space {
			str.WriteByte(' ')
		}
	}
}

// Format a value the way the map files want it, lower case without
// leading zeros.
func FormatValue(value int) string {
	if value == 0 {
		return "0"
	}
	var str strings.Builder
	digits := [16]byte{}
	i := 0
	uval := uint32(value)
	for uval != 0 {
		digits[i] = hexMapLow[uval&0xf]
		uval >>= 4
		i++
	}
	for i > 0 {
		i--
		str.WriteByte(digits[i])
	}
	return str.String()
}
