/*
 * N6502 - NMOS 6502 opcode tables.
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

package opcodes

import "strings"

// Addressing modes.
type Mode int

const (
	Acc  Mode = iota // Accumulator, "ASL A"
	Imm              // Immediate, "#n"
	Ind              // Indirect, "(n)"
	IndX             // Indexed indirect, "(n,X)"
	IndY             // Indirect indexed, "(n),Y"
	ZpX              // Zero page indexed X
	ZpY              // Zero page indexed Y
	AbsX             // Absolute indexed X
	AbsY             // Absolute indexed Y
	Zp               // Zero page
	Abs              // Absolute
	Rel              // Relative branch
	Imp              // Implied
)

// Stability classes. Anything beyond Stable needs an enabling directive
// before it will assemble.
type Stability int

const (
	Stable Stability = iota
	Unstable
	HighlyUnstable
)

// Operand size in bytes for each mode.
var Size = [...]int{
	Acc: 0, Imm: 1, Ind: 2, IndX: 1, IndY: 1, ZpX: 1, ZpY: 1,
	AbsX: 2, AbsY: 2, Zp: 1, Abs: 2, Rel: 1, Imp: 0,
}

// Syntax marker that must precede the operand, 0 for none.
var Head = [...]byte{
	Acc: 0, Imm: '#', Ind: '(', IndX: '(', IndY: '(', ZpX: 0, ZpY: 0,
	AbsX: 0, AbsY: 0, Zp: 0, Abs: 0, Rel: 0, Imp: 0,
}

// Syntax marker that must follow the operand.
var Tail = [...]string{
	Acc: "A", Imm: "", Ind: ")", IndX: ",X)", IndY: "),Y", ZpX: ",X", ZpY: ",Y",
	AbsX: ",X", AbsY: ",Y", Zp: "", Abs: "", Rel: "", Imp: "",
}

// One opcode byte with the addressing mode it encodes.
type Candidate struct {
	Code byte
	Mode Mode
}

// Candidate lists are tried in order. Eight bit modes come before their
// sixteen bit twins so that a resolved zero page operand picks the short
// encoding, while an unresolved operand falls through to absolute.
var opMap = map[string][]Candidate{
	"BRK": {{0x00, Imm}, {0x00, Zp}, {0x00, Imp}},
	"ORA": {{0x09, Imm}, {0x01, IndX}, {0x11, IndY}, {0x15, ZpX}, {0x1d, AbsX}, {0x19, AbsY}, {0x05, Zp}, {0x0d, Abs}},
	"ASL": {{0x0a, Acc}, {0x16, ZpX}, {0x1e, AbsX}, {0x06, Zp}, {0x0e, Abs}, {0x0a, Imp}},
	"PHP": {{0x08, Imp}},
	"BPL": {{0x10, Rel}},
	"CLC": {{0x18, Imp}},
	"JSR": {{0x20, Abs}},
	"AND": {{0x29, Imm}, {0x21, IndX}, {0x31, IndY}, {0x35, ZpX}, {0x3d, AbsX}, {0x39, AbsY}, {0x25, Zp}, {0x2d, Abs}},
	"BIT": {{0x24, Zp}, {0x2c, Abs}},
	"ROL": {{0x2a, Acc}, {0x36, ZpX}, {0x3e, AbsX}, {0x26, Zp}, {0x2e, Abs}, {0x2a, Imp}},
	"PLP": {{0x28, Imp}},
	"BMI": {{0x30, Rel}},
	"SEC": {{0x38, Imp}},
	"RTI": {{0x40, Imp}},
	"EOR": {{0x49, Imm}, {0x41, IndX}, {0x51, IndY}, {0x55, ZpX}, {0x5d, AbsX}, {0x59, AbsY}, {0x45, Zp}, {0x4d, Abs}},
	"LSR": {{0x4a, Acc}, {0x56, ZpX}, {0x5e, AbsX}, {0x46, Zp}, {0x4e, Abs}, {0x4a, Imp}},
	"PHA": {{0x48, Imp}},
	"JMP": {{0x6c, Ind}, {0x4c, Abs}},
	"BVC": {{0x50, Rel}},
	"CLI": {{0x58, Imp}},
	"RTS": {{0x60, Imp}},
	"ADC": {{0x69, Imm}, {0x61, IndX}, {0x71, IndY}, {0x75, ZpX}, {0x7d, AbsX}, {0x79, AbsY}, {0x65, Zp}, {0x6d, Abs}},
	"ROR": {{0x6a, Acc}, {0x76, ZpX}, {0x7e, AbsX}, {0x66, Zp}, {0x6e, Abs}, {0x6a, Imp}},
	"PLA": {{0x68, Imp}},
	"BVS": {{0x70, Rel}},
	"SEI": {{0x78, Imp}},
	"STA": {{0x81, IndX}, {0x91, IndY}, {0x95, ZpX}, {0x9d, AbsX}, {0x99, AbsY}, {0x85, Zp}, {0x8d, Abs}},
	"STY": {{0x94, ZpX}, {0x84, Zp}, {0x8c, Abs}},
	"STX": {{0x96, ZpY}, {0x86, Zp}, {0x8e, Abs}},
	"DEY": {{0x88, Imp}},
	"TXA": {{0x8a, Imp}},
	"BCC": {{0x90, Rel}},
	"TYA": {{0x98, Imp}},
	"TXS": {{0x9a, Imp}},
	"LDY": {{0xa0, Imm}, {0xb4, ZpX}, {0xbc, AbsX}, {0xa4, Zp}, {0xac, Abs}},
	"LDA": {{0xa9, Imm}, {0xa1, IndX}, {0xb1, IndY}, {0xb5, ZpX}, {0xbd, AbsX}, {0xb9, AbsY}, {0xa5, Zp}, {0xad, Abs}},
	"LDX": {{0xa2, Imm}, {0xb6, ZpY}, {0xbe, AbsY}, {0xa6, Zp}, {0xae, Abs}},
	"TAY": {{0xa8, Imp}},
	"TAX": {{0xaa, Imp}},
	"BCS": {{0xb0, Rel}},
	"CLV": {{0xb8, Imp}},
	"TSX": {{0xba, Imp}},
	"CPY": {{0xc0, Imm}, {0xc4, Zp}, {0xcc, Abs}},
	"CMP": {{0xc9, Imm}, {0xc1, IndX}, {0xd1, IndY}, {0xd5, ZpX}, {0xdd, AbsX}, {0xd9, AbsY}, {0xc5, Zp}, {0xcd, Abs}},
	"DEC": {{0xd6, ZpX}, {0xde, AbsX}, {0xc6, Zp}, {0xce, Abs}},
	"INY": {{0xc8, Imp}},
	"DEX": {{0xca, Imp}},
	"BNE": {{0xd0, Rel}},
	"CLD": {{0xd8, Imp}},
	"CPX": {{0xe0, Imm}, {0xe4, Zp}, {0xec, Abs}},
	"SBC": {{0xe9, Imm}, {0xe1, IndX}, {0xf1, IndY}, {0xf5, ZpX}, {0xfd, AbsX}, {0xf9, AbsY}, {0xe5, Zp}, {0xed, Abs}},
	"INC": {{0xf6, ZpX}, {0xfe, AbsX}, {0xe6, Zp}, {0xee, Abs}},
	"INX": {{0xe8, Imp}},
	"NOP": {{0xea, Imp}},
	"BEQ": {{0xf0, Rel}},
	"SED": {{0xf8, Imp}},

	// Undocumented opcodes, NMOS 6502 only.
	"SLO": {{0x07, Zp}, {0x17, ZpX}, {0x03, IndX}, {0x13, IndY}, {0x0f, Abs}, {0x1f, AbsX}, {0x1b, AbsY}},
	"RLA": {{0x27, Zp}, {0x37, ZpX}, {0x23, IndX}, {0x33, IndY}, {0x2f, Abs}, {0x3f, AbsX}, {0x3b, AbsY}},
	"SRE": {{0x47, Zp}, {0x57, ZpX}, {0x43, IndX}, {0x53, IndY}, {0x4f, Abs}, {0x5f, AbsX}, {0x5b, AbsY}},
	"RRA": {{0x67, Zp}, {0x77, ZpX}, {0x63, IndX}, {0x73, IndY}, {0x6f, Abs}, {0x7f, AbsX}, {0x7b, AbsY}},
	"SAX": {{0x87, Zp}, {0x97, ZpY}, {0x83, IndX}, {0x8f, Abs}},
	"LAX": {{0xa7, Zp}, {0xb7, ZpY}, {0xa3, IndX}, {0xb3, IndY}, {0xaf, Abs}, {0xbf, AbsY}},
	"DCP": {{0xc7, Zp}, {0xd7, ZpX}, {0xc3, IndX}, {0xd3, IndY}, {0xcf, Abs}, {0xdf, AbsX}, {0xdb, AbsY}},
	"ISC": {{0xe7, Zp}, {0xf7, ZpX}, {0xe3, IndX}, {0xf3, IndY}, {0xef, Abs}, {0xff, AbsX}, {0xfb, AbsY}},
	"ANC": {{0x0b, Imm}}, // duplicate encoding at 0x2b
	"ALR": {{0x4b, Imm}},
	"ARR": {{0x6b, Imm}},
	"AXS": {{0xcb, Imm}},
	"LAS": {{0xbb, AbsY}},

	// Unstable in certain matters.
	"AHX": {{0x93, IndY}, {0x9f, AbsY}},
	"SHY": {{0x9c, AbsX}},
	"SHX": {{0x9e, AbsY}},
	"TAS": {{0x9b, AbsY}},

	// Highly unstable, results are not predictable on some machines.
	"XAA": {{0x8b, Imm}},
}

var stabilityMap = map[string]Stability{
	"AHX": Unstable,
	"SHY": Unstable,
	"SHX": Unstable,
	"TAS": Unstable,
	"XAA": HighlyUnstable,
}

// Look up a mnemonic, case insensitive. Returns the candidate list in
// trial order and the stability class.
func Lookup(name string) ([]Candidate, Stability, bool) {
	upp := strings.ToUpper(name)
	cands, ok := opMap[upp]
	if !ok {
		return nil, Stable, false
	}
	return cands, stabilityMap[upp], true
}
