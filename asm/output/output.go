/*
 * N6502 - Assembler output sink.
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

package output

import (
	"fmt"
	"os"

	"github.com/rcornwell/N6502/asm/patch"
)

// Coverage tags, one per emitted byte.
type Tag byte

const (
	None Tag = iota
	Code
	Data
)

// Error messages raised by the sink.
const (
	ErrCantWrite = "Write error."
	ErrCantSeek  = "Can't seek in file."
)

const buffSize = 8192

// Sink is a buffered byte sink backed by either a seekable file or an in
// memory patch hunk list. It tracks the write position and the high water
// mark; writes past the mark extend it, writes below overwrite in place.
type Sink struct {
	file  *os.File
	hunks *patch.List

	buf    []byte
	bufPos int // File offset of the first buffered byte.
	pos    int
	size   int // High water mark.

	Fill    byte // Pad byte.
	Compare bool // Verify writes against committed content.

	coverage []Tag
	trackCov bool

	compareFail string // First compare diagnostic, if any.
}

// NewFile returns a sink writing through f, which must be open for both
// reading and writing so compare mode can read back.
func NewFile(f *os.File) *Sink {
	return &Sink{file: f, buf: make([]byte, 0, buffSize)}
}

// NewPatch returns a sink accumulating patch hunks instead of file bytes.
func NewPatch() *Sink {
	return &Sink{hunks: &patch.List{}, buf: make([]byte, 0, buffSize)}
}

// EnableCoverage records a coverage tag per output byte.
func (s *Sink) EnableCoverage() {
	s.trackCov = true
}

// Rewind resets the sink for a fresh pass.
func (s *Sink) Rewind() {
	s.buf = s.buf[:0]
	s.bufPos = 0
	s.pos = 0
	s.size = 0
	s.Fill = 0
	s.Compare = false
	s.compareFail = ""
	s.coverage = s.coverage[:0]
	if s.hunks != nil {
		s.hunks = &patch.List{}
	}
}

func (s *Sink) Pos() int {
	return s.pos
}

func (s *Sink) Watermark() int {
	return s.size
}

// Hunks exposes the accumulated patch list, nil for file sinks.
func (s *Sink) Hunks() *patch.List {
	if s.hunks == nil {
		return nil
	}
	return s.hunks
}

func (s *Sink) Coverage() []Tag {
	return s.coverage
}

// TakeCompareFailure returns and clears the diagnostic from the first
// mismatched read back since the last call, or empty.
func (s *Sink) TakeCompareFailure() string {
	msg := s.compareFail
	s.compareFail = ""
	return msg
}

// Flush commits buffered bytes to the backing store.
func (s *Sink) Flush() string {
	if len(s.buf) == 0 {
		return ""
	}
	if s.file != nil {
		if _, err := s.file.WriteAt(s.buf, int64(s.bufPos)); err != nil {
			return ErrCantWrite
		}
	} else {
		s.hunks.Append(s.bufPos, s.buf)
	}
	s.buf = s.buf[:0]
	s.bufPos = s.pos
	return ""
}

// ByteAt reports the committed byte at offset, pending bytes included.
func (s *Sink) ByteAt(offset int) (byte, bool) {
	if offset >= s.bufPos && offset < s.bufPos+len(s.buf) {
		return s.buf[offset-s.bufPos], true
	}
	if s.file != nil {
		if offset >= s.size {
			return 0, false
		}
		var one [1]byte
		if _, err := s.file.ReadAt(one[:], int64(offset)); err != nil {
			return 0, false
		}
		return one[0], true
	}
	return s.hunks.ByteAt(offset)
}

// Write emits data at the current position with the given coverage tag.
func (s *Sink) Write(data []byte, tag Tag) string {
	if s.Compare {
		for i, by := range data {
			at := s.pos + i
			if at >= s.size {
				break
			}
			old, ok := s.ByteAt(at)
			if ok && old != by && s.compareFail == "" {
				s.compareFail = fmt.Sprintf(
					"Compare failed. Byte at 0x%08x was 0x%02x.", at, old)
			}
		}
	}
	for len(data) > 0 {
		room := cap(s.buf) - len(s.buf)
		if room == 0 {
			if msg := s.Flush(); msg != "" {
				return msg
			}
			room = cap(s.buf)
		}
		n := min(room, len(data))
		s.buf = append(s.buf, data[:n]...)
		s.track(s.pos, data[:n], tag)
		s.pos += n
		data = data[n:]
		if s.pos > s.size {
			s.size = s.pos
		}
	}
	return ""
}

func (s *Sink) track(at int, data []byte, tag Tag) {
	if !s.trackCov {
		return
	}
	for at+len(data) > len(s.coverage) {
		s.coverage = append(s.coverage, None)
	}
	for i := range data {
		s.coverage[at+i] = tag
	}
}

// Pad writes n fill bytes.
func (s *Sink) Pad(n int) string {
	fill := [buffSize]byte{}
	for i := range fill {
		fill[i] = s.Fill
	}
	for n > 0 {
		c := min(n, len(fill))
		if msg := s.Write(fill[:c], None); msg != "" {
			return msg
		}
		n -= c
	}
	return ""
}

// Seek moves the write position to an absolute file offset.
func (s *Sink) Seek(offset int) string {
	if offset < 0 {
		return ErrCantSeek
	}
	if msg := s.Flush(); msg != "" {
		return msg
	}
	s.pos = offset
	s.bufPos = offset
	return ""
}

// Finish flushes and, for file sinks, trims stale bytes beyond the
// watermark left over from earlier passes.
func (s *Sink) Finish() string {
	if msg := s.Flush(); msg != "" {
		return msg
	}
	if s.file != nil {
		if err := s.file.Truncate(int64(s.size)); err != nil {
			return ErrCantWrite
		}
	}
	return ""
}
