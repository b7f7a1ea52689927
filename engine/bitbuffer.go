/*
   Copyright Mycophonic.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package engine

import (
	"bytes"

	"github.com/icza/bitio"
)

// BitBuffer is a bit-addressable read view over one compressed packet,
// starting at byte 0. Reads past the end latch an error instead of panicking.
type BitBuffer struct {
	r    *bitio.Reader
	size int
}

// NewBitBuffer frames data for a Decode call.
func NewBitBuffer(data []byte) *BitBuffer {
	return &BitBuffer{r: bitio.NewReader(bytes.NewReader(data)), size: len(data)}
}

// Len returns the size of the underlying packet in bytes.
func (b *BitBuffer) Len() int { return b.size }

func (b *BitBuffer) read(n uint8) uint32 {
	return uint32(b.r.TryReadBits(n)) //nolint:gosec // n <= 32.
}

func (b *BitBuffer) skip(nBits int) {
	for nBits > 0 && b.r.TryError == nil {
		step := min(nBits, 32)
		b.r.TryReadBits(uint8(step)) //nolint:gosec // step <= 32.
		nBits -= step
	}
}

func (b *BitBuffer) align() { b.r.Align() }

func (b *BitBuffer) failed() bool { return b.r.TryError != nil }

// frameWriter accumulates one packet MSB-first.
type frameWriter struct {
	buf bytes.Buffer
	w   *bitio.Writer
}

func newFrameWriter(capacity int) *frameWriter {
	fw := &frameWriter{}
	fw.buf.Grow(capacity)
	fw.w = bitio.NewWriter(&fw.buf)

	return fw
}

func (fw *frameWriter) write(value uint32, n uint8) {
	fw.w.TryWriteBits(uint64(value), n)
}

// finish pads to a byte boundary and returns the packet bytes.
func (fw *frameWriter) finish() ([]byte, error) {
	if fw.w.TryError != nil {
		return nil, fw.w.TryError
	}

	if err := fw.w.Close(); err != nil {
		return nil, err
	}

	return fw.buf.Bytes(), nil
}
