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
	"math"
)

const defaultBitDepth = 16

// EncoderStats summarizes the packets produced by an Encoder so far.
type EncoderStats struct {
	Packets       uint64
	Frames        uint64
	Bytes         uint64
	MaxFrameBytes uint32
	AvgBitRate    uint32
}

// Encoder is one ALAC encoder instance. It is not safe for concurrent use.
type Encoder struct {
	frameSize      uint32
	numChannels    uint32
	bitDepth       uint32
	sampleRate     uint32
	maxOutputBytes int

	// Per-channel scratch, allocated at frameSize by InitializeEncoder.
	channels [][]int32

	stats       EncoderStats
	initialized bool
}

// NewEncoder returns an encoder with the default frame size.
func NewEncoder() *Encoder {
	return &Encoder{frameSize: DefaultFramesPerPacket, bitDepth: defaultBitDepth}
}

// SetFrameSize sets the number of frames in a full packet. Call before InitializeEncoder.
func (e *Encoder) SetFrameSize(framesPerPacket uint32) {
	e.frameSize = framesPerPacket
}

// InitializeEncoder prepares the encoder for the given Apple Lossless output description.
// The stream bit depth comes from the format flags; unknown classes keep 16-bit.
func (e *Encoder) InitializeEncoder(output AudioFormatDescription) Status {
	if output.FormatID != FormatAppleLossless {
		return StatusParamError
	}

	if output.ChannelsPerFrame == 0 || output.ChannelsPerFrame > MaxChannels {
		return StatusParamError
	}

	if e.frameSize == 0 || !(output.SampleRate > 0) || output.SampleRate > math.MaxUint32 {
		return StatusParamError
	}

	e.bitDepth = defaultBitDepth
	if depth := output.FormatFlags.BitDepth(); depth != 0 {
		e.bitDepth = depth
	}

	maxOutput := uint64(e.frameSize)*uint64(output.ChannelsPerFrame)*((10+MaxSampleSize)/8) + 1
	if maxOutput > maxScratchBytes {
		return StatusMemFullError
	}

	e.numChannels = output.ChannelsPerFrame
	e.sampleRate = uint32(output.SampleRate)
	e.maxOutputBytes = int(maxOutput)

	e.channels = make([][]int32, e.numChannels)
	for ch := range e.channels {
		e.channels[ch] = make([]int32, e.frameSize)
	}

	e.stats = EncoderStats{}
	e.initialized = true

	return StatusOK
}

// MaxOutputBytes returns the worst-case packet size for a full frame.
func (e *Encoder) MaxOutputBytes() int { return e.maxOutputBytes }

// BitDepth returns the stream bit depth selected at initialization.
func (e *Encoder) BitDepth() uint32 { return e.bitDepth }

// MagicCookieSize returns the cookie size for a channel count.
func (e *Encoder) MagicCookieSize(numChannels uint32) uint32 {
	return CookieSize(numChannels)
}

// MagicCookie writes the magic cookie into dst and returns the number of bytes written.
// It returns 0 when dst is too small.
func (e *Encoder) MagicCookie(dst []byte) uint32 {
	size := CookieSize(e.numChannels)
	if uint32(len(dst)) < size { //nolint:gosec // slice length fits uint32 for cookie sizes.
		return 0
	}

	cookie := AppendCookie(make([]byte, 0, size), SpecificConfig{
		FrameLength:   e.frameSize,
		BitDepth:      uint8(e.bitDepth),    //nolint:gosec // bitDepth <= 32.
		PB:            defaultPB,
		MB:            defaultMB,
		KB:            defaultKB,
		NumChannels:   uint8(e.numChannels), //nolint:gosec // numChannels <= 8.
		MaxRun:        defaultMaxRun,
		MaxFrameBytes: e.stats.MaxFrameBytes,
		AvgBitRate:    e.stats.AvgBitRate,
		SampleRate:    e.sampleRate,
	})

	return uint32(copy(dst, cookie)) //nolint:gosec // cookie is at most 48 bytes.
}

// Encode compresses one packet of interleaved PCM from src into dst and returns
// the number of bytes written. The input frame count is len(src) divided by the
// PCM frame size at the stream bit depth; it must not exceed the frame size.
func (e *Encoder) Encode(input, output AudioFormatDescription, src, dst []byte) (int, Status) {
	if !e.initialized {
		return 0, StatusParamError
	}

	if input.FormatID != FormatLinearPCM || output.FormatID != FormatAppleLossless {
		return 0, StatusParamError
	}

	if input.ChannelsPerFrame != e.numChannels || output.ChannelsPerFrame != e.numChannels {
		return 0, StatusParamError
	}

	bytesPerFrame := int(e.numChannels) * containerBytes(e.bitDepth)
	if len(src)%bytesPerFrame != 0 {
		return 0, StatusParamError
	}

	numFrames := len(src) / bytesPerFrame
	if numFrames > int(e.frameSize) {
		return 0, StatusParamError
	}

	if numFrames == 0 {
		return 0, StatusOK
	}

	deinterleave(e.channels, src, numFrames, e.bitDepth)

	packet, status := e.writeEscapeFrame(numFrames)
	if status != StatusOK {
		return 0, status
	}

	if len(packet) > len(dst) {
		return 0, StatusParamError
	}

	written := copy(dst, packet)

	e.stats.Packets++
	e.stats.Frames += uint64(numFrames)
	e.stats.Bytes += uint64(written)
	e.stats.MaxFrameBytes = max(e.stats.MaxFrameBytes, uint32(written)) //nolint:gosec // bounded by maxOutputBytes.

	if e.stats.Frames > 0 {
		bitRate := float64(e.stats.Bytes) * 8 * float64(e.sampleRate) / float64(e.stats.Frames)
		e.stats.AvgBitRate = uint32(min(bitRate, math.MaxUint32))
	}

	return written, StatusOK
}

// writeEscapeFrame emits every channel element of the current layout uncompressed.
func (e *Encoder) writeEscapeFrame(numFrames int) ([]byte, Status) {
	fw := newFrameWriter(e.maxOutputBytes)
	partial := uint32(numFrames) != e.frameSize //nolint:gosec // numFrames <= frameSize.
	bits := uint8(e.bitDepth)                   //nolint:gosec // bitDepth <= 32.
	mask := uint32(math.MaxUint32 >> (32 - e.bitDepth))

	var monoTag, stereoTag uint32

	channelIndex := 0

	for _, tag := range channelMaps[e.numChannels-1] {
		switch tag {
		case idSCE:
			fw.write(idSCE, 3)
			fw.write(monoTag, 4)
			writeEscapeHeader(fw, partial, numFrames)

			mono := e.channels[channelIndex][:numFrames]
			for _, s := range mono {
				fw.write(uint32(s)&mask, bits) //nolint:gosec // two's complement truncation.
			}

			monoTag++
			channelIndex++
		case idCPE:
			fw.write(idCPE, 3)
			fw.write(stereoTag, 4)
			writeEscapeHeader(fw, partial, numFrames)

			left := e.channels[channelIndex][:numFrames]
			right := e.channels[channelIndex+1][:numFrames]

			for i, l := range left {
				fw.write(uint32(l)&mask, bits)        //nolint:gosec // two's complement truncation.
				fw.write(uint32(right[i])&mask, bits) //nolint:gosec // two's complement truncation.
			}

			stereoTag++
			channelIndex += 2
		}
	}

	fw.write(idEND, 3)

	packet, err := fw.finish()
	if err != nil {
		return nil, StatusMemFullError
	}

	return packet, StatusOK
}

// writeEscapeHeader writes the 12 unused bits, the partial/shift/escape nibble and,
// for partial frames, the 32-bit sample count.
func writeEscapeHeader(fw *frameWriter, partial bool, numFrames int) {
	var partialBit uint32
	if partial {
		partialBit = 1
	}

	fw.write(0, 12)
	fw.write(partialBit<<3|1, 4)

	if partial {
		fw.write(uint32(numFrames), 32) //nolint:gosec // numFrames <= frameSize.
	}
}

// Stats returns running totals since initialization.
func (e *Encoder) Stats() EncoderStats { return e.stats }

// Close releases the scratch buffers. The encoder must be initialized again before reuse.
func (e *Encoder) Close() error {
	e.channels = nil
	e.initialized = false

	return nil
}
