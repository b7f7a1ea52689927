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
	"encoding/binary"
)

const (
	sign24Bit = 0x800000
	mask24Bit = 0xFFFFFF
)

// deinterleave reads interleaved little-endian signed PCM into pre-allocated
// per-channel int32 slices. 20-bit samples occupy the top 20 bits of a 24-bit container.
//
//nolint:varnamelen // Loop variables i, ch, s are idiomatic.
func deinterleave(channels [][]int32, pcm []byte, numFrames int, bitDepth uint32) {
	if numFrames == 0 {
		return
	}

	nChannels := len(channels)
	pos := 0

	switch bitDepth {
	case 16:
		if nChannels == 2 {
			left := channels[0][:numFrames:numFrames]
			right := channels[1][:numFrames:numFrames]
			_ = pcm[numFrames*4-1] // BCE

			for i := range left {
				packed := binary.LittleEndian.Uint32(pcm[i*4:])
				left[i] = int32(int16(packed))        //nolint:gosec // uint16-to-int16 reinterpretation.
				right[i] = int32(int16(packed >> 16)) //nolint:gosec // uint16-to-int16 reinterpretation.
			}

			return
		}

		for i := range numFrames {
			for ch := range nChannels {
				//nolint:gosec // uint16-to-int16 reinterpretation.
				channels[ch][i] = int32(int16(binary.LittleEndian.Uint16(pcm[pos:])))
				pos += 2
			}
		}
	case 20, 24:
		for i := range numFrames {
			for ch := range nChannels {
				s := int32(pcm[pos]) | int32(pcm[pos+1])<<8 | int32(pcm[pos+2])<<16
				// Sign-extend from 24-bit.
				if s&sign24Bit != 0 {
					s |= ^mask24Bit
				}

				if bitDepth == 20 {
					s >>= 4
				}

				channels[ch][i] = s
				pos += 3
			}
		}
	case 32:
		for i := range numFrames {
			for ch := range nChannels {
				channels[ch][i] = int32( //nolint:gosec // uint32-to-int32 reinterpretation.
					binary.LittleEndian.Uint32(pcm[pos:]),
				)
				pos += 4
			}
		}
	default:
	}
}

// interleave writes per-channel samples into dst as interleaved little-endian signed PCM.
// It is the inverse of deinterleave.
func interleave(dst []byte, channels [][]int32, numFrames int, bitDepth uint32) {
	if numFrames == 0 {
		return
	}

	nChannels := len(channels)
	pos := 0

	switch bitDepth {
	case 16:
		if nChannels == 2 {
			left := channels[0][:numFrames:numFrames]
			right := channels[1][:numFrames:numFrames]
			_ = dst[numFrames*4-1] // BCE

			for i, l := range left {
				//nolint:gosec // G115: intentional int32→uint16 truncation for stereo PCM packing.
				binary.LittleEndian.PutUint32(dst[i*4:], uint32(uint16(l))|uint32(uint16(right[i]))<<16)
			}

			return
		}

		for i := range numFrames {
			for ch := range nChannels {
				s := channels[ch][i]
				dst[pos] = byte(s)
				dst[pos+1] = byte(s >> 8)
				pos += 2
			}
		}
	case 20, 24:
		shift := 0
		if bitDepth == 20 {
			shift = 4
		}

		for i := range numFrames {
			for ch := range nChannels {
				s := channels[ch][i] << shift
				dst[pos] = byte(s)
				dst[pos+1] = byte(s >> 8)
				dst[pos+2] = byte(s >> 16)
				pos += 3
			}
		}
	case 32:
		for i := range numFrames {
			for ch := range nChannels {
				//nolint:gosec // G115: intentional int32→uint32 reinterpretation.
				binary.LittleEndian.PutUint32(dst[pos:], uint32(channels[ch][i]))
				pos += 4
			}
		}
	default:
	}
}
