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

// Decoder is one ALAC decoder instance. It is not safe for concurrent use.
type Decoder struct {
	config SpecificConfig

	// Expected layout, checked against the cookie by Init.
	wantChannels uint32
	wantFrames   uint32

	channels    [][]int32
	initialized bool
}

// NewDecoder returns an uninitialized decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// SetOutputLayout records the channel count and packet frame count the caller
// will decode with. Init rejects cookies that disagree and layouts with a zero field.
func (d *Decoder) SetOutputLayout(channels, framesPerPacket uint32) {
	d.wantChannels = channels
	d.wantFrames = framesPerPacket
}

// Init configures the decoder from a magic cookie.
func (d *Decoder) Init(cookie []byte) Status {
	cfg, err := ParseCookie(cookie)
	if err != nil {
		return StatusParamError
	}

	if cfg.NumChannels == 0 || cfg.NumChannels > MaxChannels {
		return StatusParamError
	}

	if cfg.FrameLength == 0 || containerBytes(uint32(cfg.BitDepth)) == 0 {
		return StatusParamError
	}

	if d.wantChannels != uint32(cfg.NumChannels) || d.wantFrames != cfg.FrameLength {
		return StatusParamError
	}

	if uint64(cfg.FrameLength)*uint64(cfg.NumChannels)*4 > maxScratchBytes {
		return StatusMemFullError
	}

	d.config = cfg
	d.channels = make([][]int32, cfg.NumChannels)

	for ch := range d.channels {
		d.channels[ch] = make([]int32, cfg.FrameLength)
	}

	d.initialized = true

	return StatusOK
}

// Config returns the parsed cookie.
func (d *Decoder) Config() SpecificConfig { return d.config }

// Decode decodes one packet from bits into dst as interleaved PCM at the cookie's
// bit depth and returns the number of frames produced. numSamples is the frame
// count of a full packet; partial packets carry their own count.
//
//nolint:cyclop // One switch over the syntactic element tags.
func (d *Decoder) Decode(bits *BitBuffer, dst []byte, numSamples, numChannels uint32) (uint32, Status) {
	if !d.initialized || bits == nil {
		return 0, StatusParamError
	}

	if numChannels == 0 || numChannels > uint32(len(d.channels)) || numSamples == 0 || numSamples > d.config.FrameLength {
		return 0, StatusParamError
	}

	outSamples := numSamples
	channelIndex := uint32(0)

	for channelIndex < numChannels {
		tag := bits.read(3)
		if bits.failed() {
			return 0, StatusParamError
		}

		var status Status

		switch tag {
		case idSCE, idLFE:
			if channelIndex+1 > numChannels {
				return 0, StatusParamError
			}

			bits.read(4) // element instance tag

			outSamples, status = d.readEscapeElement(bits, d.channels[channelIndex:channelIndex+1], numSamples)
			channelIndex++
		case idCPE:
			if channelIndex+2 > numChannels {
				return 0, StatusParamError
			}

			bits.read(4) // element instance tag

			outSamples, status = d.readEscapeElement(bits, d.channels[channelIndex:channelIndex+2], numSamples)
			channelIndex += 2
		case idDSE:
			skipDataStream(bits)
		case idFIL:
			skipFill(bits)
		case idCCE, idPCE:
			status = StatusParamError
		case idEND:
			return d.emit(dst, outSamples, numChannels, channelIndex)
		}

		if status != StatusOK {
			return 0, status
		}

		if bits.failed() {
			return 0, StatusParamError
		}
	}

	return d.emit(dst, outSamples, numChannels, channelIndex)
}

// emit interleaves decoded channels into dst. Channels missing from the packet are silent.
func (d *Decoder) emit(dst []byte, numSamples, numChannels, decoded uint32) (uint32, Status) {
	need := int(numSamples) * int(numChannels) * containerBytes(uint32(d.config.BitDepth))
	if len(dst) < need {
		return 0, StatusParamError
	}

	for ch := decoded; ch < numChannels; ch++ {
		clear(d.channels[ch][:numSamples])
	}

	interleave(dst, d.channels[:numChannels], int(numSamples), uint32(d.config.BitDepth))

	return numSamples, StatusOK
}

// readEscapeElement reads one channel element header and its samples into out.
// Only escape (uncompressed) elements are supported.
func (d *Decoder) readEscapeElement(bits *BitBuffer, out [][]int32, numSamples uint32) (uint32, Status) {
	if unused := bits.read(12); unused != 0 {
		return 0, StatusParamError
	}

	header := bits.read(4)
	partialFrame := header >> 3
	bytesShifted := (header >> 1) & 0x3
	escapeFlag := header & 0x1

	bitDepth := uint32(d.config.BitDepth)
	if bytesShifted == 3 || bytesShifted*8 >= bitDepth {
		return 0, StatusParamError
	}

	if partialFrame != 0 {
		numSamples = bits.read(32)
	}

	if bits.failed() || numSamples > d.config.FrameLength {
		return 0, StatusParamError
	}

	if escapeFlag == 0 {
		return 0, StatusUnimplemented
	}

	chanBits := bitDepth - bytesShifted*8
	shift := 32 - chanBits

	for i := range numSamples {
		for _, ch := range out {
			val := bits.read(uint8(chanBits)) //nolint:gosec // chanBits <= 32.
			ch[i] = int32(val<<shift) >> shift //nolint:gosec // sign extension from chanBits.
		}
	}

	if bits.failed() {
		return 0, StatusParamError
	}

	return numSamples, StatusOK
}

func skipDataStream(bits *BitBuffer) {
	bits.read(4) // element instance tag

	byteAlign := bits.read(1)

	count := bits.read(8)
	if count == 255 {
		count += bits.read(8)
	}

	if byteAlign != 0 {
		bits.align()
	}

	bits.skip(int(count) * 8)
}

func skipFill(bits *BitBuffer) {
	count := bits.read(4)
	if count == 15 {
		count += bits.read(8) - 1
	}

	bits.skip(int(count) * 8)
}

// Close releases the scratch buffers.
func (d *Decoder) Close() error {
	d.channels = nil
	d.initialized = false

	return nil
}
