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

package alac_test

import (
	alac "github.com/mycophonic/saprobe-alacbind"
	"github.com/mycophonic/saprobe-alacbind/engine"
)

// fakeEncoderEngine records the calls an Encoder makes and returns scripted statuses.
type fakeEncoderEngine struct {
	initStatus   engine.Status
	encodeStatus engine.Status
	encodeBytes  int
	cookieSize   uint32
	shortCookie  bool

	frameSize    uint32
	initFormat   alac.AudioFormat
	sizeQueried  uint32
	encodeInputs int
	closed       int
}

func (f *fakeEncoderEngine) SetFrameSize(framesPerPacket uint32) { f.frameSize = framesPerPacket }

func (f *fakeEncoderEngine) InitializeEncoder(output alac.AudioFormat) engine.Status {
	f.initFormat = output

	return f.initStatus
}

func (f *fakeEncoderEngine) MagicCookieSize(numChannels uint32) uint32 {
	f.sizeQueried = numChannels

	return f.cookieSize
}

func (f *fakeEncoderEngine) MagicCookie(dst []byte) uint32 {
	for i := range dst {
		dst[i] = byte(i + 1)
	}

	if f.shortCookie {
		return uint32(len(dst)) / 2 //nolint:gosec // test cookie sizes are tiny.
	}

	return uint32(len(dst)) //nolint:gosec // test cookie sizes are tiny.
}

func (f *fakeEncoderEngine) Encode(_, _ alac.AudioFormat, src, _ []byte) (int, engine.Status) {
	f.encodeInputs += len(src)

	return f.encodeBytes, f.encodeStatus
}

func (f *fakeEncoderEngine) Close() error {
	f.closed++

	return nil
}

// fakeDecoderEngine is the decoder-side counterpart of fakeEncoderEngine.
type fakeDecoderEngine struct {
	initStatus   engine.Status
	decodeStatus engine.Status
	decodeFrames uint32

	channels        uint32
	framesPerPacket uint32
	cookie          []byte
	packetBytes     int
	closed          int
}

func (f *fakeDecoderEngine) SetOutputLayout(channels, framesPerPacket uint32) {
	f.channels = channels
	f.framesPerPacket = framesPerPacket
}

func (f *fakeDecoderEngine) Init(cookie []byte) engine.Status {
	f.cookie = cookie

	return f.initStatus
}

func (f *fakeDecoderEngine) Decode(bits *engine.BitBuffer, _ []byte, _, _ uint32) (uint32, engine.Status) {
	f.packetBytes = bits.Len()

	return f.decodeFrames, f.decodeStatus
}

func (f *fakeDecoderEngine) Close() error {
	f.closed++

	return nil
}
