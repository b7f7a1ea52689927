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

package alac

import (
	"io"

	"github.com/mycophonic/saprobe-alacbind/engine"
)

// EncoderEngine is the codec engine contract driven by an Encoder.
// Implementations that also satisfy io.Closer are closed when the session
// fails to construct or is closed.
type EncoderEngine interface {
	SetFrameSize(framesPerPacket uint32)
	InitializeEncoder(output AudioFormat) engine.Status
	MagicCookieSize(numChannels uint32) uint32
	MagicCookie(dst []byte) uint32
	Encode(input, output AudioFormat, src, dst []byte) (int, engine.Status)
}

// DecoderEngine is the codec engine contract driven by a Decoder.
type DecoderEngine interface {
	SetOutputLayout(channels, framesPerPacket uint32)
	Init(cookie []byte) engine.Status
	Decode(bits *engine.BitBuffer, dst []byte, framesPerPacket, channels uint32) (uint32, engine.Status)
}

var (
	_ EncoderEngine = (*engine.Encoder)(nil)
	_ DecoderEngine = (*engine.Decoder)(nil)
)

// release closes the engine if it holds resources.
func release(eng any) error {
	if closer, ok := eng.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
