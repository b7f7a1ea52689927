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
	"bytes"
	"fmt"

	"github.com/mycophonic/saprobe-alacbind/engine"
)

// Encoder compresses interleaved PCM packets into Apple Lossless packets.
//
// Packets carry inter-packet state and must be submitted in stream order.
// An Encoder must not be used from more than one goroutine at a time.
// After an Encode error the rest of the stream is unusable; discard the Encoder.
type Encoder struct {
	engine EncoderEngine
	input  AudioFormat
	output AudioFormat
	cookie []byte
	closed bool
}

// NewEncoder creates an Encoder backed by the bundled ALAC engine.
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	return NewEncoderWithEngine(cfg, engine.NewEncoder())
}

// NewEncoderFromOptions parses a configuration record and creates an Encoder.
func NewEncoderFromOptions(opts Options) (*Encoder, error) {
	cfg, err := ParseEncoderOptions(opts)
	if err != nil {
		return nil, err
	}

	return NewEncoder(cfg)
}

// NewEncoderWithEngine creates an Encoder driving eng. Construction is atomic:
// on failure eng is released and no Encoder is returned.
func NewEncoderWithEngine(cfg EncoderConfig, eng EncoderEngine) (*Encoder, error) {
	logger := loggerOrNop(cfg.Logger)
	input, output := BuildFormats(cfg.WithDefaults())

	eng.SetFrameSize(output.FramesPerPacket)

	if err := check("initialize encoder", eng.InitializeEncoder(output)); err != nil {
		_ = release(eng)

		logger.Debug().Err(err).Msg("alac encoder initialization failed")

		return nil, err
	}

	size := eng.MagicCookieSize(output.ChannelsPerFrame)
	cookie := make([]byte, size)

	if written := eng.MagicCookie(cookie); written != size {
		_ = release(eng)

		return nil, fmt.Errorf("%w: magic cookie: engine wrote %d of %d bytes", ErrUnknown, written, size)
	}

	logger.Debug().
		Float64("sample_rate", output.SampleRate).
		Uint32("channels", output.ChannelsPerFrame).
		Uint32("bit_depth", input.BitsPerChannel).
		Uint32("format_flags", uint32(output.FormatFlags)).
		Uint32("frames_per_packet", output.FramesPerPacket).
		Int("cookie_bytes", len(cookie)).
		Msg("alac encoder initialized")

	return &Encoder{
		engine: eng,
		input:  input,
		output: output,
		cookie: cookie,
	}, nil
}

// Cookie returns a copy of the magic cookie captured at construction.
func (e *Encoder) Cookie() []byte { return bytes.Clone(e.cookie) }

// InputFormat returns the PCM input descriptor.
func (e *Encoder) InputFormat() AudioFormat { return e.input }

// OutputFormat returns the Apple Lossless output descriptor.
func (e *Encoder) OutputFormat() AudioFormat { return e.output }

// FramesPerPacket returns the frame count of a full packet.
func (e *Encoder) FramesPerPacket() uint32 { return e.output.FramesPerPacket }

// PacketBytes returns the PCM size of a full input packet.
func (e *Encoder) PacketBytes() int {
	bytesPerSample := BitDepth(e.input.BitsPerChannel).BytesPerSample()

	return int(e.input.ChannelsPerFrame) * bytesPerSample * int(e.output.FramesPerPacket)
}

// MaxPacketBytes returns an output buffer size sufficient for any packet of up
// to PacketBytes input: the PCM size plus escape header room per channel element.
func (e *Encoder) MaxPacketBytes() int {
	return e.PacketBytes() + engine.ElementCount(e.output.ChannelsPerFrame)*MaxEscapeHeaderBytes
}

// Encode compresses one packet from in into out and returns the number of bytes written.
// out must hold MaxPacketBytes; in must not exceed PacketBytes. An empty packet writes nothing.
func (e *Encoder) Encode(in, out []byte) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}

	written, status := e.engine.Encode(e.input, e.output, in, out)
	if err := check("encode", status); err != nil {
		return 0, err
	}

	return written, nil
}

// Stats returns the engine's running totals when the engine reports them.
func (e *Encoder) Stats() engine.EncoderStats {
	if reporter, ok := e.engine.(interface{ Stats() engine.EncoderStats }); ok {
		return reporter.Stats()
	}

	return engine.EncoderStats{}
}

// Close releases the engine. Finishing the stream needs no flush.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}

	e.closed = true

	if err := release(e.engine); err != nil {
		return fmt.Errorf("closing encoder: %w", err)
	}

	return nil
}
