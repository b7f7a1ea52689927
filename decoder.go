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
	"fmt"

	"github.com/mycophonic/saprobe-alacbind/engine"
)

// Decoder expands Apple Lossless packets into interleaved PCM.
//
// Like Encoder, a Decoder carries inter-packet state: packets must be decoded
// in encode order, from one goroutine at a time, and a Decode error leaves the
// remainder of the stream undefined.
type Decoder struct {
	engine          DecoderEngine
	channels        uint32
	framesPerPacket uint32
	bitDepth        BitDepth
	closed          bool
}

// NewDecoder creates a Decoder backed by the bundled ALAC engine.
func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	return NewDecoderWithEngine(cfg, engine.NewDecoder())
}

// NewDecoderFromOptions parses a configuration record and creates a Decoder.
func NewDecoderFromOptions(opts Options) (*Decoder, error) {
	cfg, err := ParseDecoderOptions(opts)
	if err != nil {
		return nil, err
	}

	return NewDecoder(cfg)
}

// NewDecoderWithEngine creates a Decoder driving eng, initialized from cfg.Cookie.
// Construction is atomic: on failure eng is released and no Decoder is returned.
func NewDecoderWithEngine(cfg DecoderConfig, eng DecoderEngine) (*Decoder, error) {
	logger := loggerOrNop(cfg.Logger)

	if len(cfg.Cookie) == 0 {
		_ = release(eng)

		return nil, fmt.Errorf("%w: decoder requires a cookie", ErrConfig)
	}

	if cfg.Channels == 0 || cfg.FramesPerPacket == 0 {
		_ = release(eng)

		return nil, fmt.Errorf("%w: channels and frames per packet must be positive, got %d and %d",
			ErrConfig, cfg.Channels, cfg.FramesPerPacket)
	}

	eng.SetOutputLayout(cfg.Channels, cfg.FramesPerPacket)

	if err := check("initialize decoder", eng.Init(cfg.Cookie)); err != nil {
		_ = release(eng)

		logger.Debug().Err(err).Int("cookie_bytes", len(cfg.Cookie)).Msg("alac decoder initialization failed")

		return nil, err
	}

	bitDepth := cfg.BitDepth
	if configured, ok := eng.(interface{ Config() engine.SpecificConfig }); ok {
		bitDepth = BitDepth(configured.Config().BitDepth)
	}

	logger.Debug().
		Uint32("channels", cfg.Channels).
		Uint32("bit_depth", uint32(bitDepth)).
		Uint32("frames_per_packet", cfg.FramesPerPacket).
		Int("cookie_bytes", len(cfg.Cookie)).
		Msg("alac decoder initialized")

	return &Decoder{
		engine:          eng,
		channels:        cfg.Channels,
		framesPerPacket: cfg.FramesPerPacket,
		bitDepth:        bitDepth,
	}, nil
}

// Channels returns the configured channel count.
func (d *Decoder) Channels() uint32 { return d.channels }

// FramesPerPacket returns the configured full packet frame count.
func (d *Decoder) FramesPerPacket() uint32 { return d.framesPerPacket }

// MaxOutputBytes returns the PCM size of a full packet at the stream's bit depth.
// The depth comes from the engine when it reports its cookie, otherwise from
// DecoderConfig.BitDepth; with neither it assumes 32-bit samples.
func (d *Decoder) MaxOutputBytes() int {
	bytesPerSample := 4
	if d.bitDepth != 0 {
		bytesPerSample = d.bitDepth.BytesPerSample()
	}

	return int(d.framesPerPacket) * int(d.channels) * bytesPerSample
}

// Decode expands the single packet in into out and returns the number of frames
// written. The final packet of a stream may hold fewer than FramesPerPacket frames.
func (d *Decoder) Decode(in, out []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}

	frames, status := d.engine.Decode(engine.NewBitBuffer(in), out, d.framesPerPacket, d.channels)
	if err := check("decode", status); err != nil {
		return 0, err
	}

	return int(frames), nil
}

// Close releases the engine.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}

	d.closed = true

	if err := release(d.engine); err != nil {
		return fmt.Errorf("closing decoder: %w", err)
	}

	return nil
}
