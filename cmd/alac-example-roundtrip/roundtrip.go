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

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	alac "github.com/mycophonic/saprobe-alacbind"
)

var (
	// errMismatch is returned when a decoded packet differs from the PCM that was encoded.
	errMismatch = errors.New("decoded PCM differs from source")

	// errTruncated is returned when a source ends partway through a frame.
	errTruncated = errors.New("source ends mid-frame")
)

// manifest describes an encoded packet stream well enough to decode it elsewhere.
type manifest struct {
	StreamID        string        `json:"stream_id"`
	SampleRate      int           `json:"sample_rate"`
	Channels        uint32        `json:"channels"`
	BitDepth        alac.BitDepth `json:"bit_depth"`
	FramesPerPacket uint32        `json:"frames_per_packet"`
	Cookie          []byte        `json:"cookie"`
	Frames          uint64        `json:"frames"`
	Packets         []packetEntry `json:"packets"`
}

type packetEntry struct {
	Offset int64 `json:"offset"`
	Bytes  int   `json:"bytes"`
	Frames int   `json:"frames"`
}

// roundTrip encodes src packet by packet, decodes every packet again and verifies it
// against the source PCM. Encoded packets are appended to packets when it is not nil.
func roundTrip(src source, framesPerPacket uint32, packets io.Writer, logger *zerolog.Logger) (*manifest, error) {
	format := src.Format()

	enc, err := alac.NewEncoder(alac.EncoderConfig{
		SampleRate:      float64(format.SampleRate),
		Channels:        format.Channels,
		BitDepth:        format.BitDepth,
		FramesPerPacket: framesPerPacket,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	defer enc.Close()

	dec, err := alac.NewDecoder(alac.DecoderConfig{
		Channels:        format.Channels,
		FramesPerPacket: enc.FramesPerPacket(),
		BitDepth:        format.BitDepth,
		Cookie:          enc.Cookie(),
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	defer dec.Close()

	out := &manifest{
		StreamID:        uuid.NewString(),
		SampleRate:      format.SampleRate,
		Channels:        format.Channels,
		BitDepth:        format.BitDepth,
		FramesPerPacket: enc.FramesPerPacket(),
		Cookie:          enc.Cookie(),
	}

	bytesPerFrame := int(format.Channels) * format.BitDepth.BytesPerSample()
	pcm := make([]byte, enc.PacketBytes())
	packet := make([]byte, enc.MaxPacketBytes())
	decoded := make([]byte, dec.MaxOutputBytes())

	var offset int64

	for index := 0; ; index++ {
		n, readErr := io.ReadFull(src, pcm)
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil && !errors.Is(readErr, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("reading packet %d: %w", index, readErr)
		}

		if n%bytesPerFrame != 0 {
			return nil, fmt.Errorf("%w: %d trailing bytes", errTruncated, n%bytesPerFrame)
		}

		size, err := enc.Encode(pcm[:n], packet)
		if err != nil {
			return nil, fmt.Errorf("encoding packet %d: %w", index, err)
		}

		if packets != nil {
			if _, err := packets.Write(packet[:size]); err != nil {
				return nil, fmt.Errorf("writing packet %d: %w", index, err)
			}
		}

		frames, err := dec.Decode(packet[:size], decoded)
		if err != nil {
			return nil, fmt.Errorf("decoding packet %d: %w", index, err)
		}

		if frames*bytesPerFrame != n || !bytes.Equal(decoded[:n], pcm[:n]) {
			return nil, fmt.Errorf("%w: packet %d", errMismatch, index)
		}

		out.Packets = append(out.Packets, packetEntry{Offset: offset, Bytes: size, Frames: frames})
		out.Frames += uint64(frames) //nolint:gosec // frames is bounded by framesPerPacket.
		offset += int64(size)

		logger.Trace().Int("packet", index).Int("bytes", size).Int("frames", frames).Msg("packet verified")

		if readErr != nil {
			break
		}
	}

	stats := enc.Stats()
	logger.Info().
		Str("stream", out.StreamID).
		Uint64("packets", stats.Packets).
		Uint64("frames", stats.Frames).
		Uint64("bytes", stats.Bytes).
		Uint32("max_packet", stats.MaxFrameBytes).
		Uint32("avg_bitrate", stats.AvgBitRate).
		Msg("round trip verified")

	return out, nil
}
