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
	"errors"
	"testing"

	alac "github.com/mycophonic/saprobe-alacbind"
	"github.com/mycophonic/saprobe-alacbind/engine"
)

func TestNewDecoderDrivesEngine(t *testing.T) {
	t.Parallel()

	fake := &fakeDecoderEngine{decodeFrames: 7}
	cookie := []byte{9, 8, 7}

	dec, err := alac.NewDecoderWithEngine(alac.DecoderConfig{Channels: 2, FramesPerPacket: 352, Cookie: cookie}, fake)
	if err != nil {
		t.Fatalf("NewDecoderWithEngine: %v", err)
	}

	if fake.channels != 2 || fake.framesPerPacket != 352 || len(fake.cookie) != 3 {
		t.Errorf("engine layout %d/%d, cookie % x", fake.channels, fake.framesPerPacket, fake.cookie)
	}

	frames, err := dec.Decode(make([]byte, 11), make([]byte, 64))
	if err != nil || frames != 7 {
		t.Errorf("Decode() = %d, %v", frames, err)
	}

	if fake.packetBytes != 11 {
		t.Errorf("engine saw a %d byte packet, want 11", fake.packetBytes)
	}
}

func TestNewDecoderReleasesEngineOnFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeDecoderEngine{initStatus: engine.StatusMemFullError}

	dec, err := alac.NewDecoderWithEngine(alac.DecoderConfig{Channels: 2, FramesPerPacket: 4096, Cookie: []byte{1}}, fake)
	if dec != nil || !errors.Is(err, alac.ErrOutOfMemory) {
		t.Errorf("dec=%v err=%v, want nil session and ErrOutOfMemory", dec, err)
	}

	if fake.closed != 1 {
		t.Errorf("engine closed %d times, want 1", fake.closed)
	}
}

func TestNewDecoderRequiresCookie(t *testing.T) {
	t.Parallel()

	fake := &fakeDecoderEngine{}

	if _, err := alac.NewDecoderWithEngine(alac.DecoderConfig{Channels: 2, FramesPerPacket: 4096}, fake); !errors.Is(err, alac.ErrConfig) {
		t.Errorf("err = %v, want ErrConfig", err)
	}

	if fake.cookie != nil {
		t.Error("engine initialized without a cookie")
	}
}

func TestNewDecoderRejectsZeroLayout(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name                      string
		channels, framesPerPacket uint32
	}{
		{"zero_channels", 0, 4096},
		{"zero_frames", 2, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeDecoderEngine{}
			cfg := alac.DecoderConfig{Channels: tc.channels, FramesPerPacket: tc.framesPerPacket, Cookie: []byte{1}}

			dec, err := alac.NewDecoderWithEngine(cfg, fake)
			if dec != nil || !errors.Is(err, alac.ErrConfig) {
				t.Errorf("dec=%v err=%v, want nil session and ErrConfig", dec, err)
			}

			if fake.cookie != nil {
				t.Error("engine initialized with a zero layout")
			}

			if fake.closed != 1 {
				t.Errorf("engine closed %d times, want 1", fake.closed)
			}
		})
	}
}

func TestNewDecoderFromOptionsRejectsZeroFrames(t *testing.T) {
	t.Parallel()

	enc, err := alac.NewEncoder(stereoConfig())
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	dec, err := alac.NewDecoderFromOptions(alac.Options{
		alac.KeyCookie:          enc.Cookie(),
		alac.KeyChannels:        2,
		alac.KeyFramesPerPacket: 0,
	})
	if dec != nil || !errors.Is(err, alac.ErrConfig) {
		t.Errorf("dec=%v err=%v, want nil session and ErrConfig", dec, err)
	}
}

func TestDecoderCookieChannelMismatch(t *testing.T) {
	t.Parallel()

	enc, err := alac.NewEncoder(stereoConfig())
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	for _, channels := range []uint32{1, 3, 8} {
		dec, err := alac.NewDecoder(alac.DecoderConfig{
			Channels:        channels,
			FramesPerPacket: alac.DefaultFramesPerPacket,
			Cookie:          enc.Cookie(),
		})
		if dec != nil {
			t.Errorf("%dch: decoder constructed from a stereo cookie", channels)
		}

		if !errors.Is(err, alac.ErrInvalidParameter) {
			t.Errorf("%dch: err = %v, want ErrInvalidParameter", channels, err)
		}
	}
}

func TestDecoderGarbageCookie(t *testing.T) {
	t.Parallel()

	_, err := alac.NewDecoder(alac.DecoderConfig{Channels: 2, FramesPerPacket: 4096, Cookie: []byte("not a cookie")})
	if !errors.Is(err, alac.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
}

func TestDecoderDecodeFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeDecoderEngine{decodeStatus: engine.StatusParamError, decodeFrames: 5}

	dec, err := alac.NewDecoderWithEngine(alac.DecoderConfig{Channels: 2, FramesPerPacket: 4096, Cookie: []byte{1}}, fake)
	if err != nil {
		t.Fatalf("NewDecoderWithEngine: %v", err)
	}

	frames, err := dec.Decode([]byte{1, 2}, make([]byte, 16))
	if frames != 0 || !errors.Is(err, alac.ErrInvalidParameter) {
		t.Errorf("Decode() = %d, %v", frames, err)
	}
}

func TestDecoderMaxOutputBytes(t *testing.T) {
	t.Parallel()

	fake := &fakeDecoderEngine{}

	dec, err := alac.NewDecoderWithEngine(alac.DecoderConfig{Channels: 2, FramesPerPacket: 4096, Cookie: []byte{1}}, fake)
	if err != nil {
		t.Fatalf("NewDecoderWithEngine: %v", err)
	}

	if got := dec.MaxOutputBytes(); got != 4096*2*4 {
		t.Errorf("MaxOutputBytes() without bit depth = %d", got)
	}

	dec, err = alac.NewDecoderWithEngine(alac.DecoderConfig{Channels: 2, FramesPerPacket: 4096, BitDepth: 16, Cookie: []byte{1}}, fake)
	if err != nil {
		t.Fatalf("NewDecoderWithEngine: %v", err)
	}

	if got := dec.MaxOutputBytes(); got != 4096*2*2 {
		t.Errorf("MaxOutputBytes() at 16-bit = %d", got)
	}
}

func TestDecoderClose(t *testing.T) {
	t.Parallel()

	fake := &fakeDecoderEngine{}

	dec, err := alac.NewDecoderWithEngine(alac.DecoderConfig{Channels: 2, FramesPerPacket: 4096, Cookie: []byte{1}}, fake)
	if err != nil {
		t.Fatalf("NewDecoderWithEngine: %v", err)
	}

	if err := dec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := dec.Decode([]byte{1}, make([]byte, 16)); !errors.Is(err, alac.ErrClosed) {
		t.Errorf("Decode after Close: err = %v, want ErrClosed", err)
	}

	if fake.closed != 1 {
		t.Errorf("engine closed %d times, want 1", fake.closed)
	}
}

func TestDecoderMaxOutputBytesFollowsCookie(t *testing.T) {
	t.Parallel()

	cfg := stereoConfig()
	cfg.BitDepth = alac.Depth24

	enc, err := alac.NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	// The declared depth disagrees with the cookie; the cookie wins.
	dec, err := alac.NewDecoder(alac.DecoderConfig{
		Channels:        2,
		FramesPerPacket: alac.DefaultFramesPerPacket,
		BitDepth:        alac.Depth16,
		Cookie:          enc.Cookie(),
	})
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	if got, want := dec.MaxOutputBytes(), enc.PacketBytes(); got != want {
		t.Fatalf("MaxOutputBytes() = %d, want %d", got, want)
	}

	packet := make([]byte, enc.MaxPacketBytes())

	n, err := enc.Encode(make([]byte, enc.PacketBytes()), packet)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	frames, err := dec.Decode(packet[:n], make([]byte, dec.MaxOutputBytes()))
	if err != nil || frames != alac.DefaultFramesPerPacket {
		t.Errorf("Decode() = %d, %v", frames, err)
	}
}
