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
	"errors"
	"fmt"
)

var (
	// ErrInvalidCookie is returned when a magic cookie is too short or malformed.
	ErrInvalidCookie = errors.New("invalid magic cookie")

	// ErrUnsupportedVersion is returned for cookies with a non-zero compatible version.
	ErrUnsupportedVersion = errors.New("unsupported cookie version")
)

const (
	configSize      = 24 // ALACSpecificConfig binary size.
	atomHeaderSize  = 12 // MPEG4 atom header: size (4) + type (4) + payload (4).
	channelAtomSize = 12 // 'chan' atom header: size (4) + type (4) + version/flags (4).
	channelLayout   = 12 // ALACAudioChannelLayout: tag (4) + bitmap (4) + descriptions (4).

	defaultPB     = 40
	defaultMB     = 10
	defaultKB     = 14
	defaultMaxRun = 255
)

//nolint:gochecknoglobals
var channelLayoutTags = [MaxChannels]uint32{
	100<<16 | 1, // Mono
	101<<16 | 2, // Stereo
	113<<16 | 3, // MPEG_3_0_B
	116<<16 | 4, // MPEG_4_0_B
	120<<16 | 5, // MPEG_5_0_D
	124<<16 | 6, // MPEG_5_1_D
	142<<16 | 7, // AAC_6_1
	127<<16 | 8, // MPEG_7_1_B
}

// SpecificConfig is the ALACSpecificConfig carried by a magic cookie.
type SpecificConfig struct {
	FrameLength       uint32
	CompatibleVersion uint8
	BitDepth          uint8
	PB                uint8
	MB                uint8
	KB                uint8
	NumChannels       uint8
	MaxRun            uint16
	MaxFrameBytes     uint32
	AvgBitRate        uint32
	SampleRate        uint32
}

// CookieSize returns the magic cookie size for a channel count.
// Layouts above stereo carry a trailing 'chan' atom.
func CookieSize(numChannels uint32) uint32 {
	if numChannels > 2 {
		return configSize + channelAtomSize + channelLayout
	}

	return configSize
}

// AppendCookie appends the binary magic cookie for cfg to dst.
func AppendCookie(dst []byte, cfg SpecificConfig) []byte {
	dst = binary.BigEndian.AppendUint32(dst, cfg.FrameLength)
	dst = append(dst, cfg.CompatibleVersion, cfg.BitDepth, cfg.PB, cfg.MB, cfg.KB, cfg.NumChannels)
	dst = binary.BigEndian.AppendUint16(dst, cfg.MaxRun)
	dst = binary.BigEndian.AppendUint32(dst, cfg.MaxFrameBytes)
	dst = binary.BigEndian.AppendUint32(dst, cfg.AvgBitRate)
	dst = binary.BigEndian.AppendUint32(dst, cfg.SampleRate)

	if cfg.NumChannels <= 2 || int(cfg.NumChannels) > MaxChannels {
		return dst
	}

	dst = binary.BigEndian.AppendUint32(dst, channelAtomSize+channelLayout)
	dst = append(dst, 'c', 'h', 'a', 'n')
	dst = binary.BigEndian.AppendUint32(dst, 0)
	dst = binary.BigEndian.AppendUint32(dst, channelLayoutTags[cfg.NumChannels-1])
	dst = binary.BigEndian.AppendUint32(dst, 0)
	dst = binary.BigEndian.AppendUint32(dst, 0)

	return dst
}

// ParseCookie reads an ALACSpecificConfig from a magic cookie byte slice.
// Handles legacy wrappers ('frma' and 'alac' atoms).
func ParseCookie(cookie []byte) (SpecificConfig, error) {
	data := cookie

	// Skip 'frma' atom if present: [size:4][type:'frma'][format:'alac']
	if len(data) >= atomHeaderSize && string(data[4:8]) == "frma" {
		data = data[atomHeaderSize:]
	}

	// Skip 'alac' atom header if present: [size:4][type:'alac'][version:4]
	if len(data) >= atomHeaderSize && string(data[4:8]) == "alac" {
		data = data[atomHeaderSize:]
	}

	if len(data) < configSize {
		return SpecificConfig{}, fmt.Errorf("%w: %d bytes", ErrInvalidCookie, len(data))
	}

	if data[4] > 0 {
		return SpecificConfig{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[4])
	}

	return SpecificConfig{
		FrameLength:       binary.BigEndian.Uint32(data[0:4]),
		CompatibleVersion: data[4],
		BitDepth:          data[5],
		PB:                data[6],
		MB:                data[7],
		KB:                data[8],
		NumChannels:       data[9],
		MaxRun:            binary.BigEndian.Uint16(data[10:12]),
		MaxFrameBytes:     binary.BigEndian.Uint32(data[12:16]),
		AvgBitRate:        binary.BigEndian.Uint32(data[16:20]),
		SampleRate:        binary.BigEndian.Uint32(data[20:24]),
	}, nil
}
