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
	"encoding/json"
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// Configuration record keys.
const (
	KeySampleRate      = "sampleRate"
	KeyChannels        = "channels"
	KeyBitDepth        = "bitDepth"
	KeyFramesPerPacket = "framesPerPacket"
	KeyCookie          = "cookie"
)

// EncoderConfig configures an Encoder.
type EncoderConfig struct {
	// SampleRate is the stream sample rate in Hz.
	SampleRate float64

	// Channels is the interleaved channel count (1 through 8).
	Channels uint32

	// BitDepth selects the source data class. See BitDepth.SourceClass.
	BitDepth BitDepth

	// FramesPerPacket is the frame count of a full packet (default: DefaultFramesPerPacket).
	FramesPerPacket uint32

	// Logger receives construction diagnostics. Nil disables logging.
	Logger *zerolog.Logger
}

// WithDefaults returns a config with default values applied to zero fields.
func (c EncoderConfig) WithDefaults() EncoderConfig {
	if c.FramesPerPacket == 0 {
		c.FramesPerPacket = DefaultFramesPerPacket
	}

	return c
}

// DecoderConfig configures a Decoder.
type DecoderConfig struct {
	// Channels and FramesPerPacket must match the encoder that produced Cookie.
	Channels        uint32
	FramesPerPacket uint32

	// BitDepth is optional. Decoder.MaxOutputBytes uses it when the engine
	// does not report the cookie's bit depth.
	BitDepth BitDepth

	// Cookie is the magic cookie of the encoded stream.
	Cookie []byte

	// Logger receives construction diagnostics. Nil disables logging.
	Logger *zerolog.Logger
}

// Options is a loosely typed configuration record, as received from a host
// environment or decoded from JSON.
type Options map[string]any

// ParseEncoderOptions translates a configuration record into an EncoderConfig.
// sampleRate, channels and bitDepth are required; framesPerPacket defaults.
func ParseEncoderOptions(opts Options) (EncoderConfig, error) {
	var cfg EncoderConfig

	sampleRate, err := opts.number(KeySampleRate, "sample rate")
	if err != nil {
		return EncoderConfig{}, err
	}

	cfg.SampleRate = sampleRate

	if cfg.Channels, err = opts.unsigned(KeyChannels, "channels"); err != nil {
		return EncoderConfig{}, err
	}

	bitDepth, err := opts.unsigned(KeyBitDepth, "bit depth")
	if err != nil {
		return EncoderConfig{}, err
	}

	cfg.BitDepth = BitDepth(bitDepth)

	if _, ok := opts[KeyFramesPerPacket]; ok {
		if cfg.FramesPerPacket, err = opts.unsigned(KeyFramesPerPacket, "frames per packet"); err != nil {
			return EncoderConfig{}, err
		}
	}

	return cfg.WithDefaults(), nil
}

// ParseDecoderOptions translates a configuration record into a DecoderConfig.
// cookie, channels and framesPerPacket are required; bitDepth is optional.
func ParseDecoderOptions(opts Options) (DecoderConfig, error) {
	var cfg DecoderConfig

	cookie, ok := opts[KeyCookie].([]byte)
	if !ok || len(cookie) == 0 {
		return DecoderConfig{}, fmt.Errorf("%w: decoder requires a cookie", ErrConfig)
	}

	cfg.Cookie = cookie

	var err error

	if cfg.Channels, err = opts.unsigned(KeyChannels, "channels"); err != nil {
		return DecoderConfig{}, err
	}

	if cfg.FramesPerPacket, err = opts.unsigned(KeyFramesPerPacket, "frames per packet"); err != nil {
		return DecoderConfig{}, err
	}

	if _, ok := opts[KeyBitDepth]; ok {
		bitDepth, err := opts.unsigned(KeyBitDepth, "bit depth")
		if err != nil {
			return DecoderConfig{}, err
		}

		cfg.BitDepth = BitDepth(bitDepth)
	}

	return cfg, nil
}

// number reads a required numeric field.
func (o Options) number(key, label string) (float64, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("%w: missing %s parameter", ErrConfig, label)
	}

	value, ok := toFloat(raw)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrConfig, label, raw)
	}

	return value, nil
}

// unsigned reads a required non-negative integral field.
func (o Options) unsigned(key, label string) (uint32, error) {
	value, err := o.number(key, label)
	if err != nil {
		return 0, err
	}

	if value < 0 || value > math.MaxUint32 || value != math.Trunc(value) {
		return 0, fmt.Errorf("%w: %s out of range: %v", ErrConfig, label, value)
	}

	return uint32(value), nil
}

//nolint:cyclop // One case per numeric kind.
func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case BitDepth:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	default:
		return 0, false
	}
}

func loggerOrNop(logger *zerolog.Logger) zerolog.Logger {
	if logger == nil {
		return zerolog.Nop()
	}

	return *logger
}
