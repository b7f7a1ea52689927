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

// alac-example-roundtrip encodes an audio file to ALAC packets, decodes them again and
// verifies the result is bit-exact.
//
// Usage:
//
//	alac-example-roundtrip [-frames n] [-out packets.alac] [-manifest stream.json] <input.{flac,mp3,pcm} | -.ext>
//
// Raw .pcm input is described with -rate, -channels and -bits. The log level is read from LOG_LEVEL.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	alac "github.com/mycophonic/saprobe-alacbind"
	"github.com/mycophonic/saprobe-alacbind/version"
)

var errFramesPerPacket = errors.New("frames per packet out of range")

type options struct {
	input           string
	framesPerPacket uint
	packetsPath     string
	manifestPath    string
	raw             pcmFormat
}

func main() {
	var (
		opts     options
		channels uint
		bits     uint
	)

	showVersion := flag.Bool("version", false, "print version and exit")
	flag.UintVar(&opts.framesPerPacket, "frames", alac.DefaultFramesPerPacket, "frames per ALAC packet")
	flag.StringVar(&opts.packetsPath, "out", "", "write encoded packets to this file")
	flag.StringVar(&opts.manifestPath, "manifest", "", "write a JSON stream manifest to this file")
	flag.IntVar(&opts.raw.SampleRate, "rate", 44100, "sample rate of raw PCM input")
	flag.UintVar(&channels, "channels", 2, "channel count of raw PCM input")
	flag.UintVar(&bits, "bits", 16, "bit depth of raw PCM input")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input.{flac,mp3,pcm} | -.ext>\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Fprintln(os.Stdout, version.String())
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	opts.input = flag.Arg(0)
	opts.raw.Channels = uint32(channels)    //nolint:gosec // validated by the encoder.
	opts.raw.BitDepth = alac.BitDepth(bits) //nolint:gosec // validated by the encoder.

	logger := newLogger(os.Stderr, os.Getenv("LOG_LEVEL"))

	if err := run(opts, &logger); err != nil {
		logger.Error().Err(err).Str("input", opts.input).Msg("round trip failed")
		os.Exit(1)
	}
}

// newLogger returns a console logger at the named level, defaulting to info.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger()
}

func run(opts options, logger *zerolog.Logger) error {
	if opts.framesPerPacket > math.MaxUint32 {
		return fmt.Errorf("%w: -frames %d", errFramesPerPacket, opts.framesPerPacket)
	}

	src, err := openSource(opts.input, opts.raw)
	if err != nil {
		return err
	}
	defer src.Close()

	format := src.Format()
	logger.Info().
		Int("rate", format.SampleRate).
		Uint32("channels", format.Channels).
		Uint32("bits", uint32(format.BitDepth)).
		Msg("source opened")

	var (
		packets io.Writer
		file    *os.File
	)

	if opts.packetsPath != "" {
		file, err = os.Create(opts.packetsPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.packetsPath, err)
		}

		packets = file
	}

	result, err := roundTrip(src, uint32(opts.framesPerPacket), packets, logger) //nolint:gosec // range checked above.

	if file != nil {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", opts.packetsPath, closeErr)
		}
	}

	if err != nil {
		return err
	}

	if opts.manifestPath == "" {
		return nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := os.WriteFile(opts.manifestPath, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	return nil
}
