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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	goflac "github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"

	alac "github.com/mycophonic/saprobe-alacbind"
)

var (
	// errBitDepth is returned when a source carries samples ALAC cannot hold.
	errBitDepth = errors.New("unsupported bit depth")

	// errSourceType is returned for inputs whose container cannot be inferred.
	errSourceType = errors.New("unrecognized input type")

	// errReadFailure wraps failures from the underlying container reader.
	errReadFailure = errors.New("read failure")
)

// pcmFormat describes the interleaved little-endian PCM a source produces.
type pcmFormat struct {
	SampleRate int
	BitDepth   alac.BitDepth
	Channels   uint32
}

// source streams interleaved PCM in the layout the ALAC encoder expects.
type source interface {
	io.ReadCloser
	Format() pcmFormat
}

// openSource picks a reader by file extension. raw is used for .pcm and .raw inputs,
// which carry no header of their own.
func openSource(path string, raw pcmFormat) (source, error) {
	file, err := openInput(path)
	if err != nil {
		return nil, err
	}

	var src source

	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		src, err = newFLACSource(file)
	case ".mp3":
		src, err = newMP3Source(file)
	case ".pcm", ".raw":
		src = &rawSource{ReadCloser: file, format: raw}
	default:
		err = fmt.Errorf("%w: %s", errSourceType, path)
	}

	if err != nil {
		_ = file.Close()

		return nil, err
	}

	return src, nil
}

// openInput returns a ReadSeekCloser for the given path, or buffers stdin when path is "-.ext".
func openInput(path string) (readSeekCloser, error) {
	if strings.TrimSuffix(path, filepath.Ext(path)) == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		return nopCloser{bytes.NewReader(data)}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	return file, nil
}

type readSeekCloser interface {
	io.ReadSeeker
	io.Closer
}

type nopCloser struct{ io.ReadSeeker }

func (nopCloser) Close() error { return nil }

type rawSource struct {
	io.ReadCloser
	format pcmFormat
}

func (r *rawSource) Format() pcmFormat { return r.format }

// flacSource streams decoded PCM from a FLAC container.
type flacSource struct {
	file      io.Closer
	stream    *goflac.Stream
	format    pcmFormat
	nChannels int

	// Per-frame buffer: filled by ParseNext + interleave, drained by Read.
	buf    []byte
	bufOff int
	eof    bool
}

func newFLACSource(file readSeekCloser) (*flacSource, error) {
	stream, err := goflac.New(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errReadFailure, err)
	}

	info := stream.Info

	bitDepth := alac.BitDepth(info.BitsPerSample)
	switch bitDepth {
	case alac.Depth16, alac.Depth20, alac.Depth24, alac.Depth32:
	default:
		_ = stream.Close()

		return nil, fmt.Errorf("%w: %d-bit FLAC", errBitDepth, info.BitsPerSample)
	}

	return &flacSource{
		file:      file,
		stream:    stream,
		nChannels: int(info.NChannels),
		format: pcmFormat{
			SampleRate: int(info.SampleRate),
			BitDepth:   bitDepth,
			Channels:   uint32(info.NChannels),
		},
	}, nil
}

func (s *flacSource) Format() pcmFormat { return s.format }

func (s *flacSource) Read(p []byte) (int, error) { //nolint:varnamelen // p is idiomatic for io.Reader.Read
	total := 0

	for len(p) > 0 {
		if s.bufOff < len(s.buf) {
			n := copy(p, s.buf[s.bufOff:])
			s.bufOff += n
			total += n
			p = p[n:]

			continue
		}

		if s.eof {
			break
		}

		audioFrame, parseErr := s.stream.ParseNext()
		if errors.Is(parseErr, io.EOF) {
			s.eof = true

			break
		}

		if parseErr != nil {
			return total, fmt.Errorf("%w: %w", errReadFailure, parseErr)
		}

		blockSize := int(audioFrame.BlockSize)
		frameBytes := blockSize * s.nChannels * s.format.BitDepth.BytesPerSample()

		if cap(s.buf) < frameBytes {
			s.buf = make([]byte, frameBytes)
		} else {
			s.buf = s.buf[:frameBytes]
		}

		interleaveSubframes(s.buf, audioFrame.Subframes, blockSize, s.format.BitDepth)
		s.bufOff = 0
	}

	if total == 0 && s.eof {
		return 0, io.EOF
	}

	return total, nil
}

func (s *flacSource) Close() error {
	streamErr := s.stream.Close()

	// The stream may already have closed the file.
	fileErr := s.file.Close()
	if errors.Is(fileErr, os.ErrClosed) {
		fileErr = nil
	}

	if err := errors.Join(streamErr, fileErr); err != nil {
		return fmt.Errorf("closing flac stream: %w", err)
	}

	return nil
}

// interleaveSubframes writes FLAC subframe samples into dst as interleaved little-endian PCM.
// 20-bit samples are left-justified in their 3-byte containers.
func interleaveSubframes(dst []byte, subframes []*frame.Subframe, blockSize int, depth alac.BitDepth) {
	width := depth.BytesPerSample()
	pos := 0

	for i := range blockSize {
		for _, sub := range subframes {
			sample := sub.Samples[i]

			switch depth {
			case alac.Depth16:
				//nolint:gosec // G115: intentional int32→uint16 truncation.
				binary.LittleEndian.PutUint16(dst[pos:], uint16(sample))
			case alac.Depth20, alac.Depth24:
				if depth == alac.Depth20 {
					sample <<= 4
				}

				dst[pos] = byte(sample)
				dst[pos+1] = byte(sample >> 8)
				dst[pos+2] = byte(sample >> 16)
			default:
				//nolint:gosec // G115: intentional int32→uint32 reinterpretation.
				binary.LittleEndian.PutUint32(dst[pos:], uint32(sample))
			}

			pos += width
		}
	}
}

// mp3Source exposes go-mp3 output, which is always 16-bit stereo.
type mp3Source struct {
	file    io.Closer
	decoder *mp3.Decoder
}

func newMP3Source(file readSeekCloser) (*mp3Source, error) {
	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errReadFailure, err)
	}

	return &mp3Source{file: file, decoder: decoder}, nil
}

func (s *mp3Source) Format() pcmFormat {
	return pcmFormat{SampleRate: s.decoder.SampleRate(), BitDepth: alac.Depth16, Channels: 2}
}

func (s *mp3Source) Read(p []byte) (int, error) {
	n, err := s.decoder.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: %w", errReadFailure, err)
	}

	return n, err //nolint:wrapcheck // io.EOF must pass through unwrapped.
}

func (s *mp3Source) Close() error { return s.file.Close() }
