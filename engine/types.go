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

// Package engine is the Apple Lossless codec engine driven by the alac binding.
//
// It exposes the procedural contract of the reference codec: frame size
// configuration, encoder initialization from an output format description,
// magic cookie generation, and per-packet encode/decode returning integer
// status codes. Frames are written in the ALAC escape (uncompressed) form,
// which every conforming ALAC decoder accepts.
package engine

// Status is an engine result code. Values match the reference codec.
type Status int32

// Engine result codes.
const (
	StatusOK            Status = 0
	StatusUnimplemented Status = -4
	StatusFileNotFound  Status = -43
	StatusParamError    Status = -50
	StatusMemFullError  Status = -108
)

// FormatID identifies the payload of an AudioFormatDescription.
type FormatID uint32

// Format identifiers (four-character codes).
const (
	FormatAppleLossless FormatID = 'a'<<24 | 'l'<<16 | 'a'<<8 | 'c'
	FormatLinearPCM     FormatID = 'l'<<24 | 'p'<<16 | 'c'<<8 | 'm'
)

func (f FormatID) String() string {
	return string([]byte{byte(f >> 24), byte(f >> 16), byte(f >> 8), byte(f)})
}

// FormatFlags carry the source bit depth class of an Apple Lossless description.
type FormatFlags uint32

// Source data classes for Apple Lossless output descriptions.
const (
	FormatFlag16BitSourceData FormatFlags = 1
	FormatFlag20BitSourceData FormatFlags = 2
	FormatFlag24BitSourceData FormatFlags = 3
	FormatFlag32BitSourceData FormatFlags = 4
)

// BitDepth returns the sample size encoded by the class.
// Unknown classes report 0.
func (f FormatFlags) BitDepth() uint32 {
	switch f {
	case FormatFlag16BitSourceData:
		return 16
	case FormatFlag20BitSourceData:
		return 20
	case FormatFlag24BitSourceData:
		return 24
	case FormatFlag32BitSourceData:
		return 32
	default:
		return 0
	}
}

// AudioFormatDescription describes one side of an encode or decode call.
type AudioFormatDescription struct {
	SampleRate       float64
	FormatID         FormatID
	FormatFlags      FormatFlags
	BytesPerPacket   uint32
	FramesPerPacket  uint32
	BytesPerFrame    uint32
	ChannelsPerFrame uint32
	BitsPerChannel   uint32
	Reserved         uint32
}

const (
	// DefaultFramesPerPacket is the frame count of a full ALAC packet.
	DefaultFramesPerPacket = 4096

	// MaxEscapeHeaderBytes bounds the per-packet header overhead of an escape frame.
	MaxEscapeHeaderBytes = 8

	// MaxChannels is the largest channel count the element map covers.
	MaxChannels = 8

	// MaxSampleSize is the largest supported sample size in bits.
	MaxSampleSize = 32

	// maxScratchBytes caps per-instance buffers; larger requests report StatusMemFullError.
	maxScratchBytes = 1 << 28
)

// Syntactic element tags.
const (
	idSCE = 0 // single channel element
	idCPE = 1 // channel pair element
	idCCE = 2 // coupling channel element
	idLFE = 3 // LFE channel element
	idDSE = 4 // data stream element
	idPCE = 5 // program config element
	idFIL = 6 // fill element
	idEND = 7 // frame end
)

//nolint:gochecknoglobals
var channelMaps = [MaxChannels][]uint8{
	{idSCE},
	{idCPE},
	{idSCE, idCPE},
	{idSCE, idCPE, idSCE},
	{idSCE, idCPE, idCPE},
	{idSCE, idCPE, idCPE, idSCE},
	{idSCE, idCPE, idCPE, idSCE, idSCE},
	{idSCE, idCPE, idCPE, idCPE, idSCE},
}

// containerBytes returns the PCM container width for a stream bit depth.
func containerBytes(bitDepth uint32) int {
	switch bitDepth {
	case 16:
		return 2
	case 20, 24:
		return 3
	case 32:
		return 4
	default:
		return 0
	}
}

// ElementCount returns the number of channel elements in a packet for a channel count.
func ElementCount(numChannels uint32) int {
	if numChannels == 0 || numChannels > MaxChannels {
		return 0
	}

	return len(channelMaps[numChannels-1])
}
