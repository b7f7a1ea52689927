package alac

import "github.com/mycophonic/saprobe-alacbind/engine"

// BitDepth represents the bit depth of PCM audio samples.
type BitDepth uint32

// Bit depths the codec recognizes. Any other value is encoded as 16-bit source data.
const (
	Depth16 BitDepth = 16
	Depth20 BitDepth = 20
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// BytesPerSample returns the PCM container width of one sample.
// 20-bit samples are stored in 3 bytes (left-justified in a 24-bit word).
// Unrecognized depths use the 16-bit container they are encoded with.
func (d BitDepth) BytesPerSample() int {
	switch d {
	case Depth20, Depth24:
		return 3
	case Depth32:
		return 4
	default:
		return 2
	}
}

// SourceClass returns the output format flags for the bit depth.
// 16 and every unrecognized value share the 16-bit class.
func (d BitDepth) SourceClass() engine.FormatFlags {
	switch d {
	case Depth20:
		return engine.FormatFlag20BitSourceData
	case Depth24:
		return engine.FormatFlag24BitSourceData
	case Depth32:
		return engine.FormatFlag32BitSourceData
	default:
		return engine.FormatFlag16BitSourceData
	}
}

// AudioFormat is an immutable audio format descriptor exchanged with the engine.
type AudioFormat = engine.AudioFormatDescription

// Format identifiers.
const (
	FormatLinearPCM     = engine.FormatLinearPCM
	FormatAppleLossless = engine.FormatAppleLossless
)

const (
	// DefaultFramesPerPacket is the recommended packet size in frames.
	DefaultFramesPerPacket = engine.DefaultFramesPerPacket

	// MaxEscapeHeaderBytes is the header overhead to add when sizing encode output buffers.
	MaxEscapeHeaderBytes = engine.MaxEscapeHeaderBytes
)

// BuildFormats resolves the PCM input and Apple Lossless output descriptors for cfg.
// It has no side effects and does not validate; the engine rejects bad values.
func BuildFormats(cfg EncoderConfig) (input, output AudioFormat) {
	bytesPerFrame := cfg.Channels * (uint32(cfg.BitDepth) >> 3)

	input = AudioFormat{
		SampleRate:       cfg.SampleRate,
		FormatID:         FormatLinearPCM,
		FramesPerPacket:  1,
		BytesPerPacket:   bytesPerFrame,
		BytesPerFrame:    bytesPerFrame,
		ChannelsPerFrame: cfg.Channels,
		BitsPerChannel:   uint32(cfg.BitDepth),
	}

	// Zero byte sizes: the compressed side is variable bit rate.
	output = AudioFormat{
		SampleRate:       cfg.SampleRate,
		FormatID:         FormatAppleLossless,
		FormatFlags:      cfg.BitDepth.SourceClass(),
		FramesPerPacket:  cfg.FramesPerPacket,
		ChannelsPerFrame: cfg.Channels,
	}

	return input, output
}
