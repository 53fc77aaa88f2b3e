package port

import "context"

// RawFrame is a single decoded frame as packed 8-bit RGB.
type RawFrame struct {
	Pix    []byte
	Width  int
	Height int
}

// Decoder opens a video file and hands back an exclusive handle for it.
type Decoder interface {
	Open(ctx context.Context, path string) (DecoderHandle, error)
}

// DecoderHandle is the per-file decoding surface. A handle is owned by
// exactly one session and must be closed exactly once; operations after
// Close fail rather than touch the backing file.
type DecoderHandle interface {
	Duration() float64
	FrameRate() float64
	Dimensions() (width, height int)

	// Frame returns the nearest decodable frame at the given offset.
	Frame(ctx context.Context, seconds float64) (*RawFrame, error)

	// WriteRange re-encodes exactly [start, end) of the source, audio and
	// video both, into outPath. Cost is proportional to the range length,
	// not the whole file.
	WriteRange(ctx context.Context, start, end float64, outPath, videoCodec, audioCodec string) error

	Close() error
}
