package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/port"
)

// Decoder opens videos through ffprobe/ffmpeg. One Decoder is shared; each
// Open returns an exclusive handle for the file it probed.
type Decoder struct {
	logLevel string
	logger   *zap.Logger
}

func NewDecoder(logLevel string, logger *zap.Logger) *Decoder {
	if logLevel == "" {
		logLevel = "error"
	}
	return &Decoder{logLevel: logLevel, logger: logger}
}

func (d *Decoder) Open(ctx context.Context, path string) (port.DecoderHandle, error) {
	info, err := probe(ctx, path)
	if err != nil {
		return nil, err
	}

	d.logger.Info("video opened",
		zap.String("path", path),
		zap.Float64("duration_secs", info.duration),
		zap.Float64("frame_rate", info.frameRate),
		zap.Int("width", info.width),
		zap.Int("height", info.height),
	)

	return &handle{
		path:     path,
		logLevel: d.logLevel,
		info:     *info,
		logger:   d.logger,
	}, nil
}

type handle struct {
	path     string
	logLevel string
	info     videoInfo
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
}

func (h *handle) Duration() float64  { return h.info.duration }
func (h *handle) FrameRate() float64 { return h.info.frameRate }

func (h *handle) Dimensions() (int, int) { return h.info.width, h.info.height }

func (h *handle) ensureOpen() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("%w: decoder handle closed", entity.ErrNotLoaded)
	}
	return nil
}

// Frame seeks to the given offset and decodes one frame as packed RGB24.
// Seeks at or past the final frame are clamped to it; -ss discards frames
// with earlier timestamps, so seeking to the exact duration would leave
// nothing for vframes to emit.
func (h *handle) Frame(ctx context.Context, seconds float64) (*port.RawFrame, error) {
	if err := h.ensureOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seek := clampSeek(seconds, h.info.duration, h.info.frameRate)

	buf := &bytes.Buffer{}
	err := ffmpeg.
		Input(h.path, ffmpeg.KwArgs{
			"ss":          formatSeconds(seek),
			"hide_banner": "",
			"loglevel":    h.logLevel,
		}).
		Output("pipe:", ffmpeg.KwArgs{
			"vframes": 1,
			"format":  "rawvideo",
			"pix_fmt": "rgb24",
		}).
		WithOutput(buf).
		Run()
	if err != nil {
		return nil, fmt.Errorf("%w: decode frame at %ss: %v", entity.ErrDecode, formatSeconds(seconds), err)
	}

	want := h.info.width * h.info.height * 3
	if buf.Len() < want {
		return nil, fmt.Errorf("%w: short frame at %ss: got %d bytes, want %d",
			entity.ErrDecode, formatSeconds(seconds), buf.Len(), want)
	}

	return &port.RawFrame{
		Pix:    buf.Bytes()[:want],
		Width:  h.info.width,
		Height: h.info.height,
	}, nil
}

// WriteRange re-encodes [start, end) into outPath. The seek happens on the
// input side, so work scales with the range length rather than the file.
func (h *handle) WriteRange(ctx context.Context, start, end float64, outPath, videoCodec, audioCodec string) error {
	if err := h.ensureOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := ffmpeg.
		Input(h.path, ffmpeg.KwArgs{
			"ss":          formatSeconds(start),
			"to":          formatSeconds(end),
			"hide_banner": "",
			"loglevel":    h.logLevel,
		}).
		Output(outPath, ffmpeg.KwArgs{
			"c:v":      videoCodec,
			"c:a":      audioCodec,
			"movflags": "+faststart",
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("%w: export range %s-%s: %v",
			entity.ErrDecode, formatSeconds(start), formatSeconds(end), err)
	}
	return nil
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// clampSeek bounds a seek target to the timestamp of the last frame.
func clampSeek(seconds, duration, frameRate float64) float64 {
	if frameRate <= 0 {
		frameRate = 30
	}
	last := duration - 1/frameRate
	if last < 0 {
		last = 0
	}
	if seconds > last {
		return last
	}
	return seconds
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
