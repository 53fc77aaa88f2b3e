package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/port"
	"github.com/sgtao/stapp-mpeg4-clipper/pkg/timecode"
)

type SessionOptions struct {
	TempDir    string
	VideoCodec string
	AudioCodec string
}

// VideoSession owns one decoder handle and one temporary backing file for
// one uploaded payload. Both are released exactly once, in that order, by
// Close; every operation on a closed session fails with ErrNotLoaded.
type VideoSession struct {
	id          uuid.UUID
	fingerprint string
	displayName string
	backingPath string
	handle      port.DecoderHandle
	encoder     port.FrameEncoder
	opts        SessionOptions
	logger      *zap.Logger

	mu     sync.Mutex
	closed bool
	meta   entity.Metadata
}

// OpenSession writes the payload to a fresh temp file and opens it through
// the decoder. On any failure the partially created temp file is removed.
func OpenSession(
	ctx context.Context,
	decoder port.Decoder,
	encoder port.FrameEncoder,
	opts SessionOptions,
	fingerprint string,
	filename string,
	payload []byte,
	logger *zap.Logger,
) (*VideoSession, error) {
	if err := os.MkdirAll(opts.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	tmp, err := os.CreateTemp(opts.TempDir, "upload-*.mp4")
	if err != nil {
		return nil, fmt.Errorf("create backing file: %w", err)
	}
	backingPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(backingPath)
		return nil, fmt.Errorf("write backing file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(backingPath)
		return nil, fmt.Errorf("close backing file: %w", err)
	}

	handle, err := decoder.Open(ctx, backingPath)
	if err != nil {
		os.Remove(backingPath)
		return nil, err
	}

	width, height := handle.Dimensions()
	sess := &VideoSession{
		id:          uuid.New(),
		fingerprint: fingerprint,
		displayName: stem(filename),
		backingPath: backingPath,
		handle:      handle,
		encoder:     encoder,
		opts:        opts,
		logger:      logger,
		meta: entity.Metadata{
			Duration:  handle.Duration(),
			FrameRate: handle.FrameRate(),
			Width:     width,
			Height:    height,
		},
	}

	logger.Info("session opened",
		zap.String("session_id", sess.id.String()),
		zap.String("fingerprint", fingerprint),
		zap.String("display_name", sess.displayName),
		zap.Float64("duration_secs", sess.meta.Duration),
	)
	return sess, nil
}

func (s *VideoSession) ID() string          { return s.id.String() }
func (s *VideoSession) Fingerprint() string { return s.fingerprint }
func (s *VideoSession) DisplayName() string { return s.displayName }

func (s *VideoSession) ensureOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: session %s closed", entity.ErrNotLoaded, s.id)
	}
	return nil
}

// Metadata is a pure accessor; no decode work happens here.
func (s *VideoSession) Metadata() (entity.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return entity.Metadata{}, fmt.Errorf("%w: session %s closed", entity.ErrNotLoaded, s.id)
	}
	return s.meta, nil
}

// FrameAt returns the frame nearest to the given offset as PNG, resampled to
// scale of the native dimensions. Same (session, seconds, scale) always
// yields identical bytes.
func (s *VideoSession) FrameAt(ctx context.Context, seconds, scale float64) ([]byte, int, int, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, 0, 0, err
	}
	if seconds < 0 || seconds > s.meta.Duration {
		return nil, 0, 0, fmt.Errorf("%w: %.3fs outside [0, %.3fs]",
			entity.ErrOutOfRange, seconds, s.meta.Duration)
	}

	raw, err := s.handle.Frame(ctx, seconds)
	if err != nil {
		return nil, 0, 0, err
	}
	data, w, h, err := s.encoder.EncodePNG(raw, scale)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("encode frame at %.3fs: %w", seconds, err)
	}
	return data, w, h, nil
}

// ExtractRange re-encodes [start, end) into sink, audio and video included.
func (s *VideoSession) ExtractRange(ctx context.Context, start, end float64, sink io.Writer) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if start < 0 || end > s.meta.Duration || start >= end {
		return fmt.Errorf("%w: [%.3fs, %.3fs) violates 0 <= start < end <= %.3fs",
			entity.ErrInvalidRange, start, end, s.meta.Duration)
	}

	out, err := os.CreateTemp(s.opts.TempDir, "clip-*.mp4")
	if err != nil {
		return fmt.Errorf("create clip file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	if err := s.handle.WriteRange(ctx, start, end, outPath, s.opts.VideoCodec, s.opts.AudioCodec); err != nil {
		return err
	}

	f, err := os.Open(outPath)
	if err != nil {
		return fmt.Errorf("open clip file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(sink, f); err != nil {
		return fmt.Errorf("copy clip to sink: %w", err)
	}
	return nil
}

// Close releases the decoder handle, then removes the backing file. It is
// idempotent and safe to call on a session that never finished opening.
// Cleanup failures are reported but must never block the caller.
func (s *VideoSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.meta = entity.Metadata{}
	s.mu.Unlock()

	var firstErr error
	if s.handle != nil {
		if err := s.handle.Close(); err != nil {
			firstErr = fmt.Errorf("close decoder: %w", err)
			s.logger.Warn("decoder close failed", zap.String("session_id", s.id.String()), zap.Error(err))
		}
	}
	if s.backingPath != "" {
		if err := os.Remove(s.backingPath); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove backing file: %w", err)
			}
			s.logger.Warn("backing file removal failed",
				zap.String("path", s.backingPath), zap.Error(err))
		}
	}
	return firstErr
}

// ScreenshotName derives the download name for a single frame,
// <stem>_<mm-ss>.png.
func (s *VideoSession) ScreenshotName(seconds float64) string {
	return fmt.Sprintf("%s_%s.png", s.displayName, timecode.ForFilename(seconds))
}

// ClipName derives the download name for a range export,
// <stem>_<start>s_to_<end>s.mp4.
func (s *VideoSession) ClipName(start, end float64) string {
	return fmt.Sprintf("%s_%ds_to_%ds.mp4", s.displayName, int(start), int(end))
}

func (s *VideoSession) SelectionCSVName() string {
	return fmt.Sprintf("Selected_Timestamps_%s.csv", s.displayName)
}

func (s *VideoSession) SelectionZipName() string {
	return fmt.Sprintf("Screenshots_%s.zip", s.displayName)
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
