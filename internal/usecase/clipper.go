package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/port"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/infra/metrics"
	"github.com/sgtao/stapp-mpeg4-clipper/pkg/timecode"
)

// ClipperService drives the whole interactive flow: admit uploads, serve
// frames and clips, accumulate the selection and hand it to the export
// writers. It wires the replacement hook so minute shards and the ledger
// never survive the session they were built from.
type ClipperService struct {
	cache  *SessionCache
	batch  *BatchExtractor
	ledger *SelectionLedger
	zipper port.Zipper
	rows   port.RowWriter
	logger *zap.Logger

	minFrameScale float64
}

func NewClipperService(
	cache *SessionCache,
	batch *BatchExtractor,
	ledger *SelectionLedger,
	zipper port.Zipper,
	rows port.RowWriter,
	minFrameScale float64,
	logger *zap.Logger,
) *ClipperService {
	svc := &ClipperService{
		cache:         cache,
		batch:         batch,
		ledger:        ledger,
		zipper:        zipper,
		rows:          rows,
		minFrameScale: minFrameScale,
		logger:        logger,
	}
	cache.OnReplace(func() {
		batch.Reset()
		ledger.Clear()
	})
	return svc
}

type UploadResult struct {
	SessionID   string
	Fingerprint string
	DisplayName string
	Cached      bool
	Metadata    entity.Metadata
}

// Upload admits the payload into the session cache.
func (s *ClipperService) Upload(ctx context.Context, payload []byte, filename string) (*UploadResult, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ClipperService.Upload")
	defer span.End()

	timer := time.Now()
	sess, cached, err := s.cache.Admit(ctx, payload, filename)
	if err != nil {
		return nil, err
	}
	meta, err := sess.Metadata()
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("session.fingerprint", sess.Fingerprint()),
		attribute.Bool("session.cached", cached),
	)
	metrics.OperationDuration.WithLabelValues("upload").Observe(time.Since(timer).Seconds())

	return &UploadResult{
		SessionID:   sess.ID(),
		Fingerprint: sess.Fingerprint(),
		DisplayName: sess.DisplayName(),
		Cached:      cached,
		Metadata:    meta,
	}, nil
}

// Evict drops the current session, mirroring the upload widget reporting
// "no file" after previously holding one.
func (s *ClipperService) Evict() {
	s.cache.Evict()
}

func (s *ClipperService) Metadata() (entity.Metadata, error) {
	sess, err := s.cache.Current()
	if err != nil {
		return entity.Metadata{}, err
	}
	return sess.Metadata()
}

type Screenshot struct {
	PNG      []byte
	Width    int
	Height   int
	Timecode string
	Filename string
}

// Screenshot decodes a single frame at the given offset and scale.
func (s *ClipperService) Screenshot(ctx context.Context, seconds, scale float64) (*Screenshot, error) {
	sess, err := s.cache.Current()
	if err != nil {
		return nil, err
	}
	if scale < s.minFrameScale || scale > 1 {
		return nil, fmt.Errorf("%w: scale %.2f outside [%.2f, 1.00]",
			entity.ErrInvalidRange, scale, s.minFrameScale)
	}

	timer := time.Now()
	data, w, h, err := sess.FrameAt(ctx, seconds, scale)
	if err != nil {
		return nil, err
	}
	metrics.FramesServedTotal.Inc()
	metrics.OperationDuration.WithLabelValues("frame").Observe(time.Since(timer).Seconds())

	return &Screenshot{
		PNG:      data,
		Width:    w,
		Height:   h,
		Timecode: timecode.Format(seconds),
		Filename: sess.ScreenshotName(seconds),
	}, nil
}

type ClipResult struct {
	Filename string
	MP4      []byte
}

// Clip cuts [start, end) into a new playable file. The caller blocks until
// the export completes or fails; there is no fire-and-forget path.
func (s *ClipperService) Clip(ctx context.Context, start, end float64) (*ClipResult, error) {
	sess, err := s.cache.Current()
	if err != nil {
		return nil, err
	}

	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ClipperService.Clip")
	span.SetAttributes(
		attribute.Float64("clip.start_secs", start),
		attribute.Float64("clip.end_secs", end),
	)
	defer span.End()

	metrics.ActiveExtractions.Inc()
	defer metrics.ActiveExtractions.Dec()

	timer := time.Now()
	buf := &bytes.Buffer{}
	if err := sess.ExtractRange(ctx, start, end, buf); err != nil {
		return nil, err
	}
	metrics.RangeExportsTotal.Inc()
	metrics.OperationDuration.WithLabelValues("clip").Observe(time.Since(timer).Seconds())

	s.logger.Info("range exported",
		zap.Float64("start_secs", start),
		zap.Float64("end_secs", end),
		zap.Int("bytes", buf.Len()),
	)
	return &ClipResult{Filename: sess.ClipName(start, end), MP4: buf.Bytes()}, nil
}

func (s *ClipperService) MinuteOverview(ctx context.Context) ([]entity.Frame, error) {
	sess, err := s.cache.Current()
	if err != nil {
		return nil, err
	}
	return s.batch.MinuteOverview(ctx, sess)
}

func (s *ClipperService) MinuteWindow(ctx context.Context, minute int) ([]entity.Frame, error) {
	sess, err := s.cache.Current()
	if err != nil {
		return nil, err
	}
	return s.batch.MinuteWindow(ctx, sess, minute)
}

// Select decodes the frame for a mm:ss timecode and proposes it to the
// ledger. Returns false when that timecode is already selected.
func (s *ClipperService) Select(ctx context.Context, tc string) (bool, error) {
	sess, err := s.cache.Current()
	if err != nil {
		return false, err
	}
	secs, err := timecode.Parse(tc)
	if err != nil {
		return false, err
	}

	data, _, _, err := sess.FrameAt(ctx, float64(secs), 1.0)
	if err != nil {
		return false, err
	}
	// Dedupe keys on the canonical formatting, so "2:5" and "02:05" collide.
	return s.ledger.Propose(timecode.Format(float64(secs)), data), nil
}

// SelectBatch proposes every timecode in order. Timecodes that fail to parse
// or decode are skipped with a warning; the rest of the batch completes.
func (s *ClipperService) SelectBatch(ctx context.Context, tcs []string) (int, error) {
	if _, err := s.cache.Current(); err != nil {
		return 0, err
	}

	added := 0
	for _, tc := range tcs {
		ok, err := s.Select(ctx, tc)
		if err != nil {
			if errorsIsLifecycle(err) {
				return added, err
			}
			s.logger.Warn("batch selection skipped timecode",
				zap.String("timecode", tc), zap.Error(err))
			continue
		}
		if ok {
			added++
		}
	}
	return added, nil
}

func (s *ClipperService) SelectionRows() []entity.SelectionRow {
	return s.ledger.Rows()
}

func (s *ClipperService) ClearSelection() {
	s.ledger.Clear()
}

// WriteSelectionCSV writes the ledger rows as CSV and returns the derived
// download name.
func (s *ClipperService) WriteSelectionCSV(w io.Writer) (string, error) {
	sess, err := s.cache.Current()
	if err != nil {
		return "", err
	}
	if err := s.rows.WriteRows(s.ledger.Rows(), w); err != nil {
		return "", err
	}
	return sess.SelectionCSVName(), nil
}

// WriteSelectionZip packages the selected frames and returns the derived
// download name.
func (s *ClipperService) WriteSelectionZip(ctx context.Context, w io.Writer) (string, error) {
	sess, err := s.cache.Current()
	if err != nil {
		return "", err
	}
	if err := s.zipper.WriteZip(ctx, s.ledger.Images(), w); err != nil {
		return "", err
	}
	return sess.SelectionZipName(), nil
}

func errorsIsLifecycle(err error) bool {
	return errors.Is(err, entity.ErrNotLoaded) ||
		errors.Is(err, entity.ErrNoSession) ||
		errors.Is(err, context.Canceled)
}
