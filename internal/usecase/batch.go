package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/infra/metrics"
	"github.com/sgtao/stapp-mpeg4-clipper/pkg/timecode"
)

type shardKey struct {
	fingerprint string
	minute      int
}

// BatchExtractor serves contiguous frame runs at integer-second granularity.
// Fully decoded minutes are kept in a shard map keyed by (fingerprint,
// minute) so revisiting one never re-decodes; Reset drops all shards when
// the session they belong to goes away.
type BatchExtractor struct {
	logger *zap.Logger

	mu     sync.Mutex
	shards map[shardKey][]entity.Frame
}

func NewBatchExtractor(logger *zap.Logger) *BatchExtractor {
	return &BatchExtractor{
		logger: logger,
		shards: make(map[shardKey][]entity.Frame),
	}
}

// MaxMinute is the last minute index reachable for a duration.
func MaxMinute(duration float64) int {
	return int(duration) / 60
}

// MinuteWindow returns one frame per integer second in
// [minute*60, min(minute*60+60, duration)). A decode failure of a single
// second is recorded on that frame and the rest of the window completes;
// only a session closed mid-flight aborts the whole window.
func (b *BatchExtractor) MinuteWindow(ctx context.Context, sess *VideoSession, minute int) ([]entity.Frame, error) {
	meta, err := sess.Metadata()
	if err != nil {
		return nil, err
	}
	if minute < 0 || minute > MaxMinute(meta.Duration) {
		return nil, fmt.Errorf("%w: minute %d outside [0, %d]",
			entity.ErrOutOfRange, minute, MaxMinute(meta.Duration))
	}

	key := shardKey{fingerprint: sess.Fingerprint(), minute: minute}
	b.mu.Lock()
	if frames, ok := b.shards[key]; ok {
		b.mu.Unlock()
		metrics.MinuteShardTotal.WithLabelValues("hit").Inc()
		return frames, nil
	}
	b.mu.Unlock()

	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "BatchExtractor.MinuteWindow")
	span.SetAttributes(
		attribute.String("session.fingerprint", sess.Fingerprint()),
		attribute.Int("window.minute", minute),
	)
	defer span.End()

	metrics.MinuteShardTotal.WithLabelValues("miss").Inc()
	metrics.ActiveExtractions.Inc()
	defer metrics.ActiveExtractions.Dec()

	start := minute * 60
	end := math.Min(float64(start+60), meta.Duration)

	frames := make([]entity.Frame, 0, 60)
	clean := true
	for sec := start; float64(sec) < end; sec++ {
		f, err := b.frameAt(ctx, sess, sec)
		if err != nil {
			return nil, err
		}
		if f.Err != "" {
			clean = false
		}
		frames = append(frames, f)
	}

	// Only fully decoded windows are cached. Caching a window with error
	// frames would pin a transient failure to that minute for the rest of
	// the session; leaving it out lets the next request retry.
	if clean {
		b.mu.Lock()
		b.shards[key] = frames
		b.mu.Unlock()
	}

	b.logger.Info("minute window extracted",
		zap.String("fingerprint", sess.Fingerprint()),
		zap.Int("minute", minute),
		zap.Int("frames", len(frames)),
		zap.Bool("cached", clean),
	)
	return frames, nil
}

// MinuteOverview returns one representative frame per minute across the
// whole duration, for the scrub strip. Cheap and computed once per session
// load, so not shard-cached.
func (b *BatchExtractor) MinuteOverview(ctx context.Context, sess *VideoSession) ([]entity.Frame, error) {
	meta, err := sess.Metadata()
	if err != nil {
		return nil, err
	}

	frames := make([]entity.Frame, 0, MaxMinute(meta.Duration)+1)
	for sec := 0; float64(sec) < meta.Duration; sec += 60 {
		f, err := b.frameAt(ctx, sess, sec)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// Reset drops every shard. Called when the session is replaced; a shard must
// never outlive the fingerprint it was computed for.
func (b *BatchExtractor) Reset() {
	b.mu.Lock()
	b.shards = make(map[shardKey][]entity.Frame)
	b.mu.Unlock()
}

// frameAt decodes a single second. Per-frame decode failures are folded into
// the frame itself; lifecycle errors (closed session, cancelled or expired
// context) come back as a real error because every remaining second would
// fail the same way.
func (b *BatchExtractor) frameAt(ctx context.Context, sess *VideoSession, sec int) (entity.Frame, error) {
	f := entity.Frame{Second: sec, Timecode: timecode.Format(float64(sec))}

	data, _, _, err := sess.FrameAt(ctx, float64(sec), 1.0)
	if err != nil {
		if errors.Is(err, entity.ErrNotLoaded) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return entity.Frame{}, err
		}
		b.logger.Warn("frame decode failed in batch",
			zap.Int("second", sec), zap.Error(err))
		f.Err = err.Error()
		return f, nil
	}
	f.PNG = data
	return f, nil
}
