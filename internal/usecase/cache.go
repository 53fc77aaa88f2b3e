package usecase

import (
	"context"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/port"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/infra/metrics"
)

// Fingerprint is the cache identity of an upload: a content hash of the raw
// bytes, independent of the advisory filename.
func Fingerprint(payload []byte) string {
	return strconv.FormatUint(xxhash.Sum64(payload), 16)
}

// SessionCache holds at most one live VideoSession, keyed by fingerprint.
// Admitting the same bytes again is a no-op; admitting different bytes
// closes the previous session before the new one is opened, so two live
// sessions never coexist.
type SessionCache struct {
	decoder port.Decoder
	encoder port.FrameEncoder
	opts    SessionOptions
	logger  *zap.Logger

	mu        sync.Mutex
	current   *VideoSession
	onReplace []func()
}

func NewSessionCache(decoder port.Decoder, encoder port.FrameEncoder, opts SessionOptions, logger *zap.Logger) *SessionCache {
	return &SessionCache{
		decoder: decoder,
		encoder: encoder,
		opts:    opts,
		logger:  logger,
	}
}

// OnReplace registers a hook fired whenever the current session is closed,
// either by replacement or eviction. Used to drop state scoped to the
// replaced session (minute shards, selection ledger). Register during
// wiring, before any Admit.
func (c *SessionCache) OnReplace(fn func()) {
	c.onReplace = append(c.onReplace, fn)
}

// Admit returns the session for the payload, reusing the current one when
// the fingerprint matches. The bool reports whether the cache was hit.
func (c *SessionCache) Admit(ctx context.Context, payload []byte, filename string) (*VideoSession, bool, error) {
	fp := Fingerprint(payload)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.current.Fingerprint() == fp {
		metrics.SessionCacheTotal.WithLabelValues("hit").Inc()
		c.logger.Info("session cache hit", zap.String("fingerprint", fp))
		return c.current, true, nil
	}

	c.closeCurrentLocked()

	sess, err := OpenSession(ctx, c.decoder, c.encoder, c.opts, fp, filename, payload, c.logger)
	if err != nil {
		return nil, false, err
	}

	metrics.SessionCacheTotal.WithLabelValues("miss").Inc()
	metrics.SessionsOpenedTotal.Inc()
	c.current = sess
	return sess, false, nil
}

// Evict closes and clears the current session, if any.
func (c *SessionCache) Evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	metrics.SessionCacheTotal.WithLabelValues("evict").Inc()
	c.closeCurrentLocked()
}

// Current returns the live session or ErrNoSession.
func (c *SessionCache) Current() (*VideoSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, entity.ErrNoSession
	}
	return c.current, nil
}

func (c *SessionCache) closeCurrentLocked() {
	if c.current == nil {
		return
	}
	if err := c.current.Close(); err != nil {
		// Best effort: a failed cleanup is logged, never surfaced.
		c.logger.Warn("session cleanup failed",
			zap.String("fingerprint", c.current.Fingerprint()), zap.Error(err))
	}
	c.current = nil
	for _, fn := range c.onReplace {
		fn()
	}
}
