package usecase

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/infra/imaging"
)

func testOptions(t *testing.T) SessionOptions {
	t.Helper()
	return SessionOptions{
		TempDir:    t.TempDir(),
		VideoCodec: "libx264",
		AudioCodec: "aac",
	}
}

func openTestSession(t *testing.T, dec *stubDecoder, payload []byte, name string) *VideoSession {
	t.Helper()
	sess, err := OpenSession(
		context.Background(), dec, imaging.NewPNGEncoder(), testOptions(t),
		Fingerprint(payload), name, payload, zap.NewNop(),
	)
	require.NoError(t, err)
	return sess
}

func TestOpenSession_WritesBackingFile(t *testing.T) {
	payload := []byte("mp4 payload bytes")
	sess := openTestSession(t, newStubDecoder(), payload, "lecture.mp4")
	defer sess.Close()

	got, err := os.ReadFile(sess.backingPath)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "lecture", sess.DisplayName())
}

func TestOpenSession_DecodeFailureRemovesBackingFile(t *testing.T) {
	dec := newStubDecoder()
	dec.failOpen = true
	opts := testOptions(t)

	_, err := OpenSession(
		context.Background(), dec, imaging.NewPNGEncoder(), opts,
		"fp", "bad.mp4", []byte("not a video"), zap.NewNop(),
	)
	require.ErrorIs(t, err, entity.ErrDecode)

	entries, err := os.ReadDir(opts.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed open must not leak a temp file")
}

func TestMetadata(t *testing.T) {
	sess := openTestSession(t, newStubDecoder(), []byte("payload"), "clip.mp4")
	defer sess.Close()

	meta, err := sess.Metadata()
	require.NoError(t, err)
	assert.Equal(t, entity.Metadata{Duration: 125.0, FrameRate: 2.0, Width: 64, Height: 48}, meta)
}

func TestFrameAt_Bounds(t *testing.T) {
	sess := openTestSession(t, newStubDecoder(), []byte("payload"), "clip.mp4")
	defer sess.Close()

	_, _, _, err := sess.FrameAt(context.Background(), -1, 1.0)
	assert.ErrorIs(t, err, entity.ErrOutOfRange)

	_, _, _, err = sess.FrameAt(context.Background(), 126, 1.0)
	assert.ErrorIs(t, err, entity.ErrOutOfRange)

	_, _, _, err = sess.FrameAt(context.Background(), 125, 1.0)
	assert.NoError(t, err, "duration itself is inside the accepted domain")
}

func TestFrameAt_Scale(t *testing.T) {
	sess := openTestSession(t, newStubDecoder(), []byte("payload"), "clip.mp4")
	defer sess.Close()

	_, w, h, err := sess.FrameAt(context.Background(), 10.0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)

	_, w, h, err = sess.FrameAt(context.Background(), 10.0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 32, w)
	assert.Equal(t, 24, h)
}

func TestFrameAt_Deterministic(t *testing.T) {
	sess := openTestSession(t, newStubDecoder(), []byte("payload"), "clip.mp4")
	defer sess.Close()

	a, _, _, err := sess.FrameAt(context.Background(), 42.0, 0.5)
	require.NoError(t, err)
	b, _, _, err := sess.FrameAt(context.Background(), 42.0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtractRange_Validation(t *testing.T) {
	sess := openTestSession(t, newStubDecoder(), []byte("payload"), "clip.mp4")
	defer sess.Close()

	cases := []struct {
		name       string
		start, end float64
	}{
		{"negative start", -1, 10},
		{"end past duration", 0, 126},
		{"start equals end", 10, 10},
		{"start after end", 20, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := sess.ExtractRange(context.Background(), tc.start, tc.end, &bytes.Buffer{})
			assert.ErrorIs(t, err, entity.ErrInvalidRange)
		})
	}
}

func TestExtractRange_WritesSink(t *testing.T) {
	sess := openTestSession(t, newStubDecoder(), []byte("payload"), "clip.mp4")
	defer sess.Close()

	sink := &bytes.Buffer{}
	require.NoError(t, sess.ExtractRange(context.Background(), 5.0, 15.0, sink))
	assert.Equal(t, "clip 5.0-15.0 libx264 aac", sink.String())
}

func TestClose_Idempotent(t *testing.T) {
	dec := newStubDecoder()
	sess := openTestSession(t, dec, []byte("payload"), "clip.mp4")
	backing := sess.backingPath

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())

	assert.Equal(t, 1, dec.lastHandle.CloseCalls(), "decoder handle closed exactly once")
	_, err := os.Stat(backing)
	assert.True(t, os.IsNotExist(err), "backing file removed")
}

func TestClosedSession_FailsCleanly(t *testing.T) {
	sess := openTestSession(t, newStubDecoder(), []byte("payload"), "clip.mp4")
	require.NoError(t, sess.Close())

	_, err := sess.Metadata()
	assert.ErrorIs(t, err, entity.ErrNotLoaded)

	_, _, _, err = sess.FrameAt(context.Background(), 1.0, 1.0)
	assert.ErrorIs(t, err, entity.ErrNotLoaded)

	err = sess.ExtractRange(context.Background(), 0, 1, &bytes.Buffer{})
	assert.ErrorIs(t, err, entity.ErrNotLoaded)
}

func TestDerivedNames(t *testing.T) {
	sess := openTestSession(t, newStubDecoder(), []byte("payload"), "My Lecture.mp4")
	defer sess.Close()

	assert.Equal(t, "My Lecture_02-05.png", sess.ScreenshotName(125))
	assert.Equal(t, "My Lecture_5s_to_15s.mp4", sess.ClipName(5.0, 15.9))
	assert.Equal(t, "Selected_Timestamps_My Lecture.csv", sess.SelectionCSVName())
	assert.Equal(t, "Screenshots_My Lecture.zip", sess.SelectionZipName())
}
