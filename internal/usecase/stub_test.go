package usecase

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/port"
)

// stubDecoder is a deterministic in-memory decoder with call counters, used
// to verify cache and shard behavior without shelling out to ffmpeg.
type stubDecoder struct {
	mu         sync.Mutex
	openCalls  int
	frameCalls int

	duration  float64
	frameRate float64
	width     int
	height    int

	failOpen    bool
	failSeconds map[int]bool

	lastHandle *stubHandle
}

func newStubDecoder() *stubDecoder {
	return &stubDecoder{
		duration:  125.0,
		frameRate: 2.0,
		width:     64,
		height:    48,
	}
}

func (d *stubDecoder) OpenCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.openCalls
}

func (d *stubDecoder) FrameCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frameCalls
}

func (d *stubDecoder) Open(ctx context.Context, path string) (port.DecoderHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openCalls++

	if d.failOpen {
		return nil, fmt.Errorf("%w: stub open failure", entity.ErrDecode)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("backing file missing: %w", err)
	}

	h := &stubHandle{dec: d, path: path}
	d.lastHandle = h
	return h, nil
}

type stubHandle struct {
	dec  *stubDecoder
	path string

	mu         sync.Mutex
	closed     bool
	closeCalls int
}

func (h *stubHandle) Duration() float64  { return h.dec.duration }
func (h *stubHandle) FrameRate() float64 { return h.dec.frameRate }

func (h *stubHandle) Dimensions() (int, int) { return h.dec.width, h.dec.height }

func (h *stubHandle) CloseCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeCalls
}

func (h *stubHandle) Frame(ctx context.Context, seconds float64) (*port.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: stub handle closed", entity.ErrNotLoaded)
	}
	h.mu.Unlock()

	h.dec.mu.Lock()
	h.dec.frameCalls++
	fail := h.dec.failSeconds[int(seconds)]
	w, ht := h.dec.width, h.dec.height
	h.dec.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("%w: stub frame failure at %v", entity.ErrDecode, seconds)
	}

	// Deterministic per-second pixel pattern.
	pix := make([]byte, w*ht*3)
	seed := byte(int(seconds))
	for i := range pix {
		pix[i] = seed + byte(i%7)*3
	}
	return &port.RawFrame{Pix: pix, Width: w, Height: ht}, nil
}

func (h *stubHandle) WriteRange(ctx context.Context, start, end float64, outPath, videoCodec, audioCodec string) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: stub handle closed", entity.ErrNotLoaded)
	}

	content := fmt.Sprintf("clip %.1f-%.1f %s %s", start, end, videoCodec, audioCodec)
	return os.WriteFile(outPath, []byte(content), 0644)
}

func (h *stubHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeCalls++
	h.closed = true
	return nil
}
