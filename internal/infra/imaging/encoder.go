package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/port"
)

// PNGEncoder renders raw RGB24 frames as lossless PNG, with optional
// proportional downscaling. Scaling uses a fixed Catmull-Rom kernel so the
// same input always produces byte-identical output.
type PNGEncoder struct{}

func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{}
}

func (e *PNGEncoder) EncodePNG(frame *port.RawFrame, scale float64) ([]byte, int, int, error) {
	if frame == nil {
		return nil, 0, 0, fmt.Errorf("nil frame")
	}
	if scale <= 0 || scale > 1 {
		return nil, 0, 0, fmt.Errorf("scale %v outside (0, 1]", scale)
	}
	if len(frame.Pix) < frame.Width*frame.Height*3 {
		return nil, 0, 0, fmt.Errorf("pixel buffer too short for %dx%d", frame.Width, frame.Height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			src := (y*frame.Width + x) * 3
			dst := img.PixOffset(x, y)
			img.Pix[dst+0] = frame.Pix[src+0]
			img.Pix[dst+1] = frame.Pix[src+1]
			img.Pix[dst+2] = frame.Pix[src+2]
			img.Pix[dst+3] = 0xff
		}
	}

	out := img
	if scale < 1 {
		w := int(math.Round(float64(frame.Width) * scale))
		h := int(math.Round(float64(frame.Height) * scale))
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		scaled := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		out = scaled
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, out); err != nil {
		return nil, 0, 0, fmt.Errorf("encode png: %w", err)
	}
	b := out.Bounds()
	return buf.Bytes(), b.Dx(), b.Dy(), nil
}
