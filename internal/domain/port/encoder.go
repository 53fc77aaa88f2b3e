package port

// FrameEncoder turns a raw pixel buffer into lossless still-image bytes,
// optionally resized to scale in (0, 1] of the native dimensions.
type FrameEncoder interface {
	EncodePNG(frame *RawFrame, scale float64) (data []byte, width, height int, err error)
}
