package entity

// Metadata describes an opened video. Computed once at open time and
// immutable for the life of the session.
type Metadata struct {
	Duration  float64 `json:"duration_seconds"`
	FrameRate float64 `json:"frame_rate"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// Frame is one extracted still inside a batch window. PNG is empty and Err
// set when the decode of this particular second failed; a bad frame never
// aborts the rest of its window.
type Frame struct {
	Second   int    `json:"second"`
	Timecode string `json:"timecode"`
	PNG      []byte `json:"png,omitempty"`
	Err      string `json:"error,omitempty"`
}
