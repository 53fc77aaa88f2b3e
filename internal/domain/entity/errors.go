package entity

import "errors"

var (
	// ErrDecode means the uploaded payload could not be opened as a video.
	ErrDecode = errors.New("payload is not a decodable video")

	// ErrOutOfRange means a requested timestamp falls outside [0, duration].
	ErrOutOfRange = errors.New("timestamp outside video duration")

	// ErrInvalidRange means a clip interval violates 0 <= start < end <= duration.
	ErrInvalidRange = errors.New("invalid clip range")

	// ErrNotLoaded means an operation was invoked on a session that never
	// opened or has already been closed. This is a lifecycle ordering bug in
	// the caller, not a user input error.
	ErrNotLoaded = errors.New("session is not loaded")

	// ErrNoSession means no video has been admitted yet.
	ErrNoSession = errors.New("no video session")
)
