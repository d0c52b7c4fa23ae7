package ffmpegencoder

import "errors"

var (
	// ErrNotInitialized is returned when encoder methods are called before Begin.
	ErrNotInitialized = errors.New("ffmpegencoder: encoder not initialized")

	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("ffmpegencoder: ffmpeg not found in PATH")

	// ErrUnknownCodec is returned for codecs that have no ffmpeg mapping.
	ErrUnknownCodec = errors.New("ffmpegencoder: unknown codec")

	// ErrNoFrames is returned when End is called without any encoded frame.
	ErrNoFrames = errors.New("ffmpegencoder: no frames to encode")

	// ErrInvalidQuality is returned for quality hints outside 0..MaxQuality.
	ErrInvalidQuality = errors.New("ffmpegencoder: quality out of range")
)
