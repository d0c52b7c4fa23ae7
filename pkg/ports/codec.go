package ports

// Codec identifiers accepted by the muxer, in MIME form.
const (
	CodecAVC   = "video/avc"
	CodecHEVC  = "video/hevc"
	CodecMJPEG = "video/mjpeg"
)

// CodecQuery reports whether a codec can be used on this machine.
type CodecQuery interface {
	// IsSupported must be free of side effects and safe for concurrent use.
	IsSupported(codec string) bool
}

// EncoderFactory creates encoders for the codecs it reports as supported.
type EncoderFactory interface {
	CodecQuery

	// NewEncoder returns a fresh encoder. Each job gets its own instance.
	NewEncoder(codec string) (VideoEncoder, error)
}
