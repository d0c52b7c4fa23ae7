// Package smartencoder decides which codecs this machine can encode and
// creates the matching encoder. It never substitutes one codec for another.
package smartencoder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/user/framemux/pkg/adapters/ffmpegencoder"
	"github.com/user/framemux/pkg/adapters/mjpegencoder"
	"github.com/user/framemux/pkg/ports"
)

// Backend represents the encoding backend used for a codec.
type Backend string

const (
	// BackendFFmpeg represents encoding through an ffmpeg child process.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendNative represents the pure Go Motion-JPEG writer.
	BackendNative Backend = "native"
)

// Info describes one known codec.
type Info struct {
	Codec     string
	Backend   Backend
	Library   string
	Supported bool
}

// Options configures the registry.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// Logger receives the probe results. Required.
	Logger ports.Logger
	// ProbeTimeout bounds the ffmpeg encoder listing. Defaults to 10s.
	ProbeTimeout time.Duration
}

var (
	// ErrNoEncoderAvailable is returned when a codec cannot be encoded here.
	ErrNoEncoderAvailable = errors.New("smartencoder: no encoder available")
)

// knownCodecs lists the codecs in the order they are reported.
var knownCodecs = []string{ports.CodecAVC, ports.CodecHEVC, ports.CodecMJPEG}

// Registry implements ports.EncoderFactory.
// The ffmpeg capability probe runs once, on first use.
type Registry struct {
	logger  ports.Logger
	timeout time.Duration

	// listEncoders is swapped out in tests.
	listEncoders func(ctx context.Context) ([]string, error)

	once      sync.Once
	libraries []string
}

// New creates a registry.
func New(opts Options) *Registry {
	if opts.FFmpegPath != "" {
		ffmpegencoder.SetFFmpegPath(opts.FFmpegPath)
	}
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Registry{
		logger:       opts.Logger.WithComponent("codecs"),
		timeout:      timeout,
		listEncoders: ffmpegencoder.ListEncoders,
	}
}

func (r *Registry) probe() {
	r.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		libs, err := r.listEncoders(ctx)
		if err != nil {
			r.logger.Debug("ffmpeg encoders: %s", err.Error())
			return
		}
		r.libraries = libs
		r.logger.Debug("ffmpeg encoders: %s", strings.Join(filterKnown(libs), ", "))
	})
}

func filterKnown(libs []string) []string {
	var out []string
	for _, codec := range knownCodecs {
		if lib, err := ffmpegencoder.LibraryFor(codec); err == nil && slices.Contains(libs, lib) {
			out = append(out, lib)
		}
	}
	return out
}

// IsSupported reports whether codec can be encoded on this machine.
func (r *Registry) IsSupported(codec string) bool {
	switch codec {
	case ports.CodecMJPEG:
		return true
	case ports.CodecAVC, ports.CodecHEVC:
		lib, _ := ffmpegencoder.LibraryFor(codec)
		r.probe()
		return slices.Contains(r.libraries, lib)
	default:
		return false
	}
}

// NewEncoder creates a fresh encoder for codec.
func (r *Registry) NewEncoder(codec string) (ports.VideoEncoder, error) {
	if !r.IsSupported(codec) {
		return nil, fmt.Errorf("%w: %s", ErrNoEncoderAvailable, codec)
	}
	if codec == ports.CodecMJPEG {
		return mjpegencoder.New(), nil
	}
	return ffmpegencoder.New(codec, r.logger)
}

// Codecs returns every known codec with its support status.
func (r *Registry) Codecs() []Info {
	infos := make([]Info, 0, len(knownCodecs))
	for _, codec := range knownCodecs {
		info := Info{Codec: codec, Supported: r.IsSupported(codec)}
		if lib, err := ffmpegencoder.LibraryFor(codec); err == nil {
			info.Backend = BackendFFmpeg
			info.Library = lib
		} else {
			info.Backend = BackendNative
		}
		infos = append(infos, info)
	}
	return infos
}

var _ ports.EncoderFactory = (*Registry)(nil)
