package ffmpegencoder

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/user/framemux/pkg/ports"
)

// MaxQuality is the highest quality hint accepted. Hints map linearly onto
// CRF 0..51 and 0 leaves the rate control to the bitrate alone.
const MaxQuality = 63

// Encoder implements ports.VideoEncoder with an ffmpeg child process.
// Frames are written to ffmpeg's stdin as raw RGBA and the MP4 is read back
// from a temporary file on End.
type Encoder struct {
	codec   string
	library string
	logger  ports.Logger

	width  int
	height int
	fps    float64
	opts   ports.EncoderOptions

	mu         sync.Mutex
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stderr     bytes.Buffer
	tempPath   string
	frameCount int
	closed     bool
}

// New creates an encoder for the given codec (ports.CodecAVC or ports.CodecHEVC).
// The logger must not be nil.
func New(codec string, logger ports.Logger) (*Encoder, error) {
	library, err := LibraryFor(codec)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		codec:   codec,
		library: library,
		logger:  logger.WithComponent("ffmpeg"),
	}, nil
}

// Codec returns the codec MIME type this encoder produces.
func (e *Encoder) Codec() string {
	return e.codec
}

// Begin starts the ffmpeg process.
func (e *Encoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if opts.Quality < 0 || opts.Quality > MaxQuality {
		return fmt.Errorf("%w: %d (0..%d)", ErrInvalidQuality, opts.Quality, MaxQuality)
	}

	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return err
	}

	e.width = width
	e.height = height
	e.fps = fps
	e.opts = opts
	e.frameCount = 0
	e.closed = false
	e.stderr.Reset()

	tmpFile, err := os.CreateTemp("", "framemux_*.mp4")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	e.tempPath = tmpFile.Name()
	tmpFile.Close()

	args := e.buildArgs()
	e.logger.Debug("Starting ffmpeg: %s", strings.Join(args, " "))

	e.cmd = exec.Command(ffmpegPath, args...)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		e.removeTemp()
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		e.stdin = nil
		e.removeTemp()
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return nil
}

// buildArgs assembles the ffmpeg command line. Caller holds e.mu.
func (e *Encoder) buildArgs() []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", e.width, e.height),
		"-r", strconv.FormatFloat(e.fps, 'f', -1, 64),
		"-i", "pipe:0",
	}

	tracks := e.opts.Tracks
	if tracks < 1 {
		tracks = 1
	}
	for i := 0; i < tracks; i++ {
		args = append(args, "-map", "0:v")
	}

	args = append(args,
		"-c:v", e.library,
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
	)

	if e.opts.Quality > 0 {
		args = append(args, "-crf", strconv.Itoa(e.opts.Quality*51/MaxQuality))
	}
	if e.opts.Bitrate > 0 {
		args = append(args,
			"-b:v", strconv.Itoa(e.opts.Bitrate),
			"-maxrate", strconv.Itoa(e.opts.Bitrate),
			"-bufsize", strconv.Itoa(e.opts.Bitrate*2),
		)
	}

	switch e.codec {
	case ports.CodecAVC:
		args = append(args, "-profile:v", "high")
	case ports.CodecHEVC:
		// Apple players only accept the hvc1 sample entry.
		args = append(args, "-tag:v", "hvc1", "-x265-params", "log-level=error")
	}

	return append(args, "-movflags", "+faststart", "-f", "mp4", e.tempPath)
}

// EncodeFrame writes one frame to ffmpeg. Timestamps are implied by the
// constant input frame rate.
func (e *Encoder) EncodeFrame(img image.Image, timestampMs int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil || e.closed {
		return ErrNotInitialized
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds() != image.Rect(0, 0, e.width, e.height) {
		rgba = image.NewRGBA(image.Rect(0, 0, e.width, e.height))
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	if _, err := e.stdin.Write(rgba.Pix); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", e.frameCount, err)
	}

	e.frameCount++
	return nil
}

// End closes ffmpeg's input, waits for it and returns the MP4 data.
func (e *Encoder) End() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil || e.closed {
		return nil, ErrNotInitialized
	}
	defer e.removeTemp()

	e.stdin.Close()
	e.stdin = nil
	e.closed = true

	waitErr := e.cmd.Wait()
	if e.frameCount == 0 {
		return nil, ErrNoFrames
	}
	if waitErr != nil {
		return nil, fmt.Errorf("ffmpeg encoding failed: %w: %s", waitErr, e.stderrTail())
	}

	data, err := os.ReadFile(e.tempPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}

	return data, nil
}

// Abort kills ffmpeg if it is still running and removes the temporary output.
func (e *Encoder) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin != nil {
		e.stdin.Close()
		e.stdin = nil
	}
	if e.cmd != nil && e.cmd.Process != nil && !e.closed {
		_ = e.cmd.Process.Kill()
		_ = e.cmd.Wait()
	}
	e.closed = true
	e.removeTemp()
}

// FrameCount returns the number of frames written so far.
func (e *Encoder) FrameCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameCount
}

func (e *Encoder) removeTemp() {
	if e.tempPath != "" {
		os.Remove(e.tempPath)
		e.tempPath = ""
	}
}

func (e *Encoder) stderrTail() string {
	s := strings.TrimSpace(e.stderr.String())
	if len(s) > 512 {
		s = s[len(s)-512:]
	}
	return s
}

var _ ports.VideoEncoder = (*Encoder)(nil)
