package ffmpegencoder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framemux/pkg/adapters/logger"
	"github.com/user/framemux/pkg/ports"
)

func createTestImage(width, height, frameNum int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x*255/width + frameNum*10) % 256)
			g := uint8((y*255/height + frameNum*5) % 256)
			img.Set(x, y, color.RGBA{R: r, G: g, B: 128, A: 255})
		}
	}
	return img
}

// requireLibrary skips the test unless ffmpeg is installed with the library for codec.
func requireLibrary(t *testing.T, codec string) {
	t.Helper()
	if !IsAvailable() {
		t.Skip("ffmpeg not available")
	}
	lib, err := LibraryFor(codec)
	if err != nil {
		t.Fatal(err)
	}
	names, err := ListEncoders(context.Background())
	if err != nil {
		t.Skipf("cannot list ffmpeg encoders: %v", err)
	}
	if !slices.Contains(names, lib) {
		t.Skipf("ffmpeg lacks %s", lib)
	}
}

func TestParseEncoderList(t *testing.T) {
	out := []byte(`Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 V....D libx265              libx265 H.265 / HEVC (codec hevc)
 VF.... mjpeg                MJPEG (Motion JPEG)
 A....D aac                  AAC (Advanced Audio Coding)
`)

	got := parseEncoderList(out)
	want := []string{"libx264", "libx265", "mjpeg"}
	if !slices.Equal(got, want) {
		t.Errorf("parseEncoderList() = %v, want %v", got, want)
	}
}

func TestLibraryFor(t *testing.T) {
	tests := []struct {
		codec   string
		want    string
		wantErr bool
	}{
		{ports.CodecAVC, "libx264", false},
		{ports.CodecHEVC, "libx265", false},
		{ports.CodecMJPEG, "", true},
		{"video/vp9", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			got, err := LibraryFor(tt.codec)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCodec) {
					t.Errorf("expected ErrUnknownCodec, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("LibraryFor(%q) = %q, %v; want %q", tt.codec, got, err, tt.want)
			}
		})
	}
}

func TestBuildArgs(t *testing.T) {
	enc, err := New(ports.CodecHEVC, logger.NewNoop())
	if err != nil {
		t.Fatal(err)
	}
	enc.width, enc.height, enc.fps = 720, 1280, 30
	enc.opts = ports.EncoderOptions{Bitrate: 1500000, Tracks: 2}
	enc.tempPath = "/tmp/out.mp4"

	args := enc.buildArgs()
	joined := " " + strings.Join(args, " ") + " "

	for _, want := range []string{
		" -s 720x1280 ",
		" -r 30 ",
		" -c:v libx265 ",
		" -b:v 1500000 ",
		" -tag:v hvc1 ",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}

	maps := 0
	for _, a := range args {
		if a == "0:v" {
			maps++
		}
	}
	if maps != 2 {
		t.Errorf("expected 2 -map entries, got %d", maps)
	}
	if args[len(args)-1] != "/tmp/out.mp4" {
		t.Errorf("expected output path last, got %s", args[len(args)-1])
	}
}

func TestQualityRange(t *testing.T) {
	enc, err := New(ports.CodecAVC, logger.NewNoop())
	if err != nil {
		t.Fatal(err)
	}

	for _, q := range []int{-1, MaxQuality + 1, 100} {
		if err := enc.Begin(16, 16, 30, ports.EncoderOptions{Quality: q}); !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("quality %d: expected ErrInvalidQuality, got %v", q, err)
		}
	}

	enc.width, enc.height, enc.fps = 16, 16, 30
	enc.tempPath = "/tmp/out.mp4"
	enc.opts = ports.EncoderOptions{Quality: MaxQuality}
	if joined := strings.Join(enc.buildArgs(), " "); !strings.Contains(joined, "-crf 51") {
		t.Errorf("expected -crf 51 for the top quality, got %s", joined)
	}
}

func TestEncoderNotInitialized(t *testing.T) {
	enc, err := New(ports.CodecAVC, logger.NewNoop())
	if err != nil {
		t.Fatal(err)
	}

	if err := enc.EncodeFrame(createTestImage(16, 16, 0), 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := enc.End(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}

	// Abort before Begin must be harmless.
	enc.Abort()
}

func TestEncodeAVC(t *testing.T) {
	requireLibrary(t, ports.CodecAVC)

	enc, err := New(ports.CodecAVC, logger.NewNoop())
	if err != nil {
		t.Fatal(err)
	}

	const width, height, frames = 320, 240, 30
	if err := enc.Begin(width, height, 30, ports.EncoderOptions{Bitrate: 500000, Tracks: 2}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	for i := 0; i < frames; i++ {
		if err := enc.EncodeFrame(createTestImage(width, height, i), i*1000/30); err != nil {
			t.Fatalf("EncodeFrame %d failed: %v", i, err)
		}
	}

	data, err := enc.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if string(data[4:8]) != "ftyp" {
		t.Errorf("expected ftyp box, got %q", data[4:8])
	}

	f, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(f.Moov.Traks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(f.Moov.Traks))
	}
	for i, trak := range f.Moov.Traks {
		if n := trak.Mdia.Minf.Stbl.Stsz.SampleNumber; n != frames {
			t.Errorf("track %d: expected %d samples, got %d", i, frames, n)
		}
	}

	// Abort after End is a no-op.
	enc.Abort()
}

func TestAbortRemovesTempFile(t *testing.T) {
	requireLibrary(t, ports.CodecAVC)

	enc, err := New(ports.CodecAVC, logger.NewNoop())
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Begin(64, 64, 10, ports.EncoderOptions{}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := enc.EncodeFrame(createTestImage(64, 64, 0), 0); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}

	temp := enc.tempPath
	enc.Abort()

	if enc.tempPath != "" {
		t.Error("expected temp path to be cleared")
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Errorf("expected %s to be removed", temp)
	}
}
