package mjpegencoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/user/framemux/pkg/ports"
	"github.com/user/framemux/pkg/probe"
)

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

var palette = []color.RGBA{
	{R: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 255, A: 255},
}

func encodeFrames(t *testing.T, enc *Encoder, w, h int, fps float64, tracks int) []byte {
	t.Helper()
	if err := enc.Begin(w, h, fps, ports.EncoderOptions{Tracks: tracks, Quality: 95}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	for i, c := range palette {
		ts := int(float64(i)*1000/fps + 0.5)
		if err := enc.EncodeFrame(solidFrame(w, h, c), ts); err != nil {
			t.Fatalf("EncodeFrame %d failed: %v", i, err)
		}
	}
	data, err := enc.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	return data
}

func TestEncoderProducesTracks(t *testing.T) {
	enc := New()
	data := encodeFrames(t, enc, 64, 48, 25, 2)

	if string(data[4:8]) != "ftyp" {
		t.Fatalf("expected ftyp box, got %q", data[4:8])
	}

	info, err := probe.Bytes(data)
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if !info.Fragmented {
		t.Error("expected fragmented output")
	}
	if len(info.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(info.Tracks))
	}
	for _, tr := range info.Tracks {
		if tr.Codec != ports.CodecMJPEG {
			t.Errorf("track %d: expected %s, got %q", tr.ID, ports.CodecMJPEG, tr.Codec)
		}
		if tr.Width != 64 || tr.Height != 48 {
			t.Errorf("track %d: expected 64x48, got %dx%d", tr.ID, tr.Width, tr.Height)
		}
		if tr.Samples != len(palette) {
			t.Errorf("track %d: expected %d samples, got %d", tr.ID, len(palette), tr.Samples)
		}
		if tr.Timescale != 25000 {
			t.Errorf("track %d: expected timescale 25000, got %d", tr.ID, tr.Timescale)
		}
	}
}

func TestEncoderPreservesFrameOrder(t *testing.T) {
	enc := New()
	data := encodeFrames(t, enc, 32, 32, 30, 1)

	samples, err := probe.Samples(bytes.NewReader(data), 1)
	if err != nil {
		t.Fatalf("Samples failed: %v", err)
	}
	if len(samples) != len(palette) {
		t.Fatalf("expected %d samples, got %d", len(palette), len(samples))
	}

	for i, s := range samples {
		img, err := jpeg.Decode(bytes.NewReader(s))
		if err != nil {
			t.Fatalf("sample %d: decode: %v", i, err)
		}
		r, g, b, _ := img.At(16, 16).RGBA()
		want := palette[i]
		if !near(r>>8, want.R) || !near(g>>8, want.G) || !near(b>>8, want.B) {
			t.Errorf("sample %d: got rgb(%d,%d,%d), want %v", i, r>>8, g>>8, b>>8, want)
		}
	}
}

func near(got uint32, want uint8) bool {
	d := int(got) - int(want)
	return d > -24 && d < 24
}

func TestEncoderErrors(t *testing.T) {
	enc := New()

	if err := enc.EncodeFrame(solidFrame(4, 4, palette[0]), 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := enc.End(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if err := enc.Begin(0, 10, 30, ports.EncoderOptions{}); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("expected ErrInvalidDimensions, got %v", err)
	}
	for _, fps := range []float64{0, -30, 0.0004, 5e6} {
		if err := enc.Begin(4, 4, fps, ports.EncoderOptions{}); !errors.Is(err, ErrInvalidFrameRate) {
			t.Errorf("fps %v: expected ErrInvalidFrameRate, got %v", fps, err)
		}
	}

	if err := enc.Begin(4, 4, 30, ports.EncoderOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := enc.End(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}

	if err := enc.Begin(4, 4, 30, ports.EncoderOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := enc.EncodeFrame(solidFrame(4, 4, palette[0]), 100); err != nil {
		t.Fatal(err)
	}
	if err := enc.EncodeFrame(solidFrame(4, 4, palette[1]), 50); !errors.Is(err, ErrTimestampOrder) {
		t.Errorf("expected ErrTimestampOrder, got %v", err)
	}
}

func TestAbortDiscardsSamples(t *testing.T) {
	enc := New()
	if err := enc.Begin(8, 8, 30, ports.EncoderOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := enc.EncodeFrame(solidFrame(8, 8, palette[0]), 0); err != nil {
		t.Fatal(err)
	}

	enc.Abort()

	if _, err := enc.End(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized after Abort, got %v", err)
	}
	// A second Abort is harmless.
	enc.Abort()
}
