package probe

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/framemux/pkg/adapters/mjpegencoder"
	"github.com/user/framemux/pkg/ports"
)

func buildMJPEG(t *testing.T, frames, tracks int, fps float64) []byte {
	t.Helper()
	enc := mjpegencoder.New()
	if err := enc.Begin(16, 16, fps, ports.EncoderOptions{Tracks: tracks}); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < frames; i++ {
		img.Set(0, 0, color.RGBA{R: uint8(i), A: 255})
		if err := enc.EncodeFrame(img, int(float64(i)*1000/fps)); err != nil {
			t.Fatal(err)
		}
	}
	data, err := enc.End()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestFile(t *testing.T) {
	data := buildMJPEG(t, 30, 1, 30)
	path := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	info, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}

	if info.Size != int64(len(data)) {
		t.Errorf("expected size %d, got %d", len(data), info.Size)
	}
	if info.Codec() != ports.CodecMJPEG {
		t.Errorf("expected codec %s, got %q", ports.CodecMJPEG, info.Codec())
	}
	if got := info.Duration(); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}
	if info.Tracks[0].Format != "jpeg" {
		t.Errorf("expected jpeg sample entry, got %q", info.Tracks[0].Format)
	}
	if info.Tracks[0].Width != 16 || info.Tracks[0].Height != 16 {
		t.Errorf("expected 16x16, got %dx%d", info.Tracks[0].Width, info.Tracks[0].Height)
	}
}

func TestVisualEntrySize(t *testing.T) {
	payload := make([]byte, 78)
	payload[24], payload[25] = 0x02, 0xd0
	payload[26], payload[27] = 0x05, 0x00

	w, h, ok := visualEntrySize(payload)
	if !ok || w != 720 || h != 1280 {
		t.Errorf("expected 720x1280, got %dx%d (ok=%t)", w, h, ok)
	}

	if _, _, ok := visualEntrySize(payload[:20]); ok {
		t.Error("expected short payload to be rejected")
	}
}

func TestSamplesPerTrack(t *testing.T) {
	data := buildMJPEG(t, 5, 3, 10)

	info, err := Bytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(info.Tracks))
	}

	for _, tr := range info.Tracks {
		samples, err := Samples(bytes.NewReader(data), tr.ID)
		if err != nil {
			t.Fatalf("track %d: %v", tr.ID, err)
		}
		if len(samples) != 5 {
			t.Errorf("track %d: expected 5 samples, got %d", tr.ID, len(samples))
		}
	}

	if _, err := Samples(bytes.NewReader(data), 99); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestBytesRejectsGarbage(t *testing.T) {
	if _, err := Bytes([]byte("definitely not an mp4 file")); err == nil {
		t.Error("expected error for invalid data")
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("expected error for missing file")
	}
}
