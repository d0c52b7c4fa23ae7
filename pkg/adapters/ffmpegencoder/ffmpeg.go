// Package ffmpegencoder encodes AVC and HEVC video by piping raw frames into an
// external ffmpeg process.
package ffmpegencoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/user/framemux/pkg/ports"
)

var (
	pathMu           sync.RWMutex
	customFFmpegPath string
)

// SetFFmpegPath overrides ffmpeg discovery. An empty path restores the default search.
func SetFFmpegPath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	customFFmpegPath = path
}

// IsAvailable reports whether an ffmpeg binary can be found.
func IsAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	pathMu.RLock()
	custom := customFFmpegPath
	pathMu.RUnlock()

	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// LibraryFor maps a codec MIME type to the ffmpeg encoder library that produces it.
func LibraryFor(codec string) (string, error) {
	switch codec {
	case ports.CodecAVC:
		return "libx264", nil
	case ports.CodecHEVC:
		return "libx265", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCodec, codec)
	}
}

// ListEncoders runs "ffmpeg -encoders" and returns the names of the video encoders.
func ListEncoders(ctx context.Context) ([]string, error) {
	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("list ffmpeg encoders: %w", err)
	}
	return parseEncoderList(out), nil
}

// parseEncoderList extracts video encoder names from "ffmpeg -encoders" output.
// Entries follow a "------" separator and start with a six character flag
// column whose first letter is V for video.
func parseEncoderList(out []byte) []string {
	var names []string
	started := false

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !started {
			if strings.HasPrefix(line, "---") {
				started = true
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 || fields[0][0] != 'V' {
			continue
		}
		names = append(names, fields[1])
	}
	return names
}
