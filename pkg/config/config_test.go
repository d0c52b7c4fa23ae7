package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framemux/pkg/orchestrator"
	"github.com/user/framemux/pkg/ports"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "test.mp4", cfg.FileName)
	assert.Equal(t, ports.CodecAVC, cfg.Codec)
	assert.Equal(t, 720, cfg.Width)
	assert.Equal(t, 1280, cfg.Height)
	assert.Equal(t, 1, cfg.TrackCount)
	assert.Equal(t, 30.0, cfg.FPS)
	assert.Equal(t, 1500000, cfg.Bitrate)
	assert.Equal(t, 300, cfg.Frames)

	_, err := cfg.ToOrchestratorSettings()
	require.NoError(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framemux.yaml")
	data := []byte("codec: video/hevc\nwidth: 1080\nfps: 24\nstrategy: await\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ports.CodecHEVC, cfg.Codec)
	assert.Equal(t, 1080, cfg.Width)
	assert.Equal(t, 24.0, cfg.FPS)
	assert.Equal(t, "await", cfg.Strategy)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1280, cfg.Height)
	assert.Equal(t, 1500000, cfg.Bitrate)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: [1, 2"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	cfg.Height = 640

	lookuper := envconfig.MapLookuper(map[string]string{
		"FRAMEMUX_CODEC":       ports.CodecMJPEG,
		"FRAMEMUX_TRACK_COUNT": "3",
		"FRAMEMUX_DEBUG":       "true",
		"WIDTH":                "99",
	})
	require.NoError(t, ApplyEnv(context.Background(), &cfg, lookuper))

	assert.Equal(t, ports.CodecMJPEG, cfg.Codec)
	assert.Equal(t, 3, cfg.TrackCount)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 720, cfg.Width, "variables without the prefix are ignored")
	assert.Equal(t, 640, cfg.Height, "unset variables keep the current value")
}

func TestApplyEnvInvalidValue(t *testing.T) {
	cfg := Defaults()
	lookuper := envconfig.MapLookuper(map[string]string{"FRAMEMUX_WIDTH": "wide"})

	assert.Error(t, ApplyEnv(context.Background(), &cfg, lookuper))
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framemux.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fps: 24\nframes: 10\n"), 0644))
	t.Setenv("FRAMEMUX_FPS", "60")

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 60.0, cfg.FPS)
	assert.Equal(t, 10, cfg.Frames)
}

func TestToOrchestratorSettings(t *testing.T) {
	cfg := Defaults()
	cfg.Strategy = "await"

	s, err := cfg.ToOrchestratorSettings()
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StrategyAwait, s.Strategy)
	assert.Equal(t, cfg.FileName, s.FileName)
	assert.Equal(t, cfg.Bitrate, s.Bitrate)

	cfg.Strategy = "threads"
	_, err = cfg.ToOrchestratorSettings()
	assert.Error(t, err)
}
