// Package config provides configuration loading and management.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/user/framemux/pkg/orchestrator"
	"github.com/user/framemux/pkg/ports"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "FRAMEMUX_"

// Config represents the full configuration for framemux.
type Config struct {
	// Output
	FileName  string `yaml:"file_name" env:"FILE_NAME"`
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`

	// Video
	Codec      string  `yaml:"codec" env:"CODEC"`
	Width      int     `yaml:"width" env:"WIDTH"`
	Height     int     `yaml:"height" env:"HEIGHT"`
	TrackCount int     `yaml:"track_count" env:"TRACK_COUNT"`
	FPS        float64 `yaml:"fps" env:"FPS"`
	Bitrate    int     `yaml:"bitrate" env:"BITRATE"`
	Quality    int     `yaml:"quality" env:"QUALITY"`

	// Frames
	Frames    int    `yaml:"frames" env:"FRAMES"`
	Seed      uint64 `yaml:"seed" env:"SEED"`
	FramesDir string `yaml:"frames_dir" env:"FRAMES_DIR"`
	Preload   bool   `yaml:"preload" env:"PRELOAD"`
	Workers   int    `yaml:"workers" env:"WORKERS"`

	// Execution
	Strategy   string `yaml:"strategy" env:"STRATEGY"`
	FFmpegPath string `yaml:"ffmpeg_path" env:"FFMPEG_PATH"`

	// Debug
	Debug    bool   `yaml:"debug" env:"DEBUG"`
	DebugDir string `yaml:"debug_dir" env:"DEBUG_DIR"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		FileName: "test.mp4",

		Codec:      ports.CodecAVC,
		Width:      720,
		Height:     1280,
		TrackCount: 1,
		FPS:        30.0,
		Bitrate:    1500000,

		Frames:  300,
		Seed:    1,
		Workers: 4,

		Strategy: "callback",

		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Load reads the YAML file at path, if any, over the defaults and then
// applies FRAMEMUX_* environment variables.
func Load(ctx context.Context, path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return cfg, fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	if err := ApplyEnv(ctx, &cfg, envconfig.OsLookuper()); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields of cfg with the variables found by lookuper.
// Unset variables leave the current values alone.
func ApplyEnv(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           cfg,
		Lookuper:         envconfig.PrefixLookuper(EnvPrefix, lookuper),
		DefaultOverwrite: true,
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ToOrchestratorSettings converts Config to orchestrator.Settings.
func (c Config) ToOrchestratorSettings() (orchestrator.Settings, error) {
	strategy, err := orchestrator.ParseStrategy(c.Strategy)
	if err != nil {
		return orchestrator.Settings{}, err
	}
	return orchestrator.Settings{
		FileName:   c.FileName,
		Codec:      c.Codec,
		Width:      c.Width,
		Height:     c.Height,
		TrackCount: c.TrackCount,
		FPS:        c.FPS,
		Bitrate:    c.Bitrate,
		Quality:    c.Quality,
		Strategy:   strategy,
	}, nil
}
