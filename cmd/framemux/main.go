// Package main provides the CLI entry point for framemux.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/user/framemux/pkg/adapters/filesink"
	"github.com/user/framemux/pkg/adapters/ggrenderer"
	"github.com/user/framemux/pkg/adapters/launcher"
	"github.com/user/framemux/pkg/adapters/logger"
	"github.com/user/framemux/pkg/adapters/nullsink"
	"github.com/user/framemux/pkg/adapters/osfilesystem"
	"github.com/user/framemux/pkg/adapters/outputdir"
	"github.com/user/framemux/pkg/adapters/permission"
	"github.com/user/framemux/pkg/adapters/smartencoder"
	"github.com/user/framemux/pkg/config"
	"github.com/user/framemux/pkg/dispatch"
	"github.com/user/framemux/pkg/framesource"
	"github.com/user/framemux/pkg/muxer"
	"github.com/user/framemux/pkg/orchestrator"
	"github.com/user/framemux/pkg/ports"
	"github.com/user/framemux/pkg/probe"
	"github.com/user/framemux/pkg/summarizer"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Println(l10n.F("framemux version %s", c.App.Version))
	}

	return &cli.App{
		Name:    "framemux",
		Usage:   l10n.T("Mux image frames into MP4 videos"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   l10n.T("YAML configuration file"),
			},
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Value:    "info",
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				Category: l10n.T("Logging"),
			},
			&cli.BoolFlag{
				Name:     "quiet",
				Aliases:  []string{"Q"},
				Usage:    l10n.T("Suppress all log output"),
				Category: l10n.T("Logging"),
			},
		},
		Commands: []*cli.Command{
			buildCommand(),
			codecsCommand(),
			probeCommand(),
		},
	}
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: l10n.T("Build a video from generated or stored frames"),
		Flags: []cli.Flag{
			// Output
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output file name"), Category: l10n.T("Output")},
			&cli.StringFlag{Name: "output-dir", Usage: l10n.T("Output directory (default: the user's Videos directory)"), Category: l10n.T("Output")},
			&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a build summary (.md or .yaml)"), Category: l10n.T("Output")},
			&cli.BoolFlag{Name: "play", Usage: l10n.T("Open the video when the build succeeds"), Category: l10n.T("Output")},
			&cli.BoolFlag{Name: "share", Usage: l10n.T("Reveal the video for sharing when the build succeeds"), Category: l10n.T("Output")},

			// Video
			&cli.StringFlag{Name: "codec", Usage: l10n.T("Codec (avc, hevc, mjpeg or a MIME type)"), Category: l10n.T("Video and Quality")},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Frame width in pixels"), Category: l10n.T("Video and Quality")},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Frame height in pixels"), Category: l10n.T("Video and Quality")},
			&cli.IntFlag{Name: "tracks", Usage: l10n.T("Number of video tracks"), Category: l10n.T("Video and Quality")},
			&cli.Float64Flag{Name: "fps", Usage: l10n.T("Frames per second"), Category: l10n.T("Video and Quality")},
			&cli.IntFlag{Name: "bitrate", Usage: l10n.T("Target bitrate in bits per second"), Category: l10n.T("Video and Quality")},
			&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: l10n.T("Codec quality hint (0 = codec default, 1-63 for AVC/HEVC, 1-100 for MJPEG)"), Category: l10n.T("Video and Quality")},

			// Frames
			&cli.IntFlag{Name: "frames", Aliases: []string{"n"}, Usage: l10n.T("Number of generated frames"), Category: l10n.T("Frames")},
			&cli.Uint64Flag{Name: "seed", Usage: l10n.T("Seed for generated frame colors"), Category: l10n.T("Frames")},
			&cli.StringFlag{Name: "frames-dir", Usage: l10n.T("Directory of PNG or JPEG frames to use instead of generated ones"), Category: l10n.T("Frames")},
			&cli.BoolFlag{Name: "preload", Usage: l10n.T("Render every frame before muxing starts"), Category: l10n.T("Frames")},
			&cli.IntFlag{Name: "workers", Usage: l10n.T("Workers rendering frames when preloading"), Category: l10n.T("Frames")},

			// Execution
			&cli.StringFlag{Name: "strategy", Usage: l10n.T("Completion strategy (callback, await)"), Category: l10n.T("Execution")},
			&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to the ffmpeg executable"), Category: l10n.T("Execution")},

			// Debug
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Enable debug output"), Category: l10n.T("Debug")},
			&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T("Debug")},
		},
		Action: runBuild,
	}
}

func codecsCommand() *cli.Command {
	return &cli.Command{
		Name:  "codecs",
		Usage: l10n.T("List codecs and whether they can be encoded here"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to the ffmpeg executable")},
		},
		Action: func(c *cli.Context) error {
			log := newLogger(c)
			registry := smartencoder.New(smartencoder.Options{
				FFmpegPath: c.String("ffmpeg-path"),
				Logger:     log,
			})
			fmt.Printf("%-12s %-8s %-10s %s\n", l10n.T("CODEC"), l10n.T("BACKEND"), l10n.T("LIBRARY"), l10n.T("SUPPORTED"))
			for _, info := range registry.Codecs() {
				supported := l10n.T("no")
				if info.Supported {
					supported = l10n.T("yes")
				}
				lib := info.Library
				if lib == "" {
					lib = "-"
				}
				fmt.Printf("%-12s %-8s %-10s %s\n", info.Codec, info.Backend, lib, supported)
			}
			return nil
		},
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show the tracks of an MP4 file"),
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit(l10n.T("A file argument is required"), 2)
			}
			info, err := probe.File(c.Args().First())
			if err != nil {
				return err
			}
			fmt.Println(l10n.F("Size: %d bytes, fragmented: %t, duration: %s", info.Size, info.Fragmented, info.Duration()))
			for _, t := range info.Tracks {
				codec := t.Codec
				if codec == "" {
					codec = "-"
				}
				fmt.Println(l10n.F("Track %d: %s (%s) %dx%d, %d samples, %s", t.ID, t.Format, codec, t.Width, t.Height, t.Samples, t.Duration))
				if t.CodedWidth > 0 {
					fmt.Println(l10n.F("  coded size %dx%d", t.CodedWidth, t.CodedHeight))
				}
			}
			return nil
		},
	}
}

func newLogger(c *cli.Context) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.Context, c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("output") {
		cfg.FileName = c.String("output")
	}
	if c.IsSet("output-dir") {
		cfg.OutputDir = c.String("output-dir")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("tracks") {
		cfg.TrackCount = c.Int("tracks")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("bitrate") {
		cfg.Bitrate = c.Int("bitrate")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("frames") {
		cfg.Frames = c.Int("frames")
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Uint64("seed")
	}
	if c.IsSet("frames-dir") {
		cfg.FramesDir = c.String("frames-dir")
	}
	if c.IsSet("preload") {
		cfg.Preload = c.Bool("preload")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("strategy") {
		cfg.Strategy = c.String("strategy")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}

	cfg.Codec = normalizeCodec(cfg.Codec)
	return cfg, nil
}

// normalizeCodec accepts short codec names next to MIME types.
func normalizeCodec(codec string) string {
	switch strings.ToLower(codec) {
	case "avc", "h264", "h.264":
		return ports.CodecAVC
	case "hevc", "h265", "h.265":
		return ports.CodecHEVC
	case "mjpeg", "jpeg":
		return ports.CodecMJPEG
	default:
		return codec
	}
}

func runBuild(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	settings, err := cfg.ToOrchestratorSettings()
	if err != nil {
		return err
	}
	// The session starts on the default codec and the requested one goes
	// through codec selection like any later change.
	requested := settings.Codec
	settings.Codec = config.Defaults().Codec

	log := newLogger(c)

	// The job is cancelled through the orchestrator so its result is
	// still delivered on the owner loop.
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// Create adapters
	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	registry := smartencoder.New(smartencoder.Options{
		FFmpegPath: cfg.FFmpegPath,
		Logger:     log,
	})
	resolver := outputdir.New(cfg.OutputDir, fs)

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	// Frames
	var src ports.FrameSource
	if cfg.FramesDir != "" {
		paths, err := framesource.ListImages(cfg.FramesDir)
		if err != nil {
			return err
		}
		src = framesource.NewResolved(paths, framesource.NewFileResolver(fs, renderer, cfg.Width, cfg.Height, log))
	} else {
		src = framesource.NewRandomColor(cfg.Width, cfg.Height, cfg.Frames, cfg.Seed, renderer)
	}
	if cfg.Preload {
		materialized, err := framesource.Materialize(ctx, src, cfg.Workers, log)
		if err != nil {
			return err
		}
		src = materialized
	}

	// Owner loop
	loop := dispatch.New()
	go func() { _ = loop.Run(context.Background()) }()
	defer func() {
		loop.Close()
		<-loop.Stopped()
	}()

	tty := isatty.IsTerminal(os.Stdout.Fd())
	view := newConsoleView(os.Stdout, tty, log)
	orch := orchestrator.New(settings, orchestrator.Deps{
		Owner:    loop,
		Factory:  registry,
		FS:       fs,
		Sink:     sink,
		Paths:    resolver,
		Gate:     permission.New(log),
		Launcher: launcher.New(log),
		View:     view,
		Logger:   log,
	})

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			loop.Post(orch.Cancel)
		case <-ctx.Done():
		}
	}()

	if err := callOwner(ctx, loop, func() error {
		return startBuild(ctx, orch, requested, src, settings, log)
	}); err != nil {
		return err
	}

	out := <-view.done

	if path := c.String("summary"); path != "" {
		writeSummary(path, out, settings.Strategy, fs, log)
	}

	if !out.result.Succeeded() {
		return cli.Exit("", 1)
	}

	if c.Bool("play") {
		if err := callOwner(ctx, loop, func() error { return orch.Play(ctx) }); err != nil {
			log.Warn("Failed to play video: %s", err.Error())
		}
	}
	if c.Bool("share") {
		if err := callOwner(ctx, loop, func() error { return orch.Share(ctx) }); err != nil {
			log.Warn("Failed to share video: %s", err.Error())
		}
	}
	return nil
}

// startBuild selects codec and starts a build. A rejected codec is reported
// by the view and the build proceeds with the current selection.
// It must run on the owner loop.
func startBuild(ctx context.Context, orch *orchestrator.Orchestrator, codec string, src ports.FrameSource, settings orchestrator.Settings, log ports.Logger) error {
	if codec != orch.Session().Codec() {
		_ = orch.SelectCodec(codec)
	}
	orch.Refresh()
	log.Info("Building %s with %s (%s)...", settings.FileName, orch.Session().Codec(), settings.Strategy)
	return orch.Build(ctx, src)
}

func callOwner(ctx context.Context, loop *dispatch.Loop, fn func() error) error {
	var err error
	if !loop.Call(ctx, func() { err = fn() }) {
		return context.Canceled
	}
	return err
}

func writeSummary(path string, out outcome, strategy orchestrator.Strategy, fs ports.FileSystem, log ports.Logger) {
	builder := summarizer.NewBuilder().
		WithAttempt(out.attempt).
		WithStrategy(strategy.String()).
		WithResult(out.result)

	if success, ok := out.result.(muxer.Success); ok {
		info, err := probe.File(success.File)
		if err != nil {
			log.Warn("Failed to probe %s: %s", success.File, err.Error())
		} else {
			builder.WithProbe(info)
		}
	}

	formatter := summarizer.ForPath(path,
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	if err := summarizer.NewWriter(formatter, fs).Write(path, builder.Build()); err != nil {
		log.Error("Failed to write summary: %s", err.Error())
		return
	}
	log.Info("Summary saved to %s", path)
}
