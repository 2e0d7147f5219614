// Package main provides the CLI entry point for gifstream.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"
	"golang.org/x/sync/errgroup"

	"github.com/user/gifstream/pkg/adapters/gcssink"
	"github.com/user/gifstream/pkg/adapters/imagedecoder"
	"github.com/user/gifstream/pkg/adapters/logger"
	"github.com/user/gifstream/pkg/adapters/nullsink"
	"github.com/user/gifstream/pkg/adapters/osfilesystem"
	"github.com/user/gifstream/pkg/adapters/progressbar"
	"github.com/user/gifstream/pkg/adapters/s3sink"
	"github.com/user/gifstream/pkg/config"
	"github.com/user/gifstream/pkg/gifstream"
	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
	"github.com/user/gifstream/pkg/stages/ordering"
	"github.com/user/gifstream/pkg/summarizer"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Encode  EncodeCmd  `cmd:"" help:"${help_encode}"`
	Version VersionCmd `cmd:"" help:"${help_version}"`
}

// EncodeCmd defines the encode subcommand.
type EncodeCmd struct {
	Files  []string `arg:"" type:"existingfile" help:"${help_files}"`
	Output string   `short:"o" required:"" help:"${help_output}" group:"Output"`

	Config  string `short:"c" type:"existingfile" help:"${help_config}" group:"Output"`
	Summary string `help:"${help_summary}" group:"Output"`
	DryRun  bool   `help:"${help_dry_run}" group:"Output"`

	// Quality, overrides the config file
	Quality       *int `short:"q" help:"${help_quality}" group:"Quality"`
	MotionQuality *int `help:"${help_motion_quality}" group:"Quality"`
	LossyQuality  *int `help:"${help_lossy_quality}" group:"Quality"`
	Fast          bool `help:"${help_fast}" group:"Quality"`
	Extra         bool `help:"${help_extra}" group:"Quality"`

	// Size
	Width  *uint32 `short:"W" help:"${help_width}" group:"Size"`
	Height *uint32 `short:"H" help:"${help_height}" group:"Size"`

	// Timing
	FPS         *float64 `short:"r" help:"${help_fps}" group:"Timing"`
	FastForward *float64 `help:"${help_fast_forward}" group:"Timing"`
	Repeat      *int     `help:"${help_repeat}" group:"Timing"`
	NoSort      bool     `help:"${help_no_sort}" group:"Timing"`

	// Colors
	FixedColor []string `help:"${help_fixed_color}" group:"Colors"`
	Matte      *string  `help:"${help_matte}" group:"Colors"`

	// Runtime
	Workers  *int   `short:"j" help:"${help_workers}" group:"Runtime"`
	LogLevel string `short:"l" help:"${help_log_level}" group:"Runtime"`
	Quiet    bool   `short:"Q" help:"${help_quiet}" group:"Runtime"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("gifstream"),
		kong.Description(l10n.T("Encode image sequences into high quality animated GIFs.")),
		kong.UsageOnError(),
		helpVars(),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// Run executes the encode command.
func (cmd *EncodeCmd) Run() error {
	started := time.Now()

	cfg, err := cmd.buildConfig()
	if err != nil {
		return err
	}

	// Create logger. Writing the GIF to stdout moves all output to stderr.
	var log ports.Logger
	switch {
	case cmd.Quiet:
		log = logger.NewNoop()
	case cmd.Output == "-" && !cmd.DryRun:
		log = logger.NewStderrConsole(ports.ParseLogLevel(cfg.LogLevel))
	default:
		log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	}

	settings, err := cfg.ToSettings()
	if err != nil {
		return err
	}

	files := cmd.Files
	if !cfg.NoSort {
		files = sortedNaturally(files)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals. The encoder is stopped through its progress observer,
	// so frames already queued still reach the output.
	var interrupted atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			interrupted.Store(true)
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()
	enc, err := gifstream.New(settings,
		gifstream.WithLogger(log),
		gifstream.WithDecoder(imagedecoder.New()),
		gifstream.WithFileSystem(fs),
	)
	if err != nil {
		return err
	}

	var bar ports.ProgressObserver = ports.ProgressFunc(func() bool { return true })
	if !cmd.Quiet {
		bar = progressbar.Stderr(len(files))
	}
	progress := ports.ProgressFunc(func() bool {
		if interrupted.Load() {
			return false
		}
		return bar.FrameDone()
	})
	if err := enc.SetProgressObserver(progress); err != nil {
		return err
	}
	if err := enc.SetErrorObserver(ports.ErrorFunc(func(message string) {
		log.Error("%s", message)
	})); err != nil {
		return err
	}

	dest, err := cmd.bindOutput(ctx, enc, &cfg, log)
	if err != nil {
		return err
	}

	log.Info("Encoding %d frames to %s", len(files), dest)
	addErr := addFiles(ctx, enc, files, cfg)

	finishErr := enc.Finish()
	if b, ok := bar.(*progressbar.Bar); ok {
		b.Done()
	}

	stats := enc.Stats()
	summary := summarizer.NewBuilder().
		WithInput(len(files), cfg.FPS).
		WithSettings(enc.Settings()).
		WithStats(stats).
		WithDestination(dest).
		WithElapsed(time.Since(started)).
		Build()

	if cmd.Summary != "" {
		w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), fs)
		if err := w.Write(cmd.Summary, summary); err != nil {
			log.Warn("Failed to write summary: %s", err)
		} else {
			log.Info("Summary saved to %s", cmd.Summary)
		}
	}

	switch {
	case interrupted.Load():
		return errors.New(l10n.T("interrupted"))
	case addErr != nil && !errors.Is(addErr, pipeline.ErrAborted):
		return addErr
	case finishErr != nil:
		return finishErr
	}

	log.Info("Output saved to %s (%s)", dest, summarizer.OneLine.Format(summary))
	return nil
}

// buildConfig loads the config file, if any, and applies CLI overrides.
func (cmd *EncodeCmd) buildConfig() (config.Config, error) {
	cfg := config.Defaults()
	if cmd.Config != "" {
		loaded, err := config.LoadFromFile(cmd.Config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if cmd.Quality != nil {
		cfg.Quality = *cmd.Quality
	}
	if cmd.MotionQuality != nil {
		cfg.MotionQuality = *cmd.MotionQuality
	}
	if cmd.LossyQuality != nil {
		cfg.LossyQuality = *cmd.LossyQuality
	}
	if cmd.Fast {
		cfg.Fast = true
	}
	if cmd.Extra {
		cfg.Extra = true
	}
	if cmd.Width != nil {
		cfg.Width = *cmd.Width
	}
	if cmd.Height != nil {
		cfg.Height = *cmd.Height
	}
	if cmd.FPS != nil {
		cfg.FPS = *cmd.FPS
	}
	if cmd.FastForward != nil {
		cfg.FastForward = *cmd.FastForward
	}
	if cmd.Repeat != nil {
		cfg.Repeat = *cmd.Repeat
	}
	if cmd.NoSort {
		cfg.NoSort = true
	}
	if len(cmd.FixedColor) > 0 {
		cfg.FixedColors = append(cfg.FixedColors, cmd.FixedColor...)
	}
	if cmd.Matte != nil {
		cfg.Matte = *cmd.Matte
	}
	if cmd.Workers != nil {
		cfg.Workers = *cmd.Workers
	}
	if cmd.LogLevel != "" {
		cfg.LogLevel = cmd.LogLevel
	}

	if cfg.FPS <= 0 {
		return cfg, fmt.Errorf("fps must be positive, got %v", cfg.FPS)
	}
	return cfg, nil
}

// bindOutput attaches the destination named by -o and returns a display name for it.
func (cmd *EncodeCmd) bindOutput(ctx context.Context, enc *gifstream.Encoder, cfg *config.Config, log ports.Logger) (string, error) {
	out := cmd.Output
	switch {
	case cmd.DryRun:
		return "(dry run)", enc.SetOutput(nullsink.New())

	case out == "-":
		return "stdout", enc.SetWriteCallback(stdoutWriter(bufio.NewWriter(os.Stdout)))

	case strings.HasPrefix(out, "s3://"):
		bucket, key, ok := splitObjectURL(strings.TrimPrefix(out, "s3://"))
		if !ok {
			return "", fmt.Errorf("invalid S3 destination %q, expected s3://bucket/key", out)
		}
		cfg.S3.Bucket, cfg.S3.Key = bucket, key
		sink := s3sink.New(ctx, s3sink.NewUploader(cfg.S3), cfg.S3, log)
		if err := enc.SetOutput(sink); err != nil {
			sink.Close(err)
			return "", err
		}
		return out, nil

	case strings.HasPrefix(out, "gs://"):
		bucket, object, ok := splitObjectURL(strings.TrimPrefix(out, "gs://"))
		if !ok {
			return "", fmt.Errorf("invalid GCS destination %q, expected gs://bucket/object", out)
		}
		cfg.GCS.Bucket, cfg.GCS.Object = bucket, object
		sink, err := gcssink.Open(ctx, cfg.GCS, log)
		if err != nil {
			return "", err
		}
		if err := enc.SetOutput(sink); err != nil {
			sink.Close(err)
			return "", err
		}
		return sink.Name(), nil

	default:
		return out, enc.SetFileOutput(out)
	}
}

// stdoutWriter adapts a buffered writer to the write callback protocol.
func stdoutWriter(w *bufio.Writer) func(p []byte) int {
	code := func(err error) int {
		if err == nil {
			return 0
		}
		if k := pipeline.KindOf(err); k != pipeline.KindOK {
			return int(k)
		}
		return int(pipeline.KindOther)
	}
	return func(p []byte) int {
		if len(p) == 0 {
			return code(w.Flush())
		}
		_, err := w.Write(p)
		return code(err)
	}
}

func splitObjectURL(rest string) (bucket, key string, ok bool) {
	bucket, key, ok = strings.Cut(rest, "/")
	return bucket, key, ok && bucket != "" && key != ""
}

// addFiles decodes files on a bounded set of workers and admits them as
// they finish. Frame i is not started before frame i-window has been
// admitted, so out-of-order frames always fit in the reorder window.
func addFiles(ctx context.Context, enc *gifstream.Encoder, files []string, cfg config.Config) error {
	window := ordering.DefaultWindow
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > window {
		workers = window
	}
	step := cfg.FrameDuration()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	admitted := make([]chan struct{}, len(files))
	for i := range admitted {
		admitted[i] = make(chan struct{})
	}

	for i, path := range files {
		if i >= window {
			select {
			case <-admitted[i-window]:
			case <-gctx.Done():
			}
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			defer close(admitted[i])
			return enc.AddFrameFile(uint32(i), path, float64(i)*step)
		})
	}
	return g.Wait()
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("gifstream version %s", version))
	return nil
}
