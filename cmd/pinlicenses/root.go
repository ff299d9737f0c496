package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/git-pkgs/pinlicenses"
	"github.com/git-pkgs/pinlicenses/config"
	"github.com/git-pkgs/pinlicenses/fetch"
)

type flags struct {
	configPath  string
	manifest    string
	concurrency int
	timeout     time.Duration
	format      string
	breaker     bool
	progress    bool
	debug       bool
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:          "pinlicenses",
		Short:        "Find license files for the dependencies pinned in Package.resolved",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Flags(), f)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	bindFlags(cmd.Flags(), &f)
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func bindFlags(fs *pflag.FlagSet, f *flags) {
	def := config.Default()

	fs.StringVarP(&f.configPath, "config", "c", "", "Path to a YAML config file")
	fs.StringVarP(&f.manifest, "manifest", "m", "", "Path to Package.resolved (required)")
	fs.IntVar(&f.concurrency, "concurrency", def.Concurrency, "Number of dependencies checked at once")
	fs.DurationVar(&f.timeout, "timeout", def.Timeout, "Timeout for each HEAD request")
	fs.StringVarP(&f.format, "format", "f", def.Format, "Output format: table, json or yaml")
	fs.BoolVar(&f.breaker, "breaker", false, "Stop requesting a host after repeated transport failures")
	fs.BoolVar(&f.progress, "progress", false, "Show a progress bar on stderr")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
}

// resolveConfig loads the config file, if any, and applies explicitly set
// flags on top of it.
func resolveConfig(fs *pflag.FlagSet, f flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}

	if fs.Changed("manifest") {
		cfg.Manifest = f.manifest
	}
	if fs.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if fs.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fs.Changed("format") {
		cfg.Format = f.format
	}
	if f.breaker && cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = fetch.DefaultBreakerThreshold
	}
	if f.progress {
		cfg.Progress = true
	}
	if f.debug {
		cfg.Debug = true
	}

	if cfg.Manifest == "" {
		return cfg, pinlicenses.ErrNoManifestPath
	}
	return cfg, cfg.Validate()
}

func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}

func run(cmd *cobra.Command, cfg config.Config) error {
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	deps, err := pinlicenses.ReadManifest(cfg.Manifest)
	if err != nil {
		return err
	}
	logger.Debug("manifest read", zap.String("path", cfg.Manifest), zap.Int("pins", len(deps)))

	opts := []pinlicenses.Option{
		pinlicenses.WithLogger(logger),
		pinlicenses.WithConcurrency(cfg.Concurrency),
		pinlicenses.WithTimeout(cfg.Timeout),
		pinlicenses.WithUserAgent(cfg.UserAgent),
		pinlicenses.WithBreakerThreshold(cfg.BreakerThreshold),
	}

	var bar *progressbar.ProgressBar
	if cfg.Progress && len(deps) > 0 {
		bar = progressbar.NewOptions(len(deps),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("checking licenses"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
		opts = append(opts, pinlicenses.WithProgress(func(done, total int) {
			_ = bar.Set(done)
		}))
	}

	packages := pinlicenses.Packages(cmd.Context(), deps, opts...)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	if err := render(cmd.OutOrStdout(), cfg.Format, packages); err != nil {
		return err
	}
	printSummary(cmd.ErrOrStderr(), packages)
	return nil
}
