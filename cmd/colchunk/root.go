package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/arloliu/colchunk"
	"github.com/arloliu/colchunk/internal/config"
	"github.com/arloliu/colchunk/reader"
	"github.com/arloliu/colchunk/source"
)

// app is the state shared by every subcommand once the root command ran.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "colchunk",
		Short:         "Memory-bounded chunked reads of columnar table files",
		Long:          `Reads CCT and Parquet files from local paths or s3:// locations in chunks bounded by an output and an input memory budget.`,
		SilenceUsage:  true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return a.setup(c)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file (default ./colchunk.yaml if present)")
	cmd.PersistentFlags().String("output-limit", "", "Decoded bytes per chunk, e.g. 64MiB (0 for unbounded)")
	cmd.PersistentFlags().String("input-limit", "", "Encoded bytes staged ahead of decode, e.g. 256MiB (0 for unbounded)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newScanCmd(a))
	cmd.AddCommand(newInspectCmd(a))
	cmd.AddCommand(newBenchCmd(a))

	return cmd
}

func (a *app) setup(c *cobra.Command) error {
	path, err := c.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{"output-limit", &cfg.Budget.Output},
		{"input-limit", &cfg.Budget.Input},
		{"log-level", &cfg.Log.Level},
	}
	for _, o := range overrides {
		if !c.Flags().Changed(o.flag) {
			continue
		}
		if *o.target, err = c.Flags().GetString(o.flag); err != nil {
			return fmt.Errorf("failed to get %s flag: %w", o.flag, err)
		}
	}
	if _, _, err := cfg.Budget.Limits(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger, err = a.newLogger(c.ErrOrStderr())

	return err
}

// newLogger builds the stderr handler and, when a log file is configured, fans
// out to a JSON handler on that file.
func (a *app) newLogger(stderr io.Writer) (*slog.Logger, error) {
	level, err := a.cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	switch a.cfg.Log.Format {
	case "json":
		console = slog.NewJSONHandler(stderr, opts)
	case "text", "":
		console = slog.NewTextHandler(stderr, opts)
	default:
		return nil, fmt.Errorf("log.format: unknown format %q", a.cfg.Log.Format)
	}

	if a.cfg.Log.File == "" {
		return slog.New(console), nil
	}

	f, err := os.OpenFile(a.cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	a.closers = append(a.closers, f)

	return slog.New(slogmulti.Fanout(console, slog.NewJSONHandler(f, opts))), nil
}

func (a *app) close() error {
	var errList []error
	for _, c := range a.closers {
		errList = append(errList, c.Close())
	}
	a.closers = nil

	return errors.Join(errList...)
}

// open starts a reader session over locations with the configured budget.
func (a *app) open(ctx context.Context, locations []string, opts ...reader.Option) (*colchunk.Reader, error) {
	infos := make([]source.Info, len(locations))
	var client source.S3API
	for i, loc := range locations {
		info, err := source.ParseLocation(loc)
		if err != nil {
			return nil, err
		}
		if info.Kind == source.KindS3 {
			if client == nil {
				s3Client, err := source.NewS3Client(ctx, a.cfg.S3.ClientOptions())
				if err != nil {
					return nil, err
				}
				client = s3Client
			}
			info.S3 = client
		}
		infos[i] = info
	}

	base := []reader.Option{a.cfg.Budget.ReaderOption(), reader.WithLogger(a.logger)}

	return colchunk.Open(ctx, infos, append(base, opts...)...)
}
