// Package cli wires configuration, logging, metrics and a worker pool into the wordcount
// and intsort commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yourorg/chunkmill/internal/activities"
	"github.com/yourorg/chunkmill/internal/config"
	"github.com/yourorg/chunkmill/internal/coordinator"
	"github.com/yourorg/chunkmill/internal/iopkg"
	znmetrics "github.com/yourorg/chunkmill/internal/metrics"
	"github.com/yourorg/chunkmill/internal/pool"
)

// SlotEnv, set to "1", turns a wordcount or intsort binary into a process-pool worker that
// serves units on stdin/stdout instead of parsing flags.
const SlotEnv = "CHUNKMILL_SLOT"

// executable locates the binary process slots re-run; overridden in tests.
var executable = os.Executable

// bindCommon registers the flags both workloads share and returns a hook that completes
// cfg from the positional arguments.
func bindCommon(cmd *cobra.Command, cfg *config.Config) func(args []string) {
	var pk string
	f := cmd.Flags()
	f.StringSliceVarP(&cfg.Files, "file", "f", nil, "input files (path, file:// or s3://); more may follow as arguments")
	f.IntVarP(&cfg.Workers, "threads", "t", cfg.Workers, "number of workers (1-8)")
	f.StringVar(&pk, "pool", string(cfg.Pool), "worker substrate: inproc, process or temporal")
	f.DurationVar(&cfg.RoundTimeout, "round-timeout", 0, "deadline for the replies of one round (0 waits forever)")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus /metrics on this address while running")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	return func(args []string) {
		cfg.Files = append(cfg.Files, args...)
		cfg.Pool = pool.Kind(pk)
	}
}

// IsSlot reports whether the process was launched by a process pool.
func IsSlot() bool { return os.Getenv(SlotEnv) == "1" }

// ServeSlot runs the worker side of a process slot until the pool sends a stop request.
func ServeSlot(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := NewLogger(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()
	acts := activities.New(activities.Config{Logger: logger})
	return pool.ServeSlot(ctx, in, out, acts)
}

// session is the per-invocation runtime shared by both workloads.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	slots  []pool.Slot
	close  func()
}

func start(ctx context.Context, cfg config.Config) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, f := range cfg.Files {
		if err := iopkg.Exists(ctx, f); err != nil {
			return nil, fmt.Errorf("%w: %s file doesn't exist: %v", config.ErrInvalid, f, err)
		}
	}
	logger := NewLogger(cfg.LogLevel)
	s := &session{cfg: cfg, logger: logger, close: func() {}}

	znmetrics.Init()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := znmetrics.Serve(cfg.MetricsAddr); err != nil {
				logger.Warn("metrics server", zap.Error(err))
			}
		}()
	}

	var err error
	switch cfg.Pool {
	case pool.KindInProc:
		s.slots = pool.NewInProc(cfg.Workers, activities.New(activities.Config{Logger: logger}), logger)
	case pool.KindProcess:
		exe, xerr := executable()
		if xerr != nil {
			return nil, fmt.Errorf("locate executable: %w", xerr)
		}
		s.slots, err = pool.NewProcess(cfg.Workers, pool.ProcessConfig{
			Argv:   []string{exe},
			Env:    []string{SlotEnv + "=1", "LOG_LEVEL=" + cfg.LogLevel},
			Logger: logger,
		})
	case pool.KindTemporal:
		c, derr := client.Dial(client.Options{HostPort: cfg.TemporalHost, Namespace: cfg.TemporalNamespace})
		if derr != nil {
			return nil, fmt.Errorf("temporal client: %w", derr)
		}
		s.slots = pool.NewTemporal(cfg.Workers, c, cfg.TemporalQueue, logger)
		s.close = c.Close
	}
	if err != nil {
		return nil, err
	}
	logger.Info("pool started",
		zap.String("pool", string(cfg.Pool)),
		zap.Int("workers", cfg.Workers),
		zap.Strings("files", cfg.Files))
	return s, nil
}

// coordinatorConfig bounds the stop broadcast by the round timeout, so a worker still busy
// with a timed-out unit cannot hold the command open.
func (s *session) coordinatorConfig() coordinator.Config {
	return coordinator.Config{
		Logger:       s.logger,
		RoundTimeout: s.cfg.RoundTimeout,
		StopTimeout:  s.cfg.RoundTimeout,
	}
}

func (s *session) finish() {
	s.close()
	_ = s.logger.Sync()
}

func elapsed(cmd *cobra.Command, since time.Time) {
	fmt.Fprintf(cmd.OutOrStdout(), "Elapsed time = %.6f s\n", time.Since(since).Seconds())
}

// abort stops the pool when a job fails to open, so no slot outlives the command.
func abort(ctx context.Context, s *session, cause error) error {
	c := coordinator.New(s.slots, s.coordinatorConfig())
	return multierr.Append(cause, c.Stop(ctx))
}
