package cli

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yourorg/chunkmill/internal/config"
	"github.com/yourorg/chunkmill/internal/coordinator"
	"github.com/yourorg/chunkmill/internal/runstore"
	"github.com/yourorg/chunkmill/internal/sortproc"
	"github.com/yourorg/chunkmill/internal/storage"
)

// NewSortCommand returns the intsort root command.
func NewSortCommand() *cobra.Command {
	cfg := config.Defaults()
	cmd := &cobra.Command{
		Use:   "intsort -t <num_threads> -f <file1> [<file2> ...]",
		Short: "Sort binary files of 32-bit integers with a pool of sort and merge workers",
		Example: "  intsort -t 8 -f datSeq1M.bin\n" +
			"  intsort --scratch /var/chunkmill -o s3://results/sorted.bin -f s3://inputs/datSeq1M.bin",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	complete := bindCommon(cmd, &cfg)
	cmd.Flags().StringVar(&cfg.ScratchDir, "scratch", cfg.ScratchDir, "keep runs in a badger store under this directory instead of memory")
	cmd.Flags().StringVarP(&cfg.Output, "output", "o", "", "also write the sorted sequence(s) to this path, file:// or s3:// URI")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		complete(args)
		return runSort(cmd, cfg)
	}
	return cmd
}

func openStore(dir string) (runstore.Store, error) {
	if dir == "" {
		return runstore.NewMemory(), nil
	}
	st, err := runstore.OpenScratch(dir)
	if err != nil {
		return nil, fmt.Errorf("open run store under %s: %w", dir, err)
	}
	return st, nil
}

func runSort(cmd *cobra.Command, cfg config.Config) (err error) {
	ctx := cmd.Context()
	s, err := start(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.finish()
	began := time.Now()

	store, err := openStore(cfg.ScratchDir)
	if err != nil {
		return abort(ctx, s, err)
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	jobs := make([]*coordinator.SortJob, 0, len(cfg.Files))
	for i, f := range cfg.Files {
		j, err := coordinator.OpenSortJob(ctx, i, f, cfg.Workers, store)
		if err != nil {
			return abort(ctx, s, err)
		}
		jobs = append(jobs, j)
	}
	agg := coordinator.NewAggregator(len(jobs), s.logger)
	c := coordinator.New(s.slots, s.coordinatorConfig())
	if err := c.Run(ctx, coordinator.NewSortSource(jobs, agg, s.logger)); err != nil {
		return err
	}

	sink := storage.NewSink()
	for _, j := range jobs {
		vals, _ := agg.Answer(j.Index)
		if err := coordinator.WriteSortReport(cmd.OutOrStdout(), j.URI, vals); err != nil {
			return err
		}
		if cfg.Output == "" {
			continue
		}
		dst := outputURI(cfg.Output, j.Index, len(jobs))
		var buf bytes.Buffer
		if err := sortproc.WriteSequence(&buf, vals); err != nil {
			return err
		}
		if _, err := sink.Put(ctx, dst, &buf); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
		s.logger.Info("sorted output written", zap.String("file", j.URI), zap.String("output", dst))
	}
	elapsed(cmd, began)
	return nil
}

// outputURI is base for a single input and base.<index> when there are several.
func outputURI(base string, index, files int) string {
	if files == 1 {
		return base
	}
	return fmt.Sprintf("%s.%d", base, index)
}
