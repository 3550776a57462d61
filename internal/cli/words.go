package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/yourorg/chunkmill/internal/config"
	"github.com/yourorg/chunkmill/internal/coordinator"
	"github.com/yourorg/chunkmill/internal/textproc"
)

// NewWordsCommand returns the wordcount root command.
func NewWordsCommand() *cobra.Command {
	cfg := config.Defaults()
	cmd := &cobra.Command{
		Use:   "wordcount -t <num_threads> -f <file1> [<file2> ...] -c <chunk_size>",
		Short: "Count the words of text files, and the words containing each vowel",
		Example: "  wordcount -t 4 -f text0.txt text1.txt -c 8192\n" +
			"  wordcount --pool process -f s3://corpus/text0.txt",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	complete := bindCommon(cmd, &cfg)
	cmd.Flags().IntVarP(&cfg.ChunkSize, "chunk", "c", cfg.ChunkSize, "chunk size in bytes (4096 or 8192)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		complete(args)
		if err := cfg.ValidateChunk(); err != nil {
			return err
		}
		return runWords(cmd, cfg)
	}
	return cmd
}

func runWords(cmd *cobra.Command, cfg config.Config) error {
	ctx := cmd.Context()
	seg, err := textproc.NewSegmenter(cfg.ChunkSize)
	if err != nil {
		return err
	}
	s, err := start(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.finish()
	began := time.Now()

	jobs := make([]*coordinator.TextJob, 0, len(cfg.Files))
	for i, f := range cfg.Files {
		j, err := coordinator.OpenTextJob(ctx, i, f)
		if err != nil {
			for _, open := range jobs {
				_ = open.Close()
			}
			return abort(ctx, s, err)
		}
		jobs = append(jobs, j)
	}
	agg := coordinator.NewAggregator(len(jobs), s.logger)
	src := coordinator.NewTextSource(jobs, seg, agg, s.logger)
	defer src.Close()

	c := coordinator.New(s.slots, s.coordinatorConfig())
	if err := c.Run(ctx, src); err != nil {
		return err
	}
	for _, j := range jobs {
		if err := coordinator.WriteTextReport(cmd.OutOrStdout(), j.URI, agg.Counts(j.Index)); err != nil {
			return err
		}
	}
	elapsed(cmd, began)
	return nil
}
