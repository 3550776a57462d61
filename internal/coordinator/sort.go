package coordinator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourorg/chunkmill/internal/iopkg"
	"github.com/yourorg/chunkmill/internal/runstore"
	"github.com/yourorg/chunkmill/internal/sortproc"
	"github.com/yourorg/chunkmill/internal/types"
)

// SortJob is one input file of the sorting workload.
type SortJob struct {
	Index  int
	URI    string
	Values int
	reg    *sortproc.Registry
}

// OpenSortJob reads the integer sequence at uri and splits it into workers runs.
func OpenSortJob(ctx context.Context, index int, uri string, workers int, store runstore.Store) (*SortJob, error) {
	rc, size, err := iopkg.Open(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", uri, err)
	}
	defer rc.Close()
	seq, err := sortproc.ReadSequence(rc, size)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	reg, err := sortproc.NewRegistry(index, seq, workers, store)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", uri, err)
	}
	return &SortJob{Index: index, URI: uri, Values: len(seq), reg: reg}, nil
}

// SortSource schedules the sort and merge units of all its files. Units of different
// files may share a round.
type SortSource struct {
	jobs []*SortJob
	agg  *Aggregator
	log  *zap.Logger
}

func NewSortSource(jobs []*SortJob, agg *Aggregator, logger *zap.Logger) *SortSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SortSource{jobs: jobs, agg: agg, log: logger}
}

func (s *SortSource) Next() (types.Request, bool, error) {
	for _, j := range s.jobs {
		req, ok, err := j.reg.NextTask()
		if err != nil {
			return types.Request{}, false, fmt.Errorf("%s: %w", j.URI, err)
		}
		if ok {
			return req, true, nil
		}
	}
	return types.Request{}, false, nil
}

func (s *SortSource) Apply(rep types.Reply) error {
	file := int(rep.File)
	if file >= len(s.jobs) {
		return fmt.Errorf("%w: unknown file %d", types.ErrProtocol, file)
	}
	j := s.jobs[file]
	if j.reg.Terminal() {
		return fmt.Errorf("%w: %s reply for finished file %s", types.ErrProtocol, rep.Kind, j.URI)
	}
	if err := j.reg.Apply(rep); err != nil {
		return fmt.Errorf("%s: %w", j.URI, err)
	}
	if !j.reg.Terminal() {
		return nil
	}
	vals, err := j.reg.Result()
	if err != nil {
		return fmt.Errorf("%s: %w", j.URI, err)
	}
	if err := s.agg.SetAnswer(file, vals); err != nil {
		return err
	}
	s.log.Info("file done", zap.String("file", j.URI), zap.Int("values", len(vals)), zap.Int("merges", j.reg.Merges()))
	return nil
}

func (s *SortSource) Done() bool {
	for _, j := range s.jobs {
		if !j.reg.Terminal() {
			return false
		}
	}
	return true
}
