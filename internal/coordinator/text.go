package coordinator

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yourorg/chunkmill/internal/iopkg"
	"github.com/yourorg/chunkmill/internal/textproc"
	"github.com/yourorg/chunkmill/internal/types"
)

// TextJob is one input file of the word count workload.
type TextJob struct {
	Index int
	URI   string
	Size  int64

	src    iopkg.ReadSeekCloser
	issued int  // chunks handed out so far; also the next chunk sequence
	eof    bool // the last chunk has been handed out
}

// OpenTextJob opens uri for chunked reading.
func OpenTextJob(ctx context.Context, index int, uri string) (*TextJob, error) {
	src, size, err := iopkg.OpenSeeker(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", uri, err)
	}
	return &TextJob{Index: index, URI: uri, Size: size, src: src}, nil
}

// Close releases the input. It is safe to call more than once.
func (j *TextJob) Close() error {
	if j.src == nil {
		return nil
	}
	err := j.src.Close()
	j.src = nil
	return err
}

// TextSource hands out the chunks of its files in order, one file after the other, and
// folds the counts into the aggregator.
type TextSource struct {
	jobs []*TextJob
	seg  *textproc.Segmenter
	agg  *Aggregator
	log  *zap.Logger
	cur  int
}

func NewTextSource(jobs []*TextJob, seg *textproc.Segmenter, agg *Aggregator, logger *zap.Logger) *TextSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextSource{jobs: jobs, seg: seg, agg: agg, log: logger}
}

func (s *TextSource) Next() (types.Request, bool, error) {
	for s.cur < len(s.jobs) {
		j := s.jobs[s.cur]
		if j.eof {
			s.cur++
			continue
		}
		chunk, err := s.seg.Next(j.Index, j.src)
		if err != nil {
			return types.Request{}, false, fmt.Errorf("read %s: %w", j.URI, err)
		}
		seq := j.issued
		if len(chunk.Data) > 0 {
			j.issued++
		}
		if chunk.EOF {
			j.eof = true
			if err := j.Close(); err != nil {
				return types.Request{}, false, fmt.Errorf("close %s: %w", j.URI, err)
			}
			s.finish(j)
		}
		if len(chunk.Data) == 0 {
			continue
		}
		return types.Request{
			Continue: true,
			Kind:     types.TaskTokenize,
			Bytes:    chunk.Data,
			Len:      uint32(len(chunk.Data)),
			File:     uint32(j.Index),
			Seq:      uint32(seq),
		}, true, nil
	}
	return types.Request{}, false, nil
}

func (s *TextSource) Apply(rep types.Reply) error {
	if rep.Kind != types.TaskTokenize {
		return fmt.Errorf("%w: %s reply for a text job", types.ErrProtocol, rep.Kind)
	}
	file := int(rep.File)
	if file >= len(s.jobs) {
		return fmt.Errorf("%w: unknown file %d", types.ErrProtocol, file)
	}
	if int(rep.Seq) >= s.jobs[file].issued {
		return fmt.Errorf("%w: file %d chunk %d was never issued", types.ErrProtocol, file, rep.Seq)
	}
	if _, err := s.agg.ApplyCounts(file, rep.Seq, rep.Counts); err != nil {
		return err
	}
	s.finish(s.jobs[file])
	return nil
}

// finish logs the file once its last chunk result is in.
func (s *TextSource) finish(j *TextJob) {
	if j.eof && s.agg.Applied(j.Index) == j.issued {
		c := s.agg.Counts(j.Index)
		s.log.Info("file done", zap.String("file", j.URI), zap.Int("chunks", j.issued), zap.Uint64("words", c.Words))
	}
}

func (s *TextSource) Done() bool {
	for _, j := range s.jobs {
		if !j.eof || s.agg.Applied(j.Index) != j.issued {
			return false
		}
	}
	return true
}

// Close releases the inputs that were not read to the end.
func (s *TextSource) Close() error {
	var err error
	for _, j := range s.jobs {
		err = multierr.Append(err, j.Close())
	}
	return err
}
