package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	znmetrics "github.com/yourorg/chunkmill/internal/metrics"
	"github.com/yourorg/chunkmill/internal/sortproc"
	"github.com/yourorg/chunkmill/internal/textproc"
	"github.com/yourorg/chunkmill/internal/types"
	"github.com/yourorg/chunkmill/internal/workflow"
)

type Config struct {
	Logger *zap.Logger
}

// Activities executes work units. It holds no job state: every call depends only on the
// request it is given.
type Activities struct {
	cfg Config
}

func New(cfg Config) *Activities {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Activities{cfg: cfg}
}

// ProcessUnit runs one Tokenize, Sort or Merge unit and returns its result.
func (a *Activities) ProcessUnit(ctx context.Context, req types.Request) (types.Reply, error) {
	if err := ctx.Err(); err != nil {
		return types.Reply{}, err
	}
	if err := req.Validate(); err != nil {
		return types.Reply{}, temporal.NewNonRetryableApplicationError(err.Error(), workflow.ProtocolErrorType, err)
	}
	rep := types.Reply{Kind: req.Kind, File: req.File, Seq: req.Seq, Run: req.Run, RunB: req.RunB}
	switch req.Kind {
	case types.TaskTokenize:
		rep.Counts = textproc.Tokenize(req.Bytes)
		rep.Len = req.Len
		znmetrics.ChunksTokenized.Inc()
		znmetrics.WordsCounted.Add(float64(rep.Counts.Words))
	case types.TaskSort:
		vals := req.Ints
		sortproc.MergeSort(vals)
		rep.Ints, rep.Len, rep.Status = vals, uint32(len(vals)), types.RunSorted
		znmetrics.RunsSorted.Inc()
	case types.TaskMerge:
		merged := sortproc.Merge(req.Ints[:req.Split], req.Ints[req.Split:])
		rep.Ints, rep.Len, rep.Status = merged, uint32(len(merged)), types.RunSorted
		znmetrics.RunsMerged.Inc()
	default:
		return types.Reply{}, fmt.Errorf("%w: unknown task kind %d", types.ErrProtocol, req.Kind)
	}
	a.cfg.Logger.Debug("unit done",
		zap.Stringer("kind", req.Kind),
		zap.Uint32("file", req.File),
		zap.Uint32("seq", req.Seq),
		zap.Uint32("run", req.Run),
		zap.Uint32("len", req.Len))
	return rep, nil
}
