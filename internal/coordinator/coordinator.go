// Package coordinator drives worker slots in rounds until every file of a job is done.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	znmetrics "github.com/yourorg/chunkmill/internal/metrics"
	"github.com/yourorg/chunkmill/internal/pool"
	"github.com/yourorg/chunkmill/internal/types"
)

// ErrStalled is returned when no unit can be produced while the job is unfinished and
// nothing is in flight.
var ErrStalled = errors.New("coordinator stalled")

// Source produces the work units of one job and folds their replies. It is only called
// from the coordinator loop.
type Source interface {
	// Next returns the next runnable unit, or false when none is runnable right now.
	Next() (types.Request, bool, error)
	Apply(rep types.Reply) error
	Done() bool
}

type Config struct {
	Logger *zap.Logger
	// RoundTimeout bounds the wait for a round's replies. Zero waits forever.
	RoundTimeout time.Duration
	// StopTimeout bounds the termination broadcast. Zero waits forever.
	StopTimeout time.Duration
}

type Coordinator struct {
	slots []pool.Slot
	cfg   Config
}

func New(slots []pool.Slot, cfg Config) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Coordinator{slots: slots, cfg: cfg}
}

// Run dispatches rounds until src is done. Each round hands at most one unit to every
// slot, waits for all replies and applies them in slot order. Whether Run succeeds or
// fails, every slot is stopped exactly once before it returns.
func (c *Coordinator) Run(ctx context.Context, src Source) (err error) {
	defer func() {
		err = multierr.Append(err, c.Stop(context.WithoutCancel(ctx)))
	}()
	if len(c.slots) == 0 {
		return fmt.Errorf("%w: no worker slots", ErrStalled)
	}
	for round := 0; !src.Done(); round++ {
		reqs := make([]types.Request, 0, len(c.slots))
		for len(reqs) < len(c.slots) {
			req, ok, err := src.Next()
			if err != nil {
				return fmt.Errorf("round %d: next unit: %w", round, err)
			}
			if !ok {
				break
			}
			reqs = append(reqs, req)
		}
		if len(reqs) == 0 {
			if src.Done() {
				break
			}
			return fmt.Errorf("%w: round %d has no runnable unit", ErrStalled, round)
		}

		replies, err := c.dispatch(ctx, reqs)
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		for _, rep := range replies {
			if err := src.Apply(rep); err != nil {
				return fmt.Errorf("round %d: apply %s reply: %w", round, rep.Kind, err)
			}
		}
		c.cfg.Logger.Debug("round done", zap.Int("round", round), zap.Int("units", len(reqs)))
	}
	return nil
}

func (c *Coordinator) dispatch(ctx context.Context, reqs []types.Request) ([]types.Reply, error) {
	if c.cfg.RoundTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RoundTimeout)
		defer cancel()
	}
	start := time.Now()
	replies := make([]types.Reply, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		znmetrics.UnitsDispatched.WithLabelValues(req.Kind.String()).Inc()
		g.Go(func() error {
			rep, err := c.slots[i].Exchange(gctx, req)
			if err != nil {
				return fmt.Errorf("worker failure: %w", err)
			}
			if err := rep.Matches(req); err != nil {
				return fmt.Errorf("slot %d: %w", i, err)
			}
			replies[i] = rep
			return nil
		})
	}
	err := g.Wait()
	znmetrics.RoundSeconds.Observe(time.Since(start).Seconds())
	return replies, err
}

// Stop delivers the termination request to every slot concurrently and combines the
// failures. Run calls it on return; call it directly only when Run is never reached.
func (c *Coordinator) Stop(ctx context.Context) error {
	if c.cfg.StopTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.StopTimeout)
		defer cancel()
	}
	errs := make([]error, len(c.slots))
	g := new(errgroup.Group)
	for i, s := range c.slots {
		i, s := i, s
		g.Go(func() error {
			errs[i] = s.Stop(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}
