package pool

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourorg/chunkmill/internal/types"
)

type result struct {
	rep types.Reply
	err error
}

type job struct {
	req   types.Request
	reply chan result // buffered; abandoned when the exchange is cancelled
}

// inprocSlot runs its worker as a goroutine that loops receive, execute, reply until it
// sees a request with Continue unset. Units run under the slot's context, which Stop
// cancels when the worker is still busy with a unit its exchange gave up on.
type inprocSlot struct {
	id     int
	in     chan job
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

// NewInProc starts n goroutine slots sharing exec.
func NewInProc(n int, exec Executor, logger *zap.Logger) []Slot {
	if logger == nil {
		logger = zap.NewNop()
	}
	slots := make([]Slot, n)
	for i := range slots {
		ctx, cancel := context.WithCancel(context.Background())
		s := &inprocSlot{id: i, in: make(chan job), done: make(chan struct{}), ctx: ctx, cancel: cancel}
		go s.loop(exec, logger.With(zap.Int("slot", i)))
		slots[i] = s
	}
	return slots
}

func (s *inprocSlot) loop(exec Executor, log *zap.Logger) {
	defer close(s.done)
	for {
		select {
		case j := <-s.in:
			if !j.req.Continue {
				log.Debug("slot stopping")
				return
			}
			rep, err := exec.ProcessUnit(s.ctx, j.req)
			j.reply <- result{rep: rep, err: err}
		case <-s.ctx.Done():
			log.Debug("slot cancelled")
			return
		}
	}
}

func (s *inprocSlot) Exchange(ctx context.Context, req types.Request) (types.Reply, error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return types.Reply{}, fmt.Errorf("slot %d: %w", s.id, ErrStopped)
	}
	j := job{req: req, reply: make(chan result, 1)}
	select {
	case s.in <- j:
	case <-ctx.Done():
		return types.Reply{}, ctx.Err()
	}
	select {
	case r := <-j.reply:
		return r.rep, r.err
	case <-ctx.Done():
		return types.Reply{}, ctx.Err()
	}
}

func (s *inprocSlot) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("slot %d: %w", s.id, ErrStopped)
	}
	s.stopped = true
	s.mu.Unlock()
	defer s.cancel()
	select {
	case s.in <- job{req: types.Stop}:
	default:
		// still running a unit whose exchange was abandoned
		s.cancel()
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("slot %d: wait for exit: %w", s.id, ctx.Err())
	}
}
