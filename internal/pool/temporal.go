package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yourorg/chunkmill/internal/types"
	"github.com/yourorg/chunkmill/internal/workflow"
)

// workflowStarter is the part of client.Client the temporal pool uses.
type workflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, wf interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// temporalSlot runs each unit as a UnitWorkflow on the task queue. The slot bounds how
// many units are in flight; the workers behind the queue are long-lived and are not
// stopped by the coordinator.
type temporalSlot struct {
	id     int
	c      workflowStarter
	queue  string
	prefix string
	log    *zap.Logger

	mu      sync.Mutex
	stopped bool
}

// NewTemporal returns n slots backed by workers polling queue.
func NewTemporal(n int, c workflowStarter, queue string, logger *zap.Logger) []Slot {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := "chunkmill-" + uuid.NewString()
	slots := make([]Slot, n)
	for i := range slots {
		slots[i] = &temporalSlot{id: i, c: c, queue: queue, prefix: prefix, log: logger.With(zap.Int("slot", i))}
	}
	return slots
}

func (s *temporalSlot) Exchange(ctx context.Context, req types.Request) (types.Reply, error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return types.Reply{}, fmt.Errorf("slot %d: %w", s.id, ErrStopped)
	}
	opts := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("%s-%s-f%d-s%d-r%d-%s", s.prefix, req.Kind, req.File, req.Seq, req.Run, uuid.NewString()[:8]),
		TaskQueue: s.queue,
	}
	run, err := s.c.ExecuteWorkflow(ctx, opts, workflow.UnitWorkflow, req)
	if err != nil {
		return types.Reply{}, fmt.Errorf("slot %d: start unit: %w", s.id, err)
	}
	s.log.Debug("unit started", zap.String("workflowID", run.GetID()), zap.String("runID", run.GetRunID()))
	var rep types.Reply
	if err := run.Get(ctx, &rep); err != nil {
		return types.Reply{}, fmt.Errorf("slot %d: unit %s: %w", s.id, run.GetID(), err)
	}
	return rep, nil
}

func (s *temporalSlot) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("slot %d: %w", s.id, ErrStopped)
	}
	s.stopped = true
	return nil
}
