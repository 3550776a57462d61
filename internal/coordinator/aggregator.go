package coordinator

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	znmetrics "github.com/yourorg/chunkmill/internal/metrics"
	"github.com/yourorg/chunkmill/internal/types"
)

// Aggregator owns the per-file results. Text counts are folded at most once per
// (file, chunk sequence); a sorted answer is set once per file.
type Aggregator struct {
	mu      sync.Mutex
	log     *zap.Logger
	counts  []types.Counts
	applied []map[uint32]struct{}
	answers [][]int32
	done    []bool
}

func NewAggregator(files int, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{
		log:     logger,
		counts:  make([]types.Counts, files),
		applied: make([]map[uint32]struct{}, files),
		answers: make([][]int32, files),
		done:    make([]bool, files),
	}
	for i := range a.applied {
		a.applied[i] = make(map[uint32]struct{})
	}
	return a
}

func (a *Aggregator) check(file int) error {
	if file < 0 || file >= len(a.counts) {
		return fmt.Errorf("%w: unknown file %d", types.ErrProtocol, file)
	}
	return nil
}

// ApplyCounts adds the counts of chunk seq to file's totals. It reports false, and changes
// nothing, when that chunk was already applied.
func (a *Aggregator) ApplyCounts(file int, seq uint32, c types.Counts) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(file); err != nil {
		return false, err
	}
	if _, dup := a.applied[file][seq]; dup {
		znmetrics.DuplicateResults.Inc()
		a.log.Warn("duplicate chunk result dropped", zap.Int("file", file), zap.Uint32("seq", seq))
		return false, nil
	}
	a.applied[file][seq] = struct{}{}
	a.counts[file].Add(c)
	return true, nil
}

// Applied returns how many distinct chunks of file have been folded.
func (a *Aggregator) Applied(file int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied[file])
}

func (a *Aggregator) Counts(file int) types.Counts {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[file]
}

// SetAnswer stores the final sorted sequence of file.
func (a *Aggregator) SetAnswer(file int, vals []int32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(file); err != nil {
		return err
	}
	if a.done[file] {
		return fmt.Errorf("%w: file %d already has an answer", types.ErrProtocol, file)
	}
	a.answers[file] = append([]int32(nil), vals...)
	a.done[file] = true
	return nil
}

// Answer returns the sorted sequence of file and whether it has been set.
func (a *Aggregator) Answer(file int) ([]int32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.answers[file], a.done[file]
}
