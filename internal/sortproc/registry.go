package sortproc

import (
	"errors"
	"fmt"

	"github.com/yourorg/chunkmill/internal/runstore"
	"github.com/yourorg/chunkmill/internal/types"
)

// ErrWorkers is returned when a file is split into fewer than one run.
var ErrWorkers = errors.New("worker count must be at least 1")

// Run describes one slot of the run arena. Its contents live in the store.
type Run struct {
	Index  int
	Size   int
	Status types.RunStatus
}

// Registry tracks the runs of one file and decides the next sort or merge task.
// It is not safe for concurrent use; the coordinator's aggregator serializes access.
type Registry struct {
	file   int
	runs   []Run
	store  runstore.Store
	cursor int // round-robin start for the merge scan
	final  int // index of the Final run, -1 until the file is done
	merges int
}

// NewRegistry splits seq into workers contiguous runs of ceil(len/workers) values, the last
// run absorbing the remainder, and stores them as Unsorted.
func NewRegistry(file int, seq []int32, workers int, store runstore.Store) (*Registry, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: %d", ErrWorkers, workers)
	}
	total := len(seq)
	size := (total + workers - 1) / workers
	r := &Registry{file: file, runs: make([]Run, workers), store: store, final: -1}
	for i := range r.runs {
		lo := min(i*size, total)
		hi := min(lo+size, total)
		if i == workers-1 {
			hi = total
		}
		if err := store.Put(file, i, seq[lo:hi]); err != nil {
			return nil, fmt.Errorf("store run %d: %w", i, err)
		}
		r.runs[i] = Run{Index: i, Size: hi - lo, Status: types.RunUnsorted}
	}
	return r, nil
}

// NextTask returns the next runnable unit for this file: a Sort of the first Unsorted run,
// otherwise a Merge of the first two Sorted runs found from the rotating cursor. It returns
// false when nothing is runnable, either because results are still in flight or because the
// file is done.
func (r *Registry) NextTask() (types.Request, bool, error) {
	if r.final >= 0 {
		return types.Request{}, false, nil
	}
	for i := range r.runs {
		if r.runs[i].Status != types.RunUnsorted {
			continue
		}
		vals, err := r.store.Get(r.file, i)
		if err != nil {
			return types.Request{}, false, fmt.Errorf("load run %d: %w", i, err)
		}
		r.runs[i].Status = types.RunBeingSorted
		return types.Request{
			Continue: true,
			Kind:     types.TaskSort,
			Ints:     vals,
			Len:      uint32(len(vals)),
			File:     uint32(r.file),
			Run:      uint32(i),
		}, true, nil
	}

	n := len(r.runs)
	pair := make([]int, 0, 2)
	for k := 0; k < n && len(pair) < 2; k++ {
		idx := (r.cursor + k) % n
		if r.runs[idx].Status == types.RunSorted {
			pair = append(pair, idx)
		}
	}
	if len(pair) < 2 {
		return types.Request{}, false, nil
	}
	a, b := pair[0], pair[1]
	va, err := r.store.Get(r.file, a)
	if err != nil {
		return types.Request{}, false, fmt.Errorf("load run %d: %w", a, err)
	}
	vb, err := r.store.Get(r.file, b)
	if err != nil {
		return types.Request{}, false, fmt.Errorf("load run %d: %w", b, err)
	}
	r.cursor = (b + 1) % n
	r.runs[a].Status = types.RunBeingMerged
	r.runs[b].Status = types.RunBeingMerged
	return types.Request{
		Continue: true,
		Kind:     types.TaskMerge,
		Ints:     append(va, vb...),
		Len:      uint32(len(va) + len(vb)),
		Split:    uint32(len(va)),
		File:     uint32(r.file),
		Run:      uint32(a),
		RunB:     uint32(b),
	}, true, nil
}

// Apply folds a Sort or Merge reply into the registry.
func (r *Registry) Apply(rep types.Reply) error {
	if int(rep.File) != r.file {
		return fmt.Errorf("%w: reply for file %d applied to file %d", types.ErrProtocol, rep.File, r.file)
	}
	switch rep.Kind {
	case types.TaskSort:
		run, err := r.expect(rep.Run, types.RunBeingSorted)
		if err != nil {
			return err
		}
		if len(rep.Ints) != run.Size {
			return fmt.Errorf("%w: sorted run %d has %d values, want %d", types.ErrProtocol, run.Index, len(rep.Ints), run.Size)
		}
		if err := r.store.Put(r.file, run.Index, rep.Ints); err != nil {
			return fmt.Errorf("store run %d: %w", run.Index, err)
		}
		run.Status = types.RunSorted
	case types.TaskMerge:
		a, err := r.expect(rep.Run, types.RunBeingMerged)
		if err != nil {
			return err
		}
		b, err := r.expect(rep.RunB, types.RunBeingMerged)
		if err != nil {
			return err
		}
		if a == b || len(rep.Ints) != a.Size+b.Size {
			return fmt.Errorf("%w: merge of runs %d+%d returned %d values, want %d",
				types.ErrProtocol, a.Index, b.Index, len(rep.Ints), a.Size+b.Size)
		}
		if err := r.store.Put(r.file, a.Index, rep.Ints); err != nil {
			return fmt.Errorf("store run %d: %w", a.Index, err)
		}
		a.Size += b.Size
		a.Status = types.RunSorted
		b.Status = types.RunObsolete
		r.merges++
	default:
		return fmt.Errorf("%w: %s reply applied to run registry", types.ErrProtocol, rep.Kind)
	}
	return r.settle()
}

func (r *Registry) expect(idx uint32, status types.RunStatus) (*Run, error) {
	if int(idx) >= len(r.runs) {
		return nil, fmt.Errorf("%w: unknown run %d", types.ErrProtocol, idx)
	}
	run := &r.runs[idx]
	if run.Status != status {
		return nil, fmt.Errorf("%w: run %d is %s, want %s", types.ErrProtocol, idx, run.Status, status)
	}
	return run, nil
}

// settle marks the last live run Final once it is sorted, and frees the tombstones.
func (r *Registry) settle() error {
	live := -1
	for i := range r.runs {
		if r.runs[i].Status == types.RunObsolete {
			continue
		}
		if live >= 0 {
			return nil
		}
		live = i
	}
	if live < 0 || r.runs[live].Status != types.RunSorted {
		return nil
	}
	r.runs[live].Status = types.RunFinal
	r.final = live
	for i := range r.runs {
		if r.runs[i].Status != types.RunObsolete {
			continue
		}
		if err := r.store.Delete(r.file, i); err != nil {
			return fmt.Errorf("free run %d: %w", i, err)
		}
	}
	return nil
}

// Terminal reports whether the file has a Final run.
func (r *Registry) Terminal() bool { return r.final >= 0 }

// Result returns the contents of the Final run.
func (r *Registry) Result() ([]int32, error) {
	if r.final < 0 {
		return nil, fmt.Errorf("file %d has no final run yet", r.file)
	}
	return r.store.Get(r.file, r.final)
}

// Merges returns the number of merge results applied so far.
func (r *Registry) Merges() int { return r.merges }

// Runs returns a snapshot of the run table.
func (r *Registry) Runs() []Run { return append([]Run(nil), r.runs...) }
