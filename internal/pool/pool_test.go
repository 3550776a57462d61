package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yourorg/chunkmill/internal/activities"
	"github.com/yourorg/chunkmill/internal/types"
)

const helperEnv = "CHUNKMILL_POOL_TEST_SLOT"

// TestMain doubles as the worker binary for the process pool tests.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		if err := ServeSlot(context.Background(), os.Stdin, os.Stdout, activities.New(activities.Config{})); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func sortReq(run uint32, vals ...int32) types.Request {
	return types.Request{Continue: true, Kind: types.TaskSort, Ints: vals, Len: uint32(len(vals)), Run: run}
}

func exerciseSlots(t *testing.T, slots []Slot) {
	t.Helper()
	ctx := context.Background()
	for i, s := range slots {
		req := sortReq(uint32(i), 9, 2, 7, int32(i))
		rep, err := s.Exchange(ctx, req)
		require.NoError(t, err)
		require.NoError(t, rep.Matches(req))
		assert.Equal(t, types.RunSorted, rep.Status)
		assert.IsNonDecreasing(t, rep.Ints)
	}
	for _, s := range slots {
		require.NoError(t, s.Stop(ctx))
	}
	for _, s := range slots {
		_, err := s.Exchange(ctx, sortReq(0, 1))
		assert.ErrorIs(t, err, ErrStopped)
		assert.ErrorIs(t, s.Stop(ctx), ErrStopped)
	}
}

func TestInProcSlots(t *testing.T) {
	exerciseSlots(t, NewInProc(3, activities.New(activities.Config{}), nil))
}

func TestInProcPropagatesExecutorError(t *testing.T) {
	slots := NewInProc(1, activities.New(activities.Config{}), nil)
	_, err := slots[0].Exchange(context.Background(), types.Request{Continue: true, Kind: types.TaskSort, Len: 4})
	assert.ErrorIs(t, err, types.ErrProtocol)
	require.NoError(t, slots[0].Stop(context.Background()))
}

type blockingExec struct{ release chan struct{} }

func (b blockingExec) ProcessUnit(ctx context.Context, req types.Request) (types.Reply, error) {
	<-b.release
	return types.Reply{Kind: req.Kind, Run: req.Run}, nil
}

func TestInProcExchangeHonoursContext(t *testing.T) {
	exec := blockingExec{release: make(chan struct{})}
	slots := NewInProc(1, exec, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := slots[0].Exchange(ctx, sortReq(0, 1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// the abandoned reply must not leak into the next exchange
	close(exec.release)
	rep, err := slots[0].Exchange(context.Background(), sortReq(7))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), rep.Run)
	require.NoError(t, slots[0].Stop(context.Background()))
}

type ctxExec struct{ cancelled chan struct{} }

func (e ctxExec) ProcessUnit(ctx context.Context, req types.Request) (types.Reply, error) {
	<-ctx.Done()
	close(e.cancelled)
	return types.Reply{}, ctx.Err()
}

func TestInProcStopCancelsAbandonedUnit(t *testing.T) {
	exec := ctxExec{cancelled: make(chan struct{})}
	slots := NewInProc(1, exec, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := slots[0].Exchange(ctx, sortReq(0, 1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, slots[0].Stop(stopCtx))
	select {
	case <-exec.cancelled:
	default:
		t.Fatal("late unit still running after Stop")
	}
}

func TestServeSlotOverPipes(t *testing.T) {
	reqR, reqW := io.Pipe()
	repR, repW := io.Pipe()
	served := make(chan error, 1)
	go func() {
		served <- ServeSlot(context.Background(), reqR, repW, activities.New(activities.Config{}))
		repW.Close()
	}()

	slot := &processSlot{id: 0, in: reqW}
	slot.enc, slot.dec = newCodec(reqW, repR)
	slot.log = zap.NewNop()

	req := types.Request{Continue: true, Kind: types.TaskMerge, Ints: []int32{1, 4, 2, 3}, Len: 4, Split: 2, RunB: 1}
	rep, err := slot.Exchange(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3, 4}, rep.Ints)

	// worker-side failures come back as Reply.Err and keep the slot usable
	_, err = slot.Exchange(context.Background(), types.Request{Continue: true, Kind: types.TaskTokenize, Len: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "protocol violation")

	data := []byte("um dois")
	rep, err = slot.Exchange(context.Background(), types.Request{Continue: true, Kind: types.TaskTokenize, Bytes: data, Len: uint32(len(data))})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rep.Counts.Words)

	require.NoError(t, slot.enc.Encode(types.Stop))
	require.NoError(t, <-served)
}

func TestProcessSlots(t *testing.T) {
	slots, err := NewProcess(2, ProcessConfig{Argv: []string{os.Args[0]}, Env: []string{helperEnv + "=1"}})
	require.NoError(t, err)
	exerciseSlots(t, slots)
}

func TestProcessRejectsEmptyArgv(t *testing.T) {
	_, err := NewProcess(1, ProcessConfig{})
	assert.Error(t, err)
}

type fakeRun struct {
	client.WorkflowRun
	id  string
	rep types.Reply
	err error
}

func (r *fakeRun) GetID() string    { return r.id }
func (r *fakeRun) GetRunID() string { return "run-" + r.id }
func (r *fakeRun) Get(ctx context.Context, valuePtr interface{}) error {
	if r.err != nil {
		return r.err
	}
	*(valuePtr.(*types.Reply)) = r.rep
	return nil
}

type fakeStarter struct {
	started atomic.Int32
	queue   string
	fail    error
}

func (f *fakeStarter) ExecuteWorkflow(ctx context.Context, opts client.StartWorkflowOptions, wf interface{}, args ...interface{}) (client.WorkflowRun, error) {
	f.started.Add(1)
	f.queue = opts.TaskQueue
	req := args[0].(types.Request)
	rep, err := activities.New(activities.Config{}).ProcessUnit(ctx, req)
	return &fakeRun{id: opts.ID, rep: rep, err: errors.Join(f.fail, err)}, nil
}

func TestTemporalSlots(t *testing.T) {
	f := &fakeStarter{}
	slots := NewTemporal(2, f, "chunkmill", nil)
	exerciseSlots(t, slots)
	assert.Equal(t, int32(2), f.started.Load())
	assert.Equal(t, "chunkmill", f.queue)
}

func TestTemporalSlotPropagatesRunError(t *testing.T) {
	f := &fakeStarter{fail: errors.New("workflow failed")}
	slots := NewTemporal(1, f, "q", nil)
	_, err := slots[0].Exchange(context.Background(), sortReq(0, 3, 1))
	assert.ErrorContains(t, err, "workflow failed")
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindInProc, KindProcess, KindTemporal} {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Kind("threads").Valid())
}
