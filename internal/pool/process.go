package pool

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"github.com/yourorg/chunkmill/internal/types"
)

// ProcessConfig describes how to launch one worker process per slot. The child must run
// ServeSlot on its stdin and stdout.
type ProcessConfig struct {
	Argv   []string // program and arguments, usually just the current binary
	Env    []string // appended to the parent environment
	Logger *zap.Logger
}

type processSlot struct {
	id  int
	cmd *exec.Cmd
	in  io.WriteCloser
	enc *json.Encoder
	dec *json.Decoder
	log *zap.Logger

	mu      sync.Mutex // one exchange at a time
	stopped bool
	broken  bool
}

// NewProcess launches n worker processes. On failure the already started ones are killed.
func NewProcess(n int, cfg ProcessConfig) ([]Slot, error) {
	if len(cfg.Argv) == 0 {
		return nil, errors.New("process pool: empty argv")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	slots := make([]Slot, 0, n)
	for i := 0; i < n; i++ {
		s, err := startProcess(i, cfg)
		if err != nil {
			for _, started := range slots {
				started.(*processSlot).kill()
			}
			return nil, fmt.Errorf("start slot %d: %w", i, err)
		}
		slots = append(slots, s)
	}
	return slots, nil
}

func startProcess(id int, cfg ProcessConfig) (*processSlot, error) {
	cmd := exec.Command(cfg.Argv[0], cfg.Argv[1:]...)
	cmd.Env = append(os.Environ(), cfg.Env...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	log := cfg.Logger.With(zap.Int("slot", id), zap.Int("pid", cmd.Process.Pid))
	log.Debug("worker process started")
	s := &processSlot{id: id, cmd: cmd, in: stdin, log: log}
	s.enc, s.dec = newCodec(stdin, stdout)
	return s, nil
}

// newCodec frames messages as newline-delimited JSON.
func newCodec(w io.Writer, r io.Reader) (*json.Encoder, *json.Decoder) {
	return json.NewEncoder(w), json.NewDecoder(bufio.NewReader(r))
}

func (s *processSlot) Exchange(ctx context.Context, req types.Request) (types.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.stopped:
		return types.Reply{}, fmt.Errorf("slot %d: %w", s.id, ErrStopped)
	case s.broken:
		return types.Reply{}, fmt.Errorf("slot %d: %w", s.id, ErrBroken)
	}

	done := make(chan result, 1)
	go func() {
		var r result
		if err := s.enc.Encode(req); err != nil {
			r.err = fmt.Errorf("send: %w", err)
		} else if err := s.dec.Decode(&r.rep); err != nil {
			r.err = fmt.Errorf("receive: %w", err)
		}
		done <- r
	}()
	select {
	case r := <-done:
		if r.err != nil {
			s.broken = true
			return types.Reply{}, fmt.Errorf("slot %d: %w", s.id, r.err)
		}
		if r.rep.Err != "" {
			return types.Reply{}, fmt.Errorf("slot %d: worker: %s", s.id, r.rep.Err)
		}
		return r.rep, nil
	case <-ctx.Done():
		// the stream is mid-message; the process cannot be reused
		s.broken = true
		s.kill()
		<-done
		return types.Reply{}, fmt.Errorf("slot %d: %w", s.id, ctx.Err())
	}
}

func (s *processSlot) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("slot %d: %w", s.id, ErrStopped)
	}
	s.stopped = true
	if s.broken {
		return s.wait(ctx)
	}
	if err := s.enc.Encode(types.Stop); err != nil {
		s.kill()
		return fmt.Errorf("slot %d: deliver stop: %w", s.id, err)
	}
	_ = s.in.Close()
	return s.wait(ctx)
}

func (s *processSlot) wait(ctx context.Context) error {
	exited := make(chan error, 1)
	go func() { exited <- s.cmd.Wait() }()
	select {
	case err := <-exited:
		if err != nil && !s.broken {
			return fmt.Errorf("slot %d: worker exit: %w", s.id, err)
		}
		s.log.Debug("worker process exited")
		return nil
	case <-ctx.Done():
		s.kill()
		<-exited
		return fmt.Errorf("slot %d: wait for exit: %w", s.id, ctx.Err())
	}
}

func (s *processSlot) kill() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
}

// ServeSlot is the worker side of a process slot: it decodes requests from r, executes
// them and encodes replies to w until it reads a stop request or r ends. Execution
// failures travel back in Reply.Err.
func ServeSlot(ctx context.Context, r io.Reader, w io.Writer, exec Executor) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for {
		var req types.Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode request: %w", err)
		}
		if !req.Continue {
			return nil
		}
		rep, err := exec.ProcessUnit(ctx, req)
		if err != nil {
			rep = types.Reply{Kind: req.Kind, File: req.File, Seq: req.Seq, Run: req.Run, RunB: req.RunB, Err: err.Error()}
		}
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode reply: %w", err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("flush reply: %w", err)
		}
	}
}
