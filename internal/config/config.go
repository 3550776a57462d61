package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/yourorg/chunkmill/internal/pool"
)

// ErrInvalid marks a configuration rejected before any work begins.
var ErrInvalid = errors.New("invalid configuration")

const (
	MinWorkers     = 1
	MaxWorkers     = 8
	DefaultWorkers = 4
	DefaultChunk   = 4096
)

// ChunkSizes are the accepted -c values.
var ChunkSizes = []int{4096, 8192}

type Config struct {
	Files        []string
	Workers      int
	ChunkSize    int // wordcount only
	Pool         pool.Kind
	RoundTimeout time.Duration
	ScratchDir   string // intsort only; empty keeps runs in memory
	Output       string // intsort only; empty prints to stdout only
	MetricsAddr  string
	LogLevel     string

	TemporalHost      string
	TemporalNamespace string
	TemporalQueue     string
}

// Defaults returns a Config seeded from the environment.
func Defaults() Config {
	return Config{
		Workers:           DefaultWorkers,
		ChunkSize:         DefaultChunk,
		Pool:              pool.KindInProc,
		ScratchDir:        os.Getenv("CHUNKMILL_SCRATCH_DIR"),
		MetricsAddr:       os.Getenv("METRICS_ADDR"),
		LogLevel:          Getenv("LOG_LEVEL", "warn"),
		TemporalHost:      Getenv("TEMPORAL_TARGET_HOST", Getenv("TEMPORAL_ADDRESS", "localhost:7233")),
		TemporalNamespace: Getenv("TEMPORAL_NAMESPACE", "default"),
		TemporalQueue:     Getenv("TEMPORAL_TASK_QUEUE", "chunkmill"),
	}
}

// Validate checks the settings shared by both workloads. Input existence is checked by
// the caller, which knows how to reach object stores.
func (c Config) Validate() error {
	if c.Workers < MinWorkers || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: worker count %d (must be >= %d and <= %d)", ErrInvalid, c.Workers, MinWorkers, MaxWorkers)
	}
	if len(c.Files) == 0 {
		return fmt.Errorf("%w: no input files", ErrInvalid)
	}
	if !c.Pool.Valid() {
		return fmt.Errorf("%w: unknown pool %q", ErrInvalid, c.Pool)
	}
	if c.RoundTimeout < 0 {
		return fmt.Errorf("%w: negative round timeout", ErrInvalid)
	}
	return nil
}

// ValidateChunk checks the wordcount chunk size.
func (c Config) ValidateChunk() error {
	for _, s := range ChunkSizes {
		if c.ChunkSize == s {
			return nil
		}
	}
	return fmt.Errorf("%w: chunk size %d (must be 4096 or 8192)", ErrInvalid, c.ChunkSize)
}

// Getenv returns the value of k, or def when it is unset or empty.
func Getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
