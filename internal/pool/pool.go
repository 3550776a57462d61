// Package pool provides worker slots: the positions a coordinator hands work units to.
// Every backend runs the same Executor and differs only in where it runs.
package pool

import (
	"context"
	"errors"

	"github.com/yourorg/chunkmill/internal/types"
)

var (
	// ErrStopped is returned by Exchange after Stop.
	ErrStopped = errors.New("slot stopped")
	// ErrBroken is returned by Exchange once a slot lost its worker mid-exchange.
	ErrBroken = errors.New("slot broken")
)

// Slot is one worker position. Exchange delivers a unit and blocks until the matching
// reply arrives. Stop delivers the termination request; it is called exactly once.
type Slot interface {
	Exchange(ctx context.Context, req types.Request) (types.Reply, error)
	Stop(ctx context.Context) error
}

// Executor runs one work unit. *activities.Activities implements it.
type Executor interface {
	ProcessUnit(ctx context.Context, req types.Request) (types.Reply, error)
}

// Kind names a pool backend.
type Kind string

const (
	KindInProc   Kind = "inproc"
	KindProcess  Kind = "process"
	KindTemporal Kind = "temporal"
)

func (k Kind) Valid() bool {
	switch k {
	case KindInProc, KindProcess, KindTemporal:
		return true
	}
	return false
}
