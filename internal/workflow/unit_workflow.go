package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yourorg/chunkmill/internal/types"
)

// UnitActivityName is the registered name of Activities.ProcessUnit.
const UnitActivityName = "Activities.ProcessUnit"

// UnitWorkflow executes a single work unit on whichever worker picks it up. A slot of the
// temporal pool starts one UnitWorkflow per Exchange.
func UnitWorkflow(ctx workflow.Context, req types.Request) (types.Reply, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
			// a malformed unit fails the same way on every attempt
			NonRetryableErrorTypes: []string{ProtocolErrorType},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var rep types.Reply
	if err := workflow.ExecuteActivity(ctx, UnitActivityName, req).Get(ctx, &rep); err != nil {
		return types.Reply{}, err
	}
	return rep, nil
}

// ProtocolErrorType is the application error type activities use for types.ErrProtocol.
const ProtocolErrorType = "ProtocolViolation"
