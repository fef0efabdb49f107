// Package audit is the append-only operation trail. The orchestrator
// is the only writer: Begin once per orchestrated call, Complete
// exactly once, never touch the record again.
package audit

import (
	"context"
	"time"

	"github.com/mssentry/mssentry/model"
)

// Filter narrows operation queries. Zero values mean "any".
type Filter struct {
	Resource       model.ResourceType
	ServerInstance string
	Status         model.OperationStatus
	From           time.Time
	To             time.Time
	Limit          int
}

type Log interface {
	// Begin appends an in_progress record and returns its id.
	Begin(ctx context.Context, op model.Operation) (model.OperationID, error)

	// Complete is the single allowed terminal write. A second Complete
	// on the same id fails.
	Complete(ctx context.Context, id model.OperationID, status model.OperationStatus, errMsg, details string) error

	Get(ctx context.Context, id model.OperationID) (*model.Operation, error)
	Find(ctx context.Context, f Filter) ([]model.Operation, error)

	// FailedSince serves operational monitoring: every failed
	// operation with StartedAt >= since.
	FailedSince(ctx context.Context, since time.Time) ([]model.Operation, error)
}
