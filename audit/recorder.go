package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mssentry/mssentry/model"
)

// Recorder keeps operations in memory. Tests use it to assert the
// exactly-one-Complete discipline; it also backs deployments that do
// not need a durable trail.
type Recorder struct {
	mu  sync.Mutex
	ops map[model.OperationID]*model.Operation

	completeCalls map[model.OperationID]int
}

func NewRecorder() *Recorder {
	return &Recorder{
		ops:           map[model.OperationID]*model.Operation{},
		completeCalls: map[model.OperationID]int{},
	}
}

func (r *Recorder) Begin(_ context.Context, op model.Operation) (model.OperationID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if op.UUID == "" {
		op.UUID = uuid.NewString()
	}
	if op.StartedAt.IsZero() {
		op.StartedAt = time.Now().UTC()
	}
	op.Status = model.OperationInProgress

	r.ops[op.UUID] = &op
	return op.UUID, nil
}

func (r *Recorder) Complete(_ context.Context, id model.OperationID, status model.OperationStatus, errMsg, details string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completeCalls[id]++

	op, ok := r.ops[id]
	if !ok {
		return model.ErrNotFound
	}
	if op.Terminal() {
		return fmt.Errorf("%w: %s", ErrAlreadyCompleted, id)
	}

	now := time.Now().UTC()
	op.Status = status
	op.FinishedAt = &now
	op.Error = errMsg
	op.Details = details
	return nil
}

func (r *Recorder) Get(_ context.Context, id model.OperationID) (*model.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.ops[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *op
	return &cp, nil
}

func (r *Recorder) Find(_ context.Context, f Filter) ([]model.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := []model.Operation{}
	for _, op := range r.ops {
		if f.Resource != "" && op.Resource != f.Resource {
			continue
		}
		if f.ServerInstance != "" && op.ServerInstance != f.ServerInstance {
			continue
		}
		if f.Status != "" && op.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && op.StartedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !op.StartedAt.Before(f.To) {
			continue
		}
		result = append(result, *op)
		if f.Limit > 0 && len(result) == f.Limit {
			break
		}
	}
	return result, nil
}

func (r *Recorder) FailedSince(ctx context.Context, since time.Time) ([]model.Operation, error) {
	return r.Find(ctx, Filter{Status: model.OperationFailed, From: since})
}

// Operations returns a snapshot of everything recorded.
func (r *Recorder) Operations() []model.Operation {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]model.Operation, 0, len(r.ops))
	for _, op := range r.ops {
		result = append(result, *op)
	}
	return result
}

// CompleteCalls reports how many terminal writes were attempted for
// the given operation.
func (r *Recorder) CompleteCalls(id model.OperationID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completeCalls[id]
}
