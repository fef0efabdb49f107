package usecase

import (
	"context"
	"fmt"

	log "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// saga tracks the already-applied steps of a composite operation. The
// remote target cannot group DDL into a transaction, so on failure the
// applied steps are unwound one by one, newest first.
type saga struct {
	applied []compensation
	logger  log.Logger
}

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

func newSaga(logger log.Logger) *saga {
	return &saga{logger: logger}
}

// record registers the compensating action for a step that just
// succeeded.
func (s *saga) record(name string, undo func(ctx context.Context) error) {
	s.applied = append(s.applied, compensation{name: name, undo: undo})
}

// unwind runs every recorded compensation in reverse order. A failing
// compensation never stops the unwind; failures are accumulated and
// reported together.
func (s *saga) unwind(ctx context.Context) *CompensationReport {
	report := &CompensationReport{Attempted: len(s.applied)}

	for i := len(s.applied) - 1; i >= 0; i-- {
		step := s.applied[i]
		if err := step.undo(ctx); err != nil {
			s.logger.Error("compensation step failed", "step", step.name, "err", err)
			report.Failures = multierror.Append(report.Failures,
				fmt.Errorf("compensate %s: %w", step.name, err))
			continue
		}
		s.logger.Debug("compensation step applied", "step", step.name)
	}
	return report
}

// CompensationReport is the outcome of one unwind.
type CompensationReport struct {
	Attempted int
	Failures  *multierror.Error
}

func (r *CompensationReport) Clean() bool {
	return r.Failures.ErrorOrNil() == nil
}

// Note renders the operator-facing summary recorded in the audit trail.
func (r *CompensationReport) Note() string {
	if r.Attempted == 0 {
		return "no rollback required"
	}
	if r.Clean() {
		return fmt.Sprintf("rollback attempted: %d step(s), all succeeded", r.Attempted)
	}
	return fmt.Sprintf("rollback attempted: %d step(s), %d failed: %s",
		r.Attempted, len(r.Failures.Errors), r.Failures.Error())
}

// SagaError carries the triggering failure together with the unwind
// outcome so partial compensation is never silently swallowed.
type SagaError struct {
	Step         string
	Trigger      error
	Compensation *CompensationReport
}

func (e *SagaError) Error() string {
	return fmt.Sprintf("step %s: %s (%s)", e.Step, e.Trigger, e.Compensation.Note())
}

func (e *SagaError) Unwrap() error {
	return e.Trigger
}
