package usecase

import (
	"context"

	log "github.com/hashicorp/go-hclog"

	"github.com/mssentry/mssentry/audit"
	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/observe"
)

// opRecord pairs one orchestrated call with its audit record. Every
// return path of a service method must go through fail or succeed, so
// each operation reaches exactly one terminal write. Audit failures
// are logged and counted but never fail the business operation.
type opRecord struct {
	auditLog audit.Log
	logger   log.Logger
	metrics  *observe.Metrics
	id       model.OperationID
	op       model.Operation
}

func (d *Deps) begin(ctx context.Context, kind model.OperationKind, resource model.ResourceType, target, database, actor string) *opRecord {
	op := model.Operation{
		Kind:           kind,
		Resource:       resource,
		Target:         target,
		ServerInstance: d.ServerInstance,
		Database:       database,
		Actor:          actor,
	}

	rec := &opRecord{
		auditLog: d.Audit,
		logger:   d.Logger,
		metrics:  d.Metrics,
		op:       op,
	}

	id, err := d.Audit.Begin(ctx, op)
	if err != nil {
		d.Logger.Error("audit begin failed", "resource", resource, "target", target, "err", err)
		d.Metrics.AuditWriteFailure()
		return rec
	}
	rec.id = id
	return rec
}

// fail completes the record as failed and passes the error through.
func (o *opRecord) fail(ctx context.Context, err error) error {
	o.complete(ctx, model.OperationFailed, err.Error(), "")
	return err
}

// failWithDetails is used by sagas to attach the compensation note.
func (o *opRecord) failWithDetails(ctx context.Context, err error, details string) error {
	o.complete(ctx, model.OperationFailed, err.Error(), details)
	return err
}

func (o *opRecord) succeed(ctx context.Context, details string) {
	o.complete(ctx, model.OperationSuccess, "", details)
}

func (o *opRecord) complete(ctx context.Context, status model.OperationStatus, errMsg, details string) {
	o.metrics.Operation(string(o.op.Resource), string(o.op.Kind), string(status))

	if o.id == "" {
		// Begin already failed; there is no record to complete.
		return
	}
	if err := o.auditLog.Complete(ctx, o.id, status, errMsg, details); err != nil {
		o.logger.Error("audit complete failed", "operation", o.id, "err", err)
		o.metrics.AuditWriteFailure()
	}
}
