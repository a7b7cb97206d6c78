package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/auth"
	"github.com/ledgerline/ledgerline/internal/clients"
	"github.com/ledgerline/ledgerline/internal/invoices"
	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/quotations"
	"github.com/ledgerline/ledgerline/internal/statements"
)

// ReconcileDeps collects the services the maintenance handlers run against.
type ReconcileDeps struct {
	Logger        *slog.Logger
	Invoices      *invoices.Service
	Quotations    *quotations.Service
	Statements    *statements.Service
	StatementRepo statements.Repository
	Clients       clients.Repository
	Sessions      auth.SessionRepository
	Metrics       *observability.Metrics
	JobMetrics    *jobmetrics.Metrics
}

// HandleInvoiceReconcile finds Won quotations that have no invoice and
// regenerates through the quotation service, so the backfilled invoice takes
// the same snapshots as the online path.
func HandleInvoiceReconcile(deps ReconcileDeps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := deps.JobMetrics.Track(TaskInvoiceReconcile)
		var payload InvoiceReconcilePayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				_ = tracker.End(err)
				return asynq.SkipRetry
			}
		}

		ids, err := deps.Invoices.ReconcileMissing(ctx, payload.Limit)
		if err != nil {
			return tracker.End(err)
		}
		repaired := 0
		for _, id := range ids {
			created, err := deps.Quotations.RegenerateInvoice(ctx, id)
			if err != nil {
				deps.Logger.Error("reconcile quotation",
					slog.Int64("quotation_id", id), slog.Any("error", err))
				continue
			}
			if created {
				repaired++
				if deps.Metrics != nil {
					deps.Metrics.ReconciliationRepair()
				}
			}
		}
		if len(ids) > 0 {
			deps.Logger.Info("invoice reconciliation finished",
				slog.Int("candidates", len(ids)), slog.Int("repaired", repaired))
		}
		return tracker.End(nil)
	}
}

// HandleSessionPurge clears expired session audit rows.
func HandleSessionPurge(deps ReconcileDeps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := deps.JobMetrics.Track(TaskSessionPurge)
		removed, err := deps.Sessions.DeleteExpired(ctx)
		if err != nil {
			return tracker.End(err)
		}
		if removed > 0 {
			deps.Logger.Info("purged expired sessions", slog.Int64("removed", removed))
		}
		return tracker.End(nil)
	}
}
