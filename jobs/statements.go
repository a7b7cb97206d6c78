package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/clients"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/statements"
)

const statementPageSize = 200

// HandleStatementBuild issues the previous month's statement for every client
// with outstanding invoices in that period. Each statement is attributed to
// the client's creator so the usual scope filtering applies to the result.
func HandleStatementBuild(deps ReconcileDeps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := deps.JobMetrics.Track(TaskStatementBuild)
		from, to := previousMonth(time.Now().UTC())

		built, err := buildMonthlyStatements(ctx, deps, from, to)
		if err != nil {
			return tracker.End(err)
		}
		if built > 0 {
			deps.Logger.Info("monthly statements issued",
				slog.Int("built", built),
				slog.Time("period_start", from),
				slog.Time("period_end", to))
		}
		return tracker.End(nil)
	}
}

func buildMonthlyStatements(ctx context.Context, deps ReconcileDeps, from, to time.Time) (int, error) {
	scope := shared.Scope{Role: shared.RoleSuperAdmin}
	built := 0
	for offset := 0; ; offset += statementPageSize {
		page, _, err := deps.Clients.List(ctx, scope, clients.ListClientsRequest{
			Limit:  statementPageSize,
			Offset: offset,
		})
		if err != nil {
			return built, err
		}
		for _, c := range page {
			lines, err := deps.StatementRepo.OutstandingInvoices(ctx, c.ID, from, to)
			if err != nil {
				deps.Logger.Error("check outstanding invoices",
					slog.Int64("client_id", c.ID), slog.Any("error", err))
				continue
			}
			if len(lines) == 0 {
				continue
			}
			owner := shared.Scope{UserID: c.CreatedBy, Role: shared.RoleUser, CompanyID: c.CompanyID}
			if _, err := deps.Statements.Build(ctx, owner, statements.BuildStatementRequest{
				ClientID:    c.ID,
				PeriodStart: from,
				PeriodEnd:   to,
			}); err != nil {
				deps.Logger.Error("build statement",
					slog.Int64("client_id", c.ID), slog.Any("error", err))
				continue
			}
			built++
		}
		if len(page) < statementPageSize {
			return built, nil
		}
	}
}

// previousMonth returns the inclusive bounds of the calendar month before now.
func previousMonth(now time.Time) (time.Time, time.Time) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -1, 0), first.Add(-time.Second)
}
