package statements

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerline/ledgerline/internal/clients"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/platform/money"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type Service struct {
	logger     *slog.Logger
	repo       Repository
	clientRepo clients.Repository
	now        func() time.Time
}

func NewService(logger *slog.Logger, repo Repository, clientRepo clients.Repository) *Service {
	return &Service{logger: logger, repo: repo, clientRepo: clientRepo, now: time.Now}
}

// Build assembles a draft statement from the client's unpaid invoices in the
// period. A client with nothing outstanding still gets a statement with zero
// balance and no lines.
func (s *Service) Build(ctx context.Context, scope shared.Scope, req BuildStatementRequest) (*Statement, error) {
	if req.PeriodEnd.Before(req.PeriodStart) {
		return nil, fmt.Errorf("%w: period end precedes period start", httpx.ErrValidation)
	}

	client, err := s.clientRepo.Get(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}

	lines, err := s.repo.OutstandingInvoices(ctx, client.ID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("collect outstanding invoices: %w", err)
	}

	var invoiced, paid, balance float64
	for _, l := range lines {
		invoiced += l.GrandTotal
		paid += l.TotalPaid
		balance += l.Balance
	}

	st := Statement{
		ClientID:       client.ID,
		ClientName:     client.Name,
		ClientEmail:    client.Email,
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		TotalInvoiced:  money.Round2(invoiced),
		TotalPaid:      money.Round2(paid),
		ClosingBalance: money.Round2(balance),
		Status:         StatusDraft,
		Currency:       "ZAR",
		CompanyID:      scope.CompanyID,
		CreatedBy:      scope.UserID,
	}

	var statementID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, scope.CompanyID, client.Name, s.now())
		if err != nil {
			return fmt.Errorf("generate statement number: %w", err)
		}
		st.DocNumber = docNumber

		id, err := repo.Create(ctx, st)
		if err != nil {
			return fmt.Errorf("create statement: %w", err)
		}
		statementID = id

		for _, line := range lines {
			line.StatementID = id
			if _, err := repo.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert statement line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, statementID)
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Statement, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(scope, st) {
		return nil, ErrNotFound
	}
	return st, nil
}

func (s *Service) List(ctx context.Context, scope shared.Scope, req ListStatementsRequest) ([]Statement, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, scope, req)
}

// MarkSent promotes a draft to Sent. Sent statements are immutable.
func (s *Service) MarkSent(ctx context.Context, scope shared.Scope, id int64) (*Statement, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutate(st.CreatedBy) {
		return nil, httpx.ErrForbidden
	}
	if st.Status == StatusSent {
		return st, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusSent); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if !scope.CanDelete(shared.KindStatement) {
		return httpx.ErrForbidden
	}
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if st.Status == StatusSent {
		return fmt.Errorf("%w: sent statements cannot be deleted", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) visible(scope shared.Scope, st *Statement) bool {
	switch scope.Filter() {
	case shared.FilterNone:
		return true
	case shared.FilterByCompany:
		return st.CompanyID != nil && *st.CompanyID == *scope.CompanyID
	default:
		return st.CreatedBy == scope.UserID
	}
}
