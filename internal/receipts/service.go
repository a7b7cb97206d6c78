package receipts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/platform/money"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type Service struct {
	logger  *slog.Logger
	repo    Repository
	metrics *observability.Metrics
	now     func() time.Time
}

func NewService(logger *slog.Logger, repo Repository, metrics *observability.Metrics) *Service {
	return &Service{logger: logger, repo: repo, metrics: metrics, now: time.Now}
}

// RegisterPayment records a payment against an invoice. The receipt insert and
// the invoice totals update commit or roll back together, so the running
// total always equals the sum of its receipts. Over-payment is accepted and
// simply marks the invoice fully paid.
func (s *Service) RegisterPayment(ctx context.Context, scope shared.Scope, req RegisterPaymentRequest) (*PaymentResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", httpx.ErrValidation)
	}
	method := PaymentMethod(req.Method)
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", httpx.ErrValidation, req.Method)
	}

	paymentDate := s.now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	result := &PaymentResult{}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.LockInvoice(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if !s.invoiceVisible(scope, inv) {
			return invoices.ErrNotFound
		}

		docNumber, err := repo.GenerateNumber(ctx, scope.CompanyID, inv.ClientName, paymentDate)
		if err != nil {
			return fmt.Errorf("generate receipt number: %w", err)
		}

		rec := Receipt{
			DocNumber:     docNumber,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.DocNumber,
			ClientName:    inv.ClientName,
			Amount:        money.Round2(req.Amount),
			Method:        method,
			PaymentDate:   paymentDate,
			Notes:         req.Notes,
			CompanyID:     scope.CompanyID,
			CreatedBy:     scope.UserID,
		}
		id, err := repo.Create(ctx, rec)
		if err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}
		rec.ID = id

		totalPaid := money.Round2(inv.TotalPaid + rec.Amount)
		status := invoices.PaidStatus(totalPaid, inv.GrandTotal, inv.Status)
		if err := repo.ApplyPayment(ctx, inv.ID, totalPaid, status); err != nil {
			return fmt.Errorf("apply payment: %w", err)
		}

		inv.TotalPaid = totalPaid
		inv.Status = status
		result.Receipt = &rec
		result.Invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentRegistered()
	s.logger.Info("payment registered",
		slog.String("receipt", result.Receipt.DocNumber),
		slog.String("invoice", result.Invoice.DocNumber),
		slog.Float64("amount", result.Receipt.Amount),
		slog.String("status", string(result.Invoice.Status)))
	return result, nil
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Receipt, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(scope, rec) {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, scope shared.Scope, req ListReceiptsRequest) ([]Receipt, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, scope, req)
}

// Delete removes a receipt and backs its amount out of the invoice. Restricted
// to the highest role because it rewrites payment history.
func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if !scope.CanDelete(shared.KindReceipt) {
		return httpx.ErrForbidden
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		rec, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		inv, err := repo.LockInvoice(ctx, rec.InvoiceID)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		totalPaid := money.Round2(inv.TotalPaid - rec.Amount)
		if totalPaid < 0 {
			totalPaid = 0
		}
		status := invoices.PaidStatus(totalPaid, inv.GrandTotal, invoices.StatusSent)
		return repo.ApplyPayment(ctx, inv.ID, totalPaid, status)
	})
}

func (s *Service) visible(scope shared.Scope, rec *Receipt) bool {
	switch scope.Filter() {
	case shared.FilterNone:
		return true
	case shared.FilterByCompany:
		return rec.CompanyID != nil && *rec.CompanyID == *scope.CompanyID
	default:
		return rec.CreatedBy == scope.UserID
	}
}

func (s *Service) invoiceVisible(scope shared.Scope, inv *invoices.Invoice) bool {
	switch scope.Filter() {
	case shared.FilterNone:
		return true
	case shared.FilterByCompany:
		return inv.CompanyID != nil && *inv.CompanyID == *scope.CompanyID
	default:
		return inv.CreatedBy == scope.UserID
	}
}
