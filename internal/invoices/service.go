package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/platform/money"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// PaymentTermDays is the conventional gap between invoice date and due date.
const PaymentTermDays = 30

type Service struct {
	repo    Repository
	metrics *observability.Metrics
	now     func() time.Time
}

func NewService(repo Repository, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, metrics: metrics, now: time.Now}
}

// SourceQuotation carries the quotation fields copied verbatim onto a
// generated invoice. Defined here so the quotations package depends on
// invoices, not the other way around.
type SourceQuotation struct {
	ID            int64
	DocNumber     string
	ClientID      *int64
	ClientName    string
	ClientEmail   string
	ClientCompany *string
	ClientPhone   *string
	ClientAddress *string
	SubTotal      float64
	Discount      float64
	VATAmount     float64
	GrandTotal    float64
	Currency      string
	CompanyID     *int64
	CreatedBy     int64
	Items         []SourceItem
}

type SourceItem struct {
	ProductID   *int64
	Description string
	Quantity    float64
	UnitPrice   float64
	LineTotal   float64
	LineOrder   int
}

// GenerateForQuotation creates the invoice for a won quotation. It is
// idempotent: a quotation gets at most one invoice no matter how many times
// its status lands on Won. Returns the invoice and whether this call created it.
func (s *Service) GenerateForQuotation(ctx context.Context, q SourceQuotation) (*Invoice, bool, error) {
	now := s.now()
	var created bool
	var invoiceID int64

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, q.CompanyID, q.ClientName, now)
		if err != nil {
			return fmt.Errorf("generate invoice number: %w", err)
		}

		notes := fmt.Sprintf("Generated from quotation %s", q.DocNumber)
		quotationID := q.ID
		inv := Invoice{
			DocNumber:     docNumber,
			QuotationID:   &quotationID,
			ClientID:      q.ClientID,
			ClientName:    q.ClientName,
			ClientEmail:   q.ClientEmail,
			ClientCompany: q.ClientCompany,
			ClientPhone:   q.ClientPhone,
			ClientAddress: q.ClientAddress,
			SubTotal:      q.SubTotal,
			Discount:      q.Discount,
			VATAmount:     q.VATAmount,
			GrandTotal:    q.GrandTotal,
			TotalPaid:     0,
			Status:        StatusToSend,
			InvoiceDate:   now,
			DueDate:       now.AddDate(0, 0, PaymentTermDays),
			Currency:      q.Currency,
			Notes:         &notes,
			CompanyID:     q.CompanyID,
			CreatedBy:     q.CreatedBy,
		}

		id, wasCreated, err := repo.CreateIfAbsent(ctx, inv)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		invoiceID = id
		created = wasCreated
		if !wasCreated {
			return nil
		}

		for i, item := range q.Items {
			line := InvoiceItem{
				InvoiceID:   id,
				ProductID:   item.ProductID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				LineTotal:   item.LineTotal,
				LineOrder:   item.LineOrder,
			}
			if line.LineOrder == 0 {
				line.LineOrder = i + 1
			}
			if _, err := repo.InsertItem(ctx, line); err != nil {
				return fmt.Errorf("insert invoice item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.InvoiceGenerationFailed()
		return nil, false, err
	}

	if created {
		s.metrics.InvoiceGenerated()
	}
	inv, err := s.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, created, err
	}
	return inv, created, nil
}

// ReconcileMissing finds Won quotations without invoices. It returns their
// ids; the caller regenerates through the quotation service so snapshots stay
// consistent.
func (s *Service) ReconcileMissing(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListWonWithoutInvoice(ctx, limit)
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(scope, inv) {
		return nil, ErrNotFound
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, scope shared.Scope, req ListInvoicesRequest) ([]Invoice, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, scope, req)
}

// Create builds a standalone invoice that does not originate from a
// quotation. Totals are recomputed server-side from the submitted items.
func (s *Service) Create(ctx context.Context, scope shared.Scope, client ClientSnapshot, req CreateInvoiceRequest) (*Invoice, error) {
	now := s.now()
	invoiceDate := now
	if req.InvoiceDate != nil {
		invoiceDate = *req.InvoiceDate
	}

	var subTotal float64
	for _, item := range req.Items {
		subTotal += money.LineTotal(item.Quantity, item.UnitPrice)
	}
	totals := money.Compute(subTotal, req.Discount, money.DefaultVATRate)

	var invoiceID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, scope.CompanyID, client.Name, invoiceDate)
		if err != nil {
			return fmt.Errorf("generate invoice number: %w", err)
		}
		inv := Invoice{
			DocNumber:     docNumber,
			ClientID:      &client.ID,
			ClientName:    client.Name,
			ClientEmail:   client.Email,
			ClientCompany: client.Company,
			ClientPhone:   client.Phone,
			ClientAddress: client.Address,
			SubTotal:      totals.SubTotal,
			Discount:      totals.Discount,
			VATAmount:     totals.VATAmount,
			GrandTotal:    totals.GrandTotal,
			TotalPaid:     0,
			Status:        StatusToSend,
			InvoiceDate:   invoiceDate,
			DueDate:       invoiceDate.AddDate(0, 0, PaymentTermDays),
			Currency:      req.Currency,
			Notes:         req.Notes,
			CompanyID:     scope.CompanyID,
			CreatedBy:     scope.UserID,
		}
		id, err := repo.Create(ctx, inv)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		invoiceID = id

		for i, item := range req.Items {
			line := InvoiceItem{
				InvoiceID:   id,
				ProductID:   item.ProductID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				LineTotal:   money.LineTotal(item.Quantity, item.UnitPrice),
				LineOrder:   item.LineOrder,
			}
			if line.LineOrder == 0 {
				line.LineOrder = i + 1
			}
			if _, err := repo.InsertItem(ctx, line); err != nil {
				return fmt.Errorf("insert invoice item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, invoiceID)
}

// ClientSnapshot is the denormalized client block stamped onto documents.
type ClientSnapshot struct {
	ID      int64
	Name    string
	Email   string
	Company *string
	Phone   *string
	Address *string
}

func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutate(existing.CreatedBy) {
		return nil, httpx.ErrForbidden
	}

	updates := make(map[string]interface{})
	if req.Status != nil {
		status := InvoiceStatus(*req.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown invoice status %q", httpx.ErrValidation, *req.Status)
		}
		// Paid statuses are derived from the balance, never set directly.
		if status == StatusPartlyPaid || status == StatusFullyPaid {
			return nil, fmt.Errorf("%w: paid statuses are derived from payments", httpx.ErrValidation)
		}
		if existing.TotalPaid > 0 {
			return nil, fmt.Errorf("%w: invoice already has payments", httpx.ErrValidation)
		}
		updates["status"] = status
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update invoice: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if !scope.CanDelete(shared.KindInvoice) {
		return httpx.ErrForbidden
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) visible(scope shared.Scope, inv *Invoice) bool {
	switch scope.Filter() {
	case shared.FilterNone:
		return true
	case shared.FilterByCompany:
		return inv.CompanyID != nil && *inv.CompanyID == *scope.CompanyID
	default:
		return inv.CreatedBy == scope.UserID
	}
}
