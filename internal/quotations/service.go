package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/ledgerline/internal/clients"
	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/platform/money"
	"github.com/ledgerline/ledgerline/internal/products"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// InvoiceGenerator is the slice of the invoice service the lifecycle needs.
type InvoiceGenerator interface {
	GenerateForQuotation(ctx context.Context, q invoices.SourceQuotation) (*invoices.Invoice, bool, error)
}

type Service struct {
	logger      *slog.Logger
	repo        Repository
	clientRepo  clients.Repository
	productRepo products.Repository
	invoices    InvoiceGenerator
	now         func() time.Time
}

func NewService(logger *slog.Logger, repo Repository, clientRepo clients.Repository,
	productRepo products.Repository, invoiceGen InvoiceGenerator) *Service {
	return &Service{
		logger:      logger,
		repo:        repo,
		clientRepo:  clientRepo,
		productRepo: productRepo,
		invoices:    invoiceGen,
		now:         time.Now,
	}
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(scope, q) {
		return nil, ErrNotFound
	}
	return q, nil
}

func (s *Service) List(ctx context.Context, scope shared.Scope, req ListQuotationsRequest) ([]Quotation, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, scope, req)
}

func (s *Service) Create(ctx context.Context, scope shared.Scope, req CreateQuotationRequest) (*Quotation, error) {
	client, err := s.clientRepo.Get(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}

	status := StatusToSend
	if req.Status != nil {
		status = QuotationStatus(*req.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown quotation status %q", httpx.ErrValidation, *req.Status)
		}
	}

	date := s.now()
	if req.QuotationDate != nil {
		date = *req.QuotationDate
	}

	// Line totals and the money block are recomputed here; client-supplied
	// totals are never trusted.
	lines, subTotal, err := s.buildLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	totals := money.Compute(subTotal, req.Discount, money.DefaultVATRate)

	quotation := Quotation{
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
		Status:        status,
		QuotationDate: date,
		Currency:      req.Currency,
		Notes:         req.Notes,
		CompanyID:     scope.CompanyID,
		CreatedBy:     scope.UserID,
	}

	var quotationID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, scope.CompanyID, client.Name, date)
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		quotation.DocNumber = docNumber

		id, err := repo.Create(ctx, quotation)
		if err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		quotationID = id

		for _, line := range lines {
			line.item.QuotationID = id
			if _, err := repo.InsertItem(ctx, line.item); err != nil {
				return fmt.Errorf("insert quotation item: %w", err)
			}
			if line.product != nil && line.product.Type == products.TypePhysical {
				if err := s.productRepo.DecrementInventory(ctx, tx, line.product.ID, int(line.item.Quantity)); err != nil {
					return fmt.Errorf("reserve stock for %s: %w", line.product.Name, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, quotationID)
}

type builtLine struct {
	item    QuotationItem
	product *products.Product
}

func (s *Service) buildLines(ctx context.Context, items []CreateQuotationItemReq) ([]builtLine, float64, error) {
	var lines []builtLine
	var subTotal float64
	for i, req := range items {
		line := builtLine{
			item: QuotationItem{
				ProductID:   req.ProductID,
				Description: req.Description,
				Quantity:    req.Quantity,
				UnitPrice:   req.UnitPrice,
				LineTotal:   money.LineTotal(req.Quantity, req.UnitPrice),
				LineOrder:   req.LineOrder,
			},
		}
		if line.item.LineOrder == 0 {
			line.item.LineOrder = i + 1
		}
		if req.ProductID != nil {
			product, err := s.productRepo.Get(ctx, *req.ProductID)
			if err != nil {
				return nil, 0, fmt.Errorf("verify product: %w", err)
			}
			if product.MinOrderQty > 0 && int(req.Quantity) < product.MinOrderQty {
				return nil, 0, fmt.Errorf("%w: %s requires a minimum order of %d",
					httpx.ErrValidation, product.Name, product.MinOrderQty)
			}
			if !product.Available(int(req.Quantity)) {
				return nil, 0, fmt.Errorf("%w: %s has insufficient stock", httpx.ErrValidation, product.Name)
			}
			line.product = product
		}
		subTotal += line.item.LineTotal
		lines = append(lines, line)
	}
	return lines, subTotal, nil
}

func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, req UpdateQuotationRequest) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutate(existing.CreatedBy) {
		return nil, httpx.ErrForbidden
	}

	updates := make(map[string]interface{})
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var lines []builtLine
	if req.Items != nil {
		var subTotal float64
		lines, subTotal, err = s.buildLines(ctx, *req.Items)
		if err != nil {
			return nil, err
		}
		discount := existing.Discount
		if req.Discount != nil {
			discount = *req.Discount
		}
		totals := money.Compute(subTotal, discount, money.DefaultVATRate)
		updates["sub_total"] = totals.SubTotal
		updates["discount"] = totals.Discount
		updates["vat_amount"] = totals.VATAmount
		updates["grand_total"] = totals.GrandTotal
	} else if req.Discount != nil {
		totals := money.Compute(existing.SubTotal, *req.Discount, money.DefaultVATRate)
		updates["discount"] = totals.Discount
		updates["vat_amount"] = totals.VATAmount
		updates["grand_total"] = totals.GrandTotal
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx, repo Repository) error {
		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				return err
			}
		}
		if req.Items != nil {
			if err := repo.DeleteItems(ctx, id); err != nil {
				return err
			}
			for _, line := range lines {
				line.item.QuotationID = id
				if _, err := repo.InsertItem(ctx, line.item); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}

	return s.repo.Get(ctx, id)
}

// ChangeStatus persists the transition and, when the new status is Won, runs
// the invoice side effect. The two outcomes are reported independently: a
// generation failure is logged and surfaced but does not undo or fail the
// status change.
func (s *Service) ChangeStatus(ctx context.Context, scope shared.Scope, id int64, newStatus QuotationStatus) (*StatusChangeResult, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown quotation status %q", httpx.ErrValidation, newStatus)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutate(existing.CreatedBy) {
		return nil, httpx.ErrForbidden
	}

	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	result := &StatusChangeResult{}
	if newStatus == StatusWon {
		invoice, created, genErr := s.invoices.GenerateForQuotation(ctx, s.sourceFrom(existing))
		if genErr != nil {
			s.logger.Error("invoice generation failed after Won transition",
				slog.Int64("quotation_id", id),
				slog.String("doc_number", existing.DocNumber),
				slog.Any("error", genErr))
			result.InvoiceError = "invoice generation failed; the quotation status was updated"
		} else {
			result.InvoiceGenerated = created
			result.InvoiceID = &invoice.ID
		}
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Quotation = updated
	return result, nil
}

func (s *Service) sourceFrom(q *Quotation) invoices.SourceQuotation {
	src := invoices.SourceQuotation{
		ID:            q.ID,
		DocNumber:     q.DocNumber,
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
		Currency:      q.Currency,
		CompanyID:     q.CompanyID,
		CreatedBy:     q.CreatedBy,
	}
	for _, item := range q.Items {
		src.Items = append(src.Items, invoices.SourceItem{
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			LineOrder:   item.LineOrder,
		})
	}
	return src
}

// RegenerateInvoice backfills the invoice for an already-Won quotation. Used
// by the reconciliation job; idempotent like the online path.
func (s *Service) RegenerateInvoice(ctx context.Context, id int64) (bool, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if q.Status != StatusWon {
		return false, nil
	}
	_, created, err := s.invoices.GenerateForQuotation(ctx, s.sourceFrom(q))
	return created, err
}

func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if !scope.CanDelete(shared.KindQuotation) {
		return httpx.ErrForbidden
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) visible(scope shared.Scope, q *Quotation) bool {
	switch scope.Filter() {
	case shared.FilterNone:
		return true
	case shared.FilterByCompany:
		return q.CompanyID != nil && *q.CompanyID == *scope.CompanyID
	default:
		return q.CreatedBy == scope.UserID
	}
}
