package receipts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
)

var ErrNotFound = errors.New("receipt not found")

type Repository interface {
	// WithTx runs fn with a Repository bound to a single transaction. The
	// payment write path (receipt insert plus invoice totals update) must go
	// through it.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Receipt, error)
	List(ctx context.Context, scope shared.Scope, req ListReceiptsRequest) ([]Receipt, int, error)
	Create(ctx context.Context, rec Receipt) (int64, error)
	Delete(ctx context.Context, id int64) error
	GenerateNumber(ctx context.Context, companyID *int64, clientName string, date time.Time) (string, error)
	// LockInvoice reads the invoice row FOR UPDATE so concurrent payments
	// serialize on it.
	LockInvoice(ctx context.Context, invoiceID int64) (*invoices.Invoice, error)
	// ApplyPayment writes the recomputed running total and derived status
	// back to the invoice.
	ApplyPayment(ctx context.Context, invoiceID int64, totalPaid float64, status invoices.InvoiceStatus) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const receiptColumns = `id, doc_number, invoice_id, invoice_number, client_name, amount, method,
	payment_date, notes, company_id, created_by, created_at`

func scanReceipt(row pgx.Row) (*Receipt, error) {
	var rec Receipt
	err := row.Scan(&rec.ID, &rec.DocNumber, &rec.InvoiceID, &rec.InvoiceNumber, &rec.ClientName,
		&rec.Amount, &rec.Method, &rec.PaymentDate, &rec.Notes, &rec.CompanyID, &rec.CreatedBy, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Receipt, error) {
	return scanReceipt(r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM receipts WHERE id = $1", receiptColumns), id))
}

func (r *repository) List(ctx context.Context, scope shared.Scope, req ListReceiptsRequest) ([]Receipt, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	switch scope.Filter() {
	case shared.FilterByCreator:
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argPos))
		args = append(args, scope.UserID)
		argPos++
	case shared.FilterByCompany:
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", argPos))
		args = append(args, *scope.CompanyID)
		argPos++
	}
	if req.InvoiceID != nil {
		conditions = append(conditions, fmt.Sprintf("invoice_id = $%d", argPos))
		args = append(args, *req.InvoiceID)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("payment_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("payment_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := ""
	for i, c := range conditions {
		if i == 0 {
			whereClause = "WHERE " + c
		} else {
			whereClause += " AND " + c
		}
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM receipts %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM receipts %s ORDER BY payment_date DESC, id DESC LIMIT $%d OFFSET $%d",
		receiptColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		var rec Receipt
		if err := rows.Scan(&rec.ID, &rec.DocNumber, &rec.InvoiceID, &rec.InvoiceNumber, &rec.ClientName,
			&rec.Amount, &rec.Method, &rec.PaymentDate, &rec.Notes, &rec.CompanyID, &rec.CreatedBy, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, rec Receipt) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO receipts (doc_number, invoice_id, invoice_number, client_name, amount, method,
			payment_date, notes, company_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id
	`, rec.DocNumber, rec.InvoiceID, rec.InvoiceNumber, rec.ClientName, rec.Amount, rec.Method,
		rec.PaymentDate, rec.Notes, rec.CompanyID, rec.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM receipts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) GenerateNumber(ctx context.Context, companyID *int64, clientName string, date time.Time) (string, error) {
	var seq int64
	var cid int64
	if companyID != nil {
		cid = *companyID
	}
	period := date.Format("200601")
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (company_id, doc_type, period, seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, cid, "RCP", period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RCP-%s%s-%04d", clientPrefix(clientName), date.Format("0601"), seq), nil
}

func (r *repository) LockInvoice(ctx context.Context, invoiceID int64) (*invoices.Invoice, error) {
	var inv invoices.Invoice
	err := r.db.QueryRow(ctx, `
		SELECT id, doc_number, client_id, client_name, grand_total, total_paid, status, currency, company_id, created_by
		FROM invoices WHERE id = $1 FOR UPDATE
	`, invoiceID).Scan(&inv.ID, &inv.DocNumber, &inv.ClientID, &inv.ClientName, &inv.GrandTotal,
		&inv.TotalPaid, &inv.Status, &inv.Currency, &inv.CompanyID, &inv.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoices.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) ApplyPayment(ctx context.Context, invoiceID int64, totalPaid float64, status invoices.InvoiceStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices SET total_paid = $2, status = $3, updated_at = NOW() WHERE id = $1
	`, invoiceID, totalPaid, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return invoices.ErrNotFound
	}
	return nil
}

func clientPrefix(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, name)
	cleaned = strings.ToUpper(cleaned)
	if len(cleaned) >= 3 {
		return cleaned[:3]
	}
	if cleaned == "" {
		return "DOC"
	}
	return cleaned
}
