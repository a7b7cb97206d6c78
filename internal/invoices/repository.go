package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
)

var ErrNotFound = errors.New("invoice not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	GetByQuotationID(ctx context.Context, quotationID int64) (*Invoice, error)
	List(ctx context.Context, scope shared.Scope, req ListInvoicesRequest) ([]Invoice, int, error)
	Create(ctx context.Context, inv Invoice) (int64, error)
	// CreateIfAbsent inserts an invoice referencing a quotation unless one
	// already exists. The partial unique index on quotation_id closes the
	// race between concurrent Won transitions.
	CreateIfAbsent(ctx context.Context, inv Invoice) (int64, bool, error)
	InsertItem(ctx context.Context, item InvoiceItem) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	GenerateNumber(ctx context.Context, companyID *int64, clientName string, date time.Time) (string, error)
	// ListWonWithoutInvoice returns quotation ids marked Won that have no
	// invoice, for the reconciliation job.
	ListWonWithoutInvoice(ctx context.Context, limit int) ([]int64, error)
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

const invoiceColumns = `id, doc_number, quotation_id, client_id, client_name, client_email, client_company,
	client_phone, client_address, sub_total, discount, vat_amount, grand_total, total_paid, status,
	invoice_date, due_date, currency, notes, company_id, created_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.DocNumber, &inv.QuotationID, &inv.ClientID, &inv.ClientName,
		&inv.ClientEmail, &inv.ClientCompany, &inv.ClientPhone, &inv.ClientAddress,
		&inv.SubTotal, &inv.Discount, &inv.VATAmount, &inv.GrandTotal, &inv.TotalPaid, &inv.Status,
		&inv.InvoiceDate, &inv.DueDate, &inv.Currency, &inv.Notes, &inv.CompanyID, &inv.CreatedBy,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM invoices WHERE id = $1", invoiceColumns), id))
	if err != nil {
		return nil, err
	}
	items, err := r.items(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

func (r *repository) GetByQuotationID(ctx context.Context, quotationID int64) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM invoices WHERE quotation_id = $1", invoiceColumns), quotationID))
	if err != nil {
		return nil, err
	}
	items, err := r.items(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

func (r *repository) items(ctx context.Context, invoiceID int64) ([]InvoiceItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, product_id, description, quantity, unit_price, line_total, line_order
		FROM invoice_items WHERE invoice_id = $1 ORDER BY line_order, id
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.LineTotal, &it.LineOrder); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) List(ctx context.Context, scope shared.Scope, req ListInvoicesRequest) ([]Invoice, int, error) {
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
	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("invoice_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("invoice_date <= $%d", argPos))
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
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM invoices %s ORDER BY invoice_date DESC, id DESC LIMIT $%d OFFSET $%d",
		invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.DocNumber, &inv.QuotationID, &inv.ClientID, &inv.ClientName,
			&inv.ClientEmail, &inv.ClientCompany, &inv.ClientPhone, &inv.ClientAddress,
			&inv.SubTotal, &inv.Discount, &inv.VATAmount, &inv.GrandTotal, &inv.TotalPaid, &inv.Status,
			&inv.InvoiceDate, &inv.DueDate, &inv.Currency, &inv.Notes, &inv.CompanyID, &inv.CreatedBy,
			&inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

const insertInvoiceSQL = `
	INSERT INTO invoices (doc_number, quotation_id, client_id, client_name, client_email, client_company,
		client_phone, client_address, sub_total, discount, vat_amount, grand_total, total_paid, status,
		invoice_date, due_date, currency, notes, company_id, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW(), NOW())`

func invoiceArgs(inv Invoice) []interface{} {
	return []interface{}{
		inv.DocNumber, inv.QuotationID, inv.ClientID, inv.ClientName, inv.ClientEmail, inv.ClientCompany,
		inv.ClientPhone, inv.ClientAddress, inv.SubTotal, inv.Discount, inv.VATAmount, inv.GrandTotal,
		inv.TotalPaid, inv.Status, inv.InvoiceDate, inv.DueDate, inv.Currency, inv.Notes, inv.CompanyID,
		inv.CreatedBy,
	}
}

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, insertInvoiceSQL+" RETURNING id", invoiceArgs(inv)...).Scan(&id)
	return id, err
}

func (r *repository) CreateIfAbsent(ctx context.Context, inv Invoice) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		insertInvoiceSQL+" ON CONFLICT (quotation_id) WHERE quotation_id IS NOT NULL DO NOTHING RETURNING id",
		invoiceArgs(inv)...).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Another writer got there first; report the existing invoice.
			existing, gerr := scanInvoice(r.db.QueryRow(ctx,
				fmt.Sprintf("SELECT %s FROM invoices WHERE quotation_id = $1", invoiceColumns), *inv.QuotationID))
			if gerr != nil {
				return 0, false, gerr
			}
			return existing.ID, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

func (r *repository) InsertItem(ctx context.Context, item InvoiceItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoice_items (invoice_id, product_id, description, quantity, unit_price, line_total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, item.InvoiceID, item.ProductID, item.Description, item.Quantity, item.UnitPrice, item.LineTotal, item.LineOrder).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE invoices SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"status", "notes", "total_paid"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM invoices WHERE id = $1", id)
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
	`, cid, "INV", period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%s%s-%04d", clientPrefix(clientName), date.Format("0601"), seq), nil
}

func (r *repository) ListWonWithoutInvoice(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT q.id FROM quotations q
		LEFT JOIN invoices i ON i.quotation_id = q.id
		WHERE q.status = 'Won' AND i.id IS NULL
		ORDER BY q.id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// clientPrefix derives the short document-number prefix from a client name.
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
