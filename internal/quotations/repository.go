package quotations

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

var ErrNotFound = errors.New("quotation not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx, Repository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, scope shared.Scope, req ListQuotationsRequest) ([]Quotation, int, error)
	Create(ctx context.Context, q Quotation) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status QuotationStatus) error
	InsertItem(ctx context.Context, item QuotationItem) (int64, error)
	DeleteItems(ctx context.Context, quotationID int64) error
	Delete(ctx context.Context, id int64) error
	GenerateNumber(ctx context.Context, companyID *int64, clientName string, date time.Time) (string, error)
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

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, tx, &repository{db: tx, pool: r.pool})
	})
}

const quotationColumns = `id, doc_number, client_id, client_name, client_email, client_company, client_phone,
	client_address, sub_total, discount, vat_amount, grand_total, status, quotation_date, currency, notes,
	company_id, created_by, created_at, updated_at`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	err := row.Scan(&q.ID, &q.DocNumber, &q.ClientID, &q.ClientName, &q.ClientEmail, &q.ClientCompany,
		&q.ClientPhone, &q.ClientAddress, &q.SubTotal, &q.Discount, &q.VATAmount, &q.GrandTotal,
		&q.Status, &q.QuotationDate, &q.Currency, &q.Notes, &q.CompanyID, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, err := scanQuotation(r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM quotations WHERE id = $1", quotationColumns), id))
	if err != nil {
		return nil, err
	}
	items, err := r.items(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

func (r *repository) items(ctx context.Context, quotationID int64) ([]QuotationItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quotation_id, product_id, description, quantity, unit_price, line_total, line_order
		FROM quotation_items WHERE quotation_id = $1 ORDER BY line_order, id
	`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []QuotationItem
	for rows.Next() {
		var it QuotationItem
		if err := rows.Scan(&it.ID, &it.QuotationID, &it.ProductID, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.LineTotal, &it.LineOrder); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) List(ctx context.Context, scope shared.Scope, req ListQuotationsRequest) ([]Quotation, int, error) {
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
		conditions = append(conditions, fmt.Sprintf("quotation_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("quotation_date <= $%d", argPos))
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
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM quotations %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM quotations %s ORDER BY quotation_date DESC, id DESC LIMIT $%d OFFSET $%d",
		quotationColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		var q Quotation
		if err := rows.Scan(&q.ID, &q.DocNumber, &q.ClientID, &q.ClientName, &q.ClientEmail, &q.ClientCompany,
			&q.ClientPhone, &q.ClientAddress, &q.SubTotal, &q.Discount, &q.VATAmount, &q.GrandTotal,
			&q.Status, &q.QuotationDate, &q.Currency, &q.Notes, &q.CompanyID, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotations (doc_number, client_id, client_name, client_email, client_company, client_phone,
			client_address, sub_total, discount, vat_amount, grand_total, status, quotation_date, currency, notes,
			company_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		RETURNING id
	`, q.DocNumber, q.ClientID, q.ClientName, q.ClientEmail, q.ClientCompany, q.ClientPhone, q.ClientAddress,
		q.SubTotal, q.Discount, q.VATAmount, q.GrandTotal, q.Status, q.QuotationDate, q.Currency, q.Notes,
		q.CompanyID, q.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE quotations SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"sub_total", "discount", "vat_amount", "grand_total", "notes"} {
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

func (r *repository) UpdateStatus(ctx context.Context, id int64, status QuotationStatus) error {
	tag, err := r.db.Exec(ctx, "UPDATE quotations SET status = $2, updated_at = NOW() WHERE id = $1", id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertItem(ctx context.Context, item QuotationItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotation_items (quotation_id, product_id, description, quantity, unit_price, line_total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, item.QuotationID, item.ProductID, item.Description, item.Quantity, item.UnitPrice, item.LineTotal, item.LineOrder).Scan(&id)
	return id, err
}

func (r *repository) DeleteItems(ctx context.Context, quotationID int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM quotation_items WHERE quotation_id = $1", quotationID)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM quotations WHERE id = $1", id)
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
	`, cid, "QT", period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("QT-%s%s-%04d", clientPrefix(clientName), date.Format("0601"), seq), nil
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
