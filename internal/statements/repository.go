package statements

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

var ErrNotFound = errors.New("statement not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Statement, error)
	List(ctx context.Context, scope shared.Scope, req ListStatementsRequest) ([]Statement, int, error)
	Create(ctx context.Context, st Statement) (int64, error)
	InsertLine(ctx context.Context, line StatementLine) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status StatementStatus) error
	Delete(ctx context.Context, id int64) error
	GenerateNumber(ctx context.Context, companyID *int64, clientName string, date time.Time) (string, error)
	// OutstandingInvoices returns unpaid invoice lines for a client within
	// the period, ordered by invoice date.
	OutstandingInvoices(ctx context.Context, clientID int64, from, to time.Time) ([]StatementLine, error)
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

const statementColumns = `id, doc_number, client_id, client_name, client_email, period_start, period_end,
	total_invoiced, total_paid, closing_balance, status, currency, company_id, created_by, created_at, updated_at`

func scanStatement(row pgx.Row) (*Statement, error) {
	var st Statement
	err := row.Scan(&st.ID, &st.DocNumber, &st.ClientID, &st.ClientName, &st.ClientEmail,
		&st.PeriodStart, &st.PeriodEnd, &st.TotalInvoiced, &st.TotalPaid, &st.ClosingBalance,
		&st.Status, &st.Currency, &st.CompanyID, &st.CreatedBy, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Statement, error) {
	st, err := scanStatement(r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM statements WHERE id = $1", statementColumns), id))
	if err != nil {
		return nil, err
	}
	lines, err := r.lines(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	st.Lines = lines
	return st, nil
}

func (r *repository) lines(ctx context.Context, statementID int64) ([]StatementLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, statement_id, invoice_id, invoice_number, invoice_date, due_date, grand_total, total_paid, balance
		FROM statement_lines WHERE statement_id = $1 ORDER BY invoice_date, id
	`, statementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []StatementLine
	for rows.Next() {
		var l StatementLine
		if err := rows.Scan(&l.ID, &l.StatementID, &l.InvoiceID, &l.InvoiceNumber,
			&l.InvoiceDate, &l.DueDate, &l.GrandTotal, &l.TotalPaid, &l.Balance); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, scope shared.Scope, req ListStatementsRequest) ([]Statement, int, error) {
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
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, req.Status)
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
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM statements %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM statements %s ORDER BY period_end DESC, id DESC LIMIT $%d OFFSET $%d",
		statementColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Statement
	for rows.Next() {
		var st Statement
		if err := rows.Scan(&st.ID, &st.DocNumber, &st.ClientID, &st.ClientName, &st.ClientEmail,
			&st.PeriodStart, &st.PeriodEnd, &st.TotalInvoiced, &st.TotalPaid, &st.ClosingBalance,
			&st.Status, &st.Currency, &st.CompanyID, &st.CreatedBy, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, st)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, st Statement) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO statements (doc_number, client_id, client_name, client_email, period_start, period_end,
			total_invoiced, total_paid, closing_balance, status, currency, company_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id
	`, st.DocNumber, st.ClientID, st.ClientName, st.ClientEmail, st.PeriodStart, st.PeriodEnd,
		st.TotalInvoiced, st.TotalPaid, st.ClosingBalance, st.Status, st.Currency, st.CompanyID, st.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) InsertLine(ctx context.Context, line StatementLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO statement_lines (statement_id, invoice_id, invoice_number, invoice_date, due_date, grand_total, total_paid, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, line.StatementID, line.InvoiceID, line.InvoiceNumber, line.InvoiceDate, line.DueDate,
		line.GrandTotal, line.TotalPaid, line.Balance).Scan(&id)
	return id, err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status StatementStatus) error {
	tag, err := r.db.Exec(ctx, "UPDATE statements SET status = $2, updated_at = NOW() WHERE id = $1", id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM statements WHERE id = $1", id)
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
	`, cid, "STM", period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("STM-%s%s-%04d", clientPrefix(clientName), date.Format("0601"), seq), nil
}

func (r *repository) OutstandingInvoices(ctx context.Context, clientID int64, from, to time.Time) ([]StatementLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, doc_number, invoice_date, due_date, grand_total, total_paid
		FROM invoices
		WHERE client_id = $1 AND invoice_date >= $2 AND invoice_date <= $3 AND total_paid < grand_total
		ORDER BY invoice_date, id
	`, clientID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []StatementLine
	for rows.Next() {
		var l StatementLine
		if err := rows.Scan(&l.InvoiceID, &l.InvoiceNumber, &l.InvoiceDate, &l.DueDate,
			&l.GrandTotal, &l.TotalPaid); err != nil {
			return nil, err
		}
		l.Balance = l.GrandTotal - l.TotalPaid
		lines = append(lines, l)
	}
	return lines, rows.Err()
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
