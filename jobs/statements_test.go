package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/clients"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/statements"
)

type stubClientRepo struct {
	clients []clients.Client
}

func (s *stubClientRepo) Get(_ context.Context, id int64) (*clients.Client, error) {
	for i := range s.clients {
		if s.clients[i].ID == id {
			return &s.clients[i], nil
		}
	}
	return nil, clients.ErrNotFound
}

func (s *stubClientRepo) List(_ context.Context, _ shared.Scope, req clients.ListClientsRequest) ([]clients.Client, int, error) {
	if req.Offset >= len(s.clients) {
		return nil, len(s.clients), nil
	}
	end := req.Offset + req.Limit
	if end > len(s.clients) {
		end = len(s.clients)
	}
	return s.clients[req.Offset:end], len(s.clients), nil
}

func (s *stubClientRepo) Create(context.Context, clients.Client) (int64, error) {
	return 0, fmt.Errorf("not implemented")
}

func (s *stubClientRepo) Update(context.Context, int64, map[string]interface{}) error {
	return fmt.Errorf("not implemented")
}

func (s *stubClientRepo) Delete(context.Context, int64) error {
	return fmt.Errorf("not implemented")
}

type stubStatementRepo struct {
	outstanding map[int64][]statements.StatementLine
	created     map[int64]*statements.Statement
	lines       []statements.StatementLine
	nextID      int64
}

func newStubStatementRepo() *stubStatementRepo {
	return &stubStatementRepo{
		outstanding: map[int64][]statements.StatementLine{},
		created:     map[int64]*statements.Statement{},
	}
}

func (s *stubStatementRepo) WithTx(ctx context.Context, fn func(context.Context, statements.Repository) error) error {
	return fn(ctx, s)
}

func (s *stubStatementRepo) Get(_ context.Context, id int64) (*statements.Statement, error) {
	st, ok := s.created[id]
	if !ok {
		return nil, statements.ErrNotFound
	}
	return st, nil
}

func (s *stubStatementRepo) List(context.Context, shared.Scope, statements.ListStatementsRequest) ([]statements.Statement, int, error) {
	return nil, 0, nil
}

func (s *stubStatementRepo) Create(_ context.Context, st statements.Statement) (int64, error) {
	s.nextID++
	st.ID = s.nextID
	s.created[st.ID] = &st
	return st.ID, nil
}

func (s *stubStatementRepo) InsertLine(_ context.Context, line statements.StatementLine) (int64, error) {
	s.lines = append(s.lines, line)
	return int64(len(s.lines)), nil
}

func (s *stubStatementRepo) UpdateStatus(context.Context, int64, statements.StatementStatus) error {
	return nil
}

func (s *stubStatementRepo) Delete(context.Context, int64) error { return nil }

func (s *stubStatementRepo) GenerateNumber(_ context.Context, _ *int64, clientName string, _ time.Time) (string, error) {
	return "ST-" + clientName, nil
}

func (s *stubStatementRepo) OutstandingInvoices(_ context.Context, clientID int64, _, _ time.Time) ([]statements.StatementLine, error) {
	return s.outstanding[clientID], nil
}

func TestBuildMonthlyStatements(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	companyID := int64(3)
	clientRepo := &stubClientRepo{clients: []clients.Client{
		{ID: 1, Name: "Acme", Email: "acme@example.com", CreatedBy: 10, CompanyID: &companyID},
		{ID: 2, Name: "Globex", Email: "globex@example.com", CreatedBy: 11},
	}}
	statementRepo := newStubStatementRepo()
	statementRepo.outstanding[1] = []statements.StatementLine{
		{InvoiceID: 5, InvoiceNumber: "INV-ACM2608-0001", GrandTotal: 500, TotalPaid: 200, Balance: 300},
	}

	deps := ReconcileDeps{
		Logger:        logger,
		Statements:    statements.NewService(logger, statementRepo, clientRepo),
		StatementRepo: statementRepo,
		Clients:       clientRepo,
	}

	from, to := previousMonth(time.Date(2026, time.September, 1, 4, 0, 0, 0, time.UTC))
	built, err := buildMonthlyStatements(context.Background(), deps, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, built)

	// Only the client with unpaid invoices gets a statement, attributed to
	// the client's creator.
	require.Len(t, statementRepo.created, 1)
	st := statementRepo.created[1]
	assert.Equal(t, int64(1), st.ClientID)
	assert.Equal(t, int64(10), st.CreatedBy)
	require.NotNil(t, st.CompanyID)
	assert.Equal(t, companyID, *st.CompanyID)
	assert.Equal(t, 300.0, st.ClosingBalance)
	assert.Equal(t, statements.StatusDraft, st.Status)
	require.Len(t, statementRepo.lines, 1)
	assert.Equal(t, int64(5), statementRepo.lines[0].InvoiceID)
}

func TestPreviousMonth(t *testing.T) {
	from, to := previousMonth(time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, time.February, 28, 23, 59, 59, 0, time.UTC), to)

	// Year boundary.
	from, to = previousMonth(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.December, to.Month())
}
