package quotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/clients"
	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/products"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// ---------------------------------------------------------------------------
// mocks
// ---------------------------------------------------------------------------

type mockRepository struct {
	quotations map[int64]*Quotation
	items      map[int64][]QuotationItem
	nextID     int64
	seq        int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quotations: make(map[int64]*Quotation),
		items:      make(map[int64][]QuotationItem),
		nextID:     1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx, Repository) error) error {
	return fn(ctx, nil, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	cp.Items = append([]QuotationItem(nil), m.items[id]...)
	return &cp, nil
}

func (m *mockRepository) List(ctx context.Context, scope shared.Scope, req ListQuotationsRequest) ([]Quotation, int, error) {
	var out []Quotation
	for _, q := range m.quotations {
		switch scope.Filter() {
		case shared.FilterByCreator:
			if q.CreatedBy != scope.UserID {
				continue
			}
		case shared.FilterByCompany:
			if q.CompanyID == nil || *q.CompanyID != *scope.CompanyID {
				continue
			}
		}
		if req.Status != "" && string(q.Status) != req.Status {
			continue
		}
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, q Quotation) (int64, error) {
	id := m.nextID
	m.nextID++
	q.ID = id
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	m.quotations[id] = &q
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	q, ok := m.quotations[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["sub_total"]; ok {
		q.SubTotal = v.(float64)
	}
	if v, ok := updates["discount"]; ok {
		q.Discount = v.(float64)
	}
	if v, ok := updates["vat_amount"]; ok {
		q.VATAmount = v.(float64)
	}
	if v, ok := updates["grand_total"]; ok {
		q.GrandTotal = v.(float64)
	}
	if v, ok := updates["notes"]; ok {
		s := v.(string)
		q.Notes = &s
	}
	return nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status QuotationStatus) error {
	q, ok := m.quotations[id]
	if !ok {
		return ErrNotFound
	}
	q.Status = status
	return nil
}

func (m *mockRepository) InsertItem(ctx context.Context, item QuotationItem) (int64, error) {
	item.ID = int64(len(m.items[item.QuotationID]) + 1)
	m.items[item.QuotationID] = append(m.items[item.QuotationID], item)
	return item.ID, nil
}

func (m *mockRepository) DeleteItems(ctx context.Context, quotationID int64) error {
	delete(m.items, quotationID)
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.quotations[id]; !ok {
		return ErrNotFound
	}
	delete(m.quotations, id)
	return nil
}

func (m *mockRepository) GenerateNumber(ctx context.Context, companyID *int64, clientName string, date time.Time) (string, error) {
	m.seq++
	return fmt.Sprintf("QT-TEST-%04d", m.seq), nil
}

type mockClientRepo struct {
	client *clients.Client
}

func (m *mockClientRepo) Get(ctx context.Context, id int64) (*clients.Client, error) {
	if m.client == nil || m.client.ID != id {
		return nil, clients.ErrNotFound
	}
	cp := *m.client
	return &cp, nil
}

func (m *mockClientRepo) List(ctx context.Context, scope shared.Scope, req clients.ListClientsRequest) ([]clients.Client, int, error) {
	return nil, 0, nil
}
func (m *mockClientRepo) Create(ctx context.Context, c clients.Client) (int64, error) { return 0, nil }
func (m *mockClientRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return nil
}
func (m *mockClientRepo) Delete(ctx context.Context, id int64) error { return nil }

type mockProductRepo struct {
	products    map[int64]*products.Product
	decremented map[int64]int
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[int64]*products.Product), decremented: make(map[int64]int)}
}

func (m *mockProductRepo) Get(ctx context.Context, id int64) (*products.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, products.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) List(ctx context.Context, scope shared.Scope, req products.ListProductsRequest) ([]products.Product, int, error) {
	return nil, 0, nil
}
func (m *mockProductRepo) Create(ctx context.Context, p products.Product) (int64, error) {
	return 0, nil
}
func (m *mockProductRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return nil
}
func (m *mockProductRepo) Delete(ctx context.Context, id int64) error { return nil }

func (m *mockProductRepo) DecrementInventory(ctx context.Context, tx pgx.Tx, id int64, qty int) error {
	p, ok := m.products[id]
	if !ok {
		return products.ErrNotFound
	}
	if p.Inventory < qty {
		return products.ErrInsufficientStock
	}
	p.Inventory -= qty
	m.decremented[id] += qty
	return nil
}

type mockInvoiceGen struct {
	generated map[int64]*invoices.Invoice
	calls     int
	err       error
	nextID    int64
}

func newMockInvoiceGen() *mockInvoiceGen {
	return &mockInvoiceGen{generated: make(map[int64]*invoices.Invoice), nextID: 100}
}

func (m *mockInvoiceGen) GenerateForQuotation(ctx context.Context, q invoices.SourceQuotation) (*invoices.Invoice, bool, error) {
	m.calls++
	if m.err != nil {
		return nil, false, m.err
	}
	if existing, ok := m.generated[q.ID]; ok {
		return existing, false, nil
	}
	m.nextID++
	qid := q.ID
	inv := &invoices.Invoice{
		ID:          m.nextID,
		QuotationID: &qid,
		ClientName:  q.ClientName,
		SubTotal:    q.SubTotal,
		Discount:    q.Discount,
		VATAmount:   q.VATAmount,
		GrandTotal:  q.GrandTotal,
		TotalPaid:   0,
		Status:      invoices.StatusToSend,
	}
	m.generated[q.ID] = inv
	return inv, true, nil
}

// ---------------------------------------------------------------------------
// fixtures
// ---------------------------------------------------------------------------

func testService(t *testing.T) (*Service, *mockRepository, *mockProductRepo, *mockInvoiceGen) {
	t.Helper()
	repo := newMockRepository()
	productRepo := newMockProductRepo()
	gen := newMockInvoiceGen()
	clientRepo := &mockClientRepo{client: &clients.Client{ID: 1, Name: "Mokoena Holdings", Email: "accounts@mokoena.example"}}
	svc := NewService(slog.New(slog.DiscardHandler), repo, clientRepo, productRepo, gen)
	return svc, repo, productRepo, gen
}

func ownerScope() shared.Scope {
	return shared.Scope{UserID: 10, Role: shared.RoleUser}
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestCreateComputesTotalsServerSide(t *testing.T) {
	svc, _, _, _ := testService(t)

	q, err := svc.Create(context.Background(), ownerScope(), CreateQuotationRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items: []CreateQuotationItemReq{
			{Description: "Consulting retainer", Quantity: 3, UnitPrice: 30000},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 90000.0, q.SubTotal)
	assert.Equal(t, 13500.0, q.VATAmount)
	assert.Equal(t, 103500.0, q.GrandTotal)
	assert.Equal(t, StatusToSend, q.Status)
	assert.Equal(t, "Mokoena Holdings", q.ClientName)
	assert.NotEmpty(t, q.DocNumber)
	require.Len(t, q.Items, 1)
	assert.Equal(t, 90000.0, q.Items[0].LineTotal)
}

func TestCreateDecrementsPhysicalStock(t *testing.T) {
	svc, _, productRepo, _ := testService(t)
	productRepo.products[7] = &products.Product{ID: 7, Name: "Widget", Type: products.TypePhysical, Inventory: 5, UnitPrice: 10}
	pid := int64(7)

	_, err := svc.Create(context.Background(), ownerScope(), CreateQuotationRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items:    []CreateQuotationItemReq{{ProductID: &pid, Description: "Widget", Quantity: 3, UnitPrice: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, productRepo.decremented[7])

	// A second quotation exceeding remaining stock is rejected.
	_, err = svc.Create(context.Background(), ownerScope(), CreateQuotationRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items:    []CreateQuotationItemReq{{ProductID: &pid, Description: "Widget", Quantity: 4, UnitPrice: 10}},
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateServicesAreUnlimited(t *testing.T) {
	svc, _, productRepo, _ := testService(t)
	productRepo.products[8] = &products.Product{ID: 8, Name: "Support", Type: products.TypeService, Inventory: 0, UnitPrice: 100}
	pid := int64(8)

	_, err := svc.Create(context.Background(), ownerScope(), CreateQuotationRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items:    []CreateQuotationItemReq{{ProductID: &pid, Description: "Support", Quantity: 50, UnitPrice: 100}},
	})
	require.NoError(t, err)
	assert.Zero(t, productRepo.decremented[8])
}

func TestWonTransitionGeneratesInvoiceOnce(t *testing.T) {
	svc, _, _, gen := testService(t)
	scope := ownerScope()

	q, err := svc.Create(context.Background(), scope, CreateQuotationRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items:    []CreateQuotationItemReq{{Description: "Project", Quantity: 1, UnitPrice: 90000}},
	})
	require.NoError(t, err)

	result, err := svc.ChangeStatus(context.Background(), scope, q.ID, StatusWon)
	require.NoError(t, err)
	assert.True(t, result.InvoiceGenerated)
	require.NotNil(t, result.InvoiceID)
	assert.Equal(t, StatusWon, result.Quotation.Status)

	inv := gen.generated[q.ID]
	require.NotNil(t, inv)
	assert.Equal(t, 103500.0, inv.GrandTotal)
	assert.Equal(t, 0.0, inv.TotalPaid)
	assert.Equal(t, invoices.StatusToSend, inv.Status)

	// Repeated Won transitions do not create a second invoice.
	result, err = svc.ChangeStatus(context.Background(), scope, q.ID, StatusWon)
	require.NoError(t, err)
	assert.False(t, result.InvoiceGenerated)
	require.NotNil(t, result.InvoiceID)
	assert.Equal(t, inv.ID, *result.InvoiceID)
	assert.Len(t, gen.generated, 1)
}

func TestWonResetDoesNotRetractInvoice(t *testing.T) {
	svc, _, _, gen := testService(t)
	scope := ownerScope()

	q, err := svc.Create(context.Background(), scope, CreateQuotationRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items:    []CreateQuotationItemReq{{Description: "Project", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	_, err = svc.ChangeStatus(context.Background(), scope, q.ID, StatusWon)
	require.NoError(t, err)
	require.Len(t, gen.generated, 1)

	result, err := svc.ChangeStatus(context.Background(), scope, q.ID, StatusLost)
	require.NoError(t, err)
	assert.Equal(t, StatusLost, result.Quotation.Status)
	assert.Len(t, gen.generated, 1, "invoice generation is never reversed")

	// Winning again is still idempotent.
	result, err = svc.ChangeStatus(context.Background(), scope, q.ID, StatusWon)
	require.NoError(t, err)
	assert.False(t, result.InvoiceGenerated)
	assert.Len(t, gen.generated, 1)
}

func TestInvoiceFailureDoesNotFailStatusChange(t *testing.T) {
	svc, repo, _, gen := testService(t)
	scope := ownerScope()

	q, err := svc.Create(context.Background(), scope, CreateQuotationRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items:    []CreateQuotationItemReq{{Description: "Project", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	gen.err = errors.New("sequence table unavailable")
	result, err := svc.ChangeStatus(context.Background(), scope, q.ID, StatusWon)
	require.NoError(t, err, "status change succeeds even when generation fails")
	assert.False(t, result.InvoiceGenerated)
	assert.NotEmpty(t, result.InvoiceError)
	assert.Equal(t, StatusWon, repo.quotations[q.ID].Status)
}

func TestChangeStatusAuthorization(t *testing.T) {
	svc, _, _, _ := testService(t)
	owner := ownerScope()

	q, err := svc.Create(context.Background(), owner, CreateQuotationRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items:    []CreateQuotationItemReq{{Description: "Project", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	stranger := shared.Scope{UserID: 99, Role: shared.RoleUser}
	_, err = svc.ChangeStatus(context.Background(), stranger, q.ID, StatusSent)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	// The creator may change status but not delete.
	_, err = svc.ChangeStatus(context.Background(), owner, q.ID, StatusSent)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(context.Background(), owner, q.ID), httpx.ErrForbidden)

	admin := shared.Scope{UserID: 50, Role: shared.RoleAdmin}
	assert.NoError(t, svc.Delete(context.Background(), admin, q.ID))
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := testService(t)
	_, err := svc.ChangeStatus(context.Background(), ownerScope(), 1, QuotationStatus("Maybe"))
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateRecomputesTotalsAndClampsDiscount(t *testing.T) {
	svc, _, _, _ := testService(t)
	scope := ownerScope()

	q, err := svc.Create(context.Background(), scope, CreateQuotationRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items:    []CreateQuotationItemReq{{Description: "Project", Quantity: 1, UnitPrice: 1000}},
	})
	require.NoError(t, err)

	over := 5000.0
	updated, err := svc.Update(context.Background(), scope, q.ID, UpdateQuotationRequest{Discount: &over})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, updated.Discount, "discount clamps to sub total")
	assert.Equal(t, 0.0, updated.GrandTotal)
}

func TestListScopedByRole(t *testing.T) {
	svc, _, _, _ := testService(t)
	u1 := shared.Scope{UserID: 1, Role: shared.RoleUser}
	u2 := shared.Scope{UserID: 2, Role: shared.RoleUser}

	for _, scope := range []shared.Scope{u1, u2} {
		_, err := svc.Create(context.Background(), scope, CreateQuotationRequest{
			ClientID: 1,
			Currency: "ZAR",
			Items:    []CreateQuotationItemReq{{Description: "Project", Quantity: 1, UnitPrice: 100}},
		})
		require.NoError(t, err)
	}

	mine, total, err := svc.List(context.Background(), u1, ListQuotationsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(1), mine[0].CreatedBy)

	_, total, err = svc.List(context.Background(), shared.Scope{UserID: 3, Role: shared.RoleSuperAdmin}, ListQuotationsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestRegenerateInvoiceOnlyForWon(t *testing.T) {
	svc, _, _, gen := testService(t)
	scope := ownerScope()

	draft, err := svc.Create(context.Background(), scope, CreateQuotationRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items:    []CreateQuotationItemReq{{Description: "Project", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	won, err := svc.Create(context.Background(), scope, CreateQuotationRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items:    []CreateQuotationItemReq{{Description: "Retainer", Quantity: 1, UnitPrice: 500}},
	})
	require.NoError(t, err)

	// Simulate a Won transition whose online generation failed.
	gen.err = errors.New("sequence table unavailable")
	_, err = svc.ChangeStatus(context.Background(), scope, won.ID, StatusWon)
	require.NoError(t, err)
	require.Empty(t, gen.generated)
	gen.err = nil

	created, err := svc.RegenerateInvoice(context.Background(), won.ID)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, gen.generated[won.ID])

	// A second sweep over the same quotation is a no-op.
	created, err = svc.RegenerateInvoice(context.Background(), won.ID)
	require.NoError(t, err)
	assert.False(t, created)

	// Quotations that are not Won are skipped.
	created, err = svc.RegenerateInvoice(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, gen.generated, 1)
}
