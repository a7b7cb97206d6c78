package invoices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type mockRepository struct {
	invoices    map[int64]*Invoice
	items       map[int64][]InvoiceItem
	byQuotation map[int64]int64
	nextID      int64
	seq         int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		invoices:    make(map[int64]*Invoice),
		items:       make(map[int64][]InvoiceItem),
		byQuotation: make(map[int64]int64),
		nextID:      1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	cp.Items = append([]InvoiceItem(nil), m.items[id]...)
	return &cp, nil
}

func (m *mockRepository) GetByQuotationID(ctx context.Context, quotationID int64) (*Invoice, error) {
	id, ok := m.byQuotation[quotationID]
	if !ok {
		return nil, ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *mockRepository) List(ctx context.Context, scope shared.Scope, req ListInvoicesRequest) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		switch scope.Filter() {
		case shared.FilterByCreator:
			if inv.CreatedBy != scope.UserID {
				continue
			}
		case shared.FilterByCompany:
			if inv.CompanyID == nil || *inv.CompanyID != *scope.CompanyID {
				continue
			}
		}
		if req.Status != "" && string(inv.Status) != req.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, inv Invoice) (int64, error) {
	id := m.nextID
	m.nextID++
	inv.ID = id
	m.invoices[id] = &inv
	return id, nil
}

func (m *mockRepository) CreateIfAbsent(ctx context.Context, inv Invoice) (int64, bool, error) {
	if inv.QuotationID != nil {
		if existing, ok := m.byQuotation[*inv.QuotationID]; ok {
			return existing, false, nil
		}
	}
	id, err := m.Create(ctx, inv)
	if err != nil {
		return 0, false, err
	}
	if inv.QuotationID != nil {
		m.byQuotation[*inv.QuotationID] = id
	}
	return id, true, nil
}

func (m *mockRepository) InsertItem(ctx context.Context, item InvoiceItem) (int64, error) {
	item.ID = int64(len(m.items[item.InvoiceID]) + 1)
	m.items[item.InvoiceID] = append(m.items[item.InvoiceID], item)
	return item.ID, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	inv, ok := m.invoices[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["status"]; ok {
		inv.Status = v.(InvoiceStatus)
	}
	if v, ok := updates["notes"]; ok {
		s := v.(string)
		inv.Notes = &s
	}
	if v, ok := updates["total_paid"]; ok {
		inv.TotalPaid = v.(float64)
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.invoices[id]; !ok {
		return ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

func (m *mockRepository) GenerateNumber(ctx context.Context, companyID *int64, clientName string, date time.Time) (string, error) {
	m.seq++
	return fmt.Sprintf("INV-TEST-%04d", m.seq), nil
}

func (m *mockRepository) ListWonWithoutInvoice(ctx context.Context, limit int) ([]int64, error) {
	return nil, nil
}

func fixedService(repo Repository) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func sourceQuotation() SourceQuotation {
	return SourceQuotation{
		ID:          42,
		DocNumber:   "QT-MOK2503-0001",
		ClientName:  "Mokoena Holdings",
		ClientEmail: "accounts@mokoena.example",
		SubTotal:    90000,
		Discount:    0,
		VATAmount:   13500,
		GrandTotal:  103500,
		Currency:    "ZAR",
		CreatedBy:   10,
		Items: []SourceItem{
			{Description: "Consulting retainer", Quantity: 3, UnitPrice: 30000, LineTotal: 90000, LineOrder: 1},
		},
	}
}

func TestGenerateForQuotationCopiesTotals(t *testing.T) {
	repo := newMockRepository()
	svc := fixedService(repo)

	inv, created, err := svc.GenerateForQuotation(context.Background(), sourceQuotation())
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, 90000.0, inv.SubTotal)
	assert.Equal(t, 13500.0, inv.VATAmount)
	assert.Equal(t, 103500.0, inv.GrandTotal)
	assert.Equal(t, 0.0, inv.TotalPaid)
	assert.Equal(t, StatusToSend, inv.Status)
	require.NotNil(t, inv.QuotationID)
	assert.Equal(t, int64(42), *inv.QuotationID)
	require.NotNil(t, inv.Notes)
	assert.Equal(t, "Generated from quotation QT-MOK2503-0001", *inv.Notes)
	assert.Equal(t, inv.InvoiceDate.AddDate(0, 0, PaymentTermDays), inv.DueDate)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, 90000.0, inv.Items[0].LineTotal)
}

func TestGenerateForQuotationIdempotent(t *testing.T) {
	repo := newMockRepository()
	svc := fixedService(repo)

	first, created, err := svc.GenerateForQuotation(context.Background(), sourceQuotation())
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.GenerateForQuotation(context.Background(), sourceQuotation())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.invoices, 1)
	assert.Len(t, repo.items[first.ID], 1, "items are not duplicated on repeat calls")
}

func TestPaidStatus(t *testing.T) {
	tests := []struct {
		name       string
		totalPaid  float64
		grandTotal float64
		current    InvoiceStatus
		want       InvoiceStatus
	}{
		{"nothing paid keeps to send", 0, 103500, StatusToSend, StatusToSend},
		{"nothing paid keeps sent", 0, 103500, StatusSent, StatusSent},
		{"partial payment", 50000, 103500, StatusSent, StatusPartlyPaid},
		{"exact settlement", 103500, 103500, StatusPartlyPaid, StatusFullyPaid},
		{"over-payment settles", 200000, 103500, StatusSent, StatusFullyPaid},
		{"zero total never fully paid", 0, 0, StatusToSend, StatusToSend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PaidStatus(tt.totalPaid, tt.grandTotal, tt.current))
		})
	}
}

func TestBalanceNeverNegative(t *testing.T) {
	inv := Invoice{GrandTotal: 103500, TotalPaid: 200000}
	assert.Equal(t, 0.0, inv.Balance())
	inv.TotalPaid = 50000
	assert.Equal(t, 53500.0, inv.Balance())
}

func TestCreateStandaloneInvoice(t *testing.T) {
	repo := newMockRepository()
	svc := fixedService(repo)
	scope := shared.Scope{UserID: 10, Role: shared.RoleUser}

	inv, err := svc.Create(context.Background(), scope, ClientSnapshot{ID: 1, Name: "Mokoena Holdings", Email: "accounts@mokoena.example"}, CreateInvoiceRequest{
		ClientID: 1,
		Currency: "ZAR",
		Discount: 1000,
		Items: []CreateInvoiceItemReq{
			{Description: "Site audit", Quantity: 2, UnitPrice: 5000},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 10000.0, inv.SubTotal)
	assert.Equal(t, 1000.0, inv.Discount)
	assert.Equal(t, 1350.0, inv.VATAmount)
	assert.Equal(t, 10350.0, inv.GrandTotal)
	assert.Nil(t, inv.QuotationID)
	assert.Equal(t, int64(10), inv.CreatedBy)
	assert.Equal(t, inv.InvoiceDate.AddDate(0, 0, PaymentTermDays), inv.DueDate)
}

func TestUpdateStatusRules(t *testing.T) {
	repo := newMockRepository()
	svc := fixedService(repo)
	scope := shared.Scope{UserID: 10, Role: shared.RoleUser}

	inv, err := svc.Create(context.Background(), scope, ClientSnapshot{ID: 1, Name: "Mokoena Holdings"}, CreateInvoiceRequest{
		ClientID: 1,
		Currency: "ZAR",
		Items:    []CreateInvoiceItemReq{{Description: "Site audit", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	sent := string(StatusSent)
	updated, err := svc.Update(context.Background(), scope, inv.ID, UpdateInvoiceRequest{Status: &sent})
	require.NoError(t, err)
	assert.Equal(t, StatusSent, updated.Status)

	// Paid statuses are derived, never assigned.
	paid := string(StatusFullyPaid)
	_, err = svc.Update(context.Background(), scope, inv.ID, UpdateInvoiceRequest{Status: &paid})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	// Once payments exist the explicit states are frozen.
	repo.invoices[inv.ID].TotalPaid = 50
	toSend := string(StatusToSend)
	_, err = svc.Update(context.Background(), scope, inv.ID, UpdateInvoiceRequest{Status: &toSend})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGetScopedByCreator(t *testing.T) {
	repo := newMockRepository()
	svc := fixedService(repo)

	src := sourceQuotation()
	inv, _, err := svc.GenerateForQuotation(context.Background(), src)
	require.NoError(t, err)

	owner := shared.Scope{UserID: src.CreatedBy, Role: shared.RoleUser}
	_, err = svc.Get(context.Background(), owner, inv.ID)
	require.NoError(t, err)

	stranger := shared.Scope{UserID: 99, Role: shared.RoleUser}
	_, err = svc.Get(context.Background(), stranger, inv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	super := shared.Scope{UserID: 99, Role: shared.RoleSuperAdmin}
	_, err = svc.Get(context.Background(), super, inv.ID)
	assert.NoError(t, err)
}

func TestDeleteRequiresElevation(t *testing.T) {
	repo := newMockRepository()
	svc := fixedService(repo)

	inv, _, err := svc.GenerateForQuotation(context.Background(), sourceQuotation())
	require.NoError(t, err)

	user := shared.Scope{UserID: 10, Role: shared.RoleUser}
	assert.ErrorIs(t, svc.Delete(context.Background(), user, inv.ID), httpx.ErrForbidden)

	admin := shared.Scope{UserID: 50, Role: shared.RoleAdmin}
	assert.NoError(t, svc.Delete(context.Background(), admin, inv.ID))
}
