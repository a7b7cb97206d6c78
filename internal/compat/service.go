package compat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ledgerline/ledgerline/internal/clients"
	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/products"
	"github.com/ledgerline/ledgerline/internal/quotations"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type Service struct {
	clients    *clients.Service
	products   *products.Service
	quotations *quotations.Service
	invoices   *invoices.Service
}

func NewService(clientSvc *clients.Service, productSvc *products.Service,
	quotationSvc *quotations.Service, invoiceSvc *invoices.Service) *Service {
	return &Service{
		clients:    clientSvc,
		products:   productSvc,
		quotations: quotationSvc,
		invoices:   invoiceSvc,
	}
}

// Document flattens any entity into its native key/value shape through its
// JSON encoding.
func Document(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) Client(ctx context.Context, scope shared.Scope, id int64) (map[string]any, error) {
	client, err := s.clients.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	doc, err := Document(client)
	if err != nil {
		return nil, err
	}
	return ClientMapping.ToLegacy(doc), nil
}

func (s *Service) ListClients(ctx context.Context, scope shared.Scope, req clients.ListClientsRequest) ([]map[string]any, int, error) {
	items, total, err := s.clients.List(ctx, scope, req)
	if err != nil {
		return nil, 0, err
	}
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		doc, err := Document(&items[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ClientMapping.ToLegacy(doc))
	}
	return out, total, nil
}

func (s *Service) Product(ctx context.Context, scope shared.Scope, id int64) (map[string]any, error) {
	product, err := s.products.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	doc, err := Document(product)
	if err != nil {
		return nil, err
	}
	return ProductMapping.ToLegacy(doc), nil
}

func (s *Service) ListProducts(ctx context.Context, scope shared.Scope, req products.ListProductsRequest) ([]map[string]any, int, error) {
	items, total, err := s.products.List(ctx, scope, req)
	if err != nil {
		return nil, 0, err
	}
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		doc, err := Document(&items[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ProductMapping.ToLegacy(doc))
	}
	return out, total, nil
}

// Quotation returns the legacy document with the client relation joined in.
func (s *Service) Quotation(ctx context.Context, scope shared.Scope, id int64) (map[string]any, error) {
	q, err := s.quotations.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	doc, err := Document(q)
	if err != nil {
		return nil, err
	}
	return s.joinClient(ctx, scope, QuotationMapping.ToLegacy(doc), q.ClientID)
}

func (s *Service) ListQuotations(ctx context.Context, scope shared.Scope, req quotations.ListQuotationsRequest) ([]map[string]any, int, error) {
	items, total, err := s.quotations.List(ctx, scope, req)
	if err != nil {
		return nil, 0, err
	}
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		doc, err := Document(&items[i])
		if err != nil {
			return nil, 0, err
		}
		joined, err := s.joinClient(ctx, scope, QuotationMapping.ToLegacy(doc), items[i].ClientID)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, joined)
	}
	return out, total, nil
}

func (s *Service) Invoice(ctx context.Context, scope shared.Scope, id int64) (map[string]any, error) {
	inv, err := s.invoices.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	doc, err := Document(inv)
	if err != nil {
		return nil, err
	}
	return s.joinClient(ctx, scope, InvoiceMapping.ToLegacy(doc), inv.ClientID)
}

func (s *Service) ListInvoices(ctx context.Context, scope shared.Scope, req invoices.ListInvoicesRequest) ([]map[string]any, int, error) {
	items, total, err := s.invoices.List(ctx, scope, req)
	if err != nil {
		return nil, 0, err
	}
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		doc, err := Document(&items[i])
		if err != nil {
			return nil, 0, err
		}
		joined, err := s.joinClient(ctx, scope, InvoiceMapping.ToLegacy(doc), items[i].ClientID)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, joined)
	}
	return out, total, nil
}

// joinClient attaches the mapped client document under the "clients" key. A
// dangling or invisible client reference yields clients = null, never an
// error: the primary read must not fail on a broken relation.
func (s *Service) joinClient(ctx context.Context, scope shared.Scope, doc map[string]any, clientID *int64) (map[string]any, error) {
	doc["clients"] = nil
	if clientID == nil {
		return doc, nil
	}
	client, err := s.clients.Get(ctx, scope, *clientID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return doc, nil
		}
		return nil, fmt.Errorf("join client: %w", err)
	}
	clientDoc, err := Document(client)
	if err != nil {
		return nil, err
	}
	doc["clients"] = ClientMapping.ToLegacy(clientDoc)
	return doc, nil
}
