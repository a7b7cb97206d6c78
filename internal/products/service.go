package products

import (
	"context"
	"fmt"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(scope, p) {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, scope shared.Scope, req ListProductsRequest) ([]Product, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, scope, req)
}

func (s *Service) Create(ctx context.Context, scope shared.Scope, req CreateProductRequest) (*Product, error) {
	ptype := ProductType(req.Type)
	if !ptype.Valid() {
		return nil, fmt.Errorf("%w: unknown product type %q", httpx.ErrValidation, req.Type)
	}
	p := Product{
		Name:        req.Name,
		Type:        ptype,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		BulkPrice:   req.BulkPrice,
		MinOrderQty: req.MinOrderQty,
		Inventory:   req.Inventory,
		CompanyID:   scope.CompanyID,
		CreatedBy:   scope.UserID,
	}
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, req UpdateProductRequest) (*Product, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutate(existing.CreatedBy) {
		return nil, httpx.ErrForbidden
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.UnitPrice != nil {
		updates["unit_price"] = *req.UnitPrice
	}
	if req.BulkPrice != nil {
		updates["bulk_price"] = *req.BulkPrice
	}
	if req.MinOrderQty != nil {
		updates["min_order_qty"] = *req.MinOrderQty
	}
	if req.Inventory != nil {
		updates["inventory"] = *req.Inventory
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update product: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if !scope.CanDelete(shared.KindProduct) {
		return httpx.ErrForbidden
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) visible(scope shared.Scope, p *Product) bool {
	switch scope.Filter() {
	case shared.FilterNone:
		return true
	case shared.FilterByCompany:
		return p.CompanyID != nil && *p.CompanyID == *scope.CompanyID
	default:
		return p.CreatedBy == scope.UserID
	}
}
