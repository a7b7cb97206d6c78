package clients

import (
	"context"
	"fmt"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Service wraps client business rules. Every mutation re-checks the scope
// predicates here, never in the handlers alone.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Client, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(scope, c) {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, scope shared.Scope, req ListClientsRequest) ([]Client, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, scope, req)
}

func (s *Service) Create(ctx context.Context, scope shared.Scope, req CreateClientRequest) (*Client, error) {
	client := Client{
		Name:           req.Name,
		Email:          req.Email,
		Company:        req.Company,
		Phone:          req.Phone,
		Address:        req.Address,
		RegistrationNo: req.RegistrationNo,
		CompanyID:      scope.CompanyID,
		CreatedBy:      scope.UserID,
	}
	id, err := s.repo.Create(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, req UpdateClientRequest) (*Client, error) {
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
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.RegistrationNo != nil {
		updates["registration_no"] = *req.RegistrationNo
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update client: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if !scope.CanDelete(shared.KindClient) {
		return httpx.ErrForbidden
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) visible(scope shared.Scope, c *Client) bool {
	switch scope.Filter() {
	case shared.FilterNone:
		return true
	case shared.FilterByCompany:
		return c.CompanyID != nil && *c.CompanyID == *scope.CompanyID
	default:
		return c.CreatedBy == scope.UserID
	}
}
