package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*User, error) {
	if !scope.Role.Elevated() && scope.UserID != id {
		return nil, httpx.ErrForbidden
	}
	return s.repo.Get(ctx, id)
}

// List is restricted to elevated roles. Admins see their own company only.
func (s *Service) List(ctx context.Context, scope shared.Scope, req ListUsersRequest) ([]User, int, error) {
	if !scope.Role.Elevated() {
		return nil, 0, httpx.ErrForbidden
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}
	all, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	if scope.Role == shared.RoleSuperAdmin || scope.CompanyID == nil {
		return all, total, nil
	}
	filtered := all[:0]
	for _, u := range all {
		if u.CompanyID != nil && *u.CompanyID == *scope.CompanyID {
			filtered = append(filtered, u)
		}
	}
	return filtered, len(filtered), nil
}

func (s *Service) Create(ctx context.Context, scope shared.Scope, req CreateUserRequest) (*User, error) {
	if !scope.Role.Elevated() {
		return nil, httpx.ErrForbidden
	}
	role := shared.Role(req.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, req.Role)
	}
	// Only the highest role may mint peers or admins.
	if role != shared.RoleUser && scope.Role != shared.RoleSuperAdmin {
		return nil, httpx.ErrForbidden
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	companyID := req.CompanyID
	if companyID == nil && scope.Role == shared.RoleAdmin {
		companyID = scope.CompanyID
	}

	u := User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		CompanyID:    companyID,
		IsActive:     true,
	}
	id, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, req UpdateUserRequest) (*User, error) {
	if !scope.Role.Elevated() && scope.UserID != id {
		return nil, httpx.ErrForbidden
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Role != nil {
		if scope.Role != shared.RoleSuperAdmin {
			return nil, httpx.ErrForbidden
		}
		role := shared.Role(*req.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, *req.Role)
		}
		updates["role"] = role
	}
	if req.CompanyID != nil {
		if !scope.Role.Elevated() {
			return nil, httpx.ErrForbidden
		}
		updates["company_id"] = *req.CompanyID
	}
	if req.IsActive != nil {
		if !scope.Role.Elevated() {
			return nil, httpx.ErrForbidden
		}
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

// Onboard stores the business details and marks the account ready. Called by
// the account owner only.
func (s *Service) Onboard(ctx context.Context, scope shared.Scope, req OnboardRequest) (*User, error) {
	updates := map[string]interface{}{
		"business_name":    req.BusinessName,
		"business_address": req.BusinessAddress,
		"vat_number":       req.VATNumber,
		"onboarded":        true,
	}
	if err := s.repo.Update(ctx, scope.UserID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, scope.UserID)
}

func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if scope.Role != shared.RoleSuperAdmin {
		return httpx.ErrForbidden
	}
	if scope.UserID == id {
		return fmt.Errorf("%w: cannot delete own account", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
