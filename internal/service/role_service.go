package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nurpe/fieldserv-crm/internal/authz"
	"github.com/nurpe/fieldserv-crm/internal/model"
)

// RoleService manages permission documents. Unknown capability keys are
// rejected on save, so lookups at request time only ever see the closed
// capability set.
type RoleService struct {
	roles RoleStore
}

func NewRoleService(roles RoleStore) *RoleService {
	return &RoleService{roles: roles}
}

type RoleInput struct {
	Name        string
	Description string
	Permissions map[string]bool
	Principal   model.Principal
}

func (s *RoleService) Create(ctx context.Context, input RoleInput) (*model.Role, error) {
	if err := authorize(ctx, s.roles, input.Principal, authz.CapRoleCreate); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	perms, err := authz.ParsePermissions(input.Permissions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.roles.CreateRole(ctx, model.Role{
		Name:        input.Name,
		Description: input.Description,
		Permissions: perms,
	})
}

func (s *RoleService) Update(ctx context.Context, id uuid.UUID, input RoleInput) (*model.Role, error) {
	if err := authorize(ctx, s.roles, input.Principal, authz.CapRoleEdit); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	perms, err := authz.ParsePermissions(input.Permissions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.roles.GetRole(ctx, id); err != nil {
		return nil, mapStoreError(err, "role")
	}
	return s.roles.UpdateRole(ctx, model.Role{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Permissions: perms,
	})
}

// Delete refuses to remove a role that users still reference.
func (s *RoleService) Delete(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	if err := authorize(ctx, s.roles, principal, authz.CapRoleDelete); err != nil {
		return err
	}
	if _, err := s.roles.GetRole(ctx, id); err != nil {
		return mapStoreError(err, "role")
	}
	count, err := s.roles.CountUsersWithRole(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: role is referenced by %d user(s)", ErrInvalidInput, count)
	}
	return s.roles.DeleteRole(ctx, id)
}
