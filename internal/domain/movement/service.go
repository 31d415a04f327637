// Package movement provides the movement type catalog service.
package movement

import (
	"context"
	"fmt"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/tx"
	"farmbooks/pkg/logger"
)

// Service provides business operations for the movement type catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new movement type service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// List returns system-wide entries plus the tenant's own entries.
func (s *Service) List(ctx context.Context, tenantID id.ID) ([]MovementType, error) {
	return s.repo.List(ctx, tenantID)
}

// GetByID retrieves a movement type visible to the tenant.
func (s *Service) GetByID(ctx context.Context, tenantID, typeID id.ID) (*MovementType, error) {
	return s.repo.GetByID(ctx, tenantID, typeID)
}

// Create adds a tenant-defined movement type. Reserved system codes and
// duplicates within the tenant scope are rejected.
func (s *Service) Create(ctx context.Context, mt *MovementType) error {
	if err := mt.Validate(ctx); err != nil {
		return err
	}

	if mt.TenantID == nil || id.IsNil(*mt.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}

	if mt.Code.IsReserved() {
		return apperror.NewValidation("code is reserved for system movement types").
			WithDetail("field", "code").
			WithDetail("value", string(mt.Code))
	}

	exists, err := s.repo.ExistsByCode(ctx, *mt.TenantID, mt.Code)
	if err != nil {
		return fmt.Errorf("check code: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("movement type", "code", string(mt.Code))
	}

	mt.IsSystem = false

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, mt)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "movement type created", "id", mt.ID, "code", mt.Code)
	return nil
}

// Update changes the name of a tenant-defined movement type.
// Direction is immutable; system entries cannot be touched.
func (s *Service) Update(ctx context.Context, tenantID, typeID id.ID, name string) (*MovementType, error) {
	mt, err := s.repo.GetByID(ctx, tenantID, typeID)
	if err != nil {
		return nil, err
	}

	if mt.IsSystem {
		return nil, apperror.NewForbidden("system movement types cannot be modified").
			WithDetail("code", string(mt.Code))
	}

	if name == "" {
		return nil, apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	mt.Name = name

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, mt)
	})
	if err != nil {
		return nil, err
	}

	return mt, nil
}

// Delete removes a tenant-defined movement type.
func (s *Service) Delete(ctx context.Context, tenantID, typeID id.ID) error {
	mt, err := s.repo.GetByID(ctx, tenantID, typeID)
	if err != nil {
		return err
	}

	if mt.IsSystem {
		return apperror.NewForbidden("system movement types cannot be deleted").
			WithDetail("code", string(mt.Code))
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, typeID)
	})
}

// ResolveCode resolves a code within the tenant scope. A missing seed code
// is a ConfigurationError: the deployment was not seeded, the caller did
// nothing wrong.
func (s *Service) ResolveCode(ctx context.Context, tenantID id.ID, code Code) (*MovementType, error) {
	mt, err := s.repo.GetByCode(ctx, tenantID, code)
	if err != nil {
		if apperror.IsNotFound(err) && code.IsReserved() {
			return nil, apperror.NewConfiguration(
				fmt.Sprintf("required system movement type %s is not seeded", code)).
				WithDetail("code", string(code))
		}
		return nil, err
	}
	return mt, nil
}
