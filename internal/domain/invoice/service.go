// Package invoice provides the Invoice document service.
package invoice

import (
	"context"
	"fmt"
	"time"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/tx"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/audit"
	"farmbooks/internal/domain/refs"
	"farmbooks/pkg/logger"
)

// FulfillmentGuard reports whether fulfillment events exist for an invoice.
// Implemented by the fulfillment repository; declared here to keep the
// dependency pointing from fulfillment to invoice, not both ways.
type FulfillmentGuard interface {
	HasEvents(ctx context.Context, tenantID, invoiceID id.ID) (bool, error)
}

// Service provides business operations for invoices.
// Transaction boundaries are explicit at the public operations; the
// persistence context is injected, never reached through a process global.
type Service struct {
	repo      Repository
	guard     FulfillmentGuard
	dims      refs.DimensionLookup
	txManager tx.Manager
	auditor   audit.Recorder // optional
}

// NewService creates a new invoice service.
func NewService(repo Repository, guard FulfillmentGuard, dims refs.DimensionLookup, txManager tx.Manager, auditor audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		guard:     guard,
		dims:      dims,
		txManager: txManager,
		auditor:   auditor,
	}
}

// Create persists a new invoice with its lines and installments atomically.
func (s *Service) Create(ctx context.Context, inv *Invoice) error {
	if err := inv.Validate(ctx); err != nil {
		return err
	}
	if err := s.validateDimensions(ctx, inv); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByNumber(ctx, inv.TenantID, inv.Number)
	if err != nil {
		return fmt.Errorf("check number: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("invoice", "number", inv.Number)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := s.repo.SaveLines(ctx, inv.ID, inv.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if err := s.repo.SaveInstallments(ctx, inv.ID, inv.Installments); err != nil {
			return fmt.Errorf("save installments: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, inv, audit.ActionCreate)

	logger.Info(ctx, "invoice created",
		"id", inv.ID,
		"number", inv.Number,
		"direction", inv.Direction)

	return nil
}

// GetByID retrieves an invoice with lines and installments.
// Installment statuses are derived at read time.
func (s *Service) GetByID(ctx context.Context, tenantID, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := s.loadChildren(ctx, inv); err != nil {
		return nil, err
	}

	inv.ComputeStatuses(time.Now().UTC())
	return inv, nil
}

// Update replaces the invoice header and all of its children.
// Replace-all keeps the no-partial-update invariant simple: the stored
// children always mirror exactly the last accepted payload. Rejected while
// fulfillment events reference the invoice: the events hold line-item ids
// that a replace would invalidate.
func (s *Service) Update(ctx context.Context, inv *Invoice) error {
	if err := inv.Validate(ctx); err != nil {
		return err
	}
	if err := s.validateDimensions(ctx, inv); err != nil {
		return err
	}

	current, err := s.repo.GetByNumber(ctx, inv.TenantID, inv.Number)
	switch {
	case err == nil:
		if current.ID != inv.ID {
			return apperror.NewDuplicate("invoice", "number", inv.Number)
		}
	case !apperror.IsNotFound(err):
		return fmt.Errorf("check number: %w", err)
	}

	hasEvents, err := s.guard.HasEvents(ctx, inv.TenantID, inv.ID)
	if err != nil {
		return fmt.Errorf("check fulfillments: %w", err)
	}
	if hasEvents {
		return apperror.NewConflict("invoice has fulfillment events; delete them before updating").
			WithDetail("invoice_id", inv.ID.String())
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := s.repo.SaveLines(ctx, inv.ID, inv.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if err := s.repo.SaveInstallments(ctx, inv.ID, inv.Installments); err != nil {
			return fmt.Errorf("save installments: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, inv, audit.ActionUpdate)
	return nil
}

// Delete removes an invoice and its children. Rejected while fulfillment
// events still reference the invoice: delete those first so the stock
// ledger receives its compensating entries.
func (s *Service) Delete(ctx context.Context, tenantID, invoiceID id.ID) error {
	inv, err := s.repo.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}

	hasEvents, err := s.guard.HasEvents(ctx, tenantID, invoiceID)
	if err != nil {
		return fmt.Errorf("check fulfillments: %w", err)
	}
	if hasEvents {
		return apperror.NewConflict("invoice has fulfillment events; delete them first").
			WithDetail("invoice_id", invoiceID.String())
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, tenantID, invoiceID)
	})
	if err != nil {
		return err
	}

	if s.auditor != nil {
		_ = s.auditor.LogChange(ctx, tenantID, "invoice", invoiceID, audit.ActionDelete, map[string]any{
			"number": inv.Number,
		})
	}

	logger.Info(ctx, "invoice deleted", "id", invoiceID, "number", inv.Number)
	return nil
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, tenantID, filter)
}

// MarkInstallmentPaid settles an installment. A nil paidAt defaults to now.
func (s *Service) MarkInstallmentPaid(ctx context.Context, tenantID, invoiceID, installmentID id.ID, paidAt *time.Time) (*Installment, error) {
	return s.updateInstallment(ctx, tenantID, invoiceID, installmentID, func(inst *Installment, now time.Time) {
		inst.MarkPaid(paidAt, now)
	})
}

// MarkInstallmentPending clears paid-at for correction; the derived status
// is recomputed from the current due date.
func (s *Service) MarkInstallmentPending(ctx context.Context, tenantID, invoiceID, installmentID id.ID) (*Installment, error) {
	return s.updateInstallment(ctx, tenantID, invoiceID, installmentID, func(inst *Installment, now time.Time) {
		inst.MarkPending(now)
	})
}

func (s *Service) updateInstallment(ctx context.Context, tenantID, invoiceID, installmentID id.ID, apply func(*Installment, time.Time)) (*Installment, error) {
	inv, err := s.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	inst, ok := inv.InstallmentByID(installmentID)
	if !ok {
		return nil, apperror.NewNotFound("installment", installmentID.String())
	}

	now := time.Now().UTC()
	apply(inst, now)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpdateInstallmentPaidAt(ctx, invoiceID, installmentID, inst.PaidAt)
	})
	if err != nil {
		return nil, err
	}

	inst.Status = inst.StatusAt(now)
	return inst, nil
}

// validateDimensions checks that every accounting dimension reference on
// the lines exists for the tenant. The references live in tables owned by
// the rest of the farm backend, so schema FKs cannot be relied on here.
func (s *Service) validateDimensions(ctx context.Context, inv *Invoice) error {
	for _, line := range inv.Lines {
		checks := []struct {
			dim   refs.Dimension
			refID *id.ID
			field string
		}{
			{refs.DimensionCostCenter, line.CostCenterID, "costCenterId"},
			{refs.DimensionManagementAccount, line.ManagementAccountID, "managementAccountId"},
			{refs.DimensionSeason, line.SeasonID, "seasonId"},
		}
		for _, check := range checks {
			if check.refID == nil {
				continue
			}
			exists, err := s.dims.Exists(ctx, inv.TenantID, check.dim, *check.refID)
			if err != nil {
				return fmt.Errorf("check %s: %w", check.dim, err)
			}
			if !exists {
				return apperror.NewValidation(string(check.dim)+" does not exist").
					WithDetail("field", check.field).
					WithDetail("lineNo", line.LineNo)
			}
		}
	}
	return nil
}

func (s *Service) loadChildren(ctx context.Context, inv *Invoice) error {
	lines, err := s.repo.GetLines(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("get lines: %w", err)
	}
	inv.Lines = lines

	installments, err := s.repo.GetInstallments(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("get installments: %w", err)
	}
	inv.Installments = installments
	return nil
}

func (s *Service) logAudit(ctx context.Context, inv *Invoice, action audit.Action) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.LogChange(ctx, inv.TenantID, "invoice", inv.ID, action, map[string]any{
		"number":       inv.Number,
		"direction":    string(inv.Direction),
		"lines":        len(inv.Lines),
		"installments": len(inv.Installments),
	})
	if err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}
}
