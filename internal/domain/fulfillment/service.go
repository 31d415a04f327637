package fulfillment

import (
	"context"
	"fmt"
	"time"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/tx"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/audit"
	"farmbooks/internal/domain/invoice"
	"farmbooks/internal/domain/ledger"
	"farmbooks/internal/domain/movement"
	"farmbooks/pkg/logger"
)

// eventDateLayout is the wire format for fulfillment event dates.
const eventDateLayout = "2006-01-02"

// recorderType tags ledger entries produced by fulfillment events.
const recorderType = "fulfillment_event"

// Service coordinates fulfillment events between the invoice aggregate and
// the stock ledger. Every create/delete runs in a serializable transaction
// holding a row lock on the invoice, so concurrent fulfillments against the
// same invoice serialize and the over-fulfillment check stays sound.
type Service struct {
	repo      Repository
	invoices  invoice.Repository
	ledger    *ledger.Service
	movements MovementResolver
	txManager tx.SerializableManager
	auditor   audit.Recorder
}

// MovementResolver is the slice of the movement type catalog the
// coordinator needs. Satisfied by *movement.Service.
type MovementResolver interface {
	ResolveCode(ctx context.Context, tenantID id.ID, code movement.Code) (*movement.MovementType, error)
}

// NewService creates the reconciliation coordinator.
func NewService(repo Repository, invoices invoice.Repository, ledgerSvc *ledger.Service, movements MovementResolver, txManager tx.SerializableManager, auditor audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		invoices:  invoices,
		ledger:    ledgerSvc,
		movements: movements,
		txManager: txManager,
		auditor:   auditor,
	}
}

// LineInput is one requested fulfillment quantity against an invoice line.
type LineInput struct {
	LineItemID id.ID          `json:"lineItemId"`
	Quantity   types.Quantity `json:"quantity"`
}

// CreateEventInput describes a goods receipt or shipment to record.
type CreateEventInput struct {
	InvoiceID id.ID       `json:"invoiceId"`
	EventDate string      `json:"eventDate"`
	Notes     string      `json:"notes"`
	Lines     []LineInput `json:"lines"`
}

// CreateEvent records a fulfillment event against an invoice and appends the
// matching stock ledger entries for lines that feed the ledger.
//
// The whole operation is atomic: the invoice row is locked, already-fulfilled
// totals are read under the lock, the event and its ledger entries are
// written together or not at all.
func (s *Service) CreateEvent(ctx context.Context, tenantID id.ID, kind Kind, input CreateEventInput) (*Event, error) {
	if !kind.Valid() {
		return nil, apperror.NewValidation("invalid fulfillment kind").
			WithDetail("field", "kind").
			WithDetail("value", string(kind))
	}

	eventDate, err := time.Parse(eventDateLayout, input.EventDate)
	if err != nil {
		return nil, apperror.NewValidation("event date must be formatted YYYY-MM-DD").
			WithDetail("field", "eventDate").
			WithDetail("value", input.EventDate)
	}

	// Zero and negative quantities are discarded, not rejected. An event
	// must still end up with at least one effective line.
	requested := make([]LineInput, 0, len(input.Lines))
	for _, l := range input.Lines {
		if l.Quantity.IsPositive() {
			requested = append(requested, l)
		}
	}
	if len(requested) == 0 {
		return nil, apperror.NewValidation("at least one line with positive quantity is required").
			WithDetail("field", "lines")
	}

	var event *Event

	err = s.txManager.Serializable(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, tenantID, input.InvoiceID)
		if err != nil {
			return err
		}

		if inv.Direction != kind.InvoiceDirection() {
			return apperror.NewDirectionMismatch(string(inv.Direction), string(kind))
		}

		lines, err := s.invoices.GetLines(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("load lines: %w", err)
		}
		byID := make(map[id.ID]invoice.LineItem, len(lines))
		for _, l := range lines {
			byID[l.ID] = l
		}

		already, err := s.repo.SumFulfilledByLineItem(ctx, tenantID, inv.ID)
		if err != nil {
			return fmt.Errorf("sum fulfilled: %w", err)
		}

		// The same line item may appear more than once in the request;
		// the cap applies to the combined total.
		requestedByLine := make(map[id.ID]types.Quantity, len(requested))
		for _, l := range requested {
			item, ok := byID[l.LineItemID]
			if !ok {
				return apperror.NewNotFound("invoice line item", l.LineItemID)
			}

			sum := requestedByLine[l.LineItemID].Add(l.Quantity)
			requestedByLine[l.LineItemID] = sum

			prior := already[l.LineItemID]
			if prior.Add(sum).GreaterThan(item.Quantity) {
				return apperror.NewOverFulfillment(
					l.LineItemID.String(),
					item.Quantity.String(),
					prior.String(),
					sum.String(),
				)
			}
		}

		event = NewEvent(tenantID, inv.ID, kind, eventDate, input.Notes)
		for _, l := range requested {
			event.AddLine(l.LineItemID, l.Quantity)
		}
		if err := event.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, event); err != nil {
			return fmt.Errorf("create event: %w", err)
		}

		entries, err := s.ledgerEntries(ctx, event, byID, kind.ForwardCode())
		if err != nil {
			return err
		}
		return s.ledger.Append(ctx, entries)
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, event, audit.ActionCreate)
	logger.Info(ctx, "fulfillment event created",
		"event_id", event.ID,
		"invoice_id", event.InvoiceID,
		"kind", event.Kind,
		"lines", len(event.Lines),
	)

	return event, nil
}

// DeleteEvent removes a fulfillment event. Stock ledger history is never
// rewritten: for every ledger-feeding line a compensating entry with the
// reverse movement type is appended, then the event rows are deleted, all
// in one transaction.
func (s *Service) DeleteEvent(ctx context.Context, tenantID, eventID id.ID) error {
	var event *Event

	err := s.txManager.Serializable(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.repo.GetByID(ctx, tenantID, eventID)
		if err != nil {
			return err
		}

		// Lock the invoice so the delete serializes with concurrent
		// fulfillments reading already-fulfilled totals.
		inv, err := s.invoices.GetForUpdate(ctx, tenantID, event.InvoiceID)
		if err != nil {
			return err
		}

		lines, err := s.invoices.GetLines(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("load lines: %w", err)
		}
		byID := make(map[id.ID]invoice.LineItem, len(lines))
		for _, l := range lines {
			byID[l.ID] = l
		}

		entries, err := s.ledgerEntries(ctx, event, byID, event.Kind.ReverseCode())
		if err != nil {
			return err
		}
		if err := s.ledger.Append(ctx, entries); err != nil {
			return err
		}

		return s.repo.Delete(ctx, tenantID, eventID)
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, event, audit.ActionDelete)
	logger.Info(ctx, "fulfillment event deleted",
		"event_id", eventID,
		"invoice_id", event.InvoiceID,
		"kind", event.Kind,
	)

	return nil
}

// GetEvent retrieves an event with its lines.
func (s *Service) GetEvent(ctx context.Context, tenantID, eventID id.ID) (*Event, error) {
	return s.repo.GetByID(ctx, tenantID, eventID)
}

// ListEvents lists events matching the filter.
func (s *Service) ListEvents(ctx context.Context, tenantID id.ID, filter ListFilter) (*domain.ListResult[*Event], error) {
	return s.repo.List(ctx, tenantID, filter)
}

// FulfilledByLineItem returns already-fulfilled totals per line item of the
// invoice, for reconciliation views.
func (s *Service) FulfilledByLineItem(ctx context.Context, tenantID, invoiceID id.ID) (map[id.ID]types.Quantity, error) {
	if _, err := s.invoices.GetByID(ctx, tenantID, invoiceID); err != nil {
		return nil, err
	}
	return s.repo.SumFulfilledByLineItem(ctx, tenantID, invoiceID)
}

// ledgerEntries builds stock ledger entries for the event's ledger-feeding
// lines using the given movement type code. Lines whose invoice line has
// FeedsLedger unset produce no entries.
func (s *Service) ledgerEntries(ctx context.Context, event *Event, byID map[id.ID]invoice.LineItem, code movement.Code) ([]ledger.Entry, error) {
	var movementType *movement.MovementType
	entries := make([]ledger.Entry, 0, len(event.Lines))

	for _, line := range event.Lines {
		item, ok := byID[line.InvoiceLineItemID]
		if !ok || !item.FeedsLedger {
			continue
		}

		if movementType == nil {
			var err error
			movementType, err = s.movements.ResolveCode(ctx, event.TenantID, code)
			if err != nil {
				return nil, err
			}
		}

		entry := ledger.NewEntry(event.TenantID, event.EventDate, movementType.ID, item.CatalogItemID, item.Unit, line.Quantity)
		entry.CostCenterID = item.CostCenterID
		entry.ManagementAccountID = item.ManagementAccountID
		entry.SeasonID = item.SeasonID
		entry.RecorderType = recorderType
		recorderID := event.ID
		entry.RecorderID = &recorderID
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *Service) logAudit(ctx context.Context, event *Event, action audit.Action) {
	if s.auditor == nil {
		return
	}
	changes := map[string]any{
		"invoice_id": event.InvoiceID.String(),
		"kind":       string(event.Kind),
		"event_date": event.EventDate.Format(eventDateLayout),
		"quantity":   event.TotalQuantity().String(),
	}
	if err := s.auditor.LogChange(ctx, event.TenantID, "fulfillment_event", event.ID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err, "event_id", event.ID)
	}
}
