// Package main provides a CLI tool for applying the schema and seeding the
// system movement type catalog. Both steps are idempotent.
package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain/movement"
	"farmbooks/internal/infrastructure/storage/postgres"
	"farmbooks/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// seedTypes lists the system movement types in display order.
var seedTypes = []struct {
	code movement.Code
	name string
}{
	{movement.CodeInitialStock, "Initial stock"},
	{movement.CodePurchase, "Purchase"},
	{movement.CodeSale, "Sale"},
	{movement.CodeConsumption, "Consumption"},
	{movement.CodeInboundAdjustment, "Inbound adjustment"},
	{movement.CodeOutboundAdjustment, "Outbound adjustment"},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	if err := seedMovementTypes(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed movement types", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedMovementTypes inserts the six system movement types. The rows are
// shared across tenants (tenant_id NULL) and must exist before any
// reconciliation operation runs.
func seedMovementTypes(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	for _, st := range seedTypes {
		direction := movement.SeedCodes[st.code]

		tag, err := pool.Exec(ctx, `
			INSERT INTO cat_movement_types (id, tenant_id, code, name, direction, is_system)
			VALUES ($1, NULL, $2, $3, $4, TRUE)
			ON CONFLICT (code) WHERE tenant_id IS NULL DO NOTHING`,
			id.New(), string(st.code), st.name, string(direction))
		if err != nil {
			return fmt.Errorf("seed %s: %w", st.code, err)
		}

		if tag.RowsAffected() > 0 {
			log.Infow("movement type seeded", "code", st.code, "direction", direction)
		}
	}
	return nil
}

// seedDemoData creates a demo tenant with reference data and one purchase
// invoice, enough to exercise the fulfillment flow by hand.
func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	tenantID := id.New()

	itemID := id.New()
	if _, err := pool.Exec(ctx, `
		INSERT INTO ref_items (id, tenant_id, name, unit, active)
		VALUES ($1, $2, $3, $4, TRUE)`,
		itemID, tenantID, "Wheat seed", "kg"); err != nil {
		return fmt.Errorf("seed item: %w", err)
	}

	costCenterID := id.New()
	if _, err := pool.Exec(ctx, `
		INSERT INTO ref_cost_centers (id, tenant_id, name)
		VALUES ($1, $2, $3)`,
		costCenterID, tenantID, "Field A"); err != nil {
		return fmt.Errorf("seed cost center: %w", err)
	}

	invoiceID := id.New()
	if _, err := pool.Exec(ctx, `
		INSERT INTO doc_invoices (id, tenant_id, number, issue_date, direction, counterparty_id)
		VALUES ($1, $2, $3, $4, 'purchase', $5)`,
		invoiceID, tenantID, "PINV-0001", time.Now().UTC(), id.New()); err != nil {
		return fmt.Errorf("seed invoice: %w", err)
	}

	if _, err := pool.Exec(ctx, `
		INSERT INTO doc_invoice_lines
			(id, invoice_id, line_no, catalog_item_id, quantity, unit, unit_price, feeds_ledger, cost_center_id)
		VALUES ($1, $2, 1, $3, $4, 'kg', $5, TRUE, $6)`,
		id.New(), invoiceID, itemID,
		types.MustQuantity("1000"), types.MustQuantity("12.50"), costCenterID); err != nil {
		return fmt.Errorf("seed invoice line: %w", err)
	}

	log.Infow("demo data seeded",
		"tenant_id", tenantID,
		"invoice", "PINV-0001",
		"item", "Wheat seed")
	return nil
}
