// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"farmbooks/internal/domain/fulfillment"
	"farmbooks/internal/domain/invoice"
	"farmbooks/internal/domain/ledger"
	"farmbooks/internal/domain/movement"
	"farmbooks/internal/infrastructure/http/v1/handlers"
	"farmbooks/internal/infrastructure/http/v1/middleware"
	"farmbooks/internal/infrastructure/storage/postgres"
	"farmbooks/internal/infrastructure/storage/postgres/fulfillment_repo"
	"farmbooks/internal/infrastructure/storage/postgres/invoice_repo"
	"farmbooks/internal/infrastructure/storage/postgres/ledger_repo"
	"farmbooks/internal/infrastructure/storage/postgres/movement_repo"
	"farmbooks/internal/infrastructure/storage/postgres/refs_repo"
	"farmbooks/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	txManager := postgres.NewTxManager(cfg.Pool)

	auditor, err := postgres.NewAuditService(txManager)
	if err != nil {
		return nil, err
	}

	invoiceRepo := invoice_repo.NewInvoiceRepo(txManager)
	movementRepo := movement_repo.NewMovementTypeRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	eventRepo := fulfillment_repo.NewFulfillmentRepo(txManager)
	refsRepo := refs_repo.NewRefsRepo(txManager)

	movementSvc := movement.NewService(movementRepo, txManager)
	ledgerSvc := ledger.NewService(ledgerRepo, movementSvc, refsRepo, refsRepo, txManager)
	invoiceSvc := invoice.NewService(invoiceRepo, eventRepo, refsRepo, txManager, auditor)
	fulfillmentSvc := fulfillment.NewService(eventRepo, invoiceRepo, ledgerSvc, movementSvc, txManager, auditor)

	base := handlers.NewBaseHandler()
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	invoiceHandler := handlers.NewInvoiceHandler(base, invoiceSvc)
	receiptHandler := handlers.NewReceiptHandler(base, fulfillmentSvc)
	shipmentHandler := handlers.NewShipmentHandler(base, fulfillmentSvc)
	ledgerHandler := handlers.NewLedgerHandler(base, ledgerSvc)
	movementHandler := handlers.NewMovementTypeHandler(base, movementSvc)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1, all tenant-scoped behind JWT auth
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.Auth(cfg.JWTValidator))
	{
		invoices := apiV1.Group("/invoices")
		{
			invoices.POST("", invoiceHandler.Create)
			invoices.GET("", invoiceHandler.List)
			invoices.GET("/:id", invoiceHandler.Get)
			invoices.PUT("/:id", invoiceHandler.Update)
			invoices.DELETE("/:id", invoiceHandler.Delete)
			invoices.GET("/:id/fulfillment", receiptHandler.InvoiceFulfillment)
			invoices.POST("/:id/installments/:installmentId/pay", invoiceHandler.PayInstallment)
			invoices.POST("/:id/installments/:installmentId/unpay", invoiceHandler.UnpayInstallment)
		}

		receipts := apiV1.Group("/receipts")
		{
			receipts.POST("", receiptHandler.Create)
			receipts.GET("", receiptHandler.List)
			receipts.GET("/:id", receiptHandler.Get)
			receipts.DELETE("/:id", receiptHandler.Delete)
		}

		shipments := apiV1.Group("/shipments")
		{
			shipments.POST("", shipmentHandler.Create)
			shipments.GET("", shipmentHandler.List)
			shipments.GET("/:id", shipmentHandler.Get)
			shipments.DELETE("/:id", shipmentHandler.Delete)
		}

		ledgerRoutes := apiV1.Group("/ledger")
		{
			ledgerRoutes.GET("", ledgerHandler.List)
			ledgerRoutes.GET("/balance/:itemId", ledgerHandler.Balance)
			ledgerRoutes.POST("/initial-stock", ledgerHandler.RecordInitialStock)
		}

		movementTypes := apiV1.Group("/movement-types")
		{
			movementTypes.POST("", movementHandler.Create)
			movementTypes.GET("", movementHandler.List)
			movementTypes.GET("/:id", movementHandler.Get)
			movementTypes.PUT("/:id", movementHandler.Update)
			movementTypes.DELETE("/:id", movementHandler.Delete)
		}
	}

	return router, nil
}
