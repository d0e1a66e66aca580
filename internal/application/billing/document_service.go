package billing

import (
	"context"
	"fmt"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService produces invoice documents and records their locator.
// It runs from the background queue; errors are returned so the queue can retry.
type DocumentService struct {
	resolver    *InvoiceResolver
	generator   billing.DocumentGenerator
	invoiceRepo billing.InvoiceRepository
	logger      *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(resolver *InvoiceResolver, generator billing.DocumentGenerator, invoiceRepo billing.InvoiceRepository, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		resolver:    resolver,
		generator:   generator,
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// Generate renders the invoice document and stores its locator on the invoice.
func (s *DocumentService) Generate(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	resolved, err := s.resolver.Resolve(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	locator, err := s.generator.Generate(ctx, resolved)
	if err != nil {
		return fmt.Errorf("generate document for invoice %s: %w", resolved.Invoice.FullNumber, err)
	}
	if err := s.invoiceRepo.UpdateDocumentPath(ctx, tenantID, invoiceID, locator); err != nil {
		return fmt.Errorf("store document path: %w", err)
	}
	s.logger.Info("Invoice document generated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("path", locator),
	)
	return nil
}
