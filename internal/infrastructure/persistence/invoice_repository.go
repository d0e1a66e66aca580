package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

// FindByIDForTenant finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists a tenant's invoices with the total matching count.
// Lines are not loaded.
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Scopes(forTenant(tenantID)),
		filter,
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.
		Order(orderBy(invoiceOrderColumns, filter.OrderBy, filter.OrderDir, "issue_date")).
		Order("number DESC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.InvoiceModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	invoices := make([]billing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, total, nil
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(full_number) LIKE ? OR LOWER(notes) LIKE ?", pattern, pattern)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", string(*filter.Type))
	}
	if filter.Series != "" {
		query = query.Where("series = ?", filter.Series)
	}
	if filter.IssuedFrom != nil {
		query = query.Where("issue_date >= ?", *filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		query = query.Where("issue_date <= ?", *filter.IssuedTo)
	}
	return query
}

// FindPendingEInvoice returns the next keyset page of invoices awaiting an
// e-invoice verdict, across all tenants.
func (r *GormInvoiceRepository) FindPendingEInvoice(ctx context.Context, afterID uuid.UUID, limit int) ([]billing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("efactura_status = ? AND efactura_id <> '' AND id > ?", string(billing.EInvoiceStatusInProgress), afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, nil
}

// Save creates or updates an invoice and replaces its lines
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.InvoiceModelFromDomain(invoice)
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translateUniqueViolation(err)
		}
		return r.replaceLines(tx, model)
	})
}

// SaveWithLock saves an invoice with optimistic locking (version check)
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		result := tx.Model(&models.InvoiceModel{}).
			Where("tenant_id = ? AND id = ?", invoice.TenantID, invoice.ID).
			Select("version").
			Scan(&currentVersion)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != invoice.Version {
			return shared.ErrConcurrencyConflict
		}

		invoice.Version++
		invoice.UpdatedAt = time.Now()

		model := models.InvoiceModelFromDomain(invoice)
		update := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND version = ?", invoice.ID, currentVersion).
			Updates(map[string]interface{}{
				"client_id":         model.ClientID,
				"contract_id":       model.ContractID,
				"type":              model.Type,
				"status":            model.Status,
				"series":            model.Series,
				"number":            model.Number,
				"full_number":       model.FullNumber,
				"issue_date":        model.IssueDate,
				"due_date":          model.DueDate,
				"delivery_date":     model.DeliveryDate,
				"subtotal":          model.Subtotal,
				"vat_total":         model.VATTotal,
				"total":             model.Total,
				"currency":          model.Currency,
				"payment_method":    model.PaymentMethod,
				"payment_reference": model.PaymentReference,
				"paid_at":           model.PaidAt,
				"cancelled_at":      model.CancelledAt,
				"efactura_id":       model.EInvoiceID,
				"efactura_status":   model.EInvoiceStatus,
				"pdf_path":          model.PDFPath,
				"notes":             model.Notes,
				"version":           model.Version,
				"updated_at":        model.UpdatedAt,
			})
		if update.Error != nil {
			return translateUniqueViolation(update.Error)
		}
		if update.RowsAffected == 0 {
			invoice.Version = currentVersion
			return shared.ErrConcurrencyConflict
		}

		return r.replaceLines(tx, model)
	})
}

func (r *GormInvoiceRepository) replaceLines(tx *gorm.DB, model *models.InvoiceModel) error {
	if err := tx.Where("invoice_id = ?", model.ID).Delete(&models.InvoiceLineModel{}).Error; err != nil {
		return err
	}
	if len(model.Lines) == 0 {
		return nil
	}
	return tx.Create(&model.Lines).Error
}

// UpdateDocumentPath stores the rendered document locator
func (r *GormInvoiceRepository) UpdateDocumentPath(ctx context.Context, tenantID, id uuid.UUID, path string) error {
	return r.updateColumns(ctx, tenantID, id, map[string]interface{}{
		"pdf_path": path,
	})
}

// UpdateEInvoice stores the e-invoice submission id and status
func (r *GormInvoiceRepository) UpdateEInvoice(ctx context.Context, tenantID, id uuid.UUID, submissionID string, status billing.EInvoiceStatus) error {
	return r.updateColumns(ctx, tenantID, id, map[string]interface{}{
		"efactura_id":     submissionID,
		"efactura_status": string(status),
	})
}

// updateColumns writes side-effect columns without bumping the version, so
// background jobs never conflict with user edits.
func (r *GormInvoiceRepository) updateColumns(ctx context.Context, tenantID, id uuid.UUID, columns map[string]interface{}) error {
	columns["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		UpdateColumns(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SoftDelete marks an invoice deleted. Its number stays consumed.
func (r *GormInvoiceRepository) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.InvoiceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// translateUniqueViolation maps a duplicate full number to ErrAlreadyExists.
func translateUniqueViolation(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	msg := err.Error()
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed") {
		return shared.ErrAlreadyExists
	}
	return err
}

// Ensure GormInvoiceRepository implements billing.InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
