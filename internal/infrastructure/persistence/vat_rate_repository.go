package persistence

import (
	"context"
	"errors"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVATRateRepository implements billing.VATRateRepository using GORM
type GormVATRateRepository struct {
	db *gorm.DB
}

// NewGormVATRateRepository creates a new GormVATRateRepository
func NewGormVATRateRepository(db *gorm.DB) *GormVATRateRepository {
	return &GormVATRateRepository{db: db}
}

// FindByIDForTenant finds a VAT rate by ID within a tenant
func (r *GormVATRateRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.VATRate, error) {
	var model models.VATRateModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds VAT rates by ID, inactive ones included
func (r *GormVATRateRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]billing.VATRate, error) {
	if len(ids) == 0 {
		return []billing.VATRate{}, nil
	}
	var rows []models.VATRateModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return vatRatesToDomain(rows), nil
}

// FindActive lists a tenant's active rates in display order
func (r *GormVATRateRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]billing.VATRate, error) {
	var rows []models.VATRateModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("sort_order ASC").
		Order("value DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return vatRatesToDomain(rows), nil
}

// FindDefault finds the tenant's default rate
func (r *GormVATRateRepository) FindDefault(ctx context.Context, tenantID uuid.UUID) (*billing.VATRate, error) {
	var model models.VATRateModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_default = ? AND is_active = ?", tenantID, true, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a VAT rate
func (r *GormVATRateRepository) Save(ctx context.Context, rate *billing.VATRate) error {
	return r.db.WithContext(ctx).Save(models.VATRateModelFromDomain(rate)).Error
}

// SetDefault clears the previous default and marks id as the default
func (r *GormVATRateRepository) SetDefault(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.VATRateModel{}).
			Where("tenant_id = ? AND is_default = ? AND id <> ?", tenantID, true, id).
			Update("is_default", false).Error; err != nil {
			return err
		}
		result := tx.Model(&models.VATRateModel{}).
			Where("tenant_id = ? AND id = ?", tenantID, id).
			Update("is_default", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func vatRatesToDomain(rows []models.VATRateModel) []billing.VATRate {
	rates := make([]billing.VATRate, len(rows))
	for i := range rows {
		rates[i] = *rows[i].ToDomain()
	}
	return rates
}

// Ensure GormVATRateRepository implements billing.VATRateRepository
var _ billing.VATRateRepository = (*GormVATRateRepository)(nil)
