package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceAllocator allocates invoice numbers from a per-(tenant, series)
// counter row. The row is locked with SELECT ... FOR UPDATE, so it must run
// on a transaction handle: the lock is held until the caller commits.
type GormSequenceAllocator struct {
	db *gorm.DB
}

// NewGormSequenceAllocator creates an allocator bound to db, which should be
// the transaction that will also persist the numbered invoice.
func NewGormSequenceAllocator(db *gorm.DB) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db}
}

// NextNumber returns max(number)+1 for the partition. The first call for a
// partition seeds the counter from the invoices already stored, soft-deleted
// ones included, so numbers are never reused.
func (a *GormSequenceAllocator) NextNumber(ctx context.Context, tenantID uuid.UUID, series string) (uint, error) {
	db := a.db.WithContext(ctx)

	seq, err := a.lockRow(db, tenantID, series)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := a.seed(db, tenantID, series); err != nil {
			return 0, err
		}
		seq, err = a.lockRow(db, tenantID, series)
	}
	if err != nil {
		return 0, err
	}

	next := seq.LastNumber + 1
	if err := db.Model(&models.InvoiceSequenceModel{}).
		Where("tenant_id = ? AND series = ?", tenantID, series).
		Updates(map[string]interface{}{
			"last_number": next,
			"updated_at":  time.Now(),
		}).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func (a *GormSequenceAllocator) lockRow(db *gorm.DB, tenantID uuid.UUID, series string) (*models.InvoiceSequenceModel, error) {
	var seq models.InvoiceSequenceModel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND series = ?", tenantID, series).
		Take(&seq).Error
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

// seed inserts the counter row from the current maximum. A concurrent seeder
// loses the insert race silently and then waits on the winner's row lock.
func (a *GormSequenceAllocator) seed(db *gorm.DB, tenantID uuid.UUID, series string) error {
	var maxNumber uint
	if err := db.Unscoped().
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND series = ?", tenantID, series).
		Select("COALESCE(MAX(number), 0)").
		Row().
		Scan(&maxNumber); err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.InvoiceSequenceModel{
			TenantID:   tenantID,
			Series:     series,
			LastNumber: maxNumber,
			UpdatedAt:  time.Now(),
		}).Error
}

// Ensure GormSequenceAllocator implements billing.SequenceAllocator
var _ billing.SequenceAllocator = (*GormSequenceAllocator)(nil)
