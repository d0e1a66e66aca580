package persistence

import (
	"context"

	appbilling "github.com/erp/invoicing/internal/application/billing"
	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/inventory"
	"github.com/erp/invoicing/internal/infrastructure/scheduler"
	"gorm.io/gorm"
)

// GormTransactionScope implements appbilling.TransactionScope on a GORM
// transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside one transaction. Any error returned by fn, or a
// panic, rolls the transaction back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) SequenceAllocator() billing.SequenceAllocator {
	return NewGormSequenceAllocator(r.tx)
}

func (r *gormTransactionalRepositories) MovementStore() inventory.MovementStore {
	return NewGormMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) MovementRepo() inventory.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) VATRateRepo() billing.VATRateRepository {
	return NewGormVATRateRepository(r.tx)
}

func (r *gormTransactionalRepositories) Jobs() appbilling.JobEnqueuer {
	return scheduler.NewGormJobOutbox(r.tx)
}

// Ensure GormTransactionScope implements appbilling.TransactionScope
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)
