package billing

import (
	"context"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/inventory"
)

// TransactionScope provides transactional access to the repositories an
// invoice transition touches. Everything done through the repositories handed
// to fn is committed or rolled back together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories share one database transaction.
//
// SequenceAllocator holds its partition lock until the transaction ends, so
// the invoice that receives the number must be saved through InvoiceRepo in
// the same Execute call. Jobs written through Jobs become visible to the job
// relay only once the transaction commits.
type TransactionalRepositories interface {
	InvoiceRepo() billing.InvoiceRepository
	SequenceAllocator() billing.SequenceAllocator
	MovementStore() inventory.MovementStore
	MovementRepo() inventory.MovementRepository
	VATRateRepo() billing.VATRateRepository
	Jobs() JobEnqueuer
}
