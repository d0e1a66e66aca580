package billing

import (
	"context"

	"github.com/google/uuid"
)

// JobEnqueuer queues asynchronous side effects of invoice transitions. The
// jobs are persisted; one obtained from TransactionalRepositories commits or
// rolls back with the transition that queued it.
type JobEnqueuer interface {
	EnqueueDocumentGeneration(ctx context.Context, tenantID, invoiceID uuid.UUID) error
	EnqueueEInvoiceSubmission(ctx context.Context, tenantID, invoiceID uuid.UUID) error
}
