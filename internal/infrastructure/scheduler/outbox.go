package scheduler

import (
	"context"
	"time"

	appbilling "github.com/erp/invoicing/internal/application/billing"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobStatus is the state of a persisted job
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusDead    JobStatus = "dead"
)

// jobRecord is one row of invoice_jobs. Attempts counts the attempts made
// so far, including the one a running row is leased for.
type jobRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null"`
	InvoiceID  uuid.UUID `gorm:"type:uuid;not null"`
	Type       JobType   `gorm:"column:job_type;type:varchar(32);not null"`
	Status     JobStatus `gorm:"type:varchar(16);not null"`
	Attempts   int       `gorm:"not null"`
	LastError  string    `gorm:"type:text;not null;default:''"`
	LeaseUntil *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (jobRecord) TableName() string {
	return "invoice_jobs"
}

// GormJobOutbox persists jobs in invoice_jobs. Bound to a transaction it
// queues work atomically with the invoice change that needs it.
type GormJobOutbox struct {
	db *gorm.DB
}

// NewGormJobOutbox creates a new GormJobOutbox
func NewGormJobOutbox(db *gorm.DB) *GormJobOutbox {
	return &GormJobOutbox{db: db}
}

// WithTx returns an outbox writing through tx
func (o *GormJobOutbox) WithTx(tx *gorm.DB) *GormJobOutbox {
	return &GormJobOutbox{db: tx}
}

// EnqueueDocumentGeneration records a document job
func (o *GormJobOutbox) EnqueueDocumentGeneration(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return o.add(ctx, JobTypeGenerateDocument, tenantID, invoiceID)
}

// EnqueueEInvoiceSubmission records a submission job
func (o *GormJobOutbox) EnqueueEInvoiceSubmission(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return o.add(ctx, JobTypeSubmitEInvoice, tenantID, invoiceID)
}

func (o *GormJobOutbox) add(ctx context.Context, jobType JobType, tenantID, invoiceID uuid.UUID) error {
	return o.db.WithContext(ctx).Create(&jobRecord{
		ID:        uuid.New(),
		TenantID:  tenantID,
		InvoiceID: invoiceID,
		Type:      jobType,
		Status:    JobStatusPending,
	}).Error
}

// Claim leases up to limit due jobs: pending ones, and running ones whose
// lease ran out because the process holding them stopped. Each claim counts
// as an attempt.
func (o *GormJobOutbox) Claim(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*Job, error) {
	var records []jobRecord
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? OR (status = ? AND lease_until < ?)", JobStatusPending, JobStatusRunning, now).
			Order("created_at ASC").
			Limit(limit).
			Find(&records).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(records))
		for i := range records {
			ids[i] = records[i].ID
		}
		return tx.Model(&jobRecord{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":      JobStatusRunning,
				"attempts":    gorm.Expr("attempts + 1"),
				"lease_until": now.Add(lease),
				"updated_at":  now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, len(records))
	for i, r := range records {
		jobs[i] = &Job{
			ID:        r.ID,
			Type:      r.Type,
			TenantID:  r.TenantID,
			InvoiceID: r.InvoiceID,
			Attempt:   r.Attempts + 1,
			LastError: r.LastError,
		}
	}
	return jobs, nil
}

// Release hands a claimed job back without counting the attempt
func (o *GormJobOutbox) Release(ctx context.Context, id uuid.UUID) error {
	return o.db.WithContext(ctx).Model(&jobRecord{}).
		Where("id = ? AND status = ?", id, JobStatusRunning).
		Updates(map[string]any{
			"status":      JobStatusPending,
			"attempts":    gorm.Expr("attempts - 1"),
			"lease_until": nil,
			"updated_at":  time.Now(),
		}).Error
}

// Complete marks a job done
func (o *GormJobOutbox) Complete(ctx context.Context, job *Job) error {
	return o.settle(ctx, job, JobStatusDone)
}

// Bury marks a job that ran out of attempts
func (o *GormJobOutbox) Bury(ctx context.Context, job *Job) error {
	return o.settle(ctx, job, JobStatusDead)
}

func (o *GormJobOutbox) settle(ctx context.Context, job *Job, status JobStatus) error {
	return o.db.WithContext(ctx).Model(&jobRecord{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":      status,
			"attempts":    job.Attempt,
			"last_error":  job.LastError,
			"lease_until": nil,
			"updated_at":  time.Now(),
		}).Error
}

var _ appbilling.JobEnqueuer = (*GormJobOutbox)(nil)
