package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&jobRecord{}))
	return db
}

func loadRecord(t *testing.T, db *gorm.DB, id uuid.UUID) jobRecord {
	t.Helper()
	var rec jobRecord
	require.NoError(t, db.First(&rec, "id = ?", id).Error)
	return rec
}

func TestGormJobOutbox_ClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	db := setupOutboxDB(t)
	outbox := NewGormJobOutbox(db)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	lease := 15 * time.Minute

	tenantID, invoiceID := uuid.New(), uuid.New()
	require.NoError(t, outbox.EnqueueEInvoiceSubmission(ctx, tenantID, invoiceID))

	jobs, err := outbox.Claim(ctx, now, lease, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Equal(t, JobTypeSubmitEInvoice, job.Type)
	assert.Equal(t, tenantID, job.TenantID)
	assert.Equal(t, invoiceID, job.InvoiceID)
	assert.Equal(t, 1, job.Attempt)

	rec := loadRecord(t, db, job.ID)
	assert.Equal(t, JobStatusRunning, rec.Status)
	assert.Equal(t, 1, rec.Attempts)

	t.Run("a leased job is not claimed twice", func(t *testing.T) {
		again, err := outbox.Claim(ctx, now.Add(time.Minute), lease, 10)
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("an expired lease is claimed as the next attempt", func(t *testing.T) {
		again, err := outbox.Claim(ctx, now.Add(lease+time.Minute), lease, 10)
		require.NoError(t, err)
		require.Len(t, again, 1)
		assert.Equal(t, job.ID, again[0].ID)
		assert.Equal(t, 2, again[0].Attempt)
	})

	t.Run("completed jobs leave the queue", func(t *testing.T) {
		job.Attempt = 2
		require.NoError(t, outbox.Complete(ctx, job))

		rec := loadRecord(t, db, job.ID)
		assert.Equal(t, JobStatusDone, rec.Status)
		assert.Nil(t, rec.LeaseUntil)

		again, err := outbox.Claim(ctx, now.Add(24*time.Hour), lease, 10)
		require.NoError(t, err)
		assert.Empty(t, again)
	})
}

func TestGormJobOutbox_ReleaseDoesNotCountAttempt(t *testing.T) {
	ctx := context.Background()
	db := setupOutboxDB(t)
	outbox := NewGormJobOutbox(db)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, outbox.EnqueueDocumentGeneration(ctx, uuid.New(), uuid.New()))

	jobs, err := outbox.Claim(ctx, now, time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NoError(t, outbox.Release(ctx, jobs[0].ID))

	rec := loadRecord(t, db, jobs[0].ID)
	assert.Equal(t, JobStatusPending, rec.Status)
	assert.Equal(t, 0, rec.Attempts)

	jobs, err = outbox.Claim(ctx, now, time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 1, jobs[0].Attempt)
}

func TestGormJobOutbox_BuryKeepsLastError(t *testing.T) {
	ctx := context.Background()
	db := setupOutboxDB(t)
	outbox := NewGormJobOutbox(db)

	require.NoError(t, outbox.EnqueueEInvoiceSubmission(ctx, uuid.New(), uuid.New()))
	jobs, err := outbox.Claim(ctx, time.Now().UTC(), time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	job.Attempt = 3
	job.LastError = "gateway unavailable"
	require.NoError(t, outbox.Bury(ctx, job))

	rec := loadRecord(t, db, job.ID)
	assert.Equal(t, JobStatusDead, rec.Status)
	assert.Equal(t, 3, rec.Attempts)
	assert.Equal(t, "gateway unavailable", rec.LastError)
}

func TestGormJobOutbox_WithTxRollsBackWithTransaction(t *testing.T) {
	ctx := context.Background()
	db := setupOutboxDB(t)
	outbox := NewGormJobOutbox(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, outbox.WithTx(tx).EnqueueDocumentGeneration(ctx, uuid.New(), uuid.New()))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int64
	require.NoError(t, db.Model(&jobRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormJobOutbox_ClaimSkipsLockedRows(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "invoice_jobs" WHERE .* ORDER BY created_at ASC LIMIT \$\d+ FOR UPDATE SKIP LOCKED`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "invoice_id", "job_type", "status", "attempts"}).
			AddRow(id.String(), uuid.NewString(), uuid.NewString(), string(JobTypeGenerateDocument), string(JobStatusPending), 0))
	mock.ExpectExec(`UPDATE "invoice_jobs" SET .*attempts \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	jobs, err := NewGormJobOutbox(db).Claim(context.Background(), time.Now(), time.Minute, 5)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, id, jobs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
