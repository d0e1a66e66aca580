//go:build integration

// Package integration runs the services against PostgreSQL started with
// testcontainers, with the embedded migrations applied.
package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/logger"
	"github.com/erp/invoicing/internal/infrastructure/migration"
	"github.com/erp/invoicing/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TestDB is a migrated database in a throwaway container
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewTestDB starts PostgreSQL, applies the schema and registers cleanup.
// Set TEST_DB_DEBUG to log every statement through the test logger.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("invoicing_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.NewGormLogger(zaptest.NewLogger(t), level),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "connect")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(16)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// the migrator shares sqlDB, so it is not closed here
	m, err := migration.NewEmbedded(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(), "apply migrations")

	return &TestDB{DB: db, t: t}
}

func (tdb *TestDB) insert(query string, args ...any) {
	tdb.t.Helper()
	require.NoError(tdb.t, tdb.DB.Exec(query, args...).Error)
}

// CreateCompany inserts an issuing company; its id is the tenant id
func (tdb *TestDB) CreateCompany(prefix string) uuid.UUID {
	id := uuid.New()
	tdb.insert(`INSERT INTO companies (id, name, cif, invoice_prefix) VALUES (?, ?, 'RO18547290', ?)`,
		id, prefix+" Servicii SRL", prefix)
	return id
}

// CreateClient inserts a company client of tenantID
func (tdb *TestDB) CreateClient(tenantID uuid.UUID) uuid.UUID {
	id := uuid.New()
	tdb.insert(`INSERT INTO clients (id, tenant_id, type, name, cif) VALUES (?, ?, 'company', ?, 'RO14399840')`,
		id, tenantID, "Client "+id.String()[:8])
	return id
}

// CreateVATRate inserts an active VAT rate of tenantID
func (tdb *TestDB) CreateVATRate(tenantID uuid.UUID, value string, isDefault bool) uuid.UUID {
	id := uuid.New()
	tdb.insert(`INSERT INTO vat_rates (id, tenant_id, value, label, is_default, is_active) VALUES (?, ?, ?, ?, ?, TRUE)`,
		id, tenantID, value, value+"%", isDefault)
	return id
}

// CreateProduct inserts a product priced 100 with no stock and no movements
func (tdb *TestDB) CreateProduct(tenantID uuid.UUID, minimum string) uuid.UUID {
	id := uuid.New()
	code := "P-" + id.String()[:8]
	tdb.insert(`INSERT INTO products (id, tenant_id, code, name, unit, unit_price, stock_minimum) VALUES (?, ?, ?, ?, 'buc', 100, ?)`,
		id, tenantID, code, "Product "+code, minimum)
	return id
}
