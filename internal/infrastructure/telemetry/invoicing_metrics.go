package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrMeterNil is returned when metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// LowStockCounter counts products at or under their minimum, per tenant.
type LowStockCounter interface {
	CountLowStock(ctx context.Context) (map[uuid.UUID]int64, error)
}

// InvoicingMetrics counts invoice lifecycle events, e-invoice outcomes and
// low-stock products. It subscribes to the event bus for invoice events and
// is handed to the e-invoice services directly.
type InvoicingMetrics struct {
	transitions *Counter
	invoiced    *Histogram
	submissions *Counter
	statuses    *Counter
	logger      *zap.Logger
}

// InvoicingMetricsConfig configures NewInvoicingMetrics
type InvoicingMetricsConfig struct {
	Meter    metric.Meter
	Logger   *zap.Logger
	LowStock LowStockCounter // optional
}

// NewInvoicingMetrics creates the instruments on cfg.Meter
func NewInvoicingMetrics(cfg InvoicingMetricsConfig) (*InvoicingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	m := &InvoicingMetrics{logger: cfg.Logger}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	var err error
	if m.transitions, err = NewCounter(cfg.Meter, "invoicing_invoice_events_total",
		"Invoice lifecycle events by type", "{events}"); err != nil {
		return nil, err
	}
	if m.invoiced, err = NewHistogram(cfg.Meter, "invoicing_invoice_sent_amount",
		"Grand total of finalized invoices", "{currency}",
		50, 100, 500, 1000, 5000, 10000, 50000); err != nil {
		return nil, err
	}
	if m.submissions, err = NewCounter(cfg.Meter, "invoicing_einvoice_submissions_total",
		"E-invoice uploads by outcome", "{submissions}"); err != nil {
		return nil, err
	}
	if m.statuses, err = NewCounter(cfg.Meter, "invoicing_einvoice_status_total",
		"E-invoice status poll results", "{polls}"); err != nil {
		return nil, err
	}

	if cfg.LowStock != nil {
		if err := m.observeLowStock(cfg.Meter, cfg.LowStock); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *InvoicingMetrics) observeLowStock(meter metric.Meter, counter LowStockCounter) error {
	_, err := meter.Int64ObservableGauge("invoicing_low_stock_products",
		metric.WithDescription("Active products at or below their stock minimum"),
		metric.WithUnit("{products}"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			counts, err := counter.CountLowStock(ctx)
			if err != nil {
				m.logger.Warn("low stock collection failed", zap.Error(err))
				return nil
			}
			for tenantID, n := range counts {
				o.Observe(n, metric.WithAttributes(attribute.String("tenant_id", tenantID.String())))
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("create low stock gauge: %w", err)
	}
	return nil
}

// Handle records an invoice domain event
func (m *InvoicingMetrics) Handle(ctx context.Context, evt shared.DomainEvent) error {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", evt.EventType()),
		attribute.String("tenant_id", evt.TenantID().String()),
	}
	m.transitions.Inc(ctx, attrs...)

	if sent, ok := evt.(*billing.InvoiceSentEvent); ok {
		m.invoiced.Record(ctx, sent.Total.InexactFloat64(), attribute.String("currency", sent.Currency))
	}
	return nil
}

// EventTypes lists the invoice events counted
func (m *InvoicingMetrics) EventTypes() []string {
	return []string{
		billing.EventTypeInvoiceCreated,
		billing.EventTypeInvoiceSent,
		billing.EventTypeInvoicePaid,
		billing.EventTypeInvoiceCancelled,
	}
}

// RecordSubmission counts an upload attempt
func (m *InvoicingMetrics) RecordSubmission(ctx context.Context, success bool) {
	outcome := "failed"
	if success {
		outcome = "submitted"
	}
	m.submissions.Inc(ctx, attribute.String("outcome", outcome))
}

// RecordStatus counts a poll result
func (m *InvoicingMetrics) RecordStatus(ctx context.Context, status billing.EInvoiceStatus) {
	m.statuses.Inc(ctx, attribute.String("status", string(status)))
}

var _ shared.EventHandler = (*InvoicingMetrics)(nil)

// GormLowStockCounter counts low-stock products straight from the products table.
type GormLowStockCounter struct {
	db *gorm.DB
}

// NewGormLowStockCounter creates a new GormLowStockCounter
func NewGormLowStockCounter(db *gorm.DB) *GormLowStockCounter {
	return &GormLowStockCounter{db: db}
}

// CountLowStock returns the number of low-stock products for every tenant that has any
func (c *GormLowStockCounter) CountLowStock(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		TenantID uuid.UUID
		Count    int64
	}
	err := c.db.WithContext(ctx).
		Table("products").
		Select("tenant_id, COUNT(*) AS count").
		Where("deleted_at IS NULL AND is_active = ? AND stock_quantity <= stock_minimum", true).
		Group("tenant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count low stock products: %w", err)
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		out[r.TenantID] = r.Count
	}
	return out, nil
}
