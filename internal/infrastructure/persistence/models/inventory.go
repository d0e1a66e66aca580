package models

import (
	"time"

	"github.com/erp/invoicing/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	TenantAggregateModel
	Code          string          `gorm:"type:varchar(50);index"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	Unit          string          `gorm:"type:varchar(20);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VATRateID     *uuid.UUID      `gorm:"column:vat_rate_id;type:uuid"`
	StockQuantity decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	StockMinimum  decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	IsActive      bool            `gorm:"not null"`
	DeletedAt     gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *inventory.Product {
	return &inventory.Product{
		TenantAggregateRoot: m.root(),
		Code:                m.Code,
		Name:                m.Name,
		Description:         m.Description,
		Unit:                m.Unit,
		UnitPrice:           m.UnitPrice,
		VATRateID:           m.VATRateID,
		StockQuantity:       m.StockQuantity,
		StockMinimum:        m.StockMinimum,
		IsActive:            m.IsActive,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product.
func ProductModelFromDomain(p *inventory.Product) *ProductModel {
	m := &ProductModel{
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		Unit:          p.Unit,
		UnitPrice:     p.UnitPrice,
		VATRateID:     p.VATRateID,
		StockQuantity: p.StockQuantity,
		StockMinimum:  p.StockMinimum,
		IsActive:      p.IsActive,
	}
	m.setRoot(p.TenantAggregateRoot)
	return m
}

// StockMovementModel is the persistence model for an append-only ledger row.
// It has no UpdatedAt: movements are never modified.
type StockMovementModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID *uuid.UUID      `gorm:"type:uuid;index"`
	Type      string          `gorm:"type:varchar(20);not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes     string          `gorm:"type:varchar(500)"`
	CreatedAt time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() inventory.StockMovement {
	return inventory.StockMovement{
		ID:        m.ID,
		TenantID:  m.TenantID,
		ProductID: m.ProductID,
		InvoiceID: m.InvoiceID,
		Type:      inventory.MovementType(m.Type),
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement.
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:        mv.ID,
		TenantID:  mv.TenantID,
		ProductID: mv.ProductID,
		InvoiceID: mv.InvoiceID,
		Type:      string(mv.Type),
		Quantity:  mv.Quantity,
		UnitPrice: mv.UnitPrice,
		Notes:     mv.Notes,
		CreatedAt: mv.CreatedAt,
	}
}
