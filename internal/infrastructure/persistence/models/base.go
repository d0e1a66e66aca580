// Package models contains the GORM persistence models. Domain types carry no
// ORM tags; each model converts to and from its aggregate with ToDomain and
// FromDomain.
package models

import (
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel maps the id and timestamp columns every table has.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m BaseModel) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) setEntity(e shared.BaseEntity) {
	m.ID, m.CreatedAt, m.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// TenantAggregateModel adds the owning tenant and the optimistic-lock
// version checked by the repositories on update.
type TenantAggregateModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Version  int       `gorm:"not null;default:1"`
}

func (m TenantAggregateModel) root() shared.TenantAggregateRoot {
	var root shared.TenantAggregateRoot
	root.BaseEntity = m.entity()
	root.Version = m.Version
	root.TenantID = m.TenantID
	return root
}

func (m *TenantAggregateModel) setRoot(r shared.TenantAggregateRoot) {
	m.setEntity(r.BaseEntity)
	m.TenantID = r.TenantID
	m.Version = r.Version
}
