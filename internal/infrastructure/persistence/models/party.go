package models

import (
	"time"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CompanyModel is the persistence model for the issuing company (tenant).
type CompanyModel struct {
	BaseModel
	Name             string `gorm:"type:varchar(200);not null"`
	CIF              string `gorm:"column:cif;type:varchar(20);not null"`
	RegCom           string `gorm:"type:varchar(50)"`
	Address          string `gorm:"type:varchar(500)"`
	City             string `gorm:"type:varchar(100)"`
	County           string `gorm:"type:varchar(100)"`
	IBAN             string `gorm:"column:iban;type:varchar(34)"`
	Bank             string `gorm:"type:varchar(100)"`
	InvoicePrefix    string `gorm:"type:varchar(10)"`
	EInvoiceCertPath string `gorm:"column:efactura_certificate_path;type:varchar(500)"`
	EInvoiceCertPass string `gorm:"column:efactura_certificate_password;type:varchar(200)"`
	EInvoiceTestMode bool   `gorm:"column:efactura_test_mode;not null;default:true"`
	EInvoiceCIF      string `gorm:"column:efactura_cif;type:varchar(20)"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company.
func (m *CompanyModel) ToDomain() *billing.Company {
	return &billing.Company{
		BaseEntity:    m.entity(),
		Name:          m.Name,
		CIF:           m.CIF,
		RegCom:        m.RegCom,
		Address:       m.Address,
		City:          m.City,
		County:        m.County,
		IBAN:          m.IBAN,
		Bank:          m.Bank,
		InvoicePrefix: m.InvoicePrefix,
		EInvoice: billing.EInvoiceSettings{
			CertificatePath:     m.EInvoiceCertPath,
			CertificatePassword: m.EInvoiceCertPass,
			TestMode:            m.EInvoiceTestMode,
			CIF:                 m.EInvoiceCIF,
		},
	}
}

// CompanyModelFromDomain creates a persistence model from a domain Company.
func CompanyModelFromDomain(c *billing.Company) *CompanyModel {
	m := &CompanyModel{
		Name:             c.Name,
		CIF:              c.CIF,
		RegCom:           c.RegCom,
		Address:          c.Address,
		City:             c.City,
		County:           c.County,
		IBAN:             c.IBAN,
		Bank:             c.Bank,
		InvoicePrefix:    c.InvoicePrefix,
		EInvoiceCertPath: c.EInvoice.CertificatePath,
		EInvoiceCertPass: c.EInvoice.CertificatePassword,
		EInvoiceTestMode: c.EInvoice.TestMode,
		EInvoiceCIF:      c.EInvoice.CIF,
	}
	m.setEntity(c.BaseEntity)
	return m
}

// ClientModel is the persistence model for the Client aggregate root.
type ClientModel struct {
	TenantAggregateModel
	Type      string         `gorm:"type:varchar(20);not null"`
	Name      string         `gorm:"type:varchar(200);not null"`
	CIF       string         `gorm:"column:cif;type:varchar(20);index"`
	CNP       string         `gorm:"column:cnp;type:varchar(13)"`
	RegCom    string         `gorm:"type:varchar(50)"`
	Address   string         `gorm:"type:varchar(500)"`
	City      string         `gorm:"type:varchar(100)"`
	County    string         `gorm:"type:varchar(100)"`
	Phone     string         `gorm:"type:varchar(30)"`
	Email     string         `gorm:"type:varchar(200)"`
	Notes     string         `gorm:"type:text"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client.
func (m *ClientModel) ToDomain() *billing.Client {
	return &billing.Client{
		TenantAggregateRoot: m.root(),
		Type:                billing.ClientType(m.Type),
		Name:                m.Name,
		CIF:                 m.CIF,
		CNP:                 m.CNP,
		RegCom:              m.RegCom,
		Address:             m.Address,
		City:                m.City,
		County:              m.County,
		Phone:               m.Phone,
		Email:               m.Email,
		Notes:               m.Notes,
	}
}

// ClientModelFromDomain creates a persistence model from a domain Client.
func ClientModelFromDomain(c *billing.Client) *ClientModel {
	m := &ClientModel{
		Type:    string(c.Type),
		Name:    c.Name,
		CIF:     c.CIF,
		CNP:     c.CNP,
		RegCom:  c.RegCom,
		Address: c.Address,
		City:    c.City,
		County:  c.County,
		Phone:   c.Phone,
		Email:   c.Email,
		Notes:   c.Notes,
	}
	m.setRoot(c.TenantAggregateRoot)
	return m
}

// ContractModel is the persistence model for the Contract aggregate root.
type ContractModel struct {
	TenantAggregateModel
	ClientID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type         string          `gorm:"type:varchar(20);not null"`
	Number       string          `gorm:"type:varchar(50);not null"`
	SignedDate   *time.Time      `gorm:"type:date"`
	StartDate    *time.Time      `gorm:"type:date"`
	EndDate      *time.Time      `gorm:"type:date"`
	Value        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	BillingCycle string          `gorm:"type:varchar(20);not null"`
	Status       string          `gorm:"type:varchar(20);not null"`
	Notes        string          `gorm:"type:text"`
	DeletedAt    gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract.
func (m *ContractModel) ToDomain() *billing.Contract {
	return &billing.Contract{
		TenantAggregateRoot: m.root(),
		ClientID:            m.ClientID,
		Type:                billing.ContractType(m.Type),
		Number:              m.Number,
		SignedDate:          m.SignedDate,
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		Value:               m.Value,
		Currency:            m.Currency,
		BillingCycle:        billing.BillingCycle(m.BillingCycle),
		Status:              billing.ContractStatus(m.Status),
		Notes:               m.Notes,
	}
}

// ContractModelFromDomain creates a persistence model from a domain Contract.
func ContractModelFromDomain(c *billing.Contract) *ContractModel {
	m := &ContractModel{
		ClientID:     c.ClientID,
		Type:         string(c.Type),
		Number:       c.Number,
		SignedDate:   c.SignedDate,
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		Value:        c.Value,
		Currency:     c.Currency,
		BillingCycle: string(c.BillingCycle),
		Status:       string(c.Status),
		Notes:        c.Notes,
	}
	m.setRoot(c.TenantAggregateRoot)
	return m
}

// VATRateModel is the persistence model for a VAT rate.
type VATRateModel struct {
	TenantAggregateModel
	Value       decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Label       string          `gorm:"type:varchar(50);not null"`
	Description string          `gorm:"type:varchar(200)"`
	IsDefault   bool            `gorm:"not null"`
	IsActive    bool            `gorm:"not null"`
	SortOrder   int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VATRateModel) TableName() string {
	return "vat_rates"
}

// ToDomain converts the persistence model to a domain VATRate.
func (m *VATRateModel) ToDomain() *billing.VATRate {
	return &billing.VATRate{
		TenantAggregateRoot: m.root(),
		Value:               m.Value,
		Label:               m.Label,
		Description:         m.Description,
		IsDefault:           m.IsDefault,
		IsActive:            m.IsActive,
		SortOrder:           m.SortOrder,
	}
}

// VATRateModelFromDomain creates a persistence model from a domain VATRate.
func VATRateModelFromDomain(r *billing.VATRate) *VATRateModel {
	m := &VATRateModel{
		Value:       r.Value,
		Label:       r.Label,
		Description: r.Description,
		IsDefault:   r.IsDefault,
		IsActive:    r.IsActive,
		SortOrder:   r.SortOrder,
	}
	m.setRoot(r.TenantAggregateRoot)
	return m
}
