package billing

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var nonDigits = regexp.MustCompile(`\D`)

// NormalizeCIF strips everything but digits from a fiscal code ("RO 123" -> "123").
func NormalizeCIF(cif string) string {
	return nonDigits.ReplaceAllString(cif, "")
}

// EInvoiceSettings are a company's credentials for the e-invoicing service.
type EInvoiceSettings struct {
	CertificatePath     string
	CertificatePassword string
	TestMode            bool
	CIF                 string
}

// Enabled reports whether the company can submit e-invoices.
func (s EInvoiceSettings) Enabled() bool {
	return s.CertificatePath != "" && s.CIF != ""
}

// Company is the issuing business. In this system a company is a tenant,
// so its ID doubles as the tenant id of everything it owns.
type Company struct {
	shared.BaseEntity
	Name          string
	CIF           string
	RegCom        string
	Address       string
	City          string
	County        string
	IBAN          string
	Bank          string
	InvoicePrefix string
	EInvoice      EInvoiceSettings
}

// TenantID returns the tenant the company represents.
func (c *Company) TenantID() uuid.UUID {
	return c.ID
}

// NewCompany creates a company.
func NewCompany(name, cif, invoicePrefix string) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Company name cannot be empty")
	}
	if NormalizeCIF(cif) == "" {
		return nil, shared.NewDomainError("INVALID_CIF", "Company fiscal code cannot be empty")
	}
	if len(invoicePrefix) > 10 {
		return nil, shared.NewDomainError("INVALID_PREFIX", "Invoice prefix cannot exceed 10 characters")
	}
	return &Company{
		BaseEntity:    shared.NewBaseEntity(),
		Name:          name,
		CIF:           cif,
		InvoicePrefix: invoicePrefix,
		EInvoice:      EInvoiceSettings{TestMode: true},
	}, nil
}

// ClientType distinguishes individuals from legal entities.
type ClientType string

const (
	ClientTypeIndividual ClientType = "individual"
	ClientTypeCompany    ClientType = "company"
)

// IsValid checks if the client type is known
func (t ClientType) IsValid() bool {
	return t == ClientTypeIndividual || t == ClientTypeCompany
}

// Client is the billed party.
type Client struct {
	shared.TenantAggregateRoot
	Type    ClientType
	Name    string
	CIF     string // legal entities
	CNP     string // individuals
	RegCom  string
	Address string
	City    string
	County  string
	Phone   string
	Email   string
	Notes   string
}

// NewClient creates a client.
func NewClient(tenantID uuid.UUID, clientType ClientType, name string) (*Client, error) {
	if !clientType.IsValid() {
		return nil, shared.NewDomainError("INVALID_CLIENT_TYPE", fmt.Sprintf("Unknown client type %q", clientType))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Client name cannot be empty")
	}
	return &Client{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Type:                clientType,
		Name:                name,
	}, nil
}

// BillingCycle is how often a contract is invoiced. It doubles as the unit
// label of the line generated from the contract.
type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleYearly    BillingCycle = "yearly"
	BillingCycleOneOff    BillingCycle = "one_off"
)

// ContractType is the line of business the contract covers.
type ContractType string

const (
	ContractTypePestControl ContractType = "pest_control"
	ContractTypeEvent       ContractType = "event"
)

// ContractStatus is the state of an agreement.
type ContractStatus string

const (
	ContractStatusActive     ContractStatus = "active"
	ContractStatusSuspended  ContractStatus = "suspended"
	ContractStatusExpired    ContractStatus = "expired"
	ContractStatusTerminated ContractStatus = "terminated"
)

// Contract is an agreement with a client that can spawn invoices.
type Contract struct {
	shared.TenantAggregateRoot
	ClientID     uuid.UUID
	Type         ContractType
	Number       string
	SignedDate   *time.Time
	StartDate    *time.Time
	EndDate      *time.Time
	Value        decimal.Decimal
	Currency     string
	BillingCycle BillingCycle
	Status       ContractStatus
	Notes        string
}

// NewContract creates an active monthly contract.
func NewContract(tenantID, clientID uuid.UUID, contractType ContractType, number string, value decimal.Decimal) (*Contract, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Contract number cannot be empty")
	}
	if value.IsNegative() {
		return nil, shared.NewDomainError("INVALID_VALUE", "Contract value cannot be negative")
	}
	return &Contract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ClientID:            clientID,
		Type:                contractType,
		Number:              number,
		Value:               value,
		Currency:            "RON",
		BillingCycle:        BillingCycleMonthly,
		Status:              ContractStatusActive,
	}, nil
}

// InvoiceLineDescription is the text of the line an invoice generated from
// this contract starts with.
func (c *Contract) InvoiceLineDescription(today time.Time) string {
	date := today
	if c.StartDate != nil {
		date = *c.StartDate
	}
	return fmt.Sprintf("Servicii conform contract nr. %s din %s", c.Number, date.Format("02.01.2006"))
}

// UnitLabel returns the billing cycle used as line unit.
func (c *Contract) UnitLabel() string {
	if c.BillingCycle == "" {
		return string(BillingCycleMonthly)
	}
	return string(c.BillingCycle)
}
