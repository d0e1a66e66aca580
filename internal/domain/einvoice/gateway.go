// Package einvoice holds the ports to the national e-invoicing service.
package einvoice

import (
	"context"

	"github.com/erp/invoicing/internal/domain/billing"
)

// Credentials identify a tenant at the e-invoicing service.
type Credentials struct {
	// CertificatePath locates a PKCS#12 bundle with the client key pair.
	CertificatePath     string
	CertificatePassword string
	// CIF is the tenant's fiscal code, without country prefix.
	CIF      string
	TestMode bool
}

// CredentialsFor extracts a company's credentials. It returns an error when
// the company has not configured e-invoicing.
func CredentialsFor(company *billing.Company) (Credentials, error) {
	if company == nil || !company.EInvoice.Enabled() {
		return Credentials{}, ErrNotConfigured
	}
	cif := company.EInvoice.CIF
	if cif == "" {
		cif = company.CIF
	}
	return Credentials{
		CertificatePath:     company.EInvoice.CertificatePath,
		CertificatePassword: company.EInvoice.CertificatePassword,
		CIF:                 billing.NormalizeCIF(cif),
		TestMode:            company.EInvoice.TestMode,
	}, nil
}

// Gateway submits invoices and reports their processing outcome.
type Gateway interface {
	// Submit uploads the invoice and returns the opaque submission id.
	// Transport and authentication failures are returned as errors.
	Submit(ctx context.Context, invoice *billing.ResolvedInvoice, creds Credentials) (string, error)

	// PollStatus returns one of accepted, rejected, in_progress or unknown.
	PollStatus(ctx context.Context, submissionID string, creds Credentials) (billing.EInvoiceStatus, error)
}

// TaxpayerInfo is the normalised public record of a fiscal code.
type TaxpayerInfo struct {
	CIF           string `json:"cif"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	RegCom        string `json:"reg_com"`
	Phone         string `json:"phone"`
	City          string `json:"city"`
	County        string `json:"county"`
	VATRegistered bool   `json:"vat_registered"`
	Inactive      bool   `json:"inactive"`
}

// TaxpayerLookup resolves fiscal codes against the public registry.
// A nil result with a nil error means the code is unknown.
type TaxpayerLookup interface {
	Lookup(ctx context.Context, cif string) (*TaxpayerInfo, error)
}
