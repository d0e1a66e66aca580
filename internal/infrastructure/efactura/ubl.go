package efactura

import (
	"encoding/xml"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/shopspring/decimal"
)

const (
	ublNamespace    = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	cacNamespace    = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	cbcNamespace    = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	customizationID = "urn:cen.eu:en16931:2017#compliant#urn:efactura.mfinante.ro:CIUS-RO:1.0.1"

	invoiceTypeCommercial = "380"
)

// unitCodes maps the units used on lines to UN/ECE Recommendation 20 codes
var unitCodes = map[string]string{
	"buc":       "H87",
	"bucata":    "H87",
	"ora":       "HUR",
	"ore":       "HUR",
	"zi":        "DAY",
	"kg":        "KGM",
	"g":         "GRM",
	"l":         "LTR",
	"m":         "MTR",
	"mp":        "MTK",
	"km":        "KMT",
	"set":       "SET",
	"luna":      "MON",
	"monthly":   "MON",
	"quarterly": "QAN",
	"yearly":    "ANN",
	"one_off":   "C62",
	"serviciu":  "C62",
}

func unitCode(unit string) string {
	if code, ok := unitCodes[strings.ToLower(strings.TrimSpace(unit))]; ok {
		return code
	}
	return "C62"
}

type ublAmount struct {
	Currency string `xml:"currencyID,attr"`
	Value    string `xml:",chardata"`
}

type ublQuantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

type ublTaxScheme struct {
	ID string `xml:"cbc:ID"`
}

type ublTaxCategory struct {
	ID                 string       `xml:"cbc:ID"`
	Percent            string       `xml:"cbc:Percent"`
	TaxExemptionReason string       `xml:"cbc:TaxExemptionReason,omitempty"`
	TaxScheme          ublTaxScheme `xml:"cac:TaxScheme"`
}

type ublTaxSubtotal struct {
	TaxableAmount ublAmount      `xml:"cbc:TaxableAmount"`
	TaxAmount     ublAmount      `xml:"cbc:TaxAmount"`
	TaxCategory   ublTaxCategory `xml:"cac:TaxCategory"`
}

type ublTaxTotal struct {
	TaxAmount ublAmount        `xml:"cbc:TaxAmount"`
	Subtotals []ublTaxSubtotal `xml:"cac:TaxSubtotal"`
}

type ublCountry struct {
	IdentificationCode string `xml:"cbc:IdentificationCode"`
}

type ublAddress struct {
	StreetName       string     `xml:"cbc:StreetName,omitempty"`
	CityName         string     `xml:"cbc:CityName,omitempty"`
	CountrySubentity string     `xml:"cbc:CountrySubentity,omitempty"`
	Country          ublCountry `xml:"cac:Country"`
}

type ublPartyTaxScheme struct {
	CompanyID string       `xml:"cbc:CompanyID"`
	TaxScheme ublTaxScheme `xml:"cac:TaxScheme"`
}

type ublLegalEntity struct {
	RegistrationName string `xml:"cbc:RegistrationName"`
	CompanyID        string `xml:"cbc:CompanyID,omitempty"`
}

type ublPartyName struct {
	Name string `xml:"cbc:Name"`
}

type ublPartyDetail struct {
	PartyName        ublPartyName       `xml:"cac:PartyName"`
	PostalAddress    ublAddress         `xml:"cac:PostalAddress"`
	PartyTaxScheme   *ublPartyTaxScheme `xml:"cac:PartyTaxScheme,omitempty"`
	PartyLegalEntity ublLegalEntity     `xml:"cac:PartyLegalEntity"`
}

type ublParty struct {
	Party ublPartyDetail `xml:"cac:Party"`
}

type ublPayeeAccount struct {
	ID string `xml:"cbc:ID"`
}

type ublPaymentMeans struct {
	Code    string           `xml:"cbc:PaymentMeansCode"`
	Account *ublPayeeAccount `xml:"cac:PayeeFinancialAccount,omitempty"`
}

type ublMonetaryTotal struct {
	LineExtensionAmount ublAmount `xml:"cbc:LineExtensionAmount"`
	TaxExclusiveAmount  ublAmount `xml:"cbc:TaxExclusiveAmount"`
	TaxInclusiveAmount  ublAmount `xml:"cbc:TaxInclusiveAmount"`
	PayableAmount       ublAmount `xml:"cbc:PayableAmount"`
}

type ublItem struct {
	Name                  string         `xml:"cbc:Name"`
	ClassifiedTaxCategory ublTaxCategory `xml:"cac:ClassifiedTaxCategory"`
}

type ublPrice struct {
	PriceAmount ublAmount `xml:"cbc:PriceAmount"`
}

type ublLine struct {
	ID                  string      `xml:"cbc:ID"`
	InvoicedQuantity    ublQuantity `xml:"cbc:InvoicedQuantity"`
	LineExtensionAmount ublAmount   `xml:"cbc:LineExtensionAmount"`
	Item                ublItem     `xml:"cac:Item"`
	Price               ublPrice    `xml:"cac:Price"`
}

// ublInvoice is a UBL 2.1 Invoice restricted to what the CIUS-RO profile
// needs. Field order is element order.
type ublInvoice struct {
	XMLName              xml.Name         `xml:"Invoice"`
	Xmlns                string           `xml:"xmlns,attr"`
	XmlnsCac             string           `xml:"xmlns:cac,attr"`
	XmlnsCbc             string           `xml:"xmlns:cbc,attr"`
	CustomizationID      string           `xml:"cbc:CustomizationID"`
	ID                   string           `xml:"cbc:ID"`
	IssueDate            string           `xml:"cbc:IssueDate"`
	DueDate              string           `xml:"cbc:DueDate,omitempty"`
	InvoiceTypeCode      string           `xml:"cbc:InvoiceTypeCode"`
	Note                 string           `xml:"cbc:Note,omitempty"`
	DocumentCurrencyCode string           `xml:"cbc:DocumentCurrencyCode"`
	Supplier             ublParty         `xml:"cac:AccountingSupplierParty"`
	Customer             ublParty         `xml:"cac:AccountingCustomerParty"`
	PaymentMeans         *ublPaymentMeans `xml:"cac:PaymentMeans,omitempty"`
	TaxTotal             ublTaxTotal      `xml:"cac:TaxTotal"`
	LegalMonetaryTotal   ublMonetaryTotal `xml:"cac:LegalMonetaryTotal"`
	Lines                []ublLine        `xml:"cac:InvoiceLine"`
}

var paymentMeansCodes = map[billing.PaymentMethod]string{
	billing.PaymentMethodCash:         "10",
	billing.PaymentMethodBankTransfer: "42",
	billing.PaymentMethodCard:         "48",
	billing.PaymentMethodOffset:       "97",
}

func taxCategoryID(percent decimal.Decimal) string {
	if percent.IsPositive() {
		return "S"
	}
	return "E"
}

// BuildUBL renders a numbered invoice as UBL 2.1 XML
func BuildUBL(resolved *billing.ResolvedInvoice) ([]byte, error) {
	if resolved == nil || resolved.Invoice == nil || resolved.Company == nil || resolved.Client == nil {
		return nil, errors.New("efactura: resolved invoice is incomplete")
	}
	inv := resolved.Invoice
	if inv.FullNumber == "" {
		return nil, errors.New("efactura: invoice has no number")
	}
	if len(resolved.Lines) == 0 {
		return nil, errors.New("efactura: invoice has no lines")
	}

	currency := string(inv.Currency)
	if currency == "" {
		currency = "RON"
	}
	amount := func(d decimal.Decimal) ublAmount {
		return ublAmount{Currency: currency, Value: d.StringFixed(2)}
	}

	doc := ublInvoice{
		Xmlns:                ublNamespace,
		XmlnsCac:             cacNamespace,
		XmlnsCbc:             cbcNamespace,
		CustomizationID:      customizationID,
		ID:                   inv.FullNumber,
		IssueDate:            inv.IssueDate.Format("2006-01-02"),
		InvoiceTypeCode:      invoiceTypeCommercial,
		Note:                 inv.Notes,
		DocumentCurrencyCode: currency,
		Supplier:             supplierParty(resolved.Company),
		Customer:             customerParty(resolved.Client),
		LegalMonetaryTotal: ublMonetaryTotal{
			LineExtensionAmount: amount(inv.Subtotal),
			TaxExclusiveAmount:  amount(inv.Subtotal),
			TaxInclusiveAmount:  amount(inv.Total),
			PayableAmount:       amount(inv.Total),
		},
	}
	if inv.DueDate != nil {
		doc.DueDate = inv.DueDate.Format("2006-01-02")
	}
	if code, ok := paymentMeansCodes[inv.PaymentMethod]; ok {
		doc.PaymentMeans = &ublPaymentMeans{Code: code}
		if inv.PaymentMethod == billing.PaymentMethodBankTransfer && resolved.Company.IBAN != "" {
			doc.PaymentMeans.Account = &ublPayeeAccount{ID: resolved.Company.IBAN}
		}
	}

	type group struct {
		percent decimal.Decimal
		base    decimal.Decimal
		tax     decimal.Decimal
	}
	groups := make(map[string]*group)

	for i, line := range resolved.Lines {
		category := ublTaxCategory{
			ID:        taxCategoryID(line.VATPercent),
			Percent:   line.VATPercent.StringFixed(2),
			TaxScheme: ublTaxScheme{ID: "VAT"},
		}
		doc.Lines = append(doc.Lines, ublLine{
			ID:                  strconv.Itoa(i + 1),
			InvoicedQuantity:    ublQuantity{UnitCode: unitCode(line.Unit), Value: line.Quantity.StringFixed(3)},
			LineExtensionAmount: amount(line.LineTotal),
			Item:                ublItem{Name: line.Description, ClassifiedTaxCategory: category},
			Price:               ublPrice{PriceAmount: amount(line.UnitPrice)},
		})

		k := line.VATPercent.StringFixed(2)
		g, ok := groups[k]
		if !ok {
			g = &group{percent: line.VATPercent}
			groups[k] = g
		}
		g.base = g.base.Add(line.LineTotal)
		g.tax = g.tax.Add(line.VATAmount)
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].percent.GreaterThan(ordered[j].percent)
	})

	doc.TaxTotal.TaxAmount = amount(inv.VATTotal)
	for _, g := range ordered {
		sub := ublTaxSubtotal{
			TaxableAmount: amount(g.base),
			TaxAmount:     amount(g.tax),
			TaxCategory: ublTaxCategory{
				ID:        taxCategoryID(g.percent),
				Percent:   g.percent.StringFixed(2),
				TaxScheme: ublTaxScheme{ID: "VAT"},
			},
		}
		if !g.percent.IsPositive() {
			sub.TaxCategory.TaxExemptionReason = "Scutit"
		}
		doc.TaxTotal.Subtotals = append(doc.TaxTotal.Subtotals, sub)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func supplierParty(c *billing.Company) ublParty {
	cif := billing.NormalizeCIF(c.CIF)
	return ublParty{Party: ublPartyDetail{
		PartyName:      ublPartyName{Name: c.Name},
		PostalAddress:  address(c.Address, c.City, c.County),
		PartyTaxScheme: &ublPartyTaxScheme{CompanyID: "RO" + cif, TaxScheme: ublTaxScheme{ID: "VAT"}},
		PartyLegalEntity: ublLegalEntity{
			RegistrationName: c.Name,
			CompanyID:        c.RegCom,
		},
	}}
}

func customerParty(c *billing.Client) ublParty {
	party := ublPartyDetail{
		PartyName:        ublPartyName{Name: c.Name},
		PostalAddress:    address(c.Address, c.City, c.County),
		PartyLegalEntity: ublLegalEntity{RegistrationName: c.Name},
	}
	if cif := billing.NormalizeCIF(c.CIF); cif != "" {
		party.PartyTaxScheme = &ublPartyTaxScheme{CompanyID: "RO" + cif, TaxScheme: ublTaxScheme{ID: "VAT"}}
		party.PartyLegalEntity.CompanyID = cif
	} else if c.CNP != "" {
		party.PartyLegalEntity.CompanyID = c.CNP
	}
	return ublParty{Party: party}
}

func address(street, city, county string) ublAddress {
	return ublAddress{
		StreetName:       street,
		CityName:         city,
		CountrySubentity: county,
		Country:          ublCountry{IdentificationCode: "RO"},
	}
}
