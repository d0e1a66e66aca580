package printing

import (
	"context"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var documentTitles = map[billing.DocumentType]string{
	billing.DocumentTypeInvoice:  "Factură",
	billing.DocumentTypeProforma: "Factură proformă",
	billing.DocumentTypeReceipt:  "Chitanță",
	billing.DocumentTypeWaybill:  "Aviz de însoțire a mărfii",
}

var paymentMethodLabels = map[billing.PaymentMethod]string{
	billing.PaymentMethodCash:         "numerar",
	billing.PaymentMethodBankTransfer: "ordin de plată",
	billing.PaymentMethodCard:         "card",
	billing.PaymentMethodOffset:       "compensare",
}

// InvoiceDocumentGenerator renders invoices to PDF and stores them
type InvoiceDocumentGenerator struct {
	renderer  PDFRenderer
	store     storage.DocumentStore
	engine    *TemplateEngine
	template  *template.Template
	paperSize PaperSize
	timeout   time.Duration
	logger    *zap.Logger
}

// GeneratorOption configures InvoiceDocumentGenerator
type GeneratorOption func(*InvoiceDocumentGenerator)

// WithPaperSize sets the output paper size
func WithPaperSize(p PaperSize) GeneratorOption {
	return func(g *InvoiceDocumentGenerator) {
		if p.IsValid() {
			g.paperSize = p
		}
	}
}

// WithRenderTimeout bounds a single render
func WithRenderTimeout(d time.Duration) GeneratorOption {
	return func(g *InvoiceDocumentGenerator) {
		g.timeout = d
	}
}

// WithGeneratorLogger sets the logger
func WithGeneratorLogger(logger *zap.Logger) GeneratorOption {
	return func(g *InvoiceDocumentGenerator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewInvoiceDocumentGenerator creates a generator using the built-in layout
func NewInvoiceDocumentGenerator(renderer PDFRenderer, store storage.DocumentStore, opts ...GeneratorOption) *InvoiceDocumentGenerator {
	engine := NewTemplateEngine()
	tmpl, err := engine.Parse("invoice", invoiceTemplate)
	if err != nil {
		// The layout is a compile-time constant.
		panic(err)
	}
	g := &InvoiceDocumentGenerator{
		renderer:  renderer,
		store:     store,
		engine:    engine,
		template:  tmpl,
		paperSize: PaperSizeA4,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders the invoice, stores the PDF and returns its locator
func (g *InvoiceDocumentGenerator) Generate(ctx context.Context, resolved *billing.ResolvedInvoice) (string, error) {
	if resolved == nil || resolved.Invoice == nil || resolved.Company == nil || resolved.Client == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "resolved invoice is incomplete", nil)
	}
	inv := resolved.Invoice
	view := buildInvoiceView(resolved)

	html, err := g.engine.Execute(g.template, view)
	if err != nil {
		return "", err
	}

	result, err := g.renderer.Render(ctx, &RenderRequest{
		HTML:      html,
		PaperSize: g.paperSize,
		Margins:   invoiceMargins,
		Title:     view.Title + " " + view.Number,
		Footer:    invoiceFooter,
		Timeout:   g.timeout,
	})
	if err != nil {
		return "", err
	}

	key := DocumentKey(inv)
	locator, err := g.store.Put(ctx, key, result.PDF, "application/pdf")
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to store document", err)
	}

	g.logger.Debug("Invoice document stored",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("key", key),
		zap.Int("pages", result.Pages),
	)
	return locator, nil
}

// DocumentKey is the storage key of an invoice's PDF:
// <tenant>/<year>/<full number or id>.pdf
func DocumentKey(inv *billing.Invoice) string {
	name := inv.FullNumber
	if name == "" {
		name = inv.ID.String()
	}
	name = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(name)
	return fmt.Sprintf("%s/%d/%s.pdf", inv.TenantID, inv.IssueDate.Year(), name)
}

type invoiceView struct {
	Title            string
	Number           string
	Cancelled        bool
	IssueDate        time.Time
	DueDate          *time.Time
	DeliveryDate     *time.Time
	Currency         string
	Company          *billing.Company
	Client           *billing.Client
	Lines            []lineView
	VAT              []vatGroup
	Subtotal         decimal.Decimal
	VATTotal         decimal.Decimal
	Total            decimal.Decimal
	PaymentMethod    string
	PaymentReference string
	Notes            string
}

type lineView struct {
	Index        int
	Description  string
	Unit         string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	LineTotal    decimal.Decimal
	VATLabel     string
	VATAmount    decimal.Decimal
	TotalWithVAT decimal.Decimal
}

// vatGroup is the VAT breakdown for one rate
type vatGroup struct {
	Percent decimal.Decimal
	Base    decimal.Decimal
	Amount  decimal.Decimal
}

func buildInvoiceView(resolved *billing.ResolvedInvoice) *invoiceView {
	inv := resolved.Invoice
	title, ok := documentTitles[inv.Type]
	if !ok {
		title = documentTitles[billing.DocumentTypeInvoice]
	}

	view := &invoiceView{
		Title:            title,
		Number:           inv.FullNumber,
		Cancelled:        inv.Status == billing.InvoiceStatusCancelled,
		IssueDate:        inv.IssueDate,
		DueDate:          inv.DueDate,
		DeliveryDate:     inv.DeliveryDate,
		Currency:         string(inv.Currency),
		Company:          resolved.Company,
		Client:           resolved.Client,
		Subtotal:         inv.Subtotal,
		VATTotal:         inv.VATTotal,
		Total:            inv.Total,
		PaymentMethod:    paymentMethodLabels[inv.PaymentMethod],
		PaymentReference: inv.PaymentReference,
		Notes:            inv.Notes,
	}

	groups := make(map[string]*vatGroup)
	for i, line := range resolved.Lines {
		view.Lines = append(view.Lines, lineView{
			Index:        i + 1,
			Description:  line.Description,
			Unit:         line.Unit,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			LineTotal:    line.LineTotal,
			VATLabel:     line.VATLabel,
			VATAmount:    line.VATAmount,
			TotalWithVAT: line.TotalWithVAT,
		})
		if line.VATRateID == nil {
			continue
		}
		k := line.VATPercent.String()
		g, ok := groups[k]
		if !ok {
			g = &vatGroup{Percent: line.VATPercent}
			groups[k] = g
		}
		g.Base = g.Base.Add(line.LineTotal)
		g.Amount = g.Amount.Add(line.VATAmount)
	}
	for _, g := range groups {
		view.VAT = append(view.VAT, *g)
	}
	sort.Slice(view.VAT, func(i, j int) bool {
		return view.VAT[i].Percent.GreaterThan(view.VAT[j].Percent)
	})
	return view
}

// Ensure InvoiceDocumentGenerator implements billing.DocumentGenerator
var _ billing.DocumentGenerator = (*InvoiceDocumentGenerator)(nil)
