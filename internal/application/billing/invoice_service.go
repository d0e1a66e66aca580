package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/inventory"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService handles invoice editing and lifecycle transitions.
type InvoiceService struct {
	invoiceRepo    billing.InvoiceRepository
	vatRateRepo    billing.VATRateRepository
	companyRepo    billing.CompanyRepository
	clientRepo     billing.ClientRepository
	contractRepo   billing.ContractRepository
	txScope        TransactionScope
	jobs           JobEnqueuer
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	vatRateRepo billing.VATRateRepository,
	companyRepo billing.CompanyRepository,
	clientRepo billing.ClientRepository,
	contractRepo billing.ContractRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		vatRateRepo:  vatRateRepo,
		companyRepo:  companyRepo,
		clientRepo:   clientRepo,
		contractRepo: contractRepo,
		txScope:      txScope,
		logger:       logger,
		now:          time.Now,
	}
}

// SetJobEnqueuer sets the queue for document generation
func (s *InvoiceService) SetJobEnqueuer(jobs JobEnqueuer) {
	s.jobs = jobs
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes and clears the invoice's pending events
func (s *InvoiceService) publishDomainEvents(ctx context.Context, inv *billing.Invoice) {
	if s.eventPublisher == nil {
		return
	}
	events := inv.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
	inv.ClearDomainEvents()
}

func (s *InvoiceService) respond(inv *billing.Invoice) *InvoiceResponse {
	resp := ToInvoiceResponse(inv, s.now())
	return &resp
}

// Create creates a draft invoice. The sequential number is allocated in the
// same transaction that first persists the invoice.
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	if _, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, req.ClientID); err != nil {
		return nil, err
	}

	docType := billing.DocumentTypeInvoice
	if req.Type != "" {
		docType = billing.DocumentType(req.Type)
	}
	issueDate := s.now()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	series := strings.TrimSpace(req.Series)
	if series == "" {
		company, err := s.companyRepo.FindByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		series = billing.DefaultSeries(company.InvoicePrefix, docType, issueDate)
	}

	inv, err := billing.NewInvoice(tenantID, req.ClientID, docType, series, issueDate)
	if err != nil {
		return nil, err
	}
	if req.ContractID != nil {
		if err := inv.SetContract(*req.ContractID); err != nil {
			return nil, err
		}
	}

	header := UpdateInvoiceRequest{DueDate: req.DueDate, DeliveryDate: req.DeliveryDate}
	if req.Currency != "" {
		header.Currency = &req.Currency
	}
	if req.PaymentMethod != "" {
		header.PaymentMethod = &req.PaymentMethod
	}
	if req.Notes != "" {
		header.Notes = &req.Notes
	}
	if err := applyHeader(inv, header); err != nil {
		return nil, err
	}

	if err := s.replaceLines(ctx, inv, req.Lines); err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := assignNumber(ctx, repos.SequenceAllocator(), inv); err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, inv)
	return s.respond(inv), nil
}

// CreateFromContract creates a draft invoice billing the contract's value
// to its client at the tenant's default VAT rate.
func (s *InvoiceService) CreateFromContract(ctx context.Context, tenantID, contractID uuid.UUID) (*InvoiceResponse, error) {
	contract, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	rate, err := s.defaultRate(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return s.Create(ctx, tenantID, CreateInvoiceRequest{
		ClientID:   contract.ClientID,
		ContractID: &contract.ID,
		Currency:   contract.Currency,
		Lines: []LineRequest{{
			Description: contract.InvoiceLineDescription(s.now()),
			Quantity:    decimal.NewFromInt(1),
			Unit:        contract.UnitLabel(),
			UnitPrice:   contract.Value,
			VATRateID:   &rate.ID,
		}},
	})
}

// Get retrieves an invoice with its lines
func (s *InvoiceService) Get(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.respond(inv), nil
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := billing.InvoiceFilter{Filter: shared.DefaultFilter()}
	if filter.ClientID != "" {
		clientID, err := uuid.Parse(filter.ClientID)
		if err != nil {
			return nil, 0, shared.NewDomainError("INVALID_CLIENT_ID", "Client ID must be a UUID")
		}
		domainFilter.ClientID = &clientID
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		status := billing.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown invoice status %q", filter.Status))
		}
		domainFilter.Status = &status
	}
	if filter.Type != "" {
		docType := billing.DocumentType(filter.Type)
		if !docType.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_DOCUMENT_TYPE", fmt.Sprintf("Unknown document type %q", filter.Type))
		}
		domainFilter.Type = &docType
	}
	domainFilter.Series = strings.TrimSpace(filter.Series)
	var err error
	if domainFilter.IssuedFrom, err = parseDay(filter.From); err != nil {
		return nil, 0, err
	}
	if domainFilter.IssuedTo, err = parseDay(filter.To); err != nil {
		return nil, 0, err
	}

	invoices, total, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i], now)
	}
	return out, total, nil
}

// Update changes header fields of a draft
func (s *InvoiceService) Update(ctx context.Context, tenantID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.IsDraft() {
		return nil, shared.NewDomainError("INVALID_STATE", "Only draft invoices can be edited")
	}
	if err := applyHeader(inv, req); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	return s.respond(inv), nil
}

// UpdateLines replaces the line collection of a draft and recalculates
// every line and the invoice totals before anything is persisted.
func (s *InvoiceService) UpdateLines(ctx context.Context, tenantID, invoiceID uuid.UUID, req UpdateLinesRequest) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := s.replaceLines(ctx, inv, req.Lines); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	return s.respond(inv), nil
}

// Delete soft-deletes a draft. Its number stays consumed.
func (s *InvoiceService) Delete(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	if !inv.IsDraft() {
		return shared.NewDomainError("INVALID_STATE", "Only draft invoices can be deleted; cancel it instead")
	}
	return s.invoiceRepo.SoftDelete(ctx, tenantID, invoiceID)
}

// EnsureNumber assigns a number to an invoice that has none. Running it on a
// numbered invoice changes nothing and allocates nothing.
func (s *InvoiceService) EnsureNumber(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	var inv *billing.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.InvoiceRepo().FindByIDForTenant(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if !inv.NeedsNumber() {
			return nil
		}
		if err := assignNumber(ctx, repos.SequenceAllocator(), inv); err != nil {
			return err
		}
		return repos.InvoiceRepo().SaveWithLock(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return s.respond(inv), nil
}

// Send finalizes a draft. Stock exits and the document generation job are
// written in the same transaction as the status change, so a sent invoice
// always has its document job queued.
func (s *InvoiceService) Send(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	var inv *billing.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.InvoiceRepo().FindByIDForTenant(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if inv.IsDraft() {
			if _, err := s.recalculate(ctx, repos.VATRateRepo(), inv); err != nil {
				return err
			}
		}
		if err := assignNumber(ctx, repos.SequenceAllocator(), inv); err != nil {
			return err
		}
		if err := inv.Send(); err != nil {
			return err
		}
		if err := recordStockExits(ctx, repos.MovementStore(), inv); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return err
		}
		if err := repos.Jobs().EnqueueDocumentGeneration(ctx, inv.TenantID, inv.ID); err != nil {
			return fmt.Errorf("queue document generation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, inv)
	return s.respond(inv), nil
}

// MarkPaid settles a sent invoice. An explicit payment date must fall
// between the issue date and now.
func (s *InvoiceService) MarkPaid(ctx context.Context, tenantID, invoiceID uuid.UUID, req MarkPaidRequest) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	paidAt := now
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
		switch {
		case paidAt.Before(inv.IssueDate):
			return nil, shared.NewDomainError("INVALID_PAID_AT", "Payment date cannot be before the issue date")
		case paidAt.After(now):
			return nil, shared.NewDomainError("INVALID_PAID_AT", "Payment date cannot be in the future")
		}
	}
	if err := inv.MarkPaid(paidAt); err != nil {
		return nil, err
	}
	if req.PaymentReference != "" {
		inv.SetPaymentReference(req.PaymentReference)
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, inv)
	return s.respond(inv), nil
}

// Cancel voids an invoice. Stock exits are reversed only when requested and
// only for invoices that were sent, in the same transaction as the status change.
func (s *InvoiceService) Cancel(ctx context.Context, tenantID, invoiceID uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	var inv *billing.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.InvoiceRepo().FindByIDForTenant(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		previous, err := inv.Cancel()
		if err != nil {
			return err
		}
		if req.RestoreStock && previous != billing.InvoiceStatusDraft {
			exits, err := repos.MovementRepo().FindByInvoice(ctx, tenantID, inv.ID)
			if err != nil {
				return err
			}
			ledger := inventory.NewLedger(repos.MovementStore())
			if _, err := ledger.ReverseInvoiceExits(ctx, tenantID, inv.ID, inv.FullNumber, exits); err != nil {
				return err
			}
		}
		return repos.InvoiceRepo().SaveWithLock(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, inv)
	return s.respond(inv), nil
}

// RegenerateDocument queues document generation again
func (s *InvoiceService) RegenerateDocument(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	if inv.NeedsNumber() {
		return shared.NewDomainError("NUMBER_NOT_ASSIGNED", "Invoice must have a number before a document is generated")
	}
	if s.jobs == nil {
		return shared.NewDomainError("JOBS_UNAVAILABLE", "Background jobs are not configured")
	}
	return s.jobs.EnqueueDocumentGeneration(ctx, tenantID, invoiceID)
}

// replaceLines builds lines from requests, swaps them into the invoice and
// recalculates. Every line must resolve to a known VAT rate.
func (s *InvoiceService) replaceLines(ctx context.Context, inv *billing.Invoice, reqs []LineRequest) error {
	lines := make([]billing.InvoiceLine, 0, len(reqs))
	var fallback *billing.VATRate
	for _, r := range reqs {
		rateID := r.VATRateID
		if rateID == nil {
			if fallback == nil {
				rate, err := s.defaultRate(ctx, inv.TenantID)
				if err != nil {
					return err
				}
				fallback = rate
			}
			id := fallback.ID
			rateID = &id
		}
		line, err := billing.NewInvoiceLine(billing.LineDraft{
			ProductID:   r.ProductID,
			Description: r.Description,
			Quantity:    r.Quantity,
			Unit:        r.Unit,
			UnitPrice:   r.UnitPrice,
			VATRateID:   rateID,
		})
		if err != nil {
			return err
		}
		lines = append(lines, *line)
	}
	if err := inv.ReplaceLines(lines); err != nil {
		return err
	}

	result, err := s.recalculate(ctx, s.vatRateRepo, inv)
	if err != nil {
		return err
	}
	if result.HasAnomalies() {
		return shared.NewDomainError("VAT_RATE_NOT_FOUND",
			fmt.Sprintf("Unknown VAT rate on line %d", result.MissingVATRate[0]+1))
	}
	return nil
}

// recalculate resolves the lines' VAT rates and recomputes the invoice.
// Unresolvable rates are computed at 0% and logged for review.
func (s *InvoiceService) recalculate(ctx context.Context, vatRates billing.VATRateRepository, inv *billing.Invoice) (billing.CalculationResult, error) {
	ids := make([]uuid.UUID, 0, len(inv.Lines))
	seen := make(map[uuid.UUID]struct{}, len(inv.Lines))
	for _, l := range inv.Lines {
		if l.VATRateID == nil {
			continue
		}
		if _, ok := seen[*l.VATRateID]; ok {
			continue
		}
		seen[*l.VATRateID] = struct{}{}
		ids = append(ids, *l.VATRateID)
	}

	var rates []billing.VATRate
	if len(ids) > 0 {
		var err error
		rates, err = vatRates.FindByIDs(ctx, inv.TenantID, ids)
		if err != nil {
			return billing.CalculationResult{}, fmt.Errorf("load vat rates: %w", err)
		}
	}

	result := inv.Recalculate(billing.RateTable(rates))
	if result.HasAnomalies() {
		s.logger.Warn("vat rate missing on invoice line",
			zap.String("tenant_id", inv.TenantID.String()),
			zap.String("invoice_id", inv.ID.String()),
			zap.Ints("line_indexes", result.MissingVATRate),
		)
	}
	return result, nil
}

func (s *InvoiceService) defaultRate(ctx context.Context, tenantID uuid.UUID) (*billing.VATRate, error) {
	rate, err := s.vatRateRepo.FindDefault(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrVATRateRequired
		}
		return nil, err
	}
	return rate, nil
}

func assignNumber(ctx context.Context, allocator billing.SequenceAllocator, inv *billing.Invoice) error {
	if !inv.NeedsNumber() {
		return nil
	}
	number, err := allocator.NextNumber(ctx, inv.TenantID, inv.Series)
	if err != nil {
		return fmt.Errorf("allocate invoice number: %w", err)
	}
	return inv.AssignNumber(number)
}

func recordStockExits(ctx context.Context, store inventory.MovementStore, inv *billing.Invoice) error {
	stockLines := inv.StockLines()
	if len(stockLines) == 0 {
		return nil
	}
	exits := make([]inventory.ExitLine, len(stockLines))
	for i, l := range stockLines {
		exits[i] = inventory.ExitLine{
			ProductID: *l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	_, err := inventory.NewLedger(store).RecordExitForInvoice(ctx, inv.TenantID, inv.ID, inv.FullNumber, exits)
	return err
}

func applyHeader(inv *billing.Invoice, req UpdateInvoiceRequest) error {
	if req.DueDate != nil {
		if err := inv.SetDueDate(*req.DueDate); err != nil {
			return err
		}
	}
	if req.DeliveryDate != nil {
		if err := inv.SetDeliveryDate(*req.DeliveryDate); err != nil {
			return err
		}
	}
	if req.Currency != nil {
		if err := inv.SetCurrency(valueobject.Currency(strings.ToUpper(*req.Currency))); err != nil {
			return err
		}
	}
	if req.PaymentMethod != nil {
		if err := inv.SetPaymentMethod(billing.PaymentMethod(*req.PaymentMethod)); err != nil {
			return err
		}
	}
	if req.PaymentReference != nil {
		inv.SetPaymentReference(*req.PaymentReference)
	}
	if req.Notes != nil {
		inv.SetNotes(*req.Notes)
	}
	return nil
}

// parseDay reads an optional YYYY-MM-DD bound
func parseDay(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DATE", fmt.Sprintf("Date %q must be YYYY-MM-DD", value))
	}
	return &day, nil
}
