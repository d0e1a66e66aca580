package efactura

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/einvoice"
	infraconfig "github.com/erp/invoicing/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	maxErrorBody = 512
	// Upload and status replies are small JSON documents.
	maxResponseBody = 1 << 20
)

var (
	// ErrUnavailable wraps transport failures and 5xx answers
	ErrUnavailable = errors.New("efactura: service unavailable")
	// ErrRejected wraps 4xx answers
	ErrRejected = errors.New("efactura: request rejected")
)

// Client talks to the e-invoicing REST API
type Client struct {
	productionURL string
	testURL       string
	clients       ClientProvider
	logger        *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithClientProvider replaces certificate-based transport selection
func WithClientProvider(p ClientProvider) Option {
	return func(c *Client) {
		c.clients = p
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a gateway client from configuration
func NewClient(cfg infraconfig.EInvoiceConfig, opts ...Option) *Client {
	c := &Client{
		productionURL: strings.TrimRight(cfg.ProductionURL, "/"),
		testURL:       strings.TrimRight(cfg.TestURL, "/"),
		logger:        zap.NewNop(),
	}
	c.clients = newCertificateClients(cfg.CertificateDir, cfg.RequestTimeout).Client
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) baseURL(creds einvoice.Credentials) string {
	if creds.TestMode {
		return c.testURL
	}
	return c.productionURL
}

// Submit uploads the invoice as UBL and returns the upload index
func (c *Client) Submit(ctx context.Context, resolved *billing.ResolvedInvoice, creds einvoice.Credentials) (string, error) {
	if creds.CIF == "" {
		return "", einvoice.ErrNotConfigured
	}
	payload, err := BuildUBL(resolved)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("standard", "UBL")
	q.Set("cif", creds.CIF)
	body, err := c.do(ctx, creds, http.MethodPost, "/upload?"+q.Encode(), payload, "application/xml")
	if errors.Is(err, ErrRejected) {
		return "", fmt.Errorf("%w: %w", einvoice.ErrSubmissionFailed, err)
	}
	if err != nil {
		return "", err
	}

	var resp uploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: unreadable upload response: %v", einvoice.ErrSubmissionFailed, err)
	}
	if resp.IndexIncarcare == "" {
		msg := snippet(body)
		if len(resp.Errors) > 0 {
			msg = resp.Errors[0].Message
		}
		return "", fmt.Errorf("%w: %s", einvoice.ErrSubmissionFailed, msg)
	}
	c.logger.Info("E-invoice uploaded",
		zap.String("invoice", resolved.Invoice.FullNumber),
		zap.String("upload_id", string(resp.IndexIncarcare)),
		zap.Bool("test_mode", creds.TestMode),
	)
	return string(resp.IndexIncarcare), nil
}

// PollStatus asks for the processing state of an upload
func (c *Client) PollStatus(ctx context.Context, submissionID string, creds einvoice.Credentials) (billing.EInvoiceStatus, error) {
	q := url.Values{}
	q.Set("id_incarcare", submissionID)
	body, err := c.do(ctx, creds, http.MethodGet, "/stareMesaj?"+q.Encode(), nil, "")
	if err != nil {
		return billing.EInvoiceStatusUnknown, err
	}

	var resp statusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return billing.EInvoiceStatusUnknown, fmt.Errorf("efactura: unreadable status response: %w", err)
	}
	return mapStare(resp.Stare), nil
}

// do performs a request and returns the body of a 2xx answer
func (c *Client) do(ctx context.Context, creds einvoice.Credentials, method, path string, payload []byte, contentType string) ([]byte, error) {
	httpClient, err := c.clients(creds)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL(creds)+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("efactura: failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("efactura: failed to read response: %w", err)
	}
	if len(body) > maxResponseBody {
		return nil, fmt.Errorf("efactura: response larger than %d bytes", maxResponseBody)
	}
	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRejected, resp.StatusCode, snippet(body))
	}
	return body, nil
}

// snippet shortens a response body for an error message without splitting
// a UTF-8 sequence
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Ensure Client implements einvoice.Gateway
var _ einvoice.Gateway = (*Client)(nil)
