package efactura

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/einvoice"
	"go.uber.org/zap"
)

// TaxpayerClient queries the public VAT-payer registry. Registry failures
// are logged and reported as an unknown code.
type TaxpayerClient struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
	logger     *zap.Logger
}

// NewTaxpayerClient creates a registry client
func NewTaxpayerClient(url string, timeout time.Duration, logger *zap.Logger) *TaxpayerClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaxpayerClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
		logger:     logger,
	}
}

// Lookup returns the registry record for cif, or nil when unknown
func (c *TaxpayerClient) Lookup(ctx context.Context, cif string) (*einvoice.TaxpayerInfo, error) {
	cif = billing.NormalizeCIF(cif)
	if cif == "" {
		return nil, nil
	}
	cui, err := strconv.ParseInt(cif, 10, 64)
	if err != nil {
		return nil, nil
	}

	record, err := c.query(ctx, cui)
	if err != nil {
		c.logger.Warn("taxpayer lookup failed", zap.String("cif", cif), zap.Error(err))
		return nil, nil
	}
	if record == nil {
		return nil, nil
	}

	dg := record.DateGenerale
	return &einvoice.TaxpayerInfo{
		CIF:           cif,
		Name:          dg.Denumire,
		Address:       dg.Adresa,
		RegCom:        dg.NrRegCom,
		Phone:         dg.Telefon,
		City:          record.AdresaSediuSocial.Localitate,
		County:        record.AdresaSediuSocial.Judet,
		VATRegistered: record.InregistrareScopTVA.ScpTVA,
		Inactive:      record.StareInactiv.StatusInactivi,
	}, nil
}

func (c *TaxpayerClient) query(ctx context.Context, cui int64) (*lookupRecord, error) {
	payload, err := json.Marshal([]lookupRequest{{CUI: cui, Data: c.now().Format("2006-01-02")}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Found) == 0 {
		return nil, nil
	}
	return &body.Found[0], nil
}

// Ensure TaxpayerClient implements einvoice.TaxpayerLookup
var _ einvoice.TaxpayerLookup = (*TaxpayerClient)(nil)
