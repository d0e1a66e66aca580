package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	billingapp "github.com/erp/invoicing/internal/application/billing"
	"github.com/erp/invoicing/internal/domain/einvoice"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/interfaces/http/dto"
	"github.com/erp/invoicing/internal/interfaces/http/handler"
	"github.com/erp/invoicing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestMount(t *testing.T) {
	engine := gin.New()
	tagged := func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	}
	engine.GET("/outside", func(c *gin.Context) { c.String(http.StatusOK, "outside") })

	group := NewDomainGroup("/test").
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") }).
		DELETE("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	mount(engine, []gin.HandlerFunc{tagged}, group)

	w := serve(engine, http.MethodGet, APIPrefix+"/test/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "yes", w.Header().Get("X-Api"))

	w = serve(engine, http.MethodDelete, APIPrefix+"/test/items/7", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(engine, http.MethodGet, "/outside", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Api"))

	w = serve(engine, http.MethodGet, "/test/ping", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainGroupMiddleware(t *testing.T) {
	engine := gin.New()
	var calls int
	g := NewDomainGroup("/guarded").
		Use(func(c *gin.Context) { calls++; c.Next() }).
		POST("", func(c *gin.Context) { c.Status(http.StatusCreated) }).
		PUT("/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	g.RegisterRoutes(engine.Group("/api"))
	engine.GET("/api/open", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/guarded", nil).Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodPut, "/api/guarded/1", nil).Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/open", nil).Code)
	assert.Equal(t, 2, calls)
}

// stubInvoices answers Get; the other methods are never reached in these tests
type stubInvoices struct {
	handler.InvoiceService
}

func (stubInvoices) Get(_ context.Context, tenantID, invoiceID uuid.UUID) (*billingapp.InvoiceResponse, error) {
	return &billingapp.InvoiceResponse{ID: invoiceID, TenantID: tenantID, Status: "draft"}, nil
}

type stubTaxpayers struct{}

func (stubTaxpayers) LookupCIF(_ context.Context, cif string) (*einvoice.TaxpayerInfo, error) {
	return &einvoice.TaxpayerInfo{CIF: cif, Name: "ACME SRL"}, nil
}

func newTestEngine(t *testing.T, knownTenant uuid.UUID, lookupLimit gin.HandlerFunc) *gin.Engine {
	t.Helper()
	engine, err := NewEngine(EngineConfig{
		ServiceName: "invoicing-test",
		MaxBodySize: 1 << 20,
		Tenants: middleware.TenantValidatorFunc(func(_ context.Context, id uuid.UUID) error {
			if id != knownTenant {
				return shared.ErrNotFound
			}
			return nil
		}),
		Health: handler.NewHealthHandler("invoicing-test"),
	}, Handlers{
		Invoices:    handler.NewInvoiceHandler(stubInvoices{}, nil),
		Stock:       handler.NewStockHandler(nil),
		VATRates:    handler.NewVATRateHandler(nil),
		Taxpayers:   handler.NewTaxpayerHandler(stubTaxpayers{}),
		LookupLimit: lookupLimit,
	})
	require.NoError(t, err)
	return engine
}

func TestNewEngine(t *testing.T) {
	tenantID := uuid.New()
	engine := newTestEngine(t, tenantID, nil)

	t.Run("health needs no tenant", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("api requires a tenant", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeTenantRequired, resp.Error.Code)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/api/v1/invoices/"+uuid.NewString(),
			map[string]string{middleware.TenantHeaderKey: uuid.NewString()})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("routes to the invoice handler", func(t *testing.T) {
		id := uuid.New()
		w := serve(engine, http.MethodGet, "/api/v1/invoices/"+id.String(),
			map[string]string{middleware.TenantHeaderKey: tenantID.String()})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data billingapp.InvoiceResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, id, resp.Data.ID)
		assert.Equal(t, tenantID, resp.Data.TenantID)
	})

	t.Run("e-invoice submission without a gateway", func(t *testing.T) {
		w := serve(engine, http.MethodPost, "/api/v1/invoices/"+uuid.NewString()+"/efactura",
			map[string]string{middleware.TenantHeaderKey: tenantID.String()})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestNewEngine_LookupRateLimit(t *testing.T) {
	tenantID := uuid.New()
	limiter := middleware.NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	engine := newTestEngine(t, tenantID, middleware.RateLimitByKey(limiter, middleware.TenantKey))
	header := map[string]string{middleware.TenantHeaderKey: tenantID.String()}

	first := serve(engine, http.MethodGet, "/api/v1/cif/RO123456", header)
	assert.Equal(t, http.StatusOK, first.Code)

	second := serve(engine, http.MethodGet, "/api/v1/cif/RO123456", header)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// invoices are not limited
	w := serve(engine, http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), header)
	assert.Equal(t, http.StatusOK, w.Code)
}
