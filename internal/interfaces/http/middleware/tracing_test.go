package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attrValue(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestTracing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tenant := uuid.New()
	r := gin.New()
	r.Use(
		func(c *gin.Context) { c.Set("request_id", "req-42"); c.Next() },
		Tracing("invoicing-test", otelgin.WithTracerProvider(tp)),
		Tenant(TenantConfig{}),
		SpanAttributes(),
	)
	r.GET("/api/v1/invoices/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/v1/invoices/:id/send", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })

	send := func(method, path string) {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(TenantHeaderKey, tenant.String())
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	send(http.MethodGet, "/api/v1/invoices/"+uuid.NewString())
	send(http.MethodPost, "/api/v1/invoices/"+uuid.NewString()+"/send")

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "GET /api/v1/invoices/:id", ok.Name())
	got, found := attrValue(ok.Attributes(), "tenant_id")
	assert.True(t, found)
	assert.Equal(t, tenant.String(), got)
	got, _ = attrValue(ok.Attributes(), "request_id")
	assert.Equal(t, "req-42", got)
	assert.NotEqual(t, codes.Error, ok.Status().Code)

	failed := spans[1]
	assert.Equal(t, codes.Error, failed.Status().Code)
}
