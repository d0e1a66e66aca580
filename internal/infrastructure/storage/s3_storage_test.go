package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewS3DocumentStore_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3DocumentStore(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3DocumentStore(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("access key without secret returns error", func(t *testing.T) {
		_, err := NewS3DocumentStore(&config.StorageConfig{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("valid config creates store", func(t *testing.T) {
		store, err := NewS3DocumentStore(&config.StorageConfig{
			Bucket:    "invoices",
			AccessKey: "k",
			SecretKey: "s",
			Endpoint:  "localhost:9000",
			PathStyle: true,
		}, WithPresignExpiration(5*time.Minute), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "invoices", store.bucket)
		assert.Equal(t, 5*time.Minute, store.presignExpiration)
		assert.Equal(t, "s3://invoices/t1/2026/F-0001.pdf", store.Locator("t1/2026/F-0001.pdf"))
	})
}

// fakeS3 records requests made against a path-style endpoint
type fakeS3 struct {
	mu       sync.Mutex
	requests []string
	objects  map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	io.Copy(io.Discard, r.Body)

	switch r.Method {
	case http.MethodPut:
		f.objects[r.URL.Path] = "stored"
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", "6")
		io.WriteString(w, body)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func newFakeS3Store(t *testing.T) (*S3DocumentStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string]string{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewS3DocumentStore(&config.StorageConfig{
		Bucket:    "invoices",
		Region:    "eu-central-1",
		AccessKey: "k",
		SecretKey: "s",
		Endpoint:  server.URL,
		PathStyle: true,
	})
	require.NoError(t, err)
	return store, fake
}

func TestS3DocumentStore_PutAndGet(t *testing.T) {
	store, fake := newFakeS3Store(t)
	ctx := context.Background()

	locator, err := store.Put(ctx, "tenant/2026/F-0001.pdf", []byte("%PDF-1"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "s3://invoices/tenant/2026/F-0001.pdf", locator)

	data, err := store.Get(ctx, "tenant/2026/F-0001.pdf")
	require.NoError(t, err)
	assert.Equal(t, "stored", string(data))

	require.Len(t, fake.requests, 2)
	assert.Equal(t, "PUT /invoices/tenant/2026/F-0001.pdf", fake.requests[0])
	assert.Equal(t, "GET /invoices/tenant/2026/F-0001.pdf", fake.requests[1])
}

func TestS3DocumentStore_GetMissing(t *testing.T) {
	store, _ := newFakeS3Store(t)

	_, err := store.Get(context.Background(), "nope.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3DocumentStore_EmptyKey(t *testing.T) {
	store, fake := newFakeS3Store(t)

	_, err := store.Put(context.Background(), "", []byte("x"), "application/pdf")
	assert.Error(t, err)
	assert.Empty(t, fake.requests)
}

func TestS3DocumentStore_DownloadURL(t *testing.T) {
	store, _ := newFakeS3Store(t)

	url, expires, err := store.DownloadURL(context.Background(), "tenant/F-0001.pdf")
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, "/invoices/tenant/F-0001.pdf"))
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.True(t, expires.After(time.Now()))
}
