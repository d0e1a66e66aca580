package efactura

import (
	"bytes"
	"crypto/tls"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/erp/invoicing/internal/domain/einvoice"
	"golang.org/x/crypto/pkcs12"
)

// ClientProvider returns the HTTP client used for a tenant's requests
type ClientProvider func(creds einvoice.Credentials) (*http.Client, error)

type cachedCertificate struct {
	cert    tls.Certificate
	modTime time.Time
}

// certificateClients builds mutual-TLS clients from PKCS#12 bundles and
// reuses them until the file changes
type certificateClients struct {
	dir     string
	timeout time.Duration

	mu      sync.Mutex
	certs   map[string]cachedCertificate
	clients map[string]*http.Client
}

func newCertificateClients(dir string, timeout time.Duration) *certificateClients {
	return &certificateClients{
		dir:     dir,
		timeout: timeout,
		certs:   make(map[string]cachedCertificate),
		clients: make(map[string]*http.Client),
	}
}

func (c *certificateClients) resolve(path string) string {
	if filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

// Client returns a client presenting the tenant's certificate
func (c *certificateClients) Client(creds einvoice.Credentials) (*http.Client, error) {
	if creds.CertificatePath == "" {
		return nil, einvoice.ErrNotConfigured
	}
	path := c.resolve(creds.CertificatePath)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("efactura: certificate: %w", err)
	}

	key := path + "\x00" + creds.CertificatePassword
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.certs[key]; ok && cached.modTime.Equal(info.ModTime()) {
		return c.clients[key], nil
	}

	cert, err := loadClientCertificate(path, creds.CertificatePassword)
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	client := &http.Client{Timeout: c.timeout, Transport: transport}

	if old, ok := c.clients[key]; ok {
		old.CloseIdleConnections()
	}
	c.certs[key] = cachedCertificate{cert: cert, modTime: info.ModTime()}
	c.clients[key] = client
	return client, nil
}

// loadClientCertificate decodes a .p12/.pfx bundle into a TLS key pair
func loadClientCertificate(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("efactura: read certificate: %w", err)
	}
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("efactura: decode certificate: %w", err)
	}
	var buf bytes.Buffer
	for _, b := range blocks {
		if err := pem.Encode(&buf, b); err != nil {
			return tls.Certificate{}, fmt.Errorf("efactura: encode certificate: %w", err)
		}
	}
	// X509KeyPair picks the CERTIFICATE and PRIVATE KEY blocks it needs.
	cert, err := tls.X509KeyPair(buf.Bytes(), buf.Bytes())
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("efactura: load key pair: %w", err)
	}
	return cert, nil
}
