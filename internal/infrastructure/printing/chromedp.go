package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	mmPerInch          = 25.4
	footerMinMarginMM  = 10
	defaultRenderLimit = 30 * time.Second
)

// ChromedpConfig configures the headless Chrome renderer
type ChromedpConfig struct {
	DefaultTimeout time.Duration
	// ExecPath is the Chrome binary; empty lets chromedp look one up
	ExecPath string
	// RemoteURL points at a running browser's DevTools websocket. When set
	// no local browser is launched.
	RemoteURL string
	// NoSandbox is needed when Chrome runs as root in a container
	NoSandbox bool
	Scale     float64
	Logger    *zap.Logger
}

// ChromedpRenderer prints HTML through the Chrome DevTools protocol. One
// browser serves every render; each render gets its own tab.
type ChromedpRenderer struct {
	timeout time.Duration
	scale   float64
	logger  *zap.Logger

	browser context.Context
	release context.CancelFunc
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)

// NewChromedpRenderer prepares the browser allocator. Chrome itself starts
// on the first Render.
func NewChromedpRenderer(cfg *ChromedpConfig) (*ChromedpRenderer, error) {
	if cfg == nil {
		cfg = &ChromedpConfig{}
	}
	r := &ChromedpRenderer{
		timeout: cfg.DefaultTimeout,
		scale:   cfg.Scale,
		logger:  cfg.Logger,
	}
	if r.timeout <= 0 {
		r.timeout = defaultRenderLimit
	}
	if r.scale <= 0 {
		r.scale = 1
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	r.logger = r.logger.Named("chromedp")

	if cfg.RemoteURL != "" {
		r.browser, r.release = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r, nil
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	r.browser, r.release = chromedp.NewExecAllocator(context.Background(), opts...)
	return r, nil
}

// Render prints req in a fresh tab. Exceeding the timeout or cancelling ctx
// closes the tab and yields ErrCodeRenderTimeout.
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validateRenderRequest(req); err != nil {
		return nil, err
	}
	start := time.Now()
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tab, closeTab := chromedp.NewContext(r.browser, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer closeTab()
	// the tab hangs off the browser context, so ctx is tied to it by hand
	defer context.AfterFunc(ctx, closeTab)()

	var pdf []byte
	err := chromedp.Run(tab,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, wrapDocument(req)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) (err error) {
			pdf, _, err = r.printParams(req).Do(ctx)
			return err
		}),
	)
	switch {
	case err == nil && len(pdf) == 0:
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
	default:
		r.logger.Error("Chrome print failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}

	res := &RenderResult{PDF: pdf, Pages: countPages(pdf), Elapsed: time.Since(start)}
	r.logger.Debug("PDF rendered",
		zap.Int("bytes", len(pdf)),
		zap.Int("pages", res.Pages),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// printParams converts req to Chrome's inch based print settings. A footer
// needs at least footerMinMarginMM of bottom margin to be visible.
func (r *ChromedpRenderer) printParams(req *RenderRequest) *page.PrintToPDFParams {
	sheet := sheets[req.PaperSize]
	m := req.Margins
	params := page.PrintToPDF().
		WithPrintBackground(true).
		WithPreferCSSPageSize(false).
		WithScale(r.scale).
		WithPaperWidth(inches(sheet.w)).
		WithPaperHeight(inches(sheet.h)).
		WithMarginTop(inches(m.Top)).
		WithMarginRight(inches(m.Right)).
		WithMarginLeft(inches(m.Left))

	if req.Footer == "" {
		return params.WithMarginBottom(inches(m.Bottom))
	}
	return params.
		WithMarginBottom(inches(max(m.Bottom, footerMinMarginMM))).
		WithDisplayHeaderFooter(true).
		WithHeaderTemplate("<span></span>").
		WithFooterTemplate(req.Footer)
}

// Close shuts the browser down
func (r *ChromedpRenderer) Close() error {
	r.release()
	return nil
}

// wrapDocument turns an HTML fragment into a full UTF-8 document
func wrapDocument(req *RenderRequest) string {
	head := strings.ToLower(req.HTML[:min(len(req.HTML), 512)])
	if strings.Contains(head, "<!doctype") || strings.Contains(head, "<html") {
		return req.HTML
	}
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if req.Title != "" {
		fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(req.Title))
	}
	b.WriteString("</head><body>")
	b.WriteString(req.HTML)
	b.WriteString("</body></html>")
	return b.String()
}

func inches(mm float64) float64 { return mm / mmPerInch }

// countPages counts page objects, "/Type /Pages" being the page tree root
func countPages(pdf []byte) int {
	n := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	return max(n, 1)
}
