package printing

import (
	"context"
	"strings"
	"time"
)

// PaperSize names a sheet format the renderer can print on
type PaperSize string

const (
	PaperSizeA4     PaperSize = "A4"
	PaperSizeA5     PaperSize = "A5"
	PaperSizeLetter PaperSize = "LETTER"
)

// sheet dimensions in millimeters, portrait
var sheets = map[PaperSize]struct{ w, h float64 }{
	PaperSizeA4:     {210, 297},
	PaperSizeA5:     {148, 210},
	PaperSizeLetter: {215.9, 279.4},
}

// ParsePaperSize reads a configured paper size. Blank means A4.
func ParsePaperSize(s string) (PaperSize, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return PaperSizeA4, true
	}
	p := PaperSize(s)
	return p, p.IsValid()
}

// IsValid reports whether p is a known format
func (p PaperSize) IsValid() bool {
	_, ok := sheets[p]
	return ok
}

// Margins are page margins in millimeters
type Margins struct {
	Top, Right, Bottom, Left float64
}

// invoiceMargins leave room for the page footer
var invoiceMargins = Margins{Top: 12, Right: 12, Bottom: 15, Left: 12}

// RenderRequest is one HTML document to print
type RenderRequest struct {
	HTML      string
	PaperSize PaperSize
	Margins   Margins
	Title     string
	// Footer is a Chrome footer template printed on every page
	Footer  string
	Timeout time.Duration
}

// RenderResult is the printed document
type RenderResult struct {
	PDF     []byte
	Pages   int
	Elapsed time.Duration
}

// PDFRenderer prints HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// Failure codes carried by RenderError
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeStorageFailed    = "STORAGE_FAILED"
)

// RenderError reports why a document could not be produced
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

// NewRenderError builds a RenderError; cause may be nil
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RenderError) Unwrap() error { return e.Cause }

func validateRenderRequest(req *RenderRequest) error {
	switch {
	case req == nil:
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	case strings.TrimSpace(req.HTML) == "":
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	case !req.PaperSize.IsValid():
		return NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+string(req.PaperSize), nil)
	}
	return nil
}
