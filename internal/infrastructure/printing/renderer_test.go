package printing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaperSize(t *testing.T) {
	tests := []struct {
		in    string
		want  PaperSize
		valid bool
	}{
		{"", PaperSizeA4, true},
		{"a4", PaperSizeA4, true},
		{" Letter ", PaperSizeLetter, true},
		{"A5", PaperSizeA5, true},
		{"B3", PaperSize("B3"), false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePaperSize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestValidateRenderRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      *RenderRequest
		wantCode string
	}{
		{"nil request", nil, ErrCodeInvalidHTML},
		{"empty HTML", &RenderRequest{PaperSize: PaperSizeA4}, ErrCodeInvalidHTML},
		{"whitespace HTML", &RenderRequest{HTML: " \n\t", PaperSize: PaperSizeA4}, ErrCodeInvalidHTML},
		{"invalid paper size", &RenderRequest{HTML: "<p>x</p>", PaperSize: "B3"}, ErrCodeInvalidPaperSize},
		{"valid", &RenderRequest{HTML: "<p>x</p>", PaperSize: PaperSizeA4}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRenderRequest(tt.req)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var renderErr *RenderError
			require.ErrorAs(t, err, &renderErr)
			assert.Equal(t, tt.wantCode, renderErr.Code)
		})
	}
}

func TestChromedpRenderer_RenderRejectsInvalidRequest(t *testing.T) {
	r, err := NewChromedpRenderer(nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Render(t.Context(), &RenderRequest{PaperSize: PaperSizeA4})
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestPrintParams(t *testing.T) {
	r, err := NewChromedpRenderer(&ChromedpConfig{Scale: 0.9})
	require.NoError(t, err)
	defer r.Close()

	t.Run("A4 without footer", func(t *testing.T) {
		params := r.printParams(&RenderRequest{
			HTML:      "<p>x</p>",
			PaperSize: PaperSizeA4,
			Margins:   invoiceMargins,
		})
		assert.InDelta(t, 8.27, params.PaperWidth, 0.01)
		assert.InDelta(t, 11.69, params.PaperHeight, 0.01)
		assert.InDelta(t, inches(12), params.MarginTop, 0.001)
		assert.InDelta(t, inches(15), params.MarginBottom, 0.001)
		assert.InDelta(t, 0.9, params.Scale, 0.001)
		assert.False(t, params.DisplayHeaderFooter)
	})

	t.Run("footer enforces bottom margin", func(t *testing.T) {
		params := r.printParams(&RenderRequest{
			HTML:      "<p>x</p>",
			PaperSize: PaperSizeLetter,
			Footer:    "<span>footer</span>",
		})
		assert.True(t, params.DisplayHeaderFooter)
		assert.Equal(t, "<span>footer</span>", params.FooterTemplate)
		assert.InDelta(t, inches(10), params.MarginBottom, 0.001)
		assert.InDelta(t, 8.5, params.PaperWidth, 0.001)
	})
}

func TestWrapDocument(t *testing.T) {
	t.Run("complete document is unchanged", func(t *testing.T) {
		doc := "<!DOCTYPE html><html><body>x</body></html>"
		assert.Equal(t, doc, wrapDocument(&RenderRequest{HTML: doc}))
	})

	t.Run("fragment is wrapped and title escaped", func(t *testing.T) {
		out := wrapDocument(&RenderRequest{HTML: "<p>x</p>", Title: "A & B"})
		assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
		assert.Contains(t, out, "<title>A &amp; B</title>")
		assert.Contains(t, out, "<body><p>x</p></body>")
	})
}

func TestCountPages(t *testing.T) {
	assert.Equal(t, 1, countPages([]byte("garbage")))
	pdf := []byte("<< /Type /Pages /Count 2 >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, countPages(pdf))
}

func TestRenderError(t *testing.T) {
	cause := errors.New("boom")
	err := NewRenderError(ErrCodeRenderFailed, "render failed", cause)
	assert.Equal(t, "render failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", NewRenderError(ErrCodeRenderFailed, "plain", nil).Error())
}
