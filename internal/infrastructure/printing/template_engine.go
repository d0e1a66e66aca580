package printing

import (
	"bytes"
	"html/template"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// TemplateEngine renders HTML templates with locale-aware formatting helpers
type TemplateEngine struct {
	lang    language.Tag
	printer *message.Printer
	funcMap template.FuncMap
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLanguage sets the locale used for numbers and casing
func WithLanguage(tag language.Tag) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.lang = tag
	}
}

// NewTemplateEngine creates a template engine; the default locale is Romanian
func NewTemplateEngine(opts ...TemplateEngineOption) *TemplateEngine {
	e := &TemplateEngine{lang: language.Romanian}
	for _, opt := range opts {
		opt(e)
	}
	e.printer = message.NewPrinter(e.lang)
	caser := cases.Title(e.lang)

	e.funcMap = template.FuncMap{
		"formatMoney":    e.formatMoney,
		"formatQuantity": e.formatQuantity,
		"formatPercent":  e.formatPercent,
		"formatDate":     formatDate,
		"upper":          strings.ToUpper,
		"title":          caser.String,
		"default":        defaultFunc,
	}
	return e
}

// Parse compiles a named template with the engine's functions
func (e *TemplateEngine) Parse(name, content string) (*template.Template, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "template content is empty", nil)
	}
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse template", err)
	}
	return tmpl, nil
}

// Execute runs a parsed template
func (e *TemplateEngine) Execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

// RenderString parses and executes a template string
func (e *TemplateEngine) RenderString(name, content string, data any) (string, error) {
	tmpl, err := e.Parse(name, content)
	if err != nil {
		return "", err
	}
	return e.Execute(tmpl, data)
}

// GetFuncMap returns a copy of the template function map
func (e *TemplateEngine) GetFuncMap() template.FuncMap {
	funcMap := make(template.FuncMap, len(e.funcMap))
	maps.Copy(funcMap, e.funcMap)
	return funcMap
}

// formatMoney formats with exactly two decimals and locale grouping.
// Example (ro): 1234.5 -> "1.234,50"
func (e *TemplateEngine) formatMoney(v any) string {
	d := toDecimal(v).Round(2)
	return e.printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2)))
}

// formatQuantity formats with up to three decimals
// Example (ro): 2.5 -> "2,5"
func (e *TemplateEngine) formatQuantity(v any) string {
	d := toDecimal(v).Round(3)
	return e.printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(3)))
}

// formatPercent formats a VAT percent value, not a fraction
// Example: 19 -> "19%"
func (e *TemplateEngine) formatPercent(v any) string {
	d := toDecimal(v)
	return e.printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(2))) + "%"
}

// formatDate formats as dd.mm.yyyy
func formatDate(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}

func defaultFunc(val, def any) any {
	switch v := val.(type) {
	case nil:
		return def
	case string:
		if v == "" {
			return def
		}
	}
	return val
}

func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func toTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	default:
		return time.Time{}
	}
}
