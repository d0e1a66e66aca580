package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// invoiceOrderColumns are the order_by values accepted by the invoice list
var invoiceOrderColumns = map[string]string{
	"issue_date":  "issue_date",
	"due_date":    "due_date",
	"number":      "number",
	"full_number": "full_number",
	"status":      "status",
	"total":       "total",
	"created_at":  "created_at",
}

// orderBy resolves a caller supplied sort field through columns. Unknown
// fields sort by fallback and any direction other than "asc" sorts
// descending, so request input never reaches the SQL text.
func orderBy(columns map[string]string, field, dir, fallback string) clause.OrderByColumn {
	column, ok := columns[strings.TrimSpace(field)]
	if !ok {
		column = fallback
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: column},
		Desc:   !strings.EqualFold(strings.TrimSpace(dir), "asc"),
	}
}
