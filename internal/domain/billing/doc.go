// Package billing holds the invoice aggregate and everything it is built
// from: lines, document types, statuses, VAT rates, the parties that issue
// and receive invoices, and per-series numbering.
//
// Totals are always derived by Recalculate; callers never set them. An
// invoice keeps its number once assigned, including after cancellation.
package billing
