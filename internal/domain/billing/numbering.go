package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FullNumberPadding is the zero-padded width of the sequential part.
const FullNumberPadding = 4

// FormatFullNumber composes the human-facing invoice identifier.
func FormatFullNumber(series string, number uint) string {
	return fmt.Sprintf("%s-%0*d", series, FullNumberPadding, number)
}

// DefaultSeries returns "{prefix}-{year}", falling back to the document
// type's letter when the company has no prefix configured.
func DefaultSeries(prefix string, docType DocumentType, issueDate time.Time) string {
	if prefix == "" {
		prefix = docType.SeriesPrefix()
	}
	return fmt.Sprintf("%s-%d", prefix, issueDate.Year())
}

// SequenceAllocator hands out the next number in a (tenant, series) space.
//
// Implementations must hold an exclusive lock on the partition from the
// moment the current maximum is read until the caller's transaction
// commits, so the allocator is always used inside the same transaction that
// persists the chosen number.
type SequenceAllocator interface {
	NextNumber(ctx context.Context, tenantID uuid.UUID, series string) (uint, error)
}
