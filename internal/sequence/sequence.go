// Package sequence issues gap-free, collision-free document numbers from
// per-key monotonic counters.
package sequence

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Allocator issues the next integer for a counter key. Two concurrent calls
// with the same key always return two distinct, sequential values. When the
// backing store is unreachable the call fails; callers must never fabricate
// a number.
type Allocator interface {
	Next(ctx context.Context, key string) (int64, error)
}

// Counter keys. Orders use a flat counter; invoices, bills, and payments are
// scoped per calendar year.
const (
	KeySalesOrder    = "so"
	KeyPurchaseOrder = "po"
	KeyInvoice       = "ci"
	KeyBill          = "vb"
	KeyPayment       = "pay"
)

// YearKey scopes a counter key to the calendar year of t.
func YearKey(key string, t time.Time) string {
	return fmt.Sprintf("%s-%d", key, t.UTC().Year())
}

// Format renders a plain prefixed number, e.g. Format("PO", 3) == "PO00003".
func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s%05d", strings.ToUpper(prefix), n)
}

// FormatYear renders a year-scoped number, e.g. FormatYear("INV", 2025, 42)
// == "INV/2025/00042".
func FormatYear(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s/%d/%05d", strings.ToUpper(prefix), year, n)
}
