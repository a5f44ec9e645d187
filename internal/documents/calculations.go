package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/masterdata"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// TaxLookup resolves a tax id to its configuration. Missing ids report
// shared.ErrNotFound.
type TaxLookup func(ctx context.Context, id int64) (masterdata.Tax, error)

// ResolveLine fills the derived amounts of a single line. A nil tax means no
// tax applies. A FIXED tax is charged once per line, not scaled by quantity;
// this mirrors the established product behaviour and must not be "fixed"
// without confirmation.
func ResolveLine(line *Line, tax *masterdata.Tax) {
	line.LineUntaxed = line.Quantity * line.UnitPrice
	line.LineTax = 0
	if tax != nil {
		switch tax.Method {
		case masterdata.TaxMethodFixed:
			line.LineTax = tax.Rate
		default:
			line.LineTax = line.LineUntaxed * tax.Rate / 100
		}
	}
	line.LineTotal = line.LineUntaxed + line.LineTax
}

// ResolveLines recomputes every line amount on doc via lookup. A line
// referencing an unknown tax fails with shared.ErrReferential.
func ResolveLines(ctx context.Context, doc *Document, lookup TaxLookup) error {
	for i := range doc.Lines {
		line := &doc.Lines[i]
		var tax *masterdata.Tax
		if line.TaxID != nil {
			t, err := lookup(ctx, *line.TaxID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return fmt.Errorf("%w: tax %d on line %d", shared.ErrReferential, *line.TaxID, i+1)
				}
				return fmt.Errorf("resolve tax: %w", err)
			}
			tax = &t
		}
		ResolveLine(line, tax)
	}
	return nil
}

// SumTotals recomputes the document totals and amount due from its lines and
// recorded payment accumulators. It runs before every persist, including
// after payment changes where the lines themselves did not move, so stored
// totals and amount due stay mutually consistent. An empty line list yields
// all zeros.
func SumTotals(doc *Document) {
	doc.TotalUntaxed = 0
	doc.TotalTax = 0
	for i := range doc.Lines {
		doc.TotalUntaxed += doc.Lines[i].LineUntaxed
		doc.TotalTax += doc.Lines[i].LineTax
	}
	doc.GrandTotal = doc.TotalUntaxed + doc.TotalTax
	doc.AmountDue = doc.GrandTotal - doc.PaidCash - doc.PaidBank
	if doc.AmountDue < 0 {
		doc.AmountDue = 0
	}
}
