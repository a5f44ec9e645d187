package documents

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/masterdata"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func TestResolveLinePercentage(t *testing.T) {
	line := Line{Quantity: 6, UnitPrice: 2300}
	tax := masterdata.Tax{Method: masterdata.TaxMethodPercentage, Rate: 10}

	ResolveLine(&line, &tax)

	require.InDelta(t, 13800, line.LineUntaxed, 1e-9)
	require.InDelta(t, 1380, line.LineTax, 1e-9)
	require.InDelta(t, 15180, line.LineTotal, 1e-9)
}

func TestResolveLineFixedIgnoresQuantity(t *testing.T) {
	tax := masterdata.Tax{Method: masterdata.TaxMethodFixed, Rate: 50}

	one := Line{Quantity: 1, UnitPrice: 100}
	many := Line{Quantity: 9, UnitPrice: 100}
	ResolveLine(&one, &tax)
	ResolveLine(&many, &tax)

	require.InDelta(t, 50, one.LineTax, 1e-9)
	require.InDelta(t, 50, many.LineTax, 1e-9)
	require.InDelta(t, 950, many.LineTotal, 1e-9)
}

func TestResolveLineNoTax(t *testing.T) {
	line := Line{Quantity: 2, UnitPrice: 10.5}
	ResolveLine(&line, nil)
	require.InDelta(t, 21, line.LineUntaxed, 1e-9)
	require.Zero(t, line.LineTax)
	require.InDelta(t, 21, line.LineTotal, 1e-9)
}

func TestResolveLinesUnknownTax(t *testing.T) {
	taxID := int64(99)
	doc := Document{Lines: []Line{{Quantity: 1, UnitPrice: 10, TaxID: &taxID}}}
	lookup := func(ctx context.Context, id int64) (masterdata.Tax, error) {
		return masterdata.Tax{}, fmt.Errorf("%w: tax %d", shared.ErrNotFound, id)
	}

	err := ResolveLines(context.Background(), &doc, lookup)
	require.ErrorIs(t, err, shared.ErrReferential)
}

func TestSumTotalsReconciles(t *testing.T) {
	doc := Document{
		Lines: []Line{
			{LineUntaxed: 100, LineTax: 10, LineTotal: 110},
			{LineUntaxed: 200, LineTax: 0, LineTotal: 200},
		},
		PaidCash: 50,
		PaidBank: 60,
	}

	SumTotals(&doc)

	require.InDelta(t, 300, doc.TotalUntaxed, 1e-9)
	require.InDelta(t, 10, doc.TotalTax, 1e-9)
	require.InDelta(t, 310, doc.GrandTotal, 1e-9)
	require.InDelta(t, 200, doc.AmountDue, 1e-9)
}

func TestSumTotalsEmptyLines(t *testing.T) {
	doc := Document{}
	SumTotals(&doc)
	require.Zero(t, doc.GrandTotal)
	require.Zero(t, doc.AmountDue)
}

func TestSumTotalsFloorsAmountDue(t *testing.T) {
	doc := Document{
		Lines:    []Line{{LineUntaxed: 100, LineTax: 0, LineTotal: 100}},
		PaidCash: 150,
	}
	SumTotals(&doc)
	require.Zero(t, doc.AmountDue)
}
