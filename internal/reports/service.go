package reports

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service builds reports, deduplicating concurrent identical builds and
// caching results behind the versioned cache.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
	now   func() time.Time
}

// NewService constructs a report service. cache may be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Stock values current on-hand quantities at purchase price.
func (s *Service) Stock(ctx context.Context) (*StockReport, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "stock")
	if err != nil {
		return nil, err
	}
	return fetch[StockReport](ctx, s, key, func(ctx context.Context) (any, error) {
		return s.buildStock(ctx)
	})
}

// ProfitAndLoss groups confirmed invoice and bill lines into income and
// expense account buckets over the range.
func (s *Service) ProfitAndLoss(ctx context.Context, rng shared.DateRange) (*ProfitAndLoss, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "pl", rangeToken(rng))
	if err != nil {
		return nil, err
	}
	return fetch[ProfitAndLoss](ctx, s, key, func(ctx context.Context) (any, error) {
		return s.buildProfitAndLoss(ctx, rng)
	})
}

// BalanceSheet builds the simplified sheet over the range.
func (s *Service) BalanceSheet(ctx context.Context, rng shared.DateRange) (*BalanceSheet, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "bs", rangeToken(rng))
	if err != nil {
		return nil, err
	}
	return fetch[BalanceSheet](ctx, s, key, func(ctx context.Context) (any, error) {
		return s.buildBalanceSheet(ctx, rng)
	})
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// fetch runs the loader through singleflight and the cache, so concurrent
// requests for the same key share one build.
func fetch[T any](ctx context.Context, s *Service, key string, loader func(context.Context) (any, error)) (*T, error) {
	v, err, _ := s.group.Do(key, func() (any, error) {
		var out T
		if err := s.cache.FetchJSON(ctx, key, &out, loader); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

func (s *Service) buildStock(ctx context.Context) (*StockReport, error) {
	rows, err := s.repo.StockRows(ctx)
	if err != nil {
		return nil, err
	}
	report := &StockReport{Lines: make([]StockLine, 0, len(rows)), GeneratedAt: s.now()}
	for _, r := range rows {
		value := r.OnHand * r.PurchasePrice
		report.Lines = append(report.Lines, StockLine{
			ProductID:     r.ProductID,
			Code:          r.Code,
			Name:          r.Name,
			OnHand:        r.OnHand,
			PurchasePrice: r.PurchasePrice,
			Value:         value,
			ValueDisplay:  formatMoney(value),
		})
		report.TotalValue += value
	}
	report.TotalDisplay = formatMoney(report.TotalValue)
	return report, nil
}

func (s *Service) buildProfitAndLoss(ctx context.Context, rng shared.DateRange) (*ProfitAndLoss, error) {
	income, err := s.repo.IncomeByAccount(ctx, rng)
	if err != nil {
		return nil, err
	}
	expense, err := s.repo.ExpenseByAccount(ctx, rng)
	if err != nil {
		return nil, err
	}

	report := &ProfitAndLoss{GeneratedAt: s.now()}
	for _, a := range income {
		report.Income = append(report.Income, PLEntry{Account: a.Account, Amount: a.Amount, Display: formatMoney(a.Amount)})
		report.TotalIncome += a.Amount
	}
	for _, a := range expense {
		report.Expense = append(report.Expense, PLEntry{Account: a.Account, Amount: a.Amount, Display: formatMoney(a.Amount)})
		report.TotalExpense += a.Amount
	}
	report.NetProfit = report.TotalIncome - report.TotalExpense
	report.NetProfitDisplay = formatMoney(report.NetProfit)
	return report, nil
}

func (s *Service) buildBalanceSheet(ctx context.Context, rng shared.DateRange) (*BalanceSheet, error) {
	sums, err := s.repo.BalanceSums(ctx, rng)
	if err != nil {
		return nil, err
	}

	// Net profit is document-level totals, not the P&L account buckets.
	// Coarser on purpose; the two figures are allowed to differ.
	report := &BalanceSheet{
		Bank:        sums.InvoicePaidBank - sums.BillPaidBank,
		Cash:        sums.InvoicePaidCash - sums.BillPaidCash,
		Debtors:     sums.InvoiceDue,
		Creditors:   sums.BillDue,
		NetProfit:   sums.InvoiceTotal - sums.BillTotal,
		GeneratedAt: s.now(),
	}
	report.Assets = report.Bank + report.Cash + report.Debtors
	report.Liabilities = report.Creditors + report.NetProfit
	report.Check = report.Assets - report.Liabilities
	return report, nil
}

// rangeToken renders a cache-key fragment for a date range.
func rangeToken(rng shared.DateRange) string {
	from, to := "any", "any"
	if rng.From != nil {
		from = rng.From.UTC().Format(time.RFC3339)
	}
	if rng.To != nil {
		to = rng.To.UTC().Format(time.RFC3339)
	}
	return from + ".." + to
}
