// Package reports builds the read-only financial reports: stock valuation,
// profit & loss, and balance sheet. Reports aggregate confirmed documents
// on demand and are cached behind a versioned Redis layer.
package reports

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// StockLine values one product's on-hand quantity at its current purchase
// price.
type StockLine struct {
	ProductID     int64   `json:"product_id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	OnHand        float64 `json:"on_hand"`
	PurchasePrice float64 `json:"purchase_price"`
	Value         float64 `json:"value"`
	ValueDisplay  string  `json:"value_display"`
}

// StockReport is the full stock valuation.
type StockReport struct {
	Lines        []StockLine `json:"lines"`
	TotalValue   float64     `json:"total_value"`
	TotalDisplay string      `json:"total_display"`
	GeneratedAt  time.Time   `json:"generated_at"`
}

// PLEntry is one account bucket in the profit & loss.
type PLEntry struct {
	Account string  `json:"account"`
	Amount  float64 `json:"amount"`
	Display string  `json:"display"`
}

// ProfitAndLoss sums confirmed invoice lines into income buckets and
// confirmed bill lines into expense buckets.
type ProfitAndLoss struct {
	Income           []PLEntry `json:"income"`
	Expense          []PLEntry `json:"expense"`
	TotalIncome      float64   `json:"total_income"`
	TotalExpense     float64   `json:"total_expense"`
	NetProfit        float64   `json:"net_profit"`
	NetProfitDisplay string    `json:"net_profit_display"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// BalanceSheet is the simplified sheet. NetProfit here is invoice totals
// minus bill totals, deliberately coarser than the P&L bucket figure, and
// Check is assets minus liabilities under the sheet's own model, not a
// strict accounting identity.
type BalanceSheet struct {
	Bank        float64   `json:"bank"`
	Cash        float64   `json:"cash"`
	Debtors     float64   `json:"debtors"`
	Creditors   float64   `json:"creditors"`
	NetProfit   float64   `json:"net_profit"`
	Assets      float64   `json:"assets"`
	Liabilities float64   `json:"liabilities"`
	Check       float64   `json:"check"`
	GeneratedAt time.Time `json:"generated_at"`
}

var moneyPrinter = message.NewPrinter(language.English)

// formatMoney rounds to two decimals and renders with digit grouping.
// Rounding happens only here, at presentation time.
func formatMoney(v float64) string {
	rounded, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return moneyPrinter.Sprintf("%.2f", rounded)
}
