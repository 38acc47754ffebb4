package core

import "github.com/shopspring/decimal"

// DefaultBase is the starting budget when none has been configured.
var DefaultBase = decimal.NewFromInt(100)

// CurrentBudget derives the remaining budget: base minus the sum of all
// recorded amounts. It is never stored.
func CurrentBudget(base decimal.Decimal, expenses []Expense) decimal.Decimal {
	spent := decimal.Zero
	for _, e := range expenses {
		spent = spent.Add(e.Amount)
	}
	return base.Sub(spent)
}
