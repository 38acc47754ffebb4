package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Total      decimal.Decimal
	ByCategory []CategoryAmount
}

// Overview totals the expenses dated in the given month, grouped by category
// in first-seen order.
func Overview(year, month int, expenses []Expense) MonthOverview {
	ov := MonthOverview{Year: year, Month: month, Total: decimal.Zero}
	index := make(map[string]int)
	for _, e := range expenses {
		if e.Date.Year() != year || int(e.Date.Month()) != month {
			continue
		}
		ov.Total = ov.Total.Add(e.Amount)
		i, ok := index[e.Category]
		if !ok {
			i = len(ov.ByCategory)
			index[e.Category] = i
			ov.ByCategory = append(ov.ByCategory, CategoryAmount{Name: e.Category, Amount: decimal.Zero})
		}
		ov.ByCategory[i].Amount = ov.ByCategory[i].Amount.Add(e.Amount)
	}
	return ov
}
