package core

// CategoryTotal is the current-period sum for one known category.
type CategoryTotal struct {
	Category Category
	Total    Money
}

// PeriodSummary is the result of aggregating a full transaction history
// against one calendar month.
type PeriodSummary struct {
	Period         Period
	Income         Money
	Expenses       Money
	Net            Money // Income - Expenses
	OpeningBalance Money // signed sum of everything strictly before the period
	ClosingBalance Money // OpeningBalance + Net
	ByCategory     []CategoryTotal
}

// Aggregate partitions the transaction history into the given calendar
// month and everything strictly before it, and computes the period's
// totals. The opening balance is a full historical replay rather than a
// stored running total; callers that aggregate often should cache the
// result and invalidate on any ledger write.
//
// Category totals only count transactions whose kind matches the
// category's polarity. A transaction whose category dangles, or whose kind
// disagrees with its category, still counts toward income/expenses but is
// excluded from every category total.
func Aggregate(transactions []Transaction, categories []Category, period Period) PeriodSummary {
	s := PeriodSummary{Period: period}

	byName := make(map[string]int, len(categories))
	totals := make([]CategoryTotal, len(categories))
	for i, c := range categories {
		byName[c.Name] = i
		totals[i] = CategoryTotal{Category: c}
	}

	for _, t := range transactions {
		p := PeriodOf(t.Date)
		switch {
		case p.Equal(period):
			if t.Kind == Income {
				s.Income.Cents += t.Amount.Cents
			} else {
				s.Expenses.Cents += t.Amount.Cents
			}
			if i, ok := byName[t.Category]; ok && t.Kind == totals[i].Category.KindFor() {
				totals[i].Total.Cents += t.Amount.Cents
			}
		case p.Before(period):
			s.OpeningBalance.Cents += t.Signed()
		}
	}

	s.Net.Cents = s.Income.Cents - s.Expenses.Cents
	s.ClosingBalance.Cents = s.OpeningBalance.Cents + s.Net.Cents
	s.ByCategory = totals
	return s
}

// AllTimeBalance is the signed sum over the entire transaction history,
// independent of any viewed period.
func AllTimeBalance(transactions []Transaction) Money {
	var total int64
	for _, t := range transactions {
		total += t.Signed()
	}
	return Money{Cents: total}
}

// NetWorth is the all-time closing balance plus the net asset value. It is
// always "as of now": browsing a past month does not change it.
func NetWorth(transactions []Transaction, holdings []HoldingsItem) Money {
	balance := AllTimeBalance(transactions)
	_, net := Value(holdings)
	return Money{Cents: balance.Cents + net.Cents}
}

// PeriodExpenses sums expense magnitudes for one calendar month. Used for
// the month-over-month comparison next to the main summary.
func PeriodExpenses(transactions []Transaction, period Period) Money {
	var total int64
	for _, t := range transactions {
		if t.Kind == Expense && PeriodOf(t.Date).Equal(period) {
			total += t.Amount.Cents
		}
	}
	return Money{Cents: total}
}
