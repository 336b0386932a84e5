package core

import "testing"

func tx(owner, name string, cents int64, kind Kind, category string, y, m, d int) Transaction {
	return Transaction{
		Owner:    owner,
		Name:     name,
		Amount:   Money{Cents: cents},
		Kind:     kind,
		Category: category,
		Date:     NewDate(y, m, d),
	}
}

func TestAggregate_MonthlyScenario(t *testing.T) {
	cats := []Category{
		{Owner: "u1", Name: "Rent", Limit: Money{Cents: 50000}},
		{Owner: "u1", Name: "Salary", IsIncome: true, Limit: Money{Cents: 200000}},
	}
	txs := []Transaction{
		tx("u1", "Paycheck", 220000, Income, "Salary", 2024, 3, 1),
		tx("u1", "March rent", 30000, Expense, "Rent", 2024, 3, 5),
	}

	s := Aggregate(txs, cats, Period{Year: 2024, Month: 3})

	if s.Income.Cents != 220000 {
		t.Errorf("Income = %d, want 220000", s.Income.Cents)
	}
	if s.Expenses.Cents != 30000 {
		t.Errorf("Expenses = %d, want 30000", s.Expenses.Cents)
	}
	if s.Net.Cents != 190000 {
		t.Errorf("Net = %d, want 190000", s.Net.Cents)
	}
	if got := s.ByCategory[0].Total.Cents; got != 30000 {
		t.Errorf("Rent total = %d, want 30000", got)
	}
	if got := s.ByCategory[1].Total.Cents; got != 220000 {
		t.Errorf("Salary total = %d, want 220000", got)
	}

	rent := EvaluateBudget(s.ByCategory[0].Total, cats[0].Limit, false)
	if rent.State != StatusInProgress || rent.Pct != 60 {
		t.Errorf("Rent status = %v pct %v, want in-progress 60", rent.State, rent.Pct)
	}
	salary := EvaluateBudget(s.ByCategory[1].Total, cats[1].Limit, true)
	if salary.State != StatusGoalExceeded || salary.Excess.Cents != 20000 {
		t.Errorf("Salary status = %v excess %d, want goal-exceeded 20000", salary.State, salary.Excess.Cents)
	}
}

func TestAggregate_OpeningClosingBalance(t *testing.T) {
	txs := []Transaction{
		tx("u1", "old income", 100000, Income, "Salary", 2023, 11, 28),
		tx("u1", "old expense", 40000, Expense, "Rent", 2024, 1, 31),
		tx("u1", "current income", 50000, Income, "Salary", 2024, 2, 1),
		tx("u1", "current expense", 20000, Expense, "Rent", 2024, 2, 15),
		tx("u1", "future", 99900, Expense, "Rent", 2024, 3, 1),
	}

	s := Aggregate(txs, nil, Period{Year: 2024, Month: 2})

	// Opening balance is the signed sum of everything strictly before the
	// period; the future month contributes nothing.
	if s.OpeningBalance.Cents != 60000 {
		t.Errorf("OpeningBalance = %d, want 60000", s.OpeningBalance.Cents)
	}
	if want := s.OpeningBalance.Cents + s.Income.Cents - s.Expenses.Cents; s.ClosingBalance.Cents != want {
		t.Errorf("ClosingBalance = %d, want %d", s.ClosingBalance.Cents, want)
	}
	if s.ClosingBalance.Cents != 90000 {
		t.Errorf("ClosingBalance = %d, want 90000", s.ClosingBalance.Cents)
	}
}

func TestAggregate_BucketsByYearMonthNotTimestamp(t *testing.T) {
	// A late-January transaction is "past" for February even though its day
	// of month (31) is larger than any February day.
	txs := []Transaction{
		tx("u1", "jan", 10000, Income, "Salary", 2024, 1, 31),
		tx("u1", "feb", 5000, Income, "Salary", 2024, 2, 1),
	}
	s := Aggregate(txs, nil, Period{Year: 2024, Month: 2})
	if s.OpeningBalance.Cents != 10000 {
		t.Errorf("OpeningBalance = %d, want 10000", s.OpeningBalance.Cents)
	}
	if s.Income.Cents != 5000 {
		t.Errorf("Income = %d, want 5000", s.Income.Cents)
	}
}

func TestAggregate_ExcludesMismatchedAndDangling(t *testing.T) {
	cats := []Category{
		{Owner: "u1", Name: "Rent", Limit: Money{Cents: 50000}},
	}
	txs := []Transaction{
		tx("u1", "rent", 30000, Expense, "Rent", 2024, 3, 5),
		// Kind disagrees with the category's polarity: excluded from the
		// category total but still counted as income.
		tx("u1", "refund", 5000, Income, "Rent", 2024, 3, 6),
		// Dangling category: counted in expenses only.
		tx("u1", "stray", 2000, Expense, "Deleted", 2024, 3, 7),
	}

	s := Aggregate(txs, cats, Period{Year: 2024, Month: 3})

	if got := s.ByCategory[0].Total.Cents; got != 30000 {
		t.Errorf("Rent total = %d, want 30000", got)
	}
	if s.Income.Cents != 5000 {
		t.Errorf("Income = %d, want 5000", s.Income.Cents)
	}
	if s.Expenses.Cents != 32000 {
		t.Errorf("Expenses = %d, want 32000", s.Expenses.Cents)
	}
}

func TestNetWorth_IndependentOfViewedMonth(t *testing.T) {
	txs := []Transaction{
		tx("u1", "a", 100000, Income, "Salary", 2024, 1, 10),
		tx("u1", "b", 30000, Expense, "Rent", 2024, 2, 10),
		tx("u1", "c", 15000, Expense, "Rent", 2024, 4, 10),
	}
	holdings := []HoldingsItem{
		{Owner: "u1", ItemName: "Case", Quantity: 2, UnitPrice: Money{Cents: 1000}},
	}

	// Net worth is "as of now": the viewed month never enters the
	// computation, so there is nothing month-dependent to vary.
	got := NetWorth(txs, holdings)
	want := int64(100000 - 30000 - 15000 + 1700) // 2000 gross * 0.85
	if got.Cents != want {
		t.Errorf("NetWorth = %d, want %d", got.Cents, want)
	}

	for _, p := range []Period{{2024, 1}, {2024, 2}, {2024, 12}} {
		s := Aggregate(txs, nil, p)
		_ = s // aggregation of any month leaves the snapshot untouched
		if again := NetWorth(txs, holdings); again.Cents != want {
			t.Errorf("NetWorth after viewing %v = %d, want %d", p, again.Cents, want)
		}
	}
}

func TestPeriodExpenses(t *testing.T) {
	txs := []Transaction{
		tx("u1", "a", 10000, Expense, "Rent", 2024, 2, 10),
		tx("u1", "b", 5000, Expense, "Rent", 2024, 3, 10),
		tx("u1", "c", 99999, Income, "Salary", 2024, 2, 10),
	}
	if got := PeriodExpenses(txs, Period{2024, 2}); got.Cents != 10000 {
		t.Errorf("PeriodExpenses = %d, want 10000", got.Cents)
	}
}

func TestPeriod_PrevAndLastDay(t *testing.T) {
	if p := (Period{2024, 1}).Prev(); p != (Period{2023, 12}) {
		t.Errorf("Prev of 2024-01 = %v", p)
	}
	if d := (Period{2024, 2}).LastDay(); d != 29 {
		t.Errorf("LastDay 2024-02 = %d, want 29", d)
	}
	if d := (Period{2023, 2}).LastDay(); d != 28 {
		t.Errorf("LastDay 2023-02 = %d, want 28", d)
	}
}
