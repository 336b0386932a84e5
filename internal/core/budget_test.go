package core

import "testing"

func TestEvaluateBudget(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		limit      int64
		isIncome   bool
		wantState  BudgetState
		wantPct    float64
		wantExcess int64
	}{
		{
			name:      "no limit configured",
			total:     12345,
			limit:     0,
			wantState: StatusNoLimit,
			wantPct:   0,
		},
		{
			name:      "expense under limit",
			total:     6000,
			limit:     10000,
			wantState: StatusInProgress,
			wantPct:   60,
		},
		{
			name:      "expense exactly at limit",
			total:     10000,
			limit:     10000,
			wantState: StatusInProgress,
			wantPct:   100,
		},
		{
			name:       "expense over limit is an alarm",
			total:      12000,
			limit:      10000,
			wantState:  StatusOverBudget,
			wantPct:    100,
			wantExcess: 2000,
		},
		{
			name:       "income over limit is a met goal",
			total:      12000,
			limit:      10000,
			isIncome:   true,
			wantState:  StatusGoalExceeded,
			wantPct:    100,
			wantExcess: 2000,
		},
		{
			name:      "income under target is still in progress",
			total:     4000,
			limit:     10000,
			isIncome:  true,
			wantState: StatusInProgress,
			wantPct:   40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateBudget(Money{Cents: tt.total}, Money{Cents: tt.limit}, tt.isIncome)
			if got.State != tt.wantState {
				t.Errorf("State = %v, want %v", got.State, tt.wantState)
			}
			if got.Pct != tt.wantPct {
				t.Errorf("Pct = %v, want %v", got.Pct, tt.wantPct)
			}
			if got.Excess.Cents != tt.wantExcess {
				t.Errorf("Excess = %d, want %d", got.Excess.Cents, tt.wantExcess)
			}
		})
	}
}
