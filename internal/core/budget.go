package core

const (
	// StatusNoLimit means the category has no limit configured (limit 0).
	StatusNoLimit BudgetState = "no-limit"
	// StatusInProgress means the total is at or under the limit.
	StatusInProgress BudgetState = "in-progress"
	// StatusGoalExceeded means an income category passed its target:
	// the same arithmetic overage as over-budget, framed as success.
	StatusGoalExceeded BudgetState = "goal-exceeded"
	// StatusOverBudget means an expense category passed its ceiling.
	StatusOverBudget BudgetState = "over-budget"
)

type BudgetState string

// BudgetStatus carries enough structure for a caller to render either
// framing of an overage; the percentage alone cannot distinguish a missed
// ceiling from a met goal.
type BudgetStatus struct {
	Pct    float64 // clamped to 100 for display
	State  BudgetState
	Excess Money // total - limit when over, otherwise 0
}

// EvaluateBudget derives the budget status for a category total. The
// clamped percentage is for display; the over/under decision uses the raw
// ratio. Direction matters: exceeding the limit is success for an income
// category and overage for an expense category.
func EvaluateBudget(total, limit Money, isIncome bool) BudgetStatus {
	if limit.Cents == 0 {
		return BudgetStatus{State: StatusNoLimit}
	}

	pct := float64(total.Cents) / float64(limit.Cents) * 100
	if pct > 100 {
		pct = 100
	}

	if total.Cents > limit.Cents {
		state := StatusOverBudget
		if isIncome {
			state = StatusGoalExceeded
		}
		return BudgetStatus{
			Pct:    pct,
			State:  state,
			Excess: Money{Cents: total.Cents - limit.Cents},
		}
	}

	return BudgetStatus{Pct: pct, State: StatusInProgress}
}
