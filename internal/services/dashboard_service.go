package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// AlertKey is the system_config key holding the global broadcast message.
const AlertKey = "global_alert"

// DashboardStore is the storage surface the dashboard needs.
type DashboardStore interface {
	ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error)
	ListCategories(ctx context.Context, owner string) ([]core.Category, error)
	ListHoldings(ctx context.Context, owner string) ([]core.HoldingsItem, error)
	GetSystemConfig(ctx context.Context, key string) (storage.SystemConfigEntry, error)
}

// CategoryBudget pairs a category's period total with its budget status.
type CategoryBudget struct {
	Category core.Category
	Total    core.Money
	Status   core.BudgetStatus
}

// DashboardView is everything the month view renders in one shot.
type DashboardView struct {
	Summary           core.PeriodSummary
	Budgets           []CategoryBudget
	PrevMonthExpenses core.Money
	GrossHoldings     core.Money
	NetHoldings       core.Money
	NetWorth          core.Money
	Alert             string // empty when no active broadcast
}

// DashboardService aggregates the ledger into monthly views. Views are
// cached per owner and month; any ledger write bumps the owner's
// generation, which orphans every cached view at once. Cheaper than
// chasing down each later month whose opening balance the write moved.
type DashboardService struct {
	store DashboardStore
	views cache.Cache[DashboardView]

	mu          sync.Mutex
	generations map[string]uint64
}

var _ Invalidator = (*DashboardService)(nil)

func NewDashboardService(store DashboardStore, views cache.Cache[DashboardView]) *DashboardService {
	return &DashboardService{
		store:       store,
		views:       views,
		generations: make(map[string]uint64),
	}
}

// NewDashboardCache builds the LRU the service expects, sized for a few
// owners' worth of browsed months.
func NewDashboardCache() *cache.LRUCache[DashboardView] {
	return cache.NewLRUCache[DashboardView](256, 10*time.Minute)
}

// Invalidate orphans all cached views for the owner.
func (s *DashboardService) Invalidate(owner string) {
	s.mu.Lock()
	s.generations[owner]++
	s.mu.Unlock()
}

func (s *DashboardService) viewKey(owner string, period core.Period) string {
	s.mu.Lock()
	gen := s.generations[owner]
	s.mu.Unlock()
	return fmt.Sprintf("%s|%d|%d-%02d", owner, gen, period.Year, period.Month)
}

// View computes the owner's dashboard for one calendar month.
func (s *DashboardService) View(ctx context.Context, owner string, period core.Period) (DashboardView, error) {
	key := s.viewKey(owner, period)
	if s.views != nil {
		if v, ok := s.views.Get(key); ok {
			slog.DebugContext(ctx, "Dashboard served from cache",
				"owner", owner, "year", period.Year, "month", period.Month)
			return v, nil
		}
	}

	v, err := s.build(ctx, owner, period)
	if err != nil {
		return DashboardView{}, err
	}

	if s.views != nil {
		s.views.Set(key, v)
	}
	return v, nil
}

func (s *DashboardService) build(ctx context.Context, owner string, period core.Period) (DashboardView, error) {
	transactions, err := s.store.ListTransactions(ctx, owner)
	if err != nil {
		return DashboardView{}, fmt.Errorf("list transactions: %w", err)
	}
	categories, err := s.store.ListCategories(ctx, owner)
	if err != nil {
		return DashboardView{}, fmt.Errorf("list categories: %w", err)
	}
	holdings, err := s.store.ListHoldings(ctx, owner)
	if err != nil {
		return DashboardView{}, fmt.Errorf("list holdings: %w", err)
	}

	summary := core.Aggregate(transactions, categories, period)
	gross, net := core.Value(holdings)

	budgets := make([]CategoryBudget, len(summary.ByCategory))
	for i, ct := range summary.ByCategory {
		budgets[i] = CategoryBudget{
			Category: ct.Category,
			Total:    ct.Total,
			Status:   core.EvaluateBudget(ct.Total, ct.Category.Limit, ct.Category.IsIncome),
		}
	}

	view := DashboardView{
		Summary:           summary,
		Budgets:           budgets,
		PrevMonthExpenses: core.PeriodExpenses(transactions, period.Prev()),
		GrossHoldings:     gross,
		NetHoldings:       net,
		NetWorth:          core.NetWorth(transactions, holdings),
	}

	entry, err := s.store.GetSystemConfig(ctx, AlertKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// no broadcast configured
	case err != nil:
		slog.WarnContext(ctx, "Failed to load global alert", "error", err)
	case entry.IsActive:
		view.Alert = entry.Value
	}

	return view, nil
}
