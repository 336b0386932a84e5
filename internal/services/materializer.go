package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"finanzas/internal/core"
)

// ScheduleStore is the storage surface the materializer needs.
type ScheduleStore interface {
	InsertScheduledPayment(ctx context.Context, sp core.ScheduledPayment) (int64, error)
	DeleteScheduledPayment(ctx context.Context, owner string, id int64) error
	ListScheduledPayments(ctx context.Context, owner string) ([]core.ScheduledPayment, error)
	ClaimScheduledPayment(ctx context.Context, owner string, id int64, now time.Time) (bool, error)
}

// MaterializedCreator inserts the transaction a fired definition produces.
type MaterializedCreator interface {
	CreateMaterialized(ctx context.Context, sp core.ScheduledPayment, date core.Date) (int64, error)
}

// Materializer turns scheduled-payment definitions into concrete ledger
// transactions, at most once per definition per calendar month.
//
// Concurrent runs for the same owner collapse into one pass via
// singleflight. The per-definition claim is an atomic conditional update in
// storage, so even runs that race across processes fire each definition at
// most once.
type Materializer struct {
	store  ScheduleStore
	ledger MaterializedCreator
	group  singleflight.Group
}

func NewMaterializer(store ScheduleStore, ledger MaterializedCreator) *Materializer {
	return &Materializer{
		store:  store,
		ledger: ledger,
	}
}

// CreateDefinition registers a new scheduled payment.
func (m *Materializer) CreateDefinition(ctx context.Context, sp core.ScheduledPayment) (int64, error) {
	if err := sp.Validate(); err != nil {
		return 0, err
	}
	id, err := m.store.InsertScheduledPayment(ctx, sp)
	if err != nil {
		return 0, fmt.Errorf("create scheduled payment: %w", err)
	}
	return id, nil
}

func (m *Materializer) DeleteDefinition(ctx context.Context, owner string, id int64) error {
	return m.store.DeleteScheduledPayment(ctx, owner, id)
}

func (m *Materializer) ListDefinitions(ctx context.Context, owner string) ([]core.ScheduledPayment, error) {
	return m.store.ListScheduledPayments(ctx, owner)
}

// Run materializes every due definition for the owner as of now and
// returns how many fired. Runs are deduplicated per owner: a second call
// arriving while one is in flight waits for and shares its result.
func (m *Materializer) Run(ctx context.Context, owner string, now time.Time) (int, error) {
	v, err, _ := m.group.Do(owner, func() (any, error) {
		return m.run(ctx, owner, now)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (m *Materializer) run(ctx context.Context, owner string, now time.Time) (int, error) {
	definitions, err := m.store.ListScheduledPayments(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("list scheduled payments: %w", err)
	}

	period := core.PeriodOfTime(now)
	slog.InfoContext(ctx, "Materializing scheduled payments",
		"owner", owner,
		"total_definitions", len(definitions),
		"processing_date", now.Format("2006-01-02"))

	fired := 0
	for _, sp := range definitions {
		if !m.isDue(sp, now, period) {
			continue
		}

		claimed, err := m.store.ClaimScheduledPayment(ctx, owner, sp.ID, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to claim scheduled payment",
				"schedule_id", sp.ID,
				"owner", owner,
				"error", err)
			continue
		}
		if !claimed {
			// Another pass took this month first.
			continue
		}

		id, err := m.ledger.CreateMaterialized(ctx, sp, core.Date{Time: now})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from scheduled payment",
				"schedule_id", sp.ID,
				"name", sp.Name,
				"error", err)
			continue
		}

		if !sp.IsRecurring {
			if err := m.store.DeleteScheduledPayment(ctx, owner, sp.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to delete one-shot scheduled payment",
					"schedule_id", sp.ID,
					"error", err)
				// Continue anyway - the charge was created
			}
		}

		fired++
		slog.InfoContext(ctx, "Materialized scheduled payment",
			"schedule_id", sp.ID,
			"transaction_id", id,
			"name", sp.Name,
			"amount_cents", sp.Amount.Cents,
			"recurring", sp.IsRecurring)
	}

	slog.InfoContext(ctx, "Scheduled payment materialization complete",
		"owner", owner,
		"fired", fired,
		"total_checked", len(definitions))

	return fired, nil
}

// isDue checks the calendar, not the claim: a definition is due once the
// current month has reached its target day and it has not yet fired this
// month. The target day clamps to the month's last day, so a day-31
// definition still fires in February.
func (m *Materializer) isDue(sp core.ScheduledPayment, now time.Time, period core.Period) bool {
	target := sp.DayOfMonth
	if last := period.LastDay(); target > last {
		target = last
	}
	if now.Day() < target {
		return false
	}
	if !sp.LastProcessed.IsEmpty() && core.PeriodOf(sp.LastProcessed).Equal(period) {
		return false
	}
	return true
}
