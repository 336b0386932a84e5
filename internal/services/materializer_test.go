package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"finanzas/internal/core"
)

type fakeScheduleStore struct {
	mu        sync.Mutex
	nextID    int64
	schedules map[int64]core.ScheduledPayment
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{schedules: make(map[int64]core.ScheduledPayment)}
}

func (f *fakeScheduleStore) InsertScheduledPayment(_ context.Context, sp core.ScheduledPayment) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sp.ID = f.nextID
	f.schedules[sp.ID] = sp
	return sp.ID, nil
}

func (f *fakeScheduleStore) DeleteScheduledPayment(_ context.Context, owner string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.schedules, id)
	return nil
}

func (f *fakeScheduleStore) ListScheduledPayments(_ context.Context, owner string) ([]core.ScheduledPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.ScheduledPayment
	for _, sp := range f.schedules {
		if sp.Owner == owner {
			out = append(out, sp)
		}
	}
	return out, nil
}

func (f *fakeScheduleStore) ClaimScheduledPayment(_ context.Context, owner string, id int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sp, ok := f.schedules[id]
	if !ok || sp.Owner != owner {
		return false, nil
	}
	monthStart := core.PeriodOfTime(now).Start()
	if !sp.LastProcessed.IsEmpty() && !sp.LastProcessed.Time.Before(monthStart) {
		return false, nil
	}
	sp.LastProcessed = core.Date{Time: now}
	f.schedules[id] = sp
	return true, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	nextID  int64
	created []core.Transaction
}

func (f *fakeLedger) CreateMaterialized(_ context.Context, sp core.ScheduledPayment, date core.Date) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.created = append(f.created, core.Transaction{
		ID:       f.nextID,
		Owner:    sp.Owner,
		Name:     sp.Name,
		Amount:   sp.Amount,
		Kind:     core.Expense,
		Category: sp.Category,
		Date:     date,
		Tags:     core.AutoTag,
	})
	return f.nextID, nil
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func mustCreateDefinition(t *testing.T, m *Materializer, sp core.ScheduledPayment) int64 {
	t.Helper()
	id, err := m.CreateDefinition(context.Background(), sp)
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}
	return id
}

func TestMaterializerRun(t *testing.T) {
	rent := core.ScheduledPayment{
		Owner:       "alice",
		Name:        "Rent",
		Amount:      core.Money{Cents: 120000},
		Category:    "Housing",
		DayOfMonth:  1,
		IsRecurring: true,
	}

	tests := []struct {
		name      string
		sp        core.ScheduledPayment
		now       time.Time
		wantFired int
	}{
		{
			name:      "due definition fires",
			sp:        rent,
			now:       time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			wantFired: 1,
		},
		{
			name: "not yet due this month",
			sp: core.ScheduledPayment{
				Owner: "alice", Name: "Gym", Amount: core.Money{Cents: 3000},
				DayOfMonth: 20, IsRecurring: true,
			},
			now:       time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
			wantFired: 0,
		},
		{
			name: "day 31 clamps to end of February",
			sp: core.ScheduledPayment{
				Owner: "alice", Name: "Salary sweep", Amount: core.Money{Cents: 5000},
				DayOfMonth: 31, IsRecurring: true,
			},
			now:       time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC),
			wantFired: 1,
		},
		{
			name: "day 31 not due before end of February",
			sp: core.ScheduledPayment{
				Owner: "alice", Name: "Salary sweep", Amount: core.Money{Cents: 5000},
				DayOfMonth: 31, IsRecurring: true,
			},
			now:       time.Date(2025, 2, 27, 10, 0, 0, 0, time.UTC),
			wantFired: 0,
		},
		{
			name: "already processed this month",
			sp: core.ScheduledPayment{
				Owner: "alice", Name: "Netflix", Amount: core.Money{Cents: 1299},
				DayOfMonth: 5, IsRecurring: true,
				LastProcessed: core.NewDate(2025, 3, 5),
			},
			now:       time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC),
			wantFired: 0,
		},
		{
			name: "processed last month fires again",
			sp: core.ScheduledPayment{
				Owner: "alice", Name: "Netflix", Amount: core.Money{Cents: 1299},
				DayOfMonth: 5, IsRecurring: true,
				LastProcessed: core.NewDate(2025, 2, 5),
			},
			now:       time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC),
			wantFired: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeScheduleStore()
			ledger := &fakeLedger{}
			m := NewMaterializer(store, ledger)
			mustCreateDefinition(t, m, tt.sp)

			fired, err := m.Run(context.Background(), "alice", tt.now)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if fired != tt.wantFired {
				t.Errorf("fired = %d, want %d", fired, tt.wantFired)
			}
			if ledger.count() != tt.wantFired {
				t.Errorf("created %d transactions, want %d", ledger.count(), tt.wantFired)
			}
		})
	}
}

func TestMaterializerIdempotentWithinMonth(t *testing.T) {
	store := newFakeScheduleStore()
	ledger := &fakeLedger{}
	m := NewMaterializer(store, ledger)
	mustCreateDefinition(t, m, core.ScheduledPayment{
		Owner: "alice", Name: "Rent", Amount: core.Money{Cents: 120000},
		Category: "Housing", DayOfMonth: 1, IsRecurring: true,
	})

	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := m.Run(context.Background(), "alice", now); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	if ledger.count() != 1 {
		t.Errorf("created %d transactions after repeated runs, want 1", ledger.count())
	}

	// Next month it fires again.
	april := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	fired, err := m.Run(context.Background(), "alice", april)
	if err != nil {
		t.Fatalf("run in april: %v", err)
	}
	if fired != 1 {
		t.Errorf("fired = %d in new month, want 1", fired)
	}
	if ledger.count() != 2 {
		t.Errorf("created %d transactions total, want 2", ledger.count())
	}
}

func TestMaterializerDeletesOneShot(t *testing.T) {
	store := newFakeScheduleStore()
	ledger := &fakeLedger{}
	m := NewMaterializer(store, ledger)
	mustCreateDefinition(t, m, core.ScheduledPayment{
		Owner: "alice", Name: "Car repair", Amount: core.Money{Cents: 45000},
		DayOfMonth: 10, IsRecurring: false,
	})

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	fired, err := m.Run(context.Background(), "alice", now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	remaining, err := m.ListDefinitions(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("one-shot definition still present after firing: %v", remaining)
	}
}

func TestMaterializerConcurrentRunsFireOnce(t *testing.T) {
	store := newFakeScheduleStore()
	ledger := &fakeLedger{}
	m := NewMaterializer(store, ledger)
	mustCreateDefinition(t, m, core.ScheduledPayment{
		Owner: "alice", Name: "Rent", Amount: core.Money{Cents: 120000},
		Category: "Housing", DayOfMonth: 1, IsRecurring: true,
	})

	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Run(context.Background(), "alice", now); err != nil {
				t.Errorf("concurrent run: %v", err)
			}
		}()
	}
	wg.Wait()

	if ledger.count() != 1 {
		t.Errorf("created %d transactions from concurrent runs, want 1", ledger.count())
	}
}

func TestMaterializerRejectsInvalidDefinition(t *testing.T) {
	m := NewMaterializer(newFakeScheduleStore(), &fakeLedger{})

	_, err := m.CreateDefinition(context.Background(), core.ScheduledPayment{
		Owner: "alice", Name: "Bad day", Amount: core.Money{Cents: 100}, DayOfMonth: 32,
	})
	if err == nil {
		t.Fatal("expected error for day 32")
	}
}
