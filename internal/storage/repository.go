package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finanzas/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// ErrNotFound is returned when a record does not exist for the given owner.
var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- transactions ---

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (owner, name, amount_cents, kind, category, occurred_at, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Owner, t.Name, t.Amount.Cents, string(t.Kind), t.Category,
		t.Date.Format(dateLayout), t.Tags)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"owner", t.Owner,
		"name", t.Name,
		"amount_cents", t.Amount.Cents,
		"kind", t.Kind)

	return id, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET name = ?, amount_cents = ?, kind = ?, category = ?, occurred_at = ?, tags = ?
		 WHERE id = ? AND owner = ?`,
		t.Name, t.Amount.Cents, string(t.Kind), t.Category,
		t.Date.Format(dateLayout), t.Tags, t.ID, t.Owner)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner, name, amount_cents, kind, category, occurred_at, tags
		 FROM transactions WHERE id = ? AND owner = ?`, id, owner)
	return scanTransaction(row)
}

// ListTransactions returns the owner's full history, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, name, amount_cents, kind, category, occurred_at, tags
		 FROM transactions WHERE owner = ? ORDER BY occurred_at DESC, id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t    core.Transaction
		kind string
		date string
	)
	err := row.Scan(&t.ID, &t.Owner, &t.Name, &t.Amount.Cents, &kind, &t.Category, &date, &t.Tags)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Kind = core.Kind(kind)
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse occurred_at %q: %w", date, err)
	}
	t.Date = core.Date{Time: parsed}
	return t, nil
}

// --- categories ---

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_categories (owner, name, color, is_income, budget_limit_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		c.Owner, c.Name, c.Color, c.IsIncome, c.Limit.Cents)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return res.LastInsertId()
}

// DeleteCategory removes the category without touching transactions that
// reference its name; those references dangle and drop out of category
// totals only.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_categories WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) UpdateCategoryLimit(ctx context.Context, owner string, id int64, limit core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_categories SET budget_limit_cents = ? WHERE id = ? AND owner = ?`,
		limit.Cents, id, owner)
	if err != nil {
		return fmt.Errorf("update category limit: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, name, color, is_income, budget_limit_cents
		 FROM user_categories WHERE owner = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &c.Color, &c.IsIncome, &c.Limit.Cents); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCategoryByName(ctx context.Context, owner, name string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner, name, color, is_income, budget_limit_cents
		 FROM user_categories WHERE owner = ? AND name = ?`, owner, name).
		Scan(&c.ID, &c.Owner, &c.Name, &c.Color, &c.IsIncome, &c.Limit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category by name: %w", err)
	}
	return c, nil
}

// --- scheduled payments ---

func (r *SQLiteRepository) InsertScheduledPayment(ctx context.Context, sp core.ScheduledPayment) (int64, error) {
	var last any
	if !sp.LastProcessed.IsZero() {
		last = sp.LastProcessed.Format(dateLayout)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO scheduled_payments (owner, name, amount_cents, category, day_of_month, is_recurring, last_processed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sp.Owner, sp.Name, sp.Amount.Cents, sp.Category, sp.DayOfMonth, sp.IsRecurring, last)
	if err != nil {
		return 0, fmt.Errorf("insert scheduled payment: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) DeleteScheduledPayment(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM scheduled_payments WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete scheduled payment: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) ListScheduledPayments(ctx context.Context, owner string) ([]core.ScheduledPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, name, amount_cents, category, day_of_month, is_recurring, last_processed
		 FROM scheduled_payments WHERE owner = ? ORDER BY day_of_month, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list scheduled payments: %w", err)
	}
	defer rows.Close()

	var out []core.ScheduledPayment
	for rows.Next() {
		var (
			sp   core.ScheduledPayment
			last sql.NullString
		)
		if err := rows.Scan(&sp.ID, &sp.Owner, &sp.Name, &sp.Amount.Cents, &sp.Category,
			&sp.DayOfMonth, &sp.IsRecurring, &last); err != nil {
			return nil, fmt.Errorf("scan scheduled payment: %w", err)
		}
		if last.Valid {
			parsed, err := time.Parse(dateLayout, last.String)
			if err != nil {
				return nil, fmt.Errorf("parse last_processed %q: %w", last.String, err)
			}
			sp.LastProcessed = core.Date{Time: parsed}
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// ListScheduleOwners returns every owner with at least one scheduled
// payment definition. Used by the background worker to know whose
// schedules to materialize.
func (r *SQLiteRepository) ListScheduleOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT owner FROM scheduled_payments ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("list schedule owners: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, owner)
	}
	return out, rows.Err()
}

// ClaimScheduledPayment advances last_processed to the given date, but only
// if the stored value still predates the date's calendar month. The month
// guard and the write are one statement, so two overlapping passes (or two
// devices) cannot both claim the same month: exactly one sees a row
// affected. Dates are stored as YYYY-MM-DD, which compares correctly as
// text.
func (r *SQLiteRepository) ClaimScheduledPayment(ctx context.Context, owner string, id int64, now time.Time) (bool, error) {
	monthStart := core.PeriodOfTime(now).Start().Format(dateLayout)
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_payments SET last_processed = ?
		 WHERE id = ? AND owner = ?
		   AND (last_processed IS NULL OR last_processed < ?)`,
		now.Format(dateLayout), id, owner, monthStart)
	if err != nil {
		return false, fmt.Errorf("claim scheduled payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return n == 1, nil
}

// --- holdings ---

func (r *SQLiteRepository) InsertHolding(ctx context.Context, h core.HoldingsItem) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO holdings (owner, item_name, quantity, unit_price_cents)
		 VALUES (?, ?, ?, ?)`,
		h.Owner, h.ItemName, h.Quantity, h.UnitPrice.Cents)
	if err != nil {
		return 0, fmt.Errorf("insert holding: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) DeleteHolding(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM holdings WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete holding: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) GetHolding(ctx context.Context, owner string, id int64) (core.HoldingsItem, error) {
	var h core.HoldingsItem
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner, item_name, quantity, unit_price_cents
		 FROM holdings WHERE id = ? AND owner = ?`, id, owner).
		Scan(&h.ID, &h.Owner, &h.ItemName, &h.Quantity, &h.UnitPrice.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.HoldingsItem{}, ErrNotFound
	}
	if err != nil {
		return core.HoldingsItem{}, fmt.Errorf("get holding: %w", err)
	}
	return h, nil
}

func (r *SQLiteRepository) ListHoldings(ctx context.Context, owner string) ([]core.HoldingsItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, item_name, quantity, unit_price_cents
		 FROM holdings WHERE owner = ? ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	defer rows.Close()

	var out []core.HoldingsItem
	for rows.Next() {
		var h core.HoldingsItem
		if err := rows.Scan(&h.ID, &h.Owner, &h.ItemName, &h.Quantity, &h.UnitPrice.Cents); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateHoldingPrice(ctx context.Context, owner string, id int64, price core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE holdings SET unit_price_cents = ? WHERE id = ? AND owner = ?`,
		price.Cents, id, owner)
	if err != nil {
		return fmt.Errorf("update holding price: %w", err)
	}
	return requireAffected(res)
}

// --- system config ---

// SystemConfigEntry is a single global key, not owner-scoped.
type SystemConfigEntry struct {
	Key      string
	Value    string
	IsActive bool
}

func (r *SQLiteRepository) GetSystemConfig(ctx context.Context, key string) (SystemConfigEntry, error) {
	var e SystemConfigEntry
	err := r.db.QueryRowContext(ctx,
		`SELECT key, value, is_active FROM system_config WHERE key = ?`, key).
		Scan(&e.Key, &e.Value, &e.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return SystemConfigEntry{}, ErrNotFound
	}
	if err != nil {
		return SystemConfigEntry{}, fmt.Errorf("get system config: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) SetSystemConfig(ctx context.Context, e SystemConfigEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO system_config (key, value, is_active) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, is_active = excluded.is_active`,
		e.Key, e.Value, e.IsActive)
	if err != nil {
		return fmt.Errorf("set system config: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
