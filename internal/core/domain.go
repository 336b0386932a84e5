package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind is the signed classification of a transaction.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Period is a calendar year+month bucket used for aggregation.
	Period struct {
		Year  int
		Month int // 1-12
	}

	// Transaction is a single ledger record, owned by exactly one user.
	Transaction struct {
		ID       int64
		Owner    string
		Name     string
		Amount   Money // non-negative magnitude; sign comes from Kind
		Kind     Kind
		Category string // free-text reference into the category registry, may dangle
		Date     Date
		Tags     string
	}

	// Category is a user-defined budget bucket. IsIncome flips the budget
	// semantics: income categories treat the limit as a goal, expense
	// categories treat it as a ceiling.
	Category struct {
		ID       int64
		Owner    string
		Name     string
		Color    string
		IsIncome bool
		Limit    Money // 0 means no limit
	}

	// ScheduledPayment is a recurring or one-shot charge definition that the
	// materializer turns into concrete transactions.
	ScheduledPayment struct {
		ID            int64
		Owner         string
		Name          string
		Amount        Money
		Category      string
		DayOfMonth    int // 1-31, clamped to the last day of shorter months
		IsRecurring   bool
		LastProcessed Date // zero when never materialized
	}

	// HoldingsItem is an externally priced asset position.
	HoldingsItem struct {
		ID        int64
		Owner     string
		ItemName  string
		Quantity  int64
		UnitPrice Money
	}
)

// AutoTag marks transactions created by the materializer rather than the user.
const AutoTag = "auto"

var (
	ErrInvalidDay      = errors.New("invalid day of month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyOwner      = errors.New("empty owner")
	ErrUnknownCategory = errors.New("unknown category")
	ErrKindMismatch    = errors.New("transaction kind does not match category polarity")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// PeriodOf truncates the date to its calendar month bucket.
func PeriodOf(d Date) Period {
	return Period{Year: d.Year(), Month: int(d.Time.Month())}
}

func PeriodOfTime(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Before reports whether p is strictly earlier than q. Comparison is by
// year then month, never by raw timestamps, so day-of-month skew cannot
// leak a transaction into the wrong bucket.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

func (p Period) Equal(q Period) bool {
	return p.Year == q.Year && p.Month == q.Month
}

// Prev returns the preceding calendar month.
func (p Period) Prev() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Start returns midnight UTC on the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns the number of days in the period's month.
func (p Period) LastDay() int {
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// KindFor derives the transaction kind the category's polarity dictates.
func (c Category) KindFor() Kind {
	if c.IsIncome {
		return Income
	}
	return Expense
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Signed returns the amount in cents with the sign its kind implies.
func (t Transaction) Signed() int64 {
	if t.Kind == Income {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Limit.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (sp ScheduledPayment) Validate() error {
	if strings.TrimSpace(sp.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(sp.Name) == "" {
		return ErrEmptyName
	}
	if sp.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if sp.DayOfMonth < 1 || sp.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (h HoldingsItem) Validate() error {
	if strings.TrimSpace(h.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(h.ItemName) == "" {
		return ErrEmptyName
	}
	if h.Quantity < 0 {
		return errors.New("quantity cannot be negative")
	}
	if h.UnitPrice.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
