package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// LedgerStore is the storage surface the transaction service needs.
type LedgerStore interface {
	InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, owner string, id int64) error
	GetTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error)
	GetCategoryByName(ctx context.Context, owner, name string) (core.Category, error)
}

// Invalidator is notified after every ledger write so cached aggregates for
// the owner can be discarded. A past-dated write shifts the opening balance
// of every later month, so invalidation is per owner, not per month.
type Invalidator interface {
	Invalidate(owner string)
}

// TransactionService orchestrates ledger writes across SQLite and AMQP.
type TransactionService struct {
	store       LedgerStore
	amqpClient  *amqp.Client
	invalidator Invalidator
}

func NewTransactionService(store LedgerStore, amqpClient *amqp.Client, invalidator Invalidator) *TransactionService {
	return &TransactionService{
		store:       store,
		amqpClient:  amqpClient,
		invalidator: invalidator,
	}
}

// Create validates the transaction against its category's polarity and
// saves it. The category must exist and its polarity must agree with the
// transaction's kind; this is the only write path that resolves categories,
// so mismatches cannot enter the ledger.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	category, err := s.store.GetCategoryByName(ctx, t.Owner, t.Category)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("%w: %q", core.ErrUnknownCategory, t.Category)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve category: %w", err)
	}
	if t.Kind != category.KindFor() {
		return 0, fmt.Errorf("%w: %s into %q", core.ErrKindMismatch, t.Kind, category.Name)
	}

	return s.insert(ctx, t)
}

// CreateMaterialized inserts a transaction fired by the scheduled-payment
// materializer. Materialized charges are always expenses, are tagged so
// they can be told apart from manual entries, and skip category resolution:
// a definition must keep firing even after its category was deleted.
func (s *TransactionService) CreateMaterialized(ctx context.Context, sp core.ScheduledPayment, date core.Date) (int64, error) {
	t := core.Transaction{
		Owner:    sp.Owner,
		Name:     sp.Name,
		Amount:   sp.Amount,
		Kind:     core.Expense,
		Category: sp.Category,
		Date:     date,
		Tags:     core.AutoTag,
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}
	return s.insert(ctx, t)
}

func (s *TransactionService) insert(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := s.store.InsertTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(t.Owner)
	}

	// Publish async mirror message (non-blocking)
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping mirror message")
		return id, nil
	}
	if err := s.amqpClient.PublishLedgerEntry(ctx, id, t.Owner); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger entry message",
			"id", id, "owner", t.Owner, "error", err)
		// Don't fail the request - transaction is saved locally
	}

	return id, nil
}

// Update rewrites a transaction, re-running the same category checks as
// Create.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	category, err := s.store.GetCategoryByName(ctx, t.Owner, t.Category)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %q", core.ErrUnknownCategory, t.Category)
	}
	if err != nil {
		return fmt.Errorf("resolve category: %w", err)
	}
	if t.Kind != category.KindFor() {
		return fmt.Errorf("%w: %s into %q", core.ErrKindMismatch, t.Kind, category.Name)
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(t.Owner)
	}
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, owner string, id int64) error {
	if err := s.store.DeleteTransaction(ctx, owner, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(owner)
	}
	return nil
}

func (s *TransactionService) Get(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, owner, id)
}

func (s *TransactionService) List(ctx context.Context, owner string) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, owner)
}
