package services

import (
	"context"
	"fmt"

	"finanzas/internal/core"
)

// CategoryStore is the storage surface the category registry needs.
type CategoryStore interface {
	InsertCategory(ctx context.Context, c core.Category) (int64, error)
	DeleteCategory(ctx context.Context, owner string, id int64) error
	UpdateCategoryLimit(ctx context.Context, owner string, id int64, limit core.Money) error
	ListCategories(ctx context.Context, owner string) ([]core.Category, error)
}

// CategoryService manages the per-owner category registry. Deleting a
// category leaves transactions that reference it untouched; they keep
// counting toward income and expense totals but drop out of category
// breakdowns until recategorized.
type CategoryService struct {
	store       CategoryStore
	invalidator Invalidator
}

func NewCategoryService(store CategoryStore, invalidator Invalidator) *CategoryService {
	return &CategoryService{store: store, invalidator: invalidator}
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.InsertCategory(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(c.Owner)
	}
	return id, nil
}

func (s *CategoryService) Delete(ctx context.Context, owner string, id int64) error {
	if err := s.store.DeleteCategory(ctx, owner, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(owner)
	}
	return nil
}

// SetLimit updates the category's budget limit. Zero clears the limit.
func (s *CategoryService) SetLimit(ctx context.Context, owner string, id int64, limit core.Money) error {
	if limit.Cents < 0 {
		return core.ErrInvalidAmount
	}
	if err := s.store.UpdateCategoryLimit(ctx, owner, id, limit); err != nil {
		return fmt.Errorf("set category limit: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(owner)
	}
	return nil
}

func (s *CategoryService) List(ctx context.Context, owner string) ([]core.Category, error) {
	return s.store.ListCategories(ctx, owner)
}
