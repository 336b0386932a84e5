package services

import (
	"context"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/pricing"
)

// HoldingsStore is the storage surface the portfolio needs.
type HoldingsStore interface {
	InsertHolding(ctx context.Context, h core.HoldingsItem) (int64, error)
	DeleteHolding(ctx context.Context, owner string, id int64) error
	GetHolding(ctx context.Context, owner string, id int64) (core.HoldingsItem, error)
	ListHoldings(ctx context.Context, owner string) ([]core.HoldingsItem, error)
	UpdateHoldingPrice(ctx context.Context, owner string, id int64, price core.Money) error
}

// PriceFetcher quotes a marketplace price for an item by name.
type PriceFetcher interface {
	Fetch(ctx context.Context, itemName string) (pricing.Quote, error)
}

// PortfolioService manages priced asset holdings. Prices come from an
// external marketplace; refreshes are queued so a slow or flaky endpoint
// never blocks a request.
type PortfolioService struct {
	store       HoldingsStore
	prices      PriceFetcher
	amqpClient  *amqp.Client
	invalidator Invalidator
}

func NewPortfolioService(store HoldingsStore, prices PriceFetcher, amqpClient *amqp.Client, invalidator Invalidator) *PortfolioService {
	return &PortfolioService{
		store:       store,
		prices:      prices,
		amqpClient:  amqpClient,
		invalidator: invalidator,
	}
}

func (s *PortfolioService) Create(ctx context.Context, h core.HoldingsItem) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.InsertHolding(ctx, h)
	if err != nil {
		return 0, fmt.Errorf("create holding: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(h.Owner)
	}
	return id, nil
}

func (s *PortfolioService) Delete(ctx context.Context, owner string, id int64) error {
	if err := s.store.DeleteHolding(ctx, owner, id); err != nil {
		return fmt.Errorf("delete holding: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(owner)
	}
	return nil
}

func (s *PortfolioService) List(ctx context.Context, owner string) ([]core.HoldingsItem, error) {
	return s.store.ListHoldings(ctx, owner)
}

// RequestRefresh queues a price refresh for every holding the owner has
// and returns how many were queued.
func (s *PortfolioService) RequestRefresh(ctx context.Context, owner string) (int, error) {
	if s.amqpClient == nil {
		return 0, fmt.Errorf("price refresh queue not available")
	}

	holdings, err := s.store.ListHoldings(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("list holdings: %w", err)
	}

	queued := 0
	for _, h := range holdings {
		if err := s.amqpClient.PublishPriceRefresh(ctx, h.ID, owner); err != nil {
			slog.ErrorContext(ctx, "Failed to queue price refresh",
				"holding_id", h.ID,
				"item_name", h.ItemName,
				"error", err)
			continue
		}
		queued++
	}
	return queued, nil
}

// RefreshPrice fetches the current marketplace quote for one holding and
// stores the lowest listed price. Called by the worker for each queued
// refresh message.
func (s *PortfolioService) RefreshPrice(ctx context.Context, owner string, id int64) error {
	h, err := s.store.GetHolding(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("get holding: %w", err)
	}

	quote, err := s.prices.Fetch(ctx, h.ItemName)
	if err != nil {
		return fmt.Errorf("fetch price for %q: %w", h.ItemName, err)
	}

	if err := s.store.UpdateHoldingPrice(ctx, owner, id, quote.Lowest); err != nil {
		return fmt.Errorf("update holding price: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(owner)
	}

	slog.InfoContext(ctx, "Holding price refreshed",
		"holding_id", id,
		"item_name", h.ItemName,
		"price_cents", quote.Lowest.Cents)
	return nil
}
