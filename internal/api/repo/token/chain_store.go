package token_repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ShopFulfillment/internal/api/domain/token"
)

// ChainStore keeps a legacy token list readable next to the relational store.
// Every new token is written to the relational store. Lookups try legacy first
// and fall back to relational. Completing a legacy token first claims a copy in
// the relational store and completes it there, so the single-use guarantee
// lives in shared storage whatever the legacy backend is.
type ChainStore struct {
	legacy     token.Store
	relational token.Store
}

var _ token.Store = (*ChainStore)(nil)

// NewChainStore returns relational unchanged when no legacy store is configured.
func NewChainStore(legacy, relational token.Store) token.Store {
	if legacy == nil {
		return relational
	}
	return &ChainStore{legacy: legacy, relational: relational}
}

func (s *ChainStore) Create(ctx context.Context, t token.Token) error {
	return s.relational.Create(ctx, t)
}

func (s *ChainStore) Get(ctx context.Context, value string) (token.Token, error) {
	t, _, err := s.locate(ctx, value)
	return t, err
}

func (s *ChainStore) MarkStarted(ctx context.Context, value string, at time.Time) error {
	_, owner, err := s.locate(ctx, value)
	if err != nil {
		return err
	}
	return owner.MarkStarted(ctx, value, at)
}

func (s *ChainStore) MarkCompleted(ctx context.Context, value string, at time.Time) (bool, error) {
	t, owner, err := s.locate(ctx, value)
	if errors.Is(err, token.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if owner == s.relational {
		return s.relational.MarkCompleted(ctx, value, at)
	}
	if t.Completed {
		return false, nil
	}

	if err := s.claim(ctx, t); err != nil {
		return false, err
	}
	won, err := s.relational.MarkCompleted(ctx, value, at)
	if err != nil || !won {
		return won, err
	}
	if _, err := s.legacy.MarkCompleted(ctx, value, at); err != nil {
		slog.WarnContext(ctx, "Failed to mirror completion into legacy token list", slog.Any("error", err))
	}
	return true, nil
}

func (s *ChainStore) Purge(ctx context.Context, value string) error {
	_, owner, err := s.locate(ctx, value)
	if errors.Is(err, token.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if owner == s.legacy {
		if err := s.relational.Purge(ctx, value); err != nil && !errors.Is(err, token.ErrNotFound) {
			return fmt.Errorf("purge claimed copy: %w", err)
		}
	}
	return owner.Purge(ctx, value)
}

func (s *ChainStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	fromLegacy, err := s.legacy.PurgeExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("purge legacy tokens: %w", err)
	}
	fromRelational, err := s.relational.PurgeExpired(ctx, now)
	if err != nil {
		return fromLegacy, fmt.Errorf("purge relational tokens: %w", err)
	}
	return fromLegacy + fromRelational, nil
}

// claim copies an unconsumed legacy token into the relational store without
// its order binding, so the order pointer is left alone. A copy written by
// another instance is reused.
func (s *ChainStore) claim(ctx context.Context, t token.Token) error {
	t.OrderID = nil
	t.Completed = false
	t.CompletedAt = nil
	if err := s.relational.Create(ctx, t); err != nil && !errors.Is(err, token.ErrAlreadyExists) {
		return fmt.Errorf("claim legacy token: %w", err)
	}
	return nil
}

// locate finds the store that owns the token. A legacy token that was already
// claimed reports the consumption state of its relational copy.
func (s *ChainStore) locate(ctx context.Context, value string) (token.Token, token.Store, error) {
	t, err := s.legacy.Get(ctx, value)
	if err == nil {
		claimed, err := s.relational.Get(ctx, value)
		switch {
		case err == nil:
			t.Started = t.Started || claimed.Started
			t.Completed = t.Completed || claimed.Completed
			if claimed.Completed {
				t.CompletedAt = claimed.CompletedAt
			}
		case !errors.Is(err, token.ErrNotFound):
			return token.Token{}, nil, fmt.Errorf("claimed copy lookup: %w", err)
		}
		return t, s.legacy, nil
	}
	if !errors.Is(err, token.ErrNotFound) {
		return token.Token{}, nil, fmt.Errorf("legacy lookup: %w", err)
	}

	t, err = s.relational.Get(ctx, value)
	if err != nil {
		return token.Token{}, nil, err
	}
	return t, s.relational, nil
}
